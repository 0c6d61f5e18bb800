package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/mvucic/todo-backend/internal/domain"
	"github.com/mvucic/todo-backend/internal/repository"
)

// AdminService backs the staff-only API: dashboard statistics and the
// moderation actions the admin UI exposes.
type AdminService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	statsRepo repository.StatsRepository
}

func NewAdminService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	statsRepo repository.StatsRepository,
) *AdminService {
	return &AdminService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		statsRepo: statsRepo,
	}
}

func (s *AdminService) Stats(ctx context.Context) (*domain.Stats, error) {
	return s.statsRepo.Collect(ctx)
}

func (s *AdminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.userRepo.List(ctx)
}

// SetUserVerified force-sets the verification flag, mirroring the admin
// verify/unverify actions. Idempotent.
func (s *AdminService) SetUserVerified(ctx context.Context, userID uuid.UUID, verified bool) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if user.EmailVerified != verified {
		if err := s.userRepo.SetVerified(ctx, userID, verified); err != nil {
			return nil, err
		}
	}

	return s.userRepo.GetByID(ctx, userID)
}

func (s *AdminService) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokenRepo.DeleteExpired(ctx)
}
