package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/mvucic/todo-backend/internal/domain"
)

type UserRepository interface {
	// Register inserts the user, its profile and the initial verification
	// token in a single transaction.
	Register(ctx context.Context, user *domain.User, token *domain.VerificationToken) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	// VerifyEmail marks the token used, the profile verified and the user
	// active in a single transaction. The token update is conditional on
	// used = false; ok is false when another request already consumed it.
	VerifyEmail(ctx context.Context, userID, tokenID uuid.UUID) (ok bool, err error)
	SetVerified(ctx context.Context, userID uuid.UUID, verified bool) error
}

type TokenRepository interface {
	Create(ctx context.Context, token *domain.VerificationToken) error
	GetByValue(ctx context.Context, value string) (*domain.VerificationToken, error)
	GetUnusedByUser(ctx context.Context, userID uuid.UUID) (*domain.VerificationToken, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type StatsRepository interface {
	Collect(ctx context.Context) (*domain.Stats, error)
}
