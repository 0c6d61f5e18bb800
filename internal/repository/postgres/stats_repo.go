package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mvucic/todo-backend/internal/domain"
)

type StatsRepo struct {
	pool *pgxpool.Pool
}

func NewStatsRepo(pool *pgxpool.Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

func (r *StatsRepo) Collect(ctx context.Context) (*domain.Stats, error) {
	var s domain.Stats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM user_profiles WHERE email_verified = true),
			(SELECT COUNT(*) FROM user_profiles WHERE email_verified = false),
			(SELECT COUNT(*) FROM users WHERE is_staff = true),
			(SELECT COUNT(*) FROM users WHERE is_superuser = true),
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM email_verification_tokens WHERE used = false AND expires_at > NOW()),
			(SELECT COUNT(*) FROM email_verification_tokens WHERE expires_at < NOW())`).Scan(
		&s.TotalUsers, &s.VerifiedUsers, &s.UnverifiedUsers,
		&s.StaffUsers, &s.Superusers, &s.TotalProducts,
		&s.ActiveTokens, &s.ExpiredTokens,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
