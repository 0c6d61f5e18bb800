package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mvucic/todo-backend/internal/domain"
)

type TokenRepo struct {
	pool *pgxpool.Pool
}

func NewTokenRepo(pool *pgxpool.Pool) *TokenRepo {
	return &TokenRepo{pool: pool}
}

func (r *TokenRepo) Create(ctx context.Context, token *domain.VerificationToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO email_verification_tokens (id, user_id, token, created_at, expires_at, used)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		token.ID, token.UserID, token.Token, token.CreatedAt, token.ExpiresAt, token.Used,
	)
	return err
}

func (r *TokenRepo) GetByValue(ctx context.Context, value string) (*domain.VerificationToken, error) {
	return r.scanToken(ctx, `
		SELECT id, user_id, token, created_at, expires_at, used
		FROM email_verification_tokens
		WHERE token = $1`, value)
}

func (r *TokenRepo) GetUnusedByUser(ctx context.Context, userID uuid.UUID) (*domain.VerificationToken, error) {
	return r.scanToken(ctx, `
		SELECT id, user_id, token, created_at, expires_at, used
		FROM email_verification_tokens
		WHERE user_id = $1 AND used = false
		ORDER BY created_at DESC
		LIMIT 1`, userID)
}

func (r *TokenRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM email_verification_tokens WHERE id = $1`, id)
	return err
}

func (r *TokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM email_verification_tokens WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *TokenRepo) scanToken(ctx context.Context, query string, arg any) (*domain.VerificationToken, error) {
	var t domain.VerificationToken
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&t.ID, &t.UserID, &t.Token, &t.CreatedAt, &t.ExpiresAt, &t.Used,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
