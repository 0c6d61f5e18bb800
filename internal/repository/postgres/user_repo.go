package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mvucic/todo-backend/internal/domain"
)

type UserRepo struct {
	db DB
}

func NewUserRepo(db DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `
	u.id, u.username, u.email, u.password_hash, u.is_active, u.is_staff, u.is_superuser,
	u.created_at, u.updated_at, p.email_verified, p.email_verified_at`

func (r *UserRepo) Register(ctx context.Context, user *domain.User, token *domain.VerificationToken) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, is_active, is_staff, is_superuser, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.IsActive, user.IsStaff, user.IsSuperuser, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO user_profiles (id, user_id, email_verified, email_verified_at)
		VALUES ($1, $2, false, NULL)`,
		uuid.New(), user.ID,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO email_verification_tokens (id, user_id, token, created_at, expires_at, used)
		VALUES ($1, $2, $3, $4, $5, false)`,
		token.ID, token.UserID, token.Token, token.CreatedAt, token.ExpiresAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.scanUser(ctx, `
		SELECT `+userColumns+`
		FROM users u JOIN user_profiles p ON p.user_id = u.id
		WHERE u.id = $1`, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(ctx, `
		SELECT `+userColumns+`
		FROM users u JOIN user_profiles p ON p.user_id = u.id
		WHERE u.email = $1`, email)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.scanUser(ctx, `
		SELECT `+userColumns+`
		FROM users u JOIN user_profiles p ON p.user_id = u.id
		WHERE u.username = $1`, username)
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users u JOIN user_profiles p ON p.user_id = u.id
		ORDER BY u.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive, &u.IsStaff, &u.IsSuperuser,
			&u.CreatedAt, &u.UpdatedAt, &u.EmailVerified, &u.EmailVerifiedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepo) VerifyEmail(ctx context.Context, userID, tokenID uuid.UUID) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	// Conditional update: consuming an already-used token affects zero rows
	// and aborts the whole transaction, so a double submit cannot re-verify.
	tag, err := tx.Exec(ctx, `
		UPDATE email_verification_tokens SET used = true
		WHERE id = $1 AND used = false`, tokenID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		UPDATE user_profiles SET email_verified = true, email_verified_at = NOW()
		WHERE user_id = $1`, userID)
	if err != nil {
		return false, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET is_active = true, updated_at = NOW()
		WHERE id = $1`, userID)
	if err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}

func (r *UserRepo) SetVerified(ctx context.Context, userID uuid.UUID, verified bool) error {
	var query string
	if verified {
		query = `UPDATE user_profiles SET email_verified = true, email_verified_at = NOW() WHERE user_id = $1`
	} else {
		query = `UPDATE user_profiles SET email_verified = false, email_verified_at = NULL WHERE user_id = $1`
	}
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *UserRepo) scanUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive, &u.IsStaff, &u.IsSuperuser,
		&u.CreatedAt, &u.UpdatedAt, &u.EmailVerified, &u.EmailVerifiedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
