package domain

import (
	"time"

	"github.com/google/uuid"
)

// TokenState is the derived lifecycle state of a verification token.
// USED is terminal; EXPIRED is derived from the clock, never stored.
type TokenState string

const (
	TokenActive  TokenState = "active"
	TokenExpired TokenState = "expired"
	TokenUsed    TokenState = "used"
)

type VerificationToken struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
}

func (t *VerificationToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *VerificationToken) State(now time.Time) TokenState {
	switch {
	case t.Used:
		return TokenUsed
	case t.IsExpired(now):
		return TokenExpired
	default:
		return TokenActive
	}
}
