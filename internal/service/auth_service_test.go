package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mvucic/todo-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	users   *fakeUserRepo
	tokens  *fakeTokenRepo
	sender  *fakeSender
	service *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	tokens := newFakeTokenRepo()
	users := newFakeUserRepo(tokens)
	sender := &fakeSender{}
	svc := NewAuthService(users, tokens, sender, "test-secret",
		24*time.Hour, 15*time.Minute, 7*24*time.Hour)
	return &authFixture{users: users, tokens: tokens, sender: sender, service: svc}
}

func (f *authFixture) register(t *testing.T, username, email string) *domain.User {
	t.Helper()
	result, err := f.service.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    email,
		Password: "Str0ng!Pass",
	})
	require.NoError(t, err)
	return result.User
}

func (f *authFixture) pendingToken(t *testing.T, userID uuid.UUID) *domain.VerificationToken {
	t.Helper()
	token, err := f.tokens.GetUnusedByUser(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, token)
	return token
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	result, err := f.service.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "a@x.com",
		Password: "Str0ng!Pass",
	})
	require.NoError(t, err)

	assert.True(t, result.EmailSent)
	assert.False(t, result.User.IsActive)
	assert.False(t, result.User.EmailVerified)
	assert.Nil(t, result.User.EmailVerifiedAt)

	stored, err := f.users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "Str0ng!Pass", stored.PasswordHash)

	// Exactly one pending token, and the email carried it.
	token := f.pendingToken(t, result.User.ID)
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "a@x.com", f.sender.sent[0].To)
	assert.Equal(t, token.Token, f.sender.sent[0].Token)
	assert.Equal(t, domain.TokenActive, token.State(time.Now()))
}

func TestRegisterDuplicates(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "a@x.com")

	tests := []struct {
		name    string
		input   RegisterInput
		wantErr error
	}{
		{
			name:    "duplicate username",
			input:   RegisterInput{Username: "alice", Email: "other@x.com", Password: "Str0ng!Pass"},
			wantErr: ErrUsernameTaken,
		},
		{
			name:    "duplicate email",
			input:   RegisterInput{Username: "alice2", Email: "a@x.com", Password: "Str0ng!Pass"},
			wantErr: ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Register(ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// No extra rows were written.
	assert.Len(t, f.users.users, 1)
	assert.Len(t, f.tokens.tokens, 1)
}

func TestRegisterEmailFailureIsNonFatal(t *testing.T) {
	f := newAuthFixture(t)
	f.sender.sendErr = errors.New("smtp down")

	result, err := f.service.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "a@x.com",
		Password: "Str0ng!Pass",
	})
	require.NoError(t, err)

	assert.False(t, result.EmailSent)

	// The account and its token were still committed.
	stored, err := f.users.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	f.pendingToken(t, stored.ID)
}

func TestRegisterRepoFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.users.registerErr = errors.New("connection reset")

	_, err := f.service.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "a@x.com",
		Password: "Str0ng!Pass",
	})
	require.Error(t, err)

	// Nothing was stored and no email went out.
	assert.Empty(t, f.users.users)
	assert.Empty(t, f.tokens.tokens)
	assert.Empty(t, f.sender.sent)
}

func TestVerifyEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.register(t, "alice", "a@x.com")
	token := f.pendingToken(t, user.ID)

	verified, err := f.service.VerifyEmail(ctx, token.Token)
	require.NoError(t, err)

	assert.True(t, verified.IsActive)
	assert.True(t, verified.EmailVerified)
	require.NotNil(t, verified.EmailVerifiedAt)

	stored := f.tokens.tokens[token.ID]
	assert.True(t, stored.Used)
	assert.Equal(t, domain.TokenUsed, stored.State(time.Now()))
}

func TestVerifyEmailReusedToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.register(t, "alice", "a@x.com")
	token := f.pendingToken(t, user.ID)

	_, err := f.service.VerifyEmail(ctx, token.Token)
	require.NoError(t, err)

	_, err = f.service.VerifyEmail(ctx, token.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyEmailUnknownToken(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.VerifyEmail(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyEmailExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.register(t, "alice", "a@x.com")
	token := f.pendingToken(t, user.ID)

	// Push the stored token past its TTL.
	f.tokens.tokens[token.ID].ExpiresAt = time.Now().Add(-time.Minute)

	_, err := f.service.VerifyEmail(ctx, token.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	// Nothing was mutated.
	stored, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.False(t, stored.EmailVerified)
	assert.False(t, f.tokens.tokens[token.ID].Used)
}

func TestVerifyEmailLostRace(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.register(t, "alice", "a@x.com")
	token := f.pendingToken(t, user.ID)

	// Simulate a concurrent request consuming the token between the read
	// and the conditional update.
	f.tokens.tokens[token.ID].Used = true

	_, err := f.service.VerifyEmail(ctx, token.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLoginUnverified(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.register(t, "alice", "a@x.com")

	// The gate fires regardless of password correctness.
	for _, password := range []string{"Str0ng!Pass", "wrong-password"} {
		_, err := f.service.Login(ctx, LoginInput{Username: "alice", Password: password})

		var verErr *VerificationRequiredError
		require.ErrorAs(t, err, &verErr)
		assert.Equal(t, user.ID, verErr.UserID)
	}
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.register(t, "alice", "a@x.com")
	token := f.pendingToken(t, user.ID)
	_, err := f.service.VerifyEmail(ctx, token.Token)
	require.NoError(t, err)

	result, err := f.service.Login(ctx, LoginInput{Username: "alice", Password: "Str0ng!Pass"})
	require.NoError(t, err)

	assert.Equal(t, "alice", result.User.Username)
	assert.NotEmpty(t, result.Tokens.Access)
	assert.NotEmpty(t, result.Tokens.Refresh)
	assert.NotEqual(t, result.Tokens.Access, result.Tokens.Refresh)
}

func TestLoginBadCredentials(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.register(t, "alice", "a@x.com")
	token := f.pendingToken(t, user.ID)
	_, err := f.service.VerifyEmail(ctx, token.Token)
	require.NoError(t, err)

	tests := []struct {
		name  string
		input LoginInput
	}{
		{name: "unknown username", input: LoginInput{Username: "nobody", Password: "Str0ng!Pass"}},
		{name: "wrong password", input: LoginInput{Username: "alice", Password: "wrong-password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Login(ctx, tt.input)
			assert.ErrorIs(t, err, ErrInvalidCreds)
		})
	}
}

func TestRefresh(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.register(t, "alice", "a@x.com")
	token := f.pendingToken(t, user.ID)
	_, err := f.service.VerifyEmail(ctx, token.Token)
	require.NoError(t, err)

	result, err := f.service.Login(ctx, LoginInput{Username: "alice", Password: "Str0ng!Pass"})
	require.NoError(t, err)

	pair, err := f.service.Refresh(ctx, result.Tokens.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)

	// An access token is not accepted as a refresh token.
	_, err = f.service.Refresh(ctx, result.Tokens.Access)
	assert.ErrorIs(t, err, ErrInvalidRefresh)

	// Garbage is rejected.
	_, err = f.service.Refresh(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestResendVerificationUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	// Unknown address: success with no side effects, so the response is
	// indistinguishable from the known-address case.
	err := f.service.ResendVerification(context.Background(), "ghost@x.com")
	require.NoError(t, err)
	assert.Empty(t, f.sender.sent)
	assert.Empty(t, f.tokens.tokens)
}

func TestResendVerificationAlreadyVerified(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.register(t, "alice", "a@x.com")
	token := f.pendingToken(t, user.ID)
	_, err := f.service.VerifyEmail(ctx, token.Token)
	require.NoError(t, err)

	sentBefore := len(f.sender.sent)
	err = f.service.ResendVerification(ctx, "a@x.com")
	assert.ErrorIs(t, err, ErrAlreadyVerified)
	assert.Len(t, f.sender.sent, sentBefore)
}

func TestResendVerificationReusesActiveToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.register(t, "alice", "a@x.com")
	token := f.pendingToken(t, user.ID)

	err := f.service.ResendVerification(ctx, "a@x.com")
	require.NoError(t, err)

	// Still one token for the user, and the resent email carries the same value.
	assert.Len(t, f.tokens.tokens, 1)
	require.Len(t, f.sender.sent, 2)
	assert.Equal(t, token.Token, f.sender.sent[1].Token)
}

func TestResendVerificationReplacesExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.register(t, "alice", "a@x.com")
	token := f.pendingToken(t, user.ID)

	f.tokens.tokens[token.ID].ExpiresAt = time.Now().Add(-time.Minute)

	err := f.service.ResendVerification(ctx, "a@x.com")
	require.NoError(t, err)

	// The expired token is gone, replaced by a fresh one.
	assert.Len(t, f.tokens.tokens, 1)
	fresh := f.pendingToken(t, user.ID)
	assert.NotEqual(t, token.ID, fresh.ID)
	assert.NotEqual(t, token.Token, fresh.Token)
	assert.Equal(t, domain.TokenActive, fresh.State(time.Now()))
}

func TestResendVerificationTokenCreateFailure(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.register(t, "alice", "a@x.com")
	token := f.pendingToken(t, user.ID)

	f.tokens.tokens[token.ID].ExpiresAt = time.Now().Add(-time.Minute)
	f.tokens.createErr = errors.New("connection reset")

	err := f.service.ResendVerification(ctx, "a@x.com")
	require.Error(t, err)

	// No email goes out without a stored replacement token.
	assert.Len(t, f.sender.sent, 1)
}

func TestResendVerificationSendFailureIsFatal(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "a@x.com")

	f.sender.sendErr = errors.New("smtp down")
	err := f.service.ResendVerification(ctx, "a@x.com")
	assert.ErrorIs(t, err, ErrEmailSendFailed)
}

func TestProfile(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.register(t, "alice", "a@x.com")

	profile, err := f.service.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)

	_, err = f.service.Profile(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
