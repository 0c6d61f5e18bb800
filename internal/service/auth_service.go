package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mvucic/todo-backend/internal/domain"
	"github.com/mvucic/todo-backend/internal/email"
	"github.com/mvucic/todo-backend/internal/repository"
	"golang.org/x/crypto/argon2"
)

var (
	ErrUsernameTaken   = errors.New("username already exists")
	ErrEmailTaken      = errors.New("email already exists")
	ErrInvalidCreds    = errors.New("invalid credentials")
	ErrInvalidToken    = errors.New("invalid or expired verification token")
	ErrInvalidRefresh  = errors.New("invalid or expired refresh token")
	ErrTokenExpired    = errors.New("verification token has expired")
	ErrAlreadyVerified = errors.New("email is already verified")
	ErrEmailSendFailed = errors.New("failed to send verification email")
	ErrUserNotFound    = errors.New("user not found")
)

// VerificationRequiredError rejects a login for an unverified account. It
// carries the user ID so the client can offer a resend.
type VerificationRequiredError struct {
	UserID uuid.UUID
}

func (e *VerificationRequiredError) Error() string {
	return "email verification required"
}

type AuthService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	sender    email.Sender
	jwtSecret []byte

	tokenTTL   time.Duration
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	sender email.Sender,
	jwtSecret string,
	tokenTTL, accessTTL, refreshTTL time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		sender:     sender,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type RegisterResult struct {
	User      *domain.User
	EmailSent bool
}

type LoginResult struct {
	User   *domain.User
	Tokens *TokenPair
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	existing, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	existing, err = s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		IsActive:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	token, err := s.mintToken(user.ID, now)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Register(ctx, user, token); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	// Email delivery is outside the transaction; a send failure keeps the
	// account and only changes the response message.
	sent := true
	if err := s.sender.SendVerificationEmail(user.Email, user.Username, token.Token); err != nil {
		sent = false
	}

	return &RegisterResult{User: user, EmailSent: sent}, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, tokenValue string) (*domain.User, error) {
	token, err := s.tokenRepo.GetByValue(ctx, tokenValue)
	if err != nil {
		return nil, err
	}
	// A missing token and a used token are indistinguishable to the caller.
	if token == nil || token.Used {
		return nil, ErrInvalidToken
	}

	if token.IsExpired(time.Now()) {
		return nil, ErrTokenExpired
	}

	ok, err := s.userRepo.VerifyEmail(ctx, token.UserID, token.ID)
	if err != nil {
		return nil, fmt.Errorf("verifying email: %w", err)
	}
	if !ok {
		// Lost the race against a concurrent verification of the same token.
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// ResendVerification reissues a verification token and emails it. A nil error
// for an unknown email is deliberate: the handler answers with the same
// generic message either way.
func (s *AuthService) ResendVerification(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return err
	}

	if err := s.sender.SendVerificationEmail(user.Email, user.Username, token.Token); err != nil {
		return fmt.Errorf("%w: %v", ErrEmailSendFailed, err)
	}

	return nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCreds
	}

	// The verification gate comes before the password check; a correct
	// password does not get an unverified account past it.
	if !user.EmailVerified {
		return nil, &VerificationRequiredError{UserID: user.ID}
	}

	if !verifyPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCreds
	}

	tokens, err := s.generatePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating tokens: %w", err)
	}

	return &LoginResult{User: user, Tokens: tokens}, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.parseToken(refreshToken, "refresh")
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidRefresh
	}

	pair, err := s.generatePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating tokens: %w", err)
	}

	return pair, nil
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// issueToken applies the reissue policy: an unused, unexpired token is
// reused, an expired one is deleted and replaced. At most one token drives
// any given email.
func (s *AuthService) issueToken(ctx context.Context, userID uuid.UUID) (*domain.VerificationToken, error) {
	now := time.Now()

	existing, err := s.tokenRepo.GetUnusedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !existing.IsExpired(now) {
			return existing, nil
		}
		if err := s.tokenRepo.Delete(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("deleting expired token: %w", err)
		}
	}

	token, err := s.mintToken(userID, now)
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("creating token: %w", err)
	}

	return token, nil
}

func (s *AuthService) mintToken(userID uuid.UUID, now time.Time) (*domain.VerificationToken, error) {
	value, err := generateTokenValue()
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &domain.VerificationToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenTTL),
		Used:      false,
	}, nil
}

func (s *AuthService) generatePair(userID uuid.UUID) (*TokenPair, error) {
	access, err := s.generateToken(userID, "access", s.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := s.generateToken(userID, "refresh", s.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *AuthService) generateToken(userID uuid.UUID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"type": tokenType,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) parseToken(tokenStr, wantType string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}

	if claims["type"] != wantType {
		return uuid.Nil, ErrInvalidToken
	}

	sub, _ := claims.GetSubject()
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return userID, nil
}

func generateTokenValue() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)

	return fmt.Sprintf("%s:%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func verifyPassword(password, encoded string) bool {
	saltB64, hashB64, ok := strings.Cut(encoded, ":")
	if !ok {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil {
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(hashB64)
	if err != nil {
		return false
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare(hash, expectedHash) == 1
}
