package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mvucic/todo-backend/internal/domain"
)

// In-memory repositories mirroring the postgres semantics: nil result for
// missing rows, conditional token consumption in VerifyEmail.

type fakeTokenRepo struct {
	tokens map[uuid.UUID]*domain.VerificationToken

	createErr error
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[uuid.UUID]*domain.VerificationToken)}
}

func (f *fakeTokenRepo) Create(ctx context.Context, token *domain.VerificationToken) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *token
	f.tokens[token.ID] = &cp
	return nil
}

func (f *fakeTokenRepo) GetByValue(ctx context.Context, value string) (*domain.VerificationToken, error) {
	for _, t := range f.tokens {
		if t.Token == value {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeTokenRepo) GetUnusedByUser(ctx context.Context, userID uuid.UUID) (*domain.VerificationToken, error) {
	var latest *domain.VerificationToken
	for _, t := range f.tokens {
		if t.UserID != userID || t.Used {
			continue
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) {
			latest = t
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeTokenRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.tokens, id)
	return nil
}

func (f *fakeTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	now := time.Now()
	var deleted int64
	for id, t := range f.tokens {
		if t.IsExpired(now) {
			delete(f.tokens, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeUserRepo struct {
	users  map[uuid.UUID]*domain.User
	tokens *fakeTokenRepo

	registerErr error
}

func newFakeUserRepo(tokens *fakeTokenRepo) *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User), tokens: tokens}
}

func (f *fakeUserRepo) Register(ctx context.Context, user *domain.User, token *domain.VerificationToken) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	cp := *user
	f.users[user.ID] = &cp
	return f.tokens.Create(ctx, token)
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	for _, u := range f.users {
		users = append(users, *u)
	}
	return users, nil
}

func (f *fakeUserRepo) VerifyEmail(ctx context.Context, userID, tokenID uuid.UUID) (bool, error) {
	token, ok := f.tokens.tokens[tokenID]
	if !ok || token.Used {
		return false, nil
	}
	token.Used = true

	user, ok := f.users[userID]
	if !ok {
		return false, errors.New("user row missing")
	}
	now := time.Now()
	user.EmailVerified = true
	user.EmailVerifiedAt = &now
	user.IsActive = true
	return true, nil
}

func (f *fakeUserRepo) SetVerified(ctx context.Context, userID uuid.UUID, verified bool) error {
	user, ok := f.users[userID]
	if !ok {
		return errors.New("user row missing")
	}
	if verified {
		now := time.Now()
		user.EmailVerified = true
		user.EmailVerifiedAt = &now
	} else {
		user.EmailVerified = false
		user.EmailVerifiedAt = nil
	}
	return nil
}

type fakeProductRepo struct {
	products map[uuid.UUID]*domain.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*domain.Product)}
}

func (f *fakeProductRepo) Create(ctx context.Context, product *domain.Product) error {
	cp := *product
	f.products[product.ID] = &cp
	return nil
}

func (f *fakeProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	for _, p := range f.products {
		products = append(products, *p)
	}
	return products, nil
}

func (f *fakeProductRepo) Update(ctx context.Context, product *domain.Product) error {
	cp := *product
	f.products[product.ID] = &cp
	return nil
}

func (f *fakeProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.products, id)
	return nil
}

type fakeStatsRepo struct {
	stats domain.Stats
}

func (f *fakeStatsRepo) Collect(ctx context.Context) (*domain.Stats, error) {
	cp := f.stats
	return &cp, nil
}

type fakeSender struct {
	sendErr error

	sent []sentEmail
}

type sentEmail struct {
	To       string
	Username string
	Token    string
}

func (f *fakeSender) SendVerificationEmail(to, username, token string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentEmail{To: to, Username: username, Token: token})
	return nil
}
