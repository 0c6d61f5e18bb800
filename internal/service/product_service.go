package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mvucic/todo-backend/internal/domain"
	"github.com/mvucic/todo-backend/internal/repository"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrNotProductOwner = errors.New("only the product owner can perform this action")
)

type ProductService struct {
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
}

func NewProductService(productRepo repository.ProductRepository, userRepo repository.UserRepository) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

type CreateProductInput struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

type UpdateProductInput struct {
	Name  *string  `json:"name"`
	Price *float64 `json:"price"`
	Image *string  `json:"image"`
}

func (s *ProductService) Create(ctx context.Context, ownerID uuid.UUID, input CreateProductInput) (*domain.Product, error) {
	var image *string
	if input.Image != "" {
		image = &input.Image
	}

	now := time.Now()
	product := &domain.Product{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      input.Name,
		Price:     input.Price,
		Image:     image,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}

	return product, nil
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.productRepo.List(ctx)
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, userID, productID uuid.UUID, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if err := s.checkOwner(ctx, userID, product); err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Image != nil {
		if *input.Image == "" {
			product.Image = nil
		} else {
			product.Image = input.Image
		}
	}
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("updating product: %w", err)
	}

	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}

	if err := s.checkOwner(ctx, userID, product); err != nil {
		return err
	}

	return s.productRepo.Delete(ctx, productID)
}

// checkOwner allows the owner and staff users through.
func (s *ProductService) checkOwner(ctx context.Context, userID uuid.UUID, product *domain.Product) error {
	if product.OwnerID == userID {
		return nil
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user != nil && user.IsStaff {
		return nil
	}

	return ErrNotProductOwner
}
