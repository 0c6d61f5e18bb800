package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mvucic/todo-backend/internal/domain"
)

type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

func (r *ProductRepo) Create(ctx context.Context, product *domain.Product) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (id, owner_id, name, price, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		product.ID, product.OwnerID, product.Name, product.Price,
		product.Image, product.CreatedAt, product.UpdatedAt,
	)
	return err
}

func (r *ProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx, `
		SELECT pr.id, pr.owner_id, pr.name, pr.price, pr.image, pr.created_at, pr.updated_at, u.username
		FROM products pr JOIN users u ON u.id = pr.owner_id
		WHERE pr.id = $1`, id).Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.Price, &p.Image, &p.CreatedAt, &p.UpdatedAt, &p.OwnerUsername,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT pr.id, pr.owner_id, pr.name, pr.price, pr.image, pr.created_at, pr.updated_at, u.username
		FROM products pr JOIN users u ON u.id = pr.owner_id
		ORDER BY pr.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.OwnerID, &p.Name, &p.Price, &p.Image, &p.CreatedAt, &p.UpdatedAt, &p.OwnerUsername,
		); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *ProductRepo) Update(ctx context.Context, product *domain.Product) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE products SET name = $1, price = $2, image = $3, updated_at = $4
		WHERE id = $5`,
		product.Name, product.Price, product.Image, product.UpdatedAt, product.ID,
	)
	return err
}

func (r *ProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	return err
}
