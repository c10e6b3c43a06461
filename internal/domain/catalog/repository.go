package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductFilter narrows product listings
type ProductFilter struct {
	Search         string
	CategoryID     *uuid.UUID
	ManufacturerID *uuid.UUID
	Status         *ProductStatus
	MinPrice       *decimal.Decimal
	MaxPrice       *decimal.Decimal
	InStockOnly    bool
	OrderBy        string // name, display_price, created_at
	OrderDir       string
	Page           int
	PageSize       int
}

// ProductRepository persists products
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Product, error)
	FindBySKU(ctx context.Context, manufacturerID uuid.UUID, sku string) (*Product, error)
	FindAll(ctx context.Context, filter ProductFilter) ([]*Product, int64, error)
	CountByStatus(ctx context.Context, status ProductStatus) (int64, error)

	// DecrementStock atomically reduces stock, failing with
	// ErrInsufficientStock instead of going below zero
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) error

	// IncrementStock returns stock, e.g. after a cancellation
	IncrementStock(ctx context.Context, id uuid.UUID, qty int) error
}

// CategoryRepository persists categories
type CategoryRepository interface {
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindBySlug(ctx context.Context, slug string) (*Category, error)
	FindAll(ctx context.Context) ([]*Category, error)
	HasProducts(ctx context.Context, id uuid.UUID) (bool, error)
}
