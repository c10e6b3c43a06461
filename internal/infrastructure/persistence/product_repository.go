package persistence

import (
	"context"

	"github.com/d2bcart/backend/internal/domain/catalog"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var productSortColumns = map[string]string{
	"name":          "name",
	"display_price": "display_price",
	"created_at":    "created_at",
	"stock":         "stock",
}

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Create creates a new product
func (r *GormProductRepository) Create(ctx context.Context, p *catalog.Product) error {
	err := r.db.WithContext(ctx).Create(models.ProductModelFromDomain(p)).Error
	if isUniqueViolation(err) {
		return shared.ErrAlreadyExists.WithDetail("sku", p.SKU)
	}
	return err
}

// Update saves an existing product
func (r *GormProductRepository) Update(ctx context.Context, p *catalog.Product) error {
	result := r.db.WithContext(ctx).Save(models.ProductModelFromDomain(p))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a product by ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindBySlug finds a product by slug
func (r *GormProductRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs loads several products, skipping unknown IDs
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.Product, error) {
	if len(ids) == 0 {
		return []*catalog.Product{}, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

// FindBySKU finds a manufacturer's product by SKU
func (r *GormProductRepository) FindBySKU(ctx context.Context, manufacturerID uuid.UUID, sku string) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("manufacturer_id = ? AND sku = ?", manufacturerID, sku).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns products matching the filter with pagination
func (r *GormProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]*catalog.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{})

	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(sku) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, p, p, p)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.ManufacturerID != nil {
		query = query.Where("manufacturer_id = ?", *filter.ManufacturerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.MinPrice != nil {
		query = query.Where("display_price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("display_price <= ?", *filter.MaxPrice)
	}
	if filter.InStockOnly {
		query = query.Where("stock >= moq")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProductModel
	ordered := query.Order(orderClause(filter.OrderBy, filter.OrderDir, productSortColumns, "created_at"))
	paged, _ := paginate(ordered, filter.Page, filter.PageSize)
	if err := paged.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toProducts(rows), total, nil
}

// CountByStatus counts products in a status
func (r *GormProductRepository) CountByStatus(ctx context.Context, status catalog.ProductStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// DecrementStock reduces stock with a guarded UPDATE so concurrent buyers
// can never drive it negative
func (r *GormProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return shared.ErrInvalidInput
	}
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ? AND stock >= ?", id, qty).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var model models.ProductModel
	if err := r.db.WithContext(ctx).Select("id", "stock").First(&model, "id = ?", id).Error; err != nil {
		return translateNotFound(err)
	}
	return shared.ErrInsufficientStock.
		WithDetail("product_id", id.String()).
		WithDetail("available", model.Stock)
}

// IncrementStock returns stock to a product
func (r *GormProductRepository) IncrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return shared.ErrInvalidInput
	}
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock + ?", qty),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toProducts(rows []models.ProductModel) []*catalog.Product {
	products := make([]*catalog.Product, len(rows))
	for i := range rows {
		products[i] = rows[i].ToDomain()
	}
	return products
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
