package catalog

import (
	"time"

	"github.com/d2bcart/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductRequest carries the manufacturer-editable fields of a product
type ProductRequest struct {
	CategoryID  *uuid.UUID      `json:"category_id"`
	Name        string          `json:"name" binding:"required,min=1,max=200"`
	SKU         string          `json:"sku" binding:"required,min=1,max=64"`
	Description string          `json:"description" binding:"max=5000"`
	BasePrice   decimal.Decimal `json:"base_price" binding:"required"`
	MOQ         int             `json:"moq" binding:"required,min=1"`
	Stock       int             `json:"stock" binding:"min=0"`
	HSNCode     string          `json:"hsn_code" binding:"omitempty,numeric,max=8"`
	GSTRate     int             `json:"gst_rate" binding:"oneof=0 5 12 18 28"`
	WeightGrams int             `json:"weight_grams" binding:"min=0"`
	LengthCM    decimal.Decimal `json:"length_cm"`
	BreadthCM   decimal.Decimal `json:"breadth_cm"`
	HeightCM    decimal.Decimal `json:"height_cm"`
}

func (r ProductRequest) toInput() catalog.ProductInput {
	return catalog.ProductInput{
		CategoryID:  r.CategoryID,
		Name:        r.Name,
		SKU:         r.SKU,
		Description: r.Description,
		BasePrice:   r.BasePrice,
		MOQ:         r.MOQ,
		Stock:       r.Stock,
		HSNCode:     r.HSNCode,
		GSTRate:     r.GSTRate,
		WeightGrams: r.WeightGrams,
		Dimensions: catalog.Dimensions{
			LengthCM:  r.LengthCM,
			BreadthCM: r.BreadthCM,
			HeightCM:  r.HeightCM,
		},
	}
}

// ProductQuery filters product listings
type ProductQuery struct {
	Search         string           `form:"search"`
	CategoryID     *uuid.UUID       `form:"-"`
	ManufacturerID *uuid.UUID       `form:"-"`
	Status         string           `form:"status"`
	MinPrice       *decimal.Decimal `form:"min_price"`
	MaxPrice       *decimal.Decimal `form:"max_price"`
	InStockOnly    bool             `form:"in_stock"`
	OrderBy        string           `form:"order_by" binding:"omitempty,oneof=name display_price created_at"`
	OrderDir       string           `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Page           int              `form:"page"`
	PageSize       int              `form:"page_size"`
}

func (q ProductQuery) toFilter() catalog.ProductFilter {
	f := catalog.ProductFilter{
		Search:         q.Search,
		CategoryID:     q.CategoryID,
		ManufacturerID: q.ManufacturerID,
		MinPrice:       q.MinPrice,
		MaxPrice:       q.MaxPrice,
		InStockOnly:    q.InStockOnly,
		OrderBy:        q.OrderBy,
		OrderDir:       q.OrderDir,
		Page:           q.Page,
		PageSize:       q.PageSize,
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
	if q.Status != "" {
		status := catalog.ProductStatus(q.Status)
		f.Status = &status
	}
	return f
}

// ProductResponse is a product as shown to clients. Cost fields are only
// filled for the owning manufacturer and admins.
type ProductResponse struct {
	ID              uuid.UUID        `json:"id"`
	ManufacturerID  uuid.UUID        `json:"manufacturer_id"`
	CategoryID      *uuid.UUID       `json:"category_id,omitempty"`
	Name            string           `json:"name"`
	Slug            string           `json:"slug"`
	SKU             string           `json:"sku"`
	Description     string           `json:"description"`
	DisplayPrice    decimal.Decimal  `json:"display_price"`
	BasePrice       *decimal.Decimal `json:"base_price,omitempty"`
	MarginPercent   *decimal.Decimal `json:"margin_percent,omitempty"`
	MOQ             int              `json:"moq"`
	Stock           int              `json:"stock"`
	InStock         bool             `json:"in_stock"`
	HSNCode         string           `json:"hsn_code,omitempty"`
	GSTRate         int              `json:"gst_rate"`
	WeightGrams     int              `json:"weight_grams"`
	Images          []string         `json:"images"`
	Status          string           `json:"status"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	ApprovedAt      *time.Time       `json:"approved_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// CategoryRequest creates or updates a category
type CategoryRequest struct {
	Name      string     `json:"name" binding:"required,min=1,max=100"`
	ParentID  *uuid.UUID `json:"parent_id"`
	SortOrder int        `json:"sort_order"`
}

// CategoryResponse is a category with its children
type CategoryResponse struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	Slug      string             `json:"slug"`
	ParentID  *uuid.UUID         `json:"parent_id,omitempty"`
	SortOrder int                `json:"sort_order"`
	Children  []CategoryResponse `json:"children,omitempty"`
}

// ImageUploadRequest asks for a presigned image upload
type ImageUploadRequest struct {
	ContentType string `json:"content_type" binding:"required,oneof=image/jpeg image/png image/webp"`
}

// ImageUploadResponse carries the presigned upload target
type ImageUploadResponse struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CatalogPDFRequest selects what goes into a printed catalog
type CatalogPDFRequest struct {
	Title          string     `json:"title"`
	CategoryID     *uuid.UUID `json:"category_id"`
	ManufacturerID *uuid.UUID `json:"manufacturer_id"`
}

// CatalogPDFResult describes an uploaded catalog
type CatalogPDFResult struct {
	Key          string    `json:"key"`
	URL          string    `json:"url"`
	ExpiresAt    time.Time `json:"expires_at"`
	ProductCount int       `json:"product_count"`
	SizeBytes    int       `json:"size_bytes"`
}
