package models

import (
	"time"

	"github.com/d2bcart/backend/internal/domain/catalog"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryModel is the persistence model for Category
type CategoryModel struct {
	BaseModel
	Name      string     `gorm:"type:varchar(100);not null"`
	Slug      string     `gorm:"type:varchar(120);not null;uniqueIndex"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index"`
	SortOrder int        `gorm:"not null;default:0"`
	ImageKey  string     `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Slug:       m.Slug,
		ParentID:   m.ParentID,
		SortOrder:  m.SortOrder,
		ImageKey:   m.ImageKey,
	}
}

// CategoryModelFromDomain creates a persistence model from a domain Category
func CategoryModelFromDomain(c *catalog.Category) *CategoryModel {
	m := &CategoryModel{
		Name:      c.Name,
		Slug:      c.Slug,
		ParentID:  c.ParentID,
		SortOrder: c.SortOrder,
		ImageKey:  c.ImageKey,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// ProductModel is the persistence model for the Product aggregate
type ProductModel struct {
	AggregateModel
	ManufacturerID  uuid.UUID             `gorm:"type:uuid;not null;index;uniqueIndex:idx_product_manufacturer_sku,priority:1"`
	CategoryID      *uuid.UUID            `gorm:"type:uuid;index"`
	Name            string                `gorm:"type:varchar(200);not null"`
	Slug            string                `gorm:"type:varchar(250);not null;uniqueIndex"`
	SKU             string                `gorm:"column:sku;type:varchar(64);not null;uniqueIndex:idx_product_manufacturer_sku,priority:2"`
	Description     string                `gorm:"type:text"`
	BasePrice       decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	MarginPercent   decimal.Decimal       `gorm:"type:decimal(6,2);not null;default:0"`
	DisplayPrice    decimal.Decimal       `gorm:"type:decimal(18,2);not null;index"`
	MOQ             int                   `gorm:"column:moq;not null;default:1"`
	Stock           int                   `gorm:"not null;default:0"`
	HSNCode         string                `gorm:"column:hsn_code;type:varchar(8)"`
	GSTRate         int                   `gorm:"column:gst_rate;not null;default:0"`
	WeightGrams     int                   `gorm:"not null;default:0"`
	LengthCM        decimal.Decimal       `gorm:"column:length_cm;type:decimal(8,2);not null;default:0"`
	BreadthCM       decimal.Decimal       `gorm:"column:breadth_cm;type:decimal(8,2);not null;default:0"`
	HeightCM        decimal.Decimal       `gorm:"column:height_cm;type:decimal(8,2);not null;default:0"`
	Images          []string              `gorm:"type:jsonb;serializer:json"`
	Status          catalog.ProductStatus `gorm:"type:varchar(20);not null;index"`
	RejectionReason string                `gorm:"type:text"`
	ApprovedAt      *time.Time
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	images := m.Images
	if images == nil {
		images = []string{}
	}
	return &catalog.Product{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: m.BaseModel.ToDomain(),
			Version:    m.Version,
		},
		ManufacturerID: m.ManufacturerID,
		CategoryID:     m.CategoryID,
		Name:           m.Name,
		Slug:           m.Slug,
		SKU:            m.SKU,
		Description:    m.Description,
		BasePrice:      m.BasePrice,
		MarginPercent:  m.MarginPercent,
		DisplayPrice:   m.DisplayPrice,
		MOQ:            m.MOQ,
		Stock:          m.Stock,
		HSNCode:        m.HSNCode,
		GSTRate:        m.GSTRate,
		WeightGrams:    m.WeightGrams,
		Dimensions: catalog.Dimensions{
			LengthCM:  m.LengthCM,
			BreadthCM: m.BreadthCM,
			HeightCM:  m.HeightCM,
		},
		Images:          images,
		Status:          m.Status,
		RejectionReason: m.RejectionReason,
		ApprovedAt:      m.ApprovedAt,
	}
}

// ProductModelFromDomain creates a persistence model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		ManufacturerID:  p.ManufacturerID,
		CategoryID:      p.CategoryID,
		Name:            p.Name,
		Slug:            p.Slug,
		SKU:             p.SKU,
		Description:     p.Description,
		BasePrice:       p.BasePrice,
		MarginPercent:   p.MarginPercent,
		DisplayPrice:    p.DisplayPrice,
		MOQ:             p.MOQ,
		Stock:           p.Stock,
		HSNCode:         p.HSNCode,
		GSTRate:         p.GSTRate,
		WeightGrams:     p.WeightGrams,
		LengthCM:        p.Dimensions.LengthCM,
		BreadthCM:       p.Dimensions.BreadthCM,
		HeightCM:        p.Dimensions.HeightCM,
		Images:          p.Images,
		Status:          p.Status,
		RejectionReason: p.RejectionReason,
		ApprovedAt:      p.ApprovedAt,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}
