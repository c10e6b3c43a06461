package catalog

import (
	"regexp"
	"strings"
	"time"

	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the listing status of a product
type ProductStatus string

const (
	ProductStatusDraft           ProductStatus = "draft"
	ProductStatusPendingApproval ProductStatus = "pending_approval"
	ProductStatusActive          ProductStatus = "active"
	ProductStatusRejected        ProductStatus = "rejected"
	ProductStatusArchived        ProductStatus = "archived"
)

// IsValid checks if the status is known
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusDraft, ProductStatusPendingApproval, ProductStatusActive, ProductStatusRejected, ProductStatusArchived:
		return true
	}
	return false
}

// MaxImages bounds the image gallery of a product
const MaxImages = 8

var (
	allowedGSTRates = []int{0, 5, 12, 18, 28}
	hsnPattern      = regexp.MustCompile(`^[0-9]{4}([0-9]{2}){0,2}$`)
	slugStrip       = regexp.MustCompile(`[^a-z0-9]+`)
)

// Dimensions are the packed dimensions in centimetres
type Dimensions struct {
	LengthCM  decimal.Decimal
	BreadthCM decimal.Decimal
	HeightCM  decimal.Decimal
}

// Product is a wholesale listing owned by a manufacturer
type Product struct {
	shared.BaseAggregateRoot
	ManufacturerID  uuid.UUID
	CategoryID      *uuid.UUID
	Name            string
	Slug            string
	SKU             string
	Description     string
	BasePrice       decimal.Decimal // manufacturer's price per unit
	MarginPercent   decimal.Decimal // platform markup over base
	DisplayPrice    decimal.Decimal // price shown to retailers, tax exclusive
	MOQ             int
	Stock           int
	HSNCode         string
	GSTRate         int
	WeightGrams     int
	Dimensions      Dimensions
	Images          []string
	Status          ProductStatus
	RejectionReason string
	ApprovedAt      *time.Time
}

// ProductInput carries the manufacturer-editable fields of a product
type ProductInput struct {
	CategoryID  *uuid.UUID
	Name        string
	SKU         string
	Description string
	BasePrice   decimal.Decimal
	MOQ         int
	Stock       int
	HSNCode     string
	GSTRate     int
	WeightGrams int
	Dimensions  Dimensions
}

// NewProduct creates a draft product priced with the given margin
func NewProduct(manufacturerID uuid.UUID, in ProductInput, marginPercent decimal.Decimal) (*Product, error) {
	if manufacturerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MANUFACTURER", "Manufacturer ID cannot be empty")
	}
	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ManufacturerID:    manufacturerID,
		Status:            ProductStatusDraft,
		Images:            []string{},
	}
	if err := p.SetMargin(marginPercent); err != nil {
		return nil, err
	}
	if err := p.Update(in); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces the editable fields. Active products edited by their
// manufacturer stay active; pricing is recomputed.
func (p *Product) Update(in ProductInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	if !in.BasePrice.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Base price must be positive")
	}
	if in.MOQ < 1 {
		return shared.NewDomainError("INVALID_MOQ", "Minimum order quantity must be at least 1")
	}
	if in.Stock < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}
	if !isAllowedGSTRate(in.GSTRate) {
		return shared.NewDomainError("INVALID_GST_RATE", "GST rate must be one of 0, 5, 12, 18, 28")
	}
	hsn := strings.TrimSpace(in.HSNCode)
	if hsn != "" && !hsnPattern.MatchString(hsn) {
		return shared.NewDomainError("INVALID_HSN", "HSN code must be 4, 6 or 8 digits")
	}
	if in.WeightGrams < 0 {
		return shared.NewDomainError("INVALID_WEIGHT", "Weight cannot be negative")
	}

	p.CategoryID = in.CategoryID
	p.Name = name
	p.Slug = Slugify(name) + "-" + p.ID.String()[:8]
	p.SKU = strings.ToUpper(strings.TrimSpace(in.SKU))
	p.Description = strings.TrimSpace(in.Description)
	p.BasePrice = in.BasePrice.Round(2)
	p.MOQ = in.MOQ
	p.Stock = in.Stock
	p.HSNCode = hsn
	p.GSTRate = in.GSTRate
	p.WeightGrams = in.WeightGrams
	p.Dimensions = in.Dimensions
	p.recalculateDisplayPrice()
	p.Touch()
	p.IncrementVersion()
	return nil
}

// SetMargin changes the platform margin and recomputes the display price
func (p *Product) SetMargin(marginPercent decimal.Decimal) error {
	if marginPercent.IsNegative() || marginPercent.GreaterThan(decimal.NewFromInt(500)) {
		return shared.NewDomainError("INVALID_MARGIN", "Margin must be between 0 and 500 percent")
	}
	p.MarginPercent = marginPercent
	p.recalculateDisplayPrice()
	p.Touch()
	return nil
}

// DisplayPriceFor returns round2(base × (1 + margin/100))
func DisplayPriceFor(base, marginPercent decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(marginPercent.Div(decimal.NewFromInt(100)))
	return base.Mul(factor).Round(2)
}

func (p *Product) recalculateDisplayPrice() {
	p.DisplayPrice = DisplayPriceFor(p.BasePrice, p.MarginPercent)
}

// UnitMargin is the platform's share of one unit
func (p *Product) UnitMargin() decimal.Decimal {
	return p.DisplayPrice.Sub(p.BasePrice)
}

// SubmitForApproval sends a draft or rejected product to admin review
func (p *Product) SubmitForApproval() error {
	if p.Status != ProductStatusDraft && p.Status != ProductStatusRejected {
		return shared.NewDomainError("INVALID_STATE", "Only draft or rejected products can be submitted")
	}
	p.Status = ProductStatusPendingApproval
	p.RejectionReason = ""
	p.Touch()
	return nil
}

// Approve publishes the product
func (p *Product) Approve() error {
	if p.Status != ProductStatusPendingApproval {
		return shared.NewDomainError("INVALID_STATE", "Only products pending approval can be approved")
	}
	now := time.Now()
	p.Status = ProductStatusActive
	p.ApprovedAt = &now
	p.Touch()
	p.AddDomainEvent(NewProductApprovedEvent(p))
	return nil
}

// Reject sends the product back to the manufacturer with a reason
func (p *Product) Reject(reason string) error {
	if p.Status != ProductStatusPendingApproval {
		return shared.NewDomainError("INVALID_STATE", "Only products pending approval can be rejected")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "A rejection reason is required")
	}
	p.Status = ProductStatusRejected
	p.RejectionReason = reason
	p.Touch()
	return nil
}

// Archive hides the product from the catalog permanently
func (p *Product) Archive() error {
	if p.Status == ProductStatusArchived {
		return shared.NewDomainError("INVALID_STATE", "Product is already archived")
	}
	p.Status = ProductStatusArchived
	p.Touch()
	return nil
}

// SetStock overwrites the available stock
func (p *Product) SetStock(stock int) error {
	if stock < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}
	p.Stock = stock
	p.Touch()
	p.IncrementVersion()
	return nil
}

// AddImage appends an object key to the gallery
func (p *Product) AddImage(key string) error {
	if len(p.Images) >= MaxImages {
		return shared.NewDomainError("TOO_MANY_IMAGES", "A product can have at most 8 images")
	}
	for _, k := range p.Images {
		if k == key {
			return nil
		}
	}
	p.Images = append(p.Images, key)
	p.Touch()
	return nil
}

// RemoveImage drops an object key from the gallery
func (p *Product) RemoveImage(key string) {
	kept := p.Images[:0]
	for _, k := range p.Images {
		if k != key {
			kept = append(kept, k)
		}
	}
	p.Images = kept
	p.Touch()
}

// IsPurchasable reports whether retailers can buy the product
func (p *Product) IsPurchasable() bool {
	return p.Status == ProductStatusActive && p.Stock >= p.MOQ
}

// ValidateQuantity checks a purchase quantity against MOQ and stock
func (p *Product) ValidateQuantity(qty int) error {
	if p.Status != ProductStatusActive {
		return shared.NewDomainError("PRODUCT_UNAVAILABLE", "Product is not available for purchase")
	}
	if qty < p.MOQ {
		return shared.NewDomainError("BELOW_MOQ", "Quantity is below the minimum order quantity").
			WithDetail("moq", p.MOQ)
	}
	if qty > p.Stock {
		return shared.ErrInsufficientStock.WithDetail("available", p.Stock)
	}
	return nil
}

// Slugify lower-cases and hyphenates a name
func Slugify(s string) string {
	return strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func isAllowedGSTRate(rate int) bool {
	for _, r := range allowedGSTRates {
		if r == rate {
			return true
		}
	}
	return false
}
