package cart

import (
	"github.com/d2bcart/backend/internal/domain/catalog"
	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemRequest adds or sets a cart line. A zero quantity on add means MOQ.
type ItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"min=0"`
}

// SyncItem is one line of a guest cart. Unlike ItemRequest it always
// names an explicit quantity.
type SyncItem struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// SyncRequest carries a guest cart kept on the client
type SyncRequest struct {
	Items []SyncItem `json:"items" binding:"dive"`
}

// Line is a priced cart line
type Line struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	SKU       string          `json:"sku"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	MOQ       int             `json:"moq"`
	Stock     int             `json:"stock"`
	GSTRate   int             `json:"gst_rate"`
	Tax       decimal.Decimal `json:"tax"`
	// Issue is set when the line can no longer be bought as is
	Issue string `json:"issue,omitempty"`

	Product *catalog.Product `json:"-"`
}

// Group is the part of a cart sold by one manufacturer
type Group struct {
	ManufacturerID   uuid.UUID       `json:"manufacturer_id"`
	ManufacturerName string          `json:"manufacturer_name"`
	TaxType          tax.Type        `json:"tax_type"`
	Lines            []Line          `json:"lines"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	Tax              decimal.Decimal `json:"tax"`
	WeightGrams      int             `json:"weight_grams"`

	Seller *identity.User `json:"-"`
}

// View is the priced cart shown to the retailer
type View struct {
	Groups      []Group         `json:"groups"`
	ItemCount   int             `json:"item_count"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxEstimate decimal.Decimal `json:"tax_estimate"`
	Total       decimal.Decimal `json:"total"`
	HasIssues   bool            `json:"has_issues"`
}

// DroppedLine reports a synced line that was discarded
type DroppedLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Reason    string    `json:"reason"`
}

// AdjustedLine reports a synced line whose quantity was clamped
type AdjustedLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Requested int       `json:"requested"`
	Quantity  int       `json:"quantity"`
}

// SyncResponse is the merged cart with what changed on the way
type SyncResponse struct {
	Cart     *View          `json:"cart"`
	Dropped  []DroppedLine  `json:"dropped"`
	Adjusted []AdjustedLine `json:"adjusted"`
}
