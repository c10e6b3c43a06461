package catalog

import (
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	AggregateTypeProduct = "Product"

	EventTypeProductApproved = "ProductApproved"
)

// ProductApprovedEvent is raised when a product goes live
type ProductApprovedEvent struct {
	shared.BaseDomainEvent
	ProductID      uuid.UUID `json:"product_id"`
	ManufacturerID uuid.UUID `json:"manufacturer_id"`
	Name           string    `json:"name"`
}

// NewProductApprovedEvent creates a ProductApprovedEvent
func NewProductApprovedEvent(p *Product) *ProductApprovedEvent {
	return &ProductApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductApproved, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		ManufacturerID:  p.ManufacturerID,
		Name:            p.Name,
	}
}
