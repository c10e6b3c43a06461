package trade

import (
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeOrder = "Order"

	EventTypeOrderPlaced        = "OrderPlaced"
	EventTypeOrderStatusChanged = "OrderStatusChanged"
	EventTypeOrderDelivered     = "OrderDelivered"
	EventTypeOrderCancelled     = "OrderCancelled"
)

// OrderPlacedEvent is raised for every order created from a payment
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderID          uuid.UUID               `json:"order_id"`
	OrderNumber      string                  `json:"order_number"`
	RetailerID       uuid.UUID               `json:"retailer_id"`
	ManufacturerID   uuid.UUID               `json:"manufacturer_id"`
	PaymentAttemptID uuid.UUID               `json:"payment_attempt_id"`
	Total            decimal.Decimal         `json:"total"`
	AmountPaid       decimal.Decimal         `json:"amount_paid"`
	Attribution      valueobject.Attribution `json:"attribution"`
}

// NewOrderPlacedEvent creates an OrderPlacedEvent
func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, o.ID),
		OrderID:          o.ID,
		OrderNumber:      o.OrderNumber,
		RetailerID:       o.RetailerID,
		ManufacturerID:   o.ManufacturerID,
		PaymentAttemptID: o.PaymentAttemptID,
		Total:            o.Total,
		AmountPaid:       o.AmountPaid,
		Attribution:      o.Attribution,
	}
}

// OrderStatusChangedEvent is raised on every status transition
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID   `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	RetailerID  uuid.UUID   `json:"retailer_id"`
	From        OrderStatus `json:"from"`
	To          OrderStatus `json:"to"`
}

// NewOrderStatusChangedEvent creates an OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, from OrderStatus) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		RetailerID:      o.RetailerID,
		From:            from,
		To:              o.Status,
	}
}

// OrderDeliveredEvent triggers payout creation
type OrderDeliveredEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID `json:"order_id"`
	ManufacturerID uuid.UUID `json:"manufacturer_id"`
}

// NewOrderDeliveredEvent creates an OrderDeliveredEvent
func NewOrderDeliveredEvent(o *Order) *OrderDeliveredEvent {
	return &OrderDeliveredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderDelivered, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		ManufacturerID:  o.ManufacturerID,
	}
}

// CancelledLine is a quantity to return to stock
type CancelledLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// OrderCancelledEvent carries the lines whose stock should be restored
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID       `json:"order_id"`
	Reason  string          `json:"reason"`
	Lines   []CancelledLine `json:"lines"`
}

// NewOrderCancelledEvent creates an OrderCancelledEvent
func NewOrderCancelledEvent(o *Order) *OrderCancelledEvent {
	lines := make([]CancelledLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, CancelledLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		Reason:          o.CancelReason,
		Lines:           lines,
	}
}
