package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/shared/valueobject"
	"github.com/d2bcart/backend/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the fulfilment status of an order
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPacked    OrderStatus = "packed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusInTransit OrderStatus = "in_transit"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRTO       OrderStatus = "rto"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPlaced, OrderStatusConfirmed, OrderStatusPacked, OrderStatusShipped,
		OrderStatusInTransit, OrderStatusDelivered, OrderStatusCancelled, OrderStatusRTO:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsFinal reports whether no further transition is possible
func (s OrderStatus) IsFinal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled || s == OrderStatusRTO
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPlaced:
		return target == OrderStatusConfirmed || target == OrderStatusCancelled
	case OrderStatusConfirmed:
		return target == OrderStatusPacked || target == OrderStatusCancelled
	case OrderStatusPacked:
		return target == OrderStatusShipped || target == OrderStatusCancelled
	case OrderStatusShipped:
		return target == OrderStatusInTransit || target == OrderStatusDelivered || target == OrderStatusRTO
	case OrderStatusInTransit:
		return target == OrderStatusDelivered || target == OrderStatusRTO
	}
	return false
}

// rank orders the forward path so tracking updates only move ahead
func (s OrderStatus) rank() int {
	switch s {
	case OrderStatusPlaced:
		return 0
	case OrderStatusConfirmed:
		return 1
	case OrderStatusPacked:
		return 2
	case OrderStatusShipped:
		return 3
	case OrderStatusInTransit:
		return 4
	}
	return 5
}

// PaymentStatus is how much of an order has been collected
type PaymentStatus string

const (
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid"
	PaymentStatusRefunded      PaymentStatus = "refunded"
)

// OrderItem is a line of an order with its price and tax frozen
type OrderItem struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	ProductID     uuid.UUID
	Name          string
	SKU           string
	HSNCode       string
	Quantity      int
	UnitPrice     decimal.Decimal // display price
	UnitBasePrice decimal.Decimal
	GSTRate       int
	LineTotal     decimal.Decimal
	CGST          decimal.Decimal
	SGST          decimal.Decimal
	IGST          decimal.Decimal
}

// BaseTotal is what the manufacturer earns for the line
func (i OrderItem) BaseTotal() decimal.Decimal {
	return i.UnitBasePrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a sale from one manufacturer to one retailer
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber      string
	RetailerID       uuid.UUID
	ManufacturerID   uuid.UUID
	PaymentAttemptID uuid.UUID
	GatewayPaymentID string
	Items            []OrderItem
	ItemsSubtotal    decimal.Decimal
	TaxType          tax.Type
	CGST             decimal.Decimal
	SGST             decimal.Decimal
	IGST             decimal.Decimal
	ShippingCost     decimal.Decimal
	Total            decimal.Decimal
	PaymentMode      PaymentMode
	AmountPaid       decimal.Decimal
	BalanceDue       decimal.Decimal
	PaymentStatus    PaymentStatus
	Status           OrderStatus
	ShippingAddress  valueobject.Address
	Attribution      valueobject.Attribution
	AWB              string
	CourierName      string
	TrackingURL      string
	CancelReason     string
	ConfirmedAt      *time.Time
	PackedAt         *time.Time
	ShippedAt        *time.Time
	DeliveredAt      *time.Time
	CancelledAt      *time.Time
}

// NewOrderNumber formats a human readable order number, e.g. D2B-261019-4F9A2C
func NewOrderNumber(at time.Time, id uuid.UUID) string {
	return fmt.Sprintf("D2B-%s-%s", at.Format("060102"), strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:6]))
}

// TaxTotal is the sum of all GST components
func (o *Order) TaxTotal() decimal.Decimal {
	return o.CGST.Add(o.SGST).Add(o.IGST)
}

// BaseSubtotal is the manufacturer's share of the item value
func (o *Order) BaseSubtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.BaseTotal())
	}
	return sum
}

// PlatformMargin is display minus base across all lines
func (o *Order) PlatformMargin() decimal.Decimal {
	return o.ItemsSubtotal.Sub(o.BaseSubtotal())
}

// IsOwnedByRetailer reports whether the order belongs to the retailer
func (o *Order) IsOwnedByRetailer(id uuid.UUID) bool { return o.RetailerID == id }

// IsSoldBy reports whether the order belongs to the manufacturer
func (o *Order) IsSoldBy(id uuid.UUID) bool { return o.ManufacturerID == id }

func (o *Order) transition(target OrderStatus) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot move order from %s to %s", o.Status, target))
	}
	from := o.Status
	o.Status = target
	o.Touch()
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from))
	return nil
}

// Confirm is the manufacturer accepting the order
func (o *Order) Confirm() error {
	if err := o.transition(OrderStatusConfirmed); err != nil {
		return err
	}
	now := time.Now()
	o.ConfirmedAt = &now
	return nil
}

// MarkPacked records that the goods are ready for pickup
func (o *Order) MarkPacked() error {
	if err := o.transition(OrderStatusPacked); err != nil {
		return err
	}
	now := time.Now()
	o.PackedAt = &now
	return nil
}

// Ship records the AWB assigned by the shipping aggregator
func (o *Order) Ship(awb, courier, trackingURL string) error {
	if strings.TrimSpace(awb) == "" {
		return shared.NewDomainError("INVALID_AWB", "AWB cannot be empty")
	}
	if err := o.transition(OrderStatusShipped); err != nil {
		return err
	}
	now := time.Now()
	o.ShippedAt = &now
	o.AWB = awb
	o.CourierName = courier
	o.TrackingURL = trackingURL
	return nil
}

// MarkInTransit records a tracking update
func (o *Order) MarkInTransit() error {
	return o.transition(OrderStatusInTransit)
}

// Deliver completes the order; any COD balance is treated as collected
func (o *Order) Deliver() error {
	if err := o.transition(OrderStatusDelivered); err != nil {
		return err
	}
	now := time.Now()
	o.DeliveredAt = &now
	o.AmountPaid = o.Total
	o.BalanceDue = decimal.Zero
	o.PaymentStatus = PaymentStatusPaid
	o.AddDomainEvent(NewOrderDeliveredEvent(o))
	return nil
}

// MarkRTO records that the courier is returning the shipment
func (o *Order) MarkRTO() error {
	return o.transition(OrderStatusRTO)
}

// Cancel stops an order that has not shipped yet
func (o *Order) Cancel(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "A cancellation reason is required")
	}
	if err := o.transition(OrderStatusCancelled); err != nil {
		return err
	}
	now := time.Now()
	o.CancelledAt = &now
	o.CancelReason = reason
	o.AddDomainEvent(NewOrderCancelledEvent(o))
	return nil
}

// ApplyTrackingStatus advances the order to a courier-reported status. Updates
// that are not ahead of the current status are ignored and report false.
// Intermediate steps a courier skips (for example delivered straight from
// shipped) are allowed by the state machine.
func (o *Order) ApplyTrackingStatus(target OrderStatus) (bool, error) {
	if o.Status == target || o.Status.IsFinal() {
		return false, nil
	}
	if target != OrderStatusRTO && target.rank() <= o.Status.rank() {
		return false, nil
	}
	var err error
	switch target {
	case OrderStatusInTransit:
		err = o.MarkInTransit()
	case OrderStatusDelivered:
		err = o.Deliver()
	case OrderStatusRTO:
		err = o.MarkRTO()
	default:
		return false, shared.NewDomainError("INVALID_TRACKING_STATUS", "Unsupported tracking status "+string(target))
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
