package trade

import (
	"strings"
	"time"

	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/shared/valueobject"
	"github.com/d2bcart/backend/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMode selects how much of the order is collected online
type PaymentMode string

const (
	// PaymentModeFull collects the whole grand total online
	PaymentModeFull PaymentMode = "full"
	// PaymentModeAdvance collects a percentage online and the rest on delivery
	PaymentModeAdvance PaymentMode = "advance"
)

// IsValid checks if the mode is known
func (m PaymentMode) IsValid() bool {
	return m == PaymentModeFull || m == PaymentModeAdvance
}

// AttemptStatus is the lifecycle state of a payment attempt
type AttemptStatus string

const (
	AttemptStatusPending    AttemptStatus = "pending"
	AttemptStatusProcessing AttemptStatus = "processing"
	AttemptStatusCompleted  AttemptStatus = "completed"
	AttemptStatusFailed     AttemptStatus = "failed"
	AttemptStatusExpired    AttemptStatus = "expired"
)

// IsClaimable reports whether a webhook may take ownership of the attempt.
// A failed attempt stays claimable because the buyer can retry on the same
// gateway order and a later capture must still materialize orders.
func (s AttemptStatus) IsClaimable() bool {
	return s == AttemptStatusPending || s == AttemptStatusFailed
}

// ClaimableAttemptStatuses lists the statuses a conditional claim accepts
func ClaimableAttemptStatuses() []AttemptStatus {
	return []AttemptStatus{AttemptStatusPending, AttemptStatusFailed}
}

// SnapshotLine is one priced cart line frozen at checkout
type SnapshotLine struct {
	ProductID        uuid.UUID       `json:"product_id"`
	ManufacturerID   uuid.UUID       `json:"manufacturer_id"`
	Name             string          `json:"name"`
	SKU              string          `json:"sku"`
	HSNCode          string          `json:"hsn_code"`
	Quantity         int             `json:"quantity"`
	UnitDisplayPrice decimal.Decimal `json:"unit_display_price"`
	UnitBasePrice    decimal.Decimal `json:"unit_base_price"`
	GSTRate          int             `json:"gst_rate"`
}

// LineTotal is display price × quantity
func (l SnapshotLine) LineTotal() decimal.Decimal {
	return l.UnitDisplayPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// SnapshotGroup holds the per-manufacturer facts decided at checkout
type SnapshotGroup struct {
	ManufacturerID uuid.UUID        `json:"manufacturer_id"`
	TaxType        tax.Type         `json:"tax_type"`
	PickupPincode  string           `json:"pickup_pincode,omitempty"`
	ShippingCost   *decimal.Decimal `json:"shipping_cost,omitempty"`
	Courier        string           `json:"courier,omitempty"`
}

// Snapshot is the frozen cart a payment attempt pays for
type Snapshot struct {
	Lines  []SnapshotLine  `json:"lines"`
	Groups []SnapshotGroup `json:"groups"`
}

// Group returns the group of a manufacturer
func (s Snapshot) Group(manufacturerID uuid.UUID) (SnapshotGroup, bool) {
	for _, g := range s.Groups {
		if g.ManufacturerID == manufacturerID {
			return g, true
		}
	}
	return SnapshotGroup{}, false
}

// ManufacturerIDs lists manufacturers in order of first appearance
func (s Snapshot) ManufacturerIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	ids := make([]uuid.UUID, 0)
	for _, l := range s.Lines {
		if !seen[l.ManufacturerID] {
			seen[l.ManufacturerID] = true
			ids = append(ids, l.ManufacturerID)
		}
	}
	return ids
}

// Totals are the money figures of a checkout
type Totals struct {
	ItemsTotal    decimal.Decimal
	TaxTotal      decimal.Decimal
	ShippingTotal decimal.Decimal
	GrandTotal    decimal.Decimal
	AmountPayable decimal.Decimal
}

// PaymentAttempt is one checkout awaiting payment at the gateway. It becomes
// one order per manufacturer once the payment is captured.
type PaymentAttempt struct {
	shared.BaseEntity
	RetailerID       uuid.UUID
	GatewayOrderID   string
	GatewayPaymentID string
	Status           AttemptStatus
	Mode             PaymentMode
	Snapshot         Snapshot
	ShippingAddress  valueobject.Address
	Totals           Totals
	AmountPaid       decimal.Decimal
	Attribution      valueobject.Attribution
	OrderIDs         []uuid.UUID
	FailureReason    string
	CompletedAt      *time.Time
}

// NewPaymentAttempt validates a checkout snapshot and creates a pending attempt
func NewPaymentAttempt(retailerID uuid.UUID, mode PaymentMode, snapshot Snapshot, address valueobject.Address, totals Totals, attribution valueobject.Attribution) (*PaymentAttempt, error) {
	if retailerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RETAILER", "Retailer ID cannot be empty")
	}
	if !mode.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_MODE", "Payment mode must be full or advance")
	}
	if len(snapshot.Lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_CART", "Cannot check out an empty cart")
	}
	for _, l := range snapshot.Lines {
		if l.Quantity <= 0 || l.ManufacturerID == uuid.Nil || l.ProductID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_SNAPSHOT", "Checkout line is incomplete")
		}
	}
	if !totals.AmountPayable.IsPositive() || totals.AmountPayable.GreaterThan(totals.GrandTotal) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payable amount must be positive and not exceed the grand total")
	}
	return &PaymentAttempt{
		BaseEntity:      shared.NewBaseEntity(),
		RetailerID:      retailerID,
		Status:          AttemptStatusPending,
		Mode:            mode,
		Snapshot:        snapshot,
		ShippingAddress: address,
		Totals:          totals,
		AmountPaid:      decimal.Zero,
		Attribution:     attribution,
		OrderIDs:        []uuid.UUID{},
	}, nil
}

// AttachGatewayOrder records the gateway order created for this attempt
func (a *PaymentAttempt) AttachGatewayOrder(gatewayOrderID string) error {
	if strings.TrimSpace(gatewayOrderID) == "" {
		return shared.NewDomainError("INVALID_GATEWAY_ORDER", "Gateway order ID cannot be empty")
	}
	a.GatewayOrderID = gatewayOrderID
	a.Touch()
	return nil
}

// Complete records the materialized orders. Only a processing attempt,
// i.e. one claimed by the caller, can complete.
func (a *PaymentAttempt) Complete(paymentID string, amountPaid decimal.Decimal, orderIDs []uuid.UUID) error {
	if a.Status != AttemptStatusProcessing {
		return shared.ErrInvalidState.WithDetail("status", string(a.Status))
	}
	now := time.Now()
	a.Status = AttemptStatusCompleted
	a.GatewayPaymentID = paymentID
	a.AmountPaid = amountPaid
	a.OrderIDs = orderIDs
	a.FailureReason = ""
	a.CompletedAt = &now
	a.Touch()
	return nil
}

// IsStale reports whether an unpaid attempt has outlived its TTL
func (a *PaymentAttempt) IsStale(now time.Time, ttl time.Duration) bool {
	return a.Status.IsClaimable() && now.Sub(a.CreatedAt) > ttl
}
