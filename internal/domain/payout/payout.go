package payout

import (
	"context"
	"strings"
	"time"

	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the settlement state of a payout
type Status string

const (
	StatusPending  Status = "pending"
	StatusEligible Status = "eligible"
	StatusPaid     Status = "paid"
	StatusOnHold   Status = "on_hold"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusEligible, StatusPaid, StatusOnHold:
		return true
	}
	return false
}

// Payout is what the platform owes a manufacturer for one delivered order
type Payout struct {
	shared.BaseEntity
	ManufacturerID uuid.UUID
	OrderID        uuid.UUID
	OrderNumber    string
	Amount         decimal.Decimal // display minus margin, i.e. base price × qty
	PlatformFee    decimal.Decimal // margin retained by the platform
	Status         Status
	EligibleAt     time.Time
	PaidAt         *time.Time
	UTRReference   string
	HoldReason     string
}

// NewFromOrder creates a pending payout for a delivered order. The payout
// becomes eligible once the hold period after delivery has passed.
func NewFromOrder(o *trade.Order, hold time.Duration) (*Payout, error) {
	if o.Status != trade.OrderStatusDelivered || o.DeliveredAt == nil {
		return nil, shared.NewDomainError("ORDER_NOT_DELIVERED", "Payouts are created for delivered orders only")
	}
	return &Payout{
		BaseEntity:     shared.NewBaseEntity(),
		ManufacturerID: o.ManufacturerID,
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		Amount:         o.BaseSubtotal().Round(2),
		PlatformFee:    o.PlatformMargin().Round(2),
		Status:         StatusPending,
		EligibleAt:     o.DeliveredAt.Add(hold),
	}, nil
}

// MakeEligible releases a pending payout whose hold period has ended
func (p *Payout) MakeEligible(now time.Time) error {
	if p.Status != StatusPending {
		return shared.ErrInvalidState
	}
	if now.Before(p.EligibleAt) {
		return shared.NewDomainError("HOLD_PERIOD_ACTIVE", "Payout is still in its hold period")
	}
	p.Status = StatusEligible
	p.Touch()
	return nil
}

// MarkPaid records the bank transfer reference
func (p *Payout) MarkPaid(utr string) error {
	if p.Status != StatusEligible {
		return shared.NewDomainError("INVALID_STATE", "Only eligible payouts can be marked paid")
	}
	utr = strings.ToUpper(strings.TrimSpace(utr))
	if len(utr) < 6 {
		return shared.NewDomainError("INVALID_UTR", "A valid UTR reference is required")
	}
	now := time.Now()
	p.Status = StatusPaid
	p.UTRReference = utr
	p.PaidAt = &now
	p.Touch()
	return nil
}

// Hold blocks a payout, e.g. while a dispute is open
func (p *Payout) Hold(reason string) error {
	if p.Status == StatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Paid payouts cannot be held")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "A hold reason is required")
	}
	p.Status = StatusOnHold
	p.HoldReason = reason
	p.Touch()
	return nil
}

// Release returns a held payout to eligible
func (p *Payout) Release() error {
	if p.Status != StatusOnHold {
		return shared.NewDomainError("INVALID_STATE", "Only held payouts can be released")
	}
	p.Status = StatusEligible
	p.HoldReason = ""
	p.Touch()
	return nil
}

// Filter narrows payout listings
type Filter struct {
	ManufacturerID *uuid.UUID
	Status         *Status
	Page           int
	PageSize       int
}

// Summary totals payouts per status
type Summary map[Status]decimal.Decimal

// Repository persists payouts
type Repository interface {
	Create(ctx context.Context, p *Payout) error
	Update(ctx context.Context, p *Payout) error
	FindByID(ctx context.Context, id uuid.UUID) (*Payout, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*Payout, error)
	FindAll(ctx context.Context, filter Filter) ([]*Payout, int64, error)

	// PromoteEligible flips pending payouts whose EligibleAt has passed
	PromoteEligible(ctx context.Context, now time.Time) (int64, error)

	// Summarize totals amounts by status, optionally for one manufacturer
	Summarize(ctx context.Context, manufacturerID *uuid.UUID) (Summary, error)
}
