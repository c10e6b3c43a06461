package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentAttemptRepository persists payment attempts
type PaymentAttemptRepository interface {
	Create(ctx context.Context, a *PaymentAttempt) error
	Update(ctx context.Context, a *PaymentAttempt) error
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentAttempt, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*PaymentAttempt, error)

	// Claim atomically moves a claimable attempt to processing. It returns
	// false when another caller already owns or finished the attempt. Run it
	// inside the unit of work that creates the orders so a rollback also
	// undoes the claim.
	Claim(ctx context.Context, id uuid.UUID) (bool, error)

	// RecordFailure notes why materializing a claimable attempt failed
	RecordFailure(ctx context.Context, id uuid.UUID, reason string) error

	// MarkFailed records a gateway failure on a claimable attempt
	MarkFailed(ctx context.Context, id uuid.UUID, paymentID, reason string) error

	// ExpireStale marks claimable attempts created before cutoff as expired
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// OrderFilter narrows order listings
type OrderFilter struct {
	RetailerID     *uuid.UUID
	ManufacturerID *uuid.UUID
	Status         *OrderStatus
	Search         string // order number or AWB
	From           *time.Time
	To             *time.Time
	Page           int
	PageSize       int
}

// SalesSummary aggregates placed orders over a period
type SalesSummary struct {
	OrderCount     int64
	GMV            decimal.Decimal
	PlatformMargin decimal.Decimal
}

// AttributionRow groups orders by marketing source
type AttributionRow struct {
	Source     string
	Medium     string
	Campaign   string
	OrderCount int64
	Revenue    decimal.Decimal
}

// OrderRepository persists orders
type OrderRepository interface {
	CreateBatch(ctx context.Context, orders []*Order) error
	Update(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByAWB(ctx context.Context, awb string) (*Order, error)
	FindByPaymentAttemptID(ctx context.Context, attemptID uuid.UUID) ([]*Order, error)
	FindAll(ctx context.Context, filter OrderFilter) ([]*Order, int64, error)
	CountByStatus(ctx context.Context) (map[OrderStatus]int64, error)
	SalesSummary(ctx context.Context, from, to time.Time) (SalesSummary, error)
	AttributionReport(ctx context.Context, from, to time.Time) ([]AttributionRow, error)
}
