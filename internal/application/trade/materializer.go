package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/trade"
	"github.com/d2bcart/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MaterializeResult is the outcome of turning a paid attempt into orders
type MaterializeResult struct {
	Orders []*trade.Order
	// AlreadyProcessed is set when another delivery created (or is creating)
	// the orders for the attempt
	AlreadyProcessed bool
}

// Materializer turns a paid payment attempt into one order per manufacturer.
// Payment confirmations arrive at least once from two channels (the client
// callback and the gateway webhook); the materializer makes their effect
// happen exactly once.
type Materializer struct {
	attempts trade.PaymentAttemptRepository
	orders   trade.OrderRepository
	tx       TransactionScope
	events   shared.EventPublisher
	metrics  *telemetry.BusinessMetrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewMaterializer creates a new Materializer. metrics may be nil.
func NewMaterializer(
	attempts trade.PaymentAttemptRepository,
	orders trade.OrderRepository,
	tx TransactionScope,
	events shared.EventPublisher,
	metrics *telemetry.BusinessMetrics,
	logger *zap.Logger,
) *Materializer {
	return &Materializer{
		attempts: attempts,
		orders:   orders,
		tx:       tx,
		events:   events,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Materialize creates the orders for a paid attempt.
//
//  1. Orders already stored for the attempt are returned as is.
//  2. Inside one transaction the attempt is claimed with a conditional
//     update, then orders split from the snapshot are inserted together
//     with the stock decrement, cart clearing and attempt completion.
//     Losing the claim means another delivery owns the attempt.
//  3. A failure rolls the claim back with everything else, so the attempt
//     stays claimable for a redelivery and only the reason is recorded.
//     Events are published only after commit.
func (m *Materializer) Materialize(ctx context.Context, attempt *trade.PaymentAttempt, paymentID string, amountPaid decimal.Decimal) (*MaterializeResult, error) {
	existing, err := m.orders.FindByPaymentAttemptID(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up orders for attempt: %w", err)
	}
	if len(existing) > 0 {
		return &MaterializeResult{Orders: existing, AlreadyProcessed: true}, nil
	}

	orders, err := m.createOrders(ctx, attempt, paymentID, amountPaid)
	if errors.Is(err, errClaimLost) {
		m.logger.Info("Payment attempt already claimed",
			zap.String("attempt_id", attempt.ID.String()),
			zap.String("payment_id", paymentID))
		return &MaterializeResult{AlreadyProcessed: true}, nil
	}
	if err != nil {
		if recErr := m.attempts.RecordFailure(context.WithoutCancel(ctx), attempt.ID, err.Error()); recErr != nil {
			m.logger.Error("Failed to record materialization failure",
				zap.String("attempt_id", attempt.ID.String()),
				zap.Error(recErr))
		}
		m.metrics.RecordPayment(ctx, "materialize_failed")
		return nil, err
	}

	for _, o := range orders {
		if m.events != nil {
			if err := m.events.Publish(ctx, o.GetDomainEvents()...); err != nil {
				m.logger.Warn("Failed to publish order events",
					zap.String("order_id", o.ID.String()),
					zap.Error(err))
			}
		}
		o.ClearDomainEvents()
		m.metrics.RecordOrderPlaced(ctx, string(o.PaymentMode), o.Total)
	}
	m.metrics.RecordPayment(ctx, "completed")

	m.logger.Info("Orders placed",
		zap.String("attempt_id", attempt.ID.String()),
		zap.String("payment_id", paymentID),
		zap.Int("orders", len(orders)),
		zap.String("amount_paid", amountPaid.StringFixed(2)))
	return &MaterializeResult{Orders: orders}, nil
}

// errClaimLost aborts the unit of work when another delivery owns the attempt
var errClaimLost = errors.New("payment attempt claimed by another delivery")

func (m *Materializer) createOrders(ctx context.Context, attempt *trade.PaymentAttempt, paymentID string, amountPaid decimal.Decimal) ([]*trade.Order, error) {
	orders, err := trade.SplitOrders(attempt, paymentID, amountPaid, m.now())
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	before := *attempt
	err = m.tx.Execute(ctx, func(repos TransactionalRepositories) error {
		claimed, err := repos.PaymentAttempts().Claim(ctx, attempt.ID)
		if err != nil {
			return fmt.Errorf("failed to claim payment attempt: %w", err)
		}
		if !claimed {
			return errClaimLost
		}
		attempt.Status = trade.AttemptStatusProcessing

		if err := repos.Orders().CreateBatch(ctx, orders); err != nil {
			return fmt.Errorf("failed to insert orders: %w", err)
		}
		for _, l := range attempt.Snapshot.Lines {
			if err := repos.Products().DecrementStock(ctx, l.ProductID, l.Quantity); err != nil {
				if errors.Is(err, shared.ErrInsufficientStock) {
					return shared.ErrInsufficientStock.WithDetail("product_id", l.ProductID.String())
				}
				return fmt.Errorf("failed to decrement stock: %w", err)
			}
		}

		c, err := repos.Carts().Get(ctx, attempt.RetailerID)
		if err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}
		c.Clear()
		if err := repos.Carts().Save(ctx, c); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}

		if err := attempt.Complete(paymentID, amountPaid, ids); err != nil {
			return err
		}
		return repos.PaymentAttempts().Update(ctx, attempt)
	})
	if err != nil {
		*attempt = before
		return nil, err
	}
	return orders, nil
}
