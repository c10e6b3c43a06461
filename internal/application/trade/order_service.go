package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/payout"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	errInvalidStatus  = shared.NewDomainError("INVALID_STATUS", "Unknown order status")
	errNotCancellable = shared.NewDomainError("ORDER_NOT_CANCELLABLE", "Orders can only be cancelled before the seller confirms them")
	errShipViaCourier = shared.NewDomainError("SHIP_VIA_COURIER", "Orders are shipped by booking a courier")
)

// Actor is the authenticated user acting on orders
type Actor struct {
	UserID uuid.UUID
	Role   identity.Role
}

// OrderService runs the order lifecycle for retailers, manufacturers and
// admins. Status changes that move stock or money (cancellation, delivery)
// commit together with those effects.
type OrderService struct {
	orders     trade.OrderRepository
	tx         TransactionScope
	events     shared.EventPublisher
	payoutHold time.Duration
	logger     *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orders trade.OrderRepository,
	tx TransactionScope,
	events shared.EventPublisher,
	payoutHold time.Duration,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:     orders,
		tx:         tx,
		events:     events,
		payoutHold: payoutHold,
		logger:     logger,
	}
}

// List returns the orders visible to the actor
func (s *OrderService) List(ctx context.Context, actor Actor, q OrderQuery) (*shared.Paginated[OrderResponse], error) {
	filter, err := q.toFilter()
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case identity.RoleRetailer:
		filter.RetailerID = &actor.UserID
	case identity.RoleManufacturer:
		filter.ManufacturerID = &actor.UserID
	case identity.RoleAdmin:
	default:
		return nil, shared.ErrForbidden
	}

	orders, total, err := s.orders.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		items = append(items, ToOrderResponse(o, actor.Role))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Get returns one order if the actor may see it
func (s *OrderService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*OrderResponse, error) {
	o, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o, actor.Role)
	return &resp, nil
}

// Find loads an order if the actor may see it
func (s *OrderService) Find(ctx context.Context, actor Actor, id uuid.UUID) (*trade.Order, error) {
	return s.find(ctx, actor, id)
}

// Cancel cancels an order and returns its stock. Retailers can only cancel
// orders the seller has not confirmed yet.
func (s *OrderService) Cancel(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*OrderResponse, error) {
	o, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == identity.RoleRetailer && o.Status != trade.OrderStatusPlaced {
		return nil, errNotCancellable
	}
	return s.change(ctx, actor, o, func() error { return o.Cancel(reason) })
}

// Confirm is the manufacturer accepting an order
func (s *OrderService) Confirm(ctx context.Context, manufacturerID, id uuid.UUID) (*OrderResponse, error) {
	actor := Actor{UserID: manufacturerID, Role: identity.RoleManufacturer}
	o, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.change(ctx, actor, o, o.Confirm)
}

// MarkPacked records that the goods are ready for pickup
func (s *OrderService) MarkPacked(ctx context.Context, manufacturerID, id uuid.UUID) (*OrderResponse, error) {
	actor := Actor{UserID: manufacturerID, Role: identity.RoleManufacturer}
	o, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.change(ctx, actor, o, o.MarkPacked)
}

// UpdateStatus lets an admin move an order along the state machine.
// Shipping needs an AWB and goes through courier booking instead.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, req StatusUpdateRequest) (*OrderResponse, error) {
	actor := Actor{Role: identity.RoleAdmin}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var apply func() error
	switch trade.OrderStatus(req.Status) {
	case trade.OrderStatusConfirmed:
		apply = o.Confirm
	case trade.OrderStatusPacked:
		apply = o.MarkPacked
	case trade.OrderStatusShipped:
		return nil, errShipViaCourier
	case trade.OrderStatusInTransit:
		apply = o.MarkInTransit
	case trade.OrderStatusDelivered:
		apply = o.Deliver
	case trade.OrderStatusRTO:
		apply = o.MarkRTO
	case trade.OrderStatusCancelled:
		apply = func() error { return o.Cancel(req.Reason) }
	default:
		return nil, errInvalidStatus
	}
	resp, err := s.change(ctx, actor, o, apply)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Order status set by admin",
		zap.String("order_id", o.ID.String()),
		zap.String("status", req.Status))
	return resp, nil
}

// RecordShipment moves an order to shipped with the booked AWB
func (s *OrderService) RecordShipment(ctx context.Context, o *trade.Order, awb, courier, trackingURL string) error {
	if err := o.Ship(awb, courier, trackingURL); err != nil {
		return err
	}
	return s.persist(ctx, o)
}

// ApplyTracking advances an order to a courier-reported status. It reports
// false when the update was stale or repeated.
func (s *OrderService) ApplyTracking(ctx context.Context, o *trade.Order, target trade.OrderStatus) (bool, error) {
	changed, err := o.ApplyTrackingStatus(target)
	if err != nil || !changed {
		return false, err
	}
	if err := s.persist(ctx, o); err != nil {
		return false, err
	}
	return true, nil
}

func (s *OrderService) change(ctx context.Context, actor Actor, o *trade.Order, apply func() error) (*OrderResponse, error) {
	if err := apply(); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, o); err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o, actor.Role)
	return &resp, nil
}

// persist stores a status change with its side effects: cancelled orders
// return stock, delivered orders get a payout
func (s *OrderService) persist(ctx context.Context, o *trade.Order) error {
	err := s.tx.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Orders().Update(ctx, o); err != nil {
			return err
		}
		switch o.Status {
		case trade.OrderStatusCancelled:
			for _, it := range o.Items {
				if err := repos.Products().IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
					return fmt.Errorf("failed to restock %s: %w", it.ProductID, err)
				}
			}
		case trade.OrderStatusDelivered:
			p, err := payout.NewFromOrder(o, s.payoutHold)
			if err != nil {
				return err
			}
			if err := repos.Payouts().Create(ctx, p); err != nil && !errors.Is(err, shared.ErrAlreadyExists) {
				return fmt.Errorf("failed to create payout: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.events != nil {
		if err := s.events.Publish(ctx, o.GetDomainEvents()...); err != nil {
			s.logger.Warn("Failed to publish order events",
				zap.String("order_id", o.ID.String()),
				zap.Error(err))
		}
	}
	o.ClearDomainEvents()
	return nil
}

func (s *OrderService) find(ctx context.Context, actor Actor, id uuid.UUID) (*trade.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case identity.RoleAdmin:
		return o, nil
	case identity.RoleRetailer:
		if o.IsOwnedByRetailer(actor.UserID) {
			return o, nil
		}
	case identity.RoleManufacturer:
		if o.IsSoldBy(actor.UserID) {
			return o, nil
		}
	}
	return nil, shared.ErrNotFound
}
