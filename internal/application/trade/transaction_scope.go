package trade

import (
	"context"

	"github.com/d2bcart/backend/internal/domain/cart"
	"github.com/d2bcart/backend/internal/domain/catalog"
	"github.com/d2bcart/backend/internal/domain/payout"
	"github.com/d2bcart/backend/internal/domain/trade"
)

// TransactionScope runs a unit of work atomically. Every repository handed
// to fn shares one database transaction, committed when fn returns nil and
// rolled back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to the repositories that take part
// in order placement, cancellation and delivery.
type TransactionalRepositories interface {
	Orders() trade.OrderRepository
	PaymentAttempts() trade.PaymentAttemptRepository
	Products() catalog.ProductRepository
	Carts() cart.Repository
	Payouts() payout.Repository
}
