package trade

import (
	"context"
	"time"

	"github.com/d2bcart/backend/internal/domain/cart"
	"github.com/d2bcart/backend/internal/domain/catalog"
	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/payout"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/shipping"
	"github.com/d2bcart/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockPaymentAttemptRepository is a mock implementation of trade.PaymentAttemptRepository
type MockPaymentAttemptRepository struct {
	mock.Mock
}

func (m *MockPaymentAttemptRepository) Create(ctx context.Context, a *trade.PaymentAttempt) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockPaymentAttemptRepository) Update(ctx context.Context, a *trade.PaymentAttempt) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockPaymentAttemptRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PaymentAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PaymentAttempt), args.Error(1)
}

func (m *MockPaymentAttemptRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*trade.PaymentAttempt, error) {
	args := m.Called(ctx, gatewayOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PaymentAttempt), args.Error(1)
}

func (m *MockPaymentAttemptRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentAttemptRepository) RecordFailure(ctx context.Context, id uuid.UUID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *MockPaymentAttemptRepository) MarkFailed(ctx context.Context, id uuid.UUID, paymentID, reason string) error {
	args := m.Called(ctx, id, paymentID, reason)
	return args.Error(0)
}

func (m *MockPaymentAttemptRepository) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockOrderRepository is a mock implementation of trade.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateBatch(ctx context.Context, orders []*trade.Order) error {
	args := m.Called(ctx, orders)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *trade.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByAWB(ctx context.Context, awb string) (*trade.Order, error) {
	args := m.Called(ctx, awb)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByPaymentAttemptID(ctx context.Context, attemptID uuid.UUID) ([]*trade.Order, error) {
	args := m.Called(ctx, attemptID)
	return args.Get(0).([]*trade.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter trade.OrderFilter) ([]*trade.Order, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*trade.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) CountByStatus(ctx context.Context) (map[trade.OrderStatus]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[trade.OrderStatus]int64), args.Error(1)
}

func (m *MockOrderRepository) SalesSummary(ctx context.Context, from, to time.Time) (trade.SalesSummary, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(trade.SalesSummary), args.Error(1)
}

func (m *MockOrderRepository) AttributionReport(ctx context.Context, from, to time.Time) ([]trade.AttributionRow, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]trade.AttributionRow), args.Error(1)
}

// MockProductRepository covers pricing lookups and stock moves
type MockProductRepository struct {
	mock.Mock
	catalog.ProductRepository
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	args := m.Called(ctx, id, qty)
	return args.Error(0)
}

func (m *MockProductRepository) IncrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	args := m.Called(ctx, id, qty)
	return args.Error(0)
}

// MockUserRepository covers buyer and seller lookups
type MockUserRepository struct {
	mock.Mock
	identity.UserRepository
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.User, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*identity.User), args.Error(1)
}

// MockCartRepository covers loading and saving carts
type MockCartRepository struct {
	mock.Mock
	cart.Repository
}

func (m *MockCartRepository) Get(ctx context.Context, retailerID uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, retailerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

// MockPayoutRepository covers payout creation on delivery
type MockPayoutRepository struct {
	mock.Mock
	payout.Repository
}

func (m *MockPayoutRepository) Create(ctx context.Context, p *payout.Payout) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockPaymentGateway is a mock implementation of trade.PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) KeyID() string {
	return m.Called().String(0)
}

func (m *MockPaymentGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string, notes map[string]string) (*trade.GatewayOrder, error) {
	args := m.Called(ctx, amount, receipt, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.GatewayOrder), args.Error(1)
}

func (m *MockPaymentGateway) FetchPaidAmount(ctx context.Context, paymentID string) (decimal.Decimal, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPaymentGateway) VerifyPaymentSignature(gatewayOrderID, paymentID, signature string) bool {
	return m.Called(gatewayOrderID, paymentID, signature).Bool(0)
}

func (m *MockPaymentGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return m.Called(body, signature).Bool(0)
}

func (m *MockPaymentGateway) ParseWebhook(body []byte) (*trade.GatewayEvent, error) {
	args := m.Called(body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.GatewayEvent), args.Error(1)
}

// MockShippingQuoter is a mock implementation of ShippingQuoter
type MockShippingQuoter struct {
	mock.Mock
}

func (m *MockShippingQuoter) Quote(ctx context.Context, parcel shipping.Parcel) shipping.Quote {
	return m.Called(ctx, parcel).Get(0).(shipping.Quote)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// fakeScope runs the unit of work against the mocks without a database
type fakeScope struct {
	repos *fakeRepos
	calls int
	// active is true while a unit of work runs
	active bool
}

type fakeRepos struct {
	orders   *MockOrderRepository
	attempts *MockPaymentAttemptRepository
	products *MockProductRepository
	carts    *MockCartRepository
	payouts  *MockPayoutRepository
}

func (s *fakeScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.calls++
	s.active = true
	defer func() { s.active = false }()
	return fn(s.repos)
}

func (r *fakeRepos) Orders() trade.OrderRepository                   { return r.orders }
func (r *fakeRepos) PaymentAttempts() trade.PaymentAttemptRepository { return r.attempts }
func (r *fakeRepos) Products() catalog.ProductRepository             { return r.products }
func (r *fakeRepos) Carts() cart.Repository                          { return r.carts }
func (r *fakeRepos) Payouts() payout.Repository                      { return r.payouts }
