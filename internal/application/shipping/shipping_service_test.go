package shipping

import (
	"context"
	"errors"
	"testing"
	"time"

	apptrade "github.com/d2bcart/backend/internal/application/trade"
	"github.com/d2bcart/backend/internal/domain/cart"
	"github.com/d2bcart/backend/internal/domain/catalog"
	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/payout"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/shared/valueobject"
	"github.com/d2bcart/backend/internal/domain/shipping"
	"github.com/d2bcart/backend/internal/domain/trade"
	"github.com/d2bcart/backend/internal/infrastructure/cache"
	"github.com/d2bcart/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockAggregator is a mock implementation of shipping.Aggregator
type MockAggregator struct {
	mock.Mock
}

func (m *MockAggregator) Serviceability(ctx context.Context, p shipping.Parcel) ([]shipping.CourierRate, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shipping.CourierRate), args.Error(1)
}

func (m *MockAggregator) Book(ctx context.Context, req shipping.ShipmentRequest, courierID int) (*shipping.BookedShipment, error) {
	args := m.Called(ctx, req, courierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.BookedShipment), args.Error(1)
}

// MockShipmentRepository is a mock implementation of shipping.Repository
type MockShipmentRepository struct {
	mock.Mock
}

func (m *MockShipmentRepository) Create(ctx context.Context, s *shipping.Shipment) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockShipmentRepository) Update(ctx context.Context, s *shipping.Shipment) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockShipmentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*shipping.Shipment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) FindByAWB(ctx context.Context, awb string) (*shipping.Shipment, error) {
	args := m.Called(ctx, awb)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.Shipment), args.Error(1)
}

// MockOrderRepository covers the order lookups shipping performs
type MockOrderRepository struct {
	mock.Mock
	trade.OrderRepository
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

func (m *MockOrderRepository) Update(ctx context.Context, o *trade.Order) error {
	return m.Called(ctx, o).Error(0)
}

// MockProductRepository covers the weight lookup
type MockProductRepository struct {
	mock.Mock
	catalog.ProductRepository
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*catalog.Product), args.Error(1)
}

// MockUserRepository covers seller and retailer lookups
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

// MockPayoutRepository covers payout creation on delivery
type MockPayoutRepository struct {
	mock.Mock
	payout.Repository
}

func (m *MockPayoutRepository) Create(ctx context.Context, p *payout.Payout) error {
	return m.Called(ctx, p).Error(0)
}

type txRepos struct {
	orders  *MockOrderRepository
	payouts *MockPayoutRepository
}

func (r *txRepos) Orders() trade.OrderRepository                   { return r.orders }
func (r *txRepos) PaymentAttempts() trade.PaymentAttemptRepository { return nil }
func (r *txRepos) Products() catalog.ProductRepository             { return nil }
func (r *txRepos) Carts() cart.Repository                          { return nil }
func (r *txRepos) Payouts() payout.Repository                      { return r.payouts }

type txScope struct{ repos *txRepos }

func (s *txScope) Execute(_ context.Context, fn func(apptrade.TransactionalRepositories) error) error {
	return fn(s.repos)
}

type fixture struct {
	ctx        context.Context
	retailer   *identity.User
	seller     *identity.User
	product    *catalog.Product
	order      *trade.Order
	aggregator *MockAggregator
	shipments  *MockShipmentRepository
	orders     *MockOrderRepository
	payouts    *MockPayoutRepository
	products   *MockProductRepository
	users      *MockUserRepository
	svc        *Service
}

var threeRates = []shipping.CourierRate{
	{CourierID: 1, Name: "Slowpost", Rate: decimal.RequireFromString("60"), EstimatedDays: 7, Rating: 3.5},
	{CourierID: 2, Name: "Delhivery", Rate: decimal.RequireFromString("75"), EstimatedDays: 3, Rating: 4.2},
	{CourierID: 3, Name: "Bluedart", Rate: decimal.RequireFromString("120"), EstimatedDays: 1, Rating: 4.8},
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	retailer, err := identity.NewUser(identity.RoleRetailer, "Kirana", "kirana@example.com", "9876500001", "Password123",
		identity.BusinessProfile{BusinessName: "Kirana Mart", State: "Karnataka", Pincode: "560001"})
	require.NoError(t, err)
	seller, err := identity.NewUser(identity.RoleManufacturer, "Maker", "maker@example.com", "9876500002", "Password123",
		identity.BusinessProfile{BusinessName: "Steel Works", State: "Gujarat", Pincode: "380001"})
	require.NoError(t, err)
	product, err := catalog.NewProduct(seller.ID, catalog.ProductInput{
		Name: "Steel Plate", SKU: "SP-1", BasePrice: decimal.NewFromInt(100), MOQ: 10, Stock: 50,
		HSNCode: "7323", GSTRate: 18, WeightGrams: 250,
	}, decimal.NewFromInt(10))
	require.NoError(t, err)

	order := &trade.Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       "D2B-261019-ABC123",
		RetailerID:        retailer.ID,
		ManufacturerID:    seller.ID,
		Items: []trade.OrderItem{{
			ID: uuid.New(), ProductID: product.ID, Name: "Steel Plate", SKU: "SP-1", HSNCode: "7323", Quantity: 10,
			UnitPrice: decimal.NewFromInt(110), UnitBasePrice: decimal.NewFromInt(100), GSTRate: 18,
			LineTotal: decimal.NewFromInt(1100), IGST: decimal.NewFromInt(198),
		}},
		ItemsSubtotal:   decimal.NewFromInt(1100),
		IGST:            decimal.NewFromInt(198),
		ShippingCost:    decimal.NewFromInt(75),
		Total:           decimal.NewFromInt(1373),
		PaymentMode:     trade.PaymentModeAdvance,
		AmountPaid:      decimal.RequireFromString("274.60"),
		BalanceDue:      decimal.RequireFromString("1098.40"),
		PaymentStatus:   trade.PaymentStatusPartiallyPaid,
		Status:          trade.OrderStatusPacked,
		ShippingAddress: valueobject.Address{Name: "Kirana Mart", Phone: "+919876500001", Line1: "12 MG Road", City: "Bengaluru", State: "Karnataka", Pincode: "560001"},
	}

	f := &fixture{
		ctx:        context.Background(),
		retailer:   retailer,
		seller:     seller,
		product:    product,
		order:      order,
		aggregator: new(MockAggregator),
		shipments:  new(MockShipmentRepository),
		orders:     new(MockOrderRepository),
		payouts:    new(MockPayoutRepository),
		products:   new(MockProductRepository),
		users:      new(MockUserRepository),
	}
	f.orders.On("FindByID", f.ctx, order.ID).Return(order, nil)
	f.orders.On("Update", f.ctx, order).Return(nil)
	f.users.On("FindByID", f.ctx, seller.ID).Return(seller, nil)
	f.users.On("FindByID", f.ctx, retailer.ID).Return(retailer, nil)
	f.products.On("FindByIDs", f.ctx, []uuid.UUID{product.ID}).Return([]*catalog.Product{product}, nil)

	orderSvc := apptrade.NewOrderService(f.orders, &txScope{repos: &txRepos{orders: f.orders, payouts: f.payouts}}, nil, 7*24*time.Hour, zap.NewNop())
	f.svc = NewService(f.aggregator, cache.NewInMemoryRateCache(), f.shipments, f.orders, orderSvc, f.products, f.users, nil, Config{
		Strategy:       shipping.StrategyBalanced,
		MaxDays:        5,
		FlatRate:       decimal.NewFromInt(150),
		PickupLocation: "Primary",
		WebhookToken:   "secret-token",
	}, zap.NewNop())
	return f
}

func TestService_Quote_SelectsAndCaches(t *testing.T) {
	f := newFixture(t)
	parcel := shipping.Parcel{PickupPincode: "380001", DeliveryPincode: "560001", WeightGrams: 2100}
	f.aggregator.On("Serviceability", f.ctx, parcel).Return(threeRates, nil).Once()

	first := f.svc.Quote(f.ctx, parcel)
	second := f.svc.Quote(f.ctx, shipping.Parcel{PickupPincode: "380001", DeliveryPincode: "560001", WeightGrams: 2400})

	// balanced: 75 × 1.3 = 97.5 beats 120 × 1.1 = 132; Slowpost exceeds MaxDays
	assert.Equal(t, "Delhivery", first.Courier)
	assert.Equal(t, "75.00", first.Cost.StringFixed(2))
	assert.False(t, first.Fallback)
	assert.Equal(t, first, second)
	f.aggregator.AssertNumberOfCalls(t, "Serviceability", 1)
}

func TestService_Quote_FallsBackToFlatRate(t *testing.T) {
	f := newFixture(t)
	parcel := shipping.Parcel{PickupPincode: "380001", DeliveryPincode: "999999", WeightGrams: 500}
	f.aggregator.On("Serviceability", f.ctx, parcel).Return(nil, errors.New("timeout"))

	q := f.svc.Quote(f.ctx, parcel)

	assert.True(t, q.Fallback)
	assert.Equal(t, "150.00", q.Cost.StringFixed(2))
}

func TestService_Quote_WithoutAggregator(t *testing.T) {
	f := newFixture(t)
	f.svc.aggregator = nil

	q := f.svc.Quote(f.ctx, shipping.Parcel{PickupPincode: "380001", DeliveryPincode: "560001"})

	assert.True(t, q.Fallback)
}

func TestService_Ship(t *testing.T) {
	f := newFixture(t)
	f.aggregator.On("Serviceability", f.ctx, mock.AnythingOfType("shipping.Parcel")).Return(threeRates, nil)
	f.aggregator.On("Book", f.ctx, mock.MatchedBy(func(req shipping.ShipmentRequest) bool {
		return req.OrderNumber == "D2B-261019-ABC123" &&
			req.Parcel.WeightGrams == 2500 && req.Parcel.COD &&
			req.CODAmount.Equal(decimal.RequireFromString("1098.40")) &&
			req.BillingPhone == "9876500001" && req.BillingEmail == "kirana@example.com" &&
			req.PickupLocation == "Primary" && len(req.Items) == 1
	}), 2).Return(&shipping.BookedShipment{
		ProviderOrderID: "SR-1", ShipmentID: "SH-1", AWB: "AWB123", CourierID: 2,
		CourierName: "Delhivery", TrackingURL: "https://track.example/AWB123", PickupScheduled: true,
	}, nil)
	f.shipments.On("FindByOrderID", f.ctx, f.order.ID).Return(nil, shared.ErrNotFound)
	f.shipments.On("Create", f.ctx, mock.AnythingOfType("*shipping.Shipment")).Return(nil)

	resp, err := f.svc.Ship(f.ctx, apptrade.Actor{UserID: f.seller.ID, Role: identity.RoleManufacturer}, f.order.ID)

	require.NoError(t, err)
	assert.Equal(t, "AWB123", resp.AWB)
	assert.Equal(t, "shipped", resp.OrderStatus)
	assert.True(t, resp.PickupScheduled)
	assert.Equal(t, trade.OrderStatusShipped, f.order.Status)
	f.aggregator.AssertExpectations(t)
}

func TestService_Ship_RequiresPacked(t *testing.T) {
	f := newFixture(t)
	f.order.Status = trade.OrderStatusConfirmed

	_, err := f.svc.Ship(f.ctx, apptrade.Actor{UserID: f.seller.ID, Role: identity.RoleManufacturer}, f.order.ID)

	assert.ErrorIs(t, err, errNotPacked)
	f.aggregator.AssertNotCalled(t, "Book", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Ship_BookingFailure(t *testing.T) {
	f := newFixture(t)
	f.aggregator.On("Serviceability", f.ctx, mock.Anything).Return(threeRates, nil)
	f.aggregator.On("Book", f.ctx, mock.Anything, 2).Return(nil, errors.New("no courier"))
	f.shipments.On("FindByOrderID", f.ctx, f.order.ID).Return(nil, shared.ErrNotFound)

	_, err := f.svc.Ship(f.ctx, apptrade.Actor{Role: identity.RoleAdmin}, f.order.ID)

	assert.ErrorIs(t, err, errBookingFailed)
	assert.Equal(t, trade.OrderStatusPacked, f.order.Status)
	f.shipments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Ship_RetryReusesStoredBooking(t *testing.T) {
	f := newFixture(t)
	stored := &shipping.Shipment{
		BaseEntity: shared.NewBaseEntity(), OrderID: f.order.ID, AWB: "AWB123",
		CourierName: "Delhivery", TrackingURL: "https://track.example/AWB123", Status: "AWB ASSIGNED",
	}
	f.shipments.On("FindByOrderID", f.ctx, f.order.ID).Return(stored, nil)

	resp, err := f.svc.Ship(f.ctx, apptrade.Actor{UserID: f.seller.ID, Role: identity.RoleManufacturer}, f.order.ID)

	require.NoError(t, err)
	assert.Equal(t, "AWB123", resp.AWB)
	assert.Equal(t, trade.OrderStatusShipped, f.order.Status)
	assert.Equal(t, "AWB123", f.order.AWB)
	f.aggregator.AssertNotCalled(t, "Book", mock.Anything, mock.Anything, mock.Anything)
	f.shipments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_TrackingWebhook_CompletesUnrecordedShipment(t *testing.T) {
	f := newFixture(t)
	shipment := &shipping.Shipment{BaseEntity: shared.NewBaseEntity(), OrderID: f.order.ID, AWB: "AWB123", CourierName: "Delhivery"}
	f.shipments.On("FindByAWB", f.ctx, "AWB123").Return(shipment, nil)
	f.shipments.On("Update", f.ctx, shipment).Return(nil)
	f.orders.On("FindByAWB", f.ctx, "AWB123").Return(nil, shared.ErrNotFound)
	body := []byte(`{"awb":"AWB123","current_status":"IN TRANSIT","current_timestamp":"2026-10-19 15:30:00"}`)

	outcome, err := f.svc.HandleTrackingWebhook(f.ctx, body, "secret-token")

	require.NoError(t, err)
	assert.Equal(t, telemetry.WebhookProcessed, outcome)
	assert.Equal(t, "AWB123", f.order.AWB)
	assert.Equal(t, trade.OrderStatusInTransit, f.order.Status)
	f.orders.AssertNumberOfCalls(t, "Update", 2)
}

func shipOrder(t *testing.T, o *trade.Order) {
	t.Helper()
	require.NoError(t, o.Ship("AWB123", "Delhivery", ""))
	o.ClearDomainEvents()
}

func TestService_TrackingWebhook_RejectsBadToken(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.svc.HandleTrackingWebhook(f.ctx, []byte(`{}`), "wrong")

	assert.ErrorIs(t, err, errInvalidToken)
	assert.Equal(t, telemetry.WebhookRejected, outcome)
}

func TestService_TrackingWebhook_DeliveredCreatesPayout(t *testing.T) {
	f := newFixture(t)
	shipOrder(t, f.order)
	shipment := &shipping.Shipment{BaseEntity: shared.NewBaseEntity(), OrderID: f.order.ID, AWB: "AWB123"}
	f.shipments.On("FindByAWB", f.ctx, "AWB123").Return(shipment, nil)
	f.shipments.On("Update", f.ctx, shipment).Return(nil)
	f.orders.On("FindByAWB", f.ctx, "AWB123").Return(f.order, nil)
	f.payouts.On("Create", f.ctx, mock.AnythingOfType("*payout.Payout")).Return(nil).Once()
	body := []byte(`{"awb":"AWB123","current_status":"DELIVERED","current_timestamp":"2026-10-19 15:30:00"}`)

	outcome, err := f.svc.HandleTrackingWebhook(f.ctx, body, "secret-token")
	require.NoError(t, err)
	assert.Equal(t, telemetry.WebhookProcessed, outcome)
	assert.Equal(t, trade.OrderStatusDelivered, f.order.Status)
	assert.True(t, f.order.BalanceDue.IsZero())
	assert.Equal(t, "DELIVERED", shipment.Status)
	require.NotNil(t, shipment.LastEventAt)
	assert.Equal(t, 10, shipment.LastEventAt.Hour())

	outcome, err = f.svc.HandleTrackingWebhook(f.ctx, body, "secret-token")
	require.NoError(t, err)
	assert.Equal(t, telemetry.WebhookDuplicate, outcome)
	f.payouts.AssertNumberOfCalls(t, "Create", 1)
}

func TestService_TrackingWebhook_IgnoresUnmappedStatus(t *testing.T) {
	f := newFixture(t)
	shipOrder(t, f.order)
	f.shipments.On("FindByAWB", f.ctx, "AWB123").Return(nil, shared.ErrNotFound)
	f.orders.On("FindByAWB", f.ctx, "AWB123").Return(f.order, nil)

	outcome, err := f.svc.HandleTrackingWebhook(f.ctx, []byte(`{"awb":"AWB123","current_status":"PICKUP SCHEDULED"}`), "secret-token")

	require.NoError(t, err)
	assert.Equal(t, telemetry.WebhookIgnored, outcome)
	assert.Equal(t, trade.OrderStatusShipped, f.order.Status)
}

func TestService_TrackingWebhook_UnknownAWB(t *testing.T) {
	f := newFixture(t)
	f.shipments.On("FindByAWB", f.ctx, "NOPE").Return(nil, shared.ErrNotFound)
	f.orders.On("FindByAWB", f.ctx, "NOPE").Return(nil, shared.ErrNotFound)

	outcome, err := f.svc.HandleTrackingWebhook(f.ctx, []byte(`{"awb":"NOPE","current_status":"DELIVERED"}`), "secret-token")

	require.NoError(t, err)
	assert.Equal(t, telemetry.WebhookIgnored, outcome)
}

func TestService_Track_WithoutShipment(t *testing.T) {
	f := newFixture(t)
	f.shipments.On("FindByOrderID", f.ctx, f.order.ID).Return(nil, shared.ErrNotFound)

	resp, err := f.svc.Track(f.ctx, apptrade.Actor{UserID: f.retailer.ID, Role: identity.RoleRetailer}, f.order.ID)

	require.NoError(t, err)
	assert.Equal(t, "packed", resp.OrderStatus)
	assert.Empty(t, resp.AWB)
}
