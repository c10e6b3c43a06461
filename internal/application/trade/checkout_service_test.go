package trade

import (
	"context"
	"errors"
	"testing"
	"time"

	appcart "github.com/d2bcart/backend/internal/application/cart"
	"github.com/d2bcart/backend/internal/domain/cart"
	"github.com/d2bcart/backend/internal/domain/catalog"
	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/shared"
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

type checkoutFixture struct {
	ctx      context.Context
	retailer *identity.User
	seller   *identity.User
	product  *catalog.Product
	cart     *cart.Cart
	users    *MockUserRepository
	products *MockProductRepository
	carts    *MockCartRepository
	attempts *MockPaymentAttemptRepository
	orders   *MockOrderRepository
	gateway  *MockPaymentGateway
	quoter   *MockShippingQuoter
	svc      *CheckoutService
}

func newCheckoutFixture(t *testing.T, stock int) *checkoutFixture {
	t.Helper()
	retailer, err := identity.NewUser(identity.RoleRetailer, "Kirana", "kirana@example.com", "9876500001", "Password123",
		identity.BusinessProfile{BusinessName: "Kirana Mart", State: "Karnataka", Pincode: "560001"})
	require.NoError(t, err)
	seller, err := identity.NewUser(identity.RoleManufacturer, "Maker", "maker@example.com", "9876500002", "Password123",
		identity.BusinessProfile{BusinessName: "Steel Works", State: "Karnataka", Pincode: "560058"})
	require.NoError(t, err)

	product, err := catalog.NewProduct(seller.ID, catalog.ProductInput{
		Name:        "Steel Plate",
		SKU:         "SP-1",
		BasePrice:   dec("100"),
		MOQ:         10,
		Stock:       stock,
		HSNCode:     "7323",
		GSTRate:     18,
		WeightGrams: 200,
	}, dec("10"))
	require.NoError(t, err)
	require.NoError(t, product.SubmitForApproval())
	require.NoError(t, product.Approve())

	c := cart.New(retailer.ID)
	require.NoError(t, c.Set(product.ID, 10))

	f := &checkoutFixture{
		ctx:      context.Background(),
		retailer: retailer,
		seller:   seller,
		product:  product,
		cart:     c,
		users:    new(MockUserRepository),
		products: new(MockProductRepository),
		carts:    new(MockCartRepository),
		attempts: new(MockPaymentAttemptRepository),
		orders:   new(MockOrderRepository),
		gateway:  new(MockPaymentGateway),
		quoter:   new(MockShippingQuoter),
	}
	f.users.On("FindByID", f.ctx, retailer.ID).Return(retailer, nil)
	f.users.On("FindByIDs", f.ctx, []uuid.UUID{seller.ID}).Return([]*identity.User{seller}, nil)
	f.products.On("FindByIDs", f.ctx, []uuid.UUID{product.ID}).Return([]*catalog.Product{product}, nil)
	f.carts.On("Get", f.ctx, retailer.ID).Return(c, nil)
	f.quoter.On("Quote", mock.Anything, mock.AnythingOfType("shipping.Parcel")).
		Return(shipping.Quote{Cost: dec("80"), CourierID: 7, Courier: "Delhivery", EstimatedDays: 3})

	materializer := NewMaterializer(f.attempts, f.orders, &fakeScope{repos: &fakeRepos{}}, nil, nil, zap.NewNop())
	f.svc = NewCheckoutService(
		f.carts, f.users, f.attempts, f.orders,
		appcart.NewPricer(f.products, f.users),
		f.gateway, f.quoter, materializer,
		cache.NewInMemoryIdempotencyStore(), nil,
		CheckoutConfig{AdvancePercent: dec("20"), FlatShipping: dec("150")},
		zap.NewNop(),
	)
	return f
}

func amountOf(s string) any {
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(dec(s)) })
}

func TestCheckoutService_Quote(t *testing.T) {
	f := newCheckoutFixture(t, 50)

	q, err := f.svc.Quote(f.ctx, f.retailer.ID, QuoteRequest{Mode: "advance"})

	require.NoError(t, err)
	require.Len(t, q.Groups, 1)
	assert.Equal(t, "Delhivery", q.Groups[0].Shipping.Courier)
	assert.Equal(t, "1100.00", q.ItemsTotal.StringFixed(2))
	assert.Equal(t, "198.00", q.TaxTotal.StringFixed(2))
	assert.Equal(t, "80.00", q.ShippingTotal.StringFixed(2))
	assert.Equal(t, "1378.00", q.GrandTotal.StringFixed(2))
	assert.Equal(t, "1378.00", q.PayableFull.StringFixed(2))
	assert.Equal(t, "275.60", q.PayableAdvance.StringFixed(2))
	assert.Equal(t, "1102.40", q.BalanceOnDelivery.StringFixed(2))

	f.quoter.AssertCalled(t, "Quote", mock.Anything, mock.MatchedBy(func(p shipping.Parcel) bool {
		return p.PickupPincode == "560058" && p.DeliveryPincode == "560001" && p.WeightGrams == 2000 && p.COD
	}))
}

func TestCheckoutService_Quote_FlatRateWithoutQuoter(t *testing.T) {
	f := newCheckoutFixture(t, 50)
	f.svc.quoter = nil

	q, err := f.svc.Quote(f.ctx, f.retailer.ID, QuoteRequest{})

	require.NoError(t, err)
	assert.True(t, q.Groups[0].Shipping.Fallback)
	assert.Equal(t, "150.00", q.ShippingTotal.StringFixed(2))
}

func TestCheckoutService_Quote_EmptyCart(t *testing.T) {
	f := newCheckoutFixture(t, 50)
	f.cart.Clear()

	_, err := f.svc.Quote(f.ctx, f.retailer.ID, QuoteRequest{})

	assert.ErrorIs(t, err, errEmptyCart)
}

func TestCheckoutService_CreateCheckout(t *testing.T) {
	f := newCheckoutFixture(t, 50)
	f.gateway.On("KeyID").Return("rzp_test_key")
	f.gateway.On("CreateOrder", f.ctx, amountOf("1378"), mock.AnythingOfType("string"), mock.Anything).
		Return(&trade.GatewayOrder{ID: "order_ABC", Amount: dec("1378"), Currency: "INR"}, nil)
	var stored *trade.PaymentAttempt
	f.attempts.On("Create", f.ctx, mock.AnythingOfType("*trade.PaymentAttempt")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*trade.PaymentAttempt) }).
		Return(nil)

	resp, err := f.svc.CreateCheckout(f.ctx, f.retailer.ID, CheckoutRequest{
		Mode:    trade.PaymentModeFull,
		Address: testAddress(),
	})

	require.NoError(t, err)
	assert.Equal(t, "rzp_test_key", resp.KeyID)
	assert.Equal(t, "order_ABC", resp.GatewayOrderID)
	assert.Equal(t, int64(137800), resp.AmountPaise)
	assert.Equal(t, "INR", resp.Currency)

	require.NotNil(t, stored)
	assert.Equal(t, resp.AttemptID, stored.ID)
	assert.Equal(t, trade.AttemptStatusPending, stored.Status)
	assert.Equal(t, "order_ABC", stored.GatewayOrderID)
	require.Len(t, stored.Snapshot.Lines, 1)
	line := stored.Snapshot.Lines[0]
	assert.Equal(t, "110.00", line.UnitDisplayPrice.StringFixed(2))
	assert.Equal(t, "100.00", line.UnitBasePrice.StringFixed(2))
	require.Len(t, stored.Snapshot.Groups, 1)
	assert.Equal(t, "80.00", stored.Snapshot.Groups[0].ShippingCost.StringFixed(2))

	f.gateway.AssertCalled(t, "CreateOrder", f.ctx, amountOf("1378"), stored.ID.String(), mock.Anything)
}

func TestCheckoutService_CreateCheckout_RejectsCartIssues(t *testing.T) {
	f := newCheckoutFixture(t, 5)

	_, err := f.svc.CreateCheckout(f.ctx, f.retailer.ID, CheckoutRequest{
		Mode:    trade.PaymentModeFull,
		Address: testAddress(),
	})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "CART_HAS_ISSUES", domainErr.Code)
	f.gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckoutService_CreateCheckout_InvalidAddress(t *testing.T) {
	f := newCheckoutFixture(t, 50)
	addr := testAddress()
	addr.Pincode = "12"

	_, err := f.svc.CreateCheckout(f.ctx, f.retailer.ID, CheckoutRequest{Mode: trade.PaymentModeFull, Address: addr})

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_ADDRESS", domainErr.Code)
}

func TestCheckoutService_VerifyClientPayment_BadSignature(t *testing.T) {
	f := newCheckoutFixture(t, 50)
	f.gateway.On("VerifyPaymentSignature", "order_ABC", "pay_1", "bad").Return(false)

	_, err := f.svc.VerifyClientPayment(f.ctx, f.retailer.ID, VerifyPaymentRequest{
		GatewayOrderID: "order_ABC", PaymentID: "pay_1", Signature: "bad",
	})

	assert.ErrorIs(t, err, errInvalidSignature)
	f.attempts.AssertNotCalled(t, "FindByGatewayOrderID", mock.Anything, mock.Anything)
}

func TestCheckoutService_VerifyClientPayment_OtherRetailer(t *testing.T) {
	f := newCheckoutFixture(t, 50)
	attempt := newTestAttempt(t, uuid.New(), trade.PaymentModeFull)
	f.gateway.On("VerifyPaymentSignature", "order_TEST123", "pay_1", "sig").Return(true)
	f.attempts.On("FindByGatewayOrderID", f.ctx, "order_TEST123").Return(attempt, nil)

	_, err := f.svc.VerifyClientPayment(f.ctx, f.retailer.ID, VerifyPaymentRequest{
		GatewayOrderID: "order_TEST123", PaymentID: "pay_1", Signature: "sig",
	})

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCheckoutService_VerifyClientPayment_AlreadyProcessed(t *testing.T) {
	f := newCheckoutFixture(t, 50)
	attempt := newTestAttempt(t, f.retailer.ID, trade.PaymentModeFull)
	existing := []*trade.Order{{OrderNumber: "D2B-261019-AAAAAA", ManufacturerID: makerA, Status: trade.OrderStatusPlaced}}
	f.gateway.On("VerifyPaymentSignature", "order_TEST123", "pay_1", "sig").Return(true)
	f.gateway.On("FetchPaidAmount", f.ctx, "pay_1").Return(dec("2650"), nil)
	f.attempts.On("FindByGatewayOrderID", f.ctx, "order_TEST123").Return(attempt, nil)
	f.orders.On("FindByPaymentAttemptID", f.ctx, attempt.ID).Return(existing, nil)

	res, err := f.svc.VerifyClientPayment(f.ctx, f.retailer.ID, VerifyPaymentRequest{
		GatewayOrderID: "order_TEST123", PaymentID: "pay_1", Signature: "sig",
	})

	require.NoError(t, err)
	assert.True(t, res.AlreadyProcessed)
	require.Len(t, res.Orders, 1)
	assert.Equal(t, "D2B-261019-AAAAAA", res.Orders[0].OrderNumber)
}

func TestCheckoutService_HandleWebhook_RejectsBadSignature(t *testing.T) {
	f := newCheckoutFixture(t, 50)
	body := []byte(`{}`)
	f.gateway.On("VerifyWebhookSignature", body, "sig").Return(false)

	outcome, err := f.svc.HandleWebhook(f.ctx, body, "sig", "evt_1")

	assert.ErrorIs(t, err, errInvalidSignature)
	assert.Equal(t, telemetry.WebhookRejected, outcome)
}

func TestCheckoutService_HandleWebhook_PaymentFailed(t *testing.T) {
	f := newCheckoutFixture(t, 50)
	attempt := newTestAttempt(t, f.retailer.ID, trade.PaymentModeFull)
	body := []byte(`{"event":"payment.failed"}`)
	f.gateway.On("VerifyWebhookSignature", body, "sig").Return(true)
	f.gateway.On("ParseWebhook", body).Return(&trade.GatewayEvent{
		Type: trade.GatewayEventPaymentFailed, GatewayOrderID: "order_TEST123", PaymentID: "pay_9", FailureReason: "card declined",
	}, nil)
	f.attempts.On("FindByGatewayOrderID", f.ctx, "order_TEST123").Return(attempt, nil)
	f.attempts.On("MarkFailed", f.ctx, attempt.ID, "pay_9", "card declined").Return(nil)

	outcome, err := f.svc.HandleWebhook(f.ctx, body, "sig", "evt_2")

	require.NoError(t, err)
	assert.Equal(t, telemetry.WebhookProcessed, outcome)
	f.attempts.AssertExpectations(t)
}

func TestCheckoutService_HandleWebhook_DuplicateEvent(t *testing.T) {
	f := newCheckoutFixture(t, 50)
	body := []byte(`{"event":"refund.created"}`)
	f.gateway.On("VerifyWebhookSignature", body, "sig").Return(true)
	f.gateway.On("ParseWebhook", body).Return(&trade.GatewayEvent{Type: "refund.created"}, nil)

	first, err := f.svc.HandleWebhook(f.ctx, body, "sig", "evt_3")
	require.NoError(t, err)
	second, err := f.svc.HandleWebhook(f.ctx, body, "sig", "evt_3")
	require.NoError(t, err)

	assert.Equal(t, telemetry.WebhookIgnored, first)
	assert.Equal(t, telemetry.WebhookDuplicate, second)
	f.gateway.AssertNumberOfCalls(t, "ParseWebhook", 1)
}

func TestCheckoutService_HandleWebhook_FailureAllowsRetry(t *testing.T) {
	f := newCheckoutFixture(t, 50)
	attempt := newTestAttempt(t, f.retailer.ID, trade.PaymentModeFull)
	body := []byte(`{"event":"payment.captured"}`)
	f.gateway.On("VerifyWebhookSignature", body, "sig").Return(true)
	f.gateway.On("ParseWebhook", body).Return(&trade.GatewayEvent{
		Type: trade.GatewayEventPaymentCaptured, GatewayOrderID: "order_TEST123", PaymentID: "pay_1", Amount: dec("2650"),
	}, nil)
	f.attempts.On("FindByGatewayOrderID", f.ctx, "order_TEST123").Return(nil, errors.New("connection reset")).Once()
	f.attempts.On("FindByGatewayOrderID", f.ctx, "order_TEST123").Return(attempt, nil)
	f.orders.On("FindByPaymentAttemptID", f.ctx, attempt.ID).Return([]*trade.Order{{OrderNumber: "D2B-1"}}, nil)

	outcome, err := f.svc.HandleWebhook(f.ctx, body, "sig", "evt_4")
	require.Error(t, err)
	assert.Equal(t, telemetry.WebhookFailed, outcome)

	outcome, err = f.svc.HandleWebhook(f.ctx, body, "sig", "evt_4")
	require.NoError(t, err)
	assert.Equal(t, telemetry.WebhookDuplicate, outcome)
	f.gateway.AssertNumberOfCalls(t, "ParseWebhook", 2)
}

func TestCheckoutService_HandleWebhook_RemembersEventAfterSuccess(t *testing.T) {
	f := newCheckoutFixture(t, 50)
	store := cache.NewInMemoryIdempotencyStore()
	f.svc.idempotency = store
	attempt := newTestAttempt(t, f.retailer.ID, trade.PaymentModeFull)
	body := []byte(`{"event":"payment.failed"}`)
	f.gateway.On("VerifyWebhookSignature", body, "sig").Return(true)
	f.gateway.On("ParseWebhook", body).Return(&trade.GatewayEvent{
		Type: trade.GatewayEventPaymentFailed, GatewayOrderID: "order_TEST123", PaymentID: "pay_9", FailureReason: "card declined",
	}, nil)
	f.attempts.On("FindByGatewayOrderID", f.ctx, "order_TEST123").Return(attempt, nil)
	f.attempts.On("MarkFailed", f.ctx, attempt.ID, "pay_9", "card declined").Return(nil).Run(func(mock.Arguments) {
		// a crash at this point must leave the event unseen for the retry
		seen, err := store.IsProcessed(f.ctx, "razorpay:event:evt_5")
		require.NoError(t, err)
		assert.False(t, seen)
	})

	outcome, err := f.svc.HandleWebhook(f.ctx, body, "sig", "evt_5")
	require.NoError(t, err)
	assert.Equal(t, telemetry.WebhookProcessed, outcome)

	seen, err := store.IsProcessed(f.ctx, "razorpay:event:evt_5")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestCheckoutService_ExpireStale(t *testing.T) {
	f := newCheckoutFixture(t, 50)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }
	f.attempts.On("ExpireStale", f.ctx, now.Add(-24*time.Hour)).Return(int64(3), nil)

	n, err := f.svc.ExpireStale(f.ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestAdvanceAmount(t *testing.T) {
	assert.Equal(t, "20.00", advanceAmount(dec("100"), dec("20")).StringFixed(2))
	assert.Equal(t, "1.00", advanceAmount(dec("3"), dec("20")).StringFixed(2))
	assert.Equal(t, "0.50", advanceAmount(dec("0.50"), dec("20")).StringFixed(2))
	assert.Equal(t, "100.00", advanceAmount(dec("100"), dec("0")).StringFixed(2))
}
