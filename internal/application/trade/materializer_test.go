package trade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/d2bcart/backend/internal/domain/cart"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/shared/valueobject"
	"github.com/d2bcart/backend/internal/domain/tax"
	"github.com/d2bcart/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	makerA   = uuid.MustParse("0a000000-0000-0000-0000-00000000000a")
	makerB   = uuid.MustParse("0b000000-0000-0000-0000-00000000000b")
	productA = uuid.MustParse("1a000000-0000-0000-0000-00000000000a")
	productB = uuid.MustParse("1b000000-0000-0000-0000-00000000000b")
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testAddress() valueobject.Address {
	return valueobject.Address{
		Name:    "Kirana Mart",
		Phone:   "+919876500001",
		Line1:   "12 MG Road",
		City:    "Bengaluru",
		State:   "Karnataka",
		Pincode: "560001",
	}
}

// newTestAttempt builds a two-manufacturer attempt: 10 × 110 at 18% intra
// state from A and 5 × 220 at 12% inter state from B, shipping 50 and 70
func newTestAttempt(t *testing.T, retailerID uuid.UUID, mode trade.PaymentMode) *trade.PaymentAttempt {
	t.Helper()
	shipA, shipB := dec("50"), dec("70")
	snap := trade.Snapshot{
		Lines: []trade.SnapshotLine{
			{ProductID: productA, ManufacturerID: makerA, Name: "Steel Plate", SKU: "SP-1", HSNCode: "7323",
				Quantity: 10, UnitDisplayPrice: dec("110"), UnitBasePrice: dec("100"), GSTRate: 18},
			{ProductID: productB, ManufacturerID: makerB, Name: "Copper Pot", SKU: "CP-1", HSNCode: "7418",
				Quantity: 5, UnitDisplayPrice: dec("220"), UnitBasePrice: dec("200"), GSTRate: 12},
		},
		Groups: []trade.SnapshotGroup{
			{ManufacturerID: makerA, TaxType: tax.IntraState, ShippingCost: &shipA},
			{ManufacturerID: makerB, TaxType: tax.InterState, ShippingCost: &shipB},
		},
	}
	totals := trade.Totals{
		ItemsTotal:    dec("2200"),
		TaxTotal:      dec("330"),
		ShippingTotal: dec("120"),
		GrandTotal:    dec("2650"),
		AmountPayable: dec("2650"),
	}
	if mode == trade.PaymentModeAdvance {
		totals.AmountPayable = dec("530")
	}
	a, err := trade.NewPaymentAttempt(retailerID, mode, snap, testAddress(), totals, valueobject.Attribution{UTMSource: "whatsapp"})
	require.NoError(t, err)
	require.NoError(t, a.AttachGatewayOrder("order_TEST123"))
	return a
}

type materializerFixture struct {
	ctx      context.Context
	attempts *MockPaymentAttemptRepository
	orders   *MockOrderRepository
	products *MockProductRepository
	carts    *MockCartRepository
	events   *MockEventPublisher
	scope    *fakeScope
	m        *Materializer
}

func newMaterializerFixture() *materializerFixture {
	f := &materializerFixture{
		ctx:      context.Background(),
		attempts: new(MockPaymentAttemptRepository),
		orders:   new(MockOrderRepository),
		products: new(MockProductRepository),
		carts:    new(MockCartRepository),
		events:   new(MockEventPublisher),
	}
	f.scope = &fakeScope{repos: &fakeRepos{
		orders:   f.orders,
		attempts: f.attempts,
		products: f.products,
		carts:    f.carts,
		payouts:  new(MockPayoutRepository),
	}}
	f.m = NewMaterializer(f.attempts, f.orders, f.scope, f.events, nil, zap.NewNop())
	f.m.now = func() time.Time { return time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC) }
	return f
}

func TestMaterializer_CreatesOneOrderPerManufacturer(t *testing.T) {
	f := newMaterializerFixture()
	retailerID := uuid.New()
	attempt := newTestAttempt(t, retailerID, trade.PaymentModeFull)
	c := cart.New(retailerID)
	require.NoError(t, c.Set(productA, 10))

	f.orders.On("FindByPaymentAttemptID", f.ctx, attempt.ID).Return([]*trade.Order{}, nil)
	f.attempts.On("Claim", f.ctx, attempt.ID).Return(true, nil).Run(func(mock.Arguments) {
		assert.True(t, f.scope.active, "claim must run inside the unit of work")
	})
	f.orders.On("CreateBatch", f.ctx, mock.AnythingOfType("[]*trade.Order")).Return(nil)
	f.products.On("DecrementStock", f.ctx, productA, 10).Return(nil)
	f.products.On("DecrementStock", f.ctx, productB, 5).Return(nil)
	f.carts.On("Get", f.ctx, retailerID).Return(c, nil)
	f.carts.On("Save", f.ctx, c).Return(nil)
	f.attempts.On("Update", f.ctx, attempt).Return(nil)
	f.events.On("Publish", f.ctx, mock.Anything).Return(nil)

	res, err := f.m.Materialize(f.ctx, attempt, "pay_1", dec("2650"))

	require.NoError(t, err)
	assert.False(t, res.AlreadyProcessed)
	require.Len(t, res.Orders, 2)

	byMaker := map[uuid.UUID]*trade.Order{}
	paid := decimal.Zero
	for _, o := range res.Orders {
		byMaker[o.ManufacturerID] = o
		paid = paid.Add(o.AmountPaid)
		assert.Equal(t, trade.OrderStatusPlaced, o.Status)
		assert.Equal(t, "pay_1", o.GatewayPaymentID)
		assert.Empty(t, o.GetDomainEvents())
	}
	assert.Equal(t, "1348.00", byMaker[makerA].Total.StringFixed(2))
	assert.Equal(t, "1302.00", byMaker[makerB].Total.StringFixed(2))
	assert.True(t, paid.Equal(dec("2650")))

	assert.Equal(t, trade.AttemptStatusCompleted, attempt.Status)
	assert.Len(t, attempt.OrderIDs, 2)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 1, f.scope.calls)
	f.events.AssertNumberOfCalls(t, "Publish", 2)
	f.attempts.AssertNotCalled(t, "RecordFailure", mock.Anything, mock.Anything, mock.Anything)
}

func TestMaterializer_AdvanceLeavesBalanceDue(t *testing.T) {
	f := newMaterializerFixture()
	retailerID := uuid.New()
	attempt := newTestAttempt(t, retailerID, trade.PaymentModeAdvance)

	f.orders.On("FindByPaymentAttemptID", f.ctx, attempt.ID).Return([]*trade.Order{}, nil)
	f.attempts.On("Claim", f.ctx, attempt.ID).Return(true, nil)
	f.orders.On("CreateBatch", f.ctx, mock.Anything).Return(nil)
	f.products.On("DecrementStock", f.ctx, mock.Anything, mock.Anything).Return(nil)
	f.carts.On("Get", f.ctx, retailerID).Return(cart.New(retailerID), nil)
	f.carts.On("Save", f.ctx, mock.Anything).Return(nil)
	f.attempts.On("Update", f.ctx, attempt).Return(nil)
	f.events.On("Publish", f.ctx, mock.Anything).Return(nil)

	res, err := f.m.Materialize(f.ctx, attempt, "pay_2", dec("530"))

	require.NoError(t, err)
	paid, due := decimal.Zero, decimal.Zero
	for _, o := range res.Orders {
		paid = paid.Add(o.AmountPaid)
		due = due.Add(o.BalanceDue)
		assert.Equal(t, trade.PaymentStatusPartiallyPaid, o.PaymentStatus)
	}
	assert.Equal(t, "530.00", paid.StringFixed(2))
	assert.Equal(t, "2120.00", due.StringFixed(2))
}

func TestMaterializer_ExistingOrdersAreReturned(t *testing.T) {
	f := newMaterializerFixture()
	attempt := newTestAttempt(t, uuid.New(), trade.PaymentModeFull)
	existing := []*trade.Order{{OrderNumber: "D2B-261019-AAAAAA"}}
	f.orders.On("FindByPaymentAttemptID", f.ctx, attempt.ID).Return(existing, nil)

	res, err := f.m.Materialize(f.ctx, attempt, "pay_1", dec("2650"))

	require.NoError(t, err)
	assert.True(t, res.AlreadyProcessed)
	assert.Equal(t, existing, res.Orders)
	f.attempts.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything)
	assert.Zero(t, f.scope.calls)
}

func TestMaterializer_LostClaimDoesNothing(t *testing.T) {
	f := newMaterializerFixture()
	attempt := newTestAttempt(t, uuid.New(), trade.PaymentModeFull)
	f.orders.On("FindByPaymentAttemptID", f.ctx, attempt.ID).Return([]*trade.Order{}, nil)
	f.attempts.On("Claim", f.ctx, attempt.ID).Return(false, nil)

	res, err := f.m.Materialize(f.ctx, attempt, "pay_1", dec("2650"))

	require.NoError(t, err)
	assert.True(t, res.AlreadyProcessed)
	assert.Empty(t, res.Orders)
	assert.Equal(t, trade.AttemptStatusPending, attempt.Status)
	f.orders.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	f.attempts.AssertNotCalled(t, "RecordFailure", mock.Anything, mock.Anything, mock.Anything)
}

func TestMaterializer_FailureKeepsAttemptClaimable(t *testing.T) {
	f := newMaterializerFixture()
	retailerID := uuid.New()
	attempt := newTestAttempt(t, retailerID, trade.PaymentModeFull)

	f.orders.On("FindByPaymentAttemptID", f.ctx, attempt.ID).Return([]*trade.Order{}, nil)
	f.attempts.On("Claim", f.ctx, attempt.ID).Return(true, nil)
	f.orders.On("CreateBatch", f.ctx, mock.Anything).Return(nil)
	f.products.On("DecrementStock", f.ctx, productA, 10).Return(nil)
	f.products.On("DecrementStock", f.ctx, productB, 5).Return(shared.ErrInsufficientStock)
	f.attempts.On("RecordFailure", mock.Anything, attempt.ID, mock.AnythingOfType("string")).Return(nil)

	res, err := f.m.Materialize(f.ctx, attempt, "pay_1", dec("2650"))

	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
	assert.Equal(t, trade.AttemptStatusPending, attempt.Status)
	f.attempts.AssertCalled(t, "RecordFailure", mock.Anything, attempt.ID, mock.AnythingOfType("string"))
	f.attempts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}
