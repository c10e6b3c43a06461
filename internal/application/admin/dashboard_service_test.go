package admin

import (
	"context"
	"testing"
	"time"

	"github.com/d2bcart/backend/internal/domain/catalog"
	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/payout"
	"github.com/d2bcart/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockUsers struct {
	identity.UserRepository
	mock.Mock
}

func (m *mockUsers) CountByRole(ctx context.Context) (map[identity.Role]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[identity.Role]int64), args.Error(1)
}

func (m *mockUsers) CountPendingManufacturers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockProducts struct {
	catalog.ProductRepository
	mock.Mock
}

func (m *mockProducts) CountByStatus(ctx context.Context, status catalog.ProductStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

type mockOrders struct {
	trade.OrderRepository
	mock.Mock
}

func (m *mockOrders) CountByStatus(ctx context.Context) (map[trade.OrderStatus]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[trade.OrderStatus]int64), args.Error(1)
}

func (m *mockOrders) SalesSummary(ctx context.Context, from, to time.Time) (trade.SalesSummary, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(trade.SalesSummary), args.Error(1)
}

type mockPayouts struct {
	payout.Repository
	mock.Mock
}

func (m *mockPayouts) Summarize(ctx context.Context, manufacturerID *uuid.UUID) (payout.Summary, error) {
	args := m.Called(ctx, manufacturerID)
	return args.Get(0).(payout.Summary), args.Error(1)
}

func TestDashboardService_Get(t *testing.T) {
	users, products, orders, payouts := new(mockUsers), new(mockProducts), new(mockOrders), new(mockPayouts)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	monthStart := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	users.On("CountByRole", mock.Anything).Return(map[identity.Role]int64{identity.RoleRetailer: 120, identity.RoleManufacturer: 14}, nil)
	users.On("CountPendingManufacturers", mock.Anything).Return(int64(3), nil)
	products.On("CountByStatus", mock.Anything, catalog.ProductStatusPendingApproval).Return(int64(9), nil)
	orders.On("CountByStatus", mock.Anything).Return(map[trade.OrderStatus]int64{trade.OrderStatusPlaced: 4, trade.OrderStatusDelivered: 30}, nil)
	orders.On("SalesSummary", mock.Anything, monthStart, now).Return(trade.SalesSummary{
		OrderCount:     34,
		GMV:            decimal.NewFromInt(170000),
		PlatformMargin: decimal.NewFromInt(15000),
	}, nil)
	payouts.On("Summarize", mock.Anything, (*uuid.UUID)(nil)).Return(payout.Summary{
		payout.StatusEligible: decimal.NewFromInt(42000),
		payout.StatusPending:  decimal.NewFromInt(8000),
	}, nil)

	svc := NewDashboardService(users, products, orders, payouts, zap.NewNop())
	svc.now = func() time.Time { return now }

	d, err := svc.Get(context.Background(), DashboardQuery{})

	require.NoError(t, err)
	assert.Equal(t, int64(120), d.UsersByRole["retailer"])
	assert.Equal(t, int64(3), d.PendingManufacturers)
	assert.Equal(t, int64(9), d.ProductsPendingApproval)
	assert.Equal(t, int64(30), d.OrdersByStatus["delivered"])
	assert.Equal(t, "5000", d.Sales.AverageOrder.String())
	assert.Equal(t, "42000", d.PayoutsDue.String())
	assert.True(t, d.PayoutsOnHold.IsZero())
}

func TestDashboardService_PropagatesErrors(t *testing.T) {
	users, products, orders, payouts := new(mockUsers), new(mockProducts), new(mockOrders), new(mockPayouts)
	users.On("CountByRole", mock.Anything).Return(map[identity.Role]int64{}, assert.AnError)
	users.On("CountPendingManufacturers", mock.Anything).Return(int64(0), nil)
	products.On("CountByStatus", mock.Anything, mock.Anything).Return(int64(0), nil)
	orders.On("CountByStatus", mock.Anything).Return(map[trade.OrderStatus]int64{}, nil)
	orders.On("SalesSummary", mock.Anything, mock.Anything, mock.Anything).Return(trade.SalesSummary{}, nil)
	payouts.On("Summarize", mock.Anything, mock.Anything).Return(payout.Summary{}, nil)

	svc := NewDashboardService(users, products, orders, payouts, zap.NewNop())

	_, err := svc.Get(context.Background(), DashboardQuery{})

	assert.ErrorIs(t, err, assert.AnError)
}

func TestDashboardService_RejectsInvertedRange(t *testing.T) {
	svc := NewDashboardService(nil, nil, nil, nil, zap.NewNop())
	from := time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Get(context.Background(), DashboardQuery{From: &from, To: &to})

	assert.ErrorIs(t, err, errInvalidRange)
}
