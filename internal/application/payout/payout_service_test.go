package payout

import (
	"context"
	"testing"
	"time"

	"github.com/d2bcart/backend/internal/domain/payout"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockRepository is a mock implementation of payout.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, p *payout.Payout) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockRepository) Update(ctx context.Context, p *payout.Payout) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id uuid.UUID) (*payout.Payout, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payout.Payout), args.Error(1)
}

func (m *MockRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*payout.Payout, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payout.Payout), args.Error(1)
}

func (m *MockRepository) FindAll(ctx context.Context, filter payout.Filter) ([]*payout.Payout, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*payout.Payout), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) PromoteEligible(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) Summarize(ctx context.Context, manufacturerID *uuid.UUID) (payout.Summary, error) {
	args := m.Called(ctx, manufacturerID)
	return args.Get(0).(payout.Summary), args.Error(1)
}

func eligiblePayout() *payout.Payout {
	return &payout.Payout{
		BaseEntity:     shared.NewBaseEntity(),
		ManufacturerID: uuid.New(),
		OrderID:        uuid.New(),
		OrderNumber:    "D2B-261019-ABC123",
		Amount:         decimal.NewFromInt(1000),
		PlatformFee:    decimal.NewFromInt(100),
		Status:         payout.StatusEligible,
		EligibleAt:     time.Now().Add(-time.Hour),
	}
}

func TestService_MarkPaid(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	p := eligiblePayout()
	repo.On("FindByID", ctx, p.ID).Return(p, nil)
	repo.On("Update", ctx, p).Return(nil)
	svc := NewService(repo, zap.NewNop())

	resp, err := svc.MarkPaid(ctx, p.ID, " utr0012345 ")

	require.NoError(t, err)
	assert.Equal(t, "paid", resp.Status)
	assert.Equal(t, "UTR0012345", resp.UTRReference)
	assert.NotNil(t, resp.PaidAt)
}

func TestService_HoldAndRelease(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	p := eligiblePayout()
	repo.On("FindByID", ctx, p.ID).Return(p, nil)
	repo.On("Update", ctx, p).Return(nil)
	svc := NewService(repo, zap.NewNop())

	resp, err := svc.Hold(ctx, p.ID, "Retailer dispute")
	require.NoError(t, err)
	assert.Equal(t, "on_hold", resp.Status)

	resp, err = svc.Release(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "eligible", resp.Status)
	assert.Empty(t, resp.HoldReason)
}

func TestService_MarkPaidRejectsPending(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	p := eligiblePayout()
	p.Status = payout.StatusPending
	repo.On("FindByID", ctx, p.ID).Return(p, nil)
	svc := NewService(repo, zap.NewNop())

	_, err := svc.MarkPaid(ctx, p.ID, "UTR0012345")

	assert.Error(t, err)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestService_ListMine(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	mfr := uuid.New()
	repo.On("FindAll", ctx, mock.MatchedBy(func(f payout.Filter) bool {
		return f.ManufacturerID != nil && *f.ManufacturerID == mfr && f.Status != nil && *f.Status == payout.StatusEligible
	})).Return([]*payout.Payout{eligiblePayout()}, int64(1), nil)
	svc := NewService(repo, zap.NewNop())

	page, err := svc.ListMine(ctx, mfr, Query{Status: "eligible"})

	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, int64(1), page.Total)
}

func TestService_ListRejectsUnknownStatus(t *testing.T) {
	svc := NewService(new(MockRepository), zap.NewNop())

	_, err := svc.List(context.Background(), Query{Status: "sent"})

	assert.ErrorIs(t, err, errInvalidStatus)
}

func TestService_Summary(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("Summarize", ctx, (*uuid.UUID)(nil)).Return(payout.Summary{
		payout.StatusPending: decimal.NewFromInt(500),
		payout.StatusPaid:    decimal.NewFromInt(2000),
	}, nil)
	svc := NewService(repo, zap.NewNop())

	sum, err := svc.Summary(ctx, nil)

	require.NoError(t, err)
	assert.Equal(t, "500", sum.Pending.String())
	assert.Equal(t, "2000", sum.Paid.String())
	assert.True(t, sum.Eligible.IsZero())
}

func TestService_PromoteEligible(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	now := time.Date(2026, 10, 19, 1, 0, 0, 0, time.UTC)
	repo.On("PromoteEligible", ctx, now).Return(int64(4), nil)
	svc := NewService(repo, zap.NewNop())
	svc.now = func() time.Time { return now }

	n, err := svc.PromoteEligible(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
