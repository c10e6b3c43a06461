// Package admin aggregates marketplace health for the admin console.
package admin

import (
	"context"
	"time"

	"github.com/d2bcart/backend/internal/domain/catalog"
	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/payout"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DashboardQuery is the sales period, inclusive of both days
type DashboardQuery struct {
	From *time.Time `form:"from" time_format:"2006-01-02"`
	To   *time.Time `form:"to" time_format:"2006-01-02"`
}

// SalesResponse summarizes orders placed in the period
type SalesResponse struct {
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	OrderCount     int64           `json:"order_count"`
	GMV            decimal.Decimal `json:"gmv"`
	PlatformMargin decimal.Decimal `json:"platform_margin"`
	AverageOrder   decimal.Decimal `json:"average_order_value"`
}

// Dashboard is the admin landing page
type Dashboard struct {
	UsersByRole             map[string]int64 `json:"users_by_role"`
	PendingManufacturers    int64            `json:"pending_manufacturers"`
	ProductsPendingApproval int64            `json:"products_pending_approval"`
	OrdersByStatus          map[string]int64 `json:"orders_by_status"`
	Sales                   SalesResponse    `json:"sales"`
	PayoutsDue              decimal.Decimal  `json:"payouts_due"`
	PayoutsPending          decimal.Decimal  `json:"payouts_pending"`
	PayoutsOnHold           decimal.Decimal  `json:"payouts_on_hold"`
}

var errInvalidRange = shared.NewDomainError("INVALID_DATE_RANGE", "from must be before to")

// DashboardService gathers counts from every module
type DashboardService struct {
	users    identity.UserRepository
	products catalog.ProductRepository
	orders   trade.OrderRepository
	payouts  payout.Repository
	logger   *zap.Logger
	now      func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(users identity.UserRepository, products catalog.ProductRepository, orders trade.OrderRepository, payouts payout.Repository, logger *zap.Logger) *DashboardService {
	return &DashboardService{users: users, products: products, orders: orders, payouts: payouts, logger: logger, now: time.Now}
}

// Get builds the dashboard. Sales default to the current month.
func (s *DashboardService) Get(ctx context.Context, q DashboardQuery) (*Dashboard, error) {
	now := s.now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := now
	if q.From != nil {
		from = *q.From
	}
	if q.To != nil {
		to = q.To.AddDate(0, 0, 1)
	}
	if !from.Before(to) {
		return nil, errInvalidRange
	}

	var (
		byRole   map[identity.Role]int64
		pending  int64
		products int64
		byStatus map[trade.OrderStatus]int64
		sales    trade.SalesSummary
		payouts  payout.Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		byRole, err = s.users.CountByRole(gctx)
		return err
	})
	g.Go(func() (err error) {
		pending, err = s.users.CountPendingManufacturers(gctx)
		return err
	})
	g.Go(func() (err error) {
		products, err = s.products.CountByStatus(gctx, catalog.ProductStatusPendingApproval)
		return err
	})
	g.Go(func() (err error) {
		byStatus, err = s.orders.CountByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		sales, err = s.orders.SalesSummary(gctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		payouts, err = s.payouts.Summarize(gctx, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to build dashboard", zap.Error(err))
		return nil, err
	}

	d := &Dashboard{
		UsersByRole:             make(map[string]int64, len(byRole)),
		PendingManufacturers:    pending,
		ProductsPendingApproval: products,
		OrdersByStatus:          make(map[string]int64, len(byStatus)),
		Sales: SalesResponse{
			From:           from,
			To:             to,
			OrderCount:     sales.OrderCount,
			GMV:            sales.GMV,
			PlatformMargin: sales.PlatformMargin,
			AverageOrder:   decimal.Zero,
		},
		PayoutsDue:     amountOf(payouts, payout.StatusEligible),
		PayoutsPending: amountOf(payouts, payout.StatusPending),
		PayoutsOnHold:  amountOf(payouts, payout.StatusOnHold),
	}
	for role, n := range byRole {
		d.UsersByRole[string(role)] = n
	}
	for status, n := range byStatus {
		d.OrdersByStatus[string(status)] = n
	}
	if sales.OrderCount > 0 {
		d.Sales.AverageOrder = sales.GMV.Div(decimal.NewFromInt(sales.OrderCount)).Round(2)
	}
	return d, nil
}

func amountOf(sum payout.Summary, status payout.Status) decimal.Decimal {
	if v, ok := sum[status]; ok {
		return v
	}
	return decimal.Zero
}
