package payout

import (
	"context"
	"time"

	"github.com/d2bcart/backend/internal/domain/payout"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Response is a payout as shown to manufacturers and admins
type Response struct {
	ID             uuid.UUID       `json:"id"`
	ManufacturerID uuid.UUID       `json:"manufacturer_id"`
	OrderID        uuid.UUID       `json:"order_id"`
	OrderNumber    string          `json:"order_number"`
	Amount         decimal.Decimal `json:"amount"`
	PlatformFee    decimal.Decimal `json:"platform_fee"`
	Status         string          `json:"status"`
	EligibleAt     time.Time       `json:"eligible_at"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	UTRReference   string          `json:"utr_reference,omitempty"`
	HoldReason     string          `json:"hold_reason,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toResponse(p *payout.Payout) Response {
	return Response{
		ID:             p.ID,
		ManufacturerID: p.ManufacturerID,
		OrderID:        p.OrderID,
		OrderNumber:    p.OrderNumber,
		Amount:         p.Amount,
		PlatformFee:    p.PlatformFee,
		Status:         string(p.Status),
		EligibleAt:     p.EligibleAt,
		PaidAt:         p.PaidAt,
		UTRReference:   p.UTRReference,
		HoldReason:     p.HoldReason,
		CreatedAt:      p.CreatedAt,
	}
}

// Query filters payout listings
type Query struct {
	Status         string     `form:"status"`
	ManufacturerID *uuid.UUID `form:"-"`
	Page           int        `form:"page"`
	PageSize       int        `form:"page_size"`
}

// SummaryResponse totals payouts by status
type SummaryResponse struct {
	Pending  decimal.Decimal `json:"pending"`
	Eligible decimal.Decimal `json:"eligible"`
	Paid     decimal.Decimal `json:"paid"`
	OnHold   decimal.Decimal `json:"on_hold"`
}

// MarkPaidRequest records a bank transfer
type MarkPaidRequest struct {
	UTR string `json:"utr" binding:"required,min=6,max=40"`
}

// HoldRequest blocks a payout
type HoldRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

var errInvalidStatus = shared.NewDomainError("INVALID_STATUS", "Unknown payout status")

// Service settles manufacturer payouts
type Service struct {
	repo   payout.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new payout Service
func NewService(repo payout.Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// ListMine lists a manufacturer's payouts
func (s *Service) ListMine(ctx context.Context, manufacturerID uuid.UUID, q Query) (*shared.Paginated[Response], error) {
	q.ManufacturerID = &manufacturerID
	return s.List(ctx, q)
}

// List lists payouts for admins
func (s *Service) List(ctx context.Context, q Query) (*shared.Paginated[Response], error) {
	filter := payout.Filter{ManufacturerID: q.ManufacturerID, Page: q.Page, PageSize: q.PageSize}
	if q.Status != "" {
		status := payout.Status(q.Status)
		if !status.IsValid() {
			return nil, errInvalidStatus
		}
		filter.Status = &status
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	items, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]Response, 0, len(items))
	for _, p := range items {
		out = append(out, toResponse(p))
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Summary totals payouts by status, for one manufacturer or everyone
func (s *Service) Summary(ctx context.Context, manufacturerID *uuid.UUID) (*SummaryResponse, error) {
	sum, err := s.repo.Summarize(ctx, manufacturerID)
	if err != nil {
		return nil, err
	}
	get := func(st payout.Status) decimal.Decimal {
		if v, ok := sum[st]; ok {
			return v
		}
		return decimal.Zero
	}
	return &SummaryResponse{
		Pending:  get(payout.StatusPending),
		Eligible: get(payout.StatusEligible),
		Paid:     get(payout.StatusPaid),
		OnHold:   get(payout.StatusOnHold),
	}, nil
}

// MarkPaid records the UTR of the bank transfer
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID, utr string) (*Response, error) {
	return s.apply(ctx, id, "Payout marked paid", func(p *payout.Payout) error {
		return p.MarkPaid(utr)
	})
}

// Hold blocks a payout with a reason
func (s *Service) Hold(ctx context.Context, id uuid.UUID, reason string) (*Response, error) {
	return s.apply(ctx, id, "Payout held", func(p *payout.Payout) error {
		return p.Hold(reason)
	})
}

// Release returns a held payout to eligible
func (s *Service) Release(ctx context.Context, id uuid.UUID) (*Response, error) {
	return s.apply(ctx, id, "Payout released", (*payout.Payout).Release)
}

// PromoteEligible makes pending payouts past their hold period eligible
func (s *Service) PromoteEligible(ctx context.Context) (int64, error) {
	n, err := s.repo.PromoteEligible(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Payouts became eligible", zap.Int64("count", n))
	}
	return n, nil
}

func (s *Service) apply(ctx context.Context, id uuid.UUID, msg string, fn func(*payout.Payout) error) (*Response, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info(msg,
		zap.String("payout_id", p.ID.String()),
		zap.String("order_number", p.OrderNumber),
		zap.String("status", string(p.Status)))
	resp := toResponse(p)
	return &resp, nil
}
