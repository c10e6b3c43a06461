package marketing

import (
	"context"
	"strings"
	"time"

	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/marketing"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/trade"
	"go.uber.org/zap"
)

const (
	purchaseEvent   = "Purchase"
	defaultLookback = 30 * 24 * time.Hour
	maxReportRange  = 366 * 24 * time.Hour
)

var errInvalidRange = shared.NewDomainError("INVALID_DATE_RANGE", "The report range must be at most a year with from before to")

// AttributionService reports sales by acquisition channel and forwards
// purchases to the ad platform
type AttributionService struct {
	orders    trade.OrderRepository
	users     identity.UserRepository
	sink      marketing.ConversionSink
	publicURL string
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttributionService creates a new AttributionService. sink may be nil
// when conversions are not forwarded.
func NewAttributionService(orders trade.OrderRepository, users identity.UserRepository, sink marketing.ConversionSink, publicURL string, logger *zap.Logger) *AttributionService {
	return &AttributionService{
		orders:    orders,
		users:     users,
		sink:      sink,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
		now:       time.Now,
	}
}

// Report aggregates orders placed in the range by source, medium and
// campaign. Both ends are whole days; the default is the last 30 days.
func (s *AttributionService) Report(ctx context.Context, q ReportQuery) (*AttributionReport, error) {
	to := s.now()
	if q.To != nil {
		to = q.To.AddDate(0, 0, 1)
	}
	from := to.Add(-defaultLookback)
	if q.From != nil {
		from = *q.From
	}
	if !from.Before(to) || to.Sub(from) > maxReportRange {
		return nil, errInvalidRange
	}

	rows, err := s.orders.AttributionReport(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return toAttributionReport(from, to, rows), nil
}

// HandleOrderPlaced reports a Purchase conversion for a new order
func (s *AttributionService) HandleOrderPlaced(ctx context.Context, event shared.DomainEvent) error {
	if s.sink == nil {
		return nil
	}
	ev, ok := event.(*trade.OrderPlacedEvent)
	if !ok {
		return nil
	}

	order, err := s.orders.FindByID(ctx, ev.OrderID)
	if err != nil {
		return err
	}
	buyer, err := s.users.FindByID(ctx, ev.RetailerID)
	if err != nil {
		return err
	}

	contentIDs := make([]string, 0, len(order.Items))
	for _, it := range order.Items {
		contentIDs = append(contentIDs, it.ProductID.String())
	}
	sourceURL := ev.Attribution.LandingPage
	if sourceURL == "" && s.publicURL != "" {
		sourceURL = s.publicURL + "/checkout"
	}

	conversion := marketing.ConversionEvent{
		// the order ID lets the ad platform dedupe against a browser pixel
		EventID:    ev.OrderID.String(),
		EventName:  purchaseEvent,
		EventTime:  ev.OccurredAt().Unix(),
		Email:      buyer.Email,
		Phone:      buyer.Phone,
		FBCLID:     ev.Attribution.FBCLID,
		Value:      ev.Total.StringFixed(2),
		Currency:   "INR",
		SourceURL:  sourceURL,
		ContentIDs: contentIDs,
	}
	if err := s.sink.Send(ctx, conversion); err != nil {
		s.logger.Warn("Conversion upload failed",
			zap.String("order_number", ev.OrderNumber),
			zap.Error(err))
		return err
	}
	s.logger.Debug("Conversion sent", zap.String("order_number", ev.OrderNumber))
	return nil
}
