package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apptrade "github.com/d2bcart/backend/internal/application/trade"
	"github.com/d2bcart/backend/internal/domain/catalog"
	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/shipping"
	"github.com/d2bcart/backend/internal/domain/trade"
	"github.com/d2bcart/backend/internal/infrastructure/shiprocket"
	"github.com/d2bcart/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	webhookProvider     = "shiprocket"
	defaultRateCacheTTL = 30 * time.Minute
)

var (
	// ErrShippingUnavailable is returned when no aggregator is configured
	ErrShippingUnavailable = shared.NewDomainError("SHIPPING_UNAVAILABLE", "Courier booking is not available")

	errNotPacked      = shared.NewDomainError("ORDER_NOT_PACKED", "Mark the order packed before booking a courier")
	errAlreadyShipped = shared.NewDomainError("ALREADY_SHIPPED", "A courier is already booked for this order")
	errBookingFailed  = shared.NewDomainError("SHIPPING_BOOKING_FAILED", "Could not book a courier, please try again")
	errInvalidToken   = shared.NewDomainError("INVALID_WEBHOOK_TOKEN", "Webhook token mismatch")
)

// Config holds courier selection rules
type Config struct {
	Strategy       shipping.Strategy
	MaxDays        int
	RateCacheTTL   time.Duration
	FlatRate       decimal.Decimal
	PickupLocation string
	WebhookToken   string
}

// Service quotes courier rates, books shipments and applies tracking
// updates to orders
type Service struct {
	aggregator  shipping.Aggregator
	rates       shipping.RateCache
	shipments   shipping.Repository
	orders      trade.OrderRepository
	orderSvc    *apptrade.OrderService
	productRepo catalog.ProductRepository
	userRepo    identity.UserRepository
	metrics     *telemetry.BusinessMetrics
	cfg         Config
	logger      *zap.Logger
}

// NewService creates a new shipping Service. aggregator, rates and metrics
// may be nil.
func NewService(
	aggregator shipping.Aggregator,
	rates shipping.RateCache,
	shipments shipping.Repository,
	orders trade.OrderRepository,
	orderSvc *apptrade.OrderService,
	productRepo catalog.ProductRepository,
	userRepo identity.UserRepository,
	metrics *telemetry.BusinessMetrics,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if cfg.RateCacheTTL <= 0 {
		cfg.RateCacheTTL = defaultRateCacheTTL
	}
	cfg.Strategy = shipping.ParseStrategy(string(cfg.Strategy))
	return &Service{
		aggregator:  aggregator,
		rates:       rates,
		shipments:   shipments,
		orders:      orders,
		orderSvc:    orderSvc,
		productRepo: productRepo,
		userRepo:    userRepo,
		metrics:     metrics,
		cfg:         cfg,
		logger:      logger,
	}
}

// QuoteRates lists serviceable couriers for a parcel, cached per pincode
// pair, weight slab and payment type
func (s *Service) QuoteRates(ctx context.Context, p shipping.Parcel) ([]shipping.CourierRate, error) {
	if s.aggregator == nil {
		return nil, ErrShippingUnavailable
	}
	key := rateCacheKey(p)
	if s.rates != nil {
		if cached, ok := s.rates.Get(ctx, key); ok {
			return cached, nil
		}
	}
	rates, err := s.aggregator.Serviceability(ctx, p)
	if err != nil {
		return nil, err
	}
	if s.rates != nil && len(rates) > 0 {
		s.rates.Set(ctx, key, rates, s.cfg.RateCacheTTL)
	}
	return rates, nil
}

// Rates answers a rate preview request
func (s *Service) Rates(ctx context.Context, req RatesRequest) (*RatesResponse, error) {
	rates, err := s.QuoteRates(ctx, shipping.Parcel{
		PickupPincode:   req.PickupPincode,
		DeliveryPincode: req.DeliveryPincode,
		WeightGrams:     req.WeightGrams,
		COD:             req.COD,
	})
	if err != nil {
		return nil, err
	}
	resp := &RatesResponse{Rates: rates, Strategy: s.cfg.Strategy}
	if selected, ok := shipping.SelectRate(rates, s.cfg.Strategy, s.cfg.MaxDays); ok {
		resp.Selected = &selected
	}
	return resp, nil
}

// Quote prices a parcel with the configured strategy, falling back to the
// flat rate when no courier can be quoted
func (s *Service) Quote(ctx context.Context, p shipping.Parcel) shipping.Quote {
	rates, err := s.QuoteRates(ctx, p)
	if err != nil {
		if !errors.Is(err, ErrShippingUnavailable) {
			s.logger.Warn("Courier quote failed, using flat rate",
				zap.String("pickup", p.PickupPincode),
				zap.String("delivery", p.DeliveryPincode),
				zap.Error(err))
		}
		return shipping.FlatQuote(s.cfg.FlatRate)
	}
	selected, ok := shipping.SelectRate(rates, s.cfg.Strategy, s.cfg.MaxDays)
	if !ok {
		return shipping.FlatQuote(s.cfg.FlatRate)
	}
	return shipping.Quote{
		Cost:          selected.Rate.Round(2),
		CourierID:     selected.CourierID,
		Courier:       selected.Name,
		EstimatedDays: selected.EstimatedDays,
	}
}

// Ship books a courier for a packed order and moves it to shipped. The
// booking is stored before the order changes; if recording the order fails,
// a retry finishes with the stored booking instead of booking a second
// courier.
func (s *Service) Ship(ctx context.Context, actor apptrade.Actor, orderID uuid.UUID) (*TrackingResponse, error) {
	if s.aggregator == nil {
		return nil, ErrShippingUnavailable
	}
	o, err := s.orderSvc.Find(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if o.AWB != "" {
		return nil, errAlreadyShipped
	}
	if o.Status != trade.OrderStatusPacked {
		return nil, errNotPacked
	}

	shipment, err := s.shipments.FindByOrderID(ctx, o.ID)
	switch {
	case err == nil:
		s.logger.Info("Reusing stored courier booking",
			zap.String("order_id", o.ID.String()),
			zap.String("awb", shipment.AWB))
	case errors.Is(err, shared.ErrNotFound):
		if shipment, err = s.book(ctx, o); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := s.orderSvc.RecordShipment(ctx, o, shipment.AWB, shipment.CourierName, shipment.TrackingURL); err != nil {
		return nil, err
	}

	s.logger.Info("Courier booked",
		zap.String("order_id", o.ID.String()),
		zap.String("awb", shipment.AWB),
		zap.String("courier", shipment.CourierName),
		zap.Bool("pickup_scheduled", shipment.PickupScheduled))
	return toTracking(o, shipment), nil
}

// book reserves a courier at the aggregator and stores the booking
func (s *Service) book(ctx context.Context, o *trade.Order) (*shipping.Shipment, error) {
	req, err := s.shipmentRequest(ctx, o)
	if err != nil {
		return nil, err
	}
	courierID := 0
	if rates, err := s.QuoteRates(ctx, req.Parcel); err == nil {
		if selected, ok := shipping.SelectRate(rates, s.cfg.Strategy, s.cfg.MaxDays); ok {
			courierID = selected.CourierID
		}
	} else {
		s.logger.Warn("Courier quote failed, letting the aggregator choose",
			zap.String("order_id", o.ID.String()),
			zap.Error(err))
	}

	booked, err := s.aggregator.Book(ctx, *req, courierID)
	if err != nil {
		s.logger.Error("Courier booking failed",
			zap.String("order_id", o.ID.String()),
			zap.String("order_number", o.OrderNumber),
			zap.Error(err))
		return nil, errBookingFailed
	}

	shipment := &shipping.Shipment{
		BaseEntity:      shared.NewBaseEntity(),
		OrderID:         o.ID,
		ProviderOrderID: booked.ProviderOrderID,
		ShipmentID:      booked.ShipmentID,
		AWB:             booked.AWB,
		CourierID:       booked.CourierID,
		CourierName:     booked.CourierName,
		Rate:            o.ShippingCost,
		Status:          "AWB ASSIGNED",
		TrackingURL:     booked.TrackingURL,
		PickupScheduled: booked.PickupScheduled,
	}
	if err := s.shipments.Create(ctx, shipment); err != nil {
		s.logger.Error("Courier booked but shipment not stored",
			zap.String("order_id", o.ID.String()),
			zap.String("awb", booked.AWB),
			zap.Error(err))
		return nil, fmt.Errorf("failed to store shipment: %w", err)
	}
	return shipment, nil
}

// HandleTrackingWebhook applies a courier status push. Updates that do not
// move the order forward are acknowledged and ignored.
func (s *Service) HandleTrackingWebhook(ctx context.Context, body []byte, token string) (string, error) {
	if !shiprocket.VerifyWebhookToken(s.cfg.WebhookToken, token) {
		s.metrics.RecordWebhook(ctx, webhookProvider, telemetry.WebhookRejected)
		return telemetry.WebhookRejected, errInvalidToken
	}
	outcome, err := s.applyTracking(ctx, body)
	if err != nil {
		s.metrics.RecordWebhook(ctx, webhookProvider, telemetry.WebhookFailed)
		return telemetry.WebhookFailed, err
	}
	s.metrics.RecordWebhook(ctx, webhookProvider, outcome)
	return outcome, nil
}

func (s *Service) applyTracking(ctx context.Context, body []byte) (string, error) {
	update, err := shiprocket.ParseTrackingWebhook(body)
	if err != nil {
		s.logger.Warn("Unreadable tracking webhook", zap.Error(err))
		return telemetry.WebhookIgnored, nil
	}

	shipment, err := s.shipments.FindByAWB(ctx, update.AWB)
	switch {
	case err == nil:
		shipment.RecordEvent(update.Status, update.OccurredAt)
		if err := s.shipments.Update(ctx, shipment); err != nil {
			return "", fmt.Errorf("failed to update shipment: %w", err)
		}
	case errors.Is(err, shared.ErrNotFound):
		shipment = nil
	default:
		return "", err
	}

	o, err := s.trackedOrder(ctx, update.AWB, shipment)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Tracking update for unknown AWB", zap.String("awb", update.AWB))
			return telemetry.WebhookIgnored, nil
		}
		return "", err
	}
	target, ok := shipping.MapTrackingStatus(update.Status)
	if !ok {
		return telemetry.WebhookIgnored, nil
	}
	changed, err := s.orderSvc.ApplyTracking(ctx, o, target)
	if err != nil {
		return "", err
	}
	if !changed {
		return telemetry.WebhookDuplicate, nil
	}
	s.logger.Info("Order moved by tracking update",
		zap.String("order_id", o.ID.String()),
		zap.String("awb", update.AWB),
		zap.String("status", string(target)))
	return telemetry.WebhookProcessed, nil
}

// trackedOrder finds the order carrying an AWB. An order whose booking was
// stored but never recorded on it is moved to shipped first.
func (s *Service) trackedOrder(ctx context.Context, awb string, shipment *shipping.Shipment) (*trade.Order, error) {
	o, err := s.orders.FindByAWB(ctx, awb)
	if err == nil || !errors.Is(err, shared.ErrNotFound) || shipment == nil {
		return o, err
	}

	o, err = s.orders.FindByID(ctx, shipment.OrderID)
	if err != nil {
		return nil, err
	}
	if o.AWB != "" || o.Status != trade.OrderStatusPacked {
		return nil, shared.ErrNotFound
	}
	if err := s.orderSvc.RecordShipment(ctx, o, shipment.AWB, shipment.CourierName, shipment.TrackingURL); err != nil {
		return nil, err
	}
	s.logger.Info("Order shipped from stored booking",
		zap.String("order_id", o.ID.String()),
		zap.String("awb", shipment.AWB))
	return o, nil
}

// Track returns the shipment view of an order the actor may see
func (s *Service) Track(ctx context.Context, actor apptrade.Actor, orderID uuid.UUID) (*TrackingResponse, error) {
	o, err := s.orderSvc.Find(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	shipment, err := s.shipments.FindByOrderID(ctx, o.ID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	return toTracking(o, shipment), nil
}

func (s *Service) shipmentRequest(ctx context.Context, o *trade.Order) (*shipping.ShipmentRequest, error) {
	seller, err := s.userRepo.FindByID(ctx, o.ManufacturerID)
	if err != nil {
		return nil, err
	}
	retailer, err := s.userRepo.FindByID(ctx, o.RetailerID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	addr := o.ShippingAddress
	parcel := shipping.Parcel{
		PickupPincode:   seller.Pincode,
		DeliveryPincode: addr.Pincode,
		COD:             o.BalanceDue.IsPositive(),
		DeclaredValue:   o.Total,
	}
	req := &shipping.ShipmentRequest{
		OrderNumber:    o.OrderNumber,
		OrderDate:      o.CreatedAt,
		PickupLocation: s.cfg.PickupLocation,
		CODAmount:      o.BalanceDue,
		SubTotal:       o.Total,
		BillingName:    addr.Name,
		BillingPhone:   strings.TrimPrefix(addr.Phone, "+91"),
		BillingEmail:   retailer.Email,
		BillingAddress: strings.TrimSpace(addr.Line1 + " " + addr.Line2),
		BillingCity:    addr.City,
		BillingState:   addr.State,
		BillingPincode: addr.Pincode,
	}
	for _, it := range o.Items {
		if p := byID[it.ProductID]; p != nil {
			parcel.WeightGrams += p.WeightGrams * it.Quantity
			parcel.LengthCM = decimal.Max(parcel.LengthCM, p.Dimensions.LengthCM)
			parcel.BreadthCM = decimal.Max(parcel.BreadthCM, p.Dimensions.BreadthCM)
			parcel.HeightCM = decimal.Max(parcel.HeightCM, p.Dimensions.HeightCM)
		}
		req.Items = append(req.Items, shipping.ShipmentItem{
			Name:    it.Name,
			SKU:     it.SKU,
			Units:   it.Quantity,
			Price:   it.UnitPrice,
			HSN:     it.HSNCode,
			TaxRate: it.GSTRate,
		})
	}
	req.Parcel = parcel
	return req, nil
}

func rateCacheKey(p shipping.Parcel) string {
	return fmt.Sprintf("rates:%s:%s:%d:%t", p.PickupPincode, p.DeliveryPincode, shipping.WeightBucketGrams(p.WeightGrams), p.COD)
}

func toTracking(o *trade.Order, s *shipping.Shipment) *TrackingResponse {
	resp := &TrackingResponse{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		OrderStatus: string(o.Status),
		AWB:         o.AWB,
		CourierName: o.CourierName,
		TrackingURL: o.TrackingURL,
		ShippedAt:   o.ShippedAt,
		Rate:        o.ShippingCost,
	}
	if s != nil {
		resp.ShipmentStatus = s.Status
		resp.PickupScheduled = s.PickupScheduled
		resp.LastEventAt = s.LastEventAt
		if resp.TrackingURL == "" {
			resp.TrackingURL = s.TrackingURL
		}
	}
	return resp
}

var _ apptrade.ShippingQuoter = (*Service)(nil)
