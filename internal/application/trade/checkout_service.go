package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	appcart "github.com/d2bcart/backend/internal/application/cart"
	"github.com/d2bcart/backend/internal/domain/cart"
	"github.com/d2bcart/backend/internal/domain/identity"
	"github.com/d2bcart/backend/internal/domain/shared"
	"github.com/d2bcart/backend/internal/domain/shared/valueobject"
	"github.com/d2bcart/backend/internal/domain/shipping"
	"github.com/d2bcart/backend/internal/domain/trade"
	"github.com/d2bcart/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	webhookProvider   = "razorpay"
	quoteConcurrency  = 4
	defaultDedupTTL   = 72 * time.Hour
	defaultAttemptTTL = 24 * time.Hour
)

var (
	// ErrPaymentsUnavailable is returned when no payment gateway is configured
	ErrPaymentsUnavailable = shared.NewDomainError("PAYMENTS_UNAVAILABLE", "Online payments are not available")

	errEmptyCart        = shared.NewDomainError("EMPTY_CART", "Your cart is empty")
	errCartHasIssues    = shared.NewDomainError("CART_HAS_ISSUES", "Some items in your cart can no longer be bought as is")
	errInvalidSignature = shared.NewDomainError("INVALID_SIGNATURE", "Payment signature verification failed")
	errGateway          = shared.NewDomainError("PAYMENT_GATEWAY_ERROR", "Could not start the payment, please try again")
)

// CheckoutConfig holds the pricing rules of checkout
type CheckoutConfig struct {
	AdvancePercent  decimal.Decimal
	AttemptTTL      time.Duration
	FlatShipping    decimal.Decimal
	WebhookDedupTTL time.Duration
}

// CheckoutService quotes carts, starts online payments and confirms them
// from the client callback or the gateway webhook
type CheckoutService struct {
	cartRepo     cart.Repository
	userRepo     identity.UserRepository
	attempts     trade.PaymentAttemptRepository
	orders       trade.OrderRepository
	pricer       *appcart.Pricer
	gateway      trade.PaymentGateway
	quoter       ShippingQuoter
	materializer *Materializer
	idempotency  shared.IdempotencyStore
	metrics      *telemetry.BusinessMetrics
	cfg          CheckoutConfig
	logger       *zap.Logger
	now          func() time.Time
}

// NewCheckoutService creates a new CheckoutService. gateway, quoter,
// idempotency and metrics may be nil.
func NewCheckoutService(
	cartRepo cart.Repository,
	userRepo identity.UserRepository,
	attempts trade.PaymentAttemptRepository,
	orders trade.OrderRepository,
	pricer *appcart.Pricer,
	gateway trade.PaymentGateway,
	quoter ShippingQuoter,
	materializer *Materializer,
	idempotency shared.IdempotencyStore,
	metrics *telemetry.BusinessMetrics,
	cfg CheckoutConfig,
	logger *zap.Logger,
) *CheckoutService {
	if cfg.AttemptTTL <= 0 {
		cfg.AttemptTTL = defaultAttemptTTL
	}
	if cfg.WebhookDedupTTL <= 0 {
		cfg.WebhookDedupTTL = defaultDedupTTL
	}
	return &CheckoutService{
		cartRepo:     cartRepo,
		userRepo:     userRepo,
		attempts:     attempts,
		orders:       orders,
		pricer:       pricer,
		gateway:      gateway,
		quoter:       quoter,
		materializer: materializer,
		idempotency:  idempotency,
		metrics:      metrics,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// Quote prices the retailer's cart with shipping for both payment modes
func (s *CheckoutService) Quote(ctx context.Context, retailerID uuid.UUID, req QuoteRequest) (*QuoteResponse, error) {
	buyer, err := s.loadRetailer(ctx, retailerID)
	if err != nil {
		return nil, err
	}
	c, err := s.cartRepo.Get(ctx, retailerID)
	if err != nil {
		return nil, err
	}
	pincode := req.Pincode
	if pincode == "" {
		pincode = buyer.Pincode
	}
	return s.quote(ctx, buyer, c, pincode, trade.PaymentMode(req.Mode) == trade.PaymentModeAdvance)
}

// CreateCheckout re-quotes the cart for the shipping address, creates the
// gateway order and stores a pending payment attempt
func (s *CheckoutService) CreateCheckout(ctx context.Context, retailerID uuid.UUID, req CheckoutRequest) (*CheckoutResponse, error) {
	if s.gateway == nil {
		return nil, ErrPaymentsUnavailable
	}
	if !req.Mode.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_MODE", "Payment mode must be full or advance")
	}
	if err := req.Address.Validate(); err != nil {
		return nil, shared.NewDomainError("INVALID_ADDRESS", err.Error())
	}
	buyer, err := s.loadRetailer(ctx, retailerID)
	if err != nil {
		return nil, err
	}
	c, err := s.cartRepo.Get(ctx, retailerID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, errEmptyCart
	}

	// GST follows the place of supply, i.e. the state shipped to
	placeOfSupply := *buyer
	placeOfSupply.State = req.Address.State
	q, err := s.quote(ctx, &placeOfSupply, c, req.Address.Pincode, req.Mode == trade.PaymentModeAdvance)
	if err != nil {
		return nil, err
	}
	if q.HasIssues {
		return nil, errCartHasIssues.WithDetail("issues", lineIssues(q))
	}

	totals := trade.Totals{
		ItemsTotal:    q.ItemsTotal,
		TaxTotal:      q.TaxTotal,
		ShippingTotal: q.ShippingTotal,
		GrandTotal:    q.GrandTotal,
		AmountPayable: q.Payable(req.Mode),
	}
	attribution := req.Attribution.Merge(buyer.Attribution)
	address := req.Address
	if phone, ok := valueobject.NormalizePhone(address.Phone); ok {
		address.Phone = phone
	}
	attempt, err := trade.NewPaymentAttempt(retailerID, req.Mode, buildSnapshot(q), address, totals, attribution)
	if err != nil {
		return nil, err
	}

	gwOrder, err := s.gateway.CreateOrder(ctx, totals.AmountPayable, attempt.ID.String(), map[string]string{
		"attempt_id":  attempt.ID.String(),
		"retailer_id": retailerID.String(),
		"mode":        string(req.Mode),
	})
	if err != nil {
		s.logger.Error("Failed to create gateway order",
			zap.String("attempt_id", attempt.ID.String()),
			zap.Error(err))
		return nil, errGateway
	}
	if err := attempt.AttachGatewayOrder(gwOrder.ID); err != nil {
		return nil, err
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to store payment attempt: %w", err)
	}

	s.logger.Info("Checkout started",
		zap.String("attempt_id", attempt.ID.String()),
		zap.String("gateway_order_id", gwOrder.ID),
		zap.String("mode", string(req.Mode)),
		zap.String("amount", totals.AmountPayable.StringFixed(2)))

	currency := gwOrder.Currency
	if currency == "" {
		currency = string(valueobject.INR)
	}
	return &CheckoutResponse{
		AttemptID:      attempt.ID,
		KeyID:          s.gateway.KeyID(),
		GatewayOrderID: gwOrder.ID,
		Amount:         totals.AmountPayable,
		AmountPaise:    valueobject.NewINR(totals.AmountPayable).Paise(),
		Currency:       currency,
		GrandTotal:     totals.GrandTotal,
		Mode:           string(req.Mode),
		Prefill: Prefill{
			Name:    buyer.Name,
			Email:   buyer.Email,
			Contact: buyer.Phone,
		},
	}, nil
}

// VerifyClientPayment confirms a payment reported by the checkout widget
func (s *CheckoutService) VerifyClientPayment(ctx context.Context, retailerID uuid.UUID, req VerifyPaymentRequest) (*PaymentResult, error) {
	if s.gateway == nil {
		return nil, ErrPaymentsUnavailable
	}
	if !s.gateway.VerifyPaymentSignature(req.GatewayOrderID, req.PaymentID, req.Signature) {
		s.logger.Warn("Payment signature mismatch",
			zap.String("gateway_order_id", req.GatewayOrderID),
			zap.String("payment_id", req.PaymentID))
		return nil, errInvalidSignature
	}
	attempt, err := s.attempts.FindByGatewayOrderID(ctx, req.GatewayOrderID)
	if err != nil {
		return nil, err
	}
	if attempt.RetailerID != retailerID {
		return nil, shared.ErrNotFound
	}

	amount := s.paidAmount(ctx, attempt, req.PaymentID, decimal.Zero)
	res, err := s.materializer.Materialize(ctx, attempt, req.PaymentID, amount)
	if err != nil {
		return nil, err
	}
	return s.toPaymentResult(ctx, attempt, res)
}

// HandleWebhook processes a signed gateway webhook and reports its outcome.
// Event IDs are remembered only once handling succeeds, so a delivery cut
// short by a crash or an error is processed again on the gateway's retry.
// Concurrent redeliveries are safe because materialization claims the
// attempt exactly once.
func (s *CheckoutService) HandleWebhook(ctx context.Context, body []byte, signature, eventID string) (string, error) {
	if s.gateway == nil {
		return telemetry.WebhookRejected, ErrPaymentsUnavailable
	}
	if !s.gateway.VerifyWebhookSignature(body, signature) {
		s.metrics.RecordWebhook(ctx, webhookProvider, telemetry.WebhookRejected)
		return telemetry.WebhookRejected, errInvalidSignature
	}

	key := ""
	if eventID != "" && s.idempotency != nil {
		key = "razorpay:event:" + eventID
		seen, err := s.idempotency.IsProcessed(ctx, key)
		switch {
		case err != nil:
			s.logger.Warn("Idempotency store unavailable, relying on attempt claim", zap.Error(err))
		case seen:
			s.metrics.RecordWebhook(ctx, webhookProvider, telemetry.WebhookDuplicate)
			return telemetry.WebhookDuplicate, nil
		}
	}

	outcome, err := s.routeWebhook(ctx, body)
	if err != nil {
		s.metrics.RecordWebhook(ctx, webhookProvider, telemetry.WebhookFailed)
		return telemetry.WebhookFailed, err
	}
	if key != "" {
		if _, err := s.idempotency.MarkProcessed(context.WithoutCancel(ctx), key, s.cfg.WebhookDedupTTL); err != nil {
			s.logger.Warn("Failed to remember webhook event", zap.String("event_id", eventID), zap.Error(err))
		}
	}
	s.metrics.RecordWebhook(ctx, webhookProvider, outcome)
	return outcome, nil
}

func (s *CheckoutService) routeWebhook(ctx context.Context, body []byte) (string, error) {
	event, err := s.gateway.ParseWebhook(body)
	if err != nil {
		s.logger.Warn("Unreadable payment webhook", zap.Error(err))
		return telemetry.WebhookIgnored, nil
	}

	switch event.Type {
	case trade.GatewayEventPaymentCaptured, trade.GatewayEventOrderPaid, trade.GatewayEventPaymentFailed:
	default:
		return telemetry.WebhookIgnored, nil
	}

	attempt, err := s.attempts.FindByGatewayOrderID(ctx, event.GatewayOrderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Webhook for unknown gateway order",
				zap.String("event", string(event.Type)),
				zap.String("gateway_order_id", event.GatewayOrderID))
			return telemetry.WebhookIgnored, nil
		}
		return "", err
	}

	if event.Type == trade.GatewayEventPaymentFailed {
		if err := s.attempts.MarkFailed(ctx, attempt.ID, event.PaymentID, event.FailureReason); err != nil {
			return "", fmt.Errorf("failed to mark attempt failed: %w", err)
		}
		s.metrics.RecordPayment(ctx, "failed")
		s.logger.Info("Payment failed",
			zap.String("attempt_id", attempt.ID.String()),
			zap.String("reason", event.FailureReason))
		return telemetry.WebhookProcessed, nil
	}

	paymentID := event.PaymentID
	if paymentID == "" {
		paymentID = attempt.GatewayPaymentID
	}
	amount := s.paidAmount(ctx, attempt, paymentID, event.Amount)
	res, err := s.materializer.Materialize(ctx, attempt, paymentID, amount)
	if err != nil {
		return "", err
	}
	if res.AlreadyProcessed {
		return telemetry.WebhookDuplicate, nil
	}
	return telemetry.WebhookProcessed, nil
}

// ExpireStale marks unpaid attempts older than the attempt TTL as expired
func (s *CheckoutService) ExpireStale(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.AttemptTTL)
	n, err := s.attempts.ExpireStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Expired stale payment attempts", zap.Int64("count", n))
	}
	return n, nil
}

// paidAmount prefers the amount reported with the event, then asks the
// gateway, then falls back to the amount the attempt asked for
func (s *CheckoutService) paidAmount(ctx context.Context, attempt *trade.PaymentAttempt, paymentID string, reported decimal.Decimal) decimal.Decimal {
	amount := reported
	if !amount.IsPositive() && paymentID != "" {
		fetched, err := s.gateway.FetchPaidAmount(ctx, paymentID)
		if err != nil {
			s.logger.Warn("Failed to fetch paid amount",
				zap.String("payment_id", paymentID),
				zap.Error(err))
		} else {
			amount = fetched
		}
	}
	if !amount.IsPositive() {
		return attempt.Totals.AmountPayable
	}
	if !amount.Equal(attempt.Totals.AmountPayable) {
		s.logger.Warn("Paid amount differs from payable amount",
			zap.String("attempt_id", attempt.ID.String()),
			zap.String("paid", amount.StringFixed(2)),
			zap.String("payable", attempt.Totals.AmountPayable.StringFixed(2)))
	}
	return amount
}

func (s *CheckoutService) toPaymentResult(ctx context.Context, attempt *trade.PaymentAttempt, res *MaterializeResult) (*PaymentResult, error) {
	orders := res.Orders
	if res.AlreadyProcessed && len(orders) == 0 {
		// another delivery may still be inside its transaction
		found, err := s.orders.FindByPaymentAttemptID(ctx, attempt.ID)
		if err != nil {
			return nil, err
		}
		orders = found
	}
	out := &PaymentResult{
		AttemptID:        attempt.ID,
		AlreadyProcessed: res.AlreadyProcessed,
		Orders:           make([]OrderSummary, 0, len(orders)),
	}
	for _, o := range orders {
		out.Orders = append(out.Orders, toSummary(o))
	}
	return out, nil
}

func (s *CheckoutService) loadRetailer(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role != identity.RoleRetailer || !u.IsActive {
		return nil, shared.ErrForbidden
	}
	return u, nil
}

func (s *CheckoutService) quote(ctx context.Context, buyer *identity.User, c *cart.Cart, pincode string, cod bool) (*QuoteResponse, error) {
	view, err := s.pricer.Price(ctx, buyer, c)
	if err != nil {
		return nil, err
	}
	if len(view.Groups) == 0 {
		return nil, errEmptyCart
	}

	resp := &QuoteResponse{
		Groups:         make([]QuoteGroup, len(view.Groups)),
		AdvancePercent: s.cfg.AdvancePercent,
		HasIssues:      view.HasIssues,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(quoteConcurrency)
	for i, grp := range view.Groups {
		qg := QuoteGroup{
			ManufacturerID:   grp.ManufacturerID,
			ManufacturerName: grp.ManufacturerName,
			TaxType:          grp.TaxType,
			Lines:            grp.Lines,
			Subtotal:         grp.Subtotal,
			Tax:              grp.Tax,
		}
		if grp.Seller != nil {
			qg.pickupPincode = grp.Seller.Pincode
		}
		resp.Groups[i] = qg
		parcel := parcelFor(grp, qg.pickupPincode, pincode, cod)
		g.Go(func() error {
			resp.Groups[i].Shipping = s.quoteShipping(gctx, parcel)
			return nil
		})
	}
	_ = g.Wait()

	resp.ItemsTotal = decimal.Zero
	resp.TaxTotal = decimal.Zero
	resp.ShippingTotal = decimal.Zero
	for i := range resp.Groups {
		qg := &resp.Groups[i]
		qg.Total = qg.Subtotal.Add(qg.Tax).Add(qg.Shipping.Cost)
		resp.ItemsTotal = resp.ItemsTotal.Add(qg.Subtotal)
		resp.TaxTotal = resp.TaxTotal.Add(qg.Tax)
		resp.ShippingTotal = resp.ShippingTotal.Add(qg.Shipping.Cost)
	}
	resp.GrandTotal = resp.ItemsTotal.Add(resp.TaxTotal).Add(resp.ShippingTotal).Round(2)
	resp.PayableFull = resp.GrandTotal
	resp.PayableAdvance = advanceAmount(resp.GrandTotal, s.cfg.AdvancePercent)
	resp.BalanceOnDelivery = resp.GrandTotal.Sub(resp.PayableAdvance)
	return resp, nil
}

func (s *CheckoutService) quoteShipping(ctx context.Context, p shipping.Parcel) shipping.Quote {
	if s.quoter == nil || p.PickupPincode == "" || p.DeliveryPincode == "" {
		return shipping.FlatQuote(s.cfg.FlatShipping)
	}
	return s.quoter.Quote(ctx, p)
}

// advanceAmount is pct of the grand total, at least one rupee
func advanceAmount(grand, pct decimal.Decimal) decimal.Decimal {
	if !pct.IsPositive() || pct.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return grand
	}
	amount := grand.Mul(pct).Div(decimal.NewFromInt(100)).Round(2)
	if one := decimal.NewFromInt(1); amount.LessThan(one) {
		return decimal.Min(one, grand)
	}
	return amount
}

// parcelFor describes a manufacturer's share as one parcel; dimensions are
// the largest of its products
func parcelFor(g appcart.Group, pickup, delivery string, cod bool) shipping.Parcel {
	p := shipping.Parcel{
		PickupPincode:   pickup,
		DeliveryPincode: delivery,
		WeightGrams:     g.WeightGrams,
		COD:             cod,
		DeclaredValue:   g.Subtotal,
	}
	for _, l := range g.Lines {
		if l.Product == nil {
			continue
		}
		d := l.Product.Dimensions
		p.LengthCM = decimal.Max(p.LengthCM, d.LengthCM)
		p.BreadthCM = decimal.Max(p.BreadthCM, d.BreadthCM)
		p.HeightCM = decimal.Max(p.HeightCM, d.HeightCM)
	}
	return p
}

func buildSnapshot(q *QuoteResponse) trade.Snapshot {
	snap := trade.Snapshot{}
	for _, g := range q.Groups {
		cost := g.Shipping.Cost
		snap.Groups = append(snap.Groups, trade.SnapshotGroup{
			ManufacturerID: g.ManufacturerID,
			TaxType:        g.TaxType,
			PickupPincode:  g.pickupPincode,
			ShippingCost:   &cost,
			Courier:        g.Shipping.Courier,
		})
		for _, l := range g.Lines {
			snap.Lines = append(snap.Lines, trade.SnapshotLine{
				ProductID:        l.ProductID,
				ManufacturerID:   g.ManufacturerID,
				Name:             l.Name,
				SKU:              l.SKU,
				HSNCode:          l.Product.HSNCode,
				Quantity:         l.Quantity,
				UnitDisplayPrice: l.UnitPrice,
				UnitBasePrice:    l.Product.BasePrice,
				GSTRate:          l.GSTRate,
			})
		}
	}
	return snap
}

func lineIssues(q *QuoteResponse) map[string]string {
	issues := make(map[string]string)
	for _, g := range q.Groups {
		for _, l := range g.Lines {
			if l.Issue != "" {
				issues[l.ProductID.String()] = l.Issue
			}
		}
	}
	return issues
}
