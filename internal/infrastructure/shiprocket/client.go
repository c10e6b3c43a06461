// Package shiprocket is the shipping aggregator adapter
package shiprocket

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/d2bcart/backend/internal/domain/shipping"
	"github.com/d2bcart/backend/internal/infrastructure/cache"
	"github.com/d2bcart/backend/internal/infrastructure/config"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://apiv2.shiprocket.in/v1/external"
	tokenCacheKey  = "shiprocket"
	// Tokens are valid for 10 days; refresh a day early.
	tokenTTL = 9 * 24 * time.Hour
)

var (
	ErrNotConfigured = errors.New("shiprocket: credentials not configured")
	ErrNoCourier     = errors.New("shiprocket: no courier assigned")
)

// APIError is a non-2xx answer from the API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shiprocket: %d: %s", e.StatusCode, e.Message)
}

// Client implements shipping.Aggregator on the Shiprocket API
type Client struct {
	http     *resty.Client
	email    string
	password string
	tokens   cache.TokenCache
	logger   *zap.Logger
	loginMu  sync.Mutex
}

// NewClient creates a client. tokens may be shared across instances.
func NewClient(cfg config.ShiprocketConfig, tokens cache.TokenCache, logger *zap.Logger) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if tokens == nil {
		tokens = cache.NewInMemoryTokenCache()
	}
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(30*time.Second).
			SetHeader("Content-Type", "application/json"),
		email:    cfg.Email,
		password: cfg.Password,
		tokens:   tokens,
		logger:   logger,
	}, nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	if tok, err := c.tokens.Get(ctx, tokenCacheKey); err == nil && tok != "" {
		return tok, nil
	} else if err != nil {
		c.logger.Warn("shiprocket token cache unavailable", zap.Error(err))
	}

	c.loginMu.Lock()
	defer c.loginMu.Unlock()

	if tok, err := c.tokens.Get(ctx, tokenCacheKey); err == nil && tok != "" {
		return tok, nil
	}

	resp, err := c.http.R().SetContext(ctx).
		SetBody(map[string]string{"email": c.email, "password": c.password}).
		Post("/auth/login")
	if err != nil {
		return "", fmt.Errorf("shiprocket: login: %w", err)
	}
	if resp.IsError() {
		return "", apiError(resp)
	}
	tok := gjson.GetBytes(resp.Body(), "token").String()
	if tok == "" {
		return "", fmt.Errorf("shiprocket: login returned no token")
	}
	if err := c.tokens.Set(ctx, tokenCacheKey, tok, tokenTTL); err != nil {
		c.logger.Warn("failed to cache shiprocket token", zap.Error(err))
	}
	return tok, nil
}

func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	return c.http.R().SetContext(ctx).SetAuthToken(tok), nil
}

// Serviceability lists couriers that can carry the parcel
func (c *Client) Serviceability(ctx context.Context, p shipping.Parcel) ([]shipping.CourierRate, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	cod := "0"
	if p.COD {
		cod = "1"
	}
	resp, err := req.SetQueryParams(map[string]string{
		"pickup_postcode":   p.PickupPincode,
		"delivery_postcode": p.DeliveryPincode,
		"weight":            kilograms(p.WeightGrams),
		"cod":               cod,
	}).Get("/courier/serviceability/")
	if err != nil {
		return nil, fmt.Errorf("shiprocket: serviceability: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return parseRates(resp.Body()), nil
}

func parseRates(body []byte) []shipping.CourierRate {
	companies := gjson.GetBytes(body, "data.available_courier_companies").Array()
	rates := make([]shipping.CourierRate, 0, len(companies))
	for _, co := range companies {
		rate, err := decimal.NewFromString(co.Get("rate").String())
		if err != nil {
			rate, err = decimal.NewFromString(co.Get("freight_charge").String())
			if err != nil {
				continue
			}
		}
		days, _ := strconv.Atoi(strings.TrimSpace(co.Get("estimated_delivery_days").String()))
		rates = append(rates, shipping.CourierRate{
			CourierID:     int(co.Get("courier_company_id").Int()),
			Name:          co.Get("courier_name").String(),
			Rate:          rate.Round(2),
			EstimatedDays: days,
			Rating:        co.Get("rating").Float(),
			COD:           co.Get("cod").Int() == 1,
		})
	}
	return rates
}

// Book creates the order, assigns an AWB and schedules pickup. A pickup
// failure is logged; the AWB is still returned since the parcel is booked.
func (c *Client) Book(ctx context.Context, sr shipping.ShipmentRequest, courierID int) (*shipping.BookedShipment, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := req.SetBody(adhocOrderBody(sr)).Post("/orders/create/adhoc")
	if err != nil {
		return nil, fmt.Errorf("shiprocket: create order: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	created := gjson.ParseBytes(resp.Body())
	booked := &shipping.BookedShipment{
		ProviderOrderID: created.Get("order_id").String(),
		ShipmentID:      created.Get("shipment_id").String(),
	}
	if booked.ShipmentID == "" {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: created.Get("message").String()}
	}

	awbBody := map[string]any{"shipment_id": booked.ShipmentID}
	if courierID > 0 {
		awbBody["courier_id"] = courierID
	}
	req, err = c.request(ctx)
	if err != nil {
		return nil, err
	}
	resp, err = req.SetBody(awbBody).Post("/courier/assign/awb")
	if err != nil {
		return nil, fmt.Errorf("shiprocket: assign awb: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	data := gjson.GetBytes(resp.Body(), "response.data")
	booked.AWB = data.Get("awb_code").String()
	booked.CourierID = int(data.Get("courier_company_id").Int())
	booked.CourierName = data.Get("courier_name").String()
	if booked.AWB == "" {
		return nil, ErrNoCourier
	}
	booked.TrackingURL = TrackingURL(booked.AWB)

	req, err = c.request(ctx)
	if err != nil {
		return nil, err
	}
	resp, err = req.SetBody(map[string]any{"shipment_id": []string{booked.ShipmentID}}).Post("/courier/generate/pickup")
	if err != nil || resp.IsError() {
		c.logger.Warn("pickup request failed",
			zap.String("shipment_id", booked.ShipmentID),
			zap.String("awb", booked.AWB),
			zap.Error(err))
		return booked, nil
	}
	booked.PickupScheduled = true
	return booked, nil
}

func adhocOrderBody(sr shipping.ShipmentRequest) map[string]any {
	items := make([]map[string]any, 0, len(sr.Items))
	for _, it := range sr.Items {
		items = append(items, map[string]any{
			"name":          it.Name,
			"sku":           it.SKU,
			"units":         it.Units,
			"selling_price": it.Price.StringFixed(2),
			"hsn":           it.HSN,
			"tax":           it.TaxRate,
		})
	}
	payment := "Prepaid"
	if sr.CODAmount.IsPositive() {
		payment = "COD"
	}
	return map[string]any{
		"order_id":              sr.OrderNumber,
		"order_date":            sr.OrderDate.Format("2006-01-02 15:04"),
		"pickup_location":       sr.PickupLocation,
		"billing_customer_name": sr.BillingName,
		"billing_last_name":     "",
		"billing_address":       sr.BillingAddress,
		"billing_city":          sr.BillingCity,
		"billing_state":         sr.BillingState,
		"billing_pincode":       sr.BillingPincode,
		"billing_country":       "India",
		"billing_email":         sr.BillingEmail,
		"billing_phone":         sr.BillingPhone,
		"shipping_is_billing":   true,
		"order_items":           items,
		"payment_method":        payment,
		"cod_amount":            sr.CODAmount.StringFixed(2),
		"sub_total":             sr.SubTotal.StringFixed(2),
		"length":                sr.Parcel.LengthCM.StringFixed(1),
		"breadth":               sr.Parcel.BreadthCM.StringFixed(1),
		"height":                sr.Parcel.HeightCM.StringFixed(1),
		"weight":                kilograms(sr.Parcel.WeightGrams),
	}
}

// TrackingURL is the public tracking page of an AWB
func TrackingURL(awb string) string {
	return "https://shiprocket.co/tracking/" + awb
}

func kilograms(grams int) string {
	if grams <= 0 {
		grams = shipping.WeightBucketGrams(0)
	}
	return decimal.New(int64(grams), -3).StringFixed(3)
}

func apiError(resp *resty.Response) error {
	msg := gjson.GetBytes(resp.Body(), "message").String()
	if msg == "" {
		msg = resp.Status()
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: msg}
}

var _ shipping.Aggregator = (*Client)(nil)
