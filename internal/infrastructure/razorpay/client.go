// Package razorpay is the Razorpay payment gateway adapter: order creation,
// payment lookups and signature checks for the client callback and webhooks.
package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/d2bcart/backend/internal/domain/shared/valueobject"
	"github.com/d2bcart/backend/internal/domain/trade"
	"github.com/d2bcart/backend/internal/infrastructure/config"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

var (
	ErrNotConfigured  = errors.New("razorpay: credentials not configured")
	ErrInvalidPayload = errors.New("razorpay: invalid webhook payload")
)

// APIError is a non-2xx answer from the API
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay: %d %s: %s", e.StatusCode, e.Code, e.Description)
}

// Client talks to the Razorpay REST API
type Client struct {
	http          *resty.Client
	keyID         string
	keySecret     string
	webhookSecret string
}

// NewClient creates a client with basic auth on the key pair
func NewClient(cfg config.RazorpayConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	http := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(cfg.KeyID, cfg.KeySecret).
		SetTimeout(30*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(300*time.Millisecond).
		SetHeader("Content-Type", "application/json")
	return &Client{
		http:          http,
		keyID:         cfg.KeyID,
		keySecret:     cfg.KeySecret,
		webhookSecret: cfg.WebhookSecret,
	}, nil
}

// KeyID returns the public key id
func (c *Client) KeyID() string {
	return c.keyID
}

// CreateOrder creates a gateway order. Amounts travel in paise.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string, notes map[string]string) (*trade.GatewayOrder, error) {
	body := map[string]any{
		"amount":   ToPaise(amount),
		"currency": "INR",
		"receipt":  receipt,
		"notes":    notes,
	}
	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post("/orders")
	if err != nil {
		return nil, fmt.Errorf("razorpay: create order: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}

	parsed := gjson.ParseBytes(resp.Body())
	id := parsed.Get("id").String()
	if id == "" {
		return nil, fmt.Errorf("razorpay: create order: response has no id")
	}
	return &trade.GatewayOrder{
		ID:       id,
		Amount:   FromPaise(parsed.Get("amount").Int()),
		Currency: parsed.Get("currency").String(),
		Receipt:  parsed.Get("receipt").String(),
	}, nil
}

// FetchPaidAmount returns the amount of a captured payment
func (c *Client) FetchPaidAmount(ctx context.Context, paymentID string) (decimal.Decimal, error) {
	resp, err := c.http.R().SetContext(ctx).SetPathParam("id", paymentID).Get("/payments/{id}")
	if err != nil {
		return decimal.Zero, fmt.Errorf("razorpay: fetch payment: %w", err)
	}
	if resp.IsError() {
		return decimal.Zero, apiError(resp)
	}
	parsed := gjson.ParseBytes(resp.Body())
	if status := parsed.Get("status").String(); status != "captured" && status != "authorized" {
		return decimal.Zero, fmt.Errorf("razorpay: payment %s is %s", paymentID, status)
	}
	return FromPaise(parsed.Get("amount").Int()), nil
}

// VerifyPaymentSignature checks the checkout callback signature,
// hex(HMAC_SHA256(order_id + "|" + payment_id, key_secret))
func (c *Client) VerifyPaymentSignature(gatewayOrderID, paymentID, signature string) bool {
	return verifyHMAC([]byte(gatewayOrderID+"|"+paymentID), c.keySecret, signature)
}

// VerifyWebhookSignature checks X-Razorpay-Signature against the raw body
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	if c.webhookSecret == "" {
		return false
	}
	return verifyHMAC(body, c.webhookSecret, signature)
}

// ParseWebhook extracts the payment facts of a webhook body
func (c *Client) ParseWebhook(body []byte) (*trade.GatewayEvent, error) {
	return ParseWebhook(body)
}

// ParseWebhook extracts the payment facts of a webhook body. Events other than
// payment/order events come back with only Type set.
func ParseWebhook(body []byte) (*trade.GatewayEvent, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidPayload
	}
	parsed := gjson.ParseBytes(body)
	event := parsed.Get("event").String()
	if event == "" {
		return nil, ErrInvalidPayload
	}

	payment := parsed.Get("payload.payment.entity")
	out := &trade.GatewayEvent{
		Type:           trade.GatewayEventType(event),
		GatewayOrderID: payment.Get("order_id").String(),
		PaymentID:      payment.Get("id").String(),
		Amount:         FromPaise(payment.Get("amount").Int()),
		FailureReason:  payment.Get("error_description").String(),
	}
	if out.GatewayOrderID == "" {
		out.GatewayOrderID = parsed.Get("payload.order.entity.id").String()
	}
	if out.Amount.IsZero() {
		out.Amount = FromPaise(parsed.Get("payload.order.entity.amount_paid").Int())
	}
	return out, nil
}

// Sign returns the hex HMAC-SHA256 of message under secret
func Sign(message []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

func verifyHMAC(message []byte, secret, signature string) bool {
	if signature == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(message, secret)), []byte(signature))
}

// ToPaise converts rupees to the integer paise the API expects
func ToPaise(amount decimal.Decimal) int64 {
	return valueobject.NewINR(amount).Paise()
}

// FromPaise converts paise to rupees
func FromPaise(paise int64) decimal.Decimal {
	return valueobject.FromPaise(paise).Amount()
}

func apiError(resp *resty.Response) error {
	parsed := gjson.ParseBytes(resp.Body())
	return &APIError{
		StatusCode:  resp.StatusCode(),
		Code:        parsed.Get("error.code").String(),
		Description: parsed.Get("error.description").String(),
	}
}

var _ trade.PaymentGateway = (*Client)(nil)
