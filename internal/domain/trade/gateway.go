package trade

import (
	"context"

	"github.com/shopspring/decimal"
)

// GatewayOrder is the order created at the payment gateway for an attempt
type GatewayOrder struct {
	ID       string
	Amount   decimal.Decimal
	Currency string
	Receipt  string
}

// GatewayEventType is a payment gateway webhook event name
type GatewayEventType string

const (
	GatewayEventPaymentCaptured GatewayEventType = "payment.captured"
	GatewayEventOrderPaid       GatewayEventType = "order.paid"
	GatewayEventPaymentFailed   GatewayEventType = "payment.failed"
)

// GatewayEvent is the part of a webhook payload the checkout flow acts on
type GatewayEvent struct {
	Type           GatewayEventType
	GatewayOrderID string
	PaymentID      string
	Amount         decimal.Decimal
	FailureReason  string
}

// PaymentGateway is the online payment provider
type PaymentGateway interface {
	// KeyID is the public key the client checkout widget is opened with
	KeyID() string
	CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string, notes map[string]string) (*GatewayOrder, error)
	// FetchPaidAmount returns the captured amount of a payment
	FetchPaidAmount(ctx context.Context, paymentID string) (decimal.Decimal, error)
	VerifyPaymentSignature(gatewayOrderID, paymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
	ParseWebhook(body []byte) (*GatewayEvent, error)
}
