package telemetry

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when metrics are created without a meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// Webhook outcomes recorded by RecordWebhook
const (
	WebhookProcessed = "processed"
	WebhookDuplicate = "duplicate"
	WebhookIgnored   = "ignored"
	WebhookRejected  = "rejected"
	WebhookFailed    = "failed"
)

// BusinessMetrics counts marketplace activity: orders placed and their value,
// webhooks by provider and outcome, and WhatsApp messages sent.
type BusinessMetrics struct {
	logger *zap.Logger

	ordersPlaced     *Counter
	orderValuePaise  *Counter
	webhooks         *Counter
	messagesSent     *Counter
	paymentsRecorded *Counter
}

// NewBusinessMetrics creates the business counters on meter
func NewBusinessMetrics(meter metric.Meter, logger *zap.Logger) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{logger: logger}
	var err error

	if bm.ordersPlaced, err = NewCounter(meter, "d2b_orders_placed_total", "Orders created from captured payments", "{orders}"); err != nil {
		return nil, err
	}
	if bm.orderValuePaise, err = NewCounter(meter, "d2b_order_value_paise_total", "Total value of placed orders in paise", "{paise}"); err != nil {
		return nil, err
	}
	if bm.webhooks, err = NewCounter(meter, "d2b_webhooks_total", "Webhooks received by provider and outcome", "{webhooks}"); err != nil {
		return nil, err
	}
	if bm.messagesSent, err = NewCounter(meter, "d2b_whatsapp_messages_total", "Outbound WhatsApp messages by sender and status", "{messages}"); err != nil {
		return nil, err
	}
	if bm.paymentsRecorded, err = NewCounter(meter, "d2b_payments_total", "Payment attempts by final outcome", "{payments}"); err != nil {
		return nil, err
	}
	return bm, nil
}

// RecordOrderPlaced counts one order and its total
func (bm *BusinessMetrics) RecordOrderPlaced(ctx context.Context, mode string, total decimal.Decimal) {
	if bm == nil {
		return
	}
	attrs := attribute.String("payment_mode", mode)
	bm.ordersPlaced.Inc(ctx, attrs)
	bm.orderValuePaise.Add(ctx, total.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), attrs)
}

// RecordWebhook counts a webhook delivery
func (bm *BusinessMetrics) RecordWebhook(ctx context.Context, provider, outcome string) {
	if bm == nil {
		return
	}
	bm.webhooks.Inc(ctx, attribute.String("provider", provider), attribute.String("outcome", outcome))
}

// RecordMessage counts an outbound WhatsApp message
func (bm *BusinessMetrics) RecordMessage(ctx context.Context, sender string, ok bool) {
	if bm == nil {
		return
	}
	status := "sent"
	if !ok {
		status = "failed"
	}
	bm.messagesSent.Inc(ctx, attribute.String("sender", sender), attribute.String("status", status))
}

// RecordPayment counts a payment attempt outcome such as completed or failed
func (bm *BusinessMetrics) RecordPayment(ctx context.Context, outcome string) {
	if bm == nil {
		return
	}
	bm.paymentsRecorded.Inc(ctx, attribute.String("outcome", outcome))
}
