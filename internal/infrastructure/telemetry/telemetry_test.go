package telemetry

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					out[m.Name] += dp.Value
				}
			}
		}
	}
	return out
}

func TestBusinessMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	bm, err := NewBusinessMetrics(provider.Meter("test"), zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordOrderPlaced(ctx, "full", decimal.RequireFromString("1234.56"))
	bm.RecordOrderPlaced(ctx, "advance", decimal.RequireFromString("100"))
	bm.RecordWebhook(ctx, "razorpay", WebhookProcessed)
	bm.RecordWebhook(ctx, "razorpay", WebhookDuplicate)
	bm.RecordMessage(ctx, "ai", true)
	bm.RecordPayment(ctx, "completed")

	sums := collectSums(t, reader)
	assert.Equal(t, int64(2), sums["d2b_orders_placed_total"])
	assert.Equal(t, int64(133456), sums["d2b_order_value_paise_total"])
	assert.Equal(t, int64(2), sums["d2b_webhooks_total"])
	assert.Equal(t, int64(1), sums["d2b_whatsapp_messages_total"])
	assert.Equal(t, int64(1), sums["d2b_payments_total"])
}

func TestBusinessMetrics_NilSafe(t *testing.T) {
	var bm *BusinessMetrics
	assert.NotPanics(t, func() {
		bm.RecordOrderPlaced(context.Background(), "full", decimal.NewFromInt(1))
		bm.RecordWebhook(context.Background(), "x", WebhookFailed)
	})
	_, err := NewBusinessMetrics(nil, nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestDisabledProviders(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	tp, err := NewTracerProvider(ctx, Config{Enabled: false}, log)
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("x"))
	assert.False(t, tp.EnableSpanProfiles())
	assert.NoError(t, tp.Shutdown(ctx))

	mp, err := NewMeterProvider(ctx, MetricsConfig{Enabled: false}, log)
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("x"))
	assert.NoError(t, mp.Shutdown(ctx))

	lp, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false}, log)
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.Shutdown(ctx))

	core := NewZapOTELCore("svc", lp, zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}
