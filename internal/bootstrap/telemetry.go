package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/d2bcart/backend/internal/infrastructure/config"
	"github.com/d2bcart/backend/internal/infrastructure/logger"
	"github.com/d2bcart/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Telemetry holds the OpenTelemetry providers of the process
type Telemetry struct {
	Tracer   *telemetry.TracerProvider
	Meter    *telemetry.MeterProvider
	Logs     *telemetry.LoggerProvider
	Metrics  *telemetry.BusinessMetrics
	Profiler *telemetry.Profiler
}

// NewLogger builds the process logger. When log export is enabled the
// returned logger also forwards entries through the OTLP bridge.
func NewLogger(ctx context.Context, cfg *config.Config) (*zap.Logger, *Telemetry, error) {
	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, nil, err
	}

	tel := &Telemetry{}
	tel.Tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return nil, nil, err
	}

	tel.Profiler, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.Profiling.Enabled,
		ServerAddress:     cfg.Telemetry.Profiling.ServerAddress,
		ApplicationName:   cfg.Telemetry.Profiling.ApplicationName,
		BasicAuthUser:     cfg.Telemetry.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Telemetry.Profiling.BasicAuthPassword,
		ProfileTypes:      cfg.Telemetry.Profiling.ProfileTypes,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	if tel.Profiler.IsEnabled() && cfg.Telemetry.Profiling.SpanProfiles {
		if !tel.Tracer.EnableSpanProfiles() {
			log.Warn("Span profiles need tracing enabled, skipping")
		}
	}

	tel.Meter, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    time.Minute,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	tel.Metrics, err = telemetry.NewBusinessMetrics(tel.Meter.Meter("d2bcart"), log)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled {
		tel.Logs, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
			Enabled:           true,
			CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
			ServiceName:       cfg.Telemetry.ServiceName,
			Insecure:          cfg.Telemetry.Insecure,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		level, _ := logger.ParseLevel(cfg.Log.Level)
		bridged, err := logger.New(logCfg, telemetry.NewZapOTELCore(cfg.Telemetry.ServiceName, tel.Logs, level))
		if err != nil {
			return nil, nil, err
		}
		log = bridged
	}
	return log, tel, nil
}

// Shutdown flushes and stops every provider
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.Logs != nil {
		errs = append(errs, t.Logs.Shutdown(ctx))
	}
	if t.Meter != nil {
		errs = append(errs, t.Meter.Shutdown(ctx))
	}
	if t.Tracer != nil {
		errs = append(errs, t.Tracer.Shutdown(ctx))
	}
	if t.Profiler != nil {
		errs = append(errs, t.Profiler.Stop())
	}
	return errors.Join(errs...)
}
