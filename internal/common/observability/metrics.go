package observability

import (
	"context"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"

	"talent-sync/internal/common/logger"
)

// Observability records thunk outcomes through the otel metric SDK. The
// exporter publishes them on the same prometheus registry as the
// promauto collectors.
type Observability struct {
	meterProvider  *metric.MeterProvider
	meter          otelmetric.Meter
	actionCounter  otelmetric.Int64Counter
	actionDuration otelmetric.Float64Histogram
}

// Options tweaks New. A nil Registerer means the default prometheus registry.
type Options struct {
	Registerer promclient.Registerer
	Logger     logger.Logger
}

func New(serviceName string, opts Options) *Observability {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	var exporterOpts []prometheus.Option
	if opts.Registerer != nil {
		exporterOpts = append(exporterOpts, prometheus.WithRegisterer(opts.Registerer))
	}

	exporter, err := prometheus.New(exporterOpts...)
	if err != nil {
		log.Warn("Failed to create Prometheus exporter, otel metrics disabled", map[string]interface{}{
			"error": err.Error(),
		})
		return &Observability{}
	}

	// each App owns its provider; the process-global one is left alone
	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	meter := provider.Meter(serviceName)

	actionCounter, _ := meter.Int64Counter(
		"store.actions",
		otelmetric.WithDescription("Number of async store actions settled"),
	)

	actionDuration, _ := meter.Float64Histogram(
		"store.action.duration",
		otelmetric.WithDescription("Async store action duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:  provider,
		meter:          meter,
		actionCounter:  actionCounter,
		actionDuration: actionDuration,
	}
}

// RecordAction counts one settled action.
func (o *Observability) RecordAction(ctx context.Context, action, status string) {
	if o == nil || o.actionCounter == nil {
		return
	}
	o.actionCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("action", action),
		attribute.String("status", status),
	))
}

// RecordActionDuration records how long an action took to settle.
func (o *Observability) RecordActionDuration(ctx context.Context, action string, duration time.Duration, status string) {
	if o == nil || o.actionDuration == nil {
		return
	}
	o.actionDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("action", action),
		attribute.String("status", status),
	))
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}
