package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "tensalis-go"

// Metrics holds all OTEL metric instruments for the SDK. All counters are
// cumulative (monotonic) and safe for concurrent use. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Verification counters (partitioned by status via attributes)
	Verifications metric.Int64Counter
	Blocked       metric.Int64Counter

	// Transport instruments
	RequestDuration metric.Float64Histogram
	Retries         metric.Int64Counter
}

// NewMetrics creates all metric instruments. Returns no-op instruments when
// no MeterProvider is registered (safe to call unconditionally).
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Verifications, err = meter.Int64Counter("verifications.total",
		metric.WithDescription("Total verification calls partitioned by verdict status"))
	if err != nil {
		return nil, err
	}

	m.Blocked, err = meter.Int64Counter("verifications.blocked",
		metric.WithDescription("Blocked verdicts partitioned by detection layer"))
	if err != nil {
		return nil, err
	}

	m.RequestDuration, err = meter.Float64Histogram("api.request.duration",
		metric.WithDescription("Wall-clock duration of API requests including retries"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.Retries, err = meter.Int64Counter("api.request.retries",
		metric.WithDescription("Retry attempts partitioned by trigger (5xx, 429, network, timeout)"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordVerdict records one verification outcome.
func (m *Metrics) RecordVerdict(ctx context.Context, status, layer string) {
	if m == nil {
		return
	}
	m.Verifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("verdict.status", status),
	))
	if status == "BLOCKED" {
		m.Blocked.Add(ctx, 1, metric.WithAttributes(
			attribute.String("verdict.layer", layer),
		))
	}
}

// RecordRequest records the duration and outcome of one API request.
func (m *Metrics) RecordRequest(ctx context.Context, path, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("api.path", path),
		attribute.String("api.outcome", outcome),
	))
}

// RecordRetry records one retry attempt with its trigger.
func (m *Metrics) RecordRetry(ctx context.Context, trigger string) {
	if m == nil {
		return
	}
	m.Retries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("retry.trigger", trigger),
	))
}
