package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ClaimMetrics holds the adjudication instruments. A nil *ClaimMetrics records nothing.
type ClaimMetrics struct {
	submitted        metric.Int64Counter
	rejectedOnSubmit metric.Int64Counter
	transitions      metric.Int64Counter
	benefitAmount    metric.Float64Histogram
	sessionsClosed   metric.Int64Counter
	cacheHits        metric.Int64Counter
	cacheMisses      metric.Int64Counter
}

// InitClaimMetrics creates the instruments on the global meter provider
func InitClaimMetrics() (*ClaimMetrics, error) {
	return NewClaimMetrics(otel.GetMeterProvider().Meter(instrumentationName))
}

// NewClaimMetrics creates the instruments on meter
func NewClaimMetrics(meter metric.Meter) (*ClaimMetrics, error) {
	var (
		m   ClaimMetrics
		err error
	)

	if m.submitted, err = meter.Int64Counter(
		"claims.submitted",
		metric.WithDescription("Number of claims accepted for adjudication"),
	); err != nil {
		return nil, err
	}

	if m.rejectedOnSubmit, err = meter.Int64Counter(
		"claims.submission_rejected",
		metric.WithDescription("Number of submissions refused, by error code"),
	); err != nil {
		return nil, err
	}

	if m.transitions, err = meter.Int64Counter(
		"claims.transitions",
		metric.WithDescription("Number of claim status transitions, by target status"),
	); err != nil {
		return nil, err
	}

	if m.benefitAmount, err = meter.Float64Histogram(
		"claims.benefit_amount",
		metric.WithDescription("Benefit amount computed at submission"),
	); err != nil {
		return nil, err
	}

	if m.sessionsClosed, err = meter.Int64Counter(
		"billing_sessions.closed",
		metric.WithDescription("Number of billing sessions closed"),
	); err != nil {
		return nil, err
	}

	if m.cacheHits, err = meter.Int64Counter(
		"cache.hit.count",
		metric.WithDescription("Number of cache hits"),
	); err != nil {
		return nil, err
	}

	if m.cacheMisses, err = meter.Int64Counter(
		"cache.miss.count",
		metric.WithDescription("Number of cache misses"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

// ClaimSubmitted records an accepted submission and its benefit amount
func (m *ClaimMetrics) ClaimSubmitted(ctx context.Context, benefit float64) {
	if m == nil {
		return
	}
	m.submitted.Add(ctx, 1)
	m.benefitAmount.Record(ctx, benefit)
}

// SubmissionRejected records a refused submission
func (m *ClaimMetrics) SubmissionRejected(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.rejectedOnSubmit.Add(ctx, 1, metric.WithAttributes(attribute.String("error_code", code)))
}

// Transition records a status change
func (m *ClaimMetrics) Transition(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// SessionClosed records a billing session close
func (m *ClaimMetrics) SessionClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessionsClosed.Add(ctx, 1)
}

// CacheHit records a cache hit for a key family
func (m *ClaimMetrics) CacheHit(ctx context.Context, family string) {
	if m == nil {
		return
	}
	m.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.family", family)))
}

// CacheMiss records a cache miss for a key family
func (m *ClaimMetrics) CacheMiss(ctx context.Context, family string) {
	if m == nil {
		return
	}
	m.cacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.family", family)))
}
