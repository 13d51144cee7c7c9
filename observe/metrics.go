package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AuthMetrics records the core's security-relevant events: token validation
// outcomes, policy decisions, and session operations.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: recording is best-effort and must not panic.
type AuthMetrics struct {
	validations    metric.Int64Counter
	validationTime metric.Float64Histogram
	decisions      metric.Int64Counter
	sessionOps     metric.Int64Counter
}

// NewAuthMetrics creates the instruments on the given meter.
func NewAuthMetrics(meter metric.Meter) (*AuthMetrics, error) {
	validations, err := meter.Int64Counter(
		"auth.validations.total",
		metric.WithDescription("Total number of token validation attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	validationTime, err := meter.Float64Histogram(
		"auth.validation.duration_ms",
		metric.WithDescription("Token validation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	decisions, err := meter.Int64Counter(
		"policy.decisions.total",
		metric.WithDescription("Total number of policy decisions"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	sessionOps, err := meter.Int64Counter(
		"session.ops.total",
		metric.WithDescription("Total number of session operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	return &AuthMetrics{
		validations:    validations,
		validationTime: validationTime,
		decisions:      decisions,
		sessionOps:     sessionOps,
	}, nil
}

// RecordValidation records one token validation attempt. code is "ok" for
// success or the stable failure code.
func (m *AuthMetrics) RecordValidation(ctx context.Context, code string, duration time.Duration) {
	opt := metric.WithAttributes(attribute.String("auth.code", code))
	m.validations.Add(ctx, 1, opt)
	m.validationTime.Record(ctx, float64(duration.Microseconds())/1000.0, opt)
}

// RecordDecision records one policy decision.
func (m *AuthMetrics) RecordDecision(ctx context.Context, action, resource string, allowed bool) {
	m.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("policy.action", action),
		attribute.String("policy.resource", resource),
		attribute.Bool("policy.allowed", allowed),
	))
}

// RecordSessionOp records one session operation and whether it failed.
func (m *AuthMetrics) RecordSessionOp(ctx context.Context, op string, err error) {
	m.sessionOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("session.op", op),
		attribute.Bool("session.error", err != nil),
	))
}
