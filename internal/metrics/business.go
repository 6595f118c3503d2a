package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics defines the interface for recording business operation metrics.
// Implementations track operation counts, durations, authorization decisions and
// idempotent relationship writes for observability across the domains.
type BusinessMetrics interface {
	// RecordOperation records a business operation with its status.
	// Domain examples: "user", "group", "help_item", "auth"
	// Operation examples: "user_create", "group_add_member", "token_issue"
	// Status examples: "success", "error"
	RecordOperation(ctx context.Context, domain, operation, status string)

	// RecordDuration records the duration of a business operation with its status.
	// Duration is recorded in seconds as a histogram for percentile calculations.
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)

	// RecordAuthorization records an authorization decision for an action domain.
	// Decision is "allowed" or "denied".
	RecordAuthorization(ctx context.Context, actionDomain, decision string)

	// RecordIdempotentNoop records a relationship write that degraded to a
	// no-op because the relationship already existed.
	RecordIdempotentNoop(ctx context.Context, relationship string)
}

// businessMetrics implements BusinessMetrics using OpenTelemetry metrics.
type businessMetrics struct {
	operationCounter     metric.Int64Counter
	durationHisto        metric.Float64Histogram
	authorizationCounter metric.Int64Counter
	noopCounter          metric.Int64Counter
}

// NewBusinessMetrics creates a new BusinessMetrics implementation using the provided meter provider.
// The namespace parameter is used as a prefix for all metric names (e.g., "helper").
// Returns error if meters cannot be initialized.
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	// Create counter for total operations
	operationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Total number of business operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	// Create histogram for operation durations
	durationHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of business operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	// Create counter for authorization decisions
	authorizationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_authorization_decisions_total", namespace),
		metric.WithDescription("Total number of authorization decisions"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorization counter: %w", err)
	}

	// Create counter for idempotent relationship no-ops
	noopCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_idempotent_noops_total", namespace),
		metric.WithDescription("Total number of relationship writes resolved as idempotent no-ops"),
		metric.WithUnit("{write}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create idempotent noop counter: %w", err)
	}

	return &businessMetrics{
		operationCounter:     operationCounter,
		durationHisto:        durationHisto,
		authorizationCounter: authorizationCounter,
		noopCounter:          noopCounter,
	}, nil
}

// RecordOperation increments the operation counter with domain, operation, and status labels.
func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	b.operationCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("domain", domain),
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

// RecordDuration records the operation duration in seconds with domain, operation, and status labels.
func (b *businessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	b.durationHisto.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("domain", domain),
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

// RecordAuthorization increments the authorization decision counter.
func (b *businessMetrics) RecordAuthorization(ctx context.Context, actionDomain, decision string) {
	b.authorizationCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("action_domain", actionDomain),
			attribute.String("decision", decision),
		),
	)
}

// RecordIdempotentNoop increments the idempotent no-op counter.
func (b *businessMetrics) RecordIdempotentNoop(ctx context.Context, relationship string) {
	b.noopCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("relationship", relationship),
		),
	)
}

// NoOpBusinessMetrics is a no-op implementation of BusinessMetrics for when metrics are disabled.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics creates a no-op BusinessMetrics implementation.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

// RecordOperation does nothing when metrics are disabled.
func (n *NoOpBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	// No-op
}

// RecordDuration does nothing when metrics are disabled.
func (n *NoOpBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	// No-op
}

// RecordAuthorization does nothing when metrics are disabled.
func (n *NoOpBusinessMetrics) RecordAuthorization(ctx context.Context, actionDomain, decision string) {
	// No-op
}

// RecordIdempotentNoop does nothing when metrics are disabled.
func (n *NoOpBusinessMetrics) RecordIdempotentNoop(ctx context.Context, relationship string) {
	// No-op
}
