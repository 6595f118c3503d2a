package usecase

import (
	"context"
	"strings"

	authDomain "github.com/helperhq/helper/internal/auth/domain"
	"github.com/helperhq/helper/internal/metrics"
)

// authorizerWithMetrics decorates Authorizer with metrics instrumentation.
type authorizerWithMetrics struct {
	next    Authorizer
	metrics metrics.BusinessMetrics
}

// NewAuthorizerWithMetrics wraps an Authorizer with decision recording.
func NewAuthorizerWithMetrics(authorizer Authorizer, m metrics.BusinessMetrics) Authorizer {
	return &authorizerWithMetrics{
		next:    authorizer,
		metrics: m,
	}
}

// CanPerform records the decision for each authorization check.
func (a *authorizerWithMetrics) CanPerform(
	ctx context.Context,
	identity authDomain.Identity,
	descriptor string,
) (bool, error) {
	allowed, err := a.next.CanPerform(ctx, identity, descriptor)

	decision := "denied"
	switch {
	case err != nil:
		decision = "error"
	case allowed:
		decision = "allowed"
	}

	a.metrics.RecordAuthorization(ctx, actionDomain(descriptor), decision)

	return allowed, err
}

// actionDomain extracts the leading domain segment for the metric label.
func actionDomain(descriptor string) string {
	if idx := strings.Index(descriptor, "::"); idx > 0 {
		return descriptor[:idx]
	}
	return "unknown"
}
