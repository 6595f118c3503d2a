// Package http provides HTTP middleware for identity resolution and
// authorization gates.
package http

import (
	"context"

	authDomain "github.com/helperhq/helper/internal/auth/domain"
)

// identityKey is a context key type for storing the resolved identity.
type identityKey struct{}

// WithIdentity stores the resolved identity in the context.
// This is called by the identity resolver for every request, anonymous included.
func WithIdentity(ctx context.Context, identity authDomain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFrom retrieves the resolved identity from the context.
// Requests that never passed the resolver yield the anonymous identity.
func IdentityFrom(ctx context.Context) authDomain.Identity {
	if identity, ok := ctx.Value(identityKey{}).(authDomain.Identity); ok {
		return identity
	}
	return authDomain.Anonymous
}
