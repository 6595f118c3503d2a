// Package service provides technical services for authentication operations.
//
// This package implements the signed bearer token used for stateless
// authentication. Tokens are self-contained: verification never touches
// storage.
package service

import (
	authDomain "github.com/helperhq/helper/internal/auth/domain"
)

// TokenService defines operations for signed identity tokens.
// Implementations must embed the full identity snapshot in the token so
// verification can reconstruct the caller without a storage round trip.
type TokenService interface {
	// Issue creates a signed token embedding the identity snapshot.
	// The token carries the configured issuer and a fixed time-to-live.
	Issue(snapshot authDomain.Snapshot) (string, error)

	// Verify checks signature, issuer and expiry, and returns the embedded
	// snapshot. Any failure returns ErrInvalidToken; whether the identity
	// still exists is not this service's concern.
	Verify(token string) (authDomain.Snapshot, error)
}
