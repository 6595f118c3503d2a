// Package domain defines identity, role and action models for authentication
// and authorization.
//
// Identities are resolved per request from a bearer token; authorization is
// grant-based: a role either applies globally (site admins) or is scoped to a
// single object id. Absence of a grant is denial.
package domain

import (
	"github.com/google/uuid"
)

// Identity is the resolved caller of a request. The zero value is the
// anonymous identity.
type Identity struct {
	ID    uuid.UUID
	Email string
}

// Anonymous is the identity attached to requests carrying no usable token.
var Anonymous = Identity{}

// IsAnonymous reports whether the identity represents an unauthenticated
// caller.
func (i Identity) IsAnonymous() bool {
	return i.ID == uuid.Nil
}

// Snapshot is the identity payload embedded in tokens. Fields are strings so
// a token survives any later change of the internal id type.
type Snapshot struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Snapshot returns the token payload for the identity.
func (i Identity) Snapshot() Snapshot {
	return Snapshot{
		ID:    i.ID.String(),
		Email: i.Email,
	}
}

// IdentityFromSnapshot reconstructs an identity from a verified token
// payload. An unparseable id yields the anonymous identity and an error.
func IdentityFromSnapshot(s Snapshot) (Identity, error) {
	id, err := uuid.Parse(s.ID)
	if err != nil {
		return Anonymous, err
	}
	return Identity{ID: id, Email: s.Email}, nil
}
