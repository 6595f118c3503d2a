package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/helperhq/helper/internal/auth/domain"
	apperrors "github.com/helperhq/helper/internal/errors"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", 24*time.Hour)
	snapshot := authDomain.Snapshot{ID: "u1", Email: "alice@example.com"}

	token, err := svc.Issue(snapshot)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	restored, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, snapshot, restored)
}

func TestTokenServiceVerifyExpired(t *testing.T) {
	svc := NewTokenService("test-secret", 24*time.Hour).(*tokenService)

	issuedAt := time.Now().Add(-48 * time.Hour)
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.Issue(authDomain.Snapshot{ID: "u1", Email: "alice@example.com"})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Verify(token)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidToken, apperrors.KindOf(err))
}

func TestTokenServiceVerifyWrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-one", 24*time.Hour)
	verifier := NewTokenService("secret-two", 24*time.Hour)

	token, err := issuer.Issue(authDomain.Snapshot{ID: "u1"})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidToken, apperrors.KindOf(err))
}

func TestTokenServiceVerifyGarbage(t *testing.T) {
	svc := NewTokenService("test-secret", 24*time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "not a jwt", token: "definitely-not-a-jwt"},
		{name: "tampered token", token: "eyJhbGciOiJIUzI1NiJ9.e30.invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindInvalidToken, apperrors.KindOf(err))
		})
	}
}

func TestTokenServiceVerifyWrongIssuer(t *testing.T) {
	svc := NewTokenService("test-secret", 24*time.Hour).(*tokenService)
	svc.issuer = "SomeoneElse"

	token, err := svc.Issue(authDomain.Snapshot{ID: "u1"})
	require.NoError(t, err)

	verifier := NewTokenService("test-secret", 24*time.Hour)
	_, err = verifier.Verify(token)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidToken, apperrors.KindOf(err))
}
