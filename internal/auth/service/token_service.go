package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	authDomain "github.com/helperhq/helper/internal/auth/domain"
	apperrors "github.com/helperhq/helper/internal/errors"
)

// DefaultIssuer is the issuer string stamped into every token.
const DefaultIssuer = "Overlord"

// identityClaims is the JWT payload. The snapshot lives under "data" so the
// token shape is independent of the registered claim set.
type identityClaims struct {
	jwt.RegisteredClaims

	Data authDomain.Snapshot `json:"data"`
}

// tokenService implements TokenService using HS256-signed JWTs.
type tokenService struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// NewTokenService creates a TokenService signing with the given secret.
// Tokens expire after expiration and carry DefaultIssuer.
func NewTokenService(secret string, expiration time.Duration) TokenService {
	return &tokenService{
		secret:     []byte(secret),
		issuer:     DefaultIssuer,
		expiration: expiration,
		now:        time.Now,
	}
}

// Issue creates a signed token embedding the identity snapshot.
func (t *tokenService) Issue(snapshot authDomain.Snapshot) (string, error) {
	now := t.now()
	claims := identityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   snapshot.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiration)),
		},
		Data: snapshot,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to sign token")
	}

	return signed, nil
}

// Verify checks signature, issuer and expiry, and returns the embedded snapshot.
func (t *tokenService) Verify(tokenString string) (authDomain.Snapshot, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&identityClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return t.secret, nil
		},
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return authDomain.Snapshot{}, apperrors.InvalidToken(err)
	}

	claims, ok := token.Claims.(*identityClaims)
	if !ok || !token.Valid {
		return authDomain.Snapshot{}, apperrors.InvalidToken(fmt.Errorf("invalid token claims"))
	}

	return claims.Data, nil
}
