package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "veil/pkg/domain-errors"
)

const tokenIssuer = "veil"

// Claims are the bearer token claims. Subject is always the anonymous id;
// the real user id is only reachable through Service.ResolveIdentity.
type Claims struct {
	Role      string `json:"role"`
	CompanyID string `json:"company_id"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates HS256 session tokens.
type TokenIssuer struct {
	signingKey []byte
	ttl        time.Duration
}

func NewTokenIssuer(signingKey string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{signingKey: []byte(signingKey), ttl: ttl}
}

func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

// Issue signs a token for sess with iat = now and exp = now + ttl.
func (t *TokenIssuer) Issue(sess *Session, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:      sess.Context.AccessLevel.String(),
		CompanyID: sess.CompanyID.String(),
		SessionID: sess.ID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.AnonymousID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			Issuer:    tokenIssuer,
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(t.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign session token")
	}
	return signed, nil
}

// Validate verifies signature and expiry as of now.
func (t *TokenIssuer) Validate(raw string, now time.Time) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return t.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeInvalidSession, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeInvalidSession, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeInvalidSession, "invalid token claims")
	}
	return claims, nil
}
