package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned for every token that fails validation: malformed,
	// wrong algorithm, bad signature, expired, wrong issuer or audience, or missing subject.
	ErrInvalidToken = errors.New("invalid token")
	// ErrEmptySecret is returned by NewTokenProvider when no signing secret is configured.
	ErrEmptySecret = errors.New("token signing secret is empty")
	// ErrInvalidLifetime is returned when a token lifetime is not positive.
	ErrInvalidLifetime = errors.New("token lifetime must be positive")
)

// SessionClaims are the claims carried by a session token. Subject is the account email.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// TokenProvider issues and validates HS256 session tokens with a process-wide secret.
type TokenProvider struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenProvider returns a TokenProvider signing with secret. issuer and audience are
// set on every token and checked on validation; ttl is the default lifetime used by Issue.
func NewTokenProvider(secret []byte, issuer, audience string, ttl time.Duration) (*TokenProvider, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		return nil, ErrInvalidLifetime
	}
	s := make([]byte, len(secret))
	copy(s, secret)
	return &TokenProvider{
		secret:   s,
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// WithClock returns a copy of p that reads the current time from now. Used by tests
// to pin issuance and expiry.
func (p *TokenProvider) WithClock(now func() time.Time) *TokenProvider {
	cp := *p
	cp.now = now
	return &cp
}

// TTL returns the default token lifetime.
func (p *TokenProvider) TTL() time.Duration {
	return p.ttl
}

// Issue mints a token for subject with the default lifetime.
func (p *TokenProvider) Issue(subject string) (token string, expiresAt time.Time, err error) {
	return p.IssueWithTTL(subject, p.ttl)
}

// IssueWithTTL mints a token for subject with iat=now and exp=now+ttl, both truncated to the second.
func (p *TokenProvider) IssueWithTTL(subject string, ttl time.Duration) (token string, expiresAt time.Time, err error) {
	if ttl <= 0 {
		return "", time.Time{}, ErrInvalidLifetime
	}
	if strings.TrimSpace(subject) == "" {
		return "", time.Time{}, ErrInvalidToken
	}
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	// JWT NumericDate has whole-second precision; expiresAt must match the exp claim.
	now := p.now().UTC().Truncate(time.Second)
	expiresAt = now.Add(ttl)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   subject,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Validate checks algorithm, signature, expiry, issuer, and audience and returns the
// subject. Any failure is reported as ErrInvalidToken.
func (p *TokenProvider) Validate(tokenString string) (string, error) {
	if strings.TrimSpace(tokenString) == "" {
		return "", ErrInvalidToken
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
		jwt.WithTimeFunc(p.now),
	)
	token, err := parser.ParseWithClaims(tokenString, &SessionClaims{}, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
