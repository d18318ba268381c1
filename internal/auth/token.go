package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/emr-service/internal/domain"
)

// ErrInvalidLifetime is returned by Issue for lifetimes shorter than one second.
var ErrInvalidLifetime = errors.New("token lifetime must be at least one second")

var signingMethod = jwt.SigningMethodHS256

// TokenVerifier is the verification half of a TokenCodec.
type TokenVerifier interface {
	Verify(token string) (domain.ClaimSet, error)
}

// TokenCodec issues and verifies HS256 signed bearer tokens.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// CodecOption customizes a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewTokenCodec builds a codec keyed by the process signing secret.
func NewTokenCodec(secret []byte, opts ...CodecOption) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	c := &TokenCodec{secret: append([]byte(nil), secret...), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a fresh claim set for subject. Lifetime is truncated to whole seconds,
// the resolution of the encoded timestamps.
func (c *TokenCodec) Issue(subject string, lifetime time.Duration) (string, domain.ClaimSet, error) {
	lifetime = lifetime.Truncate(time.Second)
	if lifetime <= 0 {
		return "", domain.ClaimSet{}, ErrInvalidLifetime
	}
	if subject == "" {
		return "", domain.ClaimSet{}, errors.New("token subject must not be empty")
	}

	issuedAt := c.now().Truncate(time.Second)
	claims := domain.ClaimSet{
		Subject:   subject,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(lifetime),
	}

	token := jwt.NewWithClaims(signingMethod, jwt.RegisteredClaims{
		Subject:   claims.Subject,
		IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
	})
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", domain.ClaimSet{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Verify checks the signature before trusting any claim, then requires an expiry
// strictly in the future. Every failure matches ErrInvalidToken.
func (c *TokenCodec) Verify(tokenStr string) (domain.ClaimSet, error) {
	var registered jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenStr, &registered, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return domain.ClaimSet{}, reject(ErrInvalidToken, classify(err))
	}
	if registered.Subject == "" || registered.IssuedAt == nil {
		return domain.ClaimSet{}, reject(ErrInvalidToken, ReasonMalformedToken)
	}

	return domain.ClaimSet{
		Subject:   registered.Subject,
		IssuedAt:  registered.IssuedAt.Time,
		ExpiresAt: registered.ExpiresAt.Time,
	}, nil
}

func classify(err error) Reason {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpiredToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonBadSignature
	default:
		return ReasonMalformedToken
	}
}
