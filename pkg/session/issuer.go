package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Purpose separates full sessions from the short-lived token handed out
// between the password and the second-factor step.
type Purpose string

const (
	PurposeSession   Purpose = "session"
	PurposeTwoFactor Purpose = "2fa_pending"
)

const minKeyLength = 32

// Claims carried by every token.
type Claims struct {
	jwt.RegisteredClaims
	Purpose Purpose `json:"purpose"`
}

// Issuer signs and validates HS256 tokens.
type Issuer struct {
	key        []byte
	ttl        time.Duration
	pendingTTL time.Duration
	issuer     string
	now        func() time.Time
}

type Option func(*Issuer)

func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewIssuer validates cfg and returns an Issuer.
func NewIssuer(cfg Config, opts ...Option) (*Issuer, error) {
	if cfg.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}
	if len(cfg.SigningKey) < minKeyLength {
		return nil, ErrWeakSigningKey
	}

	i := &Issuer{
		key:        []byte(cfg.SigningKey),
		ttl:        cfg.TTL,
		pendingTTL: cfg.PendingTTL,
		issuer:     cfg.Issuer,
		now:        time.Now,
	}
	if i.ttl <= 0 {
		i.ttl = 4 * time.Hour
	}
	if i.pendingTTL <= 0 {
		i.pendingTTL = 5 * time.Minute
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue signs a token for subject. The expiry depends on purpose.
func (i *Issuer) Issue(subject string, purpose Purpose) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, ErrEmptySubject
	}

	now := i.now()
	exp := now.Add(i.lifetime(purpose))
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Purpose: purpose,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, errors.Join(ErrFailedToSign, err)
	}
	return token, exp, nil
}

// Parse verifies signature, issuer, expiry and purpose.
func (i *Issuer) Parse(token string, purpose Purpose) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, ErrExpiredToken
	case err != nil:
		return Claims{}, errors.Join(ErrInvalidToken, err)
	case !parsed.Valid:
		return Claims{}, ErrInvalidToken
	}

	if claims.Purpose != purpose {
		return Claims{}, ErrWrongPurpose
	}
	if claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// Refresh extends a valid session token by a full TTL from now. Activity
// keeps the session alive; an idle one expires.
func (i *Issuer) Refresh(token string) (string, time.Time, error) {
	claims, err := i.Parse(token, PurposeSession)
	if err != nil {
		return "", time.Time{}, err
	}
	return i.Issue(claims.Subject, PurposeSession)
}

func (i *Issuer) lifetime(p Purpose) time.Duration {
	if p == PurposeTwoFactor {
		return i.pendingTTL
	}
	return i.ttl
}
