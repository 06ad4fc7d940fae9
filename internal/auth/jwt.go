package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"storyhub/internal/apperr"
)

// DefaultTTL is how long an issued token stays valid.
const DefaultTTL = 6 * time.Hour

var (
	ErrMissingToken  = apperr.New(apperr.Unauthorized, "missing bearer token")
	ErrInvalidToken  = apperr.New(apperr.Unauthorized, "invalid or expired token")
	ErrForbidden     = apperr.New(apperr.Forbidden, "not allowed to modify this resource")
	ErrAdminRequired = apperr.New(apperr.Forbidden, "admin privileges required")
)

// Claims is the payload of an access token.
type Claims struct {
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Identity is what a token is issued for.
type Identity struct {
	ID      int64
	Email   string
	IsAdmin bool
}

// Issuer signs and verifies HS256 access tokens. It holds no per-request
// state and is safe for concurrent use.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: secret, ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the issuer that reads time from now.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}

func (i *Issuer) TTL() time.Duration { return i.ttl }

func (i *Issuer) Issue(id Identity) (string, *Claims, error) {
	now := i.now()
	claims := &Claims{
		UserID:  id.ID,
		Email:   id.Email,
		IsAdmin: id.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Verify checks signature and expiry. Every failure is ErrInvalidToken.
func (i *Issuer) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrMissingToken
	}
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil || !tok.Valid {
		return nil, apperr.Wrap(ErrInvalidToken.Kind, ErrInvalidToken.Msg, err)
	}
	if !claims.VerifyExpiresAt(i.now(), true) {
		return nil, apperr.Wrap(ErrInvalidToken.Kind, ErrInvalidToken.Msg, errors.New("token expired"))
	}
	if claims.UserID <= 0 {
		return nil, apperr.Wrap(ErrInvalidToken.Kind, ErrInvalidToken.Msg, errors.New("token has no subject"))
	}
	return claims, nil
}
