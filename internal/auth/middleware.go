package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"storyhub/internal/apperr"
)

const CtxClaimsKey = "claims"

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrMissingToken
	}
	tok := strings.TrimSpace(header[len(prefix):])
	if tok == "" {
		return "", ErrMissingToken
	}
	return tok, nil
}

func (i *Issuer) claimsFromRequest(c *gin.Context) (*Claims, error) {
	tok, err := BearerToken(c.GetHeader("Authorization"))
	if err != nil {
		return nil, err
	}
	return i.Verify(tok)
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.KindOf(err).Status(), gin.H{"error": apperr.Message(err)})
}

// RequireUser rejects requests without a valid token with 401.
func RequireUser(iss *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := iss.claimsFromRequest(c)
		if err != nil {
			abort(c, err)
			return
		}
		c.Set(CtxClaimsKey, claims)
		c.Next()
	}
}

// RequireAdmin is RequireUser plus a 403 for non-admin claims.
func RequireAdmin(iss *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := iss.claimsFromRequest(c)
		if err != nil {
			abort(c, err)
			return
		}
		if !claims.IsAdmin {
			abort(c, ErrAdminRequired)
			return
		}
		c.Set(CtxClaimsKey, claims)
		c.Next()
	}
}

// OptionalUser attaches claims when a valid token is present and otherwise
// lets the request through anonymously.
func OptionalUser(iss *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := iss.claimsFromRequest(c); err == nil {
			c.Set(CtxClaimsKey, claims)
		}
		c.Next()
	}
}

// ClaimsFrom returns the claims set by one of the gates.
func ClaimsFrom(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}
