package middleware

import (
	"strings"

	"linkvault/internal/apperr"
	"linkvault/internal/auth"
	"linkvault/internal/models"

	"github.com/gin-gonic/gin"
)

// TokenVerifier is the part of auth.Manager the middleware needs.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

// Identity is the authenticated caller as carried by the access token.
type Identity struct {
	UserID uint
	Email  string
	Role   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

type Authenticator struct {
	jwt TokenVerifier
}

func NewAuthenticator(jwt TokenVerifier) *Authenticator {
	return &Authenticator{jwt: jwt}
}

// RequireAuth rejects requests without a bearer token with 401 and requests
// with an invalid or expired one with 403.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWithError(c, apperr.New(apperr.KindMissingToken, "Access token required"))
			return
		}

		claims, err := a.jwt.VerifyAccessToken(raw)
		if err != nil {
			abortWithError(c, apperr.InvalidToken("Invalid or expired token"))
			return
		}

		c.Set(CtxIdentity, Identity{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		})
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			abortWithError(c, apperr.New(apperr.KindMissingToken, "Access token required"))
			return
		}
		if !id.IsAdmin() {
			abortWithError(c, apperr.Forbidden("Admin privileges required"))
			return
		}
		c.Next()
	}
}

func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(CtxIdentity)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
