package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thereayou/messagely/internal/policy"
	"github.com/thereayou/messagely/pkg/auth"
)

const (
	IdentityKey = "identity"
	TokenKey    = "token"
)

type TokenVerifier interface {
	IdentityOf(token string) (string, error)
}

// AuthMiddleware requires a valid, non revoked bearer token.
func AuthMiddleware(verifier TokenVerifier, revoker auth.Revoker, logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			abortUnauthorized(c, "missing or invalid token")
			return
		}
		authenticate(c, token, verifier, revoker, logger)
	}
}

// WSAuthMiddleware also accepts the token as a query parameter, browsers
// cannot set headers on a websocket handshake.
func WSAuthMiddleware(verifier TokenVerifier, revoker auth.Revoker, logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token, _ = auth.ExtractTokenFromHeader(c.Request)
		}
		if token == "" {
			abortUnauthorized(c, "missing token")
			return
		}
		authenticate(c, token, verifier, revoker, logger)
	}
}

func authenticate(c *gin.Context, token string, verifier TokenVerifier, revoker auth.Revoker, logger *zap.SugaredLogger) {
	username, err := verifier.IdentityOf(token)
	if err != nil {
		abortUnauthorized(c, "invalid token")
		return
	}

	revoked, err := revoker.IsRevoked(c.Request.Context(), token)
	if err != nil {
		logger.Errorw("denylist lookup failed", "err", err)
		abortUnauthorized(c, "invalid token")
		return
	}
	if revoked {
		abortUnauthorized(c, "token is revoked")
		return
	}

	c.Set(IdentityKey, policy.Identity(username))
	c.Set(TokenKey, token)
	c.Next()
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// IdentityFrom returns the identity set by AuthMiddleware.
func IdentityFrom(c *gin.Context) (policy.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return "", false
	}
	id, ok := v.(policy.Identity)
	return id, ok && id.Valid()
}

func TokenFrom(c *gin.Context) string {
	return c.GetString(TokenKey)
}
