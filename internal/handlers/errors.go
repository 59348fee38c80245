package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thereayou/messagely/internal/common"
	"github.com/thereayou/messagely/internal/middleware"
	"github.com/thereayou/messagely/internal/policy"
	"github.com/thereayou/messagely/internal/requestid"
)

// StatusFor maps a domain error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrDuplicateUsername):
		return http.StatusConflict
	case errors.Is(err, common.ErrInvalidArgument), errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, logger *zap.SugaredLogger, err error) {
	status := StatusFor(err)
	msg := err.Error()
	switch {
	case status == http.StatusInternalServerError:
		id, _ := requestid.FromContext(c.Request.Context())
		logger.Errorw("request failed", "request_id", id, "path", c.FullPath(), "err", err)
		msg = "internal server error"
	case errors.Is(err, common.ErrInvalidCredentials):
		msg = common.ErrInvalidCredentials.Error()
	case errors.Is(err, common.ErrInvalidToken):
		msg = common.ErrInvalidToken.Error()
	}
	c.JSON(status, gin.H{"error": msg})
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// identity reads the caller set by the auth middleware. A miss means the
// route was mounted without it.
func identity(c *gin.Context, logger *zap.SugaredLogger) (policy.Identity, bool) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		writeError(c, logger, common.ErrUnauthorized)
	}
	return id, ok
}
