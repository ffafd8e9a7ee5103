package handler

import (
	"errors"

	"dentalcare/internal/apperr"
	"dentalcare/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// logger is shared by all handlers; main replaces it at startup.
var logger = zap.NewNop()

// SetLogger installs the process logger for the handler package.
func SetLogger(l *zap.Logger) {
	logger = l
}

// fail maps a service error onto the response envelope. Persistence failures
// surface as a generic internal error; the root cause goes to the server log,
// never the client.
func fail(c *gin.Context, err error) {
	status := apperr.Status(err)
	key := apperr.MessageKey(err)

	text := err.Error()
	if errors.Is(err, apperr.ErrPersistence) || status >= 500 {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err),
		)
		text = "internal error"
	}

	c.JSON(status, response.Error(status, key, text))
}
