package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"dentalcare/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// failWith runs fail against a captured logger and returns what the client
// and the log each saw.
func failWith(t *testing.T, err error) (*httptest.ResponseRecorder, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zap.ErrorLevel)
	prev := logger
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(prev) })

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/users", nil)

	fail(c, err)
	return w, logs
}

func TestFailLogsInternalRootCause(t *testing.T) {
	w, logs := failWith(t, apperr.Persistence("load account", errors.New("pq: connection refused")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	// The client gets the generic text; the root cause stays server-side.
	assert.Contains(t, w.Body.String(), "internal error")
	assert.NotContains(t, w.Body.String(), "connection refused")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "request failed", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, http.MethodGet, fields["method"])
	assert.Contains(t, fmt.Sprint(fields["error"]), "connection refused")
}

func TestFailKeepsClientErrorsOutOfTheLog(t *testing.T) {
	w, logs := failWith(t, fmt.Errorf("%w: login", apperr.ErrCredentialsInvalid))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, logs.Len())
}
