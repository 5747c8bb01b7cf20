package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTaxonomy(t *testing.T) {
	notFound := NewNotFoundError("circle")
	contention := NewContentionError("join circle", 5)
	database := NewDatabaseError("find circle", context.DeadlineExceeded)

	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsRetryable(notFound))
	assert.False(t, IsInfrastructure(notFound))

	assert.True(t, IsContention(contention))
	assert.True(t, IsRetryable(contention))
	assert.False(t, IsInfrastructure(contention))
	assert.Equal(t, http.StatusServiceUnavailable, contention.HTTPStatus)

	assert.True(t, IsInfrastructure(database))
	assert.False(t, IsContention(database))
	assert.True(t, errors.Is(database, context.DeadlineExceeded))
}

func TestGetAppErrorThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewNotFoundError("circle"))
	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, "circle not found", GetAppError(wrapped).Message)
	assert.Nil(t, GetAppError(errors.New("plain")))
}

func TestErrorHandler_Handle(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)

	tests := []struct {
		name       string
		err        error
		status     int
		errType    ErrorType
		retryAfter string
	}{
		{"not found", NewNotFoundError("circle"), http.StatusNotFound, ErrorTypeNotFound, ""},
		{"validation", NewValidationError("userId is required"), http.StatusBadRequest, ErrorTypeValidation, ""},
		{"contention", NewContentionError("join circle", 3), http.StatusServiceUnavailable, ErrorTypeContention, "1"},
		{"database", NewDatabaseError("insert circle", errors.New("down")), http.StatusInternalServerError, ErrorTypeDatabase, "1"},
		{"plain", errors.New("unexpected"), http.StatusInternalServerError, ErrorTypeInternal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/circles/x", nil)

			h.Handle(rec, req, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.retryAfter, rec.Header().Get("Retry-After"))

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.True(t, body.Error)
			assert.Equal(t, string(tt.errType), body.Type)
		})
	}
}

func TestErrorHandler_HidesInternalMessageOutsideDebug(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	NewErrorHandler(zap.NewNop(), false).Handle(rec, req, errors.New("secret detail"))
	assert.NotContains(t, rec.Body.String(), "secret detail")

	rec = httptest.NewRecorder()
	NewErrorHandler(zap.NewNop(), true).Handle(rec, req, errors.New("secret detail"))
	assert.Contains(t, rec.Body.String(), "secret detail")
}
