package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura-backend/infrastructure/config"
	"aura-backend/infrastructure/messaging"
)

func testConfig(backend string) *config.Config {
	return &config.Config{
		ServerAddress:      ":0",
		Environment:        "test",
		StorageBackend:     backend,
		StorageTimeout:     time.Second,
		AWSRegion:          "us-west-2",
		LogLevel:           "error",
		EnableMetrics:      true,
		EnableCORS:         true,
		CORSAllowedOrigins: []string{"*"},
	}
}

func TestInitializeContainer_Memory(t *testing.T) {
	cfg := testConfig(config.BackendMemory)

	container, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	assert.IsType(t, &messaging.LogPublisher{}, container.Publisher)
	assert.Nil(t, container.Tracer)

	handler := container.HTTPHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/circles/join", strings.NewReader(`{"userId":"alice"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "aura_circle_joins_total")
}

func TestInitializeContainer_SQLite(t *testing.T) {
	cfg := testConfig(config.BackendSQLite)
	cfg.SQLitePath = filepath.Join(t.TempDir(), "aura.db")

	container, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	handler := container.HTTPHandler()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	circle, err := container.Allocator.Join(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, circle.Participants())
}

func TestInitializeContainer_UnknownBackend(t *testing.T) {
	cfg := testConfig("mongo")

	_, _, err := InitializeContainer(context.Background(), cfg)

	assert.Error(t, err)
}

func TestInitializeContainer_InvalidLogLevel(t *testing.T) {
	cfg := testConfig(config.BackendMemory)
	cfg.LogLevel = "loud"

	_, _, err := InitializeContainer(context.Background(), cfg)

	assert.Error(t, err)
}
