package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/vet-consult-scheduling/internal/api"
	"github.com/hackgods/vet-consult-scheduling/internal/auth"
	"github.com/hackgods/vet-consult-scheduling/internal/config"
	"github.com/hackgods/vet-consult-scheduling/internal/logging"
)

func memoryConfig() config.Config {
	return config.Config{
		Env:                 "test",
		StoreDriver:         config.StoreMemory,
		LockTTL:             5 * time.Second,
		AvailabilityTTL:     15 * time.Second,
		RequestTimeout:      5 * time.Second,
		Location:            time.UTC,
		JWTSecret:           "secret",
		JWTTTL:              time.Hour,
		EventsChannelPrefix: "vetconsult",
	}
}

func readiness(t *testing.T, h http.Handler) api.ReadinessResponse {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var out api.ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestNewWithMemoryStore(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(), logging.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Pool)
	assert.Nil(t, a.Redis)

	ready := readiness(t, a.Router("test"))
	assert.Equal(t, "ok", ready.Status)
	assert.Equal(t, "disabled", ready.Dependencies["postgres"])

	vet := auth.Actor{UserID: uuid.New(), Role: auth.RoleVeterinarian}
	rules, err := a.Schedule.GetRules(context.Background(), vet.UserID)
	require.NoError(t, err)
	assert.Empty(t, rules)

	tok, err := a.Tokens.NewAccessToken(vet)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	a.Router("test").ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := memoryConfig()
	cfg.RedisEnabled = true
	cfg.RedisAddr = mr.Addr()

	a, err := New(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Redis)
	ready := readiness(t, a.Router("test"))
	assert.Equal(t, "ok", ready.Status)
	assert.Equal(t, "ok", ready.Dependencies["redis"])
}

func TestNewFailsWhenRedisUnreachable(t *testing.T) {
	cfg := memoryConfig()
	cfg.RedisEnabled = true
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := New(context.Background(), cfg, logging.Nop())
	require.Error(t, err)
}

func TestMetricsExposed(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(), logging.Nop())
	require.NoError(t, err)
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Router("test").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
