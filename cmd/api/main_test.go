package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/childcare-site/internal/config"
	"github.com/wolfman30/childcare-site/pkg/logging"
)

func TestSetupMetricsExposesFormMetrics(t *testing.T) {
	handler, formMetrics := setupMetrics()
	require.NotNil(t, handler)
	require.NotNil(t, formMetrics)

	formMetrics.ObserveSubmission("contact", "succeeded")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "childcare_forms_submissions_total")
}

func testConfig() *appconfig.Config {
	return &appconfig.Config{
		Env:                  "test",
		EmailProvider:        "stub",
		RateLimitMaxAttempts: 5,
		RateLimitWindow:      15 * time.Minute,
		RateLimitBlock:       time.Hour,
		APIRateLimitMax:      100,
		APIRateLimitWindow:   time.Minute,
		APIRateLimitBlock:    time.Minute,
		PersistMaxAttempts:   3,
		PersistRetryDelay:    time.Millisecond,
		StoreTimeout:         time.Second,
		NotifyTimeout:        time.Second,
		DefaultLocale:        "en",
		BusinessTimezone:     "America/Chicago",
		WeatherCacheTTL:      time.Minute,
		FeatureWeather:       true,
	}
}

func TestBuildHandlerInMemory(t *testing.T) {
	handler, cleanup, err := buildHandler(context.Background(), testConfig(), logging.Discard())
	require.NoError(t, err)
	defer cleanup()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	body := `{"name":"Ana Kowalska","email":"ana@example.com","message":"Do you have openings in January?"}`
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "99", rr.Header().Get("X-RateLimit-Remaining"))
}

func TestBuildHandlerWithRedisHealth(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisAddr = mr.Addr()

	handler, cleanup, err := buildHandler(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer cleanup()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"redis":"ok"`)
}
