package weather

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/childcare-site/internal/locale"
	"github.com/wolfman30/childcare-site/pkg/logging"
)

type countingFetcher struct {
	calls int
	last  Query
	err   error
}

func (f *countingFetcher) Current(_ context.Context, q Query) (*Report, error) {
	f.calls++
	f.last = q
	if f.err != nil {
		return nil, f.err
	}
	return &Report{Location: "Austin", Temperature: 72, Units: q.Units}, nil
}

func serve(h *Handler, target string, lang string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if lang != "" {
		req = req.WithContext(locale.WithPreference(req.Context(), locale.Preference{Code: lang}))
	}
	rec := httptest.NewRecorder()
	h.Current(rec, req)
	return rec
}

func TestHandlerCachesByLocationAndUnits(t *testing.T) {
	f := &countingFetcher{}
	h := NewHandler(f, NewCache[*Report](time.Minute, nil), logging.Discard())

	first := serve(h, "/api/weather?lat=30.2672&lon=-97.7431", "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "imperial", f.last.Units)
	assert.Equal(t, "en", f.last.Lang)

	second := serve(h, "/api/weather?lat=30.2671&lon=-97.7432", "")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, 1, f.calls)

	var report Report
	require.NoError(t, json.NewDecoder(second.Body).Decode(&report))
	assert.Equal(t, "Austin", report.Location)

	serve(h, "/api/weather?lat=30.2672&lon=-97.7431&units=metric", "")
	serve(h, "/api/weather?lat=30.2672&lon=-97.7431", "pl")
	assert.Equal(t, 3, f.calls)
	assert.Equal(t, "pl", f.last.Lang)
}

func TestHandlerRejectsBadQuery(t *testing.T) {
	h := NewHandler(&countingFetcher{}, NewCache[*Report](time.Minute, nil), logging.Discard())
	for _, target := range []string{
		"/api/weather",
		"/api/weather?lat=91&lon=0",
		"/api/weather?lat=0&lon=-181",
		"/api/weather?lat=0&lon=0&units=kelvin",
	} {
		assert.Equal(t, http.StatusBadRequest, serve(h, target, "").Code, target)
	}
}

func TestHandlerProviderFailures(t *testing.T) {
	f := &countingFetcher{err: ErrNotConfigured}
	h := NewHandler(f, NewCache[*Report](time.Minute, nil), logging.Discard())
	assert.Equal(t, http.StatusServiceUnavailable, serve(h, "/api/weather?lat=1&lon=1", "").Code)

	f.err = errors.New("timeout")
	assert.Equal(t, http.StatusBadGateway, serve(h, "/api/weather?lat=1&lon=1", "").Code)
}
