package weather

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/wolfman30/childcare-site/internal/locale"
	"github.com/wolfman30/childcare-site/pkg/logging"
)

var validUnits = map[string]bool{"standard": true, "metric": true, "imperial": true}

// Handler serves the weather widget from a cache in front of a Fetcher.
type Handler struct {
	fetcher Fetcher
	cache   *Cache[*Report]
	logger  *logging.Logger
}

// NewHandler wires the weather endpoint.
func NewHandler(fetcher Fetcher, cache *Cache[*Report], logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{fetcher: fetcher, cache: cache, logger: logger}
}

// Current handles GET /api/weather?lat=&lon=&units=.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	q.Lang = locale.CodeFromContext(r.Context())

	key := q.key()
	if report, ok := h.cache.Get(key); ok {
		w.Header().Set("X-Cache", "HIT")
		writeJSON(w, http.StatusOK, report)
		return
	}

	report, err := h.fetcher.Current(r.Context(), q)
	if errors.Is(err, ErrNotConfigured) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "weather unavailable"})
		return
	}
	if err != nil {
		h.logger.Error("weather lookup failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "weather unavailable"})
		return
	}
	h.cache.Set(key, report)
	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, report)
}

func parseQuery(r *http.Request) (Query, error) {
	values := r.URL.Query()
	lat, err := strconv.ParseFloat(values.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return Query{}, errors.New("lat must be between -90 and 90")
	}
	lon, err := strconv.ParseFloat(values.Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		return Query{}, errors.New("lon must be between -180 and 180")
	}
	units := strings.ToLower(strings.TrimSpace(values.Get("units")))
	if units == "" {
		units = "imperial"
	}
	if !validUnits[units] {
		return Query{}, errors.New("units must be standard, metric or imperial")
	}
	return Query{Lat: lat, Lon: lon, Units: units}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
