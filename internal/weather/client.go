package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/childcare-site/pkg/logging"
)

const defaultTimeout = 8 * time.Second

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("weather: api key not configured")

// Query selects a location and presentation.
type Query struct {
	Lat   float64
	Lon   float64
	Units string
	Lang  string
}

func (q Query) key() string {
	return fmt.Sprintf("%.2f,%.2f:%s:%s", q.Lat, q.Lon, q.Units, q.Lang)
}

// Report is the current conditions shown by the site widget.
type Report struct {
	Location    string    `json:"location"`
	Temperature float64   `json:"temperature"`
	FeelsLike   float64   `json:"feels_like"`
	Humidity    int       `json:"humidity"`
	WindSpeed   float64   `json:"wind_speed"`
	Condition   string    `json:"condition"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Units       string    `json:"units"`
	ObservedAt  time.Time `json:"observed_at"`
}

// Fetcher loads current conditions.
type Fetcher interface {
	Current(ctx context.Context, q Query) (*Report, error)
}

// Client calls the OpenWeatherMap current weather endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates an OpenWeatherMap client.
func NewClient(baseURL, apiKey string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
}

type owmResponse struct {
	Name string `json:"name"`
	Dt   int64  `json:"dt"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}

// Current implements Fetcher.
func (c *Client) Current(ctx context.Context, q Query) (*Report, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(q.Lat, 'f', 4, 64))
	params.Set("lon", strconv.FormatFloat(q.Lon, 'f', 4, 64))
	params.Set("units", q.Units)
	if q.Lang != "" {
		params.Set("lang", q.Lang)
	}
	params.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("weather: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("weather: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("weather provider error", "status", resp.StatusCode)
		return nil, fmt.Errorf("weather: provider returned %d", resp.StatusCode)
	}

	var out owmResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("weather: decode: %w", err)
	}
	report := &Report{
		Location:    out.Name,
		Temperature: out.Main.Temp,
		FeelsLike:   out.Main.FeelsLike,
		Humidity:    out.Main.Humidity,
		WindSpeed:   out.Wind.Speed,
		Units:       q.Units,
		ObservedAt:  time.Unix(out.Dt, 0).UTC(),
	}
	if len(out.Weather) > 0 {
		report.Condition = out.Weather[0].Main
		report.Description = out.Weather[0].Description
		report.Icon = out.Weather[0].Icon
	}
	return report, nil
}
