package airquality

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/UnknownOlympus/aether/internal/apierror"
	"github.com/UnknownOlympus/aether/internal/models"
	"github.com/golang/geo/s2"
	"golang.org/x/time/rate"
)

const (
	// OpenWeatherURL -- OpenWeatherMap Air Pollution API endpoint.
	OpenWeatherURL = "http://api.openweathermap.org/data/2.5/air_pollution"
	// OpenWeatherProviderName labels the OpenWeatherMap provider in errors and metrics.
	OpenWeatherProviderName = "openweathermap"
)

// OpenWeatherProvider implements Provider using the OpenWeatherMap Air Pollution API.
type OpenWeatherProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Endpoint of the air pollution API
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter
}

// Common errors for OpenWeatherMap provider.
var (
	ErrEmptyResponse      = errors.New("openweathermap API returned empty list")
	ErrMissingIndex       = errors.New("openweathermap API returned no air quality index")
	ErrInvalidCoordinates = errors.New("openweathermap provider got invalid coordinates")
	ErrEmptyAPIKey        = errors.New("API key is required for OpenWeatherMap provider")
)

// OpenWeatherMap response (only the fields the lookup needs).
// Components stay raw so one malformed value only invalidates that pollutant,
// and valid numbers are exported exactly as received.
type airPollutionResponse struct {
	List []struct {
		Main struct {
			AQI *int `json:"aqi"`
		} `json:"main"`
		Components json.RawMessage `json:"components"`
	} `json:"list"`
}

// OpenWeatherConfig holds construction settings for the provider.
type OpenWeatherConfig struct {
	BaseURL   string        // BaseURL overrides OpenWeatherURL.
	RateLimit int           // RateLimit is requests per second, zero disables limiting.
	Timeout   time.Duration // Timeout bounds a single request, zero means none.
}

// NewOpenWeatherProvider creates a new OpenWeatherMap air pollution provider.
func NewOpenWeatherProvider(cfg OpenWeatherConfig, log *slog.Logger) *OpenWeatherProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = OpenWeatherURL
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit)
	}

	return NewOpenWeatherProviderWithClient(&http.Client{Timeout: cfg.Timeout}, baseURL, limiter, log)
}

// NewOpenWeatherProviderWithClient allows injecting custom HTTP client.
func NewOpenWeatherProviderWithClient(
	client HTTPClient,
	baseURL string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		client:  client,
		baseURL: baseURL,
		log:     log,
		limiter: limiter,
	}
}

// AirPollution returns the first entry of the air pollution list for coords.
// Pollutants missing from the component mapping are returned as invalid concentrations.
func (op *OpenWeatherProvider) AirPollution(
	ctx context.Context,
	coords models.Coordinates,
	apiKey string,
) (*models.Reading, error) {
	if !s2.LatLngFromDegrees(coords.Latitude, coords.Longitude).IsValid() {
		return nil, op.fail(apierror.ReasonInvalidInput,
			fmt.Errorf("%w: lat=%f lon=%f", ErrInvalidCoordinates, coords.Latitude, coords.Longitude))
	}
	if apiKey == "" {
		return nil, op.fail(apierror.ReasonInvalidInput, ErrEmptyAPIKey)
	}

	// Rate limit
	if err := op.limiter.Wait(ctx); err != nil {
		return nil, op.fail(apierror.ReasonNetwork, fmt.Errorf("rate limit exceeded: %w", err))
	}

	op.log.DebugContext(ctx, "Fetching air pollution from OpenWeatherMap",
		"lat", coords.Latitude, "lon", coords.Longitude)

	reqURL, err := url.Parse(op.baseURL)
	if err != nil {
		return nil, op.fail(apierror.ReasonInvalidInput, fmt.Errorf("failed to parse base URL: %w", err))
	}

	query := reqURL.Query()
	query.Set("lat", coords.LatitudeString())
	query.Set("lon", coords.LongitudeString())
	query.Set("appid", apiKey)
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, op.fail(apierror.ReasonInvalidInput, fmt.Errorf("failed to create request: %w", err))
	}

	// Headers
	req.Header.Set("Accept", "application/json")

	resp, err := op.client.Do(req)
	if err != nil {
		perr := apierror.Wrap(OpenWeatherProviderName, "failed to execute air pollution request", err)
		op.log.WarnContext(ctx, "OpenWeatherMap request failed", "reason", perr.Reason)
		return nil, perr
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, apierror.MaxErrorBody))
		op.log.WarnContext(ctx, "OpenWeatherMap API error", "status", resp.StatusCode, "body", string(body))
		return nil, op.fail(apierror.ReasonHTTPStatus, &apierror.HTTPStatusError{Code: resp.StatusCode, Body: string(body)})
	}

	var result airPollutionResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, op.fail(apierror.ReasonParse, fmt.Errorf("failed to decode openweathermap response: %w", err))
	}

	if len(result.List) == 0 {
		return nil, op.fail(apierror.ReasonParse, ErrEmptyResponse)
	}

	entry := result.List[0]
	if entry.Main.AQI == nil {
		return nil, op.fail(apierror.ReasonParse, ErrMissingIndex)
	}

	reading := &models.Reading{
		AQI:        *entry.Main.AQI,
		Components: make(map[models.Pollutant]models.Concentration, len(models.Pollutants)),
	}
	components := op.components(ctx, entry.Components)
	for _, pollutant := range models.Pollutants {
		value, ok := components[pollutant.Key()]
		if !ok {
			op.log.DebugContext(ctx, "Pollutant missing from response", "pollutant", pollutant.Key())
		}
		// Anything but a bare JSON number (string, bool, object, null) fails to parse and is N/A.
		reading.Components[pollutant] = models.ParseConcentration(string(bytes.TrimSpace(value)))
	}

	op.log.InfoContext(ctx, "OpenWeatherMap returned reading", "aqi", reading.AQI,
		"lat", coords.Latitude, "lon", coords.Longitude)

	return reading, nil
}

// components decodes the component mapping. A mapping that is not an object yields no values.
func (op *OpenWeatherProvider) components(ctx context.Context, raw json.RawMessage) map[string]json.RawMessage {
	if len(raw) == 0 {
		return nil
	}

	var components map[string]json.RawMessage
	if err := json.Unmarshal(raw, &components); err != nil {
		op.log.DebugContext(ctx, "Malformed components in response", "error", err)
		return nil
	}

	return components
}

func (op *OpenWeatherProvider) fail(reason apierror.Reason, err error) *apierror.ProviderError {
	return apierror.New(OpenWeatherProviderName, reason, err)
}
