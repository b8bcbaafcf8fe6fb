package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/UnknownOlympus/aether/internal/apierror"
	"github.com/UnknownOlympus/aether/internal/models"
	"golang.org/x/time/rate"
	"googlemaps.github.io/maps"
)

const (
	// GoogleProviderName labels the Google Maps provider in errors and metrics.
	GoogleProviderName = "google"
	// GoogleBaseURL is the host of the Google Maps Geocoding API.
	GoogleBaseURL = "https://maps.googleapis.com"
)

// GoogleProvider is a struct that builds Google Maps API clients for the caller's
// key and a logger for logging purposes. It is used to interact with the
// Google Maps geocoding services.
type GoogleProvider struct {
	newClient ClientFactory // newClient builds a client bound to one API key
	log       *slog.Logger  // log is the logger for logging operations
}

type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// ClientFactory creates a Google Maps client authenticated with apiKey.
type ClientFactory func(apiKey string) (GoogleAPIClient, error)

// GoogleConfig holds the settings shared by every client the factory creates.
type GoogleConfig struct {
	BaseURL   string        // BaseURL overrides the Google Maps host, used against fakes.
	RateLimit int           // RateLimit is the requests per second shared by all clients, zero disables it.
	Timeout   time.Duration // Timeout bounds a single geocoding request, zero means none.
}

// Common errors for Google provider.
var (
	// ErrEmptyResponse is returned when the Google Maps API responds with an empty result.
	ErrEmptyResponse = errors.New("get empty response from Google Maps API")
	ErrEmptyAddress  = errors.New("google provider got empty address")
	ErrEmptyAPIKey   = errors.New("API key is required for Google provider")
)

// NewGoogleProvider initializes a new GoogleProvider with the given client factory and logger.
func NewGoogleProvider(newClient ClientFactory, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{newClient: newClient, log: log}
}

// NewClientFactory returns a ClientFactory creating maps clients over one shared HTTP client.
// The HTTP client rejects non-2xx responses so they are reported as HTTP failures.
func NewClientFactory(cfg GoogleConfig) ClientFactory {
	var transport http.RoundTripper = &apierror.StatusTransport{}
	if cfg.RateLimit > 0 {
		// Clients are created per key, so the limit is enforced on the shared transport.
		transport = &limitedTransport{
			limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit),
			base:    transport,
		}
	}

	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}

	return func(apiKey string) (GoogleAPIClient, error) {
		clientOpts := []maps.ClientOption{
			maps.WithAPIKey(apiKey),
			maps.WithHTTPClient(httpClient),
		}

		if cfg.BaseURL != "" {
			clientOpts = append(clientOpts, maps.WithBaseURL(cfg.BaseURL))
		}

		client, err := maps.NewClient(clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
		}

		return client, nil
	}
}

// Geocode takes a context, an address and an API key as input, and returns the geographical
// coordinates of the first result of the Google Maps Geocoding API. Transport errors, non-2xx
// responses, a status other than "OK" and empty results all yield nil coordinates.
func (gp *GoogleProvider) Geocode(ctx context.Context, address, apiKey string) (*models.Coordinates, error) {
	if strings.TrimSpace(address) == "" {
		return nil, apierror.New(GoogleProviderName, apierror.ReasonInvalidInput, ErrEmptyAddress)
	}
	if apiKey == "" {
		return nil, apierror.New(GoogleProviderName, apierror.ReasonInvalidInput, ErrEmptyAPIKey)
	}

	gp.log.DebugContext(ctx, "Geocoding using Google Maps", "address", address)

	client, err := gp.newClient(apiKey)
	if err != nil {
		return nil, apierror.New(GoogleProviderName, apierror.ReasonInvalidInput, err)
	}

	req := maps.GeocodingRequest{Address: address}
	geocodeResponse, err := client.Geocode(ctx, &req)
	if err != nil {
		perr := apierror.Wrap(GoogleProviderName, "failed to geocode address", err)
		gp.log.WarnContext(ctx, "Google Maps geocoding failed",
			"reason", perr.Reason, "status", perr.StatusCode)

		return nil, perr
	}

	// The SDK reports ZERO_RESULTS as an empty slice without an error.
	if len(geocodeResponse) == 0 {
		return nil, apierror.New(GoogleProviderName, apierror.ReasonServiceStatus, ErrEmptyResponse)
	}
	coords := geocodeResponse[0].Geometry.Location

	gp.log.DebugContext(ctx, "Google Maps found result", "lat", coords.Lat, "lng", coords.Lng)

	return &models.Coordinates{Latitude: coords.Lat, Longitude: coords.Lng}, nil
}

// limitedTransport waits for the limiter before every request.
type limitedTransport struct {
	limiter *rate.Limiter
	base    http.RoundTripper
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	return t.base.RoundTrip(req)
}
