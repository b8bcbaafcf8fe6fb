package airquality

import (
	"context"
	"net/http"

	"github.com/UnknownOlympus/aether/internal/models"
)

// Provider fetches the current air pollution reading for a location.
// A nil reading always comes with an *apierror.ProviderError.
type Provider interface {
	AirPollution(ctx context.Context, coords models.Coordinates, apiKey string) (*models.Reading, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
