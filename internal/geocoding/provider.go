package geocoding

import (
	"context"

	"github.com/UnknownOlympus/aether/internal/models"
)

// Provider is an interface that defines a method for geocoding an address.
// The Geocode method takes a context, an address and the caller's API key,
// and returns the coordinates of the first match. On failure the coordinates
// are nil and the error is an *apierror.ProviderError describing the reason.
type Provider interface {
	Geocode(ctx context.Context, address, apiKey string) (*models.Coordinates, error)
}
