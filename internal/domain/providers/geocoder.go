package providers

import (
	"context"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
)

// Geocoder defines the interface for free-text place lookup. No match is a
// NOT_FOUND error, distinct from transport failures.
type Geocoder interface {
	// Geocode resolves a place name to the first candidate's coordinates
	Geocode(ctx context.Context, query string) (*entities.GeocodeResult, error)
}
