package geocoding

import (
	"context"
	"fmt"
	"strings"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
	"github.com/peakgeo/sentinel-agent/internal/domain/providers"
	apperrors "github.com/peakgeo/sentinel-agent/pkg/errors"
)

// MockGeocoder implements a deterministic geocoder for development and tests
type MockGeocoder struct{}

// NewMockGeocoder creates a new mock geocoder
func NewMockGeocoder() providers.Geocoder {
	return &MockGeocoder{}
}

// Geocode resolves a place query against a fixed set of known locations
func (m *MockGeocoder) Geocode(ctx context.Context, query string) (*entities.GeocodeResult, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, apperrors.NewValidationError("location query is required")
	}

	known := []entities.GeocodeResult{
		{Query: "Busan", Latitude: 35.1796, Longitude: 129.0750, DisplayName: "Busan, South Korea"},
		{Query: "Seoul", Latitude: 37.5665, Longitude: 126.9780, DisplayName: "Seoul, South Korea"},
		{Query: "Tokyo", Latitude: 35.6762, Longitude: 139.6503, DisplayName: "Tokyo, Japan"},
		{Query: "San Francisco", Latitude: 37.7749, Longitude: -122.4194, DisplayName: "San Francisco, California, USA"},
		{Query: "Lagos", Latitude: 6.5244, Longitude: 3.3792, DisplayName: "Lagos, Nigeria"},
	}

	lowered := strings.ToLower(trimmed)
	for _, place := range known {
		if strings.Contains(lowered, strings.ToLower(place.Query)) {
			result := place
			result.Query = trimmed
			return &result, nil
		}
	}

	return nil, apperrors.NewNotFoundError(fmt.Sprintf("no results for location %q", trimmed))
}
