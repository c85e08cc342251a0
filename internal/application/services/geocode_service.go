package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
	"github.com/peakgeo/sentinel-agent/internal/domain/providers"
	apperrors "github.com/peakgeo/sentinel-agent/pkg/errors"
)

// GeocodeService resolves free-text location descriptions through the
// geocoding provider
type GeocodeService struct {
	geocoder providers.Geocoder
}

// NewGeocodeService creates a new geocode service
func NewGeocodeService(geocoder providers.Geocoder) *GeocodeService {
	return &GeocodeService{geocoder: geocoder}
}

// Resolve geocodes a location query to its best-match coordinates
func (s *GeocodeService) Resolve(ctx context.Context, query string) (*entities.GeocodeResult, error) {
	return s.geocoder.Geocode(ctx, query)
}

// ResolveText renders the geocode outcome as plain text. No match and
// service errors come back as descriptive strings rather than faults; both
// are recoverable by the user rephrasing or retrying.
func (s *GeocodeService) ResolveText(ctx context.Context, query string) string {
	result, err := s.geocoder.Geocode(ctx, query)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Type == apperrors.ErrorTypeNotFound {
			return fmt.Sprintf("No results for location %q. Try a more specific query.", query)
		}
		return fmt.Sprintf("Geocoding error: %v", err)
	}

	return fmt.Sprintf("Latitude: %g, Longitude: %g\nAddress: %s", result.Latitude, result.Longitude, result.DisplayName)
}
