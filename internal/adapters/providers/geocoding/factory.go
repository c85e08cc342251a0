package geocoding

import (
	"net/http"
	"time"

	"github.com/peakgeo/sentinel-agent/internal/domain/providers"
	"github.com/peakgeo/sentinel-agent/pkg/config"
)

// NewGeocoderFromConfig selects the geocoding backend from configuration.
// Nominatim needs no credentials, so it also serves as the fallback when a
// Google provider is requested without an API key.
func NewGeocoderFromConfig(cfg config.GeocoderConfig, cache providers.CacheProvider) providers.Geocoder {
	var httpClient *http.Client
	if cfg.TimeoutSeconds > 0 {
		httpClient = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	}

	switch cfg.Provider {
	case "mock":
		return NewMockGeocoder()
	case "google":
		if cfg.GoogleAPIKey != "" {
			return NewGoogleGeocoderWithOptions(cfg.GoogleAPIKey, cache, "", httpClient)
		}
		return NewNominatimGeocoderWithOptions(cfg.UserAgent, cache, "", httpClient)
	default:
		return NewNominatimGeocoderWithOptions(cfg.UserAgent, cache, cfg.BaseURL, httpClient)
	}
}
