package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
	"github.com/peakgeo/sentinel-agent/internal/domain/providers"
	apperrors "github.com/peakgeo/sentinel-agent/pkg/errors"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleGeocoder implements the Geocoder using the Google Maps Geocoding API.
// It is the keyed alternative to Nominatim for deployments that already carry
// a Maps API key.
type GoogleGeocoder struct {
	apiKey     string
	httpClient *http.Client
	cache      providers.CacheProvider
	baseURL    string
}

// NewGoogleGeocoder creates a new Google Maps geocoder.
func NewGoogleGeocoder(apiKey string, cache providers.CacheProvider) providers.Geocoder {
	return NewGoogleGeocoderWithOptions(apiKey, cache, googleGeocodeURL, nil)
}

// NewGoogleGeocoderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewGoogleGeocoderWithOptions(apiKey string, cache providers.CacheProvider, baseURL string, httpClient *http.Client) providers.Geocoder {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = googleGeocodeURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &GoogleGeocoder{
		apiKey:     apiKey,
		httpClient: httpClient,
		cache:      cache,
		baseURL:    baseURL,
	}
}

// Geocode resolves a free-text place query to the first candidate's
// coordinates and formatted address.
func (g *GoogleGeocoder) Geocode(ctx context.Context, query string) (*entities.GeocodeResult, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, apperrors.NewValidationError("location query is required")
	}
	if g.apiKey == "" {
		return nil, apperrors.NewInternalError("google maps api key is required", nil)
	}

	cacheKey := "geo:v1:google:" + hashKey(strings.ToLower(trimmed))
	if g.cache != nil {
		if cached, err := g.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			var result entities.GeocodeResult
			if err := json.Unmarshal(cached, &result); err == nil && result.DisplayName != "" {
				return &result, nil
			}
		}
	}

	payload, err := g.doGeocodeRequest(ctx, trimmed)
	if err != nil {
		return nil, err
	}

	if payload.Status == "ZERO_RESULTS" || len(payload.Results) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no results for location %q", trimmed))
	}

	first := payload.Results[0]
	result := entities.GeocodeResult{
		Query:       trimmed,
		Latitude:    first.Geometry.Location.Lat,
		Longitude:   first.Geometry.Location.Lng,
		DisplayName: first.FormattedAddress,
	}

	if g.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			_ = g.cache.Set(ctx, cacheKey, data, defaultGeocodeCacheTTL)
		}
	}

	return &result, nil
}

func (g *GoogleGeocoder) doGeocodeRequest(ctx context.Context, query string) (*googleGeocodeResponse, error) {
	params := url.Values{}
	params.Set("address", query)
	params.Set("key", g.apiKey)

	reqURL := fmt.Sprintf("%s?%s", g.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build geocode request", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError("geocode request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewExternalError(fmt.Sprintf("geocode request returned status %d", resp.StatusCode), nil)
	}

	var payload googleGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewExternalError("failed to decode geocode response", err)
	}

	// The Maps API signals quota and auth failures in the body, not the
	// HTTP status
	switch payload.Status {
	case "OK", "ZERO_RESULTS":
		return &payload, nil
	case "OVER_QUERY_LIMIT":
		return nil, apperrors.NewRateLimitedError("geocoder rejected the request for exceeding its quota")
	default:
		if payload.ErrorMessage != "" {
			return nil, apperrors.NewExternalError(fmt.Sprintf("geocode request failed: %s - %s", payload.Status, payload.ErrorMessage), nil)
		}
		return nil, apperrors.NewExternalError(fmt.Sprintf("geocode request failed: %s", payload.Status), nil)
	}
}

type googleGeocodeResponse struct {
	Status       string                `json:"status"`
	ErrorMessage string                `json:"error_message,omitempty"`
	Results      []googleGeocodeResult `json:"results"`
}

type googleGeocodeResult struct {
	FormattedAddress string         `json:"formatted_address"`
	Geometry         googleGeometry `json:"geometry"`
}

type googleGeometry struct {
	Location googleLocation `json:"location"`
}

type googleLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
