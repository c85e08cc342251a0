package geocoding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
	"github.com/peakgeo/sentinel-agent/internal/domain/providers"
	apperrors "github.com/peakgeo/sentinel-agent/pkg/errors"
)

const (
	nominatimSearchURL     = "https://nominatim.openstreetmap.org"
	defaultGeocodeCacheTTL = 30 * 24 * time.Hour
	defaultHTTPTimeout     = 10 * time.Second
)

// NominatimGeocoder implements the Geocoder using the OSM Nominatim search
// API. Nominatim's usage policy requires an identifying User-Agent on every
// request.
type NominatimGeocoder struct {
	userAgent  string
	httpClient *http.Client
	cache      providers.CacheProvider
	baseURL    string
}

// NewNominatimGeocoder creates a new Nominatim geocoder.
func NewNominatimGeocoder(userAgent string, cache providers.CacheProvider) providers.Geocoder {
	return NewNominatimGeocoderWithOptions(userAgent, cache, nominatimSearchURL, nil)
}

// NewNominatimGeocoderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewNominatimGeocoderWithOptions(userAgent string, cache providers.CacheProvider, baseURL string, httpClient *http.Client) providers.Geocoder {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = nominatimSearchURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = "sentinel_downloader"
	}
	return &NominatimGeocoder{
		userAgent:  userAgent,
		httpClient: httpClient,
		cache:      cache,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Geocode resolves a free-text place query to the first candidate's
// coordinates and display address.
func (n *NominatimGeocoder) Geocode(ctx context.Context, query string) (*entities.GeocodeResult, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, apperrors.NewValidationError("location query is required")
	}

	cacheKey := "geo:v1:search:" + hashKey(strings.ToLower(trimmed))
	if n.cache != nil {
		if cached, err := n.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			var result entities.GeocodeResult
			if err := json.Unmarshal(cached, &result); err == nil && result.DisplayName != "" {
				return &result, nil
			}
		}
	}

	candidates, err := n.doSearchRequest(ctx, trimmed)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no results for location %q", trimmed))
	}

	first := candidates[0]
	lat, err := strconv.ParseFloat(first.Lat, 64)
	if err != nil {
		return nil, apperrors.NewExternalError("geocoder returned a malformed latitude", err)
	}
	lon, err := strconv.ParseFloat(first.Lon, 64)
	if err != nil {
		return nil, apperrors.NewExternalError("geocoder returned a malformed longitude", err)
	}

	result := entities.GeocodeResult{
		Query:       trimmed,
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: first.DisplayName,
	}

	if n.cache != nil {
		if payload, err := json.Marshal(result); err == nil {
			_ = n.cache.Set(ctx, cacheKey, payload, defaultGeocodeCacheTTL)
		}
	}

	return &result, nil
}

func (n *NominatimGeocoder) doSearchRequest(ctx context.Context, query string) ([]nominatimResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	reqURL := fmt.Sprintf("%s/search?%s", n.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build geocode request", err)
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError("geocode request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, apperrors.NewRateLimitedError("geocoder rejected the request for exceeding its usage policy")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewExternalError(fmt.Sprintf("geocode request returned status %d", resp.StatusCode), nil)
	}

	var payload []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewExternalError("failed to decode geocode response", err)
	}

	return payload, nil
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// nominatim encodes coordinates as strings
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}
