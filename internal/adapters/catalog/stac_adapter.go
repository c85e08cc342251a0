package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
	"github.com/peakgeo/sentinel-agent/internal/domain/providers"
	apperrors "github.com/peakgeo/sentinel-agent/pkg/errors"
)

const (
	defaultHTTPTimeout = 30 * time.Second
)

// STACAdapter implements the SceneCatalog against a STAC API search
// endpoint. A search issues exactly one POST and returns the first page in
// the catalog's order; callers never paginate further.
type STACAdapter struct {
	baseURL    string
	httpClient *http.Client
}

// NewSTACAdapter creates a new STAC catalog adapter.
func NewSTACAdapter(baseURL string) providers.SceneCatalog {
	return NewSTACAdapterWithOptions(baseURL, nil)
}

// NewSTACAdapterWithOptions allows overriding the HTTP client (used for tests).
func NewSTACAdapterWithOptions(baseURL string, httpClient *http.Client) providers.SceneCatalog {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &STACAdapter{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Search runs one catalog search. The cloud cover ceiling, when present, is
// sent as a server-side query filter rather than applied to the response.
func (a *STACAdapter) Search(ctx context.Context, params providers.SceneSearch) ([]*entities.CatalogScene, error) {
	request := searchRequest{
		Collections: []string{params.Collection},
		BBox: [4]float64{
			params.Bound.Min.X(),
			params.Bound.Min.Y(),
			params.Bound.Max.X(),
			params.Bound.Max.Y(),
		},
		Datetime: params.Start.UTC().Format(time.RFC3339) + "/" + params.End.UTC().Format(time.RFC3339),
		Limit:    params.Limit,
	}
	if params.MaxCloudCover != nil {
		request.Query = &searchQuery{
			CloudCover: &cloudFilter{Lt: *params.MaxCloudCover},
		}
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode catalog search", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build catalog search request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/geo+json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError("catalog search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, apperrors.NewRateLimitedError("catalog rejected the search for exceeding its usage policy")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewExternalError(fmt.Sprintf("catalog search returned status %d", resp.StatusCode), nil)
	}

	var collection featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		return nil, apperrors.NewExternalError("failed to decode catalog response", err)
	}

	scenes := make([]*entities.CatalogScene, 0, len(collection.Features))
	for _, feature := range collection.Features {
		scenes = append(scenes, mapFeature(feature))
	}
	return scenes, nil
}

// mapFeature converts one catalog feature into the domain projection.
// Response order is preserved by the caller; it is the tie-break during
// selection.
func mapFeature(feature stacFeature) *entities.CatalogScene {
	scene := &entities.CatalogScene{
		ID:         feature.ID,
		Collection: feature.Collection,
		Properties: feature.Properties,
		Assets:     make(map[string]entities.SceneAsset, len(feature.Assets)),
		Bound:      featureBound(feature),
	}

	for role, asset := range feature.Assets {
		scene.Assets[role] = entities.SceneAsset{
			Href:      asset.Href,
			MediaType: asset.Type,
		}
	}

	scene.Acquired = acquiredTime(feature.Properties)
	scene.CloudCover = cloudCover(feature.Properties)
	return scene
}

// acquiredTime parses the item datetime; items without one return nil so the
// selector can sort them last.
func acquiredTime(properties map[string]interface{}) *time.Time {
	raw, ok := properties["datetime"]
	if !ok || raw == nil {
		return nil
	}
	text, ok := raw.(string)
	if !ok || text == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return nil
	}
	utc := parsed.UTC()
	return &utc
}

func cloudCover(properties map[string]interface{}) *float64 {
	raw, ok := properties["eo:cloud_cover"]
	if !ok || raw == nil {
		return nil
	}
	value, ok := raw.(float64)
	if !ok {
		return nil
	}
	return &value
}

// featureBound prefers the item bbox and falls back to the geometry's bound
func featureBound(feature stacFeature) *orb.Bound {
	if len(feature.BBox) >= 6 {
		bound := orb.Bound{
			Min: orb.Point{feature.BBox[0], feature.BBox[1]},
			Max: orb.Point{feature.BBox[3], feature.BBox[4]},
		}
		return &bound
	}
	if len(feature.BBox) >= 4 {
		bound := orb.Bound{
			Min: orb.Point{feature.BBox[0], feature.BBox[1]},
			Max: orb.Point{feature.BBox[2], feature.BBox[3]},
		}
		return &bound
	}
	if feature.Geometry != nil {
		bound := feature.Geometry.Geometry().Bound()
		return &bound
	}
	return nil
}

type cloudFilter struct {
	Lt float64 `json:"lt"`
}

type searchQuery struct {
	CloudCover *cloudFilter `json:"eo:cloud_cover,omitempty"`
}

type searchRequest struct {
	Collections []string     `json:"collections"`
	BBox        [4]float64   `json:"bbox"`
	Datetime    string       `json:"datetime"`
	Limit       int          `json:"limit"`
	Query       *searchQuery `json:"query,omitempty"`
}

type stacAsset struct {
	Href string `json:"href"`
	Type string `json:"type,omitempty"`
}

type stacFeature struct {
	ID         string                 `json:"id"`
	Collection string                 `json:"collection"`
	BBox       []float64              `json:"bbox"`
	Geometry   *geojson.Geometry      `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
	Assets     map[string]stacAsset   `json:"assets"`
}

type featureCollection struct {
	Type     string        `json:"type"`
	Features []stacFeature `json:"features"`
}
