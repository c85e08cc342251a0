package entities

import (
	"time"

	"github.com/paulmach/orb"
)

// Collection identifies a satellite mission family
type Collection string

const (
	// CollectionRadar selects Sentinel-1 SAR scenes
	CollectionRadar Collection = "radar"

	// CollectionOptical selects Sentinel-2 optical scenes
	CollectionOptical Collection = "optical"
)

// Label returns the human-readable mission name used in reports
func (c Collection) Label() string {
	switch c {
	case CollectionRadar:
		return "Sentinel-1"
	case CollectionOptical:
		return "Sentinel-2 L2A"
	default:
		return string(c)
	}
}

// AssetRoles returns the downloadable asset roles for the collection in
// priority order
func (c Collection) AssetRoles() []string {
	switch c {
	case CollectionRadar:
		return []string{"vv", "vh"}
	case CollectionOptical:
		return []string{"visual", "red", "green", "blue"}
	default:
		return nil
	}
}

// IsValid reports whether the collection is a known mission family
func (c Collection) IsValid() bool {
	return c == CollectionRadar || c == CollectionOptical
}

// SceneQuery describes a scene selection request around a point and date
type SceneQuery struct {
	Longitude     float64    `json:"lon"`
	Latitude      float64    `json:"lat"`
	Date          time.Time  `json:"date"`
	WindowDays    int        `json:"window_days"`
	Collection    Collection `json:"collection"`
	MaxCloudCover *float64   `json:"max_cloud_cover,omitempty"`
	SaveDir       string     `json:"save_dir,omitempty"`
}

// Center returns the instant offsets are measured against: midnight UTC of
// the query date.
func (q SceneQuery) Center() time.Time {
	return time.Date(q.Date.Year(), q.Date.Month(), q.Date.Day(), 0, 0, 0, 0, time.UTC)
}

// Window returns the inclusive acquisition window, spanning 2*WindowDays+1
// calendar days: 00:00:00Z on the first day through 23:59:59Z on the last.
func (q SceneQuery) Window() (time.Time, time.Time) {
	center := q.Center()
	start := center.AddDate(0, 0, -q.WindowDays)
	end := center.AddDate(0, 0, q.WindowDays)
	return start, time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, time.UTC)
}

// SceneAsset is a downloadable product attached to a catalog scene
type SceneAsset struct {
	Href      string `json:"href"`
	MediaType string `json:"type,omitempty"`
}

// CatalogScene is a read-only projection of a catalog item. Scenes are never
// persisted as-is; the archive stores its own projection.
type CatalogScene struct {
	ID         string                 `json:"id"`
	Collection string                 `json:"collection"`
	Acquired   *time.Time             `json:"acquired,omitempty"`
	CloudCover *float64               `json:"cloud_cover,omitempty"`
	Assets     map[string]SceneAsset  `json:"assets"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Bound      *orb.Bound             `json:"-"`
}

// Asset returns the asset for a role, if the scene carries one
func (s *CatalogScene) Asset(role string) (SceneAsset, bool) {
	asset, ok := s.Assets[role]
	return asset, ok
}

// Footprint returns the scene's center point, falling back to zero when the
// catalog item carried no bounding box.
func (s *CatalogScene) Footprint() orb.Point {
	if s.Bound == nil {
		return orb.Point{}
	}
	return s.Bound.Center()
}

// SelectionResult pairs the chosen scene with its distance from the query
// center. Offset is the sole ranking key during selection.
type SelectionResult struct {
	Scene  *CatalogScene `json:"scene"`
	Offset time.Duration `json:"offset_seconds"`
}
