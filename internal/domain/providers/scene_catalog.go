package providers

import (
	"context"
	"time"

	"github.com/paulmach/orb"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
)

// SceneSearch describes one catalog query. Collection is the catalog's own
// collection id, not the mission enum. MaxCloudCover, when set, must be
// applied by the catalog server, not filtered client-side.
type SceneSearch struct {
	Collection    string
	Bound         orb.Bound
	Start         time.Time
	End           time.Time
	MaxCloudCover *float64
	Limit         int
}

// SceneCatalog defines the interface for spatiotemporal catalog search.
// Implementations issue a single request and return the first page in the
// catalog's response order.
type SceneCatalog interface {
	Search(ctx context.Context, params SceneSearch) ([]*entities.CatalogScene, error)
}
