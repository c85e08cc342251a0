package repositories

import (
	"context"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
)

// ArchiveQuery describes a scene archive search. Query matches scene id and
// mission text; Collection narrows to one mission family when non-empty.
type ArchiveQuery struct {
	Query      string
	Collection string
	Limit      int
}

// SceneArchiveRepository defines the interface for the downloaded-scene
// search index.
type SceneArchiveRepository interface {
	EnsureCollection(ctx context.Context) error
	Index(ctx context.Context, scene *entities.ArchivedScene) error
	Search(ctx context.Context, query ArchiveQuery) ([]*entities.ArchivedScene, error)
}
