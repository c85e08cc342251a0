package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
	"github.com/peakgeo/sentinel-agent/internal/domain/repositories"
	tsclient "github.com/peakgeo/sentinel-agent/internal/infrastructure/clients/typesense"
)

const defaultArchiveLimit = 10

// ArchiveAdapter implements the downloaded-scene index using Typesense
type ArchiveAdapter struct {
	client *tsclient.Client
}

// Ensure ArchiveAdapter implements SceneArchiveRepository
var _ repositories.SceneArchiveRepository = (*ArchiveAdapter)(nil)

// NewArchiveAdapter creates a new scene archive adapter
func NewArchiveAdapter(client *tsclient.Client) *ArchiveAdapter {
	return &ArchiveAdapter{client: client}
}

// EnsureCollection makes sure the scenes collection exists
func (a *ArchiveAdapter) EnsureCollection(ctx context.Context) error {
	return a.client.InitSchema(ctx)
}

// Index upserts one archived scene into the index
func (a *ArchiveAdapter) Index(ctx context.Context, scene *entities.ArchivedScene) error {
	if scene == nil {
		return fmt.Errorf("archived scene is nil")
	}

	document := buildArchiveDocument(scene)
	if _, err := a.client.Client().Collection(tsclient.ScenesCollection).Documents().Upsert(ctx, document); err != nil {
		return fmt.Errorf("failed to index scene: %w", err)
	}

	return nil
}

// Search queries the archive by scene id or mission text, newest first
func (a *ArchiveAdapter) Search(ctx context.Context, query repositories.ArchiveQuery) ([]*entities.ArchivedScene, error) {
	q := strings.TrimSpace(query.Query)
	if q == "" {
		q = "*"
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultArchiveLimit
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String("scene_id,mission"),
		PerPage: pointer.Int(limit),
		SortBy:  pointer.String("downloaded_at:desc"),
	}
	if filter := buildArchiveFilter(query); filter != "" {
		searchParams.FilterBy = pointer.String(filter)
	}

	result, err := a.client.Client().Collection(tsclient.ScenesCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search scene archive: %w", err)
	}

	scenes := []*entities.ArchivedScene{}
	if result.Hits == nil {
		return scenes, nil
	}

	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		scenes = append(scenes, archivedSceneFromDocument(*hit.Document))
	}

	return scenes, nil
}

// buildArchiveDocument flattens an archived scene into an index document
func buildArchiveDocument(scene *entities.ArchivedScene) map[string]interface{} {
	return map[string]interface{}{
		"id":            scene.ID,
		"scene_id":      scene.SceneID,
		"collection":    scene.Collection,
		"mission":       scene.Mission,
		"acquired":      scene.Acquired,
		"cloud_cover":   scene.CloudCover,
		"location":      scene.Location,
		"roles":         scene.Roles,
		"paths":         scene.Paths,
		"downloaded_at": scene.DownloadedAt,
	}
}

// buildArchiveFilter renders the facet filter for an archive query
func buildArchiveFilter(query repositories.ArchiveQuery) string {
	if query.Collection == "" {
		return ""
	}
	return fmt.Sprintf("collection:=%s", query.Collection)
}

// archivedSceneFromDocument reconstructs an entity from an index hit. Numbers
// come back as float64 after the JSON round trip.
func archivedSceneFromDocument(doc map[string]interface{}) *entities.ArchivedScene {
	scene := &entities.ArchivedScene{}

	if v, ok := doc["id"].(string); ok {
		scene.ID = v
	}
	if v, ok := doc["scene_id"].(string); ok {
		scene.SceneID = v
	}
	if v, ok := doc["collection"].(string); ok {
		scene.Collection = v
	}
	if v, ok := doc["mission"].(string); ok {
		scene.Mission = v
	}
	if v, ok := doc["acquired"].(float64); ok {
		scene.Acquired = int64(v)
	}
	if v, ok := doc["cloud_cover"].(float64); ok {
		scene.CloudCover = v
	}
	if v, ok := doc["location"].([]interface{}); ok {
		for _, coord := range v {
			if f, ok := coord.(float64); ok {
				scene.Location = append(scene.Location, f)
			}
		}
	}
	scene.Roles = stringSlice(doc["roles"])
	scene.Paths = stringSlice(doc["paths"])
	if v, ok := doc["downloaded_at"].(float64); ok {
		scene.DownloadedAt = int64(v)
	}

	return scene
}

func stringSlice(value interface{}) []string {
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}

	result := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}
