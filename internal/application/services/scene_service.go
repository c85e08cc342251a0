package services

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
	"github.com/peakgeo/sentinel-agent/internal/domain/providers"
	"github.com/peakgeo/sentinel-agent/internal/domain/repositories"
	"github.com/peakgeo/sentinel-agent/internal/infrastructure/observability"
	apperrors "github.com/peakgeo/sentinel-agent/pkg/errors"
)

// maxOffset pushes undated scenes behind every dated candidate
const maxOffset = time.Duration(math.MaxInt64)

// SceneServiceOptions carries the search and storage defaults applied to
// queries that leave them unset
type SceneServiceOptions struct {
	RadarCollectionID   string
	OpticalCollectionID string
	SearchRadiusDeg     float64
	MaxCandidates       int
	DefaultWindowDays   int
	DefaultMaxCloud     float64
	DefaultSaveDir      string
}

// DefaultSceneServiceOptions mirrors the public Earth Search collection ids
// and the fixed search defaults
func DefaultSceneServiceOptions() SceneServiceOptions {
	return SceneServiceOptions{
		RadarCollectionID:   "sentinel-1-grd",
		OpticalCollectionID: "sentinel-2-l2a",
		SearchRadiusDeg:     0.2,
		MaxCandidates:       50,
		DefaultWindowDays:   10,
		DefaultMaxCloud:     20,
		DefaultSaveDir:      "downloads",
	}
}

// SceneService runs the locate-select-download pipeline
type SceneService struct {
	catalog     providers.SceneCatalog
	fetcher     providers.AssetFetcher
	historyRepo repositories.FetchRequestRepository
	archiveRepo repositories.SceneArchiveRepository
	eventBus    providers.EventBus
	metrics     *observability.Metrics
	opts        SceneServiceOptions
}

// NewSceneService creates a new scene service. History, archive, event bus
// and metrics are optional; passing nil disables the concern.
func NewSceneService(
	catalog providers.SceneCatalog,
	fetcher providers.AssetFetcher,
	historyRepo repositories.FetchRequestRepository,
	archiveRepo repositories.SceneArchiveRepository,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
	opts SceneServiceOptions,
) *SceneService {
	return &SceneService{
		catalog:     catalog,
		fetcher:     fetcher,
		historyRepo: historyRepo,
		archiveRepo: archiveRepo,
		eventBus:    eventBus,
		metrics:     metrics,
		opts:        opts,
	}
}

// Locate finds the catalog scene closest in time to the query date. A nil
// result with a nil error means the window held no scenes; per the error
// taxonomy that is a reportable outcome, not a failure.
func (s *SceneService) Locate(ctx context.Context, query entities.SceneQuery) (*entities.SelectionResult, error) {
	query, err := s.normalizeQuery(query)
	if err != nil {
		return nil, err
	}
	return s.locate(ctx, query)
}

// Download runs the full pipeline: locate, fetch every planned asset role,
// render the report. Recoverable conditions (no scene, absent assets, failed
// transfers) land inside the report; the error return is reserved for invalid
// input and catalog transport failures.
func (s *SceneService) Download(ctx context.Context, query entities.SceneQuery) (*entities.DownloadReport, error) {
	query, err := s.normalizeQuery(query)
	if err != nil {
		return nil, err
	}

	request := s.beginRequest(ctx, query)

	selection, err := s.locate(ctx, query)
	if err != nil {
		request.Report = err.Error()
		s.finishRequest(ctx, request, nil, entities.FetchStatusFailed)
		return nil, err
	}

	report := &entities.DownloadReport{RequestID: request.ID, Query: query}

	if selection == nil {
		report.Message = renderNoScene(query)
		s.publishEvent(ctx, entities.NewDownloadEvent(request.ID, "", "", entities.DownloadEventSceneMissing, nil))
		s.finishRequest(ctx, request, report, entities.FetchStatusNoScene)
		return report, nil
	}

	scene := selection.Scene
	report.Scene = scene
	s.publishEvent(ctx, entities.NewDownloadEvent(request.ID, scene.ID, "", entities.DownloadEventSceneSelected, map[string]interface{}{
		"offset_seconds": selection.Offset.Seconds(),
	}))

	roles, ok := rolePlan(query.Collection, scene)
	if !ok {
		report.Message = renderNoAssets()
		s.finishRequest(ctx, request, report, entities.FetchStatusNoAssets)
		return report, nil
	}

	for _, role := range roles {
		s.publishEvent(ctx, entities.NewDownloadEvent(request.ID, scene.ID, role, entities.DownloadEventAssetQueued, nil))

		outcome := s.fetcher.Fetch(ctx, scene, role, query.SaveDir)
		report.Outcomes = append(report.Outcomes, outcome)

		if outcome.Succeeded() {
			s.publishEvent(ctx, entities.NewDownloadEvent(request.ID, scene.ID, role, entities.DownloadEventAssetDone, map[string]interface{}{
				"path": outcome.Path,
			}))
		} else {
			s.publishEvent(ctx, entities.NewDownloadEvent(request.ID, scene.ID, role, entities.DownloadEventAssetFailed, map[string]interface{}{
				"detail": outcome.Describe(),
			}))
		}
	}

	report.Message = renderReport(query, scene, report.Outcomes)

	status := entities.FetchStatusCompleted
	if report.SuccessCount() == 0 {
		status = entities.FetchStatusFailed
	}

	s.archiveScene(ctx, query, report)
	s.finishRequest(ctx, request, report, status)

	return report, nil
}

// ListRequests returns recent fetch requests, newest first
func (s *SceneService) ListRequests(ctx context.Context, limit int) ([]*entities.FetchRequest, error) {
	if s.historyRepo == nil {
		return []*entities.FetchRequest{}, nil
	}
	return s.historyRepo.ListRecent(ctx, limit)
}

// GetRequest returns one fetch request by id
func (s *SceneService) GetRequest(ctx context.Context, id string) (*entities.FetchRequest, error) {
	if s.historyRepo == nil {
		return nil, apperrors.NewNotFoundError("request history is not configured")
	}
	return s.historyRepo.GetByID(ctx, id)
}

// SearchArchive queries the downloaded-scene index
func (s *SceneService) SearchArchive(ctx context.Context, query repositories.ArchiveQuery) ([]*entities.ArchivedScene, error) {
	if s.archiveRepo == nil {
		return []*entities.ArchivedScene{}, nil
	}
	return s.archiveRepo.Search(ctx, query)
}

// normalizeQuery validates the query and fills unset fields with the
// configured defaults. Radar queries never carry a cloud ceiling.
func (s *SceneService) normalizeQuery(query entities.SceneQuery) (entities.SceneQuery, error) {
	if !query.Collection.IsValid() {
		return query, apperrors.NewValidationError("unknown collection: " + string(query.Collection))
	}
	if query.Longitude < -180 || query.Longitude > 180 {
		return query, apperrors.NewValidationError("longitude must be between -180 and 180")
	}
	if query.Latitude < -90 || query.Latitude > 90 {
		return query, apperrors.NewValidationError("latitude must be between -90 and 90")
	}
	if query.Date.IsZero() {
		return query, apperrors.NewValidationError("date is required")
	}

	if query.WindowDays <= 0 {
		query.WindowDays = s.opts.DefaultWindowDays
	}
	if query.SaveDir == "" {
		query.SaveDir = s.opts.DefaultSaveDir
	}

	switch query.Collection {
	case entities.CollectionRadar:
		query.MaxCloudCover = nil
	case entities.CollectionOptical:
		if query.MaxCloudCover == nil {
			maxCloud := s.opts.DefaultMaxCloud
			query.MaxCloudCover = &maxCloud
		}
	}

	return query, nil
}

func (s *SceneService) locate(ctx context.Context, query entities.SceneQuery) (*entities.SelectionResult, error) {
	start, end := query.Window()

	searchStart := time.Now()
	scenes, err := s.catalog.Search(ctx, providers.SceneSearch{
		Collection:    s.collectionID(query.Collection),
		Bound:         s.searchBound(query),
		Start:         start,
		End:           end,
		MaxCloudCover: query.MaxCloudCover,
		Limit:         s.opts.MaxCandidates,
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		observability.RecordSearchMetric(ctx, s.metrics, string(query.Collection), len(scenes), time.Since(searchStart))
	}

	return selectScene(scenes, query.Center()), nil
}

func (s *SceneService) collectionID(collection entities.Collection) string {
	if collection == entities.CollectionRadar {
		return s.opts.RadarCollectionID
	}
	return s.opts.OpticalCollectionID
}

func (s *SceneService) searchBound(query entities.SceneQuery) orb.Bound {
	r := s.opts.SearchRadiusDeg
	return orb.Bound{
		Min: orb.Point{query.Longitude - r, query.Latitude - r},
		Max: orb.Point{query.Longitude + r, query.Latitude + r},
	}
}

// beginRequest creates the history record for a run. Recording is
// best-effort: a history failure never blocks the download itself.
func (s *SceneService) beginRequest(ctx context.Context, query entities.SceneQuery) *entities.FetchRequest {
	request := &entities.FetchRequest{
		ID:            uuid.New().String(),
		Collection:    query.Collection,
		Longitude:     query.Longitude,
		Latitude:      query.Latitude,
		QueryDate:     query.Center(),
		WindowDays:    query.WindowDays,
		MaxCloudCover: query.MaxCloudCover,
		Status:        entities.FetchStatusPending,
		CreatedAt:     time.Now(),
	}

	if s.historyRepo != nil {
		if err := s.historyRepo.Create(ctx, request); err != nil {
			log.Printf("Warning: Failed to record fetch request %s: %v", request.ID, err)
		}
	}

	return request
}

func (s *SceneService) finishRequest(ctx context.Context, request *entities.FetchRequest, report *entities.DownloadReport, status entities.FetchStatus) {
	request.Status = status
	if report != nil {
		request.Report = report.Message
		if report.Scene != nil {
			sceneID := report.Scene.ID
			request.SceneID = &sceneID
		}
	}

	if s.historyRepo == nil {
		return
	}
	if err := s.historyRepo.Complete(ctx, request); err != nil {
		log.Printf("Warning: Failed to complete fetch request %s: %v", request.ID, err)
	}
}

// publishEvent fans one progress event out to the global downloads channel
// and the request's own channel
func (s *SceneService) publishEvent(ctx context.Context, event *entities.DownloadEvent) {
	if s.eventBus == nil {
		return
	}

	channels := []string{providers.EventChannelDownloads, providers.GetRequestChannel(event.RequestID)}
	for _, channel := range channels {
		if err := s.eventBus.Publish(ctx, channel, event); err != nil {
			log.Printf("Warning: Failed to publish download event to %s: %v", channel, err)
		}
	}
}

// archiveScene indexes the scene in the archive when at least one asset
// landed on disk. Indexing is best-effort: a search-index failure never
// fails the download.
func (s *SceneService) archiveScene(ctx context.Context, query entities.SceneQuery, report *entities.DownloadReport) {
	if s.archiveRepo == nil || report.SuccessCount() == 0 {
		return
	}

	if err := s.archiveRepo.Index(ctx, buildArchivedScene(query, report)); err != nil {
		log.Printf("Warning: Failed to index scene %s in archive: %v", report.Scene.ID, err)
	}
}

// rolePlan returns the asset roles to fetch for the chosen scene. Radar
// always attempts both polarizations and reports absence per role; optical
// fetches only the bands actually present, and none present is a distinct
// outcome with zero downloads.
func rolePlan(collection entities.Collection, scene *entities.CatalogScene) ([]string, bool) {
	roles := collection.AssetRoles()
	if collection == entities.CollectionRadar {
		return roles, true
	}

	present := make([]string, 0, len(roles))
	for _, role := range roles {
		if _, ok := scene.Asset(role); ok {
			present = append(present, role)
		}
	}
	return present, len(present) > 0
}

// selectScene picks the scene whose acquisition time is closest to center.
// Undated scenes sort last; ties keep the catalog's response order.
func selectScene(scenes []*entities.CatalogScene, center time.Time) *entities.SelectionResult {
	if len(scenes) == 0 {
		return nil
	}

	best := scenes[0]
	bestOffset := centerOffset(best, center)
	for _, scene := range scenes[1:] {
		if offset := centerOffset(scene, center); offset < bestOffset {
			best, bestOffset = scene, offset
		}
	}

	return &entities.SelectionResult{Scene: best, Offset: bestOffset}
}

func centerOffset(scene *entities.CatalogScene, center time.Time) time.Duration {
	if scene.Acquired == nil {
		return maxOffset
	}
	offset := scene.Acquired.Sub(center)
	if offset < 0 {
		offset = -offset
	}
	return offset
}

// buildArchivedScene projects a finished download into its archive document.
// The geopoint falls back to the query coordinates when the catalog item
// carried no footprint.
func buildArchivedScene(query entities.SceneQuery, report *entities.DownloadReport) *entities.ArchivedScene {
	scene := report.Scene

	point := scene.Footprint()
	lat, lon := point.Y(), point.X()
	if scene.Bound == nil {
		lat, lon = query.Latitude, query.Longitude
	}

	archived := &entities.ArchivedScene{
		ID:           scene.ID,
		SceneID:      scene.ID,
		Collection:   string(query.Collection),
		Mission:      query.Collection.Label(),
		Location:     []float64{lat, lon},
		DownloadedAt: time.Now().Unix(),
	}
	if scene.Acquired != nil {
		archived.Acquired = scene.Acquired.Unix()
	}
	if scene.CloudCover != nil {
		archived.CloudCover = *scene.CloudCover
	}

	for _, outcome := range report.Outcomes {
		if outcome.Succeeded() {
			archived.Roles = append(archived.Roles, outcome.Role)
			archived.Paths = append(archived.Paths, outcome.Path)
		}
	}

	return archived
}
