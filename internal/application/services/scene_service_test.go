package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
	"github.com/peakgeo/sentinel-agent/internal/domain/providers"
	"github.com/peakgeo/sentinel-agent/internal/domain/repositories"
	apperrors "github.com/peakgeo/sentinel-agent/pkg/errors"
)

// Stubs

type stubCatalog struct {
	scenes     []*entities.CatalogScene
	err        error
	lastSearch providers.SceneSearch
	calls      int
}

func (c *stubCatalog) Search(ctx context.Context, params providers.SceneSearch) ([]*entities.CatalogScene, error) {
	c.calls++
	c.lastSearch = params
	if c.err != nil {
		return nil, c.err
	}
	return c.scenes, nil
}

type stubFetcher struct {
	outcomes map[string]entities.RoleOutcome
	roles    []string
	destDirs []string
}

func (f *stubFetcher) Fetch(ctx context.Context, scene *entities.CatalogScene, role, destDir string) entities.RoleOutcome {
	f.roles = append(f.roles, role)
	f.destDirs = append(f.destDirs, destDir)
	if outcome, ok := f.outcomes[role]; ok {
		return outcome
	}
	return entities.RoleOutcome{
		Role:   role,
		Status: entities.OutcomeDownloaded,
		Path:   filepath.Join(destDir, fmt.Sprintf("%s_%s.tif", scene.ID, role)),
	}
}

type memoryHistory struct {
	created   []*entities.FetchRequest
	completed []*entities.FetchRequest
}

func (h *memoryHistory) Create(ctx context.Context, request *entities.FetchRequest) error {
	snapshot := *request
	h.created = append(h.created, &snapshot)
	return nil
}

func (h *memoryHistory) Complete(ctx context.Context, request *entities.FetchRequest) error {
	snapshot := *request
	h.completed = append(h.completed, &snapshot)
	return nil
}

func (h *memoryHistory) GetByID(ctx context.Context, id string) (*entities.FetchRequest, error) {
	for _, request := range h.completed {
		if request.ID == id {
			return request, nil
		}
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("fetch request with id %s not found", id))
}

func (h *memoryHistory) ListRecent(ctx context.Context, limit int) ([]*entities.FetchRequest, error) {
	return h.completed, nil
}

type memoryArchive struct {
	indexed []*entities.ArchivedScene
	results []*entities.ArchivedScene
}

func (a *memoryArchive) EnsureCollection(ctx context.Context) error { return nil }

func (a *memoryArchive) Index(ctx context.Context, scene *entities.ArchivedScene) error {
	a.indexed = append(a.indexed, scene)
	return nil
}

func (a *memoryArchive) Search(ctx context.Context, query repositories.ArchiveQuery) ([]*entities.ArchivedScene, error) {
	return a.results, nil
}

type busRecord struct {
	channel string
	event   *entities.DownloadEvent
}

type recordingBus struct {
	records []busRecord
}

func (b *recordingBus) Publish(ctx context.Context, channel string, event *entities.DownloadEvent) error {
	b.records = append(b.records, busRecord{channel: channel, event: event})
	return nil
}

func (b *recordingBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.DownloadEvent, error) {
	return nil, nil
}

func (b *recordingBus) Unsubscribe(ctx context.Context, channel string) error { return nil }

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) eventsOn(channel string) []*entities.DownloadEvent {
	var events []*entities.DownloadEvent
	for _, record := range b.records {
		if record.channel == channel {
			events = append(events, record.event)
		}
	}
	return events
}

// Fixtures

type sceneFixture struct {
	catalog *stubCatalog
	fetcher *stubFetcher
	history *memoryHistory
	archive *memoryArchive
	bus     *recordingBus
	service *SceneService
}

func newSceneFixture(scenes ...*entities.CatalogScene) *sceneFixture {
	f := &sceneFixture{
		catalog: &stubCatalog{scenes: scenes},
		fetcher: &stubFetcher{},
		history: &memoryHistory{},
		archive: &memoryArchive{},
		bus:     &recordingBus{},
	}
	f.service = NewSceneService(f.catalog, f.fetcher, f.history, f.archive, f.bus, nil, DefaultSceneServiceOptions())
	return f
}

func testSceneQuery(collection entities.Collection) entities.SceneQuery {
	return entities.SceneQuery{
		Longitude:  129.075,
		Latitude:   35.1796,
		Date:       time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC),
		Collection: collection,
	}
}

func acquiredAt(value string) *time.Time {
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return &ts
}

func opticalScene(id, acquired string, cloud float64, roles ...string) *entities.CatalogScene {
	scene := &entities.CatalogScene{
		ID:         id,
		Collection: "sentinel-2-l2a",
		CloudCover: &cloud,
		Assets:     map[string]entities.SceneAsset{},
	}
	if acquired != "" {
		scene.Acquired = acquiredAt(acquired)
	}
	for _, role := range roles {
		scene.Assets[role] = entities.SceneAsset{Href: fmt.Sprintf("s3://sentinel-cogs/%s/%s.tif", id, role)}
	}
	return scene
}

func radarScene(id, acquired string, roles ...string) *entities.CatalogScene {
	scene := &entities.CatalogScene{
		ID:         id,
		Collection: "sentinel-1-grd",
		Assets:     map[string]entities.SceneAsset{},
	}
	if acquired != "" {
		scene.Acquired = acquiredAt(acquired)
	}
	for _, role := range roles {
		scene.Assets[role] = entities.SceneAsset{Href: fmt.Sprintf("s3://sentinel-s1-l1c/%s/%s.tiff", id, role)}
	}
	return scene
}

// Selection

func TestSelectScene_ClosestToCenterWins(t *testing.T) {
	center := time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC)
	far := opticalScene("far", "2023-05-28T02:21:14Z", 5, "visual")
	near := opticalScene("near", "2023-06-05T02:21:14Z", 12, "visual")

	selection := selectScene([]*entities.CatalogScene{far, near}, center)

	require.NotNil(t, selection)
	assert.Equal(t, "near", selection.Scene.ID)
	assert.Equal(t, near.Acquired.Sub(center), selection.Offset)
}

func TestSelectScene_UndatedSortsLast(t *testing.T) {
	center := time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC)
	undated := opticalScene("undated", "", 5, "visual")
	dated := opticalScene("dated", "2023-06-10T02:21:14Z", 12, "visual")

	selection := selectScene([]*entities.CatalogScene{undated, dated}, center)

	require.NotNil(t, selection)
	assert.Equal(t, "dated", selection.Scene.ID)
}

func TestSelectScene_AllUndatedKeepsFirst(t *testing.T) {
	center := time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC)
	first := opticalScene("first", "", 5, "visual")
	second := opticalScene("second", "", 12, "visual")

	selection := selectScene([]*entities.CatalogScene{first, second}, center)

	require.NotNil(t, selection)
	assert.Equal(t, "first", selection.Scene.ID)
	assert.Equal(t, maxOffset, selection.Offset)
}

func TestSelectScene_TieKeepsCatalogOrder(t *testing.T) {
	center := time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC)
	before := opticalScene("before", "2023-06-01T12:00:00Z", 5, "visual")
	after := opticalScene("after", "2023-06-02T12:00:00Z", 12, "visual")

	selection := selectScene([]*entities.CatalogScene{before, after}, center)

	require.NotNil(t, selection)
	assert.Equal(t, "before", selection.Scene.ID)
	assert.Equal(t, 12*time.Hour, selection.Offset)
}

func TestSelectScene_EmptyInput(t *testing.T) {
	assert.Nil(t, selectScene(nil, time.Now()))
}

// Role planning

func TestRolePlan_RadarAlwaysAttemptsBothPolarizations(t *testing.T) {
	scene := radarScene("S1A_IW_GRDH_20230605", "2023-06-05T09:00:00Z", "vv")

	roles, ok := rolePlan(entities.CollectionRadar, scene)

	assert.True(t, ok)
	assert.Equal(t, []string{"vv", "vh"}, roles)
}

func TestRolePlan_OpticalFetchesPresentSubsetInPriorityOrder(t *testing.T) {
	scene := opticalScene("S2B_52SFB_20230605_0_L2A", "2023-06-05T02:21:14Z", 12.3, "blue", "red")

	roles, ok := rolePlan(entities.CollectionOptical, scene)

	assert.True(t, ok)
	assert.Equal(t, []string{"red", "blue"}, roles)
}

func TestRolePlan_OpticalWithoutBands(t *testing.T) {
	scene := opticalScene("S2B_52SFB_20230605_0_L2A", "2023-06-05T02:21:14Z", 12.3, "thumbnail")

	roles, ok := rolePlan(entities.CollectionOptical, scene)

	assert.False(t, ok)
	assert.Empty(t, roles)
}

// Download pipeline

func TestSceneService_DownloadOptical(t *testing.T) {
	far := opticalScene("S2A_52SFB_20230528_0_L2A", "2023-05-28T02:21:14Z", 4.2, "visual", "red")
	near := opticalScene("S2B_52SFB_20230605_0_L2A", "2023-06-05T02:21:14Z", 12.3, "visual", "red")
	fixture := newSceneFixture(far, near)

	report, err := fixture.service.Download(context.Background(), testSceneQuery(entities.CollectionOptical))

	require.NoError(t, err)
	require.NotNil(t, report)
	require.True(t, report.SceneFound())
	assert.NotEmpty(t, report.RequestID)
	assert.Equal(t, "S2B_52SFB_20230605_0_L2A", report.Scene.ID)
	assert.Equal(t, 2, report.SuccessCount())

	// One catalog request, with the window, radius and ceiling applied
	// server-side
	assert.Equal(t, 1, fixture.catalog.calls)
	search := fixture.catalog.lastSearch
	assert.Equal(t, "sentinel-2-l2a", search.Collection)
	assert.Equal(t, time.Date(2023, 5, 23, 0, 0, 0, 0, time.UTC), search.Start)
	assert.Equal(t, time.Date(2023, 6, 12, 23, 59, 59, 0, time.UTC), search.End)
	require.NotNil(t, search.MaxCloudCover)
	assert.InDelta(t, 20.0, *search.MaxCloudCover, 1e-9)
	assert.Equal(t, 50, search.Limit)
	assert.InDelta(t, 128.875, search.Bound.Min.X(), 1e-9)
	assert.InDelta(t, 34.9796, search.Bound.Min.Y(), 1e-9)
	assert.InDelta(t, 129.275, search.Bound.Max.X(), 1e-9)
	assert.InDelta(t, 35.3796, search.Bound.Max.Y(), 1e-9)

	assert.Equal(t, []string{"visual", "red"}, fixture.fetcher.roles)
	assert.Equal(t, []string{"downloads", "downloads"}, fixture.fetcher.destDirs)

	expected := strings.Join([]string{
		"Sentinel-2 L2A download results:",
		"  VISUAL: " + filepath.Join("downloads", "S2B_52SFB_20230605_0_L2A_visual.tif"),
		"  RED: " + filepath.Join("downloads", "S2B_52SFB_20230605_0_L2A_red.tif"),
		"Acquired: 2023-06-05T02:21:14Z",
		"Cloud cover: 12.3%",
	}, "\n")
	assert.Equal(t, expected, report.Message)
}

func TestSceneService_DownloadRecordsHistory(t *testing.T) {
	fixture := newSceneFixture(opticalScene("S2B_52SFB_20230605_0_L2A", "2023-06-05T02:21:14Z", 12.3, "visual"))

	report, err := fixture.service.Download(context.Background(), testSceneQuery(entities.CollectionOptical))

	require.NoError(t, err)
	require.Len(t, fixture.history.created, 1)
	require.Len(t, fixture.history.completed, 1)

	created := fixture.history.created[0]
	assert.Equal(t, report.RequestID, created.ID)
	assert.Equal(t, entities.FetchStatusPending, created.Status)
	assert.Equal(t, entities.CollectionOptical, created.Collection)
	assert.Equal(t, time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC), created.QueryDate)
	assert.Equal(t, 10, created.WindowDays)
	require.NotNil(t, created.MaxCloudCover)
	assert.InDelta(t, 20.0, *created.MaxCloudCover, 1e-9)

	completed := fixture.history.completed[0]
	assert.Equal(t, entities.FetchStatusCompleted, completed.Status)
	assert.Equal(t, report.Message, completed.Report)
	require.NotNil(t, completed.SceneID)
	assert.Equal(t, "S2B_52SFB_20230605_0_L2A", *completed.SceneID)
}

func TestSceneService_DownloadPublishesProgressEvents(t *testing.T) {
	fixture := newSceneFixture(opticalScene("S2B_52SFB_20230605_0_L2A", "2023-06-05T02:21:14Z", 12.3, "visual", "red"))

	report, err := fixture.service.Download(context.Background(), testSceneQuery(entities.CollectionOptical))
	require.NoError(t, err)

	events := fixture.bus.eventsOn(providers.EventChannelDownloads)
	require.Len(t, events, 5)
	assert.Equal(t, entities.DownloadEventSceneSelected, events[0].EventType)
	assert.Equal(t, entities.DownloadEventAssetQueued, events[1].EventType)
	assert.Equal(t, entities.DownloadEventAssetDone, events[2].EventType)
	assert.Equal(t, entities.DownloadEventAssetQueued, events[3].EventType)
	assert.Equal(t, entities.DownloadEventAssetDone, events[4].EventType)

	assert.Equal(t, "visual", events[1].Role)
	assert.Equal(t, "red", events[3].Role)
	for _, event := range events {
		assert.Equal(t, report.RequestID, event.RequestID)
	}

	// Every event also lands on the request's own channel
	requestEvents := fixture.bus.eventsOn(providers.GetRequestChannel(report.RequestID))
	assert.Len(t, requestEvents, 5)
}

func TestSceneService_DownloadIndexesArchive(t *testing.T) {
	fixture := newSceneFixture(opticalScene("S2B_52SFB_20230605_0_L2A", "2023-06-05T02:21:14Z", 12.3, "visual", "red"))

	_, err := fixture.service.Download(context.Background(), testSceneQuery(entities.CollectionOptical))
	require.NoError(t, err)

	require.Len(t, fixture.archive.indexed, 1)
	archived := fixture.archive.indexed[0]
	assert.Equal(t, "S2B_52SFB_20230605_0_L2A", archived.SceneID)
	assert.Equal(t, "optical", archived.Collection)
	assert.Equal(t, "Sentinel-2 L2A", archived.Mission)
	assert.Equal(t, acquiredAt("2023-06-05T02:21:14Z").Unix(), archived.Acquired)
	assert.InDelta(t, 12.3, archived.CloudCover, 1e-9)
	assert.Equal(t, []string{"visual", "red"}, archived.Roles)
	assert.Len(t, archived.Paths, 2)

	// The catalog item carried no footprint, so the geopoint falls back to
	// the query coordinates
	require.Len(t, archived.Location, 2)
	assert.InDelta(t, 35.1796, archived.Location[0], 1e-9)
	assert.InDelta(t, 129.075, archived.Location[1], 1e-9)
}

func TestSceneService_DownloadRadarReportsAbsentRole(t *testing.T) {
	fixture := newSceneFixture(radarScene("S1A_IW_GRDH_20230605", "2023-06-05T09:00:00Z", "vv"))
	fixture.fetcher.outcomes = map[string]entities.RoleOutcome{
		"vh": {Role: "vh", Status: entities.OutcomeAssetAbsent},
	}

	report, err := fixture.service.Download(context.Background(), testSceneQuery(entities.CollectionRadar))

	require.NoError(t, err)
	assert.Equal(t, []string{"vv", "vh"}, fixture.fetcher.roles)
	assert.Equal(t, 1, report.SuccessCount())

	expected := strings.Join([]string{
		"Sentinel-1 download results:",
		"  VV: " + filepath.Join("downloads", "S1A_IW_GRDH_20230605_vv.tif"),
		"  VH: asset absent from this item",
		"Acquired: 2023-06-05T09:00:00Z",
	}, "\n")
	assert.Equal(t, expected, report.Message)

	require.Len(t, fixture.history.completed, 1)
	assert.Equal(t, entities.FetchStatusCompleted, fixture.history.completed[0].Status)
}

func TestSceneService_DownloadRadarNeverFiltersClouds(t *testing.T) {
	fixture := newSceneFixture(radarScene("S1A_IW_GRDH_20230605", "2023-06-05T09:00:00Z", "vv", "vh"))

	query := testSceneQuery(entities.CollectionRadar)
	ceiling := 15.0
	query.MaxCloudCover = &ceiling

	_, err := fixture.service.Download(context.Background(), query)

	require.NoError(t, err)
	assert.Equal(t, "sentinel-1-grd", fixture.catalog.lastSearch.Collection)
	assert.Nil(t, fixture.catalog.lastSearch.MaxCloudCover)
}

func TestSceneService_DownloadNoScene(t *testing.T) {
	fixture := newSceneFixture()

	report, err := fixture.service.Download(context.Background(), testSceneQuery(entities.CollectionOptical))

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.False(t, report.SceneFound())
	assert.Empty(t, fixture.fetcher.roles)
	assert.Empty(t, fixture.archive.indexed)

	expected := "No Sentinel-2 L2A scenes found within ±10 days with cloud cover < 20%.\n" +
		"Reference date: 2023-06-02, coordinates (lon=129.075, lat=35.1796)"
	assert.Equal(t, expected, report.Message)

	events := fixture.bus.eventsOn(providers.EventChannelDownloads)
	require.Len(t, events, 1)
	assert.Equal(t, entities.DownloadEventSceneMissing, events[0].EventType)

	require.Len(t, fixture.history.completed, 1)
	assert.Equal(t, entities.FetchStatusNoScene, fixture.history.completed[0].Status)
}

func TestSceneService_DownloadNoSceneRadarMessage(t *testing.T) {
	fixture := newSceneFixture()

	report, err := fixture.service.Download(context.Background(), testSceneQuery(entities.CollectionRadar))

	require.NoError(t, err)
	expected := "No Sentinel-1 scenes found within ±10 days.\n" +
		"Reference date: 2023-06-02, coordinates (lon=129.075, lat=35.1796)"
	assert.Equal(t, expected, report.Message)
}

func TestSceneService_DownloadOpticalWithoutBands(t *testing.T) {
	fixture := newSceneFixture(opticalScene("S2B_52SFB_20230605_0_L2A", "2023-06-05T02:21:14Z", 12.3, "thumbnail"))

	report, err := fixture.service.Download(context.Background(), testSceneQuery(entities.CollectionOptical))

	require.NoError(t, err)
	require.True(t, report.SceneFound())
	assert.Empty(t, fixture.fetcher.roles)
	assert.Equal(t, "No downloadable RGB assets found for this scene.", report.Message)

	require.Len(t, fixture.history.completed, 1)
	assert.Equal(t, entities.FetchStatusNoAssets, fixture.history.completed[0].Status)
}

func TestSceneService_DownloadAllRolesFailed(t *testing.T) {
	fixture := newSceneFixture(radarScene("S1A_IW_GRDH_20230605", "2023-06-05T09:00:00Z", "vv", "vh"))
	fixture.fetcher.outcomes = map[string]entities.RoleOutcome{
		"vv": {Role: "vv", Status: entities.OutcomeFailed, HTTPStatus: 404},
		"vh": {Role: "vh", Status: entities.OutcomeFailed, HTTPStatus: 404},
	}

	report, err := fixture.service.Download(context.Background(), testSceneQuery(entities.CollectionRadar))

	require.NoError(t, err)
	assert.Equal(t, 0, report.SuccessCount())
	assert.Contains(t, report.Message, "  VV: download failed (status code: 404)")
	assert.Empty(t, fixture.archive.indexed)

	require.Len(t, fixture.history.completed, 1)
	assert.Equal(t, entities.FetchStatusFailed, fixture.history.completed[0].Status)

	events := fixture.bus.eventsOn(providers.EventChannelDownloads)
	require.Len(t, events, 5)
	assert.Equal(t, entities.DownloadEventAssetFailed, events[2].EventType)
	assert.Equal(t, entities.DownloadEventAssetFailed, events[4].EventType)
}

func TestSceneService_DownloadCatalogError(t *testing.T) {
	fixture := newSceneFixture()
	fixture.catalog.err = apperrors.NewExternalError("catalog search request failed", nil)

	report, err := fixture.service.Download(context.Background(), testSceneQuery(entities.CollectionOptical))

	require.Error(t, err)
	assert.Nil(t, report)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeExternal, appErr.Type)

	// The failure is still recorded against the request
	require.Len(t, fixture.history.completed, 1)
	assert.Equal(t, entities.FetchStatusFailed, fixture.history.completed[0].Status)
	assert.Contains(t, fixture.history.completed[0].Report, "catalog search request failed")
}

func TestSceneService_DownloadValidation(t *testing.T) {
	fixture := newSceneFixture()

	cases := []struct {
		name   string
		mutate func(*entities.SceneQuery)
	}{
		{"unknown collection", func(q *entities.SceneQuery) { q.Collection = "hyperspectral" }},
		{"longitude out of range", func(q *entities.SceneQuery) { q.Longitude = 181 }},
		{"latitude out of range", func(q *entities.SceneQuery) { q.Latitude = -91 }},
		{"missing date", func(q *entities.SceneQuery) { q.Date = time.Time{} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			query := testSceneQuery(entities.CollectionOptical)
			tc.mutate(&query)

			_, err := fixture.service.Download(context.Background(), query)

			require.Error(t, err)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
		})
	}

	// Rejected queries never reach the catalog or the history
	assert.Equal(t, 0, fixture.catalog.calls)
	assert.Empty(t, fixture.history.created)
}

func TestSceneService_DownloadAppliesQueryOverrides(t *testing.T) {
	fixture := newSceneFixture(opticalScene("S2B_52SFB_20230605_0_L2A", "2023-06-05T02:21:14Z", 12.3, "visual"))

	query := testSceneQuery(entities.CollectionOptical)
	query.WindowDays = 3
	query.SaveDir = "scratch"
	ceiling := 45.0
	query.MaxCloudCover = &ceiling

	_, err := fixture.service.Download(context.Background(), query)

	require.NoError(t, err)
	search := fixture.catalog.lastSearch
	assert.Equal(t, time.Date(2023, 5, 30, 0, 0, 0, 0, time.UTC), search.Start)
	assert.Equal(t, time.Date(2023, 6, 5, 23, 59, 59, 0, time.UTC), search.End)
	require.NotNil(t, search.MaxCloudCover)
	assert.InDelta(t, 45.0, *search.MaxCloudCover, 1e-9)
	assert.Equal(t, []string{"scratch"}, fixture.fetcher.destDirs)
}

func TestSceneService_Locate(t *testing.T) {
	far := opticalScene("far", "2023-05-28T02:21:14Z", 4.2, "visual")
	near := opticalScene("near", "2023-06-05T02:21:14Z", 12.3, "visual")
	fixture := newSceneFixture(far, near)

	selection, err := fixture.service.Locate(context.Background(), testSceneQuery(entities.CollectionOptical))

	require.NoError(t, err)
	require.NotNil(t, selection)
	assert.Equal(t, "near", selection.Scene.ID)

	// Locate never touches the fetcher, history or bus
	assert.Empty(t, fixture.fetcher.roles)
	assert.Empty(t, fixture.history.created)
	assert.Empty(t, fixture.bus.records)
}

func TestSceneService_LocateEmptyWindow(t *testing.T) {
	fixture := newSceneFixture()

	selection, err := fixture.service.Locate(context.Background(), testSceneQuery(entities.CollectionRadar))

	require.NoError(t, err)
	assert.Nil(t, selection)
}

// Optional collaborators

func TestSceneService_NilCollaborators(t *testing.T) {
	catalog := &stubCatalog{scenes: []*entities.CatalogScene{
		opticalScene("S2B_52SFB_20230605_0_L2A", "2023-06-05T02:21:14Z", 12.3, "visual"),
	}}
	service := NewSceneService(catalog, &stubFetcher{}, nil, nil, nil, nil, DefaultSceneServiceOptions())

	report, err := service.Download(context.Background(), testSceneQuery(entities.CollectionOptical))

	require.NoError(t, err)
	assert.Equal(t, 1, report.SuccessCount())
}

func TestSceneService_ListRequestsWithoutHistory(t *testing.T) {
	service := NewSceneService(&stubCatalog{}, &stubFetcher{}, nil, nil, nil, nil, DefaultSceneServiceOptions())

	requests, err := service.ListRequests(context.Background(), 10)

	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestSceneService_GetRequestWithoutHistory(t *testing.T) {
	service := NewSceneService(&stubCatalog{}, &stubFetcher{}, nil, nil, nil, nil, DefaultSceneServiceOptions())

	_, err := service.GetRequest(context.Background(), "req-1")

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
}

func TestSceneService_SearchArchiveWithoutIndex(t *testing.T) {
	service := NewSceneService(&stubCatalog{}, &stubFetcher{}, nil, nil, nil, nil, DefaultSceneServiceOptions())

	scenes, err := service.SearchArchive(context.Background(), repositories.ArchiveQuery{Query: "S2B"})

	require.NoError(t, err)
	assert.Empty(t, scenes)
}
