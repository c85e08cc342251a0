package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
	"github.com/peakgeo/sentinel-agent/internal/infrastructure/clients/postgres"
	apperrors "github.com/peakgeo/sentinel-agent/pkg/errors"
)

var fetchRequestColumns = []string{
	"id", "collection", "lon", "lat", "query_date", "window_days",
	"max_cloud_cover", "scene_id", "status", "report",
	"created_at", "completed_at",
}

func setupMockClient(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return postgres.NewClientWithDB(mockDB), mock
}

func pendingRequest() *entities.FetchRequest {
	maxCloud := 20.0
	return &entities.FetchRequest{
		ID:            "req-1",
		Collection:    entities.CollectionOptical,
		Longitude:     129.075,
		Latitude:      35.1796,
		QueryDate:     time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC),
		WindowDays:    10,
		MaxCloudCover: &maxCloud,
		Status:        entities.FetchStatusPending,
		CreatedAt:     time.Date(2023, 6, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestFetchRequestAdapter_Create(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewFetchRequestAdapter(client)

	mock.ExpectExec(`INSERT INTO "fetch_requests"`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := adapter.Create(context.Background(), pendingRequest())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchRequestAdapter_Complete(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewFetchRequestAdapter(client)

	mock.ExpectExec(`UPDATE "fetch_requests"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	request := pendingRequest()
	sceneID := "S2B_52SFB_20230605_0_L2A"
	request.SceneID = &sceneID
	request.Status = entities.FetchStatusCompleted
	request.Report = "Sentinel-2 L2A download results:"

	err := adapter.Complete(context.Background(), request)
	require.NoError(t, err)
	assert.NotNil(t, request.CompletedAt, "Complete should stamp the completion time")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchRequestAdapter_CompleteUnknownID(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewFetchRequestAdapter(client)

	mock.ExpectExec(`UPDATE "fetch_requests"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	request := pendingRequest()
	request.ID = "missing"
	request.Status = entities.FetchStatusFailed

	err := adapter.Complete(context.Background(), request)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
}

func TestFetchRequestAdapter_GetByID(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewFetchRequestAdapter(client)

	created := time.Date(2023, 6, 2, 12, 0, 0, 0, time.UTC)
	completed := created.Add(30 * time.Second)
	rows := sqlmock.NewRows(fetchRequestColumns).AddRow(
		"req-1", "optical", 129.075, 35.1796,
		time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC), 10,
		20.0, "S2B_52SFB_20230605_0_L2A", "completed", "Sentinel-2 L2A download results:",
		created, completed,
	)

	mock.ExpectQuery(`SELECT .* FROM "fetch_requests"`).WillReturnRows(rows)

	request, err := adapter.GetByID(context.Background(), "req-1")
	require.NoError(t, err)

	assert.Equal(t, entities.CollectionOptical, request.Collection)
	assert.Equal(t, entities.FetchStatusCompleted, request.Status)
	require.NotNil(t, request.MaxCloudCover)
	assert.Equal(t, 20.0, *request.MaxCloudCover)
	require.NotNil(t, request.SceneID)
	assert.Equal(t, "S2B_52SFB_20230605_0_L2A", *request.SceneID)
	require.NotNil(t, request.CompletedAt)
	assert.Equal(t, completed, *request.CompletedAt)
}

func TestFetchRequestAdapter_GetByIDNotFound(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewFetchRequestAdapter(client)

	mock.ExpectQuery(`SELECT .* FROM "fetch_requests"`).
		WillReturnRows(sqlmock.NewRows(fetchRequestColumns))

	_, err := adapter.GetByID(context.Background(), "missing")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
}

func TestFetchRequestAdapter_ListRecent(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewFetchRequestAdapter(client)

	created := time.Date(2023, 6, 2, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(fetchRequestColumns).
		AddRow("req-2", "radar", 3.3792, 6.5244,
			time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), 10,
			nil, nil, "no_scene", "No radar scenes found",
			created.Add(time.Hour), nil).
		AddRow("req-1", "optical", 129.075, 35.1796,
			time.Date(2023, 6, 2, 0, 0, 0, 0, time.UTC), 10,
			20.0, "S2B_52SFB_20230605_0_L2A", "completed", "Sentinel-2 L2A download results:",
			created, created.Add(30*time.Second))

	mock.ExpectQuery(`SELECT .* FROM "fetch_requests" ORDER BY "created_at" DESC`).
		WillReturnRows(rows)

	requests, err := adapter.ListRecent(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, requests, 2)

	assert.Equal(t, "req-2", requests[0].ID)
	assert.Equal(t, entities.CollectionRadar, requests[0].Collection)
	assert.Nil(t, requests[0].MaxCloudCover)
	assert.Nil(t, requests[0].SceneID)
	assert.Nil(t, requests[0].CompletedAt)

	assert.Equal(t, "req-1", requests[1].ID)
	assert.Equal(t, entities.FetchStatusCompleted, requests[1].Status)
}
