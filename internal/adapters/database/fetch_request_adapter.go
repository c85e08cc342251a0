package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
	"github.com/peakgeo/sentinel-agent/internal/domain/repositories"
	"github.com/peakgeo/sentinel-agent/internal/infrastructure/clients/postgres"
	apperrors "github.com/peakgeo/sentinel-agent/pkg/errors"
)

// FetchRequestAdapter implements fetch request history persistence in Postgres
type FetchRequestAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewFetchRequestAdapter creates a new fetch request adapter
func NewFetchRequestAdapter(client *postgres.Client) repositories.FetchRequestRepository {
	return &FetchRequestAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts a pending fetch request record
func (a *FetchRequestAdapter) Create(ctx context.Context, request *entities.FetchRequest) error {
	if request == nil {
		return apperrors.NewInternalError("fetch request is nil", fmt.Errorf("fetch request is nil"))
	}

	maxCloud := sql.NullFloat64{}
	if request.MaxCloudCover != nil {
		maxCloud = sql.NullFloat64{Float64: *request.MaxCloudCover, Valid: true}
	}

	record := goqu.Record{
		"id":              request.ID,
		"collection":      request.Collection,
		"lon":             request.Longitude,
		"lat":             request.Latitude,
		"query_date":      request.QueryDate,
		"window_days":     request.WindowDays,
		"max_cloud_cover": maxCloud,
		"status":          request.Status,
		"report":          request.Report,
		"created_at":      request.CreatedAt,
	}

	query, args, err := a.db.Insert("fetch_requests").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create fetch request", err)
	}

	return nil
}

// Complete writes the terminal status, scene and report for a request
func (a *FetchRequestAdapter) Complete(ctx context.Context, request *entities.FetchRequest) error {
	if request.CompletedAt == nil {
		now := time.Now()
		request.CompletedAt = &now
	}

	sceneID := sql.NullString{}
	if request.SceneID != nil {
		sceneID = sql.NullString{String: *request.SceneID, Valid: true}
	}

	record := goqu.Record{
		"scene_id":     sceneID,
		"status":       request.Status,
		"report":       request.Report,
		"completed_at": *request.CompletedAt,
	}

	query, args, err := a.db.Update("fetch_requests").
		Set(record).
		Where(goqu.Ex{"id": request.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to complete fetch request", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("fetch request with id %s not found", request.ID))
	}

	return nil
}

// GetByID retrieves a fetch request by ID
func (a *FetchRequestAdapter) GetByID(ctx context.Context, id string) (*entities.FetchRequest, error) {
	query, args, err := a.db.Select(
		"id", "collection", "lon", "lat", "query_date", "window_days",
		"max_cloud_cover", "scene_id", "status", "report",
		"created_at", "completed_at",
	).From("fetch_requests").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	request := &entities.FetchRequest{}
	var maxCloud sql.NullFloat64
	var sceneID sql.NullString
	var completedAt sql.NullTime

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&request.ID,
		&request.Collection,
		&request.Longitude,
		&request.Latitude,
		&request.QueryDate,
		&request.WindowDays,
		&maxCloud,
		&sceneID,
		&request.Status,
		&request.Report,
		&request.CreatedAt,
		&completedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("fetch request with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get fetch request", err)
	}

	if maxCloud.Valid {
		request.MaxCloudCover = &maxCloud.Float64
	}
	if sceneID.Valid {
		request.SceneID = &sceneID.String
	}
	if completedAt.Valid {
		request.CompletedAt = &completedAt.Time
	}

	return request, nil
}

// ListRecent retrieves the most recent fetch requests, newest first
func (a *FetchRequestAdapter) ListRecent(ctx context.Context, limit int) ([]*entities.FetchRequest, error) {
	if limit <= 0 {
		limit = 20
	}

	query, args, err := a.db.Select(
		"id", "collection", "lon", "lat", "query_date", "window_days",
		"max_cloud_cover", "scene_id", "status", "report",
		"created_at", "completed_at",
	).From("fetch_requests").
		Order(goqu.I("created_at").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list fetch requests", err)
	}
	defer rows.Close()

	var requests []*entities.FetchRequest
	for rows.Next() {
		request := &entities.FetchRequest{}
		var maxCloud sql.NullFloat64
		var sceneID sql.NullString
		var completedAt sql.NullTime

		err := rows.Scan(
			&request.ID,
			&request.Collection,
			&request.Longitude,
			&request.Latitude,
			&request.QueryDate,
			&request.WindowDays,
			&maxCloud,
			&sceneID,
			&request.Status,
			&request.Report,
			&request.CreatedAt,
			&completedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan fetch request", err)
		}

		if maxCloud.Valid {
			request.MaxCloudCover = &maxCloud.Float64
		}
		if sceneID.Valid {
			request.SceneID = &sceneID.String
		}
		if completedAt.Valid {
			request.CompletedAt = &completedAt.Time
		}

		requests = append(requests, request)
	}

	return requests, nil
}
