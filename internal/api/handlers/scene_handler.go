package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
	"github.com/peakgeo/sentinel-agent/internal/domain/repositories"
	apperrors "github.com/peakgeo/sentinel-agent/pkg/errors"
)

// SceneService defines the scene operations used by the handler.
type SceneService interface {
	Download(ctx context.Context, query entities.SceneQuery) (*entities.DownloadReport, error)
	ListRequests(ctx context.Context, limit int) ([]*entities.FetchRequest, error)
	GetRequest(ctx context.Context, id string) (*entities.FetchRequest, error)
	SearchArchive(ctx context.Context, query repositories.ArchiveQuery) ([]*entities.ArchivedScene, error)
}

// SceneHandler handles scene download and request history HTTP requests
type SceneHandler struct {
	service SceneService
}

// NewSceneHandler creates a new scene handler
func NewSceneHandler(service SceneService) *SceneHandler {
	return &SceneHandler{
		service: service,
	}
}

type downloadRequest struct {
	Lon           float64  `json:"lon"`
	Lat           float64  `json:"lat"`
	Date          string   `json:"date"`
	WindowDays    int      `json:"window_days,omitempty"`
	MaxCloudCover *float64 `json:"max_cloud_cover,omitempty"`
	SaveDir       string   `json:"save_dir,omitempty"`
}

// DownloadRadar handles POST /api/scenes/radar/download
func (h *SceneHandler) DownloadRadar(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, entities.CollectionRadar)
}

// DownloadOptical handles POST /api/scenes/optical/download
func (h *SceneHandler) DownloadOptical(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, entities.CollectionOptical)
}

func (h *SceneHandler) download(w http.ResponseWriter, r *http.Request, collection entities.Collection) {
	var payload downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	payload.Date = strings.TrimSpace(payload.Date)
	if payload.Date == "" {
		respondWithError(w, http.StatusBadRequest, "date is required")
		return
	}
	date, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "date must be in YYYY-MM-DD format")
		return
	}

	query := entities.SceneQuery{
		Longitude:     payload.Lon,
		Latitude:      payload.Lat,
		Date:          date,
		WindowDays:    payload.WindowDays,
		Collection:    collection,
		MaxCloudCover: payload.MaxCloudCover,
		SaveDir:       payload.SaveDir,
	}

	report, err := h.service.Download(r.Context(), query)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// ListRequests handles GET /api/requests
func (h *SceneHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	requests, err := h.service.ListRequests(r.Context(), limit)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"requests": requests,
		"count":    len(requests),
	})
}

// GetRequest handles GET /api/requests/{id}
func (h *SceneHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("id")
	if requestID == "" {
		respondWithError(w, http.StatusBadRequest, "request ID is required")
		return
	}

	request, err := h.service.GetRequest(r.Context(), requestID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, request)
}

// SearchArchive handles GET /api/archive/search
func (h *SceneHandler) SearchArchive(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		respondWithError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	collection := r.URL.Query().Get("collection")
	if collection != "" && !entities.Collection(collection).IsValid() {
		respondWithError(w, http.StatusBadRequest, "collection must be radar or optical")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	scenes, err := h.service.SearchArchive(r.Context(), repositories.ArchiveQuery{
		Query:      q,
		Collection: collection,
		Limit:      limit,
	})
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"scenes": scenes,
		"count":  len(scenes),
	})
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithServiceError maps application errors onto HTTP status codes
func respondWithServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		switch appErr.Type {
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
		case apperrors.ErrorTypeRateLimited:
			respondWithError(w, http.StatusTooManyRequests, appErr.Message)
		case apperrors.ErrorTypeExternal:
			respondWithError(w, http.StatusBadGateway, appErr.Message)
		default:
			respondWithError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}
