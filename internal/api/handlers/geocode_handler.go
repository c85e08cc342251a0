package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
)

// GeocodeService defines the geocoding operations used by the handler.
type GeocodeService interface {
	Resolve(ctx context.Context, query string) (*entities.GeocodeResult, error)
}

// GeocodeHandler handles place name resolution HTTP requests
type GeocodeHandler struct {
	service GeocodeService
}

// NewGeocodeHandler creates a new geocode handler
func NewGeocodeHandler(service GeocodeService) *GeocodeHandler {
	return &GeocodeHandler{
		service: service,
	}
}

// Geocode handles GET /api/geocode
func (h *GeocodeHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	result, err := h.service.Resolve(r.Context(), query)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
