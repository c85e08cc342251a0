package repositories

import (
	"context"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
)

// FetchRequestRepository defines the interface for fetch request history.
type FetchRequestRepository interface {
	Create(ctx context.Context, request *entities.FetchRequest) error
	Complete(ctx context.Context, request *entities.FetchRequest) error
	GetByID(ctx context.Context, id string) (*entities.FetchRequest, error)
	ListRecent(ctx context.Context, limit int) ([]*entities.FetchRequest, error)
}
