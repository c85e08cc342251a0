package providers

import (
	"context"

	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
)

// AssetFetcher defines the interface for retrieving one scene asset to local
// disk. Failures are reported as outcome values, never as errors, and a role
// the scene does not carry produces its outcome without any network call.
type AssetFetcher interface {
	// Fetch streams the asset for role into destDir as <sceneID>_<role>.tif,
	// overwriting any previous file
	Fetch(ctx context.Context, scene *entities.CatalogScene, role, destDir string) entities.RoleOutcome
}
