//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peakgeo/sentinel-agent/internal/adapters/search"
	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
	"github.com/peakgeo/sentinel-agent/internal/domain/repositories"
)

func TestArchiveAdapterIndexAndSearchIntegration(t *testing.T) {
	if os.Getenv("TEST_TYPESENSE_URL") == "" {
		t.Skip("Skipping integration test: TEST_TYPESENSE_URL not set")
	}

	tsClient := newTestTypesenseClient(t)
	adapter := search.NewArchiveAdapter(tsClient)

	ctx := context.Background()
	require.NoError(t, adapter.EnsureCollection(ctx))

	scene := &entities.ArchivedScene{
		ID:           "S1A_IW_GRDH_ARCHIVE_TEST",
		SceneID:      "S1A_IW_GRDH_ARCHIVE_TEST",
		Collection:   string(entities.CollectionRadar),
		Mission:      entities.CollectionRadar.Label(),
		Acquired:     time.Date(2023, 6, 5, 9, 21, 14, 0, time.UTC).Unix(),
		Location:     []float64{35.1796, 129.075},
		Roles:        []string{"vv", "vh"},
		Paths:        []string{"downloads/S1A_IW_GRDH_ARCHIVE_TEST_vv.tif", "downloads/S1A_IW_GRDH_ARCHIVE_TEST_vh.tif"},
		DownloadedAt: time.Now().Unix(),
	}

	require.NoError(t, adapter.Index(ctx, scene))

	results, err := adapter.Search(ctx, repositories.ArchiveQuery{
		Query:      "S1A_IW_GRDH_ARCHIVE_TEST",
		Collection: string(entities.CollectionRadar),
		Limit:      5,
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	found := results[0]
	assert.Equal(t, scene.SceneID, found.SceneID)
	assert.Equal(t, scene.Mission, found.Mission)
	assert.ElementsMatch(t, scene.Roles, found.Roles)
	assert.Len(t, found.Location, 2)
}

func TestArchiveAdapterCollectionFilterIntegration(t *testing.T) {
	if os.Getenv("TEST_TYPESENSE_URL") == "" {
		t.Skip("Skipping integration test: TEST_TYPESENSE_URL not set")
	}

	tsClient := newTestTypesenseClient(t)
	adapter := search.NewArchiveAdapter(tsClient)

	ctx := context.Background()
	require.NoError(t, adapter.EnsureCollection(ctx))

	optical := &entities.ArchivedScene{
		ID:           "S2B_MSIL2A_ARCHIVE_TEST",
		SceneID:      "S2B_MSIL2A_ARCHIVE_TEST",
		Collection:   string(entities.CollectionOptical),
		Mission:      entities.CollectionOptical.Label(),
		Acquired:     time.Date(2023, 6, 1, 2, 15, 0, 0, time.UTC).Unix(),
		CloudCover:   12.3,
		Location:     []float64{37.5665, 126.978},
		Roles:        []string{"visual"},
		Paths:        []string{"downloads/S2B_MSIL2A_ARCHIVE_TEST_visual.tif"},
		DownloadedAt: time.Now().Unix(),
	}
	require.NoError(t, adapter.Index(ctx, optical))

	results, err := adapter.Search(ctx, repositories.ArchiveQuery{
		Collection: string(entities.CollectionRadar),
		Limit:      50,
	})
	require.NoError(t, err)

	for _, found := range results {
		assert.NotEqual(t, optical.SceneID, found.SceneID, "optical scene leaked into radar filter")
	}
}
