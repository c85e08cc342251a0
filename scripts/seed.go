package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/peakgeo/sentinel-agent/internal/adapters/database"
	"github.com/peakgeo/sentinel-agent/internal/adapters/search"
	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
	"github.com/peakgeo/sentinel-agent/internal/infrastructure/clients/postgres"
	"github.com/peakgeo/sentinel-agent/internal/infrastructure/clients/typesense"
	"github.com/peakgeo/sentinel-agent/pkg/config"
)

// Table definitions live here rather than in migration files: the schema is
// two tables and this seeder is already the bootstrap entry point for a
// fresh environment.
const schema = `
CREATE TABLE IF NOT EXISTS fetch_requests (
	id               TEXT PRIMARY KEY,
	collection       TEXT NOT NULL,
	lon              DOUBLE PRECISION NOT NULL,
	lat              DOUBLE PRECISION NOT NULL,
	query_date       TIMESTAMPTZ NOT NULL,
	window_days      INTEGER NOT NULL,
	max_cloud_cover  DOUBLE PRECISION,
	scene_id         TEXT,
	status           TEXT NOT NULL,
	report           TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL,
	completed_at     TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_fetch_requests_created_at ON fetch_requests (created_at DESC);

CREATE TABLE IF NOT EXISTS agent_exchanges (
	id            TEXT PRIMARY KEY,
	user_message  TEXT NOT NULL,
	reply         TEXT NOT NULL,
	tools_invoked TEXT,
	iterations    INTEGER NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_agent_exchanges_created_at ON agent_exchanges (created_at DESC);
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()

	if _, err := pgClient.DB().ExecContext(ctx, schema); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	log.Println("Schema ready")

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				fetch_requests,
				agent_exchanges
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	var archiveRepo *search.ArchiveAdapter
	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Printf("Warning: Typesense unavailable, skipping archive seed: %v", err)
	} else {
		archiveRepo = search.NewArchiveAdapter(tsClient)
		if err := archiveRepo.EnsureCollection(ctx); err != nil {
			log.Printf("Warning: failed to ensure archive collection: %v", err)
			archiveRepo = nil
		}
	}

	historyRepo := database.NewFetchRequestAdapter(pgClient)

	// Demo history: two successful downloads over Busan, one empty optical
	// window, one transfer failure
	busanDate := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	radarScene := "S1A_IW_GRDH_1SDV_20230603T093251_048850_05E056"
	opticalScene := "S2B_52SFB_20230605_0_L2A"
	maxCloud := 20.0

	completed := []entities.FetchRequest{
		{
			ID:         uuid.New().String(),
			Collection: entities.CollectionRadar,
			Longitude:  129.0756,
			Latitude:   35.1796,
			QueryDate:  busanDate,
			WindowDays: 10,
			SceneID:    &radarScene,
			Status:     entities.FetchStatusCompleted,
			Report: "Sentinel-1 download results:\n" +
				"  VV: Saved to downloads/" + radarScene + "_vv.tiff\n" +
				"  VH: Saved to downloads/" + radarScene + "_vh.tiff\n" +
				"Acquired: 2023-06-03T09:32:51Z",
		},
		{
			ID:            uuid.New().String(),
			Collection:    entities.CollectionOptical,
			Longitude:     129.1186,
			Latitude:      35.1537,
			QueryDate:     busanDate,
			WindowDays:    10,
			MaxCloudCover: &maxCloud,
			SceneID:       &opticalScene,
			Status:        entities.FetchStatusCompleted,
			Report: "Sentinel-2 L2A download results:\n" +
				"  VISUAL: Saved to downloads/" + opticalScene + "_visual.tiff\n" +
				"Acquired: 2023-06-05T02:21:09Z\n" +
				"Cloud cover: 3.2%",
		},
		{
			ID:            uuid.New().String(),
			Collection:    entities.CollectionOptical,
			Longitude:     127.0276,
			Latitude:      37.4979,
			QueryDate:     time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
			WindowDays:    3,
			MaxCloudCover: &maxCloud,
			Status:        entities.FetchStatusNoScene,
			Report: "No Sentinel-2 L2A scenes found within ±3 days with cloud cover < 20%.\n" +
				"Reference date: 2023-01-15, coordinates (lon=127.0276, lat=37.4979)",
		},
		{
			ID:         uuid.New().String(),
			Collection: entities.CollectionRadar,
			Longitude:  126.9780,
			Latitude:   37.5665,
			QueryDate:  busanDate,
			WindowDays: 10,
			Status:     entities.FetchStatusFailed,
			Report:     "Sentinel-1 download results:\n  VV: Download failed (status 403)\n  VH: Download failed (status 403)",
		},
	}

	seeded := 0
	for i := range completed {
		request := &completed[i]
		request.CreatedAt = time.Now().Add(-time.Duration(len(completed)-i) * time.Hour)
		if err := historyRepo.Create(ctx, request); err != nil {
			log.Printf("Failed to create request %s: %v", request.ID, err)
			continue
		}
		if err := historyRepo.Complete(ctx, request); err != nil {
			log.Printf("Failed to complete request %s: %v", request.ID, err)
			continue
		}
		seeded++
	}
	log.Printf("Seeded %d fetch requests", seeded)

	if archiveRepo != nil {
		scenes := []entities.ArchivedScene{
			{
				ID:           radarScene,
				SceneID:      radarScene,
				Collection:   string(entities.CollectionRadar),
				Mission:      "Sentinel-1",
				Acquired:     time.Date(2023, 6, 3, 9, 32, 51, 0, time.UTC).Unix(),
				Location:     []float64{35.1796, 129.0756},
				Roles:        []string{"vv", "vh"},
				Paths:        []string{"downloads/" + radarScene + "_vv.tiff", "downloads/" + radarScene + "_vh.tiff"},
				DownloadedAt: time.Now().Unix(),
			},
			{
				ID:           opticalScene,
				SceneID:      opticalScene,
				Collection:   string(entities.CollectionOptical),
				Mission:      "Sentinel-2",
				Acquired:     time.Date(2023, 6, 5, 2, 21, 9, 0, time.UTC).Unix(),
				CloudCover:   3.2,
				Location:     []float64{35.1537, 129.1186},
				Roles:        []string{"visual"},
				Paths:        []string{"downloads/" + opticalScene + "_visual.tiff"},
				DownloadedAt: time.Now().Unix(),
			},
		}

		indexed := 0
		for i := range scenes {
			if err := archiveRepo.Index(ctx, &scenes[i]); err != nil {
				log.Printf("Failed to index scene %s: %v", scenes[i].SceneID, err)
				continue
			}
			indexed++
		}
		log.Printf("Indexed %d archived scenes", indexed)
	}

	log.Println("Seeding complete")
}
