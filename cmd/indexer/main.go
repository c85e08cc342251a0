package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/peakgeo/sentinel-agent/internal/adapters/catalog"
	"github.com/peakgeo/sentinel-agent/internal/adapters/database"
	"github.com/peakgeo/sentinel-agent/internal/adapters/search"
	"github.com/peakgeo/sentinel-agent/internal/application/services"
	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
	"github.com/peakgeo/sentinel-agent/internal/infrastructure/clients/postgres"
	"github.com/peakgeo/sentinel-agent/internal/infrastructure/clients/typesense"
	"github.com/peakgeo/sentinel-agent/pkg/config"
)

const historyBatch = 1000

// Rebuilds the Typesense scene archive from the fetch-request history and the
// files actually on disk. Acquisition metadata is recovered by replaying each
// request's catalog search; selection is deterministic, so a scene still in
// the catalog resolves to the same item the original run picked.
func main() {
	var reset bool
	var dirFlag string
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete the existing scenes collection before reindexing")
	flag.StringVar(&dirFlag, "dir", "", "downloads directory to scan (defaults to STORAGE_DIR)")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	var err error
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatalf("Invalid interval %q: %v", intervalValue, err)
		}
		if interval <= 0 {
			log.Fatalf("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, reset, dirFlag); err != nil {
			log.Printf("Reindex failed: %v", err)
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Printf("Reindex complete. Next run in %s.", interval)

		select {
		case <-ctx.Done():
			log.Println("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, reset bool, dirOverride string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	downloadsDir := dirOverride
	if downloadsDir == "" {
		downloadsDir = cfg.Storage.Dir
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	historyRepo := database.NewFetchRequestAdapter(pgClient)

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Println("Deleting scenes collection before reindex")
		if _, err := tsClient.Client().Collection(typesense.ScenesCollection).Delete(ctx); err != nil {
			log.Printf("Warning: failed to delete collection: %v", err)
		}
	}

	archiveAdapter := search.NewArchiveAdapter(tsClient)
	if err := archiveAdapter.EnsureCollection(ctx); err != nil {
		return err
	}

	catalogAdapter := catalog.NewSTACAdapterWithOptions(cfg.Catalog.BaseURL, &http.Client{
		Timeout: time.Duration(cfg.Catalog.TimeoutSeconds) * time.Second,
	})

	locator := services.NewSceneService(catalogAdapter, nil, nil, nil, nil, nil, services.SceneServiceOptions{
		RadarCollectionID:   cfg.Catalog.RadarCollection,
		OpticalCollectionID: cfg.Catalog.OpticalCollection,
		SearchRadiusDeg:     cfg.Catalog.SearchRadiusDeg,
		MaxCandidates:       cfg.Catalog.MaxCandidates,
		DefaultWindowDays:   cfg.Catalog.DefaultWindowDays,
		DefaultMaxCloud:     cfg.Catalog.DefaultMaxCloud,
		DefaultSaveDir:      downloadsDir,
	})

	requests, err := historyRepo.ListRecent(ctx, historyBatch)
	if err != nil {
		return err
	}

	log.Printf("Scanning %d fetch requests against %s...", len(requests), downloadsDir)

	indexed := 0
	for _, request := range requests {
		if request == nil || request.SceneID == nil {
			continue
		}
		if request.Status != entities.FetchStatusCompleted {
			continue
		}

		roles, paths := scanDownloads(downloadsDir, *request.SceneID)
		if len(roles) == 0 {
			continue
		}

		archived := &entities.ArchivedScene{
			ID:           *request.SceneID,
			SceneID:      *request.SceneID,
			Collection:   string(request.Collection),
			Mission:      request.Collection.Label(),
			Location:     []float64{request.Latitude, request.Longitude},
			Roles:        roles,
			Paths:        paths,
			DownloadedAt: request.CreatedAt.Unix(),
		}
		if request.CompletedAt != nil {
			archived.DownloadedAt = request.CompletedAt.Unix()
		}

		enrichFromCatalog(ctx, locator, request, archived)

		if err := archiveAdapter.Index(ctx, archived); err != nil {
			log.Printf("Failed to index scene %s: %v", *request.SceneID, err)
			continue
		}

		indexed++
		log.Printf("Indexed %s (%d assets)", *request.SceneID, len(roles))
	}

	log.Printf("Indexing complete: %d scenes.", indexed)
	return nil
}

// scanDownloads collects the asset roles present on disk for one scene. The
// fetcher names every file <sceneID>_<role>.tif, so the join needs nothing
// beyond the filename.
func scanDownloads(dir, sceneID string) ([]string, []string) {
	pattern := filepath.Join(dir, sceneID+"_*.tif")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, nil
	}

	var roles, paths []string
	for _, path := range matches {
		name := filepath.Base(path)
		role := strings.TrimSuffix(strings.TrimPrefix(name, sceneID+"_"), ".tif")
		if role == "" {
			continue
		}
		roles = append(roles, role)
		paths = append(paths, path)
	}
	return roles, paths
}

// enrichFromCatalog replays the request's search to recover the acquisition
// time, cloud cover and footprint the history table does not store.
// Best-effort: a scene that has left the catalog keeps the query coordinates
// and a zero acquisition time.
func enrichFromCatalog(ctx context.Context, locator *services.SceneService, request *entities.FetchRequest, archived *entities.ArchivedScene) {
	selection, err := locator.Locate(ctx, entities.SceneQuery{
		Longitude:     request.Longitude,
		Latitude:      request.Latitude,
		Date:          request.QueryDate,
		WindowDays:    request.WindowDays,
		Collection:    request.Collection,
		MaxCloudCover: request.MaxCloudCover,
	})
	if err != nil || selection == nil {
		log.Printf("Warning: could not re-resolve scene %s from the catalog", archived.SceneID)
		return
	}

	scene := selection.Scene
	if scene.ID != archived.SceneID {
		log.Printf("Warning: catalog now resolves %s to %s, keeping stored id", archived.SceneID, scene.ID)
		return
	}

	if scene.Acquired != nil {
		archived.Acquired = scene.Acquired.Unix()
	}
	if scene.CloudCover != nil {
		archived.CloudCover = *scene.CloudCover
	}
	if scene.Bound != nil {
		point := scene.Footprint()
		archived.Location = []float64{point.Y(), point.X()}
	}
}
