package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/peakgeo/sentinel-agent/internal/adapters/catalog"
	"github.com/peakgeo/sentinel-agent/internal/adapters/providers/geocoding"
	"github.com/peakgeo/sentinel-agent/internal/adapters/storage"
	"github.com/peakgeo/sentinel-agent/internal/application/services"
	"github.com/peakgeo/sentinel-agent/internal/domain/entities"
	"github.com/peakgeo/sentinel-agent/pkg/config"
)

func main() {
	var collectionFlag string
	var lon, lat float64
	var location string
	var dateFlag string
	var windowDays int
	var maxCloud float64
	var saveDir string
	var locateOnly bool

	flag.StringVar(&collectionFlag, "collection", "optical", "Scene collection: radar or optical")
	flag.Float64Var(&lon, "lon", 0, "Longitude of the point of interest")
	flag.Float64Var(&lat, "lat", 0, "Latitude of the point of interest")
	flag.StringVar(&location, "location", "", "Place name to geocode instead of -lon/-lat")
	flag.StringVar(&dateFlag, "date", "2023-06-01", "Reference date (YYYY-MM-DD)")
	flag.IntVar(&windowDays, "window", 0, "Search window in days on each side of the date (0 = default)")
	flag.Float64Var(&maxCloud, "max-cloud", -1, "Cloud cover ceiling percent for optical scenes (-1 = default)")
	flag.StringVar(&saveDir, "save-dir", "", "Directory to save assets into")
	flag.BoolVar(&locateOnly, "locate", false, "Only locate the best scene, do not download")
	flag.Parse()

	flagsSet := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { flagsSet[f.Name] = true })

	if location == "" && !(flagsSet["lon"] && flagsSet["lat"]) {
		log.Fatalf("Either -location or both -lon and -lat are required")
	}

	collection := entities.Collection(collectionFlag)
	if !collection.IsValid() {
		log.Fatalf("Invalid collection %q: must be radar or optical", collectionFlag)
	}

	date, err := time.Parse("2006-01-02", dateFlag)
	if err != nil {
		log.Fatalf("Invalid date %q, expected YYYY-MM-DD", dateFlag)
	}

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Resolve a place name when given
	if location != "" {
		geocoder := geocoding.NewGeocoderFromConfig(cfg.Geocoder, nil)
		result, err := services.NewGeocodeService(geocoder).Resolve(ctx, location)
		if err != nil {
			log.Fatalf("Failed to geocode %q: %v", location, err)
		}
		lon, lat = result.Longitude, result.Latitude
		log.Printf("Resolved %q to (lat=%g, lon=%g): %s", location, lat, lon, result.DisplayName)
	}

	// Set up the scene pipeline without history, archive, or events: a
	// one-shot run has nothing to persist or stream
	catalogAdapter := catalog.NewSTACAdapterWithOptions(cfg.Catalog.BaseURL, &http.Client{
		Timeout: time.Duration(cfg.Catalog.TimeoutSeconds) * time.Second,
	})
	fetcher := storage.NewHTTPFetcher(cfg.Storage.S3Domain, cfg.Storage.ChunkBytes, nil)

	svc := services.NewSceneService(
		catalogAdapter,
		fetcher,
		nil,
		nil,
		nil,
		nil,
		services.SceneServiceOptions{
			RadarCollectionID:   cfg.Catalog.RadarCollection,
			OpticalCollectionID: cfg.Catalog.OpticalCollection,
			SearchRadiusDeg:     cfg.Catalog.SearchRadiusDeg,
			MaxCandidates:       cfg.Catalog.MaxCandidates,
			DefaultWindowDays:   cfg.Catalog.DefaultWindowDays,
			DefaultMaxCloud:     cfg.Catalog.DefaultMaxCloud,
			DefaultSaveDir:      cfg.Storage.Dir,
		},
	)

	query := entities.SceneQuery{
		Longitude:  lon,
		Latitude:   lat,
		Date:       date,
		WindowDays: windowDays,
		Collection: collection,
		SaveDir:    saveDir,
	}
	if maxCloud >= 0 {
		query.MaxCloudCover = &maxCloud
	}

	if locateOnly {
		selection, err := svc.Locate(ctx, query)
		if err != nil {
			log.Fatalf("Scene search failed: %v", err)
		}
		if selection == nil {
			fmt.Println("No scene found in the search window.")
			return
		}
		scene := selection.Scene
		fmt.Printf("Best match: %s\n", scene.ID)
		if scene.Acquired != nil {
			fmt.Printf("Acquired: %s (offset %s from the reference date)\n",
				scene.Acquired.Format(time.RFC3339), selection.Offset)
		}
		if scene.CloudCover != nil {
			fmt.Printf("Cloud cover: %.1f%%\n", *scene.CloudCover)
		}
		return
	}

	start := time.Now()
	report, err := svc.Download(ctx, query)
	if err != nil {
		log.Fatalf("Download failed: %v", err)
	}

	fmt.Println(report.Message)
	log.Printf("Finished in %s", time.Since(start))
}
