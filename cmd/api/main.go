package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/peakgeo/sentinel-agent/internal/adapters/cache"
	"github.com/peakgeo/sentinel-agent/internal/adapters/catalog"
	"github.com/peakgeo/sentinel-agent/internal/adapters/database"
	"github.com/peakgeo/sentinel-agent/internal/adapters/events"
	"github.com/peakgeo/sentinel-agent/internal/adapters/providers/geocoding"
	"github.com/peakgeo/sentinel-agent/internal/adapters/search"
	"github.com/peakgeo/sentinel-agent/internal/adapters/storage"
	"github.com/peakgeo/sentinel-agent/internal/api/handlers"
	"github.com/peakgeo/sentinel-agent/internal/api/middleware"
	"github.com/peakgeo/sentinel-agent/internal/api/routes"
	"github.com/peakgeo/sentinel-agent/internal/application/services"
	"github.com/peakgeo/sentinel-agent/internal/domain/providers"
	"github.com/peakgeo/sentinel-agent/internal/domain/repositories"
	"github.com/peakgeo/sentinel-agent/internal/infrastructure/clients/openai"
	"github.com/peakgeo/sentinel-agent/internal/infrastructure/clients/postgres"
	"github.com/peakgeo/sentinel-agent/internal/infrastructure/clients/redis"
	"github.com/peakgeo/sentinel-agent/internal/infrastructure/clients/typesense"
	"github.com/peakgeo/sentinel-agent/internal/infrastructure/observability"
	"github.com/peakgeo/sentinel-agent/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - downloads work without caching or events
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	// Initialize Typesense client
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Printf("Warning: Failed to initialize Typesense client: %v", err)
		typesenseClient = nil
	} else {
		log.Println("Typesense client initialized successfully")
	}

	// Initialize adapters

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize event bus for real-time updates
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Event bus initialized successfully")
	} else {
		log.Println("Event bus disabled (Redis not available)")
	}

	var archiveRepo repositories.SceneArchiveRepository
	if typesenseClient != nil {
		adapter := search.NewArchiveAdapter(typesenseClient)

		// Ensure the scene collection exists
		if err := adapter.EnsureCollection(context.Background()); err != nil {
			log.Printf("Warning: Failed to init scene archive collection: %v", err)
		}

		archiveRepo = adapter
	}

	catalogAdapter := catalog.NewSTACAdapterWithOptions(cfg.Catalog.BaseURL, &http.Client{
		Timeout: time.Duration(cfg.Catalog.TimeoutSeconds) * time.Second,
	})

	fetcher := storage.NewHTTPFetcher(cfg.Storage.S3Domain, cfg.Storage.ChunkBytes, metrics)

	historyRepo := database.NewFetchRequestAdapter(pgClient)

	geocoder := geocoding.NewGeocoderFromConfig(cfg.Geocoder, cacheProvider)
	log.Printf("Using %s geocoder", cfg.Geocoder.Provider)

	var completer providers.ChatCompleter
	if cfg.OpenAI.APIKey == "" {
		log.Println("Warning: OPENAI_API_KEY is not set; chat agent disabled")
	} else {
		openaiClient, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			log.Printf("Warning: Failed to initialize OpenAI client: %v", err)
		} else {
			defer openaiClient.Close()
			completer = openaiClient
		}
	}

	// Initialize services

	sceneService := services.NewSceneService(
		catalogAdapter,
		fetcher,
		historyRepo,
		archiveRepo,
		eventBus,
		metrics,
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

	geocodeService := services.NewGeocodeService(geocoder)

	transcriptService := services.NewTranscriptService(sqlx.NewDb(pgClient.DB(), "postgres"))

	agentService := services.NewAgentService(completer, sceneService, geocodeService, transcriptService)

	// Initialize handlers

	sceneHandler := handlers.NewSceneHandler(sceneService)

	geocodeHandler := handlers.NewGeocodeHandler(geocodeService)

	chatHandler := handlers.NewChatHandler(agentService)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
		log.Println("Cache middleware initialized successfully")
	}

	// Set up router

	router := routes.NewRouter(
		sceneHandler,
		geocodeHandler,
		chatHandler,
		cacheMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Minute, // Scene downloads hold the response open
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	log.Println("Server stopped")
}
