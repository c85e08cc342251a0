package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Typesense TypesenseConfig
	Catalog   CatalogConfig
	Geocoder  GeocoderConfig
	Storage   StorageConfig
	OpenAI    OpenAIConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL    string
	APIKey string
}

// CatalogConfig holds STAC catalog configuration.
// SearchRadiusDeg is the half-width in degrees of the bounding box built
// around a query point; MaxCandidates caps a single search page.
type CatalogConfig struct {
	BaseURL           string
	RadarCollection   string
	OpticalCollection string
	SearchRadiusDeg   float64
	MaxCandidates     int
	TimeoutSeconds    int
	DefaultWindowDays int
	DefaultMaxCloud   float64
}

// GeocoderConfig holds geocoder configuration. Provider selects the backend:
// nominatim (default, keyless), google, or mock.
type GeocoderConfig struct {
	Provider       string
	BaseURL        string
	UserAgent      string
	GoogleAPIKey   string
	TimeoutSeconds int
}

// StorageConfig holds asset download configuration
type StorageConfig struct {
	Dir        string
	S3Domain   string
	ChunkBytes int
}

// OpenAIConfig holds OpenAI configuration
type OpenAIConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	RateLimitRPM   int
	RateLimitBurst int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "sentinel_agent"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:    getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey: getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		Catalog: CatalogConfig{
			BaseURL:           getEnv("CATALOG_URL", "https://earth-search.aws.element84.com/v1"),
			RadarCollection:   getEnv("CATALOG_RADAR_COLLECTION", "sentinel-1-grd"),
			OpticalCollection: getEnv("CATALOG_OPTICAL_COLLECTION", "sentinel-2-l2a"),
			SearchRadiusDeg:   getEnvAsFloat("CATALOG_SEARCH_RADIUS_DEG", 0.2),
			MaxCandidates:     getEnvAsInt("CATALOG_MAX_CANDIDATES", 50),
			TimeoutSeconds:    getEnvAsInt("CATALOG_TIMEOUT_SECONDS", 30),
			DefaultWindowDays: getEnvAsInt("CATALOG_DEFAULT_WINDOW_DAYS", 10),
			DefaultMaxCloud:   getEnvAsFloat("CATALOG_DEFAULT_MAX_CLOUD", 20),
		},
		Geocoder: GeocoderConfig{
			Provider:       getEnv("GEOCODER_PROVIDER", "nominatim"),
			BaseURL:        getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:      getEnv("GEOCODER_USER_AGENT", "sentinel_downloader"),
			GoogleAPIKey:   getEnv("GOOGLE_MAPS_API_KEY", ""),
			TimeoutSeconds: getEnvAsInt("GEOCODER_TIMEOUT_SECONDS", 10),
		},
		Storage: StorageConfig{
			Dir:        getEnv("STORAGE_DIR", "downloads"),
			S3Domain:   getEnv("STORAGE_S3_DOMAIN", "s3.amazonaws.com"),
			ChunkBytes: getEnvAsInt("STORAGE_CHUNK_BYTES", 8192),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			RateLimitRPM:   getEnvAsInt("OPENAI_RATE_LIMIT_RPM", 60),
			RateLimitBurst: getEnvAsInt("OPENAI_RATE_LIMIT_BURST", 5),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "sentinel-agent"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
