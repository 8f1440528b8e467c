package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/bobarin/clipforge/internal/models"
)

// StorageConfig selects and configures the remote storage tier. It is built
// once at process start and passed into the tiering service — business logic
// never reads the environment directly.
type StorageConfig struct {
	RemoteTierEnabled bool
	Provider          models.StorageProvider
	Bucket            string
	Region            string
	AccessKeyID       string
	SecretAccessKey   string
	CDNBaseURL        string
}

type Config struct {
	// Server
	APIPort            string
	BackendAPIKey      string // API key for authenticating requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)

	// Local tier directories
	ClipsDir  string
	VideosDir string

	// Remote tier
	Storage StorageConfig

	// OpenAI (optional — segment recommendation scorer)
	OpenAIKey string

	// Batch processing
	MaxConcurrentJobs int

	// Periodic local tier sweep (0 = disabled, sweep via API only)
	CleanupIntervalHours int
	CleanupMaxAgeHours   int
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "8080"),
		BackendAPIKey:      getEnv("BACKEND_API_KEY", ""),
		CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		ClipsDir:           getEnv("CLIPS_DIR", "uploads/clips"),
		VideosDir:          getEnv("VIDEOS_DIR", "uploads/videos"),
		Storage: StorageConfig{
			RemoteTierEnabled: getEnvBool("USE_CLOUD_STORAGE", false),
			Provider:          models.StorageProvider(getEnv("CLOUD_STORAGE_PROVIDER", "local")),
			Bucket:            getEnv("AWS_S3_BUCKET_NAME", ""),
			Region:            getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:       getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
			CDNBaseURL:        getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		OpenAIKey:            getEnv("OPENAI_API_KEY", ""),
		MaxConcurrentJobs:    getEnvInt("MAX_CONCURRENT_JOBS", 4),
		CleanupIntervalHours: getEnvInt("CLEANUP_INTERVAL_HOURS", 0),
		CleanupMaxAgeHours:   getEnvInt("CLEANUP_MAX_AGE_HOURS", 24),
	}

	// Validate
	if cfg.Storage.RemoteTierEnabled {
		switch cfg.Storage.Provider {
		case models.ProviderS3:
			if cfg.Storage.Bucket == "" {
				return nil, fmt.Errorf("AWS_S3_BUCKET_NAME is required when CLOUD_STORAGE_PROVIDER=aws-s3")
			}
		case models.ProviderLocal:
			// Remote tier flagged on but provider is local — treat as disabled
			cfg.Storage.RemoteTierEnabled = false
		default:
			return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Storage.Provider)
		}
	}

	if cfg.MaxConcurrentJobs < 1 {
		cfg.MaxConcurrentJobs = 1
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}
