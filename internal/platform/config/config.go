package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Blob drivers.
const (
	BlobS3    = "s3"
	BlobLocal = "local"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	StorageDriver  string
	MigrationsPath string

	JWTSecret       string
	JWTIssuer       string
	AdminAPIKeyHash string

	CORSAllowedOrigins []string
	RateLimit          string
	PosthogAPIKey      string

	BlobDriver    string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3URLExpiry   time.Duration
	LocalBlobDir  string
	PublicBaseURL string

	IssuerName    string
	IssuerTaxID   string
	IssuerAddress string

	ReceiptNodeID       int64
	ReceiptMaxAttempts  int
	ReceiptPollInterval time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("STORAGE_DRIVER", StoragePostgres)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_ISSUER", "qorinti-ledger")
	viper.SetDefault("ADMIN_API_KEY_HASH", "")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("RATE_LIMIT", "120-M")
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("BLOB_DRIVER", BlobLocal)
	viper.SetDefault("S3_BUCKET", "")
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_ENDPOINT", "")
	viper.SetDefault("S3_URL_EXPIRY", "168h")
	viper.SetDefault("LOCAL_BLOB_DIR", "./data/blobs")
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	viper.SetDefault("ISSUER_NAME", "Qorinti S.A.C.")
	viper.SetDefault("ISSUER_TAX_ID", "")
	viper.SetDefault("ISSUER_ADDRESS", "")
	viper.SetDefault("RECEIPT_NODE_ID", 1)
	viper.SetDefault("RECEIPT_MAX_ATTEMPTS", 8)
	viper.SetDefault("RECEIPT_POLL_INTERVAL", "30s")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.MigrationsPath = viper.GetString("MIGRATIONS_PATH")

	cfg.StorageDriver = strings.ToLower(viper.GetString("STORAGE_DRIVER"))
	if cfg.StorageDriver != StorageMemory && cfg.StorageDriver != StoragePostgres {
		log.Printf("Warning: unknown STORAGE_DRIVER ('%s'). Defaulting to %s.\n", cfg.StorageDriver, StoragePostgres)
		cfg.StorageDriver = StoragePostgres
	}
	if cfg.StorageDriver == StoragePostgres && cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")
	cfg.AdminAPIKeyHash = viper.GetString("ADMIN_API_KEY_HASH")
	if cfg.AdminAPIKeyHash == "" {
		log.Println("Warning: ADMIN_API_KEY_HASH not set. Admin routes accept JWT admins only.")
	}

	cfg.CORSAllowedOrigins = splitList(viper.GetString("CORS_ALLOWED_ORIGINS"))
	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")

	cfg.BlobDriver = strings.ToLower(viper.GetString("BLOB_DRIVER"))
	cfg.S3Bucket = viper.GetString("S3_BUCKET")
	cfg.S3Region = viper.GetString("S3_REGION")
	cfg.S3Endpoint = viper.GetString("S3_ENDPOINT")
	cfg.S3URLExpiry = durationOr("S3_URL_EXPIRY", 7*24*time.Hour)
	cfg.LocalBlobDir = viper.GetString("LOCAL_BLOB_DIR")
	cfg.PublicBaseURL = strings.TrimRight(viper.GetString("PUBLIC_BASE_URL"), "/")
	if cfg.BlobDriver == BlobS3 && cfg.S3Bucket == "" {
		log.Println("Warning: BLOB_DRIVER is s3 but S3_BUCKET is empty. Receipt uploads will fail.")
	}

	cfg.IssuerName = viper.GetString("ISSUER_NAME")
	cfg.IssuerTaxID = viper.GetString("ISSUER_TAX_ID")
	cfg.IssuerAddress = viper.GetString("ISSUER_ADDRESS")

	cfg.ReceiptNodeID = viper.GetInt64("RECEIPT_NODE_ID")
	cfg.ReceiptMaxAttempts = viper.GetInt("RECEIPT_MAX_ATTEMPTS")
	if cfg.ReceiptMaxAttempts <= 0 {
		cfg.ReceiptMaxAttempts = 8
	}
	cfg.ReceiptPollInterval = durationOr("RECEIPT_POLL_INTERVAL", 30*time.Second)

	return cfg, nil
}

func durationOr(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
