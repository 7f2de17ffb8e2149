package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, BlobLocal, cfg.BlobDriver)
	assert.Equal(t, 8, cfg.ReceiptMaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.ReceiptPollInterval)
	assert.Equal(t, 7*24*time.Hour, cfg.S3URLExpiry)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfigOverrides(t *testing.T) {
	viper.Reset()
	t.Setenv("STORAGE_DRIVER", "bogus")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("RECEIPT_POLL_INTERVAL", "not-a-duration")
	t.Setenv("RECEIPT_MAX_ATTEMPTS", "3")
	t.Setenv("PUBLIC_BASE_URL", "https://files.example/")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.ReceiptPollInterval)
	assert.Equal(t, 3, cfg.ReceiptMaxAttempts)
	assert.Equal(t, "https://files.example", cfg.PublicBaseURL)
}
