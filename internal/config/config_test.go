package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:             "development",
		Port:            "8080",
		JWTSecret:       "secure-secret-at-least-32-chars-long",
		DBPassword:      "secure-password",
		DBSSLMode:       "require",
		MaxUploadSizeMB: 10,
		StorageDriver:   StorageDriverLocal,
		StorageRoot:     "resources/upload-dir",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"Valid development", func(_ *Config) {}, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Missing JWT secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"Zero upload size", func(c *Config) { c.MaxUploadSizeMB = 0 }, true},
		{"Unknown storage driver", func(c *Config) { c.StorageDriver = "ftp" }, true},
		{"Local driver without root", func(c *Config) { c.StorageRoot = "" }, true},
		{"Minio without bucket", func(c *Config) {
			c.StorageDriver = StorageDriverMinio
			c.MinioEndpoint = "localhost:9000"
		}, true},
		{"Minio configured", func(c *Config) {
			c.StorageDriver = StorageDriverMinio
			c.MinioEndpoint = "localhost:9000"
			c.MinioBucket = "ngelmak"
		}, false},
		{"Production default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "your-secret-key-change-in-production"
		}, true},
		{"Production SSL disabled", func(c *Config) {
			c.Env = "prod"
			c.DBSSLMode = "disable"
		}, true},
		{"Production seeding default users", func(c *Config) {
			c.Env = "production"
			c.SeedDefaultUsers = true
		}, true},
		{"Production hardened", func(c *Config) { c.Env = "production" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Cleanup(viper.Reset)

	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("STORAGE_DRIVER", " Local ")
	t.Setenv("SWEEP_RETENTION_HOURS", "48")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "test", c.Env)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, StorageDriverLocal, c.StorageDriver)
	assert.Equal(t, 48, c.SweepRetentionHours)
	assert.Equal(t, "attachments", c.StorageAttachmentsDir)
	assert.Equal(t, "ngelmakApp", c.AppName)
}
