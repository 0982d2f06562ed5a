package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "localhost", cfg.RegistryHost)
	assert.Equal(t, 5432, cfg.RegistryPort)
	assert.Equal(t, "gymstack", cfg.RegistryUser)
	assert.Equal(t, "disable", cfg.RegistrySSLMode)
	assert.Equal(t, "gym", cfg.BucketPrefix)
	assert.Equal(t, "_db", cfg.DBNameSuffix)
	assert.False(t, cfg.BucketVisible)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 2*time.Second, cfg.RetryDelay)
	assert.Empty(t, cfg.ControlPlaneToken, "direct admin SQL is the default mode")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REGISTRY_DB_HOST", "db.internal")
	t.Setenv("REGISTRY_DB_PORT", "6432")
	t.Setenv("DB_CONTROL_PLANE_TOKEN", "token")
	t.Setenv("DB_CONTROL_PLANE_PROJECT", "p1")
	t.Setenv("BUCKET_PREFIX", "fit")
	t.Setenv("BUCKET_SUFFIX", "prod")
	t.Setenv("BUCKET_PUBLIC", "true")
	t.Setenv("TENANT_DB_SUFFIX", "_tenant")
	t.Setenv("PROVISION_RETRY_ATTEMPTS", "5")
	t.Setenv("PROVISION_RETRY_DELAY", "500ms")

	cfg := Load()

	assert.Equal(t, "db.internal", cfg.RegistryHost)
	assert.Equal(t, 6432, cfg.RegistryPort)
	assert.Equal(t, "token", cfg.ControlPlaneToken)
	assert.Equal(t, "p1", cfg.ControlPlaneProject)
	assert.Equal(t, "fit", cfg.BucketPrefix)
	assert.Equal(t, "prod", cfg.BucketSuffix)
	assert.True(t, cfg.BucketVisible)
	assert.Equal(t, "_tenant", cfg.DBNameSuffix)
	assert.Equal(t, 5, cfg.RetryAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryDelay)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("REGISTRY_DB_PORT", "not-a-number")
	t.Setenv("BUCKET_PUBLIC", "sometimes")
	t.Setenv("PROVISION_RETRY_DELAY", "soon")

	cfg := Load()

	assert.Equal(t, 5432, cfg.RegistryPort)
	assert.False(t, cfg.BucketVisible)
	assert.Equal(t, 2*time.Second, cfg.RetryDelay)
}
