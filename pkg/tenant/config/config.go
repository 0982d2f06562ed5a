package config

import (
	"os"
	"strconv"
	"time"

	"github.com/gymstack/gymstack/pkg/common"
)

// Config is the environment surface of the lifecycle manager.
type Config struct {
	// Registry database
	RegistryHost     string
	RegistryPort     int
	RegistryUser     string
	RegistryPassword string
	RegistryDBName   string
	RegistrySSLMode  string

	// Database control plane; direct admin SQL is used when the token is
	// empty.
	ControlPlaneURL     string
	ControlPlaneToken   string
	ControlPlaneProject string
	ControlPlaneBranch  string
	DBOwner             string
	AdminDSN            string

	// Object store master account
	MasterKeyID  string
	MasterAppKey string

	// Naming
	BucketPrefix   string
	BucketSuffix   string
	BucketVisible  bool
	DBNameSuffix   string

	// Retry policy
	RetryAttempts int
	RetryDelay    time.Duration

	// Tracing
	TracingEndpoint string
}

func Load() *Config {
	return &Config{
		RegistryHost:     getEnvWithDefault("REGISTRY_DB_HOST", "localhost"),
		RegistryPort:     getEnvIntWithDefault("REGISTRY_DB_PORT", 5432),
		RegistryUser:     getEnvWithDefault("REGISTRY_DB_USER", "gymstack"),
		RegistryPassword: getEnvWithDefault("REGISTRY_DB_PASSWORD", "gymstack"),
		RegistryDBName:   getEnvWithDefault("REGISTRY_DB_NAME", "gymstack"),
		RegistrySSLMode:  getEnvWithDefault("REGISTRY_DB_SSLMODE", "disable"),

		ControlPlaneURL:     getEnvWithDefault("DB_CONTROL_PLANE_URL", "https://console.neon.tech/api/v2"),
		ControlPlaneToken:   os.Getenv("DB_CONTROL_PLANE_TOKEN"),
		ControlPlaneProject: os.Getenv("DB_CONTROL_PLANE_PROJECT"),
		ControlPlaneBranch:  os.Getenv("DB_CONTROL_PLANE_BRANCH"),
		DBOwner:             getEnvWithDefault("TENANT_DB_OWNER", "gymstack"),
		AdminDSN:            getEnvWithDefault("ADMIN_DSN", "host=localhost user=postgres dbname=postgres sslmode=disable"),

		MasterKeyID:  os.Getenv("B2_MASTER_KEY_ID"),
		MasterAppKey: os.Getenv("B2_MASTER_APP_KEY"),

		BucketPrefix:  getEnvWithDefault("BUCKET_PREFIX", common.DefaultBucketPrefix),
		BucketSuffix:  os.Getenv("BUCKET_SUFFIX"),
		BucketVisible: getEnvBoolWithDefault("BUCKET_PUBLIC", false),
		DBNameSuffix:  getEnvWithDefault("TENANT_DB_SUFFIX", common.DefaultDBNameSuffix),

		RetryAttempts: getEnvIntWithDefault("PROVISION_RETRY_ATTEMPTS", 3),
		RetryDelay:    getEnvDurationWithDefault("PROVISION_RETRY_DELAY", 2*time.Second),

		TracingEndpoint: os.Getenv("OPTL_TRACING_ENDPOINT"),
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
