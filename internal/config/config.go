// Package config loads service configuration in layers:
// defaults, then configs/base.yaml, then configs/<profile>.yaml, then CRUDKEEPER_* env vars.
package config

import "time"

// Config holds all configuration for the service.
type Config struct {
	HTTP    HTTPConfig    `koanf:"http"`
	GRPC    GRPCConfig    `koanf:"grpc"`
	Storage StorageConfig `koanf:"storage"`
	Auth    AuthConfig    `koanf:"auth"`
	Limiter LimiterConfig `koanf:"limiter"`
	Log     LogConfig     `koanf:"log"`
}

// HTTPConfig holds API listener settings.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// GRPCConfig holds the health listener settings.
type GRPCConfig struct {
	Addr          string        `koanf:"addr"`
	ProbeInterval time.Duration `koanf:"probe_interval"`
	Reflection    bool          `koanf:"reflection"`
}

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// StorageConfig selects and configures the backend.
type StorageConfig struct {
	Driver  string `koanf:"driver"`
	DSN     string `koanf:"dsn"`
	Migrate bool   `koanf:"migrate"` // apply pending migrations on startup
}

// AuthConfig configures token issuance.
type AuthConfig struct {
	SigningKey string        `koanf:"signing_key"`
	Issuer     string        `koanf:"issuer"`
	AccessTTL  time.Duration `koanf:"access_ttl"`
	RefreshTTL time.Duration `koanf:"refresh_ttl"`
}

// LimiterConfig configures login throttling.
type LimiterConfig struct {
	Window   time.Duration `koanf:"window"`
	MaxFails int           `koanf:"max_fails"`
	BlockFor time.Duration `koanf:"block_for"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level       string `koanf:"level"`
	Development bool   `koanf:"development"`
}
