package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Engine   EngineConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration. When Enabled is false the
// engine runs on the in-memory contract store.
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration. When Enabled is false notifications
// are logged and dropped instead of published.
type RedisConfig struct {
	Enabled  bool
	URL      string
	Password string
}

// JWTConfig holds JWT configuration. IssuerEnabled controls the self-service
// token endpoint: it mints a token for any party id without a credential, so
// it is only meant for trusted networks and local development. Disable it in
// deployments where tokens come from an upstream identity provider.
type JWTConfig struct {
	Secret        string
	Expiry        time.Duration
	IssuerEnabled bool
}

// EngineConfig holds escrow engine configuration. SignatureMode selects the
// party signature verifier: "secp256k1" or "simulation".
type EngineConfig struct {
	SweepInterval time.Duration
	DrainInterval time.Duration
	SignatureMode string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvBool("DB_ENABLED", false),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "escrow"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			URL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:        getEnv("JWT_SECRET", "dev-secret-change-me"),
			Expiry:        getEnvDuration("JWT_EXPIRY", 24*time.Hour),
			IssuerEnabled: getEnvBool("TOKEN_ISSUER_ENABLED", true),
		},
		Engine: EngineConfig{
			SweepInterval: getEnvDuration("SWEEP_INTERVAL", 10*time.Second),
			DrainInterval: getEnvDuration("DRAIN_INTERVAL", 30*time.Second),
			SignatureMode: getEnv("SIGNATURE_MODE", "secp256k1"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
