package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the full application configuration
type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	Admin      AdminConfig
	Simulation SimulationConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// RedisConfig holds key-value store connection settings
type RedisConfig struct {
	URL         string
	DialTimeout time.Duration
	OpTimeout   time.Duration
}

// AdminConfig holds the shared secret gating the admin surface
type AdminConfig struct {
	Token string
}

// SimulationConfig holds the temperature engine tunables
type SimulationConfig struct {
	BucketSeconds    int64
	MaxStepPerBucket float64
	CooldownDays     int
	MaxDailyCoolRate float64
	StateTTL         time.Duration
	Salt             string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Redis: RedisConfig{
			URL:         getEnv("REDIS_URL", "redis://localhost:6379"),
			DialTimeout: getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			OpTimeout:   getEnvDuration("REDIS_OP_TIMEOUT", 3*time.Second),
		},
		Admin: AdminConfig{
			Token: os.Getenv("ADMIN_TOKEN"),
		},
		Simulation: SimulationConfig{
			BucketSeconds:    int64(getEnvInt("SIM_BUCKET_SECONDS", 60)),
			MaxStepPerBucket: getEnvFloat("SIM_MAX_STEP_PER_BUCKET", 0.3),
			CooldownDays:     getEnvInt("SIM_COOLDOWN_DAYS", 10),
			MaxDailyCoolRate: getEnvFloat("SIM_MAX_DAILY_COOL_RATE", 2.0),
			StateTTL:         getEnvDuration("SIM_STATE_TTL", 28*24*time.Hour),
			Salt:             getEnv("SIM_SALT", "tankboard"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// Validate checks configuration invariants that would otherwise
// surface as confusing runtime failures
func (c *Config) Validate() error {
	if c.Admin.Token == "" {
		return fmt.Errorf("ADMIN_TOKEN is required")
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Simulation.BucketSeconds < 1 {
		return fmt.Errorf("SIM_BUCKET_SECONDS must be at least 1, got %d", c.Simulation.BucketSeconds)
	}
	if c.Simulation.MaxStepPerBucket <= 0 || c.Simulation.MaxStepPerBucket > 1.0 {
		return fmt.Errorf("SIM_MAX_STEP_PER_BUCKET must be in (0, 1.0], got %g", c.Simulation.MaxStepPerBucket)
	}
	if c.Simulation.CooldownDays < 1 {
		return fmt.Errorf("SIM_COOLDOWN_DAYS must be at least 1, got %d", c.Simulation.CooldownDays)
	}
	if c.Simulation.MaxDailyCoolRate <= 0 {
		return fmt.Errorf("SIM_MAX_DAILY_COOL_RATE must be positive, got %g", c.Simulation.MaxDailyCoolRate)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
