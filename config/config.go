package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"mortgage-calculator/logger"
)

// ServerConfig holds server-level config
type ServerConfig struct {
	Port            int           `yaml:"port" validate:"min=1,max=65535"`
	GinMode         string        `yaml:"gin_mode" validate:"oneof=debug release test"`
	AllowedOrigin   string        `yaml:"allowed_origin"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

type CacheConfig struct {
	Driver string        `yaml:"driver" validate:"oneof=memory redis"`
	TTL    time.Duration `yaml:"ttl" validate:"gte=0"`
}

// Redis connection config
type RedisConfig struct {
	Addr           string        `yaml:"addr"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db" validate:"gte=0"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type RateLimitConfig struct {
	Capacity int           `yaml:"capacity" validate:"min=1"`
	Refill   time.Duration `yaml:"refill" validate:"gt=0"`
}

type OtelConfig struct {
	ServiceName  string `yaml:"service_name" validate:"required"`
	CollectorURL string `yaml:"collector_url"`
}

// LimitsConfig bounds what the HTTP layer accepts. The amortization engine
// itself takes any positive term.
type LimitsConfig struct {
	MaxPrincipal float64 `yaml:"max_principal" validate:"gt=0"`
	MaxTermYears int     `yaml:"max_term_years" validate:"min=1"`
}

// AppConfig is the main config struct that holds all configs
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LogConfig       `yaml:"logging"`
	Cache     CacheConfig     `yaml:"cache"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Otel      OtelConfig      `yaml:"otel"`
	Limits    LimitsConfig    `yaml:"limits"`
}

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:            8080,
			GinMode:         "release",
			AllowedOrigin:   "*",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LogConfig{Level: "info"},
		Cache: CacheConfig{
			Driver: "memory",
			TTL:    10 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:           "localhost:6379",
			ConnectTimeout: 5 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Capacity: 60,
			Refill:   time.Minute,
		},
		Otel: OtelConfig{ServiceName: "mortgage-calculator"},
		Limits: LimitsConfig{
			MaxPrincipal: 1_000_000_000,
			MaxTermYears: 50,
		},
	}
}

func applyEnvOverrides(cfg *AppConfig) *AppConfig {

	// server
	cfg.Server.Port = GetEnvOrDefaultAsInt("SERVER_PORT", cfg.Server.Port)
	cfg.Server.GinMode = GetEnvOrDefaultAsString("GIN_MODE", cfg.Server.GinMode)
	cfg.Server.AllowedOrigin = GetEnvOrDefaultAsString("SERVER_ALLOWED_ORIGIN", cfg.Server.AllowedOrigin)

	cfg.Logging.Level = GetEnvOrDefaultAsString("LOGGING_LEVEL", cfg.Logging.Level)

	// cache
	cfg.Cache.Driver = GetEnvOrDefaultAsString("CACHE_DRIVER", cfg.Cache.Driver)
	cfg.Cache.TTL = GetEnvOrDefaultAsSeconds("CACHE_TTL_SECONDS", cfg.Cache.TTL)

	// redis
	cfg.Redis.Addr = GetEnvOrDefaultAsString("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = GetEnvOrDefaultAsString("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = GetEnvOrDefaultAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.ConnectTimeout = GetEnvOrDefaultAsSeconds("REDIS_CONNECT_TIMEOUT_SECONDS", cfg.Redis.ConnectTimeout)

	// rate limit
	cfg.RateLimit.Capacity = GetEnvOrDefaultAsInt("RATE_LIMIT_CAPACITY", cfg.RateLimit.Capacity)
	cfg.RateLimit.Refill = GetEnvOrDefaultAsSeconds("RATE_LIMIT_REFILL_SECONDS", cfg.RateLimit.Refill)

	// otel
	cfg.Otel.ServiceName = GetEnvOrDefaultAsString("OTEL_SERVICE_NAME", cfg.Otel.ServiceName)
	cfg.Otel.CollectorURL = GetEnvOrDefaultAsString("OTEL_COLLECTOR_URL", cfg.Otel.CollectorURL)

	return cfg
}

// LoadFromConfigFilePath reads the YAML file at configPath over the
// defaults, then applies env overrides. A missing file is not an error.
func LoadFromConfigFilePath(configPath string) (*AppConfig, error) {
	cfg := Default()

	// #nosec G304: configPath comes from the operator
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("Config file not found, using defaults", zap.String("path", configPath))
	case err != nil:
		logger.Error("Failed to read config file", err, zap.String("path", configPath))
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			logger.Error("Failed to unmarshal config", err)
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	cfg = applyEnvOverrides(cfg)

	if err := validateConfig(cfg); err != nil {
		logger.Error("Config validation failed", err)
		return nil, err
	}

	logger.Info("Configuration loaded successfully", zap.String("path", configPath))
	return cfg, nil
}

// LoadFromConfig loads a .env file when present and then the config file
// named by CONFIG_PATH.
func LoadFromConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	configPath := GetEnvOrDefaultAsString("CONFIG_PATH", "config.yaml")
	cfg, err := LoadFromConfigFilePath(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}
	return cfg, nil
}

var validate = validator.New()

func validateConfig(cfg *AppConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Cache.Driver == "redis" && strings.TrimSpace(cfg.Redis.Addr) == "" {
		return errors.New("invalid config: redis.addr is required when cache.driver is redis")
	}
	return nil
}

// GetEnvOrDefaultAsInt returns the value of the given env variable
// as an int or the default value if not set or invalid.
func GetEnvOrDefaultAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return defaultValue
	}
	return value
}

// GetEnvOrDefaultAsSeconds reads a whole number of seconds.
func GetEnvOrDefaultAsSeconds(key string, defaultValue time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return defaultValue
	}
	return time.Duration(seconds) * time.Second
}

func GetEnvOrDefaultAsString(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		if strings.TrimSpace(val) != "" {
			return val
		}
	}
	return defaultVal
}
