package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string   `yaml:"port" env:"SERVER_PORT"`
		Mode            string   `yaml:"mode" env:"SERVER_MODE"`
		ReadTimeout     string   `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
		WriteTimeout    string   `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
		ShutdownTimeout string   `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
		AllowedOrigins  []string `yaml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS"`
	} `yaml:"server"`

	Storage struct {
		Driver string `yaml:"driver" env:"STORAGE_DRIVER"`
		// SeedDemo loads the demo profiles on startup
		SeedDemo bool `yaml:"seed_demo" env:"STORAGE_SEED_DEMO"`
	} `yaml:"storage"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	Mongo struct {
		URI            string `yaml:"uri" env:"MONGO_URI"`
		Database       string `yaml:"database" env:"MONGO_DATABASE"`
		ConnectTimeout string `yaml:"connect_timeout" env:"MONGO_CONNECT_TIMEOUT"`
	} `yaml:"mongo"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Uploads struct {
		Dir          string `yaml:"dir" env:"UPLOADS_DIR"`
		BaseURL      string `yaml:"base_url" env:"UPLOADS_BASE_URL"`
		MaxSizeBytes int64  `yaml:"max_size_bytes" env:"UPLOADS_MAX_SIZE_BYTES"`
	} `yaml:"uploads"`

	GenAI struct {
		Endpoint string `yaml:"endpoint" env:"GENAI_ENDPOINT"`
		APIKey   string `yaml:"api_key" env:"GENAI_API_KEY"`
		Model    string `yaml:"model" env:"GENAI_MODEL"`
		Timeout  string `yaml:"timeout" env:"GENAI_TIMEOUT"`
	} `yaml:"genai"`

	Maps struct {
		Endpoint string `yaml:"endpoint" env:"MAPS_ENDPOINT"`
		APIKey   string `yaml:"api_key" env:"MAPS_API_KEY"`
		Timeout  string `yaml:"timeout" env:"MAPS_TIMEOUT"`
	} `yaml:"maps"`

	Outbound struct {
		RetryMax          int     `yaml:"retry_max" env:"OUTBOUND_RETRY_MAX"`
		RetryWaitMin      string  `yaml:"retry_wait_min" env:"OUTBOUND_RETRY_WAIT_MIN"`
		RetryWaitMax      string  `yaml:"retry_wait_max" env:"OUTBOUND_RETRY_WAIT_MAX"`
		RequestsPerSecond float64 `yaml:"requests_per_second" env:"OUTBOUND_REQUESTS_PER_SECOND"`
		Burst             int     `yaml:"burst" env:"OUTBOUND_BURST"`
	} `yaml:"outbound"`

	Planner struct {
		Parallelism   int    `yaml:"parallelism" env:"PLANNER_PARALLELISM"`
		MockSeed      uint64 `yaml:"mock_seed" env:"PLANNER_MOCK_SEED"`
		DefaultOrigin string `yaml:"default_origin" env:"PLANNER_DEFAULT_ORIGIN"`
	} `yaml:"planner"`

	RateLimit struct {
		Enabled           bool    `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
		RequestsPerSecond float64 `yaml:"requests_per_second" env:"RATE_LIMIT_RPS"`
		Burst             int     `yaml:"burst" env:"RATE_LIMIT_BURST"`
	} `yaml:"ratelimit"`
}

// LoadConfig loads configuration from .env files, a YAML file and environment variables,
// in that order of increasing precedence.
func LoadConfig(configPath string, envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadDotEnv loads the given .env files (".env" when none are given) without
// overriding variables that are already set. Missing files are ignored.
func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.ReadTimeout = "15s"
	config.Server.WriteTimeout = "30s"
	config.Server.ShutdownTimeout = "10s"
	config.Server.AllowedOrigins = []string{"*"}

	config.Storage.Driver = DriverPostgres

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "studygraph"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"

	config.Mongo.URI = "mongodb://localhost:27017"
	config.Mongo.Database = "studygraph"
	config.Mongo.ConnectTimeout = "10s"

	config.JWT.AccessTokenExpiration = "24h"
	config.JWT.Issuer = "studygraph.app"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Uploads.Dir = "./uploads"
	config.Uploads.MaxSizeBytes = 2 << 20

	config.GenAI.Endpoint = "https://genai.rcac.purdue.edu/api/chat/completions"
	config.GenAI.Model = "llama3.1:latest"
	config.GenAI.Timeout = "30s"

	config.Maps.Endpoint = "https://maps.googleapis.com/maps/api/distancematrix/json"
	config.Maps.Timeout = "10s"

	config.Outbound.RetryMax = 2
	config.Outbound.RetryWaitMin = "250ms"
	config.Outbound.RetryWaitMax = "2s"
	config.Outbound.RequestsPerSecond = 5
	config.Outbound.Burst = 5

	config.Planner.Parallelism = 1
	config.Planner.DefaultOrigin = "Purdue Memorial Union, West Lafayette, IN"

	config.RateLimit.Enabled = true
	config.RateLimit.RequestsPerSecond = 10
	config.RateLimit.Burst = 20
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch config.Storage.Driver {
	case DriverPostgres:
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
	case DriverMongo:
		if config.Mongo.URI == "" {
			return fmt.Errorf("mongo uri is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", config.Storage.Driver)
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	durations := map[string]string{
		"JWT access token expiration": config.JWT.AccessTokenExpiration,
		"server read timeout":         config.Server.ReadTimeout,
		"server write timeout":        config.Server.WriteTimeout,
		"server shutdown timeout":     config.Server.ShutdownTimeout,
		"genai timeout":               config.GenAI.Timeout,
		"maps timeout":                config.Maps.Timeout,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	if config.Uploads.MaxSizeBytes <= 0 {
		return fmt.Errorf("uploads max size must be positive")
	}
	if config.Planner.Parallelism < 1 {
		return fmt.Errorf("planner parallelism must be at least 1")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
