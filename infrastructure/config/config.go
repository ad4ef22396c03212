package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	domainconfig "storycanvas/domain/config"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StorageDynamoDB = "dynamodb"
)

// Config holds application configuration. Values come from defaults, then the
// optional YAML file named by CONFIG_FILE, then environment variables.
type Config struct {
	// Server
	ServerAddress  string        `yaml:"server_address"`
	Environment    string        `yaml:"environment"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`

	// AWS
	AWSRegion     string `yaml:"aws_region"`
	DynamoDBTable string `yaml:"dynamodb_table"`
	EventBusName  string `yaml:"event_bus_name"`

	// Storage: memory or dynamodb
	StorageBackend string `yaml:"storage_backend"`

	// Lambda
	IsLambda bool `yaml:"-"`

	// Observability
	LogLevel      string `yaml:"log_level"`
	EnableMetrics bool   `yaml:"enable_metrics"`
	EnableTracing bool   `yaml:"enable_tracing"`
	OTLPEndpoint  string `yaml:"otlp_endpoint"`

	// Features
	EnableCORS bool `yaml:"enable_cors"`

	// Client side
	BackendURL string        `yaml:"backend_url"`
	BackupDir  string        `yaml:"backup_dir"`
	Breaker    BreakerConfig `yaml:"breaker"`
	Canvas     CanvasConfig  `yaml:"canvas"`

	// ConfigFile is the overlay this config was read from, if any
	ConfigFile string `yaml:"-"`
}

// BreakerConfig tunes the circuit breaker of the backend client
type BreakerConfig struct {
	MaxRequests      uint32        `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold uint32        `yaml:"failure_threshold"`
}

// CanvasConfig overrides the canvas timings. Zero values keep the domain defaults.
type CanvasConfig struct {
	UndoCapacity        int           `yaml:"undo_capacity"`
	SettleDelay         time.Duration `yaml:"settle_delay"`
	SyncDebounce        time.Duration `yaml:"sync_debounce"`
	BackupInterval      time.Duration `yaml:"backup_interval"`
	AutoPromoteInterval time.Duration `yaml:"auto_promote_interval"`
	LayoutSeed          uint64        `yaml:"layout_seed"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		ServerAddress:  ":8080",
		Environment:    "development",
		RequestTimeout: 30 * time.Second,
		AllowedOrigins: []string{"*"},
		AWSRegion:      "us-east-1",
		DynamoDBTable:  "storycanvas-projects",
		StorageBackend: StorageMemory,
		LogLevel:       "info",
		EnableMetrics:  true,
		EnableCORS:     true,
		BackendURL:     "http://localhost:8080",
		BackupDir:      ".storycanvas/backups",
		Breaker: BreakerConfig{
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
	}
}

// LoadConfig loads configuration from the environment and the optional config file
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads defaults, the given YAML file and the environment, in that order
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	cfg.ConfigFile = path
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", c.RequestTimeout)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = strings.Split(origins, ",")
	}

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBTable = getEnv("DYNAMODB_TABLE", c.DynamoDBTable)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)
	c.StorageBackend = getEnv("STORAGE_BACKEND", c.StorageBackend)

	c.IsLambda = os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)

	c.BackendURL = getEnv("BACKEND_URL", c.BackendURL)
	c.BackupDir = getEnv("BACKUP_DIR", c.BackupDir)

	c.Canvas.UndoCapacity = getEnvInt("CANVAS_UNDO_CAPACITY", c.Canvas.UndoCapacity)
	c.Canvas.SyncDebounce = getEnvDuration("CANVAS_SYNC_DEBOUNCE", c.Canvas.SyncDebounce)
	c.Canvas.BackupInterval = getEnvDuration("CANVAS_BACKUP_INTERVAL", c.Canvas.BackupInterval)
	c.Canvas.AutoPromoteInterval = getEnvDuration("CANVAS_AUTO_PROMOTE_INTERVAL", c.Canvas.AutoPromoteInterval)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.ServerAddress == "" && !c.IsLambda {
		return fmt.Errorf("SERVER_ADDRESS is required")
	}
	switch c.StorageBackend {
	case StorageMemory:
	case StorageDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for dynamodb storage")
		}
		if c.AWSRegion == "" {
			return fmt.Errorf("AWS_REGION is required for dynamodb storage")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Canvas.UndoCapacity < 0 {
		return fmt.Errorf("canvas.undo_capacity cannot be negative")
	}
	if c.Canvas.SyncDebounce < 0 || c.Canvas.BackupInterval < 0 || c.Canvas.AutoPromoteInterval < 0 || c.Canvas.SettleDelay < 0 {
		return fmt.Errorf("canvas timings cannot be negative")
	}
	return nil
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev" || c.Environment == "local"
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// DomainConfig returns the canvas rules for the environment with the configured overrides applied
func (c *Config) DomainConfig() *domainconfig.DomainConfig {
	dc := domainconfig.LoadDomainConfig(c.Environment)
	if c.Canvas.UndoCapacity > 0 {
		dc.UndoCapacity = c.Canvas.UndoCapacity
	}
	if c.Canvas.SettleDelay > 0 {
		dc.SettleDelay = c.Canvas.SettleDelay
	}
	if c.Canvas.SyncDebounce > 0 {
		dc.SyncDebounce = c.Canvas.SyncDebounce
	}
	if c.Canvas.BackupInterval > 0 {
		dc.BackupInterval = c.Canvas.BackupInterval
	}
	if c.Canvas.AutoPromoteInterval > 0 {
		dc.AutoPromoteInterval = c.Canvas.AutoPromoteInterval
	}
	return dc
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
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
