package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"lotto/database"
	"lotto/lottery"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string `yaml:"database_url"`
	DatabaseName string `yaml:"database_name"`

	// Lottery configuration
	Manager      string `yaml:"manager"`       // Address that deploys and draws
	MinStake     string `yaml:"min_stake"`     // Wei integer or "<n>ether"
	Selector     string `yaml:"selector"`      // "keccak" or "crypto"
	DrawSchedule string `yaml:"draw_schedule"` // Cron expression with a seconds field

	// HTTP configuration
	HTTPAddr string `yaml:"http_addr"`

	// NATS configuration
	NATSServers       string `yaml:"nats_servers"` // Empty disables publishing
	NATSSubjectPrefix string `yaml:"nats_subject_prefix"`

	// OpenTelemetry configuration
	OTelServiceName          string `yaml:"otel_service_name"`
	OTelExporterType         string `yaml:"otel_exporter_type"` // "none", "console" or "otlp"
	OTelOTLPEndpoint         string `yaml:"otel_otlp_endpoint"`
	OTelExportIntervalMillis int    `yaml:"otel_export_interval_millis"`

	// Environment
	Environment string `yaml:"environment"` // "development", "production" or "test"
}

const defaultMinStake = "10000000000000000"

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = Load(os.Getenv("LOTTO_CONFIG"))
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// GetDatabaseURL combines the base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// MinStakeWei parses the configured minimum stake
func (c *Config) MinStakeWei() (*big.Int, error) {
	stake, err := lottery.ParseAmount(c.MinStake)
	if err != nil {
		return nil, fmt.Errorf("invalid min_stake: %w", err)
	}
	if stake.Sign() <= 0 {
		return nil, fmt.Errorf("min_stake must be positive")
	}
	return stake, nil
}

// ManagerAddress returns the configured manager, if any
func (c *Config) ManagerAddress() (common.Address, bool) {
	if !common.IsHexAddress(c.Manager) {
		return common.Address{}, false
	}
	return common.HexToAddress(c.Manager), true
}

// Load reads the optional YAML file at path and then applies environment overrides
func Load(path string) (*Config, error) {
	config := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	overrideString(&config.DatabaseURL, "DATABASE_URL")
	overrideString(&config.DatabaseName, "DATABASE_NAME")
	overrideString(&config.Manager, "LOTTO_MANAGER")
	overrideString(&config.MinStake, "LOTTO_MIN_STAKE")
	overrideString(&config.Selector, "LOTTO_SELECTOR")
	overrideString(&config.DrawSchedule, "LOTTO_DRAW_SCHEDULE")
	overrideString(&config.HTTPAddr, "LOTTO_HTTP_ADDR")
	overrideString(&config.NATSServers, "LOTTO_NATS_URL")
	overrideString(&config.NATSSubjectPrefix, "LOTTO_NATS_PREFIX")
	overrideString(&config.OTelServiceName, "OTEL_SERVICE_NAME")
	overrideString(&config.OTelExporterType, "LOTTO_METRICS_EXPORTER")
	overrideString(&config.OTelOTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	overrideString(&config.Environment, "ENVIRONMENT")

	if interval := os.Getenv("OTEL_METRIC_EXPORT_INTERVAL"); interval != "" {
		if parsed, err := strconv.Atoi(interval); err == nil {
			config.OTelExportIntervalMillis = parsed
		}
	}

	applyDefaults(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	if _, err := c.MinStakeWei(); err != nil {
		return err
	}
	if _, err := lottery.SelectorByName(c.Selector); err != nil {
		return err
	}
	if c.Manager != "" && !common.IsHexAddress(c.Manager) {
		return fmt.Errorf("manager %q is not a hex address", c.Manager)
	}
	switch c.OTelExporterType {
	case "none", "console", "otlp":
	default:
		return fmt.Errorf("unknown metrics exporter: %s", c.OTelExporterType)
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	return nil
}

func applyDefaults(c *Config) {
	if c.MinStake == "" {
		c.MinStake = defaultMinStake
	}
	if c.Selector == "" {
		c.Selector = "keccak"
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}
	if c.NATSSubjectPrefix == "" {
		c.NATSSubjectPrefix = "lotto"
	}
	if c.OTelServiceName == "" {
		c.OTelServiceName = "lotto"
	}
	if c.OTelExporterType == "" {
		c.OTelExporterType = "none"
	}
	if c.OTelOTLPEndpoint == "" {
		c.OTelOTLPEndpoint = "localhost:4317"
	}
	if c.OTelExportIntervalMillis <= 0 {
		c.OTelExportIntervalMillis = 60000
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
}

func overrideString(field *string, key string) {
	if value := os.Getenv(key); value != "" {
		*field = value
	}
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	c := &Config{
		Environment: "test",
		Manager:     "0x00000000000000000000000000000000000000a0",
	}
	applyDefaults(c)
	return c
}
