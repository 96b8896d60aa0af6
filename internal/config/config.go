package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Step failure policies
const (
	StepPolicyKeep     = "keep"
	StepPolicyRollback = "rollback"
)

// Accepted range of climate.default_temperature
const (
	MinDefaultTemperature = 16.0
	MaxDefaultTemperature = 32.0
)

// Config represents the application configuration
type Config struct {
	Remo            RemoConfig     `yaml:"remo"`
	Climate         ClimateConfig  `yaml:"climate"`
	Poller          PollerConfig   `yaml:"poller"`
	Database        DatabaseConfig `yaml:"database"`
	Log             LogConfig      `yaml:"log"`
	Status          StatusConfig   `yaml:"status"`
	ShutdownTimeout Duration       `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
}

// RemoConfig contains cloud API connection settings
type RemoConfig struct {
	BaseURL        string   `yaml:"base_url"`
	Token          string   `yaml:"token"`
	Timeout        Duration `yaml:"timeout"`          // HTTP timeout for API requests
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`   // Sustained request rate (default: 0.1, negative: unlimited)
	RateLimitBurst int      `yaml:"rate_limit_burst"` // Burst size (default: 10)
}

// ClimateConfig identifies the controlled installation and tunes command derivation
type ClimateConfig struct {
	SensorDeviceID     string  `yaml:"sensor_device_id"`
	ApplianceID        string  `yaml:"appliance_id"`
	SensorType         string  `yaml:"sensor_type"`         // newest_events key (default: te)
	DefaultTemperature float64 `yaml:"default_temperature"` // Used when leaving auto with no target (default: 27)
	Step               float64 `yaml:"step"`                // Stepper increment (default: 0.5)
	StepFailurePolicy  string  `yaml:"step_failure_policy"` // keep | rollback
}

// PollerConfig contains periodic synchronization settings
type PollerConfig struct {
	Interval Duration `yaml:"interval"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	UseJSON bool   `yaml:"json"`
	Colors  bool   `yaml:"colors"`
	File    string `yaml:"file"` // Log destination while the TUI owns the terminal
}

// StatusConfig contains status server settings
type StatusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Addr returns the listen address of the status server
func (c *StatusConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// LoadDotEnv loads environment variables from path. Missing files are ignored.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse expands environment variables in data, decodes it and applies defaults
func Parse(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) setDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	// In-memory by default: history lives as long as the process
	if cfg.Database.Path == "" {
		cfg.Database.Path = ":memory:"
	}

	// Remo defaults
	if cfg.Remo.BaseURL == "" {
		cfg.Remo.BaseURL = "https://api.nature.global/1/"
	}
	if cfg.Remo.Timeout == 0 {
		cfg.Remo.Timeout = Duration(10 * time.Second)
	}
	// The cloud API allows 30 requests per 5 minutes
	if cfg.Remo.RateLimitRPS == 0 {
		cfg.Remo.RateLimitRPS = 0.1
	}
	if cfg.Remo.RateLimitBurst == 0 {
		cfg.Remo.RateLimitBurst = 10
	}

	// Climate defaults
	if cfg.Climate.SensorType == "" {
		cfg.Climate.SensorType = "te"
	}
	if cfg.Climate.DefaultTemperature == 0 {
		cfg.Climate.DefaultTemperature = 27
	}
	if cfg.Climate.Step == 0 {
		cfg.Climate.Step = 0.5
	}
	if cfg.Climate.StepFailurePolicy == "" {
		cfg.Climate.StepFailurePolicy = StepPolicyKeep
	}

	if cfg.Poller.Interval == 0 {
		cfg.Poller.Interval = Duration(100 * time.Second)
	}

	// Status server defaults
	if cfg.Status.Port == 0 {
		cfg.Status.Port = 9090
	}
	if cfg.Status.Host == "" {
		cfg.Status.Host = "127.0.0.1"
	}

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}
}

// Validate checks that the installation-specific settings are present
func (cfg *Config) Validate() error {
	if cfg.Remo.Token == "" {
		return errors.New("remo.token is required")
	}
	if cfg.Climate.SensorDeviceID == "" {
		return errors.New("climate.sensor_device_id is required")
	}
	if cfg.Climate.ApplianceID == "" {
		return errors.New("climate.appliance_id is required")
	}
	switch cfg.Climate.StepFailurePolicy {
	case StepPolicyKeep, StepPolicyRollback:
	default:
		return fmt.Errorf("climate.step_failure_policy: unknown policy %q", cfg.Climate.StepFailurePolicy)
	}
	if cfg.Climate.Step <= 0 {
		return fmt.Errorf("climate.step must be positive, got %v", cfg.Climate.Step)
	}
	if t := cfg.Climate.DefaultTemperature; t < MinDefaultTemperature || t > MaxDefaultTemperature {
		return fmt.Errorf("climate.default_temperature must be within %v..%v, got %v",
			MinDefaultTemperature, MaxDefaultTemperature, t)
	}
	if cfg.Remo.RateLimitBurst < 0 {
		return fmt.Errorf("remo.rate_limit_burst must not be negative, got %d", cfg.Remo.RateLimitBurst)
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
