// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/energy-insights/internal/table"
)

// Defaults used when neither the config file nor the environment set a value.
const (
	DefaultPort          = 8000
	DefaultDashboardPort = 8501
	DefaultAPIURL        = "http://localhost:8000"
	DefaultPlotsDir      = "plots"
	DefaultTimeoutSecs   = 10
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Data
	Artifact string `json:"artifact,omitempty"`  // File path, s3://bucket/key, or postgres:// URL
	DataDir  string `json:"data_dir,omitempty"`  // Directory searched for predictions.parquet / predictions.csv
	PlotsDir string `json:"plots_dir,omitempty"` // Directory holding EDA images and summary_stats.json

	// Object storage for s3:// artifacts
	ObjectStore table.ObjectStoreConfig `json:"object_store,omitempty"`

	// Servers
	Port          int    `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	DashboardPort int    `json:"dashboard_port,omitempty" validate:"omitempty,min=1,max=65535"`
	APIURL        string `json:"api_url,omitempty" validate:"omitempty,url"`
	TimeoutSecs   int    `json:"timeout_seconds,omitempty" validate:"omitempty,min=1,max=300"`

	// Dashboard basic auth, both or neither
	DashboardUser         string `json:"dashboard_user,omitempty"`
	DashboardPasswordHash string `json:"dashboard_password_hash,omitempty" validate:"omitempty,startswith=$2"`

	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

var validate = validator.New()

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("config error: '%s' failed '%s' check", jsonName(fe.StructField()), fe.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if (c.DashboardUser == "") != (c.DashboardPasswordHash == "") {
		return fmt.Errorf("config error: 'dashboard_user' and 'dashboard_password_hash' must be set together")
	}

	if c.Port != 0 && c.Port == c.DashboardPort {
		return fmt.Errorf("config error: 'port' and 'dashboard_port' must differ")
	}

	if table.IsObjectURL(c.Artifact) {
		if _, _, err := table.ParseObjectURL(c.Artifact); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		if c.ObjectStore.Endpoint == "" {
			return fmt.Errorf("config error: 'object_store.endpoint' is required for s3:// artifacts")
		}
	}

	// Validate local paths exist (if specified)
	if c.Artifact != "" && !table.IsObjectURL(c.Artifact) && !table.IsPostgresURL(c.Artifact) {
		if _, err := os.Stat(c.Artifact); os.IsNotExist(err) {
			return fmt.Errorf("config error: artifact file not found: %s", c.Artifact)
		}
	}

	return nil
}

// jsonName maps a struct field back to its JSON key for error messages.
func jsonName(field string) string {
	switch field {
	case "Port":
		return "port"
	case "DashboardPort":
		return "dashboard_port"
	case "APIURL":
		return "api_url"
	case "TimeoutSecs":
		return "timeout_seconds"
	case "DashboardPasswordHash":
		return "dashboard_password_hash"
	}
	return strings.ToLower(field)
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Artifact == "" {
		result.Artifact = defaults.Artifact
	}
	if result.DataDir == "" {
		result.DataDir = defaults.DataDir
	}
	if result.PlotsDir == "" {
		result.PlotsDir = defaults.PlotsDir
	}
	if result.APIURL == "" {
		result.APIURL = defaults.APIURL
	}
	if result.DashboardUser == "" {
		result.DashboardUser = defaults.DashboardUser
	}
	if result.DashboardPasswordHash == "" {
		result.DashboardPasswordHash = defaults.DashboardPasswordHash
	}
	if result.ObjectStore.Endpoint == "" {
		result.ObjectStore = defaults.ObjectStore
	}

	// Int fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.DashboardPort == 0 {
		result.DashboardPort = defaults.DashboardPort
	}
	if result.TimeoutSecs == 0 {
		result.TimeoutSecs = defaults.TimeoutSecs
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		DataDir:       ".",
		PlotsDir:      DefaultPlotsDir,
		Port:          DefaultPort,
		DashboardPort: DefaultDashboardPort,
		APIURL:        DefaultAPIURL,
		TimeoutSecs:   DefaultTimeoutSecs,
	}
}

// ApplyEnv overrides fields from environment variables. Unparseable numbers are reported
// instead of silently ignored.
func (c *Config) ApplyEnv() error {
	setString(&c.Artifact, "ENERGY_ARTIFACT")
	setString(&c.DataDir, "ENERGY_DATA_DIR")
	setString(&c.PlotsDir, "ENERGY_PLOTS_DIR")
	setString(&c.APIURL, "ENERGY_API_URL")
	setString(&c.DashboardUser, "DASHBOARD_USER")
	setString(&c.DashboardPasswordHash, "DASHBOARD_PASSWORD_HASH")
	setString(&c.ObjectStore.Endpoint, "S3_ENDPOINT")
	setString(&c.ObjectStore.AccessKey, "S3_ACCESS_KEY")
	setString(&c.ObjectStore.SecretKey, "S3_SECRET_KEY")

	if err := setInt(&c.Port, "ENERGY_PORT"); err != nil {
		return err
	}
	if err := setInt(&c.DashboardPort, "ENERGY_DASHBOARD_PORT"); err != nil {
		return err
	}
	if err := setInt(&c.TimeoutSecs, "ENERGY_TIMEOUT_SECONDS"); err != nil {
		return err
	}
	if v := os.Getenv("S3_USE_SSL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid S3_USE_SSL: %v", err)
		}
		c.ObjectStore.UseSSL = b
	}
	return nil
}

// TableSource describes where the predictions table is loaded from.
func (c *Config) TableSource() table.Source {
	return table.Source{
		Location:    c.Artifact,
		DataDir:     c.DataDir,
		ObjectStore: c.ObjectStore,
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %v", key, err)
	}
	*dst = n
	return nil
}
