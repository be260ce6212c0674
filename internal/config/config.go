// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"warehouse-cost/core/output"
	"warehouse-cost/core/pricing"
	"warehouse-cost/core/types"
	"warehouse-cost/internal/errors"
	"warehouse-cost/internal/logging"
)

// DefaultFileName is the config file looked up in the home directory
const DefaultFileName = ".warehouse-cost.json"

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Pricing contains pricing configuration
	Pricing PricingConfig `json:"pricing"`

	// Defaults contains the estimate parameters used when a flag is omitted
	Defaults EstimateDefaults `json:"defaults"`

	// Output contains output configuration
	Output OutputConfig `json:"output"`

	// Server contains HTTP API configuration
	Server ServerConfig `json:"server"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// PricingConfig contains pricing-related settings
type PricingConfig struct {
	// Catalog is the pricing catalog used by default
	Catalog string `json:"catalog"`

	// CatalogFiles are HCL catalog files loaded on start
	CatalogFiles []string `json:"catalog_files,omitempty"`

	// StoragePolicy overrides the catalog's storage policy when set
	StoragePolicy types.StoragePolicy `json:"storage_policy,omitempty"`
}

// EstimateDefaults holds default estimate parameters
type EstimateDefaults struct {
	ClusterTier    types.ClusterTier    `json:"cluster_tier"`
	PricingVersion types.PricingVersion `json:"pricing_version"`
	BillingMode    types.BillingMode    `json:"billing_mode"`
	// QueryDurationSeconds is used when a request has no duration. A
	// configured zero is kept; null falls back to 12 seconds.
	QueryDurationSeconds decimal.NullDecimal `json:"query_duration_seconds"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format
	DefaultFormat string `json:"default_format"`

	// ShowDetails shows formulas and assumptions
	ShowDetails bool `json:"show_details"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr"`

	// MetricsPath is where Prometheus metrics are served
	MetricsPath string `json:"metrics_path"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Pricing: PricingConfig{
			Catalog: pricing.DefaultCatalog,
		},
		Defaults: EstimateDefaults{
			ClusterTier:          types.TierXS,
			PricingVersion:       types.VersionStandard,
			BillingMode:          types.BillingPerHourProrated,
			QueryDurationSeconds: decimal.NewNullDecimal(types.DefaultQueryDurationSeconds),
		},
		Output: OutputConfig{
			DefaultFormat: string(output.FormatCLI),
			ShowDetails:   false,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			MetricsPath: "/metrics",
		},
		Logging: logging.DefaultConfig(),
	}
}

// DefaultPath returns $HOME/.warehouse-cost.json
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(homeDir, DefaultFileName)
}

// Load loads configuration from a file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Wrapf(errors.TypeConfig, err, "failed to read config %s", path)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(errors.TypeConfig, err, "invalid config %s", path)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks values that can be checked without a pricing catalog
func (c *Config) Validate() error {
	var err error
	if c.Pricing.Catalog == "" {
		err = multierr.Append(err, errors.Config("pricing.catalog is required"))
	}
	if c.Pricing.StoragePolicy != "" && !c.Pricing.StoragePolicy.IsValid() {
		err = multierr.Append(err, errors.Configf("pricing.storage_policy: unknown storage policy %q", c.Pricing.StoragePolicy))
	}
	if c.Defaults.BillingMode != "" && !c.Defaults.BillingMode.IsValid() {
		err = multierr.Append(err, errors.Configf("defaults.billing_mode: unknown billing mode %q", c.Defaults.BillingMode))
	}
	if c.Defaults.QueryDurationSeconds.Valid && c.Defaults.QueryDurationSeconds.Decimal.IsNegative() {
		err = multierr.Append(err, errors.Config("defaults.query_duration_seconds must not be negative"))
	}
	if _, fmtErr := output.Get(c.Output.DefaultFormat, output.Options{}); fmtErr != nil {
		err = multierr.Append(err, errors.Configf("output.default_format: unknown format %q", c.Output.DefaultFormat))
	}
	return err
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Registry builds a pricing registry holding the built-in catalogs and
// every configured catalog file
func (c *Config) Registry() (*pricing.Registry, error) {
	r := pricing.NewDefaultRegistry()
	for _, path := range c.Pricing.CatalogFiles {
		if err := r.LoadFile(path); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Tables resolves the catalog called name (or the configured default) and
// applies the storage policy override, if any
func (c *Config) Tables(r *pricing.Registry, name string, policy types.StoragePolicy) (*pricing.Tables, error) {
	if name == "" {
		name = c.Pricing.Catalog
	}
	tables, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if policy == "" {
		policy = c.Pricing.StoragePolicy
	}
	if policy == "" {
		return tables, nil
	}
	return tables.WithStoragePolicy(policy)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}

// Input builds a CostInput from raw request values. Empty names and a null
// duration are filled from the defaults; everything else is validated later
// by the estimator.
func (d EstimateDefaults) Input(tier, version, billing string, storageGB, queriesPerHour decimal.Decimal, duration decimal.NullDecimal) (types.CostInput, error) {
	in := types.CostInput{
		ClusterTier:          d.ClusterTier,
		PricingVersion:       d.PricingVersion,
		BillingMode:          d.BillingMode,
		StorageGB:            storageGB,
		QueriesPerHour:       queriesPerHour,
		QueryDurationSeconds: types.DefaultQueryDurationSeconds,
	}
	if d.QueryDurationSeconds.Valid {
		in.QueryDurationSeconds = d.QueryDurationSeconds.Decimal
	}
	if tier != "" {
		in.ClusterTier = types.ParseClusterTier(tier)
	}
	if version != "" {
		in.PricingVersion = types.ParsePricingVersion(version)
	}
	if billing != "" {
		mode, err := types.ParseBillingMode(billing)
		if err != nil {
			return types.CostInput{}, errors.Wrap(errors.TypeConfig, "invalid billing mode", err)
		}
		in.BillingMode = mode
	}
	if duration.Valid {
		in.QueryDurationSeconds = duration.Decimal
	}
	return in, nil
}
