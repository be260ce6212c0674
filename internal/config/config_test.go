package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-cost/core/pricing"
	"warehouse-cost/core/types"
	"warehouse-cost/internal/errors"
)

const catalogHCL = `catalog "team-discount" {
  currency = "USD"
  fee_rate = 0.05
  storage {
    policy             = "linear"
    price_per_gb_month = 0.015
  }
  version "standard" {
    api_per_million = 0.02
    tiers           = { xs = 0.10, s = 0.20 }
  }
}
`

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default()
	cfg.Pricing.Catalog = pricing.CatalogCNY
	cfg.Pricing.StoragePolicy = types.StorageLinear
	cfg.Defaults.BillingMode = types.BillingPerSecondFlat
	cfg.Defaults.QueryDurationSeconds = decimal.NewNullDecimal(decimal.NewFromInt(30))
	cfg.Output.DefaultFormat = "markdown"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, pricing.CatalogCNY, loaded.Pricing.Catalog)
	assert.Equal(t, types.StorageLinear, loaded.Pricing.StoragePolicy)
	assert.Equal(t, types.BillingPerSecondFlat, loaded.Defaults.BillingMode)
	assert.True(t, loaded.Defaults.QueryDurationSeconds.Decimal.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, "markdown", loaded.Output.DefaultFormat)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server": {"addr": ":9090"}}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "/metrics", cfg.Server.MetricsPath)
	assert.Equal(t, pricing.DefaultCatalog, cfg.Pricing.Catalog)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"bad json", `{`, "invalid config"},
		{"storage policy", `{"pricing": {"catalog": "cloud-usd", "storage_policy": "per-byte"}}`, "unknown storage policy"},
		{"billing mode", `{"defaults": {"billing_mode": "per-minute"}}`, "unknown billing mode"},
		{"duration", `{"defaults": {"query_duration_seconds": "-1"}}`, "must not be negative"},
		{"format", `{"output": {"default_format": "html"}}`, "unknown format"},
		{"empty catalog", `{"pricing": {"catalog": ""}}`, "pricing.catalog is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))

			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.TypeConfig))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestRegistryAndTables(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "team.hcl")
	require.NoError(t, os.WriteFile(catalog, []byte(catalogHCL), 0644))

	cfg := Default()
	cfg.Pricing.CatalogFiles = []string{catalog}
	r, err := cfg.Registry()
	require.NoError(t, err)
	assert.Contains(t, r.Names(), "team-discount")

	tables, err := cfg.Tables(r, "", "")
	require.NoError(t, err)
	assert.Equal(t, pricing.DefaultCatalog, tables.Name)

	tables, err = cfg.Tables(r, pricing.CatalogCNY, types.StorageLinear)
	require.NoError(t, err)
	assert.Equal(t, types.StorageLinear, tables.Storage.Policy)

	cfg.Pricing.StoragePolicy = types.StorageTieredCeiling
	_, err = cfg.Tables(r, "team-discount", "")
	assert.True(t, errors.IsType(err, errors.TypeConfig), "team-discount has no TB price")

	_, err = cfg.Tables(r, "nope", "")
	assert.True(t, errors.IsType(err, errors.TypeNotFound))

	cfg.Pricing.CatalogFiles = []string{filepath.Join(dir, "missing.hcl")}
	_, err = cfg.Registry()
	assert.Error(t, err)
}

func TestEstimateDefaultsInput(t *testing.T) {
	d := Default().Defaults
	storage := decimal.NewFromInt(500)
	qph := decimal.NewFromInt(5)

	in, err := d.Input("", "", "", storage, qph, decimal.NullDecimal{})
	require.NoError(t, err)
	assert.Equal(t, types.TierXS, in.ClusterTier)
	assert.Equal(t, types.VersionStandard, in.PricingVersion)
	assert.Equal(t, types.BillingPerHourProrated, in.BillingMode)
	assert.True(t, in.QueryDurationSeconds.Equal(decimal.NewFromInt(12)))

	in, err = d.Input(" M ", "Commercial", "per-second", storage, qph, decimal.NewNullDecimal(decimal.Zero))
	require.NoError(t, err)
	assert.Equal(t, types.TierM, in.ClusterTier)
	assert.Equal(t, types.VersionCommercial, in.PricingVersion)
	assert.Equal(t, types.BillingPerSecondFlat, in.BillingMode)
	assert.True(t, in.QueryDurationSeconds.IsZero(), "an explicit zero duration is kept")

	_, err = d.Input("", "", "weekly", storage, qph, decimal.NullDecimal{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeConfig))
}

func TestConfiguredDurationIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"defaults": {"query_duration_seconds": 0}}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	in, err := cfg.Defaults.Input("", "", "", decimal.NewFromInt(500), decimal.NewFromInt(5), decimal.NullDecimal{})
	require.NoError(t, err)
	assert.True(t, in.QueryDurationSeconds.IsZero(), "got %s", in.QueryDurationSeconds)

	// A request duration still wins over the configured one
	in, err = cfg.Defaults.Input("", "", "", decimal.NewFromInt(500), decimal.NewFromInt(5), decimal.NewNullDecimal(decimal.NewFromInt(7)))
	require.NoError(t, err)
	assert.True(t, in.QueryDurationSeconds.Equal(decimal.NewFromInt(7)))

	// null falls back to 12 seconds
	require.NoError(t, os.WriteFile(path, []byte(`{"defaults": {"query_duration_seconds": null}}`), 0644))
	cfg, err = Load(path)
	require.NoError(t, err)
	in, err = cfg.Defaults.Input("", "", "", decimal.NewFromInt(500), decimal.NewFromInt(5), decimal.NullDecimal{})
	require.NoError(t, err)
	assert.True(t, in.QueryDurationSeconds.Equal(decimal.NewFromInt(12)))
}
