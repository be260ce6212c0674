package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-cost/core/output"
	"warehouse-cost/core/pricing"
	"warehouse-cost/internal/config"
	"warehouse-cost/internal/errors"
)

// run executes the CLI against a config file in a temp dir
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	return runWithConfig(t, cfgPath, args...)
}

func runWithConfig(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { config.Set(config.Default()) })

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestEstimateJSON(t *testing.T) {
	out, err := run(t, "estimate", "--tier", "s", "--storage-gb", "500", "--queries-per-hour", "5", "--format", "json")
	require.NoError(t, err)

	var result output.EstimationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Estimates, 1)
	assert.Equal(t, "13.88", result.Estimates[0].Costs.Monthly.Total)
	assert.Equal(t, "166.59", result.Estimates[0].Costs.Yearly.Total)
	assert.Equal(t, "12", result.Input.QueryDurationSeconds)
	assert.Equal(t, Version, result.Metadata.Version)
}

func TestEstimateTable(t *testing.T) {
	out, err := run(t, "estimate", "-t", "s", "--storage-gb", "500", "-q", "5", "--details")
	require.NoError(t, err)
	assert.Contains(t, out, "cloud-usd")
	assert.Contains(t, out, "13.88")
	assert.Contains(t, out, "How this was calculated")
}

func TestEstimateWithCatalogAndPolicy(t *testing.T) {
	out, err := run(t, "estimate",
		"--catalog", pricing.CatalogCNY,
		"--version", "commercial",
		"--billing", "per-second-flat",
		"--storage-gb", "1",
		"--queries-per-hour", "5",
		"--storage-policy", "linear",
		"--format", "json")
	require.NoError(t, err)

	var result output.EstimationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "linear", result.Input.StoragePolicy)
	assert.Equal(t, "0.16", result.Estimates[0].Costs.Monthly.Storage)
	assert.Equal(t, "0.15", result.Estimates[0].Costs.Daily.Compute)
}

func TestEstimateWithPricingFile(t *testing.T) {
	out, err := run(t, "estimate",
		"--pricing-file", filepath.Join("..", "..", "..", "core", "pricing", "testdata", "regional.hcl"),
		"--storage-gb", "100", "--queries-per-hour", "0", "--format", "json")
	require.NoError(t, err)

	var result output.EstimationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "cloud-eur", result.Catalog)
	assert.Equal(t, "EUR", string(result.Currency))
}

func TestEstimateErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		typ  errors.Type
		msg  string
	}{
		{"bad number", []string{"--storage-gb", "lots", "-q", "1"}, errors.TypeInput, "invalid number"},
		{"negative", []string{"--storage-gb=-1", "-q", "1"}, errors.TypeInput, "must not be negative"},
		{"huge number", []string{"--storage-gb", "1e20000000", "-q", "1"}, errors.TypeInput, "out of range"},
		{"unknown tier", []string{"--tier", "xxl", "--storage-gb", "1", "-q", "1"}, errors.TypeConfig, "xxl"},
		{"commercial on usd", []string{"--version", "commercial", "--storage-gb", "1", "-q", "1"}, errors.TypeConfig, "commercial"},
		{"unknown catalog", []string{"--catalog", "nope", "--storage-gb", "1", "-q", "1"}, errors.TypeNotFound, "nope"},
		{"storage policy", []string{"--storage-policy", "per-byte", "--storage-gb", "1", "-q", "1"}, errors.TypeConfig, "per-byte"},
		{"format", []string{"--format", "html", "--storage-gb", "1", "-q", "1"}, errors.TypeInput, "html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append([]string{"estimate"}, tt.args...)...)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.typ), "got %v", err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestEstimateRequiresWorkload(t *testing.T) {
	_, err := run(t, "estimate", "--tier", "s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage-gb")
}

func TestCompareMarkdown(t *testing.T) {
	out, err := run(t, "compare", "--storage-gb", "500", "-q", "5", "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "| S | 3.12 | 9.50 | 0.00 | 1.26 | 0.46 | 13.88 | 166.59 |")
	assert.Contains(t, out, "| XL |")
}

func TestConfigDefaultsApply(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"defaults": {"cluster_tier": "s"}, "output": {"default_format": "json"}}`), 0644))

	out, err := runWithConfig(t, cfgPath, "estimate", "--storage-gb", "500", "-q", "5")
	require.NoError(t, err)

	var result output.EstimationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "s", result.Input.ClusterTier)
	assert.Equal(t, "13.88", result.Estimates[0].Costs.Monthly.Total)
}

func TestPricingListAndShow(t *testing.T) {
	out, err := run(t, "pricing", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "cloud-usd (default)")
	assert.Contains(t, out, "cloud-cny")
	assert.Contains(t, out, "commercial, standard")

	out, err = run(t, "pricing", "show", pricing.CatalogCNY)
	require.NoError(t, err)
	assert.Contains(t, out, `catalog "cloud-cny"`)

	// The HCL output loads back as the same catalog
	parsed, err := pricing.Parse([]byte(out), "show.hcl")
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, pricing.CNY().Fingerprint(), parsed[0].Fingerprint())

	out, err = run(t, "pricing", "show", pricing.CatalogUSD, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"fee_rate"`)

	_, err = run(t, "pricing", "show", "nope")
	assert.True(t, errors.IsType(err, errors.TypeNotFound))
}

func TestConfigInitAndShow(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.json")

	out, err := runWithConfig(t, cfgPath, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, cfgPath)
	_, err = os.Stat(cfgPath)
	require.NoError(t, err)

	_, err = runWithConfig(t, cfgPath, "config", "init")
	assert.True(t, errors.IsType(err, errors.TypeConfig))

	_, err = runWithConfig(t, cfgPath, "config", "init", "--force")
	require.NoError(t, err)

	out, err = runWithConfig(t, cfgPath, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"catalog": "cloud-usd"`)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "warehouse-cost version "+Version+"\n", out)
}
