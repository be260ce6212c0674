package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-cost/core/estimator"
	"warehouse-cost/core/pricing"
	"warehouse-cost/core/types"
	"warehouse-cost/internal/errors"
)

func scenarioInput() types.CostInput {
	return types.CostInput{
		ClusterTier:          types.TierS,
		PricingVersion:       types.VersionStandard,
		BillingMode:          types.BillingPerHourProrated,
		StorageGB:            decimal.NewFromInt(500),
		QueriesPerHour:       decimal.NewFromInt(5),
		QueryDurationSeconds: decimal.NewFromInt(12),
	}
}

func singleResult(t *testing.T) *EstimationResult {
	t.Helper()
	tables := pricing.USD()
	in := scenarioInput()
	b, err := estimator.Estimate(in, tables)
	require.NoError(t, err)
	return NewResult(tables, in, []estimator.TierEstimate{{Tier: in.ClusterTier, Breakdown: b}}, "test")
}

func compareResult(t *testing.T) *EstimationResult {
	t.Helper()
	tables := pricing.USD()
	in := scenarioInput()
	all, err := estimator.EstimateAllTiers(in, tables)
	require.NoError(t, err)
	return NewResult(tables, in, all, "test")
}

func TestGet(t *testing.T) {
	for _, name := range []string{"cli", "", "JSON", "markdown", "md"} {
		f, err := Get(name, Options{})
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}

	_, err := Get("html", Options{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInput))
}

func TestNewResult(t *testing.T) {
	r := singleResult(t)
	assert.Equal(t, pricing.CatalogUSD, r.Catalog)
	assert.Equal(t, types.CurrencyUSD, r.Currency)
	assert.Equal(t, "linear", r.Input.StoragePolicy)
	require.Len(t, r.Estimates, 1)
	assert.Equal(t, "0.46", r.Estimates[0].Costs.Daily.Total)
	require.NotNil(t, r.Lineage)
	assert.Len(t, r.Metadata.InputHash, 64)
	assert.Equal(t, "test", r.Metadata.Version)

	c := compareResult(t)
	assert.Len(t, c.Estimates, 5)
	assert.Nil(t, c.Lineage)
	assert.Empty(t, c.Input.ClusterTier)
}

func TestNewResultEchoesPricedTier(t *testing.T) {
	catalogs, err := pricing.LoadFile("../pricing/testdata/regional.hcl")
	require.NoError(t, err)
	var archive *pricing.Tables
	for _, c := range catalogs {
		if c.Name == "cloud-eur-archive" {
			archive = c
		}
	}
	require.NotNil(t, archive)

	// A comparison over a version with a single tier prices only xl
	in := scenarioInput()
	in.ClusterTier = types.TierXS
	all, err := estimator.EstimateAllTiers(in, archive)
	require.NoError(t, err)
	require.Len(t, all, 1)

	r := NewResult(archive, in, all, "test")
	assert.Equal(t, "xl", r.Input.ClusterTier)
	assert.Equal(t, types.TierXL, r.Estimates[0].Tier)

	priced := in
	priced.ClusterTier = types.TierXL
	assert.Equal(t, InputHash(priced, archive.Fingerprint()), r.Metadata.InputHash)
}

func TestCompareHashIgnoresInputTier(t *testing.T) {
	tables := pricing.USD()
	in := scenarioInput()
	all, err := estimator.EstimateAllTiers(in, tables)
	require.NoError(t, err)

	other := in
	other.ClusterTier = types.TierXL
	assert.Equal(t,
		NewResult(tables, in, all, "test").Metadata.InputHash,
		NewResult(tables, other, all, "test").Metadata.InputHash)
}

func TestInputHashIsDeterministic(t *testing.T) {
	in := scenarioInput()
	fp := pricing.USD().Fingerprint()
	assert.Equal(t, InputHash(in, fp), InputHash(in, fp))

	other := in
	other.QueriesPerHour = decimal.NewFromInt(6)
	assert.NotEqual(t, InputHash(in, fp), InputHash(other, fp))
	assert.NotEqual(t, InputHash(in, fp), InputHash(in, pricing.CNY().Fingerprint()))
}

func TestCLIFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := &CLIFormatter{ShowDetails: true}
	require.NoError(t, f.Render(&buf, singleResult(t)))

	out := buf.String()
	assert.Contains(t, out, "cloud-usd (USD)")
	assert.Contains(t, out, "Cloud service fee")
	assert.Contains(t, out, "13.88")
	assert.Contains(t, out, "166.59")
	assert.Contains(t, out, "12 s/query")
	assert.Contains(t, out, "How this was calculated")
	assert.NotContains(t, out, "$", "currency symbols are a presentation choice left to the caller")
}

func TestCLIFormatterCompare(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&CLIFormatter{}).Render(&buf, compareResult(t)))

	out := buf.String()
	for _, tier := range []string{"XS", "S", "M", "L", "XL"} {
		assert.Contains(t, out, tier)
	}
	assert.Contains(t, out, "Compute/mo")
	assert.NotContains(t, out, "How this was calculated")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Render(&buf, singleResult(t)))

	var decoded struct {
		Catalog   string `json:"catalog"`
		Estimates []struct {
			Tier  string `json:"tier"`
			Costs struct {
				Daily map[string]string `json:"daily"`
			} `json:"costs"`
		} `json:"estimates"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "cloud-usd", decoded.Catalog)
	require.Len(t, decoded.Estimates, 1)
	assert.Equal(t, map[string]string{
		"compute":   "0.10",
		"storage":   "0.32",
		"api":       "0.00",
		"cloud_fee": "0.04",
		"total":     "0.46",
	}, decoded.Estimates[0].Costs.Daily)
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&MarkdownFormatter{ShowDetails: true}).Render(&buf, singleResult(t)))

	out := buf.String()
	assert.Contains(t, out, "| **Total** | 0.46 | 13.88 | 166.59 |")
	assert.Contains(t, out, "### Formulas")
	assert.Contains(t, out, "### Assumptions")

	buf.Reset()
	require.NoError(t, (&MarkdownFormatter{}).Render(&buf, compareResult(t)))
	assert.Contains(t, buf.String(), "| S | 3.12 | 9.50 | 0.00 | 1.26 | 0.46 | 13.88 | 166.59 |")
}
