// Package output provides output formatting interfaces.
// This package produces human and machine-readable outputs; it is the only
// place amounts are rounded.
package output

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"sort"
	"strings"
	"time"

	"warehouse-cost/core/estimator"
	"warehouse-cost/core/pricing"
	"warehouse-cost/core/types"
	"warehouse-cost/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable CLI table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"

	// FormatMarkdown is a markdown report
	FormatMarkdown Format = "markdown"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render produces output for the given result
	Render(w io.Writer, result *EstimationResult) error
}

// Options tune the human-readable formatters
type Options struct {
	// ShowDetails includes formulas and assumptions
	ShowDetails bool
}

// Get returns the formatter for a format name
func Get(name string, opts Options) (Formatter, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatCLI, "":
		return &CLIFormatter{ShowDetails: opts.ShowDetails}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	case FormatMarkdown, "md":
		return &MarkdownFormatter{ShowDetails: opts.ShowDetails}, nil
	}
	return nil, errors.Inputf("unknown output format %q (supported: %s)", name, strings.Join(Formats(), ", "))
}

// Formats lists the supported format names
func Formats() []string {
	return []string{string(FormatCLI), string(FormatJSON), string(FormatMarkdown)}
}

// EstimationResult contains the complete estimation output
type EstimationResult struct {
	// Catalog is the pricing catalog name
	Catalog string `json:"catalog"`

	// PricingFingerprint identifies the exact prices used
	PricingFingerprint string `json:"pricing_fingerprint"`

	// Currency is the currency of every amount
	Currency types.Currency `json:"currency"`

	// Input echoes the estimate parameters
	Input InputSummary `json:"input"`

	// Estimates holds one entry per priced tier
	Estimates []TierResult `json:"estimates"`

	// Lineage explains the figures of a single-tier estimate
	Lineage *types.CostLineage `json:"lineage,omitempty"`

	// Metadata contains execution context
	Metadata EstimationMetadata `json:"metadata"`
}

// InputSummary is the input as displayed to the user
type InputSummary struct {
	ClusterTier          string `json:"cluster_tier,omitempty"`
	PricingVersion       string `json:"pricing_version"`
	BillingMode          string `json:"billing_mode"`
	StoragePolicy        string `json:"storage_policy"`
	StorageGB            string `json:"storage_gb"`
	QueriesPerHour       string `json:"queries_per_hour"`
	QueryDurationSeconds string `json:"query_duration_seconds"`
}

// TierResult is the rounded breakdown of one tier
type TierResult struct {
	Tier  types.ClusterTier        `json:"tier"`
	Costs types.FormattedBreakdown `json:"costs"`
}

// EstimationMetadata contains execution context
type EstimationMetadata struct {
	// Timestamp is when the estimation was performed
	Timestamp string `json:"timestamp"`

	// Duration is how long the estimation took
	Duration string `json:"duration,omitempty"`

	// InputHash is a hash of the input and the prices used
	InputHash string `json:"input_hash"`

	// Version is the tool version
	Version string `json:"version"`
}

// NewResult assembles the output of one or more tier estimates
func NewResult(tables *pricing.Tables, in types.CostInput, estimates []estimator.TierEstimate, version string) *EstimationResult {
	// The echoed tier is the one priced; a comparison has none
	in.ClusterTier = ""
	if len(estimates) == 1 {
		in.ClusterTier = estimates[0].Tier
	}

	fingerprint := tables.Fingerprint()
	r := &EstimationResult{
		Catalog:            tables.Name,
		PricingFingerprint: fingerprint,
		Currency:           tables.Currency,
		Input: InputSummary{
			ClusterTier:          string(in.ClusterTier),
			PricingVersion:       string(in.PricingVersion),
			BillingMode:          string(in.BillingMode),
			StoragePolicy:        string(tables.Storage.Policy),
			StorageGB:            in.StorageGB.String(),
			QueriesPerHour:       in.QueriesPerHour.String(),
			QueryDurationSeconds: in.QueryDurationSeconds.String(),
		},
		Estimates: make([]TierResult, 0, len(estimates)),
		Metadata: EstimationMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			InputHash: InputHash(in, fingerprint),
			Version:   version,
		},
	}
	for _, e := range estimates {
		r.Estimates = append(r.Estimates, TierResult{
			Tier:  e.Tier,
			Costs: estimator.Format(e.Breakdown),
		})
	}
	if len(estimates) == 1 {
		lineage := estimates[0].Breakdown.Lineage
		r.Lineage = &lineage
	}
	return r
}

// InputHash is a deterministic hash of an input priced against a catalog
func InputHash(in types.CostInput, fingerprint string) string {
	canonical := map[string]string{
		"cluster_tier":           string(in.ClusterTier),
		"pricing_version":        string(in.PricingVersion),
		"billing_mode":           string(in.BillingMode),
		"storage_gb":             in.StorageGB.String(),
		"queries_per_hour":       in.QueriesPerHour.String(),
		"query_duration_seconds": in.QueryDurationSeconds.String(),
		"pricing":                fingerprint,
	}
	// encoding/json sorts map keys
	data, _ := json.Marshal(canonical)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type lineRow struct {
	label string
	value func(types.FormattedPeriod) string
}

var lineRows = []lineRow{
	{"Compute", func(p types.FormattedPeriod) string { return p.Compute }},
	{"Storage", func(p types.FormattedPeriod) string { return p.Storage }},
	{"API calls", func(p types.FormattedPeriod) string { return p.API }},
	{"Cloud service fee", func(p types.FormattedPeriod) string { return p.CloudFee }},
	{"Total", func(p types.FormattedPeriod) string { return p.Total }},
}

func sortedFormulaKeys(formulas map[string]string) []string {
	order := map[string]int{"compute": 0, "storage": 1, "api": 2, "cloud_fee": 3}
	keys := make([]string, 0, len(formulas))
	for k := range formulas {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		oi, okI := order[keys[i]]
		oj, okJ := order[keys[j]]
		if okI && okJ {
			return oi < oj
		}
		if okI != okJ {
			return okI
		}
		return keys[i] < keys[j]
	})
	return keys
}
