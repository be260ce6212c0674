// Package types - Cost breakdown types
package types

import "github.com/shopspring/decimal"

// Period is one of the three projection horizons
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// AllPeriods lists the periods in display order
var AllPeriods = []Period{PeriodDaily, PeriodMonthly, PeriodYearly}

// CostInput is the set of scalar parameters for one estimate
type CostInput struct {
	// ClusterTier selects the hourly compute rate
	ClusterTier ClusterTier `json:"cluster_tier"`

	// PricingVersion selects the tier table and API rate
	PricingVersion PricingVersion `json:"pricing_version"`

	// BillingMode selects the compute formula
	BillingMode BillingMode `json:"billing_mode"`

	// StorageGB is the stored volume in gigabytes
	StorageGB decimal.Decimal `json:"storage_gb"`

	// QueriesPerHour is the sustained query rate
	QueriesPerHour decimal.Decimal `json:"queries_per_hour"`

	// QueryDurationSeconds is only used by the per-hour-prorated mode
	QueryDurationSeconds decimal.Decimal `json:"query_duration_seconds"`
}

// DefaultQueryDurationSeconds is the query duration assumed when none is given
var DefaultQueryDurationSeconds = decimal.NewFromInt(12)

// PeriodCost holds the five line items of one period at full precision
type PeriodCost struct {
	Compute  decimal.Decimal `json:"compute"`
	Storage  decimal.Decimal `json:"storage"`
	API      decimal.Decimal `json:"api"`
	CloudFee decimal.Decimal `json:"cloud_fee"`
	Total    decimal.Decimal `json:"total"`
}

// Subtotal is compute + storage + api, the base the cloud fee applies to
func (p PeriodCost) Subtotal() decimal.Decimal {
	return p.Compute.Add(p.Storage).Add(p.API)
}

// CostBreakdown is the projected cost over all three periods
type CostBreakdown struct {
	Daily   PeriodCost `json:"daily"`
	Monthly PeriodCost `json:"monthly"`
	Yearly  PeriodCost `json:"yearly"`

	// Currency is the currency of the pricing tables used
	Currency Currency `json:"currency"`

	// Lineage tracks how the figures were derived
	Lineage CostLineage `json:"lineage"`
}

// Period returns the cost for p
func (b *CostBreakdown) Period(p Period) PeriodCost {
	switch p {
	case PeriodDaily:
		return b.Daily
	case PeriodYearly:
		return b.Yearly
	default:
		return b.Monthly
	}
}

// CostLineage tracks the origin and calculation of a breakdown
type CostLineage struct {
	// Catalog is the name of the pricing tables used
	Catalog string `json:"catalog"`

	// HourlyRate is the compute rate of the selected tier
	HourlyRate decimal.Decimal `json:"hourly_rate"`

	// APIRatePerMillion is the API rate of the selected version
	APIRatePerMillion decimal.Decimal `json:"api_rate_per_million"`

	// StoragePolicy is the storage policy applied
	StoragePolicy StoragePolicy `json:"storage_policy"`

	// FeeRate is the cloud service fee fraction
	FeeRate decimal.Decimal `json:"fee_rate"`

	// Formulas maps each line item to the formula used for its anchor period
	Formulas map[string]string `json:"formulas"`

	// Assumptions lists assumptions made during calculation
	Assumptions []string `json:"assumptions,omitempty"`
}

// FormattedPeriod is a period rounded to two decimal places for display
type FormattedPeriod struct {
	Compute  string `json:"compute"`
	Storage  string `json:"storage"`
	API      string `json:"api"`
	CloudFee string `json:"cloud_fee"`
	Total    string `json:"total"`
}

// FormattedBreakdown is the presentation form of a CostBreakdown
type FormattedBreakdown struct {
	Daily   FormattedPeriod `json:"daily"`
	Monthly FormattedPeriod `json:"monthly"`
	Yearly  FormattedPeriod `json:"yearly"`
}
