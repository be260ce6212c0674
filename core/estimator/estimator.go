// Package estimator computes projected warehouse cost from scalar usage
// parameters and a pricing catalog.
//
// Storage and API cost anchor on the monthly figure: daily is monthly / 30 and
// yearly is monthly x 12. Compute anchors on the daily figure: monthly is
// daily x 30 and yearly is monthly x 12. The cloud service fee is computed per
// period from that period's own subtotal. All arithmetic is exact decimal
// arithmetic; rounding happens only in Format.
package estimator

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"warehouse-cost/core/pricing"
	"warehouse-cost/core/types"
	"warehouse-cost/internal/errors"
)

var (
	hoursPerDay     = decimal.NewFromInt(24)
	daysPerMonth    = decimal.NewFromInt(30)
	monthsPerYear   = decimal.NewFromInt(12)
	secondsPerHour  = decimal.NewFromInt(3600)
	minutesPerHour  = decimal.NewFromInt(60)
	gbPerTB         = decimal.NewFromInt(1000)
	callsPerMillion = decimal.NewFromInt(1_000_000)
)

// Bounds on numeric inputs. A value such as 1e20000000 is only a few bytes
// of JSON but its arithmetic and formatting would expand it to millions of
// digits.
const (
	maxIntegerDigits  = 15
	maxFractionDigits = 18
)

// inRange reports whether d is within the input bounds. Only the exponent and
// the coefficient length are inspected, so it never expands d.
func inRange(d decimal.Decimal) bool {
	exp := int64(d.Exponent())
	if exp < -maxFractionDigits {
		return false
	}
	if d.IsZero() {
		return true
	}
	return int64(d.NumDigits())+exp <= maxIntegerDigits
}

// TierEstimate pairs a cluster tier with its breakdown
type TierEstimate struct {
	Tier      types.ClusterTier    `json:"tier"`
	Breakdown *types.CostBreakdown `json:"breakdown"`
}

// Validate checks input against the catalog without computing anything.
// Every violation is reported; negative numbers are input errors and unknown
// tiers, versions or billing modes are configuration errors.
func Validate(in types.CostInput, tables *pricing.Tables) error {
	err := validateCommon(in, tables)
	if tables == nil {
		return err
	}
	if _, ok := tables.Versions[in.PricingVersion]; ok {
		if _, tierErr := tables.TierRate(in.PricingVersion, in.ClusterTier); tierErr != nil {
			err = multierr.Append(err, tierErr)
		}
	}
	return err
}

func validateCommon(in types.CostInput, tables *pricing.Tables) error {
	var err error
	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"storage_gb", in.StorageGB},
		{"queries_per_hour", in.QueriesPerHour},
		{"query_duration_seconds", in.QueryDurationSeconds},
	} {
		if !inRange(f.value) {
			err = multierr.Append(err, errors.Inputf("%s is out of range (at most %d integer and %d fractional digits)",
				f.name, maxIntegerDigits, maxFractionDigits))
			continue
		}
		if f.value.IsNegative() {
			err = multierr.Append(err, errors.Inputf("%s must not be negative, got %s", f.name, f.value))
		}
	}

	if !in.BillingMode.IsValid() {
		err = multierr.Append(err, errors.Configf("unknown billing mode %q", in.BillingMode))
	}

	if tables == nil {
		return multierr.Append(err, errors.Config("no pricing catalog selected"))
	}
	if tableErr := tables.Validate(); tableErr != nil {
		return multierr.Append(err, tableErr)
	}
	if _, versionErr := tables.Version(in.PricingVersion); versionErr != nil {
		err = multierr.Append(err, versionErr)
	}
	return err
}

// Estimate prices one input against tables. It either returns a complete
// breakdown or an error before any arithmetic is done.
func Estimate(in types.CostInput, tables *pricing.Tables) (*types.CostBreakdown, error) {
	if err := Validate(in, tables); err != nil {
		return nil, err
	}

	hourlyRate, err := tables.TierRate(in.PricingVersion, in.ClusterTier)
	if err != nil {
		return nil, err
	}
	apiRate, err := tables.APIRate(in.PricingVersion)
	if err != nil {
		return nil, err
	}
	storagePrice, _ := tables.Storage.UnitPrice()

	monthlyStorage := StorageCost(in.StorageGB, tables.Storage.Policy, storagePrice)
	dailyCompute := ComputeCost(in, hourlyRate, tables.ActiveMinutesPerQuery)
	monthlyAPI := APICost(in.QueriesPerHour, apiRate)

	monthlyCompute := dailyCompute.Mul(daysPerMonth)

	b := &types.CostBreakdown{
		Daily: periodCost(
			dailyCompute,
			monthlyStorage.Div(daysPerMonth),
			monthlyAPI.Div(daysPerMonth),
			tables.FeeRate,
		),
		Monthly: periodCost(
			monthlyCompute,
			monthlyStorage,
			monthlyAPI,
			tables.FeeRate,
		),
		Yearly: periodCost(
			monthlyCompute.Mul(monthsPerYear),
			monthlyStorage.Mul(monthsPerYear),
			monthlyAPI.Mul(monthsPerYear),
			tables.FeeRate,
		),
		Currency: tables.Currency,
		Lineage:  lineage(in, tables, hourlyRate, apiRate, storagePrice),
	}
	return b, nil
}

// EstimateAllTiers prices input once for every tier of its pricing version,
// in ascending capacity order. The input's own tier is ignored.
func EstimateAllTiers(in types.CostInput, tables *pricing.Tables) ([]TierEstimate, error) {
	if err := validateCommon(in, tables); err != nil {
		return nil, err
	}

	tiers := tables.Tiers(in.PricingVersion)
	results := make([]TierEstimate, 0, len(tiers))
	for _, tier := range tiers {
		in.ClusterTier = tier
		b, err := Estimate(in, tables)
		if err != nil {
			return nil, fmt.Errorf("tier %s: %w", tier, err)
		}
		results = append(results, TierEstimate{Tier: tier, Breakdown: b})
	}
	return results, nil
}

// StorageCost returns the monthly storage cost of gb gigabytes.
// Under tiered-ceiling every started terabyte is billed in full, so 1 GB and
// 1000 GB cost the same.
func StorageCost(gb decimal.Decimal, policy types.StoragePolicy, unitPrice decimal.Decimal) decimal.Decimal {
	if policy == types.StorageTieredCeiling {
		// QuoRem is exact; Div would round to DivisionPrecision first
		terabytes, rem := gb.QuoRem(gbPerTB, 0)
		if rem.IsPositive() {
			terabytes = terabytes.Add(decimal.NewFromInt(1))
		}
		return terabytes.Mul(unitPrice)
	}
	return gb.Mul(unitPrice)
}

// ComputeCost returns the daily compute cost. Divisions are applied last so
// exact inputs give exact results.
func ComputeCost(in types.CostInput, hourlyRate, activeMinutes decimal.Decimal) decimal.Decimal {
	queriesPerDay := in.QueriesPerHour.Mul(hoursPerDay)
	switch in.BillingMode {
	case types.BillingPerHourProrated:
		return queriesPerDay.Mul(in.QueryDurationSeconds).Mul(hourlyRate).Div(secondsPerHour)
	case types.BillingPerSecondFlat:
		return queriesPerDay.Mul(hourlyRate).Div(secondsPerHour)
	case types.BillingActiveWindow:
		return queriesPerDay.Mul(activeMinutes).Mul(hourlyRate).Div(minutesPerHour)
	}
	return decimal.Zero
}

// APICost returns the monthly API cost; every query is one API call
func APICost(queriesPerHour, perMillion decimal.Decimal) decimal.Decimal {
	callsPerMonth := queriesPerHour.Mul(hoursPerDay).Mul(daysPerMonth)
	return callsPerMonth.Mul(perMillion).Div(callsPerMillion)
}

func periodCost(compute, storage, api, feeRate decimal.Decimal) types.PeriodCost {
	p := types.PeriodCost{
		Compute: compute,
		Storage: storage,
		API:     api,
	}
	p.CloudFee = p.Subtotal().Mul(feeRate)
	p.Total = p.Subtotal().Add(p.CloudFee)
	return p
}

func lineage(in types.CostInput, tables *pricing.Tables, hourlyRate, apiRate, storagePrice decimal.Decimal) types.CostLineage {
	l := types.CostLineage{
		Catalog:           tables.Name,
		HourlyRate:        hourlyRate,
		APIRatePerMillion: apiRate,
		StoragePolicy:     tables.Storage.Policy,
		FeeRate:           tables.FeeRate,
		Formulas:          make(map[string]string, 4),
		Assumptions: []string{
			"a month is 30 days and a year is 12 months",
			"every query issues one API call",
		},
	}

	switch tables.Storage.Policy {
	case types.StorageTieredCeiling:
		l.Formulas["storage"] = fmt.Sprintf("monthly = ceil(%s GB / 1000) * %s/TB-month", in.StorageGB, storagePrice)
		l.Assumptions = append(l.Assumptions, "storage is billed per started terabyte")
	default:
		l.Formulas["storage"] = fmt.Sprintf("monthly = %s GB * %s/GB-month", in.StorageGB, storagePrice)
	}

	switch in.BillingMode {
	case types.BillingPerHourProrated:
		l.Formulas["compute"] = fmt.Sprintf("daily = %s q/h * 24 * (%ss / 3600) * %s/h", in.QueriesPerHour, in.QueryDurationSeconds, hourlyRate)
	case types.BillingPerSecondFlat:
		l.Formulas["compute"] = fmt.Sprintf("daily = %s q/h * 24 * (%s/h / 3600)", in.QueriesPerHour, hourlyRate)
		l.Assumptions = append(l.Assumptions, "each query is billed as exactly one second of compute")
	case types.BillingActiveWindow:
		l.Formulas["compute"] = fmt.Sprintf("daily = %s q/h * 24 * (%s min / 60) * %s/h", in.QueriesPerHour, tables.ActiveMinutesPerQuery, hourlyRate)
		l.Assumptions = append(l.Assumptions, fmt.Sprintf("each query keeps the cluster active for %s minutes", tables.ActiveMinutesPerQuery))
	}

	l.Formulas["api"] = fmt.Sprintf("monthly = (%s q/h * 24 * 30 / 1000000) * %s/million", in.QueriesPerHour, apiRate)
	l.Formulas["cloud_fee"] = fmt.Sprintf("(compute + storage + api) * %s", tables.FeeRate)
	return l
}
