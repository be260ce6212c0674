package estimator

import (
	"github.com/shopspring/decimal"

	"warehouse-cost/core/types"
)

// DisplayPlaces is the number of decimal places amounts are rounded to for display
const DisplayPlaces = 2

// Format rounds every amount of b to two decimal places
func Format(b *types.CostBreakdown) types.FormattedBreakdown {
	if b == nil {
		return types.FormattedBreakdown{}
	}
	return types.FormattedBreakdown{
		Daily:   formatPeriod(b.Daily),
		Monthly: formatPeriod(b.Monthly),
		Yearly:  formatPeriod(b.Yearly),
	}
}

func formatPeriod(p types.PeriodCost) types.FormattedPeriod {
	return types.FormattedPeriod{
		Compute:  amount(p.Compute),
		Storage:  amount(p.Storage),
		API:      amount(p.API),
		CloudFee: amount(p.CloudFee),
		Total:    amount(p.Total),
	}
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(DisplayPlaces)
}
