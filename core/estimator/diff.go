package estimator

import (
	"warehouse-cost/core/types"
	"warehouse-cost/internal/errors"
)

// Diff returns head minus base for every component of every period.
// Both breakdowns must be in the same currency.
func Diff(base, head *types.CostBreakdown) (*types.CostBreakdown, error) {
	if base == nil || head == nil {
		return nil, errors.New(errors.TypeInternal, "diff requires two breakdowns")
	}
	if base.Currency != head.Currency {
		return nil, errors.Inputf("cannot diff %s against %s", head.Currency, base.Currency).
			WithContext("base", string(base.Currency)).
			WithContext("head", string(head.Currency))
	}
	return &types.CostBreakdown{
		Daily:    subPeriod(head.Daily, base.Daily),
		Monthly:  subPeriod(head.Monthly, base.Monthly),
		Yearly:   subPeriod(head.Yearly, base.Yearly),
		Currency: head.Currency,
	}, nil
}

func subPeriod(a, b types.PeriodCost) types.PeriodCost {
	return types.PeriodCost{
		Compute:  a.Compute.Sub(b.Compute),
		Storage:  a.Storage.Sub(b.Storage),
		API:      a.API.Sub(b.API),
		CloudFee: a.CloudFee.Sub(b.CloudFee),
		Total:    a.Total.Sub(b.Total),
	}
}
