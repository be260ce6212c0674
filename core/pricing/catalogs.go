// Package pricing - Built-in catalogs
package pricing

import (
	"github.com/shopspring/decimal"

	"warehouse-cost/core/types"
)

const (
	// CatalogUSD is the pay-as-you-go USD price list
	CatalogUSD = "cloud-usd"

	// CatalogCNY is the CNY price list with standard and commercial editions
	CatalogCNY = "cloud-cny"

	// DefaultCatalog is used when no catalog is named
	DefaultCatalog = CatalogUSD
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(d(s))
}

func tierRates(xs, s, m, l, xl string) map[types.ClusterTier]decimal.Decimal {
	return map[types.ClusterTier]decimal.Decimal{
		types.TierXS: d(xs),
		types.TierS:  d(s),
		types.TierM:  d(m),
		types.TierL:  d(l),
		types.TierXL: d(xl),
	}
}

// USD returns the USD catalog: linear storage per GB-month and a single
// standard edition.
func USD() *Tables {
	return &Tables{
		Name:                  CatalogUSD,
		Description:           "Pay-as-you-go pricing in USD, storage billed per GB-month",
		Currency:              types.CurrencyUSD,
		FeeRate:               d("0.10"),
		ActiveMinutesPerQuery: d("5"),
		Storage: StoragePricing{
			Policy:     types.StorageLinear,
			PerGBMonth: nd("0.019"),
			PerTBMonth: nd("19"),
		},
		Versions: map[types.PricingVersion]VersionPricing{
			types.VersionStandard: {
				TierRates:     tierRates("0.13", "0.26", "0.52", "1.04", "2.08"),
				APIPerMillion: d("0.03"),
			},
		},
	}
}

// CNY returns the CNY catalog: storage billed per started TB-month and
// separate standard and commercial editions.
func CNY() *Tables {
	return &Tables{
		Name:                  CatalogCNY,
		Description:           "Standard and commercial editions in CNY, storage billed per started TB-month",
		Currency:              types.CurrencyCNY,
		FeeRate:               d("0.10"),
		ActiveMinutesPerQuery: d("5"),
		Storage: StoragePricing{
			Policy:     types.StorageTieredCeiling,
			PerGBMonth: nd("0.16"),
			PerTBMonth: nd("160"),
		},
		Versions: map[types.PricingVersion]VersionPricing{
			types.VersionStandard: {
				TierRates:     tierRates("3.00", "6.00", "12.00", "24.00", "48.00"),
				APIPerMillion: d("300"),
			},
			types.VersionCommercial: {
				TierRates:     tierRates("4.50", "9.00", "18.00", "36.00", "72.00"),
				APIPerMillion: d("450"),
			},
		},
	}
}

// Builtin returns fresh copies of every built-in catalog
func Builtin() []*Tables {
	return []*Tables{USD(), CNY()}
}
