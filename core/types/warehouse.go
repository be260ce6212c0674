// Package types defines the warehouse cost model shared by every layer.
package types

import (
	"fmt"
	"strings"
)

// ClusterTier is a named compute-capacity class with a fixed hourly price
type ClusterTier string

const (
	TierXS ClusterTier = "xs"
	TierS  ClusterTier = "s"
	TierM  ClusterTier = "m"
	TierL  ClusterTier = "l"
	TierXL ClusterTier = "xl"
)

// AllTiers lists the tiers in ascending capacity order
var AllTiers = []ClusterTier{TierXS, TierS, TierM, TierL, TierXL}

// String returns the string representation
func (t ClusterTier) String() string {
	return string(t)
}

// Rank returns the position of the tier in AllTiers, or -1 for an unknown tier
func (t ClusterTier) Rank() int {
	for i, known := range AllTiers {
		if known == t {
			return i
		}
	}
	return -1
}

// ParseClusterTier normalizes a tier name such as "XS" or " m "
func ParseClusterTier(s string) ClusterTier {
	return ClusterTier(strings.ToLower(strings.TrimSpace(s)))
}

// PricingVersion selects a tier price table and an API rate
type PricingVersion string

const (
	VersionStandard   PricingVersion = "standard"
	VersionCommercial PricingVersion = "commercial"
)

// String returns the string representation
func (v PricingVersion) String() string {
	return string(v)
}

// IsValid reports whether v is a known pricing version
func (v PricingVersion) IsValid() bool {
	return v == VersionStandard || v == VersionCommercial
}

// ParsePricingVersion normalizes a pricing version name
func ParsePricingVersion(s string) PricingVersion {
	return PricingVersion(strings.ToLower(strings.TrimSpace(s)))
}

// BillingMode converts query count and duration into billed compute time
type BillingMode string

const (
	// BillingPerHourProrated bills the actual query duration at the hourly rate
	BillingPerHourProrated BillingMode = "per-hour-prorated"

	// BillingPerSecondFlat bills exactly one second per query
	BillingPerSecondFlat BillingMode = "per-second-flat"

	// BillingActiveWindow bills a fixed active window per query
	BillingActiveWindow BillingMode = "active-window"
)

// AllBillingModes lists the supported billing modes
var AllBillingModes = []BillingMode{BillingPerHourProrated, BillingPerSecondFlat, BillingActiveWindow}

var billingAliases = map[string]BillingMode{
	"per-hour-prorated": BillingPerHourProrated,
	"hourly":            BillingPerHourProrated,
	"per-second-flat":   BillingPerSecondFlat,
	"per-second":        BillingPerSecondFlat,
	"persecond":         BillingPerSecondFlat,
	"active-window":     BillingActiveWindow,
	"active-minutes":    BillingActiveWindow,
}

// String returns the string representation
func (m BillingMode) String() string {
	return string(m)
}

// IsValid reports whether m is a supported billing mode
func (m BillingMode) IsValid() bool {
	for _, known := range AllBillingModes {
		if known == m {
			return true
		}
	}
	return false
}

// ParseBillingMode resolves a billing mode or one of its aliases
func ParseBillingMode(s string) (BillingMode, error) {
	if m, ok := billingAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return "", fmt.Errorf("unknown billing mode %q", s)
}

// StoragePolicy decides how stored gigabytes become a monthly storage charge
type StoragePolicy string

const (
	// StorageLinear bills every GB-month at the per-GB price
	StorageLinear StoragePolicy = "linear"

	// StorageTieredCeiling bills every started terabyte at the per-TB price
	StorageTieredCeiling StoragePolicy = "tiered-ceiling"
)

// String returns the string representation
func (p StoragePolicy) String() string {
	return string(p)
}

// IsValid reports whether p is a supported storage policy
func (p StoragePolicy) IsValid() bool {
	return p == StorageLinear || p == StorageTieredCeiling
}

// UnitLabel is the billing unit the storage price is quoted in
func (p StoragePolicy) UnitLabel() string {
	if p == StorageTieredCeiling {
		return "TB-month"
	}
	return "GB-month"
}

// Currency represents a currency code
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyCNY Currency = "CNY"
	CurrencyEUR Currency = "EUR"
)

// String returns the string representation
func (c Currency) String() string {
	return string(c)
}
