// Package pricing holds the static rate tables an estimate is priced against.
// Tables are loaded once, validated, and never mutated afterwards.
package pricing

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"warehouse-cost/core/types"
	"warehouse-cost/internal/errors"
)

// VersionPricing is the price list of one pricing version
type VersionPricing struct {
	// TierRates maps each cluster tier to its hourly compute rate
	TierRates map[types.ClusterTier]decimal.Decimal `json:"tier_rates"`

	// APIPerMillion is the price of one million API calls
	APIPerMillion decimal.Decimal `json:"api_per_million"`
}

// StoragePricing holds the storage prices and the policy that picks one
type StoragePricing struct {
	// Policy is the storage policy applied by default
	Policy types.StoragePolicy `json:"policy"`

	// PerGBMonth is the linear price of one GB-month
	PerGBMonth decimal.NullDecimal `json:"per_gb_month"`

	// PerTBMonth is the price of one started TB-month
	PerTBMonth decimal.NullDecimal `json:"per_tb_month"`
}

// UnitPrice returns the price quoted for the active policy
func (s StoragePricing) UnitPrice() (decimal.Decimal, bool) {
	switch s.Policy {
	case types.StorageLinear:
		return s.PerGBMonth.Decimal, s.PerGBMonth.Valid
	case types.StorageTieredCeiling:
		return s.PerTBMonth.Decimal, s.PerTBMonth.Valid
	}
	return decimal.Zero, false
}

// Tables is a complete pricing catalog
type Tables struct {
	// Name identifies the catalog
	Name string `json:"name"`

	// Description is a human-readable summary
	Description string `json:"description,omitempty"`

	// Currency is the currency every price is quoted in
	Currency types.Currency `json:"currency"`

	// FeeRate is the cloud service fee as a fraction of the subtotal
	FeeRate decimal.Decimal `json:"fee_rate"`

	// ActiveMinutesPerQuery is the window billed per query in active-window mode
	ActiveMinutesPerQuery decimal.Decimal `json:"active_minutes_per_query"`

	// Storage holds storage prices
	Storage StoragePricing `json:"storage"`

	// Versions maps each pricing version to its price list
	Versions map[types.PricingVersion]VersionPricing `json:"versions"`
}

// Validate checks that the catalog can price every estimate it accepts.
// All problems are reported together.
func (t *Tables) Validate() error {
	var err error
	if strings.TrimSpace(t.Name) == "" {
		err = multierr.Append(err, errors.Config("catalog name is required"))
	}
	if t.Currency == "" {
		err = multierr.Append(err, errors.Configf("catalog %q: currency is required", t.Name))
	}
	if t.FeeRate.IsNegative() {
		err = multierr.Append(err, errors.Configf("catalog %q: fee rate must not be negative", t.Name))
	}
	if t.ActiveMinutesPerQuery.IsNegative() {
		err = multierr.Append(err, errors.Configf("catalog %q: active minutes per query must not be negative", t.Name))
	}
	err = multierr.Append(err, t.validateStorage())

	if len(t.Versions) == 0 {
		err = multierr.Append(err, errors.Configf("catalog %q: at least one pricing version is required", t.Name))
	}
	for _, v := range t.VersionNames() {
		if !v.IsValid() {
			err = multierr.Append(err, errors.Configf("catalog %q: unknown pricing version %q (supported: %s, %s)", t.Name, v, types.VersionStandard, types.VersionCommercial))
			continue
		}
		vp := t.Versions[v]
		if vp.APIPerMillion.IsNegative() {
			err = multierr.Append(err, errors.Configf("catalog %q: version %q: API rate must not be negative", t.Name, v))
		}
		if len(vp.TierRates) == 0 {
			err = multierr.Append(err, errors.Configf("catalog %q: version %q: at least one tier rate is required", t.Name, v))
		}
		for tier, rate := range vp.TierRates {
			if tier.Rank() < 0 {
				err = multierr.Append(err, errors.Configf("catalog %q: version %q: unknown cluster tier %q", t.Name, v, tier))
			}
			if rate.IsNegative() {
				err = multierr.Append(err, errors.Configf("catalog %q: version %q: tier %q rate must not be negative", t.Name, v, tier))
			}
		}
	}
	return err
}

func (t *Tables) validateStorage() error {
	s := t.Storage
	if !s.Policy.IsValid() {
		return errors.Configf("catalog %q: unknown storage policy %q", t.Name, s.Policy)
	}
	price, ok := s.UnitPrice()
	if !ok {
		return errors.Configf("catalog %q: no %s price for storage policy %q", t.Name, s.Policy.UnitLabel(), s.Policy)
	}
	if price.IsNegative() {
		return errors.Configf("catalog %q: storage price must not be negative", t.Name)
	}
	var err error
	for _, p := range []decimal.NullDecimal{s.PerGBMonth, s.PerTBMonth} {
		if p.Valid && p.Decimal.IsNegative() {
			err = errors.Configf("catalog %q: storage price must not be negative", t.Name)
		}
	}
	return err
}

// Version returns the price list for v
func (t *Tables) Version(v types.PricingVersion) (VersionPricing, error) {
	vp, ok := t.Versions[v]
	if !ok {
		return VersionPricing{}, errors.Configf("unknown pricing version %q", v).
			WithContext("catalog", t.Name).
			WithContext("available", versionStrings(t.VersionNames()))
	}
	return vp, nil
}

// TierRate returns the hourly compute rate of tier under version v
func (t *Tables) TierRate(v types.PricingVersion, tier types.ClusterTier) (decimal.Decimal, error) {
	vp, err := t.Version(v)
	if err != nil {
		return decimal.Zero, err
	}
	rate, ok := vp.TierRates[tier]
	if !ok {
		return decimal.Zero, errors.Configf("unknown cluster tier %q for pricing version %q", tier, v).
			WithContext("catalog", t.Name).
			WithContext("available", tierStrings(t.Tiers(v)))
	}
	return rate, nil
}

// APIRate returns the per-million API call price under version v
func (t *Tables) APIRate(v types.PricingVersion) (decimal.Decimal, error) {
	vp, err := t.Version(v)
	if err != nil {
		return decimal.Zero, err
	}
	return vp.APIPerMillion, nil
}

// Tiers returns the tiers priced under v in ascending capacity order
func (t *Tables) Tiers(v types.PricingVersion) []types.ClusterTier {
	vp, ok := t.Versions[v]
	if !ok {
		return nil
	}
	tiers := make([]types.ClusterTier, 0, len(vp.TierRates))
	for tier := range vp.TierRates {
		tiers = append(tiers, tier)
	}
	sort.Slice(tiers, func(i, j int) bool {
		ri, rj := tiers[i].Rank(), tiers[j].Rank()
		if ri != rj {
			return ri < rj
		}
		return tiers[i] < tiers[j]
	})
	return tiers
}

// VersionNames returns the pricing versions in sorted order
func (t *Tables) VersionNames() []types.PricingVersion {
	names := make([]types.PricingVersion, 0, len(t.Versions))
	for v := range t.Versions {
		names = append(names, v)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// WithStoragePolicy returns a copy of t that bills storage under policy p.
// The catalog must quote a price in the unit p bills.
func (t *Tables) WithStoragePolicy(p types.StoragePolicy) (*Tables, error) {
	if !p.IsValid() {
		return nil, errors.Configf("unknown storage policy %q", p)
	}
	clone := *t
	clone.Storage.Policy = p
	if _, ok := clone.Storage.UnitPrice(); !ok {
		return nil, errors.Configf("catalog %q has no %s price for storage policy %q", t.Name, p.UnitLabel(), p)
	}
	return &clone, nil
}

// Fingerprint is a content hash of the catalog. Two catalogs with the same
// fingerprint price every estimate identically.
func (t *Tables) Fingerprint() string {
	src, err := Encode(t)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:8])
}

func versionStrings(vs []types.PricingVersion) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}

func tierStrings(ts []types.ClusterTier) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.String()
	}
	return out
}
