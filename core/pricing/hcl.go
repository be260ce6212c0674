// Package pricing - HCL catalog files
package pricing

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/shopspring/decimal"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"go.uber.org/multierr"

	"warehouse-cost/core/types"
	"warehouse-cost/internal/errors"
)

// catalogFile is the top-level layout of a catalog file:
//
//	catalog "cloud-usd" {
//	  currency = "USD"
//	  fee_rate = 0.10
//	  storage {
//	    policy             = "linear"
//	    price_per_gb_month = 0.019
//	  }
//	  version "standard" {
//	    api_per_million = 0.03
//	    tiers = { xs = 0.13, s = 0.26 }
//	  }
//	}
type catalogFile struct {
	Catalogs []catalogBlock `hcl:"catalog,block"`
}

type catalogBlock struct {
	Name          string         `hcl:"name,label"`
	Description   string         `hcl:"description,optional"`
	Currency      string         `hcl:"currency"`
	FeeRate       cty.Value      `hcl:"fee_rate"`
	ActiveMinutes cty.Value      `hcl:"active_minutes_per_query,optional"`
	Storage       storageBlock   `hcl:"storage,block"`
	Versions      []versionBlock `hcl:"version,block"`
}

type storageBlock struct {
	Policy     string    `hcl:"policy"`
	PerGBMonth cty.Value `hcl:"price_per_gb_month,optional"`
	PerTBMonth cty.Value `hcl:"price_per_tb_month,optional"`
}

type versionBlock struct {
	Name          string    `hcl:"name,label"`
	APIPerMillion cty.Value `hcl:"api_per_million"`
	Tiers         cty.Value `hcl:"tiers"`
}

// defaultActiveMinutes applies when a catalog omits active_minutes_per_query
var defaultActiveMinutes = decimal.NewFromInt(5)

// LoadFile parses every catalog in an HCL file
func LoadFile(path string) ([]*Tables, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeConfig, err, "failed to read pricing catalog %s", path)
	}
	return Parse(src, filepath.Base(path))
}

// Parse decodes and validates every catalog in src
func Parse(src []byte, filename string) ([]*Tables, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Parsing(fmt.Sprintf("failed to parse pricing catalog %s", filename), diags)
	}

	var doc catalogFile
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, errors.Parsing(fmt.Sprintf("invalid pricing catalog %s", filename), diags)
	}
	if len(doc.Catalogs) == 0 {
		return nil, errors.Configf("pricing catalog %s defines no catalog blocks", filename)
	}

	var (
		result []*Tables
		errs   error
		seen   = make(map[string]bool)
	)
	for _, block := range doc.Catalogs {
		if seen[block.Name] {
			errs = multierr.Append(errs, errors.Configf("%s: duplicate catalog %q", filename, block.Name))
			continue
		}
		seen[block.Name] = true

		tables, err := block.toTables()
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if err := tables.Validate(); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		result = append(result, tables)
	}
	if errs != nil {
		return nil, errs
	}
	return result, nil
}

func (b catalogBlock) toTables() (*Tables, error) {
	var errs error
	num := func(field string, v cty.Value, required bool) decimal.NullDecimal {
		n, err := ctyDecimal(v)
		if err != nil {
			errs = multierr.Append(errs, errors.Configf("catalog %q: %s: %v", b.Name, field, err))
			return decimal.NullDecimal{}
		}
		if !n.Valid && required {
			errs = multierr.Append(errs, errors.Configf("catalog %q: %s is required", b.Name, field))
		}
		return n
	}

	t := &Tables{
		Name:        b.Name,
		Description: b.Description,
		Currency:    types.Currency(b.Currency),
		FeeRate:     num("fee_rate", b.FeeRate, true).Decimal,
		Storage: StoragePricing{
			Policy:     types.StoragePolicy(b.Storage.Policy),
			PerGBMonth: num("price_per_gb_month", b.Storage.PerGBMonth, false),
			PerTBMonth: num("price_per_tb_month", b.Storage.PerTBMonth, false),
		},
		Versions: make(map[types.PricingVersion]VersionPricing, len(b.Versions)),
	}

	t.ActiveMinutesPerQuery = defaultActiveMinutes
	if minutes := num("active_minutes_per_query", b.ActiveMinutes, false); minutes.Valid {
		t.ActiveMinutesPerQuery = minutes.Decimal
	}

	for _, vb := range b.Versions {
		version := types.PricingVersion(vb.Name)
		if _, dup := t.Versions[version]; dup {
			errs = multierr.Append(errs, errors.Configf("catalog %q: duplicate version %q", b.Name, vb.Name))
			continue
		}
		vp := VersionPricing{
			APIPerMillion: num(fmt.Sprintf("version %q api_per_million", vb.Name), vb.APIPerMillion, true).Decimal,
			TierRates:     make(map[types.ClusterTier]decimal.Decimal),
		}
		if vb.Tiers.IsNull() || !(vb.Tiers.Type().IsObjectType() || vb.Tiers.Type().IsMapType()) {
			errs = multierr.Append(errs, errors.Configf("catalog %q: version %q: tiers must be an object of tier = rate", b.Name, vb.Name))
			continue
		}
		for it := vb.Tiers.ElementIterator(); it.Next(); {
			k, v := it.Element()
			tier := k.AsString()
			rate := num(fmt.Sprintf("version %q tier %q", vb.Name, tier), v, true)
			vp.TierRates[types.ClusterTier(tier)] = rate.Decimal
		}
		t.Versions[version] = vp
	}

	if errs != nil {
		return nil, errs
	}
	return t, nil
}

// ctyDecimal converts a number (or numeric string) to an exact decimal.
// A null value yields an invalid NullDecimal.
func ctyDecimal(v cty.Value) (decimal.NullDecimal, error) {
	if v.IsNull() {
		return decimal.NullDecimal{}, nil
	}
	if !v.IsKnown() {
		return decimal.NullDecimal{}, fmt.Errorf("value must be known")
	}
	n, err := convert.Convert(v, cty.Number)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("must be a number: %w", err)
	}
	dec, err := decimal.NewFromString(n.AsBigFloat().Text('f', -1))
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(dec), nil
}

func decimalVal(d decimal.Decimal) cty.Value {
	v, err := cty.ParseNumberVal(d.String())
	if err != nil {
		return cty.NullVal(cty.Number)
	}
	return v
}

// Encode renders catalogs in the HCL layout Parse reads
func Encode(catalogs ...*Tables) ([]byte, error) {
	f := hclwrite.NewEmptyFile()
	root := f.Body()
	for i, t := range catalogs {
		if t == nil {
			return nil, errors.Internal("cannot encode nil catalog", nil)
		}
		if i > 0 {
			root.AppendNewline()
		}
		block := root.AppendNewBlock("catalog", []string{t.Name}).Body()
		if t.Description != "" {
			block.SetAttributeValue("description", cty.StringVal(t.Description))
		}
		block.SetAttributeValue("currency", cty.StringVal(string(t.Currency)))
		block.SetAttributeValue("fee_rate", decimalVal(t.FeeRate))
		block.SetAttributeValue("active_minutes_per_query", decimalVal(t.ActiveMinutesPerQuery))

		block.AppendNewline()
		storage := block.AppendNewBlock("storage", nil).Body()
		storage.SetAttributeValue("policy", cty.StringVal(string(t.Storage.Policy)))
		if t.Storage.PerGBMonth.Valid {
			storage.SetAttributeValue("price_per_gb_month", decimalVal(t.Storage.PerGBMonth.Decimal))
		}
		if t.Storage.PerTBMonth.Valid {
			storage.SetAttributeValue("price_per_tb_month", decimalVal(t.Storage.PerTBMonth.Decimal))
		}

		for _, v := range t.VersionNames() {
			vp := t.Versions[v]
			block.AppendNewline()
			vb := block.AppendNewBlock("version", []string{string(v)}).Body()
			vb.SetAttributeValue("api_per_million", decimalVal(vp.APIPerMillion))
			rates := make(map[string]cty.Value, len(vp.TierRates))
			for tier, rate := range vp.TierRates {
				rates[string(tier)] = decimalVal(rate)
			}
			vb.SetAttributeValue("tiers", cty.ObjectVal(rates))
		}
	}
	return f.Bytes(), nil
}
