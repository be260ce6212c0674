// Package cmd - estimate and compare commands
package cmd

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"warehouse-cost/core/estimator"
	"warehouse-cost/core/output"
	"warehouse-cost/core/pricing"
	"warehouse-cost/core/types"
	"warehouse-cost/internal/config"
	"warehouse-cost/internal/errors"
	"warehouse-cost/internal/logging"
)

// estimateOptions holds the flags shared by estimate and compare
type estimateOptions struct {
	tier           string
	version        string
	billing        string
	storageGB      string
	queriesPerHour string
	queryDuration  string
	catalogOptions
	outputFormat string
	showDetails  bool
}

// catalogOptions selects the pricing catalog
type catalogOptions struct {
	catalog       string
	pricingFiles  []string
	storagePolicy string
}

func newEstimateCmd() *cobra.Command {
	opts := &estimateOptions{}
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate costs for one cluster tier",
		Long: `Estimate the daily, monthly and yearly cost of one warehouse cluster.

Examples:
  warehouse-cost estimate --tier s --storage-gb 500 --queries-per-hour 5
  warehouse-cost estimate --billing per-second-flat --catalog cloud-cny --version commercial --storage-gb 1 --queries-per-hour 5
  warehouse-cost estimate --pricing-file ./regional.hcl --storage-gb 100 --queries-per-hour 2 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstimate(cmd, opts, false)
		},
	}
	cmd.Flags().StringVarP(&opts.tier, "tier", "t", "", "cluster tier (xs, s, m, l, xl)")
	addEstimateFlags(cmd, opts)
	return cmd
}

func newCompareCmd() *cobra.Command {
	opts := &estimateOptions{}
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Estimate costs for every cluster tier",
		Long: `Price the same workload on every cluster tier of a pricing version.

Examples:
  warehouse-cost compare --storage-gb 500 --queries-per-hour 5
  warehouse-cost compare --catalog cloud-cny --version commercial --storage-gb 1 --queries-per-hour 5 --format markdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstimate(cmd, opts, true)
		},
	}
	addEstimateFlags(cmd, opts)
	return cmd
}

func addEstimateFlags(cmd *cobra.Command, opts *estimateOptions) {
	cmd.Flags().StringVar(&opts.version, "version", "", "pricing version (standard, commercial)")
	cmd.Flags().StringVarP(&opts.billing, "billing", "b", "", "billing mode (per-hour-prorated, per-second-flat, active-window)")
	cmd.Flags().StringVar(&opts.storageGB, "storage-gb", "", "stored data in GB")
	cmd.Flags().StringVarP(&opts.queriesPerHour, "queries-per-hour", "q", "", "queries run per hour")
	cmd.Flags().StringVar(&opts.queryDuration, "query-duration", "", "average query duration in seconds (default 12)")
	addCatalogFlags(cmd, &opts.catalogOptions)
	cmd.Flags().StringVarP(&opts.outputFormat, "format", "f", "", "output format (cli, json, markdown)")
	cmd.Flags().BoolVarP(&opts.showDetails, "details", "d", false, "show formulas and assumptions")
	_ = cmd.MarkFlagRequired("storage-gb")
	_ = cmd.MarkFlagRequired("queries-per-hour")
}

func addCatalogFlags(cmd *cobra.Command, opts *catalogOptions) {
	cmd.Flags().StringVarP(&opts.catalog, "catalog", "c", "", "pricing catalog name")
	cmd.Flags().StringSliceVar(&opts.pricingFiles, "pricing-file", nil, "HCL pricing catalog file (repeatable)")
	cmd.Flags().StringVar(&opts.storagePolicy, "storage-policy", "", "storage policy override (linear, tiered-ceiling)")
}

func runEstimate(cmd *cobra.Command, opts *estimateOptions, allTiers bool) error {
	startTime := time.Now()
	cfg := config.Get()

	tables, err := opts.tables(cfg)
	if err != nil {
		return err
	}
	in, err := opts.input(cfg)
	if err != nil {
		return err
	}

	logging.Debug("starting cost estimation",
		zap.String("catalog", tables.Name),
		zap.String("tier", string(in.ClusterTier)),
		zap.Bool("all_tiers", allTiers))

	var estimates []estimator.TierEstimate
	if allTiers {
		estimates, err = estimator.EstimateAllTiers(in, tables)
	} else {
		var breakdown *types.CostBreakdown
		breakdown, err = estimator.Estimate(in, tables)
		estimates = []estimator.TierEstimate{{Tier: in.ClusterTier, Breakdown: breakdown}}
	}
	if err != nil {
		return err
	}

	result := output.NewResult(tables, in, estimates, Version)
	result.Metadata.Duration = time.Since(startTime).String()

	format := opts.outputFormat
	if !cmd.Flags().Changed("format") {
		format = cfg.Output.DefaultFormat
	}
	formatter, err := output.Get(format, output.Options{ShowDetails: opts.showDetails || cfg.Output.ShowDetails})
	if err != nil {
		return err
	}
	return formatter.Render(cmd.OutOrStdout(), result)
}

// input parses the numeric flags and fills the rest from the configured defaults
func (o *estimateOptions) input(cfg *config.Config) (types.CostInput, error) {
	storageGB, err := parseDecimal("storage-gb", o.storageGB)
	if err != nil {
		return types.CostInput{}, err
	}
	queriesPerHour, err := parseDecimal("queries-per-hour", o.queriesPerHour)
	if err != nil {
		return types.CostInput{}, err
	}
	var duration decimal.NullDecimal
	if o.queryDuration != "" {
		d, err := parseDecimal("query-duration", o.queryDuration)
		if err != nil {
			return types.CostInput{}, err
		}
		duration = decimal.NewNullDecimal(d)
	}
	return cfg.Defaults.Input(o.tier, o.version, o.billing, storageGB, queriesPerHour, duration)
}

// tables resolves the selected catalog. Without --catalog, the first catalog
// of the first --pricing-file is used, then the configured default.
func (o *catalogOptions) tables(cfg *config.Config) (*pricing.Tables, error) {
	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	name := o.catalog
	for _, path := range o.pricingFiles {
		catalogs, err := pricing.LoadFile(path)
		if err != nil {
			return nil, err
		}
		for _, t := range catalogs {
			if err := registry.Register(t); err != nil {
				return nil, err
			}
		}
		if name == "" && len(catalogs) > 0 {
			name = catalogs[0].Name
		}
	}

	var policy types.StoragePolicy
	if o.storagePolicy != "" {
		policy = types.StoragePolicy(o.storagePolicy)
		if !policy.IsValid() {
			return nil, errors.Configf("--storage-policy: unknown storage policy %q", o.storagePolicy)
		}
	}
	return cfg.Tables(registry, name, policy)
}

func parseDecimal(flag, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, errors.Wrapf(errors.TypeInput, err, "--%s: invalid number %q", flag, value)
	}
	return d, nil
}
