// Package cmd provides the CLI commands for warehouse-cost.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"warehouse-cost/internal/config"
	"warehouse-cost/internal/logging"
)

// Version is the tool version, overridden at build time with -ldflags
var Version = "0.1.0"

// rootOptions holds the persistent flags and the configuration they resolve to
type rootOptions struct {
	cfgFile string
	verbose bool
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "warehouse-cost",
		Short: "Estimate costs for a cloud data warehouse",
		Long: `warehouse-cost estimates the daily, monthly and yearly cost of running a
cloud data warehouse cluster.

Costs are split into compute, storage, API calls and the cloud service fee,
priced against a built-in or HCL-defined pricing catalog.

Examples:
  warehouse-cost estimate --tier s --storage-gb 500 --queries-per-hour 5
  warehouse-cost compare --catalog cloud-cny --storage-gb 1 --queries-per-hour 5
  warehouse-cost pricing show cloud-usd --format hcl`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initConfig()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", fmt.Sprintf("config file (default is $HOME/%s)", config.DefaultFileName))
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(newEstimateCmd())
	rootCmd.AddCommand(newCompareCmd())
	rootCmd.AddCommand(newPricingCmd())
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the CLI
func Execute() error {
	defer logging.Sync()
	return NewRootCmd().Execute()
}

func (o *rootOptions) path() string {
	if o.cfgFile != "" {
		return o.cfgFile
	}
	return config.DefaultPath()
}

func (o *rootOptions) initConfig() error {
	cfg, err := config.Load(o.path())
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	config.Set(cfg)

	// Initialize logging
	// Results go to stdout, so logs stay quiet below warn unless configured
	logCfg := cfg.Logging.WithDefaultLevel("warn")
	if o.verbose {
		logCfg.Level = "debug"
	}
	if err := logging.Initialize(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
	return nil
}

// newVersionCmd prints version information
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "warehouse-cost version %s\n", Version)
		},
	}
}
