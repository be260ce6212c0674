// Package cmd - pricing catalog commands
package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"warehouse-cost/core/pricing"
	"warehouse-cost/core/types"
	"warehouse-cost/internal/config"
	"warehouse-cost/internal/errors"
)

func newPricingCmd() *cobra.Command {
	pricingCmd := &cobra.Command{
		Use:   "pricing",
		Short: "Inspect pricing catalogs",
		Long: `Inspect the built-in pricing catalogs and any catalog loaded from HCL files.

Catalog files listed under pricing.catalog_files in the config file are
always loaded.`,
	}
	pricingCmd.AddCommand(newPricingListCmd())
	pricingCmd.AddCommand(newPricingShowCmd())
	return pricingCmd
}

func newPricingListCmd() *cobra.Command {
	var pricingFiles []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available pricing catalogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			registry, err := loadRegistry(cfg, pricingFiles)
			if err != nil {
				return err
			}

			renderer := lipgloss.NewRenderer(cmd.OutOrStdout())
			header := renderer.NewStyle().Bold(true).Padding(0, 1)
			cell := renderer.NewStyle().Padding(0, 1)

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("Catalog", "Currency", "Storage", "Versions", "Fingerprint").
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return header
					}
					return cell
				})
			for _, name := range registry.Names() {
				tables, err := registry.Get(name)
				if err != nil {
					return err
				}
				if name == cfg.Pricing.Catalog {
					name += " (default)"
				}
				t.Row(name,
					string(tables.Currency),
					string(tables.Storage.Policy),
					joinVersions(tables.VersionNames()),
					tables.Fingerprint())
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&pricingFiles, "pricing-file", nil, "HCL pricing catalog file (repeatable)")
	return cmd
}

func newPricingShowCmd() *cobra.Command {
	var (
		pricingFiles []string
		format       string
	)
	cmd := &cobra.Command{
		Use:   "show <catalog>",
		Short: "Print a pricing catalog",
		Long: `Print one pricing catalog as HCL or JSON.

The HCL form can be saved and loaded again with --pricing-file, which makes
it a starting point for a custom catalog.

Examples:
  warehouse-cost pricing show cloud-usd
  warehouse-cost pricing show cloud-cny --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := loadRegistry(config.Get(), pricingFiles)
			if err != nil {
				return err
			}
			tables, err := registry.Get(args[0])
			if err != nil {
				return err
			}

			var data []byte
			switch format {
			case "hcl":
				data, err = pricing.Encode(tables)
			case "json":
				data, err = json.MarshalIndent(tables, "", "  ")
				data = append(data, '\n')
			default:
				return errors.Inputf("unknown catalog format %q (supported: hcl, json)", format)
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringSliceVar(&pricingFiles, "pricing-file", nil, "HCL pricing catalog file (repeatable)")
	cmd.Flags().StringVarP(&format, "format", "f", "hcl", "catalog format (hcl, json)")
	return cmd
}

func loadRegistry(cfg *config.Config, pricingFiles []string) (*pricing.Registry, error) {
	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	for _, path := range pricingFiles {
		if err := registry.LoadFile(path); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func joinVersions(versions []types.PricingVersion) string {
	names := make([]string, len(versions))
	for i, v := range versions {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}
