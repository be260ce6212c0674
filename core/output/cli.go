package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"warehouse-cost/core/types"
)

const (
	primaryColorHex = "#8dc8ff"
	neutralColorHex = "#888888"
)

// CLIFormatter renders bordered tables for a terminal
type CLIFormatter struct {
	ShowDetails bool
}

// Format returns the format type
func (f *CLIFormatter) Format() Format {
	return FormatCLI
}

// Render writes the result as one table per tier, or a comparison table
// when more than one tier was priced
func (f *CLIFormatter) Render(w io.Writer, result *EstimationResult) error {
	renderer := lipgloss.NewRenderer(w)
	title := renderer.NewStyle().Bold(true).Foreground(lipgloss.Color(primaryColorHex))
	neutral := renderer.NewStyle().Foreground(lipgloss.Color(neutralColorHex))
	header := renderer.NewStyle().Bold(true).Padding(0, 1)
	cell := renderer.NewStyle().Padding(0, 1)
	number := cell.Align(lipgloss.Right)

	var b strings.Builder
	b.WriteString(title.Render(fmt.Sprintf("Warehouse cost estimate · %s (%s)", result.Catalog, result.Currency)))
	b.WriteString("\n")
	b.WriteString(neutral.Render(describeInput(result.Input)))
	b.WriteString("\n\n")

	if len(result.Estimates) == 1 {
		costs := result.Estimates[0].Costs
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("", "Daily", "Monthly", "Yearly").
			StyleFunc(func(row, col int) lipgloss.Style {
				switch {
				case row == table.HeaderRow:
					return header
				case col == 0:
					return cell
				default:
					return number
				}
			})
		for _, line := range lineRows {
			t.Row(line.label, line.value(costs.Daily), line.value(costs.Monthly), line.value(costs.Yearly))
		}
		b.WriteString(t.Render())
		b.WriteString("\n")
	} else {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("Tier", "Compute/mo", "Storage/mo", "API/mo", "Fee/mo", "Daily", "Monthly", "Yearly").
			StyleFunc(func(row, col int) lipgloss.Style {
				switch {
				case row == table.HeaderRow:
					return header
				case col == 0:
					return cell
				default:
					return number
				}
			})
		for _, e := range result.Estimates {
			m := e.Costs.Monthly
			t.Row(strings.ToUpper(string(e.Tier)), m.Compute, m.Storage, m.API, m.CloudFee,
				e.Costs.Daily.Total, m.Total, e.Costs.Yearly.Total)
		}
		b.WriteString(t.Render())
		b.WriteString("\n")
	}

	if f.ShowDetails && result.Lineage != nil {
		b.WriteString("\n")
		b.WriteString(title.Render("How this was calculated"))
		b.WriteString("\n")
		for _, k := range sortedFormulaKeys(result.Lineage.Formulas) {
			fmt.Fprintf(&b, "  %-10s %s\n", k, result.Lineage.Formulas[k])
		}
		for _, a := range result.Lineage.Assumptions {
			b.WriteString(neutral.Render("  · " + a))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(neutral.Render(fmt.Sprintf("Amounts in %s, rounded to 2 decimal places. Pricing %s.", result.Currency, result.PricingFingerprint)))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func describeInput(in InputSummary) string {
	parts := make([]string, 0, 4)
	if in.ClusterTier != "" {
		parts = append(parts, "tier "+in.ClusterTier)
	}
	parts = append(parts,
		"version "+in.PricingVersion,
		"billing "+in.BillingMode,
		"storage "+in.StoragePolicy,
	)
	usage := fmt.Sprintf("%s GB stored · %s queries/hour", in.StorageGB, in.QueriesPerHour)
	if in.BillingMode == string(types.BillingPerHourProrated) {
		usage += fmt.Sprintf(" · %s s/query", in.QueryDurationSeconds)
	}
	return strings.Join(parts, " · ") + "\n" + usage
}
