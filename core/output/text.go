package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// JSONFormatter renders the result as indented JSON
type JSONFormatter struct{}

// Format returns the format type
func (f *JSONFormatter) Format() Format {
	return FormatJSON
}

// Render writes the result as JSON
func (f *JSONFormatter) Render(w io.Writer, result *EstimationResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// MarkdownFormatter renders the result as a markdown report
type MarkdownFormatter struct {
	ShowDetails bool
}

// Format returns the format type
func (f *MarkdownFormatter) Format() Format {
	return FormatMarkdown
}

// Render writes the result as markdown tables
func (f *MarkdownFormatter) Render(w io.Writer, result *EstimationResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "## Warehouse cost estimate (%s, %s)\n\n", result.Catalog, result.Currency)
	fmt.Fprintf(&b, "%s\n\n", strings.ReplaceAll(describeInput(result.Input), "\n", "  \n"))

	if len(result.Estimates) == 1 {
		costs := result.Estimates[0].Costs
		b.WriteString("| | Daily | Monthly | Yearly |\n")
		b.WriteString("|---|---:|---:|---:|\n")
		for _, line := range lineRows {
			label := line.label
			if label == "Total" {
				label = "**Total**"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", label,
				line.value(costs.Daily), line.value(costs.Monthly), line.value(costs.Yearly))
		}
	} else {
		b.WriteString("| Tier | Compute/mo | Storage/mo | API/mo | Fee/mo | Daily | Monthly | Yearly |\n")
		b.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|\n")
		for _, e := range result.Estimates {
			m := e.Costs.Monthly
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
				strings.ToUpper(string(e.Tier)), m.Compute, m.Storage, m.API, m.CloudFee,
				e.Costs.Daily.Total, m.Total, e.Costs.Yearly.Total)
		}
	}

	if f.ShowDetails && result.Lineage != nil {
		b.WriteString("\n### Formulas\n\n")
		for _, k := range sortedFormulaKeys(result.Lineage.Formulas) {
			fmt.Fprintf(&b, "- **%s**: `%s`\n", k, result.Lineage.Formulas[k])
		}
		if len(result.Lineage.Assumptions) > 0 {
			b.WriteString("\n### Assumptions\n\n")
			for _, a := range result.Lineage.Assumptions {
				fmt.Fprintf(&b, "- %s\n", a)
			}
		}
	}

	fmt.Fprintf(&b, "\n_Pricing fingerprint `%s`, input hash `%s`._\n", result.PricingFingerprint, shortHash(result.Metadata.InputHash))

	_, err := io.WriteString(w, b.String())
	return err
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
