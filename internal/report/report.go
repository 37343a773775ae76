// Package report renders corrected test outcomes as terminal tables.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/featstat/pkg/statistics"
	"github.com/Sumatoshi-tech/featstat/pkg/values"
)

// Significance thresholds and their codes.
const (
	thresholdHighest = 0.001
	thresholdHigh    = 0.01
	thresholdMedium  = 0.05
	thresholdLow     = 0.1

	codeHighest = "***"
	codeHigh    = "**"
	codeMedium  = "*"
	codeLow     = "."
	codeNone    = "-"
)

// Decisions on the null hypothesis.
const (
	DecisionRejected    = "Rejected"
	DecisionNotRejected = "Not rejected"
	DecisionUndefined   = "n/a"
)

const (
	numberDigits = 4
	undefined    = "n/a"
)

// Config controls rendering.
type Config struct {
	// Test selects which test's outcomes are shown.
	Test string
	// Alpha is the significance level the corrected p-value is compared with.
	Alpha float64
	// Color enables ANSI colors.
	Color bool
}

// Formatter renders statistics results.
type Formatter struct {
	config   Config
	title    *color.Color
	rejected *color.Color
	kept     *color.Color
}

// NewFormatter creates a formatter. An empty Test shows the full-sample test.
func NewFormatter(config Config) *Formatter {
	if config.Test == "" {
		config.Test = statistics.TestMannWhitneyU
	}

	f := &Formatter{
		config:   config,
		title:    color.New(color.Bold, color.FgCyan),
		rejected: color.New(color.FgGreen),
		kept:     color.New(color.FgHiBlack),
	}

	for _, c := range []*color.Color{f.title, f.rejected, f.kept} {
		if config.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return f
}

// Render writes the test name followed by one table per feature. Metrics
// without an outcome for the selected test are counted in the table footer
// instead of listed.
func (f *Formatter) Render(w io.Writer, results *statistics.Results) error {
	sections := make([]string, 0, len(results.Features())+1)
	sections = append(sections, f.title.Sprint("== "+f.config.Test+" =="))

	for _, feature := range results.Features() {
		sections = append(sections, f.renderFeature(results, feature))
	}

	_, err := io.WriteString(w, strings.Join(sections, "\n\n")+"\n")
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

func (f *Formatter) renderFeature(results *statistics.Results, feature string) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Format.Footer = text.FormatDefault

	tbl.AppendHeader(table.Row{"metric", "n", "median", "U", "proportion", "p", "corrected p", "decision", ""})

	skipped := 0

	for _, metric := range results.Metrics() {
		cell, ok := results.Get(feature, metric, f.config.Test)
		if !ok {
			skipped++

			continue
		}

		decision := Decision(cell.CorrectedPValue, f.config.Alpha)

		paint := f.kept
		if decision == DecisionRejected {
			paint = f.rejected
		}

		tbl.AppendRow(table.Row{
			metric,
			fmt.Sprintf("%d/%d", cell.NPresent, cell.NAbsent),
			formatValue(cell.MedianPresent)+"/"+formatValue(cell.MedianAbsent),
			formatFloat(cell.Statistic),
			formatValue(cell.Proportion),
			formatValue(cell.PValue),
			formatValue(cell.CorrectedPValue),
			paint.Sprint(decision),
			Significance(cell.CorrectedPValue),
		})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("skipped: %d", skipped)})

	return f.title.Sprint(feature) + "\n" + tbl.Render()
}

// Decision compares a corrected p-value with alpha.
func Decision(corrected values.Value, alpha float64) string {
	p, ok := corrected.Get()
	if !ok {
		return DecisionUndefined
	}

	if p < alpha {
		return DecisionRejected
	}

	return DecisionNotRejected
}

// Significance returns the conventional significance code of p.
func Significance(p values.Value) string {
	v, ok := p.Get()

	switch {
	case !ok:
		return codeNone
	case v < thresholdHighest:
		return codeHighest
	case v < thresholdHigh:
		return codeHigh
	case v < thresholdMedium:
		return codeMedium
	case v < thresholdLow:
		return codeLow
	default:
		return codeNone
	}
}

func formatValue(v values.Value) string {
	f, ok := v.Get()
	if !ok {
		return undefined
	}

	return formatFloat(f)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', numberDigits, 64)
}
