// Package metrics defines the closed, ordered set of tracked metrics.
//
// Each metric is either extracted from a measurement record by a dotted
// path (e.g. "halstead.N1", "loc.sloc") or derived from the record's
// Halstead base counts. The catalog is fixed at compile time so that every
// suite, regardless of origin, carries exactly the same keys.
package metrics

import (
	"github.com/Sumatoshi-tech/featstat/pkg/halstead"
	"github.com/Sumatoshi-tech/featstat/pkg/values"
)

// Metric identifies one tracked metric.
type Metric int

// Tracked metrics, in export order.
const (
	Nargs Metric = iota
	Nexits
	Cognitive
	Cyclomatic
	UOperators
	Operators
	UOperands
	Operands
	Functions
	Closures
	Sloc
	Ploc
	Lloc
	Cloc
	Blank
	MIOriginal
	MISEI
	MIVisualStudio
	Length
	EstimatedProgramLength
	PurityRatio
	Vocabulary
	Volume
	Difficulty
	Level
	Effort
	Time
	Bugs

	metricCount
)

// Metric types.
const (
	TypeExtracted = "extracted"
	TypeDerived   = "derived"
)

// MetricMeta holds the common metadata for a metric.
type MetricMeta struct {
	MetricName        string
	MetricDisplayName string
	MetricDescription string
	MetricType        string
	// MetricPath is the dotted path of an extracted metric inside a record's metrics object.
	MetricPath string
}

type definition struct {
	MetricMeta

	derive func(halstead.Accumulator) values.Value
}

func extracted(name, display, path, description string) definition {
	return definition{MetricMeta: MetricMeta{
		MetricName:        name,
		MetricDisplayName: display,
		MetricDescription: description,
		MetricType:        TypeExtracted,
		MetricPath:        path,
	}}
}

func derived(name, display, description string, derive func(halstead.Accumulator) values.Value) definition {
	return definition{
		MetricMeta: MetricMeta{
			MetricName:        name,
			MetricDisplayName: display,
			MetricDescription: description,
			MetricType:        TypeDerived,
		},
		derive: derive,
	}
}

var catalog = [metricCount]definition{
	Nargs:          extracted("nargs", "Arguments", "nargs.sum", "Number of function and closure arguments."),
	Nexits:         extracted("nexits", "Exit points", "nexits.sum", "Number of possible exit points."),
	Cognitive:      extracted("cognitive", "Cognitive complexity", "cognitive.sum", "Cognitive complexity of the code unit."),
	Cyclomatic:     extracted("cyclomatic", "Cyclomatic complexity", "cyclomatic.sum", "McCabe cyclomatic complexity."),
	UOperators:     extracted("u_operators", "Distinct operators", "halstead.n1", "Halstead η1."),
	Operators:      extracted("operators", "Total operators", "halstead.N1", "Halstead N1."),
	UOperands:      extracted("u_operands", "Distinct operands", "halstead.n2", "Halstead η2."),
	Operands:       extracted("operands", "Total operands", "halstead.N2", "Halstead N2."),
	Functions:      extracted("functions", "Functions", "nom.functions", "Number of functions."),
	Closures:       extracted("closures", "Closures", "nom.closures", "Number of closures."),
	Sloc:           extracted("sloc", "Source lines", "loc.sloc", "Source lines of code."),
	Ploc:           extracted("ploc", "Physical lines", "loc.ploc", "Physical lines of code."),
	Lloc:           extracted("lloc", "Logical lines", "loc.lloc", "Logical lines of code."),
	Cloc:           extracted("cloc", "Comment lines", "loc.cloc", "Comment lines."),
	Blank:          extracted("blank", "Blank lines", "loc.blank", "Blank lines."),
	MIOriginal:     extracted("mi_original", "MI (original)", "mi.mi_original", "Original maintainability index."),
	MISEI:          extracted("mi_sei", "MI (SEI)", "mi.mi_sei", "SEI maintainability index."),
	MIVisualStudio: extracted("mi_visual_studio", "MI (Visual Studio)", "mi.mi_visual_studio", "Visual Studio maintainability index."),

	Length:                 derived("length", "Program length", "N1 + N2.", halstead.Accumulator.Length),
	EstimatedProgramLength: derived("estimated_program_length", "Estimated length", "η1·log2(η1) + η2·log2(η2).", halstead.Accumulator.EstimatedLength),
	PurityRatio:            derived("purity_ratio", "Purity ratio", "Estimated length over length.", halstead.Accumulator.PurityRatio),
	Vocabulary:             derived("vocabulary", "Vocabulary", "η1 + η2.", halstead.Accumulator.Vocabulary),
	Volume:                 derived("volume", "Volume", "Length · log2(vocabulary), in bits.", halstead.Accumulator.Volume),
	Difficulty:             derived("difficulty", "Difficulty", "(η1/2) · (N2/η2).", halstead.Accumulator.Difficulty),
	Level:                  derived("level", "Level", "1 / difficulty.", halstead.Accumulator.Level),
	Effort:                 derived("effort", "Effort", "Difficulty · volume.", halstead.Accumulator.Effort),
	Time:                   derived("time", "Time to program", "Effort / 18, in seconds.", halstead.Accumulator.Time),
	Bugs:                   derived("bugs", "Delivered bugs", "Effort^(2/3) / 3000.", halstead.Accumulator.Bugs),
}

var byName = func() map[string]Metric {
	index := make(map[string]Metric, metricCount)

	for m := range metricCount {
		index[catalog[m].MetricName] = m
	}

	return index
}()

// All returns every metric in export order.
func All() []Metric {
	all := make([]Metric, metricCount)

	for m := range metricCount {
		all[m] = m
	}

	return all
}

// Names returns every metric name in export order.
func Names() []string {
	names := make([]string, metricCount)

	for m := range metricCount {
		names[m] = catalog[m].MetricName
	}

	return names
}

// Count returns the number of tracked metrics.
func Count() int {
	return int(metricCount)
}

// Parse resolves a metric name.
func Parse(name string) (Metric, bool) {
	m, ok := byName[name]

	return m, ok
}

// Valid reports whether m is part of the catalog.
func (m Metric) Valid() bool {
	return m >= 0 && m < metricCount
}

// Name returns the machine-readable identifier.
func (m Metric) Name() string { return catalog[m].MetricName }

// DisplayName returns a human-readable name for reports.
func (m Metric) DisplayName() string { return catalog[m].MetricDisplayName }

// Description returns a short description of what is measured.
func (m Metric) Description() string { return catalog[m].MetricDescription }

// Type returns TypeExtracted or TypeDerived.
func (m Metric) Type() string { return catalog[m].MetricType }

// Path returns the record path of an extracted metric, empty for derived ones.
func (m Metric) Path() string { return catalog[m].MetricPath }

// String implements fmt.Stringer.
func (m Metric) String() string {
	if !m.Valid() {
		return "unknown"
	}

	return m.Name()
}
