package features

// Span is an inclusive range of source lines.
type Span struct {
	StartLine int `json:"start_line" yaml:"start_line"`
	EndLine   int `json:"end_line"   yaml:"end_line"`
}

// Contains reports whether other lies fully inside s, bounds inclusive.
func (s Span) Contains(other Span) bool {
	return other.StartLine >= s.StartLine && other.EndLine <= s.EndLine
}

// Finding is one feature occurrence reported for a file.
type Finding struct {
	Name string `json:"name" yaml:"name"`
	Span
}

// Contains reports whether any finding classified as feature lies fully
// inside unit. No findings means the feature is absent.
func Contains(findings []Finding, feature Feature, unit Span) bool {
	for _, finding := range findings {
		classified, ok := Classify(finding.Name)
		if ok && classified == feature && unit.Contains(finding.Span) {
			return true
		}
	}

	return false
}

// Set records the presence of each feature.
type Set [featureCount]bool

// Has reports whether f is present.
func (s Set) Has(f Feature) bool {
	return s[f]
}

// Presence evaluates Contains for every feature at once, classifying each
// finding a single time.
func Presence(findings []Finding, unit Span) Set {
	var present Set

	for _, finding := range findings {
		classified, ok := Classify(finding.Name)
		if ok && unit.Contains(finding.Span) {
			present[classified] = true
		}
	}

	return present
}
