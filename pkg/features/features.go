// Package features maps raw syntax-tree token names to the language features
// they represent and decides whether a feature occurs inside a code span.
package features

import "fmt"

// Feature identifies one language feature.
type Feature int

// Tracked features, in export order.
const (
	Lifetimes Feature = iota
	Macros
	TraitBounds
	Async
	Unsafe
	Traits
	Closures
	LineComments

	featureCount
)

// absencePrefix prefixes the bucket name of a feature's absence bucket.
const absencePrefix = "no_"

type definition struct {
	name   string
	tokens []string
}

var table = [featureCount]definition{
	Lifetimes: {name: "lifetimes", tokens: []string{"for_lifetimes", "for_lifetimes_repeat1", "lifetime"}},
	Macros: {name: "macros", tokens: []string{
		"macro_definition", "macro_rules!", "macro_rule", "macro_definition_repeat1", "macro_invocation",
	}},
	TraitBounds: {name: "trait_bounds", tokens: []string{
		"where_clause", "where_predicate", "where_clause_repeat1", "higher_ranked_trait_bound",
		"trait_bounds_repeat1", "removed_trait_bound", "where", "trait_bounds",
	}},
	Async:        {name: "async", tokens: []string{"async_block", "await", "await_expression", "async"}},
	Unsafe:       {name: "unsafe", tokens: []string{"unsafe_block", "unsafe"}},
	Traits:       {name: "traits", tokens: []string{"trait", "trait_item"}},
	Closures:     {name: "closures", tokens: []string{"closure_expression", "closure_parameters"}},
	LineComments: {name: "line_comments", tokens: []string{"line_comment"}},
}

var (
	byToken = buildTokenIndex()
	byName  = buildNameIndex()
)

// buildTokenIndex panics when a token is claimed by two features, since
// classification would otherwise depend on table order.
func buildTokenIndex() map[string]Feature {
	index := make(map[string]Feature)

	for f := range featureCount {
		for _, token := range table[f].tokens {
			if prev, dup := index[token]; dup {
				panic(fmt.Sprintf("features: token %q claimed by %s and %s", token, prev, f))
			}

			index[token] = f
		}
	}

	return index
}

func buildNameIndex() map[string]Feature {
	index := make(map[string]Feature, featureCount)

	for f := range featureCount {
		index[table[f].name] = f
	}

	return index
}

// Classify returns the feature a token represents, or false when the token
// belongs to no feature. Matching is exact.
func Classify(token string) (Feature, bool) {
	f, ok := byToken[token]

	return f, ok
}

// All returns every feature in export order.
func All() []Feature {
	all := make([]Feature, featureCount)

	for f := range featureCount {
		all[f] = f
	}

	return all
}

// Names returns every feature name in export order.
func Names() []string {
	names := make([]string, featureCount)

	for f := range featureCount {
		names[f] = table[f].name
	}

	return names
}

// Count returns the number of tracked features.
func Count() int {
	return int(featureCount)
}

// Parse resolves a feature name.
func Parse(name string) (Feature, bool) {
	f, ok := byName[name]

	return f, ok
}

// Valid reports whether f is part of the table.
func (f Feature) Valid() bool {
	return f >= 0 && f < featureCount
}

// Name returns the feature name, which is also its presence bucket name.
func (f Feature) Name() string {
	return table[f].name
}

// AbsenceName returns the bucket name used for code without the feature.
func (f Feature) AbsenceName() string {
	return absencePrefix + table[f].name
}

// Tokens returns a copy of the feature's token set.
func (f Feature) Tokens() []string {
	return append([]string(nil), table[f].tokens...)
}

// String implements fmt.Stringer.
func (f Feature) String() string {
	if !f.Valid() {
		return "unknown"
	}

	return table[f].name
}
