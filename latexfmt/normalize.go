// Package latexfmt canonicalizes the LaTeX math delimiters found in
// model-generated answers. All recognized delimiter styles are rewritten
// into a single canonical form ($$ on its own line for display math, $
// for inline math) so the downstream typesetting component only ever
// sees one dialect.
//
// Normalization is an explicit ordered list of named rewrite rules
// rather than a chain of ad hoc substitutions; each rule can be tested
// on its own and the set can be customized per caller.
package latexfmt

import "strings"

// A Rule is one named rewrite pass over a text fragment.
type Rule struct {
	Name  string
	Apply func(string) string
}

// Normalizer applies an ordered rule list to answer fragments.
type Normalizer struct {
	rules []Rule
}

// New returns a Normalizer with the default rule set, including the
// multiple-choice reflow heuristic.
func New() *Normalizer {
	return &Normalizer{rules: DefaultRules()}
}

// NewWithRules returns a Normalizer applying exactly the given rules in
// order.
func NewWithRules(rules []Rule) *Normalizer {
	return &Normalizer{rules: append([]Rule(nil), rules...)}
}

// Rules returns a copy of the rule list in application order.
func (n *Normalizer) Rules() []Rule {
	return append([]Rule(nil), n.rules...)
}

// Normalize canonicalizes one fragment. Fragments that look like a math
// block split across chunk boundaries pass through untouched so that an
// unassembled block is never corrupted mid-stream.
func (n *Normalizer) Normalize(fragment string) string {
	if openFragment(fragment) {
		return fragment
	}
	for _, r := range n.rules {
		fragment = r.Apply(fragment)
	}
	return fragment
}

// Normalize applies the default rule set. See Normalizer.Normalize.
func Normalize(fragment string) string {
	return defaultNormalizer.Normalize(fragment)
}

var defaultNormalizer = New()

// openFragment reports whether the fragment is a bare bracket marker, or
// opens a bracket block it never closes, or closes one it never opened.
// Such fragments belong to a math block split across chunks and must be
// returned unmodified.
func openFragment(fragment string) bool {
	f := strings.TrimSpace(fragment)
	if f == `\[` || f == `\]` {
		return true
	}
	if strings.HasPrefix(f, `\[`) && !strings.Contains(f, `\]`) {
		return true
	}
	if strings.HasSuffix(f, `\]`) && !strings.Contains(f, `\[`) {
		return true
	}
	return false
}
