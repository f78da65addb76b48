package latexfmt

import (
	"regexp"
	"strings"
)

// DefaultRules is the canonical rule order: core delimiter rewrites
// followed by the reflow heuristic.
func DefaultRules() []Rule {
	return append(CoreRules(), ReflowRule())
}

// CoreRules returns the delimiter canonicalization rules without the
// locale-specific reflow pass.
func CoreRules() []Rule {
	return []Rule{
		{Name: "bracket-display", Apply: rewriteBracketDisplay},
		{Name: "align-star", Apply: rewriteAlignStar},
		{Name: "display-env", Apply: wrapDisplayEnvs},
		{Name: "bare-bracket", Apply: rewriteBareBrackets},
		{Name: "inline-paren", Apply: rewriteInlineParens},
		{Name: "display-own-line", Apply: isolateDisplayDelims},
	}
}

var (
	bracketBlockRe = regexp.MustCompile(`(?s)\\\[(.*?)\\\]`)
	innerNewlineRe = regexp.MustCompile(`[ \t]*\n[ \t]*`)
)

// rewriteBracketDisplay turns \[ ... \] blocks, possibly spanning
// multiple lines, into $$ ... $$ with the body collapsed to one line.
func rewriteBracketDisplay(s string) string {
	return bracketBlockRe.ReplaceAllStringFunc(s, func(m string) string {
		body := m[2 : len(m)-2]
		body = innerNewlineRe.ReplaceAllString(body, " ")
		return "$$" + strings.TrimSpace(body) + "$$"
	})
}

var alignStarRe = regexp.MustCompile(`(?s)\\begin\{align\*\}(.*?)\\end\{align\*\}`)

// rewriteAlignStar converts align* environments into an aligned
// environment inside the canonical display wrapper, which typesets the
// same but needs no environment support from the renderer.
func rewriteAlignStar(s string) string {
	return alignStarRe.ReplaceAllStringFunc(s, func(m string) string {
		body := m[len(`\begin{align*}`) : len(m)-len(`\end{align*}`)]
		return `$$\begin{aligned}` + body + `\end{aligned}$$`
	})
}

// Display environments that keep their begin/end markers but get the
// canonical wrapper around them. align* is handled by the aligned rule.
var displayEnvNames = []string{
	"equation*", "equation",
	"gather*", "gather",
	"multline*", "multline",
	"align",
}

var displayEnvRes = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(displayEnvNames))
	for i, env := range displayEnvNames {
		q := regexp.QuoteMeta(env)
		out[i] = regexp.MustCompile(`(?s)\\begin\{` + q + `\}.*?\\end\{` + q + `\}`)
	}
	return out
}()

func wrapDisplayEnvs(s string) string {
	for _, re := range displayEnvRes {
		s = wrapMatches(s, re)
	}
	return s
}

// wrapMatches puts $$ around each match unless the match already sits
// behind a canonical wrapper, keeping the rule idempotent.
func wrapMatches(s string, re *regexp.Regexp) string {
	locs := re.FindAllStringIndex(s, -1)
	if locs == nil {
		return s
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		b.WriteString(s[last:loc[0]])
		m := s[loc[0]:loc[1]]
		if wrappedBefore(s, loc[0]) {
			b.WriteString(m)
		} else {
			b.WriteString("$$" + m + "$$")
		}
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

func wrappedBefore(s string, off int) bool {
	head := strings.TrimRight(s[:off], " \t\n")
	return strings.HasSuffix(head, "$$")
}

// rewriteBareBrackets replaces bracket markers that survived the block
// rewrite (unpaired strays) with the canonical display delimiter.
func rewriteBareBrackets(s string) string {
	s = strings.ReplaceAll(s, `\[`, "$$")
	s = strings.ReplaceAll(s, `\]`, "$$")
	return s
}

// rewriteInlineParens replaces \( and \) with the canonical inline
// delimiter.
func rewriteInlineParens(s string) string {
	s = strings.ReplaceAll(s, `\(`, "$")
	s = strings.ReplaceAll(s, `\)`, "$")
	return s
}

var (
	displayNoBreakBeforeRe = regexp.MustCompile(`([^\n])\$\$`)
	displayNoBreakAfterRe  = regexp.MustCompile(`\$\$([^\n])`)
)

// isolateDisplayDelims forces every canonical display delimiter onto its
// own line so the typesetting component receives the block intact.
func isolateDisplayDelims(s string) string {
	s = displayNoBreakBeforeRe.ReplaceAllString(s, "$1\n$$$$")
	s = displayNoBreakAfterRe.ReplaceAllString(s, "$$$$\n$1")
	return s
}

var (
	optionAfterCJKPunctRe = regexp.MustCompile(`([。！？；])[ \t]*([A-D]\.)`)
	optionAfterTextRe     = regexp.MustCompile(`([^\n\s])[ \t]+([A-D]\.)`)
)

// ReflowRule returns the multiple-choice reflow heuristic: a line break
// is inserted before an option marker (A. through D.) that follows
// running text, another option, or Chinese sentence-final punctuation.
// The pattern is format-specific and may misfire on ordinary prose, so
// it ships as a separable trailing rule.
func ReflowRule() Rule {
	return Rule{Name: "option-reflow", Apply: reflowOptions}
}

func reflowOptions(s string) string {
	s = optionAfterCJKPunctRe.ReplaceAllString(s, "$1\n$2")
	s = optionAfterTextRe.ReplaceAllString(s, "$1\n$2")
	return s
}
