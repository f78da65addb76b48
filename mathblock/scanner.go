// Package mathblock tracks whether a line-by-line scan of answer text
// currently sits inside an unterminated LaTeX math region. The chunker
// consults this state so it never places a chunk boundary inside a
// formula that is still streaming in.
package mathblock

import (
	"regexp"
	"strings"
)

// Kind identifies the delimiter style of the currently open math block.
type Kind int

const (
	KindNone Kind = iota
	KindDollar
	KindDoubleDollar
	KindBracket
	KindEnvironment
)

// State is the scan state after some prefix of lines. The zero value is
// the correct state at the start of text.
type State struct {
	Kind Kind
	// Env holds the environment name when Kind is KindEnvironment.
	Env string
}

// InBlock reports whether the scan is inside an open math block.
func (s State) InBlock() bool { return s.Kind != KindNone }

var envBeginRe = regexp.MustCompile(`\\begin\{([a-zA-Z]+\*?)\}`)

// ScanLine consumes one line and returns the state after it. It is pure:
// the receiver state is not mutated.
//
// Only one block kind is tracked at a time: whichever delimiter opened
// first wins, and delimiters of other kinds are ignored until the open
// block closes. Mismatched \end markers are ignored.
func ScanLine(s State, line string) State {
	s = scanDollar(s, line)
	s = scanDoubleDollar(s, line)
	s = scanBracket(s, line)
	s = scanEnvironment(s, line)
	return s
}

// Scan replays ScanLine over every line of text from the zero state.
func Scan(text string) State {
	var s State
	for _, line := range strings.Split(text, "\n") {
		s = ScanLine(s, line)
	}
	return s
}

// scanDollar toggles single-dollar display math on a line that is
// exactly "$" after trimming.
func scanDollar(s State, line string) State {
	if strings.TrimSpace(line) != "$" {
		return s
	}
	switch s.Kind {
	case KindNone:
		return State{Kind: KindDollar}
	case KindDollar:
		return State{}
	}
	return s
}

// scanDoubleDollar toggles $$ math when the line carries an odd number
// of $$ markers. An even count opens and closes on the same line.
func scanDoubleDollar(s State, line string) State {
	if strings.Count(line, "$$")%2 == 0 {
		return s
	}
	switch s.Kind {
	case KindNone:
		return State{Kind: KindDoubleDollar}
	case KindDoubleDollar:
		return State{}
	}
	return s
}

// scanBracket handles \[ ... \] display blocks. A line may open, close,
// or do both; the positions of the markers decide the net effect.
func scanBracket(s State, line string) State {
	if s.Kind == KindBracket {
		closeAt := strings.LastIndex(line, `\]`)
		if closeAt < 0 {
			return s
		}
		if openAt := strings.LastIndex(line, `\[`); openAt > closeAt {
			// Closed and reopened on the same line.
			return State{Kind: KindBracket}
		}
		return State{}
	}
	if s.Kind != KindNone {
		return s
	}
	openAt := strings.LastIndex(line, `\[`)
	if openAt < 0 {
		return s
	}
	if closeAt := strings.LastIndex(line, `\]`); closeAt > openAt {
		// Complete \[ ... \] on one line leaves the state untouched.
		return s
	}
	return State{Kind: KindBracket}
}

// scanEnvironment handles \begin{name} ... \end{name}. Only the end
// marker matching the open environment closes it.
func scanEnvironment(s State, line string) State {
	if s.Kind == KindEnvironment {
		if strings.Contains(line, `\end{`+s.Env+`}`) {
			return State{}
		}
		return s
	}
	if s.Kind != KindNone {
		return s
	}
	m := envBeginRe.FindStringSubmatch(line)
	if m == nil {
		return s
	}
	name := m[1]
	if strings.Contains(line, `\end{`+name+`}`) {
		// Opened and closed on the same line.
		return s
	}
	return State{Kind: KindEnvironment, Env: name}
}
