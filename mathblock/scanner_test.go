package mathblock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanLine_DollarToggle(t *testing.T) {
	s := ScanLine(State{}, "$")
	assert.Equal(t, KindDollar, s.Kind)
	assert.True(t, s.InBlock())

	s = ScanLine(s, "x^2 + y^2")
	assert.Equal(t, KindDollar, s.Kind)

	s = ScanLine(s, "  $  ")
	assert.Equal(t, KindNone, s.Kind)
	assert.False(t, s.InBlock())
}

func TestScanLine_DoubleDollar(t *testing.T) {
	// Odd marker count toggles, even count is a no-op.
	s := ScanLine(State{}, "$$")
	assert.Equal(t, KindDoubleDollar, s.Kind)

	s = ScanLine(s, "\\frac{a}{b}")
	assert.Equal(t, KindDoubleDollar, s.Kind)

	s = ScanLine(s, "$$")
	assert.Equal(t, KindNone, s.Kind)

	s = ScanLine(State{}, "$$x^2$$")
	assert.Equal(t, KindNone, s.Kind)
}

func TestScanLine_Bracket(t *testing.T) {
	s := ScanLine(State{}, "intro \\[")
	assert.Equal(t, KindBracket, s.Kind)

	s = ScanLine(s, "x^2")
	assert.Equal(t, KindBracket, s.Kind)

	s = ScanLine(s, "\\] outro")
	assert.Equal(t, KindNone, s.Kind)
}

func TestScanLine_BracketOneLine(t *testing.T) {
	// A complete \[ ... \] pair on one line never opens a block.
	s := ScanLine(State{}, "before \\[ x^2 \\] after")
	assert.Equal(t, KindNone, s.Kind)
}

func TestScanLine_BracketCloseAndReopen(t *testing.T) {
	s := State{Kind: KindBracket}
	s = ScanLine(s, "x \\] prose \\[")
	assert.Equal(t, KindBracket, s.Kind)
}

func TestScanLine_Environment(t *testing.T) {
	s := ScanLine(State{}, "\\begin{align*}")
	assert.Equal(t, KindEnvironment, s.Kind)
	assert.Equal(t, "align*", s.Env)

	// Mismatched end marker is ignored.
	s = ScanLine(s, "\\end{equation}")
	assert.Equal(t, KindEnvironment, s.Kind)

	s = ScanLine(s, "\\end{align*}")
	assert.Equal(t, KindNone, s.Kind)
}

func TestScanLine_EnvironmentOneLine(t *testing.T) {
	s := ScanLine(State{}, "\\begin{cases} a & b \\end{cases}")
	assert.Equal(t, KindNone, s.Kind)
}

func TestScanLine_FirstOpenedWins(t *testing.T) {
	// Other delimiter kinds are ignored while a block is open.
	s := ScanLine(State{}, "$$")
	s = ScanLine(s, "\\[")
	assert.Equal(t, KindDoubleDollar, s.Kind)

	s = ScanLine(s, "\\begin{align}")
	assert.Equal(t, KindDoubleDollar, s.Kind)

	s = ScanLine(s, "$$")
	assert.Equal(t, KindNone, s.Kind)
}

func TestScan_ReplayFromStart(t *testing.T) {
	assert.False(t, Scan("plain\ntext").InBlock())
	assert.True(t, Scan("para\n\\[\nx^2").InBlock())
	assert.False(t, Scan("para\n\\[\nx^2\n\\]").InBlock())
}
