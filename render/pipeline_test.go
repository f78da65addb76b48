package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codevoyager1984/math-agent/latexfmt"
	"github.com/codevoyager1984/math-agent/observability"
)

func TestPipeline_GrowingTextReusesSettledChunks(t *testing.T) {
	p := New(Config{LinesPerChunk: 2})
	s := &Session{}

	var text string
	lines := []string{"l1", "l2", "l3", "l4", "l5", "l6", "l7"}
	var prev []string
	for i, line := range lines {
		if i > 0 {
			text += "\n"
		}
		text += line
		upd := p.Advance(s, text)
		require.Equal(t, text, strings.Join(upd.Chunks, "\n"))

		// Settled chunks from the previous pass survive untouched.
		for j := 0; j < len(prev)-1 && j < len(upd.Chunks)-1; j++ {
			assert.Equal(t, prev[j], upd.Chunks[j])
			assert.NotContains(t, upd.Changed, j)
		}
		prev = upd.Chunks
	}
}

func TestPipeline_ShortCircuitOnNonAppend(t *testing.T) {
	p := New(Config{LinesPerChunk: 2})
	s := &Session{}

	first := p.Advance(s, "a\nb\nc")
	again := p.Advance(s, "a\nb")
	assert.Equal(t, first.Chunks, again.Chunks)
	assert.Empty(t, again.Changed)

	same := p.Advance(s, "a\nb\nc")
	assert.Equal(t, first.Chunks, same.Chunks)
	assert.Empty(t, same.Changed)
}

func TestPipeline_ShortCircuitRebuildsDisplayAfterRestore(t *testing.T) {
	p := New(Config{LinesPerChunk: 2})
	text := "para\n\\(x\\)\nmore"

	// A session loaded from a store has chunks and length but no
	// normalized cache.
	restored := &Session{
		Chunks:      []string{text},
		TotalLength: len(text),
	}
	upd := p.Advance(restored, text)
	require.Len(t, upd.Display, len(upd.Chunks))
	assert.Contains(t, upd.Display[0], "$x$")
	assert.Equal(t, upd.Display, restored.Display)
}

func TestPipeline_DisplayIsNormalized(t *testing.T) {
	p := New(Config{LinesPerChunk: 10})
	s := &Session{}

	upd := p.Advance(s, "para\n\\[\nx^2\n\\]\nmore")
	require.Len(t, upd.Display, 1)
	assert.Contains(t, upd.Display[0], "$$")
	assert.NotContains(t, upd.Display[0], `\[`)
	// Raw chunks keep the original delimiters.
	assert.Contains(t, upd.Chunks[0], `\[`)
}

func TestPipeline_NormalizesOnlyChangedChunks(t *testing.T) {
	calls := 0
	n := latexfmt.NewWithRules([]latexfmt.Rule{{
		Name:  "count",
		Apply: func(s string) string { calls++; return s },
	}})
	p := New(Config{LinesPerChunk: 2, Normalizer: n})
	s := &Session{}

	upd := p.Advance(s, "l1\nl2\nl3\nl4\nl5")
	require.Len(t, upd.Chunks, 3)
	require.Equal(t, 3, calls)

	calls = 0
	upd = p.Advance(s, "l1\nl2\nl3\nl4\nl5\nl6\nl7")
	// Chunks 0 and 1 are stable; only the tail is renormalized.
	assert.Equal(t, []int{2, 3}, upd.Changed)
	assert.Equal(t, 2, calls)
}

func TestPipeline_RenderPassHook(t *testing.T) {
	var got observability.RenderPass
	hooks := &observability.Hooks{OnRenderPass: func(p observability.RenderPass) { got = p }}
	p := New(Config{LinesPerChunk: 2, Hooks: hooks})

	s := &Session{StreamID: "stream-1"}
	p.Advance(s, "a\nb\nc")

	assert.Equal(t, "stream-1", got.StreamID)
	assert.Equal(t, 5, got.TextLen)
	assert.Equal(t, 2, got.Chunks)
	assert.Equal(t, 2, got.Changed)
}

func TestPipeline_Defaults(t *testing.T) {
	p := New(Config{})
	assert.Greater(t, p.LinesPerChunk(), 0)
}
