// Package render drives the incremental chunking pipeline for one
// growing answer stream: chunk the accumulated text, reconcile against
// the previous pass, and normalize whatever changed for handoff to the
// math-typesetting consumer.
package render

import (
	"time"

	"github.com/codevoyager1984/math-agent/chunk"
	"github.com/codevoyager1984/math-agent/latexfmt"
	"github.com/codevoyager1984/math-agent/observability"
)

// Session carries the only state reused between passes over one stream.
// It is a plain value owned by the caller; the pipeline keeps no hidden
// state of its own, so one Session per logical stream needs no locking.
type Session struct {
	StreamID string
	// Chunks holds the raw chunk list from the previous pass.
	Chunks []string
	// Display holds the normalized form of each chunk, parallel to Chunks.
	Display []string
	// TotalLength is the length of the text Chunks was computed from.
	TotalLength int
}

// Update is the result of one pass: the full chunk lists plus the set of
// indices whose content differs from the previous pass. A renderer that
// caches by index re-renders only the Changed entries.
type Update struct {
	Chunks  []string
	Display []string
	Changed []int
}

// Config configures a Pipeline. Zero values select defaults.
type Config struct {
	LinesPerChunk int
	Normalizer    *latexfmt.Normalizer
	Hooks         *observability.Hooks
}

// Pipeline computes chunk updates for growing text. It is stateless and
// safe to share across streams; all per-stream state lives in Session.
type Pipeline struct {
	cfg Config
}

// New creates a Pipeline, filling in defaults for unset config fields.
func New(cfg Config) *Pipeline {
	if cfg.LinesPerChunk <= 0 {
		cfg.LinesPerChunk = chunk.DefaultLinesPerChunk
	}
	if cfg.Normalizer == nil {
		cfg.Normalizer = latexfmt.New()
	}
	return &Pipeline{cfg: cfg}
}

// LinesPerChunk reports the configured chunk threshold.
func (p *Pipeline) LinesPerChunk() int { return p.cfg.LinesPerChunk }

// Advance recomputes the chunk list for the grown text and updates the
// session in place. Text must grow by strict append between calls;
// shrinking or non-append mutation is unsupported, and a pass whose text
// is no longer than the previous one returns the prior result unchanged.
//
// Unchanged indices keep both their raw and normalized values by
// identity, so a consumer keying cached output by index can skip them.
func (p *Pipeline) Advance(s *Session, text string) Update {
	if len(text) <= s.TotalLength {
		// A session restored from a store carries Chunks but not the
		// normalized cache; rebuild it so Display stays parallel.
		if len(s.Display) != len(s.Chunks) {
			display := make([]string, len(s.Chunks))
			for i, c := range s.Chunks {
				display[i] = p.cfg.Normalizer.Normalize(c)
			}
			s.Display = display
		}
		return Update{Chunks: s.Chunks, Display: s.Display}
	}

	start := time.Now()
	next := chunk.Split(text, p.cfg.LinesPerChunk)
	merged, changed := chunk.Reconcile(s.Chunks, next)

	display := make([]string, len(merged))
	ci := 0
	for i := range merged {
		if ci < len(changed) && changed[ci] == i {
			display[i] = p.cfg.Normalizer.Normalize(merged[i])
			ci++
		} else if i < len(s.Display) {
			display[i] = s.Display[i]
		} else {
			// Session restored without its normalized cache.
			display[i] = p.cfg.Normalizer.Normalize(merged[i])
		}
	}

	s.Chunks = merged
	s.Display = display
	s.TotalLength = len(text)

	p.cfg.Hooks.SafeRenderPass(observability.RenderPass{
		StreamID: s.StreamID,
		TextLen:  len(text),
		Chunks:   len(merged),
		Changed:  len(changed),
		Latency:  time.Since(start),
	})
	return Update{Chunks: merged, Display: display, Changed: changed}
}
