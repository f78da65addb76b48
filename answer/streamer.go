// Package answer streams model-generated math answers through the
// incremental render pipeline, emitting chunk updates as the text grows
// and persisting per-stream state when a session store is configured.
package answer

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/codevoyager1984/math-agent/llm"
	"github.com/codevoyager1984/math-agent/observability"
	"github.com/codevoyager1984/math-agent/render"
	"github.com/codevoyager1984/math-agent/session"
)

// Config configures a Streamer.
type Config struct {
	// SystemPrompt is sent with every question.
	SystemPrompt string
	// ModelOverride selects a model other than the client default.
	ModelOverride string
	// Render configures the chunking pipeline.
	Render render.Config
	// Store persists stream state and events when set.
	Store session.Store
	Hooks *observability.Hooks
}

// Streamer answers questions by streaming model output through the
// render pipeline. It is safe for concurrent use; per-stream state is
// local to each call.
type Streamer struct {
	model    llm.Client
	pipeline *render.Pipeline
	cfg      Config
}

// NewStreamer constructs a Streamer.
func NewStreamer(model llm.Client, cfg Config) *Streamer {
	if cfg.Render.Hooks == nil {
		cfg.Render.Hooks = cfg.Hooks
	}
	return &Streamer{
		model:    model,
		pipeline: render.New(cfg.Render),
		cfg:      cfg,
	}
}

var streamIDSeq atomic.Int64

// NewStreamID generates a time-ordered stream identifier.
func NewStreamID() string {
	return fmt.Sprintf("stream-%s-%d",
		time.Now().UTC().Format("20060102150405"), streamIDSeq.Add(1))
}

// Stream requests an answer for question and sends a render update on
// out for every pass that changed at least one chunk, plus a final
// update when the stream completes. The channel is closed before
// Stream returns.
func (s *Streamer) Stream(ctx context.Context, streamID, question string, out chan<- render.Update) error {
	defer close(out)

	req := &llm.ChatRequest{
		Messages:     []llm.Message{{Role: "user", Content: question}},
		Model:        s.cfg.ModelOverride,
		SystemPrompt: s.cfg.SystemPrompt,
	}

	sess := &render.Session{StreamID: streamID}
	state := &session.StreamState{
		StreamID:  streamID,
		Question:  question,
		Status:    session.StatusStreaming,
		StartTime: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	s.saveState(ctx, state)
	s.appendEvent(ctx, session.NewEvent(streamID, session.EventStreamStarted, map[string]any{
		"question": question,
		"model":    s.model.Model(),
	}))

	text, err := s.consume(ctx, req, func(accumulated string) {
		upd := s.pipeline.Advance(sess, accumulated)
		if len(upd.Changed) == 0 {
			return
		}
		out <- upd
		state.Chunks = sess.Chunks
		state.TotalLength = sess.TotalLength
		state.UpdatedAt = time.Now().UTC()
		s.saveState(ctx, state)
		s.appendEvent(ctx, session.NewEvent(streamID, session.EventChunksChanged, map[string]any{
			"changed":      upd.Changed,
			"chunk_count":  len(upd.Chunks),
			"total_length": sess.TotalLength,
		}))
	})
	if err != nil {
		state.Status = session.StatusFailed
		if ctx.Err() != nil {
			state.Status = session.StatusCanceled
		}
		state.Error = err.Error()
		state.UpdatedAt = time.Now().UTC()
		s.saveState(ctx, state)
		s.appendEvent(ctx, session.NewEvent(streamID, failureEventType(state.Status), map[string]any{
			"error": err.Error(),
		}))
		return err
	}

	// Final pass covers any tail the last delta left unemitted, then a
	// closing update so the consumer always sees the finished lists.
	final := s.pipeline.Advance(sess, text)
	out <- final

	state.Chunks = sess.Chunks
	state.TotalLength = sess.TotalLength
	state.Status = session.StatusCompleted
	state.UpdatedAt = time.Now().UTC()
	s.saveState(ctx, state)
	s.appendEvent(ctx, session.NewEvent(streamID, session.EventStreamCompleted, map[string]any{
		"chunk_count":  len(final.Chunks),
		"total_length": state.TotalLength,
	}))
	return nil
}

// Answer requests a complete answer without streaming and runs a single
// render pass over it.
func (s *Streamer) Answer(ctx context.Context, question string) (render.Update, error) {
	req := &llm.ChatRequest{
		Messages:     []llm.Message{{Role: "user", Content: question}},
		Model:        s.cfg.ModelOverride,
		SystemPrompt: s.cfg.SystemPrompt,
	}
	resp, err := s.model.Chat(ctx, req)
	if err != nil {
		return render.Update{}, fmt.Errorf("llm call failed: %w", err)
	}
	sess := &render.Session{StreamID: NewStreamID()}
	return s.pipeline.Advance(sess, resp.Content), nil
}

// consume drains the provider stream, invoking onGrow after each text
// delta with the accumulated answer so far. Returns the full text.
func (s *Streamer) consume(ctx context.Context, req *llm.ChatRequest, onGrow func(string)) (string, error) {
	stream, err := s.model.ChatStream(ctx, req)
	if err != nil {
		return s.consumeLegacy(ctx, req, onGrow)
	}
	defer func() { _ = stream.Close() }()

	var buffer string
	for {
		delta, derr := stream.Recv(ctx)
		if derr != nil {
			return buffer, fmt.Errorf("stream recv: %w", derr)
		}
		switch delta.Type {
		case llm.DeltaTypeText:
			if delta.Text != "" {
				buffer += delta.Text
				onGrow(buffer)
			}
		case llm.DeltaTypeDone:
			return buffer, nil
		}
	}
}

// consumeLegacy falls back to the channel-based Stream API for clients
// without delta streaming.
func (s *Streamer) consumeLegacy(ctx context.Context, req *llm.ChatRequest, onGrow func(string)) (string, error) {
	inner := make(chan *llm.Response, 16)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.model.Stream(ctx, req, inner)
		close(inner)
	}()

	var buffer string
	for chunk := range inner {
		if chunk == nil || chunk.Content == "" {
			continue
		}
		buffer += chunk.Content
		onGrow(buffer)
	}
	if err := <-errCh; err != nil {
		return buffer, fmt.Errorf("stream: %w", err)
	}
	return buffer, nil
}

func (s *Streamer) saveState(ctx context.Context, st *session.StreamState) {
	if s.cfg.Store == nil {
		return
	}
	if err := s.cfg.Store.SaveStream(ctx, st); err != nil {
		s.cfg.Hooks.SafeLog(ctx, "warn", "save stream state failed", map[string]any{
			"stream_id": st.StreamID,
			"error":     err.Error(),
		})
	}
}

func (s *Streamer) appendEvent(ctx context.Context, ev *session.Event) {
	if s.cfg.Store == nil {
		return
	}
	if err := s.cfg.Store.AppendEvent(ctx, ev); err != nil {
		s.cfg.Hooks.SafeLog(ctx, "warn", "append stream event failed", map[string]any{
			"stream_id": ev.StreamID,
			"type":      string(ev.Type),
			"error":     err.Error(),
		})
	}
}

func failureEventType(status session.Status) session.EventType {
	if status == session.StatusCanceled {
		return session.EventStreamCanceled
	}
	return session.EventStreamFailed
}
