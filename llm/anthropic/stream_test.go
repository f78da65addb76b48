package anthropic

import (
	"context"
	"errors"
	"testing"

	anth "github.com/anthropics/anthropic-sdk-go"

	base "github.com/codevoyager1984/math-agent/llm"
)

type fakeEventStream struct {
	events []anth.MessageStreamEventUnion
	idx    int
	err    error
	closed bool
}

func (f *fakeEventStream) Next() bool {
	if f.idx >= len(f.events) {
		return false
	}
	f.idx++
	return true
}

func (f *fakeEventStream) Current() anth.MessageStreamEventUnion { return f.events[f.idx-1] }
func (f *fakeEventStream) Err() error                            { return f.err }
func (f *fakeEventStream) Close() error                          { f.closed = true; return nil }

func textDelta(text string) anth.MessageStreamEventUnion {
	return anth.MessageStreamEventUnion{
		Type:  "content_block_delta",
		Delta: anth.MessageStreamEventUnionDelta{Type: "text_delta", Text: text},
	}
}

func TestStreamWrapperMapsEvents(t *testing.T) {
	w := &anthStreamWrapper{
		inner: &fakeEventStream{events: []anth.MessageStreamEventUnion{
			{Type: "message_start"},
			{Type: "content_block_start"},
			textDelta("设 "),
			textDelta("x=2"),
			{Type: "content_block_stop"},
			{Type: "message_stop"},
		}},
		model: "claude-test",
	}
	ctx := context.Background()

	var got string
	for {
		d, err := w.Recv(ctx)
		if err != nil {
			t.Fatalf("Recv error: %v", err)
		}
		if d.Type == base.DeltaTypeDone {
			break
		}
		if d.Type == base.DeltaTypeText {
			got += d.Text
		}
	}
	if got != "设 x=2" {
		t.Errorf("accumulated text = %q, want %q", got, "设 x=2")
	}

	if _, err := w.Recv(ctx); !errors.Is(err, base.ErrStreamClosed) {
		t.Errorf("Recv after done = %v, want ErrStreamClosed", err)
	}
}

func TestStreamWrapperEndWithoutStopIsDone(t *testing.T) {
	w := &anthStreamWrapper{
		inner: &fakeEventStream{events: []anth.MessageStreamEventUnion{textDelta("hi")}},
		model: "claude-test",
	}
	ctx := context.Background()

	d, err := w.Recv(ctx)
	if err != nil || d.Type != base.DeltaTypeText || d.Text != "hi" {
		t.Fatalf("first Recv = %+v, %v", d, err)
	}
	d, err = w.Recv(ctx)
	if err != nil {
		t.Fatalf("Recv error: %v", err)
	}
	if d.Type != base.DeltaTypeDone {
		t.Errorf("delta type = %q, want done", d.Type)
	}
}

func TestStreamWrapperSurfacesError(t *testing.T) {
	wantErr := errors.New("connection reset")
	w := &anthStreamWrapper{
		inner: &fakeEventStream{err: wantErr},
		model: "claude-test",
	}
	if _, err := w.Recv(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("Recv error = %v, want %v", err, wantErr)
	}
}

func TestStreamWrapperCloseIsIdempotent(t *testing.T) {
	inner := &fakeEventStream{}
	w := &anthStreamWrapper{inner: inner, model: "claude-test"}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !inner.closed {
		t.Error("inner stream not closed")
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
