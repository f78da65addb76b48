package redisstore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/codevoyager1984/math-agent/session"
)

// These tests require a running Redis instance. Set REDIS_ADDR to run
// them, e.g.:
//
//	REDIS_ADDR=localhost:6379 go test ./adapters/redis/...

func newTestStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping Redis integration tests")
	}
	store, err := New(Config{
		Addr:   addr,
		Prefix: fmt.Sprintf("mathagent-test-%d", time.Now().UnixNano()),
	})
	if err != nil {
		t.Fatalf("connect to redis: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStreamStateRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	st := &session.StreamState{
		StreamID:    "stream-1",
		Question:    "解方程 x^2 = 4",
		Chunks:      []string{"首先移项", "然后开方"},
		TotalLength: 9,
		Status:      session.StatusStreaming,
		StartTime:   time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := store.SaveStream(ctx, st); err != nil {
		t.Fatalf("SaveStream: %v", err)
	}
	defer store.DeleteStream(ctx, st.StreamID)

	got, err := store.GetStream(ctx, st.StreamID)
	if err != nil {
		t.Fatalf("GetStream: %v", err)
	}
	if got.Question != st.Question {
		t.Errorf("question = %q, want %q", got.Question, st.Question)
	}
	if len(got.Chunks) != 2 || got.Chunks[1] != "然后开方" {
		t.Errorf("chunks = %v", got.Chunks)
	}
	if got.TotalLength != 9 {
		t.Errorf("total length = %d, want 9", got.TotalLength)
	}

	if _, err := store.GetStream(ctx, "no-such-stream"); err == nil {
		t.Error("expected error for missing stream")
	}
}

func TestAppendEventAssignsSequence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	st := &session.StreamState{
		StreamID:  "stream-2",
		Status:    session.StatusStreaming,
		StartTime: time.Now().UTC(),
	}
	if err := store.SaveStream(ctx, st); err != nil {
		t.Fatalf("SaveStream: %v", err)
	}
	defer store.DeleteStream(ctx, st.StreamID)

	for i := 1; i <= 3; i++ {
		ev := session.NewEvent(st.StreamID, session.EventChunksChanged, map[string]any{
			"changed": []int{i},
		})
		if err := store.AppendEvent(ctx, ev); err != nil {
			t.Fatalf("AppendEvent: %v", err)
		}
		if ev.SequenceNum != int64(i) {
			t.Errorf("sequence = %d, want %d", ev.SequenceNum, i)
		}
	}

	// The script must also bump last_event_seq on the stored state.
	got, err := store.GetStream(ctx, st.StreamID)
	if err != nil {
		t.Fatalf("GetStream: %v", err)
	}
	if got.LastEventSeq != 3 {
		t.Errorf("last event seq = %d, want 3", got.LastEventSeq)
	}

	events, err := store.GetEvents(ctx, st.StreamID)
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	since, err := store.GetEventsSince(ctx, st.StreamID, 1)
	if err != nil {
		t.Fatalf("GetEventsSince: %v", err)
	}
	if len(since) != 2 || since[0].SequenceNum != 2 {
		t.Errorf("events since 1 = %d starting at seq %d", len(since), since[0].SequenceNum)
	}
}

func TestListStreamsByStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	streaming := &session.StreamState{StreamID: "s-a", Status: session.StatusStreaming, StartTime: time.Now().UTC()}
	completed := &session.StreamState{StreamID: "s-b", Status: session.StatusCompleted, StartTime: time.Now().UTC()}
	for _, st := range []*session.StreamState{streaming, completed} {
		if err := store.SaveStream(ctx, st); err != nil {
			t.Fatalf("SaveStream: %v", err)
		}
		defer store.DeleteStream(ctx, st.StreamID)
	}

	got, err := store.ListStreams(ctx, session.StatusStreaming)
	if err != nil {
		t.Fatalf("ListStreams: %v", err)
	}
	if len(got) != 1 || got[0].StreamID != "s-a" {
		t.Errorf("streaming streams = %v", got)
	}

	all, err := store.ListStreams(ctx, "")
	if err != nil {
		t.Fatalf("ListStreams all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d streams, want 2", len(all))
	}

	// Status transition moves the stream between index sets.
	streaming.Status = session.StatusCompleted
	if err := store.SaveStream(ctx, streaming); err != nil {
		t.Fatalf("SaveStream after transition: %v", err)
	}
	got, err = store.ListStreams(ctx, session.StatusStreaming)
	if err != nil {
		t.Fatalf("ListStreams: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no streaming streams after transition, got %d", len(got))
	}
}

func TestDeleteStreamRemovesEverything(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	st := &session.StreamState{StreamID: "s-del", Status: session.StatusStreaming, StartTime: time.Now().UTC()}
	if err := store.SaveStream(ctx, st); err != nil {
		t.Fatalf("SaveStream: %v", err)
	}
	ev := session.NewEvent(st.StreamID, session.EventStreamStarted, map[string]any{"question": "q"})
	if err := store.AppendEvent(ctx, ev); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}

	if err := store.DeleteStream(ctx, st.StreamID); err != nil {
		t.Fatalf("DeleteStream: %v", err)
	}
	if _, err := store.GetStream(ctx, st.StreamID); err == nil {
		t.Error("expected error after delete")
	}
	events, err := store.GetEvents(ctx, st.StreamID)
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events after delete, got %d", len(events))
	}
}
