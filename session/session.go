package session

import (
	"context"
	"time"
)

// Status represents the lifecycle phase of an answer stream.
type Status string

const (
	StatusStreaming Status = "streaming"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// StreamState is the carried-forward render state of one answer stream:
// the last computed chunk list and the total text length it was computed
// from, plus lifecycle bookkeeping.
type StreamState struct {
	StreamID     string    `json:"stream_id"`
	Question     string    `json:"question"`
	Chunks       []string  `json:"chunks"`
	TotalLength  int       `json:"total_length"`
	Status       Status    `json:"status"`
	Error        string    `json:"error,omitempty"`
	StartTime    time.Time `json:"start_time"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastEventSeq int64     `json:"last_event_seq"`
}

// Store defines the interface for persisting stream state and the
// per-stream event log.
type Store interface {
	// SaveStream saves the current state of an answer stream.
	SaveStream(ctx context.Context, st *StreamState) error

	// GetStream retrieves the current state of an answer stream.
	GetStream(ctx context.Context, streamID string) (*StreamState, error)

	// AppendEvent appends an event to the stream's event log, assigning
	// the next sequence number.
	AppendEvent(ctx context.Context, event *Event) error

	// GetEvents retrieves all events for a stream.
	GetEvents(ctx context.Context, streamID string) ([]*Event, error)

	// GetEventsSince retrieves events after a specific sequence number,
	// letting a reconnecting consumer catch up.
	GetEventsSince(ctx context.Context, streamID string, since int64) ([]*Event, error)

	// ListStreams lists all streams, optionally filtered by status.
	ListStreams(ctx context.Context, status Status) ([]*StreamState, error)

	// DeleteStream removes stream state and events.
	DeleteStream(ctx context.Context, streamID string) error
}

// IsTerminal returns true if the status is terminal (the stream is done).
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCanceled
}

// IsStreaming returns true while the answer is still growing.
func (st *StreamState) IsStreaming() bool {
	return st.Status == StatusStreaming
}

// Duration returns how long the stream has been (or was) active.
func (st *StreamState) Duration() time.Duration {
	if st.Status.IsTerminal() && !st.UpdatedAt.IsZero() {
		return st.UpdatedAt.Sub(st.StartTime)
	}
	return time.Since(st.StartTime)
}
