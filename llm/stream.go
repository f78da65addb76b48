package llm

import (
	"context"
	"errors"
)

// DeltaType identifies the kind of streaming event emitted by a provider.
type DeltaType string

const (
	DeltaTypeText DeltaType = "text"
	DeltaTypeDone DeltaType = "done"
)

// Delta is a provider-neutral streaming event. Math answers are plain
// text, so only text and done deltas exist.
type Delta struct {
	Type DeltaType `json:"type"`
	Text string    `json:"text,omitempty"`
	// Provider/model are optional hints for observability.
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// Stream provides a pull-based API over provider event streams.
// Implementations should return (Delta{Type: DeltaTypeDone}, nil) when
// complete.
type Stream interface {
	Recv(ctx context.Context) (Delta, error)
	Close() error
}

// ErrStreamClosed indicates Recv was called after Close or terminal event.
var ErrStreamClosed = errors.New("stream closed")
