// Package session persists per-stream render state and an append-only
// event log for answer streams.
package session

import (
	"encoding/json"
	"time"
)

// EventType represents the type of stream event.
type EventType string

const (
	EventStreamStarted   EventType = "stream_started"
	EventChunksChanged   EventType = "chunks_changed"
	EventStreamCompleted EventType = "stream_completed"
	EventStreamFailed    EventType = "stream_failed"
	EventStreamCanceled  EventType = "stream_canceled"
)

// Event records one step of an answer stream's lifecycle. Events carry
// per-stream monotonically increasing sequence numbers assigned by the
// store on append.
type Event struct {
	ID          string         `json:"id"`
	StreamID    string         `json:"stream_id"`
	Type        EventType      `json:"type"`
	Timestamp   time.Time      `json:"timestamp"`
	SequenceNum int64          `json:"sequence_num"`
	Data        map[string]any `json:"data"`
}

// StreamStartedData contains data for a stream started event.
type StreamStartedData struct {
	Question string `json:"question"`
	Model    string `json:"model,omitempty"`
}

// ChunksChangedData contains data for a chunks changed event.
type ChunksChangedData struct {
	Changed     []int `json:"changed"`
	ChunkCount  int   `json:"chunk_count"`
	TotalLength int   `json:"total_length"`
}

// StreamCompletedData contains data for a stream completed event.
type StreamCompletedData struct {
	ChunkCount  int `json:"chunk_count"`
	TotalLength int `json:"total_length"`
}

// StreamFailedData contains data for a stream failed event.
type StreamFailedData struct {
	Error string `json:"error"`
}

// NewEvent creates a new event with a generated ID.
func NewEvent(streamID string, eventType EventType, data map[string]any) *Event {
	return &Event{
		ID:        generateID(),
		StreamID:  streamID,
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// ToJSON serializes the event to JSON.
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON deserializes an event from JSON.
func FromJSON(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// generateID generates a unique ID for events.
func generateID() string {
	return time.Now().Format("20060102150405.000000")
}
