package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// InMemoryStore is an in-memory implementation of Store, suitable for
// single-process hosts and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	streams map[string]*StreamState
	events  map[string][]*Event
}

// NewInMemoryStore creates a new in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		streams: make(map[string]*StreamState),
		events:  make(map[string][]*Event),
	}
}

// SaveStream implements Store.
func (s *InMemoryStore) SaveStream(ctx context.Context, st *StreamState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy to shield the stored value from caller mutation; the chunk
	// slice is replaced wholesale by the pipeline, never edited in place.
	stCopy := *st
	stCopy.Chunks = append([]string(nil), st.Chunks...)
	s.streams[st.StreamID] = &stCopy
	return nil
}

// GetStream implements Store.
func (s *InMemoryStore) GetStream(ctx context.Context, streamID string) (*StreamState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.streams[streamID]
	if !exists {
		return nil, fmt.Errorf("stream %s not found", streamID)
	}
	stCopy := *st
	stCopy.Chunks = append([]string(nil), st.Chunks...)
	return &stCopy, nil
}

// AppendEvent implements Store.
func (s *InMemoryStore) AppendEvent(ctx context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.events[event.StreamID]
	event.SequenceNum = int64(len(events)) + 1

	eventCopy := *event
	s.events[event.StreamID] = append(events, &eventCopy)

	if st, ok := s.streams[event.StreamID]; ok {
		st.LastEventSeq = event.SequenceNum
	}
	return nil
}

// GetEvents implements Store.
func (s *InMemoryStore) GetEvents(ctx context.Context, streamID string) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, exists := s.events[streamID]
	if !exists {
		return []*Event{}, nil
	}
	result := make([]*Event, len(events))
	for i, event := range events {
		eventCopy := *event
		result[i] = &eventCopy
	}
	return result, nil
}

// GetEventsSince implements Store.
func (s *InMemoryStore) GetEventsSince(ctx context.Context, streamID string, since int64) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, exists := s.events[streamID]
	if !exists {
		return []*Event{}, nil
	}
	result := make([]*Event, 0)
	for _, event := range events {
		if event.SequenceNum > since {
			eventCopy := *event
			result = append(result, &eventCopy)
		}
	}
	return result, nil
}

// GetEventsWindow returns up to limit events strictly after 'since', and
// the next sequence to request (the last returned event's SequenceNum or
// 'since' if none). Pagination helper for catch-up consumers.
func (s *InMemoryStore) GetEventsWindow(ctx context.Context, streamID string, since int64, limit int) ([]*Event, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, exists := s.events[streamID]
	if !exists || limit <= 0 {
		return []*Event{}, since, nil
	}
	window := make([]*Event, 0, limit)
	next := since
	for _, ev := range events {
		if ev.SequenceNum > since {
			evCopy := *ev
			window = append(window, &evCopy)
			next = ev.SequenceNum
			if len(window) >= limit {
				break
			}
		}
	}
	return window, next, nil
}

// ListStreams implements Store.
func (s *InMemoryStore) ListStreams(ctx context.Context, status Status) ([]*StreamState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*StreamState, 0)
	for _, st := range s.streams {
		if status == "" || st.Status == status {
			stCopy := *st
			stCopy.Chunks = append([]string(nil), st.Chunks...)
			result = append(result, &stCopy)
		}
	}

	// Stable ordering by StartTime then StreamID.
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].StreamID < result[j].StreamID
		}
		return result[i].StartTime.Before(result[j].StartTime)
	})
	return result, nil
}

// DeleteStream implements Store.
func (s *InMemoryStore) DeleteStream(ctx context.Context, streamID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.streams, streamID)
	delete(s.events, streamID)
	return nil
}
