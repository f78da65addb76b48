package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/codevoyager1984/math-agent/session"
)

// Key layout:
//
//	{prefix}:stream:{id}:state   - JSON StreamState
//	{prefix}:stream:{id}:events  - ZSET of event JSON, score = sequence
//	{prefix}:stream:{id}:seq     - counter for event sequence numbers
//	{prefix}:streams:{status}    - SET of stream IDs per status

func (s *Store) stateKey(streamID string) string {
	return fmt.Sprintf("%s:stream:%s:state", s.prefix, streamID)
}

func (s *Store) eventsKey(streamID string) string {
	return fmt.Sprintf("%s:stream:%s:events", s.prefix, streamID)
}

func (s *Store) seqKey(streamID string) string {
	return fmt.Sprintf("%s:stream:%s:seq", s.prefix, streamID)
}

func (s *Store) statusKey(status session.Status) string {
	return fmt.Sprintf("%s:streams:%s", s.prefix, status)
}

var allStatuses = []session.Status{
	session.StatusStreaming,
	session.StatusCompleted,
	session.StatusFailed,
	session.StatusCanceled,
}

// SaveStream saves stream state and maintains the per-status index sets.
func (s *Store) SaveStream(ctx context.Context, st *session.StreamState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal stream state: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.stateKey(st.StreamID), data, 0)
	for _, status := range allStatuses {
		if status == st.Status {
			pipe.SAdd(ctx, s.statusKey(status), st.StreamID)
		} else {
			pipe.SRem(ctx, s.statusKey(status), st.StreamID)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save stream state: %w", err)
	}
	return nil
}

// GetStream retrieves stream state by ID. Returns an error if the
// stream does not exist.
func (s *Store) GetStream(ctx context.Context, streamID string) (*session.StreamState, error) {
	data, err := s.rdb.Get(ctx, s.stateKey(streamID)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("stream not found: %s", streamID)
	}
	if err != nil {
		return nil, fmt.Errorf("get stream state: %w", err)
	}

	var st session.StreamState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unmarshal stream state: %w", err)
	}
	return &st, nil
}

// AppendEvent appends an event to the stream's event log. The sequence
// number is assigned atomically server-side and written back into the
// passed event.
func (s *Store) AppendEvent(ctx context.Context, event *session.Event) error {
	data, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	keys := []string{
		s.seqKey(event.StreamID),
		s.eventsKey(event.StreamID),
		s.stateKey(event.StreamID),
	}
	args := []interface{}{string(data)}

	res, err := s.rdb.EvalSha(ctx, s.appendSHA, keys, args...).Result()
	if err != nil && strings.Contains(err.Error(), "NOSCRIPT") {
		res, err = s.rdb.Eval(ctx, luaAppendEvent, keys, args...).Result()
	}
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	seq, ok := res.(int64)
	if !ok {
		return fmt.Errorf("append event: unexpected script result %T", res)
	}
	event.SequenceNum = seq
	return nil
}

// GetEvents retrieves all events for a stream, ordered by sequence.
func (s *Store) GetEvents(ctx context.Context, streamID string) ([]*session.Event, error) {
	return s.rangeEvents(ctx, streamID, "-inf")
}

// GetEventsSince retrieves events with sequence numbers strictly greater
// than since.
func (s *Store) GetEventsSince(ctx context.Context, streamID string, since int64) ([]*session.Event, error) {
	return s.rangeEvents(ctx, streamID, fmt.Sprintf("(%d", since))
}

func (s *Store) rangeEvents(ctx context.Context, streamID, min string) ([]*session.Event, error) {
	raw, err := s.rdb.ZRangeByScore(ctx, s.eventsKey(streamID), &redis.ZRangeBy{
		Min: min,
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}

	events := make([]*session.Event, 0, len(raw))
	for _, item := range raw {
		event, err := session.FromJSON([]byte(item))
		if err != nil {
			return nil, fmt.Errorf("unmarshal event: %w", err)
		}
		events = append(events, event)
	}
	return events, nil
}

// ListStreams lists streams, optionally filtered by status. An empty
// status lists all streams.
func (s *Store) ListStreams(ctx context.Context, status session.Status) ([]*session.StreamState, error) {
	var ids []string
	if status != "" {
		members, err := s.rdb.SMembers(ctx, s.statusKey(status)).Result()
		if err != nil {
			return nil, fmt.Errorf("list streams: %w", err)
		}
		ids = members
	} else {
		for _, st := range allStatuses {
			members, err := s.rdb.SMembers(ctx, s.statusKey(st)).Result()
			if err != nil {
				return nil, fmt.Errorf("list streams: %w", err)
			}
			ids = append(ids, members...)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.stateKey(id)
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list streams: %w", err)
	}

	streams := make([]*session.StreamState, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			// index member without state key; skip
			continue
		}
		var st session.StreamState
		if err := json.Unmarshal([]byte(str), &st); err != nil {
			return nil, fmt.Errorf("unmarshal stream state: %w", err)
		}
		streams = append(streams, &st)
	}
	return streams, nil
}

// DeleteStream removes stream state, its event log, its sequence
// counter, and its index memberships.
func (s *Store) DeleteStream(ctx context.Context, streamID string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.stateKey(streamID))
	pipe.Del(ctx, s.eventsKey(streamID))
	pipe.Del(ctx, s.seqKey(streamID))
	for _, status := range allStatuses {
		pipe.SRem(ctx, s.statusKey(status), streamID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete stream: %w", err)
	}
	return nil
}

var _ session.Store = (*Store)(nil)
