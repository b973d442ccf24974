package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Store appends audit events to a sink.
type Store interface {
	Append(ctx context.Context, event Event) error
}

var (
	// ErrInboxFull is returned by ChannelStore when the worker cannot keep up.
	ErrInboxFull = errors.New("audit inbox full")
	// ErrStoreClosed is returned by ChannelStore after Close.
	ErrStoreClosed = errors.New("audit store closed")
)

// ChannelStore hands events to a Worker without blocking the request path.
type ChannelStore struct {
	mu     sync.RWMutex
	closed bool
	inbox  chan Event
}

// NewChannelStore creates a buffered hand-off of the given capacity.
func NewChannelStore(capacity int) *ChannelStore {
	return &ChannelStore{inbox: make(chan Event, capacity)}
}

func (s *ChannelStore) Append(_ context.Context, event Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	select {
	case s.inbox <- event:
		return nil
	default:
		return ErrInboxFull
	}
}

// Inbox is the receive side consumed by a Worker.
func (s *ChannelStore) Inbox() <-chan Event {
	return s.inbox
}

// Close stops accepting events and closes the inbox so the Worker drains
// what is buffered and returns.
func (s *ChannelStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.inbox)
	}
}

// LogStore writes events as structured log lines. It is the default sink
// when no broker is configured.
type LogStore struct {
	logger *slog.Logger
}

func NewLogStore(logger *slog.Logger) *LogStore {
	return &LogStore{logger: logger}
}

func (s *LogStore) Append(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, "audit",
		"action", string(event.Action),
		"request_id", event.RequestID,
		"mutation_count", event.MutationCount,
		"applied_count", event.AppliedCount,
		"dossier_ids", event.DossierIDs,
		"error_code", event.ErrorCode,
		"failed_mutation", event.FailedMutation,
		"duration_ms", event.Duration.Milliseconds(),
	)
	return nil
}

// InMemoryStore keeps events for inspection in tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByRequest returns the events recorded for a request id.
func (s *InMemoryStore) ListByRequest(_ context.Context, requestID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.RequestID == requestID {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns every recorded event in append order.
func (s *InMemoryStore) All() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event(nil), s.events...)
}
