package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherEmit(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(store)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	publisher.now = func() time.Time { return fixed }

	require.NoError(t, publisher.Emit(context.Background(), Event{RequestID: "req-1", Action: ActionCalculationCompleted}))
	require.NoError(t, publisher.Emit(context.Background(), Event{
		RequestID: "req-2",
		Action:    ActionCalculationFailed,
		Timestamp: fixed.Add(time.Hour),
	}))

	events, err := store.ListByRequest(context.Background(), "req-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, fixed, events[0].Timestamp, "zero timestamp is filled in")

	events, _ = store.ListByRequest(context.Background(), "req-2")
	assert.Equal(t, fixed.Add(time.Hour), events[0].Timestamp, "explicit timestamp is kept")
}

func TestChannelStoreNeverBlocks(t *testing.T) {
	store := NewChannelStore(1)
	require.NoError(t, store.Append(context.Background(), Event{RequestID: "a"}))

	err := store.Append(context.Background(), Event{RequestID: "b"})
	assert.True(t, errors.Is(err, ErrInboxFull))

	got := <-store.Inbox()
	assert.Equal(t, "a", got.RequestID)
}

func TestChannelStoreClose(t *testing.T) {
	store := NewChannelStore(2)
	require.NoError(t, store.Append(context.Background(), Event{RequestID: "a"}))
	store.Close()
	store.Close()

	err := store.Append(context.Background(), Event{RequestID: "b"})
	assert.True(t, errors.Is(err, ErrStoreClosed))

	sink := NewInMemoryStore()
	require.NoError(t, NewWorker(sink, store.Inbox(), nil).Run(context.Background()))
	require.Len(t, sink.All(), 1, "buffered events are drained after close")
	assert.Equal(t, "a", sink.All()[0].RequestID)
}

type failingStore struct{}

func (failingStore) Append(context.Context, Event) error { return errors.New("broker down") }

func TestWorker(t *testing.T) {
	t.Run("forwards events until inbox closes", func(t *testing.T) {
		inbox := make(chan Event, 2)
		sink := NewInMemoryStore()
		inbox <- Event{RequestID: "a"}
		inbox <- Event{RequestID: "b"}
		close(inbox)

		err := NewWorker(sink, inbox, nil).Run(context.Background())
		require.NoError(t, err)
		assert.Len(t, sink.All(), 2)
	})

	t.Run("sink failure does not stop the worker", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))
		inbox := make(chan Event, 2)
		inbox <- Event{RequestID: "a"}
		inbox <- Event{RequestID: "b"}
		close(inbox)

		err := NewWorker(failingStore{}, inbox, logger).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("audit sink append failed")))
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewWorker(NewInMemoryStore(), make(chan Event), nil).Run(ctx)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestLogStoreWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	store := NewLogStore(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := store.Append(context.Background(), Event{
		RequestID:      "req-9",
		Action:         ActionCalculationFailed,
		MutationCount:  3,
		AppliedCount:   1,
		ErrorCode:      "scheme_not_found",
		FailedMutation: "m-2",
	})
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "audit", line["msg"])
	assert.Equal(t, "calculation_failed", line["action"])
	assert.Equal(t, "scheme_not_found", line["error_code"])
	assert.Equal(t, float64(3), line["mutation_count"])
}
