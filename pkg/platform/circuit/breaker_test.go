package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// record replays outcomes ('f' failure, 's' success) against b.
func record(b *Breaker, outcomes string) {
	for _, o := range outcomes {
		switch o {
		case 'f':
			b.RecordFailure()
		case 's':
			b.RecordSuccess()
		}
	}
}

func TestBreakerNewIsClosed(t *testing.T) {
	b := New("scheme_source")
	assert.Equal(t, "scheme_source", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreakerTransitions(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		closes   int
		outcomes string
		wantOpen bool
	}{
		{name: "below failure threshold", failures: 3, closes: 1, outcomes: "ff", wantOpen: false},
		{name: "reaches failure threshold", failures: 3, closes: 1, outcomes: "fff", wantOpen: true},
		{name: "success resets failure streak", failures: 3, closes: 1, outcomes: "ffsff", wantOpen: false},
		{name: "streak after reset opens", failures: 3, closes: 1, outcomes: "ffsfff", wantOpen: true},
		{name: "open needs enough successes", failures: 1, closes: 2, outcomes: "fs", wantOpen: true},
		{name: "closes after success threshold", failures: 1, closes: 2, outcomes: "fss", wantOpen: false},
		{name: "failure while open resets success streak", failures: 1, closes: 3, outcomes: "fssfss", wantOpen: true},
		{name: "full success streak after relapse closes", failures: 1, closes: 3, outcomes: "fssfsss", wantOpen: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("scheme_source", WithFailureThreshold(tt.failures), WithSuccessThreshold(tt.closes))
			record(b, tt.outcomes)
			assert.Equal(t, tt.wantOpen, b.IsOpen())
		})
	}
}

func TestBreakerReportsStateChanges(t *testing.T) {
	b := New("scheme_source", WithFailureThreshold(2), WithSuccessThreshold(1))

	useFallback, change := b.RecordFailure()
	assert.False(t, useFallback)
	assert.False(t, change.Opened)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened, "the failure that trips the breaker reports it")

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Opened, "already open")

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
}

func TestBreakerAllowHonoursCooldown(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b := New("scheme_source",
		WithFailureThreshold(1),
		WithCooldown(10*time.Second),
		WithClock(func() time.Time { return now }),
	)

	b.RecordFailure()
	require.True(t, b.IsOpen())
	assert.False(t, b.Allow(), "open circuit rejects calls during cooldown")

	now = now.Add(10 * time.Second)
	assert.True(t, b.Allow(), "probe allowed after cooldown")

	b.RecordFailure()
	assert.False(t, b.Allow(), "a failed probe restarts the cooldown")
}

func TestBreakerReset(t *testing.T) {
	b := New("scheme_source", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
}
