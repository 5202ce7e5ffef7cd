package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToastExpiresAfterTTL(t *testing.T) {
	toasts := NewToasts(30 * time.Millisecond)
	toasts.Push("Vintage Wash Tee added to cart", SeveritySuccess)

	snapshot := toasts.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "Vintage Wash Tee added to cart", snapshot[0].Message)

	assert.Eventually(t, func() bool {
		return len(toasts.Snapshot()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestToastIDsAreMonotonic(t *testing.T) {
	toasts := NewToasts(time.Minute)
	defer toasts.Close()

	first := toasts.Push("one", SeverityInfo)
	second := toasts.Push("two", SeverityInfo)
	third := toasts.Push("three", SeverityInfo)

	assert.Less(t, first.ID, second.ID)
	assert.Less(t, second.ID, third.ID)
}

func TestToastRapidFireEntriesCoexist(t *testing.T) {
	toasts := NewToasts(time.Minute)
	defer toasts.Close()

	for i := 0; i < 5; i++ {
		toasts.Push("message", SeverityInfo)
	}

	snapshot := toasts.Snapshot()
	assert.Len(t, snapshot, 5)
	for i := 1; i < len(snapshot); i++ {
		assert.Greater(t, snapshot[i].ID, snapshot[i-1].ID)
	}
}

func TestToastExpiryRemovesExactEntry(t *testing.T) {
	toasts := NewToasts(time.Minute)
	defer toasts.Close()

	keep := toasts.Push("keep", SeverityInfo)
	gone := toasts.Push("gone", SeverityInfo)

	toasts.expire(gone.ID)

	snapshot := toasts.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, keep.ID, snapshot[0].ID)
}

func TestToastCloseCancelsPendingExpirations(t *testing.T) {
	toasts := NewToasts(10 * time.Millisecond)
	toasts.Push("one", SeverityInfo)
	toasts.Push("two", SeverityInfo)

	toasts.Close()
	assert.Empty(t, toasts.Snapshot())

	// Pushes after close are dropped and timers no longer fire.
	toasts.Push("three", SeverityInfo)
	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, toasts.Snapshot())
}
