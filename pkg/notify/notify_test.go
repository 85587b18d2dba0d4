package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCenterDeliversToSubscribers(t *testing.T) {
	center := NewCenter()

	got, cancel := center.Subscribe()
	defer cancel()

	center.Error("save failed: %s", "timeout")

	select {
	case n := <-got:
		assert.Equal(t, LevelError, n.Level)
		assert.Equal(t, "save failed: timeout", n.Message)
	case <-time.After(time.Second):
		t.Fatal("notification not delivered")
	}
}

func TestCenterRecentHistory(t *testing.T) {
	center := NewCenter()

	center.Info("one")
	center.Success("two")

	recent := center.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "one", recent[0].Message)
	assert.Equal(t, LevelSuccess, recent[1].Level)
}

func TestCenterHistoryBounded(t *testing.T) {
	center := NewCenter()
	for i := 0; i < 120; i++ {
		center.Info("msg %d", i)
	}

	recent := center.Recent()
	assert.Len(t, recent, 50)
	assert.Equal(t, "msg 119", recent[len(recent)-1].Message)
}

func TestCancelledSubscriberNotDelivered(t *testing.T) {
	center := NewCenter()

	got, cancel := center.Subscribe()
	cancel()
	center.Info("after cancel")

	_, open := <-got
	assert.False(t, open)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "info", LevelInfo.String())
	assert.Equal(t, "error", LevelError.String())
}
