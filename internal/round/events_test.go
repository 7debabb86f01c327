package round

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusFanOutAndUnsubscribe(t *testing.T) {
	t.Parallel()

	bus := NewEventBus()
	first := &eventRecorder{}
	second := &eventRecorder{}
	bus.Subscribe(first)
	bus.Subscribe(second)

	ts := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	bus.Publish(NewBetPlacedEvent("r1", "alice", 10, 10, ts.Add(300*time.Second), ts))

	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)

	bus.Unsubscribe(first)
	bus.Publish(NewPrizeClaimedEvent("r1", "alice", "bob", 10, ts))

	assert.Len(t, first.events, 1)
	assert.Len(t, second.events, 2)
}

func TestEventTypes(t *testing.T) {
	t.Parallel()

	ts := time.Now()
	p := Params{CloseTime: ts.Add(time.Hour), Stake: 10, Delay: 300 * time.Second}

	assert.Equal(t, EventTypeBetPlaced, NewBetPlacedEvent("r", "a", 1, 1, ts, ts).EventType())
	assert.Equal(t, EventTypePrizeClaimed, NewPrizeClaimedEvent("r", "a", "b", 1, ts).EventType())
	assert.Equal(t, EventTypeRoundStarted, NewRoundStartedEvent("r", "admin", p, ts).EventType())
	assert.Equal(t, EventTypeAdminTransferred, NewAdminTransferredEvent("a", "b", ts).EventType())
	assert.Equal(t, "bet_placed", EventTypeBetPlaced.String())
}
