package gatefeed

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub()
	go hub.Run(ctx)
	return hub
}

func receive(t *testing.T, s *Subscriber) Event {
	t.Helper()
	select {
	case data, ok := <-s.Messages():
		require.True(t, ok, "subscriber closed")
		var e Event
		require.NoError(t, json.Unmarshal(data, &e))
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHub_DeliversPerCeremony(t *testing.T) {
	ctx := context.Background()
	hub := startHub(t)

	first, err := hub.Subscribe(ctx, 1)
	require.NoError(t, err)
	second, err := hub.Subscribe(ctx, 2)
	require.NoError(t, err)

	require.NoError(t, hub.Publish(ctx, Event{CeremonyID: 1, Outcome: "Fraud Attempt"}))
	require.NoError(t, hub.Publish(ctx, Event{CeremonyID: 2, Outcome: "Success"}))

	assert.Equal(t, "Fraud Attempt", receive(t, first).Outcome)
	assert.Equal(t, "Success", receive(t, second).Outcome)

	select {
	case <-first.Messages():
		t.Fatal("ceremony 1 subscriber received a ceremony 2 event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	hub := startHub(t)

	s, err := hub.Subscribe(ctx, 5)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.SubscriberCount(5) == 1 }, time.Second, 10*time.Millisecond)

	hub.Unsubscribe(s)

	_, ok := <-s.Messages()
	assert.False(t, ok)
	assert.Equal(t, 0, hub.SubscriberCount(5))
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	ctx := context.Background()
	hub := startHub(t)

	s, err := hub.Subscribe(ctx, 9)
	require.NoError(t, err)

	for i := 0; i < subscriberBuffer+1; i++ {
		require.NoError(t, hub.Publish(ctx, Event{CeremonyID: 9}))
	}

	require.Eventually(t, func() bool { return hub.SubscriberCount(9) == 0 }, time.Second, 10*time.Millisecond)

	drained := 0
	for range s.Messages() {
		drained++
	}
	assert.Equal(t, subscriberBuffer, drained)
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard{}.Publish(context.Background(), Event{}))
}
