package gatefeed

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradpass/ceremony-tickets/internal/metrics"
)

const testChannel = "gate-feed-test"

func startRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func startRelay(t *testing.T, mr *miniredis.Miniredis, client *redis.Client, hub *Hub) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() { done <- Relay(ctx, client, testChannel, hub) }()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(testChannel)[testChannel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	return cancel, done
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	byURL, err := NewRedisClient(ctx, "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	require.NoError(t, byURL.Close())

	_, err = NewRedisClient(ctx, "redis://"+mr.Addr()+"/not-a-db")
	require.Error(t, err)

	addr := mr.Addr()
	mr.Close()
	_, err = NewRedisClient(ctx, addr)
	require.Error(t, err)
}

func TestRelay_DeliversPublishedEvents(t *testing.T) {
	mr, client := startRedis(t)
	hub := startHub(t)
	ctx := context.Background()

	s, err := hub.Subscribe(ctx, 3)
	require.NoError(t, err)
	startRelay(t, mr, client, hub)

	require.NoError(t, client.Publish(ctx, testChannel, "{not json").Err())

	ticketID := uint(11)
	publisher := NewRedisPublisher(client, testChannel)
	require.NoError(t, publisher.Publish(ctx, Event{CeremonyID: 3, TicketID: &ticketID, Outcome: "Fraud Attempt"}))

	e := receive(t, s)
	assert.Equal(t, uint(3), e.CeremonyID)
	require.NotNil(t, e.TicketID)
	assert.Equal(t, ticketID, *e.TicketID)
	assert.Equal(t, "Fraud Attempt", e.Outcome)
}

func TestRelay_StopsWhenContextIsDone(t *testing.T) {
	mr, client := startRedis(t)
	hub := startHub(t)

	cancel, done := startRelay(t, mr, client, hub)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestRedisPublisher_DefaultChannel(t *testing.T) {
	mr, client := startRedis(t)

	p := NewRedisPublisher(client, "")
	assert.Equal(t, DefaultChannel, p.channel)

	sub := client.Subscribe(context.Background(), DefaultChannel)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(DefaultChannel)[DefaultChannel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, p.Publish(context.Background(), Event{CeremonyID: 1}))

	select {
	case msg := <-sub.Channel():
		assert.Contains(t, msg.Payload, `"ceremony_id":1`)
	case <-time.After(2 * time.Second):
		t.Fatal("no message on the default channel")
	}
}

func TestRedisPublisher_CountsFailures(t *testing.T) {
	mr, client := startRedis(t)
	before := testutil.ToFloat64(metrics.RedisErrors.WithLabelValues("publish"))

	mr.Close()
	err := NewRedisPublisher(client, testChannel).Publish(context.Background(), Event{CeremonyID: 1})
	require.Error(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RedisErrors.WithLabelValues("publish")))
}
