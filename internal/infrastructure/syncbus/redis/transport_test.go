package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisTransport "github.com/JoeShih716/go-gems-ledger/internal/infrastructure/syncbus/redis"
	"github.com/JoeShih716/go-gems-ledger/pkg/redis/redistest"
)

func TestTransport_PublishSubscribe(t *testing.T) {
	client := redistest.NewClient(t)
	ctx := context.Background()

	sender := redisTransport.NewTransport(client, "gemseconomy:sync")
	receiver := redisTransport.NewTransport(client, "gemseconomy:sync")
	other := redisTransport.NewTransport(client, "other:sync")
	t.Cleanup(func() {
		_ = receiver.Close()
		_ = other.Close()
	})

	got := make(chan []byte, 4)
	require.NoError(t, receiver.Subscribe(ctx, func(payload []byte) { got <- payload }))
	stray := make(chan []byte, 1)
	require.NoError(t, other.Subscribe(ctx, func(payload []byte) { stray <- payload }))

	require.NoError(t, sender.Publish(ctx, []byte{0x0a, 0x01, 0x41}))

	select {
	case payload := <-got:
		assert.Equal(t, []byte{0x0a, 0x01, 0x41}, payload)
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}
	select {
	case <-stray:
		t.Fatal("message delivered to another channel")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, receiver.Close())
	require.NoError(t, sender.Publish(ctx, []byte("after close")))
	select {
	case <-got:
		t.Fatal("message delivered after close")
	case <-time.After(200 * time.Millisecond):
	}
}
