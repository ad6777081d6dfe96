package notifications

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	gorilla "github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = 2 * time.Second
	testPollInterval      = 10 * time.Millisecond
)

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, "payload"))
	assert.NoError(t, n.PublishEvent(context.Background(), EventPostCreated, map[string]int{"id": 1}, 1, 2))
	assert.NoError(t, n.StartPatternSubscriber(context.Background(), func(string, string) {}))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "notifications:user:7", UserChannel(7))

	id, ok := ParseUserChannel("notifications:user:42")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"notifications:user:", "notifications:user:x", "chat:conv:1", "notifications:user:0"} {
		_, ok := ParseUserChannel(bad)
		assert.False(t, ok, bad)
	}
}

func TestHub_RegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()

	a, err := hub.Register(10, nil)
	require.NoError(t, err)
	b, err := hub.Register(10, nil)
	require.NoError(t, err)
	other, err := hub.Register(11, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.Connections(10))

	hub.Broadcast(10, "hello")
	assert.Equal(t, "hello", string(<-a.Send))
	assert.Equal(t, "hello", string(<-b.Send))
	assert.Empty(t, other.Send)

	hub.Unregister(a)
	hub.Unregister(a)
	assert.Equal(t, 1, hub.Connections(10))
	_, open := <-a.Send
	assert.False(t, open)

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Zero(t, hub.Connections(10))
	_, err = hub.Register(10, nil)
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestHub_PerUserLimit(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(5, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(5, nil)
	assert.ErrorIs(t, err, ErrUserFull)
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(1, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer+5; i++ {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, c.Send, sendBuffer)
}

// TestHub_WebsocketRoundTrip publishes an event through Redis and reads it from a real websocket.
func TestHub_WebsocketRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub()
	notifier := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, notifier))

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		client, err := hub.Register(7, conn)
		if err != nil {
			_ = conn.Close()
			return
		}
		go client.WritePump()
		client.ReadPump()
	}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	conn, resp, err := gorilla.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	assert.Eventually(t, func() bool { return hub.Connections(7) == 1 }, testEventuallyTimeout, testPollInterval)
	assert.Eventually(t, func() bool {
		n, err := rdb.PubSubNumPat(ctx).Result()
		return err == nil && n == 1
	}, testEventuallyTimeout, testPollInterval)

	require.NoError(t, notifier.PublishEvent(ctx, EventMembershipCreated, map[string]uint{"accountId": 3}, 7, 7, 0))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(testEventuallyTimeout)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type    string          `json:"type"`
		Payload map[string]uint `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, EventMembershipCreated, event.Type)
	assert.Equal(t, uint(3), event.Payload["accountId"])

	_ = conn.Close()
	assert.Eventually(t, func() bool { return hub.Connections(7) == 0 }, testEventuallyTimeout, testPollInterval)
}
