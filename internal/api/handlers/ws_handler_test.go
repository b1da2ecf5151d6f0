package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type wsConnMock struct {
	mu       sync.Mutex
	written  []string
	writeErr error
}

func (c *wsConnMock) SetWriteDeadline(time.Time) error { return nil }

func (c *wsConnMock) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.written = append(c.written, string(data))
	return nil
}

func (c *wsConnMock) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.written))
	copy(out, c.written)
	return out
}

func runRelay(ctx context.Context, conn statusConn, msgs <-chan *redis.Message, readDone <-chan struct{}) chan struct{} {
	done := make(chan struct{})
	go func() {
		relayStatus(ctx, conn, msgs, readDone)
		close(done)
	}()
	return done
}

func waitRelay(t *testing.T, done chan struct{}, why string) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal(why)
	}
}

func TestRelayStatusForwardsPayloads(t *testing.T) {
	conn := &wsConnMock{}
	msgs := make(chan *redis.Message, 2)
	msgs <- &redis.Message{Payload: `{"status":"PROCESSING"}`}
	msgs <- &redis.Message{Payload: `{"status":"COMPLETED"}`}
	close(msgs)

	done := runRelay(context.Background(), conn, msgs, make(chan struct{}))
	waitRelay(t, done, "relay must return when the subscription closes")

	got := conn.messages()
	if len(got) != 2 || got[0] != `{"status":"PROCESSING"}` || got[1] != `{"status":"COMPLETED"}` {
		t.Fatalf("forwarded = %v", got)
	}
}

func TestRelayStatusReturnsOnClientDisconnect(t *testing.T) {
	conn := &wsConnMock{}
	readDone := make(chan struct{})

	// No message ever arrives: the relay must still unblock the moment
	// the reader reports disconnect.
	done := runRelay(context.Background(), conn, make(chan *redis.Message), readDone)
	close(readDone)
	waitRelay(t, done, "relay must return promptly after client disconnect")

	if len(conn.messages()) != 0 {
		t.Fatalf("forwarded = %v, want none", conn.messages())
	}
}

func TestRelayStatusReturnsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := runRelay(ctx, &wsConnMock{}, make(chan *redis.Message), make(chan struct{}))
	cancel()
	waitRelay(t, done, "relay must return promptly after context cancellation")
}

func TestRelayStatusStopsOnWriteError(t *testing.T) {
	conn := &wsConnMock{writeErr: errors.New("broken pipe")}
	msgs := make(chan *redis.Message, 1)
	msgs <- &redis.Message{Payload: `{"status":"PROCESSING"}`}

	done := runRelay(context.Background(), conn, msgs, make(chan struct{}))
	waitRelay(t, done, "relay must return when the client write fails")
}
