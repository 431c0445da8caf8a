package bus

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"drivermon/internal/fault"
	"drivermon/internal/logging"
	"drivermon/internal/messaging"
)

type bridge struct {
	t         *testing.T
	upgrader  websocket.Upgrader
	sessions  atomic.Int32
	hellos    chan subscribeMessage
	published chan messaging.Envelope
	// script runs per session after the subscription is read.
	script func(session int32, conn *websocket.Conn)
}

func newBridge(t *testing.T, script func(int32, *websocket.Conn)) (*bridge, string) {
	t.Helper()
	b := &bridge{
		t:         t,
		hellos:    make(chan subscribeMessage, 8),
		published: make(chan messaging.Envelope, 8),
		script:    script,
	}
	srv := httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(srv.Close)
	return b, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func (b *bridge) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.t.Errorf("upgrade: %v", err)
		return
	}
	defer conn.Close()
	session := b.sessions.Add(1)

	var hello subscribeMessage
	if err := conn.ReadJSON(&hello); err != nil {
		return
	}
	b.hellos <- hello
	b.script(session, conn)
}

func envelope(t *testing.T, topic string, ts int64) messaging.Envelope {
	t.Helper()
	env, err := messaging.NewEnvelope(topic, ts, messaging.ModelData{Meta: messaging.ModelMeta{EngagedProb: 0.5}})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	return env
}

func receive(t *testing.T, ch <-chan messaging.Envelope) messaging.Envelope {
	t.Helper()
	select {
	case env, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return env
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for envelope")
	}
	return messaging.Envelope{}
}

func TestClientSubscribesAndStreams(t *testing.T) {
	var b *bridge
	b, url := newBridge(t, func(_ int32, conn *websocket.Conn) {
		_ = conn.WriteJSON(envelope(t, messaging.TopicModel, 1))
		var env messaging.Envelope
		if err := conn.ReadJSON(&env); err == nil {
			b.published <- env
		}
		_, _, _ = conn.ReadMessage()
	})

	client := NewClient(Options{URL: url, Topics: messaging.InboundTopics(), Logger: logging.NewNop()})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	hello := <-b.hellos
	if hello.Type != "subscribe" || hello.ClientID != client.ClientID() || len(hello.Topics) != 5 {
		t.Fatalf("unexpected subscription %+v", hello)
	}
	got := receive(t, client.Envelopes())
	if got.Topic != messaging.TopicModel || got.LogMonoTime != 1 {
		t.Fatalf("unexpected envelope %+v", got)
	}

	out := envelope(t, messaging.TopicDMonitoringState, 2)
	if err := client.Publish(context.Background(), out); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case env := <-b.published:
		if env.Topic != messaging.TopicDMonitoringState {
			t.Fatalf("unexpected published topic %q", env.Topic)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("bridge did not receive publish")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	client.Close()
	if _, ok := <-client.Envelopes(); ok {
		t.Fatal("expected closed envelope channel")
	}
}

func TestClientReconnects(t *testing.T) {
	b, url := newBridge(t, func(session int32, conn *websocket.Conn) {
		_ = conn.WriteJSON(envelope(t, messaging.TopicModel, int64(session)))
		if session == 1 {
			return
		}
		_, _, _ = conn.ReadMessage()
	})

	client := NewClient(Options{URL: url, ReconnectDelay: 10 * time.Millisecond, Logger: logging.NewNop()})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = client.Run(ctx) }()

	first := receive(t, client.Envelopes())
	second := receive(t, client.Envelopes())
	if first.LogMonoTime != 1 || second.LogMonoTime != 2 {
		t.Fatalf("unexpected sequence %d, %d", first.LogMonoTime, second.LogMonoTime)
	}
	if b.sessions.Load() < 2 {
		t.Fatal("expected a second session")
	}
}

func TestClientRunRestartsUntilClosed(t *testing.T) {
	_, url := newBridge(t, func(session int32, conn *websocket.Conn) {
		_ = conn.WriteJSON(envelope(t, messaging.TopicModel, int64(session)))
		_, _, _ = conn.ReadMessage()
	})
	client := NewClient(Options{URL: url, ReconnectDelay: 10 * time.Millisecond, Logger: logging.NewNop()})

	for want := int64(1); want <= 2; want++ {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- client.Run(ctx) }()
		if got := receive(t, client.Envelopes()); got.LogMonoTime != want {
			t.Fatalf("run %d: unexpected envelope %+v", want, got)
		}
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("run %d: %v", want, err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("run %d did not return after cancel", want)
		}
	}

	client.Close()
	if _, ok := <-client.Envelopes(); ok {
		t.Fatal("expected closed envelope channel")
	}
}

func TestPublishWithoutConnection(t *testing.T) {
	client := NewClient(Options{URL: "ws://127.0.0.1:1/bus", Logger: logging.NewNop()})
	err := client.Publish(context.Background(), messaging.Envelope{Topic: messaging.TopicDMonitoringState})
	if !errors.Is(err, ErrNotConnected) || !errors.Is(err, fault.ErrTransport) {
		t.Fatalf("expected not connected transport error, got %v", err)
	}
	if client.Connected() {
		t.Fatal("client should not be connected")
	}
}

func TestEnqueueDropsOldestWhenFull(t *testing.T) {
	client := NewClient(Options{URL: "ws://127.0.0.1:1/bus", QueueSize: 2, Logger: logging.NewNop()})
	for i := int64(1); i <= 3; i++ {
		client.enqueue(messaging.Envelope{Topic: messaging.TopicModel, LogMonoTime: i})
	}
	if client.Dropped() != 1 {
		t.Fatalf("expected one drop, got %d", client.Dropped())
	}
	if got := receive(t, client.Envelopes()).LogMonoTime; got != 2 {
		t.Fatalf("expected oldest retained envelope 2, got %d", got)
	}
	if got := receive(t, client.Envelopes()).LogMonoTime; got != 3 {
		t.Fatalf("expected newest envelope 3, got %d", got)
	}
}
