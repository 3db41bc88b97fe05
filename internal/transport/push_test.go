package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTimer struct {
	stopped atomic.Bool
}

func (t *fakeTimer) Stop() bool {
	return !t.stopped.Swap(true)
}

type scheduledCall struct {
	delay time.Duration
	fire  func()
	timer *fakeTimer
}

type fakeScheduler struct {
	calls chan scheduledCall
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{calls: make(chan scheduledCall, 16)}
}

func (s *fakeScheduler) schedule(d time.Duration, f func()) Timer {
	timer := &fakeTimer{}
	s.calls <- scheduledCall{delay: d, fire: f, timer: timer}
	return timer
}

type recorder struct {
	mu       sync.Mutex
	messages []string
}

func (r *recorder) Info(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

// pushServer serves a websocket endpoint; script runs once per accepted connection
func pushServer(t *testing.T, script func(conn *websocket.Conn)) (string, *atomic.Int32) {
	t.Helper()

	var dials atomic.Int32
	upgrader := websocket.Upgrader{}

	router := chi.NewRouter()
	router.Get("/api/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		dials.Add(1)
		script(conn)
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws", &dials
}

func waitForState(t *testing.T, states <-chan PushState, want PushState) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case s := <-states:
			if s == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for push state %s", want)
		}
	}
}

func TestPushDispatchesOnlyResyncEvents(t *testing.T) {
	url, _ := pushServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"data_update","entity":"product"}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"chat_message"}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"action_result","ok":true}`))
		// Keep the connection open until the client goes away
		conn.ReadMessage()
	})

	events := make(chan Event, 8)
	activity := &recorder{}
	scheduler := newFakeScheduler()

	m := NewPushManager(url, DefaultReconnectDelay, func(ev Event) { events <- ev }, activity, zap.NewNop(),
		WithScheduler(scheduler.schedule))
	m.Start(context.Background())
	defer m.Close()

	var got []string
	for len(got) < 2 {
		select {
		case ev := <-events:
			got = append(got, ev.Type)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for events, got %v", got)
		}
	}

	assert.Equal(t, []string{EventDataUpdate, EventActionResult}, got)
	assert.True(t, m.Connected())
	assert.Equal(t, []string{"Connected to server"}, activity.all())

	select {
	case ev := <-events:
		t.Fatalf("unexpected extra event %q", ev.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPushSchedulesExactlyOneReconnectAfterAbnormalClose(t *testing.T) {
	url, dials := pushServer(t, func(conn *websocket.Conn) {
		// Drop the TCP connection without a close frame
		conn.UnderlyingConn().Close()
	})

	states := make(chan PushState, 16)
	scheduler := newFakeScheduler()
	m := NewPushManager(url, DefaultReconnectDelay, nil, &recorder{}, zap.NewNop(),
		WithScheduler(scheduler.schedule),
		WithStateListener(func(s PushState) { states <- s }))

	m.Start(context.Background())
	defer m.Close()

	waitForState(t, states, PushOpen)

	var call scheduledCall
	select {
	case call = <-scheduler.calls:
	case <-time.After(5 * time.Second):
		t.Fatal("no reconnect was scheduled")
	}

	assert.Equal(t, 3*time.Second, call.delay)
	assert.Equal(t, PushDisconnected, m.State())

	// Nothing redials until the timer fires
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), dials.Load())
	select {
	case extra := <-scheduler.calls:
		t.Fatalf("a second reconnect was scheduled with delay %v", extra.delay)
	default:
	}

	call.fire()
	require.Eventually(t, func() bool { return dials.Load() == 2 }, 5*time.Second, 10*time.Millisecond)

	// The second drop schedules the next single attempt with the same fixed delay
	select {
	case next := <-scheduler.calls:
		assert.Equal(t, 3*time.Second, next.delay)
	case <-time.After(5 * time.Second):
		t.Fatal("reconnect loop stopped after the second drop")
	}
}

func TestPushDialFailureSchedulesReconnect(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	srv.Close()

	scheduler := newFakeScheduler()
	m := NewPushManager(url, 5*time.Second, nil, &recorder{}, zap.NewNop(), WithScheduler(scheduler.schedule))
	m.Start(context.Background())
	defer m.Close()

	select {
	case call := <-scheduler.calls:
		assert.Equal(t, 5*time.Second, call.delay)
	case <-time.After(5 * time.Second):
		t.Fatal("no reconnect was scheduled after dial failure")
	}
	assert.False(t, m.Connected())
}

func TestPushCloseCancelsPendingReconnect(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	srv.Close()

	scheduler := newFakeScheduler()
	m := NewPushManager(url, DefaultReconnectDelay, nil, &recorder{}, zap.NewNop(), WithScheduler(scheduler.schedule))
	m.Start(context.Background())

	var call scheduledCall
	select {
	case call = <-scheduler.calls:
	case <-time.After(5 * time.Second):
		t.Fatal("no reconnect was scheduled")
	}

	require.NoError(t, m.Close())
	assert.True(t, call.timer.stopped.Load())

	// A timer that fires anyway must not revive the channel
	call.fire()
	assert.Equal(t, PushDisconnected, m.State())
	select {
	case <-scheduler.calls:
		t.Fatal("reconnect scheduled after close")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPushCloseStopsLiveConnection(t *testing.T) {
	closed := make(chan struct{})
	url, _ := pushServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(closed)
				return
			}
		}
	})

	states := make(chan PushState, 16)
	scheduler := newFakeScheduler()
	m := NewPushManager(url, DefaultReconnectDelay, nil, &recorder{}, zap.NewNop(),
		WithScheduler(scheduler.schedule),
		WithStateListener(func(s PushState) { states <- s }))
	m.Start(context.Background())
	waitForState(t, states, PushOpen)

	require.NoError(t, m.Close())

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("server never saw the connection close")
	}
	select {
	case <-scheduler.calls:
		t.Fatal("reconnect scheduled after close")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEventTriggersResync(t *testing.T) {
	assert.True(t, Event{Type: EventActionResult}.TriggersResync())
	assert.True(t, Event{Type: EventDataUpdate}.TriggersResync())
	assert.False(t, Event{Type: "ping"}.TriggersResync())
	assert.False(t, Event{}.TriggersResync())
}
