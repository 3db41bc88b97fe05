package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// DefaultReconnectDelay is the fixed wait before redialing a dropped push channel
const DefaultReconnectDelay = 3 * time.Second

// Push event types that invalidate the console's view of server data
const (
	EventActionResult = "action_result"
	EventDataUpdate   = "data_update"
)

// PushState is the connection state of the push channel
type PushState int

const (
	PushDisconnected PushState = iota
	PushConnecting
	PushOpen
)

func (s PushState) String() string {
	switch s {
	case PushDisconnected:
		return "disconnected"
	case PushConnecting:
		return "connecting"
	case PushOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Event is an inbound push message. Only Type is interpreted.
type Event struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// TriggersResync reports whether the event means server data changed
func (e Event) TriggersResync() bool {
	return e.Type == EventActionResult || e.Type == EventDataUpdate
}

// Timer is a cancellable scheduled task
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d and returns a handle that cancels it
type Scheduler func(d time.Duration, f func()) Timer

func afterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ActivityRecorder receives user-visible connectivity messages
type ActivityRecorder interface {
	Info(message string)
}

// PushOption configures a PushManager
type PushOption func(*PushManager)

// WithScheduler replaces the timer used for reconnect attempts
func WithScheduler(s Scheduler) PushOption {
	return func(m *PushManager) {
		m.schedule = s
	}
}

// WithDialer replaces the websocket dialer
func WithDialer(d *websocket.Dialer) PushOption {
	return func(m *PushManager) {
		m.dialer = d
	}
}

// WithStateListener is notified after every state change
func WithStateListener(f func(PushState)) PushOption {
	return func(m *PushManager) {
		m.onState = f
	}
}

// PushManager keeps a single live-update connection open, redialing after a fixed
// delay whenever it drops. It is safe for concurrent use.
type PushManager struct {
	url      string
	dialer   *websocket.Dialer
	backoff  retry.Backoff
	schedule Scheduler
	handler  func(Event)
	activity ActivityRecorder
	logger   *zap.Logger
	onState  func(PushState)

	mu      sync.Mutex
	state   PushState
	conn    *websocket.Conn
	pending Timer
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewPushManager creates a manager for url. handler is invoked for every event
// that triggers a resync; other events are dropped.
func NewPushManager(url string, delay time.Duration, handler func(Event), activity ActivityRecorder, logger *zap.Logger, opts ...PushOption) *PushManager {
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &PushManager{
		url:      url,
		dialer:   websocket.DefaultDialer,
		backoff:  retry.NewConstant(delay),
		schedule: afterFunc,
		handler:  handler,
		activity: activity,
		logger:   logger,
		state:    PushDisconnected,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins connecting in the background
func (m *PushManager) Start(ctx context.Context) {
	m.mu.Lock()
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	go m.connect()
}

// State returns the current connection state
func (m *PushManager) State() PushState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connected reports whether the channel is open
func (m *PushManager) Connected() bool {
	return m.State() == PushOpen
}

// Close cancels any pending reconnect and closes the live connection.
// No reconnect is scheduled afterwards.
func (m *PushManager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
	if m.cancel != nil {
		m.cancel()
	}
	conn := m.conn
	m.conn = nil
	changed := m.setStateLocked(PushDisconnected)
	m.mu.Unlock()

	m.notify(changed, PushDisconnected)

	if conn == nil {
		return nil
	}
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return conn.Close()
}

func (m *PushManager) connect() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.pending = nil
	ctx := m.ctx
	changed := m.setStateLocked(PushConnecting)
	m.mu.Unlock()
	m.notify(changed, PushConnecting)

	conn, _, err := m.dialer.DialContext(ctx, m.url, nil)
	if err != nil {
		m.logger.Debug("Push channel dial failed", zap.String("url", m.url), zap.Error(err))
		m.disconnected()
		return
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		conn.Close()
		return
	}
	m.conn = conn
	changed = m.setStateLocked(PushOpen)
	m.mu.Unlock()
	m.notify(changed, PushOpen)

	m.logger.Info("Push channel open", zap.String("url", m.url))
	if m.activity != nil {
		m.activity.Info("Connected to server")
	}

	m.readLoop(conn)
}

func (m *PushManager) readLoop(conn *websocket.Conn) {
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				m.logger.Warn("Push channel closed abnormally", zap.Error(err))
			} else {
				m.logger.Info("Push channel closed", zap.Error(err))
			}

			m.mu.Lock()
			if m.conn == conn {
				m.conn = nil
			}
			m.mu.Unlock()

			m.disconnected()
			return
		}

		m.dispatch(data)
	}
}

func (m *PushManager) dispatch(data []byte) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		m.logger.Debug("Ignoring malformed push message", zap.Error(err))
		return
	}
	ev.Raw = append(json.RawMessage(nil), data...)

	if !ev.TriggersResync() {
		m.logger.Debug("Ignoring push event", zap.String("type", ev.Type))
		return
	}

	m.logger.Debug("Push event received", zap.String("type", ev.Type))
	if m.handler != nil {
		m.handler(ev)
	}
}

// disconnected moves to Disconnected and schedules exactly one reconnect
func (m *PushManager) disconnected() {
	m.mu.Lock()
	changed := m.setStateLocked(PushDisconnected)
	if !m.closed && m.pending == nil {
		if delay, stop := m.backoff.Next(); !stop {
			m.logger.Debug("Scheduling push reconnect", zap.Duration("delay", delay))
			m.pending = m.schedule(delay, m.connect)
		}
	}
	m.mu.Unlock()

	m.notify(changed, PushDisconnected)
}

func (m *PushManager) setStateLocked(s PushState) bool {
	if m.state == s {
		return false
	}
	m.state = s
	return true
}

func (m *PushManager) notify(changed bool, s PushState) {
	if changed && m.onState != nil {
		m.onState(s)
	}
}
