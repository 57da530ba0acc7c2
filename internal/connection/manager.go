package connection

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/five82/multiverse/internal/metrics"
)

// DefaultReconnectDelay is the fixed pause between a closure and the next dial.
const DefaultReconnectDelay = time.Second

// State is the push channel lifecycle state.
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Conn is the subset of *websocket.Conn the manager reads from.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Dialer opens a push channel connection.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer dials with gorilla/websocket.
type WebsocketDialer struct {
	Dialer *websocket.Dialer // nil uses websocket.DefaultDialer
	Header http.Header
}

// Dial implements Dialer.
func (d WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, url, d.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return conn, nil
}

// Clock schedules the reconnect delay.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Options configure a Manager.
type Options struct {
	URL            string
	Dialer         Dialer        // nil uses WebsocketDialer{}
	Clock          Clock         // nil uses the wall clock
	ReconnectDelay time.Duration // zero uses DefaultReconnectDelay
	Logger         logrus.FieldLogger
}

// Manager keeps one push channel connection alive, reconnecting after a
// fixed delay forever, and forwards every inbound message to its handler.
type Manager struct {
	url    string
	dialer Dialer
	clock  Clock
	delay  time.Duration
	log    logrus.FieldLogger

	// deliverMu serialises handler invocations so messages reach the handler
	// in receipt order, including a buffered one flushed by SetHandler.
	deliverMu sync.Mutex

	mu        sync.Mutex
	handler   func([]byte)
	pending   []byte
	state     State
	observers []func(State)
	running   bool
}

// New validates opts and returns an idle Manager. Call Run to start it.
func New(opts Options) (*Manager, error) {
	if opts.URL == "" {
		return nil, errors.New("connection url is required")
	}
	m := &Manager{
		url:    opts.URL,
		dialer: opts.Dialer,
		clock:  opts.Clock,
		delay:  opts.ReconnectDelay,
		log:    opts.Logger,
		state:  StateClosed,
	}
	if m.dialer == nil {
		m.dialer = WebsocketDialer{}
	}
	if m.clock == nil {
		m.clock = realClock{}
	}
	if m.delay <= 0 {
		m.delay = DefaultReconnectDelay
	}
	if m.log == nil {
		m.log = logrus.StandardLogger()
	}
	m.log = m.log.WithField("url", opts.URL)
	return m, nil
}

// URL returns the push channel address.
func (m *Manager) URL() string { return m.url }

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnStateChange registers an observer called after every transition.
// Observers run on the manager's goroutine and must not block.
func (m *Manager) OnStateChange(fn func(State)) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.observers = append(m.observers, fn)
	m.mu.Unlock()
}

// SetHandler attaches the message handler. A message that arrived while no
// handler was attached is delivered to it immediately; only the latest such
// message is kept. Passing nil detaches the handler.
func (m *Manager) SetHandler(h func([]byte)) {
	m.deliverMu.Lock()
	defer m.deliverMu.Unlock()

	m.mu.Lock()
	m.handler = h
	pending := m.pending
	if h != nil {
		m.pending = nil
	}
	m.mu.Unlock()

	if h != nil && pending != nil {
		h(pending)
	}
}

// Run dials and redials until ctx is cancelled. It returns nil on
// cancellation and an error only if the manager is already running.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("connection manager already running")
	}
	m.running = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	for {
		m.setState(StateConnecting)
		metrics.ConnectionDials.Inc()

		conn, err := m.dialer.Dial(ctx, m.url)
		if ctx.Err() != nil {
			if conn != nil {
				_ = conn.Close()
			}
			m.setState(StateStopped)
			return nil
		}
		if err != nil {
			m.log.WithError(err).Warn("push channel dial failed")
		} else {
			m.setState(StateOpen)
			m.log.Info("push channel connected")
			m.readLoop(ctx, conn)
			if ctx.Err() != nil {
				m.setState(StateStopped)
				return nil
			}
		}

		m.setState(StateClosed)
		m.log.WithField("delay", m.delay).Info("push channel closed, reconnecting")

		select {
		case <-ctx.Done():
			m.setState(StateStopped)
			return nil
		case <-m.clock.After(m.delay):
		}
	}
}

// readLoop forwards messages until the connection fails. Close and error
// are the same event here: the connection is dropped and the caller redials.
func (m *Manager) readLoop(ctx context.Context, conn Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				entry := m.log.WithError(err)
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					entry.Warn("push channel read failed")
				} else {
					entry.Info("push channel closed by server")
				}
			}
			_ = conn.Close()
			return
		}
		if kind != websocket.TextMessage {
			m.log.WithField("type", kind).Debug("ignoring non-text message")
			continue
		}
		metrics.MessagesReceived.Inc()
		m.deliver(data)
	}
}

func (m *Manager) deliver(data []byte) {
	m.deliverMu.Lock()
	defer m.deliverMu.Unlock()

	m.mu.Lock()
	h := m.handler
	if h == nil {
		if m.pending != nil {
			metrics.MessagesDisplaced.Inc()
		}
		m.pending = data
		m.mu.Unlock()
		m.log.Debug("no handler attached, buffering message")
		return
	}
	m.mu.Unlock()

	h(data)
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	observers := slices.Clone(m.observers)
	m.mu.Unlock()

	metrics.ConnectionTransitions.WithLabelValues(s.String()).Inc()
	for _, fn := range observers {
		fn(s)
	}
}
