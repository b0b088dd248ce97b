package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is the connection lifecycle state of a Client.
type State int

const (
	// StateDisconnected: no connection and none being attempted.
	// Terminal after an explicit Close.
	StateDisconnected State = iota
	// StateConnecting: a dial or a backoff wait is in progress.
	StateConnecting
	// StateConnected: the channel is live and room joins have been
	// (re-)emitted.
	StateConnected
	// StateFailed: the retry budget is exhausted.  Terminal until an
	// explicit new Connect call.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

// Default reconnection parameters.  Five attempts with a doubling
// delay starting at one second and capped at five.
const (
	DefaultInitialBackoff = 1 * time.Second
	DefaultMaxBackoff     = 5 * time.Second
	DefaultMaxAttempts    = 5
	DefaultPingInterval   = 30 * time.Second
)

// ErrClosed is returned by Connect after the client has been torn
// down with Close.  A closed client cannot be revived.
var ErrClosed = errors.New("realtime: client is closed")

// Options configures a Client.  URL, Role, Tokens and Dialer are
// required; the rest default to the constants above.
type Options struct {
	URL            string
	Role           string
	Tokens         TokenSource
	Dialer         Dialer
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxAttempts    int
	// PingInterval is the keepalive period; <0 disables pings.
	PingInterval time.Duration
}

// room is one logical channel membership.
type room struct {
	kind EventKind // EventJoinLibrary or EventJoinCommunity
	id   uint64
}

func (r room) joinEvent() Event {
	switch r.kind {
	case EventJoinLibrary:
		return Event{Kind: EventJoinLibrary, Data: mustRaw(JoinPayload{LibraryID: r.id})}
	default:
		return Event{Kind: EventJoinCommunity, Data: mustRaw(JoinPayload{CommunityID: r.id})}
	}
}

func (r room) leaveEvent() Event {
	switch r.kind {
	case EventJoinLibrary:
		return Event{Kind: EventLeaveLibrary, Data: mustRaw(JoinPayload{LibraryID: r.id})}
	default:
		return Event{Kind: EventLeaveCommunity, Data: mustRaw(JoinPayload{CommunityID: r.id})}
	}
}

// Client maintains one live, auto-reconnecting push channel
// connection.  It is an explicit connection-manager object: whoever
// owns the session owns the client and must Close it on every exit
// path.  All callbacks run on the client's single receive goroutine,
// so per-entity events are observed in receipt order.  Callbacks
// must not call Close (it waits for in-flight callbacks).
type Client struct {
	opts Options

	mu        sync.Mutex
	state     State
	lastErr   string
	handlers  map[EventKind]func(Event)
	rooms     map[room]struct{}
	conn      Conn
	closed    bool
	runActive bool
	stop      chan struct{}

	// dispatchMu serializes callbacks against Close so that no
	// callback fires after Close returns, even for frames already
	// in flight.
	dispatchMu sync.RWMutex
}

// New builds a Client.  It does not connect; call Connect.
func New(opts Options) *Client {
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = DefaultInitialBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = DefaultMaxBackoff
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.PingInterval == 0 {
		opts.PingInterval = DefaultPingInterval
	}
	return &Client{
		opts:     opts,
		handlers: make(map[EventKind]func(Event)),
		rooms:    make(map[room]struct{}),
		stop:     make(chan struct{}),
	}
}

// Connect starts connection establishment in the background.  The
// outcome is observed via connect / connect_error / reconnect_failed
// events, not a blocking return: callers must treat establishment as
// eventually consistent.  Calling Connect while a connection is live
// or being attempted is a no-op; calling it after the retry budget
// was exhausted starts a fresh budget.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.runActive {
		return nil
	}
	c.runActive = true
	c.state = StateConnecting
	go c.run()
	return nil
}

// On registers the callback for an event kind, replacing any
// previous registration for that kind.
func (c *Client) On(kind EventKind, fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[kind] = fn
}

// Off removes the callback for an event kind.
func (c *Client) Off(kind EventKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, kind)
}

// JoinLibrary subscribes to a library's availability room.
// Idempotent per library: repeated joins emit a single membership
// message.  Membership survives reconnects — it is re-emitted on
// every transition into Connected.
func (c *Client) JoinLibrary(libraryID uint64) {
	c.join(room{kind: EventJoinLibrary, id: libraryID})
}

// LeaveLibrary drops the library room membership.
func (c *Client) LeaveLibrary(libraryID uint64) {
	c.leave(room{kind: EventJoinLibrary, id: libraryID})
}

// JoinCommunity subscribes to a community chat room.
func (c *Client) JoinCommunity(communityID uint64) {
	c.join(room{kind: EventJoinCommunity, id: communityID})
}

// LeaveCommunity drops the community room membership.
func (c *Client) LeaveCommunity(communityID uint64) {
	c.leave(room{kind: EventJoinCommunity, id: communityID})
}

func (c *Client) join(r room) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if _, ok := c.rooms[r]; ok {
		c.mu.Unlock()
		return
	}
	c.rooms[r] = struct{}{}
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()
	if connected && conn != nil {
		// Fire and forget: a write error here means the connection is
		// dying and the read loop will reconnect and re-join anyway.
		_ = conn.WriteEvent(r.joinEvent())
	}
}

func (c *Client) leave(r room) {
	c.mu.Lock()
	if _, ok := c.rooms[r]; !ok {
		c.mu.Unlock()
		return
	}
	delete(c.rooms, r)
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()
	if connected && conn != nil {
		_ = conn.WriteEvent(r.leaveEvent())
	}
}

// State returns the current lifecycle state, for live/offline badges.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the most recent connectivity error as a display
// string, empty while healthy.  Connectivity errors are never
// returned from the other methods; they only surface here and
// through connect_error events.
func (c *Client) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Close tears the client down: it closes any live connection,
// cancels pending reconnects and synchronously unregisters all
// callbacks.  After Close returns no callback fires, even if a delta
// for a watched entity was already in flight.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.stop)
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.state = StateDisconnected
	c.mu.Unlock()

	// Wait for any in-flight callback, then no further one can start.
	c.dispatchMu.Lock()
	c.dispatchMu.Unlock() //nolint:staticcheck // barrier, not a critical section
}

// dispatch delivers an event to the registered callback, if any.
// It re-checks closed under the lock so teardown is race-free.
func (c *Client) dispatch(ev Event) {
	c.dispatchMu.RLock()
	defer c.dispatchMu.RUnlock()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	fn := c.handlers[ev.Kind]
	c.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	if !c.closed {
		c.state = s
	}
	c.mu.Unlock()
}

func (c *Client) setErr(err error) {
	c.mu.Lock()
	c.lastErr = err.Error()
	c.mu.Unlock()
}

// run is the connection loop: dial, join, read until the connection
// drops, then retry with bounded doubling backoff.  It exits on
// Close, on exhausting the retry budget, or never (while healthy).
func (c *Client) run() {
	defer func() {
		c.mu.Lock()
		c.runActive = false
		c.mu.Unlock()
	}()

	backoff := c.opts.InitialBackoff
	attempts := 0
	everConnected := false

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		c.setState(StateConnecting)
		if attempts > 0 || everConnected {
			c.dispatch(Event{Kind: EventReconnectAttempt, Data: mustRaw(map[string]int{"attempt": attempts + 1})})
		}

		conn, err := c.dial()
		if err != nil {
			c.setErr(err)
			c.dispatch(Event{Kind: EventConnectError, Data: mustRaw(map[string]string{"error": err.Error()})})
			attempts++
			if attempts >= c.opts.MaxAttempts {
				c.setState(StateFailed)
				c.dispatch(Event{Kind: EventReconnectFailed, Data: mustRaw(map[string]int{"attempts": attempts})})
				return
			}
			select {
			case <-c.stop:
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > c.opts.MaxBackoff {
				backoff = c.opts.MaxBackoff
			}
			continue
		}

		// Publish the live connection and snapshot the rooms to
		// re-join.  Joins emitted after this point by callers go out
		// directly on the connection.
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.conn = conn
		c.state = StateConnected
		c.lastErr = ""
		rejoin := make([]room, 0, len(c.rooms))
		for r := range c.rooms {
			rejoin = append(rejoin, r)
		}
		c.mu.Unlock()

		attempts = 0
		backoff = c.opts.InitialBackoff
		if everConnected {
			c.dispatch(Event{Kind: EventReconnect})
		}
		everConnected = true
		c.dispatch(Event{Kind: EventConnect})

		// Room membership does not survive a reconnect server-side:
		// re-issue the role join and every active room join.
		_ = conn.WriteEvent(Event{Kind: EventJoinRole, Data: mustRaw(JoinPayload{Role: c.opts.Role})})
		for _, r := range rejoin {
			_ = conn.WriteEvent(r.joinEvent())
		}

		c.readLoop(conn)

		_ = conn.Close()
		c.mu.Lock()
		closed := c.closed
		c.conn = nil
		c.mu.Unlock()
		if closed {
			return
		}
		// Server-initiated drop: surface it and re-enter Connecting.
		c.dispatch(Event{Kind: EventDisconnect, Data: mustRaw(DisconnectInfo{Reason: ReasonServer})})
	}
}

// dial reads the credential and establishes one connection attempt.
// The attempt is aborted if the client is closed mid-dial.
func (c *Client) dial() (Conn, error) {
	token, err := c.opts.Tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("read credential: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.stop:
			cancel()
		case <-ctx.Done():
		}
	}()
	return c.opts.Dialer.Dial(ctx, c.opts.URL, token)
}

// readLoop pumps inbound frames into dispatch until the connection
// errors.  A keepalive ticker writes ping frames alongside.
func (c *Client) readLoop(conn Conn) {
	done := make(chan struct{})
	defer close(done)

	if c.opts.PingInterval > 0 {
		go func() {
			t := time.NewTicker(c.opts.PingInterval)
			defer t.Stop()
			for {
				select {
				case <-done:
					return
				case <-c.stop:
					return
				case <-t.C:
					_ = conn.WriteEvent(Event{Kind: EventPing})
				}
			}
		}()
	}

	for {
		ev, err := conn.ReadEvent()
		if err != nil {
			return
		}
		c.dispatch(ev)
	}
}
