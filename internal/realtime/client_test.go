package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn is an in-memory Conn.  The test pushes inbound events on
// in and inspects client writes on out.  Closing from either side
// makes ReadEvent/WriteEvent fail like a dropped socket.
type fakeConn struct {
	in     chan Event
	out    chan Event
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan Event, 16),
		out:    make(chan Event, 64),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) ReadEvent() (Event, error) {
	select {
	case ev := <-f.in:
		return ev, nil
	case <-f.closed:
		return Event{}, errors.New("connection closed")
	}
}

func (f *fakeConn) WriteEvent(ev Event) error {
	select {
	case <-f.closed:
		return errors.New("connection closed")
	default:
	}
	select {
	case f.out <- ev:
		return nil
	default:
		return errors.New("write buffer full")
	}
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

// drop simulates a server-side disconnect.
func (f *fakeConn) drop() { _ = f.Close() }

// fakeDialer fails the first failures dials (forever when -1), then
// hands out fresh fakeConns.
type fakeDialer struct {
	mu       sync.Mutex
	failures int
	conns    []*fakeConn
	dials    int
}

func (d *fakeDialer) Dial(_ context.Context, _, _ string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.failures == -1 || d.dials <= d.failures {
		return nil, errors.New("dial refused")
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.conns) {
		return nil
	}
	return d.conns[i]
}

func newTestClient(d *fakeDialer) *Client {
	return New(Options{
		URL:            "ws://test/v1/realtime",
		Role:           "student",
		Tokens:         StaticToken("test-token"),
		Dialer:         d,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     4 * time.Millisecond,
		MaxAttempts:    5,
		PingInterval:   -1,
	})
}

// watch registers a callback forwarding the given kinds to a channel.
func watch(c *Client, kinds ...EventKind) <-chan Event {
	ch := make(chan Event, 64)
	for _, k := range kinds {
		c.On(k, func(ev Event) { ch <- ev })
	}
	return ch
}

func waitEvent(t *testing.T, ch <-chan Event, kind EventKind) Event {
	t.Helper()
	select {
	case ev := <-ch:
		require.Equal(t, kind, ev.Kind, "unexpected event %s", ev.Kind)
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", kind)
		return Event{}
	}
}

// collectWrites drains client writes until the connection goes quiet.
func collectWrites(conn *fakeConn) []Event {
	var got []Event
	for {
		select {
		case ev := <-conn.out:
			got = append(got, ev)
		case <-time.After(50 * time.Millisecond):
			return got
		}
	}
}

func countKind(evs []Event, kind EventKind) int {
	n := 0
	for _, ev := range evs {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func TestConnectEmitsRoleJoin(t *testing.T) {
	d := &fakeDialer{}
	c := newTestClient(d)
	defer c.Close()

	events := watch(c, EventConnect)
	require.NoError(t, c.Connect())
	waitEvent(t, events, EventConnect)

	writes := collectWrites(d.conn(0))
	require.Equal(t, 1, countKind(writes, EventJoinRole))
	var p JoinPayload
	require.NoError(t, json.Unmarshal(writes[0].Data, &p))
	assert.Equal(t, "student", p.Role)
	assert.Equal(t, StateConnected, c.State())
}

func TestJoinIsIdempotentPerRoom(t *testing.T) {
	d := &fakeDialer{}
	c := newTestClient(d)
	defer c.Close()

	events := watch(c, EventConnect)
	require.NoError(t, c.Connect())
	waitEvent(t, events, EventConnect)

	c.JoinLibrary(7)
	c.JoinLibrary(7)
	c.JoinLibrary(7)

	writes := collectWrites(d.conn(0))
	assert.Equal(t, 1, countKind(writes, EventJoinLibrary))
}

func TestReconnectResubscribesRoomsExactlyOnce(t *testing.T) {
	d := &fakeDialer{}
	c := newTestClient(d)
	defer c.Close()

	events := watch(c, EventConnect, EventDisconnect, EventReconnect)
	require.NoError(t, c.Connect())
	waitEvent(t, events, EventConnect)

	c.JoinLibrary(7)
	c.JoinCommunity(9)
	collectWrites(d.conn(0)) // drain the initial joins

	// Forced server-side drop: the client must surface disconnect,
	// reconnect and re-issue every membership exactly once.
	d.conn(0).drop()
	waitEvent(t, events, EventDisconnect)
	waitEvent(t, events, EventReconnect)
	waitEvent(t, events, EventConnect)

	conn2 := d.conn(1)
	require.NotNil(t, conn2)
	writes := collectWrites(conn2)
	assert.Equal(t, 1, countKind(writes, EventJoinRole))
	assert.Equal(t, 1, countKind(writes, EventJoinLibrary))
	assert.Equal(t, 1, countKind(writes, EventJoinCommunity))
}

func TestDisconnectReasonServerThenRecovers(t *testing.T) {
	d := &fakeDialer{}
	c := newTestClient(d)
	defer c.Close()

	events := watch(c, EventConnect, EventDisconnect)
	require.NoError(t, c.Connect())
	waitEvent(t, events, EventConnect)

	d.conn(0).drop()
	ev := waitEvent(t, events, EventDisconnect)
	var info DisconnectInfo
	require.NoError(t, json.Unmarshal(ev.Data, &info))
	assert.Equal(t, ReasonServer, info.Reason)

	waitEvent(t, events, EventConnect)
	assert.Equal(t, StateConnected, c.State())
}

func TestBoundedRetriesEndInFailedState(t *testing.T) {
	d := &fakeDialer{failures: -1}
	c := newTestClient(d)
	defer c.Close()

	events := watch(c, EventConnectError, EventReconnectFailed)
	require.NoError(t, c.Connect())

	for i := 0; i < 5; i++ {
		waitEvent(t, events, EventConnectError)
	}
	waitEvent(t, events, EventReconnectFailed)

	assert.Equal(t, StateFailed, c.State())
	assert.NotEmpty(t, c.LastError())

	// Terminal: no further attempts without an explicit new Connect.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 5, d.dialCount())
}

func TestConnectAfterFailureStartsFreshBudget(t *testing.T) {
	d := &fakeDialer{failures: 5}
	c := newTestClient(d)
	defer c.Close()

	events := watch(c, EventConnect, EventReconnectFailed)
	require.NoError(t, c.Connect())
	waitEvent(t, events, EventReconnectFailed)
	require.Equal(t, StateFailed, c.State())

	// The sixth dial succeeds under the new budget.
	require.NoError(t, c.Connect())
	waitEvent(t, events, EventConnect)
	assert.Equal(t, StateConnected, c.State())
}

func TestDeltasDispatchInReceiptOrder(t *testing.T) {
	d := &fakeDialer{}
	c := newTestClient(d)
	defer c.Close()

	events := watch(c, EventConnect)
	require.NoError(t, c.Connect())
	waitEvent(t, events, EventConnect)

	var mu sync.Mutex
	var statuses []string
	done := make(chan struct{})
	c.On(EventSeatAvailability, func(ev Event) {
		var delta SeatDelta
		require.NoError(t, json.Unmarshal(ev.Data, &delta))
		mu.Lock()
		statuses = append(statuses, delta.Status)
		n := len(statuses)
		mu.Unlock()
		if n == 3 {
			close(done)
		}
	})

	conn := d.conn(0)
	for _, st := range []string{StatusOccupied, StatusAvailable, StatusOccupied} {
		conn.in <- Event{Kind: EventSeatAvailability, Data: mustRaw(SeatDelta{SeatID: 42, Status: st})}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for deltas")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{StatusOccupied, StatusAvailable, StatusOccupied}, statuses)
}

func TestCloseSilencesCallbacks(t *testing.T) {
	d := &fakeDialer{}
	c := newTestClient(d)

	events := watch(c, EventConnect)
	require.NoError(t, c.Connect())
	waitEvent(t, events, EventConnect)

	var mu sync.Mutex
	calls := 0
	received := make(chan struct{}, 8)
	c.On(EventSeatAvailability, func(Event) {
		mu.Lock()
		calls++
		mu.Unlock()
		received <- struct{}{}
	})

	conn := d.conn(0)
	conn.in <- Event{Kind: EventSeatAvailability, Data: mustRaw(SeatDelta{SeatID: 1, Status: StatusOccupied})}
	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("delta never delivered")
	}

	c.Close()
	require.Equal(t, StateDisconnected, c.State())

	// A delta arriving after teardown must not fire the callback.
	conn.in <- Event{Kind: EventSeatAvailability, Data: mustRaw(SeatDelta{SeatID: 1, Status: StatusAvailable})}
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)

	// Closed is terminal: the client cannot be revived.
	assert.ErrorIs(t, c.Connect(), ErrClosed)
	assert.Equal(t, 1, d.dialCount())
}
