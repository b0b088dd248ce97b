package realtime

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebsocketDialer dials the realtime endpoint over a WebSocket.  The
// bearer token is passed both as a query parameter and as an
// Authorization header so either server style works.
type WebsocketDialer struct {
	// HandshakeTimeout bounds the dial; zero means 10 seconds.
	HandshakeTimeout time.Duration
}

// Dial connects to rawURL and returns the connection wrapped in the
// envelope codec.
func (d *WebsocketDialer) Dial(ctx context.Context, rawURL, token string) (Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	hdr := http.Header{}
	if token != "" {
		hdr.Set("Authorization", "Bearer "+token)
	}

	timeout := d.HandshakeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	c, _, err := dialer.DialContext(ctx, u.String(), hdr)
	if err != nil {
		return nil, err
	}
	return &wsConn{c: c}, nil
}

// wsConn adapts a gorilla websocket connection to the Conn
// interface, framing every message as a JSON envelope.  gorilla
// allows only one concurrent writer, while Conn promises
// goroutine-safe writes (the keepalive ticker, the join re-emitter
// and room callers all write), so writeMu serializes them.
type wsConn struct {
	c       *websocket.Conn
	writeMu sync.Mutex
}

func (w *wsConn) ReadEvent() (Event, error) {
	for {
		var env envelope
		if err := w.c.ReadJSON(&env); err != nil {
			return Event{}, err
		}
		kind, ok := KindFromWire(env.Event)
		if !ok {
			// Unknown event names are dropped, not surfaced: a newer
			// server may push kinds this client does not know yet.
			continue
		}
		return Event{Kind: kind, Data: env.Data}, nil
	}
}

func (w *wsConn) WriteEvent(ev Event) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.c.WriteJSON(envelope{Event: ev.Kind.String(), Data: ev.Data})
}

func (w *wsConn) Close() error { return w.c.Close() }
