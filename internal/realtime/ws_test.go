package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoServer upgrades every request and counts the frames it reads
// until the peer hangs up.
func echoServer(t *testing.T, frames chan<- []byte) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			frames <- msg
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebsocketDialer_TokenInHandshake(t *testing.T) {
	got := make(chan string, 1)
	up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.URL.Query().Get("token")
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = c.Close()
	}))
	defer srv.Close()

	d := &WebsocketDialer{HandshakeTimeout: 5 * time.Second}
	conn, err := d.Dial(context.Background(), wsURL(srv), "tok-123")
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "tok-123", <-got)
}

// Keepalive pings, reconnect re-joins and caller-initiated room joins
// all write on the same connection from different goroutines; the
// connection must serialize them.  Run with -race.
func TestWebsocketConn_ConcurrentWriters(t *testing.T) {
	const writers, perWriter = 4, 50

	frames := make(chan []byte, writers*perWriter)
	srv := echoServer(t, frames)
	defer srv.Close()

	d := &WebsocketDialer{HandshakeTimeout: 5 * time.Second}
	conn, err := d.Dial(context.Background(), wsURL(srv), "tok")
	require.NoError(t, err)
	defer conn.Close()

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				var ev Event
				if w%2 == 0 {
					ev = NewEvent(EventPing, nil)
				} else {
					ev = NewEvent(EventJoinLibrary, JoinPayload{LibraryID: uint64(i + 1)})
				}
				if err := conn.WriteEvent(ev); err != nil {
					t.Errorf("write: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	for i := 0; i < writers*perWriter; i++ {
		select {
		case <-frames:
		case <-time.After(5 * time.Second):
			t.Fatalf("server received %d of %d frames", i, writers*perWriter)
		}
	}
}

func TestWebsocketConn_DropsUnknownEvents(t *testing.T) {
	up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		_ = c.WriteMessage(websocket.TextMessage, []byte(`{"event":"totally:new","data":{}}`))
		_ = c.WriteMessage(websocket.TextMessage, []byte(`{"event":"pong"}`))
		time.Sleep(100 * time.Millisecond)
	}))
	defer srv.Close()

	d := &WebsocketDialer{HandshakeTimeout: 5 * time.Second}
	conn, err := d.Dial(context.Background(), wsURL(srv), "tok")
	require.NoError(t, err)
	defer conn.Close()

	ev, err := conn.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, EventPong, ev.Kind, "unknown frame skipped, next known one returned")
}
