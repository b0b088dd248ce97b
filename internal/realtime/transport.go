package realtime

import (
	"context"
	"os"
	"strings"
)

// Conn is one live bidirectional channel to the server.  ReadEvent
// blocks until a frame arrives or the connection dies; WriteEvent is
// fire-and-forget from the protocol's point of view (no ack).  Both
// return an error once the connection is closed.
//
// WriteEvent must be safe for concurrent use: the Client writes from
// its keepalive goroutine, from its connection loop, and from
// whichever goroutine calls the Join/Leave methods.  Implementations
// (and test fakes) must serialize writes internally.  ReadEvent has a
// single caller and needs no such guarantee.
type Conn interface {
	ReadEvent() (Event, error)
	WriteEvent(Event) error
	Close() error
}

// Dialer establishes connections.  The token is sent in the
// handshake; implementations decide how (query parameter, header).
// Tests substitute an in-memory dialer here.
type Dialer interface {
	Dial(ctx context.Context, url, token string) (Conn, error)
}

// TokenSource supplies the bearer credential for the handshake.  It
// is consulted once per connection attempt so that a rotated token
// is picked up on the next reconnect.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource returning a fixed credential.
type StaticToken string

func (s StaticToken) Token() (string, error) { return string(s), nil }

// FileToken reads the credential from a file on every connection
// attempt.  This is the persistent credential store of the CLI:
// whatever wrote the file last wins.
type FileToken string

func (f FileToken) Token() (string, error) {
	b, err := os.ReadFile(string(f))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
