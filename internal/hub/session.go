package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iliyamo/library-seat-booking/internal/realtime"
)

const (
	// sendBuffer is how many queued events a session may fall behind
	// before the hub drops it.
	sendBuffer = 64
	writeWait  = 10 * time.Second
	// readWait must exceed the client ping interval so an idle but
	// healthy connection is not reaped.
	readWait = 90 * time.Second
)

// Session is one authenticated WebSocket connection.  The identity
// comes from the JWT validated during the upgrade; join requests are
// checked against it (a session may only join its own role room).
type Session struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan realtime.Event
	userID uint64
	role   string

	done chan struct{}
	once sync.Once
}

// NewSession wraps an upgraded connection.  Call Run to start the
// pumps; Run blocks until the connection dies.
func NewSession(h *Hub, conn *websocket.Conn, userID uint64, role string) *Session {
	return &Session{
		hub:    h,
		conn:   conn,
		send:   make(chan realtime.Event, sendBuffer),
		userID: userID,
		role:   role,
		done:   make(chan struct{}),
	}
}

// Run starts the write pump and reads frames until the peer
// disconnects, then detaches the session from every room.
func (s *Session) Run() {
	go s.writePump()
	s.readPump()
	s.shutdown()
}

// shutdown detaches from rooms and closes the connection.  Safe to
// call more than once; broadcast uses it to drop stalled sessions.
// The send channel is never closed — the hub may still be holding a
// reference — the write pump exits via done instead.
func (s *Session) shutdown() {
	s.once.Do(func() {
		s.hub.detach(s)
		close(s.done)
		_ = s.conn.Close()
	})
}

func (s *Session) readPump() {
	_ = s.conn.SetReadDeadline(time.Now().Add(readWait))
	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(readWait))
		ev, ok, err := realtime.UnmarshalEvent(frame)
		if err != nil || !ok {
			continue // malformed or unknown frames are dropped
		}
		s.handleEvent(ev)
	}
}

func (s *Session) writePump() {
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.send:
			frame, err := realtime.MarshalEvent(ev)
			if err != nil {
				continue
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}
	}
}

// handleEvent processes one client frame.  The dispatch is
// exhaustive over the outbound vocabulary; inbound-only kinds from a
// confused client are ignored.
func (s *Session) handleEvent(ev realtime.Event) {
	switch ev.Kind {
	case realtime.EventJoinRole:
		// The role comes from the validated JWT, not from the
		// payload: a student cannot join the owner room.
		s.hub.join(roomRole(s.role), s)
	case realtime.EventJoinLibrary:
		if p, ok := decodeJoin(ev); ok && p.LibraryID != 0 {
			s.hub.join(roomLibrary(p.LibraryID), s)
		}
	case realtime.EventLeaveLibrary:
		if p, ok := decodeJoin(ev); ok && p.LibraryID != 0 {
			s.hub.leave(roomLibrary(p.LibraryID), s)
		}
	case realtime.EventJoinCommunity:
		if p, ok := decodeJoin(ev); ok && p.CommunityID != 0 {
			s.hub.join(roomCommunity(p.CommunityID), s)
			s.hub.memberJoined(p.CommunityID, s.userID)
		}
	case realtime.EventLeaveCommunity:
		if p, ok := decodeJoin(ev); ok && p.CommunityID != 0 {
			s.hub.leave(roomCommunity(p.CommunityID), s)
		}
	case realtime.EventPing:
		select {
		case s.send <- realtime.NewEvent(realtime.EventPong, nil):
		default:
		}
	default:
		// Server-emitted kinds arriving from a client are dropped.
	}
}

func decodeJoin(ev realtime.Event) (realtime.JoinPayload, bool) {
	var p realtime.JoinPayload
	if err := json.Unmarshal(ev.Data, &p); err != nil {
		return realtime.JoinPayload{}, false
	}
	return p, true
}
