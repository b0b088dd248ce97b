// Package hub is the server counterpart of the realtime client: it
// tracks which WebSocket session belongs to which logical room and
// fans push events out to room members.  Rooms exist implicitly —
// joining a name creates it, the last leave removes it.
package hub

import (
	"fmt"
	"log"
	"sync"

	"github.com/iliyamo/library-seat-booking/internal/realtime"
)

// Room name builders.  Room names are an internal detail of the hub;
// clients address rooms through join:* payloads, never by name.
func roomRole(role string) string    { return "role:" + role }
func roomLibrary(id uint64) string   { return fmt.Sprintf("library:%d", id) }
func roomCommunity(id uint64) string { return fmt.Sprintf("community:%d", id) }

// Hub is the room registry.  It is safe for concurrent use by
// sessions and by handlers publishing deltas.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*Session]struct{}
}

// New returns an empty hub.
func New() *Hub {
	return &Hub{rooms: make(map[string]map[*Session]struct{})}
}

func (h *Hub) join(room string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Session]struct{})
		h.rooms[room] = members
	}
	members[s] = struct{}{}
}

func (h *Hub) leave(room string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// detach removes a session from every room it joined.  Called once
// when a session's connection dies.
func (h *Hub) detach(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, members := range h.rooms {
		delete(members, s)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// broadcast queues an event on every member of a room.  A member
// whose send buffer is full is dropped rather than allowed to stall
// the whole room; its pumps shut down and the client reconnects.
func (h *Hub) broadcast(room string, ev realtime.Event) {
	h.mu.Lock()
	var stalled []*Session
	for s := range h.rooms[room] {
		select {
		case s.send <- ev:
		default:
			stalled = append(stalled, s)
		}
	}
	h.mu.Unlock()
	for _, s := range stalled {
		log.Printf("hub: dropping slow session user=%d room=%s", s.userID, room)
		s.shutdown()
	}
}

// RoomCount reports how many sessions are in a library room, mostly
// for metrics endpoints and tests.
func (h *Hub) RoomCount(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}

// SeatAvailability pushes per-seat deltas to the library's room.
// Deltas are sent in order, one event each, so subscribers can apply
// them last-write-wins.
func (h *Hub) SeatAvailability(libraryID uint64, deltas []realtime.SeatDelta) {
	room := roomLibrary(libraryID)
	for _, d := range deltas {
		h.broadcast(room, realtime.NewEvent(realtime.EventSeatAvailability, d))
	}
}

// LibraryUpdated pushes a library metadata/capacity change to both
// the library room and all owner-role sessions (the dashboard).
func (h *Hub) LibraryUpdated(u realtime.LibraryUpdate) {
	ev := realtime.NewEvent(realtime.EventLibraryUpdated, u)
	h.broadcast(roomLibrary(u.LibraryID), ev)
	h.broadcast(roomRole("OWNER"), ev)
}

// MessageNew pushes a chat message to its community room.
func (h *Hub) MessageNew(msg realtime.ChatMessage) {
	h.broadcast(roomCommunity(msg.CommunityID), realtime.NewEvent(realtime.EventMessageNew, msg))
}

// memberJoined announces a new community member to the room.
func (h *Hub) memberJoined(communityID, userID uint64) {
	h.broadcast(roomCommunity(communityID),
		realtime.NewEvent(realtime.EventMemberJoined, realtime.MemberJoin{CommunityID: communityID, UserID: userID}))
}
