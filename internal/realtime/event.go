// Package realtime implements the client side of the push channel:
// a reconnecting connection manager that joins logical rooms (by
// role, by library, by community) and dispatches server-pushed delta
// events to registered callbacks.  The event vocabulary is a closed
// enum so that a typo in an event name is a compile error, not a
// silently dead subscription.
package realtime

import (
	"encoding/json"
	"fmt"
)

// EventKind enumerates every message kind exchanged over the push
// channel, inbound and outbound.  Synthetic lifecycle kinds
// (connect, disconnect, reconnect_*) are emitted locally by the
// Client and never travel on the wire.
type EventKind int

const (
	// Lifecycle events, emitted locally by the Client.
	EventConnect EventKind = iota
	EventConnectError
	EventDisconnect
	EventReconnectAttempt
	EventReconnect
	EventReconnectFailed

	// Inbound push events from the server.
	EventPong
	EventSeatAvailability
	EventLibraryUpdated
	EventMessageNew
	EventMemberJoined

	// Outbound membership and keepalive events.
	EventJoinRole
	EventJoinLibrary
	EventLeaveLibrary
	EventJoinCommunity
	EventLeaveCommunity
	EventPing
)

// wireNames maps every kind to its on-wire event name.  Lifecycle
// kinds keep names here too so logs and error strings stay readable.
var wireNames = map[EventKind]string{
	EventConnect:          "connect",
	EventConnectError:     "connect_error",
	EventDisconnect:       "disconnect",
	EventReconnectAttempt: "reconnect_attempt",
	EventReconnect:        "reconnect",
	EventReconnectFailed:  "reconnect_failed",
	EventPong:             "pong",
	EventSeatAvailability: "seat:availability",
	EventLibraryUpdated:   "library:updated",
	EventMessageNew:       "message:new",
	EventMemberJoined:     "member:joined",
	EventJoinRole:         "join:role",
	EventJoinLibrary:      "join:library",
	EventLeaveLibrary:     "leave:library",
	EventJoinCommunity:    "join:community",
	EventLeaveCommunity:   "leave:community",
	EventPing:             "ping",
}

// String returns the on-wire event name for the kind.
func (k EventKind) String() string {
	if n, ok := wireNames[k]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// KindFromWire resolves an on-wire event name back to its kind.  The
// second return is false for names outside the vocabulary; callers
// drop such events instead of guessing.
func KindFromWire(name string) (EventKind, bool) {
	for k, n := range wireNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Event is one message on the channel: a kind plus its raw JSON
// payload.  Payloads are decoded lazily by whoever registered for
// the kind.
type Event struct {
	Kind EventKind
	Data json.RawMessage
}

// envelope is the JSON frame actually exchanged on the wire.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Seat availability statuses carried inside seat:availability deltas.
// The wire uses lowercase names; "selected" only ever exists locally
// in a SnapshotStore and is never pushed by the server.
const (
	StatusAvailable = "available"
	StatusOccupied  = "occupied"
	StatusSelected  = "selected"
	StatusBlocked   = "blocked"
)

// SeatDelta describes one seat's availability change pushed by the
// server, together with the library's updated capacity counters.
type SeatDelta struct {
	SeatID         uint64 `json:"seat_id"`
	LibraryID      uint64 `json:"library_id"`
	Status         string `json:"status"`
	AvailableSeats uint32 `json:"available_seats"`
	TotalSeats     uint32 `json:"total_seats"`
}

// LibraryUpdate announces a change to a library's metadata or
// aggregate capacity.
type LibraryUpdate struct {
	LibraryID      uint64 `json:"library_id"`
	Name           string `json:"name,omitempty"`
	AvailableSeats uint32 `json:"available_seats"`
	TotalSeats     uint32 `json:"total_seats"`
}

// ChatMessage is a community chat message pushed via message:new.
type ChatMessage struct {
	CommunityID uint64 `json:"community_id"`
	UserID      uint64 `json:"user_id"`
	Body        string `json:"body"`
	SentAt      string `json:"sent_at"`
}

// MemberJoin announces a user joining a community room.
type MemberJoin struct {
	CommunityID uint64 `json:"community_id"`
	UserID      uint64 `json:"user_id"`
}

// JoinPayload is the body of join:*/leave:* membership events.  Only
// the field relevant to the event kind is set.
type JoinPayload struct {
	Role        string `json:"role,omitempty"`
	LibraryID   uint64 `json:"library_id,omitempty"`
	CommunityID uint64 `json:"community_id,omitempty"`
}

// DisconnectInfo is the payload of locally emitted disconnect
// events.  Reason distinguishes a server-side drop (which triggers
// reconnection) from an explicit client Close (which is terminal).
type DisconnectInfo struct {
	Reason string `json:"reason"`
	Err    string `json:"error,omitempty"`
}

// Disconnect reasons.
const (
	ReasonServer = "server"
	ReasonClient = "client"
)

// mustRaw marshals a payload for a locally built event.  The payload
// types above contain nothing that can fail to marshal.
func mustRaw(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// NewEvent builds an event of the given kind with a marshalled
// payload.  It is the constructor the hub and CLI use so payloads
// stay typed end to end.
func NewEvent(kind EventKind, payload any) Event {
	if payload == nil {
		return Event{Kind: kind}
	}
	return Event{Kind: kind, Data: mustRaw(payload)}
}

// MarshalEvent encodes an event into its wire frame.  Both sides of
// the channel share this codec.
func MarshalEvent(ev Event) ([]byte, error) {
	return json.Marshal(envelope{Event: ev.Kind.String(), Data: ev.Data})
}

// UnmarshalEvent decodes a wire frame.  The second return is false
// when the event name is outside the vocabulary; callers drop such
// frames.
func UnmarshalEvent(b []byte) (Event, bool, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Event{}, false, err
	}
	kind, ok := KindFromWire(env.Event)
	if !ok {
		return Event{}, false, nil
	}
	return Event{Kind: kind, Data: env.Data}, true, nil
}
