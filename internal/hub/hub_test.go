package hub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-seat-booking/internal/realtime"
)

// testSession builds a session without a live connection; tests feed
// frames through handleEvent and read pushes off the send channel.
func testSession(h *Hub, userID uint64, role string) *Session {
	return &Session{
		hub:    h,
		send:   make(chan realtime.Event, sendBuffer),
		userID: userID,
		role:   role,
		done:   make(chan struct{}),
	}
}

func joinLibraryEvent(id uint64) realtime.Event {
	return realtime.NewEvent(realtime.EventJoinLibrary, realtime.JoinPayload{LibraryID: id})
}

func drain(s *Session) []realtime.Event {
	var got []realtime.Event
	for {
		select {
		case ev := <-s.send:
			got = append(got, ev)
		default:
			return got
		}
	}
}

func TestSeatAvailabilityRoutedToLibraryRoom(t *testing.T) {
	h := New()
	inRoom := testSession(h, 1, "STUDENT")
	otherRoom := testSession(h, 2, "STUDENT")
	inRoom.handleEvent(joinLibraryEvent(7))
	otherRoom.handleEvent(joinLibraryEvent(8))

	h.SeatAvailability(7, []realtime.SeatDelta{
		{SeatID: 41, LibraryID: 7, Status: realtime.StatusOccupied, AvailableSeats: 9, TotalSeats: 10},
		{SeatID: 42, LibraryID: 7, Status: realtime.StatusOccupied, AvailableSeats: 8, TotalSeats: 10},
	})

	got := drain(inRoom)
	require.Len(t, got, 2)
	var first realtime.SeatDelta
	require.NoError(t, json.Unmarshal(got[0].Data, &first))
	assert.Equal(t, uint64(41), first.SeatID)

	assert.Empty(t, drain(otherRoom))
}

func TestLeaveLibraryStopsDeltas(t *testing.T) {
	h := New()
	s := testSession(h, 1, "STUDENT")
	s.handleEvent(joinLibraryEvent(7))
	require.Equal(t, 1, h.RoomCount("library:7"))

	s.handleEvent(realtime.NewEvent(realtime.EventLeaveLibrary, realtime.JoinPayload{LibraryID: 7}))
	assert.Equal(t, 0, h.RoomCount("library:7"))

	h.SeatAvailability(7, []realtime.SeatDelta{{SeatID: 1, LibraryID: 7, Status: realtime.StatusOccupied}})
	assert.Empty(t, drain(s))
}

func TestJoinRoleUsesAuthenticatedRole(t *testing.T) {
	h := New()
	student := testSession(h, 1, "STUDENT")
	// The payload role is ignored; a student cannot join the owner room.
	student.handleEvent(realtime.NewEvent(realtime.EventJoinRole, realtime.JoinPayload{Role: "OWNER"}))
	assert.Equal(t, 1, h.RoomCount("role:STUDENT"))
	assert.Equal(t, 0, h.RoomCount("role:OWNER"))
}

func TestLibraryUpdatedReachesOwnersAndRoom(t *testing.T) {
	h := New()
	owner := testSession(h, 5, "OWNER")
	owner.handleEvent(realtime.NewEvent(realtime.EventJoinRole, nil))
	watcher := testSession(h, 6, "STUDENT")
	watcher.handleEvent(joinLibraryEvent(3))

	h.LibraryUpdated(realtime.LibraryUpdate{LibraryID: 3, AvailableSeats: 12, TotalSeats: 40})
	assert.Len(t, drain(owner), 1)
	assert.Len(t, drain(watcher), 1)
}

func TestJoinCommunityAnnouncesMember(t *testing.T) {
	h := New()
	existing := testSession(h, 1, "STUDENT")
	existing.handleEvent(realtime.NewEvent(realtime.EventJoinCommunity, realtime.JoinPayload{CommunityID: 4}))
	drain(existing) // own join announcement

	joiner := testSession(h, 2, "STUDENT")
	joiner.handleEvent(realtime.NewEvent(realtime.EventJoinCommunity, realtime.JoinPayload{CommunityID: 4}))

	got := drain(existing)
	require.Len(t, got, 1)
	require.Equal(t, realtime.EventMemberJoined, got[0].Kind)
	var mj realtime.MemberJoin
	require.NoError(t, json.Unmarshal(got[0].Data, &mj))
	assert.Equal(t, uint64(2), mj.UserID)
}

func TestPingAnsweredWithPong(t *testing.T) {
	h := New()
	s := testSession(h, 1, "STUDENT")
	s.handleEvent(realtime.Event{Kind: realtime.EventPing})
	got := drain(s)
	require.Len(t, got, 1)
	assert.Equal(t, realtime.EventPong, got[0].Kind)
}
