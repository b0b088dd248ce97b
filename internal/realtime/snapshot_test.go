package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedStore() *SnapshotStore {
	s := NewSnapshotStore()
	s.Load([]SeatSnapshot{
		{ID: 1, Status: StatusAvailable},
		{ID: 2, Status: StatusAvailable},
		{ID: 3, Status: StatusOccupied},
	}, 2, 3)
	return s
}

func TestApplyDeltaLastWriteWins(t *testing.T) {
	s := loadedStore()

	s.ApplyDelta(SeatDelta{SeatID: 1, Status: StatusOccupied, AvailableSeats: 1, TotalSeats: 3})
	s.ApplyDelta(SeatDelta{SeatID: 1, Status: StatusAvailable, AvailableSeats: 2, TotalSeats: 3})
	s.ApplyDelta(SeatDelta{SeatID: 1, Status: StatusOccupied, AvailableSeats: 1, TotalSeats: 3})

	seat, ok := s.Seat(1)
	require.True(t, ok)
	assert.Equal(t, StatusOccupied, seat.Status)

	available, total := s.Counts()
	assert.Equal(t, uint32(1), available)
	assert.Equal(t, uint32(3), total)
}

func TestApplyDeltaInsertsUnknownSeat(t *testing.T) {
	s := loadedStore()
	s.ApplyDelta(SeatDelta{SeatID: 99, Status: StatusAvailable, AvailableSeats: 3, TotalSeats: 4})
	seat, ok := s.Seat(99)
	require.True(t, ok)
	assert.Equal(t, StatusAvailable, seat.Status)
}

func TestToggleSelect(t *testing.T) {
	s := loadedStore()

	assert.True(t, s.ToggleSelect(1))
	seat, _ := s.Seat(1)
	assert.Equal(t, StatusSelected, seat.Status)
	assert.ElementsMatch(t, []uint64{1}, s.SelectedIDs())

	// Occupied seats cannot be selected.
	assert.False(t, s.ToggleSelect(3))

	// Deselect restores availability.
	assert.False(t, s.ToggleSelect(1))
	seat, _ = s.Seat(1)
	assert.Equal(t, StatusAvailable, seat.Status)
	assert.Empty(t, s.SelectedIDs())
}

func TestRemoteDeltaDoesNotEvictLocalSelection(t *testing.T) {
	s := loadedStore()
	require.True(t, s.ToggleSelect(1))

	// Someone else took the seat; the user's in-progress selection
	// survives and the remote status is shadowed.
	s.ApplyDelta(SeatDelta{SeatID: 1, Status: StatusOccupied, AvailableSeats: 1, TotalSeats: 3})
	seat, _ := s.Seat(1)
	assert.True(t, seat.Selected)
	assert.Equal(t, StatusSelected, seat.Status)
	assert.Equal(t, StatusOccupied, seat.RemoteStatus)

	// Deselecting reveals what the server last said.
	s.ToggleSelect(1)
	seat, _ = s.Seat(1)
	assert.False(t, seat.Selected)
	assert.Equal(t, StatusOccupied, seat.Status)
	assert.Empty(t, seat.RemoteStatus)
}

func TestBlockedDeltaEvictsSelection(t *testing.T) {
	s := loadedStore()
	require.True(t, s.ToggleSelect(2))

	s.ApplyDelta(SeatDelta{SeatID: 2, Status: StatusBlocked, AvailableSeats: 1, TotalSeats: 3})
	seat, _ := s.Seat(2)
	assert.False(t, seat.Selected)
	assert.Equal(t, StatusBlocked, seat.Status)
	assert.Empty(t, s.SelectedIDs())
}
