package realtime

import (
	"encoding/json"
	"sync"
)

// SeatSnapshot is the local view of one seat on a booking surface.
// Status holds what the surface renders; RemoteStatus shadows the
// last server-pushed status when a local selection is masking it.
type SeatSnapshot struct {
	ID           uint64
	Status       string
	RemoteStatus string
	Selected     bool
}

// SnapshotStore reconciles a seat layout against two actors: local
// user seat toggles and inbound sync deltas.  Reconciliation is
// overwrite-by-id in receipt order (last write wins), with one
// policy decision: a remote delta that merely flips a selected seat
// between available and occupied does not evict the user's
// in-progress selection — the remote status is shadowed and
// reappears when the user deselects.  A remote "blocked" is
// authoritative and does evict the selection.
//
// The store carries its own lock so a booking surface and the
// client's receive goroutine can share it.
type SnapshotStore struct {
	mu             sync.Mutex
	seats          map[uint64]*SeatSnapshot
	availableSeats uint32
	totalSeats     uint32
}

// NewSnapshotStore returns an empty store.  Load it with the seat
// layout when the booking surface opens and discard it when the
// surface closes.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{seats: make(map[uint64]*SeatSnapshot)}
}

// Load replaces the store contents with a freshly fetched layout.
func (s *SnapshotStore) Load(seats []SeatSnapshot, available, total uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seats = make(map[uint64]*SeatSnapshot, len(seats))
	for i := range seats {
		cp := seats[i]
		s.seats[cp.ID] = &cp
	}
	s.availableSeats = available
	s.totalSeats = total
}

// ToggleSelect flips the local selection of a seat.  Only available
// seats can be selected; deselecting restores the shadowed remote
// status if a delta arrived while selected.  It reports whether the
// seat ended up selected.
func (s *SnapshotStore) ToggleSelect(seatID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat, ok := s.seats[seatID]
	if !ok {
		return false
	}
	if seat.Selected {
		seat.Selected = false
		if seat.RemoteStatus != "" {
			seat.Status = seat.RemoteStatus
			seat.RemoteStatus = ""
		} else {
			seat.Status = StatusAvailable
		}
		return false
	}
	if seat.Status != StatusAvailable {
		return false
	}
	seat.Selected = true
	seat.Status = StatusSelected
	return true
}

// ApplyDelta folds one inbound seat:availability delta into the
// store.  Unknown seats are inserted (the layout may have been
// partial).  Capacity counters always follow the delta.
func (s *SnapshotStore) ApplyDelta(d SeatDelta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.availableSeats = d.AvailableSeats
	s.totalSeats = d.TotalSeats

	seat, ok := s.seats[d.SeatID]
	if !ok {
		s.seats[d.SeatID] = &SeatSnapshot{ID: d.SeatID, Status: d.Status}
		return
	}
	if seat.Selected {
		if d.Status == StatusBlocked {
			// Server authoritative: the seat is gone, drop the selection.
			seat.Selected = false
			seat.Status = StatusBlocked
			seat.RemoteStatus = ""
			return
		}
		seat.RemoteStatus = d.Status
		return
	}
	seat.Status = d.Status
	seat.RemoteStatus = ""
}

// Seat returns a copy of the snapshot for one seat.
func (s *SnapshotStore) Seat(seatID uint64) (SeatSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat, ok := s.seats[seatID]
	if !ok {
		return SeatSnapshot{}, false
	}
	return *seat, true
}

// SelectedIDs lists the seats the user currently has selected.
func (s *SnapshotStore) SelectedIDs() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint64
	for id, seat := range s.seats {
		if seat.Selected {
			ids = append(ids, id)
		}
	}
	return ids
}

// Counts returns the library's capacity counters as last pushed.
func (s *SnapshotStore) Counts() (available, total uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.availableSeats, s.totalSeats
}

// Bind registers the store on a client so every seat:availability
// delta is folded in automatically.  It replaces any handler the
// caller had for that kind; surfaces needing both should register
// their own handler and call ApplyDelta themselves.
func (s *SnapshotStore) Bind(c *Client) {
	c.On(EventSeatAvailability, func(ev Event) {
		var d SeatDelta
		if err := json.Unmarshal(ev.Data, &d); err != nil {
			return
		}
		s.ApplyDelta(d)
	})
}
