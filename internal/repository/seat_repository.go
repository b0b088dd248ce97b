package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/library-seat-booking/internal/model"
)

// SeatRepo provides data access to the seats table.  Bulk status
// transitions run inside caller-supplied transactions so booking and
// cancellation stay atomic with their booking rows.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// CreateBulk inserts a batch of seats for a library in one statement.
// Duplicate labels within the library map to ErrConflict.
func (r *SeatRepo) CreateBulk(ctx context.Context, libraryID uint64, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString("INSERT INTO seats (library_id, label, zone, status) VALUES ")
	for i, s := range seats {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?)")
		status := s.Status
		if status == "" {
			status = model.SeatAvailable
		}
		args = append(args, libraryID, s.Label, s.Zone, status)
	}
	if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	return nil
}

const seatSelect = `SELECT id, library_id, label, zone, status, is_active, created_at, updated_at FROM seats`

func scanSeat(row interface{ Scan(...any) error }, s *model.Seat) error {
	return row.Scan(&s.ID, &s.LibraryID, &s.Label, &s.Zone, &s.Status, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID retrieves a single seat.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	var s model.Seat
	if err := scanSeat(r.db.QueryRowContext(ctx, seatSelect+` WHERE id = ?`, id), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByLibrary returns the active seats of a library ordered by
// label.  When status is non-empty only seats in that status are
// returned (browse filters on AVAILABLE).
func (r *SeatRepo) ListByLibrary(ctx context.Context, libraryID uint64, status string) ([]model.Seat, error) {
	q := seatSelect + ` WHERE library_id = ? AND is_active = 1`
	args := []any{libraryID}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY label`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := scanSeat(rows, &s); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// SetStatus updates a single seat's status (owner blocking/unblocking).
func (r *SeatRepo) SetStatus(ctx context.Context, seatID uint64, status string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE seats SET status = ? WHERE id = ?`, status, seatID)
	return err
}

// LockForUpdateTx row-locks the requested seats of a library and
// returns them. Bookings call this before the availability check so
// two concurrent requests for the same seat serialize on the row lock
// instead of double-selling it.
func (r *SeatRepo) LockForUpdateTx(ctx context.Context, tx *sql.Tx, libraryID uint64, seatIDs []uint64) ([]model.Seat, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}
	q := seatSelect + ` WHERE library_id = ? AND is_active = 1 AND id IN (` + placeholders(len(seatIDs)) + `) FOR UPDATE`
	args := make([]any, 0, len(seatIDs)+1)
	args = append(args, libraryID)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := scanSeat(rows, &s); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// UpdateStatusBulkTx transitions a set of seats from one status to
// another inside a transaction.  ErrConflict is returned when any
// seat was not in the expected source status, which rolls the whole
// booking back.
func (r *SeatRepo) UpdateStatusBulkTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64, from, to string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	q := `UPDATE seats SET status = ? WHERE status = ? AND id IN (` + placeholders(len(seatIDs)) + `)`
	args := make([]any, 0, len(seatIDs)+2)
	args = append(args, to, from)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != int64(len(seatIDs)) {
		return ErrConflict
	}
	return nil
}

// ReleaseBulkTx flips whichever of the given seats are still OCCUPIED
// back to AVAILABLE.  Unlike UpdateStatusBulkTx it does not demand
// that every seat matched: a seat the owner has BLOCKED since the
// booking stays blocked, and the cancellation still goes through.  It
// returns the ids actually released so the caller pushes deltas only
// for those.
func (r *SeatRepo) ReleaseBulkTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64) ([]uint64, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}
	q := `SELECT id FROM seats WHERE status = ? AND id IN (` + placeholders(len(seatIDs)) + `) FOR UPDATE`
	args := make([]any, 0, len(seatIDs)+1)
	args = append(args, model.SeatOccupied)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var released []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		released = append(released, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(released) == 0 {
		return nil, nil
	}

	q = `UPDATE seats SET status = ? WHERE id IN (` + placeholders(len(released)) + `)`
	args = args[:0]
	args = append(args, model.SeatAvailable)
	for _, id := range released {
		args = append(args, id)
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return nil, err
	}
	return released, nil
}

// placeholders renders "?, ?, ?" for IN clauses.
func placeholders(n int) string {
	if n == 1 {
		return "?"
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
