package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/library-seat-booking/internal/model"
)

// LibraryRepo provides data access to the libraries table.  The
// derived capacity counters (TotalSeats, AvailableSeats) are computed
// by the list queries so browse endpoints can render capacity without
// a second round trip.
type LibraryRepo struct {
	db *sql.DB
}

// NewLibraryRepo constructs a LibraryRepo with the given DB handle.
func NewLibraryRepo(db *sql.DB) *LibraryRepo {
	return &LibraryRepo{db: db}
}

// DB exposes the underlying handle so handlers can open transactions
// spanning several repositories.
func (r *LibraryRepo) DB() *sql.DB { return r.db }

// Create inserts a library for an owner. On success the ID is
// populated. Duplicate (owner, name) pairs map to ErrConflict.
func (r *LibraryRepo) Create(ctx context.Context, l *model.Library) error {
	const q = `INSERT INTO libraries (owner_id, name, city, address) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, l.OwnerID, l.Name, l.City, l.Address)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return nil
}

const librarySelect = `SELECT l.id, l.owner_id, l.name, l.city, l.address,
       (SELECT COUNT(*) FROM seats s WHERE s.library_id = l.id AND s.is_active = 1) AS total_seats,
       (SELECT COUNT(*) FROM seats s WHERE s.library_id = l.id AND s.is_active = 1 AND s.status = 'AVAILABLE') AS available_seats,
       l.created_at, l.updated_at
  FROM libraries l`

func scanLibrary(row interface{ Scan(...any) error }, l *model.Library) error {
	return row.Scan(&l.ID, &l.OwnerID, &l.Name, &l.City, &l.Address,
		&l.TotalSeats, &l.AvailableSeats, &l.CreatedAt, &l.UpdatedAt)
}

// GetByID retrieves a library with its capacity counters.
func (r *LibraryRepo) GetByID(ctx context.Context, id uint64) (*model.Library, error) {
	var l model.Library
	err := scanLibrary(r.db.QueryRowContext(ctx, librarySelect+` WHERE l.id = ?`, id), &l)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLibraryNotFound
		}
		return nil, err
	}
	return &l, nil
}

// GetByIDAndOwner retrieves a library enforcing ownership.  A library
// that exists but belongs to someone else yields ErrForbidden.
func (r *LibraryRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Library, error) {
	l, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return l, nil
}

// ListAll returns every library ordered by city then name, for the
// public browse endpoint.
func (r *LibraryRepo) ListAll(ctx context.Context) ([]model.Library, error) {
	return r.list(ctx, librarySelect+` ORDER BY l.city, l.name`)
}

// ListByOwner returns the owner's libraries.
func (r *LibraryRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Library, error) {
	return r.list(ctx, librarySelect+` WHERE l.owner_id = ? ORDER BY l.name`, ownerID)
}

func (r *LibraryRepo) list(ctx context.Context, query string, args ...any) ([]model.Library, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Library
	for rows.Next() {
		var l model.Library
		if err := scanLibrary(rows, &l); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update changes mutable library fields for an owner.  Returns
// ErrLibraryNotFound when the library does not exist and ErrForbidden
// when it belongs to someone else.
func (r *LibraryRepo) Update(ctx context.Context, l *model.Library) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE libraries SET name = ?, city = ?, address = ? WHERE id = ? AND owner_id = ?`,
		l.Name, l.City, l.Address, l.ID, l.OwnerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either missing or not owned; disambiguate for the handler.
		if _, err := r.GetByID(ctx, l.ID); err != nil {
			return err
		}
		return ErrForbidden
	}
	return nil
}
