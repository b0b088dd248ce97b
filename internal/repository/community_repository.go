package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/library-seat-booking/internal/model"
)

// ErrCommunityNotFound is returned when a community lookup yields no
// rows.
var ErrCommunityNotFound = errors.New("community not found")

// CommunityRepo provides data access to the communities table.
// Chat messages themselves are ephemeral — they travel over the push
// channel only — so the table stores just the rooms.
type CommunityRepo struct {
	db *sql.DB
}

// NewCommunityRepo constructs a CommunityRepo with the given DB handle.
func NewCommunityRepo(db *sql.DB) *CommunityRepo {
	return &CommunityRepo{db: db}
}

// Create inserts a community for a library.  Duplicate names within
// the library map to ErrConflict.
func (r *CommunityRepo) Create(ctx context.Context, c *model.Community) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO communities (library_id, name) VALUES (?, ?)`, c.LibraryID, c.Name)
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
	c.ID = uint64(id)
	return nil
}

// GetByID retrieves one community.
func (r *CommunityRepo) GetByID(ctx context.Context, id uint64) (*model.Community, error) {
	var c model.Community
	err := r.db.QueryRowContext(ctx,
		`SELECT id, library_id, name, created_at FROM communities WHERE id = ?`, id).
		Scan(&c.ID, &c.LibraryID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommunityNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListByLibrary returns a library's communities ordered by name.
func (r *CommunityRepo) ListByLibrary(ctx context.Context, libraryID uint64) ([]model.Community, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, library_id, name, created_at FROM communities WHERE library_id = ? ORDER BY name`, libraryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Community
	for rows.Next() {
		var c model.Community
		if err := rows.Scan(&c.ID, &c.LibraryID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
