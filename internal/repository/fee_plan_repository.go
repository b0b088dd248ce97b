package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/iliyamo/library-seat-booking/internal/model"
)

// FeePlanRepo provides data access to the fee_plans table.  Shift and
// zone override maps, the discount and the feature list are stored as
// JSON columns and (un)marshalled at the repository boundary so the
// rest of the code works with typed model.FeePlan values.
type FeePlanRepo struct {
	db *sql.DB
}

// NewFeePlanRepo constructs a FeePlanRepo with the given DB handle.
func NewFeePlanRepo(db *sql.DB) *FeePlanRepo {
	return &FeePlanRepo{db: db}
}

// Create inserts a fee plan and populates its ID.
func (r *FeePlanRepo) Create(ctx context.Context, p *model.FeePlan) error {
	shift, zone, discount, features, err := encodePlanJSON(p)
	if err != nil {
		return err
	}
	const q = `INSERT INTO fee_plans
		(library_id, name, description, plan_type, base_price, shift_pricing, zone_pricing, discount, features, status, is_popular)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		p.LibraryID, p.Name, p.Description, p.Type, p.BasePrice,
		shift, zone, discount, features, p.Status, p.IsPopular)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// Update rewrites every mutable field of a plan.
func (r *FeePlanRepo) Update(ctx context.Context, p *model.FeePlan) error {
	shift, zone, discount, features, err := encodePlanJSON(p)
	if err != nil {
		return err
	}
	const q = `UPDATE fee_plans SET
		name = ?, description = ?, plan_type = ?, base_price = ?,
		shift_pricing = ?, zone_pricing = ?, discount = ?, features = ?,
		status = ?, is_popular = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		p.Name, p.Description, p.Type, p.BasePrice,
		shift, zone, discount, features, p.Status, p.IsPopular, p.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	_ = n // zero rows is fine: the update may be a no-op rewrite
	return nil
}

// SetStatus flips a plan between active / inactive / draft.
func (r *FeePlanRepo) SetStatus(ctx context.Context, planID uint64, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE fee_plans SET status = ? WHERE id = ?`, status, planID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, planID); err != nil {
			return err
		}
	}
	return nil
}

const planSelect = `SELECT id, library_id, name, description, plan_type, base_price,
       shift_pricing, zone_pricing, discount, features, status, is_popular, created_at, updated_at
  FROM fee_plans`

func scanPlan(row interface{ Scan(...any) error }) (*model.FeePlan, error) {
	var (
		p        model.FeePlan
		shift    sql.NullString
		zone     sql.NullString
		discount sql.NullString
		features sql.NullString
	)
	err := row.Scan(&p.ID, &p.LibraryID, &p.Name, &p.Description, &p.Type, &p.BasePrice,
		&shift, &zone, &discount, &features, &p.Status, &p.IsPopular, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := decodePlanJSON(&p, shift, zone, discount, features); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID retrieves a plan by id.
func (r *FeePlanRepo) GetByID(ctx context.Context, id uint64) (*model.FeePlan, error) {
	p, err := scanPlan(r.db.QueryRowContext(ctx, planSelect+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListByLibrary returns plans for a library.  When activeOnly is set,
// draft and inactive plans are filtered out (the public browse view);
// owners list everything.
func (r *FeePlanRepo) ListByLibrary(ctx context.Context, libraryID uint64, activeOnly bool) ([]*model.FeePlan, error) {
	q := planSelect + ` WHERE library_id = ?`
	args := []any{libraryID}
	if activeOnly {
		q += ` AND status = ?`
		args = append(args, model.PlanActive)
	}
	q += ` ORDER BY is_popular DESC, base_price`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*model.FeePlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

func encodePlanJSON(p *model.FeePlan) (shift, zone, discount, features any, err error) {
	marshal := func(v any) (any, error) {
		if v == nil {
			return nil, nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	if len(p.ShiftPricing) > 0 {
		if shift, err = marshal(p.ShiftPricing); err != nil {
			return
		}
	}
	if len(p.ZonePricing) > 0 {
		if zone, err = marshal(p.ZonePricing); err != nil {
			return
		}
	}
	if p.Discount != nil {
		if discount, err = marshal(p.Discount); err != nil {
			return
		}
	}
	if len(p.Features) > 0 {
		if features, err = marshal(p.Features); err != nil {
			return
		}
	}
	return
}

func decodePlanJSON(p *model.FeePlan, shift, zone, discount, features sql.NullString) error {
	if shift.Valid && shift.String != "" {
		if err := json.Unmarshal([]byte(shift.String), &p.ShiftPricing); err != nil {
			return err
		}
	}
	if zone.Valid && zone.String != "" {
		if err := json.Unmarshal([]byte(zone.String), &p.ZonePricing); err != nil {
			return err
		}
	}
	if discount.Valid && discount.String != "" {
		p.Discount = &model.Discount{}
		if err := json.Unmarshal([]byte(discount.String), p.Discount); err != nil {
			return err
		}
	}
	if features.Valid && features.String != "" {
		if err := json.Unmarshal([]byte(features.String), &p.Features); err != nil {
			return err
		}
	}
	return nil
}
