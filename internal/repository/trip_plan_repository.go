package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/tour-seat-planner/internal/model"
)

// TripPlanRepo stores plan metadata in the trip_plans table.
type TripPlanRepo struct {
	db *sql.DB
}

// NewTripPlanRepo constructs a TripPlanRepo with the given DB handle.
func NewTripPlanRepo(db *sql.DB) *TripPlanRepo {
	return &TripPlanRepo{db: db}
}

const tripPlanColumns = `id, owner_id, name, destination, travelers, budget_cents, created_at`

// CreatePlan inserts a new plan.
func (r *TripPlanRepo) CreatePlan(ctx context.Context, p model.TripPlan) error {
	const q = `INSERT INTO trip_plans (` + tripPlanColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, p.ID, p.OwnerID, p.Name, p.Destination, p.Travelers, nullMoney(p.Budget), p.CreatedAt.UTC())
	return err
}

// GetPlan returns ErrTripPlanNotFound when no row matches.
func (r *TripPlanRepo) GetPlan(ctx context.Context, id string) (model.TripPlan, error) {
	const q = `SELECT ` + tripPlanColumns + ` FROM trip_plans WHERE id = ?`
	p, err := scanTripPlan(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.TripPlan{}, ErrTripPlanNotFound
	}
	return p, err
}

// ListByOwner returns the owner's plans, oldest first.
func (r *TripPlanRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.TripPlan, error) {
	const q = `SELECT ` + tripPlanColumns + ` FROM trip_plans WHERE owner_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.TripPlan
	for rows.Next() {
		p, err := scanTripPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateBudget sets or clears (nil) the budget.
func (r *TripPlanRepo) UpdateBudget(ctx context.Context, id string, budget *model.Money) error {
	const q = `UPDATE trip_plans SET budget_cents = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, nullMoney(budget), id)
	if err != nil {
		return err
	}
	// MySQL reports 0 affected rows when the value is unchanged, so only
	// a missing row is an error.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetPlan(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTripPlan(s rowScanner) (model.TripPlan, error) {
	var (
		p       model.TripPlan
		budget  sql.NullInt64
		created time.Time
	)
	if err := s.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Destination, &p.Travelers, &budget, &created); err != nil {
		return model.TripPlan{}, err
	}
	if budget.Valid {
		b := model.Money(budget.Int64)
		p.Budget = &b
	}
	p.CreatedAt = created.UTC()
	return p, nil
}

func nullMoney(m *model.Money) sql.NullInt64 {
	if m == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*m), Valid: true}
}
