package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/tour-seat-planner/internal/model"
)

// PlanStateRepo persists the cart and timeline of each plan as one JSON
// document in trip_plan_states.
type PlanStateRepo struct {
	db *sql.DB
}

// NewPlanStateRepo constructs a PlanStateRepo with the given DB handle.
func NewPlanStateRepo(db *sql.DB) *PlanStateRepo {
	return &PlanStateRepo{db: db}
}

// Save upserts the state of planID.
func (r *PlanStateRepo) Save(ctx context.Context, planID string, state model.PlanState) error {
	body, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode plan state: %w", err)
	}
	const q = `INSERT INTO trip_plan_states (trip_plan_id, state) VALUES (?, ?)
	           ON DUPLICATE KEY UPDATE state = VALUES(state)`
	_, err = r.db.ExecContext(ctx, q, planID, body)
	return err
}

// Load returns an empty state for a plan that was never saved.
func (r *PlanStateRepo) Load(ctx context.Context, planID string) (model.PlanState, error) {
	const q = `SELECT state FROM trip_plan_states WHERE trip_plan_id = ?`
	var body []byte
	err := r.db.QueryRowContext(ctx, q, planID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PlanState{}, nil
	}
	if err != nil {
		return model.PlanState{}, err
	}
	var st model.PlanState
	if err := json.Unmarshal(body, &st); err != nil {
		return model.PlanState{}, fmt.Errorf("decode plan state %s: %w", planID, err)
	}
	return st, nil
}
