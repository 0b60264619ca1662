// Package budget compares what a trip plan has committed to spend against
// the plan's optional budget.
package budget

import (
	"context"
	"fmt"

	"github.com/iliyamo/tour-seat-planner/internal/cart"
	"github.com/iliyamo/tour-seat-planner/internal/model"
	"github.com/iliyamo/tour-seat-planner/internal/timeline"
)

// Source exposes the live state the tracker reads.  planner.Store is the
// production implementation.
type Source interface {
	Plan(ctx context.Context, planID string) (model.TripPlan, error)
	PlansByOwner(ctx context.Context, ownerID string) ([]model.TripPlan, error)
	// PlanTotals reads the cart totals and the timeline summary of planID
	// from one state, with no mutation landing between the two.
	PlanTotals(ctx context.Context, planID string) (cart.Totals, timeline.Summary, error)
}

// Kind classifies a status.
type Kind string

const (
	// KindUnbounded means the plan has no budget.
	KindUnbounded Kind = "unbounded"
	// KindTracked means a positive budget is set and PercentUsed is meaningful.
	KindTracked Kind = "tracked"
	// KindExceeded is reported for a zero budget with non-zero spending,
	// where a percentage cannot be computed.
	KindExceeded Kind = "exceeded"
)

// Status is the budget position of one plan.
type Status struct {
	PlanID        string       `json:"plan_id"`
	Kind          Kind         `json:"kind"`
	Budget        *model.Money `json:"budget_cents,omitempty"`
	CartTotal     model.Money  `json:"cart_total_cents"`
	TimelineTotal model.Money  `json:"timeline_total_cents"`
	CombinedTotal model.Money  `json:"combined_total_cents"`
	WithinBudget  bool         `json:"within_budget"`
	Remaining     model.Money  `json:"remaining_cents"`
	PercentUsed   float64      `json:"percent_used"`
}

// Tracker derives budget statuses on demand; it holds no state of its own.
type Tracker struct {
	src Source
}

// NewTracker returns a Tracker reading from src.
func NewTracker(src Source) *Tracker { return &Tracker{src: src} }

// CombinedTotal is the cart total plus the timeline cost of planID.
func (t *Tracker) CombinedTotal(ctx context.Context, planID string) (model.Money, error) {
	c, tl, err := t.totals(ctx, planID)
	if err != nil {
		return 0, err
	}
	return c + tl, nil
}

// Status evaluates planID against its budget.
func (t *Tracker) Status(ctx context.Context, planID string) (Status, error) {
	plan, err := t.src.Plan(ctx, planID)
	if err != nil {
		return Status{}, err
	}
	return t.status(ctx, plan)
}

// Overview evaluates every plan owned by ownerID.
func (t *Tracker) Overview(ctx context.Context, ownerID string) ([]Status, error) {
	plans, err := t.src.PlansByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(plans))
	for _, p := range plans {
		st, err := t.status(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (t *Tracker) status(ctx context.Context, plan model.TripPlan) (Status, error) {
	c, tl, err := t.totals(ctx, plan.ID)
	if err != nil {
		return Status{}, err
	}
	st := Status{
		PlanID:        plan.ID,
		CartTotal:     c,
		TimelineTotal: tl,
		CombinedTotal: c + tl,
	}
	Evaluate(&st, plan.Budget)
	return st, nil
}

// Evaluate fills the budget fields of st from its CombinedTotal.
func Evaluate(st *Status, budget *model.Money) {
	if budget == nil {
		st.Kind = KindUnbounded
		st.WithinBudget = true
		return
	}
	b := *budget
	st.Budget = &b
	spent := st.CombinedTotal
	st.WithinBudget = spent <= b
	st.Remaining, _ = (b - spent).FloorZero()
	if b == 0 {
		if spent > 0 {
			st.Kind = KindExceeded
		} else {
			st.Kind = KindTracked
		}
		return
	}
	st.Kind = KindTracked
	st.PercentUsed = float64(spent) / float64(b)
}

func (t *Tracker) totals(ctx context.Context, planID string) (model.Money, model.Money, error) {
	ct, ts, err := t.src.PlanTotals(ctx, planID)
	if err != nil {
		return 0, 0, fmt.Errorf("plan totals for %s: %w", planID, err)
	}
	return ct.Total, ts.TotalCost, nil
}
