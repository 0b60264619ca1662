package budget

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tour-seat-planner/internal/cart"
	"github.com/iliyamo/tour-seat-planner/internal/model"
	"github.com/iliyamo/tour-seat-planner/internal/timeline"
)

type mockSource struct{ mock.Mock }

func (m *mockSource) Plan(ctx context.Context, planID string) (model.TripPlan, error) {
	args := m.Called(ctx, planID)
	return args.Get(0).(model.TripPlan), args.Error(1)
}

func (m *mockSource) PlansByOwner(ctx context.Context, ownerID string) ([]model.TripPlan, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]model.TripPlan), args.Error(1)
}

func (m *mockSource) PlanTotals(ctx context.Context, planID string) (cart.Totals, timeline.Summary, error) {
	args := m.Called(ctx, planID)
	return args.Get(0).(cart.Totals), args.Get(1).(timeline.Summary), args.Error(2)
}

func money(v model.Money) *model.Money { return &v }

func stubTotals(src *mockSource, planID string, cartTotal, timelineTotal model.Money) {
	src.On("PlanTotals", mock.Anything, planID).Return(cart.Totals{Total: cartTotal}, timeline.Summary{TotalCost: timelineTotal}, nil)
}

func TestTracker_OverBudget(t *testing.T) {
	src := new(mockSource)
	src.On("Plan", mock.Anything, "p1").Return(model.TripPlan{ID: "p1", Budget: money(1000)}, nil)
	stubTotals(src, "p1", 400, 700)

	tr := NewTracker(src)
	total, err := tr.CombinedTotal(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, model.Money(1100), total)

	st, err := tr.Status(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, KindTracked, st.Kind)
	assert.False(t, st.WithinBudget)
	assert.Zero(t, st.Remaining)
	assert.InDelta(t, 1.1, st.PercentUsed, 1e-9)
	src.AssertExpectations(t)
}

func TestTracker_WithinBudget(t *testing.T) {
	src := new(mockSource)
	src.On("Plan", mock.Anything, "p1").Return(model.TripPlan{ID: "p1", Budget: money(2000)}, nil)
	stubTotals(src, "p1", 400, 600)

	st, err := NewTracker(src).Status(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, st.WithinBudget)
	assert.Equal(t, model.Money(1000), st.Remaining)
	assert.InDelta(t, 0.5, st.PercentUsed, 1e-9)
	// cart and timeline come from a single read
	src.AssertNumberOfCalls(t, "PlanTotals", 1)
}

func TestTracker_NoBudgetIsUnbounded(t *testing.T) {
	src := new(mockSource)
	src.On("Plan", mock.Anything, "p1").Return(model.TripPlan{ID: "p1"}, nil)
	stubTotals(src, "p1", 5000, 0)

	st, err := NewTracker(src).Status(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, KindUnbounded, st.Kind)
	assert.True(t, st.WithinBudget)
	assert.Nil(t, st.Budget)
	assert.Equal(t, model.Money(5000), st.CombinedTotal)
}

func TestEvaluate_ZeroBudget(t *testing.T) {
	st := Status{CombinedTotal: 10}
	Evaluate(&st, money(0))
	assert.Equal(t, KindExceeded, st.Kind)
	assert.False(t, st.WithinBudget)
	assert.Zero(t, st.PercentUsed)

	st = Status{}
	Evaluate(&st, money(0))
	assert.Equal(t, KindTracked, st.Kind)
	assert.True(t, st.WithinBudget)
}

func TestTracker_Overview(t *testing.T) {
	src := new(mockSource)
	src.On("PlansByOwner", mock.Anything, "u1").Return([]model.TripPlan{
		{ID: "p1", Budget: money(1000)},
		{ID: "p2"},
	}, nil)
	stubTotals(src, "p1", 100, 100)
	stubTotals(src, "p2", 0, 50)

	list, err := NewTracker(src).Overview(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, model.Money(800), list[0].Remaining)
	assert.Equal(t, KindUnbounded, list[1].Kind)
}

func TestTracker_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	src := new(mockSource)
	src.On("Plan", mock.Anything, "p1").Return(model.TripPlan{ID: "p1"}, nil)
	src.On("PlanTotals", mock.Anything, "p1").Return(cart.Totals{}, timeline.Summary{}, boom)

	_, err := NewTracker(src).Status(context.Background(), "p1")
	assert.ErrorIs(t, err, boom)
}
