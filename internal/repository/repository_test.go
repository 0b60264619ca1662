package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tour-seat-planner/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

var planCols = []string{"id", "owner_id", "name", "destination", "travelers", "budget_cents", "created_at"}

func TestTripPlanRepo_CreateAndGet(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTripPlanRepo(db)
	ctx := context.Background()
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	budget := model.Money(1000)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO trip_plans")).
		WithArgs("p1", "u1", "Patagonia", "Bariloche", 2, int64(1000), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.CreatePlan(ctx, model.TripPlan{
		ID: "p1", OwnerID: "u1", Name: "Patagonia", Destination: "Bariloche", Travelers: 2, Budget: &budget, CreatedAt: created,
	}))

	mock.ExpectQuery(regexp.QuoteMeta("FROM trip_plans WHERE id = ?")).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(planCols).AddRow("p1", "u1", "Patagonia", "Bariloche", 2, nil, created))
	p, err := repo.GetPlan(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.OwnerID)
	assert.Nil(t, p.Budget)
	assert.Equal(t, created, p.CreatedAt)

	mock.ExpectQuery(regexp.QuoteMeta("FROM trip_plans WHERE id = ?")).WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(planCols))
	_, err = repo.GetPlan(ctx, "nope")
	assert.ErrorIs(t, err, ErrTripPlanNotFound)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTripPlanRepo_ListByOwner(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE owner_id = ? ORDER BY created_at, id")).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(planCols).
			AddRow("p1", "u1", "A", "", 1, int64(500), now).
			AddRow("p2", "u1", "B", "", 3, nil, now))

	plans, err := NewTripPlanRepo(db).ListByOwner(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, plans, 2)
	require.NotNil(t, plans[0].Budget)
	assert.Equal(t, model.Money(500), *plans[0].Budget)
	assert.Equal(t, 3, plans[1].Travelers)
}

func TestTripPlanRepo_UpdateBudget(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTripPlanRepo(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE trip_plans SET budget_cents = ?")).WithArgs(nil, "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateBudget(ctx, "p1", nil))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE trip_plans")).WithArgs(int64(10), "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM trip_plans WHERE id = ?")).WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(planCols))
	ten := model.Money(10)
	assert.ErrorIs(t, repo.UpdateBudget(ctx, "ghost", &ten), ErrTripPlanNotFound)
}

func TestPlanStateRepo_SaveAndLoad(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPlanStateRepo(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO trip_plan_states")).
		WithArgs("p1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Save(ctx, "p1", model.PlanState{Cart: model.CartState{Taxes: 5}}))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT state FROM trip_plan_states")).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow([]byte(`{"cart":{"items":[],"taxes_cents":5,"discount_cents":0},"timeline":[]}`)))
	st, err := repo.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, model.Money(5), st.Cart.Taxes)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT state FROM trip_plan_states")).WithArgs("p2").
		WillReturnRows(sqlmock.NewRows([]string{"state"}))
	st, err = repo.Load(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, model.PlanState{}, st)
}

var layoutCols = []string{"supplier_id", "total_rows", "seats_per_row", "aisle_positions", "exit_rows", "standard_cents", "front_cents", "table_cents"}

func TestBusLayoutRepo_PublishAndGet(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBusLayoutRepo(db)
	ctx := context.Background()
	layout, err := model.NewBusLayout(12, 4, []string{"C"}, []int{12, 6})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT supplier_id FROM bus_layouts")).WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"supplier_id"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bus_layouts")).
		WithArgs("t1", "sup-1", 12, 4, "C", "6,12", int64(0), int64(25), int64(15)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Publish(ctx, PublishedLayout{
		ServiceID: "t1", SupplierID: "sup-1", Layout: layout,
		Pricing: model.SeatPricing{Front: 25, Table: 15},
	}))

	mock.ExpectQuery(regexp.QuoteMeta("FROM bus_layouts WHERE service_id = ?")).WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(layoutCols).AddRow("sup-1", 12, 4, "C", "6,12", 0, 25, 15))
	l, pricing, err := repo.GetLayout(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []int{6, 12}, l.ExitRows())
	assert.Equal(t, model.Money(25), pricing.Front)

	mock.ExpectQuery(regexp.QuoteMeta("FROM bus_layouts WHERE service_id = ?")).WithArgs("t2").
		WillReturnRows(sqlmock.NewRows(layoutCols))
	_, _, err = repo.GetLayout(ctx, "t2")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestBusLayoutRepo_PublishRejectsOtherSupplier(t *testing.T) {
	db, mock := newMock(t)
	layout, err := model.NewBusLayout(10, 4, nil, nil)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT supplier_id FROM bus_layouts")).WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"supplier_id"}).AddRow("sup-2"))
	mock.ExpectRollback()

	err = NewBusLayoutRepo(db).Publish(context.Background(), PublishedLayout{ServiceID: "t1", SupplierID: "sup-1", Layout: layout})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestBusLayoutRepo_GetRejectsCorruptRow(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM bus_layouts")).WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(layoutCols).AddRow("sup-1", 5, 4, "", "9", 0, 0, 0))

	_, err := NewBusLayoutRepo(db).Get(context.Background(), "t1")
	var cfgErr *model.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestPackageRepo(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPackageRepo(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO service_packages")).WithArgs("t1", "Doble", int64(30000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.PutPackage(ctx, "t1", "Doble", 30000))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT price_cents FROM service_packages")).WithArgs("t1", "Doble").
		WillReturnRows(sqlmock.NewRows([]string{"price_cents"}).AddRow(int64(30000)))
	price, err := repo.GetPackagePrice(ctx, "t1", "Doble")
	require.NoError(t, err)
	assert.Equal(t, model.Money(30000), price)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT price_cents FROM service_packages")).WithArgs("t1", "Suite").
		WillReturnRows(sqlmock.NewRows([]string{"price_cents"}))
	_, err = repo.GetPackagePrice(ctx, "t1", "Suite")
	assert.ErrorIs(t, err, ErrPackageNotFound)
}
