package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iliyamo/tour-seat-planner/internal/model"
)

// PublishedLayout is a bus layout together with the supplier who
// published it and its tier surcharges.
type PublishedLayout struct {
	ServiceID  string
	SupplierID string
	Layout     *model.BusLayout
	Pricing    model.SeatPricing
}

// BusLayoutRepo stores one layout per tour service.  Aisle positions and
// exit rows are kept as comma separated lists.
type BusLayoutRepo struct {
	db *sql.DB
}

// NewBusLayoutRepo constructs a BusLayoutRepo with the given DB handle.
func NewBusLayoutRepo(db *sql.DB) *BusLayoutRepo {
	return &BusLayoutRepo{db: db}
}

// Publish creates or replaces the layout of p.ServiceID.  A layout
// already published by another supplier yields ErrForbidden.
func (r *BusLayoutRepo) Publish(ctx context.Context, p PublishedLayout) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var owner string
	err = tx.QueryRowContext(ctx, `SELECT supplier_id FROM bus_layouts WHERE service_id = ? FOR UPDATE`, p.ServiceID).Scan(&owner)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return err
	case owner != p.SupplierID:
		return ErrForbidden
	}

	const q = `INSERT INTO bus_layouts
	               (service_id, supplier_id, total_rows, seats_per_row, aisle_positions, exit_rows, standard_cents, front_cents, table_cents)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	               total_rows = VALUES(total_rows), seats_per_row = VALUES(seats_per_row),
	               aisle_positions = VALUES(aisle_positions), exit_rows = VALUES(exit_rows),
	               standard_cents = VALUES(standard_cents), front_cents = VALUES(front_cents), table_cents = VALUES(table_cents)`
	l := p.Layout
	if _, err := tx.ExecContext(ctx, q, p.ServiceID, p.SupplierID, l.TotalRows(), l.SeatsPerRow(),
		strings.Join(l.AislePositions(), ","), joinInts(l.ExitRows()),
		int64(p.Pricing.Standard), int64(p.Pricing.Front), int64(p.Pricing.Table)); err != nil {
		return err
	}
	return tx.Commit()
}

// Get returns the published layout of serviceID.
func (r *BusLayoutRepo) Get(ctx context.Context, serviceID string) (PublishedLayout, error) {
	const q = `SELECT supplier_id, total_rows, seats_per_row, aisle_positions, exit_rows, standard_cents, front_cents, table_cents
	           FROM bus_layouts WHERE service_id = ?`
	p := PublishedLayout{ServiceID: serviceID}
	var (
		rows, perRow  int
		aisles, exits string
		std, fr, tbl  int64
	)
	err := r.db.QueryRowContext(ctx, q, serviceID).Scan(&p.SupplierID, &rows, &perRow, &aisles, &exits, &std, &fr, &tbl)
	if errors.Is(err, sql.ErrNoRows) {
		return PublishedLayout{}, ErrLayoutNotFound
	}
	if err != nil {
		return PublishedLayout{}, err
	}
	exitRows, err := splitInts(exits)
	if err != nil {
		return PublishedLayout{}, fmt.Errorf("layout %s: exit_rows: %w", serviceID, err)
	}
	p.Layout, err = model.NewBusLayout(rows, perRow, splitList(aisles), exitRows)
	if err != nil {
		return PublishedLayout{}, fmt.Errorf("layout %s: %w", serviceID, err)
	}
	p.Pricing = model.SeatPricing{Standard: model.Money(std), Front: model.Money(fr), Table: model.Money(tbl)}
	return p, nil
}

// GetLayout satisfies planner.LayoutSource.
func (r *BusLayoutRepo) GetLayout(ctx context.Context, serviceID string) (*model.BusLayout, model.SeatPricing, error) {
	p, err := r.Get(ctx, serviceID)
	if err != nil {
		return nil, model.SeatPricing{}, err
	}
	return p.Layout, p.Pricing, nil
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitInts(s string) ([]int, error) {
	var out []int
	for _, p := range splitList(s) {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
