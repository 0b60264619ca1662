package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/tour-seat-planner/internal/model"
)

// PackageRepo prices service packages (e.g. a tour's "Doble" room).
type PackageRepo struct {
	db *sql.DB
}

// NewPackageRepo constructs a PackageRepo with the given DB handle.
func NewPackageRepo(db *sql.DB) *PackageRepo {
	return &PackageRepo{db: db}
}

// GetPackagePrice returns ErrPackageNotFound for unknown packages.
func (r *PackageRepo) GetPackagePrice(ctx context.Context, serviceID, packageName string) (model.Money, error) {
	const q = `SELECT price_cents FROM service_packages WHERE service_id = ? AND package_name = ?`
	var cents int64
	err := r.db.QueryRowContext(ctx, q, serviceID, packageName).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrPackageNotFound
	}
	if err != nil {
		return 0, err
	}
	return model.Money(cents), nil
}

// PutPackage creates or reprices a package.
func (r *PackageRepo) PutPackage(ctx context.Context, serviceID, packageName string, price model.Money) error {
	const q = `INSERT INTO service_packages (service_id, package_name, price_cents) VALUES (?, ?, ?)
	           ON DUPLICATE KEY UPDATE price_cents = VALUES(price_cents)`
	_, err := r.db.ExecContext(ctx, q, serviceID, packageName, int64(price))
	return err
}
