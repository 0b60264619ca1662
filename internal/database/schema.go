package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema lists the CREATE TABLE statements applied by EnsureSchema, in
// dependency order.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS trip_plans (
		id           CHAR(36)     NOT NULL PRIMARY KEY,
		owner_id     VARCHAR(64)  NOT NULL,
		name         VARCHAR(200) NOT NULL,
		destination  VARCHAR(200) NOT NULL DEFAULT '',
		travelers    INT UNSIGNED NOT NULL,
		budget_cents BIGINT       NULL,
		created_at   DATETIME     NOT NULL,
		INDEX idx_trip_plans_owner (owner_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS trip_plan_states (
		trip_plan_id CHAR(36) NOT NULL PRIMARY KEY,
		state        JSON     NOT NULL,
		updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_states_plan FOREIGN KEY (trip_plan_id) REFERENCES trip_plans(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bus_layouts (
		service_id      VARCHAR(64)  NOT NULL PRIMARY KEY,
		supplier_id     VARCHAR(64)  NOT NULL,
		total_rows      INT UNSIGNED NOT NULL,
		seats_per_row   INT UNSIGNED NOT NULL,
		aisle_positions VARCHAR(255) NOT NULL DEFAULT '',
		exit_rows       VARCHAR(255) NOT NULL DEFAULT '',
		standard_cents  BIGINT       NOT NULL DEFAULT 0,
		front_cents     BIGINT       NOT NULL DEFAULT 0,
		table_cents     BIGINT       NOT NULL DEFAULT 0,
		updated_at      DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS service_packages (
		service_id   VARCHAR(64)  NOT NULL,
		package_name VARCHAR(100) NOT NULL,
		price_cents  BIGINT       NOT NULL,
		PRIMARY KEY (service_id, package_name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates any missing table.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
