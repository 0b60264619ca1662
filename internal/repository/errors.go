// Package repository contains the MySQL and Redis backed data access used
// by the planner.  Not-found errors wrap model.ErrNotFound so the domain
// layer can recognise them; ErrForbidden signals an ownership mismatch
// that handlers translate into HTTP 403.
package repository

import (
	"errors"
	"fmt"

	"github.com/iliyamo/tour-seat-planner/internal/model"
)

var (
	ErrTripPlanNotFound = fmt.Errorf("trip plan %w", model.ErrNotFound)
	ErrLayoutNotFound   = fmt.Errorf("bus layout %w", model.ErrNotFound)
	ErrPackageNotFound  = fmt.Errorf("service package %w", model.ErrNotFound)

	// ErrForbidden is returned when a supplier tries to overwrite a
	// layout published by another supplier.
	ErrForbidden = errors.New("forbidden")
)
