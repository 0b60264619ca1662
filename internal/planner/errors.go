package planner

import (
	"errors"
	"fmt"
)

var (
	ErrPlanNotFound    = errors.New("trip plan not found")
	ErrSessionNotFound = errors.New("seat session not found")
	ErrForbidden       = errors.New("trip plan belongs to another user")
	ErrStoreClosed     = errors.New("plan store is closed")
	ErrInvalidPlan     = errors.New("invalid trip plan")
	ErrNoActivePlan    = errors.New("no active trip plan")
	ErrLayoutNotFound  = errors.New("no bus layout published for service")
)

// PersistenceError wraps a gateway failure.  Save failures are reported
// asynchronously and never roll back the in-memory mutation.
type PersistenceError struct {
	PlanID string
	Op     string // "save" or "load"
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist plan %s: %s: %v", e.PlanID, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
