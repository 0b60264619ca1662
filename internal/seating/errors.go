package seating

import (
	"errors"
	"fmt"

	"github.com/iliyamo/tour-seat-planner/internal/model"
)

var (
	// ErrSessionClosed is returned by any mutation on a confirmed or
	// cancelled session.
	ErrSessionClosed = errors.New("seat session is closed")
	// ErrInvalidPassenger is returned for a passenger index outside [0, N).
	ErrInvalidPassenger = errors.New("passenger index out of range")
	// ErrSeatNotInLayout is returned when a seat does not exist in the layout.
	ErrSeatNotInLayout = errors.New("seat is not part of the layout")
	// ErrNoPassengers is returned when a session is opened for zero passengers.
	ErrNoPassengers = errors.New("a seat session needs at least one passenger")
)

// SeatTakenError reports that another passenger of the same session
// already holds the requested seat.
type SeatTakenError struct {
	Seat      model.SeatID
	HeldBy    int // passenger index that holds the seat
	Requester int // passenger index that asked for it
}

func (e *SeatTakenError) Error() string {
	return fmt.Sprintf("seat %s is already taken by passenger %d", e.Seat, e.HeldBy)
}

// IncompleteSelectionError is returned by Confirm when not every
// passenger has a seat, or when the session is no longer open.
type IncompleteSelectionError struct {
	State    State
	Selected int
	Required int
}

func (e *IncompleteSelectionError) Error() string {
	return fmt.Sprintf("cannot confirm seat selection in state %s: %d of %d passengers seated", e.State, e.Selected, e.Required)
}
