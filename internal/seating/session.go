// Package seating tracks the seats a group of passengers is choosing
// during one checkout attempt.  A session guarantees that no two
// passengers hold the same seat and that each passenger holds at most one.
package seating

import (
	"sort"
	"sync"

	"github.com/iliyamo/tour-seat-planner/internal/model"
	"github.com/iliyamo/tour-seat-planner/internal/pricing"
)

// State is the lifecycle position of a session.
type State int

const (
	StateEmpty State = iota
	StatePartial
	StateComplete
	StateConfirmed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePartial:
		return "partial"
	case StateComplete:
		return "complete"
	case StateConfirmed:
		return "confirmed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Terminal reports whether no further mutation is possible.
func (s State) Terminal() bool { return s == StateConfirmed || s == StateCancelled }

// Confirmation is the immutable result of a successful Confirm.
type Confirmation struct {
	Reservations   []model.SeatReservation `json:"reservations"`
	TotalSurcharge model.Money             `json:"total_surcharge_cents"`
}

// Seats returns the confirmed seats in passenger order.
func (c Confirmation) Seats() []model.SeatID {
	out := make([]model.SeatID, 0, len(c.Reservations))
	for _, r := range c.Reservations {
		out = append(out, r.Seat)
	}
	return out
}

// Session is safe for concurrent use.
type Session struct {
	mu          sync.Mutex
	id          string
	layout      *model.BusLayout
	pricing     model.SeatPricing
	engine      pricing.Engine
	passengers  int
	bySeat      map[model.SeatID]int
	byPassenger map[int]model.SeatID
	closed      State // StateConfirmed or StateCancelled once terminal, zero otherwise
}

// NewSession opens a session for passengerCount passengers choosing
// seats in layout.
func NewSession(id string, layout *model.BusLayout, seatPricing model.SeatPricing, engine pricing.Engine, passengerCount int) (*Session, error) {
	if passengerCount < 1 {
		return nil, ErrNoPassengers
	}
	return &Session{
		id:          id,
		layout:      layout,
		pricing:     seatPricing,
		engine:      engine,
		passengers:  passengerCount,
		bySeat:      make(map[model.SeatID]int, passengerCount),
		byPassenger: make(map[int]model.SeatID, passengerCount),
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// PassengerCount returns N.
func (s *Session) PassengerCount() int { return s.passengers }

// Layout returns the layout seats are chosen from.
func (s *Session) Layout() *model.BusLayout { return s.layout }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	if s.closed.Terminal() {
		return s.closed
	}
	switch n := len(s.byPassenger); {
	case n == 0:
		return StateEmpty
	case n < s.passengers:
		return StatePartial
	default:
		return StateComplete
	}
}

// SelectSeat assigns seat to passenger, replacing any seat the passenger
// held before.  On error the session is left exactly as it was.
func (s *Session) SelectSeat(passenger int, seat model.SeatID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Terminal() {
		return ErrSessionClosed
	}
	if passenger < 0 || passenger >= s.passengers {
		return ErrInvalidPassenger
	}
	if !s.layout.Contains(seat) {
		return ErrSeatNotInLayout
	}
	if holder, ok := s.bySeat[seat]; ok {
		if holder == passenger {
			return nil
		}
		return &SeatTakenError{Seat: seat, HeldBy: holder, Requester: passenger}
	}
	if prev, ok := s.byPassenger[passenger]; ok {
		delete(s.bySeat, prev)
	}
	s.byPassenger[passenger] = seat
	s.bySeat[seat] = passenger
	return nil
}

// DeselectSeat drops the passenger's seat; it is a no-op when the
// passenger holds none.
func (s *Session) DeselectSeat(passenger int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Terminal() {
		return ErrSessionClosed
	}
	if passenger < 0 || passenger >= s.passengers {
		return ErrInvalidPassenger
	}
	if seat, ok := s.byPassenger[passenger]; ok {
		delete(s.byPassenger, passenger)
		delete(s.bySeat, seat)
	}
	return nil
}

// Confirm closes a Complete session and returns its reservations and
// total surcharge.  Any other state yields *IncompleteSelectionError.
func (s *Session) Confirm() (Confirmation, error) {
	return s.ConfirmWith(nil)
}

// ConfirmWith is Confirm with a commit step: record runs with the
// confirmation while the session is locked, and the session only closes
// when record returns nil.  A failing record leaves the session Complete.
func (s *Session) ConfirmWith(record func(Confirmation) error) (Confirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateLocked()
	if st != StateComplete {
		return Confirmation{}, &IncompleteSelectionError{State: st, Selected: len(s.byPassenger), Required: s.passengers}
	}
	res := s.reservationsLocked()
	seats := make([]model.SeatID, 0, len(res))
	for _, r := range res {
		seats = append(seats, r.Seat)
	}
	conf := Confirmation{
		Reservations:   res,
		TotalSurcharge: s.engine.TotalSurcharge(seats, s.layout, s.pricing),
	}
	if record != nil {
		if err := record(conf); err != nil {
			return Confirmation{}, err
		}
	}
	s.closed = StateConfirmed
	return conf, nil
}

// Cancel clears every reservation and closes the session.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Terminal() {
		return ErrSessionClosed
	}
	clear(s.bySeat)
	clear(s.byPassenger)
	s.closed = StateCancelled
	return nil
}

// Reservations returns the current claims ordered by passenger index.
func (s *Session) Reservations() []model.SeatReservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reservationsLocked()
}

func (s *Session) reservationsLocked() []model.SeatReservation {
	out := make([]model.SeatReservation, 0, len(s.byPassenger))
	for p, seat := range s.byPassenger {
		out = append(out, model.SeatReservation{PassengerIndex: p, Seat: seat})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PassengerIndex < out[j].PassengerIndex })
	return out
}

// View is a point-in-time description of a session for clients.
type View struct {
	ID             string                  `json:"id"`
	State          State                   `json:"state"`
	PassengerCount int                     `json:"passenger_count"`
	Reservations   []model.SeatReservation `json:"reservations"`
	Surcharge      model.Money             `json:"surcharge_preview_cents"`
}

// View previews the surcharge of the seats chosen so far.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.reservationsLocked()
	seats := make([]model.SeatID, 0, len(res))
	for _, r := range res {
		seats = append(seats, r.Seat)
	}
	return View{
		ID:             s.id,
		State:          s.stateLocked(),
		PassengerCount: s.passengers,
		Reservations:   res,
		Surcharge:      s.engine.TotalSurcharge(seats, s.layout, s.pricing),
	}
}
