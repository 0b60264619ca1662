package seating

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tour-seat-planner/internal/model"
	"github.com/iliyamo/tour-seat-planner/internal/pricing"
)

func seat(row int, col string) model.SeatID { return model.SeatID{Row: row, Column: col} }

func newTestSession(t *testing.T, passengers int) *Session {
	t.Helper()
	l, err := model.NewBusLayout(12, 4, []string{"C"}, []int{6, 12})
	require.NoError(t, err)
	s, err := NewSession("s-1", l, model.SeatPricing{Standard: 0, Front: 25, Table: 15}, pricing.NewEngine(0), passengers)
	require.NoError(t, err)
	return s
}

func TestSession_TwoPassengerScenario(t *testing.T) {
	s := newTestSession(t, 2)
	assert.Equal(t, StateEmpty, s.State())

	require.NoError(t, s.SelectSeat(0, seat(1, "A")))
	assert.Equal(t, StatePartial, s.State())

	err := s.SelectSeat(1, seat(1, "A"))
	var taken *SeatTakenError
	require.True(t, errors.As(err, &taken))
	assert.Equal(t, 0, taken.HeldBy)
	assert.Equal(t, []model.SeatReservation{{PassengerIndex: 0, Seat: seat(1, "A")}}, s.Reservations())

	require.NoError(t, s.SelectSeat(1, seat(2, "A")))
	assert.Equal(t, StateComplete, s.State())

	conf, err := s.Confirm()
	require.NoError(t, err)
	assert.Equal(t, model.Money(50), conf.TotalSurcharge)
	assert.Equal(t, []model.SeatID{seat(1, "A"), seat(2, "A")}, conf.Seats())
	assert.Equal(t, StateConfirmed, s.State())
}

func TestSession_SelectReplacesPreviousSeat(t *testing.T) {
	s := newTestSession(t, 2)
	require.NoError(t, s.SelectSeat(0, seat(4, "A")))
	require.NoError(t, s.SelectSeat(0, seat(5, "B")))

	assert.Equal(t, []model.SeatReservation{{PassengerIndex: 0, Seat: seat(5, "B")}}, s.Reservations())
	// the released seat is available to the other passenger
	require.NoError(t, s.SelectSeat(1, seat(4, "A")))
}

func TestSession_SelectSameSeatTwiceIsNoop(t *testing.T) {
	s := newTestSession(t, 1)
	require.NoError(t, s.SelectSeat(0, seat(7, "D")))
	require.NoError(t, s.SelectSeat(0, seat(7, "D")))
	assert.Len(t, s.Reservations(), 1)
}

func TestSession_RejectsInvalidInput(t *testing.T) {
	s := newTestSession(t, 2)
	assert.ErrorIs(t, s.SelectSeat(2, seat(1, "A")), ErrInvalidPassenger)
	assert.ErrorIs(t, s.SelectSeat(-1, seat(1, "A")), ErrInvalidPassenger)
	assert.ErrorIs(t, s.SelectSeat(0, seat(13, "A")), ErrSeatNotInLayout)
	assert.ErrorIs(t, s.SelectSeat(0, seat(1, "E")), ErrSeatNotInLayout)
	assert.Equal(t, StateEmpty, s.State())

	_, err := NewSession("x", s.Layout(), model.SeatPricing{}, pricing.NewEngine(0), 0)
	assert.ErrorIs(t, err, ErrNoPassengers)
}

func TestSession_DeselectIsNoopWhenAbsent(t *testing.T) {
	s := newTestSession(t, 2)
	require.NoError(t, s.DeselectSeat(1))
	require.NoError(t, s.SelectSeat(1, seat(9, "C")))
	require.NoError(t, s.DeselectSeat(1))
	assert.Empty(t, s.Reservations())
	assert.Equal(t, StateEmpty, s.State())
}

func TestSession_ConfirmRequiresEveryPassenger(t *testing.T) {
	s := newTestSession(t, 3)
	_, err := s.Confirm()
	var inc *IncompleteSelectionError
	require.True(t, errors.As(err, &inc))
	assert.Equal(t, StateEmpty, inc.State)

	require.NoError(t, s.SelectSeat(0, seat(8, "A")))
	require.NoError(t, s.SelectSeat(1, seat(8, "B")))
	_, err = s.Confirm()
	require.True(t, errors.As(err, &inc))
	assert.Equal(t, 2, inc.Selected)
	assert.Equal(t, 3, inc.Required)
	// failed confirm leaves the session open
	assert.Equal(t, StatePartial, s.State())
}

func TestSession_ConfirmWithFailingRecordStaysComplete(t *testing.T) {
	s := newTestSession(t, 1)
	require.NoError(t, s.SelectSeat(0, seat(1, "B")))
	boom := errors.New("record failed")

	_, err := s.ConfirmWith(func(c Confirmation) error {
		assert.Equal(t, model.Money(25), c.TotalSurcharge)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateComplete, s.State())

	var recorded Confirmation
	conf, err := s.ConfirmWith(func(c Confirmation) error {
		recorded = c
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, recorded, conf)
	assert.Equal(t, StateConfirmed, s.State())
}

func TestSession_CancelClearsAndCloses(t *testing.T) {
	s := newTestSession(t, 2)
	require.NoError(t, s.SelectSeat(0, seat(1, "A")))
	require.NoError(t, s.Cancel())

	assert.Empty(t, s.Reservations())
	assert.Equal(t, StateCancelled, s.State())
	assert.ErrorIs(t, s.SelectSeat(1, seat(2, "A")), ErrSessionClosed)
	assert.ErrorIs(t, s.DeselectSeat(0), ErrSessionClosed)
	assert.ErrorIs(t, s.Cancel(), ErrSessionClosed)

	_, err := s.Confirm()
	var inc *IncompleteSelectionError
	assert.True(t, errors.As(err, &inc))
}

func TestSession_CannotCancelAfterConfirm(t *testing.T) {
	s := newTestSession(t, 1)
	require.NoError(t, s.SelectSeat(0, seat(10, "B")))
	_, err := s.Confirm()
	require.NoError(t, err)
	assert.ErrorIs(t, s.Cancel(), ErrSessionClosed)
}

func TestSession_RandomizedNoSharedSeats(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := newTestSession(t, 6)
	seats := s.Layout().Seats()[:10]

	for i := 0; i < 2000; i++ {
		p := rng.Intn(6)
		if rng.Intn(4) == 0 {
			require.NoError(t, s.DeselectSeat(p))
		} else {
			err := s.SelectSeat(p, seats[rng.Intn(len(seats))])
			if err != nil {
				var taken *SeatTakenError
				require.True(t, errors.As(err, &taken))
			}
		}

		res := s.Reservations()
		distinct := make(map[model.SeatID]bool, len(res))
		passengers := make(map[int]bool, len(res))
		for _, r := range res {
			distinct[r.Seat] = true
			passengers[r.PassengerIndex] = true
		}
		require.Equal(t, len(res), len(distinct), "duplicate seat after step %d", i)
		require.Equal(t, len(res), len(passengers), "duplicate passenger after step %d", i)
	}
}

func TestSession_ViewPreviewsSurcharge(t *testing.T) {
	s := newTestSession(t, 2)
	require.NoError(t, s.SelectSeat(0, seat(6, "A")))
	v := s.View()
	assert.Equal(t, "s-1", v.ID)
	assert.Equal(t, StatePartial, v.State)
	assert.Equal(t, model.Money(15), v.Surcharge)
}
