package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBusLayout_SeatsAreRowMajor(t *testing.T) {
	l, err := NewBusLayout(2, 3, []string{"b"}, nil)
	require.NoError(t, err)

	var got []string
	for _, s := range l.Seats() {
		got = append(got, s.String())
	}
	assert.Equal(t, []string{"1A", "1B", "1C", "2A", "2B", "2C"}, got)
	assert.Equal(t, []string{"A", "B", "C"}, l.Columns())
	assert.True(t, l.AisleAfter("B"))
	assert.False(t, l.AisleAfter("A"))
}

func TestNewBusLayout_AisleDoesNotRemoveSeats(t *testing.T) {
	l, err := NewBusLayout(12, 4, []string{"C"}, []int{6, 12})
	require.NoError(t, err)

	assert.Len(t, l.Seats(), 48)
	assert.True(t, l.Contains(SeatID{Row: 3, Column: "C"}))
	assert.Equal(t, []int{6, 12}, l.ExitRows())
}

func TestNewBusLayout_WideRowsUseDoubleLetters(t *testing.T) {
	l, err := NewBusLayout(1, 28, nil, nil)
	require.NoError(t, err)

	cols := l.Columns()
	assert.Equal(t, "Z", cols[25])
	assert.Equal(t, "AA", cols[26])
	assert.Equal(t, "AB", cols[27])
	assert.True(t, l.Contains(SeatID{Row: 1, Column: "AB"}))
	assert.False(t, l.Contains(SeatID{Row: 1, Column: "AC"}))
}

func TestNewBusLayout_RejectsMalformedInput(t *testing.T) {
	cases := []struct {
		name     string
		rows     int
		perRow   int
		aisles   []string
		exitRows []int
		field    string
	}{
		{"zero rows", 0, 4, nil, nil, "total_rows"},
		{"negative seats", 10, -1, nil, nil, "seats_per_row"},
		{"exit row past end", 10, 4, nil, []int{11}, "exit_rows"},
		{"exit row zero", 10, 4, nil, []int{0}, "exit_rows"},
		{"aisle outside grid", 10, 4, []string{"E"}, nil, "aisle_positions"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBusLayout(tc.rows, tc.perRow, tc.aisles, tc.exitRows)
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got %v", err)
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestBusLayout_ContainsBounds(t *testing.T) {
	l, err := NewBusLayout(3, 2, nil, nil)
	require.NoError(t, err)

	assert.False(t, l.Contains(SeatID{Row: 0, Column: "A"}))
	assert.False(t, l.Contains(SeatID{Row: 4, Column: "A"}))
	assert.False(t, l.Contains(SeatID{Row: 1, Column: "C"}))
	assert.False(t, l.Contains(SeatID{Row: 1, Column: ""}))
	assert.True(t, l.Contains(SeatID{Row: 3, Column: "B"}))
}

func TestBusLayout_JSONRoundTripValidates(t *testing.T) {
	l, err := NewBusLayout(12, 4, []string{"C"}, []int{12, 6})
	require.NoError(t, err)

	b, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_rows":12,"seats_per_row":4,"aisle_positions":["C"],"exit_rows":[6,12]}`, string(b))

	var bad BusLayout
	err = json.Unmarshal([]byte(`{"total_rows":2,"seats_per_row":4,"exit_rows":[3]}`), &bad)
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestParseSeatID(t *testing.T) {
	s, err := ParseSeatID("12c")
	require.NoError(t, err)
	assert.Equal(t, SeatID{Row: 12, Column: "C"}, s)

	for _, raw := range []string{"", "C", "12", "1-A", "A1"} {
		_, err := ParseSeatID(raw)
		assert.Error(t, err, raw)
	}
}
