package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SeatID addresses one seat of a bus layout by its 1-based row and its
// column label.  The canonical string form is the row followed by the
// column, e.g. "12C".
type SeatID struct {
	Row    int    `json:"row"`    // 1-based row number
	Column string `json:"column"` // column label A, B, ... Z, AA, ...
}

func (s SeatID) String() string { return strconv.Itoa(s.Row) + s.Column }

// ParseSeatID parses the canonical "12C" form.  Column letters are
// upper-cased.
func ParseSeatID(raw string) (SeatID, error) {
	s := strings.TrimSpace(raw)
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i == len(s) {
		return SeatID{}, fmt.Errorf("invalid seat id %q", raw)
	}
	row, err := strconv.Atoi(s[:i])
	if err != nil {
		return SeatID{}, fmt.Errorf("invalid seat id %q: %w", raw, err)
	}
	col := normalizeColumn(s[i:])
	if col == "" || len(col) != len(s[i:]) {
		return SeatID{}, fmt.Errorf("invalid seat id %q", raw)
	}
	return SeatID{Row: row, Column: col}, nil
}

// BusLayout describes the seat grid of one vehicle.  It is immutable once
// built: the fields are unexported and every accessor returns a copy, so
// a layout attached to a published service offering can be shared freely.
//
// Aisle positions are a rendering hint only.  They never remove a seat;
// AisleAfter tells a renderer to insert a visual gap after that column.
type BusLayout struct {
	totalRows   int
	seatsPerRow int
	columns     []string
	aisles      map[string]struct{}
	exitRows    map[int]struct{}
}

// NewBusLayout validates the grid description and builds a layout.  Any
// violation is reported as a *ConfigurationError.
func NewBusLayout(totalRows, seatsPerRow int, aislePositions []string, exitRows []int) (*BusLayout, error) {
	if totalRows <= 0 {
		return nil, &ConfigurationError{Field: "total_rows", Reason: "must be greater than zero"}
	}
	if seatsPerRow <= 0 {
		return nil, &ConfigurationError{Field: "seats_per_row", Reason: "must be greater than zero"}
	}
	l := &BusLayout{
		totalRows:   totalRows,
		seatsPerRow: seatsPerRow,
		columns:     make([]string, 0, seatsPerRow),
		aisles:      make(map[string]struct{}, len(aislePositions)),
		exitRows:    make(map[int]struct{}, len(exitRows)),
	}
	for i := 0; i < seatsPerRow; i++ {
		l.columns = append(l.columns, columnLabel(i))
	}
	for _, raw := range aislePositions {
		col := normalizeColumn(raw)
		idx, ok := columnIndex(col)
		if !ok || idx >= seatsPerRow {
			return nil, &ConfigurationError{Field: "aisle_positions", Reason: fmt.Sprintf("column %q is not part of the seat grid", raw)}
		}
		l.aisles[col] = struct{}{}
	}
	for _, row := range exitRows {
		if row < 1 || row > totalRows {
			return nil, &ConfigurationError{Field: "exit_rows", Reason: fmt.Sprintf("row %d is outside 1..%d", row, totalRows)}
		}
		l.exitRows[row] = struct{}{}
	}
	return l, nil
}

// TotalRows returns the number of rows.
func (l *BusLayout) TotalRows() int { return l.totalRows }

// SeatsPerRow returns the number of seats in every row.
func (l *BusLayout) SeatsPerRow() int { return l.seatsPerRow }

// Columns returns the generated column labels in order.
func (l *BusLayout) Columns() []string {
	out := make([]string, len(l.columns))
	copy(out, l.columns)
	return out
}

// AislePositions returns the aisle columns ordered left to right.
func (l *BusLayout) AislePositions() []string {
	out := make([]string, 0, len(l.aisles))
	for _, c := range l.columns {
		if _, ok := l.aisles[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// ExitRows returns the exit rows in ascending order.
func (l *BusLayout) ExitRows() []int {
	out := make([]int, 0, len(l.exitRows))
	for r := range l.exitRows {
		out = append(out, r)
	}
	sort.Ints(out)
	return out
}

// IsExitRow reports whether row is flagged as an exit (table) row.
func (l *BusLayout) IsExitRow(row int) bool {
	_, ok := l.exitRows[row]
	return ok
}

// AisleAfter reports whether a renderer should leave a gap after column.
func (l *BusLayout) AisleAfter(column string) bool {
	_, ok := l.aisles[normalizeColumn(column)]
	return ok
}

// Contains reports whether seat is addressable in this layout.
func (l *BusLayout) Contains(seat SeatID) bool {
	if seat.Row < 1 || seat.Row > l.totalRows {
		return false
	}
	idx, ok := columnIndex(seat.Column)
	return ok && idx < l.seatsPerRow && seat.Column == l.columns[idx]
}

// Seats lists every seat row-major: 1A, 1B, ..., 2A, ...
func (l *BusLayout) Seats() []SeatID {
	out := make([]SeatID, 0, l.totalRows*l.seatsPerRow)
	for row := 1; row <= l.totalRows; row++ {
		for _, col := range l.columns {
			out = append(out, SeatID{Row: row, Column: col})
		}
	}
	return out
}

type layoutJSON struct {
	TotalRows      int      `json:"total_rows"`
	SeatsPerRow    int      `json:"seats_per_row"`
	AislePositions []string `json:"aisle_positions"`
	ExitRows       []int    `json:"exit_rows"`
}

// MarshalJSON encodes the layout description (not the expanded seat list).
func (l *BusLayout) MarshalJSON() ([]byte, error) {
	return json.Marshal(layoutJSON{
		TotalRows:      l.totalRows,
		SeatsPerRow:    l.seatsPerRow,
		AislePositions: l.AislePositions(),
		ExitRows:       l.ExitRows(),
	})
}

// UnmarshalJSON decodes and validates a layout description.
func (l *BusLayout) UnmarshalJSON(b []byte) error {
	var raw layoutJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	built, err := NewBusLayout(raw.TotalRows, raw.SeatsPerRow, raw.AislePositions, raw.ExitRows)
	if err != nil {
		return err
	}
	*l = *built
	return nil
}

// columnLabel converts a zero-based column index to A, B, ..., Z, AA, AB.
func columnLabel(i int) string {
	if i < 0 {
		return ""
	}
	res := []rune{}
	for {
		res = append(res, rune('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// columnIndex is the inverse of columnLabel.
func columnIndex(label string) (int, bool) {
	if label == "" {
		return -1, false
	}
	n := 0
	for i := 0; i < len(label); i++ {
		ch := label[i]
		if ch < 'A' || ch > 'Z' {
			return -1, false
		}
		n = n*26 + int(ch-'A'+1)
	}
	return n - 1, true
}

// normalizeColumn keeps ASCII letters only and upper-cases them.
func normalizeColumn(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 32)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		}
	}
	return b.String()
}
