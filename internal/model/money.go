package model

// Money is an amount expressed in cents (two fractional digits, fixed
// point).  Every price, surcharge and total handled by the engine uses
// this unit; rendering it as a currency string is left to clients.
type Money int64

// Times returns m multiplied by n.
func (m Money) Times(n int) Money { return m * Money(n) }

// FloorZero returns m, or zero when m is negative.  The boolean reports
// whether the floor was applied so callers can surface it.
func (m Money) FloorZero() (Money, bool) {
	if m < 0 {
		return 0, true
	}
	return m, false
}
