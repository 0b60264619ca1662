package model

// Tier is the pricing category of a seat, assigned by its position.
type Tier string

const (
	TierStandard Tier = "standard"
	TierFront    Tier = "front"
	TierTable    Tier = "table"
)

// SeatPricing holds the additive surcharge for each tier.  The values are
// added to a package's base price; they are not absolute seat prices.
type SeatPricing struct {
	Standard Money `json:"standard_cents"`
	Front    Money `json:"front_cents"`
	Table    Money `json:"table_cents"`
}

// For returns the surcharge of tier t.
func (p SeatPricing) For(t Tier) Money {
	switch t {
	case TierFront:
		return p.Front
	case TierTable:
		return p.Table
	case TierStandard:
		return p.Standard
	}
	return 0
}

// Validate rejects negative surcharges.
func (p SeatPricing) Validate() error {
	for _, c := range []struct {
		field string
		v     Money
	}{{"standard_cents", p.Standard}, {"front_cents", p.Front}, {"table_cents", p.Table}} {
		if c.v < 0 {
			return &ConfigurationError{Field: c.field, Reason: "surcharge cannot be negative"}
		}
	}
	return nil
}

// SeatReservation is one passenger's claim on a seat inside a selection
// session.
type SeatReservation struct {
	PassengerIndex int    `json:"passenger_index"`
	Seat           SeatID `json:"seat"`
}
