// Package pricing assigns a tier and a surcharge to every seat of a bus
// layout.  The engine is a value type with no mutable state, so a single
// Engine may be shared by any number of goroutines.
package pricing

import "github.com/iliyamo/tour-seat-planner/internal/model"

// DefaultFrontBand is the number of leading rows priced as front seats.
const DefaultFrontBand = 3

// Engine maps seats to tiers and surcharges.
type Engine struct {
	frontBand int
}

// NewEngine returns an engine whose first frontBand rows are front seats.
// A non-positive band falls back to DefaultFrontBand.
func NewEngine(frontBand int) Engine {
	if frontBand <= 0 {
		frontBand = DefaultFrontBand
	}
	return Engine{frontBand: frontBand}
}

// FrontBand returns the configured front band size.
func (e Engine) FrontBand() int {
	if e.frontBand <= 0 {
		return DefaultFrontBand
	}
	return e.frontBand
}

// TierOf returns the tier of seat.  The front band is checked before exit
// rows, so a row that qualifies for both is priced as front.  A seat that
// is not part of layout is standard and carries no surcharge.
func (e Engine) TierOf(seat model.SeatID, layout *model.BusLayout) model.Tier {
	switch {
	case !layout.Contains(seat):
		return model.TierStandard
	case seat.Row <= e.FrontBand():
		return model.TierFront
	case layout.IsExitRow(seat.Row):
		return model.TierTable
	default:
		return model.TierStandard
	}
}

// PriceOf returns the surcharge of seat under pricing.
func (e Engine) PriceOf(seat model.SeatID, layout *model.BusLayout, pricing model.SeatPricing) model.Money {
	return pricing.For(e.TierOf(seat, layout))
}

// TotalSurcharge sums PriceOf over seats.
func (e Engine) TotalSurcharge(seats []model.SeatID, layout *model.BusLayout, pricing model.SeatPricing) model.Money {
	var total model.Money
	for _, s := range seats {
		total += e.PriceOf(s, layout, pricing)
	}
	return total
}

// SeatQuote is the rendering view of one seat.
type SeatQuote struct {
	Seat       model.SeatID `json:"seat"`
	Label      string       `json:"label"`
	Tier       model.Tier   `json:"tier"`
	Price      model.Money  `json:"price_cents"`
	AisleAfter bool         `json:"aisle_after"`
}

// Quote prices every seat of layout, row-major.
func (e Engine) Quote(layout *model.BusLayout, pricing model.SeatPricing) []SeatQuote {
	seats := layout.Seats()
	out := make([]SeatQuote, 0, len(seats))
	for _, s := range seats {
		tier := e.TierOf(s, layout)
		out = append(out, SeatQuote{
			Seat:       s,
			Label:      s.String(),
			Tier:       tier,
			Price:      pricing.For(tier),
			AisleAfter: layout.AisleAfter(s.Column),
		})
	}
	return out
}
