// Package queue defines message payloads exchanged over the message broker.
package queue

// SeatsQueueName is the durable queue seat confirmations are published to.
const SeatsQueueName = "seats.confirmed"

// SeatsConfirmedEvent is published after a seat selection has been turned
// into a cart or timeline line item.  It carries enough information for
// downstream consumers to log or notify without reading the plan store.
type SeatsConfirmedEvent struct {
	SessionID      string   `json:"session_id"`
	TripPlanID     string   `json:"trip_plan_id"`
	OwnerID        string   `json:"owner_id"`
	ServiceID      string   `json:"service_id"`
	PackageType    string   `json:"package_type"`
	Seats          []string `json:"seats"`
	BasePrice      int64    `json:"base_price_cents"`
	SurchargeCents int64    `json:"surcharge_cents"`
	LineItemID     string   `json:"line_item_id"`
	Target         string   `json:"target"` // "cart" or "timeline"
	ScheduledDate  string   `json:"scheduled_date,omitempty"`
	ConfirmedAt    string   `json:"confirmed_at"`
}
