package model

import "time"

// TripPlan is a user-owned container for one trip.  Its cart and timeline
// live in the planner store; this struct only carries the plan metadata.
//
// Fields:
//
//	ID          – plan identifier (uuid).
//	OwnerID     – subject of the user who owns the plan.
//	Name        – display name.
//	Destination – free-form destination.
//	Travelers   – number of travellers, at least 1.
//	Budget      – optional spending ceiling in cents (nil means unbounded).
type TripPlan struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Destination string    `json:"destination"`
	Travelers   int       `json:"travelers"`
	Budget      *Money    `json:"budget_cents,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CartState is the persisted form of a cart aggregator.
type CartState struct {
	Items    []CartLineItem `json:"items"`
	Taxes    Money          `json:"taxes_cents"`
	Discount Money          `json:"discount_cents"`
}

// PlanState is what the persistence gateway saves and loads for a plan.
type PlanState struct {
	Cart     CartState          `json:"cart"`
	Timeline []TimelineLineItem `json:"timeline"`
}
