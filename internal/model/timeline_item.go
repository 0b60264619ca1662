package model

import "time"

// TimelineLineItem is a dated purchase placed on a trip plan's day-by-day
// itinerary.
type TimelineLineItem struct {
	ID            string  `json:"id"`
	TripPlanID    string  `json:"trip_plan_id"`
	ServiceType   string  `json:"service_type"`
	Name          string  `json:"name"`
	Price         Money   `json:"price_cents"`
	ScheduledDate Date    `json:"scheduled_date"`
	ScheduledTime *string `json:"scheduled_time,omitempty"` // HH:MM, optional
	IsPaid        bool    `json:"is_paid"`
	IsConfirmed   bool    `json:"is_confirmed"`
}

// Validate checks the fields an itinerary entry needs.  A missing date is
// reported separately by the timeline aggregator.
func (it TimelineLineItem) Validate() error {
	if it.Name == "" {
		return invalidItem("name is required")
	}
	if it.Price < 0 {
		return invalidItem("price cannot be negative")
	}
	if it.ScheduledTime != nil {
		if _, err := time.Parse("15:04", *it.ScheduledTime); err != nil {
			return invalidItem("scheduled time %q is not HH:MM", *it.ScheduledTime)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (it TimelineLineItem) Clone() TimelineLineItem {
	out := it
	if it.ScheduledTime != nil {
		t := *it.ScheduledTime
		out.ScheduledTime = &t
	}
	return out
}

// DayBucket groups the itinerary items of one calendar day.  TotalCost is
// computed from Items whenever a bucket is produced.
type DayBucket struct {
	Date      Date               `json:"date"`
	Items     []TimelineLineItem `json:"items"`
	TotalCost Money              `json:"total_cost_cents"`
}
