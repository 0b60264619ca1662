// Package timeline groups the dated purchases of a trip plan into a
// day-by-day itinerary.
package timeline

import (
	"errors"
	"iter"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/iliyamo/tour-seat-planner/internal/model"
)

var (
	ErrMissingDate   = errors.New("timeline item needs a scheduled date")
	ErrItemNotFound  = errors.New("timeline item not found")
	ErrDuplicateItem = errors.New("timeline item id already exists")
	ErrWrongPlan     = errors.New("item belongs to a different trip plan")
)

// Summary totals the whole itinerary.
type Summary struct {
	TotalItems int         `json:"total_items"`
	TotalCost  model.Money `json:"total_cost_cents"`
}

// Aggregator owns the timeline of one trip plan.  Items are kept per day
// in insertion order; buckets never exist without items.
type Aggregator struct {
	mu     sync.RWMutex
	planID string
	days   map[model.Date][]*model.TimelineLineItem
	index  map[string]model.Date
}

// New returns an empty timeline for tripPlanID.
func New(tripPlanID string) *Aggregator {
	return &Aggregator{
		planID: tripPlanID,
		days:   make(map[model.Date][]*model.TimelineLineItem),
		index:  make(map[string]model.Date),
	}
}

// TripPlanID returns the owning plan.
func (a *Aggregator) TripPlanID() string { return a.planID }

// AddItem places item on its scheduled day.  An empty ID is replaced by a
// generated one.
func (a *Aggregator) AddItem(item model.TimelineLineItem) (model.TimelineLineItem, Summary, error) {
	if err := a.check(&item); err != nil {
		return model.TimelineLineItem{}, Summary{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if _, dup := a.index[item.ID]; dup {
		return model.TimelineLineItem{}, Summary{}, ErrDuplicateItem
	}
	a.insertLocked(item.Clone())
	return item.Clone(), a.summaryLocked(), nil
}

// RemoveItem deletes an item; the day disappears with its last item.
func (a *Aggregator) RemoveItem(itemID string) (Summary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.index[itemID]; !ok {
		return Summary{}, ErrItemNotFound
	}
	a.removeLocked(itemID)
	return a.summaryLocked(), nil
}

// UpdateItem replaces the item with the same ID.  Changing the date
// moves it to the end of the new day.
func (a *Aggregator) UpdateItem(item model.TimelineLineItem) (model.TimelineLineItem, Summary, error) {
	if err := a.check(&item); err != nil {
		return model.TimelineLineItem{}, Summary{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	day, ok := a.index[item.ID]
	if !ok {
		return model.TimelineLineItem{}, Summary{}, ErrItemNotFound
	}
	if day == item.ScheduledDate {
		for _, it := range a.days[day] {
			if it.ID == item.ID {
				*it = item.Clone()
				break
			}
		}
	} else {
		a.removeLocked(item.ID)
		a.insertLocked(item.Clone())
	}
	return item.Clone(), a.summaryLocked(), nil
}

// SetPaid toggles the paid flag.
func (a *Aggregator) SetPaid(itemID string, paid bool) (model.TimelineLineItem, error) {
	return a.Mark(itemID, &paid, nil)
}

// SetConfirmed toggles the supplier confirmation flag.
func (a *Aggregator) SetConfirmed(itemID string, confirmed bool) (model.TimelineLineItem, error) {
	return a.Mark(itemID, nil, &confirmed)
}

// Mark sets the paid and confirmed flags in one step; a nil flag is left
// unchanged.
func (a *Aggregator) Mark(itemID string, paid, confirmed *bool) (model.TimelineLineItem, error) {
	return a.mutate(itemID, func(it *model.TimelineLineItem) {
		if paid != nil {
			it.IsPaid = *paid
		}
		if confirmed != nil {
			it.IsConfirmed = *confirmed
		}
	})
}

// Item returns a copy of one item.
func (a *Aggregator) Item(itemID string) (model.TimelineLineItem, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	it := a.findLocked(itemID)
	if it == nil {
		return model.TimelineLineItem{}, false
	}
	return it.Clone(), true
}

// Days yields one bucket per day in ascending date order.  The sequence
// reads the state current at the time iteration starts and can be
// iterated any number of times.
func (a *Aggregator) Days() iter.Seq[model.DayBucket] {
	return func(yield func(model.DayBucket) bool) {
		for _, b := range a.DaysSlice() {
			if !yield(b) {
				return
			}
		}
	}
}

// DaysSlice returns every bucket, sorted by date.
func (a *Aggregator) DaysSlice() []model.DayBucket {
	a.mu.RLock()
	defer a.mu.RUnlock()
	dates := make([]model.Date, 0, len(a.days))
	for d := range a.days {
		dates = append(dates, d)
	}
	slices.SortFunc(dates, model.Date.Compare)

	out := make([]model.DayBucket, 0, len(dates))
	for _, d := range dates {
		b := model.DayBucket{Date: d, Items: make([]model.TimelineLineItem, 0, len(a.days[d]))}
		for _, it := range a.days[d] {
			b.Items = append(b.Items, it.Clone())
			b.TotalCost += it.Price
		}
		out = append(out, b)
	}
	return out
}

// Summary recomputes the totals over all days.
func (a *Aggregator) Summary() Summary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.summaryLocked()
}

// Snapshot returns every item, ordered by day then insertion.
func (a *Aggregator) Snapshot() []model.TimelineLineItem {
	var out []model.TimelineLineItem
	for b := range a.Days() {
		out = append(out, b.Items...)
	}
	return out
}

// Restore replaces the itinerary with items.  On error nothing changes.
func (a *Aggregator) Restore(items []model.TimelineLineItem) error {
	fresh := New(a.planID)
	for _, it := range items {
		if it.ID == "" {
			return ErrDuplicateItem
		}
		if _, _, err := fresh.AddItem(it); err != nil {
			return err
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.days = fresh.days
	a.index = fresh.index
	return nil
}

func (a *Aggregator) check(item *model.TimelineLineItem) error {
	if item.ScheduledDate.IsZero() {
		return ErrMissingDate
	}
	if err := item.Validate(); err != nil {
		return err
	}
	if item.TripPlanID == "" {
		item.TripPlanID = a.planID
	} else if item.TripPlanID != a.planID {
		return ErrWrongPlan
	}
	return nil
}

func (a *Aggregator) mutate(itemID string, fn func(*model.TimelineLineItem)) (model.TimelineLineItem, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	it := a.findLocked(itemID)
	if it == nil {
		return model.TimelineLineItem{}, ErrItemNotFound
	}
	fn(it)
	return it.Clone(), nil
}

func (a *Aggregator) insertLocked(item model.TimelineLineItem) {
	a.days[item.ScheduledDate] = append(a.days[item.ScheduledDate], &item)
	a.index[item.ID] = item.ScheduledDate
}

func (a *Aggregator) findLocked(itemID string) *model.TimelineLineItem {
	day, ok := a.index[itemID]
	if !ok {
		return nil
	}
	for _, it := range a.days[day] {
		if it.ID == itemID {
			return it
		}
	}
	return nil
}

func (a *Aggregator) removeLocked(itemID string) {
	day := a.index[itemID]
	delete(a.index, itemID)
	items := slices.DeleteFunc(a.days[day], func(it *model.TimelineLineItem) bool { return it.ID == itemID })
	if len(items) == 0 {
		delete(a.days, day)
		return
	}
	a.days[day] = items
}

func (a *Aggregator) summaryLocked() Summary {
	var s Summary
	for _, items := range a.days {
		for _, it := range items {
			s.TotalItems++
			s.TotalCost += it.Price
		}
	}
	return s
}
