// Package cart keeps the undated line items of one trip plan and the
// running totals derived from them.
package cart

import (
	"sync"

	"github.com/google/uuid"

	"github.com/iliyamo/tour-seat-planner/internal/model"
)

// Totals is the aggregate state returned by every mutation.
type Totals struct {
	ItemCount int         `json:"item_count"`
	Subtotal  model.Money `json:"subtotal_cents"`
	Taxes     model.Money `json:"taxes_cents"`
	Discount  model.Money `json:"discount_cents"`
	Total     model.Money `json:"total_cents"`
	Floored   bool        `json:"floored"` // Total was raised to zero
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithStrictStock makes quantity overflows fail with *StockExceededError
// instead of being clamped to the available stock.
func WithStrictStock() Option {
	return func(a *Aggregator) { a.strict = true }
}

// Aggregator owns the cart lines of exactly one trip plan.  All methods
// are safe for concurrent use; a read after a mutation returns always
// observes that mutation.
type Aggregator struct {
	mu       sync.RWMutex
	planID   string
	strict   bool
	order    []string
	items    map[string]*model.CartLineItem
	taxes    model.Money
	discount model.Money
}

// New returns an empty cart for tripPlanID.
func New(tripPlanID string, opts ...Option) *Aggregator {
	a := &Aggregator{
		planID: tripPlanID,
		items:  make(map[string]*model.CartLineItem),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// TripPlanID returns the owning plan.
func (a *Aggregator) TripPlanID() string { return a.planID }

// Strict reports whether the strict stock policy is active.
func (a *Aggregator) Strict() bool { return a.strict }

// AddItem adds a line.  A second line for the same (ServiceID,
// PackageType) is merged into the first by adding quantities; seated tour
// lines are always kept as separate rows.  The returned item is the row
// that now holds the quantity.
func (a *Aggregator) AddItem(item model.CartLineItem) (model.CartLineItem, Totals, error) {
	if err := item.Validate(); err != nil {
		return model.CartLineItem{}, Totals{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if item.TripPlanID == "" {
		item.TripPlanID = a.planID
	} else if item.TripPlanID != a.planID {
		return model.CartLineItem{}, Totals{}, ErrWrongPlan
	}

	if !item.Seated() {
		if existing := a.findMergeTargetLocked(item); existing != nil {
			if existing.Kind != item.Kind || existing.UnitPrice != item.UnitPrice {
				return model.CartLineItem{}, Totals{}, &DuplicateLineItemError{
					ItemID:      existing.ID,
					ServiceID:   item.ServiceID,
					PackageType: item.PackageType,
					Reason:      "existing line has a different kind or unit price",
				}
			}
			qty, err := a.fitQuantityLocked(*existing, existing.Quantity+item.Quantity)
			if err != nil {
				return model.CartLineItem{}, Totals{}, err
			}
			existing.Quantity = qty
			return existing.Clone(), a.totalsLocked(), nil
		}
	}

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if _, dup := a.items[item.ID]; dup {
		return model.CartLineItem{}, Totals{}, &DuplicateLineItemError{
			ItemID:      item.ID,
			ServiceID:   item.ServiceID,
			PackageType: item.PackageType,
			Reason:      "item id already used by another line",
		}
	}
	qty, err := a.fitQuantityLocked(item, item.Quantity)
	if err != nil {
		return model.CartLineItem{}, Totals{}, err
	}
	stored := item.Clone()
	stored.Quantity = qty
	a.items[stored.ID] = &stored
	a.order = append(a.order, stored.ID)
	return stored.Clone(), a.totalsLocked(), nil
}

// RemoveItem deletes a line.  The aggregator stays usable when the cart
// becomes empty.
func (a *Aggregator) RemoveItem(itemID string) (Totals, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.items[itemID]; !ok {
		return Totals{}, ErrItemNotFound
	}
	a.removeLocked(itemID)
	return a.totalsLocked(), nil
}

// UpdateQuantity sets a line's quantity.  Values below 1 remove the line;
// values above the declared stock are clamped, or rejected under the
// strict policy.
func (a *Aggregator) UpdateQuantity(itemID string, qty int) (Totals, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	it, ok := a.items[itemID]
	if !ok {
		return Totals{}, ErrItemNotFound
	}
	if qty < 1 {
		a.removeLocked(itemID)
		return a.totalsLocked(), nil
	}
	fitted, err := a.fitQuantityLocked(*it, qty)
	if err != nil {
		return Totals{}, err
	}
	it.Quantity = fitted
	return a.totalsLocked(), nil
}

// UpdatePaymentOption changes how a line will be paid.  Prices are not
// affected.
func (a *Aggregator) UpdatePaymentOption(itemID string, option model.PaymentOption) (Totals, error) {
	if !option.Valid() {
		return Totals{}, model.ErrInvalidLineItem
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	it, ok := a.items[itemID]
	if !ok {
		return Totals{}, ErrItemNotFound
	}
	it.PaymentOption = option
	return a.totalsLocked(), nil
}

// SetAdjustments records the externally computed taxes and discount.
func (a *Aggregator) SetAdjustments(taxes, discount model.Money) (Totals, error) {
	if taxes < 0 || discount < 0 {
		return Totals{}, ErrNegativeAdjustment
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.taxes = taxes
	a.discount = discount
	return a.totalsLocked(), nil
}

// Totals returns the current aggregate state.
func (a *Aggregator) Totals() Totals {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.totalsLocked()
}

// Item returns a copy of one line.
func (a *Aggregator) Item(itemID string) (model.CartLineItem, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	it, ok := a.items[itemID]
	if !ok {
		return model.CartLineItem{}, false
	}
	return it.Clone(), true
}

// Items returns copies of every line in insertion order.
func (a *Aggregator) Items() []model.CartLineItem {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.itemsLocked()
}

// Len returns the number of lines.
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.order)
}

// Snapshot returns the persisted form of the cart.
func (a *Aggregator) Snapshot() model.CartState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return model.CartState{Items: a.itemsLocked(), Taxes: a.taxes, Discount: a.discount}
}

// Restore replaces the cart content with state.  Lines are validated and
// must belong to this plan; on error the cart is unchanged.
func (a *Aggregator) Restore(state model.CartState) error {
	if state.Taxes < 0 || state.Discount < 0 {
		return ErrNegativeAdjustment
	}
	order := make([]string, 0, len(state.Items))
	items := make(map[string]*model.CartLineItem, len(state.Items))
	for _, it := range state.Items {
		if err := it.Validate(); err != nil {
			return err
		}
		if it.TripPlanID != "" && it.TripPlanID != a.planID {
			return ErrWrongPlan
		}
		if _, dup := items[it.ID]; dup || it.ID == "" {
			return &DuplicateLineItemError{ItemID: it.ID, ServiceID: it.ServiceID, PackageType: it.PackageType, Reason: "restored state repeats or omits an item id"}
		}
		c := it.Clone()
		c.TripPlanID = a.planID
		items[c.ID] = &c
		order = append(order, c.ID)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.order = order
	a.items = items
	a.taxes = state.Taxes
	a.discount = state.Discount
	return nil
}

func (a *Aggregator) findMergeTargetLocked(item model.CartLineItem) *model.CartLineItem {
	for _, id := range a.order {
		it := a.items[id]
		if !it.Seated() && it.ServiceID == item.ServiceID && it.PackageType == item.PackageType {
			return it
		}
	}
	return nil
}

func (a *Aggregator) fitQuantityLocked(item model.CartLineItem, qty int) (int, error) {
	avail, limited := item.AvailableQty()
	if !limited || qty <= avail {
		return qty, nil
	}
	if avail < 1 {
		return 0, ErrOutOfStock
	}
	if a.strict {
		return 0, &StockExceededError{ItemID: item.ID, Requested: qty, Available: avail}
	}
	return avail, nil
}

func (a *Aggregator) removeLocked(itemID string) {
	delete(a.items, itemID)
	for i, id := range a.order {
		if id == itemID {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

func (a *Aggregator) itemsLocked() []model.CartLineItem {
	out := make([]model.CartLineItem, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.items[id].Clone())
	}
	return out
}

// totalsLocked recomputes everything from the live lines.
func (a *Aggregator) totalsLocked() Totals {
	var subtotal model.Money
	for _, id := range a.order {
		subtotal += a.items[id].LineTotal()
	}
	total, floored := (subtotal + a.taxes - a.discount).FloorZero()
	return Totals{
		ItemCount: len(a.order),
		Subtotal:  subtotal,
		Taxes:     a.taxes,
		Discount:  a.discount,
		Total:     total,
		Floored:   floored,
	}
}
