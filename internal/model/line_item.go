package model

// ItemKind discriminates the closed set of cart line item shapes.
type ItemKind string

const (
	KindProduct ItemKind = "product"
	KindTour    ItemKind = "tour"
	KindService ItemKind = "service"
)

// PaymentOption is how the traveller intends to pay for a cart line.  It
// never changes the price math.
type PaymentOption string

const (
	PaymentCash         PaymentOption = "cash"
	PaymentInstallments PaymentOption = "installments"
)

// Valid reports whether o is a known payment option.
func (o PaymentOption) Valid() bool {
	return o == PaymentCash || o == PaymentInstallments
}

// ProductInfo carries the product specific fields of a cart line.
type ProductInfo struct {
	SKU          string `json:"sku,omitempty"`
	AvailableQty *int   `json:"available_qty,omitempty"` // nil means unlimited stock
}

// TourInfo carries the tour specific fields of a cart line.  Seats is set
// when the line was produced by a confirmed seat selection.
type TourInfo struct {
	DepartureID   string   `json:"departure_id,omitempty"`
	Seats         []SeatID `json:"seats,omitempty"`
	SeatSurcharge Money    `json:"seat_surcharge_cents"`
}

// ServiceInfo carries the supplier service specific fields of a cart line.
type ServiceInfo struct {
	SupplierID   string `json:"supplier_id,omitempty"`
	ServiceType  string `json:"service_type,omitempty"`
	AvailableQty *int   `json:"available_qty,omitempty"`
}

// CartLineItem is an undated purchase held in a trip plan's cart.  Kind
// selects which one of Product, Tour or Service is populated; Validate
// enforces that exactly the matching one is present.
//
// Fields:
//
//	ID            – line identifier, unique within the plan.
//	TripPlanID    – owning trip plan.
//	ServiceID     – catalogue service the line was bought from.
//	PackageType   – package name (e.g. "Doble"); with ServiceID forms the merge key.
//	UnitPrice     – price of one unit in cents.
//	Quantity      – number of units, at least 1.
//	PaymentOption – cash or installments.
type CartLineItem struct {
	ID            string        `json:"id"`
	TripPlanID    string        `json:"trip_plan_id"`
	Kind          ItemKind      `json:"kind"`
	ServiceID     string        `json:"service_id"`
	PackageType   string        `json:"package_type"`
	Name          string        `json:"name"`
	UnitPrice     Money         `json:"unit_price_cents"`
	Quantity      int           `json:"quantity"`
	PaymentOption PaymentOption `json:"payment_option"`
	Category      string        `json:"category,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	Product       *ProductInfo  `json:"product,omitempty"`
	Tour          *TourInfo     `json:"tour,omitempty"`
	Service       *ServiceInfo  `json:"service,omitempty"`
}

// Validate checks the required fields and the kind/detail pairing.
func (it CartLineItem) Validate() error {
	if it.ServiceID == "" {
		return invalidItem("service_id is required")
	}
	if it.Name == "" {
		return invalidItem("name is required")
	}
	if it.UnitPrice < 0 {
		return invalidItem("unit price cannot be negative")
	}
	if it.Quantity < 1 {
		return invalidItem("quantity must be at least 1")
	}
	if !it.PaymentOption.Valid() {
		return invalidItem("unknown payment option %q", it.PaymentOption)
	}
	switch it.Kind {
	case KindProduct:
		if it.Product == nil || it.Tour != nil || it.Service != nil {
			return invalidItem("product line must carry product details only")
		}
	case KindTour:
		if it.Tour == nil || it.Product != nil || it.Service != nil {
			return invalidItem("tour line must carry tour details only")
		}
		if it.Tour.SeatSurcharge < 0 {
			return invalidItem("seat surcharge cannot be negative")
		}
	case KindService:
		if it.Service == nil || it.Product != nil || it.Tour != nil {
			return invalidItem("service line must carry service details only")
		}
	default:
		return invalidItem("unknown kind %q", it.Kind)
	}
	return nil
}

// AvailableQty returns the declared stock limit, if the line has one.
// Tours are limited by seats, not by a stock counter.
func (it CartLineItem) AvailableQty() (int, bool) {
	var q *int
	switch it.Kind {
	case KindProduct:
		if it.Product != nil {
			q = it.Product.AvailableQty
		}
	case KindService:
		if it.Service != nil {
			q = it.Service.AvailableQty
		}
	case KindTour:
	}
	if q == nil {
		return 0, false
	}
	return *q, true
}

// Seated reports whether the line holds specific seats.  Seated lines are
// never merged with other lines of the same package.
func (it CartLineItem) Seated() bool {
	return it.Kind == KindTour && it.Tour != nil && len(it.Tour.Seats) > 0
}

// LineTotal is unit price times quantity, regardless of payment option.
func (it CartLineItem) LineTotal() Money { return it.UnitPrice.Times(it.Quantity) }

// Clone returns a deep copy so callers can never mutate aggregator state.
func (it CartLineItem) Clone() CartLineItem {
	out := it
	if it.Product != nil {
		p := *it.Product
		p.AvailableQty = cloneInt(it.Product.AvailableQty)
		out.Product = &p
	}
	if it.Tour != nil {
		t := *it.Tour
		t.Seats = append([]SeatID(nil), it.Tour.Seats...)
		out.Tour = &t
	}
	if it.Service != nil {
		s := *it.Service
		s.AvailableQty = cloneInt(it.Service.AvailableQty)
		out.Service = &s
	}
	return out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
