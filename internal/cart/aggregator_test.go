package cart

import (
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tour-seat-planner/internal/model"
)

func intPtr(v int) *int { return &v }

func tourLine(serviceID, pkg string, price model.Money, qty int) model.CartLineItem {
	return model.CartLineItem{
		Kind:          model.KindTour,
		ServiceID:     serviceID,
		PackageType:   pkg,
		Name:          "Tour " + serviceID,
		UnitPrice:     price,
		Quantity:      qty,
		PaymentOption: model.PaymentCash,
		Tour:          &model.TourInfo{},
	}
}

func productLine(serviceID string, price model.Money, qty int, avail *int) model.CartLineItem {
	return model.CartLineItem{
		Kind:          model.KindProduct,
		ServiceID:     serviceID,
		PackageType:   "unit",
		Name:          "Product " + serviceID,
		UnitPrice:     price,
		Quantity:      qty,
		PaymentOption: model.PaymentCash,
		Product:       &model.ProductInfo{SKU: "sku-" + serviceID, AvailableQty: avail},
	}
}

func TestAggregator_MergesSamePackage(t *testing.T) {
	a := New("plan-1")

	first, _, err := a.AddItem(tourLine("t1", "Doble", 300, 1))
	require.NoError(t, err)
	second, totals, err := a.AddItem(tourLine("t1", "Doble", 300, 1))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Quantity)
	assert.Equal(t, 1, totals.ItemCount)
	assert.Equal(t, model.Money(600), totals.Subtotal)
	assert.Equal(t, model.Money(600), totals.Total)
	assert.Equal(t, "plan-1", second.TripPlanID)
}

func TestAggregator_DifferentPackagesStaySeparate(t *testing.T) {
	a := New("plan-1")
	_, _, err := a.AddItem(tourLine("t1", "Doble", 300, 1))
	require.NoError(t, err)
	_, totals, err := a.AddItem(tourLine("t1", "Triple", 250, 2))
	require.NoError(t, err)

	assert.Equal(t, 2, totals.ItemCount)
	assert.Equal(t, model.Money(800), totals.Subtotal)
}

func TestAggregator_ConflictingMergeIsRejected(t *testing.T) {
	a := New("plan-1")
	_, _, err := a.AddItem(tourLine("t1", "Doble", 300, 1))
	require.NoError(t, err)

	_, _, err = a.AddItem(tourLine("t1", "Doble", 350, 1))
	var dup *DuplicateLineItemError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "t1", dup.ServiceID)
	assert.Equal(t, 1, a.Len())
}

func TestAggregator_ReusedIDIsRejected(t *testing.T) {
	a := New("plan-1")
	one := tourLine("t1", "Doble", 300, 1)
	one.ID = "line-1"
	_, _, err := a.AddItem(one)
	require.NoError(t, err)

	other := tourLine("t2", "Doble", 100, 1)
	other.ID = "line-1"
	_, _, err = a.AddItem(other)
	var dup *DuplicateLineItemError
	assert.True(t, errors.As(err, &dup))
}

func TestAggregator_SeatedLinesNeverMerge(t *testing.T) {
	a := New("plan-1")
	seated := tourLine("t1", "Doble", 325, 1)
	seated.Tour.Seats = []model.SeatID{{Row: 1, Column: "A"}}

	_, _, err := a.AddItem(seated)
	require.NoError(t, err)
	_, totals, err := a.AddItem(seated)
	require.NoError(t, err)
	assert.Equal(t, 2, totals.ItemCount)
}

func TestAggregator_RejectsForeignPlanAndInvalidItems(t *testing.T) {
	a := New("plan-1")
	foreign := tourLine("t1", "Doble", 300, 1)
	foreign.TripPlanID = "plan-2"
	_, _, err := a.AddItem(foreign)
	assert.ErrorIs(t, err, ErrWrongPlan)

	bad := tourLine("t1", "Doble", 300, 0)
	_, _, err = a.AddItem(bad)
	assert.ErrorIs(t, err, model.ErrInvalidLineItem)

	mismatched := tourLine("t1", "Doble", 300, 1)
	mismatched.Product = &model.ProductInfo{}
	_, _, err = a.AddItem(mismatched)
	assert.ErrorIs(t, err, model.ErrInvalidLineItem)
	assert.Zero(t, a.Len())
}

func TestAggregator_StockIsClampedByDefault(t *testing.T) {
	a := New("plan-1")
	item, totals, err := a.AddItem(productLine("p1", 100, 5, intPtr(3)))
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, model.Money(300), totals.Subtotal)

	totals, err = a.UpdateQuantity(item.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, model.Money(300), totals.Subtotal)
}

func TestAggregator_StrictStockRejects(t *testing.T) {
	a := New("plan-1", WithStrictStock())
	item, _, err := a.AddItem(productLine("p1", 100, 2, intPtr(3)))
	require.NoError(t, err)

	_, err = a.UpdateQuantity(item.ID, 4)
	var exceeded *StockExceededError
	require.True(t, errors.As(err, &exceeded))
	assert.Equal(t, 4, exceeded.Requested)
	assert.Equal(t, 3, exceeded.Available)

	got, ok := a.Item(item.ID)
	require.True(t, ok)
	assert.Equal(t, 2, got.Quantity)
}

func TestAggregator_OutOfStock(t *testing.T) {
	for _, opts := range [][]Option{nil, {WithStrictStock()}} {
		a := New("plan-1", opts...)
		_, _, err := a.AddItem(productLine("p1", 100, 1, intPtr(0)))
		assert.ErrorIs(t, err, ErrOutOfStock)
	}
}

func TestAggregator_UpdateQuantityBelowOneRemoves(t *testing.T) {
	a := New("plan-1")
	item, _, err := a.AddItem(tourLine("t1", "Doble", 300, 2))
	require.NoError(t, err)

	totals, err := a.UpdateQuantity(item.ID, 0)
	require.NoError(t, err)
	assert.Zero(t, totals.ItemCount)
	assert.Zero(t, totals.Subtotal)

	_, err = a.UpdateQuantity(item.ID, 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestAggregator_RemoveItem(t *testing.T) {
	a := New("plan-1")
	item, _, err := a.AddItem(tourLine("t1", "Doble", 300, 1))
	require.NoError(t, err)

	totals, err := a.RemoveItem(item.ID)
	require.NoError(t, err)
	assert.Zero(t, totals.ItemCount)

	_, err = a.RemoveItem(item.ID)
	assert.ErrorIs(t, err, ErrItemNotFound)

	// still usable after becoming empty
	_, totals, err = a.AddItem(tourLine("t1", "Doble", 300, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, totals.ItemCount)
}

func TestAggregator_PaymentOptionDoesNotChangeTotals(t *testing.T) {
	a := New("plan-1")
	item, before, err := a.AddItem(tourLine("t1", "Doble", 300, 2))
	require.NoError(t, err)

	after, err := a.UpdatePaymentOption(item.ID, model.PaymentInstallments)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	got, _ := a.Item(item.ID)
	assert.Equal(t, model.PaymentInstallments, got.PaymentOption)

	_, err = a.UpdatePaymentOption(item.ID, "card")
	assert.ErrorIs(t, err, model.ErrInvalidLineItem)
}

func TestAggregator_AdjustmentsAndFloor(t *testing.T) {
	a := New("plan-1")
	_, _, err := a.AddItem(tourLine("t1", "Doble", 300, 1))
	require.NoError(t, err)

	totals, err := a.SetAdjustments(30, 50)
	require.NoError(t, err)
	assert.Equal(t, model.Money(280), totals.Total)
	assert.False(t, totals.Floored)

	totals, err = a.SetAdjustments(0, 1000)
	require.NoError(t, err)
	assert.Zero(t, totals.Total)
	assert.True(t, totals.Floored)

	_, err = a.SetAdjustments(-1, 0)
	assert.ErrorIs(t, err, ErrNegativeAdjustment)
}

func TestAggregator_SubtotalMatchesLines(t *testing.T) {
	a := New("plan-1")
	adds := []model.CartLineItem{
		tourLine("t1", "Doble", 300, 1),
		productLine("p1", 45, 4, nil),
		tourLine("t2", "Single", 120, 3),
		tourLine("t1", "Doble", 300, 2),
	}
	for _, it := range adds {
		_, _, err := a.AddItem(it)
		require.NoError(t, err)
	}
	items := a.Items()
	_, err := a.UpdateQuantity(items[1].ID, 1)
	require.NoError(t, err)

	var want model.Money
	for _, it := range a.Items() {
		want += it.UnitPrice.Times(it.Quantity)
	}
	assert.Equal(t, want, a.Totals().Subtotal)
	assert.Equal(t, model.Money(900+45+360), want)
}

func subtotalOf(items []model.CartLineItem) model.Money {
	var sum model.Money
	for _, it := range items {
		sum += it.UnitPrice.Times(it.Quantity)
	}
	return sum
}

func TestAggregator_RandomizedSubtotalLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := New("plan-1")
	candidates := []func() model.CartLineItem{
		func() model.CartLineItem { return tourLine("t1", "Doble", 300, 1+rng.Intn(3)) },
		func() model.CartLineItem { return tourLine("t2", "Single", 120, 1+rng.Intn(3)) },
		func() model.CartLineItem { return productLine("p1", 45, 1+rng.Intn(4), intPtr(5)) },
		func() model.CartLineItem { return productLine("p2", 999, 1+rng.Intn(4), nil) },
		func() model.CartLineItem { return productLine("p3", 10, 1+rng.Intn(4), intPtr(0)) },
	}

	for i := 0; i < 1000; i++ {
		items := a.Items()
		switch op := rng.Intn(3); {
		case op == 0 || len(items) == 0:
			_, _, err := a.AddItem(candidates[rng.Intn(len(candidates))]())
			if err != nil {
				require.ErrorIs(t, err, ErrOutOfStock, "step %d", i)
			}
		case op == 1:
			_, err := a.RemoveItem(items[rng.Intn(len(items))].ID)
			require.NoError(t, err)
		default:
			_, err := a.UpdateQuantity(items[rng.Intn(len(items))].ID, rng.Intn(8))
			require.NoError(t, err)
		}

		after := a.Items()
		for _, it := range after {
			if avail, limited := it.AvailableQty(); limited {
				require.LessOrEqual(t, it.Quantity, avail, "step %d", i)
			}
		}
		require.Equal(t, subtotalOf(after), a.Totals().Subtotal, "step %d", i)
	}
}

func TestAggregator_AddThenRemoveRestoresSubtotal(t *testing.T) {
	a := New("plan-1")
	_, _, err := a.AddItem(tourLine("t1", "Doble", 300, 2))
	require.NoError(t, err)
	_, _, err = a.AddItem(productLine("p1", 45, 3, intPtr(10)))
	require.NoError(t, err)
	_, err = a.SetAdjustments(50, 20)
	require.NoError(t, err)
	before := a.Totals()

	added, _, err := a.AddItem(productLine("p2", 75, 2, nil))
	require.NoError(t, err)
	assert.Equal(t, before.Subtotal+150, a.Totals().Subtotal)

	after, err := a.RemoveItem(added.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestAggregator_ReturnedItemsAreCopies(t *testing.T) {
	a := New("plan-1")
	item, _, err := a.AddItem(productLine("p1", 100, 1, intPtr(5)))
	require.NoError(t, err)

	*item.Product.AvailableQty = 0
	items := a.Items()
	items[0].Quantity = 99

	got, _ := a.Item(item.ID)
	assert.Equal(t, 1, got.Quantity)
	assert.Equal(t, 5, *got.Product.AvailableQty)
}

func TestAggregator_SnapshotRestore(t *testing.T) {
	a := New("plan-1")
	_, _, err := a.AddItem(tourLine("t1", "Doble", 300, 2))
	require.NoError(t, err)
	_, err = a.SetAdjustments(10, 5)
	require.NoError(t, err)

	b := New("plan-1")
	require.NoError(t, b.Restore(a.Snapshot()))
	assert.Equal(t, a.Totals(), b.Totals())
	assert.Equal(t, a.Items(), b.Items())

	err = b.Restore(model.CartState{Items: []model.CartLineItem{tourLine("t1", "Doble", 300, 1)}})
	var dup *DuplicateLineItemError
	assert.True(t, errors.As(err, &dup), "restored items must carry ids")
	assert.Equal(t, a.Totals(), b.Totals())
}

func TestAggregator_ConcurrentAdds(t *testing.T) {
	a := New("plan-1")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = a.AddItem(tourLine("t1", "Doble", 10, 1))
			_ = a.Totals()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, model.Money(500), a.Totals().Subtotal)
}
