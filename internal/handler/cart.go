package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-seat-planner/internal/model"
)

// GetCart handles GET /v1/plans/:id/cart.
func (h *PlanHandler) GetCart(c echo.Context) error {
	planID, err := h.ownedPlan(c)
	if planID == "" {
		return err
	}
	ctx := c.Request().Context()
	items, err := h.Store.CartItems(ctx, planID)
	if err != nil {
		return writeError(c, err)
	}
	totals, err := h.Store.CartTotals(ctx, planID)
	if err != nil {
		return writeError(c, err)
	}
	if items == nil {
		items = []model.CartLineItem{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "totals": totals})
}

// AddCartItem handles POST /v1/plans/:id/cart/items.  A line of the same
// service package merges into the existing one, which is returned.
func (h *PlanHandler) AddCartItem(c echo.Context) error {
	planID, err := h.ownedPlan(c)
	if planID == "" {
		return err
	}
	var item model.CartLineItem
	if err := c.Bind(&item); err != nil {
		return badRequest(c, "invalid request body")
	}
	if item.PaymentOption == "" {
		item.PaymentOption = model.PaymentCash
	}
	item.TripPlanID = planID
	added, totals, err := h.Store.AddCartItem(c.Request().Context(), planID, item)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": added, "totals": totals})
}

// UpdateCartItem handles PATCH /v1/plans/:id/cart/items/:item.  Either
// field may be omitted.
func (h *PlanHandler) UpdateCartItem(c echo.Context) error {
	planID, err := h.ownedPlan(c)
	if planID == "" {
		return err
	}
	var body struct {
		Quantity      *int                 `json:"quantity"`
		PaymentOption *model.PaymentOption `json:"payment_option"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Quantity == nil && body.PaymentOption == nil {
		return badRequest(c, "nothing to update")
	}
	ctx := c.Request().Context()
	itemID := c.Param("item")
	if body.Quantity != nil {
		if _, err := h.Store.UpdateCartQuantity(ctx, planID, itemID, *body.Quantity); err != nil {
			return writeError(c, err)
		}
	}
	if body.PaymentOption != nil {
		if _, err := h.Store.UpdateCartPaymentOption(ctx, planID, itemID, *body.PaymentOption); err != nil {
			return writeError(c, err)
		}
	}
	return h.GetCart(c)
}

// DeleteCartItem handles DELETE /v1/plans/:id/cart/items/:item.
func (h *PlanHandler) DeleteCartItem(c echo.Context) error {
	planID, err := h.ownedPlan(c)
	if planID == "" {
		return err
	}
	totals, err := h.Store.RemoveCartItem(c.Request().Context(), planID, c.Param("item"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"totals": totals})
}

// SetCartAdjustments handles PUT /v1/plans/:id/cart/adjustments.
func (h *PlanHandler) SetCartAdjustments(c echo.Context) error {
	planID, err := h.ownedPlan(c)
	if planID == "" {
		return err
	}
	var body struct {
		Taxes    model.Money `json:"taxes_cents"`
		Discount model.Money `json:"discount_cents"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	totals, err := h.Store.SetCartAdjustments(c.Request().Context(), planID, body.Taxes, body.Discount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"totals": totals})
}
