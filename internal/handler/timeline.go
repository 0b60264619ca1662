package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-seat-planner/internal/model"
)

// GetTimeline handles GET /v1/plans/:id/timeline: the day buckets in date
// order plus the itinerary summary.
func (h *PlanHandler) GetTimeline(c echo.Context) error {
	planID, err := h.ownedPlan(c)
	if planID == "" {
		return err
	}
	ctx := c.Request().Context()
	days, err := h.Store.Days(ctx, planID)
	if err != nil {
		return writeError(c, err)
	}
	sum, err := h.Store.TimelineSummary(ctx, planID)
	if err != nil {
		return writeError(c, err)
	}
	if days == nil {
		days = []model.DayBucket{}
	}
	return c.JSON(http.StatusOK, echo.Map{"days": days, "summary": sum})
}

// AddTimelineItem handles POST /v1/plans/:id/timeline/items.
func (h *PlanHandler) AddTimelineItem(c echo.Context) error {
	planID, err := h.ownedPlan(c)
	if planID == "" {
		return err
	}
	var item model.TimelineLineItem
	if err := c.Bind(&item); err != nil {
		return badRequest(c, "invalid request body")
	}
	item.TripPlanID = planID
	added, sum, err := h.Store.AddTimelineItem(c.Request().Context(), planID, item)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": added, "summary": sum})
}

// UpdateTimelineItem handles PUT /v1/plans/:id/timeline/items/:item.  The
// body replaces the item; a new scheduled_date moves it to that day.
func (h *PlanHandler) UpdateTimelineItem(c echo.Context) error {
	planID, err := h.ownedPlan(c)
	if planID == "" {
		return err
	}
	var item model.TimelineLineItem
	if err := c.Bind(&item); err != nil {
		return badRequest(c, "invalid request body")
	}
	item.ID = c.Param("item")
	item.TripPlanID = planID
	updated, sum, err := h.Store.UpdateTimelineItem(c.Request().Context(), planID, item)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": updated, "summary": sum})
}

// MarkTimelineItem handles PATCH /v1/plans/:id/timeline/items/:item,
// toggling the paid and confirmed flags without touching the rest.
func (h *PlanHandler) MarkTimelineItem(c echo.Context) error {
	planID, err := h.ownedPlan(c)
	if planID == "" {
		return err
	}
	var body struct {
		IsPaid      *bool `json:"is_paid"`
		IsConfirmed *bool `json:"is_confirmed"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.IsPaid == nil && body.IsConfirmed == nil {
		return badRequest(c, "nothing to update")
	}
	item, err := h.Store.MarkTimelineItem(c.Request().Context(), planID, c.Param("item"), body.IsPaid, body.IsConfirmed)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

// DeleteTimelineItem handles DELETE /v1/plans/:id/timeline/items/:item.
func (h *PlanHandler) DeleteTimelineItem(c echo.Context) error {
	planID, err := h.ownedPlan(c)
	if planID == "" {
		return err
	}
	sum, err := h.Store.RemoveTimelineItem(c.Request().Context(), planID, c.Param("item"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"summary": sum})
}
