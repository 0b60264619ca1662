package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-seat-planner/internal/budget"
	"github.com/iliyamo/tour-seat-planner/internal/model"
	"github.com/iliyamo/tour-seat-planner/internal/planner"
)

// PlanHandler serves trip plans together with their cart, timeline and
// budget.  Every plan route checks that the caller owns the plan.
type PlanHandler struct {
	Store  *planner.Store
	Budget *budget.Tracker
}

// NewPlanHandler constructs a PlanHandler and panics if a dependency is nil.
func NewPlanHandler(store *planner.Store, tracker *budget.Tracker) *PlanHandler {
	if store == nil || tracker == nil {
		panic("nil dependency passed to NewPlanHandler")
	}
	return &PlanHandler{Store: store, Budget: tracker}
}

// ownedPlan resolves the :id path parameter to a plan owned by the caller.
func (h *PlanHandler) ownedPlan(c echo.Context) (string, error) {
	uid, err := getUserID(c)
	if err != nil {
		return "", c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	planID := c.Param("id")
	if planID == "" {
		return "", badRequest(c, "missing plan id")
	}
	if _, err := h.Store.Authorize(c.Request().Context(), uid, planID); err != nil {
		return "", writeError(c, err)
	}
	return planID, nil
}

// CreatePlan handles POST /v1/plans.
func (h *PlanHandler) CreatePlan(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body planner.NewPlan
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	plan, err := h.Store.CreatePlan(c.Request().Context(), uid, body)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, plan)
}

// ListPlans handles GET /v1/plans.
func (h *PlanHandler) ListPlans(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	plans, err := h.Store.PlansByOwner(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err)
	}
	if plans == nil {
		plans = []model.TripPlan{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": plans})
}

// GetPlan handles GET /v1/plans/:id and returns the full snapshot.
func (h *PlanHandler) GetPlan(c echo.Context) error {
	planID, err := h.ownedPlan(c)
	if planID == "" {
		return err
	}
	snap, err := h.Store.Snapshot(c.Request().Context(), planID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// Activate handles POST /v1/plans/:id/activate.
func (h *PlanHandler) Activate(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	plan, err := h.Store.SetActive(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, plan)
}

// Active handles GET /v1/plans/active.
func (h *PlanHandler) Active(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	plan, err := h.Store.Active(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, plan)
}

// GetBudget handles GET /v1/plans/:id/budget.
func (h *PlanHandler) GetBudget(c echo.Context) error {
	planID, err := h.ownedPlan(c)
	if planID == "" {
		return err
	}
	st, err := h.Budget.Status(c.Request().Context(), planID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// SetBudget handles PUT /v1/plans/:id/budget.  A null or missing
// budget_cents clears the budget.
func (h *PlanHandler) SetBudget(c echo.Context) error {
	planID, err := h.ownedPlan(c)
	if planID == "" {
		return err
	}
	var body struct {
		Budget *model.Money `json:"budget_cents"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if _, err := h.Store.SetBudget(c.Request().Context(), planID, body.Budget); err != nil {
		return writeError(c, err)
	}
	st, err := h.Budget.Status(c.Request().Context(), planID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// Overview handles GET /v1/budget: the budget status of every plan the
// caller owns.
func (h *PlanHandler) Overview(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	out, err := h.Budget.Overview(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err)
	}
	if out == nil {
		out = []budget.Status{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
