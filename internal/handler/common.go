package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-seat-planner/internal/cart"
	"github.com/iliyamo/tour-seat-planner/internal/middleware"
	"github.com/iliyamo/tour-seat-planner/internal/model"
	"github.com/iliyamo/tour-seat-planner/internal/planner"
	"github.com/iliyamo/tour-seat-planner/internal/repository"
	"github.com/iliyamo/tour-seat-planner/internal/seating"
	"github.com/iliyamo/tour-seat-planner/internal/timeline"
)

var errNoUser = errors.New("missing user in context")

// getUserID returns the authenticated subject set by JWTAuth.
func getUserID(c echo.Context) (string, error) {
	id := strings.TrimSpace(middleware.UserID(c))
	if id == "" {
		return "", errNoUser
	}
	return id, nil
}

// pathInt parses a non-negative integer path parameter.
func pathInt(c echo.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// writeError translates a domain error into a JSON response.  Errors it
// does not recognise become a 500 and are handed back to echo so the
// request logger records the cause.
func writeError(c echo.Context, err error) error {
	var (
		taken      *seating.SeatTakenError
		incomplete *seating.IncompleteSelectionError
		dup        *cart.DuplicateLineItemError
		stock      *cart.StockExceededError
		cfgErr     *model.ConfigurationError
	)
	switch {
	case errors.As(err, &taken):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":   err.Error(),
			"seat":    taken.Seat.String(),
			"held_by": taken.HeldBy,
		})
	case errors.As(err, &incomplete):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":    err.Error(),
			"state":    incomplete.State,
			"selected": incomplete.Selected,
			"required": incomplete.Required,
		})
	case errors.As(err, &dup):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error(), "item_id": dup.ItemID})
	case errors.As(err, &stock):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":     err.Error(),
			"requested": stock.Requested,
			"available": stock.Available,
		})
	case errors.As(err, &cfgErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "field": cfgErr.Field})
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, planner.ErrPlanNotFound),
		errors.Is(err, planner.ErrSessionNotFound),
		errors.Is(err, planner.ErrLayoutNotFound),
		errors.Is(err, planner.ErrNoActivePlan),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, timeline.ErrItemNotFound),
		errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, planner.ErrForbidden), errors.Is(err, repository.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, seating.ErrSessionClosed), errors.Is(err, timeline.ErrDuplicateItem):
		status = http.StatusConflict
	case errors.Is(err, cart.ErrOutOfStock):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrInvalidLineItem),
		errors.Is(err, planner.ErrInvalidPlan),
		errors.Is(err, cart.ErrNegativeAdjustment),
		errors.Is(err, cart.ErrWrongPlan),
		errors.Is(err, timeline.ErrMissingDate),
		errors.Is(err, timeline.ErrWrongPlan),
		errors.Is(err, seating.ErrInvalidPassenger),
		errors.Is(err, seating.ErrSeatNotInLayout),
		errors.Is(err, seating.ErrNoPassengers):
		status = http.StatusBadRequest
	case errors.Is(err, planner.ErrStoreClosed):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		return echo.NewHTTPError(status, "internal server error").SetInternal(err)
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}
