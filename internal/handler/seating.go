package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-seat-planner/internal/model"
	"github.com/iliyamo/tour-seat-planner/internal/planner"
)

// SeatHandler drives seat selection sessions.  Sessions live in the plan
// store; only the owner of the session's plan may touch it.
type SeatHandler struct {
	Store *planner.Store
}

// NewSeatHandler constructs a SeatHandler and panics on a nil store.
func NewSeatHandler(store *planner.Store) *SeatHandler {
	if store == nil {
		panic("nil store passed to NewSeatHandler")
	}
	return &SeatHandler{Store: store}
}

func (h *SeatHandler) ownedSession(c echo.Context) (*planner.SeatSession, error) {
	uid, err := getUserID(c)
	if err != nil {
		return nil, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ss, err := h.Store.Session(c.Param("sid"))
	if err != nil {
		return nil, writeError(c, err)
	}
	if ss.OwnerID != uid {
		return nil, writeError(c, planner.ErrForbidden)
	}
	return ss, nil
}

// StartSession handles POST /v1/plans/:id/seat-sessions.
func (h *SeatHandler) StartSession(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	planID := c.Param("id")
	ctx := c.Request().Context()
	if _, err := h.Store.Authorize(ctx, uid, planID); err != nil {
		return writeError(c, err)
	}
	var req planner.SeatRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	ss, err := h.Store.StartSeatSession(ctx, planID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"session": ss.View(), "layout": ss.Layout()})
}

// GetSession handles GET /v1/seat-sessions/:sid.
func (h *SeatHandler) GetSession(c echo.Context) error {
	ss, err := h.ownedSession(c)
	if ss == nil {
		return err
	}
	return c.JSON(http.StatusOK, ss.View())
}

// SelectSeat handles PUT /v1/seat-sessions/:sid/passengers/:idx with a
// body like {"seat":"12C"}.  Reselecting moves the passenger.
func (h *SeatHandler) SelectSeat(c echo.Context) error {
	ss, err := h.ownedSession(c)
	if ss == nil {
		return err
	}
	idx, ok := pathInt(c, "idx")
	if !ok {
		return badRequest(c, "invalid passenger index")
	}
	var body struct {
		Seat string `json:"seat"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	seat, err := model.ParseSeatID(body.Seat)
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := ss.SelectSeat(idx, seat); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ss.View())
}

// DeselectSeat handles DELETE /v1/seat-sessions/:sid/passengers/:idx.
func (h *SeatHandler) DeselectSeat(c echo.Context) error {
	ss, err := h.ownedSession(c)
	if ss == nil {
		return err
	}
	idx, ok := pathInt(c, "idx")
	if !ok {
		return badRequest(c, "invalid passenger index")
	}
	if err := ss.DeselectSeat(idx); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ss.View())
}

// Confirm handles POST /v1/seat-sessions/:sid/confirm.
func (h *SeatHandler) Confirm(c echo.Context) error {
	ss, err := h.ownedSession(c)
	if ss == nil {
		return err
	}
	res, err := h.Store.ConfirmSeats(c.Request().Context(), ss.ID())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Cancel handles DELETE /v1/seat-sessions/:sid.
func (h *SeatHandler) Cancel(c echo.Context) error {
	ss, err := h.ownedSession(c)
	if ss == nil {
		return err
	}
	if err := h.Store.CancelSeatSession(ss.ID()); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
