package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-seat-planner/internal/handler"
	"github.com/iliyamo/tour-seat-planner/internal/middleware"
)

// RegisterTraveler registers the trip plan endpoints under /v1.  All
// routes require a valid JWT and the TRAVELER role; ownership of each
// plan is checked in the handlers.  seatLimit throttles the seat session
// endpoints, which clients tend to call once per click.
func RegisterTraveler(e *echo.Echo, p *handler.PlanHandler, s *handler.SeatHandler, jwtSecret string, seatLimit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleTraveler),
	)

	// ---- Plans ----
	g.POST("/plans", p.CreatePlan)
	g.GET("/plans", p.ListPlans)
	g.GET("/plans/active", p.Active)
	g.GET("/plans/:id", p.GetPlan)
	g.POST("/plans/:id/activate", p.Activate)
	g.GET("/plans/:id/budget", p.GetBudget)
	g.PUT("/plans/:id/budget", p.SetBudget)
	g.GET("/budget", p.Overview)

	// ---- Cart ----
	g.GET("/plans/:id/cart", p.GetCart)
	g.POST("/plans/:id/cart/items", p.AddCartItem)
	g.PATCH("/plans/:id/cart/items/:item", p.UpdateCartItem)
	g.DELETE("/plans/:id/cart/items/:item", p.DeleteCartItem)
	g.PUT("/plans/:id/cart/adjustments", p.SetCartAdjustments)

	// ---- Timeline ----
	g.GET("/plans/:id/timeline", p.GetTimeline)
	g.POST("/plans/:id/timeline/items", p.AddTimelineItem)
	g.PUT("/plans/:id/timeline/items/:item", p.UpdateTimelineItem)
	g.PATCH("/plans/:id/timeline/items/:item", p.MarkTimelineItem)
	g.DELETE("/plans/:id/timeline/items/:item", p.DeleteTimelineItem)

	// ---- Seat sessions ----
	g.POST("/plans/:id/seat-sessions", s.StartSession, seatLimit)
	g.GET("/seat-sessions/:sid", s.GetSession)
	g.PUT("/seat-sessions/:sid/passengers/:idx", s.SelectSeat, seatLimit)
	g.DELETE("/seat-sessions/:sid/passengers/:idx", s.DeselectSeat, seatLimit)
	g.POST("/seat-sessions/:sid/confirm", s.Confirm, seatLimit)
	g.DELETE("/seat-sessions/:sid", s.Cancel)
}
