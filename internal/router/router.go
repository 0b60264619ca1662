package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-seat-planner/internal/handler"
)

// RegisterRoutes registers the unauthenticated probes.  /healthz only
// proves the process is up; /readyz also checks the database.
func RegisterRoutes(e *echo.Echo, ready echo.HandlerFunc) {
	e.GET("/healthz", handler.Health)
	if ready != nil {
		e.GET("/readyz", ready)
	}
}

// RegisterPublic registers endpoints guests may call.  The priced seat map
// is served through cache, which may be a pass-through.
func RegisterPublic(e *echo.Echo, l *handler.LayoutHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/services/:id/seats", l.SeatMap, cache)
}
