package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-seat-planner/internal/handler"
	"github.com/iliyamo/tour-seat-planner/internal/middleware"
)

// RegisterSupplier registers SUPPLIER-scoped endpoints under
// /v1/services.  Suppliers publish bus layouts with their tier
// surcharges and price the packages of their services.
func RegisterSupplier(e *echo.Echo, l *handler.LayoutHandler, jwtSecret string) {
	g := e.Group(
		"/v1/services",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleSupplier),
	)
	g.PUT("/:id/layout", l.PublishLayout)
	g.PUT("/:id/packages/:package", l.PutPackage)
}
