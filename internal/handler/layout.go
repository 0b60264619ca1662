package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/tour-seat-planner/internal/model"
	"github.com/iliyamo/tour-seat-planner/internal/pricing"
	"github.com/iliyamo/tour-seat-planner/internal/repository"
)

// LayoutStore is implemented by repository.BusLayoutRepo.
type LayoutStore interface {
	Publish(ctx context.Context, p repository.PublishedLayout) error
	Get(ctx context.Context, serviceID string) (repository.PublishedLayout, error)
}

// PackageStore is implemented by repository.PackageRepo.
type PackageStore interface {
	PutPackage(ctx context.Context, serviceID, packageName string, price model.Money) error
}

// CacheInvalidator is implemented by middleware.SeatMapCache.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, path string) error
}

// LayoutHandler publishes bus layouts and serves priced seat maps.
type LayoutHandler struct {
	Layouts  LayoutStore
	Packages PackageStore
	Engine   pricing.Engine
	Cache    CacheInvalidator // optional
	Logger   *zap.Logger
}

// NewLayoutHandler constructs a LayoutHandler.  cache may be nil.
func NewLayoutHandler(layouts LayoutStore, packages PackageStore, engine pricing.Engine, cache CacheInvalidator, logger *zap.Logger) *LayoutHandler {
	if layouts == nil || packages == nil {
		panic("nil repository passed to NewLayoutHandler")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LayoutHandler{Layouts: layouts, Packages: packages, Engine: engine, Cache: cache, Logger: logger}
}

type seatMapResponse struct {
	ServiceID  string              `json:"service_id"`
	SupplierID string              `json:"supplier_id"`
	Layout     *model.BusLayout    `json:"layout"`
	Pricing    model.SeatPricing   `json:"pricing"`
	FrontBand  int                 `json:"front_band_rows"`
	Seats      []pricing.SeatQuote `json:"seats"`
}

func seatMapPath(serviceID string) string {
	return "/v1/services/" + serviceID + "/seats"
}

// SeatMap handles GET /v1/services/:id/seats.  The response lists every
// seat row-major with its tier and surcharge.
func (h *LayoutHandler) SeatMap(c echo.Context) error {
	serviceID := c.Param("id")
	p, err := h.Layouts.Get(c.Request().Context(), serviceID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, seatMapResponse{
		ServiceID:  p.ServiceID,
		SupplierID: p.SupplierID,
		Layout:     p.Layout,
		Pricing:    p.Pricing,
		FrontBand:  h.Engine.FrontBand(),
		Seats:      h.Engine.Quote(p.Layout, p.Pricing),
	})
}

// PublishLayout handles PUT /v1/services/:id/layout.  The caller becomes
// the supplier of the service; a layout published by another supplier
// cannot be replaced.
func (h *LayoutHandler) PublishLayout(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Layout  json.RawMessage   `json:"layout"`
		Pricing model.SeatPricing `json:"pricing"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if len(body.Layout) == 0 {
		return badRequest(c, "layout is required")
	}
	var layout model.BusLayout
	if err := json.Unmarshal(body.Layout, &layout); err != nil {
		var cfgErr *model.ConfigurationError
		if errors.As(err, &cfgErr) {
			return writeError(c, err)
		}
		return badRequest(c, "invalid layout")
	}
	if err := body.Pricing.Validate(); err != nil {
		return writeError(c, err)
	}
	ctx := c.Request().Context()
	serviceID := c.Param("id")
	p := repository.PublishedLayout{ServiceID: serviceID, SupplierID: uid, Layout: &layout, Pricing: body.Pricing}
	if err := h.Layouts.Publish(ctx, p); err != nil {
		return writeError(c, err)
	}
	if h.Cache != nil {
		if err := h.Cache.Invalidate(ctx, seatMapPath(serviceID)); err != nil {
			h.Logger.Warn("seat map cache invalidation failed", zap.String("service_id", serviceID), zap.Error(err))
		}
	}
	h.Logger.Info("layout published", zap.String("service_id", serviceID), zap.String("supplier_id", uid),
		zap.Int("seats", len(layout.Seats())))
	return c.JSON(http.StatusOK, seatMapResponse{
		ServiceID:  serviceID,
		SupplierID: uid,
		Layout:     &layout,
		Pricing:    body.Pricing,
		FrontBand:  h.Engine.FrontBand(),
		Seats:      h.Engine.Quote(&layout, body.Pricing),
	})
}

// PutPackage handles PUT /v1/services/:id/packages/:package, setting the
// base price of a package.  Only the supplier that published the
// service's layout may price its packages.
func (h *LayoutHandler) PutPackage(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Price *model.Money `json:"price_cents"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Price == nil || *body.Price < 0 {
		return badRequest(c, "price_cents must be a non-negative integer")
	}
	ctx := c.Request().Context()
	serviceID, name := c.Param("id"), c.Param("package")
	p, err := h.Layouts.Get(ctx, serviceID)
	if err != nil {
		return writeError(c, err)
	}
	if p.SupplierID != uid {
		return writeError(c, repository.ErrForbidden)
	}
	if err := h.Packages.PutPackage(ctx, serviceID, name, *body.Price); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"service_id": serviceID, "package_type": name, "price_cents": *body.Price})
}
