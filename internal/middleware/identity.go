package middleware

import "github.com/labstack/echo/v4"

// Context keys set by JWTAuth.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// Roles carried in the token's "role" claim.
const (
	RoleTraveler = "TRAVELER"
	RoleSupplier = "SUPPLIER"
	RoleAdmin    = "ADMIN"
)

// UserID returns the authenticated subject, or "" for anonymous requests.
func UserID(c echo.Context) string {
	s, _ := c.Get(ctxUserID).(string)
	return s
}

// Role returns the authenticated role, or "" for anonymous requests.
func Role(c echo.Context) string {
	s, _ := c.Get(ctxRole).(string)
	return s
}

// rateSubject identifies the caller for rate limiting.
func rateSubject(c echo.Context) string {
	if id := UserID(c); id != "" {
		return id
	}
	return "anon"
}
