package middleware

import (
	"github.com/labstack/echo/v4"
)

// NoStore keeps browsers from caching rendered pages, so going back after a
// logout or an expiry asks the portal again instead of showing a stale page.
func NoStore() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderCacheControl, "no-store")
			h.Set("Pragma", "no-cache")
			return next(c)
		}
	}
}
