package handlers

import (
	"net/http"

	"github.com/anonto42/echoo/backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// getUserIDFromContext returns the UID stored by the auth middleware
func getUserIDFromContext(c echo.Context) (string, error) {
	uid, ok := c.Get(middleware.ContextKeyUID).(string)
	if !ok || uid == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}
	return uid, nil
}
