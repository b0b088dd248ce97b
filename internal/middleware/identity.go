package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID extracts the authenticated user id from the context
// as a string for rate-limit key building.  Requests without a token
// (public browse) share the "anon" bucket per IP.
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case uint64:
		return strconv.FormatUint(v, 10)
	case string:
		if v != "" {
			return v
		}
	}
	return "anon"
}

// UserID returns the authenticated user's id stored by JWTAuth, or
// false when the request is unauthenticated.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get("user_id").(uint64)
	return id, ok
}

// Role returns the authenticated user's role stored by JWTAuth.
func Role(c echo.Context) string {
	role, _ := c.Get("role").(string)
	return role
}
