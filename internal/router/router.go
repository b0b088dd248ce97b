// Package router registers the API's HTTP routes on an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-booking/internal/handler"
	"github.com/iliyamo/library-seat-booking/internal/middleware"
	"github.com/iliyamo/library-seat-booking/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints.  Register,
// login, refresh and logout live under /v1/auth and need no session;
// /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints.
// cacheMW is the Redis response cache; pass nil to serve uncached.
func RegisterPublic(e *echo.Echo, b *handler.BrowseHandler, cacheMW echo.MiddlewareFunc) {
	var g *echo.Group
	if cacheMW != nil {
		g = e.Group("/v1", cacheMW)
	} else {
		g = e.Group("/v1")
	}
	g.GET("/libraries", b.ListLibraries)
	g.GET("/libraries/:id", b.GetLibrary)
	g.GET("/libraries/:id/plans", b.ListLibraryPlans)
}

// RegisterCommunity registers the community room endpoints.  Creation
// is OWNER-scoped; listing and posting need any authenticated user.
func RegisterCommunity(e *echo.Echo, cm *handler.CommunityHandler, jwtSecret string) {
	owner := e.Group(
		"/v1/owner",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOwner),
	)
	owner.POST("/libraries/:id/communities", cm.CreateCommunity)

	auth := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleStudent, model.RoleOwner),
	)
	auth.GET("/libraries/:id/communities", cm.ListCommunities)
	auth.POST("/communities/:id/messages", cm.PostMessage)
}

// RegisterOwner registers OWNER-scoped management endpoints.  The
// booking handler contributes the per-library booking view.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1/owner",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOwner),
	)

	// ---- Libraries ----
	g.POST("/libraries", o.CreateLibrary)
	g.GET("/libraries", o.ListMyLibraries)
	g.PUT("/libraries/:id", o.UpdateLibrary)

	// ---- Seats ----
	g.POST("/libraries/:id/seats", o.CreateSeats)
	g.GET("/libraries/:id/seats", o.ListSeats)
	g.PATCH("/libraries/:id/seats/:seatID", o.SetSeatStatus)

	// ---- Fee plans ----
	g.POST("/libraries/:id/plans", o.CreatePlan)
	g.GET("/libraries/:id/plans", o.ListPlans)
	g.PUT("/libraries/:id/plans/:planID", o.UpdatePlan)
	g.PATCH("/libraries/:id/plans/:planID/status", o.SetPlanStatus)

	// ---- Bookings ----
	g.GET("/libraries/:id/bookings", b.ListLibraryBookings)
}

// RegisterStudent registers the student booking endpoints.
func RegisterStudent(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1/student",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleStudent),
	)
	g.POST("/quote", b.Quote)
	g.POST("/bookings", b.CreateBooking)
	g.GET("/bookings", b.ListMyBookings)
	g.POST("/bookings/:reference/cancel", b.CancelBooking)
}

// RegisterRealtime registers the WebSocket upgrade endpoint.  Token
// validation happens inside the handler so browser clients can pass
// the token as a query parameter.
func RegisterRealtime(e *echo.Echo, rt *handler.RealtimeHandler) {
	e.GET("/v1/ws", rt.Serve)
}
