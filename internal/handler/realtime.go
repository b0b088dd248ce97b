package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-booking/internal/hub"
	"github.com/iliyamo/library-seat-booking/internal/middleware"
)

// RealtimeHandler upgrades authenticated requests to WebSocket
// sessions on the hub.  The access token may come from the
// Authorization header or, for browser clients that cannot set
// headers on the handshake, the "token" query parameter.
type RealtimeHandler struct {
	Secret   string
	Hub      *hub.Hub
	upgrader websocket.Upgrader
}

func NewRealtimeHandler(secret string, h *hub.Hub) *RealtimeHandler {
	return &RealtimeHandler{
		Secret: secret,
		Hub:    h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The browse frontend and the API are served from
			// different origins in every deployment we run.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve validates the token, upgrades the connection and runs the
// session until the peer disconnects.
func (h *RealtimeHandler) Serve(c echo.Context) error {
	raw := c.QueryParam("token")
	if raw == "" {
		if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			raw = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if raw == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing token"})
	}
	userID, role, err := middleware.ParseAccessToken(h.Secret, raw)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written its own error response.
		return nil
	}
	hub.NewSession(h.Hub, conn, userID, role).Run()
	return nil
}
