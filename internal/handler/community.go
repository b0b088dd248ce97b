package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-booking/internal/hub"
	"github.com/iliyamo/library-seat-booking/internal/model"
	"github.com/iliyamo/library-seat-booking/internal/realtime"
	"github.com/iliyamo/library-seat-booking/internal/repository"
)

// CommunityHandler serves community rooms: owners create them per
// library, students list them and post chat messages.  Messages are
// fan-out only — they go to the community's room on the push channel
// and are not stored.
type CommunityHandler struct {
	Libraries   *repository.LibraryRepo
	Communities *repository.CommunityRepo
	Hub         *hub.Hub
}

func NewCommunityHandler(libraries *repository.LibraryRepo, communities *repository.CommunityRepo, h *hub.Hub) *CommunityHandler {
	return &CommunityHandler{Libraries: libraries, Communities: communities, Hub: h}
}

type communityReq struct {
	Name string `json:"name"`
}

type communityResp struct {
	ID        uint64 `json:"id"`
	LibraryID uint64 `json:"library_id"`
	Name      string `json:"name"`
}

// CreateCommunity adds a community to the owner's library.
func (h *CommunityHandler) CreateCommunity(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	libID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid library id"})
	}
	var req communityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Libraries.GetByIDAndOwner(ctx, libID, ownerID); err != nil {
		return ownerLookupError(c, err)
	}
	community := &model.Community{LibraryID: libID, Name: req.Name}
	if err := h.Communities.Create(ctx, community); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "community name already used"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create community failed"})
	}
	return c.JSON(http.StatusCreated, communityResp{ID: community.ID, LibraryID: libID, Name: community.Name})
}

// ListCommunities returns a library's communities.
func (h *CommunityHandler) ListCommunities(c echo.Context) error {
	libID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid library id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Libraries.GetByID(ctx, libID); err != nil {
		if err == repository.ErrLibraryNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "library not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	communities, err := h.Communities.ListByLibrary(ctx, libID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]communityResp, 0, len(communities))
	for _, cm := range communities {
		out = append(out, communityResp{ID: cm.ID, LibraryID: cm.LibraryID, Name: cm.Name})
	}
	return c.JSON(http.StatusOK, echo.Map{"communities": out})
}

type messageReq struct {
	Body string `json:"body"`
}

// PostMessage pushes a chat message to the community room.
func (h *CommunityHandler) PostMessage(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	communityID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid community id"})
	}
	var req messageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "body required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Communities.GetByID(ctx, communityID); err != nil {
		if err == repository.ErrCommunityNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "community not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	h.Hub.MessageNew(realtime.ChatMessage{
		CommunityID: communityID,
		UserID:      userID,
		Body:        req.Body,
		SentAt:      time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusAccepted, echo.Map{"sent": true})
}
