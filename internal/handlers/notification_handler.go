package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/tarhal-app/backend/internal/middleware"
	"github.com/tarhal-app/backend/internal/models"
	"github.com/tarhal-app/backend/internal/repositories"
)

// NotificationHandler handles notification HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(
	notifRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
	}
}

// RegisterNotificationRoutes registers notification-related routes
func (h *NotificationHandler) RegisterNotificationRoutes(authed *echo.Group) {
	authed.GET("/notifications", h.ListNotifications)
	authed.POST("/notifications/:id/read", h.MarkRead)
	authed.POST("/notifications/read-all", h.MarkAllRead)
}

// ListNotifications returns the viewer's notifications newest-first with the
// actor embedded and the total unread count.
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	viewerID := middleware.UserID(c)

	before, err := parseCursor(c)
	if err != nil {
		return err
	}
	limit := parseLimit(c, 20)

	notifications, err := h.notificationRepository.ListNotifications(viewerID, before, limit+1)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	page, nextCursor := slicePage(notifications, limit, func(n models.Notification) time.Time { return n.CreatedAt })

	actorIDs := make([]uint, len(page))
	for i, n := range page {
		actorIDs[i] = n.ActorID
	}
	actors, err := h.userRepository.GetUsersByIDs(actorIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	unread, err := h.notificationRepository.CountUnread(viewerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	items := make([]echo.Map, 0, len(page))
	for _, n := range page {
		item := echo.Map{
			"id":         n.ID,
			"type":       n.Type,
			"message":    n.Message,
			"post_id":    n.PostID,
			"is_read":    n.IsRead,
			"created_at": n.CreatedAt,
		}
		if u, ok := actors[n.ActorID]; ok {
			item["actor"] = u.ToCompact()
		}
		items = append(items, item)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":       items,
		"nextCursor":  nextCursor,
		"unreadCount": unread,
	})
}

// MarkRead marks one of the viewer's notifications as read
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	viewerID := middleware.UserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}
	if err := h.notificationRepository.MarkRead(uint(id), viewerID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"read": true})
}

// MarkAllRead marks every unread notification of the viewer as read
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	viewerID := middleware.UserID(c)

	if err := h.notificationRepository.MarkAllRead(viewerID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"read": true})
}
