package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/tarhal-app/backend/internal/middleware"
	"github.com/tarhal-app/backend/internal/models"
	"github.com/tarhal-app/backend/internal/realtime"
	"github.com/tarhal-app/backend/internal/repositories"
	"github.com/tarhal-app/backend/internal/visibility"
)

// FollowHandler handles follow-edge HTTP requests
type FollowHandler struct {
	followRepository       repositories.FollowRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	resolver               *visibility.Resolver
	hub                    *realtime.Hub
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(
	followRepo repositories.FollowRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	resolver *visibility.Resolver,
	hub *realtime.Hub,
) *FollowHandler {
	return &FollowHandler{
		followRepository:       followRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		resolver:               resolver,
		hub:                    hub,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(public, authed *echo.Group) {
	authed.POST("/follows", h.CreateFollow)
	authed.DELETE("/follows", h.Unfollow)
	authed.GET("/follow-requests", h.ListPendingRequests)
	authed.POST("/follow-requests/:id/accept", h.AcceptRequest)
	authed.POST("/follow-requests/:id/reject", h.RejectRequest)
	public.GET("/users/:username/followers", h.ListFollowers)
	public.GET("/users/:username/following", h.ListFollowing)
}

// CreateFollow requests to follow a user. The edge is created accepted for
// public targets and pending for private ones; repeated calls return the
// existing edge without duplicating it.
func (h *FollowHandler) CreateFollow(c echo.Context) error {
	viewerID := middleware.UserID(c)

	var req models.CreateFollowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.FollowingID == viewerID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	}

	target, err := h.userRepository.GetUserByID(req.FollowingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	status := models.DesiredFollowStatus(target)
	follow, err := h.followRepository.UpsertFollow(viewerID, target.ID, status)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.notifyFollow(viewerID, target.ID, follow.Status)

	return c.JSON(http.StatusCreated, echo.Map{
		"follow": echo.Map{"id": follow.ID, "status": follow.Status},
	})
}

// Unfollow removes a follow edge, by edge id or by target user id
func (h *FollowHandler) Unfollow(c echo.Context) error {
	viewerID := middleware.UserID(c)

	if rawID := c.QueryParam("id"); rawID != "" {
		id, err := strconv.ParseUint(rawID, 10, 32)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid follow ID")
		}
		if err := h.followRepository.DeleteFollowByID(uint(id), viewerID); err != nil {
			return echo.NewHTTPError(http.StatusNotFound, "Follow not found")
		}
		return c.NoContent(http.StatusNoContent)
	}

	// Fallback: unfollow by target user id in the body
	var req models.UnfollowRequest
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "id or userId required")
	}
	if err := h.followRepository.DeleteFollowByPair(viewerID, req.UserID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// ListPendingRequests returns follow requests awaiting the viewer's decision
func (h *FollowHandler) ListPendingRequests(c echo.Context) error {
	viewerID := middleware.UserID(c)

	requests, err := h.followRepository.ListPendingRequests(viewerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	requesterIDs := make([]uint, len(requests))
	for i, r := range requests {
		requesterIDs[i] = r.FollowerID
	}
	requesters, err := h.userRepository.GetUsersByIDs(requesterIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	items := make([]echo.Map, 0, len(requests))
	for _, r := range requests {
		item := echo.Map{"id": r.ID, "created_at": r.CreatedAt}
		if u, ok := requesters[r.FollowerID]; ok {
			item["user"] = u.ToCompact()
		}
		items = append(items, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// AcceptRequest transitions a pending edge to accepted. Only the target of
// the follow can accept it.
func (h *FollowHandler) AcceptRequest(c echo.Context) error {
	viewerID := middleware.UserID(c)

	follow, err := h.loadOwnedRequest(c, viewerID)
	if err != nil {
		return err
	}

	if err := h.followRepository.AcceptFollow(follow.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	notification := &models.Notification{
		RecipientID: follow.FollowerID,
		ActorID:     viewerID,
		Type:        models.NotificationFollow,
		Message:     "تم قبول طلب المتابعة",
	}
	if err := h.notificationRepository.CreateNotification(notification); err == nil {
		h.hub.Push(follow.FollowerID, realtime.Event{Type: realtime.EventNotification, Payload: notification})
	}

	return c.JSON(http.StatusOK, echo.Map{"id": follow.ID, "status": models.FollowAccepted})
}

// RejectRequest deletes a pending edge. Only the target of the follow can
// reject it.
func (h *FollowHandler) RejectRequest(c echo.Context) error {
	viewerID := middleware.UserID(c)

	follow, err := h.loadOwnedRequest(c, viewerID)
	if err != nil {
		return err
	}
	if err := h.followRepository.DeleteFollow(follow.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// ListFollowers returns the accepted followers of a user, subject to the
// owner's privacy and the viewer's block relationships.
func (h *FollowHandler) ListFollowers(c echo.Context) error {
	return h.listRelated(c, true)
}

// ListFollowing returns the users a user follows with accepted status
func (h *FollowHandler) ListFollowing(c echo.Context) error {
	return h.listRelated(c, false)
}

func (h *FollowHandler) listRelated(c echo.Context, followers bool) error {
	viewerID := middleware.UserID(c)

	owner, err := h.userRepository.GetUserByUsername(c.Param("username"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	allowed, err := h.resolver.CanView(viewerID, owner)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !allowed {
		return echo.NewHTTPError(http.StatusForbidden, "Private account")
	}

	before, err := parseCursor(c)
	if err != nil {
		return err
	}
	limit := parseLimit(c, 20)

	var follows []models.Follow
	if followers {
		follows, err = h.followRepository.ListFollowers(owner.ID, before, limit+1)
	} else {
		follows, err = h.followRepository.ListFollowing(owner.ID, before, limit+1)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	counterpartOf := func(f models.Follow) uint {
		if followers {
			return f.FollowerID
		}
		return f.FollowingID
	}

	// Strip users mutually blocked with the viewer before slicing the page
	ids := make([]uint, len(follows))
	for i, f := range follows {
		ids[i] = counterpartOf(f)
	}
	excluded, err := h.resolver.ExcludedOwners(viewerID, ids)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	kept := make([]models.Follow, 0, len(follows))
	for _, f := range follows {
		if _, blocked := excluded[counterpartOf(f)]; !blocked {
			kept = append(kept, f)
		}
	}

	page, nextCursor := slicePage(kept, limit, func(f models.Follow) time.Time { return f.CreatedAt })

	pageIDs := make([]uint, len(page))
	for i, f := range page {
		pageIDs[i] = counterpartOf(f)
	}
	users, err := h.userRepository.GetUsersByIDs(pageIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Whether the viewer follows each listed user, resolved in one query
	followingSet := map[uint]bool{}
	if viewerID != visibility.AnonymousViewer {
		followingSet, err = h.followRepository.AcceptedFollowingIDSet(viewerID, pageIDs)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	items := make([]echo.Map, 0, len(page))
	for _, f := range page {
		id := counterpartOf(f)
		u, ok := users[id]
		if !ok {
			continue
		}
		compact := u.ToCompact()
		items = append(items, echo.Map{
			"id":           compact.ID,
			"username":     compact.Username,
			"display_name": compact.DisplayName,
			"avatar_url":   compact.AvatarURL,
			"is_verified":  compact.IsVerified,
			"is_following": followingSet[id],
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "nextCursor": nextCursor})
}

func (h *FollowHandler) loadOwnedRequest(c echo.Context, viewerID uint) (*models.Follow, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid request ID")
	}
	follow, err := h.followRepository.GetFollowByID(uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Request not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if follow.FollowingID != viewerID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Not authorized")
	}
	return follow, nil
}

func (h *FollowHandler) notifyFollow(actorID, targetID uint, status models.FollowStatus) {
	notification := &models.Notification{
		RecipientID: targetID,
		ActorID:     actorID,
	}
	if status == models.FollowPending {
		notification.Type = models.NotificationFollowRequest
		notification.Message = "طلب متابعة جديد"
	} else {
		notification.Type = models.NotificationFollow
		notification.Message = "بدأ بمتابعتك"
	}
	if err := h.notificationRepository.CreateNotification(notification); err == nil {
		h.hub.Push(targetID, realtime.Event{Type: realtime.EventNotification, Payload: notification})
	}
}
