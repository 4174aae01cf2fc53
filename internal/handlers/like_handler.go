package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tarhal-app/backend/internal/middleware"
	"github.com/tarhal-app/backend/internal/models"
	"github.com/tarhal-app/backend/internal/realtime"
	"github.com/tarhal-app/backend/internal/repositories"
	"github.com/tarhal-app/backend/internal/visibility"
)

// LikeHandler handles post-like HTTP requests
type LikeHandler struct {
	likeRepository         repositories.LikeRepository
	postRepository         repositories.PostRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	resolver               *visibility.Resolver
	hub                    *realtime.Hub
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(
	likeRepo repositories.LikeRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	resolver *visibility.Resolver,
	hub *realtime.Hub,
) *LikeHandler {
	return &LikeHandler{
		likeRepository:         likeRepo,
		postRepository:         postRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		resolver:               resolver,
		hub:                    hub,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(public, authed *echo.Group) {
	authed.POST("/posts/:id/like", h.LikePost)
	authed.DELETE("/posts/:id/like", h.UnlikePost)
	public.GET("/posts/:id/likes", h.ListPostLikes)
}

// LikePost records a like on a post the viewer can see. Repeated likes are
// absorbed without inflating the counter.
func (h *LikeHandler) LikePost(c echo.Context) error {
	viewerID := middleware.UserID(c)

	post, err := h.loadVisiblePost(c, viewerID)
	if err != nil {
		return err
	}

	created, err := h.likeRepository.CreateLike(post.ID.Hex(), viewerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if created {
		if err := h.postRepository.IncrementLikesCount(c.Request().Context(), post.ID.Hex(), 1); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if post.UserID != viewerID {
			notification := &models.Notification{
				RecipientID: post.UserID,
				ActorID:     viewerID,
				Type:        models.NotificationLike,
				Message:     "أعجب بمنشورك",
				PostID:      post.ID.Hex(),
			}
			if err := h.notificationRepository.CreateNotification(notification); err == nil {
				h.hub.Push(post.UserID, realtime.Event{Type: realtime.EventNotification, Payload: notification})
			}
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"liked": true})
}

// UnlikePost removes the viewer's like, decrementing the counter only when a
// like actually existed.
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	viewerID := middleware.UserID(c)

	post, err := h.loadVisiblePost(c, viewerID)
	if err != nil {
		return err
	}

	deleted, err := h.likeRepository.DeleteLike(post.ID.Hex(), viewerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if deleted {
		if err := h.postRepository.IncrementLikesCount(c.Request().Context(), post.ID.Hex(), -1); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"liked": false})
}

// ListPostLikes returns the most recent likers of a post
func (h *LikeHandler) ListPostLikes(c echo.Context) error {
	viewerID := middleware.UserID(c)

	post, err := h.loadVisiblePost(c, viewerID)
	if err != nil {
		return err
	}

	limit := parseLimit(c, 20)
	likes, err := h.likeRepository.ListPostLikes(post.ID.Hex(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ids := make([]uint, len(likes))
	for i, l := range likes {
		ids[i] = l.UserID
	}
	users, err := h.userRepository.GetUsersByIDs(ids)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	items := make([]echo.Map, 0, len(likes))
	for _, l := range likes {
		item := echo.Map{"liked_at": l.CreatedAt}
		if u, ok := users[l.UserID]; ok {
			item["user"] = u.ToCompact()
		}
		items = append(items, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// loadVisiblePost fetches the post and applies the owner's visibility to the
// viewer, translating denials to the API error taxonomy.
func (h *LikeHandler) loadVisiblePost(c echo.Context, viewerID uint) (*models.Post, error) {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, postError(err)
	}
	owner, err := h.userRepository.GetUserByID(post.UserID)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	allowed, err := h.resolver.CanView(viewerID, owner)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !allowed {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Private account")
	}
	return post, nil
}
