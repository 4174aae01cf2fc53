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

// CommentHandler handles comment HTTP requests
type CommentHandler struct {
	commentRepository      repositories.CommentRepository
	postRepository         repositories.PostRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	resolver               *visibility.Resolver
	hub                    *realtime.Hub
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(
	commentRepo repositories.CommentRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	resolver *visibility.Resolver,
	hub *realtime.Hub,
) *CommentHandler {
	return &CommentHandler{
		commentRepository:      commentRepo,
		postRepository:         postRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		resolver:               resolver,
		hub:                    hub,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(public, authed *echo.Group) {
	public.GET("/posts/:id/comments", h.ListComments)
	authed.POST("/posts/:id/comments", h.CreateComment)
	authed.DELETE("/comments/:commentId", h.DeleteComment)
	authed.POST("/comments/:commentId/like", h.LikeComment)
	authed.DELETE("/comments/:commentId/like", h.UnlikeComment)
}

// ListComments returns a post's comments newest-first with cursor pagination
func (h *CommentHandler) ListComments(c echo.Context) error {
	viewerID := middleware.UserID(c)

	post, err := h.visiblePost(c, viewerID)
	if err != nil {
		return err
	}

	before, err := parseCursor(c)
	if err != nil {
		return err
	}
	limit := parseLimit(c, defaultPageLimit)

	comments, err := h.commentRepository.ListByPost(post.ID.Hex(), before, limit+1)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	page, nextCursor := slicePage(comments, limit, func(cm models.Comment) time.Time { return cm.CreatedAt })

	authorIDs := make([]uint, len(page))
	for i, cm := range page {
		authorIDs[i] = cm.UserID
	}
	authors, err := h.userRepository.GetUsersByIDs(authorIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	items := make([]echo.Map, 0, len(page))
	for _, cm := range page {
		item := echo.Map{
			"id":          cm.ID,
			"content":     cm.Content,
			"likes_count": cm.LikesCount,
			"created_at":  cm.CreatedAt,
		}
		if u, ok := authors[cm.UserID]; ok {
			item["user"] = u.ToCompact()
		}
		items = append(items, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "nextCursor": nextCursor})
}

// CreateComment adds a comment to a post the viewer can see, bumping the
// post's comment counter and notifying the owner.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	viewerID := middleware.UserID(c)

	post, err := h.visiblePost(c, viewerID)
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	comment := &models.Comment{
		PostID:  post.ID.Hex(),
		UserID:  viewerID,
		Content: req.Content,
	}
	if err := h.commentRepository.CreateComment(comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.postRepository.IncrementCommentsCount(c.Request().Context(), post.ID.Hex(), 1); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if post.UserID != viewerID {
		notification := &models.Notification{
			RecipientID: post.UserID,
			ActorID:     viewerID,
			Type:        models.NotificationComment,
			Message:     "علق على منشورك",
			PostID:      post.ID.Hex(),
		}
		if err := h.notificationRepository.CreateNotification(notification); err == nil {
			h.hub.Push(post.UserID, realtime.Event{Type: realtime.EventNotification, Payload: notification})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"comment": comment})
}

// DeleteComment removes the viewer's own comment and decrements the post's
// comment counter.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	viewerID := middleware.UserID(c)

	id, err := h.commentID(c)
	if err != nil {
		return err
	}

	comment, err := h.commentRepository.GetCommentByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if comment.UserID != viewerID {
		return echo.NewHTTPError(http.StatusForbidden, "Not the comment owner")
	}

	if err := h.commentRepository.DeleteComment(id, viewerID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.postRepository.IncrementCommentsCount(c.Request().Context(), comment.PostID, -1); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// LikeComment records the viewer's like on a comment. Repeats are absorbed
// without inflating the counter.
func (h *CommentHandler) LikeComment(c echo.Context) error {
	viewerID := middleware.UserID(c)

	comment, err := h.visibleComment(c, viewerID)
	if err != nil {
		return err
	}

	created, err := h.commentRepository.CreateCommentLike(comment.ID, viewerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if created {
		if err := h.commentRepository.AdjustLikesCount(comment.ID, 1); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"liked": true})
}

// UnlikeComment removes the viewer's like on a comment
func (h *CommentHandler) UnlikeComment(c echo.Context) error {
	viewerID := middleware.UserID(c)

	comment, err := h.visibleComment(c, viewerID)
	if err != nil {
		return err
	}

	deleted, err := h.commentRepository.DeleteCommentLike(comment.ID, viewerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if deleted {
		if err := h.commentRepository.AdjustLikesCount(comment.ID, -1); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"liked": false})
}

func (h *CommentHandler) commentID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("commentId"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}
	return uint(id), nil
}

// visiblePost loads the post in the path and enforces the owner's visibility
func (h *CommentHandler) visiblePost(c echo.Context, viewerID uint) (*models.Post, error) {
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

// visibleComment loads the comment in the path and enforces the visibility of
// the post it belongs to.
func (h *CommentHandler) visibleComment(c echo.Context, viewerID uint) (*models.Comment, error) {
	id, err := h.commentID(c)
	if err != nil {
		return nil, err
	}
	comment, err := h.commentRepository.GetCommentByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Comment not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), comment.PostID)
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
	return comment, nil
}
