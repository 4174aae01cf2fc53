package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tarhal-app/backend/internal/middleware"
	"github.com/tarhal-app/backend/internal/models"
	"github.com/tarhal-app/backend/internal/repositories"
	"github.com/tarhal-app/backend/internal/visibility"
)

// SavedPostHandler handles bookmark HTTP requests
type SavedPostHandler struct {
	savedPostRepository repositories.SavedPostRepository
	postRepository      repositories.PostRepository
	userRepository      repositories.UserRepository
	resolver            *visibility.Resolver
}

// NewSavedPostHandler creates a new SavedPostHandler
func NewSavedPostHandler(
	savedPostRepo repositories.SavedPostRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	resolver *visibility.Resolver,
) *SavedPostHandler {
	return &SavedPostHandler{
		savedPostRepository: savedPostRepo,
		postRepository:      postRepo,
		userRepository:      userRepo,
		resolver:            resolver,
	}
}

// RegisterSavedPostRoutes registers bookmark-related routes
func (h *SavedPostHandler) RegisterSavedPostRoutes(authed *echo.Group) {
	authed.POST("/posts/:id/save", h.SavePost)
	authed.DELETE("/posts/:id/save", h.UnsavePost)
	authed.GET("/users/me/saved", h.ListSaved)
}

// SavePost bookmarks a post the viewer can see. Saving twice is a no-op.
func (h *SavedPostHandler) SavePost(c echo.Context) error {
	viewerID := middleware.UserID(c)

	post, err := h.visiblePost(c, viewerID)
	if err != nil {
		return err
	}
	if err := h.savedPostRepository.SavePost(viewerID, post.ID.Hex()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"saved": true})
}

// UnsavePost removes a bookmark
func (h *SavedPostHandler) UnsavePost(c echo.Context) error {
	viewerID := middleware.UserID(c)

	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return postError(err)
	}
	if err := h.savedPostRepository.UnsavePost(viewerID, post.ID.Hex()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"saved": false})
}

// ListSaved returns the viewer's bookmarked posts newest-first. Bookmarks
// whose post was deleted, or whose owner is mutually blocked with the viewer
// or otherwise no longer visible to them, are skipped. Posts, owners and
// the visibility set are each loaded with a single batched query.
func (h *SavedPostHandler) ListSaved(c echo.Context) error {
	viewerID := middleware.UserID(c)

	before, err := parseCursor(c)
	if err != nil {
		return err
	}
	limit := parseLimit(c, defaultPageLimit)

	saved, err := h.savedPostRepository.ListSaved(viewerID, before, limit+1)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	page, nextCursor := slicePage(saved, limit, func(s models.SavedPost) time.Time { return s.CreatedAt })

	postIDs := make([]string, len(page))
	for i, s := range page {
		postIDs[i] = s.PostID
	}
	posts, err := h.postRepository.GetPostsByIDs(c.Request().Context(), postIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ownerIDs := make([]uint, 0, len(posts))
	seen := make(map[uint]bool, len(posts))
	for _, p := range posts {
		if !seen[p.UserID] {
			seen[p.UserID] = true
			ownerIDs = append(ownerIDs, p.UserID)
		}
	}
	owners, err := h.userRepository.GetUsersByIDs(ownerIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	visible, err := h.resolver.VisibleOwnerSet(viewerID, owners)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	items := make([]echo.Map, 0, len(page))
	for _, s := range page {
		post, ok := posts[s.PostID]
		if !ok {
			continue
		}
		owner, ok := owners[post.UserID]
		if !ok || !visible[post.UserID] {
			continue
		}
		items = append(items, echo.Map{
			"saved_at": s.CreatedAt,
			"post":     post,
			"user":     owner.ToCompact(),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "nextCursor": nextCursor})
}

func (h *SavedPostHandler) visiblePost(c echo.Context, viewerID uint) (*models.Post, error) {
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
