package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tarhal-app/backend/internal/middleware"
	"github.com/tarhal-app/backend/internal/models"
	"github.com/tarhal-app/backend/internal/repositories"
	"github.com/tarhal-app/backend/internal/visibility"
)

// PostHandler handles post and feed HTTP requests
type PostHandler struct {
	postRepository      repositories.PostRepository
	userRepository      repositories.UserRepository
	likeRepository      repositories.LikeRepository
	savedPostRepository repositories.SavedPostRepository
	resolver            *visibility.Resolver
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	likeRepo repositories.LikeRepository,
	savedPostRepo repositories.SavedPostRepository,
	resolver *visibility.Resolver,
) *PostHandler {
	return &PostHandler{
		postRepository:      postRepo,
		userRepository:      userRepo,
		likeRepository:      likeRepo,
		savedPostRepository: savedPostRepo,
		resolver:            resolver,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(public, authed *echo.Group) {
	public.GET("/posts", h.ListPosts)
	public.GET("/posts/:id", h.GetPost)
	public.GET("/posts/:id/neighbors", h.GetNeighbors)
	public.GET("/search/posts", h.SearchPosts)
	authed.POST("/posts", h.CreatePost)
	authed.PUT("/posts/:id", h.UpdatePost)
	authed.DELETE("/posts/:id", h.DeletePost)
}

// PostView is the public response representation of a post
type PostView struct {
	ID            string             `json:"id"`
	UserID        uint               `json:"user_id"`
	User          models.UserCompact `json:"user"`
	Caption       string             `json:"caption"`
	ImageURLs     []string           `json:"image_urls,omitempty"`
	Location      models.Location    `json:"location"`
	Rating        int                `json:"rating"`
	Hashtags      []string           `json:"hashtags,omitempty"`
	LikesCount    int                `json:"likes_count"`
	CommentsCount int                `json:"comments_count"`
	IsLiked       bool               `json:"is_liked"`
	IsSaved       bool               `json:"is_saved"`
	CreatedAt     time.Time          `json:"created_at"`
}

// CreatePost creates a new post owned by the viewer
func (h *PostHandler) CreatePost(c echo.Context) error {
	viewerID := middleware.UserID(c)

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post := &models.Post{
		UserID:        viewerID,
		Caption:       req.Caption,
		ImageURLs:     req.ImageURLs,
		Location:      req.Location,
		Rating:        req.Rating,
		Hashtags:      normalizeHashtags(req.Hashtags),
		TaggedUserIDs: req.TaggedUserIDs,
	}
	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, echo.Map{"post": post})
}

// ListPosts returns the cursor-paginated feed, optionally filtered by
// hashtag or tagged user. Blocked owners and invisible private owners are
// stripped before the page is sliced.
func (h *PostHandler) ListPosts(c echo.Context) error {
	viewerID := middleware.UserID(c)

	before, err := parseCursor(c)
	if err != nil {
		return err
	}
	limit := parseLimit(c, defaultPageLimit)

	query := repositories.PostQuery{
		Before:  before,
		Hashtag: strings.TrimPrefix(c.QueryParam("hashtag"), "#"),
		Search:  strings.TrimSpace(c.QueryParam("q")),
		Limit:   int64(limit + 1),
	}
	if tagged := c.QueryParam("taggedUserId"); tagged != "" {
		id, err := strconv.ParseUint(tagged, 10, 32)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid taggedUserId")
		}
		query.TaggedUserID = uint(id)
	}

	posts, err := h.postRepository.ListPosts(c.Request().Context(), query)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return h.respondPostPage(c, viewerID, posts, limit)
}

// SearchPosts searches public-visible posts by caption text or hashtag
func (h *PostHandler) SearchPosts(c echo.Context) error {
	viewerID := middleware.UserID(c)
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query 'q' is required")
	}

	before, err := parseCursor(c)
	if err != nil {
		return err
	}
	limit := parseLimit(c, defaultPageLimit)

	query := repositories.PostQuery{Before: before, Limit: int64(limit + 1)}
	if strings.HasPrefix(q, "#") {
		query.Hashtag = strings.TrimPrefix(q, "#")
	} else {
		query.Search = q
	}

	posts, err := h.postRepository.ListPosts(c.Request().Context(), query)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return h.respondPostPage(c, viewerID, posts, limit)
}

// GetPost returns a single post, enforcing owner privacy
func (h *PostHandler) GetPost(c echo.Context) error {
	viewerID := middleware.UserID(c)

	post, owner, err := h.loadPostWithOwner(c, c.Param("id"))
	if err != nil {
		return err
	}

	allowed, err := h.resolver.CanView(viewerID, owner)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !allowed {
		return echo.NewHTTPError(http.StatusForbidden, "Private account")
	}

	views, err := h.buildViews(c, viewerID, []models.Post{*post}, map[uint]*models.User{owner.ID: owner})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"post": views[0]})
}

// UpdatePost updates a post owned by the viewer
func (h *PostHandler) UpdatePost(c echo.Context) error {
	viewerID := middleware.UserID(c)

	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return postError(err)
	}
	if post.UserID != viewerID {
		return echo.NewHTTPError(http.StatusForbidden, "Not the post owner")
	}

	var req models.UpdatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	req.Hashtags = normalizeHashtags(req.Hashtags)

	if err := h.postRepository.UpdatePost(c.Request().Context(), c.Param("id"), &req); err != nil {
		return postError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// DeletePost deletes a post owned by the viewer
func (h *PostHandler) DeletePost(c echo.Context) error {
	viewerID := middleware.UserID(c)

	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return postError(err)
	}
	if post.UserID != viewerID {
		return echo.NewHTTPError(http.StatusForbidden, "Not the post owner")
	}

	if err := h.postRepository.DeletePost(c.Request().Context(), c.Param("id")); err != nil {
		return postError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetNeighbors returns the nearest older and newer posts visible to the
// viewer, for prev/next navigation on the post page.
func (h *PostHandler) GetNeighbors(c echo.Context) error {
	viewerID := middleware.UserID(c)

	current, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return postError(err)
	}

	prevID, err := h.firstVisibleNeighbor(c, viewerID, current.CreatedAt, true)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	nextID, err := h.firstVisibleNeighbor(c, viewerID, current.CreatedAt, false)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"prevId": prevID, "nextId": nextID})
}

const neighborScanWindow = 10

func (h *PostHandler) firstVisibleNeighbor(c echo.Context, viewerID uint, pivot time.Time, older bool) (*string, error) {
	var candidates []models.Post
	var err error
	if older {
		candidates, err = h.postRepository.ListOlder(c.Request().Context(), pivot, nil, neighborScanWindow)
	} else {
		candidates, err = h.postRepository.ListNewer(c.Request().Context(), pivot, nil, neighborScanWindow)
	}
	if err != nil {
		return nil, err
	}

	visiblePosts, _, err := h.filterVisible(c, viewerID, candidates)
	if err != nil {
		return nil, err
	}
	if len(visiblePosts) == 0 {
		return nil, nil
	}
	id := visiblePosts[0].ID.Hex()
	return &id, nil
}

// filterVisible strips posts whose owner is mutually blocked with the viewer
// or not visible to them, using one batched user load and one resolver pass.
func (h *PostHandler) filterVisible(c echo.Context, viewerID uint, posts []models.Post) ([]models.Post, map[uint]*models.User, error) {
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
		return nil, nil, err
	}
	visible, err := h.resolver.VisibleOwnerSet(viewerID, owners)
	if err != nil {
		return nil, nil, err
	}

	kept := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if visible[p.UserID] {
			kept = append(kept, p)
		}
	}
	return kept, owners, nil
}

func (h *PostHandler) respondPostPage(c echo.Context, viewerID uint, posts []models.Post, limit int) error {
	kept, owners, err := h.filterVisible(c, viewerID, posts)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	page, nextCursor := slicePage(kept, limit, func(p models.Post) time.Time { return p.CreatedAt })

	views, err := h.buildViews(c, viewerID, page, owners)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"items": views, "nextCursor": nextCursor})
}

// buildViews shapes posts into their public representation, resolving the
// viewer's like/save state for the whole page in two queries.
func (h *PostHandler) buildViews(c echo.Context, viewerID uint, posts []models.Post, owners map[uint]*models.User) ([]PostView, error) {
	postIDs := make([]string, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID.Hex()
	}

	likedMap := map[string]bool{}
	savedMap := map[string]bool{}
	if viewerID != visibility.AnonymousViewer {
		var err error
		if likedMap, err = h.likeRepository.LikedPostIDs(viewerID, postIDs); err != nil {
			return nil, err
		}
		if savedMap, err = h.savedPostRepository.SavedPostIDs(viewerID, postIDs); err != nil {
			return nil, err
		}
	}

	views := make([]PostView, len(posts))
	for i, p := range posts {
		pid := p.ID.Hex()
		view := PostView{
			ID:            pid,
			UserID:        p.UserID,
			Caption:       p.Caption,
			ImageURLs:     p.ImageURLs,
			Location:      p.Location,
			Rating:        p.Rating,
			Hashtags:      p.Hashtags,
			LikesCount:    p.LikesCount,
			CommentsCount: p.CommentsCount,
			IsLiked:       likedMap[pid],
			IsSaved:       savedMap[pid],
			CreatedAt:     p.CreatedAt,
		}
		if owner, ok := owners[p.UserID]; ok {
			view.User = owner.ToCompact()
		}
		views[i] = view
	}
	return views, nil
}

func (h *PostHandler) loadPostWithOwner(c echo.Context, id string) (*models.Post, *models.User, error) {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), id)
	if err != nil {
		return nil, nil, postError(err)
	}
	owner, err := h.userRepository.GetUserByID(post.UserID)
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return post, owner, nil
}

func postError(err error) error {
	if err == repositories.ErrPostNotFound {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	if strings.Contains(err.Error(), "invalid post ID format") {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func normalizeHashtags(tags []string) []string {
	if tags == nil {
		return nil
	}
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag != "" {
			normalized = append(normalized, strings.ToLower(tag))
		}
	}
	return normalized
}
