package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/tarhal-app/backend/internal/middleware"
	"github.com/tarhal-app/backend/internal/models"
	"github.com/tarhal-app/backend/internal/repositories"
	"github.com/tarhal-app/backend/internal/visibility"
)

const profilePostsLimit = 48

// UserHandler handles user profile HTTP requests
type UserHandler struct {
	userRepository   repositories.UserRepository
	followRepository repositories.FollowRepository
	blockRepository  repositories.BlockRepository
	postRepository   repositories.PostRepository
	resolver         *visibility.Resolver
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(
	userRepo repositories.UserRepository,
	followRepo repositories.FollowRepository,
	blockRepo repositories.BlockRepository,
	postRepo repositories.PostRepository,
	resolver *visibility.Resolver,
) *UserHandler {
	return &UserHandler{
		userRepository:   userRepo,
		followRepository: followRepo,
		blockRepository:  blockRepo,
		postRepository:   postRepo,
		resolver:         resolver,
	}
}

// RegisterUserRoutes registers user-related routes
func (h *UserHandler) RegisterUserRoutes(public, authed *echo.Group) {
	public.GET("/users/check-username", h.CheckUsername)
	public.GET("/users/search", h.SearchUsers)
	public.GET("/users/:username", h.GetProfile)
	public.GET("/search/users", h.SearchUsers)
	authed.PUT("/users/me", h.UpdateMe)
	authed.GET("/users/me/blocks", h.ListBlocks)
	authed.POST("/users/:username/block", h.BlockUser)
	authed.POST("/users/:username/unblock", h.UnblockUser)
}

// ProfileRelationship describes how the viewer relates to the profile owner
type ProfileRelationship struct {
	IsFollowing bool  `json:"isFollowing"`
	IsPending   bool  `json:"isPending"`
	FollowID    *uint `json:"followId"`
	CanMessage  bool  `json:"canMessage"`
}

// GetProfile returns a user's profile with counts, recent posts and the
// viewer's relationship to the owner. Private accounts are withheld from
// viewers without an accepted follow.
func (h *UserHandler) GetProfile(c echo.Context) error {
	viewerID := middleware.UserID(c)

	user, err := h.userRepository.GetUserByUsername(c.Param("username"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	allowed, err := h.resolver.CanView(viewerID, user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !allowed {
		return echo.NewHTTPError(http.StatusForbidden, "Private account")
	}

	followers, err := h.followRepository.CountFollowers(user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	following, err := h.followRepository.CountFollowing(user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	postsCount, err := h.postRepository.CountByUser(c.Request().Context(), user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	posts, err := h.postRepository.ListPosts(c.Request().Context(), repositories.PostQuery{
		UserID: user.ID,
		Limit:  profilePostsLimit,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	relationship, err := h.relationshipWith(viewerID, user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user": echo.Map{
			"id":              user.ID,
			"username":        user.Username,
			"display_name":    user.DisplayName,
			"bio":             user.Bio,
			"avatar_url":      user.AvatarURL,
			"cover_url":       user.CoverURL,
			"is_private":      user.Visibility() == models.VisibilityPrivate,
			"is_verified":     user.IsVerified,
			"followers_count": followers,
			"following_count": following,
			"posts_count":     postsCount,
			"joined_at":       user.CreatedAt,
		},
		"posts":        posts,
		"relationship": relationship,
	})
}

// UpdateMe applies partial updates to the authenticated user's profile
func (h *UserHandler) UpdateMe(c echo.Context) error {
	viewerID := middleware.UserID(c)

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByID(viewerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}
	if req.CoverURL != nil {
		user.CoverURL = *req.CoverURL
	}
	if req.IsPrivate != nil {
		user.IsPrivate = *req.IsPrivate
		// Keep the legacy column consistent so either read path agrees
		if *req.IsPrivate {
			user.Privacy = string(models.VisibilityPrivate)
		} else {
			user.Privacy = string(models.VisibilityPublic)
		}
	}

	if err := h.userRepository.UpdateUser(user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

// SearchUsers finds users by username or display name prefix/substring,
// omitting anyone mutually blocked with the viewer.
func (h *UserHandler) SearchUsers(c echo.Context) error {
	viewerID := middleware.UserID(c)

	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return c.JSON(http.StatusOK, echo.Map{"items": []models.UserCompact{}})
	}
	limit := parseLimit(c, defaultPageLimit)

	users, err := h.userRepository.SearchUsers(query, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	excluded, err := h.resolver.ExcludedOwners(viewerID, ids)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	items := make([]models.UserCompact, 0, len(users))
	for i := range users {
		if _, blocked := excluded[users[i].ID]; blocked {
			continue
		}
		items = append(items, users[i].ToCompact())
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CheckUsername reports whether a username is still available
func (h *UserHandler) CheckUsername(c echo.Context) error {
	username := strings.TrimSpace(c.QueryParam("username"))
	if len(username) < 3 {
		return echo.NewHTTPError(http.StatusBadRequest, "Username too short")
	}
	exists, err := h.userRepository.UsernameExists(username)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"available": !exists})
}

// ListBlocks returns the users the viewer has blocked
func (h *UserHandler) ListBlocks(c echo.Context) error {
	viewerID := middleware.UserID(c)

	blocks, err := h.blockRepository.ListBlocked(viewerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ids := make([]uint, len(blocks))
	for i, b := range blocks {
		ids[i] = b.BlockedID
	}
	users, err := h.userRepository.GetUsersByIDs(ids)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	items := make([]echo.Map, 0, len(blocks))
	for _, b := range blocks {
		item := echo.Map{"blocked_at": b.CreatedAt}
		if u, ok := users[b.BlockedID]; ok {
			item["user"] = u.ToCompact()
		}
		items = append(items, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// BlockUser blocks the named user. Blocking also tears down any follow edges
// between the two so neither retains access through an old accepted follow.
func (h *UserHandler) BlockUser(c echo.Context) error {
	viewerID := middleware.UserID(c)

	target, err := h.loadTarget(c, viewerID)
	if err != nil {
		return err
	}

	if err := h.blockRepository.CreateBlock(viewerID, target.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.followRepository.DeleteFollowByPair(viewerID, target.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.followRepository.DeleteFollowByPair(target.ID, viewerID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"blocked": true})
}

// UnblockUser removes the viewer's block on the named user
func (h *UserHandler) UnblockUser(c echo.Context) error {
	viewerID := middleware.UserID(c)

	target, err := h.loadTarget(c, viewerID)
	if err != nil {
		return err
	}
	if err := h.blockRepository.DeleteBlock(viewerID, target.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"blocked": false})
}

func (h *UserHandler) relationshipWith(viewerID uint, owner *models.User) (*ProfileRelationship, error) {
	rel := &ProfileRelationship{}
	if viewerID == visibility.AnonymousViewer || viewerID == owner.ID {
		return rel, nil
	}

	follow, err := h.followRepository.GetFollow(viewerID, owner.ID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	if follow != nil {
		rel.IsFollowing = follow.Status == models.FollowAccepted
		rel.IsPending = follow.Status == models.FollowPending
		id := follow.ID
		rel.FollowID = &id
	}

	canMessage, err := h.resolver.CanMessage(viewerID, owner.ID)
	if err != nil {
		return nil, err
	}
	rel.CanMessage = canMessage
	return rel, nil
}

func (h *UserHandler) loadTarget(c echo.Context, viewerID uint) (*models.User, error) {
	target, err := h.userRepository.GetUserByUsername(c.Param("username"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if target.ID == viewerID {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Cannot block yourself")
	}
	return target, nil
}
