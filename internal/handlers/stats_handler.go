package handlers

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tarhal-app/backend/internal/repositories"
)

const (
	defaultDestinationPeriodDays = 7
	maxDestinationPeriodDays     = 365
	topDestinationsLimit         = 20
)

// StatsHandler handles trending-destination and platform-stats HTTP requests
type StatsHandler struct {
	userRepository         repositories.UserRepository
	postRepository         repositories.PostRepository
	commentRepository      repositories.CommentRepository
	followRepository       repositories.FollowRepository
	conversationRepository repositories.ConversationRepository
	notificationRepository repositories.NotificationRepository
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(
	userRepo repositories.UserRepository,
	postRepo repositories.PostRepository,
	commentRepo repositories.CommentRepository,
	followRepo repositories.FollowRepository,
	convRepo repositories.ConversationRepository,
	notifRepo repositories.NotificationRepository,
) *StatsHandler {
	return &StatsHandler{
		userRepository:         userRepo,
		postRepository:         postRepo,
		commentRepository:      commentRepo,
		followRepository:       followRepo,
		conversationRepository: convRepo,
		notificationRepository: notifRepo,
	}
}

// RegisterStatsRoutes registers destination and stats routes
func (h *StatsHandler) RegisterStatsRoutes(public, authed *echo.Group) {
	public.GET("/destinations/top", h.TopDestinations)
	authed.GET("/admin/stats", h.PlatformStats)
}

// TopDestinations returns the most-posted-about cities over the requested
// window ("7d" by default), busiest first, with the average post rating per
// city rounded to one decimal.
func (h *StatsHandler) TopDestinations(c echo.Context) error {
	days, err := parsePeriodDays(c.QueryParam("period"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid period")
	}
	since := time.Now().AddDate(0, 0, -days)

	stats, err := h.postRepository.TopDestinations(c.Request().Context(), since, topDestinationsLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	for i := range stats {
		stats[i].AverageRating = math.Round(stats[i].AverageRating*10) / 10
	}
	return c.JSON(http.StatusOK, echo.Map{"items": stats, "period": strconv.Itoa(days) + "d"})
}

// PlatformStats returns entity totals across both stores
func (h *StatsHandler) PlatformStats(c echo.Context) error {
	ctx := c.Request().Context()

	users, err := h.userRepository.CountUsers()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	posts, err := h.postRepository.CountPosts(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	comments, err := h.commentRepository.CountComments()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	follows, err := h.followRepository.CountFollows()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	conversations, err := h.conversationRepository.CountConversations(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	messages, err := h.conversationRepository.CountMessages(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	notifications, err := h.notificationRepository.CountNotifications()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"users":         users,
		"posts":         posts,
		"comments":      comments,
		"follows":       follows,
		"conversations": conversations,
		"messages":      messages,
		"notifications": notifications,
	})
}

// parsePeriodDays parses a window like "7d" or "30d" into a day count
func parsePeriodDays(period string) (int, error) {
	if period == "" {
		return defaultDestinationPeriodDays, nil
	}
	days, err := strconv.Atoi(strings.TrimSuffix(period, "d"))
	if err != nil {
		return 0, err
	}
	if days < 1 || days > maxDestinationPeriodDays {
		return 0, strconv.ErrRange
	}
	return days, nil
}
