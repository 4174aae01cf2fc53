package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tarhal-app/backend/internal/middleware"
	"github.com/tarhal-app/backend/internal/models"
	"github.com/tarhal-app/backend/internal/realtime"
	"github.com/tarhal-app/backend/internal/repositories"
	"github.com/tarhal-app/backend/internal/visibility"
)

// MessageHandler handles direct-message HTTP requests
type MessageHandler struct {
	conversationRepository repositories.ConversationRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	resolver               *visibility.Resolver
	hub                    *realtime.Hub
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(
	convRepo repositories.ConversationRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	resolver *visibility.Resolver,
	hub *realtime.Hub,
) *MessageHandler {
	return &MessageHandler{
		conversationRepository: convRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		resolver:               resolver,
		hub:                    hub,
	}
}

// RegisterMessageRoutes registers messaging-related routes
func (h *MessageHandler) RegisterMessageRoutes(authed *echo.Group) {
	authed.GET("/conversations", h.ListConversations)
	authed.POST("/conversations", h.CreateConversation)
	authed.GET("/conversations/:id/messages", h.ListMessages)
	authed.POST("/conversations/:id/messages", h.SendMessage)
}

// ListConversations returns the viewer's threads with the counterpart user,
// last message and unread count attached to each. Counterparts, last
// messages and unread counts are each loaded with a single batched query.
func (h *MessageHandler) ListConversations(c echo.Context) error {
	viewerID := middleware.UserID(c)
	ctx := c.Request().Context()

	convs, err := h.conversationRepository.ListConversations(ctx, viewerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	convIDs := make([]primitive.ObjectID, len(convs))
	otherIDs := make([]uint, 0, len(convs))
	lastMessageIDs := make([]primitive.ObjectID, 0, len(convs))
	for i, conv := range convs {
		convIDs[i] = conv.ID
		if other := conv.OtherParticipant(viewerID); other != 0 {
			otherIDs = append(otherIDs, other)
		}
		if !conv.LastMessageID.IsZero() {
			lastMessageIDs = append(lastMessageIDs, conv.LastMessageID)
		}
	}

	others, err := h.userRepository.GetUsersByIDs(otherIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	lastMessages, err := h.conversationRepository.GetMessagesByIDs(ctx, lastMessageIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	unread, err := h.conversationRepository.UnreadCounts(ctx, convIDs, viewerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	items := make([]echo.Map, 0, len(convs))
	for _, conv := range convs {
		item := echo.Map{
			"id":           conv.ID.Hex(),
			"updated_at":   conv.UpdatedAt,
			"unread_count": unread[conv.ID],
		}
		if last, ok := lastMessages[conv.LastMessageID]; ok {
			item["last_message"] = last
		}
		if u, ok := others[conv.OtherParticipant(viewerID)]; ok {
			item["user"] = u.ToCompact()
		}
		items = append(items, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CreateConversation opens (or returns) the thread between the viewer and
// another user. Messaging requires an accepted follow in either direction and
// no block between the pair.
func (h *MessageHandler) CreateConversation(c echo.Context) error {
	viewerID := middleware.UserID(c)

	var req models.CreateConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if _, err := h.userRepository.GetUserByID(req.UserID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	allowed, err := h.resolver.CanMessage(viewerID, req.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !allowed {
		return echo.NewHTTPError(http.StatusForbidden, "Messaging not allowed")
	}

	conv, err := h.conversationRepository.GetOrCreateConversation(c.Request().Context(), viewerID, req.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, echo.Map{"conversation": conv})
}

// ListMessages returns a thread's messages newest-first and marks the
// viewer's unread messages as read.
func (h *MessageHandler) ListMessages(c echo.Context) error {
	viewerID := middleware.UserID(c)
	ctx := c.Request().Context()

	conv, err := h.loadOwnConversation(c, viewerID)
	if err != nil {
		return err
	}

	before, err := parseCursor(c)
	if err != nil {
		return err
	}
	limit := parseLimit(c, 30)

	msgs, err := h.conversationRepository.ListMessages(ctx, conv.ID, before, int64(limit+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	page, nextCursor := slicePage(msgs, limit, func(m models.Message) time.Time { return m.CreatedAt })

	if err := h.conversationRepository.MarkMessagesRead(ctx, conv.ID, viewerID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"items": page, "nextCursor": nextCursor})
}

// SendMessage appends a message to a thread the viewer belongs to. The
// messaging gate is re-checked on every send: a block or unfollow after the
// thread was opened closes it.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	viewerID := middleware.UserID(c)
	ctx := c.Request().Context()

	conv, err := h.loadOwnConversation(c, viewerID)
	if err != nil {
		return err
	}

	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	other := conv.OtherParticipant(viewerID)
	allowed, err := h.resolver.CanMessage(viewerID, other)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !allowed {
		return echo.NewHTTPError(http.StatusForbidden, "Messaging not allowed")
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       viewerID,
		Content:        req.Content,
		Type:           "text",
		ReadBy:         []uint{viewerID},
	}
	if err := h.conversationRepository.CreateMessage(ctx, msg); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.hub.Push(other, realtime.Event{Type: realtime.EventMessage, Payload: msg})

	notification := &models.Notification{
		RecipientID: other,
		ActorID:     viewerID,
		Type:        models.NotificationMessage,
		Message:     "أرسل لك رسالة",
	}
	if err := h.notificationRepository.CreateNotification(notification); err == nil {
		h.hub.Push(other, realtime.Event{Type: realtime.EventNotification, Payload: notification})
	}

	return c.JSON(http.StatusCreated, echo.Map{"message": msg})
}

func (h *MessageHandler) loadOwnConversation(c echo.Context, viewerID uint) (*models.Conversation, error) {
	conv, err := h.conversationRepository.GetConversationByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if err == repositories.ErrConversationNotFound {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
		}
		if strings.Contains(err.Error(), "invalid conversation ID format") {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid conversation ID")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !conv.HasParticipant(viewerID) {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Not a participant")
	}
	return conv, nil
}
