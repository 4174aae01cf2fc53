package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/tarhal-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrConversationNotFound is returned when no conversation matches the given id
var ErrConversationNotFound = fmt.Errorf("conversation not found")

// ConversationRepository defines the interface for direct-message data operations
type ConversationRepository interface {
	GetOrCreateConversation(ctx context.Context, a, b uint) (*models.Conversation, error)
	GetConversationByID(ctx context.Context, id string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID uint) ([]models.Conversation, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	GetMessagesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Message, error)
	ListMessages(ctx context.Context, conversationID primitive.ObjectID, before time.Time, limit int64) ([]models.Message, error)
	UnreadCounts(ctx context.Context, conversationIDs []primitive.ObjectID, userID uint) (map[primitive.ObjectID]int64, error)
	MarkMessagesRead(ctx context.Context, conversationID primitive.ObjectID, userID uint) error
	CountConversations(ctx context.Context) (int64, error)
	CountMessages(ctx context.Context) (int64, error)
}

// MongoConversationRepository implements ConversationRepository for MongoDB
type MongoConversationRepository struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
}

// NewMongoConversationRepository creates a new MongoConversationRepository
func NewMongoConversationRepository(db *mongo.Database) *MongoConversationRepository {
	return &MongoConversationRepository{
		conversations: db.Collection("conversations"),
		messages:      db.Collection("messages"),
	}
}

// GetOrCreateConversation returns the existing thread between the pair or
// creates an empty one.
func (r *MongoConversationRepository) GetOrCreateConversation(ctx context.Context, a, b uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.conversations.FindOne(ctx, bson.M{"participant_ids": bson.M{"$all": []uint{a, b}}}).Decode(&conv)
	if err == nil {
		return &conv, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	conv = models.Conversation{
		ID:             primitive.NewObjectID(),
		ParticipantIDs: []uint{a, b},
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if _, err := r.conversations.InsertOne(ctx, conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *MongoConversationRepository) GetConversationByID(ctx context.Context, id string) (*models.Conversation, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid conversation ID format: %w", err)
	}
	var conv models.Conversation
	if err := r.conversations.FindOne(ctx, bson.M{"_id": objID}).Decode(&conv); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns the user's threads, most recently active first
func (r *MongoConversationRepository) ListConversations(ctx context.Context, userID uint) ([]models.Conversation, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.conversations.Find(ctx, bson.M{"participant_ids": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var convs []models.Conversation
	if err = cursor.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// CreateMessage stores the message and bumps the parent conversation. The two
// writes are separate operations; a crash in between leaves last_message_id
// stale, which the next send repairs.
func (r *MongoConversationRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now()
	if _, err := r.messages.InsertOne(ctx, msg); err != nil {
		return err
	}
	_, err := r.conversations.UpdateOne(ctx,
		bson.M{"_id": msg.ConversationID},
		bson.M{"$set": bson.M{"last_message_id": msg.ID, "updated_at": msg.CreatedAt}})
	return err
}

// GetMessagesByIDs loads a batch of messages in a single query, keyed by id.
// Missing ids are simply absent from the result.
func (r *MongoConversationRepository) GetMessagesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Message, error) {
	result := make(map[primitive.ObjectID]*models.Message, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	cursor, err := r.messages.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var msgs []models.Message
	if err = cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}
	for i := range msgs {
		result[msgs[i].ID] = &msgs[i]
	}
	return result, nil
}

// ListMessages returns messages newest-first with the same limit+1 cursor
// convention as the posts feed.
func (r *MongoConversationRepository) ListMessages(ctx context.Context, conversationID primitive.ObjectID, before time.Time, limit int64) ([]models.Message, error) {
	filter := bson.M{"conversation_id": conversationID}
	if !before.IsZero() {
		filter["created_at"] = bson.M{"$lt": before}
	}
	findOptions := options.Find().
		SetLimit(limit).
		SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.messages.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var msgs []models.Message
	if err = cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// UnreadCounts computes the user's unread-message count for every listed
// conversation with a single aggregation. Conversations with no unread
// messages are absent from the result.
func (r *MongoConversationRepository) UnreadCounts(ctx context.Context, conversationIDs []primitive.ObjectID, userID uint) (map[primitive.ObjectID]int64, error) {
	counts := make(map[primitive.ObjectID]int64, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return counts, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"conversation_id": bson.M{"$in": conversationIDs},
			"sender_id":       bson.M{"$ne": userID},
			"read_by":         bson.M{"$ne": userID},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$conversation_id",
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := r.messages.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ConversationID primitive.ObjectID `bson:"_id"`
		Count          int64              `bson:"count"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ConversationID] = row.Count
	}
	return counts, nil
}

func (r *MongoConversationRepository) MarkMessagesRead(ctx context.Context, conversationID primitive.ObjectID, userID uint) error {
	_, err := r.messages.UpdateMany(ctx,
		bson.M{"conversation_id": conversationID, "sender_id": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"read_by": userID}})
	return err
}

func (r *MongoConversationRepository) CountConversations(ctx context.Context) (int64, error) {
	return r.conversations.EstimatedDocumentCount(ctx)
}

func (r *MongoConversationRepository) CountMessages(ctx context.Context) (int64, error) {
	return r.messages.EstimatedDocumentCount(ctx)
}
