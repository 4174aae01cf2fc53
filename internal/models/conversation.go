package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is a direct-message thread between exactly two users,
// stored in MongoDB
type Conversation struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ParticipantIDs []uint             `json:"participant_ids" bson:"participant_ids"`
	LastMessageID  primitive.ObjectID `json:"last_message_id,omitempty" bson:"last_message_id,omitempty"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

// HasParticipant reports whether the user belongs to the conversation
func (c *Conversation) HasParticipant(userID uint) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the counterpart of the given user, or 0
func (c *Conversation) OtherParticipant(userID uint) uint {
	for _, id := range c.ParticipantIDs {
		if id != userID {
			return id
		}
	}
	return 0
}

// Message is a single direct message stored in MongoDB
type Message struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ConversationID primitive.ObjectID `json:"conversation_id" bson:"conversation_id"`
	SenderID       uint               `json:"sender_id" bson:"sender_id"`
	Content        string             `json:"content" bson:"content"`
	Type           string             `json:"type" bson:"type"`
	ReadBy         []uint             `json:"read_by,omitempty" bson:"read_by,omitempty"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}

type CreateConversationRequest struct {
	UserID uint `json:"userId" validate:"required"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=4000"`
}
