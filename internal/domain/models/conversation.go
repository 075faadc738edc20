// internal/domain/models/conversation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation types.
const (
	ConversationGroup  = "group"
	ConversationDirect = "direct"
)

// Conversation is a group (cohort-wide) or direct message thread.
// ParticipantsKey is a canonical encoding of (type, cohort_id, sorted
// participant ids); a unique index on it makes creation idempotent.
type Conversation struct {
	ID              primitive.ObjectID   `bson:"_id" json:"id"`
	Type            string               `bson:"type" json:"type"`
	CohortID        *primitive.ObjectID  `bson:"cohort_id,omitempty" json:"cohort_id,omitempty"`
	ParticipantIDs  []primitive.ObjectID `bson:"participant_ids" json:"participant_ids"`
	ParticipantsKey string               `bson:"participants_key" json:"-"`

	LastMessageAt time.Time `bson:"last_message_at" json:"last_message_at"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// Message is a single message in a conversation. ReadBy tracks read
// receipts; delivery is polling-based, no ordering guarantees beyond
// created_at.
type Message struct {
	ID             primitive.ObjectID   `bson:"_id" json:"id"`
	ConversationID primitive.ObjectID   `bson:"conversation_id" json:"conversation_id"`
	SenderID       primitive.ObjectID   `bson:"sender_id" json:"sender_id"`
	Content        string               `bson:"content" json:"content"`
	ReadBy         []primitive.ObjectID `bson:"read_by" json:"read_by"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
}
