// internal/app/store/conversations/conversationstore.go
package conversationstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/fellowhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	convs    *mongo.Collection
	messages *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		convs:    db.Collection("conversations"),
		messages: db.Collection("messages"),
	}
}

// ParticipantsKey builds the canonical key for a conversation: the type,
// the cohort (for group threads), and the sorted participant IDs. Two
// requests for the same logical thread always produce the same key, and
// the unique index on it makes creation idempotent.
func ParticipantsKey(convType string, cohortID *primitive.ObjectID, participantIDs []primitive.ObjectID) string {
	parts := []string{convType}
	if cohortID != nil {
		parts = append(parts, cohortID.Hex())
	}
	hexes := make([]string, 0, len(participantIDs))
	for _, id := range participantIDs {
		hexes = append(hexes, id.Hex())
	}
	sort.Strings(hexes)
	return strings.Join(append(parts, hexes...), ":")
}

// GetOrCreate returns the conversation for the given key, creating it if it
// does not exist. A duplicate-key race with a concurrent creator is
// resolved by re-reading the winner's document.
func (s *Store) GetOrCreate(ctx context.Context, conv models.Conversation) (models.Conversation, error) {
	key := ParticipantsKey(conv.Type, conv.CohortID, conv.ParticipantIDs)

	var existing models.Conversation
	err := s.convs.FindOne(ctx, bson.M{"participants_key": key}).Decode(&existing)
	if err == nil {
		return existing, nil
	}
	if err != mongo.ErrNoDocuments {
		return models.Conversation{}, err
	}

	now := time.Now().UTC()
	conv.ID = primitive.NewObjectID()
	conv.ParticipantsKey = key
	conv.LastMessageAt = now
	conv.CreatedAt = now
	if _, err := s.convs.InsertOne(ctx, conv); err != nil {
		if wafflemongo.IsDup(err) {
			// Lost the race; the other writer's document is the thread.
			if ferr := s.convs.FindOne(ctx, bson.M{"participants_key": key}).Decode(&existing); ferr == nil {
				return existing, nil
			}
			return models.Conversation{}, err
		}
		return models.Conversation{}, err
	}
	return conv, nil
}

// GetForParticipant loads a conversation only if the user is a participant,
// so other users' threads read as not found.
func (s *Store) GetForParticipant(ctx context.Context, id, userID primitive.ObjectID) (models.Conversation, error) {
	var conv models.Conversation
	err := s.convs.FindOne(ctx, bson.M{"_id": id, "participant_ids": userID}).Decode(&conv)
	if err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// ListForUser returns the user's conversations, most recently active first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}})
	cur, err := s.convs.Find(ctx, bson.M{"participant_ids": userID}, opts)
	if err != nil {
		return nil, err
	}
	var out []models.Conversation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddMessage appends a message and bumps the conversation's activity time.
func (s *Store) AddMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	now := time.Now().UTC()
	msg.ID = primitive.NewObjectID()
	msg.ReadBy = []primitive.ObjectID{msg.SenderID}
	msg.CreatedAt = now
	if _, err := s.messages.InsertOne(ctx, msg); err != nil {
		return models.Message{}, err
	}
	_, err := s.convs.UpdateByID(ctx, msg.ConversationID, bson.M{
		"$set": bson.M{"last_message_at": now},
	})
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ListMessages returns a conversation's messages in chronological order.
// A non-zero since acts as a polling cursor: only messages created after
// it are returned.
func (s *Store) ListMessages(ctx context.Context, conversationID primitive.ObjectID, since time.Time, limit int64) ([]models.Message, error) {
	filter := bson.M{"conversation_id": conversationID}
	if !since.IsZero() {
		filter["created_at"] = bson.M{"$gt": since}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var out []models.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead adds the user to the read set of every message in the
// conversation they have not yet read. Idempotent.
func (s *Store) MarkRead(ctx context.Context, conversationID, userID primitive.ObjectID) (int64, error) {
	res, err := s.messages.UpdateMany(ctx,
		bson.M{"conversation_id": conversationID, "read_by": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"read_by": userID}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
