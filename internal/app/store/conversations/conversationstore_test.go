package conversations_test

import (
	"testing"
	"time"

	"github.com/dalemusser/fellowhub/internal/app/store/conversations"
	"github.com/dalemusser/fellowhub/internal/app/system/indexes"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"github.com/dalemusser/fellowhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestParticipantsKey_OrderIndependent(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	c := primitive.NewObjectID()

	k1 := conversations.ParticipantsKey(models.ConversationDirect, nil, []primitive.ObjectID{a, b})
	k2 := conversations.ParticipantsKey(models.ConversationDirect, nil, []primitive.ObjectID{b, a})
	if k1 != k2 {
		t.Errorf("key differs by participant order: %q vs %q", k1, k2)
	}

	k3 := conversations.ParticipantsKey(models.ConversationDirect, nil, []primitive.ObjectID{a, c})
	if k1 == k3 {
		t.Error("different participant sets produced the same key")
	}

	cohortID := primitive.NewObjectID()
	g1 := conversations.ParticipantsKey(models.ConversationGroup, &cohortID, []primitive.ObjectID{a, b})
	if g1 == k1 {
		t.Error("group and direct keys collided")
	}
}

func TestStore_GetOrCreate_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	store := conversations.New(db)
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	first, err := store.GetOrCreate(ctx, models.Conversation{
		Type:           models.ConversationDirect,
		ParticipantIDs: []primitive.ObjectID{a, b},
	})
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	// Same thread requested with participants reversed maps to the same
	// document.
	second, err := store.GetOrCreate(ctx, models.Conversation{
		Type:           models.ConversationDirect,
		ParticipantIDs: []primitive.ObjectID{b, a},
	})
	if err != nil {
		t.Fatalf("second GetOrCreate failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected one conversation, got %s and %s", first.ID.Hex(), second.ID.Hex())
	}
}

func TestStore_Messages_SinceCursor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := conversations.New(db)
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	conv, err := store.GetOrCreate(ctx, models.Conversation{
		Type:           models.ConversationDirect,
		ParticipantIDs: []primitive.ObjectID{a, b},
	})
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	var cursor time.Time
	for i, content := range []string{"first", "second", "third"} {
		msg, err := store.AddMessage(ctx, models.Message{
			ConversationID: conv.ID,
			SenderID:       a,
			Content:        content,
		})
		if err != nil {
			t.Fatalf("AddMessage %d failed: %v", i, err)
		}
		if i == 0 {
			cursor = msg.CreatedAt
		}
	}

	all, err := store.ListMessages(ctx, conv.ID, time.Time{}, 50)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d messages, want 3", len(all))
	}
	if all[0].Content != "first" || all[2].Content != "third" {
		t.Error("expected chronological order")
	}

	// The sender is the only initial reader.
	if len(all[0].ReadBy) != 1 || all[0].ReadBy[0] != a {
		t.Errorf("ReadBy: got %v, want sender only", all[0].ReadBy)
	}

	// The cursor is exclusive: polling with the last-seen timestamp only
	// returns newer messages.
	newer, err := store.ListMessages(ctx, conv.ID, cursor, 50)
	if err != nil {
		t.Fatalf("ListMessages with cursor failed: %v", err)
	}
	if len(newer) != 2 {
		t.Errorf("got %d messages after cursor, want 2", len(newer))
	}
}

func TestStore_MarkRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := conversations.New(db)
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	conv, err := store.GetOrCreate(ctx, models.Conversation{
		Type:           models.ConversationDirect,
		ParticipantIDs: []primitive.ObjectID{a, b},
	})
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	for _, content := range []string{"one", "two"} {
		if _, err := store.AddMessage(ctx, models.Message{
			ConversationID: conv.ID,
			SenderID:       a,
			Content:        content,
		}); err != nil {
			t.Fatalf("AddMessage failed: %v", err)
		}
	}

	n, err := store.MarkRead(ctx, conv.ID, b)
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if n != 2 {
		t.Errorf("marked %d messages, want 2", n)
	}

	// Idempotent: already-read messages are not matched again.
	n, err = store.MarkRead(ctx, conv.ID, b)
	if err != nil {
		t.Fatalf("second MarkRead failed: %v", err)
	}
	if n != 0 {
		t.Errorf("second MarkRead marked %d, want 0", n)
	}
}

func TestStore_GetForParticipant_Scoped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := conversations.New(db)
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	conv, err := store.GetOrCreate(ctx, models.Conversation{
		Type:           models.ConversationDirect,
		ParticipantIDs: []primitive.ObjectID{a, b},
	})
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	if _, err := store.GetForParticipant(ctx, conv.ID, a); err != nil {
		t.Errorf("participant read failed: %v", err)
	}

	// Outsiders read the thread as not found.
	if _, err := store.GetForParticipant(ctx, conv.ID, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments for outsider, got %v", err)
	}
}
