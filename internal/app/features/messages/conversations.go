// internal/app/features/messages/conversations.go
package messages

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	"github.com/dalemusser/fellowhub/internal/app/system/apperr"
	"github.com/dalemusser/fellowhub/internal/app/system/gates"
	"github.com/dalemusser/fellowhub/internal/app/system/timeouts"
	"github.com/dalemusser/fellowhub/internal/app/system/webjson"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type openRequest struct {
	Type          string `json:"type"`                     // "group" or "direct"
	CohortID      string `json:"cohort_id,omitempty"`      // group threads
	ParticipantID string `json:"participant_id,omitempty"` // direct threads: the other user
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /conversations                                                          |
| Opens (or returns) a thread. Group threads belong to a cohort and include    |
| its fellows plus the institution's admins; direct threads are exactly two    |
| users of the same institution. Opening is idempotent: the canonical          |
| participants key maps both racers to the same document.                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	var req openRequest
	if err := webjson.Decode(r, &req); err != nil {
		uierrors.Render(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var conv models.Conversation
	var err error
	switch req.Type {
	case models.ConversationGroup:
		conv, err = h.openGroup(ctx, res, req)
	case models.ConversationDirect:
		conv, err = h.openDirect(ctx, res, req)
	default:
		uierrors.RenderValidation(w, r, "Conversation type must be group or direct.")
		return
	}
	if err != nil {
		if ae := apperr.From(err); ae.Kind != apperr.KindInternal {
			uierrors.Render(w, r, err)
			return
		}
		h.ErrLog.LogServerError(w, r, "conversation open", err)
		return
	}

	h.Log.Info("conversation opened",
		zap.String("conversation_id", conv.ID.Hex()),
		zap.String("type", conv.Type))

	webjson.Write(w, http.StatusOK, conv)
}

func (h *Handler) openGroup(ctx context.Context, res gates.Result, req openRequest) (models.Conversation, error) {
	cohortID, err := primitive.ObjectIDFromHex(req.CohortID)
	if err != nil {
		return models.Conversation{}, apperr.Validation("A valid cohort_id is required for group threads.")
	}
	if res.InstitutionID.IsZero() {
		return models.Conversation{}, apperr.NotFound("cohort")
	}
	cohort, err := h.Cohorts.GetByIDForInstitution(ctx, cohortID, res.InstitutionID)
	if err == mongo.ErrNoDocuments {
		return models.Conversation{}, apperr.NotFound("cohort")
	}
	if err != nil {
		return models.Conversation{}, err
	}

	if res.Role == models.RoleFellow && !h.isEnrolled(ctx, res.UserID, cohortID) {
		return models.Conversation{}, apperr.NotFound("cohort")
	}

	admins, err := h.Users.ListAdminsByInstitution(ctx, res.InstitutionID)
	if err != nil {
		return models.Conversation{}, err
	}
	participants := append([]primitive.ObjectID{}, cohort.FellowIDs...)
	for _, a := range admins {
		participants = append(participants, a.ID)
	}

	return h.Conversations.GetOrCreate(ctx, models.Conversation{
		Type:           models.ConversationGroup,
		CohortID:       &cohortID,
		ParticipantIDs: participants,
	})
}

func (h *Handler) openDirect(ctx context.Context, res gates.Result, req openRequest) (models.Conversation, error) {
	otherID, err := primitive.ObjectIDFromHex(req.ParticipantID)
	if err != nil {
		return models.Conversation{}, apperr.Validation("A valid participant_id is required for direct threads.")
	}
	if otherID == res.UserID {
		return models.Conversation{}, apperr.Validation("You cannot open a thread with yourself.")
	}

	other, err := h.Users.GetByID(ctx, otherID)
	if err == mongo.ErrNoDocuments {
		return models.Conversation{}, apperr.NotFound("user")
	}
	if err != nil {
		return models.Conversation{}, err
	}
	// Direct threads stay inside one institution.
	if other.InstitutionID == nil || res.InstitutionID.IsZero() || *other.InstitutionID != res.InstitutionID {
		return models.Conversation{}, apperr.NotFound("user")
	}

	return h.Conversations.GetOrCreate(ctx, models.Conversation{
		Type:           models.ConversationDirect,
		ParticipantIDs: []primitive.ObjectID{res.UserID, otherID},
	})
}

func (h *Handler) isEnrolled(ctx context.Context, userID, cohortID primitive.ObjectID) bool {
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return false
	}
	for _, cid := range u.CohortIDs {
		if cid == cohortID {
			return true
		}
	}
	return false
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /conversations                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Conversations.ListForUser(ctx, res.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "conversation list", err)
		return
	}
	if list == nil {
		list = []models.Conversation{}
	}
	webjson.Write(w, http.StatusOK, map[string]any{"conversations": list})
}
