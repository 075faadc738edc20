// internal/app/features/messages/messages.go
package messages

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	uierrors "github.com/dalemusser/fellowhub/internal/app/features/errors"
	"github.com/dalemusser/fellowhub/internal/app/system/apperr"
	"github.com/dalemusser/fellowhub/internal/app/system/gates"
	"github.com/dalemusser/fellowhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/fellowhub/internal/app/system/timeouts"
	"github.com/dalemusser/fellowhub/internal/app/system/webjson"
	"github.com/dalemusser/fellowhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 200
	maxMessageLength    = 4000
)

type sendRequest struct {
	Content string `json:"content"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /conversations/{id}/messages                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	convID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderValidation(w, r, "Invalid conversation id.")
		return
	}

	var req sendRequest
	if err := webjson.Decode(r, &req); err != nil {
		uierrors.Render(w, r, err)
		return
	}
	content := htmlsanitize.PlainText(req.Content)
	if strings.TrimSpace(content) == "" {
		uierrors.RenderValidation(w, r, "Message content is required.")
		return
	}
	if len(content) > maxMessageLength {
		uierrors.RenderValidation(w, r, "Message is too long.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// Participant check doubles as existence check.
	if _, err := h.Conversations.GetForParticipant(ctx, convID, res.UserID); err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.Render(w, r, apperr.NotFound("conversation"))
			return
		}
		h.ErrLog.LogServerError(w, r, "message send: load conversation", err)
		return
	}

	msg, err := h.Conversations.AddMessage(ctx, models.Message{
		ConversationID: convID,
		SenderID:       res.UserID,
		Content:        content,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "message send: insert", err)
		return
	}

	h.Log.Debug("message sent",
		zap.String("conversation_id", convID.Hex()),
		zap.String("message_id", msg.ID.Hex()))

	webjson.Write(w, http.StatusCreated, msg)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /conversations/{id}/messages?since=RFC3339&limit=50                      |
| Chronological; `since` is the polling cursor (strictly after).               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeMessages(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	convID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderValidation(w, r, "Invalid conversation id.")
		return
	}

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			uierrors.RenderValidation(w, r, "since must be an RFC3339 timestamp.")
			return
		}
	}
	limit := int64(defaultMessageLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			uierrors.RenderValidation(w, r, "limit must be a positive integer.")
			return
		}
		if n > maxMessageLimit {
			n = maxMessageLimit
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Conversations.GetForParticipant(ctx, convID, res.UserID); err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.Render(w, r, apperr.NotFound("conversation"))
			return
		}
		h.ErrLog.LogServerError(w, r, "message list: load conversation", err)
		return
	}

	list, err := h.Conversations.ListMessages(ctx, convID, since, limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "message list", err)
		return
	}
	if list == nil {
		list = []models.Message{}
	}
	webjson.Write(w, http.StatusOK, map[string]any{"messages": list})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /conversations/{id}/read                                                |
| Marks everything in the thread read for the caller. Idempotent.              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	convID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderValidation(w, r, "Invalid conversation id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Conversations.GetForParticipant(ctx, convID, res.UserID); err != nil {
		if err == mongo.ErrNoDocuments {
			uierrors.Render(w, r, apperr.NotFound("conversation"))
			return
		}
		h.ErrLog.LogServerError(w, r, "mark read: load conversation", err)
		return
	}

	n, err := h.Conversations.MarkRead(ctx, convID, res.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "mark read", err)
		return
	}
	webjson.Write(w, http.StatusOK, map[string]any{"marked": n})
}
