package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"messaging_go/internal/domain"
)

type createConversationRequest struct {
	SenderID   int64 `json:"senderId"`
	ReceiverID int64 `json:"receiverId"`
}

// @Summary      List conversations
// @Description  Inbox of the caller, most recent activity first, with unread counts.
// @Tags         conversations
// @Produce      json
// @Security     BearerAuth
// @Param        userID path int true "User ID (must be the caller)"
// @Success      200  {array}   domain.ConversationSummary
// @Failure      403  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /users/{userID}/conversations [get]
func handleListConversations(engine Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireSelf(w, r)
		if !ok {
			return
		}

		summaries, err := engine.GetConversationSummaries(r.Context(), userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if summaries == nil {
			summaries = []*domain.ConversationSummary{}
		}
		writeJSON(w, http.StatusOK, summaries)
	}
}

// @Summary      Create or get a conversation
// @Description  Returns the conversation between sender and receiver, creating it when absent.
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body createConversationRequest true "Participants"
// @Success      200  {object}  domain.ConversationSummary
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /conversations [post]
func handleCreateOrGetConversation(engine Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := CurrentIdentity(r)
		if caller == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		var req createConversationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if req.SenderID == 0 {
			req.SenderID = caller.UserID
		}
		if req.SenderID != caller.UserID {
			writeError(w, r, fmt.Errorf("%w: cannot act as user %d", domain.ErrForbidden, req.SenderID))
			return
		}

		summary, err := engine.CreateOrGetConversation(r.Context(), req.SenderID, req.ReceiverID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

// @Summary      Get a conversation
// @Description  Both participant profiles and the full message history in send order.
// @Tags         conversations
// @Produce      json
// @Security     BearerAuth
// @Param        conversationID path int true "Conversation ID"
// @Success      200  {object}  domain.ConversationDetail
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /conversations/{conversationID} [get]
func handleGetConversation(engine Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := CurrentIdentity(r)
		if caller == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		convID, err := pathID(r, "conversationID")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		detail, err := engine.GetConversationDetails(r.Context(), convID, caller.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}
