package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"messaging_go/internal/domain"
)

type sendMessageRequest struct {
	SenderID   int64  `json:"senderId"`
	ReceiverID int64  `json:"receiverId"`
	Content    string `json:"content"`
}

// @Summary      Send a message
// @Description  Sends a direct message, creating the conversation on first contact. senderId defaults to the caller and must match it.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body sendMessageRequest true "Message"
// @Success      201  {object}  domain.Message
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /messages [post]
func handleSendMessage(engine Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := CurrentIdentity(r)
		if caller == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		var req sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if req.SenderID == 0 {
			req.SenderID = caller.UserID
		}
		if req.SenderID != caller.UserID {
			writeError(w, r, fmt.Errorf("%w: cannot send as user %d", domain.ErrForbidden, req.SenderID))
			return
		}

		msg, err := engine.SendMessage(r.Context(), req.SenderID, req.ReceiverID, req.Content)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}

// @Summary      Mark a message as read
// @Description  Only the receiver may mark a message read. Marking an already read message is a no-op.
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        messageID path int true "Message ID"
// @Success      200  {object}  domain.Message
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /messages/{messageID}/read [patch]
func handleMarkMessageRead(engine Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := CurrentIdentity(r)
		if caller == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		messageID, err := pathID(r, "messageID")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		msg, err := engine.MarkMessageAsRead(r.Context(), messageID, caller.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	}
}

// @Summary      Get a message
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        messageID path int true "Message ID"
// @Success      200  {object}  domain.Message
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /messages/{messageID} [get]
func handleGetMessage(engine Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := CurrentIdentity(r)
		if caller == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		messageID, err := pathID(r, "messageID")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		msg, err := engine.GetMessageByID(r.Context(), messageID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		// The engine does not restrict reads by id.
		if msg.SenderID != caller.UserID && msg.ReceiverID != caller.UserID {
			writeError(w, r, fmt.Errorf("%w: message %d", domain.ErrForbidden, messageID))
			return
		}
		writeJSON(w, http.StatusOK, msg)
	}
}
