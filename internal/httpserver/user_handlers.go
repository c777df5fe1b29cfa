package httpserver

import (
	"fmt"
	"net/http"

	"messaging_go/internal/domain"
)

// requireSelf parses {userID} and checks it is the caller. It writes the
// error response itself and reports whether the handler may continue.
func requireSelf(w http.ResponseWriter, r *http.Request) (int64, bool) {
	caller := CurrentIdentity(r)
	if caller == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return 0, false
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return 0, false
	}
	if userID != caller.UserID {
		writeError(w, r, fmt.Errorf("%w: user %d is not %d", domain.ErrForbidden, caller.UserID, userID))
		return 0, false
	}
	return userID, true
}

// @Summary      List contacts
// @Description  Contacts of the caller as known by the user directory.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        userID path int true "User ID (must be the caller)"
// @Success      200  {array}   domain.Profile
// @Failure      403  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /users/{userID}/contacts [get]
func handleListContacts(engine Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireSelf(w, r)
		if !ok {
			return
		}

		contacts, err := engine.ListContacts(r.Context(), userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, contacts)
	}
}
