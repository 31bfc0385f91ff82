package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"roosthq.org/internal/account"
	"roosthq.org/internal/audit"
	"roosthq.org/internal/token"
)

type userUpdateRequest struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	PhotoURL *string `json:"photo_url"`
}

// ownUserID resolves the {id} path param and enforces that the caller only
// touches their own record.
func ownUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := token.IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return "", false
	}
	target := chi.URLParam(r, "id")
	if target != id.SubjectID {
		writeError(w, r, http.StatusForbidden, "cannot act on another user")
		return "", false
	}
	return target, true
}

func (a *API) handleUserGet(w http.ResponseWriter, r *http.Request) {
	id, ok := ownUserID(w, r)
	if !ok {
		return
	}
	user, err := a.accounts.Get(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := ownUserID(w, r)
	if !ok {
		return
	}

	var req userUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.accounts.UpdateProfile(r.Context(), id, account.ProfileUpdate{
		Name:     req.Name,
		Phone:    req.Phone,
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.profile_updated", nil)
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := ownUserID(w, r)
	if !ok {
		return
	}
	if err := a.accounts.Delete(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.deleted", nil)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "account deleted",
	})
}
