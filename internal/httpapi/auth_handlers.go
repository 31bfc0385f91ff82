package httpapi

import (
	"errors"
	"net/http"

	"roosthq.org/internal/account"
	"roosthq.org/internal/audit"
	"roosthq.org/internal/obs"
	"roosthq.org/internal/token"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := a.accounts.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		obs.CountAuthAttempt("register", "failure")
		handleDomainError(w, r, err)
		return
	}
	obs.CountAuthAttempt("register", "success")
	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"subject_id": sess.User.ID,
		"email":      sess.User.Email,
	})
	writeJSON(w, http.StatusCreated, sess)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := a.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		obs.CountAuthAttempt("login", "failure")
		if errors.Is(err, account.ErrUnauthorized) {
			writeError(w, r, http.StatusUnauthorized, account.GenericCredentialsMessage)
			return
		}
		handleDomainError(w, r, err)
		return
	}
	obs.CountAuthAttempt("login", "success")
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"subject_id": sess.User.ID,
	})
	writeJSON(w, http.StatusOK, sess)
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := token.IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.accounts.ChangePassword(r.Context(), id.SubjectID, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, account.ErrUnauthorized) {
			writeError(w, r, http.StatusUnauthorized, "old password is incorrect")
			return
		}
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.password_changed", nil)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "password changed",
	})
}
