package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"roosthq.org/internal/account"
	"roosthq.org/internal/listing"
	"roosthq.org/internal/wishlist"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleDomainError maps service errors onto the wire taxonomy. Store
// internals are never leaked: anything unrecognized becomes a 500 with a
// generic message.
func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, account.ErrInvalidInput), errors.Is(err, listing.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, account.ErrAlreadyExists):
		writeError(w, r, http.StatusBadRequest, "email already registered")
	case errors.Is(err, account.ErrUnauthorized):
		writeError(w, r, http.StatusUnauthorized, account.GenericCredentialsMessage)
	case errors.Is(err, account.ErrNotFound), errors.Is(err, listing.ErrNotFound),
		errors.Is(err, wishlist.ErrListingNotFound), errors.Is(err, wishlist.ErrNotMember):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
