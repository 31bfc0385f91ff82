package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"roosthq.org/internal/audit"
	"roosthq.org/internal/listing"
	"roosthq.org/internal/obs"
	"roosthq.org/internal/token"
)

type wishlistAddRequest struct {
	ListingID string `json:"listing_id"`
}

type wishlistResponse struct {
	Items []*listing.Listing `json:"items"`
	AsOf  time.Time          `json:"as_of"`
}

func (a *API) handleWishlistGet(w http.ResponseWriter, r *http.Request) {
	id, ok := token.IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return
	}
	items, err := a.wishlists.Get(r.Context(), id.SubjectID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wishlistResponse{Items: items, AsOf: time.Now().UTC()})
}

func (a *API) handleWishlistAdd(w http.ResponseWriter, r *http.Request) {
	id, ok := token.IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return
	}

	var req wishlistAddRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.ListingID) == "" {
		writeError(w, r, http.StatusBadRequest, "listing_id is required")
		return
	}

	items, err := a.wishlists.Add(r.Context(), id.SubjectID, req.ListingID)
	if err != nil {
		obs.CountWishlistOp("add", "failure")
		handleDomainError(w, r, err)
		return
	}
	obs.CountWishlistOp("add", "success")
	_ = audit.LogEvent(r.Context(), "wishlist.add", map[string]any{"listing_id": req.ListingID})
	writeJSON(w, http.StatusOK, wishlistResponse{Items: items, AsOf: time.Now().UTC()})
}

func (a *API) handleWishlistRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := token.IdentityFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return
	}

	listingID := chi.URLParam(r, "listingID")
	items, err := a.wishlists.Remove(r.Context(), id.SubjectID, listingID)
	if err != nil {
		obs.CountWishlistOp("remove", "failure")
		handleDomainError(w, r, err)
		return
	}
	obs.CountWishlistOp("remove", "success")
	_ = audit.LogEvent(r.Context(), "wishlist.remove", map[string]any{"listing_id": listingID})
	writeJSON(w, http.StatusOK, wishlistResponse{Items: items, AsOf: time.Now().UTC()})
}
