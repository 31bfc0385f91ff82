package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"roosthq.org/internal/audit"
	"roosthq.org/internal/listing"
	"roosthq.org/internal/token"
)

type listingRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	RentAmount  int64    `json:"rent_amount"`
	Amenities   []string `json:"amenities"`
	PhotoURL    string   `json:"photo_url"`
}

type listingUpdateRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Address     *string   `json:"address"`
	City        *string   `json:"city"`
	RentAmount  *int64    `json:"rent_amount"`
	Amenities   *[]string `json:"amenities"`
	PhotoURL    *string   `json:"photo_url"`
}

type listListingsResponse struct {
	Items []*listing.Listing `json:"items"`
	AsOf  time.Time          `json:"as_of"`
}

func (a *API) handleListListings(w http.ResponseWriter, r *http.Request) {
	filter := listing.Filter{City: r.URL.Query().Get("city")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	items, err := a.listings.List(r.Context(), filter)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if items == nil {
		items = []*listing.Listing{}
	}
	writeJSON(w, http.StatusOK, listListingsResponse{Items: items, AsOf: time.Now().UTC()})
}

func (a *API) handleGetListing(w http.ResponseWriter, r *http.Request) {
	l, err := a.listings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (a *API) handleListingCreate(w http.ResponseWriter, r *http.Request) {
	var req listingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	// Identity is absent only when the public-writes toggle is on.
	ownerID := ""
	if id, ok := token.IdentityFromContext(r.Context()); ok {
		ownerID = id.SubjectID
	}

	l, err := a.listings.Create(r.Context(), ownerID, listing.Listing{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
		RentAmount:  req.RentAmount,
		Amenities:   req.Amenities,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "listing.created", map[string]any{"listing_id": l.ID})
	writeJSON(w, http.StatusCreated, l)
}

func (a *API) handleListingUpdate(w http.ResponseWriter, r *http.Request) {
	var req listingUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	l, err := a.listings.Update(r.Context(), chi.URLParam(r, "id"), listing.Update{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
		RentAmount:  req.RentAmount,
		Amenities:   req.Amenities,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "listing.updated", map[string]any{"listing_id": l.ID})
	writeJSON(w, http.StatusOK, l)
}

func (a *API) handleListingDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.listings.Delete(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "listing.deleted", map[string]any{"listing_id": id})
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "listing deleted",
	})
}
