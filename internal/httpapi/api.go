// Package httpapi exposes the Roost REST surface.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"roosthq.org/internal/account"
	"roosthq.org/internal/listing"
	"roosthq.org/internal/obs"
	"roosthq.org/internal/token"
	"roosthq.org/internal/wishlist"
)

// ReadyProbe checks backing-store readiness (e.g. a database ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options wires the API's collaborators.
type Options struct {
	Codec     *token.Codec
	Accounts  *account.Service
	Listings  *listing.Service
	Wishlists *wishlist.Service

	ReadyProbe ReadyProbe
	Version    string

	// PublicListingWrites restores the historical unprotected listing
	// mutation routes. Default is protected: authenticated + admin role.
	PublicListingWrites bool
}

// API is the HTTP layer.
type API struct {
	router chi.Router

	codec     *token.Codec
	accounts  *account.Service
	listings  *listing.Service
	wishlists *wishlist.Service

	readyProbe          ReadyProbe
	version             string
	publicListingWrites bool
}

// New builds the router and all route groups.
func New(opts Options) *API {
	a := &API{
		codec:               opts.Codec,
		accounts:            opts.Accounts,
		listings:            opts.Listings,
		wishlists:           opts.Wishlists,
		readyProbe:          opts.ReadyProbe,
		version:             opts.Version,
		publicListingWrites: opts.PublicListingWrites,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(LoggingJSON)
	r.Use(SecurityHeaders)
	r.Use(CORS)
	r.Use(func(next http.Handler) http.Handler { return MaxBodyBytes(next, 1<<20) })
	r.Use(func(next http.Handler) http.Handler { return RateLimit(next, 20, 10) })

	r.Get("/healthz", a.healthz)
	r.Get("/readyz", a.ready)
	r.Method(http.MethodGet, "/metrics", obs.Handler())

	r.Route("/v1", func(r chi.Router) {
		// Public surface.
		r.Post("/auth/register", a.handleRegister)
		r.Post("/auth/login", a.handleLogin)
		r.Get("/listings", a.handleListListings)
		r.Get("/listings/{id}", a.handleGetListing)

		// Authenticated surface.
		r.Group(func(r chi.Router) {
			r.Use(a.withAuth)
			r.Put("/auth/change-password", a.handleChangePassword)

			r.Get("/wishlist", a.handleWishlistGet)
			r.Post("/wishlist", a.handleWishlistAdd)
			r.Delete("/wishlist/{listingID}", a.handleWishlistRemove)

			r.Get("/users/{id}", a.handleUserGet)
			r.Put("/users/{id}", a.handleUserUpdate)
			r.Delete("/users/{id}", a.handleUserDelete)
		})

		if a.publicListingWrites {
			r.Post("/listings", a.handleListingCreate)
			r.Put("/listings/{id}", a.handleListingUpdate)
			r.Delete("/listings/{id}", a.handleListingDelete)
		} else {
			r.Group(func(r chi.Router) {
				r.Use(a.withAuth, a.requireAdmin)
				r.Post("/listings", a.handleListingCreate)
				r.Put("/listings/{id}", a.handleListingUpdate)
				r.Delete("/listings/{id}", a.handleListingDelete)
			})
		}
	})

	a.router = r
	return a
}

// Handler returns the fully instrumented http.Handler.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.router)
}

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "roost-api",
		"version": a.version,
	})
}

func (a *API) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.readyProbe.Check(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}
