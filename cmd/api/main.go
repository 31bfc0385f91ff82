package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"roosthq.org/internal/account"
	"roosthq.org/internal/config"
	"roosthq.org/internal/httpapi"
	"roosthq.org/internal/listing"
	"roosthq.org/internal/obs"
	"roosthq.org/internal/token"
	"roosthq.org/internal/wishlist"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg := config.Load()
	if cfg.InsecureSecret {
		log.Printf("WARNING: ROOST_AUTH_SECRET not set, using insecure default; do not run this in production")
	}

	codec, err := token.New(cfg.AuthSecret)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	// Postgres when a DSN is configured, in-memory stores otherwise. The
	// in-memory mode exists for local development and tests.
	var (
		db            *sql.DB
		accountStore  account.Store
		listingStore  listing.Store
		wishlistStore wishlist.Store
	)
	if cfg.PostgresDSN != "" {
		db, err = sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		accountStore = account.NewPGStore(db)
		listingStore = listing.NewPGStore(db)
		wishlistStore = wishlist.NewPGStore(db)
	} else {
		log.Printf("ROOST_PG_DSN not set, using in-memory stores")
		accountStore = account.NewInMemory()
		listingStore = listing.NewInMemory()
		wishlistStore = wishlist.NewInMemory()
	}

	accounts := account.NewService(accountStore, codec)
	listings := listing.NewService(listingStore)
	wishlists := wishlist.NewService(wishlistStore, listings)

	api := httpapi.New(httpapi.Options{
		Codec:               codec,
		Accounts:            accounts,
		Listings:            listings,
		Wishlists:           wishlists,
		ReadyProbe:          httpapi.ReadyProbe{DB: db},
		Version:             version,
		PublicListingWrites: cfg.PublicListingWrites,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting roost-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
