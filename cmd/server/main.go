// cmd/server/main.go
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/meilisearch/meilisearch-go"

	"campuslib/internal/blob"
	"campuslib/internal/catalog"
	"campuslib/internal/config"
	"campuslib/internal/identity"
	"campuslib/internal/lending"
	"campuslib/internal/materials"
	"campuslib/internal/store"
	"campuslib/internal/telemetry"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, "campuslib", cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing(ctx)

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var search meilisearch.ServiceManager
	if cfg.MeiliHost != "" {
		search = meilisearch.New(cfg.MeiliHost, meilisearch.WithAPIKey(cfg.MeiliKey))
	}

	var blobs *blob.Client
	if cfg.BlobBaseURL != "" {
		blobs = blob.NewClient(cfg.BlobBaseURL, cfg.BlobBucket, cfg.BlobToken)
	}

	identitySvc := identity.NewService(db, cfg.JWTSecret, time.Duration(cfg.AccessTTLMin)*time.Minute)
	catalogSvc := catalog.NewService(db, search)
	lendingSvc := lending.NewService(lending.NewPostgresStore(db), cfg.LoanPeriodDays)
	materialsSvc := materials.NewService(db)

	identityHandler := identity.NewHandler(identitySvc)
	catalogHandler := catalog.NewHandler(catalogSvc, blobs)
	lendingHandler := lending.NewHandler(lendingSvc)
	materialsHandler := materials.NewHandler(materialsSvc, blobs)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/auth/register", identityHandler.HandleRegister)
	r.Post("/auth/login", identityHandler.HandleLogin)

	r.Get("/books", catalogHandler.HandleList)
	r.Get("/books/grouped", catalogHandler.HandleGrouped)
	r.Get("/books/latest", catalogHandler.HandleLatest)
	r.Get("/books/suggestions", catalogHandler.HandleSuggestions)
	r.Get("/books/{id}", catalogHandler.HandleGetBook)
	r.Get("/materials", materialsHandler.HandleList)

	r.Group(func(r chi.Router) {
		r.Use(identity.Authenticated(cfg.JWTSecret))

		r.Get("/me", identityHandler.HandleMe)
		r.Post("/lending/borrow", lendingHandler.HandleBorrow)
		r.Post("/lending/requests", lendingHandler.HandleSubmitRequest)
		r.Get("/lending/borrowings", lendingHandler.HandleMyBorrowings)

		r.Group(func(r chi.Router) {
			r.Use(identity.RequireLibrarian)

			r.Post("/books", catalogHandler.HandleAddBook)
			r.Delete("/books/{id}", catalogHandler.HandleRemoveBook)
			r.Post("/books/{id}/cover", catalogHandler.HandleUploadCover)
			r.Get("/lending/requests", lendingHandler.HandlePendingRequests)
			r.Post("/lending/requests/{id}/approve", lendingHandler.HandleApprove)
			r.Post("/lending/requests/{id}/reject", lendingHandler.HandleReject)
			r.Post("/lending/borrowings/{id}/return", lendingHandler.HandleReturn)
			r.Get("/lending/overdue", lendingHandler.HandleOverdue)
			r.Post("/materials", materialsHandler.HandleAdd)
			r.Post("/materials/{id}/file", materialsHandler.HandleUploadFile)
		})
	})

	slog.Info("starting campuslib", "port", cfg.Port, "env", cfg.Env)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
