package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"artemo/api/internal/app"
	"artemo/api/internal/catalog"
	"artemo/api/internal/config"
	"artemo/api/internal/email"
	"artemo/api/internal/export"
	"artemo/api/internal/identity"
	"artemo/api/internal/llm"
	"artemo/api/internal/search"
	"artemo/api/internal/store"
	"artemo/api/internal/toolgit"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	if err := os.MkdirAll(cfg.ToolRepoDir, 0o755); err != nil {
		log.Fatalf("failed to create tool repo dir: %v", err)
	}

	dataStore := store.NewPostgresStore(db)

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	}
	searchService := search.NewService(meiliClient, pgfts)
	if meiliClient != nil {
		defer meiliClient.Close()
		searchService.ReindexAllFromPG(ctx)
	}

	// The Redis snapshot tier is optional; without it the catalog serves
	// straight from PostgreSQL with only the in-process cache.
	var snapshots *catalog.SnapshotStore
	if strings.TrimSpace(cfg.RedisURL) != "" {
		snapshots, err = catalog.NewSnapshotStore(cfg.RedisURL)
		if err != nil {
			log.Printf("WARNING: redis unavailable, catalog runs without its snapshot tier: %v", err)
			snapshots = nil
		} else {
			defer snapshots.Close()
		}
	}
	catalogService := catalog.NewService(dataStore, snapshots, cfg.CatalogCacheTTL)

	var identityClient *identity.Client
	if strings.TrimSpace(cfg.IdentityURL) != "" {
		identityClient = identity.NewClient(cfg.IdentityURL, cfg.IdentityAdminKey)
	} else {
		log.Printf("WARNING: IDENTITY_URL not set; provisioning manages profiles locally and skips ban sync")
	}

	registry := llm.NewRegistry()
	if cfg.AnthropicAPIKey != "" {
		registry.Register(llm.NewAnthropic(cfg.AnthropicAPIKey))
	}
	if cfg.OpenAIAPIKey != "" {
		registry.Register(llm.NewOpenAI(cfg.OpenAIAPIKey))
	}
	if len(registry.Names()) == 0 {
		log.Printf("WARNING: no LLM provider keys configured; draft generation will fail")
	}

	mailer := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})

	service := app.New(cfg, dataStore, app.Deps{
		Identity: identityClient,
		Catalog:  catalogService,
		Search:   searchService,
		LLM:      registry,
		Versions: toolgit.New(cfg.ToolRepoDir),
		Exporter: export.NewService(),
		Mailer:   mailer,
	})

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigins, cfg.PreviewSuffix)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Artemo API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
