package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learnerportal/internal/catalog"
	"learnerportal/internal/config"
	"learnerportal/internal/database"
	"learnerportal/internal/feeds"
	"learnerportal/internal/handlers"
	"learnerportal/internal/ledger"
	"learnerportal/internal/publish"
	"learnerportal/internal/repository"
	"learnerportal/internal/security"
	"learnerportal/internal/service"
	"learnerportal/internal/transcript"
	"learnerportal/internal/tutor"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	courseCatalog, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load course catalog: %v", err)
	}
	log.Printf("Course catalog loaded: %d weeks, %d sessions", len(courseCatalog.Weeks), courseCatalog.TotalSessions())

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	source := newRowSource(ctx, cfg)
	ingestor := feeds.NewIngestor(source, cfg.Debug)
	publisher := publish.NewClient(cfg.PublishURL, cfg.PortalName, cfg.PublishTimeout, cfg.Debug)
	if !publisher.Enabled() {
		log.Println("Warning: PUBLISH_URL not configured, progress will only be saved locally")
	}

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.Debug)
	if err != nil {
		log.Printf("Warning: Failed to initialize email service: %v", err)
	}
	var notifier service.CompletionNotifier
	if emailService != nil && emailService.IsEnabled() {
		notifier = emailService
	}

	slotRepo := repository.NewSlotRepository(db)
	portalService := service.NewPortalService(ingestor, publisher, notifier, courseCatalog,
		func(deviceID string) ledger.SlotStore { return slotRepo.Scope(deviceID) }, cfg.Debug)

	// Initial directory load
	report := portalService.Refresh(ctx)
	if report.Failed {
		log.Println("Warning: initial feed load failed, starting with an empty directory")
	}
	portalService.StartRefresher(ctx, cfg.RefreshInterval)
	portalService.StartEvictor(ctx, cfg.SessionDuration)

	secret := cfg.SessionSecret
	if secret == "" {
		secret = randomSecret()
		log.Println("Warning: SESSION_SECRET not set, device cookies will not survive a restart")
	}

	middleware := handlers.NewMiddleware(
		security.NewDeviceTokens(secret, cfg.SessionDuration),
		security.NewCSRFGenerator(secret),
		security.NewRateLimiter(ctx, 10, time.Minute),
	)
	tutorClient, err := tutor.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiEndpoint, 30*time.Second)
	if err != nil {
		log.Fatalf("Failed to create tutor client: %v", err)
	}
	if cfg.GeminiAPIKey == "" {
		log.Println("Tutor running in demo mode (GEMINI_API_KEY not set)")
	}

	portalHandler := handlers.NewPortalHandler(
		portalService,
		transcript.NewFetcher(cfg.TranscriptURLTemplate, 10*time.Second),
		tutorClient,
		middleware,
	)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handlers.NewRouter(portalHandler, middleware),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Let in-flight publishes finish
	portalService.Wait()
	log.Println("Server exited")
}

func newRowSource(ctx context.Context, cfg *config.Config) feeds.RowSource {
	if !cfg.FeedsConfigured() {
		log.Println("Warning: SPREADSHEET_ID and SHEETS_API_KEY or GOOGLE_APPLICATION_CREDENTIALS not configured, directory will be empty")
		return feeds.EmptySource{}
	}

	source, err := feeds.NewSheetsSource(ctx, feeds.SheetsConfig{
		SpreadsheetID:   cfg.SpreadsheetID,
		APIKey:          cfg.SheetsAPIKey,
		CredentialsFile: cfg.CredentialsFile,
		Endpoint:        cfg.SheetsEndpoint,
		Ranges: map[feeds.Feed]string{
			feeds.FeedLearners: cfg.LearnersRange,
			feeds.FeedSkills:   cfg.SkillsRange,
			feeds.FeedProgress: cfg.ProgressRange,
			feeds.FeedVideos:   cfg.VideosRange,
		},
	})
	if err != nil {
		log.Fatalf("Failed to initialize spreadsheet source: %v", err)
	}
	return source
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("Failed to generate session secret: %v", err)
	}
	return hex.EncodeToString(b)
}
