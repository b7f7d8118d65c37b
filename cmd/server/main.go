// @title           AICodeGen Backend API
// @version         1.0.0
// @description     Backend API that turns natural-language prompts into generated React screens. It plans generation runs, executes them in the background, charges credits, and exposes run status for polling.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"aicodegen-backend/internal/config"
	"aicodegen-backend/internal/database"
	"aicodegen-backend/internal/generation"
	"aicodegen-backend/internal/handlers"
	"aicodegen-backend/internal/logger"
	"aicodegen-backend/internal/supabase"
	"aicodegen-backend/internal/textgen"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Environment)
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer log.Sync()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store    appStore
		ledger   accountLedger
		pingers  []handlers.Pinger
		files    handlers.FileStore
		runOpts  []generation.RunnerOption
		provider textgen.Provider = textgen.Disabled{}
	)

	// Persistence: Postgres when DATABASE_URL is set, process memory otherwise.
	if cfg.DatabaseURL != "" {
		dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to initialize database client", "error", err)
		}
		defer dbClient.Close()

		if err := database.NewMigrator(dbClient.DB(), log).Run(ctx); err != nil {
			log.Fatal("Migration failed", "error", err)
		}
		log.Info("Migrations completed successfully")

		store, ledger = dbClient, dbClient
		pingers = append(pingers, dbClient)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory store")
		store, ledger = generation.NewMemoryStore(), generation.NewMemoryLedger()
	}

	// Text generation
	if gemini, err := textgen.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.TextGenTimeout); err != nil {
		log.Warn("Text generation provider disabled, fallback plans only", "error", err)
	} else {
		provider = gemini
		log.Info("Text generation provider ready", "provider", gemini.Name())
	}

	// Supabase storage and realtime
	if cfg.StorageEnabled() {
		storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseStorageBucket)
		if err != nil {
			log.Fatal("Failed to initialize storage client", "error", err)
		}
		files = storageClient
		runOpts = append(runOpts, generation.WithExporter(storageClient))

		supabaseClient, err := supabase.NewClient(cfg)
		if err != nil {
			log.Fatal("Failed to initialize Supabase client", "error", err)
		}
		runOpts = append(runOpts, generation.WithNotifier(supabase.NewRealtimeClient(supabaseClient.Supabase)))
	} else {
		log.Warn("Supabase not configured, artifact export and realtime events disabled")
	}

	// Run lock: Redis across instances, in-process otherwise.
	if cfg.RedisAddr != "" {
		locker, err := generation.NewRedisLocker(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("Failed to connect to redis", "error", err)
		}
		defer locker.Close()
		runOpts = append(runOpts, generation.WithLocker(locker))
		pingers = append(pingers, locker)
	} else {
		runOpts = append(runOpts, generation.WithLocker(generation.NewKeyedLocker()))
	}

	runnerCfg := generation.RunnerConfig{
		GenerationCost:    cfg.GenerationCost,
		CancelRefund:      cfg.CancelRefund,
		TickDelay:         cfg.StepTickDelay,
		ProgressIncrement: 25,
		MaxConcurrentRuns: cfg.MaxConcurrentRuns,
	}
	runner := generation.NewRunner(store, ledger, generation.NewPlanner(provider, log), log, runnerCfg, runOpts...)

	components, err := generation.NewComponentGenerator(provider, 256, log)
	if err != nil {
		log.Fatal("Failed to initialize component generator", "error", err)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Config:             cfg,
		ProjectsHandler:    handlers.NewProjectsHandler(store, files, log),
		GenerationsHandler: handlers.NewGenerationsHandler(runner, store, ledger, cfg.DefaultCredits, log),
		FilesHandler:       handlers.NewFilesHandler(store, files),
		CreditsHandler:     handlers.NewCreditsHandler(ledger, cfg.DefaultCredits),
		ComponentsHandler:  handlers.NewComponentsHandler(components, store),
		Pingers:            pingers,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", "error", err)
	}
	if err := runner.Shutdown(shutdownCtx); err != nil {
		log.Error("Generation runner shutdown timed out", "error", err)
	}
}

// appStore is the persistence shared by the HTTP layer and the runner.
type appStore interface {
	generation.Store
	handlers.ProjectStore
}

type accountLedger interface {
	generation.Ledger
	handlers.AccountStore
}
