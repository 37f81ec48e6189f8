package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/inkwell-labs/postmind/internal/ai"
	"github.com/inkwell-labs/postmind/internal/api/handlers"
	"github.com/inkwell-labs/postmind/internal/config"
	"github.com/inkwell-labs/postmind/internal/database"
	"github.com/inkwell-labs/postmind/internal/jobs"
	"github.com/inkwell-labs/postmind/internal/llm"
	"github.com/inkwell-labs/postmind/internal/repository"
	"github.com/inkwell-labs/postmind/internal/server"
	"github.com/inkwell-labs/postmind/internal/service"
	"github.com/inkwell-labs/postmind/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the postmind API server and the augmentation job worker",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-worker", false, "Do not start the augmentation job worker")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SentryDSN != "" {
		environment := cfg.SentryEnvironment
		if environment == "" {
			environment = "development"
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      environment,
			TracesSampleRate: cfg.SentryTracesSampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	postRepo := repository.NewPostRepository(pool)
	jobRepo := repository.NewAIJobRepository(pool)

	var chatClient ai.ChatClient
	if cfg.HasGroq() {
		chatClient = llm.NewChatClient(llm.ChatConfig{
			APIKey:  cfg.GroqAPIKey,
			BaseURL: cfg.LLMBaseURL,
			Model:   cfg.LLMModel,
		})
	} else {
		log.Println("GROQ_API_KEY not set, completions will be unavailable")
	}

	limiter := ai.NewSlidingWindowLimiter(cfg.LLMRateLimit, cfg.LLMRateWindow)
	gateway := ai.NewGateway(chatClient, limiter, ai.DefaultGatewayConfig())

	var embeddingClient ai.EmbeddingClient
	if cfg.HasOpenAI() {
		embeddingClient = llm.NewEmbeddingClient(cfg.OpenAIAPIKey)
	} else {
		log.Println("OPENAI_API_KEY not set, retrieval will fall back to leading chunks")
	}

	provider := ai.NewProvider(embeddingClient)
	ranker := ai.NewRanker(provider)
	respCache := ai.NewResponseCache(ai.DefaultResponseCacheSize, ai.DefaultResponseCacheTTL)
	assistant := ai.NewAssistant(gateway, ranker, respCache)
	dispatcher := ai.NewDispatcher(assistant, provider, postRepo)

	var worker *jobs.Worker
	noWorker, _ := cmd.Flags().GetBool("no-worker")
	if !noWorker {
		processor := jobs.NewAugmentWorker(jobRepo, postRepo, assistant, provider)
		worker = jobs.NewWorker(processor, cfg.WorkerPollInterval)
		go worker.Start(ctx)
		log.Println("augment worker started")
	}

	postSvc := service.NewPostService(postRepo, jobRepo, dispatcher)
	postHandler := handlers.NewPostHandler(postSvc, dispatcher)

	router := server.NewRouter(server.RouterConfig{
		PostHandler: postHandler,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if worker != nil {
		worker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	// golang-migrate needs database/sql, not the pgx pool
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	upErr := m.Up()
	if upErr != nil && upErr != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", upErr)
	}

	version, dirty, versionErr := m.Version()
	status, err := migrationStatus(upErr, versionErr, version, dirty)
	if err != nil {
		return err
	}

	log.Printf("migrations: %s", status)
	return nil
}

// migrationStatus classifies the outcome of a migration run. upErr is
// the m.Up result (nil or ErrNoChange by the time we get here) and is
// tracked separately because m.Version never returns ErrNoChange.
func migrationStatus(upErr, versionErr error, version uint, dirty bool) (string, error) {
	if versionErr == migrate.ErrNilVersion {
		return "database is empty (no migrations to apply)", nil
	}
	if versionErr != nil {
		return "", fmt.Errorf("failed to get migration version: %w", versionErr)
	}
	if dirty {
		return "", fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	}
	if upErr == migrate.ErrNoChange {
		return fmt.Sprintf("database is up to date (version %d)", version), nil
	}
	return fmt.Sprintf("applied successfully (version %d)", version), nil
}
