package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/candidate-screener/internal/config"
	"alfredoptarigan/candidate-screener/internal/handlers"
	"alfredoptarigan/candidate-screener/internal/repositories"
	"alfredoptarigan/candidate-screener/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and background workers",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, db, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobRepo := repositories.NewUploadJobRepository(db)
	candidateRepo := repositories.NewCandidateRepository(db)
	sessionRepo := repositories.NewInterviewSessionRepository(db)
	recruiterRepo := repositories.NewRecruiterRepository(db)

	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		return err
	}
	parser := services.NewResumeParser()

	gemini, err := services.NewGeminiService(services.GeminiOptions{
		APIKey:     cfg.Gemini.APIKey,
		Model:      cfg.Gemini.Model,
		EmbedModel: cfg.Gemini.EmbedModel,
		MaxRetries: cfg.Worker.RetryMaxAttempts,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize gemini: %w", err)
	}
	log.Info("gemini initialized", zap.String("model", cfg.Gemini.Model))

	// screening calls and their embeddings share one limiter so a batch never floods the model
	limiter := services.NewModelLimiter(cfg.Batch.OracleConcurrency)
	screeningOracle := limiter.Oracle(gemini)

	cache, closeCache := connectSessionCache(ctx, cfg, log)
	defer closeCache()

	duplicates, err := buildDuplicateDetector(ctx, cfg, limiter.Embedder(gemini), log)
	if err != nil {
		return err
	}

	authService := services.NewAuthService(recruiterRepo, services.AuthOptions{
		Secret:     cfg.Auth.JWTSecret,
		TokenTTL:   cfg.Auth.TokenTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	}, log)

	sessionStore := services.NewSessionStore(sessionRepo, cache, cfg.Redis.SessionTTL, log)
	interviewService := services.NewInterviewService(
		gemini,
		sessionStore,
		candidateRepo,
		services.NewSessionSigner(cfg.Interview.CookieSecret, cfg.Interview.IdleTimeout),
		services.InterviewOptions{
			MaxQuestions:   cfg.Interview.MaxQuestions,
			ViolationLimit: cfg.Interview.ViolationLimit,
		},
		log,
	)

	batch := services.NewBatchCoordinator(
		jobRepo,
		candidateRepo,
		storageService,
		parser,
		services.NewEvaluatorService(screeningOracle, log),
		screeningOracle,
		duplicates,
		services.BatchOptions{BatchSize: cfg.Batch.Size},
		log,
	)

	worker := services.NewWorker(jobRepo, batch, interviewService, services.WorkerOptions{
		Concurrency:     cfg.Worker.Concurrency,
		PollInterval:    cfg.Worker.PollInterval,
		JanitorInterval: cfg.Worker.JanitorInterval,
		IdleTimeout:     cfg.Interview.IdleTimeout,
	}, log)
	worker.Start(ctx)
	defer worker.Stop()

	app := fiber.New(fiber.Config{
		AppName:      "Candidate Screener API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		// a batch upload carries many resumes
		BodyLimit:    int(cfg.Storage.MaxFileSize) * 20,
		ErrorHandler: handlers.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	handlers.RegisterRoutes(app, handlers.Handlers{
		Auth:   handlers.NewAuthHandler(authService),
		Upload: handlers.NewUploadHandler(jobRepo, storageService, parser, worker, cfg.Storage.MaxFileSize),
		Result: handlers.NewResultHandler(jobRepo, candidateRepo, sessionRepo),
		Interview: handlers.NewInterviewHandler(
			interviewService,
			cfg.Interview.MaxQuestions,
			cfg.Interview.IdleTimeout,
			cfg.Server.Env == "production",
		),
	}, authService)

	go func() {
		<-ctx.Done()
		log.Info("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Server.Env))

	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// connectSessionCache returns a nil cache when redis is unreachable;
// sessions are then served from the database alone.
func connectSessionCache(ctx context.Context, cfg *config.Config, log *zap.Logger) (services.SessionCache, func()) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Warn("invalid redis url, session cache disabled", zap.Error(err))
		return nil, func() {}
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, session cache disabled", zap.Error(err))
		_ = client.Close()
		return nil, func() {}
	}

	log.Info("redis session cache connected", zap.String("addr", opts.Addr))
	return services.NewRedisSessionCache(client), func() { _ = client.Close() }
}

// buildDuplicateDetector returns nil unless duplicate checking is enabled.
func buildDuplicateDetector(ctx context.Context, cfg *config.Config, embedder services.Embedder, log *zap.Logger) (services.DuplicateDetector, error) {
	if !cfg.Qdrant.DuplicateCheck {
		return nil, nil
	}

	index, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize qdrant: %w", err)
	}
	if err := index.InitCollection(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize qdrant collection: %w", err)
	}

	log.Info("duplicate detection enabled",
		zap.String("collection", cfg.Qdrant.Collection),
		zap.Float64("threshold", cfg.Qdrant.DuplicateThreshold),
	)
	return services.NewDuplicateDetector(embedder, index, cfg.Qdrant.DuplicateThreshold), nil
}
