package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codebuildervaibhav/chunked-transcription/internal/cleanup"
	"github.com/codebuildervaibhav/chunked-transcription/internal/config"
	"github.com/codebuildervaibhav/chunked-transcription/internal/handlers"
	"github.com/codebuildervaibhav/chunked-transcription/internal/logging"
	"github.com/codebuildervaibhav/chunked-transcription/internal/metrics"
	"github.com/codebuildervaibhav/chunked-transcription/internal/pipeline"
	"github.com/codebuildervaibhav/chunked-transcription/internal/storage"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logging.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)
	log.Info("Initializing components", slog.String("engine", cfg.Engine.Backend))

	// Transient storage for uploads
	store, err := storage.NewTempStore(cfg.Storage.TempDir)
	if err != nil {
		log.Error("Failed to create temp directory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Database
	db, err := storage.NewMetadataDB(cfg.Storage.Database)
	if err != nil {
		log.Error("Failed to initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	registry := metrics.NewRegistry()
	m := metrics.NewMetrics(registry)

	// Worker pool
	pool, err := pipeline.New(cfg, db, m, log)
	if err != nil {
		log.Error("Failed to initialize pipeline", slog.String("error", err.Error()))
		os.Exit(1)
	}
	pool.Start()
	defer pool.Stop()

	// Cleanup scheduler
	cleanupScheduler := cleanup.NewScheduler(store.Dir(), cfg.CleanupInterval(), cfg.CleanupMaxAge(), log)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.BodyLimit(),
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Initialize handlers
	uploadHandler := handlers.NewUploadHandler(store, pool, log)
	streamHandler := handlers.NewStreamHandler(store, pool, cfg.BodyLimit(), log)
	transcriptHandler := handlers.NewTranscriptHandler(db, log)

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"engine": cfg.Engine.Backend,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	app.Post("/transcribe", uploadHandler.Handle)
	app.Get("/ws/transcribe", websocket.New(streamHandler.Handle))

	app.Get("/transcripts", transcriptHandler.List)
	app.Get("/transcripts/:id", transcriptHandler.Get)
	app.Get("/transcripts/:id/text", transcriptHandler.Text)

	log.Info("Server starting",
		slog.String("addr", cfg.Addr()),
		slog.Int("request_workers", cfg.Workers.Requests),
		slog.Int("chunk_workers", cfg.Workers.Chunks),
		slog.Duration("chunk_length", cfg.ChunkLength()),
	)

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info("Shutting down gracefully")
		if err := app.Shutdown(); err != nil {
			log.Warn("Shutdown failed", slog.String("error", err.Error()))
		}
	}()

	if err := app.Listen(cfg.Addr()); err != nil {
		log.Error("Server failed", slog.String("error", err.Error()))
	}
}
