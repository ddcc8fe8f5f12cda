package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"alfredoptarigan/resume-analyzer/internal/auth"
	"alfredoptarigan/resume-analyzer/internal/config"
	"alfredoptarigan/resume-analyzer/internal/handlers"
	"alfredoptarigan/resume-analyzer/internal/repositories"
	"alfredoptarigan/resume-analyzer/internal/services"
)

// multipartOverhead leaves room for form boundaries and the job description
// on top of the file size limit.
const multipartOverhead = 1 << 20

func main() {
	// Load configuration
	cfg := config.Load()
	log.Println("✅ Config loaded successfully")

	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	appLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))

	// Initialize persistence, optional
	userRepo := repositories.NewNopUserRepository()
	if cfg.HasDatabase() {
		db, err := config.InitDatabase(cfg)
		if err != nil {
			log.Fatalf("❌ Failed to initialize database: %v", err)
		}
		userRepo = repositories.NewUserRepository(db)
		log.Println("✅ User repository initialized")
	} else {
		log.Println("⚠️  DATABASE_URL not set, running without persistence")
	}

	// Initialize identity
	var authenticator auth.Authenticator
	if cfg.Auth.ClerkSecretKey != "" {
		authenticator = auth.NewClerkAuthenticator(cfg.Auth.ClerkSecretKey)
		log.Println("✅ Clerk authentication enabled")
	} else {
		authenticator = auth.NewStaticAuthenticator()
		log.Printf("⚠️  CLERK_SECRET_KEY not set, every request runs as %q\n", auth.DevSubject)
	}

	// Initialize services
	httpClient := &http.Client{Timeout: cfg.Analysis.Timeout}
	llmClient := services.NewLLMClient(cfg, httpClient)
	log.Printf("✅ LLM provider: %s\n", cfg.LLM.Provider)

	worker := services.NewBookkeepingWorker(
		userRepo,
		appLogger,
		cfg.Bookkeeping.Concurrency,
		cfg.Bookkeeping.QueueSize,
		cfg.Bookkeeping.JobTimeout,
	)
	worker.Start()

	// Initialize handlers
	analyzeHandler := handlers.NewAnalyzeHandler(
		services.NewUploadReader(cfg.Upload.MaxFileSize),
		services.NewExtractor(appLogger),
		services.NewPromptBuilder(),
		llmClient,
		services.NewNormalizer(),
		worker,
		appLogger,
		handlers.AnalyzeOptions{
			Timeout:     cfg.Analysis.Timeout,
			MinTextLen:  cfg.Analysis.MinTextLen,
			MaxFileSize: cfg.Upload.MaxFileSize,
		},
	)
	userHandler := handlers.NewUserHandler(userRepo, cfg.Analysis.FreeQuota, appLogger)
	webhookHandler := handlers.NewWebhookHandler(cfg.Auth.ClerkWebhookSecret, userRepo, appLogger)
	log.Println("✅ Handlers initialized")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Resume Analyzer API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Analysis.Timeout + 10*time.Second,
		BodyLimit:    int(cfg.Upload.MaxFileSize) + multipartOverhead,
		ErrorHandler: newErrorHandler(cfg.Upload.MaxFileSize),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigin,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	api := app.Group("/api")
	api.Get("/health", handlers.HandleHealth)
	api.Post("/webhooks/clerk", webhookHandler.HandleClerkWebhook)

	requireAuth := auth.RequireAuth(authenticator, appLogger)
	api.Post("/analyze", requireAuth, analyzeHandler.HandleAnalyze)
	api.Get("/user", requireAuth, userHandler.HandleGetUser)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}

	// drain bookkeeping only after in-flight requests have finished
	worker.Stop()
}

// newErrorHandler reports framework errors as {error, code}. An oversize body
// is a client input error and answers 400 like the handler's own size check.
func newErrorHandler(maxFileSize int64) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := err.Error()

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
		}
		if code == fiber.StatusRequestEntityTooLarge {
			code = fiber.StatusBadRequest
			message = handlers.FileTooLargeMessage(maxFileSize)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": message,
			"code":  code,
		})
	}
}
