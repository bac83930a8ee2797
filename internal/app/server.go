package app

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"alfredoptarigan/rag-candidates/internal/handlers"
	"alfredoptarigan/rag-candidates/internal/services"
)

// NewServer builds the HTTP API. worker may be nil, in which case index builds run inline.
func NewServer(a *App, worker services.Worker) *fiber.App {
	server := fiber.New(fiber.Config{
		AppName:      "Candidate RAG API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		BodyLimit:    int(a.Config.Storage.MaxFileSize) * 2,
		ErrorHandler: customErrorHandler,
	})

	server.Use(recover.New())
	server.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	server.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	collection := a.Config.VectorStore.Collection
	chatHandler := handlers.NewChatHandler(a.Chat)
	indexHandler := handlers.NewIndexHandler(a.IndexRuns, worker, a.Indexer, collection)
	uploadHandler := handlers.NewUploadHandler(a.CandidateFiles, a.Storage, a.Factory, a.PDFParser, a.Config.Storage.MaxFileSize, a.Log)
	healthHandler := handlers.NewHealthHandler(a.Store, collection)

	api := server.Group("/api/v1")
	api.Get("/health", healthHandler.HandleHealth)
	api.Post("/chat", chatHandler.HandleChat)
	api.Post("/index", indexHandler.HandleIndex)
	api.Get("/index/:id", indexHandler.HandleGetIndexRun)
	api.Post("/candidates", uploadHandler.HandleUpload)
	if a.ChatLogs != nil {
		api.Get("/chat/:id", handlers.NewChatLogHandler(a.ChatLogs).HandleGetChatLog)
	}

	server.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Candidate RAG API",
			"version": "1.0.0",
			"endpoints": []string{
				"GET /api/v1/health",
				"POST /api/v1/chat",
				"GET /api/v1/chat/:id",
				"POST /api/v1/index",
				"GET /api/v1/index/:id",
				"POST /api/v1/candidates",
			},
		})
	})

	return server
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
