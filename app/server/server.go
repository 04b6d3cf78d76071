package server

import (
	"context"
	"log"
	"log/slog"

	"healthmate/app/agent"
	"healthmate/app/api"
	"healthmate/app/middleware"
	"healthmate/config"
	"healthmate/model"
	"healthmate/retrieval"
	"healthmate/store"

	"github.com/gofiber/fiber/v2"
)

var fiberConfig = fiber.Config{
	ErrorHandler: api.ErrorHandler,
	BodyLimit:    10 * 1024 * 1024,
}

type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	dispatcher *retrieval.Dispatcher
	pool       *store.PostgresStore
}

func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

func (s *Server) Stop() {
	if s.dispatcher != nil {
		s.dispatcher.Stop()
	}
	if s.pool != nil {
		s.pool.Close()
	}
	s.logger.Info("server stopped")
}

func (s *Server) Run() {
	ctx := context.Background()

	pool, err := store.NewPostgresStore(ctx, s.cfg.PostgresConnStr())
	if err != nil {
		log.Fatal("error to connect to Postgres database", err)
		return
	}
	s.pool = pool

	if err := pool.Init(ctx); err != nil {
		log.Fatal("error to create tables", err)
		return
	}

	embedder := model.NewCohereEmbedder(s.cfg.CohereBaseURL, s.cfg.CohereAPIKey, s.cfg.EmbeddingModel)
	vectors := store.NewPgVectorStore(pool.Pool(), model.EmbeddingDim)
	retrievalService := retrieval.NewService(embedder, vectors, s.cfg.ChunkSize, s.cfg.ChunkOverlap)

	// Retrieval degrades gracefully when the vector tables cannot be created
	// at startup; the store retries lazily on first use.
	if err := retrievalService.InitCollections(ctx); err != nil {
		s.logger.Error("error initializing vector collections, continuing without", "error", err)
	}

	s.dispatcher = retrieval.NewDispatcher(64)
	s.dispatcher.Start()

	assistant := agent.New(s.cfg.CohereBaseURL, s.cfg.CohereAPIKey, s.cfg.ChatModel)

	var (
		app            = fiber.New(fiberConfig)
		checkHandler   = api.NewCheckHandler()
		chatHandler    = api.NewChatHandler(pool, retrievalService, assistant, s.dispatcher, s.cfg)
		fileHandler    = api.NewFileHandler(pool, retrievalService, s.dispatcher, s.cfg)
		medicalHandler = api.NewMedicalHandler(pool, retrievalService)
		check          = app.Group("/check")
		apiv1          = app.Group("/api/v1")
	)

	check.Get("/healthy", checkHandler.HandleHealthy)

	chat := apiv1.Group("/chat", middleware.RequireUser())
	chat.Get("/", chatHandler.HandleListChats)
	chat.Get("/search/:keyword", chatHandler.HandleSearchChats)
	chat.Get("/export/all", chatHandler.HandleExportAll)
	chat.Get("/export/:chatId", chatHandler.HandleExportChat)
	chat.Post("/message", chatHandler.HandleMessage)
	chat.Get("/:chatId", chatHandler.HandleGetChat)
	chat.Delete("/:chatId", chatHandler.HandleDeleteChat)

	upload := apiv1.Group("/upload", middleware.RequireUser())
	upload.Post("/", fileHandler.HandleUpload)
	upload.Get("/", fileHandler.HandleListFiles)
	upload.Delete("/:fileId", fileHandler.HandleDeleteFile)

	medical := apiv1.Group("/medical")
	medical.Get("/ping", medicalHandler.HandlePing)
	medical.Get("/stats", middleware.RequireUser(), medicalHandler.HandleStats)

	if err := app.Listen(s.cfg.ServerAddr); err != nil {
		s.logger.Error("error to start server", "error", err.Error())
		return
	}
}
