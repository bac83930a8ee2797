// Package app assembles the candidate search services from configuration.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"alfredoptarigan/rag-candidates/internal/config"
	"alfredoptarigan/rag-candidates/internal/logger"
	"alfredoptarigan/rag-candidates/internal/repositories"
	"alfredoptarigan/rag-candidates/internal/services"
)

type App struct {
	Config *config.Config
	Log    *zap.Logger
	DB     *gorm.DB

	Store      services.VectorStore
	Embeddings services.EmbeddingsProvider
	Factory    services.CandidateFactory
	Storage    services.StorageService
	PDFParser  services.PDFParserService
	Indexer    services.Indexer
	Chat       services.ChatService

	// nil when the database is disabled
	IndexRuns      repositories.IndexRunRepository
	ChatLogs       repositories.ChatLogRepository
	CandidateFiles repositories.CandidateFileRepository
}

// New connects every collaborator named in cfg. The database is optional; without it
// chat logs and index runs are not persisted.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	if cfg.Database.Enabled {
		db, err := config.InitDatabase(cfg, log)
		if err != nil {
			return nil, err
		}
		a.DB = db
		a.IndexRuns = repositories.NewIndexRunRepository(db)
		a.ChatLogs = repositories.NewChatLogRepository(db)
		a.CandidateFiles = repositories.NewCandidateFileRepository(db)
	}

	store, err := services.NewVectorStore(cfg.VectorStore, cfg.Qdrant)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	a.Store = store

	embeddings, err := services.NewEmbeddingsProvider(ctx, cfg.Embeddings)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embeddings: %w", err)
	}
	a.Embeddings = embeddings

	model, err := services.NewChatModel(ctx, cfg.LLM, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm: %w", err)
	}
	log.Info("Providers ready",
		zap.String("vector_store", store.Name()),
		zap.String("embeddings", embeddings.Name()),
		zap.String(logger.FieldModel, model.Name()),
	)

	loader := services.NewResourceLoader(cfg.Data.Prompts, cfg.Data.Input)
	factory, err := services.NewCandidateFactory(loader)
	if err != nil {
		return nil, err
	}
	a.Factory = factory

	a.Storage = services.NewStorageService(cfg.Data.Input)
	if err := a.Storage.EnsureUploadDir(); err != nil {
		return nil, err
	}
	a.PDFParser = services.NewPDFParserService()

	a.Indexer = services.NewIndexer(
		loader,
		factory,
		embeddings,
		store,
		a.Storage,
		a.PDFParser,
		services.IndexerOptions{
			Collection:    cfg.VectorStore.Collection,
			BatchSize:     cfg.Embeddings.BatchSize,
			Concurrency:   cfg.Embeddings.Concurrency,
			RatePerSecond: cfg.Embeddings.RatePerSecond,
		},
		log,
	)

	a.Chat = services.NewChatService(
		services.NewQueryParser(services.DefaultQueryParsingConfig()),
		services.NewCandidateRanker(services.RankingWeights(cfg.Ranking)),
		embeddings,
		store,
		services.NewStructuredLLM(model, log),
		services.NewPromptBuilder(loader),
		a.ChatLogs,
		services.ChatServiceOptions{
			Collection:  cfg.VectorStore.Collection,
			SearchLimit: cfg.VectorStore.SearchLimit,
		},
		log,
	)

	return a, nil
}

// NewWorker returns the index worker, or nil when runs cannot be persisted.
func (a *App) NewWorker() services.Worker {
	if a.IndexRuns == nil {
		return nil
	}
	return services.NewWorker(a.IndexRuns, a.Indexer, a.Config.Worker.Concurrency, a.Config.Worker.PollInterval, a.Log)
}

func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
