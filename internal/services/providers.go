package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/rag-candidates/internal/config"
)

// NewChatModel builds the configured chat model wrapped with transport retries.
func NewChatModel(ctx context.Context, cfg config.LLMConfig, log *zap.Logger) (ChatModel, error) {
	var (
		model ChatModel
		err   error
	)

	switch cfg.Provider {
	case "gemini":
		model, err = NewGeminiChatModel(ctx, cfg.APIKey, cfg.Model, cfg.Temperature)
	case "openai":
		model, err = NewOpenAIChatModel(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Temperature)
	case "ollama":
		model = NewOllamaChatModel(cfg.BaseURL, cfg.Model, cfg.Temperature)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewRetryingChatModel(model, cfg.MaxRetries, cfg.RetryDelay, log), nil
}

// NewEmbeddingsProvider builds the configured embeddings backend.
func NewEmbeddingsProvider(ctx context.Context, cfg config.EmbeddingsConfig) (EmbeddingsProvider, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiEmbeddings(ctx, cfg.APIKey, cfg.Model)
	case "openai":
		return NewOpenAIEmbeddings(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case "http":
		return NewHTTPEmbeddings(cfg.URL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported embeddings provider: %s", cfg.Provider)
	}
}

// NewVectorStore builds the configured vector store.
func NewVectorStore(vs config.VectorStoreConfig, q config.QdrantConfig) (VectorStore, error) {
	switch vs.Provider {
	case "memory":
		return NewMemoryVectorStore(), nil
	case "qdrant":
		return NewQdrantVectorStore(q.URL, q.APIKey)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", vs.Provider)
	}
}

type retryingChatModel struct {
	inner      ChatModel
	maxRetries int
	delay      time.Duration
	logger     *zap.Logger
}

// NewRetryingChatModel retries transport failures of inner up to maxRetries attempts.
// It does not look at the reply content.
func NewRetryingChatModel(inner ChatModel, maxRetries int, delay time.Duration, log *zap.Logger) ChatModel {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &retryingChatModel{inner: inner, maxRetries: maxRetries, delay: delay, logger: log}
}

func (r *retryingChatModel) Name() string {
	return r.inner.Name()
}

// Complete implements ChatModel.
func (r *retryingChatModel) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		result, err := r.inner.Complete(ctx, messages)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", fmt.Errorf("context cancelled: %w", ctx.Err())
		}
		if attempt == r.maxRetries {
			break
		}

		r.logger.Warn("chat model call failed, retrying",
			zap.String("model", r.inner.Name()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if r.delay > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("context cancelled: %w", ctx.Err())
			case <-time.After(r.delay * time.Duration(attempt)):
			}
		}
	}

	return "", fmt.Errorf("failed after %d attempts: %w", r.maxRetries, lastErr)
}
