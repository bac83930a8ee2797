package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultOpenAIChatModel  = "gpt-4o-mini"
	defaultOpenAIEmbedModel = "text-embedding-3-small"
	defaultOllamaBaseURL    = "http://localhost:11434/v1"
	defaultOllamaChatModel  = "llama3.1"
)

func newOpenAIClient(apiKey, baseURL string) *openai.Client {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(clientConfig)
}

type openAIChatModel struct {
	client      *openai.Client
	provider    string
	model       string
	temperature float32
}

// NewOpenAIChatModel talks to the OpenAI chat completions API or any server that mirrors it.
func NewOpenAIChatModel(apiKey, baseURL, model string, temperature float32) (ChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	if model == "" {
		model = defaultOpenAIChatModel
	}
	return &openAIChatModel{
		client:      newOpenAIClient(apiKey, baseURL),
		provider:    "openai",
		model:       model,
		temperature: temperature,
	}, nil
}

// NewOllamaChatModel uses Ollama's OpenAI-compatible endpoint. No API key is needed.
func NewOllamaChatModel(baseURL, model string, temperature float32) ChatModel {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	if model == "" {
		model = defaultOllamaChatModel
	}
	return &openAIChatModel{
		client:      newOpenAIClient("ollama", baseURL),
		provider:    "ollama",
		model:       model,
		temperature: temperature,
	}
}

func (o *openAIChatModel) Name() string {
	return o.provider + "/" + o.model
}

// Complete implements ChatModel.
func (o *openAIChatModel) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		llmMessages[i] = openai.ChatCompletionMessage{
			Role:    openAIRole(msg.Role),
			Content: msg.Content,
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    llmMessages,
		Temperature: o.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to complete chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty chat response")
	}
	return resp.Choices[0].Message.Content, nil
}

func openAIRole(role ChatRole) string {
	switch role {
	case RoleSystem:
		return openai.ChatMessageRoleSystem
	case RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

type openAIEmbeddings struct {
	client *openai.Client
	model  string
}

func NewOpenAIEmbeddings(apiKey, baseURL, model string) (EmbeddingsProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	if model == "" {
		model = defaultOpenAIEmbedModel
	}
	return &openAIEmbeddings{client: newOpenAIClient(apiKey, baseURL), model: model}, nil
}

func (o *openAIEmbeddings) Name() string {
	return "openai/" + o.model
}

// Embed implements EmbeddingsProvider.
func (o *openAIEmbeddings) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(o.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", data.Index)
		}
		vectors[data.Index] = data.Embedding
	}
	return vectors, nil
}
