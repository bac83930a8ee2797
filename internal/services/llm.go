package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/rag-candidates/internal/logger"
	"alfredoptarigan/rag-candidates/internal/models"
)

type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	Role    ChatRole
	Content string
}

// ChatModel sends a conversation to a language model and returns the reply text.
type ChatModel interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
	Name() string
}

// ChatContext is the prompt material for one structured request.
type ChatContext struct {
	SystemPrompt string
	UserMessage  string
	Context      string
}

type StructuredLLM interface {
	GenerateStructured(ctx context.Context, chat ChatContext) (*models.LLMJustification, error)
}

var ErrStructuredOutput = errors.New("llm output is not a valid justification object")

// LLMOutputError is returned after every attempt produced unusable output.
type LLMOutputError struct {
	Attempts  int
	RawOutput string
}

func (e *LLMOutputError) Error() string {
	return fmt.Sprintf("failed to extract valid justification from LLM output after %d attempts", e.Attempts)
}

func (e *LLMOutputError) Unwrap() error {
	return ErrStructuredOutput
}

const (
	structuredMaxAttempts = 2
	correctivePrompt      = "Your previous response was not valid JSON. Respond ONLY with the valid JSON object. No markdown, no explanation."
)

type structuredLLM struct {
	model  ChatModel
	logger *zap.Logger
}

func NewStructuredLLM(model ChatModel, log *zap.Logger) StructuredLLM {
	if log == nil {
		log = zap.NewNop()
	}
	return &structuredLLM{model: model, logger: log}
}

// GenerateStructured asks for a justification object. When the reply cannot be parsed,
// the reply and a corrective instruction are appended and the model is asked once more.
func (s *structuredLLM) GenerateStructured(ctx context.Context, chat ChatContext) (*models.LLMJustification, error) {
	messages := []ChatMessage{{Role: RoleSystem, Content: chat.SystemPrompt}}
	if chat.Context != "" {
		messages = append(messages, ChatMessage{Role: RoleSystem, Content: chat.Context})
	}
	messages = append(messages, ChatMessage{Role: RoleUser, Content: chat.UserMessage})

	var raw string
	for attempt := 1; attempt <= structuredMaxAttempts; attempt++ {
		out, err := s.model.Complete(ctx, messages)
		if err != nil {
			return nil, fmt.Errorf("failed to call %s: %w", s.model.Name(), err)
		}
		raw = out

		result, perr := parseJustification(raw)
		if perr == nil {
			return result, nil
		}

		s.logger.Warn("structured output rejected",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", structuredMaxAttempts),
			zap.String("model", s.model.Name()),
			zap.String("raw", logger.TruncateForLog(raw, 300)),
			zap.Error(perr),
		)

		messages = append(messages,
			ChatMessage{Role: RoleAssistant, Content: raw},
			ChatMessage{Role: RoleUser, Content: correctivePrompt},
		)
	}

	return nil, &LLMOutputError{Attempts: structuredMaxAttempts, RawOutput: raw}
}

func parseJustification(raw string) (*models.LLMJustification, error) {
	obj, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	var out models.LLMJustification
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		return nil, fmt.Errorf("invalid justification JSON: %w", err)
	}
	if strings.TrimSpace(out.Justification) == "" {
		return nil, errors.New("justification is empty")
	}
	return &out, nil
}
