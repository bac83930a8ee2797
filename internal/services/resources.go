package services

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	ChatSystemPrompt = "chat_system.md"
	ChatHumanPrompt  = "chat_human.md"

	candidateSchemaFile = "schemas/candidate.schema.json"
)

//go:embed resources/prompts/*.md resources/schemas/*.json
var embeddedResources embed.FS

// RecordFile is one candidate record read from the input directory.
type RecordFile struct {
	Path    string
	Content []byte
}

// ResourceLoader supplies prompt templates and raw candidate records.
type ResourceLoader interface {
	LoadPrompt(name string) (string, error)
	LoadCandidateRecords() ([]RecordFile, error)
	CandidateSchema() ([]byte, error)
}

type resourceLoader struct {
	promptsDir string
	inputDir   string
}

// NewResourceLoader reads prompts from promptsDir when a file of the requested name exists
// there and falls back to the built-in templates otherwise. Candidate records are the
// *.json files directly inside inputDir.
func NewResourceLoader(promptsDir, inputDir string) ResourceLoader {
	return &resourceLoader{promptsDir: promptsDir, inputDir: inputDir}
}

func (r *resourceLoader) LoadPrompt(name string) (string, error) {
	if r.promptsDir != "" {
		content, err := os.ReadFile(filepath.Join(r.promptsDir, name))
		if err == nil {
			return string(content), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to read prompt %s: %w", name, err)
		}
	}

	content, err := embeddedResources.ReadFile("resources/prompts/" + name)
	if err != nil {
		return "", fmt.Errorf("prompt file not found: %s", name)
	}
	return string(content), nil
}

func (r *resourceLoader) LoadCandidateRecords() ([]RecordFile, error) {
	entries, err := os.ReadDir(r.inputDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	records := make([]RecordFile, 0, len(names))
	for _, name := range names {
		path := filepath.Join(r.inputDir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read candidate record %s: %w", name, err)
		}
		records = append(records, RecordFile{Path: path, Content: content})
	}
	return records, nil
}

func (r *resourceLoader) CandidateSchema() ([]byte, error) {
	return embeddedResources.ReadFile("resources/" + candidateSchemaFile)
}

// PromptBuilder renders the chat prompt templates.
type PromptBuilder struct {
	loader ResourceLoader
}

func NewPromptBuilder(loader ResourceLoader) *PromptBuilder {
	return &PromptBuilder{loader: loader}
}

// BuildChatContext loads both templates and substitutes {context} and {input} in the human one.
// A human template without a {context} slot gets the block as a separate system message instead.
func (pb *PromptBuilder) BuildChatContext(contextBlock, question string) (ChatContext, error) {
	system, err := pb.loader.LoadPrompt(ChatSystemPrompt)
	if err != nil {
		return ChatContext{}, err
	}
	human, err := pb.loader.LoadPrompt(ChatHumanPrompt)
	if err != nil {
		return ChatContext{}, err
	}

	chat := ChatContext{SystemPrompt: system}
	if !strings.Contains(human, "{context}") {
		chat.Context = contextBlock
	}
	chat.UserMessage = strings.NewReplacer("{context}", contextBlock, "{input}", question).Replace(human)
	return chat, nil
}
