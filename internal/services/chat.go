package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/rag-candidates/internal/logger"
	"alfredoptarigan/rag-candidates/internal/models"
	"alfredoptarigan/rag-candidates/internal/repositories"
)

const (
	NoCandidatesAnswer = "No candidates found matching the specified criteria."

	defaultSearchLimit = 6
	sourcePreviewRunes = 200
)

// ChatService answers a question about the candidate pool.
type ChatService interface {
	Ask(ctx context.Context, req models.ChatRequest) (*models.ChatResult, error)
}

type ChatServiceOptions struct {
	Collection  string
	SearchLimit int
}

type chatService struct {
	parser     *QueryParser
	filters    *FilterBuilder
	aggregator *CandidateAggregator
	ranker     *CandidateRanker
	embeddings EmbeddingsProvider
	store      VectorStore
	llm        StructuredLLM
	prompts    *PromptBuilder
	chatLogs   repositories.ChatLogRepository
	opts       ChatServiceOptions
	log        *zap.Logger
}

// NewChatService wires the retrieval pipeline. chatLogs may be nil, in which case
// nothing is persisted.
func NewChatService(
	parser *QueryParser,
	ranker *CandidateRanker,
	embeddings EmbeddingsProvider,
	store VectorStore,
	llm StructuredLLM,
	prompts *PromptBuilder,
	chatLogs repositories.ChatLogRepository,
	opts ChatServiceOptions,
	log *zap.Logger,
) ChatService {
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = defaultSearchLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &chatService{
		parser:     parser,
		filters:    NewFilterBuilder(),
		aggregator: NewCandidateAggregator(models.FieldCandidateID),
		ranker:     ranker,
		embeddings: embeddings,
		store:      store,
		llm:        llm,
		prompts:    prompts,
		chatLogs:   chatLogs,
		opts:       opts,
		log:        log.With(zap.String(logger.FieldCollection, opts.Collection)),
	}
}

// askRun carries the per-request state that ends up in the log line and chat log.
type askRun struct {
	started    time.Time
	question   string
	hits       int
	candidates int
	log        *zap.Logger
}

func (s *chatService) Ask(ctx context.Context, req models.ChatRequest) (*models.ChatResult, error) {
	run := &askRun{
		started:  time.Now(),
		question: req.Question,
		log:      s.log.With(zap.String(logger.FieldQuestion, logger.TruncateForLog(req.Question, 200))),
	}

	query := s.parser.Parse(req.Question)
	run.log.Debug("Query parsed",
		zap.String("intent", string(query.QueryIntent)),
		zap.Strings("technologies", query.RequiredTechnologies),
	)

	vectors, err := s.embeddings.Embed(ctx, []string{req.Question})
	if err != nil {
		return nil, s.fail(run, fmt.Errorf("failed to embed question: %w", err))
	}
	if len(vectors) != 1 {
		return nil, s.fail(run, fmt.Errorf("expected 1 question vector, got %d", len(vectors)))
	}

	filter := s.filters.BuildSearchFilter(query, req.Filters)
	hits, err := s.store.Search(ctx, s.opts.Collection, vectors[0], s.opts.SearchLimit, filter)
	if err != nil {
		return nil, s.fail(run, fmt.Errorf("failed to search candidates: %w", err))
	}
	run.hits = len(hits)
	if len(hits) == 0 {
		return s.noCandidates(run, &query), nil
	}

	candidates := s.filters.FilterAggregatedCandidates(s.aggregator.Aggregate(hits), query)
	run.candidates = len(candidates)
	if len(candidates) == 0 {
		return s.noCandidates(run, &query), nil
	}

	ranked := s.ranker.Rank(candidates, query)
	contextBlock := BuildContextBlock(ranked)

	chat, err := s.prompts.BuildChatContext(contextBlock, req.Question)
	if err != nil {
		return nil, s.fail(run, err)
	}
	justification, err := s.llm.GenerateStructured(ctx, chat)
	if err != nil {
		return nil, s.fail(run, err)
	}

	selected := SelectTopCandidate(ranked)
	answer := FormatAnswer(selected, justification.Justification)

	result := &models.ChatResult{
		Answer:  answer,
		Sources: BuildSources(ranked),
		Metadata: &models.ChatMetadata{
			Justification:     justification.Justification,
			SelectedCandidate: selected,
			ParsedQuery:       &query,
			Ranking:           rankingEntries(ranked),
		},
	}

	entry := run.entry(models.OutcomeAnswered)
	entry.SelectedCandidateID = &selected.CandidateID
	entry.Answer = &answer
	result.Metadata.ChatLogID = s.persist(run, entry)

	run.log.Info("Question answered",
		zap.String(logger.FieldOutcome, string(models.OutcomeAnswered)),
		zap.Int(logger.FieldHits, run.hits),
		zap.String(logger.FieldCandidateID, selected.CandidateID),
		zap.Duration("latency", time.Since(run.started)),
	)
	return result, nil
}

func (s *chatService) noCandidates(run *askRun, query *models.ParsedQuery) *models.ChatResult {
	answer := NoCandidatesAnswer
	entry := run.entry(models.OutcomeNoCandidates)
	entry.Answer = &answer

	run.log.Info("No candidates matched",
		zap.String(logger.FieldOutcome, string(models.OutcomeNoCandidates)),
		zap.Int(logger.FieldHits, run.hits),
	)

	return &models.ChatResult{
		Answer:  answer,
		Sources: []models.ChatSource{},
		Metadata: &models.ChatMetadata{
			ParsedQuery: query,
			ChatLogID:   s.persist(run, entry),
		},
	}
}

func (s *chatService) fail(run *askRun, err error) error {
	msg := err.Error()
	entry := run.entry(models.OutcomeFailed)
	entry.ErrorMessage = &msg
	s.persist(run, entry)

	fields := []zap.Field{
		zap.String(logger.FieldOutcome, string(models.OutcomeFailed)),
		zap.Int(logger.FieldHits, run.hits),
		zap.Error(err),
	}
	var outputErr *LLMOutputError
	if errors.As(err, &outputErr) {
		fields = append(fields, zap.String("raw_output", logger.TruncateForLog(outputErr.RawOutput, 300)))
	}
	run.log.Error("Question failed", fields...)
	return err
}

func (run *askRun) entry(outcome models.ChatOutcome) *models.ChatLog {
	return &models.ChatLog{
		ID:             uuid.New(),
		Question:       run.question,
		Outcome:        outcome,
		HitCount:       run.hits,
		CandidateCount: run.candidates,
		LatencyMs:      time.Since(run.started).Milliseconds(),
	}
}

// persist stores the chat log and returns its id. Storage errors are logged, not returned.
func (s *chatService) persist(run *askRun, entry *models.ChatLog) string {
	if s.chatLogs == nil {
		return ""
	}
	if err := s.chatLogs.Create(entry); err != nil {
		run.log.Warn("Failed to persist chat log", zap.Error(err))
		return ""
	}
	return entry.ID.String()
}

// candidateDisplayName returns the fullname metadata unless it is blank or repeats the id.
func candidateDisplayName(c models.AggregatedCandidate) (string, bool) {
	name, ok := c.Metadata.GetString(models.FieldFullname)
	if !ok {
		return "", false
	}
	name = strings.TrimSpace(name)
	if name == "" || name == c.CandidateID {
		return "", false
	}
	return name, true
}

// BuildContextBlock renders each ranked candidate as a header followed by its documents.
func BuildContextBlock(ranked []models.RankedCandidate) string {
	var parts []string
	for i, c := range ranked {
		if name, ok := candidateDisplayName(c.AggregatedCandidate); ok {
			parts = append(parts, fmt.Sprintf("=== CANDIDATE #%d: %s (ID: %s) ===", i+1, name, c.CandidateID))
		} else {
			parts = append(parts, fmt.Sprintf("=== CANDIDATE #%d (ID: %s) ===", i+1, c.CandidateID))
		}
		parts = append(parts, c.Documents...)
	}
	return strings.Join(parts, "\n\n")
}

// BuildSources lists one preview per retrieved chunk, candidates in rank order.
func BuildSources(ranked []models.RankedCandidate) []models.ChatSource {
	sources := []models.ChatSource{}
	for _, c := range ranked {
		for i, doc := range c.Documents {
			src := models.ChatSource{
				CandidateID: c.CandidateID,
				Section:     models.UnknownValue,
				Content:     truncatePreview(doc, sourcePreviewRunes),
			}
			if i < len(c.Sections) {
				src.Section = c.Sections[i]
			}
			if i < len(c.AllScores) {
				src.Score = c.AllScores[i]
			}
			sources = append(sources, src)
		}
	}
	return sources
}

func truncatePreview(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}

// SelectTopCandidate reports the rank-1 candidate, or nil for an empty ranking.
func SelectTopCandidate(ranked []models.RankedCandidate) *models.SelectedCandidate {
	if len(ranked) == 0 {
		return nil
	}
	top := ranked[0]
	selected := &models.SelectedCandidate{CandidateID: top.CandidateID, Rank: 1}
	if name, ok := candidateDisplayName(top.AggregatedCandidate); ok {
		selected.Fullname = name
	}
	return selected
}

func FormatAnswer(selected *models.SelectedCandidate, justification string) string {
	switch {
	case selected == nil:
		return "No candidate selected.\n\n" + justification
	case selected.Fullname != "":
		return fmt.Sprintf("Selected Candidate: %s (ID: %s, Rank: %d)\n\nJustification: %s",
			selected.Fullname, selected.CandidateID, selected.Rank, justification)
	default:
		return fmt.Sprintf("Selected Candidate ID: %s (Rank: %d)\n\nJustification: %s",
			selected.CandidateID, selected.Rank, justification)
	}
}

func rankingEntries(ranked []models.RankedCandidate) []models.RankingEntry {
	entries := make([]models.RankingEntry, len(ranked))
	for i, c := range ranked {
		entries[i] = models.RankingEntry{
			Rank:            i + 1,
			CandidateID:     c.CandidateID,
			TechnicalScore:  c.TechnicalScore,
			SeniorityScore:  c.SeniorityScore,
			LeadershipScore: c.LeadershipScore,
			ExperienceScore: c.ExperienceScore,
			TotalScore:      c.TotalScore,
		}
	}
	return entries
}
