package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"alfredoptarigan/rag-candidates/internal/logger"
	"alfredoptarigan/rag-candidates/internal/models"
)

var ErrNoCandidates = errors.New("no candidate records found")

type IndexerOptions struct {
	Collection    string
	BatchSize     int
	Concurrency   int
	RatePerSecond float64
	ChunkSize     int
	ChunkOverlap  int
}

// Indexer rebuilds the candidate collection from the records in the input directory.
// Concurrent Build calls run one after another.
type Indexer interface {
	Build(ctx context.Context) (*models.IndexInfo, error)
}

type indexer struct {
	loader     ResourceLoader
	factory    CandidateFactory
	embeddings EmbeddingsProvider
	store      VectorStore
	storage    StorageService
	pdfParser  PDFParserService
	chunker    TextChunker
	opts       IndexerOptions
	log        *zap.Logger
	// builds rewrite the same collection
	mu sync.Mutex
}

func NewIndexer(
	loader ResourceLoader,
	factory CandidateFactory,
	embeddings EmbeddingsProvider,
	store VectorStore,
	storage StorageService,
	pdfParser PDFParserService,
	opts IndexerOptions,
	log *zap.Logger,
) Indexer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.ChunkOverlap <= 0 {
		opts.ChunkOverlap = defaultChunkOverlap
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &indexer{
		loader:     loader,
		factory:    factory,
		embeddings: embeddings,
		store:      store,
		storage:    storage,
		pdfParser:  pdfParser,
		chunker:    NewTextChunker(),
		opts:       opts,
		log:        log.With(zap.String(logger.FieldCollection, opts.Collection)),
	}
}

func (ix *indexer) Build(ctx context.Context) (*models.IndexInfo, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	records, err := ix.loader.LoadCandidateRecords()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoCandidates
	}

	seen := make(map[string]string, len(records))
	var chunks []Chunk
	for _, rec := range records {
		candidate, err := ix.factory.FromJSON(rec.Content, CandidateIDFromPath(rec.Path))
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", rec.Path, err)
		}
		if prev, dup := seen[candidate.ID]; dup {
			return nil, fmt.Errorf("duplicate candidate id %q in %s and %s", candidate.ID, prev, rec.Path)
		}
		seen[candidate.ID] = rec.Path

		candidateChunks := BuildCandidateChunks(*candidate)
		candidateChunks = append(candidateChunks, ix.resumeChunks(*candidate, rec.Path)...)
		chunks = append(chunks, candidateChunks...)

		ix.log.Debug("Candidate prepared",
			zap.String(logger.FieldCandidateID, candidate.ID),
			zap.Int("chunks", len(candidateChunks)),
		)
	}

	vectors, err := ix.embedAll(ctx, chunks)
	if err != nil {
		return nil, err
	}

	points := make([]VectorPoint, len(chunks))
	for i, c := range chunks {
		points[i] = VectorPoint{ID: c.ID, Vector: vectors[i], Document: c.Document, Metadata: c.Metadata}
	}
	if err := ix.replacePoints(ctx, points); err != nil {
		return nil, err
	}

	count, err := ix.store.Count(ctx, ix.opts.Collection)
	if err != nil {
		return nil, err
	}

	info := &models.IndexInfo{
		Candidates: len(records),
		Chunks:     len(chunks),
		Points:     count,
		Provider:   ix.embeddings.Name(),
	}
	ix.log.Info("Index built",
		zap.Int("candidates", info.Candidates),
		zap.Int("chunks", info.Chunks),
		zap.Int("points", info.Points),
		zap.String(logger.FieldProvider, info.Provider),
	)
	return info, nil
}

// replacePoints writes the new points over the live collection and then deletes the
// ones this build no longer produces, so searches keep seeing a populated collection.
// Only a change of embedding dimension drops and recreates it.
func (ix *indexer) replacePoints(ctx context.Context, points []VectorPoint) error {
	collection := ix.opts.Collection
	dim := uint64(len(points[0].Vector))

	err := ix.store.EnsureCollection(ctx, collection, dim)
	if errors.Is(err, ErrDimensionMismatch) {
		ix.log.Warn("Embedding dimension changed, recreating collection", zap.Error(err))
		if err := ix.store.DropCollection(ctx, collection); err != nil {
			return err
		}
		err = ix.store.EnsureCollection(ctx, collection, dim)
	}
	if err != nil {
		return err
	}

	existing, err := ix.store.PointIDs(ctx, collection)
	if err != nil {
		return err
	}

	fresh := make(map[string]struct{}, len(points))
	for start := 0; start < len(points); start += ix.opts.BatchSize {
		end := min(start+ix.opts.BatchSize, len(points))
		if err := ix.store.Upsert(ctx, collection, points[start:end]); err != nil {
			return err
		}
		for _, p := range points[start:end] {
			fresh[p.ID] = struct{}{}
		}
	}

	var stale []string
	for _, id := range existing {
		if _, ok := fresh[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	ix.log.Debug("Removing stale points", zap.Int("points", len(stale)))
	return ix.store.Delete(ctx, collection, stale)
}

// resumeChunks prefers the cleaned text inside the record and falls back to a PDF
// stored next to it. A PDF that cannot be read is logged and skipped.
func (ix *indexer) resumeChunks(c models.Candidate, recordPath string) []Chunk {
	text := strings.TrimSpace(c.Record.CleanedResumeText)
	if text == "" && ix.storage != nil && ix.pdfParser != nil {
		if pdfPath := ix.storage.ResumePath(recordPath); pdfPath != "" {
			content, err := ix.pdfParser.Extract(pdfPath)
			if err != nil {
				ix.log.Warn("Skipping unreadable resume",
					zap.String(logger.FieldCandidateID, c.ID),
					zap.String("path", pdfPath),
					zap.Error(err),
				)
			} else {
				text = content.Text
			}
		}
	}
	return BuildResumeChunks(c, text, ix.chunker, ix.opts.ChunkSize, ix.opts.ChunkOverlap)
}

// embedAll embeds chunk documents in batches, running up to Concurrency batches at once.
func (ix *indexer) embedAll(ctx context.Context, chunks []Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	var limiter *rate.Limiter
	if ix.opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(ix.opts.RatePerSecond), 1)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.Concurrency)

	for start := 0; start < len(chunks); start += ix.opts.BatchSize {
		end := min(start+ix.opts.BatchSize, len(chunks))

		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gCtx); err != nil {
					return err
				}
			}

			texts := make([]string, end-start)
			for i := range texts {
				texts[i] = chunks[start+i].Document
			}
			batch, err := ix.embeddings.Embed(gCtx, texts)
			if err != nil {
				return fmt.Errorf("failed to embed batch at %d: %w", start, err)
			}
			if len(batch) != len(texts) {
				return fmt.Errorf("expected %d vectors, got %d", len(texts), len(batch))
			}
			// batches write disjoint ranges
			copy(vectors[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
