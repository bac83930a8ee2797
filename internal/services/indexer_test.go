package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/rag-candidates/internal/models"
)

// fakeEmbedder returns a fixed vector when one is set and otherwise derives a
// small deterministic vector from the text.
type fakeEmbedder struct {
	vector []float32
	err    error
	calls  atomic.Int32
}

func (f *fakeEmbedder) Name() string { return "fake" }

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if f.vector != nil {
			out[i] = append([]float32(nil), f.vector...)
			continue
		}
		out[i] = []float32{float32(len(text)%7) + 1, float32(strings.Count(text, " ")%5) + 1, 1}
	}
	return out, nil
}

type fakePDFParser struct {
	text  string
	err   error
	paths []string
}

func (f *fakePDFParser) Extract(path string) (*PDFContent, error) {
	f.paths = append(f.paths, path)
	if f.err != nil {
		return nil, f.err
	}
	return &PDFContent{Text: f.text, PageCount: 1, FilePath: path}, nil
}

func writeRecords(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func newTestIndexer(t *testing.T, dir string, emb EmbeddingsProvider, store VectorStore, parser PDFParserService) Indexer {
	t.Helper()
	return NewIndexer(
		NewResourceLoader("", dir),
		newTestFactory(t),
		emb,
		store,
		NewStorageService(dir),
		parser,
		IndexerOptions{Collection: "candidates", BatchSize: 4, Concurrency: 3},
		nil,
	)
}

func TestIndexerBuild(t *testing.T) {
	dir := writeRecords(t, map[string]string{
		"cand-java.json": javaRecord,
		"beta.json":      betaRecord,
		"notes.txt":      "ignored",
	})
	emb := &fakeEmbedder{}
	store := NewMemoryVectorStore()

	info, err := newTestIndexer(t, dir, emb, store, &fakePDFParser{}).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &models.IndexInfo{Candidates: 2, Chunks: 12, Points: 12, Provider: "fake"}, info)
	assert.EqualValues(t, 3, emb.calls.Load())

	hits, err := store.Search(context.Background(), "candidates", []float32{1, 1, 1}, 20,
		models.Combine([]models.Filter{models.Eq(models.FieldType, models.String(models.TypeResume))}))
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "beta:resume:0", hits[0].ID)
}

func TestIndexerRebuildReplacesCollection(t *testing.T) {
	dir := writeRecords(t, map[string]string{"cand-java.json": javaRecord, "beta.json": betaRecord})
	store := NewMemoryVectorStore()
	ix := newTestIndexer(t, dir, &fakeEmbedder{}, store, nil)

	_, err := ix.Build(context.Background())
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "beta.json")))

	info, err := ix.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, info.Points)
}

// buildSpanStore marks a build as running from EnsureCollection until the closing Count.
type buildSpanStore struct {
	VectorStore
	active  atomic.Int32
	overlap atomic.Bool
}

func (s *buildSpanStore) EnsureCollection(ctx context.Context, name string, dim uint64) error {
	if s.active.Add(1) > 1 {
		s.overlap.Store(true)
	}
	return s.VectorStore.EnsureCollection(ctx, name, dim)
}

func (s *buildSpanStore) Count(ctx context.Context, collection string) (int, error) {
	defer s.active.Add(-1)
	return s.VectorStore.Count(ctx, collection)
}

func TestIndexerRebuildKeepsCollectionSearchable(t *testing.T) {
	ctx := context.Background()
	dir := writeRecords(t, map[string]string{"cand-java.json": javaRecord, "beta.json": betaRecord})
	store := &buildSpanStore{VectorStore: NewMemoryVectorStore()}
	ix := newTestIndexer(t, dir, &fakeEmbedder{}, store, nil)

	_, err := ix.Build(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				if _, err := ix.Build(ctx); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	searches := 0
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		hits, err := store.Search(ctx, "candidates", []float32{1, 1, 1}, 6, nil)
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		searches++
	}

	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.Positive(t, searches)
	assert.False(t, store.overlap.Load(), "builds ran concurrently")

	n, err := store.VectorStore.Count(ctx, "candidates")
	require.NoError(t, err)
	assert.Equal(t, 12, n)
}

func TestIndexerRecreatesCollectionOnDimensionChange(t *testing.T) {
	ctx := context.Background()
	dir := writeRecords(t, map[string]string{"cand-java.json": javaRecord})
	store := NewMemoryVectorStore()

	_, err := newTestIndexer(t, dir, &fakeEmbedder{}, store, nil).Build(ctx)
	require.NoError(t, err)

	info, err := newTestIndexer(t, dir, &fakeEmbedder{vector: []float32{1, 0}}, store, nil).Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, info.Points)

	hits, err := store.Search(ctx, "candidates", []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestIndexerReadsSiblingResumePDF(t *testing.T) {
	gamma := `{"Summary": "Go developer", "GeneralInfo": {"SeniorityLevel": "Lead"}}`
	dir := writeRecords(t, map[string]string{"gamma.json": gamma, "gamma.pdf": "%PDF-1.4"})
	parser := &fakePDFParser{text: "Led the platform team.\n\nShipped Go services."}

	info, err := newTestIndexer(t, dir, &fakeEmbedder{}, NewMemoryVectorStore(), parser).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "gamma.pdf")}, parser.paths)
	// summary and raw blocks plus one resume chunk
	assert.Equal(t, 3, info.Chunks)
}

func TestIndexerSkipsUnreadableResume(t *testing.T) {
	gamma := `{"Summary": "Go developer", "GeneralInfo": {}}`
	dir := writeRecords(t, map[string]string{"gamma.json": gamma, "gamma.pdf": "broken"})

	info, err := newTestIndexer(t, dir, &fakeEmbedder{}, NewMemoryVectorStore(), &fakePDFParser{err: ErrEmptyPDF}).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, info.Chunks)
}

func TestIndexerErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("no records", func(t *testing.T) {
		_, err := newTestIndexer(t, t.TempDir(), &fakeEmbedder{}, NewMemoryVectorStore(), nil).Build(ctx)
		assert.ErrorIs(t, err, ErrNoCandidates)
	})

	t.Run("duplicate id", func(t *testing.T) {
		dir := writeRecords(t, map[string]string{"a.json": javaRecord, "b.json": javaRecord})
		_, err := newTestIndexer(t, dir, &fakeEmbedder{}, NewMemoryVectorStore(), nil).Build(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `duplicate candidate id "cand-java"`)
	})

	t.Run("schema violation", func(t *testing.T) {
		dir := writeRecords(t, map[string]string{"bad.json": `{"GeneralInfo": {}}`})
		_, err := newTestIndexer(t, dir, &fakeEmbedder{}, NewMemoryVectorStore(), nil).Build(ctx)
		assert.ErrorIs(t, err, ErrSchemaValidation)
		assert.Contains(t, err.Error(), "bad.json")
	})

	t.Run("embedding failure leaves the store untouched", func(t *testing.T) {
		dir := writeRecords(t, map[string]string{"cand-java.json": javaRecord})
		store := NewMemoryVectorStore()
		boom := errors.New("provider down")

		_, err := newTestIndexer(t, dir, &fakeEmbedder{err: boom}, store, nil).Build(ctx)
		assert.ErrorIs(t, err, boom)

		_, err = store.Count(ctx, "candidates")
		assert.ErrorIs(t, err, ErrCollectionNotFound)
	})
}
