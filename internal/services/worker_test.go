package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/rag-candidates/internal/models"
	"alfredoptarigan/rag-candidates/internal/repositories"
)

type memoryRunRepo struct {
	mu   sync.Mutex
	runs map[uuid.UUID]*models.IndexRun
}

func newMemoryRunRepo(runs ...models.IndexRun) *memoryRunRepo {
	r := &memoryRunRepo{runs: make(map[uuid.UUID]*models.IndexRun)}
	for i := range runs {
		run := runs[i]
		r.runs[run.ID] = &run
	}
	return r
}

func (r *memoryRunRepo) Create(run *models.IndexRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *run
	r.runs[run.ID] = &copied
	return nil
}

func (r *memoryRunRepo) FindByID(id uuid.UUID) (*models.IndexRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *run
	return &copied, nil
}

func (r *memoryRunRepo) Claim(id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok || run.Status != models.StatusQueued {
		return false, nil
	}
	run.Status = models.StatusProcessing
	return true, nil
}

func (r *memoryRunRepo) UpdateResult(id uuid.UUID, info *models.IndexInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return repositories.ErrNotFound
	}
	run.Status = models.StatusCompleted
	run.Points = &info.Points
	run.Provider = &info.Provider
	return nil
}

func (r *memoryRunRepo) UpdateError(id uuid.UUID, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return repositories.ErrNotFound
	}
	run.Status = models.StatusFailed
	run.ErrorMessage = &msg
	return nil
}

func (r *memoryRunRepo) FindPendingJobs(limit int) ([]models.IndexRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.IndexRun
	for _, run := range r.runs {
		if run.Status == models.StatusQueued && len(out) < limit {
			out = append(out, *run)
		}
	}
	return out, nil
}

func (r *memoryRunRepo) status(id uuid.UUID) models.JobStatus {
	run, err := r.FindByID(id)
	if err != nil {
		return ""
	}
	return run.Status
}

type stubIndexer struct {
	info   *models.IndexInfo
	err    error
	builds atomic.Int32
}

func (s *stubIndexer) Build(context.Context) (*models.IndexInfo, error) {
	s.builds.Add(1)
	time.Sleep(5 * time.Millisecond)
	return s.info, s.err
}

func TestWorkerCompletesEnqueuedRun(t *testing.T) {
	run := models.IndexRun{ID: uuid.New(), Status: models.StatusQueued}
	repo := newMemoryRunRepo(run)
	ix := &stubIndexer{info: &models.IndexInfo{Candidates: 1, Chunks: 6, Points: 6, Provider: "fake"}}

	w := NewWorker(repo, ix, 2, time.Hour, nil)
	w.Start(context.Background())
	defer w.Stop()

	w.EnqueueJob(run.ID)
	w.EnqueueJob(run.ID)

	require.Eventually(t, func() bool { return repo.status(run.ID) == models.StatusCompleted }, time.Second, 5*time.Millisecond)
	stored, err := repo.FindByID(run.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, *stored.Points)

	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 1, ix.builds.Load(), "a claimed run is not built twice")
}

func TestWorkerRecordsFailure(t *testing.T) {
	run := models.IndexRun{ID: uuid.New(), Status: models.StatusQueued}
	repo := newMemoryRunRepo(run)
	ix := &stubIndexer{err: errors.New("embedding service unavailable")}

	w := NewWorker(repo, ix, 1, time.Hour, nil)
	w.Start(context.Background())
	defer w.Stop()
	w.EnqueueJob(run.ID)

	require.Eventually(t, func() bool { return repo.status(run.ID) == models.StatusFailed }, time.Second, 5*time.Millisecond)
	stored, _ := repo.FindByID(run.ID)
	assert.Equal(t, "embedding service unavailable", *stored.ErrorMessage)
}

func TestWorkerPollsPendingRuns(t *testing.T) {
	first := models.IndexRun{ID: uuid.New(), Status: models.StatusQueued}
	second := models.IndexRun{ID: uuid.New(), Status: models.StatusQueued}
	repo := newMemoryRunRepo(first, second)
	ix := &stubIndexer{info: &models.IndexInfo{Points: 1}}

	w := NewWorker(repo, ix, 3, 10*time.Millisecond, nil)
	w.Start(context.Background())
	defer w.Stop()

	require.Eventually(t, func() bool {
		return repo.status(first.ID) == models.StatusCompleted && repo.status(second.ID) == models.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 2, ix.builds.Load())
}

func TestWorkerStopIsIdempotent(t *testing.T) {
	w := NewWorker(newMemoryRunRepo(), &stubIndexer{}, 1, time.Hour, nil)
	w.Start(context.Background())
	w.Stop()
	w.Stop()

	done := make(chan struct{})
	go func() {
		w.EnqueueJob(uuid.New())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("EnqueueJob blocked after Stop")
	}
}
