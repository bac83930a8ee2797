package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"alfredoptarigan/rag-candidates/internal/models"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrDimensionMismatch  = errors.New("vector dimension mismatch")
)

// VectorPoint is one embedded chunk as written to a vector store.
type VectorPoint struct {
	ID       string
	Vector   []float32
	Document string
	Metadata models.Metadata
}

// VectorStore holds embedded chunks and answers similarity queries. A nil filter
// matches every point. Search returns hits ordered by descending score.
type VectorStore interface {
	EnsureCollection(ctx context.Context, name string, dim uint64) error
	DropCollection(ctx context.Context, name string) error
	Upsert(ctx context.Context, collection string, points []VectorPoint) error
	Search(ctx context.Context, collection string, vector []float32, limit int, filter *models.Filter) ([]models.SearchHit, error)
	Count(ctx context.Context, collection string) (int, error)
	Delete(ctx context.Context, collection string, ids []string) error
	PointIDs(ctx context.Context, collection string) ([]string, error)
	Name() string
}

type memoryCollection struct {
	dim    uint64
	points map[string]VectorPoint
	order  []string
}

type memoryVectorStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

// NewMemoryVectorStore keeps everything in process memory using exact cosine search.
func NewMemoryVectorStore() VectorStore {
	return &memoryVectorStore{collections: make(map[string]*memoryCollection)}
}

func (m *memoryVectorStore) Name() string {
	return "memory"
}

func (m *memoryVectorStore) EnsureCollection(_ context.Context, name string, dim uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.collections[name]; ok {
		if dim != 0 && existing.dim != 0 && existing.dim != dim {
			return fmt.Errorf("%w: collection %s has dimension %d, not %d", ErrDimensionMismatch, name, existing.dim, dim)
		}
		return nil
	}
	m.collections[name] = &memoryCollection{dim: dim, points: make(map[string]VectorPoint)}
	return nil
}

func (m *memoryVectorStore) DropCollection(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, name)
	return nil
}

func (m *memoryVectorStore) Upsert(_ context.Context, collection string, points []VectorPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.collections[collection]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	for _, p := range points {
		if col.dim == 0 {
			col.dim = uint64(len(p.Vector))
		}
		if uint64(len(p.Vector)) != col.dim {
			return fmt.Errorf("point %s has dimension %d, collection expects %d", p.ID, len(p.Vector), col.dim)
		}
		if _, exists := col.points[p.ID]; !exists {
			col.order = append(col.order, p.ID)
		}
		p.Metadata = p.Metadata.Clone()
		col.points[p.ID] = p
	}
	return nil
}

func (m *memoryVectorStore) Search(_ context.Context, collection string, vector []float32, limit int, filter *models.Filter) ([]models.SearchHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}
	if col.dim != 0 && uint64(len(vector)) != col.dim {
		return nil, fmt.Errorf("query has dimension %d, collection expects %d", len(vector), col.dim)
	}

	hits := make([]models.SearchHit, 0, len(col.order))
	for _, id := range col.order {
		p := col.points[id]
		if filter != nil && !filter.Matches(p.Metadata) {
			continue
		}
		hits = append(hits, models.SearchHit{
			ID:       p.ID,
			Document: p.Document,
			Metadata: p.Metadata.Clone(),
			Score:    cosineSimilarity(vector, p.Vector),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *memoryVectorStore) Count(_ context.Context, collection string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[collection]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}
	return len(col.points), nil
}

func (m *memoryVectorStore) Delete(_ context.Context, collection string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.collections[collection]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	remove := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		remove[id] = struct{}{}
		delete(col.points, id)
	}
	kept := col.order[:0]
	for _, id := range col.order {
		if _, gone := remove[id]; !gone {
			kept = append(kept, id)
		}
	}
	col.order = kept
	return nil
}

func (m *memoryVectorStore) PointIDs(_ context.Context, collection string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}
	return append([]string(nil), col.order...), nil
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		if i >= len(b) {
			break
		}
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
