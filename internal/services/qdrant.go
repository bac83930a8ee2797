package services

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"alfredoptarigan/rag-candidates/internal/models"
)

const (
	payloadDocument = "document"
	payloadPointID  = "point_id"
	scrollPageSize  = 256
)

// pointNamespace derives stable Qdrant ids from chunk ids, which are not UUIDs.
var pointNamespace = uuid.MustParse("6f1c3a52-8d0e-4f7b-9a51-2c4e7d9b0a13")

type qdrantVectorStore struct {
	client *qdrant.Client
}

func NewQdrantVectorStore(urlStr, apiKey string) (VectorStore, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantVectorStore{client: client}, nil
}

func (q *qdrantVectorStore) Name() string {
	return "qdrant"
}

// EnsureCollection implements VectorStore.
func (q *qdrantVectorStore) EnsureCollection(ctx context.Context, name string, dim uint64) error {
	exists, err := q.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return q.checkDimension(ctx, name, dim)
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dim,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (q *qdrantVectorStore) checkDimension(ctx context.Context, name string, dim uint64) error {
	if dim == 0 {
		return nil
	}
	info, err := q.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}
	size := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
	if size != 0 && size != dim {
		return fmt.Errorf("%w: collection %s has dimension %d, not %d", ErrDimensionMismatch, name, size, dim)
	}
	return nil
}

// DropCollection implements VectorStore.
func (q *qdrantVectorStore) DropCollection(ctx context.Context, name string) error {
	exists, err := q.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if !exists {
		return nil
	}
	if err := q.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return nil
}

// Upsert implements VectorStore.
func (q *qdrantVectorStore) Upsert(ctx context.Context, collection string, points []VectorPoint) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		payload := p.Metadata.Interface()
		if payload == nil {
			payload = make(map[string]any)
		}
		payload[payloadDocument] = p.Document
		payload[payloadPointID] = p.ID

		structs[i] = &qdrant.PointStruct{
			Id:      qdrantPointID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         structs,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	return nil
}

// Search implements VectorStore.
func (q *qdrantVectorStore) Search(ctx context.Context, collection string, vector []float32, limit int, filter *models.Filter) ([]models.SearchHit, error) {
	qf, err := toQdrantFilter(filter)
	if err != nil {
		return nil, err
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         qf,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	hits := make([]models.SearchHit, 0, len(points))
	for _, point := range points {
		hits = append(hits, hitFromPayload(point.GetId(), point.GetPayload(), float64(point.GetScore())))
	}
	return hits, nil
}

// Count implements VectorStore.
func (q *qdrantVectorStore) Count(ctx context.Context, collection string) (int, error) {
	exists, err := q.client.CollectionExists(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("failed to check collection: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	n, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return int(n), nil
}

// Delete implements VectorStore.
func (q *qdrantVectorStore) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrantPointID(id)
	}

	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: pointIDs},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	return nil
}

// PointIDs implements VectorStore. It pages through the collection and returns the
// chunk ids stored in the payload.
func (q *qdrantVectorStore) PointIDs(ctx context.Context, collection string) ([]string, error) {
	exists, err := q.client.CollectionExists(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to check collection: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	var (
		ids    []string
		offset *qdrant.PointId
	)
	for {
		// one extra point marks where the next page starts
		points, err := q.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: collection,
			Offset:         offset,
			Limit:          qdrant.PtrOf(uint32(scrollPageSize + 1)),
			WithPayload:    qdrant.NewWithPayloadInclude(payloadPointID),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll points: %w", err)
		}

		page := points
		if len(points) > scrollPageSize {
			page = points[:scrollPageSize]
		}
		for _, p := range page {
			if id := p.GetPayload()[payloadPointID].GetStringValue(); id != "" {
				ids = append(ids, id)
			}
		}
		if len(points) <= scrollPageSize {
			return ids, nil
		}
		offset = points[scrollPageSize].GetId()
	}
}

func qdrantPointID(id string) *qdrant.PointId {
	return qdrant.NewID(uuid.NewSHA1(pointNamespace, []byte(id)).String())
}

func hitFromPayload(id *qdrant.PointId, payload map[string]*qdrant.Value, score float64) models.SearchHit {
	hit := models.SearchHit{Score: score, Metadata: make(models.Metadata, len(payload))}
	for key, value := range payload {
		switch key {
		case payloadDocument:
			hit.Document = value.GetStringValue()
		case payloadPointID:
			hit.ID = value.GetStringValue()
		default:
			hit.Metadata[key] = valueFromQdrant(value)
		}
	}
	if hit.ID == "" && id != nil {
		if u := id.GetUuid(); u != "" {
			hit.ID = u
		} else {
			hit.ID = strconv.FormatUint(id.GetNum(), 10)
		}
	}
	return hit
}

func valueFromQdrant(v *qdrant.Value) models.Value {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return models.String(kind.StringValue)
	case *qdrant.Value_IntegerValue:
		return models.Number(float64(kind.IntegerValue))
	case *qdrant.Value_DoubleValue:
		return models.Number(kind.DoubleValue)
	case *qdrant.Value_BoolValue:
		return models.Bool(kind.BoolValue)
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		values := make([]models.Value, len(items))
		for i, item := range items {
			values[i] = valueFromQdrant(item)
		}
		return models.List(values...)
	case *qdrant.Value_StructValue:
		fields := kind.StructValue.GetFields()
		m := make(models.Metadata, len(fields))
		for k, item := range fields {
			m[k] = valueFromQdrant(item)
		}
		return models.Map(m)
	default:
		return models.Null()
	}
}

// toQdrantFilter translates a metadata filter into Qdrant conditions. Nested $and nodes
// are flattened into a single must list.
func toQdrantFilter(f *models.Filter) (*qdrant.Filter, error) {
	if f == nil {
		return nil, nil
	}
	conditions, err := qdrantConditions(*f)
	if err != nil {
		return nil, err
	}
	return &qdrant.Filter{Must: conditions}, nil
}

func qdrantConditions(f models.Filter) ([]*qdrant.Condition, error) {
	switch f.Op {
	case models.OpAnd:
		var out []*qdrant.Condition
		for _, child := range f.And {
			conds, err := qdrantConditions(child)
			if err != nil {
				return nil, err
			}
			out = append(out, conds...)
		}
		return out, nil

	case models.OpGte:
		n, ok := f.Value.AsFloat()
		if !ok {
			return nil, fmt.Errorf("$gte on %s needs a number, got %s", f.Field, f.Value.Kind())
		}
		return []*qdrant.Condition{qdrant.NewRange(f.Field, &qdrant.Range{Gte: qdrant.PtrOf(n)})}, nil

	case models.OpIn:
		items, ok := f.Value.AsList()
		if !ok {
			return nil, fmt.Errorf("$in on %s needs a list", f.Field)
		}
		return []*qdrant.Condition{matchAny(f.Field, items)}, nil

	case models.OpEq:
		cond, err := matchOne(f.Field, f.Value)
		if err != nil {
			return nil, err
		}
		return []*qdrant.Condition{cond}, nil

	default:
		return nil, fmt.Errorf("unsupported filter operator %q", f.Op)
	}
}

func matchOne(field string, v models.Value) (*qdrant.Condition, error) {
	switch v.Kind() {
	case models.KindString:
		s, _ := v.AsString()
		return qdrant.NewMatch(field, s), nil
	case models.KindBool:
		b, _ := v.AsBool()
		return qdrant.NewMatchBool(field, b), nil
	case models.KindNumber:
		n, _ := v.AsFloat()
		if n == math.Trunc(n) {
			return qdrant.NewMatchInt(field, int64(n)), nil
		}
		return qdrant.NewRange(field, &qdrant.Range{Gte: qdrant.PtrOf(n), Lte: qdrant.PtrOf(n)}), nil
	default:
		return nil, fmt.Errorf("cannot match %s against a %s value", field, v.Kind())
	}
}

// matchAny uses keyword or integer set matching when the list is homogeneous and
// falls back to a should-filter of single matches otherwise.
func matchAny(field string, items []models.Value) *qdrant.Condition {
	strs := make([]string, 0, len(items))
	ints := make([]int64, 0, len(items))
	for _, item := range items {
		if s, ok := item.AsString(); ok && item.Kind() == models.KindString {
			strs = append(strs, s)
			continue
		}
		if n, ok := item.AsFloat(); ok && item.Kind() == models.KindNumber && n == math.Trunc(n) {
			ints = append(ints, int64(n))
		}
	}
	switch {
	case len(strs) == len(items):
		return qdrant.NewMatchKeywords(field, strs...)
	case len(ints) == len(items):
		return qdrant.NewMatchInts(field, ints...)
	}

	var should []*qdrant.Condition
	for _, item := range items {
		if cond, err := matchOne(field, item); err == nil {
			should = append(should, cond)
		}
	}
	return qdrant.NewFilterAsCondition(&qdrant.Filter{Should: should})
}
