package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"github.com/radulovicigor/CBCGchatbot/internal/contextutil"
)

const (
	defaultGRPCPort = 6334
	// upsertBatch bounds the points sent per Upsert request.
	upsertBatch = 128
)

// ErrVectorSizeMismatch is returned when an existing collection was built with another embedding model.
var ErrVectorSizeMismatch = errors.New("collection vector size mismatch")

// QdrantStore implements VectorStore on the FAQ and news collections of a Qdrant instance.
type QdrantStore struct {
	client *qdrant.Client
}

// NewQdrantStore connects to Qdrant over gRPC.
// rawURL is the REST address ("http://localhost:6333"); the gRPC port is the REST port plus one.
// An https scheme enables TLS.
func NewQdrantStore(rawURL string) (*QdrantStore, error) {
	cfg, err := grpcConfig(rawURL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}
	return &QdrantStore{client: client}, nil
}

func grpcConfig(rawURL string) (*qdrant.Config, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	cfg := &qdrant.Config{
		Host:   u.Hostname(),
		Port:   defaultGRPCPort,
		UseTLS: u.Scheme == "https",
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if p := u.Port(); p != "" {
		restPort, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid Qdrant port %q: %w", p, err)
		}
		cfg.Port = restPort + 1
	}
	return cfg, nil
}

// Close releases the underlying gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// Upsert writes points in batches and waits for each batch to be applied.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	for start := 0; start < len(points); start += upsertBatch {
		end := min(start+upsertBatch, len(points))

		batch := make([]*qdrant.PointStruct, 0, end-start)
		for _, p := range points[start:end] {
			ps := &qdrant.PointStruct{
				Id:      qdrant.NewID(p.ID),
				Vectors: qdrant.NewVectors(p.Vec...),
			}
			if len(p.Meta) > 0 {
				ps.Payload = qdrant.NewValueMap(p.Meta)
			}
			batch = append(batch, ps)
		}

		if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points:         batch,
			Wait:           qdrant.PtrOf(true),
		}); err != nil {
			logger.ErrorContext(ctx, "qdrant upsert failed", "collection", collection, "offset", start, "error", err)
			return fmt.Errorf("failed to upsert points into %s: %w", collection, err)
		}
	}

	if len(points) > 0 {
		logger.InfoContext(ctx, "upserted points", "collection", collection, "count", len(points))
	}
	return nil
}

// Search returns the k nearest points. filters are exact-match payload conditions;
// a []string value matches any of its keywords.
func (s *QdrantStore) Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0, got %d", k)
	}

	filter, err := buildFilter(filters)
	if err != nil {
		return nil, err
	}

	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(k)),
		Filter:         filter,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "qdrant query failed", "collection", collection, "k", k, "error", err)
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, SearchResult{
			PointID: hit.GetId().GetUuid(),
			Score:   hit.GetScore(),
			Meta:    fromQdrantPayload(hit.GetPayload()),
		})
	}
	return results, nil
}

// EnsureCollection creates collection with cosine distance, or checks that an existing
// one has vectorSize dimensions.
func (s *QdrantStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", collection, err)
	}

	if !exists {
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection %s: %w", collection, err)
		}
		logger.InfoContext(ctx, "collection created", "collection", collection, "vector_size", vectorSize)
		return nil
	}

	info, err := s.GetCollectionInfo(ctx, collection)
	if err != nil {
		return err
	}
	if info.VectorSize != vectorSize {
		return fmt.Errorf("%w: %s has %d dimensions, embeddings have %d", ErrVectorSizeMismatch, collection, info.VectorSize, vectorSize)
	}
	return nil
}

// CollectionInfo summarizes a Qdrant collection for the status report.
type CollectionInfo struct {
	VectorSize  int    `json:"vector_size"`
	PointsCount int    `json:"points"`
	Status      string `json:"status"`
}

// GetCollectionInfo reads the vector size, point count and status of collection.
func (s *QdrantStore) GetCollectionInfo(ctx context.Context, collection string) (*CollectionInfo, error) {
	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection info for %s: %w", collection, err)
	}

	out := &CollectionInfo{
		VectorSize: int(info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()),
		Status:     "unknown",
	}
	if info.PointsCount != nil {
		out.PointsCount = int(*info.PointsCount)
	}
	if info.Status != 0 {
		out.Status = info.Status.String()
	}
	if out.VectorSize == 0 {
		return nil, fmt.Errorf("collection %s has no single-vector config", collection)
	}
	return out, nil
}

func fromQdrantPayload(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if v != nil {
			out[k] = fromQdrantValue(v)
		}
	}
	return out
}

func fromQdrantValue(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		list := make([]any, len(items))
		for i, item := range items {
			list[i] = fromQdrantValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return fromQdrantPayload(kind.StructValue.GetFields())
	default:
		return nil
	}
}

// buildFilter turns payload filters into must conditions, in key order.
func buildFilter(filters map[string]any) (*qdrant.Filter, error) {
	if len(filters) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	must := make([]*qdrant.Condition, 0, len(keys))
	for _, key := range keys {
		switch v := filters[key].(type) {
		case string:
			must = append(must, qdrant.NewMatch(key, v))
		case []string:
			must = append(must, qdrant.NewMatchKeywords(key, v...))
		case int:
			must = append(must, qdrant.NewMatchInt(key, int64(v)))
		case int64:
			must = append(must, qdrant.NewMatchInt(key, v))
		case bool:
			must = append(must, qdrant.NewMatchBool(key, v))
		default:
			return nil, fmt.Errorf("unsupported filter type %T for %q", v, key)
		}
	}
	return &qdrant.Filter{Must: must}, nil
}
