package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// EmbeddingRepo persists embedding vectors keyed by content hash.
// It backs the in-memory embedding cache so vectors survive restarts.
type EmbeddingRepo struct {
	db *sql.DB
}

// NewEmbeddingRepo creates a new EmbeddingRepo.
func NewEmbeddingRepo(db *sql.DB) *EmbeddingRepo {
	return &EmbeddingRepo{db: db}
}

// Get returns the stored vector for key. Returns ErrNotFound if not found.
func (r *EmbeddingRepo) Get(ctx context.Context, key string) ([]float32, error) {
	var dim int
	var blob []byte
	err := r.db.QueryRowContext(ctx, "SELECT dim, vector FROM embeddings WHERE key = ?", key).Scan(&dim, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query embedding: %w", err)
	}
	if len(blob) != dim*4 {
		return nil, fmt.Errorf("embedding %s is corrupt: %d bytes for dim %d", key, len(blob), dim)
	}
	return decodeVector(blob), nil
}

// Put stores vec under key, replacing any previous value.
func (r *EmbeddingRepo) Put(ctx context.Context, key string, vec []float32) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO embeddings (key, dim, vector) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET dim = excluded.dim, vector = excluded.vector`,
		key, len(vec), encodeVector(vec),
	)
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	return nil
}

// Count returns the number of cached embeddings.
func (r *EmbeddingRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return count, nil
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
