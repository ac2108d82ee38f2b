// Package chunkmeta reads chunk metadata (dimension scores, recency,
// confidence, authored profile) from the storage collaborator.
package chunkmeta

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kognita/dimrank/internal/domain"
)

// Hash field names. Dimension scores are stored flat as dim:<name> and
// their extraction confidences as dimconf:<name>.
const (
	fieldContent    = "content"
	fieldRecency    = "recency"
	fieldConfidence = "confidence"
	fieldProfile    = "profile"
	dimPrefix       = "dim:"
	dimConfPrefix   = "dimconf:"
)

// store is the consumer interface for metadata reads (ISP).
type store interface {
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// Repo implements usecase/rank.ChunkStore.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a chunk metadata repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// GetChunks reads metadata for the given chunk ids in one round-trip.
// Unknown ids are simply absent from the result; the caller zeroes
// their factors.
func (r *Repo) GetChunks(ctx context.Context, ids []string) (map[string]domain.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.chunkKey(id)
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall chunks: %w", err)
	}
	if len(hashes) != len(ids) {
		return nil, fmt.Errorf("hgetall chunks: got %d replies for %d keys", len(hashes), len(ids))
	}

	chunks := make(map[string]domain.Chunk, len(ids))
	for i, fields := range hashes {
		if len(fields) == 0 {
			continue
		}
		chunks[ids[i]] = parseChunk(ids[i], fields)
	}
	return chunks, nil
}

func (r *Repo) chunkKey(id string) string {
	return fmt.Sprintf("%schunk:%s", r.keyPrefix, id)
}

// parseChunk maps a flat hash into a domain Chunk. Malformed numeric
// fields read as zero rather than failing the whole candidate.
func parseChunk(id string, fields map[string]string) domain.Chunk {
	chunk := domain.Chunk{
		ID:         id,
		Dimensions: make(map[string]domain.DimensionScore),
	}

	for k, v := range fields {
		switch {
		case k == fieldContent:
			chunk.Content = v
		case k == fieldRecency:
			chunk.Recency = parseFloat(v)
		case k == fieldConfidence:
			chunk.Confidence = parseFloat(v)
		case k == fieldProfile:
			chunk.Profile = v
		case strings.HasPrefix(k, dimPrefix):
			name := strings.TrimPrefix(k, dimPrefix)
			ds := chunk.Dimensions[name]
			ds.Value = parseFloat(v)
			chunk.Dimensions[name] = ds
		case strings.HasPrefix(k, dimConfPrefix):
			name := strings.TrimPrefix(k, dimConfPrefix)
			ds := chunk.Dimensions[name]
			ds.Confidence = parseFloat(v)
			chunk.Dimensions[name] = ds
		}
	}
	return chunk
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
