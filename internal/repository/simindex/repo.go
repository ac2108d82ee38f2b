// Package simindex reads the external vector similarity index.
package simindex

import (
	"context"
	"fmt"
	"strings"

	"github.com/kognita/dimrank/internal/db"
	"github.com/kognita/dimrank/internal/domain"
)

// store is the consumer interface for index reads (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements usecase/rank.CandidateIndex over the chunk index.
type Repo struct {
	store     store
	indexName string
	keyPrefix string
}

// New creates a similarity index repository. Chunks live under
// <keyPrefix>chunk:<id> and are indexed by <keyPrefix>chunks:idx.
func New(s store, keyPrefix string) *Repo {
	return &Repo{
		store:     s,
		indexName: keyPrefix + "chunks:idx",
		keyPrefix: keyPrefix,
	}
}

// FetchCandidates runs a KNN search and returns candidates in
// descending similarity order.
func (r *Repo) FetchCandidates(ctx context.Context, vector []float32, count int) ([]domain.SimilarityHit, error) {
	q := &db.KNNQuery{
		IndexName: r.indexName,
		Vector:    vector,
		K:         count,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", r.indexName, err)
	}

	hits := make([]domain.SimilarityHit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		hits = append(hits, domain.SimilarityHit{
			ChunkID:    r.chunkID(e.Key),
			Similarity: e.Score,
		})
	}
	return hits, nil
}

// chunkID strips the storage key prefix from an index hit key.
func (r *Repo) chunkID(key string) string {
	return strings.TrimPrefix(key, r.keyPrefix+"chunk:")
}
