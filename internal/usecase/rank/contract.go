package rank

import (
	"context"

	"github.com/kognita/dimrank/internal/domain"
)

// CandidateIndex fetches similarity-ordered candidates (ISP).
type CandidateIndex interface {
	FetchCandidates(ctx context.Context, vector []float32, count int) ([]domain.SimilarityHit, error)
}

// ChunkStore reads chunk metadata for scoring (ISP).
type ChunkStore interface {
	GetChunks(ctx context.Context, ids []string) (map[string]domain.Chunk, error)
}

// ProfileSource resolves profiles from the registry.
type ProfileSource interface {
	Get(id string) (domain.Profile, error)
	Default() domain.Profile
}

// ProfileDetector classifies query text into a profile.
type ProfileDetector interface {
	Detect(query string) (domain.Profile, float64)
}

// ConstraintParser turns raw query text into its structured form.
type ConstraintParser interface {
	Parse(query string) domain.ParsedQuery
}

// Aligner computes a candidate's dimension-alignment score.
type Aligner interface {
	Compute(chunk domain.Chunk, profile domain.Profile, constraints []domain.FilterConstraint) (float64, string)
}
