package domain

import "fmt"

// Rank request limits.
const (
	// MaxQueryLength is the maximum allowed query length.
	MaxQueryLength = 4096
	// DefaultCount is the result count when the caller passes none.
	DefaultCount = 10
	// MaxCount is the maximum requested result count.
	MaxCount = 100
)

// RankRequest is a validated rank call.
type RankRequest struct {
	query           string
	count           int
	profileOverride string
}

// NewRankRequest validates and normalizes rank parameters.
// Defaults: count=10. Count is clamped to MaxCount.
func NewRankRequest(query string, count int, profileOverride string) (RankRequest, error) {
	if query == "" {
		return RankRequest{}, fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}
	if len(query) > MaxQueryLength {
		return RankRequest{}, fmt.Errorf(
			"%w: query too long (max %d chars)", ErrInvalidRequest, MaxQueryLength,
		)
	}
	if count <= 0 {
		count = DefaultCount
	}
	if count > MaxCount {
		count = MaxCount
	}
	return RankRequest{
		query:           query,
		count:           count,
		profileOverride: profileOverride,
	}, nil
}

// Query returns the raw query text.
func (r RankRequest) Query() string { return r.query }

// Count returns the requested result count.
func (r RankRequest) Count() int { return r.count }

// ProfileOverride returns the explicit profile id, empty when detection
// should run.
func (r RankRequest) ProfileOverride() string { return r.profileOverride }
