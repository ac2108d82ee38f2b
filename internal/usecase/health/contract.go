package health

import "context"

// DBPinger checks chunk store / similarity index availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// RankingReporter reports whether adaptive ranking is downgraded.
type RankingReporter interface {
	Downgraded() bool
}
