package domain

// ScoredCandidate is a chunk paired with its per-factor scores and the
// final composite score. Created and discarded per query.
type ScoredCandidate struct {
	Chunk       Chunk
	Similarity  float64
	Alignment   float64
	Recency     float64
	Confidence  float64
	Profile     string
	Score       float64
	Explanation string
}

// RankResult is the outcome of one rank call. Degraded is set when the
// fallback path ran or a processing timeout truncated dimension scoring;
// the results are still valid and ordered. Intent and ParseConfidence
// come from query parsing and are zero on the fallback path, which
// never parses.
type RankResult struct {
	Results         []ScoredCandidate
	ProfileUsed     string
	Degraded        bool
	Intent          QueryIntent
	ParseConfidence float64
}
