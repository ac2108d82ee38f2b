package domain

// DimensionScore is a chunk's score on one conceptual dimension.
// Confidence is optional: zero means the ingestion pipeline reported none.
type DimensionScore struct {
	Value      float64
	Confidence float64
}

// Chunk is a content chunk as read from the storage collaborator.
// The engine never writes chunk state; Similarity is the only field
// set here (copied from the similarity-index hit).
type Chunk struct {
	ID         string
	Content    string
	Dimensions map[string]DimensionScore
	Recency    float64
	Confidence float64
	Profile    string // profile assigned at ingestion time, may be empty
	Similarity float64
}

// SimilarityHit is one entry of the similarity-index result, ordered by
// descending similarity.
type SimilarityHit struct {
	ChunkID    string
	Similarity float64
}
