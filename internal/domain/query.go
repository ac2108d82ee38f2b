package domain

// QueryIntent classifies what the query asks the engine to do. The
// intent does not change ranking; it is reported alongside the results
// so callers can route or present them differently.
type QueryIntent string

const (
	IntentSearch    QueryIntent = "search"
	IntentFilter    QueryIntent = "filter"
	IntentCompare   QueryIntent = "compare"
	IntentAnalyze   QueryIntent = "analyze"
	IntentSummarize QueryIntent = "summarize"
)

// ParsedQuery is the structured form of one raw query: the dimension
// constraints extracted from filter phrases, the text left after
// stripping them, the classified intent, and a confidence for the parse
// as a whole.
type ParsedQuery struct {
	Constraints []FilterConstraint
	CleanQuery  string
	Intent      QueryIntent
	Confidence  float64
}
