package filter

import (
	"testing"

	"github.com/kognita/dimrank/internal/config"
	"github.com/kognita/dimrank/internal/domain"
)

func newDefaultParser(t *testing.T) *Parser {
	t.Helper()
	p, err := NewParser(config.DefaultFilters(), true, 0.6)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestParse_SinglePhrase(t *testing.T) {
	p := newDefaultParser(t)

	parsed := p.Parse("find me simple tutorials")
	if len(parsed.Constraints) != 1 {
		t.Fatalf("got %d constraints, want 1: %+v", len(parsed.Constraints), parsed.Constraints)
	}
	c := parsed.Constraints[0]
	if c.Dimension != "complexity" || c.Level != domain.LevelLow {
		t.Errorf("constraint = %+v, want complexity/low", c)
	}
	if c.Confidence != 0.8 {
		t.Errorf("confidence = %v, want 0.8", c.Confidence)
	}
	if c.Threshold != domain.UnsetThreshold {
		t.Errorf("threshold = %v, want unset", c.Threshold)
	}
	if parsed.CleanQuery != "find me tutorials" {
		t.Errorf("clean query = %q, want %q", parsed.CleanQuery, "find me tutorials")
	}
}

func TestParse_CaseInsensitive(t *testing.T) {
	p := newDefaultParser(t)

	parsed := p.Parse("SIMPLE and Safe options")
	dims := map[string]bool{}
	for _, c := range parsed.Constraints {
		dims[c.Dimension] = true
	}
	if !dims["complexity"] || !dims["danger"] {
		t.Errorf("constraints = %+v, want complexity and danger", parsed.Constraints)
	}
}

func TestParse_MultiWordPhrase(t *testing.T) {
	p := newDefaultParser(t)

	parsed := p.Parse("give me high quality sources")
	if len(parsed.Constraints) != 2 {
		t.Fatalf("got %d constraints, want 2 (credibility, utility): %+v",
			len(parsed.Constraints), parsed.Constraints)
	}
	for _, c := range parsed.Constraints {
		if c.Level != domain.LevelHigh {
			t.Errorf("level = %v, want high", c.Level)
		}
	}
	if parsed.CleanQuery != "give me sources" {
		t.Errorf("clean query = %q, want %q", parsed.CleanQuery, "give me sources")
	}
}

func TestParse_OverlappingPhrasesUnion(t *testing.T) {
	p := newDefaultParser(t)

	// "simple" and "safe" both fire; constraints union, neither wins.
	parsed := p.Parse("simple and safe approach")
	if len(parsed.Constraints) != 2 {
		t.Fatalf("got %d constraints, want 2: %+v", len(parsed.Constraints), parsed.Constraints)
	}
}

func TestParse_WordBoundary(t *testing.T) {
	p := newDefaultParser(t)

	// "simplest" must not trigger the "simple" phrase.
	parsed := p.Parse("the simplest explanation")
	if len(parsed.Constraints) != 0 {
		t.Errorf("got constraints for substring match: %+v", parsed.Constraints)
	}
	if parsed.CleanQuery != "the simplest explanation" {
		t.Errorf("clean query = %q, want original", parsed.CleanQuery)
	}
}

func TestParse_BelowThresholdPhraseDropped(t *testing.T) {
	phrases := []config.FilterPhrase{
		{Phrase: "weakly", Confidence: 0.3, Constraints: []config.ConstraintDef{
			{Dimension: "utility", Level: "high"},
		}},
	}
	p, err := NewParser(phrases, true, 0.6)
	if err != nil {
		t.Fatal(err)
	}

	parsed := p.Parse("weakly useful")
	if len(parsed.Constraints) != 0 {
		t.Errorf("low-confidence phrase should not produce constraints: %+v", parsed.Constraints)
	}
}

func TestParse_Disabled(t *testing.T) {
	p, err := NewParser(config.DefaultFilters(), false, 0.6)
	if err != nil {
		t.Fatal(err)
	}

	parsed := p.Parse("simple and safe")
	if parsed.Constraints != nil {
		t.Errorf("disabled parser returned constraints: %+v", parsed.Constraints)
	}
	if parsed.CleanQuery != "simple and safe" {
		t.Errorf("disabled parser rewrote query: %q", parsed.CleanQuery)
	}
}

func TestParse_DisabledStillClassifiesIntent(t *testing.T) {
	p, err := NewParser(config.DefaultFilters(), false, 0.6)
	if err != nil {
		t.Fatal(err)
	}

	parsed := p.Parse("compare the two simple approaches")
	if parsed.Intent != domain.IntentCompare {
		t.Errorf("intent = %v, want compare", parsed.Intent)
	}
}

func TestParse_AllPhraseQueryKeepsOriginalForEmbedding(t *testing.T) {
	p := newDefaultParser(t)

	parsed := p.Parse("simple")
	if len(parsed.Constraints) != 1 {
		t.Fatalf("got %d constraints, want 1", len(parsed.Constraints))
	}
	if parsed.CleanQuery != "simple" {
		t.Errorf("clean query = %q, want original text kept", parsed.CleanQuery)
	}
}

func TestParse_ExplicitThresholdPreserved(t *testing.T) {
	phrases := []config.FilterPhrase{
		{Phrase: "very detailed", Confidence: 0.9, Constraints: []config.ConstraintDef{
			{Dimension: "technical_depth", Level: "high", Threshold: 0.7},
		}},
	}
	p, err := NewParser(phrases, true, 0.6)
	if err != nil {
		t.Fatal(err)
	}

	parsed := p.Parse("a very detailed report")
	if len(parsed.Constraints) != 1 {
		t.Fatalf("got %d constraints, want 1", len(parsed.Constraints))
	}
	if parsed.Constraints[0].Threshold != 0.7 {
		t.Errorf("threshold = %v, want 0.7", parsed.Constraints[0].Threshold)
	}
}

func TestParse_IntentClassification(t *testing.T) {
	p := newDefaultParser(t)
	cases := []struct {
		query string
		want  domain.QueryIntent
	}{
		{"find high quality research", domain.IntentSearch},
		{"filter by safe content", domain.IntentFilter},
		{"compare different approaches", domain.IntentCompare},
		{"analyze market trends", domain.IntentAnalyze},
		{"summarize key findings", domain.IntentSummarize},
		{"evaluate the methodology", domain.IntentAnalyze},
		{"pros versus cons", domain.IntentCompare},
		{"papers", domain.IntentSearch},
	}
	for _, tc := range cases {
		if got := p.Parse(tc.query).Intent; got != tc.want {
			t.Errorf("Parse(%q).Intent = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestParse_ConfidenceGrowsWithSignals(t *testing.T) {
	p := newDefaultParser(t)

	// Filter phrases plus a clear intent verb beat a bare noun.
	complexQuery := p.Parse("analyze high quality, safe research papers")
	simple := p.Parse("papers")

	if complexQuery.Confidence <= simple.Confidence {
		t.Errorf("confidence %v for rich query not above %v for bare query",
			complexQuery.Confidence, simple.Confidence)
	}
	if complexQuery.Confidence < 0.5 || complexQuery.Confidence > 1.0 {
		t.Errorf("confidence = %v, want within [0.5, 1.0]", complexQuery.Confidence)
	}
}

func TestParse_ConfidenceCappedAtOne(t *testing.T) {
	p := newDefaultParser(t)

	parsed := p.Parse("analyze simple safe useful high quality detailed recent credible sources")
	if parsed.Confidence > 1.0 {
		t.Errorf("confidence = %v, want capped at 1.0", parsed.Confidence)
	}
	if len(parsed.Constraints) < 4 {
		t.Fatalf("got %d constraints, want enough to hit the cap", len(parsed.Constraints))
	}
}
