// Package filter turns free query text into its structured form:
// dimension constraints extracted via phrase matching, a cleaned query
// for embedding, and a classified query intent.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kognita/dimrank/internal/config"
	"github.com/kognita/dimrank/internal/domain"
)

// entry is one compiled phrase-to-constraint mapping.
type entry struct {
	re          *regexp.Regexp
	constraints []domain.FilterConstraint
}

// intentPatterns classify a query by its verbs. Checked in order, first
// match wins; a query matching none of them is a plain search.
var intentPatterns = []struct {
	intent domain.QueryIntent
	re     *regexp.Regexp
}{
	{domain.IntentSummarize, regexp.MustCompile(`(?i)\b(summar\w*|overview|key (points|findings|takeaways))\b`)},
	{domain.IntentCompare, regexp.MustCompile(`(?i)\b(compar\w*|contrast\w*|versus|vs\.?|trade-?offs?)\b`)},
	{domain.IntentAnalyze, regexp.MustCompile(`(?i)\b(analy\w*|evaluat\w*|assess\w*|examin\w*|investigat\w*)\b`)},
	{domain.IntentFilter, regexp.MustCompile(`(?i)\b(filter\w*|only|exclud\w*|restrict\w*|narrow\w*)\b`)},
}

// Confidence for a parse starts at a floor and grows with each signal
// the query gives: an explicit intent verb and each extracted
// constraint.
const (
	baseParseConfidence       = 0.4
	intentConfidenceBonus     = 0.2
	constraintConfidenceBonus = 0.15
)

// Parser matches recognized filter phrases in query text and turns them
// into dimension constraints. Matching is case-insensitive whole-phrase
// matching; overlapping phrases all fire and their constraints are
// unioned. Parsing is pure and side-effect free.
type Parser struct {
	entries []entry
	enabled bool
}

// NewParser compiles the phrase mappings. Phrases whose base confidence
// is below confidenceThreshold are dropped at build time since they can
// never become active constraints.
func NewParser(phrases []config.FilterPhrase, enabled bool, confidenceThreshold float64) (*Parser, error) {
	p := &Parser{enabled: enabled}
	for _, ph := range phrases {
		if ph.Confidence < confidenceThreshold {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(ph.Phrase) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("%w: filter phrase %q: %v", domain.ErrInvalidConfig, ph.Phrase, err)
		}
		cs := make([]domain.FilterConstraint, len(ph.Constraints))
		for i, def := range ph.Constraints {
			threshold := def.Threshold
			if threshold == 0 {
				threshold = domain.UnsetThreshold
			}
			cs[i] = domain.FilterConstraint{
				Dimension:  def.Dimension,
				Level:      domain.ConstraintLevel(def.Level),
				Threshold:  threshold,
				Confidence: ph.Confidence,
			}
		}
		p.entries = append(p.entries, entry{re: re, constraints: cs})
	}
	return p, nil
}

// Parse returns the structured form of query: recognized constraints,
// the query text with the matched phrases stripped for use as the
// embedding input, the classified intent, and the parse confidence.
// When parsing is disabled no constraints are extracted but the intent
// is still classified.
func (p *Parser) Parse(query string) domain.ParsedQuery {
	intent, intentMatched := classifyIntent(query)
	parsed := domain.ParsedQuery{
		CleanQuery: query,
		Intent:     intent,
		Confidence: parseConfidence(intentMatched, 0),
	}
	if !p.enabled {
		return parsed
	}

	var (
		constraints []domain.FilterConstraint
		clean       = query
	)
	for _, e := range p.entries {
		if !e.re.MatchString(query) {
			continue
		}
		constraints = append(constraints, e.constraints...)
		clean = e.re.ReplaceAllString(clean, " ")
	}
	if constraints == nil {
		return parsed
	}

	clean = strings.Join(strings.Fields(clean), " ")
	if clean == "" {
		// A query made entirely of filter phrases still needs an
		// embedding input.
		clean = query
	}
	parsed.Constraints = constraints
	parsed.CleanQuery = clean
	parsed.Confidence = parseConfidence(intentMatched, len(constraints))
	return parsed
}

// classifyIntent reports the query's intent and whether an intent verb
// actually matched, as opposed to the search default.
func classifyIntent(query string) (domain.QueryIntent, bool) {
	for _, ip := range intentPatterns {
		if ip.re.MatchString(query) {
			return ip.intent, true
		}
	}
	return domain.IntentSearch, false
}

func parseConfidence(intentMatched bool, constraintCount int) float64 {
	c := baseParseConfidence
	if intentMatched {
		c += intentConfidenceBonus
	}
	c += constraintConfidenceBonus * float64(constraintCount)
	if c > 1 {
		c = 1
	}
	return c
}
