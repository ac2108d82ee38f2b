// Package align computes the dimension-alignment factor of a candidate
// chunk against the active profile and query constraints.
package align

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kognita/dimrank/internal/config"
	"github.com/kognita/dimrank/internal/domain"
)

// Calculator turns a chunk's raw dimension scores into a single
// alignment value in [0,1]. It is pure and safe for concurrent use;
// caching sits above it on the query path.
type Calculator struct {
	method         domain.AlignmentMethod
	normalization  domain.Normalization
	boost          config.ConfidenceBoost
	sameBonus      float64
	crossPenalty   float64
	filterStrength float64
	highThreshold  float64
	lowThreshold   float64
}

// NewCalculator builds a calculator from the ranking configuration.
// The configuration is assumed validated.
func NewCalculator(cfg config.RankingConfig) *Calculator {
	return &Calculator{
		method:         domain.AlignmentMethod(cfg.Alignment.Method),
		normalization:  domain.Normalization(cfg.Alignment.Normalization),
		boost:          cfg.Alignment.ConfidenceBoost,
		sameBonus:      cfg.Alignment.SameProfileBonus,
		crossPenalty:   cfg.Alignment.CrossProfilePenalty,
		filterStrength: cfg.FilterStrength,
		highThreshold:  cfg.HighThreshold,
		lowThreshold:   cfg.LowThreshold,
	}
}

// dimValue is one dimension's contribution before aggregation.
type dimValue struct {
	name       string
	value      float64
	weight     float64
	confidence float64
	penalized  bool
}

// Compute returns the alignment score and a human-readable explanation
// of how it was derived.
func (c *Calculator) Compute(chunk domain.Chunk, profile domain.Profile, constraints []domain.FilterConstraint) (float64, string) {
	byDim := make(map[string][]domain.FilterConstraint, len(constraints))
	for _, fc := range constraints {
		byDim[fc.Dimension] = append(byDim[fc.Dimension], fc)
	}

	dims := make([]string, 0, len(profile.Multipliers())+len(byDim))
	seen := make(map[string]bool, cap(dims))
	for dim := range profile.Multipliers() {
		dims = append(dims, dim)
		seen[dim] = true
	}
	for dim := range byDim {
		if !seen[dim] {
			dims = append(dims, dim)
		}
	}
	if len(dims) == 0 {
		return 0, "no dimensions in scope"
	}
	sort.Strings(dims)

	values := make([]dimValue, 0, len(dims))
	for _, dim := range dims {
		score := chunk.Dimensions[dim] // zero value when unreported
		mult := profile.Multiplier(dim)
		dv := dimValue{
			name:       dim,
			value:      score.Value * mult,
			weight:     mult,
			confidence: score.Confidence,
		}
		for _, fc := range byDim[dim] {
			if c.violates(score.Value, fc) {
				dv.value *= 1 - c.filterStrength
				dv.penalized = true
			}
		}
		values = append(values, dv)
	}

	agg := c.aggregate(values)
	agg = c.normalize(agg, values)
	agg = clamp01(agg)

	boosted := c.applyConfidenceBoost(agg, values)
	final := c.applyProfileBonus(boosted, chunk.Profile, profile.ID())

	return final, c.explain(values, agg, boosted, final, chunk.Profile, profile.ID())
}

// violates reports whether the raw dimension score fails the constraint.
// An explicit constraint threshold overrides the configured cut. A score
// exactly at the cut satisfies either level.
func (c *Calculator) violates(raw float64, fc domain.FilterConstraint) bool {
	cut := fc.Threshold
	switch fc.Level {
	case domain.LevelHigh:
		if cut == domain.UnsetThreshold {
			cut = c.highThreshold
		}
		return raw < cut
	case domain.LevelLow:
		if cut == domain.UnsetThreshold {
			cut = c.lowThreshold
		}
		return raw > cut
	}
	return false
}

func (c *Calculator) aggregate(values []dimValue) float64 {
	switch c.method {
	case domain.AlignMin:
		min := math.Inf(1)
		for _, dv := range values {
			if dv.value < min {
				min = dv.value
			}
		}
		return min
	case domain.AlignMax:
		max := math.Inf(-1)
		for _, dv := range values {
			if dv.value > max {
				max = dv.value
			}
		}
		return max
	case domain.AlignWeightedAverage:
		var sum, weights float64
		for _, dv := range values {
			sum += dv.value * dv.weight
			weights += dv.weight
		}
		if weights == 0 {
			return 0
		}
		return sum / weights
	default: // average
		var sum float64
		for _, dv := range values {
			sum += dv.value
		}
		return sum / float64(len(values))
	}
}

func (c *Calculator) normalize(agg float64, values []dimValue) float64 {
	switch c.normalization {
	case domain.NormTotalWeight:
		var total float64
		for _, dv := range values {
			total += dv.weight
		}
		if total == 0 {
			return 0
		}
		return agg / total
	case domain.NormMaxWeight:
		var max float64
		for _, dv := range values {
			if dv.weight > max {
				max = dv.weight
			}
		}
		if max == 0 {
			return 0
		}
		return agg / max
	default:
		return agg
	}
}

// applyConfidenceBoost rewards chunks whose dimension scores carry high
// extraction confidence. Dimensions that reported no confidence are
// excluded from the average rather than dragging it down.
func (c *Calculator) applyConfidenceBoost(score float64, values []dimValue) float64 {
	var sum float64
	n := 0
	for _, dv := range values {
		if dv.confidence > 0 {
			sum += dv.confidence
			n++
		}
	}
	if n == 0 {
		return score
	}
	avg := sum / float64(n)
	if avg < c.boost.Threshold {
		return score
	}
	scale := 1.0
	if c.boost.Threshold < 1 {
		scale = (avg - c.boost.Threshold) / (1 - c.boost.Threshold)
	}
	return math.Min(1, score+c.boost.MaxBoost*scale)
}

// applyProfileBonus nudges the score when the chunk was ingested under
// the same profile the query is using. Chunks without an ingestion
// profile are left untouched.
func (c *Calculator) applyProfileBonus(score float64, chunkProfile, activeProfile string) float64 {
	if chunkProfile == "" {
		return clamp01(score)
	}
	if chunkProfile == activeProfile {
		return clamp01(score + c.sameBonus)
	}
	return clamp01(score - c.crossPenalty)
}

func (c *Calculator) explain(values []dimValue, agg, boosted, final float64, chunkProfile, activeProfile string) string {
	var b strings.Builder
	for i, dv := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%.2f", dv.name, dv.value)
		if dv.penalized {
			b.WriteString(" (filtered)")
		}
	}
	fmt.Fprintf(&b, "; %s/%s=%.3f", c.method, c.normalization, agg)
	if boosted != agg {
		fmt.Fprintf(&b, "; confidence boost=%.3f", boosted)
	}
	if final != boosted && chunkProfile != "" {
		if chunkProfile == activeProfile {
			fmt.Fprintf(&b, "; same-profile bonus=%.3f", final)
		} else {
			fmt.Fprintf(&b, "; cross-profile penalty=%.3f", final)
		}
	}
	return b.String()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
