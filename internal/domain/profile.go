package domain

import (
	"fmt"
	"math"
	"regexp"
)

// WeightSumTolerance is the allowed floating drift when validating that
// factor weights sum to 1.0.
const WeightSumTolerance = 1e-6

// FactorWeights is the weight vector over the four fixed ranking factors.
type FactorWeights struct {
	Similarity float64
	Alignment  float64
	Recency    float64
	Confidence float64
}

// Sum returns the total of all four factor weights.
func (w FactorWeights) Sum() float64 {
	return w.Similarity + w.Alignment + w.Recency + w.Confidence
}

// WithoutSimilarity zeroes the similarity weight and renormalizes the
// remaining factors to sum to 1.0 (dimension_only strategy).
func (w FactorWeights) WithoutSimilarity() FactorWeights {
	rest := w.Alignment + w.Recency + w.Confidence
	if rest <= 0 {
		// Degenerate profile that put all weight on similarity.
		return FactorWeights{Alignment: 1}
	}
	return FactorWeights{
		Alignment:  w.Alignment / rest,
		Recency:    w.Recency / rest,
		Confidence: w.Confidence / rest,
	}
}

// Profile is a validated, immutable scoring profile.
type Profile struct {
	id          string
	weights     FactorWeights
	multipliers map[string]float64
	patterns    []*regexp.Regexp
}

// NewProfile validates and builds a profile. Weights must sum to 1.0
// within WeightSumTolerance and every dimension multiplier must be
// positive; detection patterns are compiled once here.
func NewProfile(
	id string,
	weights FactorWeights,
	multipliers map[string]float64,
	patterns []string,
) (Profile, error) {
	if id == "" {
		return Profile{}, fmt.Errorf("%w: profile id is required", ErrInvalidConfig)
	}
	if diff := math.Abs(weights.Sum() - 1.0); diff > WeightSumTolerance {
		return Profile{}, fmt.Errorf(
			"%w: profile %q factor weights sum to %.6f, want 1.0",
			ErrInvalidConfig, id, weights.Sum(),
		)
	}
	for dim, m := range multipliers {
		if m <= 0 {
			return Profile{}, fmt.Errorf(
				"%w: profile %q dimension %q multiplier must be positive, got %v",
				ErrInvalidConfig, id, dim, m,
			)
		}
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return Profile{}, fmt.Errorf(
				"%w: profile %q pattern %q: %v", ErrInvalidConfig, id, p, err,
			)
		}
		compiled = append(compiled, re)
	}

	mults := make(map[string]float64, len(multipliers))
	for dim, m := range multipliers {
		mults[dim] = m
	}

	return Profile{
		id:          id,
		weights:     weights,
		multipliers: mults,
		patterns:    compiled,
	}, nil
}

// ID returns the profile identifier.
func (p Profile) ID() string { return p.id }

// Weights returns the factor weight vector.
func (p Profile) Weights() FactorWeights { return p.weights }

// Multiplier returns the multiplier for a dimension, defaulting to 1.0.
func (p Profile) Multiplier(dim string) float64 {
	if m, ok := p.multipliers[dim]; ok {
		return m
	}
	return 1.0
}

// Multipliers returns the explicit dimension multipliers.
func (p Profile) Multipliers() map[string]float64 { return p.multipliers }

// Patterns returns the compiled detection patterns.
func (p Profile) Patterns() []*regexp.Regexp { return p.patterns }
