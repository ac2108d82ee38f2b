package domain

// Strategy selects how a query is ranked.
type Strategy string

const (
	// StrategyVectorOnly ranks by similarity alone (the fallback path).
	StrategyVectorOnly Strategy = "vector_only"
	// StrategyDimensionOnly ranks without the similarity factor.
	StrategyDimensionOnly Strategy = "dimension_only"
	// StrategyHybrid blends similarity, alignment, recency and confidence.
	StrategyHybrid Strategy = "hybrid"
	// StrategyAdaptive runs hybrid, auto-downgrading after repeated timeouts.
	StrategyAdaptive Strategy = "adaptive"
)

// IsValid reports whether the strategy is a known value.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyVectorOnly, StrategyDimensionOnly, StrategyHybrid, StrategyAdaptive:
		return true
	}
	return false
}

// AlignmentMethod aggregates per-dimension alignment values.
type AlignmentMethod string

const (
	// AlignMin takes the weakest matched dimension.
	AlignMin AlignmentMethod = "min"
	// AlignMax takes the strongest matched dimension.
	AlignMax AlignmentMethod = "max"
	// AlignAverage takes the unweighted mean.
	AlignAverage AlignmentMethod = "average"
	// AlignWeightedAverage weights each dimension by its multiplier.
	AlignWeightedAverage AlignmentMethod = "weighted_average"
)

// IsValid reports whether the method is a known value.
func (m AlignmentMethod) IsValid() bool {
	switch m {
	case AlignMin, AlignMax, AlignAverage, AlignWeightedAverage:
		return true
	}
	return false
}

// Normalization scales the aggregated alignment value.
type Normalization string

const (
	// NormNone passes the aggregate through.
	NormNone Normalization = "none"
	// NormTotalWeight divides by the sum of multipliers used.
	NormTotalWeight Normalization = "total_weight"
	// NormMaxWeight divides by the largest multiplier used.
	NormMaxWeight Normalization = "max_weight"
)

// IsValid reports whether the normalization mode is a known value.
func (n Normalization) IsValid() bool {
	switch n {
	case NormNone, NormTotalWeight, NormMaxWeight:
		return true
	}
	return false
}
