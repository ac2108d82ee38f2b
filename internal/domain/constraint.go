package domain

// ConstraintLevel is the target level of a dimension filter constraint.
type ConstraintLevel string

const (
	// LevelLow expects the dimension score at or below the low threshold.
	LevelLow ConstraintLevel = "low"
	// LevelHigh expects the dimension score at or above the high threshold.
	LevelHigh ConstraintLevel = "high"
)

// IsValid reports whether the level is a known value.
func (l ConstraintLevel) IsValid() bool {
	return l == LevelLow || l == LevelHigh
}

// FilterConstraint is one structured dimension constraint extracted from
// query text. Threshold < 0 means "use the configured high/low cut".
type FilterConstraint struct {
	Dimension  string
	Level      ConstraintLevel
	Threshold  float64
	Confidence float64
}

// UnsetThreshold marks a constraint that uses the configured default cut.
const UnsetThreshold = -1.0
