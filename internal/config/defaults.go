package config

// DefaultProfiles returns the built-in scoring profiles. Declaration
// order matters: the profile detector breaks confidence ties by taking
// the first declared profile, and "general" must stay first so it is
// the registry default.
func DefaultProfiles() []ProfileDefinition {
	return []ProfileDefinition{
		{
			ID: "general",
			Weights: map[string]float64{
				"semantic_similarity": 0.55,
				"dimension_alignment": 0.20,
				"recency_score":       0.10,
				"confidence_score":    0.15,
			},
			Dimensions: map[string]float64{
				"utility":     1.2,
				"clarity":     1.1,
				"credibility": 1.1,
			},
		},
		{
			ID: "researcher",
			Weights: map[string]float64{
				"semantic_similarity": 0.40,
				"dimension_alignment": 0.35,
				"recency_score":       0.10,
				"confidence_score":    0.15,
			},
			Dimensions: map[string]float64{
				"novelty":         1.5,
				"technical_depth": 1.3,
				"complexity":      1.1,
				"credibility":     1.2,
			},
			Patterns: []string{
				`\bresearch\b`,
				`\bmethodolog`,
				`\bhypothes`,
				`\bpeer[\s-]review`,
				`\bnovel\b|\binnovat`,
			},
		},
		{
			ID: "business",
			Weights: map[string]float64{
				"semantic_similarity": 0.40,
				"dimension_alignment": 0.35,
				"recency_score":       0.15,
				"confidence_score":    0.10,
			},
			Dimensions: map[string]float64{
				"market_impact": 1.4,
				"roi_potential": 1.5,
				"feasibility":   1.2,
				"utility":       1.2,
				"risk":          1.1,
			},
			Patterns: []string{
				`\bmarket\b`,
				`\broi\b|\brevenue\b`,
				`\bopportunit`,
				`\bbusiness\b|\bcompetiti`,
				`\binvest`,
			},
		},
		{
			ID: "legal",
			Weights: map[string]float64{
				"semantic_similarity": 0.45,
				"dimension_alignment": 0.30,
				"recency_score":       0.10,
				"confidence_score":    0.15,
			},
			Dimensions: map[string]float64{
				"compliance_risk": 1.4,
				"liability":       1.3,
				"credibility":     1.3,
				"complexity":      1.1,
			},
			Patterns: []string{
				`\blegal\b|\blaw\b`,
				`\bcomplian`,
				`\bregulat`,
				`\bcontract\b`,
				`\bliabilit`,
			},
		},
	}
}

// DefaultFilters returns the built-in phrase-to-constraint mappings.
// Overlapping phrases all fire and their constraints are unioned.
func DefaultFilters() []FilterPhrase {
	high := func(dims ...string) []ConstraintDef {
		out := make([]ConstraintDef, len(dims))
		for i, d := range dims {
			out[i] = ConstraintDef{Dimension: d, Level: "high"}
		}
		return out
	}
	low := func(dims ...string) []ConstraintDef {
		out := make([]ConstraintDef, len(dims))
		for i, d := range dims {
			out[i] = ConstraintDef{Dimension: d, Level: "low"}
		}
		return out
	}

	return []FilterPhrase{
		{Phrase: "high quality", Confidence: 0.8, Constraints: high("credibility", "utility")},
		{Phrase: "high-utility", Confidence: 0.8, Constraints: high("utility")},
		{Phrase: "useful", Confidence: 0.7, Constraints: high("utility")},
		{Phrase: "low-risk", Confidence: 0.8, Constraints: low("danger")},
		{Phrase: "safe", Confidence: 0.7, Constraints: low("danger")},
		{Phrase: "simple", Confidence: 0.8, Constraints: low("complexity")},
		{Phrase: "basic", Confidence: 0.7, Constraints: low("complexity")},
		{Phrase: "complex", Confidence: 0.7, Constraints: high("complexity")},
		{Phrase: "advanced", Confidence: 0.7, Constraints: high("complexity", "technical_depth")},
		{Phrase: "innovative", Confidence: 0.8, Constraints: high("novelty")},
		{Phrase: "novel", Confidence: 0.7, Constraints: high("novelty")},
		{Phrase: "compliant", Confidence: 0.8, Constraints: low("compliance_risk")},
		{Phrase: "credible", Confidence: 0.8, Constraints: high("credibility")},
		{Phrase: "reliable", Confidence: 0.7, Constraints: high("credibility")},
		{Phrase: "detailed", Confidence: 0.7, Constraints: high("technical_depth")},
		{Phrase: "in-depth", Confidence: 0.8, Constraints: high("technical_depth")},
		{Phrase: "clear", Confidence: 0.7, Constraints: high("clarity")},
	}
}
