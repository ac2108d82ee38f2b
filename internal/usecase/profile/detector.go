package profile

import "github.com/kognita/dimrank/internal/domain"

// Detector classifies query text into a profile via pattern matching.
// Detection is a pure function over the registry snapshot: the same
// text always yields the same profile.
type Detector struct {
	registry  *Registry
	threshold float64
}

// NewDetector creates a detector. Detections below threshold fall back
// to the default profile.
func NewDetector(registry *Registry, threshold float64) *Detector {
	return &Detector{registry: registry, threshold: threshold}
}

// Detect returns the best-matching profile and its confidence.
// Confidence per profile is the fraction of its distinct patterns that
// match the text, which avoids bias toward profiles with many
// overlapping patterns. Ties go to the first-declared profile. When no
// profile clears the threshold, the default profile is returned with
// the losing confidence.
func (d *Detector) Detect(query string) (domain.Profile, float64) {
	var (
		best     domain.Profile
		bestConf = -1.0
	)

	for _, p := range d.registry.Profiles() {
		patterns := p.Patterns()
		if len(patterns) == 0 {
			continue
		}
		matched := 0
		for _, re := range patterns {
			if re.MatchString(query) {
				matched++
			}
		}
		conf := float64(matched) / float64(len(patterns))
		// Strict > keeps the first-declared profile on ties.
		if conf > bestConf {
			best = p
			bestConf = conf
		}
	}

	if bestConf < d.threshold {
		if bestConf < 0 {
			bestConf = 0
		}
		return d.registry.Default(), bestConf
	}
	return best, bestConf
}
