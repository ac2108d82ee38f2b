// Package profile holds the scoring profile registry and the
// query-to-profile detector.
package profile

import (
	"fmt"
	"sync/atomic"

	"github.com/kognita/dimrank/internal/config"
	"github.com/kognita/dimrank/internal/domain"
)

// DefaultProfileID is the profile every registry must contain; it is
// returned when detection is inconclusive or an override is unknown.
const DefaultProfileID = "general"

// snapshot is one immutable generation of loaded profiles.
type snapshot struct {
	ordered []domain.Profile
	byID    map[string]domain.Profile
}

// Registry holds named scoring profiles. Loading is all-or-nothing; a
// reload installs a new snapshot atomically so in-flight queries see
// either the old or the new generation, never a mix.
type Registry struct {
	current atomic.Pointer[snapshot]
}

// NewRegistry builds a registry from profile definitions. Any invalid
// profile fails the whole load.
func NewRegistry(defs []config.ProfileDefinition) (*Registry, error) {
	r := &Registry{}
	if err := r.Reload(defs); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload validates and installs a new profile generation. On error the
// previous generation stays in place untouched.
func (r *Registry) Reload(defs []config.ProfileDefinition) error {
	if len(defs) == 0 {
		return fmt.Errorf("%w: at least one profile is required", domain.ErrInvalidConfig)
	}

	snap := &snapshot{
		ordered: make([]domain.Profile, 0, len(defs)),
		byID:    make(map[string]domain.Profile, len(defs)),
	}
	for _, def := range defs {
		if _, dup := snap.byID[def.ID]; dup {
			return fmt.Errorf("%w: duplicate profile %q", domain.ErrInvalidConfig, def.ID)
		}
		p, err := domain.NewProfile(def.ID, weightsFromDef(def.Weights), def.Dimensions, def.Patterns)
		if err != nil {
			return err
		}
		snap.ordered = append(snap.ordered, p)
		snap.byID[def.ID] = p
	}
	if _, ok := snap.byID[DefaultProfileID]; !ok {
		return fmt.Errorf("%w: profile %q must be defined", domain.ErrInvalidConfig, DefaultProfileID)
	}

	r.current.Store(snap)
	return nil
}

// Get returns the profile with the given id.
func (r *Registry) Get(id string) (domain.Profile, error) {
	snap := r.current.Load()
	p, ok := snap.byID[id]
	if !ok {
		return domain.Profile{}, fmt.Errorf("%w: %q", domain.ErrUnknownProfile, id)
	}
	return p, nil
}

// Default returns the always-present general profile.
func (r *Registry) Default() domain.Profile {
	snap := r.current.Load()
	return snap.byID[DefaultProfileID]
}

// Profiles returns all profiles in declaration order.
func (r *Registry) Profiles() []domain.Profile {
	return r.current.Load().ordered
}

func weightsFromDef(w map[string]float64) domain.FactorWeights {
	return domain.FactorWeights{
		Similarity: w["semantic_similarity"],
		Alignment:  w["dimension_alignment"],
		Recency:    w["recency_score"],
		Confidence: w["confidence_score"],
	}
}
