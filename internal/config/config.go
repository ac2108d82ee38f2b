package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kognita/dimrank/internal/domain"
)

// Config holds the dimrank service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Storage   StorageConfig   `yaml:"storage"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds the chunk store / similarity index connection.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds key naming settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// RankingConfig holds every knob of the ranking engine. Boolean enables
// use pointers so an absent key means "default on".
type RankingConfig struct {
	EnableDimensionRanking *bool  `yaml:"enable_dimension_ranking"`
	EnableFilterParsing    *bool  `yaml:"enable_filter_parsing"`
	EnableFallback         *bool  `yaml:"enable_fallback"`
	DefaultStrategy        string `yaml:"default_strategy"`
	FallbackStrategy       string `yaml:"fallback_strategy"`

	MaxCandidatesMultiplier int `yaml:"max_candidates_multiplier"`
	MinCandidates           int `yaml:"min_candidates"`
	MaxProcessingTimeMs     int `yaml:"max_processing_time_ms"`

	// Filter parser: phrases below this confidence never become constraints.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	// Profile detector: detections below this fall back to the default profile.
	ProfileConfidenceThreshold float64 `yaml:"profile_confidence_threshold"`

	FilterStrength float64 `yaml:"filter_strength"`
	HighThreshold  float64 `yaml:"high_threshold"`
	LowThreshold   float64 `yaml:"low_threshold"`

	// CacheSize bounds the alignment score cache; negative disables it.
	CacheSize   int `yaml:"cache_size"`
	CacheTTLSec int `yaml:"cache_ttl_sec"`
	// QueryCacheSize bounds the query embedding cache; negative disables it.
	QueryCacheSize int `yaml:"query_cache_size"`

	Alignment AlignmentConfig `yaml:"alignment"`
	Adaptive  AdaptiveConfig  `yaml:"adaptive"`

	Filters  []FilterPhrase      `yaml:"filters"`
	Profiles []ProfileDefinition `yaml:"profiles"`
}

// AlignmentConfig tunes the alignment calculator.
type AlignmentConfig struct {
	Method              string          `yaml:"method"`        // min, max, average, weighted_average
	Normalization       string          `yaml:"normalization"` // none, total_weight, max_weight
	ConfidenceBoost     ConfidenceBoost `yaml:"confidence_boost"`
	SameProfileBonus    float64         `yaml:"same_profile_bonus"`
	CrossProfilePenalty float64         `yaml:"cross_profile_penalty"`
}

// ConfidenceBoost rewards chunks whose dimension scores carry high
// extraction confidence.
type ConfidenceBoost struct {
	Threshold float64 `yaml:"threshold"`
	MaxBoost  float64 `yaml:"max_boost"`
}

// AdaptiveConfig tunes the adaptive strategy downgrade.
type AdaptiveConfig struct {
	// TimeoutTripCount is how many consecutive timeouts downgrade to the
	// fallback strategy.
	TimeoutTripCount int `yaml:"timeout_trip_count"`
	// RecoveryProbeEvery routes every Nth downgraded request through the
	// hybrid path; a clean probe restores hybrid.
	RecoveryProbeEvery int `yaml:"recovery_probe_every"`
}

// FilterPhrase maps a recognized phrase to dimension constraints.
type FilterPhrase struct {
	Phrase      string          `yaml:"phrase"`
	Confidence  float64         `yaml:"confidence"`
	Constraints []ConstraintDef `yaml:"constraints"`
}

// ConstraintDef is one dimension constraint of a filter phrase.
// Threshold 0 means "use the configured high/low cut".
type ConstraintDef struct {
	Dimension string  `yaml:"dimension"`
	Level     string  `yaml:"level"` // low, high
	Threshold float64 `yaml:"threshold"`
}

// ProfileDefinition declares one scoring profile. Declaration order is
// the detection tie-break order.
type ProfileDefinition struct {
	ID         string             `yaml:"id"`
	Weights    map[string]float64 `yaml:"weights"` // semantic_similarity, dimension_alignment, recency_score, confidence_score
	Dimensions map[string]float64 `yaml:"dimensions"`
	Patterns   []string           `yaml:"patterns"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "dimrank:"
	}
	c.Ranking.applyDefaults()
}

func (r *RankingConfig) applyDefaults() {
	if r.EnableDimensionRanking == nil {
		r.EnableDimensionRanking = boolPtr(true)
	}
	if r.EnableFilterParsing == nil {
		r.EnableFilterParsing = boolPtr(true)
	}
	if r.EnableFallback == nil {
		r.EnableFallback = boolPtr(true)
	}
	if r.DefaultStrategy == "" {
		r.DefaultStrategy = string(domain.StrategyHybrid)
	}
	if r.FallbackStrategy == "" {
		r.FallbackStrategy = string(domain.StrategyVectorOnly)
	}
	if r.MaxCandidatesMultiplier <= 0 {
		r.MaxCandidatesMultiplier = 3
	}
	if r.MinCandidates <= 0 {
		r.MinCandidates = 20
	}
	if r.MaxProcessingTimeMs <= 0 {
		r.MaxProcessingTimeMs = 100
	}
	if r.ConfidenceThreshold <= 0 {
		r.ConfidenceThreshold = 0.6
	}
	if r.ProfileConfidenceThreshold <= 0 {
		r.ProfileConfidenceThreshold = 0.7
	}
	if r.FilterStrength <= 0 {
		r.FilterStrength = 0.5
	}
	if r.HighThreshold <= 0 {
		r.HighThreshold = 0.5
	}
	if r.LowThreshold <= 0 {
		r.LowThreshold = 0.5
	}
	if r.CacheSize == 0 {
		r.CacheSize = 10000
	}
	if r.CacheTTLSec <= 0 {
		r.CacheTTLSec = 300
	}
	if r.QueryCacheSize == 0 {
		r.QueryCacheSize = 1000
	}
	if r.Alignment.Method == "" {
		r.Alignment.Method = string(domain.AlignMin)
	}
	if r.Alignment.Normalization == "" {
		r.Alignment.Normalization = string(domain.NormTotalWeight)
	}
	if r.Alignment.ConfidenceBoost.Threshold <= 0 {
		r.Alignment.ConfidenceBoost.Threshold = 0.8
	}
	if r.Alignment.ConfidenceBoost.MaxBoost <= 0 {
		r.Alignment.ConfidenceBoost.MaxBoost = 0.1
	}
	if r.Alignment.SameProfileBonus <= 0 {
		r.Alignment.SameProfileBonus = 0.05
	}
	// CrossProfilePenalty defaults to 0: no penalty.
	if r.Adaptive.TimeoutTripCount <= 0 {
		r.Adaptive.TimeoutTripCount = 3
	}
	if r.Adaptive.RecoveryProbeEvery <= 0 {
		r.Adaptive.RecoveryProbeEvery = 5
	}
	if len(r.Filters) == 0 {
		r.Filters = DefaultFilters()
	}
	if len(r.Profiles) == 0 {
		r.Profiles = DefaultProfiles()
	}
}

// Validate checks the configuration for correctness. Profile weight sums
// and multiplier positivity are validated again at registry load; the
// checks here fail fast on structural mistakes.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	return c.Ranking.Validate()
}

// Validate checks the ranking section.
func (r *RankingConfig) Validate() error {
	if !domain.Strategy(r.DefaultStrategy).IsValid() {
		return fmt.Errorf("ranking.default_strategy %q is not one of vector_only, dimension_only, hybrid, adaptive", r.DefaultStrategy)
	}
	fb := domain.Strategy(r.FallbackStrategy)
	if !fb.IsValid() || fb == domain.StrategyAdaptive {
		return fmt.Errorf("ranking.fallback_strategy %q must be a non-adaptive strategy", r.FallbackStrategy)
	}
	if !domain.AlignmentMethod(r.Alignment.Method).IsValid() {
		return fmt.Errorf("ranking.alignment.method %q is not one of min, max, average, weighted_average", r.Alignment.Method)
	}
	if !domain.Normalization(r.Alignment.Normalization).IsValid() {
		return fmt.Errorf("ranking.alignment.normalization %q is not one of none, total_weight, max_weight", r.Alignment.Normalization)
	}

	unit := func(name string, v float64) error {
		if v < 0 || v > 1 {
			return fmt.Errorf("ranking.%s must be within [0,1], got %v", name, v)
		}
		return nil
	}
	checks := []struct {
		name string
		v    float64
	}{
		{"confidence_threshold", r.ConfidenceThreshold},
		{"profile_confidence_threshold", r.ProfileConfidenceThreshold},
		{"filter_strength", r.FilterStrength},
		{"high_threshold", r.HighThreshold},
		{"low_threshold", r.LowThreshold},
		{"alignment.confidence_boost.threshold", r.Alignment.ConfidenceBoost.Threshold},
		{"alignment.confidence_boost.max_boost", r.Alignment.ConfidenceBoost.MaxBoost},
		{"alignment.same_profile_bonus", r.Alignment.SameProfileBonus},
		{"alignment.cross_profile_penalty", r.Alignment.CrossProfilePenalty},
	}
	for _, ch := range checks {
		if err := unit(ch.name, ch.v); err != nil {
			return err
		}
	}

	for i, f := range r.Filters {
		if f.Phrase == "" {
			return fmt.Errorf("ranking.filters[%d].phrase is required", i)
		}
		if err := unit(fmt.Sprintf("filters[%d].confidence", i), f.Confidence); err != nil {
			return err
		}
		for j, cd := range f.Constraints {
			if cd.Dimension == "" {
				return fmt.Errorf("ranking.filters[%d].constraints[%d].dimension is required", i, j)
			}
			if !domain.ConstraintLevel(cd.Level).IsValid() {
				return fmt.Errorf("ranking.filters[%d].constraints[%d].level %q must be low or high", i, j, cd.Level)
			}
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

func boolPtr(b bool) *bool { return &b }
