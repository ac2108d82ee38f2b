// Package rank implements the composite ranking pipeline: profile
// resolution, constraint parsing, candidate fetch, parallel dimension
// scoring under a wall-clock budget, and final blending.
package rank

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kognita/dimrank/internal/cache"
	"github.com/kognita/dimrank/internal/config"
	"github.com/kognita/dimrank/internal/domain"
	"github.com/kognita/dimrank/internal/metrics"
)

// scoreWorkers bounds per-query scoring parallelism.
const scoreWorkers = 8

// alignResult is a cached alignment computation.
type alignResult struct {
	score       float64
	explanation string
}

// Service executes rank calls. Safe for concurrent use: all mutable
// shared state lives in the score cache and the fallback controller.
type Service struct {
	embed    domain.Embedder
	index    CandidateIndex
	chunks   ChunkStore
	profiles ProfileSource
	detector ProfileDetector
	parser   ConstraintParser
	aligner  Aligner
	control  *Controller
	cache    *cache.TTL[alignResult]
	logger   *zap.Logger

	strategy       domain.Strategy
	rankingEnabled bool
	multiplier     int
	minCandidates  int
	budget         time.Duration

	now func() time.Time // test hook
}

// New creates a rank service. The configuration is assumed validated.
func New(
	cfg config.RankingConfig,
	embed domain.Embedder,
	index CandidateIndex,
	chunks ChunkStore,
	profiles ProfileSource,
	detector ProfileDetector,
	parser ConstraintParser,
	aligner Aligner,
	control *Controller,
	logger *zap.Logger,
) *Service {
	return &Service{
		embed:          embed,
		index:          index,
		chunks:         chunks,
		profiles:       profiles,
		detector:       detector,
		parser:         parser,
		aligner:        aligner,
		control:        control,
		cache:          cache.NewTTL[alignResult](cfg.CacheSize, time.Duration(cfg.CacheTTLSec)*time.Second),
		logger:         logger,
		strategy:       domain.Strategy(cfg.DefaultStrategy),
		rankingEnabled: cfg.EnableDimensionRanking == nil || *cfg.EnableDimensionRanking,
		multiplier:     cfg.MaxCandidatesMultiplier,
		minCandidates:  cfg.MinCandidates,
		budget:         time.Duration(cfg.MaxProcessingTimeMs) * time.Millisecond,
		now:            time.Now,
	}
}

// Rank executes one rank call and returns an ordered, truncated result.
// A processing timeout degrades the result instead of failing it; only
// upstream fetch failures surface as errors.
func (s *Service) Rank(ctx context.Context, req domain.RankRequest) (domain.RankResult, error) {
	start := s.now()
	strategy := s.resolveStrategy()

	var (
		res domain.RankResult
		err error
	)
	if strategy == domain.StrategyVectorOnly {
		res, err = s.rankVectorOnly(ctx, req)
	} else {
		res, err = s.rankDimensional(ctx, req, strategy)
	}

	status := "ok"
	switch {
	case err != nil:
		status = "error"
	case res.Degraded:
		status = "degraded"
	}
	metrics.RankRequestsTotal.WithLabelValues(string(strategy), status).Inc()
	metrics.RankDuration.WithLabelValues(string(strategy)).Observe(s.now().Sub(start).Seconds())
	return res, err
}

// resolveStrategy picks the strategy for this call. Disabled dimension
// ranking forces the similarity-only path regardless of configuration.
func (s *Service) resolveStrategy() domain.Strategy {
	if !s.rankingEnabled {
		return domain.StrategyVectorOnly
	}
	return s.control.Decide(s.strategy)
}

// rankVectorOnly is the fallback path: similarity ordering straight
// from the index, no dimension scoring, exactly count candidates.
func (s *Service) rankVectorOnly(ctx context.Context, req domain.RankRequest) (domain.RankResult, error) {
	metrics.RankFallbacksTotal.Inc()
	profile := s.resolveProfile(req)

	emb, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return domain.RankResult{}, fmt.Errorf("%w: embed query: %w", domain.ErrCandidateFetch, err)
	}
	hits, err := s.index.FetchCandidates(ctx, emb.Embedding, req.Count())
	if err != nil {
		return domain.RankResult{}, fmt.Errorf("%w: %w", domain.ErrCandidateFetch, err)
	}
	metrics.CandidatesFetched.Observe(float64(len(hits)))

	chunks := s.fetchChunks(ctx, hits)
	results := make([]domain.ScoredCandidate, len(hits))
	for i, hit := range hits {
		chunk := chunks[hit.ChunkID]
		chunk.ID = hit.ChunkID
		chunk.Similarity = hit.Similarity
		results[i] = domain.ScoredCandidate{
			Chunk:       chunk,
			Similarity:  hit.Similarity,
			Recency:     chunk.Recency,
			Confidence:  chunk.Confidence,
			Profile:     chunk.Profile,
			Score:       hit.Similarity,
			Explanation: "similarity only",
		}
	}
	return domain.RankResult{
		Results:     results,
		ProfileUsed: profile.ID(),
		Degraded:    true,
	}, nil
}

// rankDimensional is the full pipeline for the hybrid and
// dimension_only strategies.
func (s *Service) rankDimensional(ctx context.Context, req domain.RankRequest, strategy domain.Strategy) (domain.RankResult, error) {
	profile := s.resolveProfile(req)
	parsed := s.parser.Parse(req.Query())
	constraints := parsed.Constraints

	emb, err := s.embed.Embed(ctx, parsed.CleanQuery)
	if err != nil {
		return domain.RankResult{}, fmt.Errorf("%w: embed query: %w", domain.ErrCandidateFetch, err)
	}

	fetchCount := req.Count() * s.multiplier
	if fetchCount < s.minCandidates {
		fetchCount = s.minCandidates
	}
	hits, err := s.index.FetchCandidates(ctx, emb.Embedding, fetchCount)
	if err != nil {
		return domain.RankResult{}, fmt.Errorf("%w: %w", domain.ErrCandidateFetch, err)
	}
	metrics.CandidatesFetched.Observe(float64(len(hits)))
	if len(hits) == 0 {
		s.control.Observe(strategy, false)
		return domain.RankResult{
			ProfileUsed:     profile.ID(),
			Intent:          parsed.Intent,
			ParseConfidence: parsed.Confidence,
		}, nil
	}

	degraded := false
	chunks, chunkErr := s.chunks.GetChunks(ctx, hitIDs(hits))
	if chunkErr != nil {
		// No metadata means no dimension factors; similarity still ranks.
		s.logger.Warn("chunk metadata fetch failed, scoring on similarity alone",
			zap.Error(chunkErr))
		chunks = nil
		degraded = true
	}

	weights := profile.Weights()
	if strategy == domain.StrategyDimensionOnly {
		weights = weights.WithoutSimilarity()
	}

	// The budget clock starts after the candidate fetch; scoring is the
	// only phase it gates.
	deadline := s.now().Add(s.budget)

	// Alignment depends on the constraints parsed from the raw query, so
	// the cache key must too. Two queries that clean to the same text can
	// still carry different constraint sets.
	fp := domain.Fingerprint(req.Query())

	var timedOut atomic.Bool
	results := make([]domain.ScoredCandidate, len(hits))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(scoreWorkers)
	for i, hit := range hits {
		i, hit := i, hit
		g.Go(func() error {
			chunk, known := chunks[hit.ChunkID]
			chunk.ID = hit.ChunkID
			chunk.Similarity = hit.Similarity
			sc := domain.ScoredCandidate{
				Chunk:      chunk,
				Similarity: hit.Similarity,
				Recency:    chunk.Recency,
				Confidence: chunk.Confidence,
				Profile:    chunk.Profile,
			}
			if !s.now().Before(deadline) {
				timedOut.Store(true)
			}
			if known && !timedOut.Load() {
				sc.Alignment, sc.Explanation = s.alignment(fp, chunk, profile, constraints)
			}
			sc.Score = weights.Similarity*sc.Similarity +
				weights.Alignment*sc.Alignment +
				weights.Recency*sc.Recency +
				weights.Confidence*sc.Confidence
			results[i] = sc
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	if timedOut.Load() {
		metrics.RankTimeoutsTotal.Inc()
		degraded = true
		s.logger.Warn("processing budget exceeded, remaining candidates unscored",
			zap.Duration("budget", s.budget),
			zap.Int("candidates", len(hits)))
	}
	s.control.Observe(strategy, timedOut.Load())

	// Stable sort: ties keep the original similarity order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > req.Count() {
		results = results[:req.Count()]
	}
	return domain.RankResult{
		Results:         results,
		ProfileUsed:     profile.ID(),
		Degraded:        degraded,
		Intent:          parsed.Intent,
		ParseConfidence: parsed.Confidence,
	}, nil
}

// resolveProfile applies the explicit override or runs detection. An
// unknown override falls back to the default profile, logged, not fatal.
func (s *Service) resolveProfile(req domain.RankRequest) domain.Profile {
	if id := req.ProfileOverride(); id != "" {
		p, err := s.profiles.Get(id)
		if err != nil {
			s.logger.Warn("unknown profile override, using default",
				zap.String("profile", id))
			return s.profiles.Default()
		}
		return p
	}
	p, confidence := s.detector.Detect(req.Query())
	s.logger.Debug("profile detected",
		zap.String("profile", p.ID()),
		zap.Float64("confidence", confidence))
	return p
}

// alignment returns the cached alignment for (query, chunk, profile) or
// computes and caches it. A nil cache recomputes every call.
func (s *Service) alignment(fp string, chunk domain.Chunk, profile domain.Profile, constraints []domain.FilterConstraint) (float64, string) {
	key := fp + "|" + chunk.ID + "|" + profile.ID()
	if r, ok := s.cache.Get(key); ok {
		metrics.AlignmentCacheTotal.WithLabelValues("hit").Inc()
		return r.score, r.explanation
	}
	metrics.AlignmentCacheTotal.WithLabelValues("miss").Inc()

	score, explanation := s.aligner.Compute(chunk, profile, constraints)
	s.cache.Set(key, alignResult{score: score, explanation: explanation})
	return score, explanation
}

// fetchChunks loads chunk metadata for the fallback path, tolerating
// storage failure since similarity alone is enough there.
func (s *Service) fetchChunks(ctx context.Context, hits []domain.SimilarityHit) map[string]domain.Chunk {
	if len(hits) == 0 {
		return nil
	}
	chunks, err := s.chunks.GetChunks(ctx, hitIDs(hits))
	if err != nil {
		s.logger.Warn("chunk metadata fetch failed on fallback path", zap.Error(err))
		return nil
	}
	return chunks
}

func hitIDs(hits []domain.SimilarityHit) []string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ChunkID
	}
	return ids
}
