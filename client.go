// Package dimrank embeds the ranking engine as a library: connect to a
// chunk store, detect or pin a scoring profile and rank retrieval
// candidates without running the HTTP server.
package dimrank

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kognita/dimrank/internal/config"
	"github.com/kognita/dimrank/internal/db"
	dbRedis "github.com/kognita/dimrank/internal/db/redis"
	"github.com/kognita/dimrank/internal/domain"
	"github.com/kognita/dimrank/internal/repository/chunkmeta"
	"github.com/kognita/dimrank/internal/repository/embcache"
	"github.com/kognita/dimrank/internal/repository/simindex"
	openaiEmb "github.com/kognita/dimrank/internal/transport/openai"
	alignuc "github.com/kognita/dimrank/internal/usecase/align"
	filteruc "github.com/kognita/dimrank/internal/usecase/filter"
	profileuc "github.com/kognita/dimrank/internal/usecase/profile"
	rankuc "github.com/kognita/dimrank/internal/usecase/rank"
)

const defaultReadinessTimeout = 10 * time.Second

// Embedder turns query text into a vector. Implement it to plug a
// custom provider; leave Options.Embedder nil to use OpenAI.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the query vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Options configures the embedded client. Addrs is required; every
// ranking knob left zero takes the engine default.
type Options struct {
	// Addrs are the chunk store / similarity index addresses.
	Addrs    []string
	Password string
	// KeyPrefix namespaces chunk and cache keys (default "dimrank:").
	KeyPrefix string

	// Strategy overrides the default ranking strategy
	// (vector_only, dimension_only, hybrid, adaptive).
	Strategy string

	// Embedder plugs a custom query vectorizer. When nil the OpenAI
	// fields below are used.
	Embedder Embedder

	OpenAIKey     string
	OpenAIBaseURL string
	Model         string
	Dimensions    int

	// Logger defaults to zap.NewNop().
	Logger *zap.Logger
}

// Client is the dimrank SDK entry point.
type Client struct {
	store    db.Store
	svc      *rankuc.Service
	registry *profileuc.Registry
}

// New creates a Client and connects to the chunk store.
func New(ctx context.Context, opts Options) (*Client, error) {
	if len(opts.Addrs) == 0 {
		return nil, errors.New("dimrank: database address required")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    opts.Addrs,
		Password: opts.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("dimrank: create store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("dimrank: database not ready: %w", err)
	}

	c, err := wireClient(store, opts)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(store db.Store, opts Options) (*Client, error) {
	cfg, err := engineConfig(opts)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var inner domain.Embedder
	switch {
	case opts.Embedder != nil:
		inner = &embedderAdapter{inner: opts.Embedder}
	case opts.OpenAIKey != "":
		inner = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     opts.OpenAIKey,
			BaseURL:    opts.OpenAIBaseURL,
			Model:      opts.Model,
			Dimensions: opts.Dimensions,
			Provider:   "openai",
			Logger:     logger,
		})
	default:
		inner = noopEmbedder{}
	}
	embedder := embcache.New(
		inner, store,
		cfg.Ranking.QueryCacheSize,
		time.Duration(cfg.Ranking.CacheTTLSec)*time.Second,
		cfg.Storage.KeyPrefix,
		nil, // metrics not registered in library mode
		logger,
	)

	registry, err := profileuc.NewRegistry(cfg.Ranking.Profiles)
	if err != nil {
		return nil, fmt.Errorf("dimrank: load profiles: %w", err)
	}
	detector := profileuc.NewDetector(registry, cfg.Ranking.ProfileConfidenceThreshold)

	parser, err := filteruc.NewParser(
		cfg.Ranking.Filters,
		cfg.Ranking.EnableFilterParsing == nil || *cfg.Ranking.EnableFilterParsing,
		cfg.Ranking.ConfidenceThreshold,
	)
	if err != nil {
		return nil, fmt.Errorf("dimrank: build filter parser: %w", err)
	}

	svc := rankuc.New(
		cfg.Ranking,
		embedder,
		simindex.New(store, cfg.Storage.KeyPrefix),
		chunkmeta.New(store, cfg.Storage.KeyPrefix),
		registry,
		detector,
		parser,
		alignuc.NewCalculator(cfg.Ranking),
		rankuc.NewController(cfg.Ranking, logger),
		logger,
	)

	return &Client{store: store, svc: svc, registry: registry}, nil
}

// engineConfig builds a validated engine configuration from Options,
// filling everything else with defaults.
func engineConfig(opts Options) (config.Config, error) {
	cfg := config.Config{}
	cfg.Storage.KeyPrefix = opts.KeyPrefix
	cfg.Ranking.DefaultStrategy = opts.Strategy
	cfg.ApplyDefaults()

	if err := cfg.Ranking.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("dimrank: %w", err)
	}
	return cfg, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks chunk store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Profiles returns the ids of the loaded scoring profiles, in
// declaration order.
func (c *Client) Profiles() []string {
	profiles := c.registry.Profiles()
	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.ID()
	}
	return ids
}

// Rank retrieves and re-scores candidates for a query.
func (c *Client) Rank(ctx context.Context, query string, opts ...RankOption) (Result, error) {
	var rc rankConfig
	for _, o := range opts {
		o(&rc)
	}

	req, err := domain.NewRankRequest(query, rc.count, rc.profile)
	if err != nil {
		return Result{}, fmt.Errorf("rank: %w", err)
	}

	res, err := c.svc.Rank(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("rank: %w", err)
	}
	return fromRankResult(res), nil
}

// Result is the outcome of one rank call.
type Result struct {
	Results         []Candidate
	ProfileUsed     string
	Degraded        bool
	QueryIntent     string
	ParseConfidence float64
}

// Candidate is one ranked chunk with its per-factor scores.
type Candidate struct {
	ID          string
	Content     string
	Score       float64
	Similarity  float64
	Alignment   float64
	Recency     float64
	Confidence  float64
	Profile     string
	Explanation string
}

func fromRankResult(res domain.RankResult) Result {
	results := make([]Candidate, len(res.Results))
	for i, c := range res.Results {
		results[i] = Candidate{
			ID:          c.Chunk.ID,
			Content:     c.Chunk.Content,
			Score:       c.Score,
			Similarity:  c.Similarity,
			Alignment:   c.Alignment,
			Recency:     c.Recency,
			Confidence:  c.Confidence,
			Profile:     c.Profile,
			Explanation: c.Explanation,
		}
	}
	return Result{
		Results:         results,
		ProfileUsed:     res.ProfileUsed,
		Degraded:        res.Degraded,
		QueryIntent:     string(res.Intent),
		ParseConfidence: res.ParseConfidence,
	}
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// noopEmbedder returns an error on Embed call (used when no embedder configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New(
		"dimrank: embedder not configured (set Embedder or OpenAIKey)",
	)
}
