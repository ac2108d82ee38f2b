package dimrank

import (
	"context"
	"errors"
	"testing"

	"github.com/kognita/dimrank/internal/domain"
)

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

func TestNew_NoAddress(t *testing.T) {
	_, err := New(context.Background(), Options{})
	if err == nil {
		t.Fatal("expected error when no address provided")
	}
}

func TestEngineConfig_Defaults(t *testing.T) {
	cfg, err := engineConfig(Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.KeyPrefix != "dimrank:" {
		t.Errorf("key prefix = %q, want dimrank:", cfg.Storage.KeyPrefix)
	}
	if cfg.Ranking.DefaultStrategy != string(domain.StrategyHybrid) {
		t.Errorf("strategy = %q, want hybrid", cfg.Ranking.DefaultStrategy)
	}
	if len(cfg.Ranking.Profiles) == 0 {
		t.Error("expected default profiles to be loaded")
	}
}

func TestEngineConfig_StrategyOverride(t *testing.T) {
	cfg, err := engineConfig(Options{Strategy: string(domain.StrategyAdaptive)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Ranking.DefaultStrategy != string(domain.StrategyAdaptive) {
		t.Errorf("strategy = %q, want adaptive", cfg.Ranking.DefaultStrategy)
	}
}

func TestEngineConfig_InvalidStrategy(t *testing.T) {
	_, err := engineConfig(Options{Strategy: "quantum"})
	if err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestNoopEmbedder(t *testing.T) {
	noop := noopEmbedder{}
	_, err := noop.Embed(context.Background(), "test")
	if err == nil {
		t.Fatal("expected error from noopEmbedder")
	}
}

func TestEmbedderAdapter(t *testing.T) {
	called := false
	mock := &mockEmbedder{
		fn: func(_ context.Context, text string) (EmbeddingResult, error) {
			called = true
			return EmbeddingResult{
				Embedding:    []float32{1, 2, 3},
				PromptTokens: 5,
				TotalTokens:  10,
			}, nil
		},
	}

	adapter := &embedderAdapter{inner: mock}
	result, err := adapter.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("inner embedder was not called")
	}
	if len(result.Embedding) != 3 {
		t.Errorf("embedding len = %d, want 3", len(result.Embedding))
	}
	if result.TotalTokens != 10 {
		t.Errorf("total tokens = %d, want 10", result.TotalTokens)
	}
}

func TestEmbedderAdapter_Error(t *testing.T) {
	mock := &mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			return EmbeddingResult{}, errors.New("provider down")
		},
	}

	adapter := &embedderAdapter{inner: mock}
	_, err := adapter.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error from adapter")
	}
}

func TestRankOptions(t *testing.T) {
	var rc rankConfig
	WithCount(5)(&rc)
	WithProfile("researcher")(&rc)

	if rc.count != 5 {
		t.Errorf("count = %d, want 5", rc.count)
	}
	if rc.profile != "researcher" {
		t.Errorf("profile = %q, want researcher", rc.profile)
	}
}

func TestFromRankResult(t *testing.T) {
	res := fromRankResult(domain.RankResult{
		Results: []domain.ScoredCandidate{
			{
				Chunk:       domain.Chunk{ID: "c1", Content: "routing basics"},
				Similarity:  0.9,
				Alignment:   0.8,
				Recency:     0.4,
				Confidence:  0.7,
				Profile:     "researcher",
				Score:       0.81,
				Explanation: "complexity=0.20",
			},
		},
		ProfileUsed:     "researcher",
		Degraded:        true,
		Intent:          domain.IntentAnalyze,
		ParseConfidence: 0.7,
	})

	if len(res.Results) != 1 {
		t.Fatalf("results len = %d, want 1", len(res.Results))
	}
	c := res.Results[0]
	if c.ID != "c1" || c.Content != "routing basics" {
		t.Errorf("identity: got %q/%q", c.ID, c.Content)
	}
	if c.Score != 0.81 || c.Similarity != 0.9 || c.Alignment != 0.8 {
		t.Errorf("scores: got %v/%v/%v", c.Score, c.Similarity, c.Alignment)
	}
	if res.ProfileUsed != "researcher" {
		t.Errorf("profile used = %q, want researcher", res.ProfileUsed)
	}
	if !res.Degraded {
		t.Error("degraded flag lost in conversion")
	}
	if res.QueryIntent != "analyze" || res.ParseConfidence != 0.7 {
		t.Errorf("parse output: got %q/%v, want analyze/0.7", res.QueryIntent, res.ParseConfidence)
	}
}
