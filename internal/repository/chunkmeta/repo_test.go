package chunkmeta

import (
	"context"
	"errors"
	"testing"

	"github.com/kognita/dimrank/internal/domain"
)

type mockStore struct {
	hashes   []map[string]string
	err      error
	lastKeys []string
}

func (m *mockStore) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	m.lastKeys = keys
	return m.hashes, m.err
}

func TestGetChunks(t *testing.T) {
	ms := &mockStore{hashes: []map[string]string{
		{
			"content":             "go concurrency patterns",
			"recency":             "0.8",
			"confidence":          "0.9",
			"profile":             "researcher",
			"dim:novelty":         "0.7",
			"dimconf:novelty":     "0.85",
			"dim:technical_depth": "0.6",
		},
		{
			"content": "stale entry",
			"recency": "0.1",
		},
	}}
	repo := New(ms, "dimrank:")

	chunks, err := repo.GetChunks(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ms.lastKeys) != 2 || ms.lastKeys[0] != "dimrank:chunk:a" {
		t.Errorf("keys = %v", ms.lastKeys)
	}

	a := chunks["a"]
	if a.Content != "go concurrency patterns" || a.Recency != 0.8 || a.Confidence != 0.9 {
		t.Errorf("chunk a = %+v", a)
	}
	if a.Profile != "researcher" {
		t.Errorf("profile = %q", a.Profile)
	}
	if got := a.Dimensions["novelty"]; got != (domain.DimensionScore{Value: 0.7, Confidence: 0.85}) {
		t.Errorf("novelty = %+v", got)
	}
	// technical_depth has a value but no reported confidence.
	if got := a.Dimensions["technical_depth"]; got != (domain.DimensionScore{Value: 0.6}) {
		t.Errorf("technical_depth = %+v", got)
	}

	b := chunks["b"]
	if b.Recency != 0.1 || len(b.Dimensions) != 0 {
		t.Errorf("chunk b = %+v", b)
	}
}

func TestGetChunks_MissingChunkOmitted(t *testing.T) {
	ms := &mockStore{hashes: []map[string]string{
		{"content": "found"},
		{}, // HGETALL on a missing key returns an empty hash
	}}
	repo := New(ms, "dimrank:")

	chunks, err := repo.GetChunks(context.Background(), []string{"a", "gone"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if _, ok := chunks["gone"]; ok {
		t.Error("missing chunk must be absent, not zero-valued")
	}
}

func TestGetChunks_MalformedNumericReadsZero(t *testing.T) {
	ms := &mockStore{hashes: []map[string]string{
		{"recency": "not-a-number", "dim:novelty": "also-bad"},
	}}
	repo := New(ms, "dimrank:")

	chunks, err := repo.GetChunks(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := chunks["a"]
	if a.Recency != 0 {
		t.Errorf("recency = %v, want 0", a.Recency)
	}
	if a.Dimensions["novelty"].Value != 0 {
		t.Errorf("novelty = %v, want 0", a.Dimensions["novelty"].Value)
	}
}

func TestGetChunks_Empty(t *testing.T) {
	repo := New(&mockStore{}, "dimrank:")

	chunks, err := repo.GetChunks(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chunks != nil {
		t.Errorf("chunks = %v, want nil", chunks)
	}
}

func TestGetChunks_StoreError(t *testing.T) {
	repo := New(&mockStore{err: errors.New("down")}, "dimrank:")

	if _, err := repo.GetChunks(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestGetChunks_ReplyCountMismatch(t *testing.T) {
	repo := New(&mockStore{hashes: []map[string]string{{}}}, "dimrank:")

	if _, err := repo.GetChunks(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error on reply count mismatch")
	}
}
