package domain

import "errors"

var (
	// ErrInvalidConfig signals invalid profile weights or multipliers. Fatal at load.
	ErrInvalidConfig = errors.New("invalid ranking configuration")
	// ErrUnknownProfile signals an explicit override referencing a nonexistent profile.
	ErrUnknownProfile = errors.New("unknown profile")
	// ErrCandidateFetch signals a similarity-index failure. Propagated to the caller.
	ErrCandidateFetch = errors.New("candidate fetch failed")
	// ErrInvalidRequest signals malformed rank parameters.
	ErrInvalidRequest = errors.New("invalid rank request")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
