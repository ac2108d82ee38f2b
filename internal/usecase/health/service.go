// Package health aggregates component health checks for the HTTP
// health endpoint.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure or downgraded ranking.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckDegraded indicates the component works in a reduced mode.
	CheckDegraded CheckResult = "degraded"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
	ranking   RankingReporter
}

// New creates a Service. embedding and ranking can be nil.
func New(db DBPinger, embedding EmbeddingChecker, ranking RankingReporter) *Service {
	return &Service{db: db, embedding: embedding, ranking: ranking}
}

// Check runs health checks against all components. A downgraded
// ranking engine degrades the report without marking any check failed:
// the service still answers queries, just on the fallback path.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	if s.ranking != nil {
		if s.ranking.Downgraded() {
			checks["ranking"] = CheckDegraded
		} else {
			checks["ranking"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v != CheckOK {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
