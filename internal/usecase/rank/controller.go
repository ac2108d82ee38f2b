package rank

import (
	"sync"

	"go.uber.org/zap"

	"github.com/kognita/dimrank/internal/config"
	"github.com/kognita/dimrank/internal/domain"
)

// Controller implements the adaptive strategy: after tripCount
// consecutive hybrid timeouts it downgrades to the fallback strategy,
// then routes every probeEvery-th request back through hybrid; one
// clean probe restores hybrid for everyone.
//
// Non-adaptive strategies pass through untouched. The controller is
// shared by concurrent queries; its state is a handful of counters
// behind one mutex, held only for the decision, never during scoring.
type Controller struct {
	enabled    bool
	fallback   domain.Strategy
	tripCount  int
	probeEvery int
	logger     *zap.Logger

	mu                  sync.Mutex
	consecutiveTimeouts int
	downgraded          bool
	sinceDowngrade      int
}

// NewController creates a fallback controller from the ranking
// configuration. The configuration is assumed validated.
func NewController(cfg config.RankingConfig, logger *zap.Logger) *Controller {
	return &Controller{
		enabled:    cfg.EnableFallback == nil || *cfg.EnableFallback,
		fallback:   domain.Strategy(cfg.FallbackStrategy),
		tripCount:  cfg.Adaptive.TimeoutTripCount,
		probeEvery: cfg.Adaptive.RecoveryProbeEvery,
		logger:     logger,
	}
}

// Decide resolves the strategy for one request. For the adaptive
// strategy it returns hybrid while healthy, the fallback strategy
// while downgraded, and hybrid again on probe requests.
func (c *Controller) Decide(configured domain.Strategy) domain.Strategy {
	if configured != domain.StrategyAdaptive {
		return configured
	}
	if !c.enabled {
		return domain.StrategyHybrid
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.downgraded {
		return domain.StrategyHybrid
	}
	c.sinceDowngrade++
	if c.probeEvery > 0 && c.sinceDowngrade%c.probeEvery == 0 {
		return domain.StrategyHybrid
	}
	return c.fallback
}

// Downgraded reports whether adaptive ranking is currently serving the
// fallback strategy.
func (c *Controller) Downgraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.downgraded
}

// Observe records the outcome of a hybrid run. Outcomes of the
// fallback strategy carry no health signal and are ignored.
func (c *Controller) Observe(ran domain.Strategy, timedOut bool) {
	if !c.enabled || ran != domain.StrategyHybrid {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !timedOut {
		if c.downgraded {
			c.logger.Info("adaptive ranking recovered, restoring hybrid strategy")
		}
		c.consecutiveTimeouts = 0
		c.downgraded = false
		c.sinceDowngrade = 0
		return
	}

	c.consecutiveTimeouts++
	if !c.downgraded && c.consecutiveTimeouts >= c.tripCount {
		c.downgraded = true
		c.sinceDowngrade = 0
		c.logger.Warn("adaptive ranking downgraded after consecutive timeouts",
			zap.Int("timeouts", c.consecutiveTimeouts),
			zap.String("fallback_strategy", string(c.fallback)))
	}
}
