// internal/scoring/engine.go
package scoring

import (
	"strings"
	"time"

	"msme-lender-platform/internal/common/logger"
	"msme-lender-platform/internal/common/metrics"
	"msme-lender-platform/internal/models"
)

// Engine wraps Evaluate with logging and metrics. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	opts   Options
	logger logger.Logger
}

func NewEngine(opts Options, log logger.Logger) *Engine {
	return &Engine{
		opts:   opts.withDefaults(),
		logger: log.WithFields(map[string]interface{}{"component": "scoring"}),
	}
}

func (e *Engine) Options() Options {
	return e.opts
}

func (e *Engine) Evaluate(app models.Application, lenders []models.LenderConfig) Evaluation {
	start := time.Now()
	ev := Evaluate(app, lenders, e.opts)
	metrics.AssignmentDuration.Observe(time.Since(start).Seconds())

	if len(ev.DuplicateIDs) > 0 {
		metrics.DuplicateLenderIDs.Add(float64(len(ev.DuplicateIDs)))
		e.logger.Warn("duplicate lender ids in assignment input", map[string]interface{}{
			"duplicateIds": ev.DuplicateIDs,
			"lenderCount":  len(lenders),
		})
	}

	for _, s := range ev.Skipped {
		if s.Reason == SkipReasonInactive {
			metrics.LendersSkipped.WithLabelValues(SkipReasonInactive).Inc()
			continue
		}
		metrics.LendersSkipped.WithLabelValues(SkipReasonInvalidConfig).Inc()
		e.logger.Warn("lender skipped: invalid configuration", map[string]interface{}{
			"lenderId": s.LenderID,
			"reason":   strings.TrimPrefix(s.Reason, SkipReasonInvalidConfig+": "),
		})
	}

	metrics.OffersComputed.Add(float64(len(ev.Offers)))
	e.logger.Debug("lender assignment computed", map[string]interface{}{
		"lenderCount": len(lenders),
		"offerCount":  len(ev.Offers),
		"durationMs":  time.Since(start).Milliseconds(),
	})
	return ev
}

func (e *Engine) ComputeOffers(app models.Application, lenders []models.LenderConfig) []models.Offer {
	return e.Evaluate(app, lenders).Offers
}
