// Package freshness classifies registry entries by snapshot age against
// per-source thresholds.
package freshness

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/gridiron-data/warehouse-cli/internal/config"
	"github.com/gridiron-data/warehouse-cli/internal/model"
)

// Class is a freshness classification.
type Class string

const (
	Fresh      Class = "fresh"
	StaleWarn  Class = "stale-warn"
	StaleError Class = "stale-error"
)

// rank orders classes from freshest to stalest, for monotonicity checks and
// worst-of reporting.
func (c Class) rank() int {
	switch c {
	case Fresh:
		return 0
	case StaleWarn:
		return 1
	default:
		return 2
	}
}

// WorseThan reports whether c is a staler classification than other.
func (c Class) WorseThan(other Class) bool { return c.rank() > other.rank() }

// Evaluator classifies snapshot age. It is a pure function of
// (clock.Now(), entry, thresholds); tests pin the clock.
type Evaluator struct {
	clock clockwork.Clock
	cfg   config.FreshnessConfig
}

// NewEvaluator creates a freshness evaluator.
func NewEvaluator(cfg config.FreshnessConfig, clock clockwork.Clock) *Evaluator {
	return &Evaluator{clock: clock, cfg: cfg}
}

// Thresholds returns the per-source thresholds, falling back to the default
// block. Thresholds are per-source because provider cadence varies by an
// order of magnitude.
func (e *Evaluator) Thresholds(source string) config.SourceThresholds {
	if t, ok := e.cfg.Sources[source]; ok {
		return t
	}
	return e.cfg.Default
}

// Age returns how old the entry's snapshot is right now.
func (e *Evaluator) Age(entry model.RegistryEntry) time.Duration {
	return e.clock.Now().UTC().Sub(entry.SnapshotDate.Time())
}

// Classify returns fresh, stale-warn, or stale-error for the entry.
func (e *Evaluator) Classify(entry model.RegistryEntry) Class {
	t := e.Thresholds(entry.Source)
	age := e.Age(entry)
	switch {
	case t.ErrorAfter() > 0 && age >= t.ErrorAfter():
		return StaleError
	case t.WarnAfter() > 0 && age >= t.WarnAfter():
		return StaleWarn
	default:
		return Fresh
	}
}
