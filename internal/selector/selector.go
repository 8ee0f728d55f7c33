// Package selector resolves a dataset's declared selection strategy to the
// concrete set of snapshot partitions a downstream read should scan.
// Downstream transformation never hardcodes dates; this is the only place
// that decides them.
package selector

import (
	"errors"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/gridiron-data/warehouse-cli/internal/model"
)

// Strategy names a snapshot selection policy.
type Strategy string

const (
	// LatestOnly returns the single current snapshot. The default for
	// point-in-time datasets (current roster, current market value), where
	// reading multiple dates would double-count unchanged entities.
	LatestOnly Strategy = "latest_only"

	// BaselinePlusLatest returns exactly the baseline anchor and the
	// current latest. For incrementally-accumulating datasets whose latest
	// snapshot already contains every period back to the baseline; the
	// intermediate partitions are redundant supersets.
	BaselinePlusLatest Strategy = "baseline_plus_latest"

	// All returns every snapshot regardless of status. Backfill and
	// debugging only; reintroduces the duplicate-row risk LatestOnly
	// exists to prevent, so it is never a production default.
	All Strategy = "all"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case LatestOnly, BaselinePlusLatest, All:
		return Strategy(s), nil
	}
	return "", eris.Errorf("unknown selection strategy %q", s)
}

// ErrNoCurrentSnapshot is returned when a strategy needs a current entry and
// none exists. Callers treat this as a hard ingestion gap; the selector
// never silently substitutes an arbitrary entry.
var ErrNoCurrentSnapshot = errors.New("no current snapshot")

// ErrBaselineMissing is returned when the declared baseline date is absent
// from the registry. Substituting the nearest date would silently change
// historical coverage semantics, so the selector fails instead.
var ErrBaselineMissing = errors.New("baseline snapshot missing")

// Params carries strategy parameters.
type Params struct {
	BaselineDate model.Date
}

// Select resolves the strategy over one dataset's registry entries to an
// ordered list of snapshot dates. Pure and idempotent: unchanged entries in,
// identical output out.
func Select(entries []model.RegistryEntry, strategy Strategy, params Params) ([]model.Date, error) {
	switch strategy {
	case LatestOnly:
		cur, err := currentLatest(entries)
		if err != nil {
			return nil, err
		}
		return []model.Date{cur}, nil

	case BaselinePlusLatest:
		if params.BaselineDate.IsZero() {
			return nil, eris.New("baseline_plus_latest requires a baseline date")
		}
		cur, err := currentLatest(entries)
		if err != nil {
			return nil, err
		}
		found := false
		for _, e := range entries {
			if e.SnapshotDate.Equal(params.BaselineDate) {
				found = true
				break
			}
		}
		if !found {
			return nil, eris.Wrapf(ErrBaselineMissing, "%s", params.BaselineDate)
		}
		if cur.Equal(params.BaselineDate) {
			return []model.Date{cur}, nil
		}
		return []model.Date{params.BaselineDate, cur}, nil

	case All:
		dates := make([]model.Date, 0, len(entries))
		for _, e := range entries {
			dates = append(dates, e.SnapshotDate)
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		return dates, nil

	default:
		return nil, eris.Errorf("unknown selection strategy %q", strategy)
	}
}

// currentLatest returns the maximum snapshot date among current entries.
// The registry guarantees at most one current per dataset, but the selector
// takes the maximum anyway rather than trusting the caller to pass a
// single-dataset slice with a clean history.
func currentLatest(entries []model.RegistryEntry) (model.Date, error) {
	var best model.Date
	for _, e := range entries {
		if e.Status != model.StatusCurrent {
			continue
		}
		if best.IsZero() || e.SnapshotDate.After(best) {
			best = e.SnapshotDate
		}
	}
	if best.IsZero() {
		return model.Date{}, ErrNoCurrentSnapshot
	}
	return best, nil
}
