// Package coverage detects season coverage gaps and anomalous row-count
// deltas across a dataset's registry history. Both checks are advisory
// signals for operators; neither ever blocks registry promotion.
package coverage

import (
	"math"
	"sort"

	"github.com/gridiron-data/warehouse-cli/internal/model"
	"github.com/gridiron-data/warehouse-cli/internal/selector"
)

// DefaultRowDeltaThreshold flags row-count swings beyond +/-30%. Legitimate
// large deltas happen (season start), which is why this reports instead of
// gating.
const DefaultRowDeltaThreshold = 0.30

// Gap reports coverage periods present somewhere in a dataset's history but
// absent from the snapshots its strategy would actually select.
type Gap struct {
	Source         string `json:"source"`
	Dataset        string `json:"dataset"`
	MissingPeriods []int  `json:"missing_periods"`
}

// RowDelta reports an anomalous row-count change between chronologically
// adjacent promoted snapshots of one dataset.
type RowDelta struct {
	Source  string     `json:"source"`
	Dataset string     `json:"dataset"`
	From    model.Date `json:"from"`
	To      model.Date `json:"to"`
	OldRows int64      `json:"old_rows"`
	NewRows int64      `json:"new_rows"`
	Delta   float64    `json:"delta"`
}

// DetectGaps compares the coverage a strategy would select against the
// coverage the dataset has ever declared. Strategy-aware: under
// baseline_plus_latest the intermediate partitions are deliberately skipped
// and their periods are covered by the latest superset snapshot, so they are
// not gaps.
func DetectGaps(entries []model.RegistryEntry, strategy selector.Strategy, params selector.Params) (*Gap, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	selected, err := selector.Select(entries, strategy, params)
	if err != nil {
		return nil, err
	}
	selectedSet := map[string]bool{}
	for _, d := range selected {
		selectedSet[d.String()] = true
	}

	history := map[int]bool{}
	covered := map[int]bool{}
	for _, e := range entries {
		if e.CoverageStart == nil || e.CoverageEnd == nil {
			continue
		}
		for p := *e.CoverageStart; p <= *e.CoverageEnd; p++ {
			history[p] = true
			if selectedSet[e.SnapshotDate.String()] {
				covered[p] = true
			}
		}
	}

	var missing []int
	for p := range history {
		if !covered[p] {
			missing = append(missing, p)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}
	sort.Ints(missing)

	return &Gap{
		Source:         entries[0].Source,
		Dataset:        entries[0].Dataset,
		MissingPeriods: missing,
	}, nil
}

// DetectRowDeltas scans chronologically adjacent current/historical entries
// of one dataset and flags row-count swings beyond the threshold.
func DetectRowDeltas(entries []model.RegistryEntry, threshold float64) []RowDelta {
	if threshold <= 0 {
		threshold = DefaultRowDeltaThreshold
	}

	var promoted []model.RegistryEntry
	for _, e := range entries {
		if e.Status == model.StatusCurrent || e.Status == model.StatusHistorical {
			promoted = append(promoted, e)
		}
	}
	sort.Slice(promoted, func(i, j int) bool {
		return promoted[i].SnapshotDate.Before(promoted[j].SnapshotDate)
	})

	var out []RowDelta
	for i := 1; i < len(promoted); i++ {
		old, cur := promoted[i-1], promoted[i]
		var delta float64
		switch {
		case old.RowCount == 0 && cur.RowCount == 0:
			continue
		case old.RowCount == 0:
			delta = math.Inf(1)
		default:
			delta = float64(cur.RowCount-old.RowCount) / float64(old.RowCount)
		}
		if math.Abs(delta) > threshold {
			out = append(out, RowDelta{
				Source:  cur.Source,
				Dataset: cur.Dataset,
				From:    old.SnapshotDate,
				To:      cur.SnapshotDate,
				OldRows: old.RowCount,
				NewRows: cur.RowCount,
				Delta:   delta,
			})
		}
	}
	return out
}
