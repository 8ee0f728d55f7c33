package coverage

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridiron-data/warehouse-cli/internal/model"
	"github.com/gridiron-data/warehouse-cli/internal/selector"
)

func entry(date model.Date, status model.Status, rows int64, coverage ...int) model.RegistryEntry {
	e := model.RegistryEntry{
		Manifest: model.Manifest{
			Source:       "statsinc",
			Dataset:      "weekly_stats",
			SnapshotDate: date,
			RowCount:     rows,
		},
		Status: status,
	}
	if len(coverage) == 2 {
		e.CoverageStart = &coverage[0]
		e.CoverageEnd = &coverage[1]
	}
	return e
}

func TestDetectGapsFindsDroppedPeriods(t *testing.T) {
	// History once covered 2020-2025 but the current snapshot starts at 2022:
	// under latest_only the three early seasons are unreadable.
	entries := []model.RegistryEntry{
		entry(model.NewDate(2025, time.August, 1), model.StatusArchived, 1000, 2020, 2024),
		entry(model.NewDate(2025, time.September, 7), model.StatusCurrent, 900, 2022, 2025),
	}

	gap, err := DetectGaps(entries, selector.LatestOnly, selector.Params{})
	require.NoError(t, err)
	require.NotNil(t, gap)
	assert.Equal(t, "statsinc", gap.Source)
	assert.Equal(t, []int{2020, 2021}, gap.MissingPeriods)
}

func TestDetectGapsNoGap(t *testing.T) {
	entries := []model.RegistryEntry{
		entry(model.NewDate(2025, time.August, 1), model.StatusArchived, 1000, 2022, 2024),
		entry(model.NewDate(2025, time.September, 7), model.StatusCurrent, 1100, 2020, 2025),
	}

	gap, err := DetectGaps(entries, selector.LatestOnly, selector.Params{})
	require.NoError(t, err)
	assert.Nil(t, gap)
}

func TestDetectGapsBaselineStrategyCoversSkippedPartitions(t *testing.T) {
	// Intermediate partitions are deliberately unselected under
	// baseline_plus_latest; their periods count as covered when the baseline
	// or latest snapshot spans them.
	baseline := model.NewDate(2025, time.August, 1)
	entries := []model.RegistryEntry{
		entry(baseline, model.StatusHistorical, 500, 2020, 2022),
		entry(model.NewDate(2025, time.August, 15), model.StatusArchived, 700, 2020, 2023),
		entry(model.NewDate(2025, time.September, 7), model.StatusCurrent, 900, 2022, 2025),
	}

	gap, err := DetectGaps(entries, selector.BaselinePlusLatest, selector.Params{BaselineDate: baseline})
	require.NoError(t, err)
	assert.Nil(t, gap)
}

func TestDetectGapsEmptyHistory(t *testing.T) {
	gap, err := DetectGaps(nil, selector.LatestOnly, selector.Params{})
	require.NoError(t, err)
	assert.Nil(t, gap)
}

func TestDetectGapsIgnoresEntriesWithoutCoverage(t *testing.T) {
	entries := []model.RegistryEntry{
		entry(model.NewDate(2025, time.August, 1), model.StatusArchived, 1000),
		entry(model.NewDate(2025, time.September, 7), model.StatusCurrent, 900),
	}

	gap, err := DetectGaps(entries, selector.LatestOnly, selector.Params{})
	require.NoError(t, err)
	assert.Nil(t, gap)
}

func TestDetectRowDeltas(t *testing.T) {
	tests := []struct {
		name     string
		oldRows  int64
		newRows  int64
		expected int
		delta    float64
	}{
		{name: "small growth passes", oldRows: 1000, newRows: 1200, expected: 0},
		{name: "large drop flagged", oldRows: 1000, newRows: 500, expected: 1, delta: -0.5},
		{name: "large growth flagged", oldRows: 1000, newRows: 1400, expected: 1, delta: 0.4},
		{name: "exactly at threshold passes", oldRows: 1000, newRows: 1300, expected: 0},
		{name: "zero to nonzero is infinite", oldRows: 0, newRows: 100, expected: 1, delta: math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := []model.RegistryEntry{
				entry(model.NewDate(2025, time.September, 1), model.StatusHistorical, tt.oldRows),
				entry(model.NewDate(2025, time.September, 7), model.StatusCurrent, tt.newRows),
			}

			deltas := DetectRowDeltas(entries, 0.30)
			require.Len(t, deltas, tt.expected)
			if tt.expected == 1 {
				assert.Equal(t, tt.delta, deltas[0].Delta)
				assert.Equal(t, tt.oldRows, deltas[0].OldRows)
				assert.Equal(t, tt.newRows, deltas[0].NewRows)
			}
		})
	}
}

func TestDetectRowDeltasSkipsUnpromotedEntries(t *testing.T) {
	// Pending and archived entries are not part of the promoted lineage.
	entries := []model.RegistryEntry{
		entry(model.NewDate(2025, time.September, 1), model.StatusHistorical, 1000),
		entry(model.NewDate(2025, time.September, 4), model.StatusPending, 10),
		entry(model.NewDate(2025, time.September, 7), model.StatusCurrent, 1000),
	}

	assert.Empty(t, DetectRowDeltas(entries, 0.30))
}

func TestDetectRowDeltasBothZero(t *testing.T) {
	entries := []model.RegistryEntry{
		entry(model.NewDate(2025, time.September, 1), model.StatusHistorical, 0),
		entry(model.NewDate(2025, time.September, 7), model.StatusCurrent, 0),
	}

	assert.Empty(t, DetectRowDeltas(entries, 0.30))
}
