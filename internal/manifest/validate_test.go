package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridiron-data/warehouse-cli/internal/config"
	"github.com/gridiron-data/warehouse-cli/internal/model"
)

func testCatalog() *config.Catalog {
	return &config.Catalog{Datasets: []config.DatasetSpec{
		{Source: "statsinc", Dataset: "weekly_stats", Strategy: "latest_only"},
		{Source: "liveodds", Dataset: "game_lines", Strategy: "latest_only"},
	}}
}

func testValidator() *Validator {
	now := time.Date(2025, time.September, 10, 12, 0, 0, 0, time.UTC)
	return NewValidator(testCatalog(), clockwork.NewFakeClockAt(now))
}

func validManifest() model.Manifest {
	m := testManifest()
	return *m
}

func TestValidateAccepts(t *testing.T) {
	f := testValidator().Validate(validManifest())
	assert.True(t, f.Valid(), "reasons: %v", f.Reasons)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Manifest)
		reason string
	}{
		{
			name:   "missing source",
			mutate: func(m *model.Manifest) { m.Source = "" },
			reason: "source is required",
		},
		{
			name:   "missing dataset",
			mutate: func(m *model.Manifest) { m.Dataset = "" },
			reason: "dataset is required",
		},
		{
			name:   "unknown dataset",
			mutate: func(m *model.Manifest) { m.Dataset = "weekly_statz" },
			reason: "not in catalog",
		},
		{
			name:   "missing snapshot date",
			mutate: func(m *model.Manifest) { m.SnapshotDate = model.Date{} },
			reason: "snapshot_date is required",
		},
		{
			name:   "future snapshot date",
			mutate: func(m *model.Manifest) { m.SnapshotDate = model.NewDate(2025, time.December, 1) },
			reason: "in the future",
		},
		{
			name:   "negative row count",
			mutate: func(m *model.Manifest) { m.RowCount = -1 },
			reason: "negative",
		},
		{
			name: "inverted coverage",
			mutate: func(m *model.Manifest) {
				start, end := 2025, 2020
				m.CoverageStart, m.CoverageEnd = &start, &end
			},
			reason: "coverage_start",
		},
		{
			name:   "missing produced_at",
			mutate: func(m *model.Manifest) { m.ProducedAt = time.Time{} },
			reason: "produced_at is required",
		},
		{
			name:   "missing producer version",
			mutate: func(m *model.Manifest) { m.ProducerVersion = "" },
			reason: "producer_version is required",
		},
	}

	v := testValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validManifest()
			tt.mutate(&m)

			f := v.Validate(m)
			require.False(t, f.Valid())
			assert.Contains(t, strings.Join(f.Reasons, "; "), tt.reason)
		})
	}
}

func TestValidateCollectsEveryReason(t *testing.T) {
	m := validManifest()
	m.Source = ""
	m.RowCount = -5
	m.ProducerVersion = ""

	f := testValidator().Validate(m)
	assert.Len(t, f.Reasons, 3)
}

func TestValidateTodayIsNotFuture(t *testing.T) {
	m := validManifest()
	m.SnapshotDate = model.NewDate(2025, time.September, 10)

	f := testValidator().Validate(m)
	assert.True(t, f.Valid(), "reasons: %v", f.Reasons)
}

func TestValidateOpenEndedCoverage(t *testing.T) {
	m := validManifest()
	m.CoverageEnd = nil

	f := testValidator().Validate(m)
	assert.True(t, f.Valid(), "reasons: %v", f.Reasons)
}

func TestValidateFilesRunToCompletion(t *testing.T) {
	root := t.TempDir()

	good := testManifest()
	goodPath, err := Write(root, good)
	require.NoError(t, err)

	badPath := filepath.Join(root, "broken.json")
	require.NoError(t, os.WriteFile(badPath, []byte("{"), 0o644))

	report := testValidator().ValidateFiles([]string{badPath, goodPath})
	require.Len(t, report.Findings, 2)
	assert.False(t, report.Findings[0].Valid())
	assert.True(t, report.Findings[1].Valid())
	assert.False(t, report.AllValid())
	assert.Len(t, report.Invalid(), 1)
}
