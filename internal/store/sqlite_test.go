package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridiron-data/warehouse-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func manifestFor(date model.Date) model.Manifest {
	start, end := 2020, 2025
	return model.Manifest{
		Source:          "statsinc",
		Dataset:         "weekly_stats",
		SnapshotDate:    date,
		RowCount:        48210,
		CoverageStart:   &start,
		CoverageEnd:     &end,
		ProducedAt:      time.Date(2025, time.September, 7, 6, 30, 0, 0, time.UTC),
		ProducerVersion: "ingest-2.4.1",
	}
}

func TestRegisterAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	date := model.NewDate(2025, time.September, 7)

	entry, err := s.Register(ctx, manifestFor(date), "initial load")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, entry.Status)

	got, err := s.Get(ctx, "statsinc", "weekly_stats", date)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, int64(48210), got.RowCount)
	assert.Equal(t, "initial load", got.Notes)
	require.NotNil(t, got.CoverageStart)
	assert.Equal(t, 2020, *got.CoverageStart)
}

func TestRegisterDuplicateRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	date := model.NewDate(2025, time.September, 7)

	_, err := s.Register(ctx, manifestFor(date), "")
	require.NoError(t, err)

	// Append-only: the same (source, dataset, date) never registers twice.
	_, err = s.Register(ctx, manifestFor(date), "")
	require.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "statsinc", "weekly_stats", model.NewDate(2025, time.September, 7))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m1 := manifestFor(model.NewDate(2025, time.September, 1))
	m2 := manifestFor(model.NewDate(2025, time.September, 7))
	m3 := manifestFor(model.NewDate(2025, time.September, 7))
	m3.Source = "liveodds"
	m3.Dataset = "game_lines"

	for _, m := range []model.Manifest{m1, m2, m3} {
		_, err := s.Register(ctx, m, "")
		require.NoError(t, err)
	}

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	bySource, err := s.List(ctx, Filter{Source: "statsinc"})
	require.NoError(t, err)
	assert.Len(t, bySource, 2)

	byStatus, err := s.List(ctx, Filter{Status: model.StatusCurrent})
	require.NoError(t, err)
	assert.Empty(t, byStatus)

	limited, err := s.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestPromoteLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	baseline := model.NewDate(2025, time.August, 1)
	second := model.NewDate(2025, time.August, 15)
	third := model.NewDate(2025, time.September, 7)

	for _, d := range []model.Date{baseline, second, third} {
		_, err := s.Register(ctx, manifestFor(d), "")
		require.NoError(t, err)
	}

	// First promotion: no prior current to demote.
	require.NoError(t, s.Promote(ctx, "statsinc", "weekly_stats", baseline, baseline))
	assertStatus(t, s, baseline, model.StatusCurrent)

	// Second promotion: the prior current is the baseline, so it becomes
	// historical.
	require.NoError(t, s.Promote(ctx, "statsinc", "weekly_stats", second, baseline))
	assertStatus(t, s, baseline, model.StatusHistorical)
	assertStatus(t, s, second, model.StatusCurrent)

	// Third promotion: the prior current is not the baseline, so it is
	// archived.
	require.NoError(t, s.Promote(ctx, "statsinc", "weekly_stats", third, baseline))
	assertStatus(t, s, second, model.StatusArchived)
	assertStatus(t, s, third, model.StatusCurrent)

	// The baseline keeps its historical status across later promotions.
	assertStatus(t, s, baseline, model.StatusHistorical)

	current, err := s.List(ctx, Filter{Source: "statsinc", Dataset: "weekly_stats", Status: model.StatusCurrent})
	require.NoError(t, err)
	assert.Len(t, current, 1)
}

func TestPromoteIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	date := model.NewDate(2025, time.September, 7)

	_, err := s.Register(ctx, manifestFor(date), "")
	require.NoError(t, err)

	require.NoError(t, s.Promote(ctx, "statsinc", "weekly_stats", date, model.Date{}))
	require.NoError(t, s.Promote(ctx, "statsinc", "weekly_stats", date, model.Date{}))
	assertStatus(t, s, date, model.StatusCurrent)
}

func TestPromoteMissingEntry(t *testing.T) {
	s := newTestStore(t)

	err := s.Promote(context.Background(), "statsinc", "weekly_stats",
		model.NewDate(2025, time.September, 7), model.Date{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestArchive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	date := model.NewDate(2025, time.September, 7)

	_, err := s.Register(ctx, manifestFor(date), "original note")
	require.NoError(t, err)

	require.NoError(t, s.Archive(ctx, "statsinc", "weekly_stats", date, "superseded by re-delivery"))
	got, err := s.Get(ctx, "statsinc", "weekly_stats", date)
	require.NoError(t, err)
	assert.Equal(t, model.StatusArchived, got.Status)
	assert.Equal(t, "superseded by re-delivery", got.Notes)
}

func TestArchiveKeepsNotesWhenBlank(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	date := model.NewDate(2025, time.September, 7)

	_, err := s.Register(ctx, manifestFor(date), "original note")
	require.NoError(t, err)

	require.NoError(t, s.Archive(ctx, "statsinc", "weekly_stats", date, ""))
	got, err := s.Get(ctx, "statsinc", "weekly_stats", date)
	require.NoError(t, err)
	assert.Equal(t, "original note", got.Notes)
}

func TestArchiveMissingEntry(t *testing.T) {
	s := newTestStore(t)

	err := s.Archive(context.Background(), "statsinc", "weekly_stats",
		model.NewDate(2025, time.September, 7), "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCrosswalkRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	recs := []model.CrosswalkRecord{
		{
			CanonicalID: "plr_0001",
			DisplayName: "Patrick Mahomes",
			Team:        "KC",
			Position:    "QB",
			ProviderIDs: map[string]string{"statsinc": "si-1001", "liveodds": "lo-77"},
		},
		{
			CanonicalID: "plr_0002",
			DisplayName: "Josh Allen",
			Team:        "BUF",
			Position:    "QB",
			ProviderIDs: map[string]string{},
		},
	}
	require.NoError(t, s.UpsertCrosswalk(ctx, recs))

	got, err := s.LoadCrosswalk(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Patrick Mahomes", got[0].DisplayName)
	assert.Equal(t, "si-1001", got[0].ProviderIDs["statsinc"])
	assert.Empty(t, got[1].ProviderIDs)

	// Upsert updates display attributes in place.
	recs[0].Team = "LV"
	require.NoError(t, s.UpsertCrosswalk(ctx, recs))
	got, err = s.LoadCrosswalk(ctx)
	require.NoError(t, err)
	assert.Equal(t, "LV", got[0].Team)
}

func TestAliasInsertIsAppendOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertCrosswalk(ctx, []model.CrosswalkRecord{
		{CanonicalID: "plr_0001", DisplayName: "Patrick Mahomes"},
	}))

	aliases := []model.AliasRecord{
		{CanonicalID: "plr_0001", AliasText: "P. Mahomes II", Source: "liveodds",
			FirstSeenAt: time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)},
	}

	inserted, err := s.InsertAliases(ctx, aliases)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	// Re-inserting the same pair is a no-op, not an error.
	inserted, err = s.InsertAliases(ctx, aliases)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	got, err := s.LoadAliases(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "plr_0001", got[0].CanonicalID)
	assert.Equal(t, "P. Mahomes II", got[0].AliasText)
}

func assertStatus(t *testing.T, s *SQLiteStore, date model.Date, want model.Status) {
	t.Helper()
	got, err := s.Get(context.Background(), "statsinc", "weekly_stats", date)
	require.NoError(t, err)
	assert.Equal(t, want, got.Status, "entry %s", date)
}
