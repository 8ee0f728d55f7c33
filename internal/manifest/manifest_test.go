package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridiron-data/warehouse-cli/internal/model"
)

func testManifest() *model.Manifest {
	start, end := 2020, 2025
	return &model.Manifest{
		Source:          "statsinc",
		Dataset:         "weekly_stats",
		SnapshotDate:    model.NewDate(2025, time.September, 7),
		RowCount:        48210,
		CoverageStart:   &start,
		CoverageEnd:     &end,
		ProducedAt:      time.Date(2025, time.September, 7, 6, 30, 0, 0, time.UTC),
		ProducerVersion: "ingest-2.4.1",
	}
}

func TestPartitionDir(t *testing.T) {
	got := PartitionDir("/data/warehouse", "statsinc", "weekly_stats", model.NewDate(2025, time.September, 7))
	assert.Equal(t, filepath.FromSlash("/data/warehouse/statsinc/weekly_stats/snapshot_date=2025-09-07"), got)
}

func TestWriteReadRoundTrip(t *testing.T) {
	root := t.TempDir()
	m := testManifest()

	path, err := Write(root, m)
	require.NoError(t, err)
	assert.Equal(t, Path(root, m.Source, m.Dataset, m.SnapshotDate), path)

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, m.Source, got.Source)
	assert.True(t, got.SnapshotDate.Equal(m.SnapshotDate))
	assert.Equal(t, m.RowCount, got.RowCount)
	require.NotNil(t, got.CoverageStart)
	assert.Equal(t, 2020, *got.CoverageStart)
	assert.Equal(t, m.ProducerVersion, got.ProducerVersion)
}

func TestWriteRefusesOverwrite(t *testing.T) {
	root := t.TempDir()
	m := testManifest()

	_, err := Write(root, m)
	require.NoError(t, err)

	// Immutable once written; a changed manifest must use a new date.
	m.RowCount = 99
	_, err = Write(root, m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "immutable")
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope", FileName))
	require.Error(t, err)
}

func TestReadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Read(path)
	require.Error(t, err)
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()

	m1 := testManifest()
	m2 := testManifest()
	m2.SnapshotDate = model.NewDate(2025, time.September, 14)

	_, err := Write(root, m1)
	require.NoError(t, err)
	_, err = Write(root, m2)
	require.NoError(t, err)

	// A data file in the partition dir must not be picked up.
	dataFile := filepath.Join(PartitionDir(root, m1.Source, m1.Dataset, m1.SnapshotDate), "part-0.parquet")
	require.NoError(t, os.WriteFile(dataFile, []byte("x"), 0o644))

	paths, err := Discover(root)
	require.NoError(t, err)
	assert.Len(t, paths, 2)
	for _, p := range paths {
		assert.Equal(t, FileName, filepath.Base(p))
	}
}
