package scan

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gridiron-data/warehouse-cli/internal/model"
)

func TestPartitionGlobs(t *testing.T) {
	s := &Scanner{root: "/data/warehouse"}

	globs := s.PartitionGlobs("statsinc", "weekly_stats", []model.Date{
		model.NewDate(2025, time.August, 1),
		model.NewDate(2025, time.September, 7),
	})

	assert.Equal(t, []string{
		filepath.FromSlash("/data/warehouse/statsinc/weekly_stats/snapshot_date=2025-08-01") + "/*.parquet",
		filepath.FromSlash("/data/warehouse/statsinc/weekly_stats/snapshot_date=2025-09-07") + "/*.parquet",
	}, globs)
}

func TestBuildScanQuery(t *testing.T) {
	q := BuildScanQuery([]string{"/w/a/*.parquet", "/w/b/*.parquet"}, 0)
	assert.Equal(t, "SELECT * FROM read_parquet(['/w/a/*.parquet', '/w/b/*.parquet'])", q)
}

func TestBuildScanQueryWithLimit(t *testing.T) {
	q := BuildScanQuery([]string{"/w/a/*.parquet"}, 25)
	assert.Equal(t, "SELECT * FROM read_parquet(['/w/a/*.parquet']) LIMIT 25", q)
}

func TestBuildScanQueryEscapesQuotes(t *testing.T) {
	q := BuildScanQuery([]string{"/w/o'brien/*.parquet"}, 0)
	assert.Contains(t, q, "'/w/o''brien/*.parquet'")
}

func TestBuildCountQuery(t *testing.T) {
	q := BuildCountQuery([]string{"/w/a/*.parquet"})
	assert.Equal(t, "SELECT count(*) FROM read_parquet(['/w/a/*.parquet'])", q)
}
