// Package scan reads the physical parquet partitions the selector picked,
// through an embedded DuckDB instance. Selection policy stays in the
// selector; this package only turns an already-decided date set into a scan.
package scan

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rotisserie/eris"

	"github.com/gridiron-data/warehouse-cli/internal/manifest"
	"github.com/gridiron-data/warehouse-cli/internal/model"
)

// Scanner holds an in-memory DuckDB handle over the warehouse root.
type Scanner struct {
	db   *sql.DB
	root string
}

// NewScanner opens an in-memory DuckDB instance.
func NewScanner(root string) (*Scanner, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, eris.Wrap(err, "scan: open duckdb")
	}
	return &Scanner{db: db, root: root}, nil
}

// Close releases the DuckDB handle.
func (s *Scanner) Close() error {
	return s.db.Close()
}

// PartitionGlobs returns one parquet glob per selected snapshot date.
func (s *Scanner) PartitionGlobs(source, dataset string, dates []model.Date) []string {
	globs := make([]string, 0, len(dates))
	for _, d := range dates {
		globs = append(globs, manifest.PartitionDir(s.root, source, dataset, d)+"/*.parquet")
	}
	return globs
}

// BuildScanQuery renders a read_parquet over the given globs. Paths are
// embedded as quoted literals because read_parquet does not take bind
// parameters for its file list.
func BuildScanQuery(globs []string, limit int) string {
	quoted := make([]string, 0, len(globs))
	for _, g := range globs {
		quoted = append(quoted, "'"+strings.ReplaceAll(g, "'", "''")+"'")
	}
	q := fmt.Sprintf("SELECT * FROM read_parquet([%s])", strings.Join(quoted, ", "))
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return q
}

// BuildCountQuery renders a row count over the given globs.
func BuildCountQuery(globs []string) string {
	quoted := make([]string, 0, len(globs))
	for _, g := range globs {
		quoted = append(quoted, "'"+strings.ReplaceAll(g, "'", "''")+"'")
	}
	return fmt.Sprintf("SELECT count(*) FROM read_parquet([%s])", strings.Join(quoted, ", "))
}

// CountRows counts rows across the selected partitions.
func (s *Scanner) CountRows(ctx context.Context, source, dataset string, dates []model.Date) (int64, error) {
	if len(dates) == 0 {
		return 0, eris.New("scan: no snapshot dates selected")
	}
	globs := s.PartitionGlobs(source, dataset, dates)

	var n int64
	err := s.db.QueryRowContext(ctx, BuildCountQuery(globs)).Scan(&n)
	if err != nil {
		return 0, eris.Wrapf(err, "scan: count %s/%s", source, dataset)
	}
	return n, nil
}

// Preview returns up to limit rows from the selected partitions, rendered
// as strings for operator display.
func (s *Scanner) Preview(ctx context.Context, source, dataset string, dates []model.Date, limit int) ([]string, [][]string, error) {
	if len(dates) == 0 {
		return nil, nil, eris.New("scan: no snapshot dates selected")
	}
	if limit <= 0 {
		limit = 10
	}
	globs := s.PartitionGlobs(source, dataset, dates)

	rows, err := s.db.QueryContext(ctx, BuildScanQuery(globs, limit))
	if err != nil {
		return nil, nil, eris.Wrapf(err, "scan: preview %s/%s", source, dataset)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, eris.Wrap(err, "scan: columns")
	}

	var out [][]string
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, eris.Wrap(err, "scan: scan row")
		}
		rendered := make([]string, len(cols))
		for i, v := range raw {
			if v == nil {
				rendered[i] = ""
				continue
			}
			rendered[i] = fmt.Sprintf("%v", v)
		}
		out = append(out, rendered)
	}
	return cols, out, eris.Wrap(rows.Err(), "scan: iterate")
}
