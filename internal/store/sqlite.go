package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/gridiron-data/warehouse-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS snapshot_registry (
	source           TEXT NOT NULL,
	dataset          TEXT NOT NULL,
	snapshot_date    TEXT NOT NULL,
	row_count        INTEGER NOT NULL,
	coverage_start   INTEGER,
	coverage_end     INTEGER,
	produced_at      DATETIME NOT NULL,
	producer_version TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'pending',
	notes            TEXT NOT NULL DEFAULT '',
	registered_at    DATETIME NOT NULL,
	updated_at       DATETIME NOT NULL,
	PRIMARY KEY (source, dataset, snapshot_date)
);

-- The at-most-one-current invariant is enforced by the store itself, not
-- just by promotion code.
CREATE UNIQUE INDEX IF NOT EXISTS idx_registry_one_current
	ON snapshot_registry(source, dataset) WHERE status = 'current';
CREATE INDEX IF NOT EXISTS idx_registry_status
	ON snapshot_registry(source, dataset, status);

CREATE TABLE IF NOT EXISTS entities (
	canonical_id TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	team         TEXT NOT NULL DEFAULT '',
	position     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS entity_ids (
	canonical_id TEXT NOT NULL REFERENCES entities(canonical_id),
	provider     TEXT NOT NULL,
	native_id    TEXT NOT NULL,
	PRIMARY KEY (canonical_id, provider)
);

-- A provider-native id belongs to exactly one canonical entity.
CREATE UNIQUE INDEX IF NOT EXISTS idx_entity_ids_native
	ON entity_ids(provider, native_id);

CREATE TABLE IF NOT EXISTS entity_aliases (
	canonical_id  TEXT NOT NULL REFERENCES entities(canonical_id),
	alias_text    TEXT NOT NULL,
	source        TEXT NOT NULL,
	first_seen_at DATETIME NOT NULL,
	PRIMARY KEY (alias_text, source)
);
CREATE INDEX IF NOT EXISTS idx_entity_aliases_canonical
	ON entity_aliases(canonical_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Register(ctx context.Context, m model.Manifest, notes string) (*model.RegistryEntry, error) {
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshot_registry
		 (source, dataset, snapshot_date, row_count, coverage_start, coverage_end,
		  produced_at, producer_version, status, notes, registered_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Source, m.Dataset, m.SnapshotDate.String(), m.RowCount,
		nullableInt(m.CoverageStart), nullableInt(m.CoverageEnd),
		m.ProducedAt.UTC(), m.ProducerVersion,
		string(model.StatusPending), notes, now, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, eris.Wrapf(ErrAlreadyRegistered, "%s", m.Key())
		}
		return nil, eris.Wrapf(err, "sqlite: register %s", m.Key())
	}

	return &model.RegistryEntry{
		Manifest:     m,
		Status:       model.StatusPending,
		Notes:        notes,
		RegisteredAt: now,
		UpdatedAt:    now,
	}, nil
}

const registryColumns = `source, dataset, snapshot_date, row_count, coverage_start, coverage_end,
	produced_at, producer_version, status, notes, registered_at, updated_at`

func (s *SQLiteStore) Get(ctx context.Context, source, dataset string, date model.Date) (*model.RegistryEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+registryColumns+` FROM snapshot_registry
		 WHERE source = ? AND dataset = ? AND snapshot_date = ?`,
		source, dataset, date.String(),
	)
	return scanEntry(row)
}

func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]model.RegistryEntry, error) {
	query := `SELECT ` + registryColumns + ` FROM snapshot_registry WHERE 1=1`
	var args []any

	if f.Source != "" {
		query += ` AND source = ?`
		args = append(args, f.Source)
	}
	if f.Dataset != "" {
		query += ` AND dataset = ?`
		args = append(args, f.Dataset)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	query += ` ORDER BY source, dataset, snapshot_date`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list registry")
	}
	defer rows.Close()

	var entries []model.RegistryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: list registry iterate")
}

// Promote runs the promote/demote pair in one transaction so no reader ever
// sees two current entries, nor zero once one exists.
func (s *SQLiteStore) Promote(ctx context.Context, source, dataset string, date, baseline model.Date) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin promote")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()

	// Target must exist and not already be current.
	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM snapshot_registry WHERE source = ? AND dataset = ? AND snapshot_date = ?`,
		source, dataset, date.String(),
	).Scan(&status)
	if err == sql.ErrNoRows {
		return eris.Wrapf(ErrNotFound, "%s/%s/%s", source, dataset, date)
	}
	if err != nil {
		return eris.Wrap(err, "sqlite: promote lookup")
	}
	if model.Status(status) == model.StatusCurrent {
		return tx.Commit() // already current, promotion is idempotent
	}

	// Demote the prior current: historical when it is the recognized
	// continuity baseline, archived otherwise.
	_, err = tx.ExecContext(ctx,
		`UPDATE snapshot_registry
		 SET status = CASE WHEN snapshot_date = ? THEN ? ELSE ? END, updated_at = ?
		 WHERE source = ? AND dataset = ? AND status = ?`,
		baseline.String(), string(model.StatusHistorical), string(model.StatusArchived), now,
		source, dataset, string(model.StatusCurrent),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: demote prior current")
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE snapshot_registry SET status = ?, updated_at = ?
		 WHERE source = ? AND dataset = ? AND snapshot_date = ?`,
		string(model.StatusCurrent), now, source, dataset, date.String(),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: promote")
	}
	if err := checkRowsAffected(res, "registry entry", date.String()); err != nil {
		return err
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit promote")
}

func (s *SQLiteStore) Archive(ctx context.Context, source, dataset string, date model.Date, notes string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE snapshot_registry
		 SET status = ?, notes = CASE WHEN ? = '' THEN notes ELSE ? END, updated_at = ?
		 WHERE source = ? AND dataset = ? AND snapshot_date = ?`,
		string(model.StatusArchived), notes, notes, time.Now().UTC(),
		source, dataset, date.String(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: archive %s/%s/%s", source, dataset, date)
	}
	return checkRowsAffected(res, "registry entry", date.String())
}

func (s *SQLiteStore) UpsertCrosswalk(ctx context.Context, recs []model.CrosswalkRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin crosswalk upsert")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, rec := range recs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO entities (canonical_id, display_name, team, position)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(canonical_id) DO UPDATE SET
			   display_name = excluded.display_name,
			   team = excluded.team,
			   position = excluded.position`,
			rec.CanonicalID, rec.DisplayName, rec.Team, rec.Position,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: upsert entity %s", rec.CanonicalID)
		}
		for provider, nativeID := range rec.ProviderIDs {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO entity_ids (canonical_id, provider, native_id)
				 VALUES (?, ?, ?)
				 ON CONFLICT(canonical_id, provider) DO UPDATE SET native_id = excluded.native_id`,
				rec.CanonicalID, provider, nativeID,
			)
			if err != nil {
				return eris.Wrapf(err, "sqlite: upsert native id %s/%s", rec.CanonicalID, provider)
			}
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit crosswalk upsert")
}

func (s *SQLiteStore) LoadCrosswalk(ctx context.Context) ([]model.CrosswalkRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.canonical_id, e.display_name, e.team, e.position,
		        COALESCE(i.provider, ''), COALESCE(i.native_id, '')
		 FROM entities e
		 LEFT JOIN entity_ids i ON i.canonical_id = e.canonical_id
		 ORDER BY e.canonical_id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load crosswalk")
	}
	defer rows.Close()

	byID := map[string]*model.CrosswalkRecord{}
	var order []string
	for rows.Next() {
		var id, name, team, pos, provider, nativeID string
		if err := rows.Scan(&id, &name, &team, &pos, &provider, &nativeID); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan crosswalk")
		}
		rec, ok := byID[id]
		if !ok {
			rec = &model.CrosswalkRecord{
				CanonicalID: id,
				DisplayName: name,
				Team:        team,
				Position:    pos,
				ProviderIDs: map[string]string{},
			}
			byID[id] = rec
			order = append(order, id)
		}
		if provider != "" {
			rec.ProviderIDs[provider] = nativeID
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: load crosswalk iterate")
	}

	out := make([]model.CrosswalkRecord, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

func (s *SQLiteStore) InsertAliases(ctx context.Context, recs []model.AliasRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin alias insert")
	}
	defer tx.Rollback() //nolint:errcheck

	inserted := 0
	for _, rec := range recs {
		firstSeen := rec.FirstSeenAt
		if firstSeen.IsZero() {
			firstSeen = time.Now().UTC()
		}
		// Append-only: an existing (alias_text, source) pair is left alone.
		res, err := tx.ExecContext(ctx,
			`INSERT INTO entity_aliases (canonical_id, alias_text, source, first_seen_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(alias_text, source) DO NOTHING`,
			rec.CanonicalID, rec.AliasText, rec.Source, firstSeen,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert alias %q", rec.AliasText)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	return inserted, eris.Wrap(tx.Commit(), "sqlite: commit alias insert")
}

func (s *SQLiteStore) LoadAliases(ctx context.Context) ([]model.AliasRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT canonical_id, alias_text, source, first_seen_at
		 FROM entity_aliases ORDER BY canonical_id, alias_text`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load aliases")
	}
	defer rows.Close()

	var out []model.AliasRecord
	for rows.Next() {
		var a model.AliasRecord
		if err := rows.Scan(&a.CanonicalID, &a.AliasText, &a.Source, &a.FirstSeenAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan alias")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: load aliases iterate")
}

// helpers

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanEntry(row scannable) (*model.RegistryEntry, error) {
	var e model.RegistryEntry
	var dateStr, status string
	var covStart, covEnd sql.NullInt64

	err := row.Scan(&e.Source, &e.Dataset, &dateStr, &e.RowCount, &covStart, &covEnd,
		&e.ProducedAt, &e.ProducerVersion, &status, &e.Notes, &e.RegisteredAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan registry entry")
	}

	e.SnapshotDate, err = model.ParseDate(dateStr)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: parse snapshot_date")
	}
	e.Status = model.Status(status)
	if covStart.Valid {
		v := int(covStart.Int64)
		e.CoverageStart = &v
	}
	if covEnd.Valid {
		v := int(covEnd.Int64)
		e.CoverageEnd = &v
	}
	return &e, nil
}
