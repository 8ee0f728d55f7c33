package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/gridiron-data/warehouse-cli/internal/db"
	"github.com/gridiron-data/warehouse-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_entry": `SELECT source, dataset, snapshot_date, row_count, coverage_start, coverage_end,
		produced_at, producer_version, status, notes, registered_at, updated_at
		FROM snapshot_registry WHERE source = $1 AND dataset = $2 AND snapshot_date = $3`,
	"register_entry": `INSERT INTO snapshot_registry
		(source, dataset, snapshot_date, row_count, coverage_start, coverage_end,
		 produced_at, producer_version, status, notes, registered_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS snapshot_registry (
	source           TEXT NOT NULL,
	dataset          TEXT NOT NULL,
	snapshot_date    DATE NOT NULL,
	row_count        BIGINT NOT NULL,
	coverage_start   INT,
	coverage_end     INT,
	produced_at      TIMESTAMPTZ NOT NULL,
	producer_version TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'pending',
	notes            TEXT NOT NULL DEFAULT '',
	registered_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (source, dataset, snapshot_date)
);

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

CREATE UNIQUE INDEX IF NOT EXISTS idx_entity_ids_native
	ON entity_ids(provider, native_id);

CREATE TABLE IF NOT EXISTS entity_aliases (
	canonical_id  TEXT NOT NULL REFERENCES entities(canonical_id),
	alias_text    TEXT NOT NULL,
	source        TEXT NOT NULL,
	first_seen_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (alias_text, source)
);
CREATE INDEX IF NOT EXISTS idx_entity_aliases_canonical
	ON entity_aliases(canonical_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Register(ctx context.Context, m model.Manifest, notes string) (*model.RegistryEntry, error) {
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO snapshot_registry
		 (source, dataset, snapshot_date, row_count, coverage_start, coverage_end,
		  produced_at, producer_version, status, notes, registered_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		m.Source, m.Dataset, m.SnapshotDate.Time(), m.RowCount,
		m.CoverageStart, m.CoverageEnd,
		m.ProducedAt.UTC(), m.ProducerVersion,
		string(model.StatusPending), notes, now, now,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, eris.Wrapf(ErrAlreadyRegistered, "%s", m.Key())
		}
		return nil, eris.Wrapf(err, "postgres: register %s", m.Key())
	}

	return &model.RegistryEntry{
		Manifest:     m,
		Status:       model.StatusPending,
		Notes:        notes,
		RegisteredAt: now,
		UpdatedAt:    now,
	}, nil
}

func (s *PostgresStore) Get(ctx context.Context, source, dataset string, date model.Date) (*model.RegistryEntry, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT source, dataset, snapshot_date, row_count, coverage_start, coverage_end,
		        produced_at, producer_version, status, notes, registered_at, updated_at
		 FROM snapshot_registry WHERE source = $1 AND dataset = $2 AND snapshot_date = $3`,
		source, dataset, date.Time(),
	)
	return scanPgEntry(row)
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]model.RegistryEntry, error) {
	query := `SELECT source, dataset, snapshot_date, row_count, coverage_start, coverage_end,
	          produced_at, producer_version, status, notes, registered_at, updated_at
	          FROM snapshot_registry WHERE 1=1`
	var args []any

	if f.Source != "" {
		args = append(args, f.Source)
		query += ` AND source = $` + strconv.Itoa(len(args))
	}
	if f.Dataset != "" {
		args = append(args, f.Dataset)
		query += ` AND dataset = $` + strconv.Itoa(len(args))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY source, dataset, snapshot_date`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list registry")
	}
	defer rows.Close()

	var entries []model.RegistryEntry
	for rows.Next() {
		e, err := scanPgEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list registry iterate")
}

// Promote serializes per-dataset behind an advisory lock so concurrent
// promoters cannot interleave, then flips the prior current and the target
// in one transaction.
func (s *PostgresStore) Promote(ctx context.Context, source, dataset string, date, baseline model.Date) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin promote")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1 || '/' || $2))`, source, dataset,
	); err != nil {
		return eris.Wrap(err, "postgres: advisory lock")
	}

	now := time.Now().UTC()

	var status string
	err = tx.QueryRow(ctx,
		`SELECT status FROM snapshot_registry WHERE source = $1 AND dataset = $2 AND snapshot_date = $3`,
		source, dataset, date.Time(),
	).Scan(&status)
	if err == pgx.ErrNoRows {
		return eris.Wrapf(ErrNotFound, "%s/%s/%s", source, dataset, date)
	}
	if err != nil {
		return eris.Wrap(err, "postgres: promote lookup")
	}
	if model.Status(status) == model.StatusCurrent {
		return tx.Commit(ctx) // already current, promotion is idempotent
	}

	if _, err := tx.Exec(ctx,
		`UPDATE snapshot_registry
		 SET status = CASE WHEN snapshot_date = $1 THEN $2 ELSE $3 END, updated_at = $4
		 WHERE source = $5 AND dataset = $6 AND status = $7`,
		baseline.Time(), string(model.StatusHistorical), string(model.StatusArchived), now,
		source, dataset, string(model.StatusCurrent),
	); err != nil {
		return eris.Wrap(err, "postgres: demote prior current")
	}

	tag, err := tx.Exec(ctx,
		`UPDATE snapshot_registry SET status = $1, updated_at = $2
		 WHERE source = $3 AND dataset = $4 AND snapshot_date = $5`,
		string(model.StatusCurrent), now, source, dataset, date.Time(),
	)
	if err != nil {
		return eris.Wrap(err, "postgres: promote")
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "registry entry %s", date)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit promote")
}

func (s *PostgresStore) Archive(ctx context.Context, source, dataset string, date model.Date, notes string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE snapshot_registry
		 SET status = $1, notes = CASE WHEN $2 = '' THEN notes ELSE $2 END, updated_at = $3
		 WHERE source = $4 AND dataset = $5 AND snapshot_date = $6`,
		string(model.StatusArchived), notes, time.Now().UTC(),
		source, dataset, date.Time(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: archive %s/%s/%s", source, dataset, date)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "registry entry %s", date)
	}
	return nil
}

func (s *PostgresStore) UpsertCrosswalk(ctx context.Context, recs []model.CrosswalkRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin crosswalk upsert")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, rec := range recs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO entities (canonical_id, display_name, team, position)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (canonical_id) DO UPDATE SET
			   display_name = EXCLUDED.display_name,
			   team = EXCLUDED.team,
			   position = EXCLUDED.position`,
			rec.CanonicalID, rec.DisplayName, rec.Team, rec.Position,
		); err != nil {
			return eris.Wrapf(err, "postgres: upsert entity %s", rec.CanonicalID)
		}
		for provider, nativeID := range rec.ProviderIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO entity_ids (canonical_id, provider, native_id)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (canonical_id, provider) DO UPDATE SET native_id = EXCLUDED.native_id`,
				rec.CanonicalID, provider, nativeID,
			); err != nil {
				return eris.Wrapf(err, "postgres: upsert native id %s/%s", rec.CanonicalID, provider)
			}
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit crosswalk upsert")
}

func (s *PostgresStore) LoadCrosswalk(ctx context.Context) ([]model.CrosswalkRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT e.canonical_id, e.display_name, e.team, e.position,
		        COALESCE(i.provider, ''), COALESCE(i.native_id, '')
		 FROM entities e
		 LEFT JOIN entity_ids i ON i.canonical_id = e.canonical_id
		 ORDER BY e.canonical_id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load crosswalk")
	}
	defer rows.Close()

	byID := map[string]*model.CrosswalkRecord{}
	var order []string
	for rows.Next() {
		var id, name, team, pos, provider, nativeID string
		if err := rows.Scan(&id, &name, &team, &pos, &provider, &nativeID); err != nil {
			return nil, eris.Wrap(err, "postgres: scan crosswalk")
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
		return nil, eris.Wrap(err, "postgres: load crosswalk iterate")
	}

	out := make([]model.CrosswalkRecord, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

func (s *PostgresStore) InsertAliases(ctx context.Context, recs []model.AliasRecord) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin alias insert")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	inserted := 0
	for _, rec := range recs {
		firstSeen := rec.FirstSeenAt
		if firstSeen.IsZero() {
			firstSeen = time.Now().UTC()
		}
		tag, err := tx.Exec(ctx,
			`INSERT INTO entity_aliases (canonical_id, alias_text, source, first_seen_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (alias_text, source) DO NOTHING`,
			rec.CanonicalID, rec.AliasText, rec.Source, firstSeen,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: insert alias %q", rec.AliasText)
		}
		inserted += int(tag.RowsAffected())
	}

	return inserted, eris.Wrap(tx.Commit(ctx), "postgres: commit alias insert")
}

func (s *PostgresStore) LoadAliases(ctx context.Context) ([]model.AliasRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT canonical_id, alias_text, source, first_seen_at
		 FROM entity_aliases ORDER BY canonical_id, alias_text`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load aliases")
	}
	defer rows.Close()

	var out []model.AliasRecord
	for rows.Next() {
		var a model.AliasRecord
		if err := rows.Scan(&a.CanonicalID, &a.AliasText, &a.Source, &a.FirstSeenAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan alias")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: load aliases iterate")
}

// helpers

type pgScannable interface {
	Scan(dest ...any) error
}

func scanPgEntry(row pgScannable) (*model.RegistryEntry, error) {
	var e model.RegistryEntry
	var snapDate time.Time
	var status string
	var covStart, covEnd *int

	err := row.Scan(&e.Source, &e.Dataset, &snapDate, &e.RowCount, &covStart, &covEnd,
		&e.ProducedAt, &e.ProducerVersion, &status, &e.Notes, &e.RegisteredAt, &e.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan registry entry")
	}

	e.SnapshotDate = model.DateOf(snapDate)
	e.Status = model.Status(status)
	e.CoverageStart = covStart
	e.CoverageEnd = covEnd
	return &e, nil
}
