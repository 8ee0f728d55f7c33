package store

import (
	"context"
	"errors"

	"github.com/gridiron-data/warehouse-cli/internal/model"
)

// ErrNotFound is returned when a registry entry does not exist.
var ErrNotFound = errors.New("registry entry not found")

// ErrAlreadyRegistered is returned when a (source, dataset, snapshot_date)
// is registered twice. The registry is append-only; re-runs that need
// different contents write a new snapshot_date instead.
var ErrAlreadyRegistered = errors.New("snapshot already registered")

// Filter specifies criteria for listing registry entries.
type Filter struct {
	Source  string       `json:"source,omitempty"`
	Dataset string       `json:"dataset,omitempty"`
	Status  model.Status `json:"status,omitempty"`
	Limit   int          `json:"limit,omitempty"`
}

// Store defines persistence for the snapshot registry and the curated
// crosswalk/alias tables.
type Store interface {
	// Registry. Entries are append-only: Register inserts as pending,
	// Promote and Archive are status transitions, nothing is ever deleted.
	Register(ctx context.Context, m model.Manifest, notes string) (*model.RegistryEntry, error)
	Get(ctx context.Context, source, dataset string, date model.Date) (*model.RegistryEntry, error)
	List(ctx context.Context, f Filter) ([]model.RegistryEntry, error)

	// Promote makes the entry at date the single current snapshot for
	// (source, dataset). The prior current, if any, is demoted in the same
	// transaction: to historical when its date equals baseline (the
	// dataset's continuity anchor), else to archived. A reader never
	// observes two current entries, nor zero once one has been promoted.
	Promote(ctx context.Context, source, dataset string, date, baseline model.Date) error

	// Archive moves an entry to archived for retention. Status change only.
	Archive(ctx context.Context, source, dataset string, date model.Date, notes string) error

	// Crosswalk / aliases. Curated out-of-band, read wholesale at resolve
	// time.
	UpsertCrosswalk(ctx context.Context, recs []model.CrosswalkRecord) error
	LoadCrosswalk(ctx context.Context) ([]model.CrosswalkRecord, error)
	InsertAliases(ctx context.Context, recs []model.AliasRecord) (int, error)
	LoadAliases(ctx context.Context) ([]model.AliasRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
