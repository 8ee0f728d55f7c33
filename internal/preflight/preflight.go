// Package preflight gates ingestion: it runs validation, freshness,
// coverage, and row-delta checks across configured datasets and assembles
// one itemized operator report. Advisory findings are collected, never
// thrown; per-dataset failures never stop the sweep.
package preflight

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/gridiron-data/warehouse-cli/internal/config"
	"github.com/gridiron-data/warehouse-cli/internal/coverage"
	"github.com/gridiron-data/warehouse-cli/internal/freshness"
	"github.com/gridiron-data/warehouse-cli/internal/manifest"
	"github.com/gridiron-data/warehouse-cli/internal/model"
	"github.com/gridiron-data/warehouse-cli/internal/selector"
	"github.com/gridiron-data/warehouse-cli/internal/store"
)

// DatasetReport is the pre-flight outcome for one (source, dataset).
type DatasetReport struct {
	Source    string              `json:"source"`
	Dataset   string              `json:"dataset"`
	Strategy  selector.Strategy   `json:"strategy"`
	Manifests []manifest.Finding  `json:"manifests,omitempty"`
	Freshness freshness.Class     `json:"freshness,omitempty"`
	NoCurrent bool                `json:"no_current,omitempty"`
	Gap       *coverage.Gap       `json:"gap,omitempty"`
	RowDeltas []coverage.RowDelta `json:"row_deltas,omitempty"`
	Err       string              `json:"error,omitempty"`
}

// InvalidCount returns how many manifests failed validation.
func (d DatasetReport) InvalidCount() int {
	n := 0
	for _, f := range d.Manifests {
		if !f.Valid() {
			n++
		}
	}
	return n
}

// Report is one full pre-flight sweep.
type Report struct {
	ID          string          `json:"id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Datasets    []DatasetReport `json:"datasets"`
}

// HasErrors reports whether any dataset hit a blocking condition: an invalid
// manifest, a stale-error classification, a missing current snapshot, or an
// operational failure.
func (r *Report) HasErrors() bool {
	for _, d := range r.Datasets {
		if d.InvalidCount() > 0 || d.Freshness == freshness.StaleError || d.NoCurrent || d.Err != "" {
			return true
		}
	}
	return false
}

// HasGaps reports whether any advisory coverage or row-delta finding exists.
func (r *Report) HasGaps() bool {
	for _, d := range r.Datasets {
		if d.Gap != nil || len(d.RowDeltas) > 0 {
			return true
		}
	}
	return false
}

// Runner wires the pre-flight checks over the registry and warehouse root.
type Runner struct {
	store             store.Store
	validator         *manifest.Validator
	evaluator         *freshness.Evaluator
	warehouseRoot     string
	rowDeltaThreshold float64
	clock             clockwork.Clock
}

// NewRunner creates a pre-flight runner.
func NewRunner(st store.Store, catalog *config.Catalog, cfg *config.Config, clock clockwork.Clock) *Runner {
	return &Runner{
		store:             st,
		validator:         manifest.NewValidator(catalog, clock),
		evaluator:         freshness.NewEvaluator(cfg.Freshness, clock),
		warehouseRoot:     cfg.Warehouse.Root,
		rowDeltaThreshold: cfg.Coverage.RowDeltaThreshold,
		clock:             clock,
	}
}

// Run sweeps the given dataset specs in parallel. Datasets are independent,
// so the sweep parallelizes freely; each goroutine writes only its own slot.
func (r *Runner) Run(ctx context.Context, specs []config.DatasetSpec) (*Report, error) {
	report := &Report{
		ID:          uuid.New().String(),
		GeneratedAt: r.clock.Now().UTC(),
		Datasets:    make([]DatasetReport, len(specs)),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, spec := range specs {
		g.Go(func() error {
			report.Datasets[i] = r.checkDataset(ctx, spec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

func (r *Runner) checkDataset(ctx context.Context, spec config.DatasetSpec) DatasetReport {
	d := DatasetReport{Source: spec.Source, Dataset: spec.Dataset}

	strategy, err := selector.ParseStrategy(spec.Strategy)
	if err != nil {
		d.Err = err.Error()
		return d
	}
	d.Strategy = strategy

	baseline, err := spec.BaselineDate()
	if err != nil {
		d.Err = err.Error()
		return d
	}
	params := selector.Params{BaselineDate: baseline}

	entries, err := r.store.List(ctx, store.Filter{Source: spec.Source, Dataset: spec.Dataset})
	if err != nil {
		d.Err = err.Error()
		return d
	}

	// Manifest validation over the sidecars actually on disk. A missing
	// dataset root means the source has not delivered yet; any other walk
	// failure lands in the report.
	paths, err := manifest.Discover(r.datasetRoot(spec))
	switch {
	case err == nil:
		d.Manifests = r.validator.ValidateFiles(paths).Findings
	case !errors.Is(err, fs.ErrNotExist):
		d.Err = err.Error()
	}

	// Freshness of the current entry; no current entry is itself a finding.
	current := currentEntry(entries)
	if current == nil {
		d.NoCurrent = true
	} else {
		d.Freshness = r.evaluator.Classify(*current)
	}

	// Coverage gaps, only for datasets that declare a coverage dimension
	// and only when the strategy can actually select.
	if spec.Coverage && current != nil {
		gap, err := coverage.DetectGaps(entries, strategy, params)
		if err != nil && !errors.Is(err, selector.ErrNoCurrentSnapshot) {
			d.Err = err.Error()
		}
		d.Gap = gap
	}

	d.RowDeltas = coverage.DetectRowDeltas(entries, r.rowDeltaThreshold)
	return d
}

func (r *Runner) datasetRoot(spec config.DatasetSpec) string {
	return filepath.Join(r.warehouseRoot, spec.Source, spec.Dataset)
}

func currentEntry(entries []model.RegistryEntry) *model.RegistryEntry {
	for i := range entries {
		if entries[i].Status == model.StatusCurrent {
			return &entries[i]
		}
	}
	return nil
}

// CheckPromotion decides whether an entry may be promoted to current.
// StaleError blocks promotion (last-known-good stays in force); StaleWarn
// and all coverage findings are advisory and never block.
func (r *Runner) CheckPromotion(entry model.RegistryEntry) error {
	if class := r.evaluator.Classify(entry); class == freshness.StaleError {
		return ErrStalePromotion
	}
	return nil
}

// ErrStalePromotion is returned when a candidate snapshot is too old to
// become current. The prior current entry remains in force.
var ErrStalePromotion = errors.New("snapshot exceeds the stale-error threshold")
