package manifest

import (
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/gridiron-data/warehouse-cli/internal/config"
	"github.com/gridiron-data/warehouse-cli/internal/model"
)

// Finding is the validation outcome for one manifest. A manifest with an
// empty Reasons slice is valid.
type Finding struct {
	Path     string         `json:"path,omitempty"`
	Manifest model.Manifest `json:"manifest"`
	Reasons  []string       `json:"reasons,omitempty"`
}

// Valid reports whether the manifest passed every check.
func (f Finding) Valid() bool { return len(f.Reasons) == 0 }

// Report is the outcome of validating a batch of manifests. Validation runs
// to completion: one bad manifest never hides its siblings' problems.
type Report struct {
	Findings []Finding `json:"findings"`
}

// AllValid reports whether every manifest in the batch passed.
func (r Report) AllValid() bool {
	for _, f := range r.Findings {
		if !f.Valid() {
			return false
		}
	}
	return true
}

// Invalid returns only the failed findings.
func (r Report) Invalid() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if !f.Valid() {
			out = append(out, f)
		}
	}
	return out
}

// Validator checks manifests against structural rules and the dataset
// catalog. Pure: no side effects, no registry access.
type Validator struct {
	catalog *config.Catalog
	clock   clockwork.Clock
}

// NewValidator creates a manifest validator.
func NewValidator(catalog *config.Catalog, clock clockwork.Clock) *Validator {
	return &Validator{catalog: catalog, clock: clock}
}

// Validate checks a single manifest and returns every reason it fails.
func (v *Validator) Validate(m model.Manifest) Finding {
	f := Finding{Manifest: m}

	if m.Source == "" {
		f.Reasons = append(f.Reasons, "source is required")
	}
	if m.Dataset == "" {
		f.Reasons = append(f.Reasons, "dataset is required")
	}
	if m.Source != "" && m.Dataset != "" && !v.catalog.Contains(m.Source, m.Dataset) {
		// Unknown names are rejected, not accepted: a typo here would
		// otherwise become a silent coverage gap.
		f.Reasons = append(f.Reasons, fmt.Sprintf("unknown dataset %s/%s (not in catalog)", m.Source, m.Dataset))
	}
	if m.SnapshotDate.IsZero() {
		f.Reasons = append(f.Reasons, "snapshot_date is required")
	} else if m.SnapshotDate.After(model.DateOf(v.clock.Now())) {
		f.Reasons = append(f.Reasons, fmt.Sprintf("snapshot_date %s is in the future", m.SnapshotDate))
	}
	if m.RowCount < 0 {
		f.Reasons = append(f.Reasons, fmt.Sprintf("row_count %d is negative", m.RowCount))
	}
	if m.CoverageStart != nil && m.CoverageEnd != nil && *m.CoverageStart > *m.CoverageEnd {
		f.Reasons = append(f.Reasons, fmt.Sprintf("coverage_start %d > coverage_end %d", *m.CoverageStart, *m.CoverageEnd))
	}
	if m.ProducedAt.IsZero() {
		f.Reasons = append(f.Reasons, "produced_at is required")
	}
	if m.ProducerVersion == "" {
		f.Reasons = append(f.Reasons, "producer_version is required")
	}

	return f
}

// ValidateAll checks a batch of parsed manifests.
func (v *Validator) ValidateAll(manifests []model.Manifest) Report {
	r := Report{Findings: make([]Finding, 0, len(manifests))}
	for _, m := range manifests {
		r.Findings = append(r.Findings, v.Validate(m))
	}
	return r
}

// ValidateFiles reads and checks a batch of sidecar files. A file that
// cannot be read or parsed becomes an invalid finding for that file alone;
// the rest of the batch still runs.
func (v *Validator) ValidateFiles(paths []string) Report {
	r := Report{Findings: make([]Finding, 0, len(paths))}
	for _, path := range paths {
		m, err := Read(path)
		if err != nil {
			r.Findings = append(r.Findings, Finding{
				Path:    path,
				Reasons: []string{fmt.Sprintf("unreadable manifest: %v", err)},
			})
			continue
		}
		f := v.Validate(*m)
		f.Path = path
		r.Findings = append(r.Findings, f)
	}
	return r
}
