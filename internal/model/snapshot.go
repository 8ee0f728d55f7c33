package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used for snapshot partitions.
const DateLayout = "2006-01-02"

// Date is a calendar day in UTC. Snapshot partitions, baselines, and
// observation as-of markers are all day-granular, so the wire format is
// always "YYYY-MM-DD" regardless of how the value was produced.
type Date struct {
	t time.Time
}

// NewDate builds a Date from year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d.t.IsZero() }

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time { return d.t }

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool { return d.t.After(other.t) }

// Equal reports whether d and other are the same calendar day.
func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// MarshalJSON encodes the date as a "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalText supports csvutil and text-based encoders.
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText supports csvutil and text-based decoders.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Manifest is the sidecar metadata record written next to every snapshot
// partition. Written once by the producing job and immutable thereafter; a
// re-run that needs different contents writes a new snapshot_date.
type Manifest struct {
	Source          string    `json:"source" yaml:"source"`
	Dataset         string    `json:"dataset" yaml:"dataset"`
	SnapshotDate    Date      `json:"snapshot_date" yaml:"snapshot_date"`
	RowCount        int64     `json:"row_count" yaml:"row_count"`
	CoverageStart   *int      `json:"coverage_start,omitempty" yaml:"coverage_start,omitempty"`
	CoverageEnd     *int      `json:"coverage_end,omitempty" yaml:"coverage_end,omitempty"`
	ProducedAt      time.Time `json:"produced_at" yaml:"produced_at"`
	ProducerVersion string    `json:"producer_version" yaml:"producer_version"`
}

// Key identifies the partition the manifest describes.
func (m Manifest) Key() string {
	return fmt.Sprintf("%s/%s/%s", m.Source, m.Dataset, m.SnapshotDate)
}

// Status is the lifecycle state of a registry entry.
type Status string

const (
	StatusPending    Status = "pending"
	StatusCurrent    Status = "current"
	StatusHistorical Status = "historical"
	StatusArchived   Status = "archived"
)

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusCurrent, StatusHistorical, StatusArchived:
		return true
	}
	return false
}

// RegistryEntry is one row of the snapshot registry: a manifest plus its
// lifecycle state. Entries are never deleted; archival is a status change.
type RegistryEntry struct {
	Manifest
	Status       Status    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
