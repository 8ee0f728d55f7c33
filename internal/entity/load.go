package entity

import (
	"encoding/csv"
	"io"
	"os"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/gridiron-data/warehouse-cli/internal/model"
)

// crosswalkRow is the long-format import row: one row per
// (canonical_id, provider) pair. Rows for the same canonical_id repeat the
// display attributes and are grouped on load.
type crosswalkRow struct {
	CanonicalID string `csv:"canonical_id"`
	DisplayName string `csv:"display_name"`
	Team        string `csv:"team"`
	Position    string `csv:"position"`
	Provider    string `csv:"provider"`
	NativeID    string `csv:"native_id"`
}

type aliasRow struct {
	CanonicalID string `csv:"canonical_id"`
	AliasText   string `csv:"alias_text"`
	Source      string `csv:"source"`
	FirstSeenAt string `csv:"first_seen_at"`
}

// ReadCrosswalkCSV parses long-format crosswalk rows and groups them into
// one record per canonical id.
func ReadCrosswalkCSV(r io.Reader) ([]model.CrosswalkRecord, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return nil, eris.Wrap(err, "entity: crosswalk csv header")
	}

	var rows []crosswalkRow
	for {
		var row crosswalkRow
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "entity: crosswalk csv row")
		}
		rows = append(rows, row)
	}
	return groupCrosswalkRows(rows)
}

// ReadCrosswalkXLSX parses a league-management spreadsheet with the same
// columns as the CSV format, taken from the workbook's first sheet.
func ReadCrosswalkXLSX(path string) ([]model.CrosswalkRecord, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "entity: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("entity: %s has no sheets", path)
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, nil
	}

	col := map[string]int{}
	for i, cell := range sheet.Rows[0].Cells {
		col[cell.String()] = i
	}
	for _, required := range []string{"canonical_id", "provider", "native_id"} {
		if _, ok := col[required]; !ok {
			return nil, eris.Errorf("entity: %s is missing column %q", path, required)
		}
	}

	cellAt := func(row *xlsx.Row, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row.Cells) {
			return ""
		}
		return row.Cells[i].String()
	}

	var rows []crosswalkRow
	for _, row := range sheet.Rows[1:] {
		r := crosswalkRow{
			CanonicalID: cellAt(row, "canonical_id"),
			DisplayName: cellAt(row, "display_name"),
			Team:        cellAt(row, "team"),
			Position:    cellAt(row, "position"),
			Provider:    cellAt(row, "provider"),
			NativeID:    cellAt(row, "native_id"),
		}
		if r.CanonicalID == "" {
			continue
		}
		rows = append(rows, r)
	}
	return groupCrosswalkRows(rows)
}

func groupCrosswalkRows(rows []crosswalkRow) ([]model.CrosswalkRecord, error) {
	byID := map[string]*model.CrosswalkRecord{}
	var order []string

	for _, row := range rows {
		if row.CanonicalID == "" {
			return nil, eris.New("entity: crosswalk row missing canonical_id")
		}
		rec, ok := byID[row.CanonicalID]
		if !ok {
			rec = &model.CrosswalkRecord{
				CanonicalID: row.CanonicalID,
				DisplayName: row.DisplayName,
				Team:        row.Team,
				Position:    row.Position,
				ProviderIDs: map[string]string{},
			}
			byID[row.CanonicalID] = rec
			order = append(order, row.CanonicalID)
		}
		if row.Provider != "" && row.NativeID != "" {
			if prev, claimed := rec.ProviderIDs[row.Provider]; claimed && prev != row.NativeID {
				return nil, eris.Errorf("entity: %s has conflicting %s ids %q and %q",
					row.CanonicalID, row.Provider, prev, row.NativeID)
			}
			rec.ProviderIDs[row.Provider] = row.NativeID
		}
	}

	out := make([]model.CrosswalkRecord, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

// ReadAliasCSV parses curated alias rows. first_seen_at is optional RFC 3339;
// blank means "now" at store-insert time.
func ReadAliasCSV(r io.Reader) ([]model.AliasRecord, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return nil, eris.Wrap(err, "entity: alias csv header")
	}

	var out []model.AliasRecord
	for {
		var row aliasRow
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "entity: alias csv row")
		}
		if row.CanonicalID == "" || row.AliasText == "" || row.Source == "" {
			return nil, eris.Errorf("entity: alias row needs canonical_id, alias_text, source (got %+v)", row)
		}
		rec := model.AliasRecord{
			CanonicalID: row.CanonicalID,
			AliasText:   row.AliasText,
			Source:      row.Source,
		}
		if row.FirstSeenAt != "" {
			t, err := time.Parse(time.RFC3339, row.FirstSeenAt)
			if err != nil {
				return nil, eris.Wrapf(err, "entity: alias first_seen_at %q", row.FirstSeenAt)
			}
			rec.FirstSeenAt = t.UTC()
		}
		out = append(out, rec)
	}
	return out, nil
}

// ReadObservationsCSV parses the transient observation rows consumed by the
// consensus aggregator.
func ReadObservationsCSV(r io.Reader) ([]model.Observation, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return nil, eris.Wrap(err, "entity: observations csv header")
	}

	var out []model.Observation
	for {
		var o model.Observation
		if err := dec.Decode(&o); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "entity: observations csv row")
		}
		out = append(out, o)
	}
	return out, nil
}

// OpenCrosswalk reads a crosswalk file, dispatching on extension.
func OpenCrosswalk(path string) ([]model.CrosswalkRecord, error) {
	if len(path) > 5 && path[len(path)-5:] == ".xlsx" {
		return ReadCrosswalkXLSX(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "entity: open %s", path)
	}
	defer f.Close()
	return ReadCrosswalkCSV(f)
}
