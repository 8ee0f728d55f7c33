package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{name: "valid", input: "2025-09-07", want: NewDate(2025, time.September, 7)},
		{name: "whitespace", input: " 2025-09-07 ", want: NewDate(2025, time.September, 7)},
		{name: "wrong layout", input: "09/07/2025", wantErr: true},
		{name: "not a date", input: "latest", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want))
		})
	}
}

func TestDateOfTruncatesToUTCDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 23:30 Eastern is already the next day in UTC.
	late := time.Date(2025, time.September, 6, 23, 30, 0, 0, loc)
	assert.Equal(t, "2025-09-07", DateOf(late).String())
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2025, time.September, 7)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-09-07"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Equal(d))

	var zero Date
	require.NoError(t, json.Unmarshal([]byte(`null`), &zero))
	assert.True(t, zero.IsZero())
}

func TestDateOrdering(t *testing.T) {
	early := NewDate(2025, time.September, 1)
	late := NewDate(2025, time.September, 7)

	assert.True(t, early.Before(late))
	assert.True(t, late.After(early))
	assert.False(t, early.Equal(late))
}

func TestManifestKey(t *testing.T) {
	m := Manifest{
		Source:       "statsinc",
		Dataset:      "weekly_stats",
		SnapshotDate: NewDate(2025, time.September, 7),
	}
	assert.Equal(t, "statsinc/weekly_stats/2025-09-07", m.Key())
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusCurrent, StatusHistorical, StatusArchived} {
		assert.True(t, ValidStatus(s), string(s))
	}
	assert.False(t, ValidStatus("deleted"))
	assert.False(t, ValidStatus(""))
}
