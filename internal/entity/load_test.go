package entity

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const crosswalkCSV = `canonical_id,display_name,team,position,provider,native_id
plr_0001,Patrick Mahomes,KC,QB,statsinc,si-1001
plr_0001,Patrick Mahomes,KC,QB,liveodds,lo-77
plr_0002,Josh Allen,BUF,QB,statsinc,si-1002
`

func TestReadCrosswalkCSV(t *testing.T) {
	recs, err := ReadCrosswalkCSV(strings.NewReader(crosswalkCSV))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "plr_0001", recs[0].CanonicalID)
	assert.Equal(t, "Patrick Mahomes", recs[0].DisplayName)
	assert.Equal(t, map[string]string{"statsinc": "si-1001", "liveodds": "lo-77"}, recs[0].ProviderIDs)
	assert.Equal(t, "plr_0002", recs[1].CanonicalID)
}

func TestReadCrosswalkCSVConflictingNativeID(t *testing.T) {
	bad := `canonical_id,display_name,team,position,provider,native_id
plr_0001,Patrick Mahomes,KC,QB,statsinc,si-1001
plr_0001,Patrick Mahomes,KC,QB,statsinc,si-9999
`
	_, err := ReadCrosswalkCSV(strings.NewReader(bad))
	require.Error(t, err)
}

func TestReadCrosswalkCSVMissingCanonicalID(t *testing.T) {
	bad := `canonical_id,display_name,team,position,provider,native_id
,Patrick Mahomes,KC,QB,statsinc,si-1001
`
	_, err := ReadCrosswalkCSV(strings.NewReader(bad))
	require.Error(t, err)
}

func TestReadAliasCSV(t *testing.T) {
	in := `canonical_id,alias_text,source,first_seen_at
plr_0001,P. Mahomes II,liveodds,2025-08-01T12:00:00Z
plr_0002,Joshua Allen,statsinc,
`
	recs, err := ReadAliasCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "plr_0001", recs[0].CanonicalID)
	assert.Equal(t, time.Date(2025, time.August, 1, 12, 0, 0, 0, time.UTC), recs[0].FirstSeenAt)
	assert.True(t, recs[1].FirstSeenAt.IsZero())
}

func TestReadAliasCSVRejectsIncompleteRow(t *testing.T) {
	in := `canonical_id,alias_text,source,first_seen_at
plr_0001,,liveodds,
`
	_, err := ReadAliasCSV(strings.NewReader(in))
	require.Error(t, err)
}

func TestReadObservationsCSV(t *testing.T) {
	in := `canonical_id,provider,metric,value,as_of,weight
plr_0001,statsinc,projected_points,21.5,2025-09-07,1.0
plr_0001,liveodds,projected_points,23.0,2025-09-07,0.5
`
	obs, err := ReadObservationsCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.Equal(t, "statsinc", obs[0].Provider)
	assert.Equal(t, 21.5, obs[0].Value)
	assert.Equal(t, "2025-09-07", obs[0].AsOf.String())
	assert.Equal(t, 0.5, obs[1].Weight)
}
