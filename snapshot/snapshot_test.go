package snapshot_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/placement-points/flows"
	"github.com/warp/placement-points/scoring"
	"github.com/warp/placement-points/snapshot"
)

func sampleSession() snapshot.Session {
	return snapshot.Session{
		SelectedFlowID: flows.IDTransfer,
		Years: []scoring.WorkYear{
			{ID: "y0", Year: 2022, TotalWeeklyHours: 23, Placements: []scoring.Placement{
				{SchoolName: "Γυμνάσιο Άη Στράτη", Months: 12, MSD: 12, WeeklyHours: 23},
			}},
			{ID: "y1", Year: 2023, TotalWeeklyHours: 23, Placements: []scoring.Placement{
				{SchoolName: "1ο Γυμνάσιο Σάμου", Months: 12, MSD: 3, WeeklyHours: 12},
				{SchoolName: "Γυμνάσιο Φούρνων", Months: 12, MSD: 11, WeeklyHours: 11},
			}},
			{ID: "y2", Year: 2024, IsSubstitute: true, TotalWeeklyHours: 23, SubstituteMonths: 7.5, Placements: []scoring.Placement{
				{SchoolName: "Κατάστημα Κράτησης", Months: 7.5, MSD: 10, IsPrison: true, WeeklyHours: 20},
			}},
		},
		Flags:      scoring.Flags{HasMarriage: true, ChildrenCount: 4, HasFirstPreference: true},
		ExportDate: time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC),
		Version:    snapshot.Version,
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	// GIVEN: A session and its score
	session := sampleSession()
	flow := flows.Transfer()
	before := scoring.Engine{}.Score(session.Input(flow))

	// WHEN: Exporting and importing it
	data, err := snapshot.Export(session)
	require.NoError(t, err)
	imported, err := snapshot.Import(data)
	require.NoError(t, err)

	// THEN: The session and the score are unchanged
	assert.Equal(t, session, imported)
	assert.Equal(t, before, scoring.Engine{}.Score(imported.Input(flow)))
}

func TestExport_FileShape(t *testing.T) {
	data, err := snapshot.Export(sampleSession())
	require.NoError(t, err)

	out := string(data)
	for _, field := range []string{
		`"selectedFlowId": "flow-2"`,
		`"yearsList": [`,
		`"hasIvf": false`,
		`"exportDate": "2025-09-01T10:00:00Z"`,
		`"version": "1.0"`,
		`"substituteMonths": 7.5`,
	} {
		assert.Contains(t, out, field)
	}
}

func TestExport_FillsDateAndVersion(t *testing.T) {
	data, err := snapshot.Export(snapshot.Session{})
	require.NoError(t, err)

	s, err := snapshot.Import(data)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Version, s.Version)
	assert.False(t, s.ExportDate.IsZero())
	assert.Empty(t, s.Years)
}

func TestImport_Defaults(t *testing.T) {
	// GIVEN: An old backup with only the required fields
	data := []byte(`{"version": "1.0", "yearsList": [{"year": 2020, "placements": [{"msd": 4}]}]}`)

	s, err := snapshot.Import(data)

	// THEN: One-time answers and the flow default to zero values
	require.NoError(t, err)
	assert.Equal(t, "", s.SelectedFlowID)
	assert.Equal(t, scoring.Flags{}, s.Flags)
	require.Len(t, s.Years, 1)
	assert.Equal(t, 4, s.Years[0].Placements[0].MSD)
	assert.True(t, s.ExportDate.IsZero())
}

func TestImport_Invalid(t *testing.T) {
	tests := map[string]string{
		"not json":          `{"version": `,
		"missing version":   `{"yearsList": []}`,
		"empty version":     `{"version": "", "yearsList": []}`,
		"null version":      `{"version": null, "yearsList": []}`,
		"false version":     `{"version": false, "yearsList": []}`,
		"zero version":      `{"version": 0, "yearsList": []}`,
		"object version":    `{"version": {}, "yearsList": []}`,
		"missing yearsList": `{"version": "1.0"}`,
		"yearsList object":  `{"version": "1.0", "yearsList": {"0": {}}}`,
		"yearsList null":    `{"version": "1.0", "yearsList": null}`,
		"bad year shape":    `{"version": "1.0", "yearsList": [{"year": "2020"}]}`,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := snapshot.Import([]byte(data))
			assert.ErrorIs(t, err, snapshot.ErrInvalidSnapshot)
		})
	}
}

func TestImport_NumericVersion(t *testing.T) {
	// GIVEN: A backup whose version was written as a number
	data := []byte(`{"version": 1, "yearsList": [{"year": 2021, "placements": [{"months": 12, "msd": 7}]}]}`)

	// WHEN: Importing it
	s, err := snapshot.Import(data)

	// THEN: It loads and keeps the version text
	require.NoError(t, err)
	assert.Equal(t, "1", s.Version)
	require.Len(t, s.Years, 1)
	assert.Equal(t, 7, s.Years[0].Placements[0].MSD)
}

func TestImport_LeadingWhitespaceArray(t *testing.T) {
	_, err := snapshot.Import([]byte("{\"version\": \"1.0\", \"yearsList\":\n\t [ ]}"))
	assert.NoError(t, err)
}

func TestFileName(t *testing.T) {
	athens := time.FixedZone("EET", 2*60*60)
	assert.Equal(t, "metathesi-data-2025-09-01.json", snapshot.FileName(time.Date(2025, 9, 2, 1, 0, 0, 0, athens)))
	assert.True(t, strings.HasSuffix(snapshot.FileName(time.Now()), ".json"))
}
