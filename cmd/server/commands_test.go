package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/placement-points/config"
	"github.com/warp/placement-points/flows"
	"github.com/warp/placement-points/scoring"
)

func TestLookupFlow_Presets(t *testing.T) {
	flow, err := lookupFlow(context.Background(), "apospasi", false)
	require.NoError(t, err)
	assert.Equal(t, flows.IDSecondment, flow.ID)

	_, err = lookupFlow(context.Background(), "flow-9", false)
	assert.Error(t, err)
}

func TestLookupFlow_Database(t *testing.T) {
	// GIVEN: A seeded SQLite database configured for the CLI
	cfg := config.Default()
	cfg.Database.DSN = filepath.Join(t.TempDir(), "points.db")
	app = &App{cfg: cfg, logger: zap.NewNop()}
	t.Cleanup(func() { app = nil })

	cmd := seedCmd()
	cmd.SetOut(&bytes.Buffer{})
	require.NoError(t, cmd.RunE(cmd, nil))

	// WHEN: Resolving a flow from the database
	flow, err := lookupFlow(context.Background(), "metathesi", true)

	// THEN: The stored transfer flow is returned
	require.NoError(t, err)
	assert.Equal(t, flows.IDTransfer, flow.ID)
	assert.Equal(t, flows.Transfer().CriteriaSet(), flow.CriteriaSet())
}

func TestScoreCmd(t *testing.T) {
	// GIVEN: A backup file for a transfer applicant
	app = &App{cfg: config.Default(), logger: zap.NewNop()}
	t.Cleanup(func() { app = nil })

	path := filepath.Join(t.TempDir(), "backup.json")
	data := `{
		"selectedFlowId": "flow-2",
		"version": "1.0",
		"hasMarriage": true,
		"yearsList": [
			{"year": 2021, "totalWeeklyHours": 23, "placements": [{"months": 12, "msd": 12, "weeklyHours": 23}]},
			{"year": 2022, "totalWeeklyHours": 23, "placements": [{"months": 12, "msd": 10, "weeklyHours": 23}]}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	// WHEN: Scoring it
	var out bytes.Buffer
	cmd := scoreCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{path})
	require.NoError(t, cmd.Execute())

	// THEN: The breakdown is printed with two decimals
	assert.Contains(t, out.String(), "Hardship:   88.00")
	assert.Contains(t, out.String(), "Seniority:  5.00")
	assert.Contains(t, out.String(), "One-time:   4.00")
	assert.Contains(t, out.String(), "Total:      97.00")
}

func TestPrintResult_Warnings(t *testing.T) {
	var out bytes.Buffer
	printResult(&out, flows.Transfer(), scoring.Result{
		Total:    1.0 / 3,
		Warnings: []scoring.Warning{{Code: scoring.WarnDuplicateYear, Message: "year 2020 appears more than once"}},
	})

	assert.Contains(t, out.String(), "Total:      0.33")
	assert.Contains(t, out.String(), "warning: duplicate_year: year 2020 appears more than once")
}

func TestPrintResult_HardshipByYear(t *testing.T) {
	// GIVEN: A transfer result where 2021 was entered twice
	r := scoring.Result{
		Hardship: 30,
		Years: []scoring.YearScore{
			{Index: 0, Year: 2022, Hardship: 10},
			{Index: 1, Year: 2021, Hardship: 12},
			{Index: 2, Year: 2021, Hardship: 8},
		},
	}

	// WHEN: Printing it
	var out bytes.Buffer
	printResult(&out, flows.Transfer(), r)

	// THEN: Years are listed once each, oldest first, with their summed hardship
	text := out.String()
	assert.Contains(t, text, "Hardship:   30.00")
	assert.Contains(t, text, "  2021      20.00\n")
	assert.Contains(t, text, "  2022      10.00\n")
	assert.Equal(t, 1, strings.Count(text, "2021"))
	assert.Less(t, strings.Index(text, "2021"), strings.Index(text, "2022"))
}

func TestPrintResult_NoHardshipOffTrack(t *testing.T) {
	var out bytes.Buffer
	printResult(&out, flows.Secondment(), scoring.Result{Seniority: 12, Total: 12})

	assert.NotContains(t, out.String(), "Hardship:")
	assert.Contains(t, out.String(), "Seniority:  12.00")
}
