/*
handlers_test.go - Tests for API handlers

Tests for:
- Flow listing, lookup by id / legacy slug, admin save
- Stored years (groups): create, duplicate, batch, patch, delete
- Placements
- Scoring endpoints (session, single group, whole flow)
- Snapshot export / import
- Reset
*/
package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/placement-points/flows"
	"github.com/warp/placement-points/snapshot"
	"github.com/warp/placement-points/store"
	"github.com/warp/placement-points/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func setupTestHandler(t *testing.T) (*Handler, http.Handler) {
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, store.Seed(context.Background(), st))

	return newTestHandler(st)
}

func newTestHandler(st store.Store) (*Handler, http.Handler) {
	h := NewHandler(st, nil)
	n := 0
	h.NewID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return h, NewRouter(h, []string{"http://localhost:3000"})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func fullYear(year, msd int) CreateGroupRequest {
	return CreateGroupRequest{
		FlowID:           flows.IDTransfer,
		Year:             year,
		TotalWeeklyHours: 23,
		Placements: []PlacementRequest{
			{SchoolName: fmt.Sprintf("school %d", year), Months: 12, MSD: msd, WeeklyHours: 23},
		},
	}
}

// =============================================================================
// FLOWS
// =============================================================================

func TestListFlows(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodGet, "/api/flows", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	dtos := decode[[]FlowDTO](t, rec)
	require.Len(t, dtos, 3)

	bySlug := map[string]FlowDTO{}
	for _, d := range dtos {
		bySlug[d.Slug] = d
	}
	assert.True(t, bySlug["transfer"].SupportsSubstitute)
	assert.True(t, bySlug["secondment"].SupportsSubstitute)
	assert.False(t, bySlug["new-appointee"].SupportsSubstitute)
}

func TestGetFlow_ByLegacySlug(t *testing.T) {
	// GIVEN: Seeded flows
	_, router := setupTestHandler(t)

	// WHEN: Asking for the transfer flow by its legacy slug
	rec := doJSON(t, router, http.MethodGet, "/api/flows/metathesi", nil)

	// THEN: The transfer flow is returned
	require.Equal(t, http.StatusOK, rec.Code)
	dto := decode[FlowDTO](t, rec)
	assert.Equal(t, flows.IDTransfer, dto.ID)
	assert.Len(t, dto.FlowCriteria, len(flows.Transfer().Criteria))
}

func TestGetFlow_NotFound(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodGet, "/api/flows/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveFlow_CreateAndScore(t *testing.T) {
	// GIVEN: A custom flow with 3 points per year of service
	_, router := setupTestHandler(t)
	body := `{
		"slug": "custom",
		"name": "Custom",
		"flowCriteria": [
			{"criterion": {"key": "proypiresia"}, "config": {"perYear": 3}},
			{"criterion": {"key": "marriage"}, "config": {"points": "lots"}}
		]
	}`

	// WHEN: Saving it
	rec := doJSON(t, router, http.MethodPost, "/api/flows", body)

	// THEN: It is created with a generated ID
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dto := decode[FlowDTO](t, rec)
	assert.Equal(t, "id-1", dto.ID)

	// AND: Scoring uses the generic per-year rule; the malformed marriage
	// points read as 0
	session := snapshot.File{
		SelectedFlowID: "custom",
		HasMarriage:    true,
		YearsList: []snapshot.YearJSON{
			{Year: 2020, Placements: []snapshot.PlacementJSON{{Months: 12, MSD: 1, WeeklyHours: 23}}},
			{Year: 2021, Placements: []snapshot.PlacementJSON{{Months: 12, MSD: 1, WeeklyHours: 23}}},
		},
	}
	rec = doJSON(t, router, http.MethodPost, "/api/score", session)
	require.Equal(t, http.StatusOK, rec.Code)
	score := decode[ScoreDTO](t, rec)
	assert.Equal(t, 6.0, score.Seniority)
	assert.Equal(t, 0.0, score.OneTime)
	assert.Equal(t, 6.0, score.Total)
}

func TestSaveFlow_SlugConflict(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodPost, "/api/flows", `{"id": "other", "slug": "transfer", "name": "Dup"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// slugRaceStore hides existing slugs from the handler's pre-check, as when
// another request saves the same slug in between.
type slugRaceStore struct {
	store.Store
}

func (slugRaceStore) GetFlowBySlug(context.Context, string) (*store.FlowRecord, error) {
	return nil, nil
}

func TestSaveFlow_SlugTakenAtSave(t *testing.T) {
	// GIVEN: A store whose slug check misses the seeded transfer flow
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, store.Seed(context.Background(), st))
	_, router := newTestHandler(slugRaceStore{Store: st})

	// WHEN: Saving another flow under the transfer slug
	rec := doJSON(t, router, http.MethodPost, "/api/flows", `{"id": "other", "slug": "transfer", "name": "Dup"}`)

	// THEN: The store's slug conflict surfaces as 409
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestSaveFlow_DuplicateCriterion(t *testing.T) {
	// GIVEN: A flow listing marriage twice
	_, router := setupTestHandler(t)
	body := `{
		"slug": "custom",
		"name": "Custom",
		"flowCriteria": [
			{"criterion": {"key": "marriage"}, "config": {"points": 4}},
			{"criterion": {"key": "marriage"}, "config": {"points": 6}}
		]
	}`

	// WHEN: Saving it
	rec := doJSON(t, router, http.MethodPost, "/api/flows", body)

	// THEN: It is rejected as a bad request and nothing is stored
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	rec = doJSON(t, router, http.MethodGet, "/api/flows/custom", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveFlow_MissingName(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodPost, "/api/flows", `{"slug": "custom"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListCriteria(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodGet, "/api/criteria", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dtos := decode[[]CriterionDTO](t, rec)
	assert.Len(t, dtos, 11)
}

// =============================================================================
// GROUPS
// =============================================================================

func TestCreateGroup(t *testing.T) {
	// GIVEN: Seeded flows
	_, router := setupTestHandler(t)

	// WHEN: Storing a year
	req := fullYear(2023, 12)
	req.HasMarriage = true
	rec := doJSON(t, router, http.MethodPost, "/api/groups", req)

	// THEN: It is stored with its placement and flow info
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dto := decode[GroupDTO](t, rec)
	assert.Equal(t, 2023, dto.Year)
	assert.Equal(t, flows.IDTransfer, dto.FlowID)
	assert.Equal(t, "transfer", dto.FlowSlug)
	assert.True(t, dto.HasMarriage)
	require.Len(t, dto.Placements, 1)
	assert.Equal(t, 12, dto.Placements[0].MSD)
}

func TestCreateGroup_Duplicate(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodPost, "/api/groups", fullYear(2023, 12))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/groups", fullYear(2023, 3))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateGroup_AcceptsFlowSlug(t *testing.T) {
	_, router := setupTestHandler(t)

	req := fullYear(2023, 12)
	req.FlowID = "apospasi"
	rec := doJSON(t, router, http.MethodPost, "/api/groups", req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, flows.IDSecondment, decode[GroupDTO](t, rec).FlowID)
}

func TestCreateGroup_Validation(t *testing.T) {
	_, router := setupTestHandler(t)

	tests := []struct {
		name   string
		mutate func(*CreateGroupRequest)
		status int
	}{
		{"msd below range", func(r *CreateGroupRequest) { r.Placements[0].MSD = 0 }, http.StatusBadRequest},
		{"msd above range", func(r *CreateGroupRequest) { r.Placements[0].MSD = 15 }, http.StatusBadRequest},
		{"missing year", func(r *CreateGroupRequest) { r.Year = 0 }, http.StatusBadRequest},
		{"negative children", func(r *CreateGroupRequest) { r.ChildrenCount = -1 }, http.StatusBadRequest},
		{"unknown flow", func(r *CreateGroupRequest) { r.FlowID = "flow-99" }, http.StatusBadRequest},
		{"substitute months above range", func(r *CreateGroupRequest) { r.SubstituteMonths = 11 }, http.StatusBadRequest},
		{"substitute months at max", func(r *CreateGroupRequest) { r.IsSubstitute, r.SubstituteMonths = true, 10 }, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := fullYear(2020, 5)
			tt.mutate(&req)
			rec := doJSON(t, router, http.MethodPost, "/api/groups", req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestBatchCreateGroups(t *testing.T) {
	// GIVEN: A stored 2021 year
	_, router := setupTestHandler(t)
	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/groups", fullYear(2021, 3)).Code)

	invalid := fullYear(2023, 3)
	invalid.Placements[0].MSD = 20

	// WHEN: Posting a batch with a new year, the existing year and an invalid one
	rec := doJSON(t, router, http.MethodPost, "/api/groups/batch", BatchCreateGroupsRequest{
		Groups: []CreateGroupRequest{fullYear(2022, 3), fullYear(2021, 3), invalid},
	})

	// THEN: Each item reports its own outcome
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	results := decode[[]BatchResultDTO](t, rec)
	require.Len(t, results, 3)
	assert.Equal(t, BatchCreated, results[0].Status)
	assert.NotEmpty(t, results[0].ID)
	assert.Equal(t, BatchExists, results[1].Status)
	assert.Equal(t, BatchError, results[2].Status)
	assert.NotEmpty(t, results[2].Error)

	rec = doJSON(t, router, http.MethodGet, "/api/groups", nil)
	assert.Len(t, decode[[]GroupDTO](t, rec), 2)
}

func TestBatchCreateGroups_Empty(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodPost, "/api/groups/batch", `{"groups": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListGroups_LatestFirst(t *testing.T) {
	_, router := setupTestHandler(t)
	for _, y := range []int{2020, 2023, 2021} {
		require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/groups", fullYear(y, 1)).Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/groups", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	groups := decode[[]GroupDTO](t, rec)
	require.Len(t, groups, 3)
	assert.Equal(t, []int{2023, 2021, 2020}, []int{groups[0].Year, groups[1].Year, groups[2].Year})
}

func TestUpdateGroup(t *testing.T) {
	// GIVEN: Stored 2021 and 2022 years
	_, router := setupTestHandler(t)
	created := decode[GroupDTO](t, doJSON(t, router, http.MethodPost, "/api/groups", fullYear(2021, 3)))
	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/groups", fullYear(2022, 3)).Code)

	// WHEN: Patching flags and months
	rec := doJSON(t, router, http.MethodPatch, "/api/groups/"+created.ID,
		`{"isSubstitute": true, "substituteMonths": 7, "childrenCount": 3}`)

	// THEN: Only the patched fields change
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dto := decode[GroupDTO](t, rec)
	assert.True(t, dto.IsSubstitute)
	assert.Equal(t, 7.0, dto.SubstituteMonths)
	assert.Equal(t, 3, dto.ChildrenCount)
	assert.Equal(t, 2021, dto.Year)
	assert.Len(t, dto.Placements, 1)

	// AND: Substitute months above ten are rejected
	rec = doJSON(t, router, http.MethodPatch, "/api/groups/"+created.ID, `{"substituteMonths": 11}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// AND: Moving it onto an existing year conflicts
	rec = doJSON(t, router, http.MethodPatch, "/api/groups/"+created.ID, `{"year": 2022}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpdateGroup_NotFound(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodPatch, "/api/groups/missing", `{"year": 2022}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteGroup(t *testing.T) {
	_, router := setupTestHandler(t)
	created := decode[GroupDTO](t, doJSON(t, router, http.MethodPost, "/api/groups", fullYear(2021, 3)))

	rec := doJSON(t, router, http.MethodDelete, "/api/groups/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/groups/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/groups/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// PLACEMENTS
// =============================================================================

func TestAddPlacement(t *testing.T) {
	_, router := setupTestHandler(t)
	created := decode[GroupDTO](t, doJSON(t, router, http.MethodPost, "/api/groups", fullYear(2021, 3)))

	rec := doJSON(t, router, http.MethodPost, "/api/placements", AddPlacementRequest{
		GroupID: created.ID, SchoolName: "Γυμνάσιο Κορυδαλλού", Months: 12, MSD: 4, IsPrison: true, WeeklyHours: 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	group := decode[GroupDTO](t, doJSON(t, router, http.MethodGet, "/api/groups/"+created.ID, nil))
	require.Len(t, group.Placements, 2)
	assert.True(t, group.Placements[1].IsPrison)
}

func TestAddPlacement_UnknownGroup(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := doJSON(t, router, http.MethodPost, "/api/placements", AddPlacementRequest{
		GroupID: "missing", Months: 12, MSD: 4, WeeklyHours: 5,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// SCORING
// =============================================================================

func TestGroupPoints(t *testing.T) {
	// GIVEN: A lone MSD 12 permanent year with marriage
	_, router := setupTestHandler(t)
	req := fullYear(2023, 12)
	req.HasMarriage = true
	created := decode[GroupDTO](t, doJSON(t, router, http.MethodPost, "/api/groups", req))

	// WHEN: Scoring the group
	rec := doJSON(t, router, http.MethodGet, "/api/groups/"+created.ID+"/points", nil)

	// THEN: hardship 12*2 (no second qualifying year), seniority 1*2.5, marriage 4
	require.Equal(t, http.StatusOK, rec.Code)
	score := decode[ScoreDTO](t, rec)
	assert.Equal(t, created.ID, score.GroupID)
	assert.Equal(t, 24.0, score.Hardship)
	assert.Equal(t, 2.5, score.Seniority)
	assert.Equal(t, 4.0, score.OneTime)
	assert.Equal(t, 30.5, score.Total)
}

func TestFlowScore(t *testing.T) {
	// GIVEN: Two qualifying years stored for the transfer flow; the latest
	// carries the one-time answers
	_, router := setupTestHandler(t)
	y1 := fullYear(2022, 10)
	y2 := fullYear(2023, 12)
	y2.ChildrenCount = 1
	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/groups", y2).Code)
	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/groups", y1).Code)

	// WHEN: Scoring the whole flow
	rec := doJSON(t, router, http.MethodGet, "/api/flows/transfer/score", nil)

	// THEN: Both years are multiplied and listed in year order
	require.Equal(t, http.StatusOK, rec.Code)
	score := decode[ScoreDTO](t, rec)
	require.Len(t, score.Years, 2)
	assert.Equal(t, 2022, score.Years[0].Year)
	assert.Equal(t, 40.0, score.Years[0].Hardship)
	assert.Equal(t, 48.0, score.Years[1].Hardship)
	assert.Equal(t, 5.0, score.Seniority)
	assert.Equal(t, 4.0, score.OneTime)
	assert.Equal(t, 97.0, score.Total)
}

func TestScore_Session(t *testing.T) {
	// GIVEN: A ten-year transfer session at MSD 1
	_, router := setupTestHandler(t)
	session := snapshot.File{SelectedFlowID: flows.IDTransfer}
	for i := 0; i < 10; i++ {
		session.YearsList = append(session.YearsList, snapshot.YearJSON{
			Year:             2014 + i,
			TotalWeeklyHours: 23,
			Placements:       []snapshot.PlacementJSON{{Months: 12, MSD: 1, WeeklyHours: 23}},
		})
	}

	// WHEN: Scoring it
	rec := doJSON(t, router, http.MethodPost, "/api/score", session)

	// THEN: seniority 10*2.5, hardship 10*1
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	score := decode[ScoreDTO](t, rec)
	assert.Equal(t, "transfer", score.FlowSlug)
	assert.Equal(t, 25.0, score.Seniority)
	assert.Equal(t, 10.0, score.Hardship)
	assert.Equal(t, 35.0, score.Total)
	assert.Empty(t, score.Warnings)
}

func TestScore_RoundsAndWarns(t *testing.T) {
	_, router := setupTestHandler(t)
	session := snapshot.File{
		SelectedFlowID: "flow-2",
		YearsList: []snapshot.YearJSON{
			{Year: 2023, TotalWeeklyHours: 23, Placements: []snapshot.PlacementJSON{
				{Months: 12, MSD: 3, WeeklyHours: 12},
				{Months: 12, MSD: 11, WeeklyHours: 10},
			}},
			{Year: 2023, TotalWeeklyHours: 23},
		},
	}

	rec := doJSON(t, router, http.MethodPost, "/api/score", session)
	require.Equal(t, http.StatusOK, rec.Code)
	score := decode[ScoreDTO](t, rec)

	// 12/22*3 + 10/22*22 = 11.636363...
	assert.Equal(t, 11.64, score.Hardship)
	codes := []string{}
	for _, w := range score.Warnings {
		codes = append(codes, w.Code)
	}
	assert.ElementsMatch(t, []string{"hours_mismatch", "duplicate_year"}, codes)
}

func TestScore_FallsBackToPresets(t *testing.T) {
	// GIVEN: An empty, unseeded database
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	_, router := newTestHandler(st)

	// WHEN: Scoring against the secondment preset by legacy slug
	session := snapshot.File{SelectedFlowID: "apospasi", HasIVF: true, HasStudies: true}
	rec := doJSON(t, router, http.MethodPost, "/api/score", session)

	// THEN: The preset is used
	require.Equal(t, http.StatusOK, rec.Code)
	score := decode[ScoreDTO](t, rec)
	assert.Equal(t, flows.IDSecondment, score.FlowID)
	assert.Equal(t, 5.0, score.OneTime)
}

func TestScore_FlowQueryOverrides(t *testing.T) {
	_, router := setupTestHandler(t)
	session := snapshot.File{SelectedFlowID: flows.IDTransfer, HasFirstPreference: true}

	rec := doJSON(t, router, http.MethodPost, "/api/score?flow=secondment", session)
	require.Equal(t, http.StatusOK, rec.Code)
	score := decode[ScoreDTO](t, rec)
	assert.Equal(t, "secondment", score.FlowSlug)
	assert.Equal(t, 0.0, score.OneTime, "secondment has no first-preference criterion")
}

func TestScore_Errors(t *testing.T) {
	_, router := setupTestHandler(t)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, router, http.MethodPost, "/api/score", `{"yearsList": []}`).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, router, http.MethodPost, "/api/score", `{"selectedFlowId": "flow-9"}`).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, router, http.MethodPost, "/api/score", `{not json`).Code)
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

func TestExportSnapshot_RoundTrip(t *testing.T) {
	// GIVEN: A fixed clock and a session
	_, router := setupTestHandler(t)
	restore := timeNow
	timeNow = func() time.Time { return time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { timeNow = restore })

	session := snapshot.File{
		SelectedFlowID: flows.IDTransfer,
		HasMarriage:    true,
		ChildrenCount:  2,
		YearsList: []snapshot.YearJSON{
			{ID: "y0", Year: 2023, TotalWeeklyHours: 23, Placements: []snapshot.PlacementJSON{{Months: 12, MSD: 11, WeeklyHours: 23}}},
			{ID: "y1", Year: 2024, IsSubstitute: true, TotalWeeklyHours: 23, SubstituteMonths: 6,
				Placements: []snapshot.PlacementJSON{{Months: 6, MSD: 12, IsPrison: true, WeeklyHours: 20}}},
		},
	}
	before := decode[ScoreDTO](t, doJSON(t, router, http.MethodPost, "/api/score", session))

	// WHEN: Exporting and importing it again
	rec := doJSON(t, router, http.MethodPost, "/api/snapshot/export", session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="metathesi-data-2025-09-01.json"`, rec.Header().Get("Content-Disposition"))

	exported := rec.Body.String()
	rec = doJSON(t, router, http.MethodPost, "/api/snapshot/import", exported)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	imported := decode[snapshot.File](t, rec)
	assert.Equal(t, snapshot.Version, imported.Version)
	assert.Equal(t, "2025-09-01T10:00:00Z", imported.ExportDate)

	// THEN: Scoring the imported session gives the same result
	after := decode[ScoreDTO](t, doJSON(t, router, http.MethodPost, "/api/score", imported))
	assert.Equal(t, before, after)
}

func TestImportSnapshot_Invalid(t *testing.T) {
	_, router := setupTestHandler(t)

	tests := map[string]string{
		"missing version":   `{"yearsList": []}`,
		"yearsList object":  `{"version": "1.0", "yearsList": {}}`,
		"yearsList missing": `{"version": "1.0"}`,
		"not json":          `nope`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/snapshot/import", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

// =============================================================================
// ADMIN
// =============================================================================

func TestResetDatabase(t *testing.T) {
	// GIVEN: A stored year
	_, router := setupTestHandler(t)
	require.Equal(t, http.StatusCreated, doJSON(t, router, http.MethodPost, "/api/groups", fullYear(2021, 3)).Code)

	// WHEN: Resetting
	rec := doJSON(t, router, http.MethodPost, "/api/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// THEN: Years are gone and the presets are back
	assert.Empty(t, decode[[]GroupDTO](t, doJSON(t, router, http.MethodGet, "/api/groups", nil)))
	assert.Len(t, decode[[]FlowDTO](t, doJSON(t, router, http.MethodGet, "/api/flows", nil)), 3)
}
