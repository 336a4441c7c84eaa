/*
scenarios.go - Demo career histories for testing and demonstrations

PURPOSE:

	Provides pre-built career histories that populate the database with
	realistic stored years. Each scenario exercises a specific part of the
	scoring rules so the calculator can be demonstrated end to end.

AVAILABLE SCENARIOS:

	transfer-remote-islands:  Transfer track, two high-hardship permanent
	                          years, a mixed year and a substitute year
	secondment-long-career:   Secondment track, 12 years of service
	                          (1.5x seniority bracket)
	new-appointee:            First-year appointment, one-time answers only
	substitute-partial-load:  Transfer track, substitute year whose
	                          placements cover less than the nominal load

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Seed the criterion catalog and preset flows
 3. Store the scenario's years with their placements

USAGE VIA API:

	POST /api/scenarios/load
	{"scenarioId": "transfer-remote-islands"}

ADDING NEW SCENARIOS:
 1. Add an entry to 'scenarios' with its metadata and years
 2. Add a test in scenarios_test.go pinning the expected score

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase
  - flows/presets.go: Preset flows the scenarios are stored under
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/warp/placement-points/flows"
	"github.com/warp/placement-points/store"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	flowID string
	years  func() []store.YearRecord
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "transfer-remote-islands",
			Name:        "Transfer: Remote Islands",
			Description: "Two full years at MSD 10+ schools, a split year and a substitute year",
			FlowSlug:    "transfer",
		},
		flowID: flows.IDTransfer,
		years:  transferRemoteIslandsYears,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "secondment-long-career",
			Name:        "Secondment: Long Career",
			Description: "Twelve years of service, postgraduate studies and IVF",
			FlowSlug:    "secondment",
		},
		flowID: flows.IDSecondment,
		years:  secondmentLongCareerYears,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "new-appointee",
			Name:        "New Appointee",
			Description: "First appointment, married with one child",
			FlowSlug:    "new-appointee",
		},
		flowID: flows.IDNewAppointee,
		years:  newAppointeeYears,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "substitute-partial-load",
			Name:        "Substitute: Partial Load",
			Description: "Substitute year whose placements cover 18 of 23 weekly hours",
			FlowSlug:    "transfer",
		},
		flowID: flows.IDTransfer,
		years:  substitutePartialLoadYears,
	},
}

// scenarioState tracks the currently loaded scenario.
type scenarioState struct {
	mu      sync.Mutex
	current string
}

func (s *scenarioState) set(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = id
}

func (s *scenarioState) get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	s, ok := findScenario(h.scenarios.get())
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, s.ScenarioDTO)
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err := h.loadScenario(r.Context(), s); err != nil {
		h.writeServerError(w, fmt.Sprintf("Failed to load scenario %s", s.ID), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": s.ID})
}

func (h *Handler) loadScenario(ctx context.Context, s scenario) error {
	h.scenarios.set("")

	if err := h.Store.Reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if err := store.Seed(ctx, h.Store); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	for _, y := range s.years() {
		y.FlowID = s.flowID
		if err := h.Store.CreateYear(ctx, y); err != nil {
			return fmt.Errorf("year %d: %w", y.Year, err)
		}
	}

	h.scenarios.set(s.ID)
	return nil
}

// =============================================================================
// SCENARIO DATA
// =============================================================================

func permanentYear(id string, year int, placements ...store.PlacementRecord) store.YearRecord {
	var hours float64
	for i := range placements {
		placements[i].ID = fmt.Sprintf("%s-p%d", id, i+1)
		placements[i].YearID = id
		hours += placements[i].WeeklyHours
	}
	return store.YearRecord{ID: id, Year: year, TotalWeeklyHours: hours, Placements: placements}
}

func school(name string, msd int, months, hours float64) store.PlacementRecord {
	return store.PlacementRecord{SchoolName: name, MSD: msd, Months: months, WeeklyHours: hours}
}

// Hardship: 2021 and 2022 qualify together (24*2, 20*2); 2023 is mixed;
// 2024 is a substitute year at MSD 12 for 8 months.
func transferRemoteIslandsYears() []store.YearRecord {
	y2021 := permanentYear("sc-tri-2021", 2021, school("Γυμνάσιο Άη Στράτη", 12, 12, 23))
	y2022 := permanentYear("sc-tri-2022", 2022, school("Γυμνάσιο Αγαθονησίου", 10, 12, 23))
	y2023 := permanentYear("sc-tri-2023", 2023,
		school("1ο Γυμνάσιο Σάμου", 3, 12, 12),
		school("Γυμνάσιο Φούρνων", 11, 12, 11),
	)
	y2024 := permanentYear("sc-tri-2024", 2024, school("Λύκειο Λειψών", 12, 8, 23))
	y2024.IsSubstitute = true
	y2024.SubstituteMonths = 8

	y2024.HasMarriage = true
	y2024.ChildrenCount = 2
	y2024.HasFirstPreference = true
	return []store.YearRecord{y2021, y2022, y2023, y2024}
}

func secondmentLongCareerYears() []store.YearRecord {
	var years []store.YearRecord
	for i := 0; i < 12; i++ {
		year := 2013 + i
		years = append(years, permanentYear(fmt.Sprintf("sc-slc-%d", year), year,
			school("2ο Γυμνάσιο Λάρισας", 1, 12, 23)))
	}
	last := &years[len(years)-1]
	last.HasStudies = true
	last.HasIVF = true
	return years
}

func newAppointeeYears() []store.YearRecord {
	y := permanentYear("sc-na-2025", 2025, school("Δημοτικό Σχολείο Καρπάθου", 9, 10, 24))
	y.HasMarriage = true
	y.ChildrenCount = 1
	return []store.YearRecord{y}
}

func substitutePartialLoadYears() []store.YearRecord {
	y := permanentYear("sc-spl-2024", 2024,
		school("Γυμνάσιο Κάσου", 12, 10, 10),
		school("Λύκειο Κάσου", 5, 10, 8),
	)
	y.IsSubstitute = true
	y.TotalWeeklyHours = 23
	y.SubstituteMonths = 10
	return []store.YearRecord{y}
}
