/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Field names are
  camelCase to match the calculator front-end and the snapshot file
  format it exports.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Flows:
    FlowDTO (wraps factory.FlowJSON), CriterionDTO

  Groups (stored work years):
    GroupDTO, PlacementDTO, CreateGroupRequest, UpdateGroupRequest,
    BatchCreateGroupsRequest, BatchResultDTO, AddPlacementRequest

  Scoring:
    ScoreDTO, YearScoreDTO, WarningDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Request types carry validator/v10 struct tags; decodeRequest runs them
  after decoding. Scoring never rejects input, so score bodies are not
  validated beyond JSON shape.

ROUNDING:
  Scores are rounded to two decimals here and nowhere else.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/flow.go: FlowJSON type
  - snapshot/snapshot.go: Session file shape
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/placement-points/factory"
	"github.com/warp/placement-points/scoring"
	"github.com/warp/placement-points/store"
)

// =============================================================================
// FLOWS
// =============================================================================

// FlowDTO represents a flow in API responses.
type FlowDTO struct {
	factory.FlowJSON
	SupportsSubstitute bool `json:"supportsSubstitute"`
}

// CriterionDTO represents a catalog entry.
type CriterionDTO struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

func toFlowDTO(rec store.FlowRecord) FlowDTO {
	return FlowDTO{
		FlowJSON:           rec.FlowJSON(),
		SupportsSubstitute: scoring.CanonicalSlug(rec.Slug).SupportsSubstitute(),
	}
}

// =============================================================================
// GROUPS
// =============================================================================

// GroupDTO represents a stored work year.
type GroupDTO struct {
	ID                 string         `json:"id"`
	FlowID             string         `json:"flowId"`
	FlowName           string         `json:"flowName,omitempty"`
	FlowSlug           string         `json:"flowSlug,omitempty"`
	Year               int            `json:"year"`
	IsSubstitute       bool           `json:"isSubstitute"`
	TotalWeeklyHours   float64        `json:"totalWeeklyHours"`
	SubstituteMonths   float64        `json:"substituteMonths"`
	HasMarriage        bool           `json:"hasMarriage"`
	ChildrenCount      int            `json:"childrenCount"`
	HasSynypiretisi    bool           `json:"hasSynypiretisi"`
	HasEntopiotita     bool           `json:"hasEntopiotita"`
	HasStudies         bool           `json:"hasStudies"`
	HasIVF             bool           `json:"hasIvf"`
	HasFirstPreference bool           `json:"hasFirstPreference"`
	Placements         []PlacementDTO `json:"placements"`
	CreatedAt          string         `json:"createdAt,omitempty"`
}

// PlacementDTO represents a school placement.
type PlacementDTO struct {
	ID          string  `json:"id"`
	SchoolName  string  `json:"schoolName"`
	Months      float64 `json:"months"`
	MSD         int     `json:"msd"`
	IsPrison    bool    `json:"isPrison"`
	WeeklyHours float64 `json:"weeklyHours"`
}

// PlacementRequest is a placement inside a group request.
type PlacementRequest struct {
	SchoolName  string  `json:"schoolName"`
	Months      float64 `json:"months" validate:"min=0,max=12"`
	MSD         int     `json:"msd" validate:"min=1,max=14"`
	IsPrison    bool    `json:"isPrison"`
	WeeklyHours float64 `json:"weeklyHours" validate:"min=0"`
}

// CreateGroupRequest is the request to store a work year.
type CreateGroupRequest struct {
	FlowID             string             `json:"flowId" validate:"required"`
	Year               int                `json:"year" validate:"required,min=1950,max=2100"`
	IsSubstitute       bool               `json:"isSubstitute"`
	TotalWeeklyHours   float64            `json:"totalWeeklyHours" validate:"min=0"`
	SubstituteMonths   float64            `json:"substituteMonths" validate:"min=0,max=10"`
	HasMarriage        bool               `json:"hasMarriage"`
	ChildrenCount      int                `json:"childrenCount" validate:"min=0"`
	HasSynypiretisi    bool               `json:"hasSynypiretisi"`
	HasEntopiotita     bool               `json:"hasEntopiotita"`
	HasStudies         bool               `json:"hasStudies"`
	HasIVF             bool               `json:"hasIvf"`
	HasFirstPreference bool               `json:"hasFirstPreference"`
	Placements         []PlacementRequest `json:"placements" validate:"dive"`
}

// UpdateGroupRequest patches a stored work year. Nil fields are unchanged.
type UpdateGroupRequest struct {
	FlowID             *string  `json:"flowId" validate:"omitempty,min=1"`
	Year               *int     `json:"year" validate:"omitempty,min=1950,max=2100"`
	IsSubstitute       *bool    `json:"isSubstitute"`
	TotalWeeklyHours   *float64 `json:"totalWeeklyHours" validate:"omitempty,min=0"`
	SubstituteMonths   *float64 `json:"substituteMonths" validate:"omitempty,min=0,max=10"`
	HasMarriage        *bool    `json:"hasMarriage"`
	ChildrenCount      *int     `json:"childrenCount" validate:"omitempty,min=0"`
	HasSynypiretisi    *bool    `json:"hasSynypiretisi"`
	HasEntopiotita     *bool    `json:"hasEntopiotita"`
	HasStudies         *bool    `json:"hasStudies"`
	HasIVF             *bool    `json:"hasIvf"`
	HasFirstPreference *bool    `json:"hasFirstPreference"`
}

// BatchCreateGroupsRequest stores several work years at once.
type BatchCreateGroupsRequest struct {
	Groups []CreateGroupRequest `json:"groups" validate:"required,min=1"`
}

// Batch item outcomes.
const (
	BatchCreated = "created"
	BatchExists  = "exists"
	BatchError   = "error"
)

// BatchResultDTO is the outcome for one item of a batch.
type BatchResultDTO struct {
	Index  int    `json:"index"`
	Year   int    `json:"year"`
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// AddPlacementRequest adds a placement to a stored year.
type AddPlacementRequest struct {
	GroupID     string  `json:"groupId" validate:"required"`
	SchoolName  string  `json:"schoolName"`
	Months      float64 `json:"months" validate:"min=0,max=12"`
	MSD         int     `json:"msd" validate:"min=1,max=14"`
	IsPrison    bool    `json:"isPrison"`
	WeeklyHours float64 `json:"weeklyHours" validate:"min=0"`
}

func toGroupDTO(y store.YearRecord) GroupDTO {
	dto := GroupDTO{
		ID:                 y.ID,
		FlowID:             y.FlowID,
		FlowName:           y.FlowName,
		FlowSlug:           y.FlowSlug,
		Year:               y.Year,
		IsSubstitute:       y.IsSubstitute,
		TotalWeeklyHours:   y.TotalWeeklyHours,
		SubstituteMonths:   y.SubstituteMonths,
		HasMarriage:        y.HasMarriage,
		ChildrenCount:      y.ChildrenCount,
		HasSynypiretisi:    y.HasSynypiretisi,
		HasEntopiotita:     y.HasEntopiotita,
		HasStudies:         y.HasStudies,
		HasIVF:             y.HasIVF,
		HasFirstPreference: y.HasFirstPreference,
		Placements:         make([]PlacementDTO, len(y.Placements)),
	}
	if !y.CreatedAt.IsZero() {
		dto.CreatedAt = y.CreatedAt.Format(time.RFC3339)
	}
	for i, p := range y.Placements {
		dto.Placements[i] = PlacementDTO{
			ID:          p.ID,
			SchoolName:  p.SchoolName,
			Months:      p.Months,
			MSD:         p.MSD,
			IsPrison:    p.IsPrison,
			WeeklyHours: p.WeeklyHours,
		}
	}
	return dto
}

// record converts the request into a year record. IDs are assigned by the
// caller.
func (req CreateGroupRequest) record(id, flowID string, newID func() string) store.YearRecord {
	y := store.YearRecord{
		ID:                 id,
		FlowID:             flowID,
		Year:               req.Year,
		IsSubstitute:       req.IsSubstitute,
		TotalWeeklyHours:   req.TotalWeeklyHours,
		SubstituteMonths:   req.SubstituteMonths,
		HasMarriage:        req.HasMarriage,
		ChildrenCount:      req.ChildrenCount,
		HasSynypiretisi:    req.HasSynypiretisi,
		HasEntopiotita:     req.HasEntopiotita,
		HasStudies:         req.HasStudies,
		HasIVF:             req.HasIVF,
		HasFirstPreference: req.HasFirstPreference,
	}
	for _, p := range req.Placements {
		y.Placements = append(y.Placements, store.PlacementRecord{
			ID:          newID(),
			YearID:      id,
			SchoolName:  p.SchoolName,
			Months:      p.Months,
			MSD:         p.MSD,
			IsPrison:    p.IsPrison,
			WeeklyHours: p.WeeklyHours,
		})
	}
	return y
}

// apply copies the non-nil fields onto y.
func (req UpdateGroupRequest) apply(y *store.YearRecord) {
	if req.FlowID != nil {
		y.FlowID = *req.FlowID
	}
	if req.Year != nil {
		y.Year = *req.Year
	}
	if req.IsSubstitute != nil {
		y.IsSubstitute = *req.IsSubstitute
	}
	if req.TotalWeeklyHours != nil {
		y.TotalWeeklyHours = *req.TotalWeeklyHours
	}
	if req.SubstituteMonths != nil {
		y.SubstituteMonths = *req.SubstituteMonths
	}
	if req.HasMarriage != nil {
		y.HasMarriage = *req.HasMarriage
	}
	if req.ChildrenCount != nil {
		y.ChildrenCount = *req.ChildrenCount
	}
	if req.HasSynypiretisi != nil {
		y.HasSynypiretisi = *req.HasSynypiretisi
	}
	if req.HasEntopiotita != nil {
		y.HasEntopiotita = *req.HasEntopiotita
	}
	if req.HasStudies != nil {
		y.HasStudies = *req.HasStudies
	}
	if req.HasIVF != nil {
		y.HasIVF = *req.HasIVF
	}
	if req.HasFirstPreference != nil {
		y.HasFirstPreference = *req.HasFirstPreference
	}
}

// =============================================================================
// SCORING
// =============================================================================

// ScoreDTO is a rounded score breakdown.
type ScoreDTO struct {
	FlowID    string         `json:"flowId"`
	FlowSlug  string         `json:"flowSlug"`
	GroupID   string         `json:"groupId,omitempty"`
	Total     float64        `json:"total"`
	OneTime   float64        `json:"oneTime"`
	Seniority float64        `json:"seniority"`
	Hardship  float64        `json:"hardship"`
	Years     []YearScoreDTO `json:"years"`
	Warnings  []WarningDTO   `json:"warnings"`
}

// YearScoreDTO is the hardship contribution of one year.
type YearScoreDTO struct {
	Index    int     `json:"index"`
	ID       string  `json:"id,omitempty"`
	Year     int     `json:"year"`
	Hardship float64 `json:"hardship"`
}

// WarningDTO is an advisory warning.
type WarningDTO struct {
	Code      string `json:"code"`
	YearIndex int    `json:"yearIndex"`
	Year      int    `json:"year"`
	Message   string `json:"message"`
}

func toScoreDTO(flow scoring.Flow, r scoring.Result) ScoreDTO {
	dto := ScoreDTO{
		FlowID:    flow.ID,
		FlowSlug:  string(flow.Slug),
		Total:     round2(r.Total),
		OneTime:   round2(r.OneTime),
		Seniority: round2(r.Seniority),
		Hardship:  round2(r.Hardship),
		Years:     make([]YearScoreDTO, len(r.Years)),
		Warnings:  make([]WarningDTO, len(r.Warnings)),
	}
	for i, y := range r.Years {
		dto.Years[i] = YearScoreDTO{Index: y.Index, ID: y.YearID, Year: y.Year, Hardship: round2(y.Hardship)}
	}
	for i, w := range r.Warnings {
		dto.Warnings[i] = WarningDTO{Code: string(w.Code), YearIndex: w.YearIndex, Year: w.Year, Message: w.Message}
	}
	return dto
}

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// =============================================================================
// SCENARIOS / ERRORS
// =============================================================================

// ScenarioDTO describes a demo career history.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	FlowSlug    string `json:"flowSlug"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenarioId" validate:"required"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
