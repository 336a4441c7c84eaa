/*
handlers.go - HTTP API handlers for the placement points calculator

PURPOSE:
  Exposes the scoring engine and the stored career history via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to the
  store and the scoring package.

ENDPOINTS:
  Flows:
    GET    /api/flows                 List flows
    POST   /api/flows                 Create or update a flow (admin)
    GET    /api/flows/{id}            Get flow by id or slug
    GET    /api/flows/{id}/score      Score every stored year of the flow
    GET    /api/criteria              Criterion catalog

  Groups (stored work years):
    GET    /api/groups                List stored years, latest first
    POST   /api/groups                Store a year (409 on duplicate flow+year)
    POST   /api/groups/batch          Store several years, per-item outcome
    GET    /api/groups/{id}           Get a stored year
    PATCH  /api/groups/{id}           Patch a stored year
    DELETE /api/groups/{id}           Delete a stored year and its placements
    GET    /api/groups/{id}/points    Score a single stored year
    POST   /api/placements            Add a placement to a stored year

  Calculator:
    POST   /api/score                 Score a session (snapshot body)
    POST   /api/snapshot/export       Normalise a session into a backup file
    POST   /api/snapshot/import       Validate a backup file

  Admin:
    POST   /api/reset                 Clear the database and reseed

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access (SQLite or PostgreSQL)
  - FlowFactory: JSON to Flow conversion
  - Engine: Stateless scoring engine
  - Logger: zap logger for failures

FLOW RESOLUTION:
  A flow reference is tried as a stored id, then as a stored slug (legacy
  slugs accepted), then against the built-in presets. Scoring therefore
  works against an empty database.

ERROR HANDLING:
  Errors are returned as JSON {error, details} with HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (duplicate flow + year, slug taken)
  - 500: Internal errors

SECURITY NOTE:
  No authentication. /api/reset must not be exposed outside development.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo career histories
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/placement-points/factory"
	"github.com/warp/placement-points/flows"
	"github.com/warp/placement-points/scoring"
	"github.com/warp/placement-points/snapshot"
	"github.com/warp/placement-points/store"
)

// maxBodyBytes bounds request bodies; a full career snapshot is a few KB.
const maxBodyBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       store.Store
	FlowFactory *factory.FlowFactory
	Engine      scoring.Engine
	Logger      *zap.Logger

	// NewID generates record IDs. Overridable in tests.
	NewID func() string

	scenarios scenarioState
}

// NewHandler creates a new handler with the given store.
func NewHandler(st store.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:       st,
		FlowFactory: factory.NewFlowFactory(),
		Logger:      logger,
		NewID:       uuid.NewString,
	}
}

var validate = validator.New()

// timeNow stamps exports. Replaced in tests.
var timeNow = func() time.Time { return time.Now().UTC() }

// =============================================================================
// FLOW HANDLERS
// =============================================================================

// ListFlows returns all stored flows.
func (h *Handler) ListFlows(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Store.ListFlows(r.Context())
	if err != nil {
		h.writeServerError(w, "Failed to list flows", err)
		return
	}

	dtos := make([]FlowDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toFlowDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetFlow returns a flow by id or slug.
func (h *Handler) GetFlow(w http.ResponseWriter, r *http.Request) {
	rec, err := h.findFlowRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServerError(w, "Failed to get flow", err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "Flow not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toFlowDTO(*rec))
}

// SaveFlow creates or replaces a flow definition.
func (h *Handler) SaveFlow(w http.ResponseWriter, r *http.Request) {
	var fj factory.FlowJSON
	if err := decodeJSON(r, &fj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(fj.Name) == "" || strings.TrimSpace(fj.Slug) == "" {
		writeError(w, http.StatusBadRequest, "Flow name and slug are required", nil)
		return
	}
	if fj.ID == "" {
		fj.ID = h.NewID()
	}

	// Reject configs that do not parse before anything is stored.
	if _, err := h.FlowFactory.FromJSON(fj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid flow configuration", err)
		return
	}

	ctx := r.Context()
	rec := store.FlowRecordFromJSON(fj)

	existing, err := h.Store.GetFlowBySlug(ctx, rec.Slug)
	if err != nil {
		h.writeServerError(w, "Failed to check flow slug", err)
		return
	}
	if existing != nil && existing.ID != rec.ID {
		writeError(w, http.StatusConflict, fmt.Sprintf("Slug %q is used by flow %s", rec.Slug, existing.ID), nil)
		return
	}

	if err := h.Store.SaveFlow(ctx, rec); err != nil {
		if errors.Is(err, store.ErrSlugTaken) {
			writeError(w, http.StatusConflict, fmt.Sprintf("Slug %q is already in use", rec.Slug), nil)
			return
		}
		h.writeServerError(w, "Failed to save flow", err)
		return
	}

	saved, err := h.Store.GetFlow(ctx, rec.ID)
	if err != nil || saved == nil {
		h.writeServerError(w, "Failed to reload flow", err)
		return
	}

	status := http.StatusCreated
	if existing != nil {
		status = http.StatusOK
	}
	writeJSON(w, status, toFlowDTO(*saved))
}

// ListCriteria returns the criterion catalog.
func (h *Handler) ListCriteria(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Store.ListCriteria(r.Context())
	if err != nil {
		h.writeServerError(w, "Failed to list criteria", err)
		return
	}

	dtos := make([]CriterionDTO, len(recs))
	for i, c := range recs {
		dtos[i] = CriterionDTO{Key: c.Key, Label: c.Label}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// FlowScore scores every stored year of a flow. One-time answers come from
// the most recent stored year.
func (h *Handler) FlowScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := h.findFlowRecord(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServerError(w, "Failed to get flow", err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "Flow not found", nil)
		return
	}

	flow, err := rec.Flow()
	if err != nil {
		h.writeServerError(w, "Stored flow is invalid", err)
		return
	}

	stored, err := h.Store.ListYearsByFlow(ctx, rec.ID)
	if err != nil {
		h.writeServerError(w, "Failed to list years", err)
		return
	}

	years, flags := store.History(stored)
	result := h.Engine.Score(scoring.Input{Flow: flow, Years: years, Flags: flags})
	writeJSON(w, http.StatusOK, toScoreDTO(flow, result))
}

// =============================================================================
// GROUP HANDLERS
// =============================================================================

// ListGroups returns all stored years, latest first.
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	years, err := h.Store.ListYears(r.Context())
	if err != nil {
		h.writeServerError(w, "Failed to list groups", err)
		return
	}

	dtos := make([]GroupDTO, len(years))
	for i, y := range years {
		dtos[i] = toGroupDTO(y)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetGroup returns a single stored year.
func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	y, err := h.Store.GetYear(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServerError(w, "Failed to get group", err)
		return
	}
	if y == nil {
		writeError(w, http.StatusNotFound, "Group not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toGroupDTO(*y))
}

// CreateGroup stores a work year with its placements.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	y, err := h.createGroup(ctx, req)
	switch {
	case errors.Is(err, errUnknownFlow):
		writeError(w, http.StatusBadRequest, "Unknown flow", err)
		return
	case errors.Is(err, store.ErrDuplicateYear):
		writeError(w, http.StatusConflict, fmt.Sprintf("Year %d already exists for this flow", req.Year), err)
		return
	case err != nil:
		h.writeServerError(w, "Failed to create group", err)
		return
	}

	writeJSON(w, http.StatusCreated, toGroupDTO(*y))
}

// BatchCreateGroups stores several years. Each item is reported as
// created, exists (duplicate flow + year) or error; one failing item does
// not stop the others.
func (h *Handler) BatchCreateGroups(w http.ResponseWriter, r *http.Request) {
	var req BatchCreateGroupsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Groups) == 0 {
		writeError(w, http.StatusBadRequest, "No groups provided", nil)
		return
	}

	ctx := r.Context()
	results := make([]BatchResultDTO, len(req.Groups))
	for i, g := range req.Groups {
		res := BatchResultDTO{Index: i, Year: g.Year}

		if err := validate.Struct(g); err != nil {
			res.Status, res.Error = BatchError, err.Error()
			results[i] = res
			continue
		}

		y, err := h.createGroup(ctx, g)
		switch {
		case errors.Is(err, store.ErrDuplicateYear):
			res.Status = BatchExists
		case err != nil:
			res.Status, res.Error = BatchError, err.Error()
		default:
			res.Status, res.ID = BatchCreated, y.ID
		}
		results[i] = res
	}

	writeJSON(w, http.StatusOK, results)
}

// UpdateGroup patches a stored year. Placements are not changed.
func (h *Handler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	var req UpdateGroupRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	y, err := h.Store.GetYear(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServerError(w, "Failed to get group", err)
		return
	}
	if y == nil {
		writeError(w, http.StatusNotFound, "Group not found", nil)
		return
	}

	req.apply(y)
	if req.FlowID != nil {
		rec, err := h.findFlowRecord(ctx, *req.FlowID)
		if err != nil {
			h.writeServerError(w, "Failed to get flow", err)
			return
		}
		if rec == nil {
			writeError(w, http.StatusBadRequest, "Unknown flow", nil)
			return
		}
		y.FlowID = rec.ID
	}

	if err := h.Store.UpdateYear(ctx, *y); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateYear):
			writeError(w, http.StatusConflict, fmt.Sprintf("Year %d already exists for this flow", y.Year), err)
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Group not found", err)
		default:
			h.writeServerError(w, "Failed to update group", err)
		}
		return
	}

	updated, err := h.Store.GetYear(ctx, y.ID)
	if err != nil || updated == nil {
		h.writeServerError(w, "Failed to reload group", err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupDTO(*updated))
}

// DeleteGroup removes a stored year and its placements.
func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	y, err := h.Store.GetYear(ctx, id)
	if err != nil {
		h.writeServerError(w, "Failed to get group", err)
		return
	}
	if y == nil {
		writeError(w, http.StatusNotFound, "Group not found", nil)
		return
	}

	if err := h.Store.DeleteYear(ctx, id); err != nil {
		h.writeServerError(w, "Failed to delete group", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GroupPoints scores a single stored year together with the one-time
// answers stored on it.
func (h *Handler) GroupPoints(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	y, err := h.Store.GetYear(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServerError(w, "Failed to get group", err)
		return
	}
	if y == nil {
		writeError(w, http.StatusNotFound, "Group not found", nil)
		return
	}

	rec, err := h.Store.GetFlow(ctx, y.FlowID)
	if err != nil || rec == nil {
		h.writeServerError(w, "Failed to get group flow", err)
		return
	}
	flow, err := rec.Flow()
	if err != nil {
		h.writeServerError(w, "Stored flow is invalid", err)
		return
	}

	result := h.Engine.Score(scoring.Input{
		Flow:  flow,
		Years: []scoring.WorkYear{y.WorkYear()},
		Flags: y.Flags(),
	})

	dto := toScoreDTO(flow, result)
	dto.GroupID = y.ID
	writeJSON(w, http.StatusOK, dto)
}

// AddPlacement adds a placement to a stored year.
func (h *Handler) AddPlacement(w http.ResponseWriter, r *http.Request) {
	var req AddPlacementRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p := store.PlacementRecord{
		ID:          h.NewID(),
		YearID:      req.GroupID,
		SchoolName:  req.SchoolName,
		Months:      req.Months,
		MSD:         req.MSD,
		IsPrison:    req.IsPrison,
		WeeklyHours: req.WeeklyHours,
	}

	if err := h.Store.AddPlacement(r.Context(), p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Group not found", err)
			return
		}
		h.writeServerError(w, "Failed to add placement", err)
		return
	}

	writeJSON(w, http.StatusCreated, PlacementDTO{
		ID:          p.ID,
		SchoolName:  p.SchoolName,
		Months:      p.Months,
		MSD:         p.MSD,
		IsPrison:    p.IsPrison,
		WeeklyHours: p.WeeklyHours,
	})
}

// =============================================================================
// CALCULATOR HANDLERS
// =============================================================================

// Score scores a calculator session. The body is a snapshot file; the
// "flow" query parameter overrides its selectedFlowId.
func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	var f snapshot.File
	if err := decodeJSON(r, &f); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	session := f.Session()

	ref := session.SelectedFlowID
	if q := r.URL.Query().Get("flow"); q != "" {
		ref = q
	}
	if ref == "" {
		writeError(w, http.StatusBadRequest, "selectedFlowId is required", nil)
		return
	}

	flow, ok, err := h.resolveFlow(r.Context(), ref)
	if err != nil {
		h.writeServerError(w, "Failed to resolve flow", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Flow not found", nil)
		return
	}

	result := h.Engine.Score(session.Input(flow))
	writeJSON(w, http.StatusOK, toScoreDTO(flow, result))
}

// ExportSnapshot returns the session as a downloadable backup file.
func (h *Handler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	var f snapshot.File
	if err := decodeJSON(r, &f); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	session := f.Session()
	session.ExportDate = timeNow()
	session.Version = snapshot.Version

	data, err := snapshot.Export(session)
	if err != nil {
		h.writeServerError(w, "Failed to export snapshot", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, snapshot.FileName(session.ExportDate)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ImportSnapshot validates a backup file and returns it normalised.
func (h *Handler) ImportSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}

	session, err := snapshot.Import(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot.FromSession(session))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ResetDatabase clears all data and reseeds the catalog and preset flows.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		h.writeServerError(w, "Failed to reset database", err)
		return
	}
	if err := store.Seed(ctx, h.Store); err != nil {
		h.writeServerError(w, "Failed to seed database", err)
		return
	}
	h.scenarios.set("")

	h.Logger.Info("Database reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

var errUnknownFlow = errors.New("unknown flow")

// createGroup resolves the flow, assigns IDs and stores the year.
func (h *Handler) createGroup(ctx context.Context, req CreateGroupRequest) (*store.YearRecord, error) {
	rec, err := h.findFlowRecord(ctx, req.FlowID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", errUnknownFlow, req.FlowID)
	}

	y := req.record(h.NewID(), rec.ID, h.NewID)
	if err := h.Store.CreateYear(ctx, y); err != nil {
		return nil, err
	}

	stored, err := h.Store.GetYear(ctx, y.ID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("group %s vanished after insert", y.ID)
	}
	return stored, nil
}

// findFlowRecord looks a stored flow up by id, then by slug.
func (h *Handler) findFlowRecord(ctx context.Context, ref string) (*store.FlowRecord, error) {
	return store.LookupFlow(ctx, h.Store, ref)
}

// resolveFlow finds a flow in the store, falling back to the presets.
func (h *Handler) resolveFlow(ctx context.Context, ref string) (scoring.Flow, bool, error) {
	rec, err := h.findFlowRecord(ctx, ref)
	if err != nil {
		return scoring.Flow{}, false, err
	}
	if rec != nil {
		flow, err := rec.Flow()
		if err != nil {
			return scoring.Flow{}, false, err
		}
		return flow, true, nil
	}

	flow, ok := flows.Find(ref)
	return flow, ok, nil
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}

// decodeRequest decodes the body and runs struct validation.
func decodeRequest(r *http.Request, v any) error {
	if err := decodeJSON(r, v); err != nil {
		return err
	}
	return validate.Struct(v)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServerError logs the failure and replies 500.
func (h *Handler) writeServerError(w http.ResponseWriter, message string, err error) {
	h.Logger.Error(message, zap.Error(err))
	writeError(w, http.StatusInternalServerError, message, err)
}
