/*
Package store defines persistence for flows and stored career years.

PURPOSE:
  Defines the interface between the API and the database. The scoring
  engine never touches the store: handlers load records, convert them to
  scoring values and call the engine.

KEY RECORDS:
  CriterionRecord: Catalog entry (key, label)
  FlowRecord:      Placement track with its criterion rows
  YearRecord:      A stored work year for one flow, carrying the one-time
                   answers entered alongside it
  PlacementRecord: A school placement within a stored year

CONVENTIONS:
  - Get* returns (nil, nil) when the record does not exist
  - CreateYear rejects a second year with the same (flow, year) pair with
    ErrDuplicateYear
  - DeleteYear removes the year's placements as well

IMPLEMENTATIONS:
  - store/sqlite:   Embedded SQLite (default, tests)
  - store/postgres: PostgreSQL via pgx

SEE ALSO:
  - convert.go: Record <-> scoring conversions
  - seed.go: Catalog and preset flow seeding
*/
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDuplicateYear is returned when a flow already has a stored year
	// with the same label.
	ErrDuplicateYear = errors.New("year already exists for flow")

	// ErrSlugTaken is returned when another flow already holds the slug.
	ErrSlugTaken = errors.New("flow slug already in use")

	// ErrNotFound is returned by updates that target a missing record.
	ErrNotFound = errors.New("record not found")
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store persists flows and career years.
type Store interface {
	// Criterion catalog
	SaveCriterion(ctx context.Context, c CriterionRecord) error
	ListCriteria(ctx context.Context) ([]CriterionRecord, error)

	// Flows
	SaveFlow(ctx context.Context, f FlowRecord) error
	GetFlow(ctx context.Context, id string) (*FlowRecord, error)
	GetFlowBySlug(ctx context.Context, slug string) (*FlowRecord, error)
	ListFlows(ctx context.Context) ([]FlowRecord, error)

	// Years
	CreateYear(ctx context.Context, y YearRecord) error
	GetYear(ctx context.Context, id string) (*YearRecord, error)
	ListYears(ctx context.Context) ([]YearRecord, error)
	ListYearsByFlow(ctx context.Context, flowID string) ([]YearRecord, error)
	UpdateYear(ctx context.Context, y YearRecord) error
	DeleteYear(ctx context.Context, id string) error

	// Placements
	AddPlacement(ctx context.Context, p PlacementRecord) error

	Reset(ctx context.Context) error
	Close() error
}

// =============================================================================
// RECORDS
// =============================================================================

// CriterionRecord is a stored catalog entry.
type CriterionRecord struct {
	Key   string
	Label string
}

// FlowRecord is a stored flow with its criterion rows.
type FlowRecord struct {
	ID          string
	Slug        string
	Name        string
	Description string
	Criteria    []FlowCriterionRecord
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FlowCriterionRecord is one (flow, criterion) row.
type FlowCriterionRecord struct {
	CriterionKey string
	Label        string
	Enabled      bool
	ConfigJSON   string
	Position     int
}

// YearRecord is a stored work year.
type YearRecord struct {
	ID               string
	FlowID           string
	FlowName         string // filled on reads
	FlowSlug         string // filled on reads
	Year             int
	IsSubstitute     bool
	TotalWeeklyHours float64
	SubstituteMonths float64

	HasMarriage        bool
	ChildrenCount      int
	HasSynypiretisi    bool
	HasEntopiotita     bool
	HasStudies         bool
	HasIVF             bool
	HasFirstPreference bool

	Placements []PlacementRecord
	CreatedAt  time.Time
}

// PlacementRecord is a stored school placement.
type PlacementRecord struct {
	ID          string
	YearID      string
	SchoolName  string
	Months      float64
	MSD         int
	IsPrison    bool
	WeeklyHours float64
	CreatedAt   time.Time
}
