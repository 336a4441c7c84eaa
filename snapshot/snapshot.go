/*
Package snapshot reads and writes calculator session backups.

PURPOSE:
  A user's working set (selected flow, career history and one-time
  answers) can be exported to a flat JSON file and imported again later.
  The file format is the one the calculator has always produced, so old
  backups keep loading:

    {
      "selectedFlowId": "flow-2",
      "yearsList": [{
        "id": "y0", "year": 2024, "isSubstitute": false,
        "totalWeeklyHours": 23, "substituteMonths": 10,
        "placements": [{"schoolName": "", "months": 12, "msd": 1,
                        "isPrison": false, "weeklyHours": 23}]
      }],
      "hasMarriage": false, "childrenCount": 0, "hasSynypiretisi": false,
      "hasEntopiotita": false, "hasStudies": false, "hasIvf": false,
      "hasFirstPreference": false,
      "exportDate": "2025-09-01T10:00:00Z",
      "version": "1.0"
    }

IMPORT RULES:
  - version must be a non-empty string, a non-zero number or true
  - yearsList must be an array
  - missing one-time answers default to false / 0
  - missing selectedFlowId imports as ""

ROUND TRIP:
  Export followed by Import yields the same scoring input, so the engine
  result is identical before and after.

SEE ALSO:
  - scoring/types.go: WorkYear, Placement, Flags
*/
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/warp/placement-points/scoring"
)

// Version is written into every export.
const Version = "1.0"

// ErrInvalidSnapshot is returned for files that are not session backups.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Session is a user's working set.
type Session struct {
	SelectedFlowID string
	Years          []scoring.WorkYear
	Flags          scoring.Flags
	ExportDate     time.Time
	Version        string
}

// Input returns the scoring input for the session against flow.
func (s Session) Input(flow scoring.Flow) scoring.Input {
	return scoring.Input{Flow: flow, Years: s.Years, Flags: s.Flags}
}

// =============================================================================
// FILE FORMAT
// =============================================================================

// File is the on-disk JSON shape.
type File struct {
	SelectedFlowID     string     `json:"selectedFlowId"`
	YearsList          []YearJSON `json:"yearsList"`
	HasMarriage        bool       `json:"hasMarriage"`
	ChildrenCount      int        `json:"childrenCount"`
	HasSynypiretisi    bool       `json:"hasSynypiretisi"`
	HasEntopiotita     bool       `json:"hasEntopiotita"`
	HasStudies         bool       `json:"hasStudies"`
	HasIVF             bool       `json:"hasIvf"`
	HasFirstPreference bool       `json:"hasFirstPreference"`
	ExportDate         string     `json:"exportDate,omitempty"`
	Version            string     `json:"version"`
}

// YearJSON is one entry of yearsList.
type YearJSON struct {
	ID               string          `json:"id"`
	Year             int             `json:"year"`
	IsSubstitute     bool            `json:"isSubstitute"`
	TotalWeeklyHours float64         `json:"totalWeeklyHours"`
	SubstituteMonths float64         `json:"substituteMonths"`
	Placements       []PlacementJSON `json:"placements"`
}

// PlacementJSON is one school placement.
type PlacementJSON struct {
	SchoolName  string  `json:"schoolName"`
	Months      float64 `json:"months"`
	MSD         int     `json:"msd"`
	IsPrison    bool    `json:"isPrison"`
	WeeklyHours float64 `json:"weeklyHours"`
}

// =============================================================================
// EXPORT / IMPORT
// =============================================================================

// Export encodes a session. A zero ExportDate is replaced with the current
// time and an empty Version with the current format version.
func Export(s Session) ([]byte, error) {
	if s.ExportDate.IsZero() {
		s.ExportDate = time.Now().UTC()
	}
	if s.Version == "" {
		s.Version = Version
	}

	b, err := json.MarshalIndent(FromSession(s), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// Import decodes a session backup.
func Import(data []byte) (Session, error) {
	var head struct {
		Version   json.RawMessage `json:"version"`
		YearsList json.RawMessage `json:"yearsList"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	version, ok := versionText(head.Version)
	if !ok {
		return Session{}, fmt.Errorf("%w: missing version", ErrInvalidSnapshot)
	}
	if !isArray(head.YearsList) {
		return Session{}, fmt.Errorf("%w: yearsList must be an array", ErrInvalidSnapshot)
	}

	var f File
	if bytes.HasPrefix(bytes.TrimSpace(head.Version), []byte(`"`)) {
		if err := json.Unmarshal(data, &f); err != nil {
			return Session{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
		return f.Session(), nil
	}

	// Non-string versions are dropped before decoding into File.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	delete(fields, "version")
	rest, err := json.Marshal(fields)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := json.Unmarshal(rest, &f); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	f.Version = version
	return f.Session(), nil
}

// versionText reports the version as text when it is truthy: a non-empty
// string, a non-zero number or true.
func versionText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return "", false
		}
		return s, true
	case 't':
		return "true", string(raw) == "true"
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		n, err := strconv.ParseFloat(string(raw), 64)
		if err != nil || n == 0 {
			return "", false
		}
		return string(raw), true
	}
	return "", false
}

// FileName is the download name for an export taken at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("metathesi-data-%s.json", t.UTC().Format("2006-01-02"))
}

// FromSession converts a session to the file shape.
func FromSession(s Session) File {
	f := File{
		SelectedFlowID:     s.SelectedFlowID,
		YearsList:          make([]YearJSON, len(s.Years)),
		HasMarriage:        s.Flags.HasMarriage,
		ChildrenCount:      s.Flags.ChildrenCount,
		HasSynypiretisi:    s.Flags.HasSynypiretisi,
		HasEntopiotita:     s.Flags.HasEntopiotita,
		HasStudies:         s.Flags.HasStudies,
		HasIVF:             s.Flags.HasIVF,
		HasFirstPreference: s.Flags.HasFirstPreference,
		Version:            s.Version,
	}
	if !s.ExportDate.IsZero() {
		f.ExportDate = s.ExportDate.UTC().Format(time.RFC3339)
	}

	for i, y := range s.Years {
		yj := YearJSON{
			ID:               y.ID,
			Year:             y.Year,
			IsSubstitute:     y.IsSubstitute,
			TotalWeeklyHours: y.TotalWeeklyHours,
			SubstituteMonths: y.SubstituteMonths,
			Placements:       make([]PlacementJSON, len(y.Placements)),
		}
		for j, p := range y.Placements {
			yj.Placements[j] = PlacementJSON{
				SchoolName:  p.SchoolName,
				Months:      p.Months,
				MSD:         p.MSD,
				IsPrison:    p.IsPrison,
				WeeklyHours: p.WeeklyHours,
			}
		}
		f.YearsList[i] = yj
	}
	return f
}

// Session converts the file shape to a session.
func (f File) Session() Session {
	s := Session{
		SelectedFlowID: f.SelectedFlowID,
		Years:          make([]scoring.WorkYear, len(f.YearsList)),
		Flags: scoring.Flags{
			HasMarriage:        f.HasMarriage,
			ChildrenCount:      f.ChildrenCount,
			HasSynypiretisi:    f.HasSynypiretisi,
			HasEntopiotita:     f.HasEntopiotita,
			HasStudies:         f.HasStudies,
			HasIVF:             f.HasIVF,
			HasFirstPreference: f.HasFirstPreference,
		},
		Version: f.Version,
	}
	if t, err := time.Parse(time.RFC3339, f.ExportDate); err == nil {
		s.ExportDate = t
	}

	for i, yj := range f.YearsList {
		y := scoring.WorkYear{
			ID:               yj.ID,
			Year:             yj.Year,
			IsSubstitute:     yj.IsSubstitute,
			TotalWeeklyHours: yj.TotalWeeklyHours,
			SubstituteMonths: yj.SubstituteMonths,
			Placements:       make([]scoring.Placement, len(yj.Placements)),
		}
		for j, p := range yj.Placements {
			y.Placements[j] = scoring.Placement{
				SchoolName:  p.SchoolName,
				Months:      p.Months,
				MSD:         p.MSD,
				IsPrison:    p.IsPrison,
				WeeklyHours: p.WeeklyHours,
			}
		}
		s.Years[i] = y
	}
	return s
}

func isArray(raw json.RawMessage) bool {
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}
