/*
Package factory provides JSON to Go flow conversion.

PURPOSE:
  Converts JSON flow definitions (as stored in the database and served to
  the calculator front-end) into scoring.Flow values, and back. Criterion
  configuration is a small parameter bag whose shape depends on the
  criterion key; the factory turns each bag into its typed variant.

JSON SCHEMA:
  {
    "id": "flow-2",
    "slug": "transfer",
    "name": "Μετάθεση / Οριστική Τοποθέτηση",
    "flowCriteria": [
      {"criterion": {"key": "marriage", "label": "..."}, "config": {"points": 4}},
      {"criterion": {"key": "dysprosita"}, "config": {"threshold": 10, "doublesMsd": true}},
      {"criterion": {"key": "msd"}, "enabled": false, "config": {"perYear": true}}
    ]
  }

LENIENT DECODING:
  Config bags are read the way the calculator always read them:
  - a field that is missing or not a number reads as 0
  - a boolean field reads as true only when it is literally true
  - unknown criterion keys are skipped
  - rows with "enabled": false are skipped
  Only JSON that does not parse at all is rejected (ErrInvalidConfig).

USAGE:
  f := factory.NewFlowFactory()
  flow, err := f.ParseFlow(jsonString)
  fj, err := f.ToJSON(flows.Transfer())

SEE ALSO:
  - scoring/config.go: Configuration variants
  - flows/presets.go: Preset flows
*/
package factory

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/warp/placement-points/scoring"
)

// ErrInvalidConfig is returned when a flow or criterion config is not valid JSON.
var ErrInvalidConfig = errors.New("invalid flow configuration")

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// FlowJSON is the JSON representation of a flow.
type FlowJSON struct {
	ID           string              `json:"id"`
	Slug         string              `json:"slug"`
	Name         string              `json:"name"`
	Description  string              `json:"description,omitempty"`
	FlowCriteria []FlowCriterionJSON `json:"flowCriteria"`
}

// FlowCriterionJSON is one criterion row of a flow.
type FlowCriterionJSON struct {
	Criterion CriterionJSON   `json:"criterion"`
	Enabled   *bool           `json:"enabled,omitempty"` // nil means enabled
	Config    json.RawMessage `json:"config,omitempty"`
}

// CriterionJSON is a catalog entry.
type CriterionJSON struct {
	Key   string `json:"key"`
	Label string `json:"label,omitempty"`
}

// IsEnabled reports whether the row takes part in scoring.
func (fc FlowCriterionJSON) IsEnabled() bool {
	return fc.Enabled == nil || *fc.Enabled
}

// =============================================================================
// FLOW FACTORY
// =============================================================================

// FlowFactory converts JSON flows to scoring flows.
type FlowFactory struct{}

// NewFlowFactory creates a new flow factory.
func NewFlowFactory() *FlowFactory {
	return &FlowFactory{}
}

// ParseFlow parses a JSON string into a Flow.
func (f *FlowFactory) ParseFlow(jsonStr string) (scoring.Flow, error) {
	var fj FlowJSON
	if err := json.Unmarshal([]byte(jsonStr), &fj); err != nil {
		return scoring.Flow{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return f.FromJSON(fj)
}

// FromJSON converts FlowJSON to a scoring.Flow.
func (f *FlowFactory) FromJSON(fj FlowJSON) (scoring.Flow, error) {
	flow := scoring.Flow{
		ID:          fj.ID,
		Slug:        scoring.CanonicalSlug(fj.Slug),
		Name:        fj.Name,
		Description: fj.Description,
	}

	seen := make(map[string]bool, len(fj.FlowCriteria))
	for _, row := range fj.FlowCriteria {
		if seen[row.Criterion.Key] {
			return scoring.Flow{}, fmt.Errorf("%w: duplicate criterion %q", ErrInvalidConfig, row.Criterion.Key)
		}
		seen[row.Criterion.Key] = true

		if !row.IsEnabled() {
			continue
		}
		key := scoring.Key(row.Criterion.Key)
		cfg, ok, err := DecodeConfig(key, row.Config)
		if err != nil {
			return scoring.Flow{}, fmt.Errorf("criterion %q: %w", row.Criterion.Key, err)
		}
		if !ok {
			continue // not in the catalog: inert
		}

		crit, known := scoring.LookupCriterion(key)
		if !known {
			crit = scoring.Criterion{Key: key}
		}
		if row.Criterion.Label != "" {
			crit.Label = row.Criterion.Label
		}
		flow.Criteria = append(flow.Criteria, scoring.FlowCriterion{Criterion: crit, Config: cfg})
	}

	return flow, nil
}

// ToJSON converts a Flow to FlowJSON. Every row is emitted as enabled.
func (f *FlowFactory) ToJSON(flow scoring.Flow) (FlowJSON, error) {
	fj := FlowJSON{
		ID:           flow.ID,
		Slug:         string(flow.Slug),
		Name:         flow.Name,
		Description:  flow.Description,
		FlowCriteria: make([]FlowCriterionJSON, 0, len(flow.Criteria)),
	}

	for _, fc := range flow.Criteria {
		if fc.Config == nil {
			continue
		}
		raw, err := EncodeConfig(fc.Config)
		if err != nil {
			return FlowJSON{}, err
		}
		fj.FlowCriteria = append(fj.FlowCriteria, FlowCriterionJSON{
			Criterion: CriterionJSON{Key: string(fc.Config.Key()), Label: fc.Criterion.Label},
			Config:    raw,
		})
	}

	return fj, nil
}

// =============================================================================
// CONFIG VARIANTS
// =============================================================================

// DecodeConfig turns a criterion's config bag into its typed variant.
// The bool result is false when key is not a catalog criterion.
func DecodeConfig(key scoring.Key, raw json.RawMessage) (scoring.Config, bool, error) {
	if _, ok := scoring.NewConfig(key); !ok {
		return nil, false, nil
	}

	bag, err := decodeBag(raw)
	if err != nil {
		return nil, false, err
	}

	switch key {
	case scoring.KeyMarriage:
		return scoring.MarriageConfig{Points: readNumber(bag, "points")}, true, nil
	case scoring.KeySynypiretisi:
		return scoring.SynypiretisiConfig{Points: readNumber(bag, "points")}, true, nil
	case scoring.KeyEntopiotita:
		return scoring.EntopiotitaConfig{Points: readNumber(bag, "points")}, true, nil
	case scoring.KeyStudies:
		return scoring.StudiesConfig{Points: readNumber(bag, "points")}, true, nil
	case scoring.KeyIVF:
		return scoring.IVFConfig{Points: readNumber(bag, "points")}, true, nil
	case scoring.KeyFirstPreference:
		return scoring.FirstPreferenceConfig{Points: readNumber(bag, "points")}, true, nil
	case scoring.KeyChildren:
		return scoring.ChildrenConfig{
			First:      readNumber(bag, "first"),
			Second:     readNumber(bag, "second"),
			Third:      readNumber(bag, "third"),
			FourthPlus: readNumber(bag, "fourthPlus"),
		}, true, nil
	case scoring.KeyProypiresia:
		return scoring.ProypiresiaConfig{PerYear: readNumber(bag, "perYear")}, true, nil
	case scoring.KeyMSD:
		return scoring.MSDConfig{PerYear: readBoolean(bag, "perYear")}, true, nil
	case scoring.KeyDysprosita:
		return scoring.DysprositaConfig{
			Threshold:  readNumber(bag, "threshold"),
			DoublesMSD: readBoolean(bag, "doublesMsd"),
		}, true, nil
	case scoring.KeyPrisons:
		return scoring.PrisonsConfig{ExtraMSD: readNumber(bag, "extraMsd")}, true, nil
	}
	return nil, false, nil
}

// EncodeConfig marshals a configuration variant to its JSON bag.
func EncodeConfig(c scoring.Config) (json.RawMessage, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode %s config: %w", c.Key(), err)
	}
	return b, nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// decodeBag parses a config bag. Empty input and non-object JSON yield an
// empty bag.
func decodeBag(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	bag, _ := v.(map[string]any)
	return bag, nil
}

func readNumber(bag map[string]any, key string) float64 {
	n, _ := bag[key].(float64)
	return n
}

func readBoolean(bag map[string]any, key string) bool {
	b, _ := bag[key].(bool)
	return b
}
