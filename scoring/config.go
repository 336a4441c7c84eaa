package scoring

// =============================================================================
// CRITERION CONFIGURATION - Closed set of variants, one per criterion key
// =============================================================================

// Config is the configuration of one criterion within a flow.
// The set of implementations is closed: only this package can add variants.
type Config interface {
	Key() Key
	sealed()
}

// Flat bonus criteria: a fixed number of points when the flag is set.

type MarriageConfig struct {
	Points float64 `json:"points"`
}

type SynypiretisiConfig struct {
	Points float64 `json:"points"`
}

type EntopiotitaConfig struct {
	Points float64 `json:"points"`
}

type StudiesConfig struct {
	Points float64 `json:"points"`
}

type IVFConfig struct {
	Points float64 `json:"points"`
}

type FirstPreferenceConfig struct {
	Points float64 `json:"points"`
}

// ChildrenConfig holds per-ordinal child points. Every child after the
// third adds FourthPlus.
type ChildrenConfig struct {
	First      float64 `json:"first"`
	Second     float64 `json:"second"`
	Third      float64 `json:"third"`
	FourthPlus float64 `json:"fourthPlus"`
}

// ProypiresiaConfig is the seniority rate for tracks without a bespoke formula.
type ProypiresiaConfig struct {
	PerYear float64 `json:"perYear"`
}

// MSDConfig enables hardship scoring. PerYear is informational.
type MSDConfig struct {
	PerYear bool `json:"perYear,omitempty"`
}

// DysprositaConfig doubles the MSD of placements at or above Threshold.
// A zero Threshold means the default of 10.
type DysprositaConfig struct {
	Threshold  float64 `json:"threshold"`
	DoublesMSD bool    `json:"doublesMsd"`
}

// PrisonsConfig adds ExtraMSD to placements at detention-facility schools.
type PrisonsConfig struct {
	ExtraMSD float64 `json:"extraMsd"`
}

func (MarriageConfig) Key() Key        { return KeyMarriage }
func (SynypiretisiConfig) Key() Key    { return KeySynypiretisi }
func (EntopiotitaConfig) Key() Key     { return KeyEntopiotita }
func (StudiesConfig) Key() Key         { return KeyStudies }
func (IVFConfig) Key() Key             { return KeyIVF }
func (FirstPreferenceConfig) Key() Key { return KeyFirstPreference }
func (ChildrenConfig) Key() Key        { return KeyChildren }
func (ProypiresiaConfig) Key() Key     { return KeyProypiresia }
func (MSDConfig) Key() Key             { return KeyMSD }
func (DysprositaConfig) Key() Key      { return KeyDysprosita }
func (PrisonsConfig) Key() Key         { return KeyPrisons }

func (MarriageConfig) sealed()        {}
func (SynypiretisiConfig) sealed()    {}
func (EntopiotitaConfig) sealed()     {}
func (StudiesConfig) sealed()         {}
func (IVFConfig) sealed()             {}
func (FirstPreferenceConfig) sealed() {}
func (ChildrenConfig) sealed()        {}
func (ProypiresiaConfig) sealed()     {}
func (MSDConfig) sealed()             {}
func (DysprositaConfig) sealed()      {}
func (PrisonsConfig) sealed()         {}

// NewConfig returns the zero-valued configuration variant for key, or
// false if the key is not in the catalog.
func NewConfig(key Key) (Config, bool) {
	switch key {
	case KeyMarriage:
		return MarriageConfig{}, true
	case KeyChildren:
		return ChildrenConfig{}, true
	case KeySynypiretisi:
		return SynypiretisiConfig{}, true
	case KeyEntopiotita:
		return EntopiotitaConfig{}, true
	case KeyProypiresia:
		return ProypiresiaConfig{}, true
	case KeyMSD:
		return MSDConfig{}, true
	case KeyDysprosita:
		return DysprositaConfig{}, true
	case KeyPrisons:
		return PrisonsConfig{}, true
	case KeyStudies:
		return StudiesConfig{}, true
	case KeyIVF:
		return IVFConfig{}, true
	case KeyFirstPreference:
		return FirstPreferenceConfig{}, true
	}
	return nil, false
}

// =============================================================================
// CRITERIA SET - Enabled criteria for one flow
// =============================================================================

// CriteriaSet maps each enabled criterion to its configuration.
type CriteriaSet map[Key]Config

// lookup returns the enabled configuration for key as T.
func lookup[T Config](s CriteriaSet, key Key) (T, bool) {
	var zero T
	c, ok := s[key]
	if !ok {
		return zero, false
	}
	t, ok := c.(T)
	return t, ok
}

func (s CriteriaSet) Children() (ChildrenConfig, bool) {
	return lookup[ChildrenConfig](s, KeyChildren)
}

func (s CriteriaSet) Proypiresia() (ProypiresiaConfig, bool) {
	return lookup[ProypiresiaConfig](s, KeyProypiresia)
}

func (s CriteriaSet) MSD() (MSDConfig, bool) {
	return lookup[MSDConfig](s, KeyMSD)
}

func (s CriteriaSet) Dysprosita() (DysprositaConfig, bool) {
	return lookup[DysprositaConfig](s, KeyDysprosita)
}

func (s CriteriaSet) Prisons() (PrisonsConfig, bool) {
	return lookup[PrisonsConfig](s, KeyPrisons)
}

// flatPoints returns the configured points of a flat bonus criterion,
// or 0 when the criterion is not enabled.
func (s CriteriaSet) flatPoints(key Key) float64 {
	switch c := s[key].(type) {
	case MarriageConfig:
		return c.Points
	case SynypiretisiConfig:
		return c.Points
	case EntopiotitaConfig:
		return c.Points
	case StudiesConfig:
		return c.Points
	case IVFConfig:
		return c.Points
	case FirstPreferenceConfig:
		return c.Points
	}
	return 0
}
