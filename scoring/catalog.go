package scoring

// Key is the stable identifier of a scoring criterion.
type Key string

const (
	KeyMarriage        Key = "marriage"
	KeyChildren        Key = "children"
	KeySynypiretisi    Key = "synypiretisi"
	KeyEntopiotita     Key = "entopiotita"
	KeyProypiresia     Key = "proypiresia"
	KeyMSD             Key = "msd"
	KeyDysprosita      Key = "dysprosita"
	KeyPrisons         Key = "prisons"
	KeyStudies         Key = "studies"
	KeyIVF             Key = "ivf"
	KeyFirstPreference Key = "firstPreference"
)

// Criterion is an immutable catalog entry.
type Criterion struct {
	Key   Key
	Label string
}

var catalog = []Criterion{
	{Key: KeyMarriage, Label: "Γάμος / Σύμφωνο συμβίωσης / Χηρεία"},
	{Key: KeyChildren, Label: "Τέκνα"},
	{Key: KeySynypiretisi, Label: "Συνυπηρέτηση"},
	{Key: KeyEntopiotita, Label: "Εντοπιότητα"},
	{Key: KeyProypiresia, Label: "Προϋπηρεσία (έτη)"},
	{Key: KeyMSD, Label: "Συνθήκες Διαβίωσης (ΜΣΔ)"},
	{Key: KeyDysprosita, Label: "Δυσπρόσιτα"},
	{Key: KeyPrisons, Label: "Κατάστημα Κράτησης / Φυλακές"},
	{Key: KeyStudies, Label: "Σπουδές"},
	{Key: KeyIVF, Label: "Εξωσωματική"},
	{Key: KeyFirstPreference, Label: "Πρώτη Προτίμηση"},
}

// Catalog returns the criterion catalog in display order.
func Catalog() []Criterion {
	out := make([]Criterion, len(catalog))
	copy(out, catalog)
	return out
}

// LookupCriterion finds a catalog entry by key.
func LookupCriterion(key Key) (Criterion, bool) {
	for _, c := range catalog {
		if c.Key == key {
			return c, true
		}
	}
	return Criterion{}, false
}
