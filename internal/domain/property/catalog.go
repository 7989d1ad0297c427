// Package property describes the QM9 target properties predicted by the
// model: their codes, display names and units.
package property

import "fmt"

// Property is one predicted quantity.
type Property struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// DefaultCodes is the QM9 target order used by the pretrained checkpoint.
var DefaultCodes = []string{
	"mu", "alpha", "homo", "lumo", "gap", "r2", "zpve",
	"u0", "u298", "h298", "g298", "cv",
	"u0_atom", "u298_atom", "h298_atom", "g298_atom",
	"A", "B", "C",
}

var known = map[string]Property{
	"mu":        {"mu", "Dipole moment", "Debye"},
	"alpha":     {"alpha", "Isotropic polarizability", "Bohr³"},
	"homo":      {"homo", "HOMO energy", "eV"},
	"lumo":      {"lumo", "LUMO energy", "eV"},
	"gap":       {"gap", "HOMO-LUMO gap", "eV"},
	"r2":        {"r2", "Electronic spatial extent", "Bohr²"},
	"zpve":      {"zpve", "Zero point vibrational energy", "eV"},
	"u0":        {"u0", "Internal energy at 0K", "eV"},
	"u298":      {"u298", "Internal energy at 298K", "eV"},
	"h298":      {"h298", "Enthalpy at 298K", "eV"},
	"g298":      {"g298", "Free energy at 298K", "eV"},
	"cv":        {"cv", "Heat capacity at 298K", "cal/mol·K"},
	"u0_atom":   {"u0_atom", "Atomization energy at 0K", "eV"},
	"u298_atom": {"u298_atom", "Atomization energy at 298K", "eV"},
	"h298_atom": {"h298_atom", "Atomization enthalpy at 298K", "eV"},
	"g298_atom": {"g298_atom", "Atomization free energy at 298K", "eV"},
	"A":         {"A", "Rotational constant A", "GHz"},
	"B":         {"B", "Rotational constant B", "GHz"},
	"C":         {"C", "Rotational constant C", "GHz"},
}

// Lookup returns the catalog entry for code. Unknown codes get the code as
// their name and "N/A" as unit.
func Lookup(code string) Property {
	if p, ok := known[code]; ok {
		return p
	}
	return Property{Code: code, Name: code, Unit: "N/A"}
}

// IsKnown reports whether code is a catalogued QM9 property.
func IsKnown(code string) bool {
	_, ok := known[code]
	return ok
}

// Catalog is an ordered list of properties. Position i corresponds to model
// output i.
type Catalog struct {
	props []Property
	index map[string]int
}

// NewCatalog builds a catalog from codes in model output order. Codes must be
// non-empty and unique.
func NewCatalog(codes []string) (*Catalog, error) {
	if len(codes) == 0 {
		return nil, fmt.Errorf("property: empty property list")
	}
	c := &Catalog{props: make([]Property, 0, len(codes)), index: make(map[string]int, len(codes))}
	for i, code := range codes {
		if code == "" {
			return nil, fmt.Errorf("property: empty code at position %d", i)
		}
		if _, dup := c.index[code]; dup {
			return nil, fmt.Errorf("property: duplicate code %q", code)
		}
		c.index[code] = i
		c.props = append(c.props, Lookup(code))
	}
	return c, nil
}

// Default is the catalog for DefaultCodes.
func Default() *Catalog {
	c, _ := NewCatalog(DefaultCodes)
	return c
}

// Len is the number of properties.
func (c *Catalog) Len() int { return len(c.props) }

// At returns the property at output position i.
func (c *Catalog) At(i int) Property { return c.props[i] }

// Index returns the output position of code.
func (c *Catalog) Index(code string) (int, bool) {
	i, ok := c.index[code]
	return i, ok
}

// Codes returns the codes in order.
func (c *Catalog) Codes() []string {
	out := make([]string, len(c.props))
	for i, p := range c.props {
		out[i] = p.Code
	}
	return out
}

// All returns a copy of the ordered properties.
func (c *Catalog) All() []Property {
	return append([]Property(nil), c.props...)
}

//Personal.AI order the ending
