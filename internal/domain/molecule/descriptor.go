package molecule

import (
	"sort"
	"strconv"
	"strings"
)

// Molecule is the descriptive metadata reported alongside a prediction. It is
// computed once from a Graph and never modified.
type Molecule struct {
	SMILES          string  `json:"smiles"`
	Formula         string  `json:"formula"`
	MolecularWeight float64 `json:"molecular_weight"`
	// NumAtoms counts heavy atoms only.
	NumAtoms int  `json:"num_atoms"`
	NumBonds int  `json:"num_bonds"`
	NumRings int  `json:"num_rings"`
	Aromatic bool `json:"aromatic"`
}

// Describe computes the descriptor for a parsed graph.
func Describe(smiles string, g *Graph) Molecule {
	return Molecule{
		SMILES:          smiles,
		Formula:         g.Formula(),
		MolecularWeight: g.MolecularWeight(),
		NumAtoms:        len(g.Atoms),
		NumBonds:        len(g.Bonds),
		NumRings:        g.NumRings(),
		Aromatic:        g.IsAromatic(),
	}
}

// MolecularWeight sums average atomic weights, including hydrogens.
// Isotope-labelled atoms use their exact isotope mass.
func (g *Graph) MolecularWeight() float64 {
	h, _ := LookupElement("H")
	var mw float64
	for i := range g.Atoms {
		a := &g.Atoms[i]
		mw += a.Mass() + float64(a.HCount)*h.Weight
	}
	return mw
}

// Formula renders the Hill-order molecular formula with a trailing net
// charge ("+", "-2", ...). Carbon comes first and hydrogen second when
// carbon is present; otherwise all symbols are alphabetical.
func (g *Graph) Formula() string {
	counts := make(map[string]int)
	charge := 0
	for i := range g.Atoms {
		a := &g.Atoms[i]
		sym := "*"
		if a.Element != nil {
			sym = a.Element.Symbol
		}
		counts[sym]++
		if a.HCount > 0 {
			counts["H"] += a.HCount
		}
		charge += a.Charge
	}

	symbols := make([]string, 0, len(counts))
	for s := range counts {
		symbols = append(symbols, s)
	}
	_, hasCarbon := counts["C"]
	sort.Slice(symbols, func(i, j int) bool {
		if hasCarbon {
			if r1, r2 := hillRank(symbols[i]), hillRank(symbols[j]); r1 != r2 {
				return r1 < r2
			}
		}
		return symbols[i] < symbols[j]
	})

	var sb strings.Builder
	for _, s := range symbols {
		sb.WriteString(s)
		if n := counts[s]; n > 1 {
			sb.WriteString(strconv.Itoa(n))
		}
	}
	switch {
	case charge == 1:
		sb.WriteByte('+')
	case charge == -1:
		sb.WriteByte('-')
	case charge > 1:
		sb.WriteString("+" + strconv.Itoa(charge))
	case charge < -1:
		sb.WriteString("-" + strconv.Itoa(-charge))
	}
	return sb.String()
}

func hillRank(sym string) int {
	switch sym {
	case "C":
		return 0
	case "H":
		return 1
	}
	return 2
}

//Personal.AI order the ending
