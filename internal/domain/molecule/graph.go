package molecule

// BondType is the RDKit bond-type enumeration value. The numeric values are
// hashed into fingerprints and must not change.
type BondType uint32

const (
	BondSingle    BondType = 1
	BondDouble    BondType = 2
	BondTriple    BondType = 3
	BondQuadruple BondType = 4
	BondAromatic  BondType = 12
)

// Order returns the integral bond order used for valence accounting.
// Aromatic bonds count as 1 here; kekulized orders are tracked separately.
func (b BondType) Order() int {
	switch b {
	case BondDouble:
		return 2
	case BondTriple:
		return 3
	case BondQuadruple:
		return 4
	default:
		return 1
	}
}

// Atom is a heavy atom of a parsed molecule. Hydrogens are folded into
// HCount unless they carry an isotope or a charge.
type Atom struct {
	Element  *Element
	Isotope  int
	Charge   int
	HCount   int
	Aromatic bool
	// Bracket is true when the atom was written in [ ] form.
	Bracket bool
}

// AtomicNumber is 0 for the wildcard atom.
func (a *Atom) AtomicNumber() int {
	if a.Element == nil {
		return 0
	}
	return a.Element.Number
}

// Mass returns the exact isotope mass when labelled, the average weight
// otherwise.
func (a *Atom) Mass() float64 {
	if a.Element == nil {
		return 0
	}
	if a.Isotope > 0 {
		return IsotopeMass(a.Element.Number, a.Isotope)
	}
	return a.Element.Weight
}

// Bond connects two atoms by index.
type Bond struct {
	Begin, End int
	// Kekule holds the localized order (single/double/triple); it is filled
	// in for aromatic input during kekulization.
	Kekule   BondType
	Aromatic bool
}

// Type is the hashed bond type.
func (b *Bond) Type() BondType {
	if b.Aromatic {
		return BondAromatic
	}
	return b.Kekule
}

// Other returns the atom on the far side of the bond.
func (b *Bond) Other(atom int) int {
	if b.Begin == atom {
		return b.End
	}
	return b.Begin
}

type neighbor struct {
	atom int
	bond int
}

// Graph is an immutable molecular graph produced by Parse.
type Graph struct {
	Atoms []Atom
	Bonds []Bond

	adj      [][]neighbor
	ringBond []bool
	ringAtom []bool
	rings    [][]int // smallest set of smallest rings, as bond index lists
}

func (g *Graph) addBond(a, b int, t BondType, aromatic bool) int {
	g.Bonds = append(g.Bonds, Bond{Begin: a, End: b, Kekule: t, Aromatic: aromatic})
	idx := len(g.Bonds) - 1
	g.adj[a] = append(g.adj[a], neighbor{atom: b, bond: idx})
	g.adj[b] = append(g.adj[b], neighbor{atom: a, bond: idx})
	return idx
}

// Degree is the number of heavy-atom neighbours.
func (g *Graph) Degree(atom int) int { return len(g.adj[atom]) }

// TotalDegree counts heavy neighbours plus hydrogens.
func (g *Graph) TotalDegree(atom int) int { return len(g.adj[atom]) + g.Atoms[atom].HCount }

// IsRingAtom reports whether the atom lies on any cycle.
func (g *Graph) IsRingAtom(atom int) bool { return g.ringAtom[atom] }

// IsRingBond reports whether the bond lies on any cycle.
func (g *Graph) IsRingBond(bond int) bool { return g.ringBond[bond] }

// NumRings is the size of the smallest set of smallest rings.
func (g *Graph) NumRings() int { return len(g.rings) }

// Rings returns each SSSR ring as an ordered list of atom indices.
func (g *Graph) Rings() [][]int {
	out := make([][]int, 0, len(g.rings))
	for _, ring := range g.rings {
		out = append(out, g.ringAtoms(ring))
	}
	return out
}

// ringAtoms walks a ring's bonds and returns the atoms in cycle order.
func (g *Graph) ringAtoms(ring []int) []int {
	inRing := make(map[int]bool, len(ring))
	for _, b := range ring {
		inRing[b] = true
	}
	start := g.Bonds[ring[0]].Begin
	atoms := []int{start}
	prevBond := -1
	cur := start
	for len(atoms) < len(ring) {
		next := -1
		for _, nb := range g.adj[cur] {
			if inRing[nb.bond] && nb.bond != prevBond {
				next, prevBond = nb.atom, nb.bond
				break
			}
		}
		if next < 0 || next == start {
			break
		}
		atoms = append(atoms, next)
		cur = next
	}
	return atoms
}

// IsAromatic reports whether any bond was perceived as aromatic.
func (g *Graph) IsAromatic() bool {
	for i := range g.Bonds {
		if g.Bonds[i].Aromatic {
			return true
		}
	}
	return false
}

// bondSum is the sum of kekulized bond orders around an atom.
func (g *Graph) bondSum(atom int) int {
	sum := 0
	for _, nb := range g.adj[atom] {
		sum += g.Bonds[nb.bond].Kekule.Order()
	}
	return sum
}

//Personal.AI order the ending
