package molecule

import (
	"math/bits"
	"sort"
	"strconv"
	"strings"
)

const (
	// DefaultRadius and DefaultBits match the training featurization
	// (ECFP4, 2048 bits).
	DefaultRadius = 2
	DefaultBits   = 2048
)

// ---------------------------------------------------------------------------
// Fingerprint
// ---------------------------------------------------------------------------

// Fingerprint is a fixed-width bit vector. Bit i is stored in word i/64.
type Fingerprint struct {
	n     int
	words []uint64
}

// NewFingerprint returns an all-zero fingerprint of n bits.
func NewFingerprint(n int) *Fingerprint {
	return &Fingerprint{n: n, words: make([]uint64, (n+63)/64)}
}

// Len is the width in bits.
func (fp *Fingerprint) Len() int { return fp.n }

// Set turns bit i on. Out-of-range indices are ignored.
func (fp *Fingerprint) Set(i int) {
	if i < 0 || i >= fp.n {
		return
	}
	fp.words[i/64] |= 1 << uint(i%64)
}

// Test reports whether bit i is on.
func (fp *Fingerprint) Test(i int) bool {
	if i < 0 || i >= fp.n {
		return false
	}
	return fp.words[i/64]&(1<<uint(i%64)) != 0
}

// Count is the number of on bits.
func (fp *Fingerprint) Count() int {
	c := 0
	for _, w := range fp.words {
		c += bits.OnesCount64(w)
	}
	return c
}

// OnBits returns the indices of set bits in ascending order.
func (fp *Fingerprint) OnBits() []int {
	out := make([]int, 0, fp.Count())
	for wi, w := range fp.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out = append(out, wi*64+b)
			w &= w - 1
		}
	}
	return out
}

// Float64s expands the fingerprint into a 0/1 feature vector.
func (fp *Fingerprint) Float64s() []float64 {
	out := make([]float64, fp.n)
	for _, b := range fp.OnBits() {
		out[b] = 1
	}
	return out
}

// Equal compares width and bits.
func (fp *Fingerprint) Equal(other *Fingerprint) bool {
	if fp == nil || other == nil {
		return fp == other
	}
	if fp.n != other.n {
		return false
	}
	for i := range fp.words {
		if fp.words[i] != other.words[i] {
			return false
		}
	}
	return true
}

// String renders the on-bit indices, e.g. "80,222,294".
func (fp *Fingerprint) String() string {
	on := fp.OnBits()
	parts := make([]string, len(on))
	for i, b := range on {
		parts[i] = strconv.Itoa(b)
	}
	return strings.Join(parts, ",")
}

// ---------------------------------------------------------------------------
// Morgan / ECFP
// ---------------------------------------------------------------------------

// hashCombine is boost::hash_combine on 32-bit seeds. The exact arithmetic
// is part of the fingerprint format.
func hashCombine(seed, v uint32) uint32 {
	return seed ^ (v + 0x9e3779b9 + (seed << 6) + (seed >> 2))
}

func hashRange(vals []uint32) uint32 {
	var seed uint32
	for _, v := range vals {
		seed = hashCombine(seed, v)
	}
	return seed
}

// atomInvariant hashes the connectivity invariants of one atom: atomic
// number, total degree, hydrogen count, formal charge, mass delta against
// the average atomic weight (truncated, so 0 for unlabelled atoms), and
// ring membership.
func (g *Graph) atomInvariant(i int) uint32 {
	a := &g.Atoms[i]
	deltaMass := 0
	if a.Element != nil && a.Element.Number > 0 {
		deltaMass = int(a.Mass() - a.Element.Weight)
	}
	comps := []uint32{
		uint32(a.AtomicNumber()),
		uint32(g.TotalDegree(i)),
		uint32(a.HCount),
		uint32(int32(a.Charge)),
		uint32(int32(deltaMass)),
	}
	if g.ringAtom[i] {
		comps = append(comps, 1)
	}
	return hashRange(comps)
}

type environment struct {
	bonds     bondSet
	invariant uint32
	atom      int
}

// MorganFingerprint folds circular atom environments up to radius bonds into
// nBits bits. Environments covering the same bond set as an earlier one are
// skipped, keeping the one with the smallest (invariant, atom) pair.
func MorganFingerprint(g *Graph, radius, nBits int) *Fingerprint {
	if nBits <= 0 {
		nBits = DefaultBits
	}
	if radius < 0 {
		radius = DefaultRadius
	}
	fp := NewFingerprint(nBits)
	n := len(g.Atoms)

	invariants := make([]uint32, n)
	for i := 0; i < n; i++ {
		invariants[i] = g.atomInvariant(i)
		fp.Set(int(invariants[i] % uint32(nBits)))
	}

	neighborhoods := make([]bondSet, n)
	for i := range neighborhoods {
		neighborhoods[i] = newBondSet(len(g.Bonds))
	}
	dead := make([]bool, n)
	var seen []bondSet

	type pair struct {
		bond BondType
		inv  uint32
	}

	for layer := 0; layer < radius; layer++ {
		next := make([]uint32, n)
		nextHoods := make([]bondSet, n)
		copy(nextHoods, neighborhoods)
		var round []environment

		for a := 0; a < n; a++ {
			if dead[a] {
				continue
			}
			if len(g.adj[a]) == 0 {
				dead[a] = true
				continue
			}
			hood := neighborhoods[a].clone()
			pairs := make([]pair, 0, len(g.adj[a]))
			for _, nb := range g.adj[a] {
				hood.set(nb.bond)
				orInto(hood, neighborhoods[nb.atom])
				pairs = append(pairs, pair{g.Bonds[nb.bond].Type(), invariants[nb.atom]})
			}
			sort.Slice(pairs, func(i, j int) bool {
				if pairs[i].bond != pairs[j].bond {
					return pairs[i].bond < pairs[j].bond
				}
				return pairs[i].inv < pairs[j].inv
			})
			inv := hashCombine(uint32(layer), invariants[a])
			for _, p := range pairs {
				inv = hashCombine(inv, hashCombine(hashCombine(0, uint32(p.bond)), p.inv))
			}
			next[a] = inv
			nextHoods[a] = hood
			round = append(round, environment{bonds: hood, invariant: inv, atom: a})
		}

		sort.Slice(round, func(i, j int) bool {
			if round[i].invariant != round[j].invariant {
				return round[i].invariant < round[j].invariant
			}
			return round[i].atom < round[j].atom
		})
		for _, env := range round {
			if containsSet(seen, env.bonds) {
				dead[env.atom] = true
				continue
			}
			seen = append(seen, env.bonds)
			fp.Set(int(env.invariant % uint32(nBits)))
		}

		invariants = next
		neighborhoods = nextHoods
	}
	return fp
}

func orInto(dst, src bondSet) {
	for i := range dst {
		dst[i] |= src[i]
	}
}

func containsSet(sets []bondSet, s bondSet) bool {
	for _, o := range sets {
		equal := true
		for i := range o {
			if o[i] != s[i] {
				equal = false
				break
			}
		}
		if equal {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Extraction
// ---------------------------------------------------------------------------

// Extractor turns SMILES into model features.
type Extractor struct {
	Radius int
	Bits   int
}

// NewExtractor returns an extractor; non-positive bits and negative radius
// fall back to the defaults.
func NewExtractor(radius, nBits int) *Extractor {
	if radius < 0 {
		radius = DefaultRadius
	}
	if nBits <= 0 {
		nBits = DefaultBits
	}
	return &Extractor{Radius: radius, Bits: nBits}
}

// Extract parses smiles and returns its fingerprint and descriptor. It never
// returns a partial result.
func (e *Extractor) Extract(smiles string) (*Fingerprint, *Molecule, error) {
	g, err := Parse(smiles)
	if err != nil {
		return nil, nil, err
	}
	mol := Describe(smiles, g)
	return MorganFingerprint(g, e.Radius, e.Bits), &mol, nil
}

// Extract uses the default radius and width.
func Extract(smiles string) (*Fingerprint, *Molecule, error) {
	return NewExtractor(DefaultRadius, DefaultBits).Extract(smiles)
}

//Personal.AI order the ending
