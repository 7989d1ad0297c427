package molecule

import (
	"fmt"
	"strings"

	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
)

// ParseError describes why a SMILES string was rejected. Parse wraps it in
// an InvalidStructure AppError; use errors.As to get at the position.
type ParseError struct {
	Pos    int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Pos < 0 {
		return "smiles: " + e.Reason
	}
	return fmt.Sprintf("smiles: %s at position %d", e.Reason, e.Pos)
}

// Parse reads a SMILES string into a sanitized molecular graph: implicit
// hydrogens assigned, explicit hydrogens folded, aromatic systems kekulized,
// valences checked, rings and aromaticity perceived. Every failure is an
// InvalidStructure error.
func Parse(smiles string) (*Graph, error) {
	g, err := parse(smiles)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidStructure, "")
	}
	return g, nil
}

func parse(smiles string) (*Graph, error) {
	if strings.TrimSpace(smiles) == "" {
		return nil, &ParseError{Pos: -1, Reason: "empty input"}
	}
	p := &smilesParser{src: smiles, prev: -1, g: &Graph{}, rings: make(map[int]ringOpening)}
	if err := p.run(); err != nil {
		return nil, err
	}
	g := p.g
	assignImplicitHydrogens(g, p.organic)
	g = foldHydrogens(g)
	g.perceiveRings()
	for i := range g.Atoms {
		if g.Atoms[i].Aromatic && !g.ringAtom[i] {
			return nil, &ParseError{Pos: -1, Reason: fmt.Sprintf("non-ring atom %d marked aromatic", i)}
		}
	}
	if err := g.kekulize(); err != nil {
		return nil, err
	}
	if err := g.checkValences(); err != nil {
		return nil, err
	}
	g.perceiveAromaticity()
	return g, nil
}

// ---------------------------------------------------------------------------
// Tokenizer / builder
// ---------------------------------------------------------------------------

type ringOpening struct {
	atom int
	bond BondType
	set  bool
	pos  int
}

type smilesParser struct {
	src string
	pos int
	g   *Graph

	prev       int
	bond       BondType
	bondSet    bool
	bondPos    int
	branches   []int
	rings      map[int]ringOpening
	organic    []bool
	afterSplit bool
}

func (p *smilesParser) fail(format string, args ...interface{}) error {
	return &ParseError{Pos: p.pos, Reason: fmt.Sprintf(format, args...)}
}

func (p *smilesParser) run() error {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '(':
			if p.prev < 0 || p.bondSet {
				return p.fail("branch without preceding atom")
			}
			p.branches = append(p.branches, p.prev)
			p.pos++
		case c == ')':
			if len(p.branches) == 0 {
				return p.fail("unbalanced ')'")
			}
			if p.bondSet || p.src[p.pos-1] == '(' {
				return p.fail("empty branch or dangling bond")
			}
			p.prev = p.branches[len(p.branches)-1]
			p.branches = p.branches[:len(p.branches)-1]
			p.pos++
		case c == '.':
			if p.prev < 0 || p.bondSet || len(p.branches) > 0 {
				return p.fail("misplaced '.'")
			}
			p.prev = -1
			p.afterSplit = true
			p.pos++
		case strings.IndexByte("-=#$:/\\", c) >= 0:
			if p.prev < 0 || p.bondSet {
				return p.fail("misplaced bond symbol %q", c)
			}
			p.bond, p.bondSet, p.bondPos = bondFromSymbol(c), true, p.pos
			p.pos++
		case c == '%' || (c >= '0' && c <= '9'):
			if err := p.ringClosure(); err != nil {
				return err
			}
		case c == '[':
			if err := p.bracketAtom(); err != nil {
				return err
			}
		default:
			if err := p.organicAtom(); err != nil {
				return err
			}
		}
	}
	switch {
	case p.bondSet:
		return &ParseError{Pos: p.bondPos, Reason: "bond without following atom"}
	case len(p.branches) > 0:
		return &ParseError{Pos: len(p.src), Reason: "unclosed branch"}
	case len(p.rings) > 0:
		first := -1
		for num := range p.rings {
			if first < 0 || num < first {
				first = num
			}
		}
		return &ParseError{Pos: p.rings[first].pos, Reason: fmt.Sprintf("unclosed ring %d", first)}
	case p.afterSplit && p.prev < 0:
		return &ParseError{Pos: len(p.src), Reason: "trailing '.'"}
	}
	return nil
}

func bondFromSymbol(c byte) BondType {
	switch c {
	case '=':
		return BondDouble
	case '#':
		return BondTriple
	case '$':
		return BondQuadruple
	case ':':
		return BondAromatic
	default:
		return BondSingle
	}
}

func (p *smilesParser) addAtom(a Atom, organic bool) {
	g := p.g
	g.Atoms = append(g.Atoms, a)
	g.adj = append(g.adj, nil)
	p.organic = append(p.organic, organic)
	idx := len(g.Atoms) - 1
	if p.prev >= 0 {
		t, set := p.bond, p.bondSet
		p.connect(p.prev, idx, t, set)
	}
	p.prev = idx
	p.bondSet = false
}

// connect adds a bond, resolving an unspecified order from aromaticity.
func (p *smilesParser) connect(a, b int, t BondType, set bool) {
	g := p.g
	aromatic := false
	switch {
	case set && t == BondAromatic:
		aromatic, t = true, BondSingle
	case !set && g.Atoms[a].Aromatic && g.Atoms[b].Aromatic:
		aromatic, t = true, BondSingle
	case !set:
		t = BondSingle
	}
	g.addBond(a, b, t, aromatic)
}

func (p *smilesParser) ringClosure() error {
	start := p.pos
	if p.prev < 0 {
		return p.fail("ring closure without preceding atom")
	}
	var num int
	if p.src[p.pos] == '%' {
		if p.pos+2 >= len(p.src) || !isDigit(p.src[p.pos+1]) || !isDigit(p.src[p.pos+2]) {
			return p.fail("malformed ring number")
		}
		num = int(p.src[p.pos+1]-'0')*10 + int(p.src[p.pos+2]-'0')
		p.pos += 3
	} else {
		num = int(p.src[p.pos] - '0')
		p.pos++
	}

	open, ok := p.rings[num]
	if !ok {
		p.rings[num] = ringOpening{atom: p.prev, bond: p.bond, set: p.bondSet, pos: start}
		p.bondSet = false
		return nil
	}
	delete(p.rings, num)
	if open.atom == p.prev {
		return &ParseError{Pos: start, Reason: "ring closure to the same atom"}
	}
	for _, nb := range p.g.adj[p.prev] {
		if nb.atom == open.atom {
			return &ParseError{Pos: start, Reason: "duplicate bond from ring closure"}
		}
	}
	t, set := open.bond, open.set
	if p.bondSet {
		if set && t != p.bond {
			return &ParseError{Pos: start, Reason: "conflicting ring closure bonds"}
		}
		t, set = p.bond, true
	}
	p.connect(open.atom, p.prev, t, set)
	p.bondSet = false
	return nil
}

func (p *smilesParser) organicAtom() error {
	rest := p.src[p.pos:]
	switch {
	case strings.HasPrefix(rest, "Cl"), strings.HasPrefix(rest, "Br"):
		e, _ := LookupElement(rest[:2])
		p.pos += 2
		p.addAtom(Atom{Element: e}, true)
		return nil
	case rest[0] == '*':
		e, _ := ElementByNumber(0)
		p.pos++
		p.addAtom(Atom{Element: e}, false)
		return nil
	}
	sym := rest[:1]
	if organicSubset[sym] {
		e, _ := LookupElement(sym)
		p.pos++
		p.addAtom(Atom{Element: e}, true)
		return nil
	}
	if elem, ok := aromaticSymbols[sym]; ok && strings.IndexByte("bcnops", sym[0]) >= 0 {
		e, _ := LookupElement(elem)
		p.pos++
		p.addAtom(Atom{Element: e, Aromatic: true}, true)
		return nil
	}
	return p.fail("unexpected character %q", rest[0])
}

func (p *smilesParser) bracketAtom() error {
	end := strings.IndexByte(p.src[p.pos:], ']')
	if end < 0 {
		return p.fail("unclosed bracket atom")
	}
	body := p.src[p.pos+1 : p.pos+end]
	atom, err := parseBracket(body)
	if err != nil {
		return &ParseError{Pos: p.pos, Reason: err.Error()}
	}
	p.pos += end + 1
	p.addAtom(atom, false)
	return nil
}

// parseBracket handles isotope? symbol chiral? hcount? charge? class?
func parseBracket(s string) (Atom, error) {
	var a Atom
	i := 0
	for i < len(s) && isDigit(s[i]) {
		a.Isotope = a.Isotope*10 + int(s[i]-'0')
		i++
	}

	switch {
	case i < len(s) && s[i] == '*':
		a.Element, _ = ElementByNumber(0)
		i++
	case i < len(s) && s[i] >= 'A' && s[i] <= 'Z':
		if i+1 < len(s) && s[i+1] >= 'a' && s[i+1] <= 'z' {
			if e, ok := LookupElement(s[i : i+2]); ok {
				a.Element = e
				i += 2
				break
			}
		}
		e, ok := LookupElement(s[i : i+1])
		if !ok {
			return a, fmt.Errorf("unknown element in [%s]", s)
		}
		a.Element = e
		i++
	case i < len(s) && s[i] >= 'a' && s[i] <= 'z':
		if i+1 < len(s) {
			if sym, ok := aromaticSymbols[s[i:i+2]]; ok {
				a.Element, _ = LookupElement(sym)
				a.Aromatic = true
				i += 2
				break
			}
		}
		sym, ok := aromaticSymbols[s[i:i+1]]
		if !ok {
			return a, fmt.Errorf("unknown aromatic element in [%s]", s)
		}
		a.Element, _ = LookupElement(sym)
		a.Aromatic = true
		i++
	default:
		return a, fmt.Errorf("missing element in [%s]", s)
	}

	// chirality is accepted and ignored
	if i < len(s) && s[i] == '@' {
		i++
		if i < len(s) && s[i] == '@' {
			i++
		} else if i+1 < len(s) && strings.Contains("TH AL SP TB OH", s[i:i+2]) && s[i] >= 'A' && s[i] <= 'Z' {
			i += 2
			for i < len(s) && isDigit(s[i]) {
				i++
			}
		}
	}

	if i < len(s) && s[i] == 'H' {
		i++
		a.HCount = 1
		if i < len(s) && isDigit(s[i]) {
			a.HCount = 0
			for i < len(s) && isDigit(s[i]) {
				a.HCount = a.HCount*10 + int(s[i]-'0')
				i++
			}
		}
	}

	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		sign := 1
		if s[i] == '-' {
			sign = -1
		}
		sym := s[i]
		i++
		mag := 1
		switch {
		case i < len(s) && isDigit(s[i]):
			mag = 0
			for i < len(s) && isDigit(s[i]) {
				mag = mag*10 + int(s[i]-'0')
				i++
			}
		default:
			for i < len(s) && s[i] == sym {
				mag++
				i++
			}
		}
		a.Charge = sign * mag
	}

	if i < len(s) && s[i] == ':' {
		i++
		if i == len(s) || !isDigit(s[i]) {
			return a, fmt.Errorf("malformed atom class in [%s]", s)
		}
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}

	if i != len(s) {
		return a, fmt.Errorf("unexpected %q in [%s]", s[i], s)
	}
	a.Bracket = true
	return a, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// ---------------------------------------------------------------------------
// Hydrogens
// ---------------------------------------------------------------------------

// assignImplicitHydrogens fills HCount for organic-subset atoms using the
// smallest default valence that accommodates the written bonds. Aromatic
// atoms reserve one electron for the pi system.
func assignImplicitHydrogens(g *Graph, organic []bool) {
	for i := range g.Atoms {
		a := &g.Atoms[i]
		if !organic[i] || a.Element == nil || len(a.Element.Valences) == 0 {
			continue
		}
		sum := 0
		for _, nb := range g.adj[i] {
			b := &g.Bonds[nb.bond]
			if b.Aromatic {
				sum++
			} else {
				sum += b.Kekule.Order()
			}
		}
		if a.Aromatic {
			if h := a.Element.DefaultValence() - sum - 1; h > 0 {
				a.HCount = h
			}
			continue
		}
		for _, v := range a.Element.Valences {
			if v >= sum {
				a.HCount = v - sum
				break
			}
		}
	}
}

// foldHydrogens removes plain explicit hydrogens ([H] with a single heavy
// neighbour, no isotope, no charge) and counts them on their neighbour.
func foldHydrogens(g *Graph) *Graph {
	remove := make([]bool, len(g.Atoms))
	found := false
	for i := range g.Atoms {
		a := &g.Atoms[i]
		if a.AtomicNumber() != 1 || a.Isotope != 0 || a.Charge != 0 || a.HCount != 0 || len(g.adj[i]) != 1 {
			continue
		}
		nb := g.adj[i][0]
		b := &g.Bonds[nb.bond]
		if b.Aromatic || b.Kekule != BondSingle || g.Atoms[nb.atom].AtomicNumber() == 1 {
			continue
		}
		remove[i] = true
		found = true
	}
	if !found {
		return g
	}

	out := &Graph{}
	index := make([]int, len(g.Atoms))
	for i := range g.Atoms {
		if remove[i] {
			index[i] = -1
			continue
		}
		index[i] = len(out.Atoms)
		out.Atoms = append(out.Atoms, g.Atoms[i])
		out.adj = append(out.adj, nil)
	}
	for i := range g.Atoms {
		if remove[i] {
			out.Atoms[index[g.adj[i][0].atom]].HCount++
		}
	}
	for _, b := range g.Bonds {
		if index[b.Begin] < 0 || index[b.End] < 0 {
			continue
		}
		out.addBond(index[b.Begin], index[b.End], b.Kekule, b.Aromatic)
	}
	return out
}

// ---------------------------------------------------------------------------
// Kekulization / valence
// ---------------------------------------------------------------------------

// kekulize assigns alternating single/double orders to aromatic bonds so that
// every aromatic atom which still lacks a pi bond receives exactly one.
func (g *Graph) kekulize() error {
	need := make([]bool, len(g.Atoms))
	var pending []int
	for i := range g.Atoms {
		a := &g.Atoms[i]
		if !a.Aromatic {
			continue
		}
		base := a.HCount
		aromaticBonds := 0
		for _, nb := range g.adj[i] {
			b := &g.Bonds[nb.bond]
			if b.Aromatic {
				base++
				aromaticBonds++
			} else {
				base += b.Kekule.Order()
			}
		}
		allowed := allowedValences(a.Element, a.Charge)
		if len(allowed) == 0 || aromaticBonds == 0 {
			continue
		}
		for _, v := range allowed {
			if v >= base {
				if v-base == 1 {
					need[i] = true
					pending = append(pending, i)
				}
				break
			}
		}
	}
	if len(pending) == 0 {
		return nil
	}

	matched := make([]bool, len(g.Atoms))
	if !g.matchPiBonds(need, matched, len(pending)) {
		return &ParseError{Pos: -1, Reason: "cannot kekulize aromatic system"}
	}
	return nil
}

// matchPiBonds finds a perfect matching of the atoms flagged in need over
// aromatic bonds, setting the matched bonds to double. Backtracking always
// expands the most constrained atom first.
func (g *Graph) matchPiBonds(need, matched []bool, remaining int) bool {
	if remaining == 0 {
		return true
	}
	best, bestOptions := -1, -1
	for i := range g.Atoms {
		if !need[i] || matched[i] {
			continue
		}
		options := 0
		for _, nb := range g.adj[i] {
			if g.Bonds[nb.bond].Aromatic && need[nb.atom] && !matched[nb.atom] {
				options++
			}
		}
		if best < 0 || options < bestOptions {
			best, bestOptions = i, options
		}
	}
	if bestOptions == 0 {
		return false
	}
	for _, nb := range g.adj[best] {
		b := &g.Bonds[nb.bond]
		if !b.Aromatic || !need[nb.atom] || matched[nb.atom] {
			continue
		}
		matched[best], matched[nb.atom] = true, true
		b.Kekule = BondDouble
		if g.matchPiBonds(need, matched, remaining-2) {
			return true
		}
		b.Kekule = BondSingle
		matched[best], matched[nb.atom] = false, false
	}
	return false
}

// checkValences rejects atoms whose bonds plus hydrogens exceed the largest
// allowed valence for their element and charge.
func (g *Graph) checkValences() error {
	for i := range g.Atoms {
		a := &g.Atoms[i]
		allowed := allowedValences(a.Element, a.Charge)
		if len(allowed) == 0 {
			continue
		}
		total := g.bondSum(i) + a.HCount
		if limit := allowed[len(allowed)-1]; total > limit {
			return &ParseError{Pos: -1, Reason: fmt.Sprintf(
				"explicit valence %d for atom %d (%s) exceeds %d", total, i, a.Element.Symbol, limit)}
		}
	}
	return nil
}

//Personal.AI order the ending
