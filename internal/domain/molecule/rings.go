package molecule

import "sort"

// perceiveRings marks ring bonds and atoms (every bond that is not a bridge)
// and computes the smallest set of smallest rings.
func (g *Graph) perceiveRings() {
	g.ringBond = make([]bool, len(g.Bonds))
	g.ringAtom = make([]bool, len(g.Atoms))
	bridges := g.findBridges()
	for i := range g.Bonds {
		if !bridges[i] {
			g.ringBond[i] = true
			g.ringAtom[g.Bonds[i].Begin] = true
			g.ringAtom[g.Bonds[i].End] = true
		}
	}
	g.rings = g.smallestRings()
}

// findBridges is Tarjan's low-link bridge search.
func (g *Graph) findBridges() []bool {
	n := len(g.Atoms)
	bridges := make([]bool, len(g.Bonds))
	disc := make([]int, n)
	low := make([]int, n)
	for i := range disc {
		disc[i] = -1
	}
	timer := 0

	var visit func(u, parentBond int)
	visit = func(u, parentBond int) {
		disc[u], low[u] = timer, timer
		timer++
		for _, nb := range g.adj[u] {
			if nb.bond == parentBond {
				continue
			}
			if disc[nb.atom] < 0 {
				visit(nb.atom, nb.bond)
				if low[nb.atom] < low[u] {
					low[u] = low[nb.atom]
				}
				if low[nb.atom] > disc[u] {
					bridges[nb.bond] = true
				}
			} else if disc[nb.atom] < low[u] {
				low[u] = disc[nb.atom]
			}
		}
	}
	for i := 0; i < n; i++ {
		if disc[i] < 0 {
			visit(i, -1)
		}
	}
	return bridges
}

// components counts connected fragments.
func (g *Graph) components() int {
	seen := make([]bool, len(g.Atoms))
	count := 0
	for i := range g.Atoms {
		if seen[i] {
			continue
		}
		count++
		stack := []int{i}
		seen[i] = true
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, nb := range g.adj[u] {
				if !seen[nb.atom] {
					seen[nb.atom] = true
					stack = append(stack, nb.atom)
				}
			}
		}
	}
	return count
}

// bondSet is a GF(2) vector over bond indices.
type bondSet []uint64

func newBondSet(n int) bondSet { return make(bondSet, (n+63)/64) }

func (s bondSet) set(i int)      { s[i/64] |= 1 << uint(i%64) }
func (s bondSet) clone() bondSet { return append(bondSet(nil), s...) }

func (s bondSet) xor(o bondSet) {
	for i := range s {
		s[i] ^= o[i]
	}
}

func (s bondSet) isZero() bool {
	for _, w := range s {
		if w != 0 {
			return false
		}
	}
	return true
}

func (s bondSet) lowest() int {
	for i, w := range s {
		if w == 0 {
			continue
		}
		for b := 0; b < 64; b++ {
			if w&(1<<uint(b)) != 0 {
				return i*64 + b
			}
		}
	}
	return -1
}

type ringCandidate struct {
	bonds []int
	set   bondSet
}

// smallestRings returns E-V+C linearly independent cycles of minimal total
// size. Candidates are the shortest cycle through every ring bond plus the
// fundamental cycles of a spanning forest, so a full basis always exists.
func (g *Graph) smallestRings() [][]int {
	want := len(g.Bonds) - len(g.Atoms) + g.components()
	if want <= 0 {
		return nil
	}

	var candidates []ringCandidate
	seen := make(map[string]bool)
	add := func(bonds []int) {
		if len(bonds) < 3 {
			return
		}
		sort.Ints(bonds)
		key := make([]byte, 0, len(bonds)*3)
		for _, b := range bonds {
			key = append(key, byte(b>>16), byte(b>>8), byte(b))
		}
		if seen[string(key)] {
			return
		}
		seen[string(key)] = true
		set := newBondSet(len(g.Bonds))
		for _, b := range bonds {
			set.set(b)
		}
		candidates = append(candidates, ringCandidate{bonds: bonds, set: set})
	}

	for i := range g.Bonds {
		if !g.ringBond[i] {
			continue
		}
		b := g.Bonds[i]
		if path := g.shortestPath(b.Begin, b.End, i); path != nil {
			add(append(path, i))
		}
	}
	for _, cycle := range g.fundamentalCycles() {
		add(cycle)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if len(candidates[i].bonds) != len(candidates[j].bonds) {
			return len(candidates[i].bonds) < len(candidates[j].bonds)
		}
		a, b := candidates[i].bonds, candidates[j].bonds
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})

	// Gaussian elimination keyed by lowest set bond.
	basis := make(map[int]bondSet)
	var rings [][]int
	for _, c := range candidates {
		v := c.set.clone()
		for !v.isZero() {
			pivot := v.lowest()
			row, ok := basis[pivot]
			if !ok {
				basis[pivot] = v
				break
			}
			v.xor(row)
		}
		if v.isZero() {
			continue
		}
		rings = append(rings, c.bonds)
		if len(rings) == want {
			break
		}
	}
	return rings
}

// shortestPath is a BFS over ring bonds from src to dst that never uses the
// excluded bond. It returns the bond indices on the path.
func (g *Graph) shortestPath(src, dst, excluded int) []int {
	prevBond := make([]int, len(g.Atoms))
	prevAtom := make([]int, len(g.Atoms))
	for i := range prevBond {
		prevBond[i] = -2
	}
	prevBond[src] = -1
	queue := []int{src}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		if u == dst {
			break
		}
		for _, nb := range g.adj[u] {
			if nb.bond == excluded || !g.ringBond[nb.bond] || prevBond[nb.atom] != -2 {
				continue
			}
			prevBond[nb.atom] = nb.bond
			prevAtom[nb.atom] = u
			queue = append(queue, nb.atom)
		}
	}
	if prevBond[dst] == -2 {
		return nil
	}
	var path []int
	for v := dst; v != src; v = prevAtom[v] {
		path = append(path, prevBond[v])
	}
	return path
}

// fundamentalCycles closes every non-tree bond of a BFS spanning forest.
func (g *Graph) fundamentalCycles() [][]int {
	n := len(g.Atoms)
	parent := make([]int, n)
	parentBond := make([]int, n)
	depth := make([]int, n)
	for i := range parent {
		parent[i] = -2
	}
	tree := make([]bool, len(g.Bonds))
	for root := 0; root < n; root++ {
		if parent[root] != -2 {
			continue
		}
		parent[root], parentBond[root] = -1, -1
		queue := []int{root}
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			for _, nb := range g.adj[u] {
				if parent[nb.atom] != -2 {
					continue
				}
				parent[nb.atom], parentBond[nb.atom] = u, nb.bond
				depth[nb.atom] = depth[u] + 1
				tree[nb.bond] = true
				queue = append(queue, nb.atom)
			}
		}
	}

	var cycles [][]int
	for i, b := range g.Bonds {
		if tree[i] {
			continue
		}
		cycle := []int{i}
		u, v := b.Begin, b.End
		for depth[u] > depth[v] {
			cycle = append(cycle, parentBond[u])
			u = parent[u]
		}
		for depth[v] > depth[u] {
			cycle = append(cycle, parentBond[v])
			v = parent[v]
		}
		for u != v {
			cycle = append(cycle, parentBond[u], parentBond[v])
			u, v = parent[u], parent[v]
		}
		cycles = append(cycles, cycle)
	}
	return cycles
}

//Personal.AI order the ending
