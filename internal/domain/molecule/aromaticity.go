package molecule

// piContribution returns how many electrons an atom donates to a ring's pi
// system and whether it can take part in an aromatic ring at all.
func (g *Graph) piContribution(atom int) (int, bool) {
	a := &g.Atoms[atom]
	ringDouble, exoDouble := 0, -1
	for _, nb := range g.adj[atom] {
		b := &g.Bonds[nb.bond]
		switch b.Kekule {
		case BondTriple, BondQuadruple:
			return 0, false
		case BondDouble:
			if g.ringBond[nb.bond] {
				ringDouble++
			} else {
				exoDouble = nb.atom
			}
		}
	}
	switch {
	case ringDouble == 1:
		return 1, true
	case ringDouble > 1:
		return 0, false
	case exoDouble >= 0:
		// exocyclic C=O, C=N, C=S pulls the electron out of the ring
		switch g.Atoms[exoDouble].AtomicNumber() {
		case 7, 8, 16:
			return 0, true
		}
		return 0, false
	}

	connections := g.TotalDegree(atom)
	switch a.AtomicNumber() {
	case 6:
		switch a.Charge {
		case -1:
			return 2, true
		case 1:
			return 0, true
		}
	case 5:
		if a.Charge == 0 && connections == 3 {
			return 0, true
		}
	case 7, 15, 33:
		if (a.Charge == 0 && connections <= 3) || a.Charge == -1 {
			return 2, true
		}
	case 8, 16, 34, 52:
		if a.Charge == 0 && connections == 2 {
			return 2, true
		}
	case 0:
		return 1, true
	}
	return 0, false
}

func huckel(electrons int) bool { return electrons >= 2 && (electrons-2)%4 == 0 }

// perceiveAromaticity re-derives aromatic flags from the kekulized graph.
// A ring is aromatic when every atom can contribute and the pi count obeys
// the 4n+2 rule; pairs of fused rings are also tested as one envelope so
// systems like azulene are found.
func (g *Graph) perceiveAromaticity() {
	for i := range g.Atoms {
		g.Atoms[i].Aromatic = false
	}
	for i := range g.Bonds {
		g.Bonds[i].Aromatic = false
	}
	if len(g.rings) == 0 {
		return
	}

	contrib := make([]int, len(g.Atoms))
	ok := make([]bool, len(g.Atoms))
	for i := range g.Atoms {
		if g.ringAtom[i] {
			contrib[i], ok[i] = g.piContribution(i)
		}
	}

	ringAtoms := make([][]int, len(g.rings))
	for r, ring := range g.rings {
		ringAtoms[r] = g.ringAtoms(ring)
	}
	electrons := func(atoms map[int]bool) (int, bool) {
		total := 0
		for a := range atoms {
			if !ok[a] {
				return 0, false
			}
			total += contrib[a]
		}
		return total, true
	}
	toSet := func(rings ...int) map[int]bool {
		set := make(map[int]bool)
		for _, r := range rings {
			for _, a := range ringAtoms[r] {
				set[a] = true
			}
		}
		return set
	}

	aromatic := make([]bool, len(g.rings))
	for r := range g.rings {
		if n, valid := electrons(toSet(r)); valid && huckel(n) {
			aromatic[r] = true
		}
	}
	for r1 := range g.rings {
		for r2 := r1 + 1; r2 < len(g.rings); r2++ {
			if aromatic[r1] && aromatic[r2] {
				continue
			}
			if !sharesBond(g.rings[r1], g.rings[r2]) {
				continue
			}
			if n, valid := electrons(toSet(r1, r2)); valid && huckel(n) {
				aromatic[r1], aromatic[r2] = true, true
			}
		}
	}

	for r, ring := range g.rings {
		if !aromatic[r] {
			continue
		}
		for _, b := range ring {
			g.Bonds[b].Aromatic = true
		}
		for _, a := range ringAtoms[r] {
			g.Atoms[a].Aromatic = true
		}
	}
}

func sharesBond(a, b []int) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

//Personal.AI order the ending
