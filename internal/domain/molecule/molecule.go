// Package molecule is the structure layer of the service: a SMILES parser, the
// molecular graph it produces, circular fingerprints over that graph and the
// similarity measures used to compare them.
package molecule

import "sort"

// BondOrder is the multiplicity of a bond.
type BondOrder int

const (
	BondSingle    BondOrder = 1
	BondDouble    BondOrder = 2
	BondTriple    BondOrder = 3
	BondQuadruple BondOrder = 4
	BondAromatic  BondOrder = 5
)

// String returns the SMILES bond symbol.
func (o BondOrder) String() string {
	switch o {
	case BondDouble:
		return "="
	case BondTriple:
		return "#"
	case BondQuadruple:
		return "$"
	case BondAromatic:
		return ":"
	default:
		return "-"
	}
}

// valence is the bond's contribution to an atom's valence. Aromatic bonds
// count as one; the aromatic atom receives the extra electron separately.
func (o BondOrder) valence() int {
	switch o {
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

// Atom is a heavy atom (or an explicit bracket hydrogen) of a molecule.
type Atom struct {
	Symbol    string // element symbol, capitalised; "*" for a wildcard
	Number    int    // atomic number, 0 for a wildcard
	Aromatic  bool
	Isotope   int
	Charge    int
	HCount    int // attached hydrogens, explicit for bracket atoms, implicit otherwise
	Bracket   bool
	Chirality string
	Class     int
}

// Bond connects two atoms by index.
type Bond struct {
	From   int
	To     int
	Order  BondOrder
	InRing bool
}

// Other returns the atom at the opposite end of the bond from atom.
func (b Bond) Other(atom int) int {
	if b.From == atom {
		return b.To
	}
	return b.From
}

// Molecule is a parsed molecular graph.
type Molecule struct {
	SMILES string
	Atoms  []Atom
	Bonds  []Bond

	adj [][]int // bond indices per atom
}

// NumAtoms returns the number of atoms.
func (m *Molecule) NumAtoms() int { return len(m.Atoms) }

// NumBonds returns the number of bonds.
func (m *Molecule) NumBonds() int { return len(m.Bonds) }

// BondsOf returns the indices of the bonds incident to atom i.
func (m *Molecule) BondsOf(i int) []int { return m.adj[i] }

// Degree is the number of explicit neighbours of atom i.
func (m *Molecule) Degree(i int) int { return len(m.adj[i]) }

// Neighbors returns the atoms bonded to atom i.
func (m *Molecule) Neighbors(i int) []int {
	out := make([]int, len(m.adj[i]))
	for k, b := range m.adj[i] {
		out[k] = m.Bonds[b].Other(i)
	}
	return out
}

// BondBetween returns the index of the bond joining a and b.
func (m *Molecule) BondBetween(a, b int) (int, bool) {
	if a < 0 || a >= len(m.adj) {
		return 0, false
	}
	for _, k := range m.adj[a] {
		if m.Bonds[k].Other(a) == b {
			return k, true
		}
	}
	return 0, false
}

// InRing reports whether atom i belongs to at least one ring.
func (m *Molecule) InRing(i int) bool {
	for _, k := range m.adj[i] {
		if m.Bonds[k].InRing {
			return true
		}
	}
	return false
}

// Components returns the connected components as sorted atom index lists,
// ordered by their lowest atom index.
func (m *Molecule) Components() [][]int {
	seen := make([]bool, len(m.Atoms))
	var out [][]int
	for start := range m.Atoms {
		if seen[start] {
			continue
		}
		comp := []int{start}
		seen[start] = true
		for q := 0; q < len(comp); q++ {
			for _, nb := range m.Neighbors(comp[q]) {
				if !seen[nb] {
					seen[nb] = true
					comp = append(comp, nb)
				}
			}
		}
		sort.Ints(comp)
		out = append(out, comp)
	}
	return out
}

func (m *Molecule) addAtom(a Atom) int {
	m.Atoms = append(m.Atoms, a)
	m.adj = append(m.adj, nil)
	return len(m.Atoms) - 1
}

func (m *Molecule) addBond(a, b int, order BondOrder) {
	m.Bonds = append(m.Bonds, Bond{From: a, To: b, Order: order})
	k := len(m.Bonds) - 1
	m.adj[a] = append(m.adj[a], k)
	m.adj[b] = append(m.adj[b], k)
}

// finalize perceives ring bonds and fills implicit hydrogen counts.
func (m *Molecule) finalize() {
	m.markRingBonds()
	for i := range m.Atoms {
		if !m.Atoms[i].Bracket {
			m.Atoms[i].HCount = m.implicitHydrogens(i)
		}
	}
}

func (m *Molecule) implicitHydrogens(i int) int {
	a := m.Atoms[i]
	valences, ok := organicValences[a.Number]
	if !ok {
		return 0
	}
	sum := 0
	for _, k := range m.adj[i] {
		sum += m.Bonds[k].Order.valence()
	}
	if a.Aromatic {
		sum++
		if sum > valences[0] {
			return 0
		}
	}
	for _, v := range valences {
		if v >= sum {
			return v - sum
		}
	}
	return 0
}

// markRingBonds flags every bond that is not a bridge. A bond lies on a ring
// exactly when removing it leaves its endpoints connected.
func (m *Molecule) markRingBonds() {
	n := len(m.Atoms)
	disc := make([]int, n)
	low := make([]int, n)
	for i := range disc {
		disc[i] = -1
	}
	for k := range m.Bonds {
		m.Bonds[k].InRing = true
	}

	timer := 0
	var visit func(u, parentBond int)
	visit = func(u, parentBond int) {
		disc[u] = timer
		low[u] = timer
		timer++
		for _, k := range m.adj[u] {
			if k == parentBond {
				continue
			}
			v := m.Bonds[k].Other(u)
			if disc[v] == -1 {
				visit(v, k)
				if low[v] < low[u] {
					low[u] = low[v]
				}
				if low[v] > disc[u] {
					m.Bonds[k].InRing = false
				}
			} else if disc[v] < low[u] {
				low[u] = disc[v]
			}
		}
	}
	for i := 0; i < n; i++ {
		if disc[i] == -1 {
			visit(i, -1)
		}
	}
}
