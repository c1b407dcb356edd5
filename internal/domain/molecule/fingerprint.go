package molecule

import (
	"encoding/binary"
	"math/bits"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/turtacn/ClusterMST/pkg/errors"
)

// FingerprintMethod names a circular fingerprint flavour.
type FingerprintMethod string

const (
	// ECFC4 and ECFC6 are count-based circular fingerprints (radius 2 and 3).
	ECFC4 FingerprintMethod = "ECFC4"
	ECFC6 FingerprintMethod = "ECFC6"
	// ECFP4 and ECFP6 are folded bit vectors over the same identifiers.
	ECFP4 FingerprintMethod = "ECFP4"
	ECFP6 FingerprintMethod = "ECFP6"
	// FCFP4 and FCFP6 use pharmacophoric feature invariants instead of atom
	// types.
	FCFP4 FingerprintMethod = "FCFP4"
	FCFP6 FingerprintMethod = "FCFP6"
)

// DefaultFingerprintBits is the folded length of bit-vector methods.
const DefaultFingerprintBits = 2048

type methodSpec struct {
	radius   int
	counts   bool
	features bool
}

var methodSpecs = map[FingerprintMethod]methodSpec{
	ECFC4: {radius: 2, counts: true},
	ECFC6: {radius: 3, counts: true},
	ECFP4: {radius: 2},
	ECFP6: {radius: 3},
	FCFP4: {radius: 2, features: true},
	FCFP6: {radius: 3, features: true},
}

// FingerprintMethods returns the supported method names, sorted.
func FingerprintMethods() []string {
	out := make([]string, 0, len(methodSpecs))
	for m := range methodSpecs {
		out = append(out, string(m))
	}
	sort.Strings(out)
	return out
}

// ParseFingerprintMethod resolves a method name. Matching ignores case.
func ParseFingerprintMethod(name string) (FingerprintMethod, error) {
	m := FingerprintMethod(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := methodSpecs[m]; !ok {
		return "", errors.Newf(errors.ErrCodeFingerprintTypeUnsupported, "unknown fingerprint method %q", name)
	}
	return m, nil
}

// Radius returns the neighbourhood radius in bonds.
func (m FingerprintMethod) Radius() int { return methodSpecs[m].radius }

// IsCount reports whether the method produces feature counts.
func (m FingerprintMethod) IsCount() bool { return methodSpecs[m].counts }

// String implements fmt.Stringer.
func (m FingerprintMethod) String() string { return string(m) }

// Fingerprint is either a packed bit vector (bit i in byte i/8 at position
// i%8) or a sparse map of feature identifiers to occurrence counts.
type Fingerprint struct {
	Method    FingerprintMethod `json:"method"`
	Bits      []byte            `json:"bits,omitempty"`
	Length    int               `json:"length,omitempty"`
	NumOnBits int               `json:"num_on_bits,omitempty"`
	Counts    map[uint32]uint32 `json:"counts,omitempty"`
}

// NewBitFingerprint wraps packed bit data.
func NewBitFingerprint(method FingerprintMethod, data []byte, length int) *Fingerprint {
	onBits := 0
	for _, b := range data {
		onBits += bits.OnesCount8(b)
	}
	return &Fingerprint{Method: method, Bits: data, Length: length, NumOnBits: onBits}
}

// NewCountFingerprint wraps a sparse count map.
func NewCountFingerprint(method FingerprintMethod, counts map[uint32]uint32) *Fingerprint {
	return &Fingerprint{Method: method, Counts: counts}
}

// IsCount reports whether fp holds counts rather than bits.
func (fp *Fingerprint) IsCount() bool { return fp.Counts != nil }

// GetBit returns true if bit index is set.
func (fp *Fingerprint) GetBit(index int) bool {
	if index < 0 || index >= fp.Length {
		return false
	}
	return fp.Bits[index/8]&(1<<uint(index%8)) != 0
}

// SetBit sets bit index.
func (fp *Fingerprint) SetBit(index int) {
	if index < 0 || index >= fp.Length {
		return
	}
	old := fp.Bits[index/8]
	fp.Bits[index/8] |= 1 << uint(index%8)
	if old != fp.Bits[index/8] {
		fp.NumOnBits++
	}
}

// Total returns the number of set bits or the sum of all counts.
func (fp *Fingerprint) Total() int {
	if !fp.IsCount() {
		return fp.NumOnBits
	}
	total := 0
	for _, c := range fp.Counts {
		total += int(c)
	}
	return total
}

// ComputeFingerprint derives the method's fingerprint from a parsed molecule.
func ComputeFingerprint(m *Molecule, method FingerprintMethod) (*Fingerprint, error) {
	spec, ok := methodSpecs[method]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeFingerprintTypeUnsupported, "unknown fingerprint method %q", method)
	}
	if m == nil || m.NumAtoms() == 0 {
		return nil, errors.New(errors.ErrCodeFingerprintGenerationFailed, "molecule has no atoms")
	}

	ids := morganIdentifiers(m, spec.radius, spec.features)
	if spec.counts {
		counts := make(map[uint32]uint32, len(ids))
		for _, id := range ids {
			counts[id]++
		}
		return NewCountFingerprint(method, counts), nil
	}

	fp := NewBitFingerprint(method, make([]byte, DefaultFingerprintBits/8), DefaultFingerprintBits)
	for _, id := range ids {
		fp.SetBit(int(id % DefaultFingerprintBits))
	}
	return fp, nil
}

// FingerprintSMILES parses smiles and computes its fingerprint.
func FingerprintSMILES(smiles string, method FingerprintMethod) (*Fingerprint, error) {
	m, err := ParseSMILES(smiles)
	if err != nil {
		return nil, err
	}
	return ComputeFingerprint(m, method)
}

// morganIdentifiers runs the extended-connectivity iteration and returns
// every identifier that describes a distinct bond environment. Identifiers
// of radius 0 are always kept, one per atom.
func morganIdentifiers(m *Molecule, radius int, features bool) []uint32 {
	n := m.NumAtoms()
	h := newIDHasher()

	cur := make([]uint32, n)
	for i := range m.Atoms {
		if features {
			cur[i] = h.ints(int(featureFlags(m, i)), 1)
		} else {
			cur[i] = h.ints(atomInvariant(m, i)...)
		}
	}
	out := make([]uint32, 0, n*(radius+1))
	out = append(out, cur...)

	envs := make([]bondSet, n)
	for i := range envs {
		envs[i] = newBondSet(m.NumBonds())
	}
	seen := make(map[string]struct{})

	type candidate struct {
		atom int
		id   uint32
		env  bondSet
	}
	for r := 1; r <= radius; r++ {
		next := make([]uint32, n)
		nextEnvs := make([]bondSet, n)
		cands := make([]candidate, 0, n)
		for i := range m.Atoms {
			type pair struct{ order, id uint32 }
			pairs := make([]pair, 0, m.Degree(i))
			env := envs[i].clone()
			for _, k := range m.BondsOf(i) {
				nb := m.Bonds[k].Other(i)
				pairs = append(pairs, pair{uint32(m.Bonds[k].Order), cur[nb]})
				env.add(k)
				env.union(envs[nb])
			}
			sort.Slice(pairs, func(a, b int) bool {
				if pairs[a].order != pairs[b].order {
					return pairs[a].order < pairs[b].order
				}
				return pairs[a].id < pairs[b].id
			})
			vals := make([]int, 0, 2+2*len(pairs))
			vals = append(vals, r, int(cur[i]))
			for _, p := range pairs {
				vals = append(vals, int(p.order), int(p.id))
			}
			next[i] = h.ints(vals...)
			if m.Degree(i) > 0 {
				cands = append(cands, candidate{atom: i, id: next[i], env: env})
			}
			nextEnvs[i] = env
		}

		sort.SliceStable(cands, func(a, b int) bool { return cands[a].id < cands[b].id })
		for _, c := range cands {
			key := c.env.key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, c.id)
		}
		cur = next
		envs = nextEnvs
	}
	return out
}

func atomInvariant(m *Molecule, i int) []int {
	a := m.Atoms[i]
	ring := 0
	if m.InRing(i) {
		ring = 1
	}
	return []int{a.Number, m.Degree(i), a.HCount, a.Charge, a.Isotope, ring}
}

// Pharmacophoric feature flags used by the FCFP methods.
const (
	featDonor uint8 = 1 << iota
	featAcceptor
	featAromatic
	featHalogen
	featBasic
	featAcidic
)

func featureFlags(m *Molecule, i int) uint8 {
	a := m.Atoms[i]
	var f uint8
	if a.Aromatic {
		f |= featAromatic
	}
	if isHalogen(a.Number) {
		f |= featHalogen
	}
	switch a.Number {
	case 7: // N
		if a.HCount > 0 && a.Charge >= 0 {
			f |= featDonor
		}
		if a.Charge <= 0 && a.HCount == 0 && !(a.Aromatic && m.Degree(i) == 3) {
			f |= featAcceptor
		}
		if a.Charge > 0 || (!a.Aromatic && saturated(m, i) && !nextToPiSystem(m, i)) {
			f |= featBasic
		}
	case 8: // O
		if a.HCount > 0 {
			f |= featDonor
			if acidHydroxyl(m, i) {
				f |= featAcidic
			}
		}
		if a.Charge <= 0 {
			f |= featAcceptor
		}
		if a.Charge < 0 {
			f |= featAcidic
		}
	case 16: // S
		if a.Charge < 0 {
			f |= featAcidic
		}
	}
	return f
}

// saturated reports whether every bond of atom i is single.
func saturated(m *Molecule, i int) bool {
	for _, k := range m.BondsOf(i) {
		if m.Bonds[k].Order != BondSingle {
			return false
		}
	}
	return true
}

// nextToPiSystem reports whether a neighbour of i is aromatic or carries a
// double bond (amides, anilines, enamines).
func nextToPiSystem(m *Molecule, i int) bool {
	for _, nb := range m.Neighbors(i) {
		if m.Atoms[nb].Aromatic || !saturated(m, nb) {
			return true
		}
	}
	return false
}

// acidHydroxyl reports whether hydroxyl oxygen i sits on a C, S or P that
// also carries a double-bonded oxygen.
func acidHydroxyl(m *Molecule, i int) bool {
	for _, nb := range m.Neighbors(i) {
		switch m.Atoms[nb].Number {
		case 6, 15, 16:
		default:
			continue
		}
		for _, k := range m.BondsOf(nb) {
			b := m.Bonds[k]
			if b.Order == BondDouble && m.Atoms[b.Other(nb)].Number == 8 {
				return true
			}
		}
	}
	return false
}

type idHasher struct {
	buf []byte
}

func newIDHasher() *idHasher { return &idHasher{buf: make([]byte, 0, 64)} }

func (h *idHasher) ints(vals ...int) uint32 {
	h.buf = h.buf[:0]
	for _, v := range vals {
		h.buf = binary.LittleEndian.AppendUint32(h.buf, uint32(int32(v)))
	}
	sum := xxhash.Sum64(h.buf)
	return uint32(sum ^ sum>>32)
}

// bondSet is a bitset over bond indices.
type bondSet []uint64

func newBondSet(n int) bondSet { return make(bondSet, (n+63)/64) }

func (s bondSet) add(k int) { s[k/64] |= 1 << uint(k%64) }

func (s bondSet) union(o bondSet) {
	for i := range s {
		s[i] |= o[i]
	}
}

func (s bondSet) clone() bondSet {
	out := make(bondSet, len(s))
	copy(out, s)
	return out
}

func (s bondSet) key() string {
	b := make([]byte, 0, len(s)*8)
	for _, w := range s {
		b = binary.LittleEndian.AppendUint64(b, w)
	}
	return string(b)
}
