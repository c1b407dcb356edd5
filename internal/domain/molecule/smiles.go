package molecule

import (
	"fmt"
	"strings"

	"github.com/turtacn/ClusterMST/pkg/errors"
)

// ParseSMILES parses a SMILES string into a molecular graph. Anything after
// the first whitespace is treated as a title and ignored.
//
// Supported: the organic subset (B C N O P S F Cl Br I and aromatic
// b c n o p s), bracket atoms with isotope, chirality, hydrogen count, charge
// and atom class, the bond symbols - = # $ : / \, branches, ring closures
// (single digits and %nn) and dot-separated components.
func ParseSMILES(smiles string) (*Molecule, error) {
	s := strings.TrimSpace(smiles)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return nil, errors.New(errors.CodeMoleculeInvalidSMILES, "empty SMILES")
	}

	p := &smilesParser{
		src:   s,
		prev:  -1,
		rings: make(map[int]openRing),
		mol:   &Molecule{SMILES: s},
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	p.mol.finalize()
	return p.mol, nil
}

// MustParseSMILES is ParseSMILES that panics, for tests and fixed inputs.
func MustParseSMILES(smiles string) *Molecule {
	m, err := ParseSMILES(smiles)
	if err != nil {
		panic(err)
	}
	return m
}

type openRing struct {
	atom  int
	order BondOrder // 0 when no bond symbol preceded the opening digit
}

type smilesParser struct {
	src      string
	pos      int
	mol      *Molecule
	prev     int
	branches []int
	pending  BondOrder
	rings    map[int]openRing
}

func (p *smilesParser) fail(format string, args ...interface{}) error {
	return errors.New(errors.CodeMoleculeInvalidSMILES,
		fmt.Sprintf("invalid SMILES %q at position %d: %s", p.src, p.pos, fmt.Sprintf(format, args...)))
}

func (p *smilesParser) parse() error {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '(':
			if p.prev < 0 {
				return p.fail("branch without a preceding atom")
			}
			if p.pending != 0 {
				return p.fail("bond symbol before '('")
			}
			p.branches = append(p.branches, p.prev)
			p.pos++
		case c == ')':
			if len(p.branches) == 0 {
				return p.fail("unbalanced ')'")
			}
			if p.pending != 0 {
				return p.fail("bond symbol before ')'")
			}
			p.prev = p.branches[len(p.branches)-1]
			p.branches = p.branches[:len(p.branches)-1]
			p.pos++
		case c == '.':
			if p.pending != 0 {
				return p.fail("bond symbol before '.'")
			}
			p.prev = -1
			p.pos++
		case strings.IndexByte(`-=#$:/\`, c) >= 0:
			if p.pending != 0 {
				return p.fail("consecutive bond symbols")
			}
			if p.prev < 0 {
				return p.fail("bond without a preceding atom")
			}
			p.pending = bondOrderFor(c)
			p.pos++
		case c >= '0' && c <= '9':
			if err := p.ringClosure(int(c - '0')); err != nil {
				return err
			}
			p.pos++
		case c == '%':
			if p.pos+2 >= len(p.src) || !isDigit(p.src[p.pos+1]) || !isDigit(p.src[p.pos+2]) {
				return p.fail("'%%' must be followed by two digits")
			}
			n := int(p.src[p.pos+1]-'0')*10 + int(p.src[p.pos+2]-'0')
			if err := p.ringClosure(n); err != nil {
				return err
			}
			p.pos += 3
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
	case len(p.branches) > 0:
		return p.fail("unbalanced '('")
	case p.pending != 0:
		return p.fail("dangling bond")
	case len(p.rings) > 0:
		first := -1
		for n := range p.rings {
			if first < 0 || n < first {
				first = n
			}
		}
		return p.fail("unclosed ring %d", first)
	case len(p.mol.Atoms) == 0:
		return p.fail("no atoms")
	}
	return nil
}

func bondOrderFor(c byte) BondOrder {
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
		// '-', '/', '\'; directional bonds are single bonds without stereo.
		return BondSingle
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (p *smilesParser) defaultOrder(a, b int) BondOrder {
	if p.mol.Atoms[a].Aromatic && p.mol.Atoms[b].Aromatic {
		return BondAromatic
	}
	return BondSingle
}

func (p *smilesParser) attach(a Atom) {
	idx := p.mol.addAtom(a)
	if p.prev >= 0 {
		order := p.pending
		if order == 0 {
			order = p.defaultOrder(p.prev, idx)
		}
		p.mol.addBond(p.prev, idx, order)
	}
	p.pending = 0
	p.prev = idx
}

func (p *smilesParser) ringClosure(n int) error {
	if p.prev < 0 {
		return p.fail("ring bond %d without a preceding atom", n)
	}
	open, ok := p.rings[n]
	if !ok {
		p.rings[n] = openRing{atom: p.prev, order: p.pending}
		p.pending = 0
		return nil
	}

	if open.atom == p.prev {
		return p.fail("ring bond %d closes on its own atom", n)
	}
	if _, dup := p.mol.BondBetween(open.atom, p.prev); dup {
		return p.fail("ring bond %d duplicates an existing bond", n)
	}
	order := p.pending
	switch {
	case order == 0:
		order = open.order
	case open.order != 0 && open.order != order:
		return p.fail("conflicting bond symbols on ring bond %d", n)
	}
	if order == 0 {
		order = p.defaultOrder(open.atom, p.prev)
	}
	p.mol.addBond(open.atom, p.prev, order)
	delete(p.rings, n)
	p.pending = 0
	return nil
}

func (p *smilesParser) organicAtom() error {
	rest := p.src[p.pos:]
	if strings.HasPrefix(rest, "Cl") || strings.HasPrefix(rest, "Br") {
		sym := rest[:2]
		p.attach(Atom{Symbol: sym, Number: atomicNumbers[sym]})
		p.pos += 2
		return nil
	}

	c := rest[0]
	switch c {
	case 'B', 'C', 'N', 'O', 'P', 'S', 'F', 'I':
		sym := string(c)
		p.attach(Atom{Symbol: sym, Number: atomicNumbers[sym]})
	case 'b', 'c', 'n', 'o', 'p', 's':
		sym := strings.ToUpper(string(c))
		p.attach(Atom{Symbol: sym, Number: atomicNumbers[sym], Aromatic: true})
	case '*':
		p.attach(Atom{Symbol: "*"})
	default:
		return p.fail("unexpected character %q", c)
	}
	p.pos++
	return nil
}

// bracketAtom parses "[" isotope? symbol chiral? hcount? charge? class? "]".
func (p *smilesParser) bracketAtom() error {
	end := strings.IndexByte(p.src[p.pos:], ']')
	if end < 0 {
		return p.fail("unclosed '['")
	}
	body := p.src[p.pos+1 : p.pos+end]
	a := Atom{Bracket: true}
	i := 0

	for i < len(body) && isDigit(body[i]) {
		a.Isotope = a.Isotope*10 + int(body[i]-'0')
		i++
	}

	if i >= len(body) {
		return p.fail("bracket atom without element")
	}
	switch c := body[i]; {
	case c == '*':
		a.Symbol = "*"
		i++
	case c >= 'A' && c <= 'Z':
		if i+1 < len(body) && body[i+1] >= 'a' && body[i+1] <= 'z' {
			if n, ok := atomicNumbers[body[i:i+2]]; ok {
				a.Symbol, a.Number = body[i:i+2], n
				i += 2
				break
			}
		}
		n, ok := atomicNumbers[body[i:i+1]]
		if !ok {
			return p.fail("unknown element %q", body[i:i+1])
		}
		a.Symbol, a.Number = body[i:i+1], n
		i++
	case c >= 'a' && c <= 'z':
		sym := ""
		for _, two := range []string{"se", "as", "te"} {
			if strings.HasPrefix(body[i:], two) {
				sym = two
				break
			}
		}
		if sym == "" && strings.IndexByte("bcnops", c) >= 0 {
			sym = string(c)
		}
		if sym == "" {
			return p.fail("unknown aromatic element %q", c)
		}
		a.Symbol = strings.ToUpper(sym[:1]) + sym[1:]
		a.Number = atomicNumbers[a.Symbol]
		a.Aromatic = true
		i += len(sym)
	default:
		return p.fail("unknown element %q", c)
	}

	if i < len(body) && body[i] == '@' {
		start := i
		i++
		if i < len(body) && body[i] == '@' {
			i++
		} else if i+1 < len(body) && body[i] >= 'A' && body[i] <= 'Z' && body[i+1] >= 'A' && body[i+1] <= 'Z' {
			i += 2
			for i < len(body) && isDigit(body[i]) {
				i++
			}
		}
		a.Chirality = body[start:i]
	}

	if i < len(body) && body[i] == 'H' {
		i++
		a.HCount = 1
		if i < len(body) && isDigit(body[i]) {
			a.HCount = int(body[i] - '0')
			i++
		}
	}

	if i < len(body) && (body[i] == '+' || body[i] == '-') {
		sign := 1
		if body[i] == '-' {
			sign = -1
		}
		sym := body[i]
		i++
		magnitude := 1
		if i < len(body) && isDigit(body[i]) {
			magnitude = 0
			for i < len(body) && isDigit(body[i]) {
				magnitude = magnitude*10 + int(body[i]-'0')
				i++
			}
		} else {
			for i < len(body) && body[i] == sym {
				magnitude++
				i++
			}
		}
		a.Charge = sign * magnitude
	}

	if i < len(body) && body[i] == ':' {
		i++
		if i >= len(body) || !isDigit(body[i]) {
			return p.fail("atom class without digits")
		}
		for i < len(body) && isDigit(body[i]) {
			a.Class = a.Class*10 + int(body[i]-'0')
			i++
		}
	}

	if i != len(body) {
		return p.fail("unexpected %q in bracket atom", body[i:])
	}

	p.attach(a)
	p.pos += end + 1
	return nil
}
