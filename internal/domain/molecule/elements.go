package molecule

// elementSymbols is indexed by atomic number.
var elementSymbols = []string{
	"",
	"H", "He",
	"Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar",
	"K", "Ca", "Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr",
	"Rb", "Sr", "Y", "Zr", "Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd",
	"In", "Sn", "Sb", "Te", "I", "Xe",
	"Cs", "Ba", "La", "Ce", "Pr", "Nd", "Pm", "Sm", "Eu", "Gd", "Tb", "Dy",
	"Ho", "Er", "Tm", "Yb", "Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt",
	"Au", "Hg", "Tl", "Pb", "Bi", "Po", "At", "Rn",
	"Fr", "Ra", "Ac", "Th", "Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf",
	"Es", "Fm", "Md", "No", "Lr",
}

var atomicNumbers = func() map[string]int {
	m := make(map[string]int, len(elementSymbols))
	for n, s := range elementSymbols {
		if s != "" {
			m[s] = n
		}
	}
	return m
}()

// organicValences lists the default valences of the SMILES organic subset,
// used to derive implicit hydrogens.
var organicValences = map[int][]int{
	5:  {3},       // B
	6:  {4},       // C
	7:  {3, 5},    // N
	8:  {2},       // O
	15: {3, 5},    // P
	16: {2, 4, 6}, // S
	9:  {1},       // F
	17: {1},       // Cl
	35: {1},       // Br
	53: {1},       // I
}

// AtomicNumber returns the atomic number of an element symbol such as "Cl".
func AtomicNumber(symbol string) (int, bool) {
	n, ok := atomicNumbers[symbol]
	return n, ok
}

// ElementSymbol returns the symbol for an atomic number, "*" for 0.
func ElementSymbol(n int) string {
	if n <= 0 || n >= len(elementSymbols) {
		return "*"
	}
	return elementSymbols[n]
}

func isHalogen(n int) bool {
	return n == 9 || n == 17 || n == 35 || n == 53
}
