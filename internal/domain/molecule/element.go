package molecule

// Element is one row of the periodic table as far as the parser and the
// descriptor calculator are concerned.
type Element struct {
	Number int
	Symbol string
	// Weight is the standard (average) atomic weight.
	Weight float64
	// Valences lists the allowed total valences in ascending order. An
	// empty list means the element is not valence checked.
	Valences []int
}

// DefaultValence returns the smallest allowed valence, or -1.
func (e *Element) DefaultValence() int {
	if e == nil || len(e.Valences) == 0 {
		return -1
	}
	return e.Valences[0]
}

// ---------------------------------------------------------------------------
// Periodic table
// ---------------------------------------------------------------------------

var elements = []Element{
	{0, "*", 0, nil},
	{1, "H", 1.008, []int{1}},
	{2, "He", 4.003, []int{0}},
	{3, "Li", 6.941, []int{1}},
	{4, "Be", 9.012, []int{2}},
	{5, "B", 10.812, []int{3}},
	{6, "C", 12.011, []int{4}},
	{7, "N", 14.007, []int{3}},
	{8, "O", 15.999, []int{2}},
	{9, "F", 18.998, []int{1}},
	{10, "Ne", 20.18, []int{0}},
	{11, "Na", 22.99, []int{1}},
	{12, "Mg", 24.305, []int{2}},
	{13, "Al", 26.982, []int{3}},
	{14, "Si", 28.086, []int{4}},
	{15, "P", 30.974, []int{3, 5, 7}},
	{16, "S", 32.067, []int{2, 4, 6}},
	{17, "Cl", 35.453, []int{1}},
	{18, "Ar", 39.948, []int{0}},
	{19, "K", 39.098, []int{1}},
	{20, "Ca", 40.078, []int{2}},
	{21, "Sc", 44.956, nil},
	{22, "Ti", 47.867, nil},
	{23, "V", 50.942, nil},
	{24, "Cr", 51.996, nil},
	{25, "Mn", 54.938, nil},
	{26, "Fe", 55.845, nil},
	{27, "Co", 58.933, nil},
	{28, "Ni", 58.693, nil},
	{29, "Cu", 63.546, nil},
	{30, "Zn", 65.39, nil},
	{31, "Ga", 69.723, []int{3}},
	{32, "Ge", 72.61, []int{4}},
	{33, "As", 74.922, []int{3, 5, 7}},
	{34, "Se", 78.96, []int{2, 4, 6}},
	{35, "Br", 79.904, []int{1}},
	{36, "Kr", 83.8, []int{0}},
	{37, "Rb", 85.468, []int{1}},
	{38, "Sr", 87.62, []int{2}},
	{39, "Y", 88.906, nil},
	{40, "Zr", 91.224, nil},
	{41, "Nb", 92.906, nil},
	{42, "Mo", 95.94, nil},
	{43, "Tc", 98.0, nil},
	{44, "Ru", 101.07, nil},
	{45, "Rh", 102.906, nil},
	{46, "Pd", 106.42, nil},
	{47, "Ag", 107.868, nil},
	{48, "Cd", 112.411, nil},
	{49, "In", 114.818, []int{3}},
	{50, "Sn", 118.71, []int{2, 4}},
	{51, "Sb", 121.76, []int{3, 5, 7}},
	{52, "Te", 127.6, []int{2, 4, 6}},
	{53, "I", 126.904, []int{1, 3, 5}},
	{54, "Xe", 131.29, []int{0, 2, 4, 6}},
	{55, "Cs", 132.905, []int{1}},
	{56, "Ba", 137.328, []int{2}},
	{78, "Pt", 195.078, nil},
	{79, "Au", 196.967, nil},
	{80, "Hg", 200.59, nil},
	{81, "Tl", 204.383, nil},
	{82, "Pb", 207.2, nil},
	{83, "Bi", 208.98, nil},
}

var (
	elementBySymbol = make(map[string]*Element, len(elements))
	elementByNumber = make(map[int]*Element, len(elements))
)

func init() {
	for i := range elements {
		e := &elements[i]
		elementBySymbol[e.Symbol] = e
		elementByNumber[e.Number] = e
	}
}

// LookupElement returns the element for a case-sensitive symbol.
func LookupElement(symbol string) (*Element, bool) {
	e, ok := elementBySymbol[symbol]
	return e, ok
}

// ElementByNumber returns the element with the given atomic number.
func ElementByNumber(z int) (*Element, bool) {
	e, ok := elementByNumber[z]
	return e, ok
}

// organicSubset holds the symbols allowed outside brackets.
var organicSubset = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
	"F": true, "Cl": true, "Br": true, "I": true,
}

// aromaticSymbols maps lower-case aromatic symbols to their element symbol.
// The first group is legal outside brackets, the rest only inside.
var aromaticSymbols = map[string]string{
	"b": "B", "c": "C", "n": "N", "o": "O", "p": "P", "s": "S",
	"se": "Se", "as": "As", "te": "Te", "si": "Si",
}

// allowedValences applies the isoelectronic rule: a charged atom takes the
// valences of the element whose atomic number is shifted by the charge, so
// N+ behaves like C and O- like F. Nil means unchecked.
func allowedValences(e *Element, charge int) []int {
	if e == nil || len(e.Valences) == 0 {
		return nil
	}
	if charge == 0 {
		return e.Valences
	}
	shifted, ok := ElementByNumber(e.Number - charge)
	if !ok || shifted.Number == 0 || len(shifted.Valences) == 0 {
		return nil
	}
	return shifted.Valences
}

//Personal.AI order the ending
