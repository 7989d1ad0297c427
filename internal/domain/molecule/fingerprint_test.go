package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
)

func TestHashCombine(t *testing.T) {
	assert.Equal(t, uint32(0x9e3779b9), hashCombine(0, 0))
	assert.Equal(t, uint32(0x9e3779ba), hashCombine(0, 1))
	assert.Equal(t, hashCombine(hashCombine(0, 6), 4), hashRange([]uint32{6, 4}))
}

func TestMorganFingerprint_KnownBits(t *testing.T) {
	tests := []struct {
		smiles string
		bits   []int
	}{
		{"CCO", []int{80, 222, 294, 807, 1057, 1410}},
		{"C", []int{1264}},
		{"c1ccccc1", []int{389, 1088, 1873}},
		{"C1=CC=CC=C1", []int{389, 1088, 1873}},
		{"CC(=O)O", []int{389, 508, 650, 807, 1017, 1057, 1917}},
		{"OCC", []int{80, 222, 294, 807, 1057, 1410}},
	}
	for _, tt := range tests {
		t.Run(tt.smiles, func(t *testing.T) {
			fp, mol, err := Extract(tt.smiles)
			require.NoError(t, err)
			require.NotNil(t, mol)
			assert.Equal(t, DefaultBits, fp.Len())
			assert.Equal(t, tt.bits, fp.OnBits())
		})
	}
}

func TestAtomInvariant_MassDelta(t *testing.T) {
	tests := []struct {
		smiles string
		atom   int
		comps  []uint32
	}{
		// unlabelled atoms never carry a mass delta
		{"[Zn]", 0, []uint32{30, 0, 0, 0, 0}},
		{"[Mo]", 0, []uint32{42, 0, 0, 0, 0}},
		{"[Te]", 0, []uint32{52, 0, 0, 0, 0}},
		// 2.0141 - 1.008 truncates to 1
		{"[2H]C", 0, []uint32{1, 1, 0, 0, 1}},
		{"[2H]C", 1, []uint32{6, 4, 3, 0, 0}},
		// 13.0034 - 12.011 truncates to 0
		{"[13CH4]", 0, []uint32{6, 4, 4, 0, 0}},
		// 11.0114 - 12.011 truncates to 0
		{"[11CH4]", 0, []uint32{6, 4, 4, 0, 0}},
		// 10.0169 - 12.011 truncates to -1
		{"[10CH4]", 0, []uint32{6, 4, 4, 0, uint32(0xffffffff)}},
	}
	for _, tt := range tests {
		t.Run(tt.smiles, func(t *testing.T) {
			g, err := Parse(tt.smiles)
			require.NoError(t, err)
			inv := g.atomInvariant(tt.atom)
			assert.Equal(t, hashRange(tt.comps), inv)

			fp := MorganFingerprint(g, DefaultRadius, DefaultBits)
			assert.True(t, fp.Test(int(inv%uint32(DefaultBits))))
		})
	}
}

func TestMorganFingerprint_Deterministic(t *testing.T) {
	inputs := []string{"CCO", "c1ccccc1O", "Cn1cnc2c1c(=O)n(C)c(=O)n2C", "C12C3C4C1C5C2C3C45", "[NH4+].[Cl-]"}
	for _, smi := range inputs {
		first, _, err := Extract(smi)
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			again, _, err := Extract(smi)
			require.NoError(t, err)
			assert.True(t, first.Equal(again), smi)
		}
	}
}

func TestMorganFingerprint_ExplicitHydrogensMatchImplicit(t *testing.T) {
	a, _, err := Extract("C")
	require.NoError(t, err)
	b, _, err := Extract("[H]C([H])([H])[H]")
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestMorganFingerprint_RadiusZero(t *testing.T) {
	g, err := Parse("CCO")
	require.NoError(t, err)
	fp := MorganFingerprint(g, 0, 2048)
	// one bit per distinct atom invariant
	assert.Equal(t, 3, fp.Count())
}

func TestMorganFingerprint_Width(t *testing.T) {
	g, err := Parse("CC(=O)O")
	require.NoError(t, err)
	fp := MorganFingerprint(g, 2, 1024)
	assert.Equal(t, 1024, fp.Len())
	for _, b := range fp.OnBits() {
		assert.Less(t, b, 1024)
	}
	assert.Len(t, fp.Float64s(), 1024)
}

func TestExtract_Invalid(t *testing.T) {
	for _, smi := range []string{"", "not_a_molecule"} {
		fp, mol, err := Extract(smi)
		require.Error(t, err)
		assert.Nil(t, fp)
		assert.Nil(t, mol)
		assert.Equal(t, errors.ErrCodeInvalidStructure, errors.GetCode(err))
	}
}

func TestExtract_Ethanol(t *testing.T) {
	_, mol, err := Extract("CCO")
	require.NoError(t, err)
	assert.Equal(t, "C2H6O", mol.Formula)
	assert.Equal(t, 3, mol.NumAtoms)
	assert.Equal(t, 0, mol.NumRings)
	assert.False(t, mol.Aromatic)
	assert.Equal(t, "CCO", mol.SMILES)
}

func TestFingerprint_BitOps(t *testing.T) {
	fp := NewFingerprint(130)
	fp.Set(0)
	fp.Set(64)
	fp.Set(129)
	fp.Set(130) // ignored
	fp.Set(-1)  // ignored

	assert.Equal(t, 3, fp.Count())
	assert.Equal(t, []int{0, 64, 129}, fp.OnBits())
	assert.True(t, fp.Test(64))
	assert.False(t, fp.Test(65))
	assert.False(t, fp.Test(500))
	assert.Equal(t, "0,64,129", fp.String())

	vec := fp.Float64s()
	assert.Len(t, vec, 130)
	assert.Equal(t, 1.0, vec[129])
	assert.Equal(t, 0.0, vec[128])
}

func TestFingerprint_Equal(t *testing.T) {
	var nilFP *Fingerprint
	assert.True(t, nilFP.Equal(nil))
	assert.False(t, NewFingerprint(8).Equal(NewFingerprint(16)))
	assert.True(t, NewFingerprint(8).Equal(NewFingerprint(8)))
}

func TestNewExtractor_Defaults(t *testing.T) {
	e := NewExtractor(-1, 0)
	assert.Equal(t, DefaultRadius, e.Radius)
	assert.Equal(t, DefaultBits, e.Bits)
}

//Personal.AI order the ending
