package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ClusterMST/pkg/errors"
)

const aspirin = "CC(=O)Oc1ccccc1C(=O)O"

func TestFingerprintMethods(t *testing.T) {
	assert.Equal(t, []string{"ECFC4", "ECFC6", "ECFP4", "ECFP6", "FCFP4", "FCFP6"}, FingerprintMethods())
}

func TestParseFingerprintMethod(t *testing.T) {
	m, err := ParseFingerprintMethod(" ecfc4 ")
	require.NoError(t, err)
	assert.Equal(t, ECFC4, m)
	assert.Equal(t, 2, m.Radius())
	assert.True(t, m.IsCount())
	assert.False(t, FCFP6.IsCount())
	assert.Equal(t, 3, FCFP6.Radius())

	_, err = ParseFingerprintMethod("MACCS")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeFingerprintTypeUnsupported))
}

func TestComputeFingerprint_Deterministic(t *testing.T) {
	for _, name := range FingerprintMethods() {
		method := FingerprintMethod(name)
		t.Run(name, func(t *testing.T) {
			a, err := FingerprintSMILES(aspirin, method)
			require.NoError(t, err)
			b, err := FingerprintSMILES(aspirin, method)
			require.NoError(t, err)
			assert.Equal(t, a, b)
			assert.Equal(t, method, a.Method)
			assert.Greater(t, a.Total(), 0)
		})
	}
}

func TestComputeFingerprint_AtomOrderInvariant(t *testing.T) {
	for _, method := range []FingerprintMethod{ECFC4, ECFP4, FCFP6} {
		a, err := FingerprintSMILES("CCO", method)
		require.NoError(t, err)
		b, err := FingerprintSMILES("OCC", method)
		require.NoError(t, err)
		assert.Equal(t, a, b, string(method))
	}
}

func TestComputeFingerprint_CountShape(t *testing.T) {
	fp, err := FingerprintSMILES("CCO", ECFC4)
	require.NoError(t, err)
	require.True(t, fp.IsCount())
	assert.Nil(t, fp.Bits)
	// radius 0 gives one identifier per atom, radius 1 three distinct
	// environments; at radius 2 every environment repeats the central one.
	assert.Equal(t, 6, fp.Total())
}

func TestComputeFingerprint_LargerRadiusExtends(t *testing.T) {
	small, err := FingerprintSMILES(aspirin, ECFC4)
	require.NoError(t, err)
	large, err := FingerprintSMILES(aspirin, ECFC6)
	require.NoError(t, err)

	for id, c := range small.Counts {
		assert.GreaterOrEqual(t, large.Counts[id], c)
	}
	assert.GreaterOrEqual(t, large.Total(), small.Total())
}

func TestComputeFingerprint_BitVector(t *testing.T) {
	fp, err := FingerprintSMILES(aspirin, ECFP4)
	require.NoError(t, err)
	assert.False(t, fp.IsCount())
	assert.Equal(t, DefaultFingerprintBits, fp.Length)
	assert.Len(t, fp.Bits, DefaultFingerprintBits/8)

	counts, err := FingerprintSMILES(aspirin, ECFC4)
	require.NoError(t, err)
	assert.Greater(t, fp.NumOnBits, 0)
	assert.LessOrEqual(t, fp.NumOnBits, len(counts.Counts))

	for id := range counts.Counts {
		assert.True(t, fp.GetBit(int(id%DefaultFingerprintBits)))
	}
}

func TestComputeFingerprint_FeatureInvariants(t *testing.T) {
	cl, err := FingerprintSMILES("Clc1ccccc1", FCFP4)
	require.NoError(t, err)
	br, err := FingerprintSMILES("Brc1ccccc1", FCFP4)
	require.NoError(t, err)

	calc := &TanimotoCalculator{}
	sim, err := calc.Calculate(cl, br)
	require.NoError(t, err)
	assert.Equal(t, 1.0, sim, "halogens share a feature class")

	cl, err = FingerprintSMILES("Clc1ccccc1", ECFP4)
	require.NoError(t, err)
	br, err = FingerprintSMILES("Brc1ccccc1", ECFP4)
	require.NoError(t, err)
	sim, err = calc.Calculate(cl, br)
	require.NoError(t, err)
	assert.Less(t, sim, 1.0)
}

func TestFeatureFlags(t *testing.T) {
	m := MustParseSMILES("OC(=O)CCN")
	assert.NotZero(t, featureFlags(m, 0)&featAcidic)
	assert.NotZero(t, featureFlags(m, 0)&featDonor)
	assert.NotZero(t, featureFlags(m, 2)&featAcceptor)
	assert.NotZero(t, featureFlags(m, 5)&featBasic)

	aniline := MustParseSMILES("Nc1ccccc1")
	assert.Zero(t, featureFlags(aniline, 0)&featBasic)
	assert.NotZero(t, featureFlags(aniline, 1)&featAromatic)
}

func TestComputeFingerprint_Errors(t *testing.T) {
	_, err := ComputeFingerprint(MustParseSMILES("C"), FingerprintMethod("MACCS"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeFingerprintTypeUnsupported))

	_, err = ComputeFingerprint(&Molecule{}, ECFC4)
	assert.True(t, errors.IsCode(err, errors.ErrCodeFingerprintGenerationFailed))

	_, err = FingerprintSMILES("C(", ECFC4)
	assert.True(t, errors.IsCode(err, errors.CodeMoleculeInvalidSMILES))
}

func TestFingerprint_SetBit(t *testing.T) {
	fp := NewBitFingerprint(ECFP4, make([]byte, 2), 16)
	fp.SetBit(3)
	fp.SetBit(3)
	fp.SetBit(15)
	fp.SetBit(16)
	fp.SetBit(-1)
	assert.Equal(t, 2, fp.NumOnBits)
	assert.True(t, fp.GetBit(3))
	assert.True(t, fp.GetBit(15))
	assert.False(t, fp.GetBit(4))
	assert.False(t, fp.GetBit(99))
}
