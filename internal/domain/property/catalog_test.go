package property

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.NotNil(t, c)
	assert.Equal(t, 19, c.Len())
	assert.Equal(t, DefaultCodes, c.Codes())

	for _, code := range DefaultCodes {
		assert.True(t, IsKnown(code), code)
		assert.NotEqual(t, "N/A", Lookup(code).Unit, code)
	}

	i, ok := c.Index("gap")
	require.True(t, ok)
	assert.Equal(t, 4, i)
	assert.Equal(t, Property{"gap", "HOMO-LUMO gap", "eV"}, c.At(i))
}

func TestLookup(t *testing.T) {
	assert.Equal(t, Property{"mu", "Dipole moment", "Debye"}, Lookup("mu"))
	assert.Equal(t, "GHz", Lookup("A").Unit)
	assert.Equal(t, "cal/mol·K", Lookup("cv").Unit)
	assert.Equal(t, Property{"logp", "logp", "N/A"}, Lookup("logp"))
	assert.False(t, IsKnown("logp"))
}

func TestNewCatalog_Errors(t *testing.T) {
	_, err := NewCatalog(nil)
	assert.Error(t, err)

	_, err = NewCatalog([]string{"mu", ""})
	assert.Error(t, err)

	_, err = NewCatalog([]string{"mu", "alpha", "mu"})
	assert.Error(t, err)
}

func TestCatalog_CustomOrder(t *testing.T) {
	c, err := NewCatalog([]string{"gap", "custom"})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "N/A", c.At(1).Unit)

	all := c.All()
	all[0].Name = "changed"
	assert.Equal(t, "HOMO-LUMO gap", c.At(0).Name)
}

//Personal.AI order the ending
