package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitTableName(t *testing.T) {
	name, err := UnitTableName("GEN2024A", 0)
	require.NoError(t, err)
	assert.Equal(t, "gen2024a0_codes", name)

	name, err = UnitTableName("lot_7", 4)
	require.NoError(t, err)
	assert.Equal(t, "lot_74_codes", name)

	_, err = UnitTableName(strings.Repeat("g", 80), 1)
	assert.Error(t, err)
}

func TestUnitTableNameRejectsAmbiguousInput(t *testing.T) {
	for _, id := range []string{"GEN-1", "gen 1", "gen-42; DROP TABLE x", `a"b`, ""} {
		_, err := UnitTableName(id, 0)
		assert.Error(t, err, id)
	}

	// "x1"+0 and "x"+10 would both read x10_codes
	_, err := UnitTableName("x", 10)
	assert.Error(t, err)
	_, err = UnitTableName("x", -1)
	assert.Error(t, err)

	a, err := UnitTableName("x1", 0)
	require.NoError(t, err)
	b, err := UnitTableName("x", 1)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestValidTableName(t *testing.T) {
	assert.True(t, ValidTableName("abc_1"))
	assert.False(t, ValidTableName("ABC"))
	assert.False(t, ValidTableName(`a"b`))
	assert.False(t, ValidTableName(""))
}
