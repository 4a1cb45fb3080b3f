package trace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadArena_JSONWrapper(t *testing.T) {
	arena, err := LoadArena(filepath.Join("testdata", "arena.json"))
	require.NoError(t, err)
	require.Len(t, arena, 2)

	assert.Nil(t, arena[0].Parent)
	require.NotNil(t, arena[1].Parent)
	assert.Equal(t, 0, *arena[1].Parent)
	assert.Equal(t, "CALL", arena[0].Frame().Kind)
	assert.Equal(t, Quantity("24011"), arena[0].Frame().GasUsed)
	assert.JSONEq(t, `[{"Call": 0}]`, string(arena[0].Ordering))
	assert.Equal(t, []int{1}, arena[0].Children)

	forest := Build(arena)
	require.Len(t, forest, 1)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, "STATICCALL", forest[0].Children[0].Node.Frame().Kind)
}

func TestLoadArena_YAMLList(t *testing.T) {
	arena, err := LoadArena(filepath.Join("testdata", "arena.yaml"))
	require.NoError(t, err)
	require.Len(t, arena, 3)
	assert.Nil(t, arena[0].Parent)
	assert.Equal(t, "0xb", arena[1].Frame().Address)
	assert.Equal(t, Quantity("40"), arena[1].Frame().GasUsed)

	forest := Build(arena)
	require.Len(t, forest, 1)
	assert.Len(t, forest[0].Children, 2)
}

func TestDecodeArena_BareJSONList(t *testing.T) {
	arena, err := DecodeArena([]byte(`[{"idx": 3, "parent": null}, {"idx": 4, "parent": 3}]`), false)
	require.NoError(t, err)
	require.Len(t, arena, 2)
	assert.Equal(t, 3, *arena[1].Parent)
}

func TestDecodeArena_Garbage(t *testing.T) {
	_, err := DecodeArena([]byte(`"nope"`), false)
	assert.Error(t, err)
	_, err = DecodeArena([]byte("{not json"), false)
	assert.Error(t, err)
}

func TestLoadArena_Missing(t *testing.T) {
	_, err := LoadArena(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
