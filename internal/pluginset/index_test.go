package pluginset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/lockss/turtles/internal/errors"
	"github.com/lockss/turtles/internal/testutil"
)

func newAntSet(t *testing.T, id string, pluginIDs ...string) Set {
	t.Helper()
	root := t.TempDir()
	for _, pluginID := range pluginIDs {
		testutil.WriteDescriptor(t, filepath.Join(root, "plugins/src"), pluginID, "P", "1")
	}
	s, err := New(antDescriptor(id), root, &testutil.FakeRunner{})
	require.NoError(t, err)
	return s
}

func TestIndexResolve(t *testing.T) {
	ix := NewIndex([]Set{
		newAntSet(t, "set-one", "a.b.One"),
		newAntSet(t, "set-two", "a.b.Two"),
	})

	s, err := ix.Resolve("a.b.Two")
	require.NoError(t, err)
	assert.Equal(t, "set-two", s.ID())
}

func TestIndexResolveNotFound(t *testing.T) {
	ix := NewIndex([]Set{newAntSet(t, "set-one", "a.b.One")})

	_, err := ix.Resolve("a.b.Missing")
	require.ErrorIs(t, err, oerrors.ErrPluginSetNotFound)
}

func TestIndexResolveAmbiguous(t *testing.T) {
	ix := NewIndex([]Set{
		newAntSet(t, "set-one", "x.y.Plugin"),
		newAntSet(t, "set-two", "x.y.Plugin"),
	})

	_, err := ix.Resolve("x.y.Plugin")
	require.ErrorIs(t, err, oerrors.ErrAmbiguousPluginSet)
	assert.Contains(t, err.Error(), "set-one")
	assert.Contains(t, err.Error(), "set-two")
}
