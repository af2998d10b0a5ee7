package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/lockss/turtles/internal/errors"
	"github.com/lockss/turtles/internal/execx"
	"github.com/lockss/turtles/internal/testutil"
)

func newRCSRegistry(t *testing.T, runner execx.Runner) *Registry {
	t.Helper()
	r, err := New(testDescriptor(t, LayoutRCS), runner)
	require.NoError(t, err)
	for _, layer := range r.Layers() {
		require.NoError(t, os.Mkdir(filepath.Join(layer.Path, rcsDirName), 0o755))
	}
	return r
}

// trackFile simulates a prior check-in by creating the ,v version file for
// name in the layer's RCS area.
func trackFile(t *testing.T, layer *Layer, name string) {
	t.Helper()
	testutil.WriteFile(t, layer.Path, filepath.Join(rcsDirName, name+",v"), "head 1.1;\n")
}

func TestRCSRequiresManagedArea(t *testing.T) {
	r, err := New(testDescriptor(t, LayoutRCS), &testutil.FakeRunner{})
	require.NoError(t, err)
	layer := r.Layer(LayerTesting)

	_, _, err = r.CurrentVersion(layer, testPluginID)
	require.ErrorIs(t, err, oerrors.ErrUnmanagedLayer)

	_, err = r.Publish(context.Background(), layer, buildArtifact(t, "1"))
	require.ErrorIs(t, err, oerrors.ErrUnmanagedLayer)
}

func TestRCSRejectsUntrackedFile(t *testing.T) {
	r := newRCSRegistry(t, &testutil.FakeRunner{})
	layer := r.Layer(LayerTesting)

	// A working file with no ,v counterpart means the area was tampered
	// with; publishing over it must refuse.
	testutil.WriteFile(t, layer.Path, testPluginID+".jar", "not ours")

	_, err := r.Publish(context.Background(), layer, buildArtifact(t, "1"))
	require.ErrorIs(t, err, oerrors.ErrUnmanagedLayer)
}

func TestRCSFirstPublish(t *testing.T) {
	runner := &testutil.FakeRunner{}
	r := newRCSRegistry(t, runner)
	layer := r.Layer(LayerTesting)

	dst, err := r.Publish(context.Background(), layer, buildArtifact(t, "4"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(layer.Path, testPluginID+".jar"), dst)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "ci", calls[0].Name)
	assert.Equal(t, []string{
		"-u", "-mVersion 4", "-t-Test Plugin", testPluginID + ".jar",
	}, calls[0].Args)
	assert.Equal(t, layer.Path, calls[0].Dir)
}

func TestRCSRepublish(t *testing.T) {
	runner := &testutil.FakeRunner{}
	r := newRCSRegistry(t, runner)
	layer := r.Layer(LayerTesting)

	name := testPluginID + ".jar"
	testutil.WriteJar(t, filepath.Join(layer.Path, name), testPluginID, "Test Plugin", "3")
	trackFile(t, layer, name)

	_, err := r.Publish(context.Background(), layer, buildArtifact(t, "4"))
	require.NoError(t, err)

	calls := runner.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "co", calls[0].Name)
	assert.Equal(t, []string{"-l", name}, calls[0].Args)
	assert.Equal(t, layer.Path, calls[0].Dir)
	assert.Equal(t, "ci", calls[1].Name)
	// A prior check-in exists, so no description is supplied.
	assert.Equal(t, []string{"-u", "-mVersion 4", name}, calls[1].Args)
}

func TestRCSCheckInFailureRemovesNewFile(t *testing.T) {
	runner := &testutil.FakeRunner{
		Handler: func(cmd execx.Cmd) (*execx.Result, error) {
			if cmd.Name == "ci" {
				return nil, &execx.Error{Command: cmd.String(), ExitCode: 1, Stderr: "ci: lock trouble"}
			}
			return &execx.Result{}, nil
		},
	}
	r := newRCSRegistry(t, runner)
	layer := r.Layer(LayerTesting)

	_, err := r.Publish(context.Background(), layer, buildArtifact(t, "1"))
	require.ErrorIs(t, err, oerrors.ErrDeployFailed)

	var execErr *execx.Error
	require.True(t, errors.As(err, &execErr))
	assert.Contains(t, execErr.Stderr, "lock trouble")

	// The failed copy must not linger in the working area.
	_, statErr := os.Stat(filepath.Join(layer.Path, testPluginID+".jar"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestRCSCheckInFailureRestoresPriorFile(t *testing.T) {
	runner := &testutil.FakeRunner{
		Handler: func(cmd execx.Cmd) (*execx.Result, error) {
			if cmd.Name == "ci" {
				return nil, &execx.Error{Command: cmd.String(), ExitCode: 1}
			}
			return &execx.Result{}, nil
		},
	}
	r := newRCSRegistry(t, runner)
	layer := r.Layer(LayerTesting)

	name := testPluginID + ".jar"
	prior := testutil.WriteJar(t, filepath.Join(layer.Path, name), testPluginID, "Test Plugin", "3")
	priorBytes, err := os.ReadFile(prior)
	require.NoError(t, err)
	trackFile(t, layer, name)

	_, err = r.Publish(context.Background(), layer, buildArtifact(t, "4"))
	require.ErrorIs(t, err, oerrors.ErrDeployFailed)

	got, err := os.ReadFile(prior)
	require.NoError(t, err)
	assert.Equal(t, priorBytes, got, "working file should be back at version 3")
}

func TestRCSCurrentVersion(t *testing.T) {
	r := newRCSRegistry(t, &testutil.FakeRunner{})
	layer := r.Layer(LayerProduction)

	_, present, err := r.CurrentVersion(layer, testPluginID)
	require.NoError(t, err)
	assert.False(t, present)

	name := testPluginID + ".jar"
	testutil.WriteJar(t, filepath.Join(layer.Path, name), testPluginID, "Test Plugin", "9")
	trackFile(t, layer, name)

	v, present, err := r.CurrentVersion(layer, testPluginID)
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, "9", v.String())
}
