package pluginset

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/lockss/turtles/internal/errors"
	"github.com/lockss/turtles/internal/execx"
	"github.com/lockss/turtles/internal/testutil"
)

func antDescriptor(id string) Descriptor {
	return Descriptor{
		Kind:    KindPluginSet,
		ID:      id,
		Name:    "Test Plugin Set",
		Builder: BuilderSpec{Type: BuilderAnt},
	}
}

func mavenDescriptor(id string) Descriptor {
	return Descriptor{
		Kind:    KindPluginSet,
		ID:      id,
		Name:    "Test Maven Set",
		Builder: BuilderSpec{Type: BuilderMaven},
	}
}

func TestNewDefaultsPerBuilder(t *testing.T) {
	root := t.TempDir()

	ant, err := New(antDescriptor("ant-set"), root, &testutil.FakeRunner{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "plugins/src"), ant.MainPath())
	assert.Equal(t, filepath.Join(root, "plugins/test/src"), ant.TestPath())

	mvn, err := New(mavenDescriptor("mvn-set"), root, &testutil.FakeRunner{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src/main/java"), mvn.MainPath())
	assert.Equal(t, filepath.Join(root, "src/test/java"), mvn.TestPath())
}

func TestNewPathOverrides(t *testing.T) {
	d := antDescriptor("ant-set")
	d.Main = "custom/src"
	root := t.TempDir()

	s, err := New(d, root, &testutil.FakeRunner{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "custom/src"), s.MainPath())
	assert.Equal(t, filepath.Join(root, "plugins/test/src"), s.TestPath())
}

func TestNewUnknownBuilder(t *testing.T) {
	d := antDescriptor("bad-set")
	d.Builder.Type = "gradle"

	_, err := New(d, t.TempDir(), &testutil.FakeRunner{})
	require.ErrorIs(t, err, oerrors.ErrConfigInvalid)
}

func TestHasPlugin(t *testing.T) {
	root := t.TempDir()
	testutil.WriteDescriptor(t, filepath.Join(root, "plugins/src"), "a.b.MyPlugin", "P", "3")

	s, err := New(antDescriptor("ant-set"), root, &testutil.FakeRunner{})
	require.NoError(t, err)

	assert.True(t, s.HasPlugin("a.b.MyPlugin"))
	assert.False(t, s.HasPlugin("a.b.OtherPlugin"))
}

func TestAntBuild(t *testing.T) {
	t.Setenv("JAVA_HOME", "/opt/java")

	root := t.TempDir()
	testutil.WriteDescriptor(t, filepath.Join(root, "plugins/src"), "a.b.MyPlugin", "P", "3")

	runner := &testutil.FakeRunner{}
	runner.Handler = func(cmd execx.Cmd) (*execx.Result, error) {
		if cmd.Name == antJarPluginTool {
			// -j <jarPath> is the first flag pair.
			testutil.WriteJar(t, cmd.Args[1], "a.b.MyPlugin", "P", "3")
		}
		return &execx.Result{}, nil
	}

	s, err := New(antDescriptor("ant-set"), root, runner)
	require.NoError(t, err)

	art, err := s.Build(context.Background(), "a.b.MyPlugin", Credentials{
		Keystore: "/keys/plugin.keystore",
		Alias:    "signer",
		Password: "hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, "a.b.MyPlugin", art.PluginID)
	assert.Equal(t, "3", art.Version.String())

	// load-plugins ran before packaging, and packaging before signing.
	calls := runner.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "ant", calls[0].Name)
	assert.Equal(t, []string{"load-plugins"}, calls[0].Args)
	assert.Equal(t, antJarPluginTool, calls[1].Name)
	assert.Equal(t, antSignTool, calls[2].Name)

	// Signing receives the credentials, with the password marked secret.
	sign := calls[2]
	assert.Contains(t, sign.Args, "signer")
	assert.Contains(t, sign.Args, "/keys/plugin.keystore")
	assert.Contains(t, sign.Secrets, "hunter2")
	assert.NotContains(t, sign.String(), "hunter2")
}

func TestAntBuildBigBuildOnce(t *testing.T) {
	t.Setenv("JAVA_HOME", "/opt/java")

	root := t.TempDir()
	testutil.WriteDescriptor(t, filepath.Join(root, "plugins/src"), "a.b.One", "One", "1")
	testutil.WriteDescriptor(t, filepath.Join(root, "plugins/src"), "a.b.Two", "Two", "2")

	runner := &testutil.FakeRunner{}
	runner.Handler = func(cmd execx.Cmd) (*execx.Result, error) {
		if cmd.Name == antJarPluginTool {
			id := "a.b.One"
			if filepath.Base(cmd.Args[1]) == "a.b.Two.jar" {
				id = "a.b.Two"
			}
			testutil.WriteJar(t, cmd.Args[1], id, "X", "1")
		}
		return &execx.Result{}, nil
	}

	s, err := New(antDescriptor("ant-set"), root, runner)
	require.NoError(t, err)

	creds := Credentials{Keystore: "/k", Alias: "a"}
	_, err = s.Build(context.Background(), "a.b.One", creds)
	require.NoError(t, err)
	_, err = s.Build(context.Background(), "a.b.Two", creds)
	require.NoError(t, err)

	assert.Len(t, runner.CallsNamed("ant"), 1, "load-plugins runs once per session")
}

func TestAntBuildRequiresJavaHome(t *testing.T) {
	t.Setenv("JAVA_HOME", "")

	root := t.TempDir()
	s, err := New(antDescriptor("ant-set"), root, &testutil.FakeRunner{})
	require.NoError(t, err)

	_, err = s.Build(context.Background(), "a.b.MyPlugin", Credentials{})
	require.ErrorIs(t, err, oerrors.ErrBuildFailed)
	assert.Contains(t, err.Error(), "JAVA_HOME")
}

func TestAntBuildPluginNotFound(t *testing.T) {
	t.Setenv("JAVA_HOME", "/opt/java")

	s, err := New(antDescriptor("ant-set"), t.TempDir(), &testutil.FakeRunner{})
	require.NoError(t, err)

	_, err = s.Build(context.Background(), "a.b.Absent", Credentials{})
	require.ErrorIs(t, err, oerrors.ErrPluginNotFound)
}

func TestAntBuildToolFailure(t *testing.T) {
	t.Setenv("JAVA_HOME", "/opt/java")

	root := t.TempDir()
	testutil.WriteDescriptor(t, filepath.Join(root, "plugins/src"), "a.b.MyPlugin", "P", "3")

	runner := &testutil.FakeRunner{}
	runner.Handler = func(cmd execx.Cmd) (*execx.Result, error) {
		if cmd.Name == "ant" {
			return &execx.Result{Stderr: "BUILD FAILED"}, &execx.Error{
				Command:  cmd.String(),
				ExitCode: 1,
				Stderr:   "BUILD FAILED",
			}
		}
		return &execx.Result{}, nil
	}

	s, err := New(antDescriptor("ant-set"), root, runner)
	require.NoError(t, err)

	_, err = s.Build(context.Background(), "a.b.MyPlugin", Credentials{})
	require.ErrorIs(t, err, oerrors.ErrBuildFailed)
	assert.Contains(t, err.Error(), "BUILD FAILED")
}

func TestMavenBuild(t *testing.T) {
	root := t.TempDir()
	testutil.WriteDescriptor(t, filepath.Join(root, "src/main/java"), "a.b.MyPlugin", "P", "7")

	runner := &testutil.FakeRunner{}
	runner.Handler = func(cmd execx.Cmd) (*execx.Result, error) {
		if cmd.Name == "mvn" {
			testutil.WriteJar(t, filepath.Join(root, "target/pluginjars", "a.b.MyPlugin.jar"),
				"a.b.MyPlugin", "P", "7")
		}
		return &execx.Result{}, nil
	}

	s, err := New(mavenDescriptor("mvn-set"), root, runner)
	require.NoError(t, err)

	art, err := s.Build(context.Background(), "a.b.MyPlugin", Credentials{
		Keystore: "/keys/plugin.keystore",
		Alias:    "signer",
		Password: "hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, "7", art.Version.String())

	calls := runner.CallsNamed("mvn")
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Args, "-Dkeystore.alias=signer")
	assert.NotContains(t, calls[0].String(), "hunter2")
}

func TestMavenBuildMissingJar(t *testing.T) {
	root := t.TempDir()
	testutil.WriteDescriptor(t, filepath.Join(root, "src/main/java"), "a.b.MyPlugin", "P", "7")

	s, err := New(mavenDescriptor("mvn-set"), root, &testutil.FakeRunner{})
	require.NoError(t, err)

	_, err = s.Build(context.Background(), "a.b.MyPlugin", Credentials{})
	require.ErrorIs(t, err, oerrors.ErrBuildFailed)
	assert.Contains(t, err.Error(), "built jar not found")
}
