package execx

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCmdStringRedactsSecrets(t *testing.T) {
	cmd := Cmd{
		Name:    "signplugin",
		Args:    []string{"--alias", "signer", "--password", "hunter2"},
		Secrets: []string{"hunter2"},
	}

	s := cmd.String()
	assert.NotContains(t, s, "hunter2")
	assert.Contains(t, s, Redacted)
}

func TestCmdStringRedactsEmbeddedSecret(t *testing.T) {
	cmd := Cmd{
		Name:    "mvn",
		Args:    []string{"package", "-Dkeystore.password=hunter2"},
		Secrets: []string{"hunter2"},
	}

	assert.Equal(t, "mvn package -Dkeystore.password="+Redacted, cmd.String())
}

func TestRunCapturesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	r := New()
	result, err := r.Run(context.Background(), Cmd{
		Name: "sh",
		Args: []string{"-c", "echo out; echo err >&2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "out\n", result.Stdout)
	assert.Equal(t, "err\n", result.Stderr)
}

func TestRunNonzeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	r := New()
	_, err := r.Run(context.Background(), Cmd{
		Name: "sh",
		Args: []string{"-c", "echo broken >&2; exit 3"},
	})

	var execErr *Error
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 3, execErr.ExitCode)
	assert.Contains(t, execErr.Stderr, "broken")
}

func TestRunErrorRedactsStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	r := New()
	_, err := r.Run(context.Background(), Cmd{
		Name:    "sh",
		Args:    []string{"-c", "echo password is hunter2 >&2; exit 1"},
		Secrets: []string{"hunter2"},
	})

	var execErr *Error
	require.ErrorAs(t, err, &execErr)
	assert.NotContains(t, execErr.Error(), "hunter2")
}

func TestRunSpawnFailure(t *testing.T) {
	r := New()
	_, err := r.Run(context.Background(), Cmd{Name: "turtles-no-such-binary"})
	require.Error(t, err)

	var execErr *Error
	assert.False(t, errors.As(err, &execErr), "spawn failure is not an exit error")
}

func TestLookPath(t *testing.T) {
	r := New()
	assert.False(t, r.LookPath("turtles-no-such-binary"))
}
