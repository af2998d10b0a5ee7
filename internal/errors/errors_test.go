package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCodeFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"config invalid", WrapConfigInvalid(stderrors.New("bad yaml"), "loading catalog"), ExitConfigInvalid},
		{"plugin set not found", fmt.Errorf("org.example.Plugin: %w", ErrPluginSetNotFound), ExitNotFound},
		{"ambiguous plugin set", fmt.Errorf("org.example.Plugin: %w", ErrAmbiguousPluginSet), ExitNotFound},
		{"plugin not found", fmt.Errorf("org.example.Plugin: %w", ErrPluginNotFound), ExitNotFound},
		{"build failed", WrapBuildFailed(stderrors.New("exit status 1"), "ant"), ExitBuildFailed},
		{"deploy failed", WrapDeployFailed(stderrors.New("permission denied"), "copying jar"), ExitDeployFailed},
		{"unmanaged layer", fmt.Errorf("/tmp/reg: %w", ErrUnmanagedLayer), ExitDeployFailed},
		{"unknown", stderrors.New("boom"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeFromError(tt.err))
		})
	}
}

func TestExitErrorTakesPrecedence(t *testing.T) {
	inner := WrapBuildFailed(stderrors.New("exit status 2"), "mvn")
	err := NewExitError(inner, ExitGeneralError)

	assert.Equal(t, ExitGeneralError, ExitCodeFromError(err))
}

func TestExitErrorUnwrap(t *testing.T) {
	inner := WrapMalformedArtifact(stderrors.New("zip: not a valid zip file"), "/tmp/x.jar")
	err := NewExitError(inner, ExitGeneralError)

	require.ErrorIs(t, err, ErrMalformedArtifact)
	assert.Equal(t, inner.Error(), err.Error())
}

func TestExitCodeName(t *testing.T) {
	assert.Equal(t, "Success", ExitCodeName(ExitSuccess))
	assert.Equal(t, "Invalid Configuration", ExitCodeName(ExitConfigInvalid))
	assert.Equal(t, "Unknown", ExitCodeName(42))
}
