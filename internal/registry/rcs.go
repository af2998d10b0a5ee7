package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	oerrors "github.com/lockss/turtles/internal/errors"
	"github.com/lockss/turtles/internal/execx"
	"github.com/lockss/turtles/internal/jarfile"
	"github.com/lockss/turtles/internal/output"
	"github.com/lockss/turtles/internal/plugin"
)

// rcsDirName is the managed area an RCS working directory keeps its version
// files in.
const rcsDirName = "RCS"

// rcsLayout publishes artifacts into an RCS-managed directory. Publication
// is copy-then-check-in; a failed check-in rolls the copy back so the
// working area never stays half-checked-in.
type rcsLayout struct {
	directoryLayout
}

func (r *rcsLayout) versionFile(layer *Layer, name string) string {
	return filepath.Join(layer.Path, rcsDirName, name+",v")
}

// requireManaged verifies the layer has a consistent RCS working area for
// the given artifact name.
func (r *rcsLayout) requireManaged(layer *Layer, name string) error {
	info, err := os.Stat(filepath.Join(layer.Path, rcsDirName))
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s: no %s area: %w", layer.Path, rcsDirName, oerrors.ErrUnmanagedLayer)
	}

	_, dstErr := os.Stat(filepath.Join(layer.Path, name))
	_, rcsErr := os.Stat(r.versionFile(layer, name))
	if dstErr == nil && errors.Is(rcsErr, fs.ErrNotExist) {
		// The working file exists but RCS does not track it; checking in
		// over it would adopt a file of unknown provenance.
		return fmt.Errorf("%s: %s exists but is untracked: %w",
			layer.Path, name, oerrors.ErrUnmanagedLayer)
	}
	return nil
}

func (r *rcsLayout) currentVersion(layer *Layer, pluginID string) (plugin.Version, bool, error) {
	if err := r.requireManaged(layer, r.naming.FileName(pluginID)); err != nil {
		return "", false, err
	}
	return r.directoryLayout.currentVersion(layer, pluginID)
}

func (r *rcsLayout) publish(ctx context.Context, layer *Layer, art *jarfile.Artifact) (string, error) {
	dst := r.destination(layer, art.PluginID)
	name := filepath.Base(dst)

	if err := r.requireManaged(layer, name); err != nil {
		return "", err
	}

	_, dstErr := os.Stat(dst)
	tracked := dstErr == nil

	// Lock the tracked file for edit before overwriting it.
	if tracked {
		if _, err := r.runner.Run(ctx, execx.Cmd{
			Name: "co",
			Args: []string{"-l", name},
			Dir:  layer.Path,
		}); err != nil {
			return "", oerrors.WrapDeployFailed(err, dst)
		}
	}

	// Remember the prior content so a failed check-in can be undone.
	var prior []byte
	if tracked {
		var err error
		if prior, err = os.ReadFile(dst); err != nil {
			return "", oerrors.WrapDeployFailed(err, dst)
		}
	}

	if err := copyFile(art.Path, dst); err != nil {
		return "", oerrors.WrapDeployFailed(err, dst)
	}
	r.relabel(ctx, layer, name)

	args := []string{"-u", "-mVersion " + art.Version.String()}
	if !tracked {
		args = append(args, "-t-"+art.PluginName)
	}
	args = append(args, name)
	if _, err := r.runner.Run(ctx, execx.Cmd{
		Name: "ci",
		Args: args,
		Dir:  layer.Path,
	}); err != nil {
		r.rollback(layer, dst, prior, tracked)
		return "", oerrors.WrapDeployFailed(
			fmt.Errorf("check-in failed, copy rolled back: %w", err), dst)
	}
	return dst, nil
}

// rollback undoes the copy after a failed check-in. A rollback that itself
// fails leaves the area needing manual remediation, which is reported, not
// swallowed.
func (r *rcsLayout) rollback(layer *Layer, dst string, prior []byte, tracked bool) {
	var err error
	if tracked {
		err = os.WriteFile(dst, prior, 0o644)
	} else {
		err = os.Remove(dst)
	}
	if err != nil {
		output.Error("rollback failed, layer needs manual remediation",
			"layer", layer.ID, "file", dst, "error", err)
	}
}
