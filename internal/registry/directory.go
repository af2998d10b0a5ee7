package registry

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	oerrors "github.com/lockss/turtles/internal/errors"
	"github.com/lockss/turtles/internal/execx"
	"github.com/lockss/turtles/internal/jarfile"
	"github.com/lockss/turtles/internal/output"
	"github.com/lockss/turtles/internal/plugin"
)

// selinuxContentType is the SELinux type registries served over HTTP need.
const selinuxContentType = "httpd_sys_content_t"

// directoryLayout publishes artifacts as plain files in the layer root.
type directoryLayout struct {
	naming NamingConvention
	runner execx.Runner
}

func (d *directoryLayout) destination(layer *Layer, pluginID string) string {
	return filepath.Join(layer.Path, d.naming.FileName(pluginID))
}

func (d *directoryLayout) currentVersion(layer *Layer, pluginID string) (plugin.Version, bool, error) {
	dst := d.destination(layer, pluginID)
	if _, err := os.Stat(dst); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, oerrors.WrapDeployFailed(err, dst)
	}
	art, err := jarfile.ReadJar(dst)
	if err != nil {
		return "", false, err
	}
	return art.Version, true, nil
}

func (d *directoryLayout) publish(ctx context.Context, layer *Layer, art *jarfile.Artifact) (string, error) {
	dst := d.destination(layer, art.PluginID)
	if err := copyFile(art.Path, dst); err != nil {
		return "", oerrors.WrapDeployFailed(err, dst)
	}
	d.relabel(ctx, layer, filepath.Base(dst))
	return dst, nil
}

// relabel restores the SELinux content type after a copy, on hosts where
// SELinux is enforcing. Best effort, like the original tooling.
func (d *directoryLayout) relabel(ctx context.Context, layer *Layer, name string) {
	if !d.runner.LookPath("selinuxenabled") || !d.runner.LookPath("chcon") {
		return
	}
	if _, err := d.runner.Run(ctx, execx.Cmd{Name: "selinuxenabled"}); err != nil {
		return
	}
	if _, err := d.runner.Run(ctx, execx.Cmd{
		Name: "chcon",
		Args: []string{"-t", selinuxContentType, name},
		Dir:  layer.Path,
	}); err != nil {
		output.Warn("selinux relabel failed", "layer", layer.ID, "file", name, "error", err)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
