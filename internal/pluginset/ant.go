package pluginset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	oerrors "github.com/lockss/turtles/internal/errors"
	"github.com/lockss/turtles/internal/execx"
	"github.com/lockss/turtles/internal/jarfile"
	"github.com/lockss/turtles/internal/output"
	"github.com/lockss/turtles/internal/plugin"
)

// Source layout defaults for the legacy ant tree.
const (
	antDefaultMain = "plugins/src"
	antDefaultTest = "plugins/test/src"
)

// Relative tool and output locations inside an ant plugin set.
const (
	antJarDir        = "plugins/jars"
	antJarPluginTool = "test/scripts/jarplugin"
	antSignTool      = "test/scripts/signplugin"
)

// antSet builds plugins with the legacy ant toolchain. The layout needs
// dependency resolution performed once per build session ("ant
// load-plugins") before any plugin can be packaged.
type antSet struct {
	baseSet
}

func (s *antSet) Build(ctx context.Context, pluginID string, creds Credentials) (*jarfile.Artifact, error) {
	if os.Getenv("JAVA_HOME") == "" {
		return nil, oerrors.WrapBuildFailed(
			fmt.Errorf("JAVA_HOME must be set in the environment"), pluginID)
	}
	if err := s.requirePlugin(pluginID); err != nil {
		return nil, err
	}

	if err := s.bigBuildOnce(func() error {
		output.Debug("running ant load-plugins", "set", s.ID(), "root", s.root)
		_, err := s.runner.Run(ctx, execx.Cmd{
			Name: "ant",
			Args: []string{"load-plugins"},
			Dir:  s.root,
		})
		if err != nil {
			return oerrors.WrapBuildFailed(err, s.ID())
		}
		return nil
	}); err != nil {
		return nil, err
	}

	dirs, err := s.packageDirs(pluginID)
	if err != nil {
		return nil, err
	}

	jarPath := filepath.Join(s.root, filepath.FromSlash(antJarDir), pluginID+".jar")
	if err := os.MkdirAll(filepath.Dir(jarPath), 0o755); err != nil {
		return nil, oerrors.WrapBuildFailed(err, pluginID)
	}

	args := []string{"-j", jarPath, "-p", plugin.IDToFile(pluginID)}
	for _, d := range dirs {
		args = append(args, "-d", d)
	}
	if _, err := s.runner.Run(ctx, execx.Cmd{
		Name: antJarPluginTool,
		Args: args,
		Dir:  s.root,
	}); err != nil {
		return nil, oerrors.WrapBuildFailed(err, pluginID)
	}

	args = []string{"--jar", jarPath, "--alias", creds.Alias, "--keystore", creds.Keystore}
	if creds.Password != "" {
		args = append(args, "--password", creds.Password)
	}
	if _, err := s.runner.Run(ctx, execx.Cmd{
		Name:    antSignTool,
		Args:    args,
		Dir:     s.root,
		Secrets: []string{creds.Password},
	}); err != nil {
		return nil, oerrors.WrapBuildFailed(err, pluginID)
	}

	if _, err := os.Stat(jarPath); err != nil {
		return nil, oerrors.WrapBuildFailed(
			fmt.Errorf("signed jar not produced: %s", jarPath), pluginID)
	}
	return jarfile.ReadJar(jarPath)
}

// packageDirs collects the source directories jarplugin needs: the plugin's
// own package, every ancestor's package, and any auxiliary packages they
// declare, in discovery order without duplicates.
func (s *antSet) packageDirs(pluginID string) ([]string, error) {
	var dirs []string
	seen := make(map[string]bool)
	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	visited := make(map[string]bool)
	for cur := pluginID; cur != ""; {
		if visited[cur] {
			return nil, oerrors.WrapBuildFailed(
				fmt.Errorf("plugin parent cycle at %s", cur), pluginID)
		}
		visited[cur] = true
		p, err := s.MakePlugin(cur)
		if err != nil {
			return nil, oerrors.WrapBuildFailed(err, pluginID)
		}
		add(plugin.IDToDir(cur))
		for _, aux := range p.AuxPackages() {
			add(strings.ReplaceAll(aux, ".", "/"))
		}
		cur = p.ParentIdentifier()
	}
	return dirs, nil
}
