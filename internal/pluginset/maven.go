package pluginset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	oerrors "github.com/lockss/turtles/internal/errors"
	"github.com/lockss/turtles/internal/execx"
	"github.com/lockss/turtles/internal/jarfile"
	"github.com/lockss/turtles/internal/output"
)

// Source layout defaults for maven plugin sets.
const (
	mavenDefaultMain = "src/main/java"
	mavenDefaultTest = "src/test/java"
)

// mavenJarDir is where the maven build drops signed plugin JARs.
const mavenJarDir = "target/pluginjars"

// mavenSet builds plugins with maven. One "mvn package" run builds and signs
// every plugin in the set, so the per-plugin step only picks the JAR out of
// the output directory.
type mavenSet struct {
	baseSet
}

func (s *mavenSet) Build(ctx context.Context, pluginID string, creds Credentials) (*jarfile.Artifact, error) {
	if err := s.requirePlugin(pluginID); err != nil {
		return nil, err
	}

	if err := s.bigBuildOnce(func() error {
		output.Debug("running mvn package", "set", s.ID(), "root", s.root)
		_, err := s.runner.Run(ctx, execx.Cmd{
			Name: "mvn",
			Args: []string{
				"package",
				"-Dkeystore.file=" + creds.Keystore,
				"-Dkeystore.alias=" + creds.Alias,
				"-Dkeystore.password=" + creds.Password,
			},
			Dir:     s.root,
			Secrets: []string{creds.Password},
		})
		if err != nil {
			return oerrors.WrapBuildFailed(err, s.ID())
		}
		return nil
	}); err != nil {
		return nil, err
	}

	jarPath := filepath.Join(s.root, filepath.FromSlash(mavenJarDir), pluginID+".jar")
	if _, err := os.Stat(jarPath); err != nil {
		return nil, oerrors.WrapBuildFailed(
			fmt.Errorf("built jar not found: %s", jarPath), pluginID)
	}
	return jarfile.ReadJar(jarPath)
}
