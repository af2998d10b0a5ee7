// Package pluginset models plugin set projects and their build strategies.
package pluginset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	oerrors "github.com/lockss/turtles/internal/errors"
	"github.com/lockss/turtles/internal/execx"
	"github.com/lockss/turtles/internal/jarfile"
	"github.com/lockss/turtles/internal/plugin"
)

// KindPluginSet is the descriptor kind for plugin sets.
const KindPluginSet = "PluginSet"

// Builder type strings. The set of strategies is closed; adding one is a
// code change, not a runtime registration.
const (
	BuilderAnt   = "ant"
	BuilderMaven = "mvn"
)

// Descriptor is a PluginSet configuration document.
type Descriptor struct {
	Kind    string      `json:"kind" yaml:"kind"`
	ID      string      `json:"id" yaml:"id"`
	Name    string      `json:"name" yaml:"name"`
	Builder BuilderSpec `json:"builder" yaml:"builder"`

	// Main and Test override the builder's default source roots, relative
	// to the plugin set root.
	Main string `json:"main,omitempty" yaml:"main,omitempty"`
	Test string `json:"test,omitempty" yaml:"test,omitempty"`
}

// BuilderSpec selects a build strategy.
type BuilderSpec struct {
	Type    string            `json:"type" yaml:"type"`
	Options map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Credentials are the plugin signing inputs. The password is supplied per
// invocation and never persisted.
type Credentials struct {
	Keystore string
	Alias    string
	Password string
}

// Set is a plugin set project with a build strategy.
type Set interface {
	// ID returns the plugin set identifier.
	ID() string

	// Name returns the human-readable plugin set name.
	Name() string

	// BuilderType returns the builder type string.
	BuilderType() string

	// MainPath returns the absolute main source root.
	MainPath() string

	// TestPath returns the absolute test source root.
	TestPath() string

	// HasPlugin reports whether the main source root contains source for
	// the plugin identifier.
	HasPlugin(pluginID string) bool

	// MakePlugin parses the source descriptor for the plugin identifier.
	MakePlugin(pluginID string) (*plugin.Plugin, error)

	// Build produces a signed plugin JAR and returns its extracted
	// metadata. Fails with ErrPluginNotFound when the set has no source for
	// the identifier and ErrBuildFailed when an external tool exits
	// nonzero.
	Build(ctx context.Context, pluginID string, creds Credentials) (*jarfile.Artifact, error)
}

// New constructs the Set for a descriptor. The root is the directory the
// descriptor file was loaded from.
func New(d Descriptor, root string, runner execx.Runner) (Set, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	switch d.Builder.Type {
	case BuilderAnt:
		main, test := withDefaults(d, antDefaultMain, antDefaultTest)
		return &antSet{baseSet: baseSet{desc: d, root: abs, runner: runner, main: main, test: test}}, nil
	case BuilderMaven:
		main, test := withDefaults(d, mavenDefaultMain, mavenDefaultTest)
		return &mavenSet{baseSet: baseSet{desc: d, root: abs, runner: runner, main: main, test: test}}, nil
	default:
		return nil, oerrors.WrapConfigInvalid(
			fmt.Errorf("unknown builder type %q", d.Builder.Type), d.ID)
	}
}

func withDefaults(d Descriptor, defaultMain, defaultTest string) (main, test string) {
	main, test = d.Main, d.Test
	if main == "" {
		main = defaultMain
	}
	if test == "" {
		test = defaultTest
	}
	return main, test
}

// baseSet carries the state shared by both strategies. The big build of a
// session runs at most once, guarded by mu; its error is sticky so later
// items in the same batch fail fast instead of re-running a broken build.
type baseSet struct {
	desc   Descriptor
	root   string
	main   string
	test   string
	runner execx.Runner

	mu       sync.Mutex
	built    bool
	buildErr error
}

func (s *baseSet) ID() string          { return s.desc.ID }
func (s *baseSet) Name() string        { return s.desc.Name }
func (s *baseSet) BuilderType() string { return s.desc.Builder.Type }
func (s *baseSet) Root() string        { return s.root }

func (s *baseSet) MainPath() string {
	return filepath.Join(s.root, s.main)
}

func (s *baseSet) TestPath() string {
	return filepath.Join(s.root, s.test)
}

func (s *baseSet) pluginPath(pluginID string) string {
	return filepath.Join(s.MainPath(), filepath.FromSlash(plugin.IDToFile(pluginID)))
}

func (s *baseSet) HasPlugin(pluginID string) bool {
	info, err := os.Stat(s.pluginPath(pluginID))
	return err == nil && info.Mode().IsRegular()
}

func (s *baseSet) MakePlugin(pluginID string) (*plugin.Plugin, error) {
	return plugin.FromPath(s.pluginPath(pluginID))
}

// requirePlugin maps a missing source descriptor to ErrPluginNotFound.
func (s *baseSet) requirePlugin(pluginID string) error {
	if !s.HasPlugin(pluginID) {
		return fmt.Errorf("%s: no source in plugin set %s: %w",
			pluginID, s.desc.ID, oerrors.ErrPluginNotFound)
	}
	return nil
}

// bigBuildOnce runs fn at most once per session and caches its outcome.
func (s *baseSet) bigBuildOnce(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.built {
		s.buildErr = fn()
		s.built = true
	}
	return s.buildErr
}
