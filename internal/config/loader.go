package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	oerrors "github.com/lockss/turtles/internal/errors"
	"github.com/lockss/turtles/internal/execx"
	"github.com/lockss/turtles/internal/pluginset"
	"github.com/lockss/turtles/internal/registry"
)

// Loader loads and validates turtles configuration along a resolved search
// path. The search path is fixed at construction and passed explicitly;
// strategies never read global state.
type Loader struct {
	dirs      []string
	validator *Validator
	runner    execx.Runner
}

// NewLoader constructs a Loader over the given search directories.
func NewLoader(dirs []string, runner execx.Runner) (*Loader, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, err
	}
	return &Loader{dirs: dirs, validator: validator, runner: runner}, nil
}

// Dirs returns the loader's search directories.
func (l *Loader) Dirs() []string {
	return l.dirs
}

// LoadPluginSets loads every plugin set listed by the catalog. An empty
// catalogPath selects the catalog along the search path.
func (l *Loader) LoadPluginSets(catalogPath string) ([]pluginset.Set, error) {
	catalogPath, files, err := l.loadCatalog(catalogPath, PluginSetCatalogFile, KindPluginSetCatalog)
	if err != nil {
		return nil, err
	}

	var sets []pluginset.Set
	for _, file := range files {
		path, err := resolveCatalogEntry(catalogPath, file)
		if err != nil {
			return nil, err
		}
		docs, err := LoadDocuments(path)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			if err := l.validator.Validate(pluginset.KindPluginSet, doc.Raw, path); err != nil {
				return nil, err
			}
			var d pluginset.Descriptor
			if err := doc.Decode(&d); err != nil {
				return nil, err
			}
			s, err := pluginset.New(d, filepath.Dir(path), l.runner)
			if err != nil {
				return nil, err
			}
			sets = append(sets, s)
		}
	}
	return sets, nil
}

// LoadRegistries loads every plugin registry listed by the catalog, in
// catalog order. An empty catalogPath selects the catalog along the search
// path.
func (l *Loader) LoadRegistries(catalogPath string) ([]*registry.Registry, error) {
	catalogPath, files, err := l.loadCatalog(catalogPath, PluginRegistryCatalogFile, KindPluginRegistryCatalog)
	if err != nil {
		return nil, err
	}

	var regs []*registry.Registry
	for _, file := range files {
		path, err := resolveCatalogEntry(catalogPath, file)
		if err != nil {
			return nil, err
		}
		docs, err := LoadDocuments(path)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			if err := l.validator.Validate(registry.KindPluginRegistry, doc.Raw, path); err != nil {
				return nil, err
			}
			var d registry.Descriptor
			if err := doc.Decode(&d); err != nil {
				return nil, err
			}
			r, err := registry.New(d, l.runner)
			if err != nil {
				return nil, err
			}
			regs = append(regs, r)
		}
	}
	return regs, nil
}

// loadCatalog locates and validates a catalog document, returning its path
// and the descriptor files it lists.
func (l *Loader) loadCatalog(path, stdName, kind string) (string, []string, error) {
	if path == "" {
		var err error
		if path, err = Locate(stdName, l.dirs); err != nil {
			return "", nil, err
		}
	}

	docs, err := LoadDocuments(path)
	if err != nil {
		return "", nil, err
	}
	if len(docs) != 1 {
		return "", nil, oerrors.WrapConfigInvalid(
			fmt.Errorf("catalog must be a single document, found %d", len(docs)), path)
	}
	if err := l.validator.Validate(kind, docs[0].Raw, path); err != nil {
		return "", nil, err
	}

	switch kind {
	case KindPluginSetCatalog:
		var c pluginSetCatalog
		if err := docs[0].Decode(&c); err != nil {
			return "", nil, err
		}
		return path, c.Files, nil
	default:
		var c pluginRegistryCatalog
		if err := docs[0].Decode(&c); err != nil {
			return "", nil, err
		}
		return path, c.Files, nil
	}
}

// LoadCredentials loads the plugin signing credentials. The keystore and
// alias can be overridden from the environment; the password is never read
// from a file.
func (l *Loader) LoadCredentials(path string) (pluginset.Credentials, error) {
	if path == "" {
		var err error
		if path, err = Locate(SigningCredentialsFile, l.dirs); err != nil {
			return pluginset.Credentials{}, err
		}
	}

	docs, err := LoadDocuments(path)
	if err != nil {
		return pluginset.Credentials{}, err
	}
	if len(docs) != 1 {
		return pluginset.Credentials{}, oerrors.WrapConfigInvalid(
			fmt.Errorf("credentials must be a single document, found %d", len(docs)), path)
	}
	if err := l.validator.Validate(KindSigningCredentials, docs[0].Raw, path); err != nil {
		return pluginset.Credentials{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	_ = v.BindEnv("plugin-signing-keystore", EnvKeystore)
	_ = v.BindEnv("plugin-signing-alias", EnvAlias)
	if err := v.ReadInConfig(); err != nil {
		return pluginset.Credentials{}, oerrors.WrapConfigInvalid(err, path)
	}

	keystore, err := ExpandPath(v.GetString("plugin-signing-keystore"))
	if err != nil {
		return pluginset.Credentials{}, err
	}
	return pluginset.Credentials{
		Keystore: keystore,
		Alias:    v.GetString("plugin-signing-alias"),
	}, nil
}

// VetResult is the validation outcome for one configuration file.
type VetResult struct {
	Path string
	Err  error
}

// Vet validates every configuration file reachable from the search path:
// both catalogs, every descriptor file they list, and the signing
// credentials. It reports per-file outcomes instead of stopping at the
// first failure.
func (l *Loader) Vet() []VetResult {
	var results []VetResult
	check := func(path string, err error) {
		results = append(results, VetResult{Path: path, Err: err})
	}

	if path, err := Locate(PluginSetCatalogFile, l.dirs); err != nil {
		check(PluginSetCatalogFile, err)
	} else if _, err := l.LoadPluginSets(path); err != nil {
		check(path, err)
	} else {
		check(path, nil)
	}

	if path, err := Locate(PluginRegistryCatalogFile, l.dirs); err != nil {
		check(PluginRegistryCatalogFile, err)
	} else if _, err := l.LoadRegistries(path); err != nil {
		check(path, err)
	} else {
		check(path, nil)
	}

	if path, err := Locate(SigningCredentialsFile, l.dirs); err != nil {
		check(SigningCredentialsFile, err)
	} else if _, err := l.LoadCredentials(path); err != nil {
		check(path, err)
	} else {
		check(path, nil)
	}

	return results
}
