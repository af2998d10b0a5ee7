// Package config locates, loads, and validates turtles configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	oerrors "github.com/lockss/turtles/internal/errors"
)

// Environment variables recognized by the configuration layer.
const (
	EnvConfigDir = "TURTLES_CONFIG_DIR"
	EnvKeystore  = "TURTLES_KEYSTORE"
	EnvAlias     = "TURTLES_ALIAS"
	EnvPassword  = "TURTLES_PASSWORD"
)

// Standard configuration file names, looked up along the search path.
const (
	PluginSetCatalogFile      = "plugin-set-catalog.yaml"
	PluginRegistryCatalogFile = "plugin-registry-catalog.yaml"
	SigningCredentialsFile    = "plugin-signing-credentials.yaml"
)

// Dirs returns the configuration search path: the user's config directory,
// then the local-install and system directories. TURTLES_CONFIG_DIR
// overrides the whole path.
func Dirs() []string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return []string{dir}
	}

	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "turtles"))
	} else if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "turtles"))
	}
	return append(dirs, "/usr/local/share/turtles", "/etc/turtles")
}

// Candidates returns the path each search directory would contribute for a
// file name, in search order.
func Candidates(name string, dirs []string) []string {
	paths := make([]string, len(dirs))
	for i, dir := range dirs {
		paths[i] = filepath.Join(dir, name)
	}
	return paths
}

// Locate returns the first existing file with the given name along the
// search path.
func Locate(name string, dirs []string) (string, error) {
	candidates := Candidates(name, dirs)
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%s: not found in %s: %w",
		name, strings.Join(dirs, ", "), oerrors.ErrConfigInvalid)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if len(path) == 1 {
		return home, nil
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(home, path[2:]), nil
	}
	// ~username is not supported.
	return path, nil
}
