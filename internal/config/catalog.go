package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	oerrors "github.com/lockss/turtles/internal/errors"
)

// Catalog document kinds.
const (
	KindPluginSetCatalog      = "PluginSetCatalog"
	KindPluginRegistryCatalog = "PluginRegistryCatalog"
	KindSigningCredentials    = "PluginSigningCredentials"
)

// Document is one YAML document out of a configuration file. Descriptor
// files are multi-document: one file may hold several PluginSet or
// PluginRegistry documents.
type Document struct {
	Kind string
	Path string
	Raw  []byte

	node *yaml.Node
}

// Decode unmarshals the document into out.
func (d Document) Decode(out any) error {
	if err := d.node.Decode(out); err != nil {
		return oerrors.WrapConfigInvalid(err, d.Path)
	}
	return nil
}

// LoadDocuments reads every YAML document in the file, in order.
func LoadDocuments(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, oerrors.WrapConfigInvalid(err, path)
	}
	defer f.Close()

	var docs []Document
	dec := yaml.NewDecoder(f)
	for {
		var node yaml.Node
		if err := dec.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, oerrors.WrapConfigInvalid(err, path)
		}

		raw, err := yaml.Marshal(&node)
		if err != nil {
			return nil, oerrors.WrapConfigInvalid(err, path)
		}

		var head struct {
			Kind string `yaml:"kind"`
		}
		if err := node.Decode(&head); err != nil {
			return nil, oerrors.WrapConfigInvalid(err, path)
		}
		if head.Kind == "" {
			return nil, oerrors.WrapConfigInvalid(
				fmt.Errorf("document %d has no kind", len(docs)+1), path)
		}

		docs = append(docs, Document{Kind: head.Kind, Path: path, Raw: raw, node: &node})
	}
	if len(docs) == 0 {
		return nil, oerrors.WrapConfigInvalid(fmt.Errorf("no documents"), path)
	}
	return docs, nil
}

// pluginSetCatalog lists plugin set descriptor files by path.
type pluginSetCatalog struct {
	Kind  string   `yaml:"kind"`
	Files []string `yaml:"plugin-set-files"`
}

// pluginRegistryCatalog lists plugin registry descriptor files by path.
type pluginRegistryCatalog struct {
	Kind  string   `yaml:"kind"`
	Files []string `yaml:"plugin-registry-files"`
}

// resolveCatalogEntry makes a catalog entry absolute: ~ expands to the home
// directory, and relative paths are relative to the catalog file.
func resolveCatalogEntry(catalogPath, entry string) (string, error) {
	expanded, err := ExpandPath(entry)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(expanded) {
		return expanded, nil
	}
	return filepath.Join(filepath.Dir(catalogPath), expanded), nil
}
