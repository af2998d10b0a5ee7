// Package plugin models LOCKSS plugin descriptors and identifiers.
package plugin

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	oerrors "github.com/lockss/turtles/internal/errors"
)

// Descriptor keys in the plugin XML document.
const (
	KeyIdentifier    = "plugin_identifier"
	KeyName          = "plugin_name"
	KeyVersion       = "plugin_version"
	KeyParent        = "plugin_parent"
	KeyParentVersion = "plugin_parent_version"
	KeyAuxPackages   = "plugin_aux_packages"
)

// Plugin is a parsed plugin descriptor.
type Plugin struct {
	entries map[string]entryValue
	path    string
}

type entryValue struct {
	str  string
	list []string
}

// xmlMap mirrors the descriptor document: a <map> of <entry> pairs whose
// first child is a <string> key and second a <string> or <list> value.
type xmlMap struct {
	XMLName xml.Name   `xml:"map"`
	Entries []xmlEntry `xml:"entry"`
}

type xmlEntry struct {
	Strings []string `xml:"string"`
	List    *xmlList `xml:"list"`
}

type xmlList struct {
	Strings []string `xml:"string"`
}

// FromPath parses a plugin descriptor file.
func FromPath(descriptorPath string) (*Plugin, error) {
	f, err := os.Open(descriptorPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, descriptorPath)
}

// Parse parses a plugin descriptor from r. The origin is used in error
// messages only.
func Parse(r io.Reader, origin string) (*Plugin, error) {
	var doc xmlMap
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, oerrors.WrapMalformedArtifact(err, origin)
	}

	p := &Plugin{
		entries: make(map[string]entryValue, len(doc.Entries)),
		path:    origin,
	}
	for _, e := range doc.Entries {
		if len(e.Strings) == 0 {
			continue
		}
		key := e.Strings[0]
		if _, dup := p.entries[key]; dup {
			return nil, oerrors.WrapMalformedArtifact(
				fmt.Errorf("duplicate entry for %s", key), origin)
		}
		switch {
		case e.List != nil:
			p.entries[key] = entryValue{list: e.List.Strings}
		case len(e.Strings) > 1:
			p.entries[key] = entryValue{str: e.Strings[1]}
		default:
			p.entries[key] = entryValue{}
		}
	}
	if _, ok := p.entries[KeyIdentifier]; !ok {
		return nil, oerrors.WrapMalformedArtifact(
			fmt.Errorf("missing entry %s", KeyIdentifier), origin)
	}
	return p, nil
}

// Identifier returns the plugin identifier.
func (p *Plugin) Identifier() string {
	return p.entries[KeyIdentifier].str
}

// Name returns the human-readable plugin name, or "" if not declared.
func (p *Plugin) Name() string {
	return p.entries[KeyName].str
}

// Version returns the declared plugin version, or "" if not declared.
func (p *Plugin) Version() Version {
	return Version(p.entries[KeyVersion].str)
}

// ParentIdentifier returns the parent plugin identifier, or "" if the plugin
// has no parent.
func (p *Plugin) ParentIdentifier() string {
	return p.entries[KeyParent].str
}

// ParentVersion returns the declared parent version, or "" if none.
func (p *Plugin) ParentVersion() Version {
	return Version(p.entries[KeyParentVersion].str)
}

// AuxPackages returns the auxiliary packages bundled with the plugin.
func (p *Plugin) AuxPackages() []string {
	return p.entries[KeyAuxPackages].list
}

// Path returns the origin the plugin was parsed from.
func (p *Plugin) Path() string {
	return p.path
}

// IDToFile maps a plugin identifier to its conventional descriptor path
// relative to a source root ("a.b.MyPlugin" -> "a/b/MyPlugin.xml").
func IDToFile(pluginID string) string {
	return strings.ReplaceAll(pluginID, ".", "/") + ".xml"
}

// IDToDir maps a plugin identifier to the source directory containing it.
func IDToDir(pluginID string) string {
	return path.Dir(IDToFile(pluginID))
}

// FileToID is the inverse of IDToFile, for slash-separated archive entry
// names ("a/b/MyPlugin.xml" -> "a.b.MyPlugin").
func FileToID(entryName string) string {
	return strings.ReplaceAll(strings.TrimSuffix(entryName, ".xml"), "/", ".")
}
