// Package jarfile reads plugin metadata out of built plugin JARs.
package jarfile

import (
	"archive/zip"
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	oerrors "github.com/lockss/turtles/internal/errors"
	"github.com/lockss/turtles/internal/plugin"
)

// ManifestPath is the archive entry holding the JAR manifest.
const ManifestPath = "META-INF/MANIFEST.MF"

// Manifest attributes recognized across producers. The ant toolchain marks
// the plugin's per-entry section with Lockss-Plugin: true and names the
// descriptor in Name; the maven toolchain additionally writes the identifier
// as a main attribute.
const (
	attrName       = "Name"
	attrPlugin     = "Lockss-Plugin"
	attrPluginID   = "Lockss-Plugin-Id"
	attrBuildStamp = "Build-Timestamp"
)

// Artifact is the result of a build: a signed plugin JAR on disk plus the
// metadata extracted from it.
type Artifact struct {
	// Path is the location of the JAR on disk.
	Path string

	// PluginID is the owning plugin identifier.
	PluginID string

	// PluginName is the human-readable plugin name, if declared.
	PluginName string

	// Version is the plugin version extracted from the descriptor.
	Version plugin.Version

	// BuildTimestamp is when the artifact was produced.
	BuildTimestamp time.Time
}

// manifestSection is one blank-line-delimited attribute block.
type manifestSection map[string]string

// ReadJar extracts the plugin identifier, version, and build timestamp from
// a built JAR. It fails with ErrMalformedArtifact if the file is not a valid
// archive or lacks the required metadata.
func ReadJar(jarPath string) (*Artifact, error) {
	zr, err := zip.OpenReader(jarPath)
	if err != nil {
		return nil, oerrors.WrapMalformedArtifact(err, jarPath)
	}
	defer zr.Close()

	sections, err := readManifest(&zr.Reader)
	if err != nil {
		return nil, oerrors.WrapMalformedArtifact(err, jarPath)
	}

	descriptorName, pluginID, err := locatePluginEntry(sections)
	if err != nil {
		return nil, oerrors.WrapMalformedArtifact(err, jarPath)
	}

	entry := findEntry(&zr.Reader, descriptorName)
	if entry == nil {
		return nil, oerrors.WrapMalformedArtifact(
			fmt.Errorf("descriptor %s not present in archive", descriptorName), jarPath)
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, oerrors.WrapMalformedArtifact(err, jarPath)
	}
	defer rc.Close()

	p, err := plugin.Parse(rc, jarPath+"!"+descriptorName)
	if err != nil {
		return nil, err
	}
	if p.Identifier() != pluginID {
		return nil, oerrors.WrapMalformedArtifact(
			fmt.Errorf("manifest names %s but descriptor declares %s", pluginID, p.Identifier()), jarPath)
	}

	return &Artifact{
		Path:           jarPath,
		PluginID:       pluginID,
		PluginName:     p.Name(),
		Version:        p.Version(),
		BuildTimestamp: buildTimestamp(sections, entry),
	}, nil
}

// IdentifierFromJar returns just the plugin identifier declared by a JAR.
func IdentifierFromJar(jarPath string) (string, error) {
	art, err := ReadJar(jarPath)
	if err != nil {
		return "", err
	}
	return art.PluginID, nil
}

// locatePluginEntry finds the descriptor entry name and plugin identifier,
// normalizing over the two producer conventions.
func locatePluginEntry(sections []manifestSection) (entryName, pluginID string, err error) {
	for _, sec := range sections {
		if sec[attrPlugin] != "true" {
			continue
		}
		name := sec[attrName]
		if name == "" {
			return "", "", fmt.Errorf("%s section lacks a %s attribute", attrPlugin, attrName)
		}
		return name, plugin.FileToID(name), nil
	}
	// Fall back to the main-attribute convention.
	if len(sections) > 0 {
		if id := sections[0][attrPluginID]; id != "" {
			return plugin.IDToFile(id), id, nil
		}
	}
	return "", "", fmt.Errorf("no %s entry in %s", attrPlugin, ManifestPath)
}

// buildTimestamp prefers an explicit manifest attribute and falls back to the
// descriptor entry's archive modification time.
func buildTimestamp(sections []manifestSection, entry *zip.File) time.Time {
	if len(sections) > 0 {
		if stamp := sections[0][attrBuildStamp]; stamp != "" {
			if ts, err := time.Parse(time.RFC3339, stamp); err == nil {
				return ts
			}
		}
	}
	return entry.Modified
}

func findEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func readManifest(zr *zip.Reader) ([]manifestSection, error) {
	mf := findEntry(zr, ManifestPath)
	if mf == nil {
		return nil, fmt.Errorf("no %s", ManifestPath)
	}
	rc, err := mf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return parseManifest(rc)
}

// parseManifest splits a JAR manifest into sections. Attributes are
// "Key: value" lines; a line starting with a single space continues the
// previous value (the 72-byte wrapping rule); a blank line ends a section.
func parseManifest(r io.Reader) ([]manifestSection, error) {
	var (
		sections []manifestSection
		current  manifestSection
		lastKey  string
	)
	flush := func() {
		if len(current) > 0 {
			sections = append(sections, current)
		}
		current = nil
		lastKey = ""
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, " "):
			if current == nil || lastKey == "" {
				return nil, fmt.Errorf("continuation line without attribute")
			}
			current[lastKey] += line[1:]
		default:
			key, value, ok := strings.Cut(line, ": ")
			if !ok {
				return nil, fmt.Errorf("malformed attribute line %q", line)
			}
			if current == nil {
				current = make(manifestSection)
			}
			current[key] = value
			lastKey = key
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return sections, nil
}
