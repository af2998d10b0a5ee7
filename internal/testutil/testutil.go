// Package testutil provides test helpers for turtles tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/lockss/turtles/internal/plugin"
)

// WriteFile creates a file with the given content under dir, creating parent
// directories as needed, and returns its path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create parent dirs for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}

// DescriptorXML renders a minimal plugin descriptor document.
func DescriptorXML(pluginID, name, version string) string {
	return fmt.Sprintf(`<?xml version="1.0"?>
<map>
  <entry>
    <string>plugin_identifier</string>
    <string>%s</string>
  </entry>
  <entry>
    <string>plugin_name</string>
    <string>%s</string>
  </entry>
  <entry>
    <string>plugin_version</string>
    <string>%s</string>
  </entry>
</map>
`, pluginID, name, version)
}

// WriteDescriptor writes a plugin descriptor under root at the conventional
// relative path for pluginID.
func WriteDescriptor(t *testing.T, root, pluginID, name, version string) string {
	t.Helper()
	return WriteFile(t, root, plugin.IDToFile(pluginID), DescriptorXML(pluginID, name, version))
}

// WriteJar creates a plugin JAR at path with an ant-style manifest section
// and an embedded descriptor for pluginID at the given version.
func WriteJar(t *testing.T, path, pluginID, name, version string) string {
	t.Helper()

	entryName := plugin.IDToFile(pluginID)
	manifest := fmt.Sprintf("Manifest-Version: 1.0\r\n\r\nName: %s\r\nLockss-Plugin: true\r\n\r\n", entryName)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for entry, content := range map[string]string{
		"META-INF/MANIFEST.MF": manifest,
		entryName:              DescriptorXML(pluginID, name, version),
	} {
		w, err := zw.Create(entry)
		if err != nil {
			t.Fatalf("failed to add %s to jar: %v", entry, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write %s: %v", entry, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finalize jar: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create parent dirs for %s: %v", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write jar %s: %v", path, err)
	}
	return path
}
