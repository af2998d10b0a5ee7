// Package registry models layered plugin registries and their layouts.
package registry

import (
	"context"
	"fmt"
	"sync"

	oerrors "github.com/lockss/turtles/internal/errors"
	"github.com/lockss/turtles/internal/execx"
	"github.com/lockss/turtles/internal/jarfile"
	"github.com/lockss/turtles/internal/plugin"
)

// KindPluginRegistry is the descriptor kind for plugin registries.
const KindPluginRegistry = "PluginRegistry"

// Layout type strings. Like builder strategies, the variant set is closed.
const (
	LayoutDirectory = "directory"
	LayoutRCS       = "rcs"
)

// Well-known layer identifiers.
const (
	LayerTesting    = "testing"
	LayerProduction = "production"
)

// Descriptor is a PluginRegistry configuration document.
type Descriptor struct {
	Kind   string     `json:"kind" yaml:"kind"`
	ID     string     `json:"id" yaml:"id"`
	Name   string     `json:"name" yaml:"name"`
	Layout LayoutSpec `json:"layout" yaml:"layout"`

	// Layers is ordered; the order encodes promotion order, lowest first.
	Layers []LayerSpec `json:"layers" yaml:"layers"`

	// PluginIDs are the plugin identifiers this registry is declared to
	// contain.
	PluginIDs []string `json:"plugin-identifiers" yaml:"plugin-identifiers"`

	// SuppressedPluginIDs are identifiers that must never be deployed to
	// this registry.
	SuppressedPluginIDs []string `json:"suppressed-plugin-identifiers,omitempty" yaml:"suppressed-plugin-identifiers,omitempty"`
}

// LayoutSpec selects a registry layout strategy.
type LayoutSpec struct {
	Type                 string            `json:"type" yaml:"type"`
	FileNamingConvention string            `json:"file-naming-convention,omitempty" yaml:"file-naming-convention,omitempty"`
	Options              map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
}

// LayerSpec is one promotion stage of a registry.
type LayerSpec struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
}

// Layer is a resolved promotion stage. A layer is a shared mutable resource:
// its mutex serializes publication for the whole copy/check-in span.
type Layer struct {
	ID   string
	Name string
	Path string

	registry *Registry
	mu       sync.Mutex
}

// Registry returns the registry the layer belongs to.
func (l *Layer) Registry() *Registry {
	return l.registry
}

// layout is the storage-technology-specific strategy for one registry.
type layout interface {
	// currentVersion inspects the layer root for an artifact of pluginID
	// under the naming convention and reads its version.
	currentVersion(layer *Layer, pluginID string) (plugin.Version, bool, error)

	// publish copies the artifact into the layer root under the naming
	// convention and returns the destination path. The caller holds the
	// layer lock.
	publish(ctx context.Context, layer *Layer, art *jarfile.Artifact) (string, error)
}

// Registry is a resolved plugin registry.
type Registry struct {
	desc       Descriptor
	naming     NamingConvention
	layout     layout
	layers     []*Layer
	declared   map[string]bool
	suppressed map[string]bool
}

// New constructs the Registry for a descriptor.
func New(d Descriptor, runner execx.Runner) (*Registry, error) {
	naming, err := ParseNamingConvention(d.Layout.FileNamingConvention)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.ID, err)
	}

	r := &Registry{
		desc:       d,
		naming:     naming,
		declared:   make(map[string]bool, len(d.PluginIDs)),
		suppressed: make(map[string]bool, len(d.SuppressedPluginIDs)),
	}
	for _, id := range d.PluginIDs {
		r.declared[id] = true
	}
	for _, id := range d.SuppressedPluginIDs {
		r.suppressed[id] = true
	}

	if len(d.Layers) == 0 {
		return nil, oerrors.WrapConfigInvalid(
			fmt.Errorf("registry declares no layers"), d.ID)
	}
	seen := make(map[string]bool, len(d.Layers))
	for _, spec := range d.Layers {
		if seen[spec.ID] {
			return nil, oerrors.WrapConfigInvalid(
				fmt.Errorf("duplicate layer id %q", spec.ID), d.ID)
		}
		seen[spec.ID] = true
		r.layers = append(r.layers, &Layer{
			ID:       spec.ID,
			Name:     spec.Name,
			Path:     spec.Path,
			registry: r,
		})
	}

	switch d.Layout.Type {
	case LayoutDirectory:
		r.layout = &directoryLayout{naming: naming, runner: runner}
	case LayoutRCS:
		r.layout = &rcsLayout{directoryLayout{naming: naming, runner: runner}}
	default:
		return nil, oerrors.WrapConfigInvalid(
			fmt.Errorf("unknown layout type %q", d.Layout.Type), d.ID)
	}
	return r, nil
}

// ID returns the registry identifier.
func (r *Registry) ID() string { return r.desc.ID }

// Name returns the human-readable registry name.
func (r *Registry) Name() string { return r.desc.Name }

// LayoutType returns the layout type string.
func (r *Registry) LayoutType() string { return r.desc.Layout.Type }

// Naming returns the registry's file naming convention.
func (r *Registry) Naming() NamingConvention { return r.naming }

// Layers returns the layers in declared promotion order.
func (r *Registry) Layers() []*Layer { return r.layers }

// Layer returns the layer with the given id, or nil.
func (r *Registry) Layer(layerID string) *Layer {
	for _, l := range r.layers {
		if l.ID == layerID {
			return l
		}
	}
	return nil
}

// HasPlugin reports whether the registry declares the plugin identifier.
func (r *Registry) HasPlugin(pluginID string) bool {
	return r.declared[pluginID]
}

// IsSuppressed reports whether deployment of the plugin identifier is
// suppressed for this registry.
func (r *Registry) IsSuppressed(pluginID string) bool {
	return r.suppressed[pluginID]
}

// PluginIDs returns the declared plugin identifiers.
func (r *Registry) PluginIDs() []string {
	return r.desc.PluginIDs
}

// CurrentVersion reports the version of the artifact currently published
// for pluginID in the layer, if any.
func (r *Registry) CurrentVersion(layer *Layer, pluginID string) (plugin.Version, bool, error) {
	return r.layout.currentVersion(layer, pluginID)
}

// Publish copies the artifact into the layer under the registry's naming
// convention and returns the destination path. Access to the layer root is
// exclusive for the duration of the copy (and check-in, for managed
// layouts).
func (r *Registry) Publish(ctx context.Context, layer *Layer, art *jarfile.Artifact) (string, error) {
	layer.mu.Lock()
	defer layer.mu.Unlock()
	return r.layout.publish(ctx, layer, art)
}
