// Package engine orchestrates plugin resolution, building, and deployment.
package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	oerrors "github.com/lockss/turtles/internal/errors"
	"github.com/lockss/turtles/internal/jarfile"
	"github.com/lockss/turtles/internal/output"
	"github.com/lockss/turtles/internal/pluginset"
	"github.com/lockss/turtles/internal/registry"
)

// defaultWorkers bounds parallelism across independent batch items.
const defaultWorkers = 4

// Engine runs batch build, deploy, and release requests. Items in a batch
// are independent: one item's failure never aborts the others.
type Engine struct {
	index      *pluginset.Index
	registries []*registry.Registry
	creds      pluginset.Credentials
	workers    int
}

// New constructs an Engine. Registries keep their configuration order, which
// determines report order for deployments. workers <= 0 selects the default.
func New(ix *pluginset.Index, regs []*registry.Registry, creds pluginset.Credentials, workers int) *Engine {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Engine{
		index:      ix,
		registries: regs,
		creds:      creds,
		workers:    workers,
	}
}

// WithRegistries returns a copy of the engine targeting the given
// registries.
func (e *Engine) WithRegistries(regs []*registry.Registry) *Engine {
	clone := *e
	clone.registries = regs
	return &clone
}

// Build builds each requested plugin identifier, in input order. Outcomes
// are collected per identifier; the batch never short-circuits.
func (e *Engine) Build(ctx context.Context, pluginIDs []string) *Report {
	items := make([]Item, len(pluginIDs))

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, pluginID := range pluginIDs {
		g.Go(func() error {
			items[i] = e.buildOne(ctx, pluginID)
			return nil
		})
	}
	g.Wait()

	return &Report{Items: items}
}

func (e *Engine) buildOne(ctx context.Context, pluginID string) Item {
	logger := output.PluginLogger(pluginID)

	set, err := e.index.Resolve(pluginID)
	if err != nil {
		logger.Error("resolution failed", "error", err)
		return Item{PluginID: pluginID, Action: ActionFailed, Err: err}
	}

	logger.Debug("building", "set", set.ID(), "builder", set.BuilderType())
	art, err := set.Build(ctx, pluginID, e.creds)
	if err != nil {
		logger.Error("build failed", "set", set.ID(), "error", err)
		return Item{PluginID: pluginID, Target: set.ID(), Action: ActionFailed, Err: err}
	}

	logger.Info("built", "version", art.Version, "jar", art.Path)
	return Item{
		PluginID: pluginID,
		Target:   set.ID(),
		Action:   ActionBuilt,
		Version:  art.Version,
		Detail:   art.Path,
		Artifact: art,
	}
}

// Deploy publishes each artifact into every registry that declares its
// identifier. layerIDs, when non-empty, restricts publication to layers with
// those identifiers; within a registry, layers are always processed in their
// declared promotion order.
func (e *Engine) Deploy(ctx context.Context, artifacts []*jarfile.Artifact, layerIDs []string) *Report {
	want := make(map[string]bool, len(layerIDs))
	for _, id := range layerIDs {
		want[id] = true
	}

	perArtifact := make([][]Item, len(artifacts))

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, art := range artifacts {
		g.Go(func() error {
			perArtifact[i] = e.deployOne(ctx, art, want)
			return nil
		})
	}
	g.Wait()

	r := &Report{}
	for _, items := range perArtifact {
		r.Items = append(r.Items, items...)
	}
	return r
}

func (e *Engine) deployOne(ctx context.Context, art *jarfile.Artifact, want map[string]bool) []Item {
	var items []Item
	declared := false

	for _, reg := range e.registries {
		if !reg.HasPlugin(art.PluginID) {
			continue
		}
		declared = true

		if reg.IsSuppressed(art.PluginID) {
			output.Debug("suppressed", "plugin", art.PluginID, "registry", reg.ID())
			items = append(items, Item{
				PluginID: art.PluginID,
				Target:   reg.ID(),
				Action:   ActionSuppressed,
				Version:  art.Version,
			})
			continue
		}

		for _, layer := range reg.Layers() {
			if len(want) > 0 && !want[layer.ID] {
				continue
			}
			item := e.deployLayer(ctx, reg, layer, art)
			items = append(items, item)
			if item.Failed() {
				// Promotion order would be violated if a higher layer got
				// ahead of a failed lower one.
				break
			}
		}
	}

	if !declared {
		items = append(items, Item{
			PluginID: art.PluginID,
			Action:   ActionNotDeclared,
			Version:  art.Version,
			Err: fmt.Errorf("%s: not declared in any registry: %w",
				art.PluginID, oerrors.ErrDeployFailed),
		})
	}
	return items
}

func (e *Engine) deployLayer(ctx context.Context, reg *registry.Registry, layer *registry.Layer, art *jarfile.Artifact) Item {
	logger := output.RegistryLogger(reg.ID(), layer.ID)
	item := Item{
		PluginID: art.PluginID,
		Target:   reg.ID() + ":" + layer.ID,
		Version:  art.Version,
	}

	current, present, err := reg.CurrentVersion(layer, art.PluginID)
	if err != nil {
		logger.Error("version check failed", "plugin", art.PluginID, "error", err)
		item.Action, item.Err = ActionFailed, err
		return item
	}

	// Never downgrade and never republish an identical version.
	if present && !art.Version.Newer(current) {
		logger.Debug("already current", "plugin", art.PluginID,
			"version", art.Version, "published", current)
		item.Action = ActionCurrent
		item.Detail = fmt.Sprintf("layer has %s", current)
		return item
	}

	dst, err := reg.Publish(ctx, layer, art)
	if err != nil {
		logger.Error("publish failed", "plugin", art.PluginID, "error", err)
		item.Action, item.Err = ActionFailed, err
		return item
	}

	logger.Info("published", "plugin", art.PluginID, "version", art.Version, "path", dst)
	item.Action, item.Detail = ActionPublished, dst
	return item
}

// Release builds the requested identifiers and deploys the artifacts of the
// builds that succeeded. Build failures never block deployment of the
// batch's successful artifacts.
func (e *Engine) Release(ctx context.Context, pluginIDs, layerIDs []string) *Report {
	r := e.Build(ctx, pluginIDs)
	if arts := r.Artifacts(); len(arts) > 0 {
		r.Merge(e.Deploy(ctx, arts, layerIDs))
	}
	return r
}
