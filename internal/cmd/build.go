package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/lockss/turtles/internal/engine"
	"github.com/lockss/turtles/internal/output"
	"github.com/lockss/turtles/internal/pluginset"
)

// NewBuildCmd creates the build command.
func NewBuildCmd(gc *GlobalConfig) *cobra.Command {
	var bf buildFlags

	cmd := &cobra.Command{
		Use:   "build PLUGIN_ID...",
		Short: "Build and sign plugins",
		Long: `Build and sign the given plugins.

Each plugin identifier is resolved to the plugin set that owns it, built
with that set's builder, and signed with the configured credentials.
Identifiers are processed independently: one failure does not abort the
rest of the batch.

Examples:
  # Build one plugin
  turtles build edu.example.plugin.ExamplePlugin

  # Build several plugins with an explicit catalog
  turtles build --plugin-set-catalog ./catalog.yaml a.b.One a.b.Two`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), gc, &bf, args)
		},
	}

	bf.AddTo(cmd)
	return cmd
}

func runBuild(ctx context.Context, gc *GlobalConfig, bf *buildFlags, pluginIDs []string) error {
	eng, err := newBuildEngine(gc, bf)
	if err != nil {
		return err
	}

	var report *engine.Report
	if err := output.RunWithSpinner(ctx, func() error {
		report = eng.Build(ctx, pluginIDs)
		return nil
	}, output.WithTitle("Building plugins...")); err != nil {
		return err
	}

	return finishReport(gc, report)
}

// newBuildEngine loads plugin sets and signing credentials and assembles an
// engine with no registries.
func newBuildEngine(gc *GlobalConfig, bf *buildFlags) (*engine.Engine, error) {
	sets, err := gc.Loader.LoadPluginSets(bf.setCatalog)
	if err != nil {
		return nil, err
	}
	creds, err := gc.Loader.LoadCredentials(bf.credentials)
	if err != nil {
		return nil, err
	}
	if creds.Password, err = bf.Password(); err != nil {
		return nil, err
	}
	return engine.New(pluginset.NewIndex(sets), nil, creds, gc.Workers), nil
}
