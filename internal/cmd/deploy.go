package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/lockss/turtles/internal/engine"
	"github.com/lockss/turtles/internal/jarfile"
	"github.com/lockss/turtles/internal/output"
	"github.com/lockss/turtles/internal/pluginset"
)

// NewDeployCmd creates the deploy command.
func NewDeployCmd(gc *GlobalConfig) *cobra.Command {
	var df deployFlags

	cmd := &cobra.Command{
		Use:   "deploy JAR...",
		Short: "Publish built plugin JARs into registries",
		Long: `Publish pre-built plugin JARs into every registry that declares them.

For each JAR, layers are processed in each registry's declared promotion
order. A layer already holding the same or a newer version is skipped and
reported as already current; deployment never downgrades and never
republishes an identical version.

Examples:
  # Deploy to all declared layers
  turtles deploy plugins/jars/edu.example.plugin.ExamplePlugin.jar

  # Deploy to the testing layer only
  turtles deploy --testing edu.example.plugin.ExamplePlugin.jar`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd.Context(), gc, &df, args)
		},
	}

	df.AddTo(cmd)
	return cmd
}

func runDeploy(ctx context.Context, gc *GlobalConfig, df *deployFlags, jarPaths []string) error {
	regs, err := gc.Loader.LoadRegistries(df.registryCatalog)
	if err != nil {
		return err
	}
	eng := engine.New(nil, regs, pluginset.Credentials{}, gc.Workers)

	// An unreadable JAR is a per-item failure, not a batch abort.
	report := &engine.Report{}
	var artifacts []*jarfile.Artifact
	for _, path := range jarPaths {
		art, err := jarfile.ReadJar(path)
		if err != nil {
			report.Items = append(report.Items, engine.Item{
				PluginID: path,
				Action:   engine.ActionFailed,
				Err:      err,
			})
			continue
		}
		artifacts = append(artifacts, art)
	}

	if err := output.RunWithSpinner(ctx, func() error {
		report.Merge(eng.Deploy(ctx, artifacts, df.LayerIDs()))
		return nil
	}, output.WithTitle("Deploying plugins...")); err != nil {
		return err
	}

	return finishReport(gc, report)
}
