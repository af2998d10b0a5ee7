package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/lockss/turtles/internal/engine"
	"github.com/lockss/turtles/internal/output"
)

// NewReleaseCmd creates the release command.
func NewReleaseCmd(gc *GlobalConfig) *cobra.Command {
	var bf buildFlags
	var df deployFlags

	cmd := &cobra.Command{
		Use:   "release PLUGIN_ID...",
		Short: "Build, sign, and publish plugins",
		Long: `Build, sign, and publish the given plugins in one pass.

Release composes build and deploy: every identifier is built, and the
artifacts of the builds that succeeded are published. A build failure for
one identifier never blocks deployment of the others.

Examples:
  # Release a plugin to its registries' testing layers
  turtles release --testing edu.example.plugin.ExamplePlugin`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelease(cmd.Context(), gc, &bf, &df, args)
		},
	}

	bf.AddTo(cmd)
	df.AddTo(cmd)
	return cmd
}

func runRelease(ctx context.Context, gc *GlobalConfig, bf *buildFlags, df *deployFlags, pluginIDs []string) error {
	eng, err := newReleaseEngine(gc, bf, df)
	if err != nil {
		return err
	}

	var report *engine.Report
	if err := output.RunWithSpinner(ctx, func() error {
		report = eng.Release(ctx, pluginIDs, df.LayerIDs())
		return nil
	}, output.WithTitle("Releasing plugins...")); err != nil {
		return err
	}

	return finishReport(gc, report)
}

func newReleaseEngine(gc *GlobalConfig, bf *buildFlags, df *deployFlags) (*engine.Engine, error) {
	eng, err := newBuildEngine(gc, bf)
	if err != nil {
		return nil, err
	}
	regs, err := gc.Loader.LoadRegistries(df.registryCatalog)
	if err != nil {
		return nil, err
	}
	return eng.WithRegistries(regs), nil
}
