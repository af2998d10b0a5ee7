// Package cmd provides CLI command implementations.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/lockss/turtles/internal/config"
	"github.com/lockss/turtles/internal/execx"
	"github.com/lockss/turtles/internal/output"
)

// GlobalConfig holds CLI-wide state resolved during PersistentPreRunE. It is
// populated once at startup and passed explicitly into every sub-command
// constructor; strategies never read package-level globals.
type GlobalConfig struct {
	// Dirs is the resolved configuration search path.
	Dirs []string

	// Loader loads and validates configuration along Dirs.
	Loader *config.Loader

	// Runner spawns external tool subprocesses.
	Runner execx.Runner

	// Output selects report rendering: "table" or "plain".
	Output string

	// Workers bounds parallelism across batch items.
	Workers int

	Verbose bool
}

// NewRootCmd creates the root command for the turtles CLI.
func NewRootCmd() *cobra.Command {
	gc := &GlobalConfig{}
	var (
		configDirFlag  string
		verboseFlag    bool
		timestampsFlag bool
		outputFlag     string
		workersFlag    int
	)

	rootCmd := &cobra.Command{
		Use:           "turtles",
		Short:         "Plugin build, signing, and publication tool",
		Long:          `Turtles builds plugin JARs from plugin sets, signs them, and publishes them into layered plugin registries.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logCfg := output.LogConfig{Verbose: verboseFlag}
			if cmd.Flags().Changed("timestamps") {
				logCfg.Timestamps = output.BoolPtr(timestampsFlag)
			}
			output.SetupLogging(logCfg)

			dirs := config.Dirs()
			if configDirFlag != "" {
				dirs = []string{configDirFlag}
			}

			runner := execx.New()
			loader, err := config.NewLoader(dirs, runner)
			if err != nil {
				return err
			}

			gc.Dirs = dirs
			gc.Loader = loader
			gc.Runner = runner
			gc.Output = outputFlag
			gc.Workers = workersFlag
			gc.Verbose = verboseFlag

			output.Debug("initializing CLI",
				"configDirs", strings.Join(dirs, ":"),
				"output", outputFlag,
				"workers", workersFlag,
			)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "",
		"Configuration directory (env: TURTLES_CONFIG_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&timestampsFlag, "timestamps", true,
		"Show timestamps in log output")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "table",
		"Report format: table, plain")
	rootCmd.PersistentFlags().IntVar(&workersFlag, "workers", 0,
		"Parallel workers for batch items (0 = default)")

	rootCmd.AddCommand(NewBuildCmd(gc))
	rootCmd.AddCommand(NewDeployCmd(gc))
	rootCmd.AddCommand(NewReleaseCmd(gc))
	rootCmd.AddCommand(NewConfigCmd(gc))
	rootCmd.AddCommand(NewVersionCmd(gc))

	return rootCmd
}
