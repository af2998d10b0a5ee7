package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lockss/turtles/internal/config"
	oerrors "github.com/lockss/turtles/internal/errors"
	"github.com/lockss/turtles/internal/output"
)

// standardFiles are the configuration files looked up along the search path.
var standardFiles = []string{
	config.PluginSetCatalogFile,
	config.PluginRegistryCatalogFile,
	config.SigningCredentialsFile,
}

// NewConfigCmd creates the config command group.
func NewConfigCmd(gc *GlobalConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate configuration",
	}
	cmd.AddCommand(NewConfigLocateCmd(gc))
	cmd.AddCommand(NewConfigVetCmd(gc))
	return cmd
}

// NewConfigLocateCmd creates the config locate command.
func NewConfigLocateCmd(gc *GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Show which configuration files would be used",
		Long: `Show which configuration files would be used.

For each standard file name, prints the file the search path selects, or
the candidate paths when none exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigLocate(gc)
		},
	}
}

func runConfigLocate(gc *GlobalConfig) error {
	for _, name := range standardFiles {
		path, err := config.Locate(name, gc.Dirs)
		if err != nil {
			output.Println(name + ": not found, candidates:")
			for _, candidate := range config.Candidates(name, gc.Dirs) {
				output.Println("  " + candidate)
			}
			continue
		}
		output.Println(name + ": " + path)
	}
	return nil
}

// NewConfigVetCmd creates the config vet command.
func NewConfigVetCmd(gc *GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "vet",
		Short: "Validate configuration",
		Long: `Validate the turtles configuration.

Checks performed:
  1. Both catalogs and the signing credentials exist along the search path
  2. Every document validates against its schema
  3. Every descriptor file the catalogs list loads and resolves

Every file is checked; validation does not stop at the first failure.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigVet(gc)
		},
	}
}

func runConfigVet(gc *GlobalConfig) error {
	failed := 0
	for _, result := range gc.Loader.Vet() {
		if result.Err != nil {
			failed++
			output.Println("FAIL " + result.Path + ": " + result.Err.Error())
			continue
		}
		output.Println("ok   " + result.Path)
	}
	if failed > 0 {
		return &oerrors.ExitError{
			Err:     fmt.Errorf("%d configuration file(s) failed validation", failed),
			Code:    oerrors.ExitConfigInvalid,
			Printed: true,
		}
	}
	output.Println("Configuration is valid")
	return nil
}
