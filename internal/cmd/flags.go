package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lockss/turtles/internal/config"
	"github.com/lockss/turtles/internal/engine"
	oerrors "github.com/lockss/turtles/internal/errors"
	"github.com/lockss/turtles/internal/output"
	"github.com/lockss/turtles/internal/registry"
)

// buildFlags are shared by the build and release commands.
type buildFlags struct {
	setCatalog  string
	credentials string
	password    string
}

// AddTo registers the flags on cmd.
func (f *buildFlags) AddTo(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.setCatalog, "plugin-set-catalog", "",
		"Path to the plugin set catalog (default: search path)")
	cmd.Flags().StringVar(&f.credentials, "plugin-signing-credentials", "",
		"Path to the plugin signing credentials (default: search path)")
	cmd.Flags().StringVar(&f.password, "password", "",
		"Plugin signing password (env: TURTLES_PASSWORD; prompts on a terminal)")
}

// Password resolves the signing password: flag, then environment, then an
// interactive prompt when stdin is a terminal. Never read from a file.
func (f *buildFlags) Password() (string, error) {
	if f.password != "" {
		return f.password, nil
	}
	if pw := os.Getenv(config.EnvPassword); pw != "" {
		return pw, nil
	}
	if output.IsStdinTTY() {
		return output.ReadPassword("Plugin signing password: ")
	}
	return "", nil
}

// deployFlags are shared by the deploy and release commands.
type deployFlags struct {
	registryCatalog string
	layers          []string
	testing         bool
	production      bool
}

// AddTo registers the flags on cmd.
func (f *deployFlags) AddTo(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.registryCatalog, "plugin-registry-catalog", "",
		"Path to the plugin registry catalog (default: search path)")
	cmd.Flags().StringSliceVarP(&f.layers, "layer", "l", nil,
		"Target layer identifier (repeatable; default: all layers)")
	cmd.Flags().BoolVarP(&f.testing, "testing", "t", false,
		"Target the testing layer")
	cmd.Flags().BoolVarP(&f.production, "production", "p", false,
		"Target the production layer")
}

// LayerIDs returns the selected layer identifiers without duplicates, in
// flag order. Empty means every declared layer.
func (f *deployFlags) LayerIDs() []string {
	ids := append([]string(nil), f.layers...)
	if f.testing {
		ids = append(ids, registry.LayerTesting)
	}
	if f.production {
		ids = append(ids, registry.LayerProduction)
	}

	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// finishReport renders the batch report and converts any per-item failure
// into the process exit code. The exit code reflects the worst per-item
// outcome.
func finishReport(gc *GlobalConfig, r *engine.Report) error {
	renderReport(gc, r)

	state := r.State()
	errs := r.Errors()
	output.Println(fmt.Sprintf("Result: %s (%d of %d items failed)",
		state, len(errs), len(r.Items)))

	if state == engine.StateSucceeded {
		return nil
	}

	code := oerrors.ExitGeneralError
	for _, err := range errs {
		if c := oerrors.ExitCodeFromError(err); c > code {
			code = c
		}
	}
	return &oerrors.ExitError{
		Err:     fmt.Errorf("%d of %d items failed", len(errs), len(r.Items)),
		Code:    code,
		Printed: true,
	}
}

func renderReport(gc *GlobalConfig, r *engine.Report) {
	rows := r.Rows()
	if gc.Output == "plain" || !output.IsTTY() {
		for _, row := range rows {
			output.Println(strings.Join([]string{
				row.Plugin, row.Target, row.Action, row.Version, row.Detail,
			}, "\t"))
		}
		return
	}
	output.Println(output.RenderReportTable(rows))
}
