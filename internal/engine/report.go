package engine

import (
	"github.com/lockss/turtles/internal/jarfile"
	"github.com/lockss/turtles/internal/output"
	"github.com/lockss/turtles/internal/plugin"
)

// Action labels the outcome of one report item.
type Action string

const (
	ActionBuilt       Action = "built"
	ActionPublished   Action = "published"
	ActionCurrent     Action = "already current"
	ActionSuppressed  Action = "suppressed"
	ActionNotDeclared Action = "not declared"
	ActionFailed      Action = "failed"
)

// State is the terminal state of a batch run.
type State string

const (
	StateSucceeded       State = "Succeeded"
	StatePartiallyFailed State = "PartiallyFailed"
	StateFailed          State = "Failed"
)

// Item is the outcome for one (plugin, target) pair. Target is the plugin
// set identifier for build items and "registry:layer" (or just the registry
// identifier) for deploy items.
type Item struct {
	PluginID string
	Target   string
	Action   Action
	Version  plugin.Version
	Detail   string
	Err      error

	// Artifact is set for successful build items, so a release can feed
	// them into the deploy phase.
	Artifact *jarfile.Artifact
}

// Failed reports whether the item represents a failure.
func (it Item) Failed() bool {
	return it.Err != nil
}

// Report is the structured per-item outcome of a batch run. Partial success
// is an expected outcome, not an engine error.
type Report struct {
	Items []Item
}

// Merge appends another report's items.
func (r *Report) Merge(other *Report) {
	r.Items = append(r.Items, other.Items...)
}

// State derives the terminal state of the batch.
func (r *Report) State() State {
	failed := 0
	for _, it := range r.Items {
		if it.Failed() {
			failed++
		}
	}
	switch {
	case failed == 0:
		return StateSucceeded
	case failed == len(r.Items):
		return StateFailed
	default:
		return StatePartiallyFailed
	}
}

// Failed reports whether any item failed.
func (r *Report) Failed() bool {
	return r.State() != StateSucceeded
}

// Errors returns the errors of all failed items, in report order.
func (r *Report) Errors() []error {
	var errs []error
	for _, it := range r.Items {
		if it.Err != nil {
			errs = append(errs, it.Err)
		}
	}
	return errs
}

// Artifacts returns the artifacts of all successful build items, in report
// order.
func (r *Report) Artifacts() []*jarfile.Artifact {
	var arts []*jarfile.Artifact
	for _, it := range r.Items {
		if it.Action == ActionBuilt && it.Artifact != nil {
			arts = append(arts, it.Artifact)
		}
	}
	return arts
}

// Rows converts the report to renderable table rows.
func (r *Report) Rows() []output.ReportRow {
	rows := make([]output.ReportRow, 0, len(r.Items))
	for _, it := range r.Items {
		row := output.ReportRow{
			Plugin:  it.PluginID,
			Target:  it.Target,
			Action:  string(it.Action),
			Version: it.Version.String(),
			Detail:  it.Detail,
		}
		if row.Target == "" {
			row.Target = "-"
		}
		if it.Err != nil {
			row.Detail = it.Err.Error()
		}
		rows = append(rows, row)
	}
	return rows
}
