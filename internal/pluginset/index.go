package pluginset

import (
	"fmt"
	"strings"

	oerrors "github.com/lockss/turtles/internal/errors"
)

// Index maps plugin identifiers to the plugin set that owns them, by
// probing each configured set's main source root.
type Index struct {
	sets []Set
}

// NewIndex creates an index over the configured plugin sets, in
// configuration order.
func NewIndex(sets []Set) *Index {
	return &Index{sets: sets}
}

// Sets returns the configured plugin sets in configuration order.
func (ix *Index) Sets() []Set {
	return ix.sets
}

// Resolve returns the single plugin set that owns pluginID. More than one
// claimant is a configuration error, not a priority pick.
func (ix *Index) Resolve(pluginID string) (Set, error) {
	var owners []Set
	for _, s := range ix.sets {
		if s.HasPlugin(pluginID) {
			owners = append(owners, s)
		}
	}
	switch len(owners) {
	case 0:
		return nil, fmt.Errorf("%s: not found in any plugin set: %w",
			pluginID, oerrors.ErrPluginSetNotFound)
	case 1:
		return owners[0], nil
	default:
		ids := make([]string, len(owners))
		for i, s := range owners {
			ids[i] = s.ID()
		}
		return nil, fmt.Errorf("%s: claimed by plugin sets %s: %w",
			pluginID, strings.Join(ids, ", "), oerrors.ErrAmbiguousPluginSet)
	}
}
