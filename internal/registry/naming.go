package registry

import (
	"fmt"
	"strings"

	oerrors "github.com/lockss/turtles/internal/errors"
)

// NamingConvention maps a plugin identifier to its artifact file name within
// a layer. The same convention serves both lookup and publication; mixing
// conventions would silently orphan artifacts.
type NamingConvention string

const (
	// NamingIdentifier keeps the identifier verbatim: "a.b.MyPlugin.jar".
	NamingIdentifier NamingConvention = "identifier"

	// NamingUnderscore substitutes underscores for dots: "a_b_MyPlugin.jar".
	NamingUnderscore NamingConvention = "underscore"

	// NamingAbbreviated keeps only the last identifier segment:
	// "MyPlugin.jar".
	NamingAbbreviated NamingConvention = "abbreviated"
)

// ParseNamingConvention validates a configured convention string. An empty
// string selects the default, NamingIdentifier.
func ParseNamingConvention(s string) (NamingConvention, error) {
	switch NamingConvention(s) {
	case "":
		return NamingIdentifier, nil
	case NamingIdentifier, NamingUnderscore, NamingAbbreviated:
		return NamingConvention(s), nil
	default:
		return "", oerrors.WrapConfigInvalid(
			fmt.Errorf("unknown file naming convention %q", s), "layout")
	}
}

// FileName returns the artifact file name for a plugin identifier.
func (n NamingConvention) FileName(pluginID string) string {
	switch n {
	case NamingUnderscore:
		return strings.ReplaceAll(pluginID, ".", "_") + ".jar"
	case NamingAbbreviated:
		if i := strings.LastIndex(pluginID, "."); i >= 0 {
			return pluginID[i+1:] + ".jar"
		}
		return pluginID + ".jar"
	default:
		return pluginID + ".jar"
	}
}
