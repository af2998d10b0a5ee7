package plugin

import (
	"strconv"
	"strings"
)

// Version is an opaque ordered version identifier extracted from a built
// artifact, e.g. "70" or "1.70.0".
//
// Ordering policy: the string is split on ".", and segment pairs compare
// numerically when both parse as unsigned integers, byte-lexically otherwise.
// When one version is a strict segment prefix of the other, the longer one is
// newer. Equal strings denote equal versions.
type Version string

// Compare returns -1, 0, or 1 as v is older than, equal to, or newer than o.
func (v Version) Compare(o Version) int {
	if v == o {
		return 0
	}
	a := strings.Split(string(v), ".")
	b := strings.Split(string(o), ".")
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareSegment(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Newer reports whether v is strictly newer than o.
func (v Version) Newer(o Version) bool {
	return v.Compare(o) > 0
}

// IsZero reports whether no version was declared.
func (v Version) IsZero() bool {
	return v == ""
}

func (v Version) String() string {
	return string(v)
}

func compareSegment(a, b string) int {
	an, aerr := strconv.ParseUint(a, 10, 64)
	bn, berr := strconv.ParseUint(b, 10, 64)
	if aerr == nil && berr == nil {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
