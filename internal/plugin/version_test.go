package plugin

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1", "1", 0},
		{"1", "2", -1},
		{"70", "9", 1},
		{"1.70.0", "1.70.0", 0},
		{"1.70.0", "1.70.1", -1},
		{"1.70.0", "1.9.9", 1},
		{"1.70", "1.70.0", -1},
		{"2", "1.9.9", 1},
		{"1.0a", "1.0b", -1},
		{"rc1", "rc2", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Version(tt.a).Compare(Version(tt.b)))
			assert.Equal(t, -tt.want, Version(tt.b).Compare(Version(tt.a)))
		})
	}
}

func TestVersionNewer(t *testing.T) {
	assert.True(t, Version("71").Newer(Version("70")))
	assert.False(t, Version("70").Newer(Version("70")))
	assert.False(t, Version("69").Newer(Version("70")))
}

func TestVersionIsZero(t *testing.T) {
	assert.True(t, Version("").IsZero())
	assert.False(t, Version("0").IsZero())
}

// genVersion produces dotted versions of 1-4 numeric or short lexical segments.
func genVersion() *rapid.Generator[Version] {
	segment := rapid.OneOf(
		rapid.Map(rapid.Uint64Range(0, 9999), func(n uint64) string {
			return strconv.FormatUint(n, 10)
		}),
		rapid.StringMatching(`[a-z]{1,3}`),
	)
	return rapid.Custom(func(t *rapid.T) Version {
		segments := rapid.SliceOfN(segment, 1, 4).Draw(t, "segments")
		return Version(strings.Join(segments, "."))
	})
}

func TestVersionCompareAntisymmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genVersion().Draw(t, "a")
		b := genVersion().Draw(t, "b")
		assert.Equal(t, -b.Compare(a), a.Compare(b))
	})
}

func TestVersionCompareReflexive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genVersion().Draw(t, "a")
		assert.Zero(t, a.Compare(a))
	})
}

func TestVersionCompareTransitive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genVersion().Draw(t, "a")
		b := genVersion().Draw(t, "b")
		c := genVersion().Draw(t, "c")
		if a.Compare(b) <= 0 && b.Compare(c) <= 0 {
			assert.LessOrEqual(t, a.Compare(c), 0)
		}
	})
}
