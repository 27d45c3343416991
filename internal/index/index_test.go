package index

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/dejo1307/renamespacer/internal/parser"
)

const siHeader = `class Global;
namespace principia {
namespace quantities {
namespace internal_si {
class Detail;
}  // namespace internal_si

class Unit;
constexpr Length Metre = SIUnit<Length>();
using internal_si::Detail;

namespace si {
Length Foot(double feet);
}  // namespace si

}  // namespace quantities
}  // namespace principia
`

func TestCollect(t *testing.T) {
	tr, err := parser.Parse(strings.NewReader(siHeader), "quantities/si.hpp")
	require.NoError(t, err)

	got := Collect(tr)
	want := []Entry{
		{Name: "Unit", Kind: "Class", Namespace: "quantities", File: "quantities/si.hpp", Line: 8},
		{Name: "Metre", Kind: "Constant", Namespace: "quantities", File: "quantities/si.hpp", Line: 9},
		{Name: "Detail", Kind: "UsingDeclaration", Namespace: "quantities", File: "quantities/si.hpp", Line: 10},
		{Name: "Foot", Kind: "Function", Namespace: "si", File: "quantities/si.hpp", Line: 13},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Collect (-want +got):\n%s", diff)
	}
}

func TestLookupAndResolve(t *testing.T) {
	x := New()
	x.Add(
		Entry{Name: "Unit", Kind: "Class", Namespace: "quantities", File: "quantities/si.hpp"},
		Entry{Name: "Unit", Kind: "Class", Namespace: "quantities", File: "quantities/other.hpp"},
		Entry{Name: "Unit", Kind: "Class", Namespace: "geometry", File: "geometry/frame.hpp"},
		Entry{Name: "Global", Kind: "Class", File: "global.hpp"},
	)

	tests := []struct {
		fullName string
		want     string
		ok       bool
	}{
		{"quantities::Unit", "quantities/si.hpp", true},
		{"principia::quantities::Unit", "quantities/si.hpp", true},
		{"geometry::Unit", "geometry/frame.hpp", true},
		{"physics::Unit", "", false},
		{"quantities::Metre", "", false},
		{"Unit", "", false},
		{"::Global", "", false},
		{"Global", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.fullName, func(t *testing.T) {
			got, ok := x.Resolve(tt.fullName)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Resolve(%q) = %q, %v, want %q, %v", tt.fullName, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestQuery(t *testing.T) {
	x := New()
	x.Add(
		Entry{Name: "Length", Namespace: "quantities", File: "a.hpp"},
		Entry{Name: "LengthUnit", Namespace: "si", File: "b.hpp"},
		Entry{Name: "Time", Namespace: "quantities", File: "a.hpp"},
	)

	require.Len(t, x.Query("Length", ""), 2)
	require.Len(t, x.Query("Length", "si"), 1)
	require.Len(t, x.Query("", "quantities"), 2)
	require.Len(t, x.Query("", ""), 3)
	require.Len(t, x.ByFile("a.hpp"), 2)
	require.Len(t, x.ByName("Time"), 1)
	require.Equal(t, 3, x.Count())
}

func TestJSONLPersistence(t *testing.T) {
	x := New()
	x.Add(
		Entry{Name: "Unit", Kind: "Class", Namespace: "quantities", File: "quantities/si.hpp", Line: 8},
		Entry{Name: "Foot", Kind: "Function", Namespace: "si", File: "quantities/si.hpp", Line: 13},
	)

	path := filepath.Join(t.TempDir(), "index.jsonl")
	require.NoError(t, x.WriteJSONLFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(string(data), "\n"))

	loaded := New()
	require.NoError(t, loaded.ReadJSONLFile(path))
	if diff := cmp.Diff(x.All(), loaded.All()); diff != "" {
		t.Errorf("reloaded index (-want +got):\n%s", diff)
	}
	file, ok := loaded.Resolve("si::Foot")
	require.True(t, ok)
	require.Equal(t, "quantities/si.hpp", file)
}
