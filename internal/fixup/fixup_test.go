package fixup

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/dejo1307/renamespacer/internal/index"
	"github.com/dejo1307/renamespacer/internal/naming"
	"github.com/dejo1307/renamespacer/internal/parser"
	"github.com/dejo1307/renamespacer/internal/rewrite"
	"github.com/dejo1307/renamespacer/internal/tree"
)

var conv = naming.Convention{Root: "principia"}

// apply parses input as the file at path, runs the passes with invariant
// checks and returns the rendered result.
func apply(t *testing.T, path, input string, passes ...Pass) string {
	t.Helper()
	tr, err := parser.Parse(strings.NewReader(input), path)
	require.NoError(t, err)
	require.NoError(t, NewPipeline("test", passes...).SetVerify(true).Run(tr))
	out, err := rewrite.Render(tr)
	require.NoError(t, err)
	return string(out)
}

func applyErr(t *testing.T, path, input string, passes ...Pass) error {
	t.Helper()
	tr, err := parser.Parse(strings.NewReader(input), path)
	require.NoError(t, err)
	return NewPipeline("test", passes...).Run(tr)
}

func testIndex() *index.Index {
	x := index.New()
	x.Add(
		index.Entry{Name: "Time", Kind: "Class", Namespace: "quantities", File: "/src/quantities/si.hpp"},
		index.Entry{Name: "Length", Kind: "Class", Namespace: "quantities", File: "/src/quantities/named_quantities.hpp"},
		index.Entry{Name: "Speed", Kind: "TypeAlias", Namespace: "quantities", File: "/src/quantities/named_quantities.hpp"},
		index.Entry{Name: "not_null", Kind: "Class", Namespace: "base", File: "/src/base/not_null.hpp"},
	)
	return x
}

func TestLegacyInternalNamespaces(t *testing.T) {
	input := `namespace bar {
class Before;
namespace internal_foo {
class X;
}  // namespace internal_foo
using internal_foo::X;
}  // namespace bar
`
	want := `namespace bar {
class Before;
namespace foo {
namespace internal {
class X;
}  // namespace internal
using internal::X;
}  // namespace foo
}  // namespace bar
`
	got := apply(t, "/src/dir/foo.hpp", input, LegacyInternalNamespacesPass())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output (-want +got):\n%s", diff)
	}
}

func TestLegacyInternalNamespacesKeepCRLF(t *testing.T) {
	input := "namespace bar {\r\nnamespace internal_foo {\r\nclass X;\r\n}  // namespace internal_foo\r\n}  // namespace bar\r\n"
	want := "namespace bar {\r\nnamespace foo {\r\nnamespace internal {\r\nclass X;\r\n}  // namespace internal\r\n}  // namespace foo\r\n}  // namespace bar\r\n"
	got := apply(t, "/src/dir/foo.hpp", input, LegacyInternalNamespacesPass())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output (-want +got):\n%s", diff)
	}
}

func TestLegacyInternalNamespacesSeveral(t *testing.T) {
	input := `namespace bar {
namespace internal_foo {
class X;
}  // namespace internal_foo
namespace internal_baz {
class Y;
}  // namespace internal_baz
}  // namespace bar
`
	want := `namespace bar {
namespace foo {
namespace internal {
class X;
}  // namespace internal
namespace internal {
class Y;
}  // namespace internal
}  // namespace foo
}  // namespace bar
`
	got := apply(t, "/src/dir/foo.hpp", input, LegacyInternalNamespacesPass())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output (-want +got):\n%s", diff)
	}
}

func TestLegacyInternalNamespaceInFileNamespace(t *testing.T) {
	input := `namespace foo {
namespace internal_foo {
class X;
}  // namespace internal_foo
}  // namespace foo
`
	want := `namespace foo {
namespace internal {
class X;
}  // namespace internal
}  // namespace foo
`
	got := apply(t, "/src/dir/foo.hpp", input, LegacyInternalNamespacesPass())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output (-want +got):\n%s", diff)
	}
}

func TestLegacyInternalNamespaceAtTopLevel(t *testing.T) {
	input := "namespace internal_foo {\n}  // namespace internal_foo\n"
	err := applyErr(t, "/src/dir/foo.hpp", input, LegacyInternalNamespacesPass())
	if !errors.Is(err, ErrStructure) {
		t.Fatalf("error = %v, want ErrStructure", err)
	}
	if !strings.Contains(err.Error(), "legacy_internal_namespaces") {
		t.Errorf("error %q does not name the pass", err)
	}
}

func TestMissingInternalNamespaces(t *testing.T) {
	input := `namespace bar {
class B;
class A;
void B(int);
}  // namespace bar
`
	t.Run("with using declarations", func(t *testing.T) {
		want := `namespace bar {
namespace foo {
namespace internal {
class B;
class A;
void B(int);
}  // namespace internal

using internal::A;
using internal::B;

}  // namespace foo
}  // namespace bar
`
		got := apply(t, "/src/dir/foo.hpp", input, MissingInternalNamespacesPass(true))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("output (-want +got):\n%s", diff)
		}
	})

	t.Run("without using declarations", func(t *testing.T) {
		want := `namespace bar {
namespace foo {
namespace internal {
class B;
class A;
void B(int);
}  // namespace internal
}  // namespace foo
}  // namespace bar
`
		got := apply(t, "/src/dir/foo.cpp", input, MissingInternalNamespacesPass(false))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("output (-want +got):\n%s", diff)
		}
	})
}

func TestMissingInternalNamespacesSkips(t *testing.T) {
	inputs := map[string]string{
		"internal": `namespace bar {
namespace internal {
class A;
}  // namespace internal
}  // namespace bar
`,
		"compound": `namespace principia::dir {
using namespace principia::dir::foo;
}  // namespace principia::dir
`,
		"no namespace": "class A;\n",
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			got := apply(t, "/src/dir/foo.hpp", input, MissingInternalNamespacesPass(true))
			if diff := cmp.Diff(input, got); diff != "" {
				t.Errorf("output (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUsingDeclarations(t *testing.T) {
	input := `namespace principia {
namespace physics {

using quantities::Time;
using quantities::Length;
using quantities::Speed;
using geometry::Frame;

}  // namespace physics
}  // namespace principia
`
	want := `namespace principia {
namespace physics {

using namespace principia::quantities::named_quantities;
using namespace principia::quantities::si;
using geometry::Frame;

}  // namespace physics
}  // namespace principia
`
	got := apply(t, "/src/physics/body.hpp", input, UsingDeclarationsPass(testIndex(), conv, false))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output (-want +got):\n%s", diff)
	}

	// Only internal namespaces are fixed in headers.
	got = apply(t, "/src/physics/body.hpp", input, UsingDeclarationsPass(testIndex(), conv, true))
	if diff := cmp.Diff(input, got); diff != "" {
		t.Errorf("internal only (-want +got):\n%s", diff)
	}
}

func TestUsingDeclarationsKeepExistingDirectives(t *testing.T) {
	input := `namespace principia {
namespace physics {

using namespace principia::base::not_null;
using namespace principia::quantities::si;
using quantities::Length;
using quantities::Time;

}  // namespace physics
}  // namespace principia
`
	want := `namespace principia {
namespace physics {

using namespace principia::base::not_null;
using namespace principia::quantities::named_quantities;
using namespace principia::quantities::si;

}  // namespace physics
}  // namespace principia
`
	got := apply(t, "/src/physics/body.cpp", input, UsingDeclarationsPass(testIndex(), conv, false))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output (-want +got):\n%s", diff)
	}
}

func TestCompatibilityNamespace(t *testing.T) {
	input := `#pragma once

namespace principia {
namespace quantities {
}  // namespace quantities
}  // namespace principia
`
	want := input + `
namespace principia::quantities {
using namespace principia::quantities::si;
}  // namespace principia::quantities
`
	got := apply(t, "/src/quantities/si.hpp", input, CompatibilityNamespacePass(conv))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output (-want +got):\n%s", diff)
	}

	// A second application is a no-op.
	again := apply(t, "/src/quantities/si.hpp", got, CompatibilityNamespacePass(conv))
	if diff := cmp.Diff(got, again); diff != "" {
		t.Errorf("second application (-want +got):\n%s", diff)
	}

	noNamespace := "#pragma once\n"
	if got := apply(t, "/src/quantities/si.hpp", noNamespace, CompatibilityNamespacePass(conv)); got != noNamespace {
		t.Errorf("file without namespace changed:\n%s", got)
	}
}

func TestUselessInternalNamespaces(t *testing.T) {
	input := `namespace principia {
namespace quantities {
namespace internal_si {
using namespace base;

class SITest : public testing::Test {};
}  // namespace internal_si
}  // namespace quantities
}  // namespace principia
`
	want := `namespace principia {
namespace quantities {
using namespace base;

class SITest : public testing::Test {};
}  // namespace quantities
}  // namespace principia
`
	got := apply(t, "/src/quantities/si_test.cpp", input, UselessInternalNamespacesPass())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output (-want +got):\n%s", diff)
	}
}

func TestFileUsingDirective(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name: "next to using declarations",
			input: `namespace principia {
namespace quantities {

using namespace principia::base::not_null;
using geometry::Frame;

}  // namespace quantities
}  // namespace principia
`,
			want: `namespace principia {
namespace quantities {

using namespace principia::base::not_null;
using namespace principia::quantities::si;
using geometry::Frame;

}  // namespace quantities
}  // namespace principia
`,
		},
		{
			name: "before the first using declaration",
			input: `namespace principia {
namespace quantities {
using geometry::Frame;
}  // namespace quantities
}  // namespace principia
`,
			want: `namespace principia {
namespace quantities {
using namespace principia::quantities::si;
using geometry::Frame;
}  // namespace quantities
}  // namespace principia
`,
		},
		{
			name: "among using directives",
			input: `namespace principia {
namespace quantities {
using namespace principia::base::not_null;
using namespace principia::testing_utilities::almost_equals;

class SITest {};
}  // namespace quantities
}  // namespace principia
`,
			want: `namespace principia {
namespace quantities {
using namespace principia::base::not_null;
using namespace principia::quantities::si;
using namespace principia::testing_utilities::almost_equals;

class SITest {};
}  // namespace quantities
}  // namespace principia
`,
		},
		{
			name: "no using directives",
			input: `namespace principia {
namespace quantities {
class SITest {};
}  // namespace quantities
}  // namespace principia
`,
			want: `namespace principia {
namespace quantities {

using namespace principia::quantities::si;
class SITest {};
}  // namespace quantities
}  // namespace principia
`,
		},
		{
			name: "already present",
			input: `namespace principia {
namespace quantities {
using namespace principia::quantities::si;
}  // namespace quantities
}  // namespace principia
`,
			want: `namespace principia {
namespace quantities {
using namespace principia::quantities::si;
}  // namespace quantities
}  // namespace principia
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := apply(t, "/src/quantities/si_test.cpp", tt.input, FileUsingDirectivePass(conv))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("output (-want +got):\n%s", diff)
			}
		})
	}

	err := applyErr(t, "/src/quantities/si_test.cpp", "int main() {}\n", FileUsingDirectivePass(conv))
	if !errors.Is(err, ErrStructure) {
		t.Errorf("error = %v, want ErrStructure", err)
	}
}

const siHeader = `#pragma once

#include "quantities/quantities.hpp"

namespace principia {
namespace quantities {
namespace internal_si {

using base::not_null;

class Unit;

}  // namespace internal_si

using internal_si::Unit;

}  // namespace quantities
}  // namespace principia
`

func TestHeaderPipeline(t *testing.T) {
	want := `#pragma once

#include "quantities/quantities.hpp"

namespace principia {
namespace quantities {
namespace si {
namespace internal {

using namespace principia::base::not_null;

class Unit;

}  // namespace internal

using internal::Unit;

}  // namespace si
}  // namespace quantities
}  // namespace principia

namespace principia::quantities {
using namespace principia::quantities::si;
}  // namespace principia::quantities
`
	passes := HeaderPipeline(testIndex(), conv).Passes()
	got := apply(t, "/src/quantities/si.hpp", siHeader, passes...)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("first run (-want +got):\n%s", diff)
	}

	again := apply(t, "/src/quantities/si.hpp", got, passes...)
	if diff := cmp.Diff(got, again); diff != "" {
		t.Errorf("second run is not a no-op (-want +got):\n%s", diff)
	}
}

func TestHeaderPipelineResolvesMovedUsingDeclarations(t *testing.T) {
	input := `namespace principia {
namespace physics {

using quantities::Length;

class Body;

}  // namespace physics
}  // namespace principia
`
	want := `namespace principia {
namespace physics {
namespace body {
namespace internal {

using namespace principia::quantities::named_quantities;

class Body;

}  // namespace internal

using internal::Body;

}  // namespace body
}  // namespace physics
}  // namespace principia

namespace principia::physics {
using namespace principia::physics::body;
}  // namespace principia::physics
`
	passes := HeaderPipeline(testIndex(), conv).Passes()
	got := apply(t, "/src/physics/body.hpp", input, passes...)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("first run (-want +got):\n%s", diff)
	}

	again := apply(t, "/src/physics/body.hpp", got, passes...)
	if diff := cmp.Diff(got, again); diff != "" {
		t.Errorf("second run is not a no-op (-want +got):\n%s", diff)
	}
}

func TestHeaderPipelinePassOrder(t *testing.T) {
	var got []string
	for _, pass := range HeaderPipeline(testIndex(), conv).Passes() {
		got = append(got, pass.Name)
	}
	want := []string{
		"internal_using_declarations",
		"legacy_internal_namespaces",
		"missing_internal_namespaces",
		"moved_using_declarations",
		"compatibility_namespace",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("passes (-want +got):\n%s", diff)
	}
}

func TestPipelinesPreserveUntouchedLines(t *testing.T) {
	pipelines := []*Pipeline{
		HeaderPipeline(testIndex(), conv),
		BodyPipeline(testIndex(), conv),
		TestPipeline(testIndex(), conv),
		ClientPipeline(testIndex(), conv, false),
	}
	for _, p := range pipelines {
		t.Run(p.Name(), func(t *testing.T) {
			got := apply(t, "/src/quantities/si_test.cpp", siHeader, p.Passes()...)
			// Every original line that does not mention a namespace survives, in order.
			var kept []string
			for _, line := range strings.Split(siHeader, "\n") {
				if line != "" && !strings.Contains(line, "namespace") && !strings.HasPrefix(line, "using ") {
					kept = append(kept, line)
				}
			}
			rest := got
			for _, line := range kept {
				i := strings.Index(rest, line)
				if i < 0 {
					t.Fatalf("line %q missing or out of order in:\n%s", line, got)
				}
				rest = rest[i+len(line):]
			}
		})
	}
}

func TestPipelineVerify(t *testing.T) {
	tr := tree.New("/src/dir/foo.hpp", "foo")
	ns := tr.Append(tr.Root(), tree.NewNamespace("bar"))
	corrupt := Pass{Name: "corrupt", Apply: func(tr *tree.Tree) error {
		tr.Node(ns).Children = append(tr.Node(ns).Children, ns)
		return nil
	}}

	p := NewPipeline("test", corrupt)
	require.NoError(t, p.Run(tr))

	tr = tree.New("/src/dir/foo.hpp", "foo")
	ns = tr.Append(tr.Root(), tree.NewNamespace("bar"))
	err := p.SetVerify(true).Run(tr)
	require.ErrorIs(t, err, tree.ErrCorrupt)
	require.Contains(t, err.Error(), "after corrupt")
}
