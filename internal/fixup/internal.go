package fixup

import (
	"slices"
	"strings"

	"github.com/dejo1307/renamespacer/internal/tree"
)

// LegacyInternalNamespaces replaces each legacy "internal_foo" namespace with
// a file namespace containing a namespace "internal". The file namespace
// takes the place of the legacy namespace in its parent and also receives
// the siblings that followed it; preceding siblings stay where they are.
// A legacy namespace whose parent already is the file namespace is only
// renamed.
func LegacyInternalNamespaces(t *tree.Tree) error {
	for _, legacy := range legacyInternalNamespaces(t, t.Root()) {
		n := t.Node(legacy)
		parent := n.Parent
		if !t.Is(parent, tree.KindNamespace) {
			return structureError(t, legacy, "internal namespace %s not within a namespace", n.Name)
		}
		if t.Node(parent).Name != t.FileNamespace {
			pos := n.Position
			moved := t.Detach(parent, pos, len(t.Node(parent).Children))
			fileNamespace := t.InsertNode(parent, pos, tree.NewNamespace(t.FileNamespace))
			t.Insert(fileNamespace, 0, moved...)
		}
		t.Rename(legacy, "internal")
	}
	return nil
}

// MissingInternalNamespaces moves the contents of every innermost namespace
// that is not internal into a nested fileNamespace::internal. Compound
// namespaces (a::b) are compatibility namespaces and are left alone.
//
// With insertUsingDeclarations, the file namespace also gets one
// "using internal::X;" per distinct declared name, sorted, between blank
// lines, so that the declarations stay visible at the file namespace.
func MissingInternalNamespaces(t *tree.Tree, insertUsingDeclarations bool) error {
	for _, ns := range innermostNamespaces(t, t.Root()) {
		n := t.Node(ns)
		if n.Internal || strings.Contains(n.Name, "::") {
			continue
		}
		moved := t.Detach(ns, 0, len(n.Children))
		fileNamespace := t.Append(ns, tree.NewNamespace(t.FileNamespace))
		internal := t.Append(fileNamespace, tree.NewNamespace("internal"))
		t.Insert(internal, 0, moved...)

		if !insertUsingDeclarations {
			continue
		}
		names := declaredNames(t, moved)
		if len(names) == 0 {
			continue
		}
		t.Append(fileNamespace, tree.NewText(""))
		for _, name := range names {
			t.Append(fileNamespace, tree.NewUsingDeclaration("internal::"+name))
		}
		t.Append(fileNamespace, tree.NewText(""))
	}
	return nil
}

// declaredNames returns the sorted, deduplicated names declared by ids.
func declaredNames(t *tree.Tree, ids []tree.NodeID) []string {
	var names []string
	for _, id := range ids {
		if n := t.Node(id); n.Kind.IsDeclaration() {
			names = append(names, n.Name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// UselessInternalNamespaces dissolves legacy "internal_foo" namespaces: their
// children are spliced into the parent in place of the namespace.
func UselessInternalNamespaces(t *tree.Tree) error {
	for _, legacy := range legacyInternalNamespaces(t, t.Root()) {
		n := t.Node(legacy)
		parent := n.Parent
		if !t.Is(parent, tree.KindNamespace) {
			return structureError(t, legacy, "internal namespace %s not within a namespace", n.Name)
		}
		pos := n.Position
		children := t.Detach(legacy, 0, len(n.Children))
		t.Remove(legacy)
		t.Insert(parent, pos, children...)
	}
	return nil
}
