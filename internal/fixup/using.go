package fixup

import (
	"strings"

	"github.com/dejo1307/renamespacer/internal/naming"
	"github.com/dejo1307/renamespacer/internal/tree"
)

// Resolver finds the file that defines the target of a qualified name.
type Resolver interface {
	Resolve(fullName string) (file string, ok bool)
}

// UsingDeclarations replaces each using-declaration that refers to a
// declaration of the indexed project with a using-directive for the file
// namespace of the defining file. Directives are inserted in the namespace
// of the using-declaration, sorted and deduplicated. References the resolver
// does not know are left alone.
func UsingDeclarations(t *tree.Tree, r Resolver, conv naming.Convention, internalOnly bool) error {
	for _, u := range usingDeclarations(t, t.Root(), internalOnly) {
		n := t.Node(u)
		file, ok := r.Resolve(n.FullName)
		if !ok {
			continue
		}
		parent := n.Parent
		if !t.Is(parent, tree.KindNamespace) {
			return structureError(t, u, "using declaration %s not within a namespace", n.FullName)
		}
		anchor := t.ChildrenOfKind(parent, tree.KindUsingDeclaration)[0]
		if err := insertUsingDirective(t, parent, conv.Qualified(file), anchor); err != nil {
			return err
		}
		t.Remove(u)
	}
	return nil
}

// CompatibilityNamespace makes the file namespace reachable from the project
// namespace: after the last top-level namespace it inserts a blank line and
//
//	namespace principia::quantities {
//	using namespace principia::quantities::si;
//	}  // namespace principia::quantities
//
// Nothing happens when the file has no namespace or when the last one is
// already compound.
func CompatibilityNamespace(t *tree.Tree, conv naming.Convention) error {
	namespaces := t.ChildrenOfKind(t.Root(), tree.KindNamespace)
	if len(namespaces) == 0 {
		return nil
	}
	last := namespaces[len(namespaces)-1]
	if strings.Contains(t.Node(last).Name, "::") {
		return nil
	}
	pos := t.Node(last).Position
	t.InsertNode(t.Root(), pos+1, tree.NewText(""))
	compatibility := t.InsertNode(t.Root(), pos+2, tree.NewNamespace(conv.Project(t.Path)))
	t.Append(compatibility, tree.NewUsingDirective(conv.Qualified(t.Path)))
	return nil
}

// FileUsingDirective makes sure that a test file has a using-directive for
// its own file namespace. It goes with the using-directives preceding the
// first using-declaration if there is one, otherwise into the first
// innermost namespace, after a new leading blank line if that namespace has
// no directive yet.
func FileUsingDirective(t *tree.Tree, conv naming.Convention) error {
	target := conv.Qualified(t.Path)
	if usings := usingDeclarations(t, t.Root(), false); len(usings) > 0 {
		anchor := usings[0]
		return insertUsingDirective(t, t.Node(anchor).Parent, target, anchor)
	}

	innermost := innermostNamespaces(t, t.Root())
	if len(innermost) == 0 {
		return structureError(t, tree.NoNode, "no namespace to hold using directive for %s", target)
	}
	ns := innermost[0]
	if len(t.ChildrenOfKind(ns, tree.KindUsingDirective)) > 0 {
		return insertUsingDirective(t, ns, target, tree.NoNode)
	}
	t.InsertNode(ns, 0, tree.NewText(""))
	t.InsertNode(ns, 1, tree.NewUsingDirective(target))
	return nil
}
