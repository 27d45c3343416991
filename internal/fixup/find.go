// Package fixup holds the structural rewrite passes applied to parsed files.
//
// Every pass mutates a tree in place. Passes only fail on structural
// integrity violations, which mean that the line-based model does not match
// the input and that rewriting further would be unsound.
package fixup

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dejo1307/renamespacer/internal/tree"
)

// ErrStructure reports a structural integrity violation.
var ErrStructure = errors.New("structural integrity violation")

const legacyInternalPrefix = "internal_"

func structureError(t *tree.Tree, id tree.NodeID, format string, args ...any) error {
	line := 0
	if id != tree.NoNode {
		line = t.Node(id).Line
	}
	return fmt.Errorf("%s:%d: %w: %s", t.Path, line, ErrStructure, fmt.Sprintf(format, args...))
}

// innermostNamespaces returns, in document order, the namespaces below id
// that have no nested namespace.
func innermostNamespaces(t *tree.Tree, id tree.NodeID) []tree.NodeID {
	var result []tree.NodeID
	for _, ns := range t.ChildrenOfKind(id, tree.KindNamespace) {
		nested := innermostNamespaces(t, ns)
		if len(nested) == 0 {
			result = append(result, ns)
		} else {
			result = append(result, nested...)
		}
	}
	return result
}

// legacyInternalNamespaces returns the namespaces named internal_* below id.
// It does not look inside them.
func legacyInternalNamespaces(t *tree.Tree, id tree.NodeID) []tree.NodeID {
	var result []tree.NodeID
	for _, ns := range t.ChildrenOfKind(id, tree.KindNamespace) {
		if strings.HasPrefix(t.Node(ns).Name, legacyInternalPrefix) {
			result = append(result, ns)
		} else {
			result = append(result, legacyInternalNamespaces(t, ns)...)
		}
	}
	return result
}

// usingDeclarations returns the using-declarations that are direct children
// of namespaces below id, in document order. With internalOnly, only those
// of internal namespaces.
func usingDeclarations(t *tree.Tree, id tree.NodeID, internalOnly bool) []tree.NodeID {
	var result []tree.NodeID
	for _, ns := range t.ChildrenOfKind(id, tree.KindNamespace) {
		if t.Node(ns).Internal || !internalOnly {
			result = append(result, t.ChildrenOfKind(ns, tree.KindUsingDeclaration)...)
		}
		result = append(result, usingDeclarations(t, ns, internalOnly)...)
	}
	return result
}

// insertUsingDirective adds "using namespace target;" to ns unless it is
// already there. Directives are kept in ordinal order: the new one goes
// before the first directive that sorts after it, else after the last
// directive, else before anchor when ns has no directive yet.
func insertUsingDirective(t *tree.Tree, ns tree.NodeID, target string, anchor tree.NodeID) error {
	if !t.Is(ns, tree.KindNamespace) {
		return structureError(t, ns, "using directive for %s not within a namespace", target)
	}
	directives := t.ChildrenOfKind(ns, tree.KindUsingDirective)
	for _, d := range directives {
		if t.Node(d).Namespace == target {
			return nil
		}
	}

	at := -1
	for _, d := range directives {
		if target < t.Node(d).Namespace {
			at = t.Node(d).Position
			break
		}
	}
	if at < 0 {
		switch {
		case len(directives) > 0:
			at = t.Node(directives[len(directives)-1]).Position + 1
		case anchor != tree.NoNode && t.Node(anchor).Parent == ns:
			at = t.Node(anchor).Position
		default:
			return structureError(t, ns, "insertion point for %s not found in namespace %s", target, t.Node(ns).Name)
		}
	}
	t.InsertNode(ns, at, tree.NewUsingDirective(target))
	return nil
}
