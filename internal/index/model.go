package index

import (
	"github.com/dejo1307/renamespacer/internal/tree"
)

// Entry is an exported declaration and the file that defines it.
type Entry struct {
	Name      string `json:"name"`                // Declared (unqualified) name
	Kind      string `json:"kind"`                // e.g. "Class", "Function", "UsingDeclaration"
	Namespace string `json:"namespace,omitempty"` // Innermost enclosing namespace at indexing time
	File      string `json:"file"`                // Path of the defining file
	Line      int    `json:"line,omitempty"`      // Line number in file
}

// Collect returns the declarations of t that are visible outside the file:
// the declarations of every namespace that is not internal, recursively.
// Internal namespaces are not descended into. Namespaces themselves are not
// entries, and neither are declarations outside of any namespace.
func Collect(t *tree.Tree) []Entry {
	return collect(t, t.Root(), "")
}

func collect(t *tree.Tree, id tree.NodeID, enclosing string) []Entry {
	var entries []Entry
	for _, c := range t.Children(id) {
		n := t.Node(c)
		switch {
		case n.Kind == tree.KindNamespace:
			if !n.Internal {
				entries = append(entries, collect(t, c, n.Name)...)
			}
		case n.Kind.IsDeclaration() && enclosing != "":
			entries = append(entries, Entry{
				Name:      n.Name,
				Kind:      n.Kind.String(),
				Namespace: enclosing,
				File:      t.Path,
				Line:      n.Line,
			})
		}
	}
	return entries
}
