package tree

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrCorrupt is returned by Check when the parent/child bookkeeping is
// inconsistent.
var ErrCorrupt = errors.New("corrupt tree")

// Tree is the structure of one source file. Nodes live in an arena and refer
// to each other by NodeID; the root is always the File node with ID 0.
type Tree struct {
	Path          string
	FileNamespace string

	// CRLF is set when the lines of the file end with "\r\n".
	CRLF bool
	// Unterminated is set when the last line of the file has no line ending.
	Unterminated bool

	nodes []*Node
}

// New creates a tree containing only the File root.
func New(path, fileNamespace string) *Tree {
	t := &Tree{Path: path, FileNamespace: fileNamespace}
	t.nodes = append(t.nodes, &Node{Kind: KindFile, Parent: NoNode, DeclaredIn: NoNode})
	return t
}

// Newline returns the line ending of the file.
func (t *Tree) Newline() string {
	if t.CRLF {
		return "\r\n"
	}
	return "\n"
}

// Root returns the ID of the File node.
func (t *Tree) Root() NodeID {
	return 0
}

// Node returns the node with the given ID. The pointer stays valid for the
// lifetime of the tree.
func (t *Tree) Node(id NodeID) *Node {
	return t.nodes[id]
}

// Len returns the number of nodes in the arena, detached ones included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Children returns a copy of the child list of id.
func (t *Tree) Children(id NodeID) []NodeID {
	return append([]NodeID(nil), t.nodes[id].Children...)
}

// ChildrenOfKind returns the children of id that have the given kind, in order.
func (t *Tree) ChildrenOfKind(id NodeID, kind Kind) []NodeID {
	var result []NodeID
	for _, c := range t.nodes[id].Children {
		if t.nodes[c].Kind == kind {
			result = append(result, c)
		}
	}
	return result
}

// Is reports whether id is attached as a node of the given kind.
func (t *Tree) Is(id NodeID, kind Kind) bool {
	return id != NoNode && t.nodes[id].Kind == kind
}

// NewText returns a detached text node.
func NewText(text string) Node {
	return Node{Kind: KindText, text: text, hasText: true}
}

// NewInclude returns a detached include node.
func NewInclude(text string, path []string) Node {
	return Node{Kind: KindInclude, text: text, hasText: true, Path: path}
}

// NewDeclaration returns a detached, synthesized declaration of the given kind.
func NewDeclaration(kind Kind, name string) Node {
	return Node{Kind: kind, Name: name}
}

// NewNamespace returns a detached, synthesized namespace.
func NewNamespace(name string) Node {
	return Node{Kind: KindNamespace, Name: name}
}

// NewUsingDirective returns a detached, synthesized using-directive.
func NewUsingDirective(ns string) Node {
	return Node{Kind: KindUsingDirective, Namespace: ns}
}

// NewUsingDeclaration returns a detached, synthesized using-declaration for
// a qualified name.
func NewUsingDeclaration(fullName string) Node {
	segments := strings.Split(fullName, "::")
	return Node{
		Kind:     KindUsingDeclaration,
		Name:     segments[len(segments)-1],
		FullName: fullName,
	}
}

// FromSource attaches the raw text and source line to n.
func (n Node) FromSource(text string, line int) Node {
	n.text = text
	n.hasText = true
	n.Line = line
	return n
}

// Append attaches n as the last child of parent and returns its ID.
func (t *Tree) Append(parent NodeID, n Node) NodeID {
	return t.InsertNode(parent, len(t.nodes[parent].Children), n)
}

// InsertNode attaches n as the child of parent at index at.
func (t *Tree) InsertNode(parent NodeID, at int, n Node) NodeID {
	node := n
	node.Children = nil
	node.Parent = NoNode
	node.DeclaredIn = NoNode
	p := t.nodes[parent]
	switch node.Kind {
	case KindNamespace:
		if p.Kind == KindNamespace && p.Internal {
			node.Internal = true
		} else {
			node.Internal = strings.HasPrefix(node.Name, "internal")
		}
	case KindUsingDeclaration:
		node.DeclaredIn = t.findDeclaringNamespace(parent, node.FullName)
	}
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, &node)
	t.Insert(parent, at, id)
	return id
}

// findDeclaringNamespace looks for a sibling namespace that the two-segment
// name a::b refers to.
func (t *Tree) findDeclaringNamespace(parent NodeID, fullName string) NodeID {
	segments := strings.Split(fullName, "::")
	if len(segments) != 2 || t.nodes[parent].Kind != KindNamespace {
		return NoNode
	}
	for _, c := range t.nodes[parent].Children {
		sibling := t.nodes[c]
		if sibling.Kind == KindNamespace && sibling.Name == segments[0] {
			return c
		}
	}
	return NoNode
}

// Insert attaches the detached nodes ids as children of parent, starting at
// index at, preserving their order.
func (t *Tree) Insert(parent NodeID, at int, ids ...NodeID) {
	p := t.nodes[parent]
	if at < 0 || at > len(p.Children) {
		panic(fmt.Sprintf("tree: insertion index %d out of range [0, %d]", at, len(p.Children)))
	}
	for _, id := range ids {
		if t.nodes[id].Parent != NoNode || id == t.Root() {
			panic(fmt.Sprintf("tree: node %d is already attached", id))
		}
		t.nodes[id].Parent = parent
	}
	children := make([]NodeID, 0, len(p.Children)+len(ids))
	children = append(children, p.Children[:at]...)
	children = append(children, ids...)
	children = append(children, p.Children[at:]...)
	p.Children = children
	t.renumber(parent, at)
}

// Detach removes the children of parent in [from, to) and returns them.
// The returned nodes keep their own subtrees.
func (t *Tree) Detach(parent NodeID, from, to int) []NodeID {
	p := t.nodes[parent]
	if from < 0 || to > len(p.Children) || from > to {
		panic(fmt.Sprintf("tree: detach range [%d, %d) out of range [0, %d]", from, to, len(p.Children)))
	}
	detached := append([]NodeID(nil), p.Children[from:to]...)
	p.Children = append(p.Children[:from:from], p.Children[to:]...)
	for _, id := range detached {
		n := t.nodes[id]
		n.Parent = NoNode
		n.Position = -1
	}
	t.renumber(parent, from)
	return detached
}

// Remove detaches a single node from its parent.
func (t *Tree) Remove(id NodeID) {
	n := t.nodes[id]
	if n.Parent == NoNode {
		return
	}
	t.Detach(n.Parent, n.Position, n.Position+1)
}

func (t *Tree) renumber(parent NodeID, from int) {
	p := t.nodes[parent]
	for i := from; i < len(p.Children); i++ {
		t.nodes[p.Children[i]].Position = i
	}
}

// Rename changes the name of a declaration. The node loses its raw text and
// will be regenerated on output.
func (t *Tree) Rename(id NodeID, name string) {
	n := t.nodes[id]
	n.Name = name
	n.text = ""
	n.hasText = false
}

// MustRewrite reports whether id has to be regenerated from its fields
// instead of echoed verbatim.
func (t *Tree) MustRewrite(id NodeID) bool {
	n := t.nodes[id]
	if !n.hasText {
		return true
	}
	if n.Kind == KindUsingDeclaration && n.DeclaredIn != NoNode {
		return t.MustRewrite(n.DeclaredIn)
	}
	return false
}

// Check verifies the structural invariants: every reachable node is
// reachable once, its parent link and position match its place in the
// parent's child list, and unreachable nodes are fully detached.
func (t *Tree) Check() error {
	if t.nodes[0].Parent != NoNode {
		return fmt.Errorf("%w: root has a parent", ErrCorrupt)
	}
	seen := make([]bool, len(t.nodes))
	seen[0] = true
	var visit func(id NodeID) error
	visit = func(id NodeID) error {
		for i, c := range t.nodes[id].Children {
			if c < 0 || int(c) >= len(t.nodes) {
				return fmt.Errorf("%w: node %d has dangling child %d", ErrCorrupt, id, c)
			}
			if seen[c] {
				return fmt.Errorf("%w: node %d is reachable twice", ErrCorrupt, c)
			}
			seen[c] = true
			child := t.nodes[c]
			if child.Parent != id {
				return fmt.Errorf("%w: node %d is a child of %d but points at %d", ErrCorrupt, c, id, child.Parent)
			}
			if child.Position != i {
				return fmt.Errorf("%w: node %d is at index %d but records position %d", ErrCorrupt, c, i, child.Position)
			}
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(0); err != nil {
		return err
	}
	for id, n := range t.nodes {
		if !seen[id] && n.Parent != NoNode {
			return fmt.Errorf("%w: detached node %d still points at parent %d", ErrCorrupt, id, n.Parent)
		}
	}
	return nil
}

// Dump writes an indented listing of the tree's structure.
func (t *Tree) Dump(w io.Writer) error {
	var dump func(id NodeID, indent string) error
	dump = func(id NodeID, indent string) error {
		n := t.nodes[id]
		label := n.String()
		if n.Kind == KindFile {
			label += " " + t.Path
		}
		if _, err := fmt.Fprintln(w, indent+label); err != nil {
			return err
		}
		for _, c := range n.Children {
			if err := dump(c, indent+"  "); err != nil {
				return err
			}
		}
		return nil
	}
	return dump(t.Root(), "")
}
