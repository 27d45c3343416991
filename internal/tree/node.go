package tree

import "strings"

// NodeID addresses a node within a Tree's arena.
type NodeID int

// NoNode is the parent of the root and of detached nodes.
const NoNode NodeID = -1

// Kind discriminates the node variants.
type Kind int

const (
	KindFile Kind = iota
	KindText
	KindInclude
	KindClass
	KindStruct
	KindFunction
	KindConstant
	KindTypeAlias
	KindNamespace
	KindUsingDeclaration
	KindUsingDirective
)

var kindNames = map[Kind]string{
	KindFile:             "File",
	KindText:             "Text",
	KindInclude:          "Include",
	KindClass:            "Class",
	KindStruct:           "Struct",
	KindFunction:         "Function",
	KindConstant:         "Constant",
	KindTypeAlias:        "TypeAlias",
	KindNamespace:        "Namespace",
	KindUsingDeclaration: "UsingDeclaration",
	KindUsingDirective:   "UsingDirective",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// IsDeclaration reports whether nodes of this kind carry a declared name.
func (k Kind) IsDeclaration() bool {
	switch k {
	case KindClass, KindStruct, KindFunction, KindConstant, KindTypeAlias,
		KindNamespace, KindUsingDeclaration:
		return true
	}
	return false
}

// Node is one element of a file's structure. Which fields are meaningful
// depends on Kind.
type Node struct {
	Kind     Kind
	Parent   NodeID
	Children []NodeID
	Position int // index in Parent's Children
	Line     int // 1-based source line, 0 when synthesized

	// Raw source text. Absent (hasText false) when the node must be
	// regenerated from its fields.
	text    string
	hasText bool

	Name string // declarations

	Internal    bool   // namespaces
	ClosingText string // namespaces, verbatim closing line

	FullName   string // using-declarations
	DeclaredIn NodeID // using-declarations, sibling namespace used for lookup

	Namespace string // using-directives

	Path []string // includes
}

// Text returns the raw source text and whether it is present.
func (n *Node) Text() (string, bool) {
	return n.text, n.hasText
}

func (n *Node) String() string {
	var sb strings.Builder
	sb.WriteString(n.Kind.String())
	switch n.Kind {
	case KindText:
		sb.WriteString(" (" + n.text + ")")
	case KindInclude:
		sb.WriteString(" " + strings.Join(n.Path, ", "))
	case KindUsingDirective:
		sb.WriteString(" " + n.Namespace)
	case KindNamespace:
		sb.WriteString(" " + n.Name)
		if n.Internal {
			sb.WriteString(" Internal")
		}
	default:
		if n.Kind.IsDeclaration() {
			sb.WriteString(" " + n.Name)
		}
	}
	return sb.String()
}
