// Package parser builds the structural tree of a source file from its lines.
package parser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dejo1307/renamespacer/internal/classify"
	"github.com/dejo1307/renamespacer/internal/naming"
	"github.com/dejo1307/renamespacer/internal/tree"
)

var (
	// ErrMismatchedNamespace is returned when a closing comment names a
	// different namespace than the one being closed.
	ErrMismatchedNamespace = errors.New("mismatched namespace close")
	// ErrUnexpectedClose is returned when a namespace is closed while none is open.
	ErrUnexpectedClose = errors.New("namespace close outside of any namespace")
	// ErrUnclosedNamespace is returned when the input ends inside a namespace.
	ErrUnclosedNamespace = errors.New("unclosed namespace")
)

// ParseFile parses the file at path.
func ParseFile(path string) (*tree.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads r line by line and returns the tree of the file at path. Each
// line becomes one node holding its verbatim text, so rendering an untouched
// tree reproduces the input. The line ending of the first line is used for
// the whole file.
func Parse(r io.Reader, path string) (*tree.Tree, error) {
	t := tree.New(path, naming.FileNamespace(path))
	ownHeader := naming.OwnHeader(path)
	current := t.Root()

	var lines lineSplitter
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(lines.split)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		switch classify.Classify(line, ownHeader) {
		case classify.Include:
			t.Append(current, tree.NewInclude(line, classify.IncludedPath(line)).FromSource(line, lineNum))
		case classify.OpeningNamespace:
			current = t.Append(current, tree.NewNamespace(classify.OpeningNamespaceName(line)).FromSource(line, lineNum))
		case classify.ClosingNamespace:
			name := classify.ClosingNamespaceName(line)
			ns := t.Node(current)
			if ns.Kind != tree.KindNamespace {
				return nil, fmt.Errorf("%s:%d: %w: %q", path, lineNum, ErrUnexpectedClose, name)
			}
			if ns.Name != name {
				return nil, fmt.Errorf("%s:%d: %w: closing %q but %q (line %d) is open",
					path, lineNum, ErrMismatchedNamespace, name, ns.Name, ns.Line)
			}
			ns.ClosingText = line
			current = ns.Parent
		case classify.Class:
			t.Append(current, declaration(tree.KindClass, classify.ClassName(line), line, lineNum))
		case classify.Constant:
			t.Append(current, declaration(tree.KindConstant, classify.ConstantName(line), line, lineNum))
		case classify.Function:
			t.Append(current, declaration(tree.KindFunction, classify.FunctionName(line), line, lineNum))
		case classify.Struct:
			t.Append(current, declaration(tree.KindStruct, classify.StructName(line), line, lineNum))
		case classify.TypeAlias:
			t.Append(current, declaration(tree.KindTypeAlias, classify.TypeAliasName(line), line, lineNum))
		case classify.UsingDirective:
			t.Append(current, tree.NewUsingDirective(classify.UsingDirectiveNamespace(line)).FromSource(line, lineNum))
		case classify.UsingDeclaration:
			t.Append(current, tree.NewUsingDeclaration(classify.UsingDeclarationName(line)).FromSource(line, lineNum))
		default:
			t.Append(current, tree.NewText(line).FromSource(line, lineNum))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	t.CRLF = lines.crlf
	t.Unterminated = lines.unterminated
	if current != t.Root() {
		ns := t.Node(current)
		return nil, fmt.Errorf("%s:%d: %w: %q", path, ns.Line, ErrUnclosedNamespace, ns.Name)
	}
	return t, nil
}

func declaration(kind tree.Kind, name, line string, lineNum int) tree.Node {
	return tree.NewDeclaration(kind, name).FromSource(line, lineNum)
}

// lineSplitter is a bufio.SplitFunc source that strips the line endings of a
// file and remembers what they were.
type lineSplitter struct {
	started      bool
	crlf         bool
	unterminated bool
}

func (s *lineSplitter) split(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		if !atEOF {
			return 0, nil, nil
		}
		// Last line without an ending, kept verbatim.
		s.unterminated = true
		return len(data), data, nil
	}
	line := data[:i]
	if !s.started {
		s.started = true
		s.crlf = bytes.HasSuffix(line, []byte{'\r'})
	}
	if s.crlf {
		line = bytes.TrimSuffix(line, []byte{'\r'})
	}
	return i + 1, line, nil
}
