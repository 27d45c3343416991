// Package rewrite serializes trees back to source text.
package rewrite

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dejo1307/renamespacer/internal/tree"
)

// ErrCannotSynthesize is returned for a node that lost its text but whose
// kind has no synthesized form.
var ErrCannotSynthesize = errors.New("cannot synthesize node text")

// Render returns the text of t.
func Render(t *tree.Tree) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write emits t depth-first, one line per node, regenerating the nodes that
// must be rewritten and echoing the others verbatim. Lines end the way they
// did in the parsed file.
func Write(w io.Writer, t *tree.Tree) error {
	lw := &lineWriter{w: bufio.NewWriter(w), newline: t.Newline(), unterminated: t.Unterminated}
	if err := writeChildren(lw, t, t.Root()); err != nil {
		return err
	}
	return lw.w.Flush()
}

// lineWriter holds back each line ending until the next line is written, so
// that the last line can be left unterminated.
type lineWriter struct {
	w            *bufio.Writer
	newline      string
	unterminated bool
	pending      bool
}

func (lw *lineWriter) line(text string) {
	if lw.pending {
		lw.w.WriteString(lw.newline)
	}
	lw.w.WriteString(text)
	if lw.unterminated {
		lw.pending = true
	} else {
		lw.w.WriteString(lw.newline)
	}
}

func writeChildren(w *lineWriter, t *tree.Tree, id tree.NodeID) error {
	for _, c := range t.Children(id) {
		line, err := opening(t, c)
		if err != nil {
			return err
		}
		w.line(line)

		n := t.Node(c)
		if n.Kind != tree.KindNamespace {
			continue
		}
		if err := writeChildren(w, t, c); err != nil {
			return err
		}
		if t.MustRewrite(c) {
			w.line("}  // namespace " + n.Name)
		} else {
			w.line(n.ClosingText)
		}
	}
	return nil
}

func opening(t *tree.Tree, id tree.NodeID) (string, error) {
	n := t.Node(id)
	if !t.MustRewrite(id) {
		text, _ := n.Text()
		return text, nil
	}
	switch n.Kind {
	case tree.KindNamespace:
		return "namespace " + n.Name + " {", nil
	case tree.KindUsingDirective:
		return "using namespace " + n.Namespace + ";", nil
	case tree.KindUsingDeclaration:
		if n.DeclaredIn == tree.NoNode {
			return "using " + n.FullName + ";", nil
		}
		return "using " + t.Node(n.DeclaredIn).Name + "::" + n.Name + ";", nil
	}
	return "", fmt.Errorf("%s:%d: %w: %s", t.Path, n.Line, ErrCannotSynthesize, n)
}

// StageFile writes content next to path, at path+suffix. Unless dryRun, the
// staged file then replaces the original, so an interrupted run never leaves
// a partially written original behind. It returns the staged path, which no
// longer exists once it has replaced the original.
func StageFile(path, suffix string, content []byte, dryRun bool) (string, error) {
	staged := path + suffix
	if err := writeFile(staged, content); err != nil {
		os.Remove(staged)
		return "", err
	}
	if dryRun {
		return staged, nil
	}
	if err := os.Rename(staged, path); err != nil {
		return "", fmt.Errorf("replacing %s: %w", path, err)
	}
	return staged, nil
}

func writeFile(path string, content []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.Write(content); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
