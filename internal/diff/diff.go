// Package diff renders line diffs of rewritten files using the sergi/go-diff
// library.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineType represents the type of diff line
type LineType int

const (
	LineContext LineType = iota // Unchanged context line
	LineAdded                   // Added line
	LineRemoved                 // Removed line
)

// Line is a single line of a diff.
type Line struct {
	Type    LineType
	Content string
	oldLine int // lines of the old text before this one
	newLine int // lines of the new text before this one
}

// Hunk is a group of changed lines with surrounding context.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// Lines computes the line operations turning oldContent into newContent.
func Lines(oldContent, newContent string) []Line {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	a, b, lineArray := dmp.DiffLinesToChars(oldContent, newContent)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var lines []Line
	oldLine, newLine := 0, 0
	for _, d := range diffs {
		for _, content := range splitLines(d.Text) {
			l := Line{Content: content, oldLine: oldLine, newLine: newLine}
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				l.Type = LineContext
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				l.Type = LineRemoved
				oldLine++
			case diffmatchpatch.DiffInsert:
				l.Type = LineAdded
				newLine++
			}
			lines = append(lines, l)
		}
	}
	return lines
}

func splitLines(text string) []string {
	parts := strings.SplitAfter(text, "\n")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\n")
	}
	return parts
}

// Hunks groups lines into hunks, keeping contextLines unchanged lines around
// each change. Changes separated by at most 2*contextLines unchanged lines
// share a hunk.
func Hunks(lines []Line, contextLines int) []Hunk {
	var hunks []Hunk
	i := 0
	for i < len(lines) {
		if lines[i].Type == LineContext {
			i++
			continue
		}
		start := max(0, i-contextLines)
		end := i
		for j := i; j < len(lines); j++ {
			if lines[j].Type != LineContext {
				end = j
			} else if j-end > 2*contextLines {
				break
			}
		}
		end = min(len(lines), end+contextLines+1)

		h := Hunk{
			OldStart: lines[start].oldLine + 1,
			NewStart: lines[start].newLine + 1,
			Lines:    lines[start:end],
		}
		for _, l := range h.Lines {
			if l.Type != LineAdded {
				h.OldCount++
			}
			if l.Type != LineRemoved {
				h.NewCount++
			}
		}
		hunks = append(hunks, h)
		i = end
	}
	return hunks
}

// Unified renders the changes between two versions of a file in unified
// format. It returns the empty string when the contents are equal.
func Unified(oldPath, newPath, oldContent, newContent string) string {
	hunks := Hunks(Lines(oldContent, newContent), 3)
	if len(hunks) == 0 {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n", oldPath, newPath)
	for _, h := range hunks {
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
		for _, l := range h.Lines {
			switch l.Type {
			case LineAdded:
				sb.WriteString("+")
			case LineRemoved:
				sb.WriteString("-")
			default:
				sb.WriteString(" ")
			}
			sb.WriteString(l.Content)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
