package presentation

import (
	"fmt"
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineType classifies a diff line.
type LineType int

const (
	LineContext LineType = iota
	LineAddition
	LineDeletion
)

// DiffLine is one line of a line-level diff.
type DiffLine struct {
	Type LineType
	Text string
}

// DiffLines computes a line diff between two texts. Lines keep no trailing
// newline.
func DiffLines(oldText, newText string) []DiffLine {
	dmp := diffmatchpatch.New()

	// Diff whole lines, not characters
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	var out []DiffLine
	for _, d := range diffs {
		typ := LineContext
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			typ = LineAddition
		case diffmatchpatch.DiffDelete:
			typ = LineDeletion
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out = append(out, DiffLine{Type: typ, Text: strings.TrimSuffix(line, "\n")})
		}
	}
	return out
}

// HasChanges reports whether any line was added or deleted.
func HasChanges(lines []DiffLine) bool {
	for _, l := range lines {
		if l.Type != LineContext {
			return true
		}
	}
	return false
}

// RenderDiff writes the changed lines with `context` unchanged lines around
// each change, in unified-diff style.
func (f *Formatter) RenderDiff(lines []DiffLine, context int) error {
	keep := make([]bool, len(lines))
	for i, l := range lines {
		if l.Type == LineContext {
			continue
		}
		for j := max(0, i-context); j <= min(len(lines)-1, i+context); j++ {
			keep[j] = true
		}
	}

	var b strings.Builder
	skipped := false
	for i, l := range lines {
		if !keep[i] {
			skipped = true
			continue
		}
		if skipped {
			b.WriteString(mutedStyle.Render("..."))
			b.WriteString("\n")
			skipped = false
		}
		switch l.Type {
		case LineAddition:
			b.WriteString(addedStyle.Render("+ " + l.Text))
		case LineDeletion:
			b.WriteString(deletedStyle.Render("- " + l.Text))
		default:
			fmt.Fprintf(&b, "  %s", l.Text)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(f.writer, b.String())
	return err
}
