// Package paste decides what a paste inserts and performs the insertion.
package paste

import (
	"strings"
	"unicode/utf8"
)

// Choice is the representation a paste inserts.
type Choice int

const (
	// Default means the paste is not intercepted.
	Default Choice = iota
	Plain
	Markup
)

func (c Choice) String() string {
	switch c {
	case Plain:
		return "plain"
	case Markup:
		return "markup"
	default:
		return "default"
	}
}

// InsideCode reports whether textBefore leaves the caret inside a code span
// or block, judged by an odd number of backticks. Closed spans and blocks
// contribute an even count. Code that itself holds an odd number of
// backticks is misjudged.
func InsideCode(textBefore string) bool {
	return strings.Count(textBefore, "`")%2 == 1
}

// Classify picks the representation to insert. Without markup the paste is
// left to the default behavior.
func Classify(textBefore, markup string) Choice {
	if markup == "" {
		return Default
	}
	if InsideCode(textBefore) {
		return Plain
	}
	return Markup
}

// Resolve returns the text to insert and whether the paste is intercepted.
func Resolve(textBefore, plain, markup string) (string, bool) {
	switch Classify(textBefore, markup) {
	case Plain:
		return plain, true
	case Markup:
		return markup, true
	default:
		return "", false
	}
}

// Editable is a destination region that replaces its selection in one
// step. The callback receives the text before and after the selection and
// returns the replacement.
type Editable interface {
	InsertText(func(before, after string) string)
}

// TextArea is an in-memory Editable. Offsets are in runes.
type TextArea struct {
	text       []rune
	start, end int
}

func NewTextArea(text string) *TextArea {
	r := []rune(text)
	return &TextArea{text: r, start: len(r), end: len(r)}
}

// SetCaret collapses the selection at pos, clamped to the text.
func (t *TextArea) SetCaret(pos int) {
	t.Select(pos, pos)
}

// Select selects [start, end), clamped and ordered.
func (t *TextArea) Select(start, end int) {
	start, end = t.clamp(start), t.clamp(end)
	if start > end {
		start, end = end, start
	}
	t.start, t.end = start, end
}

func (t *TextArea) clamp(pos int) int {
	if pos < 0 {
		return 0
	}
	if pos > len(t.text) {
		return len(t.text)
	}
	return pos
}

// Caret returns the selection bounds.
func (t *TextArea) Caret() (start, end int) {
	return t.start, t.end
}

func (t *TextArea) String() string {
	return string(t.text)
}

// InsertText replaces the selection with the text returned by fn and places
// the caret after it.
func (t *TextArea) InsertText(fn func(before, after string) string) {
	before := string(t.text[:t.start])
	after := string(t.text[t.end:])
	insert := fn(before, after)

	out := make([]rune, 0, len(t.text)-(t.end-t.start)+utf8.RuneCountInString(insert))
	out = append(out, t.text[:t.start]...)
	out = append(out, []rune(insert)...)
	out = append(out, t.text[t.end:]...)

	caret := t.start + utf8.RuneCountInString(insert)
	t.text = out
	t.start, t.end = caret, caret
}

// Into resolves a paste against e. It reports false, leaving e untouched,
// when the paste is not intercepted.
func Into(e Editable, plain, markup string) bool {
	if markup == "" || e == nil {
		return false
	}
	e.InsertText(func(before, _ string) string {
		text, _ := Resolve(before, plain, markup)
		return text
	})
	return true
}
