package gfm

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/marker"
)

// longestRun returns the length of the longest run of ch in s.
func longestRun(s string, ch rune) int {
	longest, current := 0, 0
	for _, r := range s {
		if r != ch {
			current = 0
			continue
		}
		current++
		if current > longest {
			longest = current
		}
	}
	return longest
}

// InlineCode wraps text in a backtick fence one longer than the longest
// backtick run inside it. Fences longer than one get a single space of
// padding on each side. The text is trimmed first; empty text yields false.
func InlineCode(text string) (string, bool) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if text == "" {
		return "", false
	}

	n := longestRun(text, '`') + 1
	fence := strings.Repeat("`", n)
	pad := ""
	if n > 1 {
		pad = " "
	}
	return fence + pad + text + pad + fence, true
}

// CodeBlock renders a fenced code block. The fence is at least three
// backticks and always longer than any backtick run in code. A single
// trailing newline is dropped.
func CodeBlock(code, lang string) string {
	code = strings.TrimSuffix(code, "\n")

	n := longestRun(code, '`') + 1
	if n < 3 {
		n = 3
	}
	fence := strings.Repeat("`", n)

	// Newlines inside the block would otherwise be collapsed by the
	// converter's post-processing.
	code = strings.ReplaceAll(code, "\n", string(marker.MarkerCodeBlockNewline))

	var b strings.Builder
	b.WriteString(fence)
	b.WriteString(lang)
	b.WriteByte('\n')
	b.WriteString(code)
	b.WriteByte('\n')
	b.WriteString(fence)
	return b.String()
}
