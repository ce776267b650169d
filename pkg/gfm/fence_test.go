package gfm

import (
	"strings"
	"testing"
)

func TestLongestRun(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 0},
		{"a`b", 1},
		{"``a`", 2},
		{"a```b``c", 3},
	}
	for _, tt := range tests {
		if got := longestRun(tt.in, '`'); got != tt.want {
			t.Errorf("longestRun(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestInlineCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"plain", "foo bar", "`foo bar`", true},
		{"trimmed", "  foo  ", "`foo`", true},
		{"single backtick", "a`b", "`` a`b ``", true},
		{"double backtick", "a``b", "``` a``b ```", true},
		{"longest run wins", "`a```b", "```` `a```b ````", true},
		{"newlines folded", "a\nb", "`a b`", true},
		{"empty", "", "", false},
		{"blank", "   ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := InlineCode(tt.in)
			if ok != tt.ok {
				t.Fatalf("InlineCode(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("InlineCode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestInlineCodeStripsBack(t *testing.T) {
	inputs := []string{"x", "a`b", "``", "a ``` b", "`lead", "trail`"}
	for _, in := range inputs {
		got, ok := InlineCode(in)
		if !ok {
			t.Fatalf("InlineCode(%q) declined", in)
		}

		n := longestRun(in, '`') + 1
		fence := strings.Repeat("`", n)
		if !strings.HasPrefix(got, fence) || !strings.HasSuffix(got, fence) {
			t.Fatalf("InlineCode(%q) = %q, want fence %q", in, got, fence)
		}
		inner := got[len(fence) : len(got)-len(fence)]
		if n > 1 {
			if !strings.HasPrefix(inner, " ") || !strings.HasSuffix(inner, " ") {
				t.Fatalf("InlineCode(%q) = %q, want one space of padding", in, got)
			}
			inner = inner[1 : len(inner)-1]
		}
		if inner != in {
			t.Errorf("stripped %q, want %q", inner, in)
		}
	}
}

func TestCodeBlockFence(t *testing.T) {
	tests := []struct {
		code  string
		fence string
	}{
		{"x := 1\n", "```"},
		{"a ` b", "```"},
		{"```", "````"},
		{"`````", "``````"},
	}
	for _, tt := range tests {
		got := CodeBlock(tt.code, "")
		if !strings.HasPrefix(got, tt.fence+"\n") || !strings.HasSuffix(got, "\n"+tt.fence) {
			t.Errorf("CodeBlock(%q) = %q, want fence %q", tt.code, got, tt.fence)
		}
	}
}
