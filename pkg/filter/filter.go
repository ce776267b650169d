// Package filter matches names against user patterns and suggests close
// matches for mistyped names.
package filter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

type FilterMode int

const (
	FilterModeNone FilterMode = iota
	FilterModeExact
	FilterModeContains
	FilterModeRegex
	FilterModeFuzzy
)

// ParseMode maps a flag value to a FilterMode.
func ParseMode(s string) (FilterMode, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return FilterModeNone, nil
	case "exact":
		return FilterModeExact, nil
	case "contains":
		return FilterModeContains, nil
	case "regex":
		return FilterModeRegex, nil
	case "fuzzy":
		return FilterModeFuzzy, nil
	default:
		return FilterModeNone, fmt.Errorf("unknown filter mode %q", s)
	}
}

type StringFilter struct {
	Pattern string
	Mode    FilterMode
	regex   *regexp.Regexp
}

func NewStringFilter(pattern string, mode FilterMode) (*StringFilter, error) {
	f := &StringFilter{
		Pattern: pattern,
		Mode:    mode,
	}

	if mode == FilterModeRegex {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern '%s': %w", pattern, err)
		}
		f.regex = re
	}

	return f, nil
}

func (f *StringFilter) Match(s string) bool {
	switch f.Mode {
	case FilterModeExact:
		return strings.EqualFold(s, f.Pattern)
	case FilterModeContains:
		return strings.Contains(strings.ToLower(s), strings.ToLower(f.Pattern))
	case FilterModeRegex:
		return f.regex != nil && f.regex.MatchString(s)
	case FilterModeFuzzy:
		return FuzzyMatch(f.Pattern, s)
	default:
		return true
	}
}

// Apply returns the items of list that match, in order.
func (f *StringFilter) Apply(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if f.Match(s) {
			out = append(out, s)
		}
	}
	return out
}

// FuzzyMatch reports whether the runes of pattern appear in text in order,
// ignoring case.
func FuzzyMatch(pattern, text string) bool {
	if pattern == "" {
		return true
	}
	p := []rune(strings.ToLower(pattern))
	i := 0
	for _, r := range strings.ToLower(text) {
		if r == p[i] {
			i++
			if i == len(p) {
				return true
			}
		}
	}
	return false
}

// Similarity is 1 for equal strings and falls towards 0 with edit distance.
func Similarity(a, b string) float64 {
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(LevenshteinDistance(a, b))/float64(maxLen)
}

// LevenshteinDistance is the case-insensitive edit distance between s1 and
// s2, counted in runes.
func LevenshteinDistance(s1, s2 string) int {
	a, b := []rune(s1), []rune(s2)
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	previousRow := make([]int, len(b)+1)
	currentRow := make([]int, len(b)+1)
	for i := range previousRow {
		previousRow[i] = i
	}

	for i := range a {
		currentRow[0] = i + 1
		for j := range b {
			cost := 1
			if unicode.ToLower(a[i]) == unicode.ToLower(b[j]) {
				cost = 0
			}
			currentRow[j+1] = min(currentRow[j]+1, previousRow[j+1]+1, previousRow[j]+cost)
		}
		previousRow, currentRow = currentRow, previousRow
	}

	return previousRow[len(b)]
}

// Suggest returns up to limit candidates that look like name: fuzzy
// matches and candidates at least 50% similar, best first.
func Suggest(name string, candidates []string, limit int) []string {
	type scored struct {
		name  string
		score float64
	}
	var found []scored
	for _, c := range candidates {
		score := Similarity(name, c)
		if score < 0.5 && !FuzzyMatch(name, c) {
			continue
		}
		found = append(found, scored{c, score})
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].score > found[j].score
	})

	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	out := make([]string, 0, len(found))
	for _, s := range found {
		out = append(out, s.name)
	}
	return out
}
