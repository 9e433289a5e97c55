package textutil

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// hashtagRegex matches hashtags with alphanumeric characters, underscores, and hyphens
var hashtagRegex = regexp.MustCompile(`#([\w-]+)`)

// Tags returns the unique lowercased hashtags in a club or activity description, sorted.
func Tags(text string) []string {
	seen := make(map[string]bool)
	for _, match := range hashtagRegex.FindAllStringSubmatch(text, -1) {
		seen[strings.ToLower(match[1])] = true
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	r := []rune(s)
	return strings.TrimRight(string(r[:n-1]), " ") + "…"
}

// Initials returns up to two uppercase initials of a display name.
func Initials(name string) string {
	var out []rune
	for _, f := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(f)
		out = append(out, []rune(strings.ToUpper(string(r)))...)
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}
