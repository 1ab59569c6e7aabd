package check

import "regexp"

// spaceRe matches runs of ascii whitespace, vertical tab, unicode space separators
// (non-breaking space included), line/paragraph separators and the BOM.
var spaceRe = regexp.MustCompile(`[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]+`)

// Normalize replaces every whitespace run in s with a single ordinary space.
// innerText of rendered headings carries non-breaking spaces and varying space counts.
// the result is not trimmed.
func Normalize(s string) string {
	return spaceRe.ReplaceAllString(s, " ")
}

// NormalizeAll normalizes every string of ss into a new slice.
func NormalizeAll(ss []string) []string {
	res := make([]string, len(ss))
	for i, s := range ss {
		res[i] = Normalize(s)
	}
	return res
}

// Tail returns a copy of the last n elements of ss, or all of them if ss is shorter.
// never returns nil so it compares equal to an empty expectation.
func Tail(ss []string, n int) []string {
	if n <= 0 {
		return []string{}
	}
	start := max(len(ss)-n, 0)
	return append([]string{}, ss[start:]...)
}
