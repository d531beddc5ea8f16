package plotter

import "sort"

// similarKeys returns up to max candidates ranked by edit distance to
// key, keeping only reasonably close matches for "did you mean"
// suggestions.
func similarKeys(key string, candidates []string, max int) []string {
	type scored struct {
		key  string
		dist int
	}
	cutoff := len(key)/2 + 1
	var matches []scored
	for _, c := range candidates {
		d := editDistance(key, c)
		if d <= cutoff {
			matches = append(matches, scored{c, d})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].dist != matches[j].dist {
			return matches[i].dist < matches[j].dist
		}
		return matches[i].key < matches[j].key
	})
	out := make([]string, 0, max)
	for _, m := range matches {
		if len(out) == max {
			break
		}
		out = append(out, m.key)
	}
	return out
}

// editDistance is the Levenshtein distance over bytes; formatoption
// keys are ASCII.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
