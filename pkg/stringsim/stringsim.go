// Package stringsim implements the fuzzy string similarity measures used by
// the stream↔event matcher: Jaro-Winkler (adapted directly from this
// codebase's channel-to-league matcher) and a normalized Levenshtein ratio.
package stringsim

import "math"

// JaroWinkler returns the Jaro-Winkler similarity between two strings,
// in [0, 1].
func JaroWinkler(s1, s2 string) float64 {
	jaro := Jaro(s1, s2)

	prefix := 0
	maxPrefix := 4
	if len(s1) < maxPrefix {
		maxPrefix = len(s1)
	}
	if len(s2) < maxPrefix {
		maxPrefix = len(s2)
	}
	for i := 0; i < maxPrefix; i++ {
		if s1[i] == s2[i] {
			prefix++
		} else {
			break
		}
	}
	const p = 0.1 // standard Winkler prefix scale
	return jaro + float64(prefix)*p*(1-jaro)
}

// Jaro returns the Jaro similarity between two strings, in [0, 1].
func Jaro(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}
	if len(s1) == 0 || len(s2) == 0 {
		return 0.0
	}

	matchDist := int(math.Max(float64(len(s1)), float64(len(s2)))/2.0) - 1
	if matchDist < 0 {
		matchDist = 0
	}

	s1Matched := make([]bool, len(s1))
	s2Matched := make([]bool, len(s2))

	matches := 0
	transpositions := 0

	for i := 0; i < len(s1); i++ {
		start := i - matchDist
		if start < 0 {
			start = 0
		}
		end := i + matchDist + 1
		if end > len(s2) {
			end = len(s2)
		}
		for j := start; j < end; j++ {
			if s2Matched[j] || s1[i] != s2[j] {
				continue
			}
			s1Matched[i] = true
			s2Matched[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	k := 0
	for i := 0; i < len(s1); i++ {
		if !s1Matched[i] {
			continue
		}
		for k < len(s2) && !s2Matched[k] {
			k++
		}
		if k < len(s2) && s1[i] != s2[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	return (m/float64(len(s1)) + m/float64(len(s2)) + (m-float64(transpositions)/2)/m) / 3.0
}

// Levenshtein returns the edit distance between two strings.
func Levenshtein(s1, s2 string) int {
	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// LevenshteinRatio returns a normalized similarity in [0, 100] derived from
// edit distance: 100 * (1 - distance/maxLen).
func LevenshteinRatio(s1, s2 string) float64 {
	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	if maxLen == 0 {
		return 100
	}
	dist := Levenshtein(s1, s2)
	return 100 * (1 - float64(dist)/float64(maxLen))
}
