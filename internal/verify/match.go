package verify

import (
	"regexp"
	"strings"
)

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9\s]`)

// matchName fuzzily matches a candidate name against fetched page text.
// Exact substring containment wins outright; otherwise the significant name
// tokens are checked individually, with a similarity-ratio fallback that
// also tries the reversed token order (certificates sometimes print
// "Doe John").
func matchName(name, text string, threshold float64) (bool, float64) {
	if name == "" || text == "" {
		return false, 0
	}

	nameClean := cleanName(name)
	textClean := cleanName(text)

	if strings.Contains(textClean, nameClean) {
		return true, 1.0
	}

	var parts []string
	for _, p := range strings.Fields(nameClean) {
		if len(p) > 2 {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		r := similarity(nameClean, textClean)
		return r >= 0.9, r
	}

	found := 0
	for _, p := range parts {
		if strings.Contains(textClean, p) {
			found++
		}
	}
	if found == len(parts) {
		return true, 0.95
	}
	if float64(found) >= float64(len(parts))/2 {
		score := 0.7 + 0.2*float64(found)/float64(len(parts))
		return score >= threshold, score
	}

	reversed := make([]string, len(parts))
	for i, p := range parts {
		reversed[len(parts)-1-i] = p
	}
	r := similarity(nameClean, textClean)
	if rr := similarity(strings.Join(reversed, " "), textClean); rr > r {
		r = rr
	}
	return r >= threshold, r
}

func cleanName(s string) string {
	s = nonAlnumRe.ReplaceAllString(strings.ToLower(s), "")
	return strings.Join(strings.Fields(s), " ")
}

// similarity is a ratio in [0,1] based on the longest common subsequence:
// 2*lcs / (len(a)+len(b)). Inputs longer than similarityCap bytes are
// truncated to bound the quadratic DP.
const similarityCap = 512

func similarity(a, b string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > similarityCap {
		a = a[:similarityCap]
	}
	if len(b) > similarityCap {
		b = b[:similarityCap]
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	lcs := prev[len(b)]
	return 2 * float64(lcs) / float64(len(a)+len(b))
}
