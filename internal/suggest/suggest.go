// Package suggest finds near misses: similar labels for a missing
// next-action label and similar flags for a mistyped one.
package suggest

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// levenshtein calculates the edit distance between two strings
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Create matrix
	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	// Fill matrix
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(a)][len(b)]
}

// Flag returns up to three valid flags close to unknown, best first
func Flag(unknown string, validFlags []string) []string {
	unknown = strings.TrimLeft(unknown, "-")

	type scored struct {
		flag  string
		score int
	}
	var candidates []scored

	for _, valid := range validFlags {
		dist := levenshtein(unknown, strings.TrimLeft(valid, "-"))
		// Within 3 edits or half the length
		if dist <= max(3, len(unknown)/2) {
			candidates = append(candidates, scored{valid, dist})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score < candidates[j].score
	})

	var result []string
	for i := 0; i < len(candidates) && i < 3; i++ {
		result = append(result, candidates[i].flag)
	}
	return result
}

// CommonFlagAliases maps commonly attempted flags to their correct names
var CommonFlagAliases = map[string]string{
	"token":    "--api-key, -a",
	"key":      "--api-key, -a",
	"apikey":   "--api-key, -a",
	"regen":    "--regeneration, -r",
	"recur":    "--regeneration, -r",
	"interval": "--delay, -d",
	"sleep":    "--delay, -d",
	"once":     "--onetime",
	"one-time": "--onetime",
	"format":   "--dateformat",
	"hide":     "--hide-future",
	"verbose":  "--debug",
	"v":        "use: autodoist version",
	"version":  "use: autodoist version",
	"preview":  "--dry-run, or: autodoist plan",
}

// GetFlagHint returns a hint for a commonly misused flag
func GetFlagHint(flag string) string {
	flag = strings.ToLower(strings.TrimLeft(flag, "-"))
	return CommonFlagAliases[flag]
}

// labelSource adapts label names for the fuzzy library
type labelSource []string

func (s labelSource) String(i int) string { return strings.ToLower(s[i]) }
func (s labelSource) Len() int            { return len(s) }

// Label returns existing labels that look like want, best first, at most
// three. Case-insensitive equals rank first, then close edits, then fuzzy
// subsequence matches.
func Label(want string, existing []string) []string {
	norm := strings.ToLower(strings.TrimSpace(want))
	if norm == "" {
		return nil
	}

	type scored struct {
		name  string
		score int
	}
	seen := make(map[string]bool)
	var candidates []scored
	add := func(name string, score int) {
		if !seen[name] && name != want {
			seen[name] = true
			candidates = append(candidates, scored{name, score})
		}
	}

	for _, name := range existing {
		lower := strings.ToLower(name)
		if lower == norm {
			add(name, 0)
			continue
		}
		// Separators are the usual typo: next-action, nextaction, Next Action
		if strip(lower) == strip(norm) {
			add(name, 1)
			continue
		}
		if d := levenshtein(norm, lower); d <= max(2, len(norm)/4) {
			add(name, 1+d)
		}
	}

	// Abbreviations: "na" finds "next_action"
	for _, m := range fuzzy.FindFrom(norm, labelSource(existing)) {
		add(existing[m.Index], 100-min(m.Score, 99))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score < candidates[j].score
	})

	var result []string
	for i := 0; i < len(candidates) && i < 3; i++ {
		result = append(result, candidates[i].name)
	}
	return result
}

func strip(s string) string {
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
}
