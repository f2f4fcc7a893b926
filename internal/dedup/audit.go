package dedup

import (
	"strings"

	"quizfeed/internal/core"
)

// AuditPair is one likely-duplicate pair found in a stored corpus.
type AuditPair struct {
	FirstID  string `json:"first_id"`  // Earlier question of the pair
	SecondID string `json:"second_id"` // Later question of the pair
	WordDiff int    `json:"word_diff"` // Size of the word-set symmetric difference
}

// WordSetDiff returns the size of the symmetric difference between the
// normalized word sets of two question texts.
func WordSetDiff(textA, textB string) int {
	setA := wordSet(textA)
	setB := wordSet(textB)

	diff := 0
	for w := range setA {
		if !setB[w] {
			diff++
		}
	}
	for w := range setB {
		if !setA[w] {
			diff++
		}
	}
	return diff
}

// AuditCorpus runs the post-hoc word-difference heuristic over stored
// questions: two questions whose normalized word sets differ by at most
// maxDiff words are reported as likely duplicates. This is an offline audit
// tool, not part of generation-time filtering.
func AuditCorpus(items []core.CandidateItem, maxDiff int) []AuditPair {
	if maxDiff <= 0 {
		maxDiff = DefaultThresholds().AuditWordDiff
	}

	var pairs []AuditPair
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			diff := WordSetDiff(items[i].Text, items[j].Text)
			if diff <= maxDiff {
				pairs = append(pairs, AuditPair{
					FirstID:  items[i].ID,
					SecondID: items[j].ID,
					WordDiff: diff,
				})
			}
		}
	}
	return pairs
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, word := range strings.Fields(CanonicalizeText(text)) {
		set[word] = true
	}
	return set
}
