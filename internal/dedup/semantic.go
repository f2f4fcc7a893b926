package dedup

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"quizfeed/internal/core"
)

// FingerprintIndex is the slice of the content repository the exact filter
// needs: membership checks against already-persisted fingerprints.
type FingerprintIndex interface {
	ExistsFingerprint(ctx context.Context, fingerprint string) (bool, error)
}

// Thresholds names the tunable knobs of the duplicate filters, consolidated
// here so every caller applies the same heuristics.
type Thresholds struct {
	MinSharedKeywords int // Keyword overlap that flags a pair outright
	AuditWordDiff     int // Max word-set symmetric difference in the corpus audit
}

// DefaultThresholds returns the standard filter settings.
func DefaultThresholds() Thresholds {
	return Thresholds{MinSharedKeywords: 3, AuditWordDiff: 3}
}

// Engine filters freshly generated candidates before persistence: an exact
// fingerprint check against the repository index, then an in-batch semantic
// near-duplicate pass.
type Engine struct {
	index      FingerprintIndex
	thresholds Thresholds
}

// NewEngine creates a dedup engine. The index may be nil, in which case only
// in-batch filtering applies.
func NewEngine(index FingerprintIndex, thresholds Thresholds) *Engine {
	if thresholds.MinSharedKeywords <= 0 {
		thresholds = DefaultThresholds()
	}
	return &Engine{index: index, thresholds: thresholds}
}

// Filter marks duplicates among candidates and returns the survivors in
// their original order. When a semantic pair is flagged, the first-seen
// candidate is kept and the later one discarded.
func (e *Engine) Filter(ctx context.Context, candidates []core.CandidateItem) ([]core.CandidateItem, error) {
	// Stage 1: exact fingerprints, against the repository and within the batch.
	seen := make(map[string]bool, len(candidates))
	for i := range candidates {
		fp := Fingerprint(candidates[i].Text, candidates[i].Tags)
		if seen[fp] {
			candidates[i].Duplicate = true
			continue
		}
		seen[fp] = true

		if e.index != nil {
			exists, err := e.index.ExistsFingerprint(ctx, fp)
			if err != nil {
				return nil, fmt.Errorf("fingerprint lookup failed: %w", err)
			}
			if exists {
				candidates[i].Duplicate = true
			}
		}
	}

	// Stage 2: semantic near-duplicates within the batch.
	e.markSemanticDuplicates(candidates)

	survivors := make([]core.CandidateItem, 0, len(candidates))
	for _, c := range candidates {
		if !c.Duplicate {
			survivors = append(survivors, c)
		}
	}
	return survivors, nil
}

// markSemanticDuplicates groups candidates by normalized correct answer and
// compares every pair within a group. Generic answers (true/false, yes/no,
// small digits) group too many unrelated questions and are excluded.
func (e *Engine) markSemanticDuplicates(candidates []core.CandidateItem) {
	groups := make(map[string][]int)
	for i, c := range candidates {
		if c.Duplicate {
			continue
		}
		answer := CanonicalizeText(c.CorrectAnswer())
		if answer == "" || genericAnswers[answer] {
			continue
		}
		groups[answer] = append(groups[answer], i)
	}

	for _, indices := range groups {
		for a := 0; a < len(indices); a++ {
			if candidates[indices[a]].Duplicate {
				continue
			}
			kwA := Keywords(candidates[indices[a]].Text)
			for b := a + 1; b < len(indices); b++ {
				if candidates[indices[b]].Duplicate {
					continue
				}
				kwB := Keywords(candidates[indices[b]].Text)
				if e.isNearDuplicate(candidates[indices[a]].Text, candidates[indices[b]].Text, kwA, kwB) {
					candidates[indices[b]].Duplicate = true
				}
			}
		}
	}
}

// isNearDuplicate applies the pair heuristics: enough shared keywords, or a
// shared question-pattern family with at least one shared keyword.
func (e *Engine) isNearDuplicate(textA, textB string, kwA, kwB map[string]bool) bool {
	shared := 0
	for kw := range kwA {
		if kwB[kw] {
			shared++
		}
	}

	// Threshold is min(MinSharedKeywords, smaller-set/2), floored at 1 so a
	// pair of near-empty keyword sets never auto-matches.
	smaller := len(kwA)
	if len(kwB) < smaller {
		smaller = len(kwB)
	}
	needed := smaller / 2
	if needed > e.thresholds.MinSharedKeywords {
		needed = e.thresholds.MinSharedKeywords
	}
	if needed < 1 {
		needed = 1
	}
	if shared >= needed {
		return true
	}

	if shared >= 1 && samePatternFamily(textA, textB) {
		return true
	}
	return false
}

// Question pattern families. Two questions in the same family asking about
// the same answer are near-certain duplicates even with low keyword overlap.
var patternFamilies = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(largest|smallest|biggest|longest|tallest|highest|deepest|fastest)\b`),
	regexp.MustCompile(`(?i)\b(which continent|which country|which city|where is|located in)\b`),
	regexp.MustCompile(`(?i)\b(what is|what are|define|definition of)\b`),
}

func samePatternFamily(textA, textB string) bool {
	for _, pattern := range patternFamilies {
		if pattern.MatchString(textA) && pattern.MatchString(textB) {
			return true
		}
	}
	return false
}

// Keywords extracts the comparison keyword set from question text: stopwords
// removed, tokens longer than two characters kept.
func Keywords(text string) map[string]bool {
	keywords := make(map[string]bool)
	for _, word := range strings.Fields(CanonicalizeText(text)) {
		if len(word) > 2 && !stopWords[word] {
			keywords[word] = true
		}
	}
	return keywords
}

// genericAnswers are excluded from answer grouping: they say nothing about
// what the question is actually asking.
var genericAnswers = buildGenericAnswers()

func buildGenericAnswers() map[string]bool {
	generic := map[string]bool{
		"true": true, "false": true, "yes": true, "no": true,
	}
	for i := 0; i <= 10; i++ {
		generic[fmt.Sprintf("%d", i)] = true
	}
	return generic
}

// stopWords is the fixed list stripped before keyword comparison.
var stopWords = buildStopWords()

func buildStopWords() map[string]bool {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
		"has", "he", "in", "is", "it", "its", "of", "on", "that", "the",
		"to", "was", "were", "will", "with", "this", "but", "they",
		"have", "had", "what", "which", "who", "when", "where", "how",
		"their", "if", "up", "out", "many", "then", "them", "these", "so",
		"some", "her", "would", "into", "him", "can", "does", "did", "not",
		"following", "called", "known",
	}
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
