package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
)

var (
	nonWordPattern    = regexp.MustCompile(`[^\w\s]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// CanonicalizeText normalizes question text for comparison: lowercase, all
// non-word characters stripped, whitespace collapsed and trimmed.
func CanonicalizeText(text string) string {
	text = strings.ToLower(text)
	text = nonWordPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Fingerprint returns the deterministic dedup key for a question: a digest
// of the canonicalized text combined with the sorted tag set. Same inputs
// always produce the same output.
func Fingerprint(text string, tags []string) string {
	sorted := make([]string, len(tags))
	for i, tag := range tags {
		sorted[i] = strings.ToLower(strings.TrimSpace(tag))
	}
	sort.Strings(sorted)

	payload := CanonicalizeText(text) + "|" + strings.Join(sorted, ",")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
