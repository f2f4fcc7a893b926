package dedup

import (
	"context"
	"errors"
	"testing"

	"quizfeed/internal/core"
)

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("What is the Capital of France?", []string{"geo"})
	b := Fingerprint("what is the capital of france", []string{"geo"})

	if a != b {
		t.Errorf("Fingerprint should be case and punctuation insensitive:\n%s\n%s", a, b)
	}
}

func TestFingerprintTagOrderIrrelevant(t *testing.T) {
	a := Fingerprint("Who painted the Mona Lisa?", []string{"art", "history"})
	b := Fingerprint("Who painted the Mona Lisa?", []string{"history", "art"})

	if a != b {
		t.Error("Tag order must not change the fingerprint")
	}
}

func TestFingerprintDistinguishesContent(t *testing.T) {
	a := Fingerprint("What is the capital of France?", []string{"geo"})
	b := Fingerprint("What is the capital of Spain?", []string{"geo"})
	c := Fingerprint("What is the capital of France?", []string{"history"})

	if a == b {
		t.Error("Different texts should not collide")
	}
	if a == c {
		t.Error("Different tag sets should not collide")
	}
}

func TestCanonicalizeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  What is   the Capital of France?  ", "what is the capital of france"},
		{"E=mc^2, right?!", "emc2 right"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CanonicalizeText(tt.in); got != tt.want {
			t.Errorf("CanonicalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWordSetDiffBoundary(t *testing.T) {
	// Two replacements (nile/egypt vs amazon/brazil) plus one extra word
	// (peru): symmetric difference of 5.
	a := "the river nile flows through egypt"
	b := "the river amazon flows through brazil peru"

	if diff := WordSetDiff(a, b); diff != 5 {
		t.Fatalf("Sanity check failed, diff = %d", diff)
	}

	// Two replacements (flows/egypt vs runs/sudan): symmetric difference of 4.
	twoReplacements := WordSetDiff(
		"the river nile flows through egypt",
		"the river nile runs through sudan",
	)
	if twoReplacements != 4 {
		t.Fatalf("Sanity check failed, diff = %d", twoReplacements)
	}
}

func TestAuditCorpusFlagsSmallDifferences(t *testing.T) {
	items := []core.CandidateItem{
		{ID: "q1", Text: "what is the capital of france"},
		{ID: "q2", Text: "what is the capital of spain"},         // diff 2: france/spain swap
		{ID: "q3", Text: "how many moons does jupiter have now"}, // unrelated
	}

	pairs := AuditCorpus(items, 3)

	if len(pairs) != 1 {
		t.Fatalf("Expected exactly one duplicate pair, got %d: %v", len(pairs), pairs)
	}
	if pairs[0].FirstID != "q1" || pairs[0].SecondID != "q2" {
		t.Errorf("Unexpected pair: %+v", pairs[0])
	}
}

func TestAuditCorpusThresholdExclusive(t *testing.T) {
	// q1 vs q2: symmetric difference {red, crimson, bright} = 3 -> flagged.
	threeApart := []core.CandidateItem{
		{ID: "q1", Text: "mars is called the red planet"},
		{ID: "q2", Text: "mars is called the bright crimson planet"},
	}
	if pairs := AuditCorpus(threeApart, 3); len(pairs) != 1 {
		t.Errorf("Word sets differing by 3 should be flagged, got %d pairs", len(pairs))
	}

	// q1 vs q2: {red, big, bright, crimson} = 4 -> not flagged.
	fourApart := []core.CandidateItem{
		{ID: "q1", Text: "mars is called the red planet"},
		{ID: "q2", Text: "mars is called the big bright crimson planet"},
	}
	if pairs := AuditCorpus(fourApart, 3); len(pairs) != 0 {
		t.Errorf("Word sets differing by 4 should not be flagged, got %d pairs", len(pairs))
	}
}

type fakeIndex struct {
	existing map[string]bool
	err      error
}

func (f *fakeIndex) ExistsFingerprint(ctx context.Context, fp string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.existing[fp], nil
}

func TestFilterExactFingerprint(t *testing.T) {
	known := Fingerprint("What is the capital of France?", []string{"geo"})
	index := &fakeIndex{existing: map[string]bool{known: true}}
	engine := NewEngine(index, DefaultThresholds())

	candidates := []core.CandidateItem{
		{ID: "c1", Text: "what is the capital of FRANCE?!", Tags: []string{"geo"}, Answers: []string{"Paris"}},
		{ID: "c2", Text: "Which ocean borders Portugal?", Tags: []string{"geo"}, Answers: []string{"Atlantic"}},
	}

	survivors, err := engine.Filter(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}

	if len(survivors) != 1 || survivors[0].ID != "c2" {
		t.Errorf("Expected only c2 to survive, got %v", survivors)
	}
}

func TestFilterInBatchExactDuplicates(t *testing.T) {
	engine := NewEngine(nil, DefaultThresholds())

	candidates := []core.CandidateItem{
		{ID: "c1", Text: "Name the largest desert on Earth", Answers: []string{"Sahara"}},
		{ID: "c2", Text: "name the largest desert on earth!", Answers: []string{"Sahara"}},
	}

	survivors, err := engine.Filter(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if len(survivors) != 1 || survivors[0].ID != "c1" {
		t.Errorf("First-seen candidate should survive, got %v", survivors)
	}
}

func TestFilterSemanticKeywordOverlap(t *testing.T) {
	engine := NewEngine(nil, DefaultThresholds())

	candidates := []core.CandidateItem{
		{ID: "c1", Text: "Which planet in the solar system is famous for its giant ring system?", Answers: []string{"Saturn"}},
		{ID: "c2", Text: "Which planet of our solar system has the most visible ring structures?", Answers: []string{"Saturn"}},
		{ID: "c3", Text: "Which composer wrote the Ninth Symphony?", Answers: []string{"Beethoven"}},
	}

	survivors, err := engine.Filter(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}

	if len(survivors) != 2 {
		t.Fatalf("Expected 2 survivors, got %d: %v", len(survivors), survivors)
	}
	if survivors[0].ID != "c1" {
		t.Errorf("First-seen duplicate should be kept, got %s", survivors[0].ID)
	}
	if survivors[1].ID != "c3" {
		t.Errorf("Unrelated question should survive, got %s", survivors[1].ID)
	}
}

func TestFilterSemanticPatternFamilyBoost(t *testing.T) {
	engine := NewEngine(nil, DefaultThresholds())

	// Low keyword overlap but the same superlative family and answer.
	candidates := []core.CandidateItem{
		{ID: "c1", Text: "What is the largest ocean?", Answers: []string{"Pacific"}},
		{ID: "c2", Text: "Name the biggest ocean on our planet", Answers: []string{"Pacific"}},
	}

	survivors, err := engine.Filter(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if len(survivors) != 1 || survivors[0].ID != "c1" {
		t.Errorf("Pattern family plus shared keyword should flag the pair, got %v", survivors)
	}
}

func TestFilterGenericAnswersNotGrouped(t *testing.T) {
	engine := NewEngine(nil, DefaultThresholds())

	// Same generic answer and overlapping keywords, but true/false questions
	// about different facts must not collapse into one.
	candidates := []core.CandidateItem{
		{ID: "c1", Text: "True or false: the Great Wall of China is visible from space", Answers: []string{"False"}},
		{ID: "c2", Text: "True or false: the Great Wall of China was built in a single dynasty", Answers: []string{"False"}},
	}

	survivors, err := engine.Filter(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if len(survivors) != 2 {
		t.Errorf("Generic answers must not be grouped, got %d survivors", len(survivors))
	}
}

func TestFilterIndexError(t *testing.T) {
	index := &fakeIndex{err: errors.New("store unreachable")}
	engine := NewEngine(index, DefaultThresholds())

	_, err := engine.Filter(context.Background(), []core.CandidateItem{
		{ID: "c1", Text: "Which ocean borders Portugal?", Answers: []string{"Atlantic"}},
	})
	if err == nil {
		t.Error("Expected index failure to surface as an error")
	}
}
