package weights

import (
	"math"
	"testing"

	"quizfeed/internal/core"
)

func TestGetMissingPathReturnsDefault(t *testing.T) {
	tree := NewTree(nil, DefaultSteps())

	if got := tree.Get("Science"); got != core.DefaultWeight {
		t.Errorf("Expected default weight %.2f for missing topic, got %.2f", core.DefaultWeight, got)
	}
	if got := tree.Get("Science", "Physics", "Optics"); got != core.DefaultWeight {
		t.Errorf("Expected default weight for missing branch, got %.2f", got)
	}

	// Reading must not create nodes.
	if len(tree.Topics()) != 0 {
		t.Errorf("Get should not create nodes, found %d topics", len(tree.Topics()))
	}
}

func TestAdjustThenGetRoundTrip(t *testing.T) {
	tree := NewTree(nil, DefaultSteps())

	adjusted := tree.Adjust(core.OutcomeCorrect, "Science", "Physics")
	if adjusted == core.DefaultWeight {
		t.Fatal("Adjust should move the weight off the default")
	}

	if got := tree.Get("Science", "Physics"); got != adjusted {
		t.Errorf("Get after Adjust returned %.4f, want %.4f", got, adjusted)
	}

	// Intermediate node was created at the default weight.
	if got := tree.Get("Science"); got != core.DefaultWeight {
		t.Errorf("Intermediate topic node should start at default, got %.4f", got)
	}
}

func TestAdjustDirections(t *testing.T) {
	tests := []struct {
		name    string
		outcome core.Outcome
		up      bool
	}{
		{"correct increases", core.OutcomeCorrect, true},
		{"incorrect decreases", core.OutcomeIncorrect, false},
		{"skip decreases", core.OutcomeSkipped, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := NewTree(nil, DefaultSteps())
			got := tree.Adjust(tt.outcome, "History")
			if tt.up && got <= core.DefaultWeight {
				t.Errorf("Expected weight above default, got %.4f", got)
			}
			if !tt.up && got >= core.DefaultWeight {
				t.Errorf("Expected weight below default, got %.4f", got)
			}
		})
	}
}

func TestSkipIsWeakerThanIncorrect(t *testing.T) {
	steps := DefaultSteps()

	skipTree := NewTree(nil, steps)
	incorrectTree := NewTree(nil, steps)

	afterSkip := skipTree.Adjust(core.OutcomeSkipped, "Art")
	afterIncorrect := incorrectTree.Adjust(core.OutcomeIncorrect, "Art")

	if afterSkip <= afterIncorrect {
		t.Errorf("Skip (%.4f) should penalize less than incorrect (%.4f)", afterSkip, afterIncorrect)
	}
}

func TestAdjustStaysInBounds(t *testing.T) {
	tree := NewTree(nil, DefaultSteps())

	// Hammer both directions well past where the bounds would be violated
	// without clamping.
	for i := 0; i < 200; i++ {
		w := tree.Adjust(core.OutcomeCorrect, "Science")
		if w < 0 || w > 1 {
			t.Fatalf("Weight out of bounds after correct: %.4f", w)
		}
	}
	if got := tree.Get("Science"); got > 1.0 {
		t.Errorf("Weight exceeded 1.0: %.4f", got)
	}

	for i := 0; i < 200; i++ {
		w := tree.Adjust(core.OutcomeIncorrect, "Science")
		if w < 0 || w > 1 {
			t.Fatalf("Weight out of bounds after incorrect: %.4f", w)
		}
	}
	if got := tree.Get("Science"); got < 0.0 {
		t.Errorf("Weight dropped below 0.0: %.4f", got)
	}
}

func TestDiminishingReturns(t *testing.T) {
	tree := NewTree(nil, DefaultSteps())

	first := tree.Adjust(core.OutcomeCorrect, "Science") - core.DefaultWeight
	second := tree.Adjust(core.OutcomeCorrect, "Science") - core.DefaultWeight - first

	if second >= first {
		t.Errorf("Expected diminishing delta, first %.4f second %.4f", first, second)
	}
}

func TestIsAllDefault(t *testing.T) {
	tree := NewTree(nil, DefaultSteps())
	if !tree.IsAllDefault() {
		t.Error("Empty tree should be all default")
	}

	// A node nudged within tolerance still counts as default.
	tree.Topics()["Science"] = &core.WeightNode{Weight: core.DefaultWeight + 0.005}
	if !tree.IsAllDefault() {
		t.Error("Weight within tolerance of default should count as default")
	}

	tree.Adjust(core.OutcomeCorrect, "Science", "Physics")
	if tree.IsAllDefault() {
		t.Error("Adjusted tree should not be all default")
	}
}

func TestSharedMapVisibleToCaller(t *testing.T) {
	topics := make(map[string]*core.WeightNode)
	tree := NewTree(topics, DefaultSteps())

	tree.Adjust(core.OutcomeCorrect, "Geography")

	node, ok := topics["Geography"]
	if !ok {
		t.Fatal("Adjustment should be visible through the caller's map")
	}
	if math.Abs(node.Weight-tree.Get("Geography")) > 1e-9 {
		t.Errorf("Caller map weight %.4f diverged from tree %.4f", node.Weight, tree.Get("Geography"))
	}
}
