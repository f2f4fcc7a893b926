package selector

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"quizfeed/internal/coldstart"
	"quizfeed/internal/core"
	"quizfeed/internal/session"
	"quizfeed/internal/weights"
)

func newTestSession(userID string) *session.Session {
	return session.New(core.NewProfile(userID), weights.DefaultSteps())
}

func newTestSelector() *Selector {
	return New(DefaultRelations(), coldstart.NewPolicy(0), DefaultOptions(), rand.New(rand.NewSource(1)))
}

func TestRecencyWeight(t *testing.T) {
	tests := []struct {
		index, logLength int
		want             float64
	}{
		{0, 4, 1.0},
		{1, 4, 0.875},
		{2, 4, 0.75},
		{3, 4, 0.625},
		{0, 1, 1.0},
		{0, 0, 1.0},
	}

	for _, tt := range tests {
		got := RecencyWeight(tt.index, tt.logLength)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("RecencyWeight(%d, %d) = %.4f, want %.4f", tt.index, tt.logLength, got, tt.want)
		}
	}
}

func TestScoreTopicsRanksByRecencyAndWeight(t *testing.T) {
	sel := newTestSelector()
	sess := newTestSession("u1")
	recorder := session.NewRecorder(false)

	// Older Geography interactions, then a burst of Science.
	for i := 0; i < 2; i++ {
		recorder.Record(sess, core.InteractionEvent{Topic: "Geography", Outcome: core.OutcomeCorrect, QuestionID: "g"})
	}
	for i := 0; i < 4; i++ {
		recorder.Record(sess, core.InteractionEvent{Topic: "Science", Outcome: core.OutcomeCorrect, QuestionID: "s"})
	}

	ranked := sel.ScoreTopics(sess)
	if len(ranked) != 2 {
		t.Fatalf("Expected 2 ranked topics, got %d", len(ranked))
	}
	if ranked[0].Topic != "Science" {
		t.Errorf("Expected Science ranked first, got %s (%.3f)", ranked[0].Topic, ranked[0].Score)
	}
	if ranked[0].Score <= ranked[1].Score {
		t.Errorf("Ranking not descending: %.3f <= %.3f", ranked[0].Score, ranked[1].Score)
	}
}

func TestBuildSpecFallbackWithoutHistory(t *testing.T) {
	sel := newTestSelector()
	sess := newTestSession("u1")

	spec := sel.BuildSpec(sess)

	want := DefaultOptions().DefaultTopics
	if len(spec.Primary) != len(want) {
		t.Fatalf("Expected %d fallback topics, got %v", len(want), spec.Primary)
	}
	for i, topic := range want {
		if spec.Primary[i] != topic {
			t.Errorf("Fallback topic %d = %s, want %s", i, spec.Primary[i], topic)
		}
	}
	if spec.Phase != 1 {
		t.Errorf("Fresh profile should be phase 1, got %d", spec.Phase)
	}
}

func TestBuildSpecMixesSpecificityLevels(t *testing.T) {
	sel := newTestSelector()
	sess := newTestSession("u1")
	recorder := session.NewRecorder(false)

	for i := 0; i < 5; i++ {
		recorder.Record(sess, core.InteractionEvent{
			Topic: "Science", Subtopic: "Physics", Branch: "Optics",
			Outcome: core.OutcomeCorrect, QuestionID: "q",
		})
	}
	recorder.Record(sess, core.InteractionEvent{Topic: "History", Outcome: core.OutcomeCorrect, QuestionID: "h"})

	spec := sel.BuildSpec(sess)

	if len(spec.Primary) == 0 || spec.Primary[0] != "Science" {
		t.Fatalf("Expected Science as the top primary topic, got %v", spec.Primary)
	}

	var hasSubtopic, hasBranch bool
	for _, entry := range spec.Primary {
		switch strings.Count(entry, ":") {
		case 1:
			hasSubtopic = true
		case 2:
			hasBranch = true
		}
	}
	if !hasSubtopic {
		t.Errorf("Expected a topic:subtopic entry in %v", spec.Primary)
	}
	if !hasBranch {
		t.Errorf("Expected a topic:subtopic:branch entry in %v", spec.Primary)
	}
}

func TestBuildSpecAdjacentExcludesPrimaries(t *testing.T) {
	sel := newTestSelector()
	sess := newTestSession("u1")
	recorder := session.NewRecorder(false)

	recorder.Record(sess, core.InteractionEvent{Topic: "Science", Outcome: core.OutcomeCorrect, QuestionID: "q"})
	recorder.Record(sess, core.InteractionEvent{Topic: "History", Outcome: core.OutcomeCorrect, QuestionID: "q"})

	spec := sel.BuildSpec(sess)

	if len(spec.Adjacent) == 0 {
		t.Fatal("Expected adjacency expansion for related topics")
	}
	if len(spec.Adjacent) > DefaultOptions().MaxAdjacent {
		t.Errorf("Adjacent list exceeds cap: %v", spec.Adjacent)
	}

	primaries := make(map[string]bool)
	for _, p := range spec.Primary {
		primaries[p] = true
	}
	for _, a := range spec.Adjacent {
		if primaries[a] {
			t.Errorf("Adjacent topic %s is already primary", a)
		}
	}
}

func TestStaticRelationsSymmetric(t *testing.T) {
	relations := NewStaticRelations(map[string][]string{"A": {"B"}})

	hasNeighbor := func(topic, neighbor string) bool {
		for _, n := range relations.Neighbors(topic) {
			if n == neighbor {
				return true
			}
		}
		return false
	}

	if !hasNeighbor("A", "B") {
		t.Error("A should neighbor B")
	}
	if !hasNeighbor("B", "A") {
		t.Error("Relation table must be symmetric")
	}
}

func TestExplorationRatioFollowsPhase(t *testing.T) {
	sel := newTestSelector()
	recorder := session.NewRecorder(false)

	fresh := newTestSession("u1")
	warm := newTestSession("u2")
	for i := 0; i < 25; i++ {
		recorder.Record(warm, core.InteractionEvent{Topic: "Science", Outcome: core.OutcomeCorrect, QuestionID: "q"})
	}

	freshSpec := sel.BuildSpec(fresh)
	warmSpec := sel.BuildSpec(warm)

	if freshSpec.ExplorationRatio <= warmSpec.ExplorationRatio {
		t.Errorf("Cold-start exploration (%.2f) should exceed established exploration (%.2f)",
			freshSpec.ExplorationRatio, warmSpec.ExplorationRatio)
	}
	if warmSpec.Phase != 0 {
		t.Errorf("Completed cold start should report phase 0, got %d", warmSpec.Phase)
	}
}
