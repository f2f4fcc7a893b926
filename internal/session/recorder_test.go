package session

import (
	"fmt"
	"testing"
	"time"

	"quizfeed/internal/core"
	"quizfeed/internal/weights"
)

func newTestSession(userID string) *Session {
	return New(core.NewProfile(userID), weights.DefaultSteps())
}

func TestRecordValidation(t *testing.T) {
	recorder := NewRecorder(false)
	sess := newTestSession("u1")

	tests := []struct {
		name  string
		event core.InteractionEvent
	}{
		{"missing topic", core.InteractionEvent{Outcome: core.OutcomeCorrect}},
		{"unknown outcome", core.InteractionEvent{Topic: "Science", Outcome: "maybe"}},
		{"empty outcome", core.InteractionEvent{Topic: "Science"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if recorder.Record(sess, tt.event) {
				t.Error("Expected Record to reject malformed event")
			}
		})
	}

	if recorder.Record(nil, core.InteractionEvent{Topic: "Science", Outcome: core.OutcomeCorrect}) {
		t.Error("Expected Record to reject nil session")
	}

	if sess.Profile.TotalAnswered != 0 {
		t.Errorf("Rejected events must not advance the answered count, got %d", sess.Profile.TotalAnswered)
	}
	if len(sess.Recent()) != 0 {
		t.Errorf("Rejected events must not enter the recent log, got %d entries", len(sess.Recent()))
	}
}

func TestRecordUpdatesEveryLevel(t *testing.T) {
	recorder := NewRecorder(false)
	sess := newTestSession("u1")

	ok := recorder.Record(sess, core.InteractionEvent{
		Topic:      "Science",
		Subtopic:   "Physics",
		Branch:     "Optics",
		Outcome:    core.OutcomeCorrect,
		QuestionID: "q1",
	})
	if !ok {
		t.Fatal("Record failed for a valid event")
	}

	paths := [][]string{
		{"Science"},
		{"Science", "Physics"},
		{"Science", "Physics", "Optics"},
	}
	for _, path := range paths {
		if got := sess.Tree.Get(path...); got <= core.DefaultWeight {
			t.Errorf("Expected weight above default at %v, got %.4f", path, got)
		}
	}

	if sess.Profile.TotalAnswered != 1 {
		t.Errorf("TotalAnswered = %d, want 1", sess.Profile.TotalAnswered)
	}
	if sess.State() != StateDirty {
		t.Error("Session should be dirty after a recorded event")
	}
}

func TestRecordSkipCounting(t *testing.T) {
	event := core.InteractionEvent{Topic: "History", Outcome: core.OutcomeSkipped, QuestionID: "q1"}

	withoutSkips := newTestSession("u1")
	NewRecorder(false).Record(withoutSkips, event)
	if withoutSkips.Profile.TotalAnswered != 0 {
		t.Errorf("Skips should not count when disabled, got %d", withoutSkips.Profile.TotalAnswered)
	}

	withSkips := newTestSession("u2")
	NewRecorder(true).Record(withSkips, event)
	if withSkips.Profile.TotalAnswered != 1 {
		t.Errorf("Skips should count when enabled, got %d", withSkips.Profile.TotalAnswered)
	}

	// Weights move either way.
	if withoutSkips.Tree.Get("History") >= core.DefaultWeight {
		t.Error("Skip should still pull the topic weight down")
	}
}

func TestRecentLogBoundedMostRecentFirst(t *testing.T) {
	recorder := NewRecorder(false)
	sess := newTestSession("u1")

	for i := 0; i < RecentLogCapacity+5; i++ {
		recorder.Record(sess, core.InteractionEvent{
			Topic:      "Science",
			Outcome:    core.OutcomeCorrect,
			QuestionID: fmt.Sprintf("q%d", i),
			Timestamp:  time.Now().UTC(),
		})
	}

	recent := sess.Recent()
	if len(recent) != RecentLogCapacity {
		t.Fatalf("Recent log length = %d, want %d", len(recent), RecentLogCapacity)
	}

	// Newest event stays at the front.
	if recent[0].QuestionID != fmt.Sprintf("q%d", RecentLogCapacity+4) {
		t.Errorf("Expected newest event first, got %s", recent[0].QuestionID)
	}
}

func TestTotalAnsweredMonotonic(t *testing.T) {
	recorder := NewRecorder(false)
	sess := newTestSession("u1")

	last := 0
	outcomes := []core.Outcome{
		core.OutcomeCorrect, core.OutcomeIncorrect, core.OutcomeSkipped,
		core.OutcomeCorrect, core.OutcomeSkipped, core.OutcomeIncorrect,
	}
	for i, outcome := range outcomes {
		recorder.Record(sess, core.InteractionEvent{
			Topic:      "Science",
			Outcome:    outcome,
			QuestionID: fmt.Sprintf("q%d", i),
		})
		if sess.Profile.TotalAnswered < last {
			t.Fatalf("TotalAnswered decreased from %d to %d", last, sess.Profile.TotalAnswered)
		}
		last = sess.Profile.TotalAnswered
	}
}

func TestSnapshotDetachedFromLiveTree(t *testing.T) {
	recorder := NewRecorder(false)
	sess := newTestSession("u1")

	recorder.Record(sess, core.InteractionEvent{
		Topic: "Science", Subtopic: "Physics", Outcome: core.OutcomeCorrect, QuestionID: "q1",
	})

	snap := sess.Snapshot()
	weightBefore := snap.Topics["Science"].Weight
	subBefore := snap.Topics["Science"].Children["Physics"].Weight
	countBefore := snap.TotalAnswered

	// Later events on the stream must not show through the snapshot.
	for i := 0; i < 5; i++ {
		recorder.Record(sess, core.InteractionEvent{
			Topic: "Science", Subtopic: "Physics", Outcome: core.OutcomeCorrect, QuestionID: "q2",
		})
	}

	if snap.Topics["Science"].Weight != weightBefore {
		t.Errorf("Snapshot topic weight changed from %.4f to %.4f", weightBefore, snap.Topics["Science"].Weight)
	}
	if snap.Topics["Science"].Children["Physics"].Weight != subBefore {
		t.Errorf("Snapshot subtopic weight changed from %.4f to %.4f", subBefore, snap.Topics["Science"].Children["Physics"].Weight)
	}
	if snap.TotalAnswered != countBefore {
		t.Errorf("Snapshot answered count changed from %d to %d", countBefore, snap.TotalAnswered)
	}

	// And snapshot mutations stay out of the live tree.
	snap.Topics["Science"].Weight = 0
	if sess.Tree.Get("Science") == 0 {
		t.Error("Mutating the snapshot reached the live tree")
	}
}

func TestBeginGenerationGuards(t *testing.T) {
	sess := newTestSession("u1")
	cooldown := 30 * time.Second
	now := time.Now()

	if !sess.BeginGeneration(6, cooldown, now) {
		t.Fatal("First milestone claim should succeed")
	}

	// In flight: concurrent claim refused.
	if sess.BeginGeneration(12, cooldown, now) {
		t.Error("Claim while in flight should be refused")
	}
	sess.FinishGeneration()

	// Same milestone again, even after the cooldown.
	if sess.BeginGeneration(6, cooldown, now.Add(2*cooldown)) {
		t.Error("Same milestone must be processed at most once")
	}

	// New milestone inside the cooldown window.
	if sess.BeginGeneration(12, cooldown, now.Add(cooldown/2)) {
		t.Error("Claim inside the cooldown window should be refused")
	}

	// New milestone after the cooldown.
	if !sess.BeginGeneration(12, cooldown, now.Add(cooldown+time.Second)) {
		t.Error("New milestone after the cooldown should succeed")
	}
}
