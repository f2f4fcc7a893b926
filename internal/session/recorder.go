package session

import (
	"time"

	"quizfeed/internal/core"
)

// Recorder ingests interaction events into a session: it maintains the
// recent-interaction log, applies weight adjustments at every hierarchy
// level present, and advances the answered count. It has no side effects
// beyond in-memory state; persistence is the caller's concern.
type Recorder struct {
	countSkips bool
}

// NewRecorder creates a recorder. countSkips controls whether skipped
// questions advance the answered count (and therefore count toward the
// generation milestone); observed behavior differs between deployments, so
// it is configuration.
func NewRecorder(countSkips bool) *Recorder {
	return &Recorder{countSkips: countSkips}
}

// Record applies one event to the session. It returns false for malformed
// events (no session, empty topic, unknown outcome) and leaves state
// untouched in that case.
func (r *Recorder) Record(s *Session, event core.InteractionEvent) bool {
	if s == nil || event.Topic == "" || !event.Outcome.Valid() {
		return false
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	s.PushRecent(event)

	// Each hierarchy level present gets its own independent adjustment.
	s.Tree.Adjust(event.Outcome, event.Topic)
	if event.Subtopic != "" {
		s.Tree.Adjust(event.Outcome, event.Topic, event.Subtopic)
		if event.Branch != "" {
			s.Tree.Adjust(event.Outcome, event.Topic, event.Subtopic, event.Branch)
		}
	}

	if event.Outcome != core.OutcomeSkipped || r.countSkips {
		s.Profile.TotalAnswered++
	}
	s.Profile.LastRefreshed = event.Timestamp
	s.MarkDirty()

	return true
}
