package session

import (
	"sync"
	"time"

	"quizfeed/internal/core"
	"quizfeed/internal/weights"
)

// RecentLogCapacity bounds the per-session interaction log. The log is
// session-scoped and never persisted.
const RecentLogCapacity = 20

// State tracks where a session is in its load/persist lifecycle. The backing
// store is read once at StateLoaded; after that, in-memory state is
// authoritative and the store is write-only.
type State int

const (
	StateEmpty  State = iota // No profile loaded yet
	StateLoaded              // Profile loaded, no unsaved mutations
	StateDirty               // In-memory state ahead of the backing store
)

// Session is the per-user context object owning all mutable personalization
// state: the profile, its weight tree and the recent-interaction log. One
// session exists per user and all weight mutations go through it on a single
// sequential event stream. The milestone and lifecycle fields are touched
// from the generation and persistence goroutines and are guarded by the
// mutex.
type Session struct {
	UserID  string
	Profile *core.Profile
	Tree    *weights.Tree

	recent []core.InteractionEvent

	mu        sync.Mutex
	state     State
	milestone core.MilestoneState
	inFlight  bool
}

// New creates a session around a profile. The tree shares the profile's
// topic map so adjustments are visible to persistence.
func New(profile *core.Profile, steps weights.Steps) *Session {
	if profile.Topics == nil {
		profile.Topics = make(map[string]*core.WeightNode)
	}
	return &Session{
		UserID:  profile.UserID,
		Profile: profile,
		Tree:    weights.NewTree(profile.Topics, steps),
		recent:  make([]core.InteractionEvent, 0, RecentLogCapacity),
		state:   StateLoaded,
	}
}

// State returns the session's lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// MarkDirty records that in-memory state is ahead of the backing store.
func (s *Session) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateDirty
}

// MarkSaved records that the backing store caught up with in-memory state.
// Called from the persistence goroutine.
func (s *Session) MarkSaved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDirty {
		s.state = StateLoaded
	}
}

// Snapshot returns a deep copy of the profile, taken on the event stream.
// Persistence serializes the copy, so the live tree can keep mutating while
// a save is in flight.
func (s *Session) Snapshot() *core.Profile {
	return s.Profile.Clone()
}

// PushRecent front-inserts an event into the recent-interaction log,
// truncating to capacity.
func (s *Session) PushRecent(event core.InteractionEvent) {
	s.recent = append([]core.InteractionEvent{event}, s.recent...)
	if len(s.recent) > RecentLogCapacity {
		s.recent = s.recent[:RecentLogCapacity]
	}
}

// Recent returns a copy of the recent-interaction log, most recent first.
func (s *Session) Recent() []core.InteractionEvent {
	out := make([]core.InteractionEvent, len(s.recent))
	copy(out, s.recent)
	return out
}

// Milestone returns the current milestone state.
func (s *Session) Milestone() core.MilestoneState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.milestone
}

// BeginGeneration atomically claims the milestone at count. It refuses if a
// generation is already in flight, the count was already processed, or the
// cooldown since the last attempt has not elapsed. On success the milestone
// state is recorded before the external call starts, so concurrent events
// crossing the same milestone cannot re-trigger it.
func (s *Session) BeginGeneration(count int, cooldown time.Duration, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		return false
	}
	if s.milestone.LastProcessedCount == count {
		return false
	}
	if !s.milestone.LastAttempt.IsZero() && now.Sub(s.milestone.LastAttempt) < cooldown {
		return false
	}

	s.milestone = core.MilestoneState{LastAttempt: now, LastProcessedCount: count}
	s.inFlight = true
	return true
}

// Acquire claims the in-flight marker without milestone bookkeeping. Used by
// manual generation runs that bypass the milestone guard.
func (s *Session) Acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return false
	}
	s.inFlight = true
	return true
}

// FinishGeneration clears the in-flight marker. Called on both success and
// failure; failures are retried only at the next milestone.
func (s *Session) FinishGeneration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
}
