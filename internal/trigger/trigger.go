package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quizfeed/internal/core"
	"quizfeed/internal/dedup"
	"quizfeed/internal/events"
	"quizfeed/internal/generator"
	"quizfeed/internal/selector"
	"quizfeed/internal/session"
)

// ContentRepository is the slice of persistence the trigger needs: inserting
// survivors and fetching recent texts for generator context.
type ContentRepository interface {
	Insert(ctx context.Context, item core.CandidateItem) error
	RecentQuestionTexts(ctx context.Context, limit int) ([]string, error)
}

// Options tunes the milestone state machine.
type Options struct {
	MilestoneInterval int           // Answered-count multiple that fires generation
	Cooldown          time.Duration // Minimum gap between attempts per user
	Timeout           time.Duration // Deadline imposed on the generator call
	RecentContext     int           // Recent question texts passed to the generator
}

// DefaultOptions returns the canonical trigger settings.
func DefaultOptions() Options {
	return Options{
		MilestoneInterval: 6,
		Cooldown:          30 * time.Second,
		Timeout:           45 * time.Second,
		RecentContext:     20,
	}
}

// Deps are the trigger's collaborators. Generator, repository and sink are
// external; selector and dedup are owned by this engine.
type Deps struct {
	Selector  *selector.Selector
	Generator generator.Generator
	Dedup     *dedup.Engine
	Repo      ContentRepository
	Sink      events.Sink
}

// Result reports what one generation cycle did.
type Result struct {
	Fired     bool // Whether a generation cycle ran
	Generated int  // Candidates the generator returned
	Saved     int  // Survivors persisted
}

// Trigger decides when to request new content. Per user it walks
// Idle -> Checking -> Generating -> Cooldown -> Idle: every answered event
// checks the milestone guard, at most one cycle runs at a time, and a fixed
// cooldown suppresses re-fires. The milestone is claimed before the external
// call starts so concurrent events crossing the same threshold cannot
// double-trigger, and the cycle itself runs on its own goroutine so the
// event stream never waits on the generator.
type Trigger struct {
	deps   Deps
	opts   Options
	now    func() time.Time
	cycles sync.WaitGroup
}

// New creates a trigger. Zero-valued options fall back to defaults.
func New(deps Deps, opts Options) *Trigger {
	if opts.MilestoneInterval <= 0 {
		opts.MilestoneInterval = DefaultOptions().MilestoneInterval
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultOptions().Cooldown
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.RecentContext <= 0 {
		opts.RecentContext = DefaultOptions().RecentContext
	}
	if deps.Sink == nil {
		deps.Sink = events.NopSink{}
	}
	return &Trigger{deps: deps, opts: opts, now: time.Now}
}

// MaybeGenerate runs the milestone check for a session and, when it passes,
// claims the milestone and starts one full generation cycle on its own
// goroutine. It reports whether a cycle started; outcomes are reported
// through the sink. Failures are never retried here; the next milestone
// tries again.
func (t *Trigger) MaybeGenerate(sess *session.Session) bool {
	count := sess.Profile.TotalAnswered
	if count <= 0 || count%t.opts.MilestoneInterval != 0 {
		return false
	}
	if !sess.BeginGeneration(count, t.opts.Cooldown, t.now()) {
		return false
	}

	// The spec is built here on the event stream; the goroutine afterwards
	// touches nothing the stream keeps mutating.
	spec := t.deps.Selector.BuildSpec(sess)

	t.cycles.Add(1)
	go func() {
		defer t.cycles.Done()
		defer sess.FinishGeneration()
		// The cycle outlives the triggering event; failures are already
		// reported through the sink inside generate.
		_, _ = t.generate(context.Background(), sess.UserID, spec)
	}()
	return true
}

// Wait blocks until every in-flight generation cycle finishes. Call before
// shutdown.
func (t *Trigger) Wait() {
	t.cycles.Wait()
}

// ForceGenerate runs one generation cycle regardless of the milestone guard,
// still respecting the in-flight marker. Used by the manual CLI path.
func (t *Trigger) ForceGenerate(ctx context.Context, sess *session.Session) (Result, error) {
	if !sess.Acquire() {
		return Result{}, fmt.Errorf("generation already in flight")
	}
	defer sess.FinishGeneration()

	return t.generate(ctx, sess.UserID, t.deps.Selector.BuildSpec(sess))
}

func (t *Trigger) generate(ctx context.Context, userID string, spec core.TopicSpec) (Result, error) {
	t.deps.Sink.Emit(ctx, core.GenerationEvent{
		Type:           core.EventGenerationStarted,
		UserID:         userID,
		PrimaryTopics:  spec.Primary,
		AdjacentTopics: spec.Adjacent,
	})

	recentTexts, err := t.deps.Repo.RecentQuestionTexts(ctx, t.opts.RecentContext)
	if err != nil {
		// Context is a hint; generation proceeds without it.
		recentTexts = nil
	}

	// The generator is the only unbounded-latency dependency; it gets the
	// one imposed deadline.
	genCtx, cancel := context.WithTimeout(ctx, t.opts.Timeout)
	defer cancel()

	candidates, err := t.deps.Generator.Generate(genCtx, spec, recentTexts)
	if err != nil {
		t.deps.Sink.Emit(ctx, core.GenerationEvent{
			Type:   core.EventGenerationFailed,
			UserID: userID,
			Error:  err.Error(),
		})
		return Result{Fired: true}, fmt.Errorf("generation failed: %w", err)
	}

	survivors, err := t.deps.Dedup.Filter(ctx, candidates)
	if err != nil {
		t.deps.Sink.Emit(ctx, core.GenerationEvent{
			Type:      core.EventGenerationFailed,
			UserID:    userID,
			Generated: len(candidates),
			Error:     err.Error(),
		})
		return Result{Fired: true, Generated: len(candidates)}, fmt.Errorf("dedup failed: %w", err)
	}

	saved := 0
	for _, item := range survivors {
		if err := t.deps.Repo.Insert(ctx, item); err != nil {
			// In-memory state stays authoritative; the failure is logged and
			// the rest of the batch still gets its chance.
			t.deps.Sink.Emit(ctx, core.GenerationEvent{
				Type:   core.EventPersistenceFailed,
				UserID: userID,
				Error:  err.Error(),
			})
			continue
		}
		saved++
	}

	t.deps.Sink.Emit(ctx, core.GenerationEvent{
		Type:           core.EventGenerationCompleted,
		UserID:         userID,
		PrimaryTopics:  spec.Primary,
		AdjacentTopics: spec.Adjacent,
		Generated:      len(candidates),
		Saved:          saved,
	})
	return Result{Fired: true, Generated: len(candidates), Saved: saved}, nil
}
