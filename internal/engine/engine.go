package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"quizfeed/internal/coldstart"
	"quizfeed/internal/config"
	"quizfeed/internal/core"
	"quizfeed/internal/dedup"
	"quizfeed/internal/events"
	"quizfeed/internal/generator"
	"quizfeed/internal/logger"
	"quizfeed/internal/selector"
	"quizfeed/internal/session"
	"quizfeed/internal/trigger"
	"quizfeed/internal/weights"
)

// Deps are the engine's external collaborators. All of them are injected;
// the engine owns no I/O of its own.
type Deps struct {
	Profiles  ProfileStore
	Generator generator.Generator
	Repo      ContentRepository
	Sink      events.Sink
	Relations selector.RelationTable // nil gets the built-in table
}

// Options collects every tunable the engine needs. FromConfig builds it from
// the application configuration.
type Options struct {
	Steps      weights.Steps
	CountSkips bool
	ColdStart  int // Answered count completing the cold start
	Selector   selector.Options
	Trigger    trigger.Options
}

// DefaultOptions returns the canonical engine settings.
func DefaultOptions() Options {
	return Options{
		Steps:     weights.DefaultSteps(),
		ColdStart: coldstart.CompleteThreshold,
		Selector:  selector.DefaultOptions(),
		Trigger:   trigger.DefaultOptions(),
	}
}

// FromConfig maps the application configuration onto engine options.
func FromConfig(cfg *config.Config) Options {
	return Options{
		Steps: weights.Steps{
			Correct:   cfg.Weights.CorrectStep,
			Incorrect: cfg.Weights.IncorrectStep,
			Skip:      cfg.Weights.SkipStep,
		},
		CountSkips: cfg.Engine.CountSkips,
		ColdStart:  cfg.ColdStart.CompleteThreshold,
		Selector: selector.Options{
			MaxPrimary:    cfg.Selector.MaxPrimary,
			MaxSubtopics:  cfg.Selector.MaxSubtopics,
			MaxBranches:   cfg.Selector.MaxBranches,
			MaxAdjacent:   cfg.Selector.MaxAdjacent,
			DefaultTopics: cfg.Selector.DefaultTopics,
		},
		Trigger: trigger.Options{
			MilestoneInterval: cfg.Engine.MilestoneInterval,
			Cooldown:          cfg.GenerationCooldown(),
			Timeout:           cfg.GenerationTimeout(),
			RecentContext:     session.RecentLogCapacity,
		},
	}
}

// Engine is the host-facing entry point of the personalization core. It owns
// one session per user, routes interaction events through the recorder, and
// drives the generation trigger. Profile persistence is fire-and-forget:
// failures are logged through the sink and in-memory state stays
// authoritative.
type Engine struct {
	deps Deps
	opts Options

	recorder *session.Recorder
	trigger  *trigger.Trigger

	mu       sync.Mutex
	sessions map[string]*session.Session

	saves sync.WaitGroup
}

// New creates an engine around its collaborators.
func New(deps Deps, opts Options) *Engine {
	if deps.Sink == nil {
		deps.Sink = events.NopSink{}
	}
	if opts.Steps == (weights.Steps{}) {
		opts = DefaultOptions()
	}

	policy := coldstart.NewPolicy(opts.ColdStart)
	sel := selector.New(deps.Relations, policy, opts.Selector, rand.New(rand.NewSource(rand.Int63())))

	return &Engine{
		deps:     deps,
		opts:     opts,
		recorder: session.NewRecorder(opts.CountSkips),
		trigger: trigger.New(trigger.Deps{
			Selector:  sel,
			Generator: deps.Generator,
			Dedup:     dedup.NewEngine(deps.Repo, dedup.DefaultThresholds()),
			Repo:      deps.Repo,
			Sink:      deps.Sink,
		}, opts.Trigger),
		sessions: make(map[string]*session.Session),
	}
}

// StartSession returns the session for a user, loading the profile from the
// store exactly once. Subsequent calls return the in-memory session; the
// store is write-only for the rest of the session.
func (e *Engine) StartSession(ctx context.Context, userID string) (*session.Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	e.mu.Lock()
	if sess, ok := e.sessions[userID]; ok {
		e.mu.Unlock()
		return sess, nil
	}
	e.mu.Unlock()

	profile := e.loadProfile(ctx, userID)

	e.mu.Lock()
	defer e.mu.Unlock()
	// A concurrent StartSession may have won the race; the first session
	// stays authoritative.
	if sess, ok := e.sessions[userID]; ok {
		return sess, nil
	}
	sess := session.New(profile, e.opts.Steps)
	e.sessions[userID] = sess
	return sess, nil
}

// loadProfile fetches the persisted profile, falling back to a fresh one on
// not-found or on load failure. A profile that claims many answers but holds
// only default weights is a load or merge bug; it is reported loudly and a
// fresh profile is preferred over letting the broken state overwrite the
// store later.
func (e *Engine) loadProfile(ctx context.Context, userID string) *core.Profile {
	profile, err := e.deps.Profiles.LoadProfile(ctx, userID)
	if errors.Is(err, core.ErrProfileNotFound) {
		return core.NewProfile(userID)
	}
	if err != nil {
		logger.Error("profile load failed, starting fresh", err, map[string]interface{}{"user_id": userID})
		return core.NewProfile(userID)
	}

	if profile.TotalAnswered > 0 && weights.NewTree(profile.Topics, e.opts.Steps).IsAllDefault() {
		e.deps.Sink.Emit(ctx, core.GenerationEvent{
			Type:   core.EventSuspiciousProfile,
			UserID: userID,
			Error:  fmt.Sprintf("profile claims %d answers but every weight is default", profile.TotalAnswered),
		})
		return core.NewProfile(userID)
	}
	return profile
}

// RecordAnswer routes one interaction event through the engine: it records
// the event, schedules a fire-and-forget profile save, and runs the
// milestone check. A milestone fires the generation cycle on its own
// goroutine, so this call never blocks on the generator. It returns false
// for malformed input (missing user id or invalid event) and true once the
// event is recorded; generation failures are reported through the sink,
// never to the caller.
func (e *Engine) RecordAnswer(ctx context.Context, userID string, event core.InteractionEvent) bool {
	if userID == "" {
		return false
	}

	sess, err := e.StartSession(ctx, userID)
	if err != nil {
		return false
	}

	if !e.recorder.Record(sess, event) {
		return false
	}

	e.persistAsync(sess)
	e.trigger.MaybeGenerate(sess)
	return true
}

// ForceGenerate runs one generation cycle for a user immediately, bypassing
// the milestone guard. Used by the manual CLI path.
func (e *Engine) ForceGenerate(ctx context.Context, userID string) (trigger.Result, error) {
	sess, err := e.StartSession(ctx, userID)
	if err != nil {
		return trigger.Result{}, err
	}
	return e.trigger.ForceGenerate(ctx, sess)
}

// Session returns the in-memory session for a user, or nil if none started.
func (e *Engine) Session(userID string) *session.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[userID]
}

// Flush waits for all pending profile saves and in-flight generation cycles.
// Call before shutdown.
func (e *Engine) Flush() {
	e.saves.Wait()
	e.trigger.Wait()
}

// persistAsync saves the profile without blocking the event stream. The
// profile is snapshotted synchronously on the stream, so the save goroutine
// never reads the live tree while later events mutate it. Errors are logged
// and the next mutation attempts again; they are never retried in a tight
// loop.
func (e *Engine) persistAsync(sess *session.Session) {
	snapshot := sess.Snapshot()
	e.saves.Add(1)
	go func() {
		defer e.saves.Done()
		if err := e.deps.Profiles.SaveProfile(context.Background(), snapshot); err != nil {
			logger.Error("profile save failed", err, map[string]interface{}{"user_id": sess.UserID})
			return
		}
		sess.MarkSaved()
	}()
}
