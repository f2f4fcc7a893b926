package events

import (
	"context"
	"sync"

	"quizfeed/internal/core"
	"quizfeed/internal/logger"
)

// Sink receives structured events from the generation pipeline. Sinks are
// purely informational; no core behavior depends on them and Emit must never
// block for long or fail loudly.
type Sink interface {
	Emit(ctx context.Context, event core.GenerationEvent)
}

// LogSink writes events through the application logger. This is the default
// sink; external dashboards consume the structured log stream.
type LogSink struct{}

// NewLogSink creates a log-backed sink.
func NewLogSink() *LogSink {
	return &LogSink{}
}

// Emit logs the event with its structured fields.
func (s *LogSink) Emit(ctx context.Context, event core.GenerationEvent) {
	log := logger.Get().With().
		Str("type", string(event.Type)).
		Str("user_id", event.UserID).
		Strs("primary_topics", event.PrimaryTopics).
		Strs("adjacent_topics", event.AdjacentTopics).
		Int("generated", event.Generated).
		Int("saved", event.Saved).
		Logger()

	switch event.Type {
	case core.EventGenerationFailed, core.EventPersistenceFailed:
		log.Warn().Str("error", event.Error).Msg("pipeline event")
	case core.EventSuspiciousProfile:
		log.Error().Str("error", event.Error).Msg("pipeline event")
	default:
		log.Info().Msg("pipeline event")
	}
}

// Collector retains emitted events in memory. Used by tests and the
// simulation command to assert on pipeline behavior.
type Collector struct {
	mu     sync.Mutex
	events []core.GenerationEvent
}

// NewCollector creates an in-memory sink.
func NewCollector() *Collector {
	return &Collector{}
}

// Emit appends the event.
func (c *Collector) Emit(ctx context.Context, event core.GenerationEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

// Events returns a copy of everything emitted so far.
func (c *Collector) Events() []core.GenerationEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.GenerationEvent, len(c.events))
	copy(out, c.events)
	return out
}

// ByType returns the emitted events of one type.
func (c *Collector) ByType(eventType core.GenerationEventType) []core.GenerationEvent {
	var out []core.GenerationEvent
	for _, e := range c.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// NopSink discards all events.
type NopSink struct{}

// Emit does nothing.
func (NopSink) Emit(ctx context.Context, event core.GenerationEvent) {}
