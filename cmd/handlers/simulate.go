package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quizfeed/internal/config"
	"quizfeed/internal/core"
	"quizfeed/internal/engine"
	"quizfeed/internal/events"
	"quizfeed/internal/generator"
	"quizfeed/internal/store"
)

// NewSimulateCmd creates the simulate command
func NewSimulateCmd() *cobra.Command {
	var (
		userID string
		count  int
		topics string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Drive synthetic interaction events through the engine",
		Long: `Simulate feeds a stream of answer events through the full engine against
the local SQLite store and the mock generator: weights adjust, milestones
fire, candidates are deduplicated and persisted. Useful for inspecting
engine behavior without a live model.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(userID, count, topics)
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "demo", "user id to simulate")
	cmd.Flags().IntVarP(&count, "count", "n", 12, "number of interaction events")
	cmd.Flags().StringVarP(&topics, "topics", "t", "Science,History", "comma-separated topics to cycle through")

	return cmd
}

func runSimulate(userID string, count int, topics string) error {
	cfg := config.Get()

	st, err := store.NewStore(cfg.Store.Directory)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	topicList := strings.Split(topics, ",")
	for i := range topicList {
		topicList[i] = strings.TrimSpace(topicList[i])
	}

	sink := events.NewCollector()
	opts := engine.FromConfig(cfg)
	// A simulation crosses milestones within milliseconds; the production
	// cooldown would suppress everything after the first one.
	opts.Trigger.Cooldown = time.Millisecond

	eng := engine.New(engine.Deps{
		Profiles:  st,
		Generator: generator.NewMockGenerator(cfg.Generation.BatchSize),
		Repo:      st,
		Sink:      sink,
	}, opts)

	ctx := context.Background()
	outcomes := []core.Outcome{
		core.OutcomeCorrect, core.OutcomeCorrect, core.OutcomeCorrect,
		core.OutcomeIncorrect, core.OutcomeCorrect, core.OutcomeSkipped,
	}

	for i := 0; i < count; i++ {
		event := core.InteractionEvent{
			Timestamp:  time.Now().UTC(),
			Topic:      topicList[i%len(topicList)],
			Outcome:    outcomes[i%len(outcomes)],
			QuestionID: fmt.Sprintf("sim-%d", i),
		}
		if !eng.RecordAnswer(ctx, userID, event) {
			return fmt.Errorf("event %d was rejected", i)
		}
		// Give milestone timestamps room to differ.
		time.Sleep(2 * time.Millisecond)
	}
	eng.Flush()

	sess := eng.Session(userID)
	fmt.Printf("Simulated %d events for %s (total answered: %d)\n\n",
		count, userID, sess.Profile.TotalAnswered)

	for _, e := range sink.Events() {
		switch e.Type {
		case core.EventGenerationCompleted:
			fmt.Printf("milestone generation: primary=%v adjacent=%v generated=%d saved=%d\n",
				e.PrimaryTopics, e.AdjacentTopics, e.Generated, e.Saved)
		case core.EventGenerationFailed:
			fmt.Printf("generation failed: %s\n", e.Error)
		}
	}
	return nil
}
