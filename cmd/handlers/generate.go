package handlers

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quizfeed/internal/config"
	"quizfeed/internal/engine"
	"quizfeed/internal/events"
	"quizfeed/internal/generator"
	"quizfeed/internal/store"
)

// NewGenerateCmd creates the generate command
func NewGenerateCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run one generation cycle for a user immediately",
		Long: `Generate bypasses the milestone guard and runs a single generation cycle:
build the topic spec from the user's stored profile, call the Gemini
generator, filter duplicates and persist the survivors. Requires a
GEMINI_API_KEY.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(userID)
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id to generate for (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runGenerate(userID string) error {
	cfg := config.Get()

	st, err := store.NewStore(cfg.Store.Directory)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	gen, err := generator.NewClient(cfg.Gemini.Model, cfg.Gemini.Temperature, cfg.Generation.BatchSize)
	if err != nil {
		return err
	}

	eng := engine.New(engine.Deps{
		Profiles:  st,
		Generator: gen,
		Repo:      st,
		Sink:      events.NewLogSink(),
	}, engine.FromConfig(cfg))

	result, err := eng.ForceGenerate(context.Background(), userID)
	if err != nil {
		return err
	}
	eng.Flush()

	fmt.Printf("Generated %d candidates, saved %d after dedup\n", result.Generated, result.Saved)
	return nil
}
