package handlers

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quizfeed/internal/config"
	"quizfeed/internal/dedup"
	"quizfeed/internal/store"
)

// NewAuditCmd creates the audit command
func NewAuditCmd() *cobra.Command {
	var maxDiff int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Scan the stored question corpus for likely duplicates",
		Long: `Audit runs the post-hoc word-difference heuristic over every stored
question pair: two questions whose normalized word sets differ by at most
the threshold are reported. This is an offline review tool; it does not
delete anything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(maxDiff)
		},
	}

	cmd.Flags().IntVar(&maxDiff, "max-diff", 0, "word-set difference threshold (default from config)")

	return cmd
}

func runAudit(maxDiff int) error {
	cfg := config.Get()
	if maxDiff <= 0 {
		maxDiff = cfg.Dedup.AuditWordDiff
	}

	st, err := store.NewStore(cfg.Store.Directory)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	items, err := st.ListQuestions(context.Background())
	if err != nil {
		return err
	}

	pairs := dedup.AuditCorpus(items, maxDiff)
	if len(pairs) == 0 {
		fmt.Printf("No likely duplicates among %d stored questions (threshold %d)\n", len(items), maxDiff)
		return nil
	}

	texts := make(map[string]string, len(items))
	for _, item := range items {
		texts[item.ID] = item.Text
	}

	fmt.Printf("%d likely duplicate pairs among %d questions:\n\n", len(pairs), len(items))
	for _, pair := range pairs {
		fmt.Printf("diff=%d\n  %s\n  %s\n\n", pair.WordDiff, texts[pair.FirstID], texts[pair.SecondID])
	}
	return nil
}
