package handlers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"quizfeed/internal/coldstart"
	"quizfeed/internal/config"
	"quizfeed/internal/core"
	"quizfeed/internal/store"
)

// NewProfileCmd creates the profile command
func NewProfileCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show a user's stored interest profile",
		Long: `Profile prints the persisted weight tree for a user together with their
cold-start state. Weights sit in [0,1] with 0.5 meaning neutral.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfile(userID)
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id to inspect (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runProfile(userID string) error {
	cfg := config.Get()

	st, err := store.NewStore(cfg.Store.Directory)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	profile, err := st.LoadProfile(context.Background(), userID)
	if errors.Is(err, core.ErrProfileNotFound) {
		fmt.Printf("No stored profile for %s\n", userID)
		return nil
	}
	if err != nil {
		return err
	}

	policy := coldstart.NewPolicy(cfg.ColdStart.CompleteThreshold)
	state := policy.Classify(profile.TotalAnswered, profile.ColdStartComplete)

	fmt.Printf("User:           %s\n", profile.UserID)
	fmt.Printf("Total answered: %d\n", profile.TotalAnswered)
	if state.Complete {
		fmt.Printf("Cold start:     complete\n")
	} else {
		fmt.Printf("Cold start:     phase %d\n", state.Phase)
	}
	fmt.Printf("Exploration:    %.0f%%\n", state.ExplorationRatio()*100)
	if !profile.LastRefreshed.IsZero() {
		fmt.Printf("Last refreshed: %s\n", profile.LastRefreshed.Format("2006-01-02 15:04:05"))
	}

	if len(profile.Topics) == 0 {
		fmt.Println("\nNo topic weights recorded yet.")
		return nil
	}

	fmt.Println("\nTopic weights:")
	printWeightTree(profile.Topics, 1)
	return nil
}

// printWeightTree prints a weight subtree sorted by weight descending, names
// as tiebreak.
func printWeightTree(nodes map[string]*core.WeightNode, depth int) {
	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		wi, wj := nodes[names[i]].Weight, nodes[names[j]].Weight
		if wi != wj {
			return wi > wj
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		node := nodes[name]
		fmt.Printf("%s%-24s %.3f\n", strings.Repeat("  ", depth), name, node.Weight)
		if len(node.Children) > 0 {
			printWeightTree(node.Children, depth+1)
		}
	}
}
