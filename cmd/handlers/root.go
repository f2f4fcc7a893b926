package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quizfeed/internal/config"
	"quizfeed/internal/logger"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "quizfeed",
		Short: "Quizfeed is a personalization engine for generated quiz content.",
		Long: `Quizfeed tracks per-user interest across topics, subtopics and branches,
decides what content to request more of, throttles generation of new quiz
items, and filters near-duplicate questions before they are stored.

The engine itself is a library; these commands exercise it against the
local store for simulation, inspection and corpus auditing.`,
	}

	// Initialize configuration
	cobra.OnInitialize(initConfig)

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.quizfeed.yaml)")

	// Add subcommands
	rootCmd.AddCommand(NewSimulateCmd())
	rootCmd.AddCommand(NewGenerateCmd())
	rootCmd.AddCommand(NewAuditCmd())
	rootCmd.AddCommand(NewProfileCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
}
