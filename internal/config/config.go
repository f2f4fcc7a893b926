package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        App        `mapstructure:"app"`
	Weights    Weights    `mapstructure:"weights"`
	Engine     Engine     `mapstructure:"engine"`
	ColdStart  ColdStart  `mapstructure:"coldstart"`
	Selector   Selector   `mapstructure:"selector"`
	Generation Generation `mapstructure:"generation"`
	Dedup      Dedup      `mapstructure:"dedup"`
	Gemini     Gemini     `mapstructure:"gemini"`
	Store      Store      `mapstructure:"store"`
	Logging    Logging    `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	Debug   bool   `mapstructure:"debug"`
	DataDir string `mapstructure:"data_dir"`
}

// Weights holds the tuning constants for interest weight adjustment. The
// increments are deliberately configuration, not literals: only the
// diminishing-returns shape is fixed.
type Weights struct {
	CorrectStep   float64 `mapstructure:"correct_step"`   // Base increment for a correct answer
	IncorrectStep float64 `mapstructure:"incorrect_step"` // Base decrement for an incorrect answer
	SkipStep      float64 `mapstructure:"skip_step"`      // Per-level decrement distributed on skip
}

// Engine holds milestone and event-counting configuration
type Engine struct {
	MilestoneInterval int  `mapstructure:"milestone_interval"` // Answered-count multiple that triggers generation
	CountSkips        bool `mapstructure:"count_skips"`        // Whether skips increment the answered count
}

// ColdStart holds cold-start phase configuration
type ColdStart struct {
	CompleteThreshold int `mapstructure:"complete_threshold"` // Answers after which cold start is over
}

// Selector holds topic selection configuration
type Selector struct {
	MaxPrimary    int      `mapstructure:"max_primary"`    // Plain topics taken from the ranking
	MaxSubtopics  int      `mapstructure:"max_subtopics"`  // topic:subtopic combinations added
	MaxBranches   int      `mapstructure:"max_branches"`   // topic:branch combinations added
	MaxAdjacent   int      `mapstructure:"max_adjacent"`   // Cap on adjacency expansion
	DefaultTopics []string `mapstructure:"default_topics"` // Fallback when there is no history
}

// Generation holds generation trigger configuration
type Generation struct {
	Cooldown  string `mapstructure:"cooldown"`   // Minimum gap between attempts per user
	Timeout   string `mapstructure:"timeout"`    // Deadline on the external generator call
	BatchSize int    `mapstructure:"batch_size"` // Candidates requested per cycle
}

// Dedup holds duplicate detection thresholds
type Dedup struct {
	MinSharedKeywords int `mapstructure:"min_shared_keywords"` // Keyword overlap needed to flag a pair
	AuditWordDiff     int `mapstructure:"audit_word_diff"`     // Max word-set difference in the corpus audit
}

// Gemini holds Google Gemini configuration
type Gemini struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
}

// Store holds local storage configuration
type Store struct {
	Directory string `mapstructure:"directory"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var globalConfig *Config

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	// Configure viper
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".quizfeed")
		viper.SetConfigType("yaml")
	}

	// Set defaults
	setDefaults()

	// Bind environment variables
	bindEnvironmentVariables()

	// Enable automatic environment variable reading
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal into struct
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Apply post-processing
	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the loaded configuration, loading defaults if Load was never
// called.
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("failed to load configuration: %v", err))
		}
		return cfg
	}
	return globalConfig
}

// Reset clears the loaded configuration. Used by tests.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.data_dir", ".quizfeed")

	viper.SetDefault("weights.correct_step", 0.1)
	viper.SetDefault("weights.incorrect_step", 0.15)
	viper.SetDefault("weights.skip_step", 0.05)

	viper.SetDefault("engine.milestone_interval", 6)
	viper.SetDefault("engine.count_skips", false)

	viper.SetDefault("coldstart.complete_threshold", 20)

	viper.SetDefault("selector.max_primary", 3)
	viper.SetDefault("selector.max_subtopics", 2)
	viper.SetDefault("selector.max_branches", 2)
	viper.SetDefault("selector.max_adjacent", 3)
	viper.SetDefault("selector.default_topics", []string{"Science", "History", "Geography"})

	viper.SetDefault("generation.cooldown", "30s")
	viper.SetDefault("generation.timeout", "45s")
	viper.SetDefault("generation.batch_size", 10)

	viper.SetDefault("dedup.min_shared_keywords", 3)
	viper.SetDefault("dedup.audit_word_diff", 3)

	viper.SetDefault("gemini.model", "gemini-flash-lite-latest")
	viper.SetDefault("gemini.temperature", 0.7)

	viper.SetDefault("store.directory", ".quizfeed")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
}

// bindEnvironmentVariables binds environment variables to configuration keys
func bindEnvironmentVariables() {
	bindEnvKeys("gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("app.debug", []string{
		"DEBUG",
		"QUIZFEED_DEBUG",
	})

	bindEnvKeys("store.directory", []string{
		"QUIZFEED_DATA_DIR",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) error {
	if config.Store.Directory != "" {
		config.Store.Directory = expandPath(config.Store.Directory)
	}
	if config.App.DataDir != "" {
		config.App.DataDir = expandPath(config.App.DataDir)
	}

	// Validate durations
	durations := map[string]string{
		"generation.cooldown": config.Generation.Cooldown,
		"generation.timeout":  config.Generation.Timeout,
	}
	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	return nil
}

// validateConfig checks configuration consistency
func validateConfig(config *Config) error {
	if config.Engine.MilestoneInterval <= 0 {
		return fmt.Errorf("engine.milestone_interval must be positive, got %d", config.Engine.MilestoneInterval)
	}
	if config.Weights.CorrectStep <= 0 || config.Weights.CorrectStep > 1 {
		return fmt.Errorf("weights.correct_step must be in (0,1], got %f", config.Weights.CorrectStep)
	}
	if config.Weights.IncorrectStep <= 0 || config.Weights.IncorrectStep > 1 {
		return fmt.Errorf("weights.incorrect_step must be in (0,1], got %f", config.Weights.IncorrectStep)
	}
	if config.ColdStart.CompleteThreshold <= 0 {
		return fmt.Errorf("coldstart.complete_threshold must be positive, got %d", config.ColdStart.CompleteThreshold)
	}
	return nil
}

// GenerationCooldown returns the parsed cooldown duration.
func (c *Config) GenerationCooldown() time.Duration {
	d, err := time.ParseDuration(c.Generation.Cooldown)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GenerationTimeout returns the parsed generator call deadline.
func (c *Config) GenerationTimeout() time.Duration {
	d, err := time.ParseDuration(c.Generation.Timeout)
	if err != nil {
		return 45 * time.Second
	}
	return d
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		path = filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}
