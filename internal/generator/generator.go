package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"google.golang.org/genai"

	"quizfeed/internal/core"
)

const (
	// DefaultModel is the default Gemini model used for question generation.
	DefaultModel = "gemini-flash-lite-latest"
	// DefaultBatchSize is how many candidates one generation call asks for.
	DefaultBatchSize = 10
)

// Generator produces candidate quiz items for a topic specification. The
// recent question texts let the model steer away from content the user just
// saw; they are a hint, not a guarantee, and dedup runs afterwards either way.
type Generator interface {
	Generate(ctx context.Context, spec core.TopicSpec, recentQuestionTexts []string) ([]core.CandidateItem, error)
}

// Client is the Gemini-backed generator.
type Client struct {
	modelName   string
	temperature float32
	batchSize   int
	gClient     *genai.Client
}

// NewClient creates a Gemini generator client. The API key is resolved in
// order of preference from GEMINI_API_KEY and its alternatives, then the
// gemini.api_key config value.
func NewClient(modelName string, temperature float32, batchSize int) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		if apiKey = os.Getenv("GOOGLE_GEMINI_API_KEY"); apiKey == "" {
			apiKey = viper.GetString("gemini.api_key")
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required. Set GEMINI_API_KEY or gemini.api_key in the config file")
	}

	if modelName == "" {
		modelName = viper.GetString("gemini.model")
		if modelName == "" {
			modelName = DefaultModel
		}
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	ctx := context.Background()
	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		modelName:   modelName,
		temperature: temperature,
		batchSize:   batchSize,
		gClient:     gClient,
	}, nil
}

// generatedQuestion is the wire shape the response schema enforces.
type generatedQuestion struct {
	Text       string   `json:"text"`
	Answers    []string `json:"answers"`
	Topic      string   `json:"topic"`
	Subtopic   string   `json:"subtopic"`
	Branch     string   `json:"branch"`
	Tags       []string `json:"tags"`
	Difficulty string   `json:"difficulty"`
}

// Generate asks the model for one batch of candidates. The call honors the
// context deadline; the generator is the only unbounded-latency dependency,
// so callers are expected to pass a context with a timeout.
func (c *Client) Generate(ctx context.Context, spec core.TopicSpec, recentQuestionTexts []string) ([]core.CandidateItem, error) {
	prompt := BuildGenerationPrompt(spec, recentQuestionTexts, c.batchSize)

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	resp, err := c.gClient.Models.GenerateContent(ctx, c.modelName, contents, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   questionBatchSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate questions: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	var generated []generatedQuestion
	if err := json.Unmarshal([]byte(text), &generated); err != nil {
		return nil, fmt.Errorf("failed to parse generated questions: %w", err)
	}

	candidates := make([]core.CandidateItem, 0, len(generated))
	for _, q := range generated {
		if q.Text == "" || len(q.Answers) == 0 {
			continue
		}
		candidates = append(candidates, core.CandidateItem{
			ID:         uuid.NewString(),
			Text:       q.Text,
			Answers:    q.Answers,
			Topic:      q.Topic,
			Subtopic:   q.Subtopic,
			Branch:     q.Branch,
			Tags:       q.Tags,
			Difficulty: q.Difficulty,
		})
	}
	return candidates, nil
}

// questionBatchSchema returns the Gemini response schema enforcing
// structured JSON output for a question batch.
func questionBatchSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"text": {
					Type:        genai.TypeString,
					Description: "The question text, phrased as a single clear question",
				},
				"answers": {
					Type:        genai.TypeArray,
					Description: "Four answer options with the correct answer first",
					Items:       &genai.Schema{Type: genai.TypeString},
				},
				"topic": {
					Type:        genai.TypeString,
					Description: "Top-level topic the question belongs to",
				},
				"subtopic": {
					Type:        genai.TypeString,
					Description: "Optional subtopic, empty if not applicable",
				},
				"branch": {
					Type:        genai.TypeString,
					Description: "Optional branch under the subtopic, empty if not applicable",
				},
				"tags": {
					Type:        genai.TypeArray,
					Description: "2-4 lowercase content tags",
					Items:       &genai.Schema{Type: genai.TypeString},
				},
				"difficulty": {
					Type:        genai.TypeString,
					Description: "One of: easy, medium, hard",
				},
			},
			Required: []string{"text", "answers", "topic", "difficulty"},
		},
	}
}

// SplitTopicPath splits an enhanced topic entry ("Science:Physics:Optics")
// into its hierarchy levels. Missing levels come back empty.
func SplitTopicPath(entry string) (topic, subtopic, branch string) {
	parts := strings.SplitN(entry, ":", 3)
	topic = parts[0]
	if len(parts) > 1 {
		subtopic = parts[1]
	}
	if len(parts) > 2 {
		branch = parts[2]
	}
	return topic, subtopic, branch
}
