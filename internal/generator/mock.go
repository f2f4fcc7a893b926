package generator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"quizfeed/internal/core"
)

// MockGenerator implements Generator for testing and offline simulation. It
// fabricates deterministic questions cycling over the spec's topics.
type MockGenerator struct {
	batchSize int
	calls     int
}

// NewMockGenerator creates a mock generator producing batchSize candidates
// per call.
func NewMockGenerator(batchSize int) *MockGenerator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &MockGenerator{batchSize: batchSize}
}

// Generate fabricates one batch. Each call produces distinct question texts
// so repeated cycles do not trip the exact dedup filter by accident.
func (m *MockGenerator) Generate(ctx context.Context, spec core.TopicSpec, recentQuestionTexts []string) ([]core.CandidateItem, error) {
	pool := append(append([]string(nil), spec.Primary...), spec.Adjacent...)
	if len(pool) == 0 {
		pool = []string{"General Knowledge"}
	}

	m.calls++
	candidates := make([]core.CandidateItem, 0, m.batchSize)
	for i := 0; i < m.batchSize; i++ {
		entry := pool[i%len(pool)]
		topic, subtopic, branch := SplitTopicPath(entry)

		candidates = append(candidates, core.CandidateItem{
			ID:         uuid.NewString(),
			Text:       fmt.Sprintf("Sample question %d.%d about %s facts and fundamentals?", m.calls, i+1, entry),
			Answers:    []string{fmt.Sprintf("Answer %d.%d", m.calls, i+1), "Option B", "Option C", "Option D"},
			Topic:      topic,
			Subtopic:   subtopic,
			Branch:     branch,
			Tags:       []string{"sample", "mock"},
			Difficulty: "medium",
		})
	}
	return candidates, nil
}
