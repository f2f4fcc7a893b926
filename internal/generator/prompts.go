package generator

import (
	"fmt"
	"strings"

	"quizfeed/internal/core"
)

// BuildGenerationPrompt composes the generation prompt from a topic
// specification. Primary entries carry the user's measured interests at
// mixed specificity; adjacent entries widen coverage; recent texts tell the
// model what to avoid repeating.
func BuildGenerationPrompt(spec core.TopicSpec, recentQuestionTexts []string, batchSize int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate %d multiple-choice quiz questions as a JSON array.\n\n", batchSize)

	b.WriteString("PRIMARY TOPICS (weighted, most relevant first; entries may specify topic, topic:subtopic or topic:subtopic:branch):\n")
	for i, entry := range spec.Primary {
		fmt.Fprintf(&b, "%d. %s\n", i+1, entry)
	}

	if len(spec.Adjacent) > 0 {
		b.WriteString("\nADJACENT TOPICS (use sparingly, for variety):\n")
		for _, entry := range spec.Adjacent {
			fmt.Fprintf(&b, "- %s\n", entry)
		}
	}

	exploration := int(spec.ExplorationRatio * 100)
	fmt.Fprintf(&b, "\nAim roughly %d%% of the questions at adjacent or broader material and the rest at the primary topics.\n", exploration)

	if len(recentQuestionTexts) > 0 {
		b.WriteString("\nDo NOT repeat or closely paraphrase any of these recent questions:\n")
		for _, text := range recentQuestionTexts {
			fmt.Fprintf(&b, "- %s\n", text)
		}
	}

	b.WriteString(`
REQUIREMENTS:
- Each question has exactly four answer options with the correct answer first.
- Mix difficulties: mostly medium, some easy and hard.
- Every question must be factually accurate and unambiguous.
- Fill topic, and subtopic/branch when the primary entry specifies them.`)

	return b.String()
}
