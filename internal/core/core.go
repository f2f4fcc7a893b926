package core

import (
	"errors"
	"time"
)

// ErrProfileNotFound is returned by profile stores when a user has no
// persisted profile yet. A fresh profile is the correct response, not a
// failure.
var ErrProfileNotFound = errors.New("profile not found")

// Outcome describes how the user handled a question.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"   // User answered correctly
	OutcomeIncorrect Outcome = "incorrect" // User answered incorrectly
	OutcomeSkipped   Outcome = "skipped"   // User skipped the question
)

// Valid reports whether o is one of the known outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeCorrect, OutcomeIncorrect, OutcomeSkipped:
		return true
	}
	return false
}

// DefaultWeight is the neutral interest weight assigned to a topic node
// that has never been adjusted.
const DefaultWeight = 0.5

// WeightNode is one node of the hierarchical interest tree. Children are
// keyed by subtopic or branch name. Nodes are created lazily on write;
// reading a missing path never mutates the tree.
type WeightNode struct {
	Weight   float64                `json:"weight"`             // Interest weight in [0,1]
	Children map[string]*WeightNode `json:"children,omitempty"` // Subtopic or branch nodes
}

// Clone returns a deep copy of the node and its children.
func (n *WeightNode) Clone() *WeightNode {
	if n == nil {
		return nil
	}
	out := &WeightNode{Weight: n.Weight}
	if len(n.Children) > 0 {
		out.Children = make(map[string]*WeightNode, len(n.Children))
		for name, child := range n.Children {
			out.Children[name] = child.Clone()
		}
	}
	return out
}

// Profile is the per-user personalization state persisted between sessions.
type Profile struct {
	UserID            string                 `json:"user_id"`             // Owning user
	Topics            map[string]*WeightNode `json:"topics"`              // Topic-level weight tree
	ColdStartComplete bool                   `json:"cold_start_complete"` // Set once the cold-start phase ends
	TotalAnswered     int                    `json:"total_answered"`      // Monotonic count of answered questions
	LastRefreshed     time.Time              `json:"last_refreshed"`      // Last time the profile was mutated
}

// NewProfile returns an empty profile for a user starting their first session.
func NewProfile(userID string) *Profile {
	return &Profile{
		UserID: userID,
		Topics: make(map[string]*WeightNode),
	}
}

// Clone returns a deep copy of the profile, detached from the live weight
// tree so it can be serialized while the original keeps mutating.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	out.Topics = make(map[string]*WeightNode, len(p.Topics))
	for topic, node := range p.Topics {
		out.Topics[topic] = node.Clone()
	}
	return &out
}

// InteractionEvent is one user interaction with a served question.
// Subtopic and Branch are optional; Tags may be empty.
type InteractionEvent struct {
	Timestamp  time.Time `json:"timestamp"`          // When the interaction happened
	Topic      string    `json:"topic"`              // Topic of the question
	Subtopic   string    `json:"subtopic,omitempty"` // Optional subtopic
	Branch     string    `json:"branch,omitempty"`   // Optional branch under the subtopic
	Tags       []string  `json:"tags,omitempty"`     // Free-form content tags
	Outcome    Outcome   `json:"outcome"`            // correct, incorrect or skipped
	QuestionID string    `json:"question_id"`        // ID of the question interacted with
}

// CandidateItem is a freshly generated question before persistence. The
// Duplicate marker is set by the dedup engine; marked candidates are
// discarded instead of inserted.
type CandidateItem struct {
	ID         string   `json:"id"`                 // Unique identifier for the candidate
	Text       string   `json:"text"`               // Question text
	Answers    []string `json:"answers"`            // Answer options, correct answer first
	Topic      string   `json:"topic"`              // Topic of the question
	Subtopic   string   `json:"subtopic,omitempty"` // Optional subtopic
	Branch     string   `json:"branch,omitempty"`   // Optional branch
	Tags       []string `json:"tags,omitempty"`     // Content tags
	Difficulty string   `json:"difficulty"`         // easy, medium or hard
	Duplicate  bool     `json:"duplicate"`          // Marked by the dedup engine
}

// CorrectAnswer returns the correct answer for the candidate, or "" if the
// candidate has no answers.
func (c CandidateItem) CorrectAnswer() string {
	if len(c.Answers) == 0 {
		return ""
	}
	return c.Answers[0]
}

// TopicSpec is the weighted topic hint sent to the content generator. Primary
// entries mix specificity levels ("Science", "Science:Physics",
// "Science:Physics:Optics") so generation is neither too broad nor too
// narrow; Adjacent entries widen coverage without diluting the main signal.
type TopicSpec struct {
	Primary          []string `json:"primary"`           // Ordered enhanced topics, most relevant first
	Adjacent         []string `json:"adjacent"`          // Related topics from the adjacency table
	Phase            int      `json:"phase"`             // Cold-start phase (0 when complete)
	ExplorationRatio float64  `json:"exploration_ratio"` // Fraction of generation aimed at exploration
}

// MilestoneState tracks the last generation attempt for a user so a given
// answered-count threshold is processed at most once.
type MilestoneState struct {
	LastAttempt        time.Time `json:"last_attempt"`         // When generation last started
	LastProcessedCount int       `json:"last_processed_count"` // totalAnswered value already handled
}

// GenerationEventType labels events emitted by the generation pipeline.
type GenerationEventType string

const (
	EventGenerationStarted   GenerationEventType = "generation_started"
	EventGenerationCompleted GenerationEventType = "generation_completed"
	EventGenerationFailed    GenerationEventType = "generation_failed"
	EventPersistenceFailed   GenerationEventType = "persistence_failed"
	EventSuspiciousProfile   GenerationEventType = "suspicious_profile"
)

// GenerationEvent is the structured observability record emitted around a
// generation cycle. Purely informational; no core behavior depends on it.
type GenerationEvent struct {
	Type           GenerationEventType `json:"type"`                      // Event type
	UserID         string              `json:"user_id"`                   // User the cycle ran for
	PrimaryTopics  []string            `json:"primary_topics,omitempty"`  // Enhanced topics requested
	AdjacentTopics []string            `json:"adjacent_topics,omitempty"` // Adjacency expansion requested
	Generated      int                 `json:"generated"`                 // Candidates returned by the generator
	Saved          int                 `json:"saved"`                     // Candidates that survived dedup and persisted
	Error          string              `json:"error,omitempty"`           // Failure detail, empty on success
}
