package weights

import (
	"math"

	"quizfeed/internal/core"
)

// defaultTolerance is how close a weight must be to the neutral value for
// IsAllDefault to consider it untouched.
const defaultTolerance = 0.01

// Steps holds the base adjustment increments for each outcome. The increments
// scale with distance from the weight bounds, so repeated outcomes have
// diminishing returns.
type Steps struct {
	Correct   float64 // Base increment for a correct answer
	Incorrect float64 // Base decrement for an incorrect answer
	Skip      float64 // Per-level decrement applied on a skip
}

// DefaultSteps returns the standard adjustment increments.
func DefaultSteps() Steps {
	return Steps{Correct: 0.1, Incorrect: 0.15, Skip: 0.05}
}

// Tree is the hierarchical interest weight store for one user. It operates
// directly on the profile's topic map, so mutations are visible to whoever
// persists the profile. Not safe for concurrent use; each user's events are
// processed on a single sequential stream.
type Tree struct {
	topics map[string]*core.WeightNode
	steps  Steps
}

// NewTree wraps a profile's topic map. A nil map is replaced with an empty
// one, but callers that want persistence to observe writes should pass
// profile.Topics directly.
func NewTree(topics map[string]*core.WeightNode, steps Steps) *Tree {
	if topics == nil {
		topics = make(map[string]*core.WeightNode)
	}
	return &Tree{topics: topics, steps: steps}
}

// Get returns the weight at path (topic, subtopic, branch). Missing nodes are
// reported at the default weight and are not created.
func (t *Tree) Get(path ...string) float64 {
	node := t.lookup(path)
	if node == nil {
		return core.DefaultWeight
	}
	return node.Weight
}

// Adjust applies the outcome-specific delta to the node at path, creating
// missing nodes along the way at the default weight. It returns the new
// weight, clamped to [0,1].
func (t *Tree) Adjust(outcome core.Outcome, path ...string) float64 {
	node := t.ensure(path)
	if node == nil {
		return core.DefaultWeight
	}

	switch outcome {
	case core.OutcomeCorrect:
		// Diminishing returns approaching 1.
		node.Weight += t.steps.Correct * (1 - node.Weight)
	case core.OutcomeIncorrect:
		// Diminishing returns approaching 0.
		node.Weight -= t.steps.Incorrect * node.Weight
	case core.OutcomeSkipped:
		// A skip is weaker evidence of disinterest than a wrong answer; the
		// recorder applies this small pull toward 0 at every level present.
		node.Weight -= t.steps.Skip * node.Weight
	}

	node.Weight = math.Max(0.0, math.Min(1.0, node.Weight))
	return node.Weight
}

// IsAllDefault reports whether every reachable node sits within tolerance of
// the default weight. A freshly loaded profile that is suspiciously all
// default is a load or merge bug, not real user state.
func (t *Tree) IsAllDefault() bool {
	for _, node := range t.topics {
		if !allDefault(node) {
			return false
		}
	}
	return true
}

// Topics exposes the underlying topic map, primarily for persistence.
func (t *Tree) Topics() map[string]*core.WeightNode {
	return t.topics
}

func allDefault(node *core.WeightNode) bool {
	if node == nil {
		return true
	}
	if math.Abs(node.Weight-core.DefaultWeight) > defaultTolerance {
		return false
	}
	for _, child := range node.Children {
		if !allDefault(child) {
			return false
		}
	}
	return true
}

// lookup walks path without creating nodes. Returns nil if any segment is
// missing or the path is empty.
func (t *Tree) lookup(path []string) *core.WeightNode {
	if len(path) == 0 {
		return nil
	}
	node, ok := t.topics[path[0]]
	if !ok {
		return nil
	}
	for _, segment := range path[1:] {
		child, ok := node.Children[segment]
		if !ok {
			return nil
		}
		node = child
	}
	return node
}

// ensure walks path creating missing nodes at the default weight.
func (t *Tree) ensure(path []string) *core.WeightNode {
	if len(path) == 0 {
		return nil
	}
	node, ok := t.topics[path[0]]
	if !ok {
		node = &core.WeightNode{Weight: core.DefaultWeight}
		t.topics[path[0]] = node
	}
	for _, segment := range path[1:] {
		if node.Children == nil {
			node.Children = make(map[string]*core.WeightNode)
		}
		child, ok := node.Children[segment]
		if !ok {
			child = &core.WeightNode{Weight: core.DefaultWeight}
			node.Children[segment] = child
		}
		node = child
	}
	return node
}
