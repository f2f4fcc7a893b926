package coldstart

// Default thresholds for the cold-start phases, in answered questions.
const (
	Phase1End         = 3  // Below this: phase 1, almost no signal
	Phase2End         = 12 // Below this: phase 2, weights forming
	CompleteThreshold = 20 // At or above this: cold start is over
)

// State is the result of classifying a user's cold-start progress. Phase is
// 0 when the cold start is complete.
type State struct {
	Complete bool // Whether the cold-start period is over
	Phase    int  // 1, 2 or 3 while not complete; 0 when complete
}

// Policy classifies users into cold-start phases from their total answered
// count. It is a pure function of its inputs; phase only biases the
// exploration ratio and never blocks generation.
type Policy struct {
	completeThreshold int
}

// NewPolicy returns a policy that considers the cold start complete at
// completeThreshold answered questions. Non-positive values fall back to the
// default threshold.
func NewPolicy(completeThreshold int) *Policy {
	if completeThreshold <= 0 {
		completeThreshold = CompleteThreshold
	}
	return &Policy{completeThreshold: completeThreshold}
}

// Classify returns the cold-start state for a user. A profile flagged
// complete stays complete regardless of the count.
func (p *Policy) Classify(totalAnswered int, coldStartComplete bool) State {
	if coldStartComplete || totalAnswered >= p.completeThreshold {
		return State{Complete: true}
	}
	switch {
	case totalAnswered < Phase1End:
		return State{Phase: 1}
	case totalAnswered < Phase2End:
		return State{Phase: 2}
	default:
		return State{Phase: 3}
	}
}

// ExplorationRatio maps a cold-start state to the fraction of generation
// effort aimed at topics outside the user's established interests. Early
// phases explore aggressively because the weights are unreliable.
func (s State) ExplorationRatio() float64 {
	if s.Complete {
		return 0.2
	}
	switch s.Phase {
	case 1:
		return 0.8
	case 2:
		return 0.5
	default:
		return 0.3
	}
}
