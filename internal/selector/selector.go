package selector

import (
	"math/rand"
	"sort"

	"quizfeed/internal/coldstart"
	"quizfeed/internal/core"
	"quizfeed/internal/session"
)

// Options tunes how many entries of each specificity level go into a spec.
type Options struct {
	MaxPrimary    int      // Plain topics taken from the ranking
	MaxSubtopics  int      // topic:subtopic combinations added
	MaxBranches   int      // topic:branch combinations added
	MaxAdjacent   int      // Cap on adjacency expansion
	DefaultTopics []string // Fallback when there is no interaction history
}

// DefaultOptions returns the standard spec composition limits.
func DefaultOptions() Options {
	return Options{
		MaxPrimary:    3,
		MaxSubtopics:  2,
		MaxBranches:   2,
		MaxAdjacent:   3,
		DefaultTopics: []string{"Science", "History", "Geography"},
	}
}

// TopicScore is one ranked topic.
type TopicScore struct {
	Topic string  `json:"topic"` // Topic name
	Score float64 `json:"score"` // Recency-weighted score plus tree weight
}

// Selector ranks a user's topics and composes the topic specification sent
// to the content generator. The relation table and cold-start policy are
// injected so tests can substitute them.
type Selector struct {
	relations RelationTable
	policy    *coldstart.Policy
	opts      Options
	rng       *rand.Rand
}

// New creates a selector. A nil rng gets a time-seeded source; tests inject
// a fixed seed for deterministic adjacency shuffles.
func New(relations RelationTable, policy *coldstart.Policy, opts Options, rng *rand.Rand) *Selector {
	if relations == nil {
		relations = DefaultRelations()
	}
	if policy == nil {
		policy = coldstart.NewPolicy(0)
	}
	if opts.MaxPrimary <= 0 {
		opts = DefaultOptions()
	}
	return &Selector{relations: relations, policy: policy, opts: opts, rng: rng}
}

// RecencyWeight is the linear decay applied to the interaction at index in a
// log of logLength entries, most recent first: 1.0 for the newest entry down
// to 0.5 for the oldest of a full log.
func RecencyWeight(index, logLength int) float64 {
	if logLength <= 0 {
		return 1.0
	}
	return 1.0 - (float64(index)/float64(logLength))*0.5
}

// ScoreTopics ranks the topics visible in the session, descending. A topic's
// score is the sum of recency weights over log entries mentioning it, plus
// its own tree weight; topics present only in the weight tree score on the
// tree weight alone.
func (s *Selector) ScoreTopics(sess *session.Session) []TopicScore {
	recent := sess.Recent()

	sums := make(map[string]float64)
	for i, event := range recent {
		sums[event.Topic] += RecencyWeight(i, len(recent))
	}
	for topic := range sess.Tree.Topics() {
		if _, seen := sums[topic]; !seen {
			sums[topic] = 0
		}
	}

	ranked := make([]TopicScore, 0, len(sums))
	for topic, sum := range sums {
		ranked = append(ranked, TopicScore{Topic: topic, Score: sum + sess.Tree.Get(topic)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Topic < ranked[j].Topic
	})
	return ranked
}

// BuildSpec composes the weighted topic hint for one generation cycle: the
// top plain topics, the strongest topic:subtopic and topic:branch
// combinations, and an adjacency expansion sized by the cold-start phase.
func (s *Selector) BuildSpec(sess *session.Session) core.TopicSpec {
	state := s.policy.Classify(sess.Profile.TotalAnswered, sess.Profile.ColdStartComplete)

	ranked := s.ScoreTopics(sess)
	if len(ranked) == 0 {
		return core.TopicSpec{
			Primary:          append([]string(nil), s.opts.DefaultTopics...),
			Phase:            state.Phase,
			ExplorationRatio: state.ExplorationRatio(),
		}
	}

	topN := ranked
	if len(topN) > s.opts.MaxPrimary {
		topN = topN[:s.opts.MaxPrimary]
	}

	primary := make([]string, 0, s.opts.MaxPrimary+s.opts.MaxSubtopics+s.opts.MaxBranches)
	for _, ts := range topN {
		primary = append(primary, ts.Topic)
	}

	// Strongest subtopic under each qualified topic, then the strongest
	// branch under that subtopic, mixing specificity levels intentionally.
	subtopics := 0
	branches := 0
	for _, ts := range topN {
		if subtopics >= s.opts.MaxSubtopics {
			break
		}
		subtopic, subNode := bestChild(sess.Tree.Topics()[ts.Topic])
		if subtopic == "" {
			continue
		}
		primary = append(primary, ts.Topic+":"+subtopic)
		subtopics++

		if branches < s.opts.MaxBranches {
			if branch, _ := bestChild(subNode); branch != "" {
				primary = append(primary, ts.Topic+":"+subtopic+":"+branch)
				branches++
			}
		}
	}

	return core.TopicSpec{
		Primary:          primary,
		Adjacent:         s.adjacent(topN),
		Phase:            state.Phase,
		ExplorationRatio: state.ExplorationRatio(),
	}
}

// adjacent collects neighbors of the primary topics, excluding the primaries
// themselves, shuffles to break ties and caps the result.
func (s *Selector) adjacent(topN []TopicScore) []string {
	taken := make(map[string]bool, len(topN))
	for _, ts := range topN {
		taken[ts.Topic] = true
	}

	var candidates []string
	seen := make(map[string]bool)
	for _, ts := range topN {
		for _, neighbor := range s.relations.Neighbors(ts.Topic) {
			if !taken[neighbor] && !seen[neighbor] {
				seen[neighbor] = true
				candidates = append(candidates, neighbor)
			}
		}
	}

	shuffle := func(n int, swap func(i, j int)) {
		if s.rng != nil {
			s.rng.Shuffle(n, swap)
		} else {
			rand.Shuffle(n, swap)
		}
	}
	shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	if len(candidates) > s.opts.MaxAdjacent {
		candidates = candidates[:s.opts.MaxAdjacent]
	}
	return candidates
}

// bestChild returns the highest-weight child of node, or "" if node has no
// children.
func bestChild(node *core.WeightNode) (string, *core.WeightNode) {
	if node == nil {
		return "", nil
	}
	bestName := ""
	var best *core.WeightNode
	for name, child := range node.Children {
		if best == nil || child.Weight > best.Weight ||
			(child.Weight == best.Weight && name < bestName) {
			bestName = name
			best = child
		}
	}
	return bestName, best
}
