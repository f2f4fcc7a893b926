package selector

// RelationTable resolves topics to related topics. Implementations must be
// symmetric: if b is a neighbor of a, a is a neighbor of b.
type RelationTable interface {
	Neighbors(topic string) []string
}

// StaticRelations is an in-memory symmetric relation table built from a
// one-directional seed map.
type StaticRelations struct {
	neighbors map[string][]string
}

// NewStaticRelations builds a symmetric relation table from seed pairs.
func NewStaticRelations(seed map[string][]string) *StaticRelations {
	neighbors := make(map[string][]string)
	add := func(a, b string) {
		for _, existing := range neighbors[a] {
			if existing == b {
				return
			}
		}
		neighbors[a] = append(neighbors[a], b)
	}
	for topic, related := range seed {
		for _, other := range related {
			add(topic, other)
			add(other, topic)
		}
	}
	return &StaticRelations{neighbors: neighbors}
}

// Neighbors returns the topics related to topic, in insertion order.
func (r *StaticRelations) Neighbors(topic string) []string {
	related := r.neighbors[topic]
	out := make([]string, len(related))
	copy(out, related)
	return out
}

// DefaultRelations returns the built-in quiz topic adjacency graph.
func DefaultRelations() *StaticRelations {
	return NewStaticRelations(map[string][]string{
		"Science":    {"Technology", "Mathematics", "Nature"},
		"History":    {"Geography", "Politics", "Art"},
		"Geography":  {"Nature", "Science"},
		"Art":        {"Literature", "Music"},
		"Literature": {"History", "Language"},
		"Sports":     {"Geography", "History"},
		"Music":      {"History"},
		"Technology": {"Mathematics"},
		"Movies":     {"Music", "Literature"},
	})
}
