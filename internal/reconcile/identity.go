package reconcile

// Identifiable is anything carrying a client-visible external id.
type Identifiable interface {
	ExternalID() string
}

// Existing finds the node whose external id equals externalID. A false second
// result means the caller should create a new node.
func Existing[N Identifiable](nodes []N, externalID string) (N, bool) {
	for _, n := range nodes {
		if n.ExternalID() == externalID {
			return n, true
		}
	}
	var zero N
	return zero, false
}

// ExternalIDs returns the set of external ids in nodes.
func ExternalIDs[N Identifiable](nodes []N) map[string]bool {
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		ids[n.ExternalID()] = true
	}
	return ids
}

// Built tracks nodes already constructed during one build pass, keyed by
// external id. Lookups of ids not yet added resolve to the zero value, so a
// dependency on a sibling listed later in the batch resolves to none.
type Built[N Identifiable] struct {
	nodes map[string]N
}

func NewBuilt[N Identifiable]() *Built[N] {
	return &Built[N]{nodes: make(map[string]N)}
}

func (b *Built[N]) Add(n N) {
	b.nodes[n.ExternalID()] = n
}

// Lookup returns the built node for externalID or the zero value.
func (b *Built[N]) Lookup(externalID string) N {
	return b.nodes[externalID]
}

func (b *Built[N]) Len() int { return len(b.nodes) }

// Missing returns the persisted nodes whose external id is absent from
// submitted, in persisted order.
func Missing[N Identifiable](persisted, submitted []N) []N {
	keep := ExternalIDs(submitted)
	var out []N
	for _, n := range persisted {
		if !keep[n.ExternalID()] {
			out = append(out, n)
		}
	}
	return out
}
