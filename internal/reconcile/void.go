package reconcile

import (
	"fmt"
	"time"
)

// Voidable nodes are soft-deleted instead of removed.
type Voidable interface {
	Identifiable
	IsVoided() bool
	MarkVoided(at time.Time)
}

// Renameable nodes carry a display name that must stay unique among active
// rows, so the name is rewritten when the node is voided.
type Renameable interface {
	Voidable
	DisplayName() string
	SetDisplayName(name string)
	SurrogateID() int64
}

// VoidedName embeds the surrogate id into a voided node's name so the original
// name can be reused.
func VoidedName(name string, id int64) string {
	return fmt.Sprintf("%s_voided_%d", name, id)
}

// Void marks a single node voided, renaming it when it is Renameable.
func Void[N Voidable](n N, at time.Time) {
	n.MarkVoided(at)
	if r, ok := any(n).(Renameable); ok {
		r.SetDisplayName(VoidedName(r.DisplayName(), r.SurrogateID()))
	}
}

// VoidMissing voids every persisted node whose external id is absent from the
// submitted batch and returns those nodes. Nodes that are already voided are
// left untouched.
func VoidMissing[N Voidable](persisted, submitted []N, at time.Time) []N {
	var voided []N
	for _, n := range Missing(persisted, submitted) {
		if n.IsVoided() {
			continue
		}
		Void(n, at)
		voided = append(voided, n)
	}
	return voided
}
