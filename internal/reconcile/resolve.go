package reconcile

import (
	"context"
	"errors"
	"strings"
)

// Kind names a family of reference data or graph containers.
type Kind string

const (
	KindConcept          Kind = "concept"
	KindConceptAnswer    Kind = "concept answer"
	KindForm             Kind = "form"
	KindEncounterType    Kind = "encounter type"
	KindSubjectType      Kind = "subject type"
	KindGroupRole        Kind = "group role"
	KindIndividual       Kind = "individual"
	KindProgramEnrolment Kind = "program enrolment"
	KindProgramEncounter Kind = "program encounter"
	KindNews             Kind = "news"
	KindChecklistDetail  Kind = "checklist detail"
)

// LookupFunc returns the item with the given external id, or nil when absent.
type LookupFunc[T any] func(ctx context.Context, externalID string) (*T, error)

type voidable interface {
	IsVoided() bool
}

// Resolve looks up a reference item and fails with a ReferenceNotFoundError
// when it is absent or voided. Store errors are returned unchanged.
func Resolve[T any](ctx context.Context, kind Kind, externalID string, lookup LookupFunc[T]) (*T, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, NotFound(kind, externalID)
	}
	item, err := lookup(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, NotFound(kind, externalID)
	}
	if v, ok := any(item).(voidable); ok && v.IsVoided() {
		return nil, NotFound(kind, externalID)
	}
	return item, nil
}

// ResolveByName is Resolve for reference items looked up by name.
func ResolveByName[T any](ctx context.Context, kind Kind, name string, lookup LookupFunc[T]) (*T, error) {
	item, err := Resolve(ctx, kind, name, lookup)
	var rnf *ReferenceNotFoundError
	if errors.As(err, &rnf) {
		rnf.By = "name"
	}
	return item, err
}
