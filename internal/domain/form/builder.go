package form

import (
	"context"
	"time"

	"github.com/openchs/openchs-server/internal/domain/referencedata"
	"github.com/openchs/openchs-server/internal/reconcile"
)

// ConceptSource resolves element concepts, saving the ones defined inline.
type ConceptSource interface {
	Concept(ctx context.Context, uuid string) (*referencedata.Concept, error)
	SaveConcept(ctx context.Context, cc referencedata.ConceptContract) (*referencedata.Concept, error)
}

// BuildResult counts what a build did to the graph below the form.
type BuildResult struct {
	Created int
	Updated int
	Voided  int
}

type Builder struct {
	concepts ConceptSource
}

func NewBuilder(concepts ConceptSource) *Builder {
	return &Builder{concepts: concepts}
}

// Build applies fc to existing, or to a new form when existing is nil. A full
// build voids every group and element the contract leaves out; an additive
// build keeps them.
func (b *Builder) Build(ctx context.Context, existing *Form, fc FormContract, additive bool, now time.Time) (*Form, BuildResult, error) {
	var res BuildResult
	f := existing
	if f == nil {
		f = &Form{Entity: reconcile.Entity{UUID: fc.UUID, CreatedAt: now}}
	}
	f.Name = fc.Name
	f.FormType = fc.FormType
	f.Voided = fc.Voided
	f.DecisionRule = fc.DecisionRule
	f.ValidationRule = fc.ValidationRule
	f.VisitScheduleRule = fc.VisitScheduleRule
	f.ChecklistsRule = fc.ChecklistsRule
	f.Touch(now)

	persistedGroups := f.Groups
	persistedElements := f.Elements()
	owner := make(map[string]*FormElementGroup, len(persistedElements))
	for _, g := range persistedGroups {
		for _, e := range g.Elements {
			owner[e.UUID] = g
		}
	}

	var groups []*FormElementGroup
	var elements []*FormElement
	placed := make(map[*FormElementGroup][]*FormElement)
	seen := make(map[string]bool)
	seenGroups := make(map[string]bool, len(fc.FormElementGroups))

	for _, gc := range fc.FormElementGroups {
		if seenGroups[gc.UUID] {
			return nil, res, reconcile.Invalid("form element group %s appears more than once in form %s", gc.UUID, fc.UUID)
		}
		seenGroups[gc.UUID] = true

		g, ok := reconcile.Existing(persistedGroups, gc.UUID)
		if !ok {
			g = &FormElementGroup{Entity: reconcile.Entity{UUID: gc.UUID, CreatedAt: now}}
			res.Created++
		} else {
			res.Updated++
		}
		g.Name = gc.Name
		g.DisplayOrder = gc.DisplayOrder
		g.Display = gc.Display
		g.Rule = gc.Rule
		g.Voided = gc.Voided
		g.Touch(now)
		groups = append(groups, g)

		for _, ec := range gc.FormElements {
			if seen[ec.UUID] {
				return nil, res, reconcile.Invalid("form element %s appears more than once in form %s", ec.UUID, fc.UUID)
			}
			seen[ec.UUID] = true

			e, ok := reconcile.Existing(persistedElements, ec.UUID)
			if !ok {
				e = &FormElement{Entity: reconcile.Entity{UUID: ec.UUID, CreatedAt: now}}
				res.Created++
			} else {
				res.Updated++
			}
			concept, err := b.concept(ctx, ec.Concept)
			if err != nil {
				return nil, res, err
			}
			e.Name = ec.Name
			e.DisplayOrder = ec.DisplayOrder
			e.Mandatory = ec.Mandatory
			e.Type = ec.Type
			e.KeyValues = ec.KeyValues
			e.ValidFormat = ec.ValidFormat
			e.Rule = ec.Rule
			e.Voided = ec.Voided
			e.Concept = concept
			e.Touch(now)
			elements = append(elements, e)
			placed[g] = append(placed[g], e)
		}
	}

	if !additive {
		voidedGroups := reconcile.VoidMissing(persistedGroups, groups, now)
		voidedElements := reconcile.VoidMissing(persistedElements, elements, now)
		res.Voided = len(voidedGroups) + len(voidedElements)
	}
	// left-over rows stay attached to the group they were persisted under
	leftGroups := reconcile.Missing(persistedGroups, groups)
	leftElements := reconcile.Missing(persistedElements, elements)

	for _, e := range leftElements {
		g := owner[e.UUID]
		placed[g] = append(placed[g], e)
	}
	groups = append(groups, leftGroups...)
	for _, g := range groups {
		g.Elements = placed[g]
	}
	f.Groups = groups
	return f, res, nil
}

func (b *Builder) concept(ctx context.Context, cc referencedata.ConceptContract) (*referencedata.Concept, error) {
	if cc.Defines() {
		return b.concepts.SaveConcept(ctx, cc)
	}
	return b.concepts.Concept(ctx, cc.UUID)
}
