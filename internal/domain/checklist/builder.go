package checklist

import (
	"context"
	"time"

	"github.com/openchs/openchs-server/internal/domain/form"
	"github.com/openchs/openchs-server/internal/domain/referencedata"
	"github.com/openchs/openchs-server/internal/reconcile"
)

type FormSource interface {
	Form(ctx context.Context, uuid string) (*form.Form, error)
}

type ConceptSource interface {
	Concept(ctx context.Context, uuid string) (*referencedata.Concept, error)
}

type Builder struct {
	forms    FormSource
	concepts ConceptSource
}

func NewBuilder(forms FormSource, concepts ConceptSource) *Builder {
	return &Builder{forms: forms, concepts: concepts}
}

// Build applies dc to existing, or to a new detail when existing is nil.
// Items are built in payload order and dependentOn is looked up among the
// items already built, so an item naming a later sibling gets no lead item.
// Items missing from dc are voided and kept on the detail.
func (b *Builder) Build(ctx context.Context, existing *ChecklistDetail, dc ChecklistDetailContract, now time.Time) (*ChecklistDetail, []*ChecklistItemDetail, error) {
	d := existing
	if d == nil {
		d = &ChecklistDetail{Entity: reconcile.Entity{UUID: dc.UUID, CreatedAt: now}}
	}
	d.Name = dc.Name
	d.Voided = dc.Voided
	d.Touch(now)

	built := reconcile.NewBuilt[*ChecklistItemDetail]()
	items := make([]*ChecklistItemDetail, 0, len(dc.Items))
	seen := make(map[string]bool, len(dc.Items))
	for _, ic := range dc.Items {
		if seen[ic.UUID] {
			return nil, nil, reconcile.Invalid("checklist item detail %s appears more than once in checklist detail %s", ic.UUID, dc.UUID)
		}
		seen[ic.UUID] = true

		f, err := b.forms.Form(ctx, ic.FormUUID)
		if err != nil {
			return nil, nil, err
		}
		concept, err := b.concepts.Concept(ctx, ic.Concept.UUID)
		if err != nil {
			return nil, nil, err
		}

		item, ok := reconcile.Existing(d.Items, ic.UUID)
		if !ok {
			item = &ChecklistItemDetail{Entity: reconcile.Entity{UUID: ic.UUID, CreatedAt: now}}
		}
		item.Status = ic.Status
		item.Voided = ic.Voided
		item.FormID, item.FormUUID = f.ID, f.UUID
		item.Concept = concept
		item.LeadItem = built.Lookup(ic.DependentOn)
		item.ScheduleOnExpiryOfDependency = ic.ScheduleOnExpiryOfDependency
		item.MinDaysFromStartDate = ic.MinDaysFromStartDate
		item.MinDaysFromDependent = ic.MinDaysFromDependent
		item.ExpiresAfter = ic.ExpiresAfter
		item.Touch(now)

		built.Add(item)
		items = append(items, item)
	}

	voided := reconcile.VoidMissing(d.Items, items, now)
	d.Items = append(items, reconcile.Missing(d.Items, items)...)
	return d, voided, nil
}
