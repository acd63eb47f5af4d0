//go:build integration

package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/openchs/openchs-server/internal/domain/checklist"
	"github.com/openchs/openchs-server/internal/domain/form"
	"github.com/openchs/openchs-server/internal/domain/news"
	"github.com/openchs/openchs-server/internal/domain/referencedata"
	"github.com/openchs/openchs-server/internal/platform/db"
	"github.com/openchs/openchs-server/internal/reconcile"
)

type services struct {
	refs       *referencedata.Service
	forms      *form.Service
	checklists *checklist.Service
	news       *news.Service
}

func newServices() services {
	pool := globalDB.Pool
	tx := db.NewTransactor(pool)
	refs := referencedata.NewService(referencedata.Repositories{
		Concepts:                  referencedata.NewConceptRepoPG(pool),
		EncounterTypes:            referencedata.NewEncounterTypeRepoPG(pool),
		OperationalEncounterTypes: referencedata.NewOperationalEncounterTypeRepoPG(pool),
		SubjectTypes:              referencedata.NewSubjectTypeRepoPG(pool),
		GroupRoles:                referencedata.NewGroupRoleRepoPG(pool),
		Facilities:                referencedata.NewFacilityRepoPG(pool),
	}, tx)
	forms := form.NewService(form.NewFormRepoPG(pool), refs, tx)
	return services{
		refs:       refs,
		forms:      forms,
		checklists: checklist.NewService(checklist.NewChecklistDetailRepoPG(pool), forms, refs, tx),
		news:       news.NewService(news.NewNewsRepoPG(pool), tx),
	}
}

func hivConcept(answers ...string) referencedata.ConceptContract {
	cc := referencedata.ConceptContract{UUID: "c-hiv", Name: "HIV status", DataType: referencedata.DataTypeCoded}
	for _, a := range answers {
		cc.Answers = append(cc.Answers, referencedata.ConceptContract{UUID: "a-" + a, Name: a})
	}
	return cc
}

func TestConcepts_AnswersReconciled(t *testing.T) {
	ctx := context.Background()
	org := uniqueOrganisation("concepts")
	createOrganisation(t, ctx, org)
	svc := newServices()

	withOrganisation(t, ctx, org, func(ctx context.Context) {
		if err := svc.refs.SaveConcepts(ctx, []referencedata.ConceptContract{hivConcept("Positive", "Negative", "Unknown")}); err != nil {
			t.Fatalf("save concepts: %v", err)
		}
		if err := svc.refs.SaveConcepts(ctx, []referencedata.ConceptContract{hivConcept("Positive", "Negative")}); err != nil {
			t.Fatalf("resave concepts: %v", err)
		}

		c, err := svc.refs.Concept(ctx, "c-hiv")
		if err != nil {
			t.Fatalf("load concept: %v", err)
		}
		projected := referencedata.ConceptContractFrom(c)
		if len(projected.Answers) != 2 {
			t.Errorf("expected 2 active answers, got %d", len(projected.Answers))
		}
		if n := count(t, ctx, `SELECT COUNT(*) FROM concept_answer WHERE is_voided`); n != 1 {
			t.Errorf("expected 1 voided answer row, got %d", n)
		}
		// the answer concept itself survives
		if n := count(t, ctx, `SELECT COUNT(*) FROM concept WHERE uuid = 'a-Unknown' AND NOT is_voided`); n != 1 {
			t.Errorf("expected answer concept to stay active, got %d", n)
		}
	})
}

func registration(elements ...string) form.FormContract {
	fc := form.FormContract{
		UUID:     "f-reg",
		Name:     "Registration",
		FormType: form.TypeIndividualProfile,
		FormElementGroups: []form.FormElementGroupContract{{
			UUID: "g-1", Name: "Basics", DisplayOrder: 1,
		}},
	}
	for i, name := range elements {
		fc.FormElementGroups[0].FormElements = append(fc.FormElementGroups[0].FormElements, form.FormElementContract{
			UUID:         "e-" + name,
			Name:         name,
			DisplayOrder: float64(i + 1),
			Concept: referencedata.ConceptContract{
				UUID: "c-" + name, Name: name, DataType: referencedata.DataTypeNumeric,
			},
		})
	}
	return fc
}

func TestForms_ReplacementVoidsOmittedElements(t *testing.T) {
	ctx := context.Background()
	org := uniqueOrganisation("forms")
	createOrganisation(t, ctx, org)
	svc := newServices()

	withOrganisation(t, ctx, org, func(ctx context.Context) {
		if _, err := svc.forms.SaveForm(ctx, registration("Height", "Weight")); err != nil {
			t.Fatalf("save form: %v", err)
		}
		// an identical resave changes nothing
		if _, err := svc.forms.SaveForm(ctx, registration("Height", "Weight")); err != nil {
			t.Fatalf("resave form: %v", err)
		}
		if n := count(t, ctx, `SELECT COUNT(*) FROM form_element`); n != 2 {
			t.Fatalf("expected 2 element rows, got %d", n)
		}

		if _, err := svc.forms.SaveForm(ctx, registration("Height")); err != nil {
			t.Fatalf("save trimmed form: %v", err)
		}
		var name string
		var voided bool
		err := db.Conn(ctx, globalDB.Pool).QueryRow(ctx,
			`SELECT name, is_voided FROM form_element WHERE uuid = 'e-Weight'`).Scan(&name, &voided)
		if err != nil {
			t.Fatal(err)
		}
		if !voided || name == "Weight" {
			t.Errorf("expected Weight voided and renamed, got %q voided=%v", name, voided)
		}

		exported, err := svc.forms.ExportForm(ctx, "f-reg")
		if err != nil {
			t.Fatalf("export: %v", err)
		}
		if got := len(exported.FormElementGroups[0].FormElements); got != 1 {
			t.Errorf("expected 1 exported element, got %d", got)
		}
	})
}

func TestForms_FailedSaveRollsBack(t *testing.T) {
	ctx := context.Background()
	org := uniqueOrganisation("rollback")
	createOrganisation(t, ctx, org)
	svc := newServices()

	withOrganisation(t, ctx, org, func(ctx context.Context) {
		fc := registration("Height")
		fc.FormElementGroups[0].FormElements = append(fc.FormElementGroups[0].FormElements, form.FormElementContract{
			UUID: "e-bad", Name: "Bad", DisplayOrder: 2,
			Concept: referencedata.ConceptContract{UUID: "c-nowhere"},
		})
		_, err := svc.forms.SaveForm(ctx, fc)
		if !errors.Is(err, reconcile.ErrReferenceNotFound) {
			t.Fatalf("expected a missing concept, got %v", err)
		}
		if n := count(t, ctx, `SELECT COUNT(*) FROM concept`); n != 0 {
			t.Errorf("expected inline concepts to roll back, got %d rows", n)
		}
		if n := count(t, ctx, `SELECT COUNT(*) FROM form`); n != 0 {
			t.Errorf("expected no form row, got %d", n)
		}
	})
}

func TestChecklist_DependentItemsLinked(t *testing.T) {
	ctx := context.Background()
	org := uniqueOrganisation("checklists")
	createOrganisation(t, ctx, org)
	svc := newServices()

	withOrganisation(t, ctx, org, func(ctx context.Context) {
		vaccination := registration("BCG", "OPV")
		vaccination.UUID, vaccination.Name, vaccination.FormType = "f-vacc", "Vaccination", form.TypeChecklistItem
		if _, err := svc.forms.SaveForm(ctx, vaccination); err != nil {
			t.Fatalf("save form: %v", err)
		}

		days := 28
		_, err := svc.checklists.SaveChecklistDetail(ctx, checklist.ChecklistDetailContract{
			UUID: "cd-1",
			Name: "Vaccination",
			Items: []checklist.ChecklistItemDetailContract{
				{UUID: "i-bcg", FormUUID: "f-vacc", Concept: referencedata.ConceptContract{UUID: "c-BCG"}},
				{UUID: "i-opv", FormUUID: "f-vacc", Concept: referencedata.ConceptContract{UUID: "c-OPV"},
					DependentOn: "i-bcg", MinDaysFromDependent: &days},
			},
		})
		if err != nil {
			t.Fatalf("save checklist: %v", err)
		}

		d, err := svc.checklists.GetChecklistDetail(ctx, "cd-1")
		if err != nil {
			t.Fatalf("load checklist: %v", err)
		}
		dc := checklist.ContractFrom(d)
		if len(dc.Items) != 2 || dc.Items[1].DependentOn != "i-bcg" {
			t.Errorf("unexpected items: %+v", dc.Items)
		}
	})
}

func TestNews_TitleReusableAfterDelete(t *testing.T) {
	ctx := context.Background()
	org := uniqueOrganisation("news")
	createOrganisation(t, ctx, org)
	svc := newServices()

	withOrganisation(t, ctx, org, func(ctx context.Context) {
		n, err := svc.news.SaveNews(ctx, news.NewsContract{Title: "Camp"})
		if err != nil {
			t.Fatalf("save news: %v", err)
		}
		if _, err := svc.news.SaveNews(ctx, news.NewsContract{Title: "Camp"}); !errors.Is(err, reconcile.ErrInvalidRequestState) {
			t.Fatalf("expected duplicate title to be rejected, got %v", err)
		}
		if err := svc.news.DeleteNews(ctx, n.ID); err != nil {
			t.Fatalf("delete news: %v", err)
		}
		if _, err := svc.news.SaveNews(ctx, news.NewsContract{Title: "Camp"}); err != nil {
			t.Fatalf("expected title to be free again: %v", err)
		}
	})
}

func TestOrganisations_AreIsolated(t *testing.T) {
	ctx := context.Background()
	orgA, orgB := uniqueOrganisation("orga"), uniqueOrganisation("orgb")
	createOrganisation(t, ctx, orgA)
	createOrganisation(t, ctx, orgB)
	svc := newServices()

	withOrganisation(t, ctx, orgA, func(ctx context.Context) {
		if _, err := svc.forms.SaveForm(ctx, registration("Height")); err != nil {
			t.Fatalf("save form in %s: %v", orgA, err)
		}
	})
	withOrganisation(t, ctx, orgB, func(ctx context.Context) {
		if n := count(t, ctx, `SELECT COUNT(*) FROM form`); n != 0 {
			t.Errorf("expected no forms in %s, got %d", orgB, n)
		}
		// same uuid, same name: no clash across organisations
		if _, err := svc.forms.SaveForm(ctx, registration("Height")); err != nil {
			t.Fatalf("save form in %s: %v", orgB, err)
		}
		mustExec(t, ctx, `UPDATE form SET name = 'Renamed' WHERE uuid = 'f-reg'`)
	})
	withOrganisation(t, ctx, orgA, func(ctx context.Context) {
		if n := count(t, ctx, `SELECT COUNT(*) FROM form WHERE name = 'Registration'`); n != 1 {
			t.Errorf("expected %s form untouched, got %d", orgA, n)
		}
	})
}
