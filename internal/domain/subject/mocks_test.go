package subject

import (
	"context"
	"time"

	"github.com/openchs/openchs-server/internal/domain/checklist"
	"github.com/openchs/openchs-server/internal/domain/referencedata"
	"github.com/openchs/openchs-server/internal/platform/db"
	"github.com/openchs/openchs-server/internal/reconcile"
)

type mockRefs struct {
	concepts       []*referencedata.Concept
	encounterTypes []*referencedata.EncounterType
	groupRoles     []*referencedata.GroupRole
	subjectTypes   []*referencedata.SubjectType
}

func (m *mockRefs) Concept(_ context.Context, uuid string) (*referencedata.Concept, error) {
	for _, c := range m.concepts {
		if c.UUID == uuid && !c.Voided {
			return c, nil
		}
	}
	return nil, reconcile.NotFound(reconcile.KindConcept, uuid)
}

func (m *mockRefs) ConceptByName(ctx context.Context, name string) (*referencedata.Concept, error) {
	return reconcile.ResolveByName(ctx, reconcile.KindConcept, name, func(_ context.Context, name string) (*referencedata.Concept, error) {
		for _, c := range m.concepts {
			if c.Name == name && !c.Voided {
				return c, nil
			}
		}
		return nil, nil
	})
}

func (m *mockRefs) EncounterTypeByName(ctx context.Context, name string) (*referencedata.EncounterType, error) {
	return reconcile.ResolveByName(ctx, reconcile.KindEncounterType, name, func(_ context.Context, name string) (*referencedata.EncounterType, error) {
		for _, et := range m.encounterTypes {
			if et.Name == name {
				return et, nil
			}
		}
		return nil, nil
	})
}

func (m *mockRefs) GroupRole(ctx context.Context, uuid string) (*referencedata.GroupRole, error) {
	return reconcile.Resolve(ctx, reconcile.KindGroupRole, uuid, func(_ context.Context, uuid string) (*referencedata.GroupRole, error) {
		for _, r := range m.groupRoles {
			if r.UUID == uuid {
				return r, nil
			}
		}
		return nil, nil
	})
}

func (m *mockRefs) GroupRolesOf(_ context.Context, id int64) ([]*referencedata.GroupRole, error) {
	var out []*referencedata.GroupRole
	for _, r := range m.groupRoles {
		if r.GroupSubjectTypeID == id && !r.Voided {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRefs) FindSubjectType(_ context.Context, uuid string) (*referencedata.SubjectType, error) {
	for _, st := range m.subjectTypes {
		if st.UUID == uuid {
			return st, nil
		}
	}
	return nil, nil
}

type mockIndividuals struct{ items []*Individual }

func (m *mockIndividuals) FindByUUID(_ context.Context, uuid string) (*Individual, error) {
	for _, ind := range m.items {
		if ind.UUID == uuid {
			return ind, nil
		}
	}
	return nil, nil
}

func (m *mockIndividuals) FindByID(_ context.Context, id int64) (*Individual, error) {
	for _, ind := range m.items {
		if ind.ID == id {
			return ind, nil
		}
	}
	return nil, nil
}

// history is attached to the fixtures up front
func (m *mockIndividuals) LoadHistory(context.Context, *Individual) error { return nil }

type mockEnrolments struct{ items []*ProgramEnrolment }

func (m *mockEnrolments) FindByUUID(_ context.Context, uuid string) (*ProgramEnrolment, error) {
	for _, pe := range m.items {
		if pe.UUID == uuid {
			return pe, nil
		}
	}
	return nil, nil
}

type mockEncounters struct {
	byUUID map[string]*ProgramEncounter
	nextID int64
}

func (m *mockEncounters) FindByUUID(_ context.Context, uuid string) (*ProgramEncounter, error) {
	return m.byUUID[uuid], nil
}

func (m *mockEncounters) Save(_ context.Context, e *ProgramEncounter) error {
	if e.IsNew() {
		m.nextID++
		e.ID = m.nextID
	}
	m.byUUID[e.UUID] = e
	return nil
}

type mockGroupSubjects struct {
	byUUID map[string]*GroupSubject
	nextID int64
}

func (m *mockGroupSubjects) FindByUUID(_ context.Context, uuid string) (*GroupSubject, error) {
	return m.byUUID[uuid], nil
}

func (m *mockGroupSubjects) ListActiveByGroup(_ context.Context, groupID int64) ([]*GroupSubject, error) {
	var out []*GroupSubject
	for _, gs := range m.byUUID {
		if gs.Group.ID == groupID && !gs.Voided {
			out = append(out, gs)
		}
	}
	return out, nil
}

func (m *mockGroupSubjects) ListModifiedBetween(_ context.Context, typeID int64, from, to time.Time, limit, offset int) ([]*GroupSubject, int, error) {
	var out []*GroupSubject
	for _, gs := range m.byUUID {
		if gs.Group.SubjectType.ID == typeID && !gs.LastModified.Before(from) && !gs.LastModified.After(to) {
			out = append(out, gs)
		}
	}
	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	if offset+limit < total {
		out = out[offset : offset+limit]
	} else {
		out = out[offset:]
	}
	return out, total, nil
}

func (m *mockGroupSubjects) Save(_ context.Context, gs *GroupSubject) error {
	if gs.IsNew() {
		m.nextID++
		gs.ID = m.nextID
	}
	m.byUUID[gs.UUID] = gs
	return nil
}

type mockChecklists []*checklist.ChecklistDetail

func (m mockChecklists) ListActive(context.Context) ([]*checklist.ChecklistDetail, error) {
	return m, nil
}

// -- Fixture --

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func at(day int) *time.Time {
	t := time.Date(2024, 1, day, 9, 0, 0, 0, time.UTC)
	return &t
}

type fixture struct {
	svc           *Service
	rules         *RulesService
	refs          *mockRefs
	individuals   *mockIndividuals
	enrolments    *mockEnrolments
	encounters    *mockEncounters
	groupSubjects *mockGroupSubjects
}

func concept(id int64, uuid, name, dataType string, answers ...*referencedata.Concept) *referencedata.Concept {
	c := &referencedata.Concept{Entity: reconcile.Entity{ID: id, UUID: uuid}, Name: name, DataType: dataType}
	for i, a := range answers {
		c.Answers = append(c.Answers, &referencedata.ConceptAnswer{
			Entity: reconcile.Entity{ID: id*100 + int64(i)}, ConceptID: id, Answer: a, Order: float64(i + 1),
		})
	}
	return c
}

func newFixture() *fixture {
	yes := concept(10, "a-yes", "Yes", referencedata.DataTypeNA)
	no := concept(11, "a-no", "No", referencedata.DataTypeNA)
	fever := concept(12, "a-fever", "Fever", referencedata.DataTypeNA)
	cough := concept(13, "a-cough", "Cough", referencedata.DataTypeNA)

	person := &referencedata.SubjectType{Entity: reconcile.Entity{ID: 1, UUID: "st-person"}, Name: "Individual", Type: referencedata.SubjectPerson}
	household := &referencedata.SubjectType{Entity: reconcile.Entity{ID: 2, UUID: "st-household"}, Name: "Household", Type: referencedata.SubjectHousehold, IsGroup: true}
	village := &referencedata.AddressLevel{ID: 5, UUID: "al-1", Title: "Ramgarh", Level: 1}
	female := &referencedata.Gender{ID: 2, UUID: "g-female", Name: "Female"}

	refs := &mockRefs{
		concepts: []*referencedata.Concept{
			yes, no, fever, cough,
			concept(1, "c-weight", "Weight", referencedata.DataTypeNumeric),
			concept(2, "c-hiv", "HIV positive", referencedata.DataTypeCoded, yes, no),
			concept(3, "c-symptoms", "Symptoms", referencedata.DataTypeCoded, fever, cough),
		},
		encounterTypes: []*referencedata.EncounterType{
			{Entity: reconcile.Entity{ID: 7, UUID: "et-anc"}, Name: "ANC", OperationalName: "Antenatal visit"},
		},
		groupRoles: []*referencedata.GroupRole{
			{Entity: reconcile.Entity{ID: 3, UUID: "gr-head"}, Role: "Head", GroupSubjectTypeID: 2,
				GroupSubjectTypeUUID: "st-household", MemberSubjectTypeUUID: "st-person", IsPrimary: true, MaximumMembers: 1},
			{Entity: reconcile.Entity{ID: 4, UUID: "gr-member"}, Role: "Member", GroupSubjectTypeID: 2,
				GroupSubjectTypeUUID: "st-household", MemberSubjectTypeUUID: "st-person", MaximumMembers: 20},
		},
		subjectTypes: []*referencedata.SubjectType{person, household},
	}

	sita := &Individual{
		Entity:           reconcile.Entity{ID: 100, UUID: "ind-sita"},
		FirstName:        "Sita",
		LastName:         "Devi",
		DateOfBirth:      at(1),
		RegistrationDate: at(2),
		SubjectType:      person,
		Gender:           female,
		AddressLevel:     village,
		Observations:     Observations{"c-weight": 52.5},
		Encounters: []*Encounter{{
			Entity: reconcile.Entity{UUID: "enc-1"},
			Visit: Visit{Name: "ANC", EncounterType: refs.encounterTypes[0], EncounterDateTime: at(3),
				Observations: Observations{"c-hiv": "a-no"}},
		}},
	}
	house := &Individual{
		Entity:       reconcile.Entity{ID: 200, UUID: "ind-house"},
		FirstName:    "Devi household",
		SubjectType:  household,
		Gender:       female,
		AddressLevel: village,
	}
	enrolment := &ProgramEnrolment{
		Entity:            reconcile.Entity{ID: 300, UUID: "pe-1"},
		IndividualID:      100,
		IndividualUUID:    "ind-sita",
		ProgramName:       "Pregnancy",
		EnrolmentDateTime: at(2),
		Encounters: []*ProgramEncounter{{
			Entity: reconcile.Entity{ID: 400, UUID: "pen-1"},
			Visit:  Visit{Name: "ANC 1", EncounterType: refs.encounterTypes[0], EarliestVisitDateTime: at(10), MaxVisitDateTime: at(20)},
		}},
	}
	sita.Enrolments = []*ProgramEnrolment{enrolment}

	fx := &fixture{
		refs:          refs,
		individuals:   &mockIndividuals{items: []*Individual{sita, house}},
		enrolments:    &mockEnrolments{items: []*ProgramEnrolment{enrolment}},
		encounters:    &mockEncounters{byUUID: make(map[string]*ProgramEncounter)},
		groupSubjects: &mockGroupSubjects{byUUID: make(map[string]*GroupSubject)},
	}
	repos := Repositories{
		Individuals:       fx.individuals,
		ProgramEnrolments: fx.enrolments,
		ProgramEncounters: fx.encounters,
		GroupSubjects:     fx.groupSubjects,
	}
	fx.svc = NewService(repos, refs, db.NoTx{})
	fx.svc.now = func() time.Time { return fixedNow }
	fx.rules = NewRulesService(repos, refs, mockChecklists{
		{Entity: reconcile.Entity{UUID: "cd-1"}, Name: "Vaccination"},
	})
	return fx
}
