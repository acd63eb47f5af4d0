package subject

import (
	"context"

	"github.com/openchs/openchs-server/internal/domain/checklist"
)

// ChecklistSource lists the active checklist details.
type ChecklistSource interface {
	ListActive(ctx context.Context) ([]*checklist.ChecklistDetail, error)
}

// RulesService builds the contracts a rules client evaluates against. It
// never runs rules itself.
type RulesService struct {
	individuals  IndividualRepository
	enrolments   ProgramEnrolmentRepository
	checklists   ChecklistSource
	observations *ObservationService
}

func NewRulesService(repos Repositories, concepts ConceptLookup, checklists ChecklistSource) *RulesService {
	return &RulesService{
		individuals:  repos.Individuals,
		enrolments:   repos.ProgramEnrolments,
		checklists:   checklists,
		observations: NewObservationService(concepts),
	}
}

// ConstructProgramEnrolmentContract fills in an enrolment under evaluation
// with its subject's history and, when the enrolment is already saved, its
// program encounters.
func (s *RulesService) ConstructProgramEnrolmentContract(ctx context.Context, req ProgramEnrolmentRequest) (*ProgramEnrolmentContract, error) {
	pc := &ProgramEnrolmentContract{
		UUID:                req.UUID,
		EnrolmentDateTime:   req.EnrolmentDateTime,
		ProgramExitDateTime: req.ProgramExitDateTime,
		Voided:              req.Voided,
		Observations:        []ObservationModelContract{},
		ExitObservations:    []ObservationModelContract{},
	}
	for _, o := range req.Observations {
		mc, err := s.observations.Construct(ctx, o)
		if err != nil {
			return nil, err
		}
		pc.Observations = append(pc.Observations, mc)
	}
	for _, o := range req.ProgramExitObservations {
		mc, err := s.observations.Construct(ctx, o)
		if err != nil {
			return nil, err
		}
		pc.ExitObservations = append(pc.ExitObservations, mc)
	}

	if req.IndividualUUID != "" {
		ind, err := s.individuals.FindByUUID(ctx, req.IndividualUUID)
		if err != nil {
			return nil, err
		}
		if ind != nil {
			if pc.Subject, err = s.subjectInfo(ctx, ind); err != nil {
				return nil, err
			}
		}
	}

	enrolment, err := s.enrolments.FindByUUID(ctx, req.UUID)
	if err != nil {
		return nil, err
	}
	if enrolment != nil {
		pc.ProgramEncounters = ConstructEncounters(enrolment.Encounters)
	}
	return pc, nil
}

// ConstructEncounters summarises program encounters under their operational
// encounter type names.
func ConstructEncounters(encounters []*ProgramEncounter) []ProgramEncounterContract {
	out := make([]ProgramEncounterContract, 0, len(encounters))
	for _, e := range encounters {
		ec := ProgramEncounterContract{
			UUID:                  e.UUID,
			Name:                  e.Name,
			EncounterDateTime:     e.EncounterDateTime,
			EarliestVisitDateTime: e.EarliestVisitDateTime,
			MaxVisitDateTime:      e.MaxVisitDateTime,
			Voided:                e.Voided,
		}
		if e.EncounterType != nil {
			ec.EncounterType.Name = e.EncounterType.OperationalEncounterTypeName()
		}
		out = append(out, ec)
	}
	return out
}

// ConstructChecklistDetailRequests returns every active checklist detail in
// its upload shape.
func (s *RulesService) ConstructChecklistDetailRequests(ctx context.Context) ([]checklist.ChecklistDetailContract, error) {
	details, err := s.checklists.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]checklist.ChecklistDetailContract, 0, len(details))
	for _, d := range details {
		out = append(out, checklist.ContractFrom(d))
	}
	return out, nil
}

func (s *RulesService) subjectInfo(ctx context.Context, ind *Individual) (*IndividualContract, error) {
	if err := s.individuals.LoadHistory(ctx, ind); err != nil {
		return nil, err
	}
	observations, err := s.observations.ModelContracts(ctx, ind.Observations)
	if err != nil {
		return nil, err
	}
	ic := &IndividualContract{
		UUID:             ind.UUID,
		FirstName:        ind.FirstName,
		LastName:         ind.LastName,
		DateOfBirth:      ind.DateOfBirth,
		RegistrationDate: ind.RegistrationDate,
		Voided:           ind.Voided,
		Observations:     observations,
		Encounters:       make([]EncounterContract, 0, len(ind.Encounters)),
		Enrolments:       make([]ProgramEnrolmentContract, 0, len(ind.Enrolments)),
	}
	if st := ind.SubjectType; st != nil {
		ic.SubjectType = &SubjectTypeContract{UUID: st.UUID, Name: st.Name}
		if st.IsPerson() {
			ic.Gender = ind.Gender
		}
	}
	if al := ind.AddressLevel; al != nil {
		ic.LowestAddressLevel = &LowestAddressLevelContract{
			UUID:           al.UUID,
			Name:           al.Title,
			Title:          al.Title,
			Level:          al.Level,
			ParentID:       al.ParentID,
			AuditID:        al.AuditID,
			Version:        al.Version,
			OrganisationID: al.OrganisationID,
		}
	}

	for _, e := range ind.Encounters {
		obs, err := s.observations.ModelContracts(ctx, e.Observations)
		if err != nil {
			return nil, err
		}
		ec := EncounterContract{
			UUID:                  e.UUID,
			Name:                  e.Name,
			EncounterDateTime:     e.EncounterDateTime,
			EarliestVisitDateTime: e.EarliestVisitDateTime,
			MaxVisitDateTime:      e.MaxVisitDateTime,
			CancelDateTime:        e.CancelDateTime,
			Observations:          obs,
			Voided:                e.Voided,
		}
		if e.EncounterType != nil {
			ec.EncounterType = &EncounterTypeContract{Name: e.EncounterType.OperationalEncounterTypeName()}
		}
		ic.Encounters = append(ic.Encounters, ec)
	}
	for _, pe := range ind.Enrolments {
		obs, err := s.observations.ModelContracts(ctx, pe.Observations)
		if err != nil {
			return nil, err
		}
		exit, err := s.observations.ModelContracts(ctx, pe.ExitObservations)
		if err != nil {
			return nil, err
		}
		ic.Enrolments = append(ic.Enrolments, ProgramEnrolmentContract{
			UUID:                pe.UUID,
			EnrolmentDateTime:   pe.EnrolmentDateTime,
			ProgramExitDateTime: pe.ProgramExitDateTime,
			Voided:              pe.Voided,
			Observations:        obs,
			ExitObservations:    exit,
		})
	}
	return ic, nil
}
