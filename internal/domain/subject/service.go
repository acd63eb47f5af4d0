package subject

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/openchs/openchs-server/internal/domain/referencedata"
	"github.com/openchs/openchs-server/internal/platform/db"
	"github.com/openchs/openchs-server/internal/platform/metrics"
	"github.com/openchs/openchs-server/internal/reconcile"
	"github.com/openchs/openchs-server/pkg/pagination"
)

// ReferenceData is the slice of reference data the subject services read.
type ReferenceData interface {
	ConceptLookup
	EncounterTypeByName(ctx context.Context, name string) (*referencedata.EncounterType, error)
	GroupRole(ctx context.Context, uuid string) (*referencedata.GroupRole, error)
	GroupRolesOf(ctx context.Context, groupSubjectTypeID int64) ([]*referencedata.GroupRole, error)
	FindSubjectType(ctx context.Context, uuid string) (*referencedata.SubjectType, error)
}

type Service struct {
	repos        Repositories
	refs         ReferenceData
	observations *ObservationService
	tx           db.TxRunner
	now          func() time.Time
}

func NewService(repos Repositories, refs ReferenceData, tx db.TxRunner) *Service {
	return &Service{
		repos:        repos,
		refs:         refs,
		observations: NewObservationService(refs),
		tx:           tx,
		now:          time.Now,
	}
}

// -- Program encounters --

func (s *Service) GetProgramEncounter(ctx context.Context, uuid string) (*EncounterResponse, error) {
	e, err := s.repos.ProgramEncounters.FindByUUID(ctx, uuid)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, reconcile.NotFound(reconcile.KindProgramEncounter, uuid)
	}
	return s.encounterResponse(ctx, e)
}

// CreateProgramEncounter saves a new encounter under a fresh uuid.
func (s *Service) CreateProgramEncounter(ctx context.Context, req ApiProgramEncounterRequest) (*EncounterResponse, error) {
	e := &ProgramEncounter{Entity: reconcile.Entity{CreatedAt: s.now()}}
	e.AssignUUIDIfRequired()
	return s.saveProgramEncounter(ctx, e, req)
}

func (s *Service) UpdateProgramEncounter(ctx context.Context, uuid string, req ApiProgramEncounterRequest) (*EncounterResponse, error) {
	var resp *EncounterResponse
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		e, err := s.repos.ProgramEncounters.FindByUUID(ctx, uuid)
		if err != nil {
			return err
		}
		if e == nil {
			return reconcile.Invalid("Encounter not found with id '%s'", uuid)
		}
		resp, err = s.saveProgramEncounter(ctx, e, req)
		return err
	})
	return resp, err
}

func (s *Service) saveProgramEncounter(ctx context.Context, e *ProgramEncounter, req ApiProgramEncounterRequest) (*EncounterResponse, error) {
	var resp *EncounterResponse
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		enrolment, err := reconcile.Resolve(ctx, reconcile.KindProgramEnrolment, req.EnrolmentID, s.repos.ProgramEnrolments.FindByUUID)
		if err != nil {
			return err
		}
		encounterType, err := s.refs.EncounterTypeByName(ctx, req.EncounterType)
		if err != nil {
			return err
		}
		observations, err := s.observations.CreateObservations(ctx, req.Observations)
		if err != nil {
			return err
		}
		cancelObservations, err := s.observations.CreateObservations(ctx, req.CancelObservations)
		if err != nil {
			return err
		}

		created := e.IsNew()
		e.EncounterType = encounterType
		e.EncounterLocation = req.EncounterLocation
		e.CancelLocation = req.CancelLocation
		e.EncounterDateTime = req.EncounterDateTime
		e.EarliestVisitDateTime = req.EarliestScheduledDate
		e.MaxVisitDateTime = req.MaxScheduledDate
		e.CancelDateTime = req.CancelDateTime
		e.EnrolmentID, e.EnrolmentUUID = enrolment.ID, enrolment.UUID
		e.Observations = observations
		e.CancelObservations = cancelObservations
		e.Touch(s.now())
		if err := s.repos.ProgramEncounters.Save(ctx, e); err != nil {
			return err
		}

		outcome := metrics.Updated
		if created {
			outcome = metrics.Created
		}
		metrics.Reconciled("program encounter", outcome, 1)
		zerolog.Ctx(ctx).Info().Str("program_encounter", e.UUID).Str("enrolment", enrolment.UUID).
			Str("outcome", outcome).Msg("program encounter saved")

		resp, err = s.encounterResponse(ctx, e)
		return err
	})
	return resp, err
}

func (s *Service) encounterResponse(ctx context.Context, e *ProgramEncounter) (*EncounterResponse, error) {
	observations, err := s.observations.ByName(ctx, e.Observations)
	if err != nil {
		return nil, err
	}
	cancelObservations, err := s.observations.ByName(ctx, e.CancelObservations)
	if err != nil {
		return nil, err
	}
	resp := &EncounterResponse{
		ID:                    e.UUID,
		EnrolmentID:           e.EnrolmentUUID,
		EncounterLocation:     e.EncounterLocation,
		EncounterDateTime:     e.EncounterDateTime,
		EarliestScheduledDate: e.EarliestVisitDateTime,
		MaxScheduledDate:      e.MaxVisitDateTime,
		Observations:          observations,
		CancelLocation:        e.CancelLocation,
		CancelDateTime:        e.CancelDateTime,
		CancelObservations:    cancelObservations,
		Voided:                e.Voided,
	}
	if e.EncounterType != nil {
		resp.EncounterType = e.EncounterType.OperationalEncounterTypeName()
	}
	return resp, nil
}

// -- Group subjects --

// SaveGroupSubject upserts a membership by uuid. Both individuals must exist.
func (s *Service) SaveGroupSubject(ctx context.Context, req GroupSubjectContract) (*GroupSubject, error) {
	var saved *GroupSubject
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		group, err := s.repos.Individuals.FindByUUID(ctx, req.GroupSubjectUUID)
		if err != nil {
			return err
		}
		if group == nil {
			return reconcile.Invalid("Group subject not found with UUID '%s'", req.GroupSubjectUUID)
		}
		member, err := s.repos.Individuals.FindByUUID(ctx, req.MemberSubjectUUID)
		if err != nil {
			return err
		}
		if member == nil {
			return reconcile.Invalid("Member subject not found with UUID '%s'", req.MemberSubjectUUID)
		}
		role, err := s.refs.GroupRole(ctx, req.GroupRoleUUID)
		if err != nil {
			return err
		}

		now := s.now()
		gs, err := s.repos.GroupSubjects.FindByUUID(ctx, req.UUID)
		if err != nil {
			return err
		}
		created := gs == nil
		if created {
			gs = &GroupSubject{Entity: reconcile.Entity{UUID: req.UUID, CreatedAt: now}}
		}
		gs.Group = group
		gs.Member = member
		gs.GroupRole = role
		gs.MembershipStartDate = req.MembershipStartDate
		gs.MembershipEndDate = req.MembershipEndDate
		gs.Voided = req.Voided
		gs.Touch(now)
		if err := s.repos.GroupSubjects.Save(ctx, gs); err != nil {
			return err
		}

		outcome := metrics.Updated
		if created {
			outcome = metrics.Created
		}
		metrics.Reconciled("group subject", outcome, 1)
		saved = gs
		return nil
	})
	return saved, err
}

func (s *Service) group(ctx context.Context, groupID int64) (*Individual, error) {
	group, err := s.repos.Individuals.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, reconcile.Invalid("Invalid Group Id")
	}
	return group, nil
}

func (s *Service) GroupMembers(ctx context.Context, groupID int64) ([]GroupSubjectMemberContract, error) {
	group, err := s.group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	memberships, err := s.repos.GroupSubjects.ListActiveByGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	out := make([]GroupSubjectMemberContract, 0, len(memberships))
	for _, gs := range memberships {
		out = append(out, GroupSubjectMemberContract{
			Member: MemberContractFrom(gs.Member),
			Role:   referencedata.GroupRoleContractFrom(gs.GroupRole),
		})
	}
	return out, nil
}

func (s *Service) GroupRoles(ctx context.Context, groupID int64) ([]referencedata.GroupRoleContract, error) {
	group, err := s.group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	roles, err := s.refs.GroupRolesOf(ctx, group.SubjectType.ID)
	if err != nil {
		return nil, err
	}
	out := make([]referencedata.GroupRoleContract, 0, len(roles))
	for _, r := range roles {
		out = append(out, referencedata.GroupRoleContractFrom(r))
	}
	return out, nil
}

// GroupSubjectsModifiedBetween lists memberships of groups of one subject
// type. An empty or unknown type yields an empty page.
func (s *Service) GroupSubjectsModifiedBetween(ctx context.Context, subjectTypeUUID string, from, to time.Time, p pagination.Params) (*pagination.Page[GroupSubjectContract], error) {
	if subjectTypeUUID == "" {
		return pagination.Empty[GroupSubjectContract](p), nil
	}
	st, err := s.refs.FindSubjectType(ctx, subjectTypeUUID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return pagination.Empty[GroupSubjectContract](p), nil
	}
	items, total, err := s.repos.GroupSubjects.ListModifiedBetween(ctx, st.ID, from, to, p.Limit(), p.Offset())
	if err != nil {
		return nil, err
	}
	out := make([]GroupSubjectContract, 0, len(items))
	for _, gs := range items {
		out = append(out, GroupSubjectContractFrom(gs))
	}
	return pagination.NewPage(out, total, p), nil
}
