package subject

import (
	"context"
	"time"
)

// IndividualRepository loads individuals with their subject type, gender and
// address level. Encounters and enrolments are loaded on demand.
type IndividualRepository interface {
	FindByUUID(ctx context.Context, uuid string) (*Individual, error)
	FindByID(ctx context.Context, id int64) (*Individual, error)
	LoadHistory(ctx context.Context, ind *Individual) error
}

type ProgramEnrolmentRepository interface {
	// FindByUUID loads the enrolment with its program encounters.
	FindByUUID(ctx context.Context, uuid string) (*ProgramEnrolment, error)
}

type ProgramEncounterRepository interface {
	FindByUUID(ctx context.Context, uuid string) (*ProgramEncounter, error)
	Save(ctx context.Context, e *ProgramEncounter) error
}

type GroupSubjectRepository interface {
	FindByUUID(ctx context.Context, uuid string) (*GroupSubject, error)
	ListActiveByGroup(ctx context.Context, groupID int64) ([]*GroupSubject, error)
	ListModifiedBetween(ctx context.Context, groupSubjectTypeID int64, from, to time.Time, limit, offset int) ([]*GroupSubject, int, error)
	Save(ctx context.Context, gs *GroupSubject) error
}

type Repositories struct {
	Individuals       IndividualRepository
	ProgramEnrolments ProgramEnrolmentRepository
	ProgramEncounters ProgramEncounterRepository
	GroupSubjects     GroupSubjectRepository
}
