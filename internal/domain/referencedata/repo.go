package referencedata

import (
	"context"
	"time"
)

// ConceptRepository loads concepts together with their answers.
type ConceptRepository interface {
	FindByUUID(ctx context.Context, uuid string) (*Concept, error)
	// FindByName matches active concepts only.
	FindByName(ctx context.Context, name string) (*Concept, error)
	// Save upserts the concept and its answers. Answer concepts must already be saved.
	Save(ctx context.Context, c *Concept) error
}

type EncounterTypeRepository interface {
	FindByUUID(ctx context.Context, uuid string) (*EncounterType, error)
	FindByName(ctx context.Context, name string) (*EncounterType, error)
}

type OperationalEncounterTypeRepository interface {
	// ListModifiedSince includes rows whose encounter type changed after since.
	ListModifiedSince(ctx context.Context, since time.Time, limit, offset int) ([]*OperationalEncounterType, int, error)
}

type SubjectTypeRepository interface {
	FindByUUID(ctx context.Context, uuid string) (*SubjectType, error)
}

type GroupRoleRepository interface {
	FindByUUID(ctx context.Context, uuid string) (*GroupRole, error)
	ListActiveByGroupSubjectType(ctx context.Context, subjectTypeID int64) ([]*GroupRole, error)
}

type FacilityRepository interface {
	ListModifiedBetween(ctx context.Context, from, to time.Time, limit, offset int) ([]*Facility, int, error)
	ListByCatchmentModifiedBetween(ctx context.Context, catchmentID int64, from, to time.Time, limit, offset int) ([]*Facility, int, error)
	FindAllByID(ctx context.Context, ids []int64) ([]*Facility, error)
}

// Repositories groups the stores the service reads from.
type Repositories struct {
	Concepts                  ConceptRepository
	EncounterTypes            EncounterTypeRepository
	OperationalEncounterTypes OperationalEncounterTypeRepository
	SubjectTypes              SubjectTypeRepository
	GroupRoles                GroupRoleRepository
	Facilities                FacilityRepository
}
