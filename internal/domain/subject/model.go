package subject

import (
	"time"

	"github.com/openchs/openchs-server/internal/domain/referencedata"
	"github.com/openchs/openchs-server/internal/reconcile"
)

// Observations maps a concept uuid to the recorded value. Coded values hold
// answer concept uuids, either one string or a list of them.
type Observations map[string]interface{}

type Individual struct {
	reconcile.Entity
	FirstName        string
	LastName         string
	DateOfBirth      *time.Time
	RegistrationDate *time.Time
	SubjectType      *referencedata.SubjectType
	Gender           *referencedata.Gender
	AddressLevel     *referencedata.AddressLevel
	Observations     Observations
	Encounters       []*Encounter
	Enrolments       []*ProgramEnrolment
}

// Visit holds what general and program encounters have in common.
type Visit struct {
	Name                  string
	EncounterType         *referencedata.EncounterType
	EncounterDateTime     *time.Time
	EarliestVisitDateTime *time.Time
	MaxVisitDateTime      *time.Time
	CancelDateTime        *time.Time
	Observations          Observations
	CancelObservations    Observations
}

// Encounter is a visit outside any program.
type Encounter struct {
	reconcile.Entity
	Visit
	IndividualID int64
}

type ProgramEnrolment struct {
	reconcile.Entity
	IndividualID        int64
	IndividualUUID      string
	ProgramName         string
	EnrolmentDateTime   *time.Time
	ProgramExitDateTime *time.Time
	Observations        Observations
	ExitObservations    Observations
	Encounters          []*ProgramEncounter
}

type ProgramEncounter struct {
	reconcile.Entity
	Visit
	EnrolmentID       int64
	EnrolmentUUID     string
	EncounterLocation *Point
	CancelLocation    *Point
}

// Point is a captured GPS location.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GroupSubject is the membership of one individual in a group subject
// (household, family) under a group role.
type GroupSubject struct {
	reconcile.Entity
	Group               *Individual
	Member              *Individual
	GroupRole           *referencedata.GroupRole
	MembershipStartDate *time.Time
	MembershipEndDate   *time.Time
}
