package subject

import (
	"time"

	"github.com/openchs/openchs-server/internal/domain/referencedata"
)

// -- External API --

// ApiProgramEncounterRequest carries observations keyed by concept name.
type ApiProgramEncounterRequest struct {
	EnrolmentID           string                 `json:"Enrolment ID" validate:"required"`
	EncounterType         string                 `json:"Encounter type" validate:"required"`
	EncounterLocation     *Point                 `json:"Encounter location,omitempty"`
	EncounterDateTime     *time.Time             `json:"Encounter date time,omitempty"`
	EarliestScheduledDate *time.Time             `json:"Earliest scheduled date,omitempty"`
	MaxScheduledDate      *time.Time             `json:"Max scheduled date,omitempty"`
	Observations          map[string]interface{} `json:"observations,omitempty"`
	CancelLocation        *Point                 `json:"Cancel location,omitempty"`
	CancelDateTime        *time.Time             `json:"Cancel date time,omitempty"`
	CancelObservations    map[string]interface{} `json:"cancelObservations,omitempty"`
}

type EncounterResponse struct {
	ID                    string                 `json:"ID"`
	EncounterType         string                 `json:"Encounter type"`
	EnrolmentID           string                 `json:"Enrolment ID"`
	EncounterLocation     *Point                 `json:"Encounter location"`
	EncounterDateTime     *time.Time             `json:"Encounter date time"`
	EarliestScheduledDate *time.Time             `json:"Earliest scheduled date"`
	MaxScheduledDate      *time.Time             `json:"Max scheduled date"`
	Observations          map[string]interface{} `json:"observations"`
	CancelLocation        *Point                 `json:"Cancel location"`
	CancelDateTime        *time.Time             `json:"Cancel date time"`
	CancelObservations    map[string]interface{} `json:"cancelObservations"`
	Voided                bool                   `json:"Voided"`
}

// -- Rules --

// ProgramEnrolmentRequest is what the rules client posts for an enrolment it
// is about to evaluate. It need not be saved yet.
type ProgramEnrolmentRequest struct {
	UUID                    string               `json:"uuid" validate:"required"`
	IndividualUUID          string               `json:"individualUUID,omitempty"`
	EnrolmentDateTime       *time.Time           `json:"enrolmentDateTime,omitempty"`
	ProgramExitDateTime     *time.Time           `json:"programExitDateTime,omitempty"`
	Voided                  bool                 `json:"voided"`
	Observations            []ObservationRequest `json:"observations,omitempty" validate:"dive"`
	ProgramExitObservations []ObservationRequest `json:"programExitObservations,omitempty" validate:"dive"`
}

type ProgramEnrolmentContract struct {
	UUID                string                     `json:"uuid"`
	EnrolmentDateTime   *time.Time                 `json:"enrolmentDateTime"`
	ProgramExitDateTime *time.Time                 `json:"programExitDateTime"`
	Voided              bool                       `json:"voided"`
	Observations        []ObservationModelContract `json:"observations"`
	ExitObservations    []ObservationModelContract `json:"exitObservations"`
	Subject             *IndividualContract        `json:"subject,omitempty"`
	ProgramEncounters   []ProgramEncounterContract `json:"programEncounters,omitempty"`
}

type IndividualContract struct {
	UUID               string                      `json:"uuid"`
	FirstName          string                      `json:"firstName"`
	LastName           string                      `json:"lastName"`
	DateOfBirth        *time.Time                  `json:"dateOfBirth"`
	Gender             *referencedata.Gender       `json:"gender,omitempty"`
	LowestAddressLevel *LowestAddressLevelContract `json:"lowestAddressLevel,omitempty"`
	RegistrationDate   *time.Time                  `json:"registrationDate"`
	Voided             bool                        `json:"voided"`
	SubjectType        *SubjectTypeContract        `json:"subjectType,omitempty"`
	Observations       []ObservationModelContract  `json:"observations"`
	Encounters         []EncounterContract         `json:"encounters"`
	Enrolments         []ProgramEnrolmentContract  `json:"enrolments"`
}

type LowestAddressLevelContract struct {
	UUID           string  `json:"uuid"`
	Name           string  `json:"name"`
	Title          string  `json:"title"`
	Level          float64 `json:"level"`
	ParentID       *int64  `json:"parentId"`
	AuditID        int64   `json:"auditId"`
	Version        int     `json:"version"`
	OrganisationID int64   `json:"organisationId"`
}

type SubjectTypeContract struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

type EncounterTypeContract struct {
	Name string `json:"name"`
}

type EncounterContract struct {
	UUID                  string                     `json:"uuid"`
	Name                  string                     `json:"name"`
	EncounterType         *EncounterTypeContract     `json:"encounterType,omitempty"`
	EncounterDateTime     *time.Time                 `json:"encounterDateTime"`
	EarliestVisitDateTime *time.Time                 `json:"earliestVisitDateTime"`
	MaxVisitDateTime      *time.Time                 `json:"maxVisitDateTime"`
	CancelDateTime        *time.Time                 `json:"cancelDateTime"`
	Observations          []ObservationModelContract `json:"observations"`
	Voided                bool                       `json:"voided"`
}

type ProgramEncounterContract struct {
	UUID                  string                `json:"uuid"`
	Name                  string                `json:"name"`
	EncounterType         EncounterTypeContract `json:"encounterType"`
	EncounterDateTime     *time.Time            `json:"encounterDateTime"`
	EarliestVisitDateTime *time.Time            `json:"earliestVisitDateTime"`
	MaxVisitDateTime      *time.Time            `json:"maxVisitDateTime"`
	Voided                bool                  `json:"voided"`
}

// -- Group subjects --

// GroupSubjectContract is both the upload shape and the sync row.
type GroupSubjectContract struct {
	UUID                string     `json:"uuid" validate:"required"`
	GroupSubjectUUID    string     `json:"groupSubjectUUID" validate:"required"`
	MemberSubjectUUID   string     `json:"memberSubjectUUID" validate:"required"`
	GroupRoleUUID       string     `json:"groupRoleUUID" validate:"required"`
	MembershipStartDate *time.Time `json:"membershipStartDate,omitempty"`
	MembershipEndDate   *time.Time `json:"membershipEndDate,omitempty"`
	Voided              bool       `json:"voided"`
}

type GroupSubjectMemberContract struct {
	Member MemberContract                  `json:"member"`
	Role   referencedata.GroupRoleContract `json:"role"`
}

type MemberContract struct {
	UUID            string                `json:"uuid"`
	FirstName       string                `json:"firstName"`
	LastName        string                `json:"lastName"`
	DateOfBirth     *time.Time            `json:"dateOfBirth"`
	Gender          *referencedata.Gender `json:"gender,omitempty"`
	SubjectTypeUUID string                `json:"subjectTypeUUID"`
	Voided          bool                  `json:"voided"`
}

func GroupSubjectContractFrom(gs *GroupSubject) GroupSubjectContract {
	gc := GroupSubjectContract{
		UUID:                gs.UUID,
		MembershipStartDate: gs.MembershipStartDate,
		MembershipEndDate:   gs.MembershipEndDate,
		Voided:              gs.Voided,
	}
	if gs.Group != nil {
		gc.GroupSubjectUUID = gs.Group.UUID
	}
	if gs.Member != nil {
		gc.MemberSubjectUUID = gs.Member.UUID
	}
	if gs.GroupRole != nil {
		gc.GroupRoleUUID = gs.GroupRole.UUID
	}
	return gc
}

func MemberContractFrom(ind *Individual) MemberContract {
	mc := MemberContract{
		UUID:        ind.UUID,
		FirstName:   ind.FirstName,
		LastName:    ind.LastName,
		DateOfBirth: ind.DateOfBirth,
		Voided:      ind.Voided,
	}
	if ind.SubjectType != nil {
		mc.SubjectTypeUUID = ind.SubjectType.UUID
		if ind.SubjectType.IsPerson() {
			mc.Gender = ind.Gender
		}
	}
	return mc
}
