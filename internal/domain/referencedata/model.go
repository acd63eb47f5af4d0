package referencedata

import (
	"strings"
	"time"

	"github.com/openchs/openchs-server/internal/reconcile"
)

// Concept data types.
const (
	DataTypeCoded    = "Coded"
	DataTypeNumeric  = "Numeric"
	DataTypeText     = "Text"
	DataTypeNotes    = "Notes"
	DataTypeDate     = "Date"
	DataTypeDateTime = "DateTime"
	DataTypeTime     = "Time"
	DataTypeDuration = "Duration"
	DataTypeImage    = "Image"
	DataTypeID       = "Id"
	DataTypeNA       = "NA"
)

// Subject type kinds. Only Person subjects carry a gender.
const (
	SubjectPerson     = "Person"
	SubjectIndividual = "Individual"
	SubjectGroup      = "Group"
	SubjectHousehold  = "Household"
)

type Concept struct {
	reconcile.Entity
	Name         string           `json:"name"`
	DataType     string           `json:"dataType"`
	LowAbsolute  *float64         `json:"lowAbsolute,omitempty"`
	HighAbsolute *float64         `json:"highAbsolute,omitempty"`
	LowNormal    *float64         `json:"lowNormal,omitempty"`
	HighNormal   *float64         `json:"highNormal,omitempty"`
	Unit         string           `json:"unit,omitempty"`
	Answers      []*ConceptAnswer `json:"answers,omitempty"`
}

func (c *Concept) IsCoded() bool { return c.DataType == DataTypeCoded }

// ActiveAnswerByName matches an answer concept name, ignoring case.
func (c *Concept) ActiveAnswerByName(name string) *ConceptAnswer {
	for _, a := range c.Answers {
		if !a.Voided && a.Answer != nil && strings.EqualFold(a.Answer.Name, name) {
			return a
		}
	}
	return nil
}

// ActiveAnswerByUUID matches the answer concept's uuid.
func (c *Concept) ActiveAnswerByUUID(uuid string) *ConceptAnswer {
	for _, a := range c.Answers {
		if !a.Voided && a.Answer != nil && a.Answer.UUID == uuid {
			return a
		}
	}
	return nil
}

// ConceptAnswer links a coded concept to one of its answer concepts.
type ConceptAnswer struct {
	reconcile.Entity
	ConceptID int64    `json:"-"`
	Answer    *Concept `json:"answerConcept"`
	Order     float64  `json:"order"`
	Abnormal  bool     `json:"abnormal"`
	Unique    bool     `json:"unique"`
}

// ExternalID identifies an answer within its concept by the answer concept,
// which is what clients submit.
func (a *ConceptAnswer) ExternalID() string {
	if a.Answer == nil {
		return ""
	}
	return a.Answer.UUID
}

type EncounterType struct {
	reconcile.Entity
	Name            string `json:"name"`
	OperationalName string `json:"-"`
}

// OperationalEncounterTypeName is the organisation's name for the type,
// falling back to the shared name.
func (e *EncounterType) OperationalEncounterTypeName() string {
	if e.OperationalName != "" {
		return e.OperationalName
	}
	return e.Name
}

// OperationalEncounterType is an organisation's view of a shared encounter type.
type OperationalEncounterType struct {
	reconcile.Entity
	Name                      string    `json:"name"`
	EncounterTypeUUID         string    `json:"encounterTypeUUID"`
	EncounterTypeName         string    `json:"encounterTypeName"`
	EncounterTypeLastModified time.Time `json:"-"`
}

type SubjectType struct {
	reconcile.Entity
	Name    string `json:"name"`
	Type    string `json:"type"`
	IsGroup bool   `json:"group"`
}

func (s *SubjectType) IsPerson() bool { return s.Type == SubjectPerson }

type GroupRole struct {
	reconcile.Entity
	Role                  string  `json:"role"`
	GroupSubjectTypeID    int64   `json:"-"`
	GroupSubjectTypeUUID  string  `json:"groupSubjectTypeUUID"`
	MemberSubjectTypeUUID string  `json:"memberSubjectTypeUUID"`
	IsPrimary             bool    `json:"primary"`
	MaximumMembers        float64 `json:"maximumNumberOfMembers"`
	MinimumMembers        float64 `json:"minimumNumberOfMembers"`
}

type Gender struct {
	ID   int64  `json:"-"`
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// AddressLevel is a node of the location hierarchy (village, block, district).
type AddressLevel struct {
	ID             int64   `json:"id"`
	UUID           string  `json:"uuid"`
	Title          string  `json:"title"`
	Level          float64 `json:"level"`
	ParentID       *int64  `json:"parentId"`
	Version        int     `json:"version"`
	AuditID        int64   `json:"auditId"`
	OrganisationID int64   `json:"organisationId"`
}

type Facility struct {
	reconcile.Entity
	Name             string `json:"name"`
	AddressLevelID   int64  `json:"-"`
	AddressLevelUUID string `json:"addressLevelUUID"`
}
