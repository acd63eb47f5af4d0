package form

import (
	"github.com/openchs/openchs-server/internal/domain/referencedata"
	"github.com/openchs/openchs-server/internal/reconcile"
)

// Form types.
const (
	TypeIndividualProfile = "IndividualProfile"
	TypeEncounter         = "Encounter"
	TypeProgramEnrolment  = "ProgramEnrolment"
	TypeProgramExit       = "ProgramExit"
	TypeProgramEncounter  = "ProgramEncounter"
	TypeProgramCancel     = "ProgramEncounterCancellation"
	TypeChecklistItem     = "ChecklistItem"
)

type Form struct {
	reconcile.Entity
	Name              string
	FormType          string
	DecisionRule      string
	ValidationRule    string
	VisitScheduleRule string
	ChecklistsRule    string
	Groups            []*FormElementGroup
}

func (f *Form) DisplayName() string        { return f.Name }
func (f *Form) SetDisplayName(name string) { f.Name = name }

// Elements returns every element of the form, voided ones included.
func (f *Form) Elements() []*FormElement {
	var all []*FormElement
	for _, g := range f.Groups {
		all = append(all, g.Elements...)
	}
	return all
}

type FormElementGroup struct {
	reconcile.Entity
	FormID       int64
	Name         string
	DisplayOrder float64
	Display      string
	Rule         string
	Elements     []*FormElement
}

func (g *FormElementGroup) DisplayName() string        { return g.Name }
func (g *FormElementGroup) SetDisplayName(name string) { g.Name = name }

type FormElement struct {
	reconcile.Entity
	GroupID      int64
	Name         string
	DisplayOrder float64
	Mandatory    bool
	Type         string
	KeyValues    []KeyValue
	ValidFormat  *Format
	Rule         string
	Concept      *referencedata.Concept
}

func (e *FormElement) DisplayName() string        { return e.Name }
func (e *FormElement) SetDisplayName(name string) { e.Name = name }

type KeyValue struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

type Format struct {
	Regex          string `json:"regex"`
	DescriptionKey string `json:"descriptionKey"`
}
