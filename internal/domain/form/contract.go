package form

import (
	"sort"
	"time"

	"github.com/openchs/openchs-server/internal/domain/referencedata"
)

// FormContract is both the upload payload and the export shape of a form.
type FormContract struct {
	UUID              string                     `json:"uuid" validate:"required"`
	Name              string                     `json:"name" validate:"notblank"`
	FormType          string                     `json:"formType" validate:"required,oneof=IndividualProfile Encounter ProgramEnrolment ProgramExit ProgramEncounter ProgramEncounterCancellation ChecklistItem"`
	Voided            bool                       `json:"voided"`
	DecisionRule      string                     `json:"decisionRule,omitempty"`
	ValidationRule    string                     `json:"validationRule,omitempty"`
	VisitScheduleRule string                     `json:"visitScheduleRule,omitempty"`
	ChecklistsRule    string                     `json:"checklistsRule,omitempty"`
	FormElementGroups []FormElementGroupContract `json:"formElementGroups" validate:"dive"`
}

type FormElementGroupContract struct {
	UUID         string                `json:"uuid" validate:"required"`
	Name         string                `json:"name" validate:"notblank"`
	DisplayOrder float64               `json:"displayOrder"`
	Display      string                `json:"display,omitempty"`
	Rule         string                `json:"rule,omitempty"`
	Voided       bool                  `json:"voided"`
	FormElements []FormElementContract `json:"formElements" validate:"dive"`
}

type FormElementContract struct {
	UUID         string                        `json:"uuid" validate:"required"`
	Name         string                        `json:"name" validate:"notblank"`
	DisplayOrder float64                       `json:"displayOrder"`
	Mandatory    bool                          `json:"mandatory"`
	Type         string                        `json:"type,omitempty" validate:"omitempty,oneof=SingleSelect MultiSelect"`
	KeyValues    []KeyValue                    `json:"keyValues,omitempty"`
	ValidFormat  *Format                       `json:"validFormat,omitempty"`
	Rule         string                        `json:"rule,omitempty"`
	Voided       bool                          `json:"voided"`
	Concept      referencedata.ConceptContract `json:"concept"`
}

// FormSummary is a row of the form listing.
type FormSummary struct {
	UUID                 string    `json:"uuid"`
	Name                 string    `json:"name"`
	FormType             string    `json:"formType"`
	LastModifiedDateTime time.Time `json:"lastModifiedDateTime"`
}

// Project builds the client shape of f. Voided groups and elements are left
// out unless includeVoided is set, which sync clients need.
func Project(f *Form, includeVoided bool) FormContract {
	fc := FormContract{
		UUID:              f.UUID,
		Name:              f.Name,
		FormType:          f.FormType,
		Voided:            f.Voided,
		DecisionRule:      f.DecisionRule,
		ValidationRule:    f.ValidationRule,
		VisitScheduleRule: f.VisitScheduleRule,
		ChecklistsRule:    f.ChecklistsRule,
		FormElementGroups: []FormElementGroupContract{},
	}
	for _, g := range f.Groups {
		if g.Voided && !includeVoided {
			continue
		}
		gc := FormElementGroupContract{
			UUID:         g.UUID,
			Name:         g.Name,
			DisplayOrder: g.DisplayOrder,
			Display:      g.Display,
			Rule:         g.Rule,
			Voided:       g.Voided,
			FormElements: []FormElementContract{},
		}
		for _, e := range g.Elements {
			if e.Voided && !includeVoided {
				continue
			}
			ec := FormElementContract{
				UUID:         e.UUID,
				Name:         e.Name,
				DisplayOrder: e.DisplayOrder,
				Mandatory:    e.Mandatory,
				Type:         e.Type,
				KeyValues:    e.KeyValues,
				ValidFormat:  e.ValidFormat,
				Rule:         e.Rule,
				Voided:       e.Voided,
			}
			if e.Concept != nil {
				ec.Concept = referencedata.ConceptContractFrom(e.Concept)
			}
			gc.FormElements = append(gc.FormElements, ec)
		}
		sort.SliceStable(gc.FormElements, func(i, j int) bool {
			return gc.FormElements[i].DisplayOrder < gc.FormElements[j].DisplayOrder
		})
		fc.FormElementGroups = append(fc.FormElementGroups, gc)
	}
	sort.SliceStable(fc.FormElementGroups, func(i, j int) bool {
		return fc.FormElementGroups[i].DisplayOrder < fc.FormElementGroups[j].DisplayOrder
	})
	return fc
}

func Summarize(f *Form) FormSummary {
	return FormSummary{UUID: f.UUID, Name: f.Name, FormType: f.FormType, LastModifiedDateTime: f.LastModified}
}
