package checklist

import "github.com/openchs/openchs-server/internal/domain/referencedata"

// ChecklistDetailContract is accepted on upload and returned on read with the
// same field names, so an export can be posted back unchanged.
type ChecklistDetailContract struct {
	UUID   string                        `json:"uuid" validate:"required"`
	Name   string                        `json:"name" validate:"notblank"`
	Voided bool                          `json:"voided"`
	Items  []ChecklistItemDetailContract `json:"items" validate:"dive"`
}

type ChecklistItemDetailContract struct {
	UUID                         string                        `json:"uuid" validate:"required"`
	FormUUID                     string                        `json:"formUUID" validate:"required"`
	Concept                      referencedata.ConceptContract `json:"concept"`
	Status                       []StatusEntry                 `json:"status"`
	Voided                       bool                          `json:"voided"`
	DependentOn                  string                        `json:"dependentOn,omitempty"`
	ScheduleOnExpiryOfDependency bool                          `json:"scheduleOnExpiryOfDependency"`
	MinDaysFromStartDate         *int                          `json:"minDaysFromStartDate,omitempty"`
	MinDaysFromDependent         *int                          `json:"minDaysFromDependent,omitempty"`
	ExpiresAfter                 *int                          `json:"expiresAfter,omitempty"`
}

// ContractFrom projects a detail with its active items.
func ContractFrom(d *ChecklistDetail) ChecklistDetailContract {
	dc := ChecklistDetailContract{
		UUID:   d.UUID,
		Name:   d.Name,
		Voided: d.Voided,
		Items:  []ChecklistItemDetailContract{},
	}
	for _, item := range d.Items {
		if item.Voided {
			continue
		}
		ic := ChecklistItemDetailContract{
			UUID:                         item.UUID,
			FormUUID:                     item.FormUUID,
			Status:                       item.Status,
			ScheduleOnExpiryOfDependency: item.ScheduleOnExpiryOfDependency,
			MinDaysFromStartDate:         item.MinDaysFromStartDate,
			MinDaysFromDependent:         item.MinDaysFromDependent,
			ExpiresAfter:                 item.ExpiresAfter,
		}
		if item.Concept != nil {
			ic.Concept = referencedata.ConceptContract{
				UUID:     item.Concept.UUID,
				Name:     item.Concept.Name,
				DataType: item.Concept.DataType,
			}
		}
		if item.LeadItem != nil {
			ic.DependentOn = item.LeadItem.UUID
		}
		dc.Items = append(dc.Items, ic)
	}
	return dc
}
