package checklist

import (
	"github.com/openchs/openchs-server/internal/domain/referencedata"
	"github.com/openchs/openchs-server/internal/reconcile"
)

// ChecklistDetail is the template a subject's checklist is generated from.
type ChecklistDetail struct {
	reconcile.Entity
	Name  string
	Items []*ChecklistItemDetail
}

// ChecklistItemDetail is one scheduled item. An item may depend on a lead
// item and be scheduled relative to it.
type ChecklistItemDetail struct {
	reconcile.Entity
	ChecklistDetailID            int64
	Status                       []StatusEntry
	FormID                       int64
	FormUUID                     string
	Concept                      *referencedata.Concept
	LeadItem                     *ChecklistItemDetail
	ScheduleOnExpiryOfDependency bool
	MinDaysFromStartDate         *int
	MinDaysFromDependent         *int
	ExpiresAfter                 *int
}

// StatusEntry describes one state in an item's lifecycle, e.g. "Due" from
// day 0 to day 30.
type StatusEntry struct {
	State        string  `json:"state"`
	From         *Offset `json:"from,omitempty"`
	To           *Offset `json:"to,omitempty"`
	Color        string  `json:"color,omitempty"`
	DisplayOrder float64 `json:"displayOrder"`
	Start        int     `json:"start"`
	End          int     `json:"end"`
}

type Offset struct {
	Day   int `json:"day,omitempty"`
	Week  int `json:"week,omitempty"`
	Month int `json:"month,omitempty"`
	Year  int `json:"year,omitempty"`
}
