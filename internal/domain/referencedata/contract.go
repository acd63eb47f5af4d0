package referencedata

import "sort"

// ConceptContract is the client shape of a concept, used both for upload and
// for export. Answers are concept contracts of their own.
type ConceptContract struct {
	UUID         string            `json:"uuid" validate:"required"`
	Name         string            `json:"name,omitempty"`
	DataType     string            `json:"dataType,omitempty" validate:"omitempty,oneof=Coded Numeric Text Notes Date DateTime Time Duration Image Id NA"`
	LowAbsolute  *float64          `json:"lowAbsolute,omitempty"`
	HighAbsolute *float64          `json:"highAbsolute,omitempty"`
	LowNormal    *float64          `json:"lowNormal,omitempty"`
	HighNormal   *float64          `json:"highNormal,omitempty"`
	Unit         string            `json:"unit,omitempty"`
	Answers      []ConceptContract `json:"answers,omitempty" validate:"dive"`
	Order        float64           `json:"order,omitempty"`
	Abnormal     bool              `json:"abnormal,omitempty"`
	Unique       bool              `json:"unique,omitempty"`
	Voided       bool              `json:"voided,omitempty"`
}

// Defines reports whether the contract carries a concept definition rather
// than a bare reference by uuid.
func (c ConceptContract) Defines() bool {
	return c.Name != "" && c.DataType != ""
}

// ConceptContractFrom projects a concept with its active answers in order.
func ConceptContractFrom(c *Concept) ConceptContract {
	cc := ConceptContract{
		UUID:         c.UUID,
		Name:         c.Name,
		DataType:     c.DataType,
		LowAbsolute:  c.LowAbsolute,
		HighAbsolute: c.HighAbsolute,
		LowNormal:    c.LowNormal,
		HighNormal:   c.HighNormal,
		Unit:         c.Unit,
		Voided:       c.Voided,
	}
	answers := make([]*ConceptAnswer, 0, len(c.Answers))
	for _, a := range c.Answers {
		if !a.Voided && a.Answer != nil {
			answers = append(answers, a)
		}
	}
	sort.SliceStable(answers, func(i, j int) bool { return answers[i].Order < answers[j].Order })
	for _, a := range answers {
		cc.Answers = append(cc.Answers, ConceptContract{
			UUID:     a.Answer.UUID,
			Name:     a.Answer.Name,
			DataType: a.Answer.DataType,
			Order:    a.Order,
			Abnormal: a.Abnormal,
			Unique:   a.Unique,
		})
	}
	return cc
}

// GroupRoleContract is the web app's view of a group role.
type GroupRoleContract struct {
	GroupRoleUUID          string  `json:"groupRoleUUID"`
	Role                   string  `json:"role"`
	GroupSubjectTypeUUID   string  `json:"groupSubjectTypeUUID"`
	MemberSubjectTypeUUID  string  `json:"memberSubjectTypeUUID"`
	Primary                bool    `json:"primary"`
	MaximumNumberOfMembers float64 `json:"maximumNumberOfMembers"`
	MinimumNumberOfMembers float64 `json:"minimumNumberOfMembers"`
	Voided                 bool    `json:"voided"`
}

func GroupRoleContractFrom(r *GroupRole) GroupRoleContract {
	return GroupRoleContract{
		GroupRoleUUID:          r.UUID,
		Role:                   r.Role,
		GroupSubjectTypeUUID:   r.GroupSubjectTypeUUID,
		MemberSubjectTypeUUID:  r.MemberSubjectTypeUUID,
		Primary:                r.IsPrimary,
		MaximumNumberOfMembers: r.MaximumMembers,
		MinimumNumberOfMembers: r.MinimumMembers,
		Voided:                 r.Voided,
	}
}
