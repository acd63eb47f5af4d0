package referencedata

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/openchs/openchs-server/internal/platform/db"
	"github.com/openchs/openchs-server/internal/platform/metrics"
	"github.com/openchs/openchs-server/internal/reconcile"
	"github.com/openchs/openchs-server/pkg/pagination"
)

type Service struct {
	repos Repositories
	tx    db.TxRunner
	now   func() time.Time
}

func NewService(repos Repositories, tx db.TxRunner) *Service {
	return &Service{repos: repos, tx: tx, now: time.Now}
}

// -- Resolvers --

func (s *Service) Concept(ctx context.Context, uuid string) (*Concept, error) {
	return reconcile.Resolve(ctx, reconcile.KindConcept, uuid, s.repos.Concepts.FindByUUID)
}

func (s *Service) ConceptByName(ctx context.Context, name string) (*Concept, error) {
	return reconcile.ResolveByName(ctx, reconcile.KindConcept, name, s.repos.Concepts.FindByName)
}

func (s *Service) EncounterType(ctx context.Context, uuid string) (*EncounterType, error) {
	return reconcile.Resolve(ctx, reconcile.KindEncounterType, uuid, s.repos.EncounterTypes.FindByUUID)
}

func (s *Service) EncounterTypeByName(ctx context.Context, name string) (*EncounterType, error) {
	return reconcile.ResolveByName(ctx, reconcile.KindEncounterType, name, s.repos.EncounterTypes.FindByName)
}

func (s *Service) SubjectType(ctx context.Context, uuid string) (*SubjectType, error) {
	return reconcile.Resolve(ctx, reconcile.KindSubjectType, uuid, s.repos.SubjectTypes.FindByUUID)
}

// FindSubjectType returns nil for an unknown type instead of failing.
func (s *Service) FindSubjectType(ctx context.Context, uuid string) (*SubjectType, error) {
	return s.repos.SubjectTypes.FindByUUID(ctx, uuid)
}

func (s *Service) GroupRole(ctx context.Context, uuid string) (*GroupRole, error) {
	return reconcile.Resolve(ctx, reconcile.KindGroupRole, uuid, s.repos.GroupRoles.FindByUUID)
}

func (s *Service) GroupRolesOf(ctx context.Context, groupSubjectTypeID int64) ([]*GroupRole, error) {
	return s.repos.GroupRoles.ListActiveByGroupSubjectType(ctx, groupSubjectTypeID)
}

// -- Concept upload --

// SaveConcepts upserts every concept in payload order inside one transaction.
func (s *Service) SaveConcepts(ctx context.Context, contracts []ConceptContract) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		for _, cc := range contracts {
			if _, err := s.upsertConcept(ctx, cc); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveConcept upserts one concept. Called inside a form save it joins that
// transaction.
func (s *Service) SaveConcept(ctx context.Context, cc ConceptContract) (*Concept, error) {
	var saved *Concept
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.upsertConcept(ctx, cc)
		saved = c
		return err
	})
	return saved, err
}

func (s *Service) upsertConcept(ctx context.Context, cc ConceptContract) (*Concept, error) {
	now := s.now()
	c, err := s.repos.Concepts.FindByUUID(ctx, cc.UUID)
	if err != nil {
		return nil, err
	}
	created := c == nil
	if created {
		c = &Concept{Entity: reconcile.Entity{UUID: cc.UUID, CreatedAt: now}}
	}
	if err := s.assertNameAvailable(ctx, cc.Name, cc.UUID); err != nil {
		return nil, err
	}

	c.Name = cc.Name
	c.DataType = cc.DataType
	c.LowAbsolute, c.HighAbsolute = cc.LowAbsolute, cc.HighAbsolute
	c.LowNormal, c.HighNormal = cc.LowNormal, cc.HighNormal
	c.Unit = cc.Unit
	c.Voided = cc.Voided

	var answers []*ConceptAnswer
	if c.IsCoded() {
		seen := make(map[string]bool, len(cc.Answers))
		for _, ac := range cc.Answers {
			if seen[ac.UUID] {
				return nil, reconcile.Invalid("answer %s appears more than once in concept %s", ac.UUID, cc.UUID)
			}
			seen[ac.UUID] = true
		}
		for i, ac := range cc.Answers {
			answerConcept, err := s.answerConcept(ctx, ac, now)
			if err != nil {
				return nil, err
			}
			a, ok := reconcile.Existing(c.Answers, ac.UUID)
			if !ok {
				a = &ConceptAnswer{Entity: reconcile.Entity{CreatedAt: now}}
				a.AssignUUIDIfRequired()
			}
			a.Answer = answerConcept
			a.Order = ac.Order
			if a.Order == 0 {
				a.Order = float64(i + 1)
			}
			a.Abnormal = ac.Abnormal
			a.Unique = ac.Unique
			a.Voided = ac.Voided
			a.Touch(now)
			answers = append(answers, a)
		}
	}
	// a concept that stops being coded loses all of its answers
	voided := reconcile.VoidMissing(c.Answers, answers, now)
	c.Answers = append(answers, voided...)
	c.Touch(now)

	if err := s.repos.Concepts.Save(ctx, c); err != nil {
		return nil, err
	}

	outcome := metrics.Updated
	if created {
		outcome = metrics.Created
	}
	metrics.Reconciled("concept", outcome, 1)
	metrics.Reconciled("concept answer", metrics.Voided, len(voided))
	zerolog.Ctx(ctx).Debug().Str("concept", c.UUID).Str("outcome", outcome).
		Int("answers", len(answers)).Int("voided_answers", len(voided)).Msg("concept saved")
	return c, nil
}

// answerConcept finds the concept an answer points at, creating an NA concept
// when the answer is new and named.
func (s *Service) answerConcept(ctx context.Context, ac ConceptContract, now time.Time) (*Concept, error) {
	c, err := s.repos.Concepts.FindByUUID(ctx, ac.UUID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		if ac.Name == "" {
			return nil, reconcile.NotFound(reconcile.KindConcept, ac.UUID)
		}
		c = &Concept{Entity: reconcile.Entity{UUID: ac.UUID, CreatedAt: now}, DataType: DataTypeNA}
	} else if ac.Name == "" || ac.Name == c.Name {
		return c, nil
	}
	if err := s.assertNameAvailable(ctx, ac.Name, ac.UUID); err != nil {
		return nil, err
	}
	c.Name = ac.Name
	c.Touch(now)
	if err := s.repos.Concepts.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) assertNameAvailable(ctx context.Context, name, uuid string) error {
	if name == "" {
		return reconcile.Invalid("concept %s has no name", uuid)
	}
	other, err := s.repos.Concepts.FindByName(ctx, name)
	if err != nil {
		return err
	}
	if other != nil && other.UUID != uuid {
		return reconcile.Invalid("Concept with name %s already exists", name)
	}
	return nil
}

// -- Sync listings --

func (s *Service) FacilitiesModifiedBetween(ctx context.Context, from, to time.Time, p pagination.Params) (*pagination.Page[*Facility], error) {
	items, total, err := s.repos.Facilities.ListModifiedBetween(ctx, from, to, p.Limit(), p.Offset())
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(items, total, p), nil
}

func (s *Service) FacilitiesByCatchmentModifiedBetween(ctx context.Context, catchmentID int64, from, to time.Time, p pagination.Params) (*pagination.Page[*Facility], error) {
	items, total, err := s.repos.Facilities.ListByCatchmentModifiedBetween(ctx, catchmentID, from, to, p.Limit(), p.Offset())
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(items, total, p), nil
}

func (s *Service) FacilitiesByID(ctx context.Context, ids []int64) ([]*Facility, error) {
	if len(ids) == 0 {
		return []*Facility{}, nil
	}
	return s.repos.Facilities.FindAllByID(ctx, ids)
}

func (s *Service) OperationalEncounterTypesModifiedSince(ctx context.Context, since time.Time, p pagination.Params) (*pagination.Page[*OperationalEncounterType], error) {
	items, total, err := s.repos.OperationalEncounterTypes.ListModifiedSince(ctx, since, p.Limit(), p.Offset())
	if err != nil {
		return nil, fmt.Errorf("operational encounter types since %s: %w", since.Format(time.RFC3339), err)
	}
	return pagination.NewPage(items, total, p), nil
}
