package form

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/openchs/openchs-server/internal/platform/db"
	"github.com/openchs/openchs-server/internal/platform/metrics"
	"github.com/openchs/openchs-server/internal/reconcile"
	"github.com/openchs/openchs-server/pkg/pagination"
)

type Service struct {
	forms   FormRepository
	builder *Builder
	tx      db.TxRunner
	now     func() time.Time
}

func NewService(forms FormRepository, concepts ConceptSource, tx db.TxRunner) *Service {
	return &Service{forms: forms, builder: NewBuilder(concepts), tx: tx, now: time.Now}
}

// Form resolves an active form by uuid.
func (s *Service) Form(ctx context.Context, uuid string) (*Form, error) {
	return reconcile.Resolve(ctx, reconcile.KindForm, uuid, s.forms.FindByUUID)
}

// SaveForm replaces the form's groups and elements with the contract's,
// voiding whatever the contract leaves out.
func (s *Service) SaveForm(ctx context.Context, fc FormContract) (*Form, error) {
	return s.save(ctx, fc, false)
}

// PatchForm adds to and updates an existing form without voiding anything.
func (s *Service) PatchForm(ctx context.Context, fc FormContract) (*Form, error) {
	return s.save(ctx, fc, true)
}

func (s *Service) save(ctx context.Context, fc FormContract, additive bool) (*Form, error) {
	var saved *Form
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.forms.FindByUUID(ctx, fc.UUID)
		if err != nil {
			return err
		}
		if existing == nil && additive {
			return reconcile.NotFound(reconcile.KindForm, fc.UUID)
		}
		if err := s.assertNameAvailable(ctx, fc.Name, fc.UUID); err != nil {
			return err
		}

		f, res, err := s.builder.Build(ctx, existing, fc, additive, s.now())
		if err != nil {
			return err
		}
		if err := s.forms.Save(ctx, f); err != nil {
			return err
		}

		outcome := metrics.Updated
		if existing == nil {
			outcome = metrics.Created
		}
		metrics.Reconciled("form", outcome, 1)
		metrics.Reconciled("form element", metrics.Created, res.Created)
		metrics.Reconciled("form element", metrics.Updated, res.Updated)
		metrics.Reconciled("form element", metrics.Voided, res.Voided)
		zerolog.Ctx(ctx).Info().Str("form", f.UUID).Str("outcome", outcome).Bool("additive", additive).
			Int("created", res.Created).Int("updated", res.Updated).Int("voided", res.Voided).
			Msg("form saved")
		saved = f
		return nil
	})
	return saved, err
}

func (s *Service) assertNameAvailable(ctx context.Context, name, uuid string) error {
	other, err := s.forms.FindByName(ctx, name)
	if err != nil {
		return err
	}
	if other != nil && other.UUID != uuid {
		return reconcile.Invalid("Form with name %s already exists", name)
	}
	return nil
}

// ExportForm returns the active shape of a form.
func (s *Service) ExportForm(ctx context.Context, uuid string) (FormContract, error) {
	f, err := s.Form(ctx, uuid)
	if err != nil {
		return FormContract{}, err
	}
	return Project(f, false), nil
}

func (s *Service) ListForms(ctx context.Context, p pagination.Params) (*pagination.Page[FormSummary], error) {
	forms, total, err := s.forms.ListActive(ctx, p.Limit(), p.Offset())
	if err != nil {
		return nil, err
	}
	items := make([]FormSummary, 0, len(forms))
	for _, f := range forms {
		items = append(items, Summarize(f))
	}
	return pagination.NewPage(items, total, p), nil
}

// DeleteForm voids the form and frees its name.
func (s *Service) DeleteForm(ctx context.Context, uuid string) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		f, err := s.Form(ctx, uuid)
		if err != nil {
			return err
		}
		reconcile.Void(f, s.now())
		if err := s.forms.Save(ctx, f); err != nil {
			return err
		}
		metrics.Reconciled("form", metrics.Voided, 1)
		zerolog.Ctx(ctx).Info().Str("form", uuid).Msg("form voided")
		return nil
	})
}

// FormsModifiedBetween feeds sync clients, so voided rows are included.
func (s *Service) FormsModifiedBetween(ctx context.Context, from, to time.Time, p pagination.Params) (*pagination.Page[FormContract], error) {
	forms, total, err := s.forms.ListModifiedBetween(ctx, from, to, p.Limit(), p.Offset())
	if err != nil {
		return nil, err
	}
	items := make([]FormContract, 0, len(forms))
	for _, f := range forms {
		items = append(items, Project(f, true))
	}
	return pagination.NewPage(items, total, p), nil
}
