package checklist

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/openchs/openchs-server/internal/platform/db"
	"github.com/openchs/openchs-server/internal/platform/metrics"
	"github.com/openchs/openchs-server/internal/reconcile"
)

type Service struct {
	details ChecklistDetailRepository
	builder *Builder
	tx      db.TxRunner
	now     func() time.Time
}

func NewService(details ChecklistDetailRepository, forms FormSource, concepts ConceptSource, tx db.TxRunner) *Service {
	return &Service{details: details, builder: NewBuilder(forms, concepts), tx: tx, now: time.Now}
}

// SaveChecklistDetail loads or creates the detail, rebuilds its items and
// voids the ones the request leaves out, all in one transaction.
func (s *Service) SaveChecklistDetail(ctx context.Context, dc ChecklistDetailContract) (*ChecklistDetail, error) {
	var saved *ChecklistDetail
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.details.FindByUUID(ctx, dc.UUID)
		if err != nil {
			return err
		}
		d, voided, err := s.builder.Build(ctx, existing, dc, s.now())
		if err != nil {
			return err
		}
		if err := s.details.Save(ctx, d); err != nil {
			return err
		}

		outcome := metrics.Updated
		if existing == nil {
			outcome = metrics.Created
		}
		metrics.Reconciled("checklist detail", outcome, 1)
		metrics.Reconciled("checklist item detail", metrics.Voided, len(voided))
		zerolog.Ctx(ctx).Info().Str("checklist_detail", d.UUID).Str("outcome", outcome).
			Int("items", len(dc.Items)).Int("voided_items", len(voided)).Msg("checklist detail saved")
		saved = d
		return nil
	})
	return saved, err
}

func (s *Service) GetChecklistDetail(ctx context.Context, uuid string) (*ChecklistDetail, error) {
	return reconcile.Resolve(ctx, reconcile.KindChecklistDetail, uuid, s.details.FindByUUID)
}

func (s *Service) ListActive(ctx context.Context) ([]*ChecklistDetail, error) {
	return s.details.ListActive(ctx)
}
