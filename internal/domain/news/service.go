package news

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/openchs/openchs-server/internal/platform/db"
	"github.com/openchs/openchs-server/internal/platform/metrics"
	"github.com/openchs/openchs-server/internal/reconcile"
	"github.com/openchs/openchs-server/pkg/pagination"
)

type Service struct {
	news NewsRepository
	tx   db.TxRunner
	now  func() time.Time
}

func NewService(news NewsRepository, tx db.TxRunner) *Service {
	return &Service{news: news, tx: tx, now: time.Now}
}

// GetNews returns an active news item by id.
func (s *Service) GetNews(ctx context.Context, id int64) (*News, error) {
	n, err := s.news.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil || n.Voided {
		return nil, &reconcile.ReferenceNotFoundError{Kind: reconcile.KindNews, ExternalID: strconv.FormatInt(id, 10), By: "id"}
	}
	return n, nil
}

func (s *Service) ListNews(ctx context.Context, p pagination.Params) (*pagination.Page[NewsContract], error) {
	items, total, err := s.news.ListActive(ctx, p.Limit(), p.Offset())
	if err != nil {
		return nil, err
	}
	out := make([]NewsContract, 0, len(items))
	for _, n := range items {
		out = append(out, ContractFrom(n))
	}
	return pagination.NewPage(out, total, p), nil
}

// SaveNews creates a news item. Titles are unique among active news.
func (s *Service) SaveNews(ctx context.Context, nc NewsContract) (*News, error) {
	var saved *News
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.assertTitleAvailable(ctx, nc.Title); err != nil {
			return err
		}
		now := s.now()
		n := &News{Entity: reconcile.Entity{CreatedAt: now}}
		n.AssignUUIDIfRequired()
		apply(n, nc)
		n.Touch(now)
		if err := s.news.Save(ctx, n); err != nil {
			return err
		}
		metrics.Reconciled("news", metrics.Created, 1)
		zerolog.Ctx(ctx).Info().Str("news", n.UUID).Msg("news created")
		saved = n
		return nil
	})
	return saved, err
}

// EditNews overwrites a news item. The title is checked for clashes only
// when it changes.
func (s *Service) EditNews(ctx context.Context, id int64, nc NewsContract) (*News, error) {
	var saved *News
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		n, err := s.GetNews(ctx, id)
		if err != nil {
			return err
		}
		if nc.Title != n.Title {
			if err := s.assertTitleAvailable(ctx, nc.Title); err != nil {
				return err
			}
		}
		apply(n, nc)
		n.Touch(s.now())
		if err := s.news.Save(ctx, n); err != nil {
			return err
		}
		metrics.Reconciled("news", metrics.Updated, 1)
		saved = n
		return nil
	})
	return saved, err
}

// DeleteNews voids the item and frees its title.
func (s *Service) DeleteNews(ctx context.Context, id int64) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		n, err := s.GetNews(ctx, id)
		if err != nil {
			return err
		}
		reconcile.Void(n, s.now())
		if err := s.news.Save(ctx, n); err != nil {
			return err
		}
		metrics.Reconciled("news", metrics.Voided, 1)
		zerolog.Ctx(ctx).Info().Str("news", n.UUID).Msg("news voided")
		return nil
	})
}

func (s *Service) assertTitleAvailable(ctx context.Context, title string) error {
	other, err := s.news.FindByTitle(ctx, title)
	if err != nil {
		return err
	}
	if other != nil {
		return reconcile.Invalid("News with the title %s already exists", title)
	}
	return nil
}

func apply(n *News, nc NewsContract) {
	n.Title = nc.Title
	n.Content = nc.Content
	n.ContentHTML = nc.ContentHTML
	n.HeroImage = nc.HeroImage
	n.PublishedDate = nc.PublishedDate
}
