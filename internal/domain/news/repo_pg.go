package news

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openchs/openchs-server/internal/platform/db"
)

type newsRepoPG struct{ pool *pgxpool.Pool }

func NewNewsRepoPG(pool *pgxpool.Pool) NewsRepository {
	return &newsRepoPG{pool: pool}
}

func (r *newsRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const newsCols = `id, uuid, title, COALESCE(content, ''), COALESCE(content_html, ''),
	COALESCE(hero_image, ''), published_date, is_voided, created_date_time, last_modified_date_time`

func scanNews(row pgx.Row) (*News, error) {
	var n News
	err := row.Scan(&n.ID, &n.UUID, &n.Title, &n.Content, &n.ContentHTML,
		&n.HeroImage, &n.PublishedDate, &n.Voided, &n.CreatedAt, &n.LastModified)
	return &n, err
}

func (r *newsRepoPG) FindByID(ctx context.Context, id int64) (*News, error) {
	n, err := scanNews(r.conn(ctx).QueryRow(ctx,
		`SELECT `+newsCols+` FROM news WHERE id = $1`, id))
	n, err = db.Optional(n, err)
	if err != nil {
		return nil, fmt.Errorf("find news %d: %w", id, err)
	}
	return n, nil
}

func (r *newsRepoPG) FindByTitle(ctx context.Context, title string) (*News, error) {
	n, err := scanNews(r.conn(ctx).QueryRow(ctx,
		`SELECT `+newsCols+` FROM news WHERE title = $1 AND is_voided = false`, title))
	n, err = db.Optional(n, err)
	if err != nil {
		return nil, fmt.Errorf("find news titled %s: %w", title, err)
	}
	return n, nil
}

func (r *newsRepoPG) ListActive(ctx context.Context, limit, offset int) ([]*News, int, error) {
	q := r.conn(ctx)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM news WHERE is_voided = false`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count news: %w", err)
	}
	rows, err := q.Query(ctx, `SELECT `+newsCols+` FROM news WHERE is_voided = false
		ORDER BY published_date DESC NULLS LAST, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list news: %w", err)
	}
	items, err := db.CollectRows(rows, scanNews)
	if err != nil {
		return nil, 0, fmt.Errorf("scan news: %w", err)
	}
	return items, total, nil
}

func (r *newsRepoPG) Save(ctx context.Context, n *News) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO news (uuid, title, content, content_html, hero_image, published_date,
			is_voided, created_date_time, last_modified_date_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (uuid) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			content_html = EXCLUDED.content_html,
			hero_image = EXCLUDED.hero_image,
			published_date = EXCLUDED.published_date,
			is_voided = EXCLUDED.is_voided,
			last_modified_date_time = EXCLUDED.last_modified_date_time
		RETURNING id`,
		n.UUID, n.Title, n.Content, n.ContentHTML, n.HeroImage, n.PublishedDate,
		n.Voided, n.CreatedAt, n.LastModified,
	).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("save news %s: %w", n.UUID, err)
	}
	return nil
}
