package news

import "context"

type NewsRepository interface {
	FindByID(ctx context.Context, id int64) (*News, error)
	// FindByTitle matches active news only.
	FindByTitle(ctx context.Context, title string) (*News, error)
	ListActive(ctx context.Context, limit, offset int) ([]*News, int, error)
	Save(ctx context.Context, n *News) error
}
