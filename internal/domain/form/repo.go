package form

import (
	"context"
	"time"
)

// FormRepository persists forms together with their groups and elements.
// Finders that return a single form load the whole graph, voided rows
// included.
type FormRepository interface {
	FindByUUID(ctx context.Context, uuid string) (*Form, error)
	// FindByName matches active forms only and does not load the graph.
	FindByName(ctx context.Context, name string) (*Form, error)
	Save(ctx context.Context, f *Form) error
	ListActive(ctx context.Context, limit, offset int) ([]*Form, int, error)
	ListModifiedBetween(ctx context.Context, from, to time.Time, limit, offset int) ([]*Form, int, error)
}
