package checklist

import "context"

// ChecklistDetailRepository loads details with all of their items, voided
// ones included.
type ChecklistDetailRepository interface {
	FindByUUID(ctx context.Context, uuid string) (*ChecklistDetail, error)
	ListActive(ctx context.Context) ([]*ChecklistDetail, error)
	Save(ctx context.Context, d *ChecklistDetail) error
}
