package checklist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openchs/openchs-server/internal/domain/referencedata"
	"github.com/openchs/openchs-server/internal/platform/db"
)

type checklistRepoPG struct{ pool *pgxpool.Pool }

func NewChecklistDetailRepoPG(pool *pgxpool.Pool) ChecklistDetailRepository {
	return &checklistRepoPG{pool: pool}
}

func (r *checklistRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const detailCols = `id, uuid, name, is_voided, created_date_time, last_modified_date_time`

func scanDetail(row pgx.Row) (*ChecklistDetail, error) {
	var d ChecklistDetail
	err := row.Scan(&d.ID, &d.UUID, &d.Name, &d.Voided, &d.CreatedAt, &d.LastModified)
	return &d, err
}

func (r *checklistRepoPG) FindByUUID(ctx context.Context, uuid string) (*ChecklistDetail, error) {
	d, err := scanDetail(r.conn(ctx).QueryRow(ctx,
		`SELECT `+detailCols+` FROM checklist_detail WHERE uuid = $1`, uuid))
	d, err = db.Optional(d, err)
	if err != nil {
		return nil, fmt.Errorf("find checklist detail %s: %w", uuid, err)
	}
	if d == nil {
		return nil, nil
	}
	return d, r.loadItems(ctx, d)
}

func (r *checklistRepoPG) ListActive(ctx context.Context) ([]*ChecklistDetail, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+detailCols+` FROM checklist_detail WHERE is_voided = false ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list checklist details: %w", err)
	}
	details, err := db.CollectRows(rows, scanDetail)
	if err != nil {
		return nil, fmt.Errorf("scan checklist details: %w", err)
	}
	for _, d := range details {
		if err := r.loadItems(ctx, d); err != nil {
			return nil, err
		}
	}
	return details, nil
}

func (r *checklistRepoPG) loadItems(ctx context.Context, d *ChecklistDetail) error {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT i.id, i.uuid, i.status, i.form_id, f.uuid, i.schedule_on_expiry_of_dependency,
			i.min_days_from_start_date, i.min_days_from_dependent, i.expires_after,
			i.is_voided, i.created_date_time, i.last_modified_date_time,
			COALESCE(i.dependent_on, 0),
			c.id, c.uuid, c.name, c.data_type, c.is_voided
		FROM checklist_item_detail i
		JOIN form f ON f.id = i.form_id
		JOIN concept c ON c.id = i.concept_id
		WHERE i.checklist_detail_id = $1
		ORDER BY i.id`, d.ID)
	if err != nil {
		return fmt.Errorf("load items of checklist detail %s: %w", d.UUID, err)
	}
	leads := make(map[int64]int64)
	items, err := db.CollectRows(rows, func(row pgx.Row) (*ChecklistItemDetail, error) {
		item := ChecklistItemDetail{ChecklistDetailID: d.ID, Concept: &referencedata.Concept{}}
		var lead int64
		err := row.Scan(&item.ID, &item.UUID, &item.Status, &item.FormID, &item.FormUUID,
			&item.ScheduleOnExpiryOfDependency, &item.MinDaysFromStartDate,
			&item.MinDaysFromDependent, &item.ExpiresAfter,
			&item.Voided, &item.CreatedAt, &item.LastModified, &lead,
			&item.Concept.ID, &item.Concept.UUID, &item.Concept.Name, &item.Concept.DataType, &item.Concept.Voided)
		if lead != 0 {
			leads[item.ID] = lead
		}
		return &item, err
	})
	if err != nil {
		return fmt.Errorf("scan items of checklist detail %s: %w", d.UUID, err)
	}

	byID := make(map[int64]*ChecklistItemDetail, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	for _, item := range items {
		if lead, ok := leads[item.ID]; ok {
			item.LeadItem = byID[lead]
		}
	}
	d.Items = items
	return nil
}

// Save upserts the detail and its items. Lead item links are written in a
// second pass so an item may depend on one inserted in the same save.
func (r *checklistRepoPG) Save(ctx context.Context, d *ChecklistDetail) error {
	q := r.conn(ctx)
	if d.IsNew() {
		err := q.QueryRow(ctx, `
			INSERT INTO checklist_detail (uuid, name, is_voided, created_date_time, last_modified_date_time)
			VALUES ($1,$2,$3,$4,$5) RETURNING id`,
			d.UUID, d.Name, d.Voided, d.CreatedAt, d.LastModified).Scan(&d.ID)
		if err != nil {
			return fmt.Errorf("insert checklist detail %s: %w", d.UUID, err)
		}
	} else if _, err := q.Exec(ctx, `
		UPDATE checklist_detail SET name=$2, is_voided=$3, last_modified_date_time=$4 WHERE id = $1`,
		d.ID, d.Name, d.Voided, d.LastModified); err != nil {
		return fmt.Errorf("update checklist detail %s: %w", d.UUID, err)
	}

	for _, item := range d.Items {
		item.ChecklistDetailID = d.ID
		if item.IsNew() {
			err := q.QueryRow(ctx, `
				INSERT INTO checklist_item_detail (uuid, checklist_detail_id, status, form_id, concept_id,
					schedule_on_expiry_of_dependency, min_days_from_start_date, min_days_from_dependent,
					expires_after, is_voided, created_date_time, last_modified_date_time)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) RETURNING id`,
				item.UUID, d.ID, item.Status, item.FormID, item.Concept.ID,
				item.ScheduleOnExpiryOfDependency, item.MinDaysFromStartDate, item.MinDaysFromDependent,
				item.ExpiresAfter, item.Voided, item.CreatedAt, item.LastModified).Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("insert checklist item %s: %w", item.UUID, err)
			}
			continue
		}
		if _, err := q.Exec(ctx, `
			UPDATE checklist_item_detail SET status=$2, form_id=$3, concept_id=$4,
				schedule_on_expiry_of_dependency=$5, min_days_from_start_date=$6,
				min_days_from_dependent=$7, expires_after=$8, is_voided=$9, last_modified_date_time=$10
			WHERE id = $1`,
			item.ID, item.Status, item.FormID, item.Concept.ID,
			item.ScheduleOnExpiryOfDependency, item.MinDaysFromStartDate, item.MinDaysFromDependent,
			item.ExpiresAfter, item.Voided, item.LastModified); err != nil {
			return fmt.Errorf("update checklist item %s: %w", item.UUID, err)
		}
	}

	for _, item := range d.Items {
		var lead *int64
		if item.LeadItem != nil {
			lead = &item.LeadItem.ID
		}
		if _, err := q.Exec(ctx, `UPDATE checklist_item_detail SET dependent_on = $2 WHERE id = $1`,
			item.ID, lead); err != nil {
			return fmt.Errorf("link checklist item %s: %w", item.UUID, err)
		}
	}
	return nil
}
