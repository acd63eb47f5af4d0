package form

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openchs/openchs-server/internal/domain/referencedata"
	"github.com/openchs/openchs-server/internal/platform/db"
)

type formRepoPG struct{ pool *pgxpool.Pool }

func NewFormRepoPG(pool *pgxpool.Pool) FormRepository {
	return &formRepoPG{pool: pool}
}

func (r *formRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const formCols = `id, uuid, name, form_type, COALESCE(decision_rule, ''),
	COALESCE(validation_rule, ''), COALESCE(visit_schedule_rule, ''),
	COALESCE(checklists_rule, ''), is_voided, created_date_time, last_modified_date_time`

func scanForm(row pgx.Row) (*Form, error) {
	var f Form
	err := row.Scan(&f.ID, &f.UUID, &f.Name, &f.FormType, &f.DecisionRule,
		&f.ValidationRule, &f.VisitScheduleRule, &f.ChecklistsRule,
		&f.Voided, &f.CreatedAt, &f.LastModified)
	return &f, err
}

func (r *formRepoPG) FindByUUID(ctx context.Context, uuid string) (*Form, error) {
	f, err := scanForm(r.conn(ctx).QueryRow(ctx,
		`SELECT `+formCols+` FROM form WHERE uuid = $1`, uuid))
	f, err = db.Optional(f, err)
	if err != nil {
		return nil, fmt.Errorf("find form %s: %w", uuid, err)
	}
	if f == nil {
		return nil, nil
	}
	return f, r.loadGraph(ctx, f)
}

func (r *formRepoPG) FindByName(ctx context.Context, name string) (*Form, error) {
	f, err := scanForm(r.conn(ctx).QueryRow(ctx,
		`SELECT `+formCols+` FROM form WHERE name = $1 AND is_voided = false`, name))
	f, err = db.Optional(f, err)
	if err != nil {
		return nil, fmt.Errorf("find form named %s: %w", name, err)
	}
	return f, nil
}

func (r *formRepoPG) ListActive(ctx context.Context, limit, offset int) ([]*Form, int, error) {
	q := r.conn(ctx)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM form WHERE is_voided = false`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count forms: %w", err)
	}
	rows, err := q.Query(ctx, `SELECT `+formCols+` FROM form WHERE is_voided = false
		ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list forms: %w", err)
	}
	forms, err := db.CollectRows(rows, scanForm)
	if err != nil {
		return nil, 0, fmt.Errorf("scan forms: %w", err)
	}
	return forms, total, nil
}

func (r *formRepoPG) ListModifiedBetween(ctx context.Context, from, to time.Time, limit, offset int) ([]*Form, int, error) {
	q := r.conn(ctx)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM form
		WHERE last_modified_date_time BETWEEN $1 AND $2`, from, to).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count forms: %w", err)
	}
	rows, err := q.Query(ctx, `SELECT `+formCols+` FROM form
		WHERE last_modified_date_time BETWEEN $1 AND $2
		ORDER BY last_modified_date_time, id LIMIT $3 OFFSET $4`, from, to, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list forms modified: %w", err)
	}
	forms, err := db.CollectRows(rows, scanForm)
	if err != nil {
		return nil, 0, fmt.Errorf("scan forms: %w", err)
	}
	for _, f := range forms {
		if err := r.loadGraph(ctx, f); err != nil {
			return nil, 0, err
		}
	}
	return forms, total, nil
}

func (r *formRepoPG) loadGraph(ctx context.Context, f *Form) error {
	q := r.conn(ctx)
	rows, err := q.Query(ctx, `
		SELECT id, uuid, name, display_order, COALESCE(display, ''), COALESCE(rule, ''),
			is_voided, created_date_time, last_modified_date_time
		FROM form_element_group WHERE form_id = $1
		ORDER BY display_order, id`, f.ID)
	if err != nil {
		return fmt.Errorf("load groups of form %s: %w", f.UUID, err)
	}
	groups, err := db.CollectRows(rows, func(row pgx.Row) (*FormElementGroup, error) {
		g := FormElementGroup{FormID: f.ID}
		err := row.Scan(&g.ID, &g.UUID, &g.Name, &g.DisplayOrder, &g.Display, &g.Rule,
			&g.Voided, &g.CreatedAt, &g.LastModified)
		return &g, err
	})
	if err != nil {
		return fmt.Errorf("scan groups of form %s: %w", f.UUID, err)
	}

	rows, err = q.Query(ctx, `
		SELECT fe.id, fe.uuid, fe.form_element_group_id, fe.name, fe.display_order,
			fe.is_mandatory, COALESCE(fe.type, ''), fe.key_values, fe.valid_format,
			COALESCE(fe.rule, ''), fe.is_voided, fe.created_date_time, fe.last_modified_date_time,
			c.id, c.uuid, c.name, c.data_type, c.low_absolute, c.high_absolute,
			c.low_normal, c.high_normal, COALESCE(c.unit, ''), c.is_voided
		FROM form_element fe
		JOIN form_element_group g ON g.id = fe.form_element_group_id
		JOIN concept c ON c.id = fe.concept_id
		WHERE g.form_id = $1
		ORDER BY fe.display_order, fe.id`, f.ID)
	if err != nil {
		return fmt.Errorf("load elements of form %s: %w", f.UUID, err)
	}
	concepts := make(map[int64]*referencedata.Concept)
	elements, err := db.CollectRows(rows, func(row pgx.Row) (*FormElement, error) {
		var e FormElement
		var c referencedata.Concept
		err := row.Scan(&e.ID, &e.UUID, &e.GroupID, &e.Name, &e.DisplayOrder,
			&e.Mandatory, &e.Type, &e.KeyValues, &e.ValidFormat,
			&e.Rule, &e.Voided, &e.CreatedAt, &e.LastModified,
			&c.ID, &c.UUID, &c.Name, &c.DataType, &c.LowAbsolute, &c.HighAbsolute,
			&c.LowNormal, &c.HighNormal, &c.Unit, &c.Voided)
		if shared, ok := concepts[c.ID]; ok {
			e.Concept = shared
		} else {
			e.Concept = &c
			concepts[c.ID] = &c
		}
		return &e, err
	})
	if err != nil {
		return fmt.Errorf("scan elements of form %s: %w", f.UUID, err)
	}
	if err := r.loadAnswers(ctx, concepts); err != nil {
		return err
	}

	byID := make(map[int64]*FormElementGroup, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}
	for _, e := range elements {
		if g, ok := byID[e.GroupID]; ok {
			g.Elements = append(g.Elements, e)
		}
	}
	f.Groups = groups
	return nil
}

func (r *formRepoPG) loadAnswers(ctx context.Context, concepts map[int64]*referencedata.Concept) error {
	if len(concepts) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(concepts))
	for id := range concepts {
		ids = append(ids, id)
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT ca.id, ca.uuid, ca.concept_id, ca.answer_order, ca.abnormal, ca.is_unique,
			ca.is_voided, ac.id, ac.uuid, ac.name, ac.data_type, ac.is_voided
		FROM concept_answer ca
		JOIN concept ac ON ac.id = ca.answer_concept_id
		WHERE ca.concept_id = ANY($1)
		ORDER BY ca.answer_order, ca.id`, ids)
	if err != nil {
		return fmt.Errorf("load element concept answers: %w", err)
	}
	answers, err := db.CollectRows(rows, func(row pgx.Row) (*referencedata.ConceptAnswer, error) {
		a := referencedata.ConceptAnswer{Answer: &referencedata.Concept{}}
		err := row.Scan(&a.ID, &a.UUID, &a.ConceptID, &a.Order, &a.Abnormal, &a.Unique,
			&a.Voided, &a.Answer.ID, &a.Answer.UUID, &a.Answer.Name, &a.Answer.DataType, &a.Answer.Voided)
		return &a, err
	})
	if err != nil {
		return fmt.Errorf("scan element concept answers: %w", err)
	}
	for _, a := range answers {
		c := concepts[a.ConceptID]
		c.Answers = append(c.Answers, a)
	}
	return nil
}

func (r *formRepoPG) Save(ctx context.Context, f *Form) error {
	q := r.conn(ctx)
	if f.IsNew() {
		err := q.QueryRow(ctx, `
			INSERT INTO form (uuid, name, form_type, decision_rule, validation_rule,
				visit_schedule_rule, checklists_rule, is_voided, created_date_time, last_modified_date_time)
			VALUES ($1,$2,$3,NULLIF($4,''),NULLIF($5,''),NULLIF($6,''),NULLIF($7,''),$8,$9,$10)
			RETURNING id`,
			f.UUID, f.Name, f.FormType, f.DecisionRule, f.ValidationRule,
			f.VisitScheduleRule, f.ChecklistsRule, f.Voided, f.CreatedAt, f.LastModified).Scan(&f.ID)
		if err != nil {
			return fmt.Errorf("insert form %s: %w", f.UUID, err)
		}
	} else if _, err := q.Exec(ctx, `
		UPDATE form SET name=$2, form_type=$3, decision_rule=NULLIF($4,''),
			validation_rule=NULLIF($5,''), visit_schedule_rule=NULLIF($6,''),
			checklists_rule=NULLIF($7,''), is_voided=$8, last_modified_date_time=$9
		WHERE id = $1`,
		f.ID, f.Name, f.FormType, f.DecisionRule, f.ValidationRule,
		f.VisitScheduleRule, f.ChecklistsRule, f.Voided, f.LastModified); err != nil {
		return fmt.Errorf("update form %s: %w", f.UUID, err)
	}

	for _, g := range f.Groups {
		g.FormID = f.ID
		if err := saveGroup(ctx, q, g); err != nil {
			return fmt.Errorf("form %s: %w", f.UUID, err)
		}
		for _, e := range g.Elements {
			e.GroupID = g.ID
			if err := saveElement(ctx, q, e); err != nil {
				return fmt.Errorf("form %s: %w", f.UUID, err)
			}
		}
	}
	return nil
}

func saveGroup(ctx context.Context, q db.Queryable, g *FormElementGroup) error {
	if g.IsNew() {
		err := q.QueryRow(ctx, `
			INSERT INTO form_element_group (uuid, form_id, name, display_order, display, rule,
				is_voided, created_date_time, last_modified_date_time)
			VALUES ($1,$2,$3,$4,NULLIF($5,''),NULLIF($6,''),$7,$8,$9)
			RETURNING id`,
			g.UUID, g.FormID, g.Name, g.DisplayOrder, g.Display, g.Rule,
			g.Voided, g.CreatedAt, g.LastModified).Scan(&g.ID)
		if err != nil {
			return fmt.Errorf("insert group %s: %w", g.UUID, err)
		}
		return nil
	}
	_, err := q.Exec(ctx, `
		UPDATE form_element_group SET form_id=$2, name=$3, display_order=$4,
			display=NULLIF($5,''), rule=NULLIF($6,''), is_voided=$7, last_modified_date_time=$8
		WHERE id = $1`,
		g.ID, g.FormID, g.Name, g.DisplayOrder, g.Display, g.Rule, g.Voided, g.LastModified)
	if err != nil {
		return fmt.Errorf("update group %s: %w", g.UUID, err)
	}
	return nil
}

func saveElement(ctx context.Context, q db.Queryable, e *FormElement) error {
	if e.IsNew() {
		err := q.QueryRow(ctx, `
			INSERT INTO form_element (uuid, form_element_group_id, name, display_order,
				is_mandatory, type, key_values, valid_format, rule, concept_id,
				is_voided, created_date_time, last_modified_date_time)
			VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7,$8,NULLIF($9,''),$10,$11,$12,$13)
			RETURNING id`,
			e.UUID, e.GroupID, e.Name, e.DisplayOrder, e.Mandatory, e.Type,
			e.KeyValues, e.ValidFormat, e.Rule, e.Concept.ID,
			e.Voided, e.CreatedAt, e.LastModified).Scan(&e.ID)
		if err != nil {
			return fmt.Errorf("insert element %s: %w", e.UUID, err)
		}
		return nil
	}
	_, err := q.Exec(ctx, `
		UPDATE form_element SET form_element_group_id=$2, name=$3, display_order=$4,
			is_mandatory=$5, type=NULLIF($6,''), key_values=$7, valid_format=$8,
			rule=NULLIF($9,''), concept_id=$10, is_voided=$11, last_modified_date_time=$12
		WHERE id = $1`,
		e.ID, e.GroupID, e.Name, e.DisplayOrder, e.Mandatory, e.Type,
		e.KeyValues, e.ValidFormat, e.Rule, e.Concept.ID, e.Voided, e.LastModified)
	if err != nil {
		return fmt.Errorf("update element %s: %w", e.UUID, err)
	}
	return nil
}
