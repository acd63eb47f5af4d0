package referencedata

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openchs/openchs-server/internal/platform/db"
)

// -- Concept --

type conceptRepoPG struct{ pool *pgxpool.Pool }

func NewConceptRepoPG(pool *pgxpool.Pool) ConceptRepository {
	return &conceptRepoPG{pool: pool}
}

func (r *conceptRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const conceptCols = `id, uuid, name, data_type, low_absolute, high_absolute,
	low_normal, high_normal, COALESCE(unit, ''), is_voided,
	created_date_time, last_modified_date_time`

func scanConcept(row pgx.Row) (*Concept, error) {
	var c Concept
	err := row.Scan(&c.ID, &c.UUID, &c.Name, &c.DataType,
		&c.LowAbsolute, &c.HighAbsolute, &c.LowNormal, &c.HighNormal,
		&c.Unit, &c.Voided, &c.CreatedAt, &c.LastModified)
	return &c, err
}

func (r *conceptRepoPG) FindByUUID(ctx context.Context, uuid string) (*Concept, error) {
	c, err := scanConcept(r.conn(ctx).QueryRow(ctx,
		`SELECT `+conceptCols+` FROM concept WHERE uuid = $1`, uuid))
	c, err = db.Optional(c, err)
	if err != nil || c == nil {
		return nil, wrap(err, "find concept %s", uuid)
	}
	return c, r.loadAnswers(ctx, c)
}

func (r *conceptRepoPG) FindByName(ctx context.Context, name string) (*Concept, error) {
	c, err := scanConcept(r.conn(ctx).QueryRow(ctx,
		`SELECT `+conceptCols+` FROM concept WHERE name = $1 AND is_voided = false`, name))
	c, err = db.Optional(c, err)
	if err != nil || c == nil {
		return nil, wrap(err, "find concept named %s", name)
	}
	return c, r.loadAnswers(ctx, c)
}

func (r *conceptRepoPG) loadAnswers(ctx context.Context, c *Concept) error {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT ca.id, ca.uuid, ca.answer_order, ca.abnormal, ca.is_unique, ca.is_voided,
			ca.created_date_time, ca.last_modified_date_time,
			ac.id, ac.uuid, ac.name, ac.data_type, ac.is_voided
		FROM concept_answer ca
		JOIN concept ac ON ac.id = ca.answer_concept_id
		WHERE ca.concept_id = $1
		ORDER BY ca.answer_order, ca.id`, c.ID)
	if err != nil {
		return fmt.Errorf("load answers of concept %s: %w", c.UUID, err)
	}
	answers, err := db.CollectRows(rows, func(row pgx.Row) (*ConceptAnswer, error) {
		a := ConceptAnswer{ConceptID: c.ID, Answer: &Concept{}}
		err := row.Scan(&a.ID, &a.UUID, &a.Order, &a.Abnormal, &a.Unique, &a.Voided,
			&a.CreatedAt, &a.LastModified,
			&a.Answer.ID, &a.Answer.UUID, &a.Answer.Name, &a.Answer.DataType, &a.Answer.Voided)
		return &a, err
	})
	if err != nil {
		return fmt.Errorf("scan answers of concept %s: %w", c.UUID, err)
	}
	c.Answers = answers
	return nil
}

func (r *conceptRepoPG) Save(ctx context.Context, c *Concept) error {
	q := r.conn(ctx)
	if c.IsNew() {
		err := q.QueryRow(ctx, `
			INSERT INTO concept (uuid, name, data_type, low_absolute, high_absolute,
				low_normal, high_normal, unit, is_voided, created_date_time, last_modified_date_time)
			VALUES ($1,$2,$3,$4,$5,$6,$7,NULLIF($8,''),$9,$10,$11)
			RETURNING id`,
			c.UUID, c.Name, c.DataType, c.LowAbsolute, c.HighAbsolute,
			c.LowNormal, c.HighNormal, c.Unit, c.Voided, c.CreatedAt, c.LastModified).Scan(&c.ID)
		if err != nil {
			return fmt.Errorf("insert concept %s: %w", c.UUID, err)
		}
	} else {
		_, err := q.Exec(ctx, `
			UPDATE concept SET name=$2, data_type=$3, low_absolute=$4, high_absolute=$5,
				low_normal=$6, high_normal=$7, unit=NULLIF($8,''), is_voided=$9,
				last_modified_date_time=$10
			WHERE id = $1`,
			c.ID, c.Name, c.DataType, c.LowAbsolute, c.HighAbsolute,
			c.LowNormal, c.HighNormal, c.Unit, c.Voided, c.LastModified)
		if err != nil {
			return fmt.Errorf("update concept %s: %w", c.UUID, err)
		}
	}

	for _, a := range c.Answers {
		a.ConceptID = c.ID
		if a.IsNew() {
			err := q.QueryRow(ctx, `
				INSERT INTO concept_answer (uuid, concept_id, answer_concept_id, answer_order,
					abnormal, is_unique, is_voided, created_date_time, last_modified_date_time)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
				RETURNING id`,
				a.UUID, c.ID, a.Answer.ID, a.Order, a.Abnormal, a.Unique, a.Voided,
				a.CreatedAt, a.LastModified).Scan(&a.ID)
			if err != nil {
				return fmt.Errorf("insert answer %s of concept %s: %w", a.ExternalID(), c.UUID, err)
			}
			continue
		}
		if _, err := q.Exec(ctx, `
			UPDATE concept_answer SET answer_order=$2, abnormal=$3, is_unique=$4, is_voided=$5,
				last_modified_date_time=$6
			WHERE id = $1`,
			a.ID, a.Order, a.Abnormal, a.Unique, a.Voided, a.LastModified); err != nil {
			return fmt.Errorf("update answer %s of concept %s: %w", a.ExternalID(), c.UUID, err)
		}
	}
	return nil
}

// -- Encounter types --

type encounterTypeRepoPG struct{ pool *pgxpool.Pool }

func NewEncounterTypeRepoPG(pool *pgxpool.Pool) EncounterTypeRepository {
	return &encounterTypeRepoPG{pool: pool}
}

// the operational name comes from the organisation's own row when present
const etSelect = `SELECT et.id, et.uuid, et.name, COALESCE(oet.name, ''), et.is_voided,
	et.created_date_time, et.last_modified_date_time
	FROM encounter_type et
	LEFT JOIN operational_encounter_type oet ON oet.encounter_type_id = et.id AND oet.is_voided = false`

func scanEncounterType(row pgx.Row) (*EncounterType, error) {
	var et EncounterType
	err := row.Scan(&et.ID, &et.UUID, &et.Name, &et.OperationalName, &et.Voided,
		&et.CreatedAt, &et.LastModified)
	return &et, err
}

func (r *encounterTypeRepoPG) FindByUUID(ctx context.Context, uuid string) (*EncounterType, error) {
	et, err := scanEncounterType(db.Conn(ctx, r.pool).QueryRow(ctx, etSelect+` WHERE et.uuid = $1`, uuid))
	et, err = db.Optional(et, err)
	return et, wrap(err, "find encounter type %s", uuid)
}

func (r *encounterTypeRepoPG) FindByName(ctx context.Context, name string) (*EncounterType, error) {
	et, err := scanEncounterType(db.Conn(ctx, r.pool).QueryRow(ctx,
		etSelect+` WHERE (et.name = $1 OR oet.name = $1) AND et.is_voided = false LIMIT 1`, name))
	et, err = db.Optional(et, err)
	return et, wrap(err, "find encounter type named %s", name)
}

type operationalEncounterTypeRepoPG struct{ pool *pgxpool.Pool }

func NewOperationalEncounterTypeRepoPG(pool *pgxpool.Pool) OperationalEncounterTypeRepository {
	return &operationalEncounterTypeRepoPG{pool: pool}
}

func (r *operationalEncounterTypeRepoPG) ListModifiedSince(ctx context.Context, since time.Time, limit, offset int) ([]*OperationalEncounterType, int, error) {
	const where = `FROM operational_encounter_type oet
		JOIN encounter_type et ON et.id = oet.encounter_type_id
		WHERE oet.last_modified_date_time > $1 OR et.last_modified_date_time > $1`

	q := db.Conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) `+where, since).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count operational encounter types: %w", err)
	}
	rows, err := q.Query(ctx, `
		SELECT oet.id, oet.uuid, oet.name, oet.is_voided, oet.created_date_time,
			oet.last_modified_date_time, et.uuid, et.name, et.last_modified_date_time `+where+`
		ORDER BY GREATEST(et.last_modified_date_time, oet.last_modified_date_time), oet.id
		LIMIT $2 OFFSET $3`, since, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list operational encounter types: %w", err)
	}
	items, err := db.CollectRows(rows, func(row pgx.Row) (*OperationalEncounterType, error) {
		var o OperationalEncounterType
		err := row.Scan(&o.ID, &o.UUID, &o.Name, &o.Voided, &o.CreatedAt, &o.LastModified,
			&o.EncounterTypeUUID, &o.EncounterTypeName, &o.EncounterTypeLastModified)
		return &o, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scan operational encounter types: %w", err)
	}
	return items, total, nil
}

// -- Subject types and group roles --

type subjectTypeRepoPG struct{ pool *pgxpool.Pool }

func NewSubjectTypeRepoPG(pool *pgxpool.Pool) SubjectTypeRepository {
	return &subjectTypeRepoPG{pool: pool}
}

func (r *subjectTypeRepoPG) FindByUUID(ctx context.Context, uuid string) (*SubjectType, error) {
	var st SubjectType
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, uuid, name, type, is_group, is_voided, created_date_time, last_modified_date_time
		FROM subject_type WHERE uuid = $1`, uuid).
		Scan(&st.ID, &st.UUID, &st.Name, &st.Type, &st.IsGroup, &st.Voided, &st.CreatedAt, &st.LastModified)
	found, err := db.Optional(&st, err)
	return found, wrap(err, "find subject type %s", uuid)
}

type groupRoleRepoPG struct{ pool *pgxpool.Pool }

func NewGroupRoleRepoPG(pool *pgxpool.Pool) GroupRoleRepository {
	return &groupRoleRepoPG{pool: pool}
}

const groupRoleSelect = `SELECT gr.id, gr.uuid, gr.role, gr.group_subject_type_id, gst.uuid, mst.uuid,
	gr.is_primary, gr.maximum_number_of_members, gr.minimum_number_of_members, gr.is_voided,
	gr.created_date_time, gr.last_modified_date_time
	FROM group_role gr
	JOIN subject_type gst ON gst.id = gr.group_subject_type_id
	JOIN subject_type mst ON mst.id = gr.member_subject_type_id`

func scanGroupRole(row pgx.Row) (*GroupRole, error) {
	var g GroupRole
	err := row.Scan(&g.ID, &g.UUID, &g.Role, &g.GroupSubjectTypeID, &g.GroupSubjectTypeUUID,
		&g.MemberSubjectTypeUUID, &g.IsPrimary, &g.MaximumMembers, &g.MinimumMembers, &g.Voided,
		&g.CreatedAt, &g.LastModified)
	return &g, err
}

func (r *groupRoleRepoPG) FindByUUID(ctx context.Context, uuid string) (*GroupRole, error) {
	g, err := scanGroupRole(db.Conn(ctx, r.pool).QueryRow(ctx, groupRoleSelect+` WHERE gr.uuid = $1`, uuid))
	g, err = db.Optional(g, err)
	return g, wrap(err, "find group role %s", uuid)
}

func (r *groupRoleRepoPG) ListActiveByGroupSubjectType(ctx context.Context, subjectTypeID int64) ([]*GroupRole, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		groupRoleSelect+` WHERE gr.group_subject_type_id = $1 AND gr.is_voided = false ORDER BY gr.id`, subjectTypeID)
	if err != nil {
		return nil, fmt.Errorf("list group roles: %w", err)
	}
	roles, err := db.CollectRows(rows, scanGroupRole)
	return roles, wrap(err, "scan group roles")
}

// -- Facilities --

type facilityRepoPG struct{ pool *pgxpool.Pool }

func NewFacilityRepoPG(pool *pgxpool.Pool) FacilityRepository {
	return &facilityRepoPG{pool: pool}
}

const facilitySelect = `SELECT f.id, f.uuid, f.name, f.address_id, al.uuid, f.is_voided,
	f.created_date_time, f.last_modified_date_time
	FROM facility f
	JOIN address_level al ON al.id = f.address_id`

func scanFacility(row pgx.Row) (*Facility, error) {
	var f Facility
	err := row.Scan(&f.ID, &f.UUID, &f.Name, &f.AddressLevelID, &f.AddressLevelUUID, &f.Voided,
		&f.CreatedAt, &f.LastModified)
	return &f, err
}

func (r *facilityRepoPG) page(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Facility, int, error) {
	q := db.Conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM facility f JOIN address_level al ON al.id = f.address_id `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count facilities: %w", err)
	}
	n := len(args)
	rows, err := q.Query(ctx, facilitySelect+" "+where+
		fmt.Sprintf(` ORDER BY f.last_modified_date_time, f.id LIMIT $%d OFFSET $%d`, n+1, n+2),
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list facilities: %w", err)
	}
	items, err := db.CollectRows(rows, scanFacility)
	if err != nil {
		return nil, 0, fmt.Errorf("scan facilities: %w", err)
	}
	return items, total, nil
}

func (r *facilityRepoPG) ListModifiedBetween(ctx context.Context, from, to time.Time, limit, offset int) ([]*Facility, int, error) {
	return r.page(ctx, `WHERE f.last_modified_date_time BETWEEN $1 AND $2 AND f.is_voided = false`,
		[]interface{}{from, to}, limit, offset)
}

func (r *facilityRepoPG) ListByCatchmentModifiedBetween(ctx context.Context, catchmentID int64, from, to time.Time, limit, offset int) ([]*Facility, int, error) {
	return r.page(ctx, `WHERE f.address_id IN (
			SELECT addresslevel_id FROM catchment_address_mapping WHERE catchment_id = $1)
		AND f.last_modified_date_time BETWEEN $2 AND $3 AND f.is_voided = false`,
		[]interface{}{catchmentID, from, to}, limit, offset)
}

func (r *facilityRepoPG) FindAllByID(ctx context.Context, ids []int64) ([]*Facility, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, facilitySelect+` WHERE f.id = ANY($1) ORDER BY f.id`, ids)
	if err != nil {
		return nil, fmt.Errorf("find facilities by id: %w", err)
	}
	items, err := db.CollectRows(rows, scanFacility)
	return items, wrap(err, "scan facilities")
}

func wrap(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
