package subject

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openchs/openchs-server/internal/domain/referencedata"
	"github.com/openchs/openchs-server/internal/platform/db"
)

// -- Individuals --

type individualRepoPG struct{ pool *pgxpool.Pool }

func NewIndividualRepoPG(pool *pgxpool.Pool) IndividualRepository {
	return &individualRepoPG{pool: pool}
}

const individualSelect = `SELECT i.id, i.uuid, i.first_name, COALESCE(i.last_name, ''),
	i.date_of_birth, i.registration_date, i.observations, i.is_voided,
	i.created_date_time, i.last_modified_date_time,
	st.id, st.uuid, st.name, st.type, st.is_group,
	g.id, g.uuid, g.name,
	a.id, a.uuid, a.title, a.level, a.parent_id, COALESCE(a.version, 0),
	COALESCE(a.audit_id, 0), a.organisation_id
	FROM individual i
	JOIN subject_type st ON st.id = i.subject_type_id
	LEFT JOIN gender g ON g.id = i.gender_id
	JOIN address_level a ON a.id = i.address_id`

func scanIndividual(row pgx.Row) (*Individual, error) {
	ind := Individual{SubjectType: &referencedata.SubjectType{}, AddressLevel: &referencedata.AddressLevel{}}
	var genderID *int64
	var genderUUID, genderName *string
	st, al := ind.SubjectType, ind.AddressLevel
	err := row.Scan(&ind.ID, &ind.UUID, &ind.FirstName, &ind.LastName,
		&ind.DateOfBirth, &ind.RegistrationDate, &ind.Observations, &ind.Voided,
		&ind.CreatedAt, &ind.LastModified,
		&st.ID, &st.UUID, &st.Name, &st.Type, &st.IsGroup,
		&genderID, &genderUUID, &genderName,
		&al.ID, &al.UUID, &al.Title, &al.Level, &al.ParentID, &al.Version,
		&al.AuditID, &al.OrganisationID)
	if err == nil && genderID != nil {
		ind.Gender = &referencedata.Gender{ID: *genderID, UUID: *genderUUID, Name: *genderName}
	}
	return &ind, err
}

func (r *individualRepoPG) FindByUUID(ctx context.Context, uuid string) (*Individual, error) {
	ind, err := scanIndividual(db.Conn(ctx, r.pool).QueryRow(ctx, individualSelect+` WHERE i.uuid = $1`, uuid))
	ind, err = db.Optional(ind, err)
	if err != nil {
		return nil, fmt.Errorf("find individual %s: %w", uuid, err)
	}
	return ind, nil
}

func (r *individualRepoPG) FindByID(ctx context.Context, id int64) (*Individual, error) {
	ind, err := scanIndividual(db.Conn(ctx, r.pool).QueryRow(ctx, individualSelect+` WHERE i.id = $1`, id))
	ind, err = db.Optional(ind, err)
	if err != nil {
		return nil, fmt.Errorf("find individual %d: %w", id, err)
	}
	return ind, nil
}

const visitCols = `COALESCE(e.name, ''), e.encounter_date_time, e.earliest_visit_date_time,
	e.max_visit_date_time, e.cancel_date_time, e.observations, e.cancel_observations,
	et.id, et.uuid, et.name, COALESCE(oet.name, '')`

const encounterTypeJoin = `JOIN encounter_type et ON et.id = e.encounter_type_id
	LEFT JOIN operational_encounter_type oet ON oet.encounter_type_id = et.id AND oet.is_voided = false`

func visitDest(v *Visit) []interface{} {
	v.EncounterType = &referencedata.EncounterType{}
	return []interface{}{&v.Name, &v.EncounterDateTime, &v.EarliestVisitDateTime,
		&v.MaxVisitDateTime, &v.CancelDateTime, &v.Observations, &v.CancelObservations,
		&v.EncounterType.ID, &v.EncounterType.UUID, &v.EncounterType.Name, &v.EncounterType.OperationalName}
}

func (r *individualRepoPG) LoadHistory(ctx context.Context, ind *Individual) error {
	q := db.Conn(ctx, r.pool)
	rows, err := q.Query(ctx, `
		SELECT e.id, e.uuid, e.is_voided, e.created_date_time, e.last_modified_date_time, `+visitCols+`
		FROM encounter e `+encounterTypeJoin+`
		WHERE e.individual_id = $1
		ORDER BY e.encounter_date_time NULLS LAST, e.id`, ind.ID)
	if err != nil {
		return fmt.Errorf("load encounters of %s: %w", ind.UUID, err)
	}
	encounters, err := db.CollectRows(rows, func(row pgx.Row) (*Encounter, error) {
		e := Encounter{IndividualID: ind.ID}
		dest := append([]interface{}{&e.ID, &e.UUID, &e.Voided, &e.CreatedAt, &e.LastModified}, visitDest(&e.Visit)...)
		return &e, row.Scan(dest...)
	})
	if err != nil {
		return fmt.Errorf("scan encounters of %s: %w", ind.UUID, err)
	}

	rows, err = q.Query(ctx, enrolmentSelect+` WHERE pe.individual_id = $1
		ORDER BY pe.enrolment_date_time NULLS LAST, pe.id`, ind.ID)
	if err != nil {
		return fmt.Errorf("load enrolments of %s: %w", ind.UUID, err)
	}
	enrolments, err := db.CollectRows(rows, scanEnrolment)
	if err != nil {
		return fmt.Errorf("scan enrolments of %s: %w", ind.UUID, err)
	}

	ind.Encounters = encounters
	ind.Enrolments = enrolments
	return nil
}

// -- Program enrolments --

type programEnrolmentRepoPG struct{ pool *pgxpool.Pool }

func NewProgramEnrolmentRepoPG(pool *pgxpool.Pool) ProgramEnrolmentRepository {
	return &programEnrolmentRepoPG{pool: pool}
}

const enrolmentSelect = `SELECT pe.id, pe.uuid, pe.individual_id, i.uuid, p.name,
	pe.enrolment_date_time, pe.program_exit_date_time, pe.observations,
	pe.program_exit_observations, pe.is_voided, pe.created_date_time, pe.last_modified_date_time
	FROM program_enrolment pe
	JOIN individual i ON i.id = pe.individual_id
	JOIN program p ON p.id = pe.program_id`

func scanEnrolment(row pgx.Row) (*ProgramEnrolment, error) {
	var pe ProgramEnrolment
	err := row.Scan(&pe.ID, &pe.UUID, &pe.IndividualID, &pe.IndividualUUID, &pe.ProgramName,
		&pe.EnrolmentDateTime, &pe.ProgramExitDateTime, &pe.Observations,
		&pe.ExitObservations, &pe.Voided, &pe.CreatedAt, &pe.LastModified)
	return &pe, err
}

func (r *programEnrolmentRepoPG) FindByUUID(ctx context.Context, uuid string) (*ProgramEnrolment, error) {
	q := db.Conn(ctx, r.pool)
	pe, err := scanEnrolment(q.QueryRow(ctx, enrolmentSelect+` WHERE pe.uuid = $1`, uuid))
	pe, err = db.Optional(pe, err)
	if err != nil {
		return nil, fmt.Errorf("find program enrolment %s: %w", uuid, err)
	}
	if pe == nil {
		return nil, nil
	}
	rows, err := q.Query(ctx, programEncounterSelect+` WHERE e.program_enrolment_id = $1
		ORDER BY e.encounter_date_time NULLS LAST, e.id`, pe.ID)
	if err != nil {
		return nil, fmt.Errorf("load encounters of enrolment %s: %w", uuid, err)
	}
	pe.Encounters, err = db.CollectRows(rows, scanProgramEncounter)
	if err != nil {
		return nil, fmt.Errorf("scan encounters of enrolment %s: %w", uuid, err)
	}
	return pe, nil
}

// -- Program encounters --

type programEncounterRepoPG struct{ pool *pgxpool.Pool }

func NewProgramEncounterRepoPG(pool *pgxpool.Pool) ProgramEncounterRepository {
	return &programEncounterRepoPG{pool: pool}
}

const programEncounterSelect = `SELECT e.id, e.uuid, e.is_voided, e.created_date_time,
	e.last_modified_date_time, e.program_enrolment_id, pe.uuid,
	e.encounter_location, e.cancel_location, ` + visitCols + `
	FROM program_encounter e
	JOIN program_enrolment pe ON pe.id = e.program_enrolment_id ` + encounterTypeJoin

func scanProgramEncounter(row pgx.Row) (*ProgramEncounter, error) {
	var e ProgramEncounter
	dest := append([]interface{}{&e.ID, &e.UUID, &e.Voided, &e.CreatedAt, &e.LastModified,
		&e.EnrolmentID, &e.EnrolmentUUID, &e.EncounterLocation, &e.CancelLocation}, visitDest(&e.Visit)...)
	return &e, row.Scan(dest...)
}

func (r *programEncounterRepoPG) FindByUUID(ctx context.Context, uuid string) (*ProgramEncounter, error) {
	e, err := scanProgramEncounter(db.Conn(ctx, r.pool).QueryRow(ctx, programEncounterSelect+` WHERE e.uuid = $1`, uuid))
	e, err = db.Optional(e, err)
	if err != nil {
		return nil, fmt.Errorf("find program encounter %s: %w", uuid, err)
	}
	return e, nil
}

func (r *programEncounterRepoPG) Save(ctx context.Context, e *ProgramEncounter) error {
	q := db.Conn(ctx, r.pool)
	if e.IsNew() {
		err := q.QueryRow(ctx, `
			INSERT INTO program_encounter (uuid, program_enrolment_id, encounter_type_id, name,
				encounter_date_time, earliest_visit_date_time, max_visit_date_time, cancel_date_time,
				encounter_location, cancel_location, observations, cancel_observations,
				is_voided, created_date_time, last_modified_date_time)
			VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
			RETURNING id`,
			e.UUID, e.EnrolmentID, e.EncounterType.ID, e.Name,
			e.EncounterDateTime, e.EarliestVisitDateTime, e.MaxVisitDateTime, e.CancelDateTime,
			e.EncounterLocation, e.CancelLocation, e.Observations, e.CancelObservations,
			e.Voided, e.CreatedAt, e.LastModified).Scan(&e.ID)
		if err != nil {
			return fmt.Errorf("insert program encounter %s: %w", e.UUID, err)
		}
		return nil
	}
	_, err := q.Exec(ctx, `
		UPDATE program_encounter SET program_enrolment_id=$2, encounter_type_id=$3, name=NULLIF($4,''),
			encounter_date_time=$5, earliest_visit_date_time=$6, max_visit_date_time=$7,
			cancel_date_time=$8, encounter_location=$9, cancel_location=$10, observations=$11,
			cancel_observations=$12, is_voided=$13, last_modified_date_time=$14
		WHERE id = $1`,
		e.ID, e.EnrolmentID, e.EncounterType.ID, e.Name,
		e.EncounterDateTime, e.EarliestVisitDateTime, e.MaxVisitDateTime,
		e.CancelDateTime, e.EncounterLocation, e.CancelLocation, e.Observations,
		e.CancelObservations, e.Voided, e.LastModified)
	if err != nil {
		return fmt.Errorf("update program encounter %s: %w", e.UUID, err)
	}
	return nil
}

// -- Group subjects --

type groupSubjectRepoPG struct{ pool *pgxpool.Pool }

func NewGroupSubjectRepoPG(pool *pgxpool.Pool) GroupSubjectRepository {
	return &groupSubjectRepoPG{pool: pool}
}

const groupSubjectSelect = `SELECT gs.id, gs.uuid, gs.membership_start_date, gs.membership_end_date,
	gs.is_voided, gs.created_date_time, gs.last_modified_date_time,
	g.id, g.uuid, m.id, m.uuid, m.first_name, COALESCE(m.last_name, ''), m.date_of_birth, m.is_voided,
	mst.id, mst.uuid, mst.name, mst.type,
	gr.id, gr.uuid, gr.role, gr.is_primary, gr.maximum_number_of_members, gr.minimum_number_of_members
	FROM group_subject gs
	JOIN individual g ON g.id = gs.group_subject_id
	JOIN individual m ON m.id = gs.member_subject_id
	JOIN subject_type mst ON mst.id = m.subject_type_id
	JOIN group_role gr ON gr.id = gs.group_role_id`

func scanGroupSubject(row pgx.Row) (*GroupSubject, error) {
	gs := GroupSubject{
		Group:     &Individual{},
		Member:    &Individual{SubjectType: &referencedata.SubjectType{}},
		GroupRole: &referencedata.GroupRole{},
	}
	m, gr := gs.Member, gs.GroupRole
	err := row.Scan(&gs.ID, &gs.UUID, &gs.MembershipStartDate, &gs.MembershipEndDate,
		&gs.Voided, &gs.CreatedAt, &gs.LastModified,
		&gs.Group.ID, &gs.Group.UUID, &m.ID, &m.UUID, &m.FirstName, &m.LastName, &m.DateOfBirth, &m.Voided,
		&m.SubjectType.ID, &m.SubjectType.UUID, &m.SubjectType.Name, &m.SubjectType.Type,
		&gr.ID, &gr.UUID, &gr.Role, &gr.IsPrimary, &gr.MaximumMembers, &gr.MinimumMembers)
	return &gs, err
}

func (r *groupSubjectRepoPG) FindByUUID(ctx context.Context, uuid string) (*GroupSubject, error) {
	gs, err := scanGroupSubject(db.Conn(ctx, r.pool).QueryRow(ctx, groupSubjectSelect+` WHERE gs.uuid = $1`, uuid))
	gs, err = db.Optional(gs, err)
	if err != nil {
		return nil, fmt.Errorf("find group subject %s: %w", uuid, err)
	}
	return gs, nil
}

func (r *groupSubjectRepoPG) ListActiveByGroup(ctx context.Context, groupID int64) ([]*GroupSubject, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, groupSubjectSelect+`
		WHERE gs.group_subject_id = $1 AND gs.is_voided = false ORDER BY gs.id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members of group %d: %w", groupID, err)
	}
	items, err := db.CollectRows(rows, scanGroupSubject)
	if err != nil {
		return nil, fmt.Errorf("scan members of group %d: %w", groupID, err)
	}
	return items, nil
}

func (r *groupSubjectRepoPG) ListModifiedBetween(ctx context.Context, groupSubjectTypeID int64, from, to time.Time, limit, offset int) ([]*GroupSubject, int, error) {
	const where = ` WHERE g.subject_type_id = $1 AND gs.last_modified_date_time BETWEEN $2 AND $3`
	q := db.Conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM group_subject gs
		JOIN individual g ON g.id = gs.group_subject_id`+where,
		groupSubjectTypeID, from, to).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count group subjects: %w", err)
	}
	rows, err := q.Query(ctx, groupSubjectSelect+where+`
		ORDER BY gs.last_modified_date_time, gs.id LIMIT $4 OFFSET $5`,
		groupSubjectTypeID, from, to, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list group subjects: %w", err)
	}
	items, err := db.CollectRows(rows, scanGroupSubject)
	if err != nil {
		return nil, 0, fmt.Errorf("scan group subjects: %w", err)
	}
	return items, total, nil
}

func (r *groupSubjectRepoPG) Save(ctx context.Context, gs *GroupSubject) error {
	q := db.Conn(ctx, r.pool)
	if gs.IsNew() {
		err := q.QueryRow(ctx, `
			INSERT INTO group_subject (uuid, group_subject_id, member_subject_id, group_role_id,
				membership_start_date, membership_end_date, is_voided, created_date_time, last_modified_date_time)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
			gs.UUID, gs.Group.ID, gs.Member.ID, gs.GroupRole.ID,
			gs.MembershipStartDate, gs.MembershipEndDate, gs.Voided, gs.CreatedAt, gs.LastModified).Scan(&gs.ID)
		if err != nil {
			return fmt.Errorf("insert group subject %s: %w", gs.UUID, err)
		}
		return nil
	}
	_, err := q.Exec(ctx, `
		UPDATE group_subject SET group_subject_id=$2, member_subject_id=$3, group_role_id=$4,
			membership_start_date=$5, membership_end_date=$6, is_voided=$7, last_modified_date_time=$8
		WHERE id = $1`,
		gs.ID, gs.Group.ID, gs.Member.ID, gs.GroupRole.ID,
		gs.MembershipStartDate, gs.MembershipEndDate, gs.Voided, gs.LastModified)
	if err != nil {
		return fmt.Errorf("update group subject %s: %w", gs.UUID, err)
	}
	return nil
}
