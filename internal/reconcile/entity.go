package reconcile

import (
	"time"

	"github.com/google/uuid"
)

// Entity is the versioned base embedded by every persisted node: a surrogate
// storage id, the immutable external uuid, the voided flag and audit times.
type Entity struct {
	ID           int64     `db:"id" json:"id"`
	UUID         string    `db:"uuid" json:"uuid"`
	Voided       bool      `db:"is_voided" json:"voided"`
	CreatedAt    time.Time `db:"created_date_time" json:"createdDateTime"`
	LastModified time.Time `db:"last_modified_date_time" json:"lastModifiedDateTime"`
}

func (e *Entity) ExternalID() string { return e.UUID }
func (e *Entity) IsVoided() bool { return e.Voided }
func (e *Entity) SurrogateID() int64 { return e.ID }
func (e *Entity) IsNew() bool { return e.ID == 0 }
func (e *Entity) Touch(at time.Time) { e.LastModified = at }

func (e *Entity) MarkVoided(at time.Time) {
	e.Voided = true
	e.LastModified = at
}

// AssignUUIDIfRequired gives a new entity an external id. An existing id is
// never replaced.
func (e *Entity) AssignUUIDIfRequired() {
	if e.UUID == "" {
		e.UUID = uuid.NewString()
	}
}
