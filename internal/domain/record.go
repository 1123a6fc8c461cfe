package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Record is a document that belongs to exactly one owner: a user for
// activity logs, a training plan for plan items.
type Record interface {
	RecordID() primitive.ObjectID
	Owner() primitive.ObjectID
	SetOwner(id primitive.ObjectID)
	// Stamp assigns an ID and creation time on first save and bumps UpdatedAt.
	Stamp(now time.Time)
	Validate() error
}

// LogEntry carries the identity fields shared by per-user activity logs.
type LogEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (e *LogEntry) RecordID() primitive.ObjectID { return e.ID }
func (e *LogEntry) Owner() primitive.ObjectID { return e.UserID }
func (e *LogEntry) SetOwner(id primitive.ObjectID) { e.UserID = id }
func (e *LogEntry) Stamp(now time.Time) { stamp(&e.ID, &e.CreatedAt, &e.UpdatedAt, now) }

// PlanItem carries the identity fields shared by training plan children.
type PlanItem struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID    primitive.ObjectID `bson:"planId" json:"planId"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (p *PlanItem) RecordID() primitive.ObjectID { return p.ID }
func (p *PlanItem) Owner() primitive.ObjectID { return p.PlanID }
func (p *PlanItem) SetOwner(id primitive.ObjectID) { p.PlanID = id }
func (p *PlanItem) Stamp(now time.Time) { stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt, now) }

func stamp(id *primitive.ObjectID, created, updated *time.Time, now time.Time) {
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
	if created.IsZero() {
		*created = now
	}
	*updated = now
}
