package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestStatus tracks an athlete's request to be coached.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// TrainerRequest is created by an athlete and answered by the addressed trainer.
type TrainerRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AthleteID   primitive.ObjectID `bson:"athleteId" json:"athleteId"`
	TrainerID   primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	Status      RequestStatus      `bson:"status" json:"status"`
	Message     string             `bson:"message,omitempty" json:"message,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	RespondedAt *time.Time         `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`

	// Populated for list responses only.
	Athlete *User `bson:"-" json:"athlete,omitempty"`
	Trainer *User `bson:"-" json:"trainer,omitempty"`
}

// IsPending reports whether the request still awaits an answer.
func (r *TrainerRequest) IsPending() bool {
	return r.Status == RequestPending
}

// Resolve moves a pending request to approved or rejected.
// Resolved requests never change again.
func (r *TrainerRequest) Resolve(approve bool, at time.Time) error {
	if !r.IsPending() {
		return ErrRequestResolved
	}
	if approve {
		r.Status = RequestApproved
	} else {
		r.Status = RequestRejected
	}
	r.RespondedAt = &at
	return nil
}

// TrainerAssignment is an active or severed coaching relationship.
type TrainerAssignment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID  primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	AthleteID  primitive.ObjectID `bson:"athleteId" json:"athleteId"`
	IsActive   bool               `bson:"isActive" json:"isActive"`
	AssignedAt time.Time          `bson:"assignedAt" json:"assignedAt"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`

	Athlete *User `bson:"-" json:"athlete,omitempty"`
	Trainer *User `bson:"-" json:"trainer,omitempty"`
}

// Involves reports whether userID is either side of the assignment.
func (a *TrainerAssignment) Involves(userID primitive.ObjectID) bool {
	return a.TrainerID == userID || a.AthleteID == userID
}
