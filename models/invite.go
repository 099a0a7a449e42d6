package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invite represents a pending offer of family membership. At most one
// invite exists per (family, invited user) pair; accept and decline both
// delete the record.
type Invite struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	FamilyID      primitive.ObjectID `json:"family_id" bson:"family_id"`
	InvitedUserID primitive.ObjectID `json:"invited_user_id" bson:"invited_user_id"`
	InviterUserID primitive.ObjectID `json:"inviter_user_id" bson:"inviter_user_id"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}
