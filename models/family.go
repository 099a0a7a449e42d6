package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Family holds the structure for the families collection in mongo.
// Admins is always a subset of Members; both sets are mutated only through
// the core membership engine.
type Family struct {
	ID          primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Name        string               `json:"name" bson:"name"`
	Description string               `json:"description" bson:"description"`
	Image       string               `json:"image" bson:"image"`
	Members     []primitive.ObjectID `json:"members" bson:"members"`
	Admins      []primitive.ObjectID `json:"admins" bson:"admins"`
	CreatedAt   time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// FamilyMember is the member-listing projection returned by the members
// endpoint, enriched with profile fields from the users collection.
type FamilyMember struct {
	ID       primitive.ObjectID `json:"_id"`
	Name     string             `json:"name"`
	Username string             `json:"username"`
	Admin    bool               `json:"admin"`
}
