package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User holds the structure for the users collection in mongo. The password
// digest is never serialized into API responses.
type User struct {
	ID        primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Name      string               `json:"name" bson:"name"`
	Email     string               `json:"email" bson:"email" index:"unique"`
	Username  string               `json:"username" bson:"username" index:"unique"`
	Password  string               `json:"-" bson:"password"`
	Favorites []primitive.ObjectID `json:"favorites" bson:"favorites"`
	CreatedAt time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt" bson:"updatedAt"`
}
