package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Recipe visibility tiers. Any other value is rejected at the core layer.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
	VisibilityFamily  = "family"
)

// Recipe holds the structure for the recipes collection in mongo. AuthorID
// is set at creation time and never changes afterwards.
type Recipe struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	AuthorID        primitive.ObjectID `json:"author_id" bson:"author_id"`
	Name            string             `json:"name" bson:"name"`
	PrepTime        int                `json:"prepTime" bson:"prepTime"`
	TotalTime       int                `json:"totalTime" bson:"totalTime"`
	Ingredients     []string           `json:"ingredients" bson:"ingredients"`
	Steps           []string           `json:"steps" bson:"steps"`
	Recommendations string             `json:"recommendations" bson:"recommendations"`
	Origin          string             `json:"origin" bson:"origin"`
	Image           string             `json:"image" bson:"image"`
	Visibility      string             `json:"visibility" bson:"visibility"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}
