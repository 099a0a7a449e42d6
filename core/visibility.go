package core

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/familyrecipes/family-recipes-api/databases"
	"github.com/familyrecipes/family-recipes-api/models"
)

// Access is the reason a recipe access was granted.
type Access int

const (
	// AccessAuthor means the requesting user wrote the recipe
	AccessAuthor Access = iota + 1
	// AccessPublic means the recipe is public
	AccessPublic
	// AccessSharedFamily means requester and author share a family right now
	AccessSharedFamily
)

// Visibility decides whether a user may act on a recipe. It is the single
// authorization choke point for every read, edit, delete and favorite path.
type Visibility struct {
	FDB databases.FamilyDatabase
}

// ValidVisibility reports whether v is one of the three recipe tiers
func ValidVisibility(v string) bool {
	switch v {
	case models.VisibilityPublic, models.VisibilityPrivate, models.VisibilityFamily:
		return true
	}
	return false
}

// CanAccess resolves access for (user, recipe). The shared-family check is
// recomputed live on every call, so a recipe's audience follows the current
// family graph rather than the one at creation time.
func (v Visibility) CanAccess(ctx context.Context, userID primitive.ObjectID, recipe *models.Recipe) (Access, error) {
	if recipe.AuthorID == userID {
		return AccessAuthor, nil
	}
	switch recipe.Visibility {
	case models.VisibilityPublic:
		return AccessPublic, nil
	case models.VisibilityPrivate:
		return 0, Forbidden(CodePrivateRecipe, "private recipe")
	case models.VisibilityFamily:
		filter := bson.M{"members": bson.M{"$all": []primitive.ObjectID{recipe.AuthorID, userID}}}
		if _, err := v.FDB.FindOne(ctx, filter); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return 0, Forbidden(CodeNoSharedFamily, "no family shared with the recipe author")
			}
			return 0, Unavailable("entity store unavailable", err)
		}
		return AccessSharedFamily, nil
	default:
		return 0, InvalidInput(CodeInvalidVisibility, fmt.Sprintf("unknown visibility %q", recipe.Visibility))
	}
}

// RequireAuthor grants only the recipe's author; edit and delete use it
func (v Visibility) RequireAuthor(userID primitive.ObjectID, recipe *models.Recipe) error {
	if recipe.AuthorID != userID {
		return Forbidden(CodeNotAuthor, "not the recipe author")
	}
	return nil
}
