package core

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/familyrecipes/family-recipes-api/databases"
)

// Cascade removes every record that references a deleted user. The store
// has no foreign keys, so the ordering below bounds the damage of a crash
// mid-sequence: anything left dangling is an orphaned invite or authorless
// recipe, both harmless and swept later, never a family with members but
// no admin.
type Cascade struct {
	UDB databases.UserDatabase
	FDB databases.FamilyDatabase
	RDB databases.RecipeDatabase
	IDB databases.InviteDatabase
}

// DeleteUser deletes the user's recipes, every invite naming the user,
// repairs or deletes each family the user belongs to, and finally deletes
// the user record. Every step tolerates re-execution, so a caller may retry
// the whole cascade after an Unavailable failure.
func (c Cascade) DeleteUser(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := c.UDB.FindOne(ctx, bson.M{"_id": userID}); err != nil {
		return StoreError(err, CodeUserNotFound, "user not found")
	}

	if err := c.RDB.DeleteMany(ctx, bson.M{"author_id": userID}); err != nil {
		return Unavailable("failed to delete user recipes", err)
	}

	inviteFilter := bson.M{"$or": []bson.M{
		{"invited_user_id": userID},
		{"inviter_user_id": userID},
	}}
	if err := c.IDB.DeleteMany(ctx, inviteFilter); err != nil {
		return Unavailable("failed to delete user invites", err)
	}

	families, err := c.FDB.Find(ctx, bson.M{"members": userID})
	if err != nil {
		return Unavailable("failed to list user families", err)
	}
	for _, family := range families {
		if len(family.Admins) == 1 && family.Admins[0] == userID {
			// no human actor remains to hand the family to, so the cascade
			// is the one context allowed to delete it outright
			if err := c.FDB.DeleteOne(ctx, bson.M{"_id": family.ID}); err != nil {
				return Unavailable("failed to delete family", err)
			}
			if err := c.IDB.DeleteMany(ctx, bson.M{"family_id": family.ID}); err != nil {
				return Unavailable("failed to delete family invites", err)
			}
			continue
		}
		// direct pull, not RemoveMember: the engine's self-removal guard is
		// for human actors, and here the system acts on their behalf
		update := bson.M{"$pull": bson.M{"members": userID, "admins": userID}}
		if _, err := c.FDB.UpdateOne(ctx, bson.M{"_id": family.ID}, update); err != nil {
			return Unavailable("failed to remove user from family", err)
		}
	}

	if err := c.UDB.DeleteOne(ctx, bson.M{"_id": userID}); err != nil {
		return Unavailable("failed to delete user", err)
	}
	return nil
}
