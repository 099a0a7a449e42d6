package databases

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// EnsureIndexes creates the unique indexes the write paths rely on. The
// compound invite index is what closes the count-then-insert race in invite
// creation, and the user indexes back the registration uniqueness check.
// CreateOne is a no-op for an index that already exists, so this is safe to
// run on every startup.
func EnsureIndexes(ctx context.Context, db DatabaseHelper) error {
	if err := db.Collection(inviteCollectionName).EnsureIndex(ctx, bson.D{
		{Key: "family_id", Value: 1},
		{Key: "invited_user_id", Value: 1},
	}, true); err != nil {
		return err
	}
	if err := db.Collection(userCollectionName).EnsureIndex(ctx, bson.D{
		{Key: "email", Value: 1},
	}, true); err != nil {
		return err
	}
	return db.Collection(userCollectionName).EnsureIndex(ctx, bson.D{
		{Key: "username", Value: 1},
	}, true)
}
