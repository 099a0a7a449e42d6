package databases

// go generate: mockery --name LockDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const lockCollectionName = "scheduler_locks"

// LockDatabase provides a mongo-backed distributed lock for background jobs
type LockDatabase interface {
	TryAcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name, owner string) error
}

type lockDatabase struct {
	db DatabaseHelper
}

// NewLockDatabase initializes a new instance of lock database with the provided db connection
func NewLockDatabase(db DatabaseHelper) LockDatabase {
	return &lockDatabase{
		db: db,
	}
}

// TryAcquireLock claims the named lock for owner if it is free or expired.
// A live lock held elsewhere makes the upsert collide on _id, which mongo
// reports as a duplicate key.
func (l *lockDatabase) TryAcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	now := time.Now()
	filter := bson.M{"_id": name, "expiresAt": bson.M{"$lt": now}}
	update := bson.M{"$set": bson.M{"owner": owner, "expiresAt": now.Add(ttl)}}
	opts := options.Update().SetUpsert(true)

	res, err := l.db.Collection(lockCollectionName).UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return res.ModifiedCount > 0 || res.UpsertedID != nil, nil
}

// ReleaseLock frees the named lock if it is still held by owner
func (l *lockDatabase) ReleaseLock(ctx context.Context, name, owner string) error {
	return l.db.Collection(lockCollectionName).DeleteOne(ctx, bson.M{"_id": name, "owner": owner})
}
