package databases

// go generate: mockery --name InviteDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/familyrecipes/family-recipes-api/models"
)

const inviteCollectionName = "invites"

// InviteDatabase contains the methods to use with the invite database.
// The collection carries a unique compound index on (family_id,
// invited_user_id) so duplicate pending invites are rejected by the store
// even under concurrent creation.
type InviteDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Invite, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Invite, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, invite models.Invite, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type inviteDatabase struct {
	db DatabaseHelper
}

// NewInviteDatabase initializes a new instance of invite database with the provided db connection
func NewInviteDatabase(db DatabaseHelper) InviteDatabase {
	return &inviteDatabase{
		db: db,
	}
}

func (i *inviteDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Invite, error) {
	invite := &models.Invite{}
	err := i.db.Collection(inviteCollectionName).FindOne(ctx, filter).Decode(&invite)
	if err != nil {
		return nil, err
	}
	return invite, nil
}

func (i *inviteDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Invite, error) {
	var invites []models.Invite
	cur, err := i.db.Collection(inviteCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&invites)
	if err != nil {
		return nil, err
	}
	return invites, nil
}

func (i *inviteDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return i.db.Collection(inviteCollectionName).CountDocuments(ctx, filter, opts...)
}

func (i *inviteDatabase) InsertOne(ctx context.Context, invite models.Invite, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return i.db.Collection(inviteCollectionName).InsertOne(ctx, invite, opts...)
}

func (i *inviteDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return i.db.Collection(inviteCollectionName).DeleteOne(ctx, filter, opts...)
}

func (i *inviteDatabase) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return i.db.Collection(inviteCollectionName).DeleteMany(ctx, filter, opts...)
}
