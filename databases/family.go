package databases

// go generate: mockery --name FamilyDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/familyrecipes/family-recipes-api/models"
)

const familyCollectionName = "families"

// FamilyDatabase contains the methods to use with the family database
type FamilyDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Family, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Family, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, family models.Family, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type familyDatabase struct {
	db DatabaseHelper
}

// NewFamilyDatabase initializes a new instance of family database with the provided db connection
func NewFamilyDatabase(db DatabaseHelper) FamilyDatabase {
	return &familyDatabase{
		db: db,
	}
}

func (f *familyDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Family, error) {
	family := &models.Family{}
	err := f.db.Collection(familyCollectionName).FindOne(ctx, filter).Decode(&family)
	if err != nil {
		return nil, err
	}
	return family, nil
}

func (f *familyDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Family, error) {
	var families []models.Family
	cur, err := f.db.Collection(familyCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&families)
	if err != nil {
		return nil, err
	}
	return families, nil
}

func (f *familyDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return f.db.Collection(familyCollectionName).CountDocuments(ctx, filter, opts...)
}

func (f *familyDatabase) InsertOne(ctx context.Context, family models.Family, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return f.db.Collection(familyCollectionName).InsertOne(ctx, family, opts...)
}

func (f *familyDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return f.db.Collection(familyCollectionName).UpdateOne(ctx, filter, update, opts...)
}

func (f *familyDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return f.db.Collection(familyCollectionName).DeleteOne(ctx, filter, opts...)
}
