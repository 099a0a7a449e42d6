package databases

// go generate: mockery --name RecipeDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/familyrecipes/family-recipes-api/models"
)

const recipeCollectionName = "recipes"

// RecipeDatabase contains the methods to use with the recipe database
type RecipeDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Recipe, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Recipe, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, recipe models.Recipe, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error
}

type recipeDatabase struct {
	db DatabaseHelper
}

// NewRecipeDatabase initializes a new instance of recipe database with the provided db connection
func NewRecipeDatabase(db DatabaseHelper) RecipeDatabase {
	return &recipeDatabase{
		db: db,
	}
}

func (r *recipeDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Recipe, error) {
	recipe := &models.Recipe{}
	err := r.db.Collection(recipeCollectionName).FindOne(ctx, filter).Decode(&recipe)
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

func (r *recipeDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Recipe, error) {
	var recipes []models.Recipe
	cur, err := r.db.Collection(recipeCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&recipes)
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *recipeDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return r.db.Collection(recipeCollectionName).CountDocuments(ctx, filter, opts...)
}

func (r *recipeDatabase) InsertOne(ctx context.Context, recipe models.Recipe, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return r.db.Collection(recipeCollectionName).InsertOne(ctx, recipe, opts...)
}

func (r *recipeDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return r.db.Collection(recipeCollectionName).UpdateOne(ctx, filter, update, opts...)
}

func (r *recipeDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return r.db.Collection(recipeCollectionName).DeleteOne(ctx, filter, opts...)
}

func (r *recipeDatabase) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return r.db.Collection(recipeCollectionName).DeleteMany(ctx, filter, opts...)
}
