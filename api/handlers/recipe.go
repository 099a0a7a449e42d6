package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/familyrecipes/family-recipes-api/api"
	"github.com/familyrecipes/family-recipes-api/config"
	"github.com/familyrecipes/family-recipes-api/core"
	"github.com/familyrecipes/family-recipes-api/databases"
	"github.com/familyrecipes/family-recipes-api/models"
)

// Recipe exported for testing purposes
type Recipe struct {
	DB  databases.RecipeDatabase
	Vis core.Visibility
}

type recipeRequest struct {
	Name            string   `json:"name"`
	PrepTime        int      `json:"prepTime"`
	TotalTime       int      `json:"totalTime"`
	Ingredients     []string `json:"ingredients"`
	Steps           []string `json:"steps"`
	Recommendations string   `json:"recommendations"`
	Origin          string   `json:"origin"`
	Image           string   `json:"image"`
	Visibility      string   `json:"visibility"`
}

// CreateRecipeHandler creates a recipe authored by the caller
func (rc Recipe) CreateRecipeHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := api.RequestUserID(r)
	if err != nil {
		config.ErrorStatus("failed to resolve authenticated user", http.StatusUnauthorized, w, err)
		return
	}

	var req recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Name == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "recipe name required"})
		return
	}
	if !core.ValidVisibility(req.Visibility) {
		CoreErrorStatus(w, core.InvalidInput(core.CodeInvalidVisibility, fmt.Sprintf("unknown visibility %q", req.Visibility)))
		return
	}

	now := time.Now()
	recipe := models.Recipe{
		ID:              primitive.NewObjectID(),
		AuthorID:        actor,
		Name:            req.Name,
		PrepTime:        req.PrepTime,
		TotalTime:       req.TotalTime,
		Ingredients:     req.Ingredients,
		Steps:           req.Steps,
		Recommendations: req.Recommendations,
		Origin:          req.Origin,
		Image:           req.Image,
		Visibility:      req.Visibility,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := rc.DB.InsertOne(ctx, recipe); err != nil {
		config.ErrorStatus("failed to create recipe", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("recipe created", "recipeId", recipe.ID.Hex(), "userId", actor.Hex())
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(recipe)
}

// RecipeByIDHandler returns a recipe if the caller may see it
func (rc Recipe) RecipeByIDHandler(w http.ResponseWriter, r *http.Request) {
	actor, recipe, ok := rc.loadRecipe(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	access, err := rc.Vis.CanAccess(ctx, actor, recipe)
	if err != nil {
		CoreErrorStatus(w, err)
		return
	}

	b, err := json.Marshal(map[string]interface{}{
		"recipe": recipe,
		"author": access == core.AccessAuthor,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateRecipeHandler lets the author edit recipe fields, visibility included
func (rc Recipe) UpdateRecipeHandler(w http.ResponseWriter, r *http.Request) {
	actor, recipe, ok := rc.loadRecipe(w, r)
	if !ok {
		return
	}
	if err := rc.Vis.RequireAuthor(actor, recipe); err != nil {
		CoreErrorStatus(w, err)
		return
	}

	var req recipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if req.Name != "" {
		set["name"] = req.Name
	}
	if req.PrepTime > 0 {
		set["prepTime"] = req.PrepTime
	}
	if req.TotalTime > 0 {
		set["totalTime"] = req.TotalTime
	}
	if req.Ingredients != nil {
		set["ingredients"] = req.Ingredients
	}
	if req.Steps != nil {
		set["steps"] = req.Steps
	}
	if req.Recommendations != "" {
		set["recommendations"] = req.Recommendations
	}
	if req.Origin != "" {
		set["origin"] = req.Origin
	}
	if req.Image != "" {
		set["image"] = req.Image
	}
	if req.Visibility != "" {
		if !core.ValidVisibility(req.Visibility) {
			CoreErrorStatus(w, core.InvalidInput(core.CodeInvalidVisibility, fmt.Sprintf("unknown visibility %q", req.Visibility)))
			return
		}
		set["visibility"] = req.Visibility
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := rc.DB.UpdateOne(ctx, bson.M{"_id": recipe.ID}, bson.M{"$set": set}); err != nil {
		config.ErrorStatus("failed to update recipe", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "recipe updated"})
}

// DeleteRecipeHandler lets the author delete a recipe
func (rc Recipe) DeleteRecipeHandler(w http.ResponseWriter, r *http.Request) {
	actor, recipe, ok := rc.loadRecipe(w, r)
	if !ok {
		return
	}
	if err := rc.Vis.RequireAuthor(actor, recipe); err != nil {
		CoreErrorStatus(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := rc.DB.DeleteOne(ctx, bson.M{"_id": recipe.ID}); err != nil {
		config.ErrorStatus("failed to delete recipe", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("recipe deleted", "recipeId", recipe.ID.Hex(), "userId", actor.Hex())
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "recipe deleted"})
}

// MyRecipesHandler lists the caller's own recipes, newest first
func (rc Recipe) MyRecipesHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := api.RequestUserID(r)
	if err != nil {
		config.ErrorStatus("failed to resolve authenticated user", http.StatusUnauthorized, w, err)
		return
	}

	rc.listRecipes(w, r, bson.M{"author_id": actor})
}

// PublicRecipesHandler lists public recipes, newest first
func (rc Recipe) PublicRecipesHandler(w http.ResponseWriter, r *http.Request) {
	rc.listRecipes(w, r, bson.M{"visibility": models.VisibilityPublic})
}

func (rc Recipe) listRecipes(w http.ResponseWriter, r *http.Request, filter bson.M) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := options.Find().SetSort(bson.M{"_id": -1})

	dbResp, err := rc.DB.Find(ctx, filter, opts)
	if err != nil {
		config.ErrorStatus("failed to get recipes", http.StatusServiceUnavailable, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Recipe{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func (rc Recipe) loadRecipe(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, *models.Recipe, bool) {
	actor, err := api.RequestUserID(r)
	if err != nil {
		config.ErrorStatus("failed to resolve authenticated user", http.StatusUnauthorized, w, err)
		return primitive.NilObjectID, nil, false
	}

	rID, err := primitive.ObjectIDFromHex(mux.Vars(r)["recipe_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return primitive.NilObjectID, nil, false
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	recipe, err := rc.DB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		CoreErrorStatus(w, core.StoreError(err, core.CodeRecipeNotFound, "recipe not found"))
		return primitive.NilObjectID, nil, false
	}
	return actor, recipe, true
}
