package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/familyrecipes/family-recipes-api/api"
	"github.com/familyrecipes/family-recipes-api/config"
	"github.com/familyrecipes/family-recipes-api/core"
	"github.com/familyrecipes/family-recipes-api/databases"
	"github.com/familyrecipes/family-recipes-api/models"
)

// User exported for testing purposes
type User struct {
	DB      databases.UserDatabase
	RDB     databases.RecipeDatabase
	Vis     core.Visibility
	Cascade core.Cascade
}

type userCreateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserCreateHandler registers a new user
func (u User) UserCreateHandler(w http.ResponseWriter, r *http.Request) {
	var req userCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Username == "" || req.Password == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "email, username and password required"})
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	taken, err := u.DB.CountDocuments(ctx, bson.M{"$or": []bson.M{
		{"email": req.Email},
		{"username": req.Username},
	}})
	if err != nil {
		config.ErrorStatus("failed to check existing users", http.StatusServiceUnavailable, w, err)
		return
	}
	if taken > 0 {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "email or username already in use"})
		return
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	now := time.Now()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Name:      req.Name,
		Email:     req.Email,
		Username:  req.Username,
		Password:  string(digest),
		Favorites: []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := u.DB.InsertOne(ctx, user); err != nil {
		config.ErrorStatus("failed to create user", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("user registered", "userId", user.ID.Hex(), "username", user.Username)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(user)
}

// UserHandler returns a user's public profile by ID
func (u User) UserHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	uID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := u.DB.FindOne(ctx, bson.M{"_id": uID})
	if err != nil {
		CoreErrorStatus(w, core.StoreError(err, core.CodeUserNotFound, "user not found"))
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type userUpdateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateUserHandler updates the authenticated user's own profile
func (u User) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := api.RequestUserID(r)
	if err != nil {
		config.ErrorStatus("failed to resolve authenticated user", http.StatusUnauthorized, w, err)
		return
	}

	var req userUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if req.Name != "" {
		set["name"] = req.Name
	}
	if req.Email != "" {
		set["email"] = strings.TrimSpace(strings.ToLower(req.Email))
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := u.DB.UpdateOne(ctx, bson.M{"_id": actor}, bson.M{"$set": set}); err != nil {
		config.ErrorStatus("failed to update user", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "user updated"})
}

// DeleteUserHandler deletes the authenticated user's account and everything
// that references it
func (u User) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := api.RequestUserID(r)
	if err != nil {
		config.ErrorStatus("failed to resolve authenticated user", http.StatusUnauthorized, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := u.Cascade.DeleteUser(ctx, actor); err != nil {
		CoreErrorStatus(w, err)
		return
	}

	zap.S().Infow("user deleted", "userId", actor.Hex())
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "user deleted"})
}

// AddFavoriteHandler adds a recipe to the authenticated user's favorites.
// The recipe must currently be visible to the user.
func (u User) AddFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := api.RequestUserID(r)
	if err != nil {
		config.ErrorStatus("failed to resolve authenticated user", http.StatusUnauthorized, w, err)
		return
	}

	rID, err := primitive.ObjectIDFromHex(mux.Vars(r)["recipe_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	recipe, err := u.RDB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		CoreErrorStatus(w, core.StoreError(err, core.CodeRecipeNotFound, "recipe not found"))
		return
	}
	if _, err := u.Vis.CanAccess(ctx, actor, recipe); err != nil {
		CoreErrorStatus(w, err)
		return
	}

	user, err := u.DB.FindOne(ctx, bson.M{"_id": actor})
	if err != nil {
		CoreErrorStatus(w, core.StoreError(err, core.CodeUserNotFound, "user not found"))
		return
	}
	for _, fav := range user.Favorites {
		if fav == rID {
			CoreErrorStatus(w, core.Conflict(core.CodeAlreadyFavorite, "recipe is already a favorite"))
			return
		}
	}

	update := bson.M{
		"$addToSet": bson.M{"favorites": rID},
		"$set":      bson.M{"updatedAt": time.Now()},
	}
	if _, err := u.DB.UpdateOne(ctx, bson.M{"_id": actor}, update); err != nil {
		config.ErrorStatus("failed to add favorite", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "favorite added"})
}

// RemoveFavoriteHandler removes a recipe from the authenticated user's
// favorites. The recipe itself may already be gone.
func (u User) RemoveFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := api.RequestUserID(r)
	if err != nil {
		config.ErrorStatus("failed to resolve authenticated user", http.StatusUnauthorized, w, err)
		return
	}

	rID, err := primitive.ObjectIDFromHex(mux.Vars(r)["recipe_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindOne(ctx, bson.M{"_id": actor})
	if err != nil {
		CoreErrorStatus(w, core.StoreError(err, core.CodeUserNotFound, "user not found"))
		return
	}
	found := false
	for _, fav := range user.Favorites {
		if fav == rID {
			found = true
			break
		}
	}
	if !found {
		CoreErrorStatus(w, core.Conflict(core.CodeNotFavorite, "recipe is not a favorite"))
		return
	}

	update := bson.M{
		"$pull": bson.M{"favorites": rID},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	if _, err := u.DB.UpdateOne(ctx, bson.M{"_id": actor}, update); err != nil {
		config.ErrorStatus("failed to remove favorite", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "favorite removed"})
}

// ListFavoritesHandler returns the favorited recipes the user can still see.
// Favorites pointing at deleted or no longer visible recipes are skipped.
func (u User) ListFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := api.RequestUserID(r)
	if err != nil {
		config.ErrorStatus("failed to resolve authenticated user", http.StatusUnauthorized, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindOne(ctx, bson.M{"_id": actor})
	if err != nil {
		CoreErrorStatus(w, core.StoreError(err, core.CodeUserNotFound, "user not found"))
		return
	}

	visible := []models.Recipe{}
	if len(user.Favorites) > 0 {
		recipes, err := u.RDB.Find(ctx, bson.M{"_id": bson.M{"$in": user.Favorites}})
		if err != nil {
			config.ErrorStatus("failed to get favorite recipes", http.StatusServiceUnavailable, w, err)
			return
		}
		for i := range recipes {
			if _, err := u.Vis.CanAccess(ctx, actor, &recipes[i]); err == nil {
				visible = append(visible, recipes[i])
			}
		}
	}

	b, err := json.Marshal(visible)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
