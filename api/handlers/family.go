package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/familyrecipes/family-recipes-api/api"
	"github.com/familyrecipes/family-recipes-api/config"
	"github.com/familyrecipes/family-recipes-api/core"
	"github.com/familyrecipes/family-recipes-api/databases"
	"github.com/familyrecipes/family-recipes-api/models"
)

// Family exported for testing purposes
type Family struct {
	DB  databases.FamilyDatabase
	UDB databases.UserDatabase
	MS  core.Membership
}

type familyRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// CreateFamilyHandler creates a family with the caller as sole member and admin
func (f Family) CreateFamilyHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := api.RequestUserID(r)
	if err != nil {
		config.ErrorStatus("failed to resolve authenticated user", http.StatusUnauthorized, w, err)
		return
	}

	var req familyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Name == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "family name required"})
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	family, err := f.MS.CreateFamily(ctx, actor, req.Name, req.Description, req.Image)
	if err != nil {
		CoreErrorStatus(w, err)
		return
	}

	zap.S().Infow("family created", "familyId", family.ID.Hex(), "userId", actor.Hex())
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(family)
}

// FamilyHandler returns a family to one of its members
func (f Family) FamilyHandler(w http.ResponseWriter, r *http.Request) {
	actor, fID, err := f.actorAndFamily(r)
	if err != nil {
		config.ErrorStatus("failed to parse request identifiers", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	family, err := f.MS.GetFamily(ctx, actor, fID)
	if err != nil {
		CoreErrorStatus(w, err)
		return
	}

	b, err := json.Marshal(family)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MyFamiliesHandler lists the families the caller belongs to
func (f Family) MyFamiliesHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := api.RequestUserID(r)
	if err != nil {
		config.ErrorStatus("failed to resolve authenticated user", http.StatusUnauthorized, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := f.DB.Find(ctx, bson.M{"members": actor})
	if err != nil {
		config.ErrorStatus("failed to get families", http.StatusServiceUnavailable, w, err)
		return
	}
	if len(dbResp) == 0 {
		dbResp = []models.Family{}
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateFamilyHandler lets an admin change name, description or image
func (f Family) UpdateFamilyHandler(w http.ResponseWriter, r *http.Request) {
	actor, fID, err := f.actorAndFamily(r)
	if err != nil {
		config.ErrorStatus("failed to parse request identifiers", http.StatusBadRequest, w, err)
		return
	}

	var req familyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	family, err := f.MS.UpdateFamily(ctx, actor, fID, req.Name, req.Description, req.Image)
	if err != nil {
		CoreErrorStatus(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(family)
}

// DeleteFamilyHandler deletes a family and its pending invites
func (f Family) DeleteFamilyHandler(w http.ResponseWriter, r *http.Request) {
	actor, fID, err := f.actorAndFamily(r)
	if err != nil {
		config.ErrorStatus("failed to parse request identifiers", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := f.MS.DeleteFamily(ctx, actor, fID); err != nil {
		CoreErrorStatus(w, err)
		return
	}

	zap.S().Infow("family deleted", "familyId", fID.Hex(), "userId", actor.Hex())
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "family deleted"})
}

// FamilyMembersHandler lists the members of a family with their profile
// fields and admin flag
func (f Family) FamilyMembersHandler(w http.ResponseWriter, r *http.Request) {
	actor, fID, err := f.actorAndFamily(r)
	if err != nil {
		config.ErrorStatus("failed to parse request identifiers", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	family, err := f.MS.GetFamily(ctx, actor, fID)
	if err != nil {
		CoreErrorStatus(w, err)
		return
	}

	users, err := f.UDB.Find(ctx, bson.M{"_id": bson.M{"$in": family.Members}})
	if err != nil {
		config.ErrorStatus("failed to get family members", http.StatusServiceUnavailable, w, err)
		return
	}

	members := make([]models.FamilyMember, 0, len(users))
	for _, user := range users {
		members = append(members, models.FamilyMember{
			ID:       user.ID,
			Name:     user.Name,
			Username: user.Username,
			Admin:    core.FamilyRole(family, user.ID) == core.RoleAdmin,
		})
	}

	b, err := json.Marshal(members)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// PromoteAdminHandler promotes a member to admin
func (f Family) PromoteAdminHandler(w http.ResponseWriter, r *http.Request) {
	f.memberMutation(w, r, f.MS.PromoteAdmin)
}

// DemoteAdminHandler removes a member's admin role
func (f Family) DemoteAdminHandler(w http.ResponseWriter, r *http.Request) {
	f.memberMutation(w, r, f.MS.DemoteAdmin)
}

// RemoveMemberHandler removes another member from the family
func (f Family) RemoveMemberHandler(w http.ResponseWriter, r *http.Request) {
	f.memberMutation(w, r, f.MS.RemoveMember)
}

// LeaveFamilyHandler removes the caller from the family
func (f Family) LeaveFamilyHandler(w http.ResponseWriter, r *http.Request) {
	actor, fID, err := f.actorAndFamily(r)
	if err != nil {
		config.ErrorStatus("failed to parse request identifiers", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := f.MS.Leave(ctx, actor, fID); err != nil {
		CoreErrorStatus(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "left family"})
}

func (f Family) memberMutation(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actor, familyID, target primitive.ObjectID) error) {
	actor, fID, err := f.actorAndFamily(r)
	if err != nil {
		config.ErrorStatus("failed to parse request identifiers", http.StatusBadRequest, w, err)
		return
	}

	target, err := primitive.ObjectIDFromHex(mux.Vars(r)["user_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := op(ctx, actor, fID, target); err != nil {
		CoreErrorStatus(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "family updated"})
}

func (f Family) actorAndFamily(r *http.Request) (primitive.ObjectID, primitive.ObjectID, error) {
	actor, err := api.RequestUserID(r)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	fID, err := primitive.ObjectIDFromHex(mux.Vars(r)["family_id"])
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	return actor, fID, nil
}
