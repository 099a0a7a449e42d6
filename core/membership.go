package core

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/familyrecipes/family-recipes-api/databases"
	"github.com/familyrecipes/family-recipes-api/models"
)

// Membership guards every mutation of a family's member and admin sets.
// Role checks run against a freshly loaded family document, and the write
// itself re-states the precondition in the update filter so a racing
// mutation can never leave a family with members but no admin.
type Membership struct {
	FDB databases.FamilyDatabase
	IDB databases.InviteDatabase
}

// CreateFamily creates a family with the actor as its sole member and admin
func (m Membership) CreateFamily(ctx context.Context, actor primitive.ObjectID, name, description, image string) (*models.Family, error) {
	now := time.Now()
	family := models.Family{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Description: description,
		Image:       image,
		Members:     []primitive.ObjectID{actor},
		Admins:      []primitive.ObjectID{actor},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := m.FDB.InsertOne(ctx, family); err != nil {
		return nil, Unavailable("failed to create family", err)
	}
	return &family, nil
}

// GetFamily returns a family to one of its members
func (m Membership) GetFamily(ctx context.Context, actor, familyID primitive.ObjectID) (*models.Family, error) {
	family, err := m.family(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if FamilyRole(family, actor) == RoleNone {
		return nil, Forbidden(CodeNotAMember, "not a member of this family")
	}
	return family, nil
}

// UpdateFamily lets an admin change the family's name, description or image.
// Empty fields are left untouched.
func (m Membership) UpdateFamily(ctx context.Context, actor, familyID primitive.ObjectID, name, description, image string) (*models.Family, error) {
	family, err := m.family(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if FamilyRole(family, actor) != RoleAdmin {
		return nil, Forbidden(CodeNotAdmin, "not an admin of this family")
	}

	set := bson.M{"updatedAt": time.Now()}
	if name != "" {
		set["name"] = name
		family.Name = name
	}
	if description != "" {
		set["description"] = description
		family.Description = description
	}
	if image != "" {
		set["image"] = image
		family.Image = image
	}
	if _, err := m.FDB.UpdateOne(ctx, bson.M{"_id": familyID}, bson.M{"$set": set}); err != nil {
		return nil, Unavailable("failed to update family", err)
	}
	return family, nil
}

// PromoteAdmin adds target to the admin set. The actor must be an admin and
// the target an existing non-admin member.
func (m Membership) PromoteAdmin(ctx context.Context, actor, familyID, target primitive.ObjectID) error {
	family, err := m.family(ctx, familyID)
	if err != nil {
		return err
	}
	if FamilyRole(family, actor) != RoleAdmin {
		return Forbidden(CodeNotAdmin, "not an admin of this family")
	}
	switch FamilyRole(family, target) {
	case RoleNone:
		return Conflict(CodeNotAMember, "user is not a member of this family")
	case RoleAdmin:
		return Conflict(CodeAlreadyAdmin, "user is already an admin")
	}

	filter := bson.M{"_id": familyID, "admins": actor, "members": target}
	update := bson.M{
		"$addToSet": bson.M{"admins": target},
		"$set":      bson.M{"updatedAt": time.Now()},
	}
	res, err := m.FDB.UpdateOne(ctx, filter, update)
	if err != nil {
		return Unavailable("failed to promote admin", err)
	}
	if res.MatchedCount == 0 {
		return Conflict(CodeStaleFamily, "family changed concurrently, retry")
	}
	return nil
}

// DemoteAdmin removes target from the admin set, refusing to remove the
// last admin. Demoting a user who is not an admin is a no-op success.
func (m Membership) DemoteAdmin(ctx context.Context, actor, familyID, target primitive.ObjectID) error {
	family, err := m.family(ctx, familyID)
	if err != nil {
		return err
	}
	if FamilyRole(family, actor) != RoleAdmin {
		return Forbidden(CodeNotAdmin, "not an admin of this family")
	}
	if !containsID(family.Admins, target) {
		return nil
	}
	if len(family.Admins) == 1 {
		return Conflict(CodeLastAdmin, "cannot remove last admin")
	}

	// admins.1 must exist at write time, so the pull never empties the set
	filter := bson.M{"_id": familyID, "admins": target, "admins.1": bson.M{"$exists": true}}
	update := bson.M{
		"$pull": bson.M{"admins": target},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	res, err := m.FDB.UpdateOne(ctx, filter, update)
	if err != nil {
		return Unavailable("failed to demote admin", err)
	}
	if res.MatchedCount == 0 {
		return Conflict(CodeStaleFamily, "family changed concurrently, retry")
	}
	return nil
}

// RemoveMember lets an admin remove another member from the family. The
// actor cannot remove themselves; self-removal goes through Leave. Removing
// a user who is not a member is a no-op success.
func (m Membership) RemoveMember(ctx context.Context, actor, familyID, target primitive.ObjectID) error {
	if actor == target {
		return Conflict(CodeCannotRemoveSelf, "members must leave a family themselves")
	}
	family, err := m.family(ctx, familyID)
	if err != nil {
		return err
	}
	if FamilyRole(family, actor) != RoleAdmin {
		return Forbidden(CodeNotAdmin, "not an admin of this family")
	}
	if !containsID(family.Members, target) {
		return nil
	}

	// requiring the acting admin in the filter means the target can never
	// be the sole admin at write time
	filter := bson.M{"_id": familyID, "admins": actor, "members": target}
	update := bson.M{
		"$pull": bson.M{"members": target, "admins": target},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	res, err := m.FDB.UpdateOne(ctx, filter, update)
	if err != nil {
		return Unavailable("failed to remove member", err)
	}
	if res.MatchedCount == 0 {
		return Conflict(CodeStaleFamily, "family changed concurrently, retry")
	}
	return nil
}

// Leave removes the actor from the family. A sole admin cannot leave: they
// must promote a successor or delete the family instead.
func (m Membership) Leave(ctx context.Context, actor, familyID primitive.ObjectID) error {
	family, err := m.family(ctx, familyID)
	if err != nil {
		return err
	}
	role := FamilyRole(family, actor)
	if role == RoleNone {
		return Forbidden(CodeNotAMember, "not a member of this family")
	}
	if role == RoleAdmin && len(family.Admins) == 1 {
		return Conflict(CodeLastAdmin, "cannot leave as last admin")
	}

	filter := bson.M{
		"_id":     familyID,
		"members": actor,
		"$or": []bson.M{
			{"admins": bson.M{"$ne": actor}},
			{"admins.1": bson.M{"$exists": true}},
		},
	}
	update := bson.M{
		"$pull": bson.M{"members": actor, "admins": actor},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	res, err := m.FDB.UpdateOne(ctx, filter, update)
	if err != nil {
		return Unavailable("failed to leave family", err)
	}
	if res.MatchedCount == 0 {
		return Conflict(CodeStaleFamily, "family changed concurrently, retry")
	}
	return nil
}

// DeleteFamily removes the family record and every invite that references
// it, so a resolved family can never resurrect a pending invite.
func (m Membership) DeleteFamily(ctx context.Context, actor, familyID primitive.ObjectID) error {
	family, err := m.family(ctx, familyID)
	if err != nil {
		return err
	}
	if FamilyRole(family, actor) != RoleAdmin {
		return Forbidden(CodeNotAdmin, "not an admin of this family")
	}
	if err := m.FDB.DeleteOne(ctx, bson.M{"_id": familyID}); err != nil {
		return Unavailable("failed to delete family", err)
	}
	if err := m.IDB.DeleteMany(ctx, bson.M{"family_id": familyID}); err != nil {
		return Unavailable("failed to delete family invites", err)
	}
	return nil
}

// AdmitMember adds a user to the member set. Invite acceptance is the only
// caller; joining a family always goes through an invite.
func (m Membership) AdmitMember(ctx context.Context, familyID, userID primitive.ObjectID) error {
	update := bson.M{
		"$addToSet": bson.M{"members": userID},
		"$set":      bson.M{"updatedAt": time.Now()},
	}
	res, err := m.FDB.UpdateOne(ctx, bson.M{"_id": familyID}, update)
	if err != nil {
		return Unavailable("failed to add member", err)
	}
	if res.MatchedCount == 0 {
		return NotFound(CodeFamilyNotFound, "family not found")
	}
	return nil
}

func (m Membership) family(ctx context.Context, familyID primitive.ObjectID) (*models.Family, error) {
	family, err := m.FDB.FindOne(ctx, bson.M{"_id": familyID})
	if err != nil {
		return nil, StoreError(err, CodeFamilyNotFound, "family not found")
	}
	return family, nil
}
