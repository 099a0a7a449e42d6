package core

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/familyrecipes/family-recipes-api/models"
)

// Role is a user's standing within one family, derived once per operation
// from the family document.
type Role int

const (
	// RoleNone means the user is not in the family's member set
	RoleNone Role = iota
	// RoleMember means the user is a member but not an admin
	RoleMember
	// RoleAdmin means the user is in both the member and admin sets
	RoleAdmin
)

// FamilyRole computes the role of userID in family f. Every role check in
// the core goes through this function.
func FamilyRole(f *models.Family, userID primitive.ObjectID) Role {
	if containsID(f.Admins, userID) {
		return RoleAdmin
	}
	if containsID(f.Members, userID) {
		return RoleMember
	}
	return RoleNone
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
