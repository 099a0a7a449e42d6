package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/familyrecipes/family-recipes-api/core"
	"github.com/familyrecipes/family-recipes-api/databases/mocks"
	"github.com/familyrecipes/family-recipes-api/models"
)

func testFamily(members, admins []primitive.ObjectID) *models.Family {
	return &models.Family{
		ID:      primitive.NewObjectID(),
		Name:    "Smith Family",
		Members: members,
		Admins:  admins,
	}
}

func TestMembership_CreateFamily(t *testing.T) {
	fdb := &mocks.FamilyDatabase{}
	fdb.On("InsertOne", mock.Anything, mock.Anything).Return(&mocks.InsertOneResultHelper{}, nil)

	m := core.Membership{FDB: fdb}
	actor := primitive.NewObjectID()

	family, err := m.CreateFamily(context.TODO(), actor, "Smith Family", "weeknight dinners", "")
	assert.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{actor}, family.Members)
	assert.Equal(t, []primitive.ObjectID{actor}, family.Admins)
}

func TestMembership_GetFamily_NotAMember(t *testing.T) {
	actor := primitive.NewObjectID()
	other := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{other}, []primitive.ObjectID{other}), nil)

	m := core.Membership{FDB: fdb}
	_, err := m.GetFamily(context.TODO(), actor, primitive.NewObjectID())
	assert.Equal(t, core.KindForbidden, core.KindOf(err))
	assert.Equal(t, core.CodeNotAMember, core.CodeOf(err))
}

func TestMembership_GetFamily_Missing(t *testing.T) {
	fdb := &mocks.FamilyDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)

	m := core.Membership{FDB: fdb}
	_, err := m.GetFamily(context.TODO(), primitive.NewObjectID(), primitive.NewObjectID())
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
	assert.Equal(t, core.CodeFamilyNotFound, core.CodeOf(err))
}

func TestMembership_GetFamily_StoreDown(t *testing.T) {
	fdb := &mocks.FamilyDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	m := core.Membership{FDB: fdb}
	_, err := m.GetFamily(context.TODO(), primitive.NewObjectID(), primitive.NewObjectID())

	// a store failure must never read as a missing family
	assert.Equal(t, core.KindUnavailable, core.KindOf(err))
}

func TestMembership_PromoteAdmin(t *testing.T) {
	admin := primitive.NewObjectID()
	member := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{admin, member}, []primitive.ObjectID{admin}), nil)
	fdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	m := core.Membership{FDB: fdb}
	err := m.PromoteAdmin(context.TODO(), admin, primitive.NewObjectID(), member)
	assert.NoError(t, err)
	fdb.AssertCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestMembership_PromoteAdmin_NotAdmin(t *testing.T) {
	admin := primitive.NewObjectID()
	member := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{admin, member}, []primitive.ObjectID{admin}), nil)

	m := core.Membership{FDB: fdb}
	err := m.PromoteAdmin(context.TODO(), member, primitive.NewObjectID(), member)
	assert.Equal(t, core.KindForbidden, core.KindOf(err))
	assert.Equal(t, core.CodeNotAdmin, core.CodeOf(err))
	fdb.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestMembership_PromoteAdmin_TargetNotMember(t *testing.T) {
	admin := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{admin}, []primitive.ObjectID{admin}), nil)

	m := core.Membership{FDB: fdb}
	err := m.PromoteAdmin(context.TODO(), admin, primitive.NewObjectID(), primitive.NewObjectID())
	assert.Equal(t, core.KindConflict, core.KindOf(err))
	assert.Equal(t, core.CodeNotAMember, core.CodeOf(err))
}

func TestMembership_PromoteAdmin_AlreadyAdmin(t *testing.T) {
	admin := primitive.NewObjectID()
	other := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{admin, other}, []primitive.ObjectID{admin, other}), nil)

	m := core.Membership{FDB: fdb}
	err := m.PromoteAdmin(context.TODO(), admin, primitive.NewObjectID(), other)
	assert.Equal(t, core.KindConflict, core.KindOf(err))
	assert.Equal(t, core.CodeAlreadyAdmin, core.CodeOf(err))
}

func TestMembership_PromoteAdmin_Stale(t *testing.T) {
	admin := primitive.NewObjectID()
	member := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{admin, member}, []primitive.ObjectID{admin}), nil)
	fdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 0}, nil)

	m := core.Membership{FDB: fdb}
	err := m.PromoteAdmin(context.TODO(), admin, primitive.NewObjectID(), member)
	assert.Equal(t, core.KindConflict, core.KindOf(err))
	assert.Equal(t, core.CodeStaleFamily, core.CodeOf(err))
}

func TestMembership_DemoteAdmin(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{a, b}, []primitive.ObjectID{a, b}), nil)
	fdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	m := core.Membership{FDB: fdb}
	err := m.DemoteAdmin(context.TODO(), a, primitive.NewObjectID(), b)
	assert.NoError(t, err)
}

func TestMembership_DemoteAdmin_LastAdmin(t *testing.T) {
	admin := primitive.NewObjectID()
	member := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{admin, member}, []primitive.ObjectID{admin}), nil)

	m := core.Membership{FDB: fdb}
	err := m.DemoteAdmin(context.TODO(), admin, primitive.NewObjectID(), admin)
	assert.Equal(t, core.KindConflict, core.KindOf(err))
	assert.Equal(t, core.CodeLastAdmin, core.CodeOf(err))
	fdb.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestMembership_DemoteAdmin_TargetNotAdmin(t *testing.T) {
	admin := primitive.NewObjectID()
	member := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{admin, member}, []primitive.ObjectID{admin}), nil)

	m := core.Membership{FDB: fdb}

	// demoting a plain member is a no-op success
	err := m.DemoteAdmin(context.TODO(), admin, primitive.NewObjectID(), member)
	assert.NoError(t, err)
	fdb.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestMembership_RemoveMember(t *testing.T) {
	admin := primitive.NewObjectID()
	member := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{admin, member}, []primitive.ObjectID{admin}), nil)
	fdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	m := core.Membership{FDB: fdb}
	err := m.RemoveMember(context.TODO(), admin, primitive.NewObjectID(), member)
	assert.NoError(t, err)
}

func TestMembership_RemoveMember_Self(t *testing.T) {
	admin := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	m := core.Membership{FDB: fdb}

	err := m.RemoveMember(context.TODO(), admin, primitive.NewObjectID(), admin)
	assert.Equal(t, core.KindConflict, core.KindOf(err))
	assert.Equal(t, core.CodeCannotRemoveSelf, core.CodeOf(err))
	fdb.AssertNotCalled(t, "FindOne", mock.Anything, mock.Anything)
}

func TestMembership_RemoveMember_NotAdmin(t *testing.T) {
	admin := primitive.NewObjectID()
	member := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{admin, member}, []primitive.ObjectID{admin}), nil)

	m := core.Membership{FDB: fdb}
	err := m.RemoveMember(context.TODO(), member, primitive.NewObjectID(), admin)
	assert.Equal(t, core.KindForbidden, core.KindOf(err))
	assert.Equal(t, core.CodeNotAdmin, core.CodeOf(err))
}

func TestMembership_RemoveMember_TargetNotMember(t *testing.T) {
	admin := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{admin}, []primitive.ObjectID{admin}), nil)

	m := core.Membership{FDB: fdb}
	err := m.RemoveMember(context.TODO(), admin, primitive.NewObjectID(), primitive.NewObjectID())
	assert.NoError(t, err)
	fdb.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestMembership_Leave(t *testing.T) {
	admin := primitive.NewObjectID()
	member := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{admin, member}, []primitive.ObjectID{admin}), nil)
	fdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	m := core.Membership{FDB: fdb}
	err := m.Leave(context.TODO(), member, primitive.NewObjectID())
	assert.NoError(t, err)
}

func TestMembership_Leave_LastAdmin(t *testing.T) {
	admin := primitive.NewObjectID()
	member := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{admin, member}, []primitive.ObjectID{admin}), nil)

	m := core.Membership{FDB: fdb}
	err := m.Leave(context.TODO(), admin, primitive.NewObjectID())
	assert.Equal(t, core.KindConflict, core.KindOf(err))
	assert.Equal(t, core.CodeLastAdmin, core.CodeOf(err))
}

func TestMembership_Leave_NotAMember(t *testing.T) {
	admin := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{admin}, []primitive.ObjectID{admin}), nil)

	m := core.Membership{FDB: fdb}
	err := m.Leave(context.TODO(), primitive.NewObjectID(), primitive.NewObjectID())
	assert.Equal(t, core.KindForbidden, core.KindOf(err))
	assert.Equal(t, core.CodeNotAMember, core.CodeOf(err))
}

func TestMembership_Leave_Stale(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{a, b}, []primitive.ObjectID{a, b}), nil)
	fdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 0}, nil)

	m := core.Membership{FDB: fdb}

	// the other admin left first; the conditional write refuses to empty the set
	err := m.Leave(context.TODO(), a, primitive.NewObjectID())
	assert.Equal(t, core.KindConflict, core.KindOf(err))
	assert.Equal(t, core.CodeStaleFamily, core.CodeOf(err))
}

func TestMembership_DeleteFamily(t *testing.T) {
	admin := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	idb := &mocks.InviteDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{admin}, []primitive.ObjectID{admin}), nil)
	fdb.On("DeleteOne", mock.Anything, mock.Anything).Return(nil)
	idb.On("DeleteMany", mock.Anything, mock.Anything).Return(nil)

	m := core.Membership{FDB: fdb, IDB: idb}
	err := m.DeleteFamily(context.TODO(), admin, primitive.NewObjectID())
	assert.NoError(t, err)
	idb.AssertCalled(t, "DeleteMany", mock.Anything, mock.Anything)
}

func TestMembership_DeleteFamily_NotAdmin(t *testing.T) {
	admin := primitive.NewObjectID()
	member := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{admin, member}, []primitive.ObjectID{admin}), nil)

	m := core.Membership{FDB: fdb}
	err := m.DeleteFamily(context.TODO(), member, primitive.NewObjectID())
	assert.Equal(t, core.KindForbidden, core.KindOf(err))
	fdb.AssertNotCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}

func TestMembership_AdmitMember_FamilyGone(t *testing.T) {
	fdb := &mocks.FamilyDatabase{}
	fdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 0}, nil)

	m := core.Membership{FDB: fdb}
	err := m.AdmitMember(context.TODO(), primitive.NewObjectID(), primitive.NewObjectID())
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
	assert.Equal(t, core.CodeFamilyNotFound, core.CodeOf(err))
}

func TestFamilyRole(t *testing.T) {
	admin := primitive.NewObjectID()
	member := primitive.NewObjectID()
	family := testFamily([]primitive.ObjectID{admin, member}, []primitive.ObjectID{admin})

	assert.Equal(t, core.RoleAdmin, core.FamilyRole(family, admin))
	assert.Equal(t, core.RoleMember, core.FamilyRole(family, member))
	assert.Equal(t, core.RoleNone, core.FamilyRole(family, primitive.NewObjectID()))
}
