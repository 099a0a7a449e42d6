package core_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/familyrecipes/family-recipes-api/core"
	"github.com/familyrecipes/family-recipes-api/databases/mocks"
	"github.com/familyrecipes/family-recipes-api/models"
)

func TestInvites_Create(t *testing.T) {
	inviter := primitive.NewObjectID()
	invited := primitive.NewObjectID()
	familyID := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	udb := &mocks.UserDatabase{}
	idb := &mocks.InviteDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{inviter}, []primitive.ObjectID{inviter}), nil)
	udb.On("FindOne", mock.Anything, mock.Anything).
		Return(&models.User{ID: invited, Username: "nana"}, nil)
	idb.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)
	idb.On("InsertOne", mock.Anything, mock.Anything).Return(&mocks.InsertOneResultHelper{}, nil)

	i := core.Invites{UDB: udb, FDB: fdb, IDB: idb}
	invite, err := i.Create(context.TODO(), inviter, familyID, "nana")
	assert.NoError(t, err)
	assert.Equal(t, familyID, invite.FamilyID)
	assert.Equal(t, invited, invite.InvitedUserID)
	assert.Equal(t, inviter, invite.InviterUserID)
}

func TestInvites_Create_InviterNotMember(t *testing.T) {
	member := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	udb := &mocks.UserDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{member}, []primitive.ObjectID{member}), nil)

	i := core.Invites{UDB: udb, FDB: fdb}
	_, err := i.Create(context.TODO(), primitive.NewObjectID(), primitive.NewObjectID(), "nana")
	assert.Equal(t, core.KindForbidden, core.KindOf(err))
	assert.Equal(t, core.CodeNotAMember, core.CodeOf(err))
	udb.AssertNotCalled(t, "FindOne", mock.Anything, mock.Anything)
}

func TestInvites_Create_UnknownUsername(t *testing.T) {
	inviter := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	udb := &mocks.UserDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{inviter}, []primitive.ObjectID{inviter}), nil)
	udb.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)

	i := core.Invites{UDB: udb, FDB: fdb}
	_, err := i.Create(context.TODO(), inviter, primitive.NewObjectID(), "nobody")
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
	assert.Equal(t, core.CodeUserNotFound, core.CodeOf(err))
}

func TestInvites_Create_AlreadyMember(t *testing.T) {
	inviter := primitive.NewObjectID()
	invited := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	udb := &mocks.UserDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{inviter, invited}, []primitive.ObjectID{inviter}), nil)
	udb.On("FindOne", mock.Anything, mock.Anything).
		Return(&models.User{ID: invited, Username: "nana"}, nil)

	i := core.Invites{UDB: udb, FDB: fdb}
	_, err := i.Create(context.TODO(), inviter, primitive.NewObjectID(), "nana")
	assert.Equal(t, core.KindConflict, core.KindOf(err))
	assert.Equal(t, core.CodeAlreadyMember, core.CodeOf(err))
}

func TestInvites_Create_AlreadyInvited(t *testing.T) {
	inviter := primitive.NewObjectID()
	invited := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	udb := &mocks.UserDatabase{}
	idb := &mocks.InviteDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{inviter}, []primitive.ObjectID{inviter}), nil)
	udb.On("FindOne", mock.Anything, mock.Anything).
		Return(&models.User{ID: invited, Username: "nana"}, nil)
	idb.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(1), nil)

	i := core.Invites{UDB: udb, FDB: fdb, IDB: idb}
	_, err := i.Create(context.TODO(), inviter, primitive.NewObjectID(), "nana")
	assert.Equal(t, core.KindConflict, core.KindOf(err))
	assert.Equal(t, core.CodeAlreadyInvited, core.CodeOf(err))
	idb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestInvites_Create_DuplicateRace(t *testing.T) {
	inviter := primitive.NewObjectID()
	invited := primitive.NewObjectID()

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}

	fdb := &mocks.FamilyDatabase{}
	udb := &mocks.UserDatabase{}
	idb := &mocks.InviteDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{inviter}, []primitive.ObjectID{inviter}), nil)
	udb.On("FindOne", mock.Anything, mock.Anything).
		Return(&models.User{ID: invited, Username: "nana"}, nil)
	idb.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)
	idb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, dup)

	// a concurrent invite slipped between the count and the insert; the
	// unique index turns it into the same conflict
	i := core.Invites{UDB: udb, FDB: fdb, IDB: idb}
	_, err := i.Create(context.TODO(), inviter, primitive.NewObjectID(), "nana")
	assert.Equal(t, core.KindConflict, core.KindOf(err))
	assert.Equal(t, core.CodeAlreadyInvited, core.CodeOf(err))
}

func TestInvites_ListForUser_Empty(t *testing.T) {
	idb := &mocks.InviteDatabase{}
	idb.On("Find", mock.Anything, mock.Anything).Return(nil, nil)

	i := core.Invites{IDB: idb}
	invites, err := i.ListForUser(context.TODO(), primitive.NewObjectID())
	assert.NoError(t, err)
	assert.NotNil(t, invites)
	assert.Len(t, invites, 0)
}

func TestInvites_Accept(t *testing.T) {
	invited := primitive.NewObjectID()
	familyID := primitive.NewObjectID()
	inviteID := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	idb := &mocks.InviteDatabase{}
	idb.On("FindOne", mock.Anything, mock.Anything).
		Return(&models.Invite{ID: inviteID, FamilyID: familyID, InvitedUserID: invited}, nil)
	fdb.On("FindOne", mock.Anything, mock.Anything).
		Return(testFamily([]primitive.ObjectID{primitive.NewObjectID()}, []primitive.ObjectID{primitive.NewObjectID()}), nil)
	fdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	idb.On("DeleteOne", mock.Anything, mock.Anything).Return(nil)

	i := core.Invites{FDB: fdb, IDB: idb, MS: core.Membership{FDB: fdb, IDB: idb}}
	err := i.Accept(context.TODO(), invited, inviteID)
	assert.NoError(t, err)
	fdb.AssertCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
	idb.AssertCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}

func TestInvites_Accept_NotInvited(t *testing.T) {
	idb := &mocks.InviteDatabase{}
	idb.On("FindOne", mock.Anything, mock.Anything).
		Return(&models.Invite{ID: primitive.NewObjectID(), InvitedUserID: primitive.NewObjectID()}, nil)

	i := core.Invites{IDB: idb}
	err := i.Accept(context.TODO(), primitive.NewObjectID(), primitive.NewObjectID())
	assert.Equal(t, core.KindForbidden, core.KindOf(err))
	assert.Equal(t, core.CodeNotInvited, core.CodeOf(err))
}

func TestInvites_Accept_FamilyGone(t *testing.T) {
	invited := primitive.NewObjectID()
	inviteID := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	idb := &mocks.InviteDatabase{}
	idb.On("FindOne", mock.Anything, mock.Anything).
		Return(&models.Invite{ID: inviteID, FamilyID: primitive.NewObjectID(), InvitedUserID: invited}, nil)
	fdb.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)
	idb.On("DeleteOne", mock.Anything, mock.Anything).Return(nil)

	i := core.Invites{FDB: fdb, IDB: idb}
	err := i.Accept(context.TODO(), invited, inviteID)
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
	assert.Equal(t, core.CodeFamilyNotFound, core.CodeOf(err))

	// the dangling invite is cleaned up on the way out
	idb.AssertCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}

func TestInvites_Decline(t *testing.T) {
	invited := primitive.NewObjectID()
	inviteID := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	idb := &mocks.InviteDatabase{}
	idb.On("FindOne", mock.Anything, mock.Anything).
		Return(&models.Invite{ID: inviteID, FamilyID: primitive.NewObjectID(), InvitedUserID: invited}, nil)
	idb.On("DeleteOne", mock.Anything, mock.Anything).Return(nil)

	i := core.Invites{FDB: fdb, IDB: idb}
	err := i.Decline(context.TODO(), invited, inviteID)
	assert.NoError(t, err)
	fdb.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvites_Decline_NotInvited(t *testing.T) {
	idb := &mocks.InviteDatabase{}
	idb.On("FindOne", mock.Anything, mock.Anything).
		Return(&models.Invite{ID: primitive.NewObjectID(), InvitedUserID: primitive.NewObjectID()}, nil)

	i := core.Invites{IDB: idb}
	err := i.Decline(context.TODO(), primitive.NewObjectID(), primitive.NewObjectID())
	assert.Equal(t, core.KindForbidden, core.KindOf(err))
	idb.AssertNotCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}
