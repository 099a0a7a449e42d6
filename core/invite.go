package core

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/familyrecipes/family-recipes-api/databases"
	"github.com/familyrecipes/family-recipes-api/models"
)

// Invites drives the invite lifecycle. An invite is pending from creation
// until accept or decline, both of which delete the record; the store never
// keeps resolved invites.
type Invites struct {
	UDB databases.UserDatabase
	FDB databases.FamilyDatabase
	IDB databases.InviteDatabase
	MS  Membership
}

// Create invites a user, looked up by username, into a family. Only family
// members may invite, and the invited user must be neither a member nor
// already invited.
func (i Invites) Create(ctx context.Context, inviter, familyID primitive.ObjectID, invitedUsername string) (*models.Invite, error) {
	family, err := i.FDB.FindOne(ctx, bson.M{"_id": familyID})
	if err != nil {
		return nil, StoreError(err, CodeFamilyNotFound, "family not found")
	}
	if FamilyRole(family, inviter) == RoleNone {
		return nil, Forbidden(CodeNotAMember, "only family members can invite")
	}

	invited, err := i.UDB.FindOne(ctx, bson.M{"username": invitedUsername})
	if err != nil {
		return nil, StoreError(err, CodeUserNotFound, "user not found")
	}
	if containsID(family.Members, invited.ID) {
		return nil, Conflict(CodeAlreadyMember, "user is already in family")
	}

	pending, err := i.IDB.CountDocuments(ctx, bson.M{"family_id": familyID, "invited_user_id": invited.ID})
	if err != nil {
		return nil, Unavailable("failed to check pending invites", err)
	}
	if pending > 0 {
		return nil, Conflict(CodeAlreadyInvited, "user has already been invited")
	}

	invite := models.Invite{
		ID:            primitive.NewObjectID(),
		FamilyID:      familyID,
		InvitedUserID: invited.ID,
		InviterUserID: inviter,
		CreatedAt:     time.Now(),
	}
	if _, err := i.IDB.InsertOne(ctx, invite); err != nil {
		// the unique (family_id, invited_user_id) index closes the race
		// between the count above and this insert
		if mongo.IsDuplicateKeyError(err) {
			return nil, Conflict(CodeAlreadyInvited, "user has already been invited")
		}
		return nil, Unavailable("failed to create invite", err)
	}
	return &invite, nil
}

// ListForUser returns the invites pending for a user
func (i Invites) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Invite, error) {
	invites, err := i.IDB.Find(ctx, bson.M{"invited_user_id": userID})
	if err != nil {
		return nil, Unavailable("failed to list invites", err)
	}
	if invites == nil {
		invites = []models.Invite{}
	}
	return invites, nil
}

// Accept adds the invited user to the family, then deletes the invite. If
// the family no longer exists the dangling invite is deleted as a repair
// side effect and the call fails with FamilyNotFound.
func (i Invites) Accept(ctx context.Context, actor, inviteID primitive.ObjectID) error {
	invite, err := i.invite(ctx, inviteID)
	if err != nil {
		return err
	}
	if invite.InvitedUserID != actor {
		return Forbidden(CodeNotInvited, "not the invited user")
	}

	if _, err := i.FDB.FindOne(ctx, bson.M{"_id": invite.FamilyID}); err != nil {
		ce := StoreError(err, CodeFamilyNotFound, "family no longer exists")
		if ce.Kind == KindNotFound {
			// repair: a resolved family must not keep resurrecting its invite
			_ = i.IDB.DeleteOne(ctx, bson.M{"_id": invite.ID})
		}
		return ce
	}

	// membership first: a crash here leaves a dangling invite, which is
	// harmless and swept later; the reverse order would lose the acceptance
	if err := i.MS.AdmitMember(ctx, invite.FamilyID, actor); err != nil {
		return err
	}
	if err := i.IDB.DeleteOne(ctx, bson.M{"_id": invite.ID}); err != nil {
		return Unavailable("failed to delete invite", err)
	}
	return nil
}

// Decline deletes the invite without touching the family
func (i Invites) Decline(ctx context.Context, actor, inviteID primitive.ObjectID) error {
	invite, err := i.invite(ctx, inviteID)
	if err != nil {
		return err
	}
	if invite.InvitedUserID != actor {
		return Forbidden(CodeNotInvited, "not the invited user")
	}
	if err := i.IDB.DeleteOne(ctx, bson.M{"_id": invite.ID}); err != nil {
		return Unavailable("failed to delete invite", err)
	}
	return nil
}

func (i Invites) invite(ctx context.Context, inviteID primitive.ObjectID) (*models.Invite, error) {
	invite, err := i.IDB.FindOne(ctx, bson.M{"_id": inviteID})
	if err != nil {
		return nil, StoreError(err, CodeInviteNotFound, "invite not found")
	}
	return invite, nil
}
