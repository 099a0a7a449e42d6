package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/familyrecipes/family-recipes-api/api"
	"github.com/familyrecipes/family-recipes-api/api/mailer"
	"github.com/familyrecipes/family-recipes-api/config"
	"github.com/familyrecipes/family-recipes-api/core"
	"github.com/familyrecipes/family-recipes-api/databases"
	"github.com/familyrecipes/family-recipes-api/models"
	templates "github.com/familyrecipes/family-recipes-api/templates/html"
)

// Invite exported for testing purposes
type Invite struct {
	UDB  databases.UserDatabase
	FDB  databases.FamilyDatabase
	Inv  core.Invites
	Mail *mailer.Mailer
	Conf config.Config
}

type inviteCreateRequest struct {
	Username string `json:"username"`
}

// CreateInviteHandler invites a user by username into a family. Email and
// websocket notification are fired asynchronously after the invite persists.
func (iv Invite) CreateInviteHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := api.RequestUserID(r)
	if err != nil {
		config.ErrorStatus("failed to resolve authenticated user", http.StatusUnauthorized, w, err)
		return
	}

	fID, err := primitive.ObjectIDFromHex(mux.Vars(r)["family_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	var req inviteCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	invite, err := iv.Inv.Create(ctx, actor, fID, req.Username)
	if err != nil {
		CoreErrorStatus(w, err)
		return
	}

	go iv.notifyInvited(*invite, actor)

	zap.S().Infow("invite created",
		"inviteId", invite.ID.Hex(),
		"familyId", fID.Hex(),
		"invitedUserId", invite.InvitedUserID.Hex(),
	)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(invite)
}

// MyInvitesHandler lists the caller's pending invites
func (iv Invite) MyInvitesHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := api.RequestUserID(r)
	if err != nil {
		config.ErrorStatus("failed to resolve authenticated user", http.StatusUnauthorized, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	invites, err := iv.Inv.ListForUser(ctx, actor)
	if err != nil {
		CoreErrorStatus(w, err)
		return
	}

	b, err := json.Marshal(invites)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// AcceptInviteHandler makes the caller a member of the inviting family
func (iv Invite) AcceptInviteHandler(w http.ResponseWriter, r *http.Request) {
	iv.resolveInvite(w, r, iv.Inv.Accept, "invite accepted")
}

// DeclineInviteHandler discards the invite
func (iv Invite) DeclineInviteHandler(w http.ResponseWriter, r *http.Request) {
	iv.resolveInvite(w, r, iv.Inv.Decline, "invite declined")
}

// AcceptLinkHandler accepts an invite through the signed token carried in
// the invite email, with no session required
func (iv Invite) AcceptLinkHandler(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "token required"})
		return
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(iv.Conf.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		config.ErrorStatus("invalid invite token", http.StatusUnauthorized, w, err)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		config.ErrorStatus("invalid invite token claims", http.StatusUnauthorized, w, fmt.Errorf("unexpected claims type"))
		return
	}
	sub, _ := claims["sub"].(string)
	inviteHex, _ := claims["invite"].(string)

	actor, err := primitive.ObjectIDFromHex(sub)
	if err != nil {
		config.ErrorStatus("invalid invite subject", http.StatusUnauthorized, w, err)
		return
	}
	inviteID, err := primitive.ObjectIDFromHex(inviteHex)
	if err != nil {
		config.ErrorStatus("invalid invite id", http.StatusUnauthorized, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := iv.Inv.Accept(ctx, actor, inviteID); err != nil {
		CoreErrorStatus(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "invite accepted"})
}

func (iv Invite) resolveInvite(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actor, inviteID primitive.ObjectID) error, message string) {
	actor, err := api.RequestUserID(r)
	if err != nil {
		config.ErrorStatus("failed to resolve authenticated user", http.StatusUnauthorized, w, err)
		return
	}

	inviteID, err := primitive.ObjectIDFromHex(mux.Vars(r)["invite_id"])
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := op(ctx, actor, inviteID); err != nil {
		CoreErrorStatus(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// notifyInvited emails the invited user an accept link and pushes a
// websocket notification if they are connected. Failures are logged only;
// the invite itself already persisted.
func (iv Invite) notifyInvited(invite models.Invite, inviterID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), api.QueryTimeout)
	defer cancel()

	invited, err := iv.UDB.FindOne(ctx, bson.M{"_id": invite.InvitedUserID})
	if err != nil {
		zap.S().Errorw("failed to load invited user for notification", "error", err)
		return
	}
	inviter, err := iv.UDB.FindOne(ctx, bson.M{"_id": inviterID})
	if err != nil {
		zap.S().Errorw("failed to load inviter for notification", "error", err)
		return
	}
	family, err := iv.FDB.FindOne(ctx, bson.M{"_id": invite.FamilyID})
	if err != nil {
		zap.S().Errorw("failed to load family for notification", "error", err)
		return
	}

	NotifyUser(invite.InvitedUserID.Hex(), map[string]interface{}{
		"type":     "family_invite",
		"inviteId": invite.ID.Hex(),
		"family":   family.Name,
		"inviter":  inviter.Name,
	})

	acceptURL, err := iv.acceptLink(invite)
	if err != nil {
		zap.S().Errorw("failed to sign invite token", "error", err)
		return
	}
	html := templates.RenderInviteEmail(inviter.Name, family.Name, acceptURL)
	plain := fmt.Sprintf("%s has invited you to join the %s family on Family Recipes. Accept here: %s", inviter.Name, family.Name, acceptURL)
	if iv.Mail != nil {
		if err := iv.Mail.Send(invited.Email, invited.Name, "You have been invited to "+family.Name, html, plain); err != nil {
			zap.S().Errorw("failed to send invite email", "error", err)
		}
	}
}

func (iv Invite) acceptLink(invite models.Invite) (string, error) {
	claims := jwt.MapClaims{
		"sub":    invite.InvitedUserID.Hex(),
		"invite": invite.ID.Hex(),
		"typ":    "invite_accept",
		"iat":    time.Now().Unix(),
		"exp":    time.Now().Add(7 * 24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(iv.Conf.JWTSecret))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/api/v1/invites/accept-link?token=%s", iv.Conf.BaseURL, signed), nil
}
