package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/familyrecipes/family-recipes-api/api"
	"github.com/familyrecipes/family-recipes-api/api/handlers"
	"github.com/familyrecipes/family-recipes-api/core"
	"github.com/familyrecipes/family-recipes-api/databases/mocks"
	"github.com/familyrecipes/family-recipes-api/models"
)

func authedRequest(t *testing.T, method, target string, body []byte, actor primitive.ObjectID, vars map[string]string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = req.WithContext(api.WithUserID(req.Context(), actor))
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func TestFamily_CreateFamilyHandler(t *testing.T) {
	actor := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	fdb.On("InsertOne", mock.Anything, mock.Anything).Return(&mocks.InsertOneResultHelper{}, nil)

	f := handlers.Family{DB: fdb, MS: core.Membership{FDB: fdb}}
	body, _ := json.Marshal(map[string]string{"name": "Smith Family"})
	req := authedRequest(t, "POST", "/api/v1/family", body, actor, nil)

	rr := httptest.NewRecorder()
	http.HandlerFunc(f.CreateFamilyHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var got models.Family
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "Smith Family", got.Name)
	assert.Equal(t, []primitive.ObjectID{actor}, got.Admins)
}

func TestFamily_CreateFamilyHandlerMissingName(t *testing.T) {
	f := handlers.Family{}
	req := authedRequest(t, "POST", "/api/v1/family", []byte(`{}`), primitive.NewObjectID(), nil)

	rr := httptest.NewRecorder()
	http.HandlerFunc(f.CreateFamilyHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestFamily_FamilyHandlerForbidden(t *testing.T) {
	member := primitive.NewObjectID()
	familyID := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Family{
		ID:      familyID,
		Members: []primitive.ObjectID{member},
		Admins:  []primitive.ObjectID{member},
	}, nil)

	f := handlers.Family{DB: fdb, MS: core.Membership{FDB: fdb}}
	req := authedRequest(t, "GET", "/api/v1/family/"+familyID.Hex(), nil, primitive.NewObjectID(),
		map[string]string{"family_id": familyID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(f.FamilyHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), core.CodeNotAMember)
}

func TestFamily_FamilyMembersHandler(t *testing.T) {
	admin := primitive.NewObjectID()
	member := primitive.NewObjectID()
	familyID := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	udb := &mocks.UserDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Family{
		ID:      familyID,
		Members: []primitive.ObjectID{admin, member},
		Admins:  []primitive.ObjectID{admin},
	}, nil)
	udb.On("Find", mock.Anything, mock.Anything).Return([]models.User{
		{ID: admin, Name: "Rosa", Username: "rosa"},
		{ID: member, Name: "Marco", Username: "marco"},
	}, nil)

	f := handlers.Family{DB: fdb, UDB: udb, MS: core.Membership{FDB: fdb}}
	req := authedRequest(t, "GET", "/api/v1/family/"+familyID.Hex()+"/members", nil, member,
		map[string]string{"family_id": familyID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(f.FamilyMembersHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got []models.FamilyMember
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Len(t, got, 2)
	assert.True(t, got[0].Admin)
	assert.False(t, got[1].Admin)
}

func TestFamily_LeaveFamilyHandlerLastAdmin(t *testing.T) {
	admin := primitive.NewObjectID()
	familyID := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Family{
		ID:      familyID,
		Members: []primitive.ObjectID{admin, primitive.NewObjectID()},
		Admins:  []primitive.ObjectID{admin},
	}, nil)

	f := handlers.Family{DB: fdb, MS: core.Membership{FDB: fdb}}
	req := authedRequest(t, "POST", "/api/v1/family/"+familyID.Hex()+"/leave", nil, admin,
		map[string]string{"family_id": familyID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(f.LeaveFamilyHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), core.CodeLastAdmin)
}

func TestFamily_PromoteAdminHandler(t *testing.T) {
	admin := primitive.NewObjectID()
	member := primitive.NewObjectID()
	familyID := primitive.NewObjectID()

	fdb := &mocks.FamilyDatabase{}
	fdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Family{
		ID:      familyID,
		Members: []primitive.ObjectID{admin, member},
		Admins:  []primitive.ObjectID{admin},
	}, nil)
	fdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	f := handlers.Family{DB: fdb, MS: core.Membership{FDB: fdb}}
	req := authedRequest(t, "PUT", "/api/v1/family/"+familyID.Hex()+"/admins/"+member.Hex(), nil, admin,
		map[string]string{"family_id": familyID.Hex(), "user_id": member.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(f.PromoteAdminHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestFamily_RemoveMemberHandlerSelf(t *testing.T) {
	admin := primitive.NewObjectID()
	familyID := primitive.NewObjectID()

	f := handlers.Family{}
	req := authedRequest(t, "DELETE", "/api/v1/family/"+familyID.Hex()+"/members/"+admin.Hex(), nil, admin,
		map[string]string{"family_id": familyID.Hex(), "user_id": admin.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(f.RemoveMemberHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), core.CodeCannotRemoveSelf)
}
