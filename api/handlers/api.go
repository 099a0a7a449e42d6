package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/familyrecipes/family-recipes-api/api"
	"github.com/familyrecipes/family-recipes-api/api/mailer"
	"github.com/familyrecipes/family-recipes-api/api/scheduler"
	"github.com/familyrecipes/family-recipes-api/config"
	"github.com/familyrecipes/family-recipes-api/core"
	"github.com/familyrecipes/family-recipes-api/databases"
	"github.com/familyrecipes/family-recipes-api/models"
	"github.com/familyrecipes/family-recipes-api/storage"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
	store     *storage.SpacesService
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware)

	udb := databases.NewUserDatabase(a.dbHelper)
	fdb := databases.NewFamilyDatabase(a.dbHelper)
	rdb := databases.NewRecipeDatabase(a.dbHelper)
	idb := databases.NewInviteDatabase(a.dbHelper)

	membership := core.Membership{FDB: fdb, IDB: idb}
	visibility := core.Visibility{FDB: fdb}
	invites := core.Invites{UDB: udb, FDB: fdb, IDB: idb, MS: membership}
	cascade := core.Cascade{UDB: udb, FDB: fdb, RDB: rdb, IDB: idb}

	u := User{DB: udb, RDB: rdb, Vis: visibility, Cascade: cascade}
	f := Family{DB: fdb, UDB: udb, MS: membership}
	rc := Recipe{DB: rdb, Vis: visibility}
	iv := Invite{UDB: udb, FDB: fdb, Inv: invites, Mail: mailer.New(a.Config.EmailFrom), Conf: a.Config}
	up := Upload{Store: a.store}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/metrics", api.Middleware(http.HandlerFunc(api.MetricsHandler))).Methods("GET")
	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/user/favorites", api.Middleware(http.HandlerFunc(u.ListFavoritesHandler))).Methods("GET")
	apiCreate.Handle("/user/favorites/{recipe_id}", api.Middleware(http.HandlerFunc(u.AddFavoriteHandler))).Methods("POST")
	apiCreate.Handle("/user/favorites/{recipe_id}", api.Middleware(http.HandlerFunc(u.RemoveFavoriteHandler))).Methods("DELETE")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserHandler))).Methods("GET")
	apiCreate.Handle("/user", api.Middleware(http.HandlerFunc(u.UpdateUserHandler))).Methods("PUT")
	apiCreate.Handle("/user", api.Middleware(http.HandlerFunc(u.DeleteUserHandler))).Methods("DELETE")

	apiCreate.Handle("/family", api.Middleware(http.HandlerFunc(f.CreateFamilyHandler))).Methods("POST")
	apiCreate.Handle("/families", api.Middleware(http.HandlerFunc(f.MyFamiliesHandler))).Methods("GET")
	apiCreate.Handle("/family/{family_id}", api.Middleware(http.HandlerFunc(f.FamilyHandler))).Methods("GET")
	apiCreate.Handle("/family/{family_id}", api.Middleware(http.HandlerFunc(f.UpdateFamilyHandler))).Methods("PATCH")
	apiCreate.Handle("/family/{family_id}", api.Middleware(http.HandlerFunc(f.DeleteFamilyHandler))).Methods("DELETE")
	apiCreate.Handle("/family/{family_id}/members", api.Middleware(http.HandlerFunc(f.FamilyMembersHandler))).Methods("GET")
	apiCreate.Handle("/family/{family_id}/members/{user_id}", api.Middleware(http.HandlerFunc(f.RemoveMemberHandler))).Methods("DELETE")
	apiCreate.Handle("/family/{family_id}/admins/{user_id}", api.Middleware(http.HandlerFunc(f.PromoteAdminHandler))).Methods("PUT")
	apiCreate.Handle("/family/{family_id}/admins/{user_id}", api.Middleware(http.HandlerFunc(f.DemoteAdminHandler))).Methods("DELETE")
	apiCreate.Handle("/family/{family_id}/leave", api.Middleware(http.HandlerFunc(f.LeaveFamilyHandler))).Methods("POST")
	apiCreate.Handle("/family/{family_id}/invites", api.Middleware(http.HandlerFunc(iv.CreateInviteHandler))).Methods("POST")

	apiCreate.Handle("/invites", api.Middleware(http.HandlerFunc(iv.MyInvitesHandler))).Methods("GET")
	apiCreate.Handle("/invites/accept-link", http.HandlerFunc(iv.AcceptLinkHandler)).Methods("GET")
	apiCreate.Handle("/invites/{invite_id}/accept", api.Middleware(http.HandlerFunc(iv.AcceptInviteHandler))).Methods("POST")
	apiCreate.Handle("/invites/{invite_id}/decline", api.Middleware(http.HandlerFunc(iv.DeclineInviteHandler))).Methods("POST")

	apiCreate.Handle("/recipe", api.Middleware(http.HandlerFunc(rc.CreateRecipeHandler))).Methods("POST")
	apiCreate.Handle("/recipes", api.Middleware(http.HandlerFunc(rc.MyRecipesHandler))).Methods("GET")
	apiCreate.Handle("/recipes/public", api.Middleware(http.HandlerFunc(rc.PublicRecipesHandler))).Methods("GET")
	apiCreate.Handle("/recipe/{recipe_id}", api.Middleware(http.HandlerFunc(rc.RecipeByIDHandler))).Methods("GET")
	apiCreate.Handle("/recipe/{recipe_id}", api.Middleware(http.HandlerFunc(rc.UpdateRecipeHandler))).Methods("PUT")
	apiCreate.Handle("/recipe/{recipe_id}", api.Middleware(http.HandlerFunc(rc.DeleteRecipeHandler))).Methods("DELETE")

	apiCreate.Handle("/upload/image", api.Middleware(http.HandlerFunc(up.UploadImageHandler))).Methods("POST")

	apiCreate.Handle("/ws/notifications", api.Middleware(http.HandlerFunc(NotificationsWebSocketHandler))).Methods("GET")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("family-recipes-api has connected to the database")

	ctx, cancel := api.WithQueryTimeout(context.Background())
	defer cancel()
	if err := databases.EnsureIndexes(ctx, a.dbHelper); err != nil {
		// without the unique invite index the duplicate-invite race reopens
		zap.S().With(err).Error("failed to ensure database indexes")
		return err
	}

	if a.Config.S3Bucket != "" {
		store, err := storage.NewSpacesService(&a.Config)
		if err != nil {
			zap.S().With(err).Error("failed to create object store client")
			return err
		}
		a.store = store
	} else {
		zap.S().Warn("S3_BUCKET not set, image uploads disabled")
	}

	a.Scheduler = scheduler.NewScheduler(
		databases.NewUserDatabase(a.dbHelper),
		databases.NewFamilyDatabase(a.dbHelper),
		databases.NewRecipeDatabase(a.dbHelper),
		databases.NewInviteDatabase(a.dbHelper),
		databases.NewLockDatabase(a.dbHelper),
	)
	a.Scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
