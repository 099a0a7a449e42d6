// Package scheduler runs periodic background jobs that repair referential
// drift in the store.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/familyrecipes/family-recipes-api/databases"
)

// Scheduler owns the cron runner and the databases the sweep jobs touch
type Scheduler struct {
	cron       *cron.Cron
	UDB        databases.UserDatabase
	FDB        databases.FamilyDatabase
	RDB        databases.RecipeDatabase
	IDB        databases.InviteDatabase
	LockDB     databases.LockDatabase
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	uDB databases.UserDatabase,
	fDB databases.FamilyDatabase,
	rDB databases.RecipeDatabase,
	iDB databases.InviteDatabase,
	lockDB databases.LockDatabase,
) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		UDB:        uDB,
		FDB:        fDB,
		RDB:        rDB,
		IDB:        iDB,
		LockDB:     lockDB,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Sweep orphaned invites and authorless recipes daily at 3 AM UTC
	_, err := s.cron.AddFunc("0 3 * * *", s.sweepOrphans)
	if err != nil {
		zap.S().Errorw("failed to register orphan sweep job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("orphan sweep scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("orphan sweep scheduler stopped")
}

// sweepOrphans removes invites whose family or invited user no longer
// exists and recipes whose author is gone. Crashes between cascade steps
// leave these behind; the sweep makes the cleanup eventually complete.
func (s *Scheduler) sweepOrphans() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Try to acquire distributed lock (10 minute TTL)
	acquired, err := s.LockDB.TryAcquireLock(ctx, "orphan_sweep_job", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for orphan sweep job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("orphan sweep already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "orphan_sweep_job", s.instanceID)

	zap.S().Infow("running orphan sweep job", "instance", s.instanceID)

	invitesSwept := s.sweepOrphanedInvites(ctx)
	recipesSwept := s.sweepAuthorlessRecipes(ctx)

	zap.S().Infow("orphan sweep complete",
		"invitesSwept", invitesSwept,
		"recipesSwept", recipesSwept,
	)
}

func (s *Scheduler) sweepOrphanedInvites(ctx context.Context) int {
	invites, err := s.IDB.Find(ctx, bson.M{})
	if err != nil {
		zap.S().Errorw("failed to list invites", "error", err)
		return 0
	}

	swept := 0
	for _, invite := range invites {
		familyCount, err := s.FDB.CountDocuments(ctx, bson.M{"_id": invite.FamilyID})
		if err != nil {
			zap.S().Errorw("failed to check invite family", "error", err, "inviteId", invite.ID.Hex())
			continue
		}
		userCount, err := s.UDB.CountDocuments(ctx, bson.M{"_id": invite.InvitedUserID})
		if err != nil {
			zap.S().Errorw("failed to check invited user", "error", err, "inviteId", invite.ID.Hex())
			continue
		}
		if familyCount > 0 && userCount > 0 {
			continue
		}
		if err := s.IDB.DeleteOne(ctx, bson.M{"_id": invite.ID}); err != nil {
			zap.S().Errorw("failed to delete orphaned invite", "error", err, "inviteId", invite.ID.Hex())
			continue
		}
		swept++
	}
	return swept
}

func (s *Scheduler) sweepAuthorlessRecipes(ctx context.Context) int {
	recipes, err := s.RDB.Find(ctx, bson.M{})
	if err != nil {
		zap.S().Errorw("failed to list recipes", "error", err)
		return 0
	}

	swept := 0
	for _, recipe := range recipes {
		authorCount, err := s.UDB.CountDocuments(ctx, bson.M{"_id": recipe.AuthorID})
		if err != nil {
			zap.S().Errorw("failed to check recipe author", "error", err, "recipeId", recipe.ID.Hex())
			continue
		}
		if authorCount > 0 {
			continue
		}
		if err := s.RDB.DeleteOne(ctx, bson.M{"_id": recipe.ID}); err != nil {
			zap.S().Errorw("failed to delete authorless recipe", "error", err, "recipeId", recipe.ID.Hex())
			continue
		}
		swept++
	}
	return swept
}
