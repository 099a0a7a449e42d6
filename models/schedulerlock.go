package models

import "time"

// SchedulerLock backs the distributed lock that keeps background jobs from
// running on more than one instance at a time.
type SchedulerLock struct {
	Name      string    `bson:"_id"`
	Owner     string    `bson:"owner"`
	ExpiresAt time.Time `bson:"expiresAt"`
}
