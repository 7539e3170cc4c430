package models

import "time"

// DeleteLog is written to deleteLogs/{id} before an order or product is removed.
type DeleteLog struct {
	ID         string         `json:"id" bson:"id"`
	EntityType string         `json:"entityType" bson:"entityType"` // "order" | "product"
	EntityID   string         `json:"entityId" bson:"entityId"`
	DeletedBy  string         `json:"deletedBy" bson:"deletedBy"`
	DeletedAt  time.Time      `json:"deletedAt" bson:"deletedAt"`
	Snapshot   map[string]any `json:"snapshot" bson:"snapshot"`
}

// DenialLog is written to denialLogs/{id} when an admin denies a profile.
type DenialLog struct {
	ID       string    `json:"id" bson:"id"`
	UserID   string    `json:"userId" bson:"userId"`
	Reason   string    `json:"reason" bson:"reason"`
	DeniedBy string    `json:"deniedBy" bson:"deniedBy"`
	DeniedAt time.Time `json:"deniedAt" bson:"deniedAt"`
	Profile  Profile   `json:"profile" bson:"profile"`
}
