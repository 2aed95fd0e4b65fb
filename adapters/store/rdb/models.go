package rdb

import "time"

// SnapshotRecord is the RDB persistence model for domain ReleaseSnapshot.
// Table name: snapshots
type SnapshotRecord struct {
	ID        string    `gorm:"primaryKey;type:text;not null"`
	Release   string    `gorm:"column:release_name;type:text;not null;index"` // "release" is an SQL keyword
	Manifest  string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (SnapshotRecord) TableName() string { return "snapshots" }
