// Package rdb persists release snapshots in a relational database.
package rdb

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenFromURL opens a GORM DB based on a simple db-url string.
// Supported:
//   - sqlite:<dsn>   e.g., sqlite:./reldec.db or sqlite::memory:
//   - sqlite3:<dsn>  alias of sqlite
func OpenFromURL(dbURL string) (*gorm.DB, error) {
	switch {
	case strings.HasPrefix(dbURL, "sqlite:"):
		return openSQLite(strings.TrimPrefix(dbURL, "sqlite:"))
	case strings.HasPrefix(dbURL, "sqlite3:"):
		return openSQLite(strings.TrimPrefix(dbURL, "sqlite3:"))
	default:
		return nil, fmt.Errorf("unsupported db scheme: %s", dbURL)
	}
}

func openSQLite(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "./reldec.db"
	}
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
}

// AutoMigrate applies schema migrations for all RDB models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&SnapshotRecord{})
}
