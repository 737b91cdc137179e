package db

import (
	"fmt"
	"sync/atomic"

	"github.com/ayakura/gamehub/server/config"
	dbmysql "github.com/ayakura/gamehub/server/db/mysql"
	dbsqlite "github.com/ayakura/gamehub/server/db/sqlite"
	"gorm.io/gorm"
)

const (
	ModeMemory = "memory"
	ModeSQLite = "sqlite"
	ModeMySQL  = "mysql"
)

var memorySeq int64

// Open returns a *gorm.DB for the configured database mode.
// ModeMemory is an in-memory SQLite database (fresh per Open call), used by
// tests and local development; each Open gets its own named shared-cache DB
// so the connection pool sees one database and separate Opens stay isolated.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Mode {
	case ModeMemory:
		name := atomic.AddInt64(&memorySeq, 1)
		return dbsqlite.Open(fmt.Sprintf("file:gamehub_mem_%d?mode=memory&cache=shared", name))
	case ModeSQLite:
		return dbsqlite.Open(cfg.SQLitePath)
	case ModeMySQL:
		return dbmysql.Open(cfg.MySQLDSN, cfg.MySQLMaxOpen, cfg.MySQLMaxIdle, cfg.MySQLMaxLife)
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}
