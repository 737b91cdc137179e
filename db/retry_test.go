package db

import (
	"errors"
	"testing"

	"github.com/ayakura/gamehub/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type widget struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"uniqueIndex"`
}

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := Open(config.DatabaseConfig{Mode: ModeMemory})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&widget{}))
	return gdb
}

func TestOpen_MemoryIsolation(t *testing.T) {
	a := openMemory(t)
	b := openMemory(t)

	require.NoError(t, a.Create(&widget{Name: "only-in-a"}).Error)

	var count int64
	b.Model(&widget{}).Count(&count)
	assert.Zero(t, count, "each Open must get its own database")
}

func TestIsConflict(t *testing.T) {
	assert.False(t, IsConflict(nil))
	assert.False(t, IsConflict(errors.New("connection refused")))
	assert.True(t, IsConflict(gorm.ErrDuplicatedKey))
	assert.True(t, IsConflict(errors.New("UNIQUE constraint failed: widgets.name")))
	assert.True(t, IsConflict(errors.New("Error 1062: Duplicate entry 'x'")))
	assert.True(t, IsConflict(errors.New("database is locked")))
	assert.True(t, IsConflict(errors.New("Deadlock found when trying to get lock")))
	assert.True(t, IsConflict(ErrConflict), "self-reported conflicts must retry")
}

func TestWithRetry_SelfReportedConflictRetries(t *testing.T) {
	gdb := openMemory(t)

	// A transaction body that detects a lost update (zero rows affected)
	// returns ErrConflict; WithRetry must re-run it, not pass it through.
	calls := 0
	err := WithRetry(gdb, func(tx *gorm.DB) error {
		calls++
		if calls == 1 {
			return ErrConflict
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetry_Success(t *testing.T) {
	gdb := openMemory(t)
	err := WithRetry(gdb, func(tx *gorm.DB) error {
		return tx.Create(&widget{Name: "a"}).Error
	})
	assert.NoError(t, err)
}

func TestWithRetry_NonConflictPassesThrough(t *testing.T) {
	gdb := openMemory(t)
	boom := errors.New("boom")
	calls := 0
	err := WithRetry(gdb, func(tx *gorm.DB) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls, "non-conflict errors must not be retried")
}

func TestWithRetry_ConflictExhaustsAttempts(t *testing.T) {
	gdb := openMemory(t)
	require.NoError(t, gdb.Create(&widget{Name: "taken"}).Error)

	calls := 0
	err := WithRetry(gdb, func(tx *gorm.DB) error {
		calls++
		return tx.Create(&widget{Name: "taken"}).Error
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, txAttempts, calls)
}

func TestWithRetry_ConflictThenSuccess(t *testing.T) {
	gdb := openMemory(t)
	require.NoError(t, gdb.Create(&widget{Name: "taken"}).Error)

	calls := 0
	err := WithRetry(gdb, func(tx *gorm.DB) error {
		calls++
		if calls == 1 {
			return tx.Create(&widget{Name: "taken"}).Error
		}
		return tx.Create(&widget{Name: "fresh"}).Error
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}
