package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrConflict is returned when a transaction keeps failing on a unique or
// serialization conflict after all retry attempts.
var ErrConflict = errors.New("db: transaction conflict")

const txAttempts = 3

// IsConflict reports whether err is a unique-constraint or serialization
// failure from one of the supported drivers. Transaction bodies may also
// return ErrConflict directly when they detect a lost update themselves.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrConflict) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "could not serialize")
}

// WithRetry runs fn inside a transaction, retrying a bounded number of
// times on conflict. Non-conflict errors abort immediately and are returned
// as-is; a conflict that survives every attempt surfaces as ErrConflict.
func WithRetry(gdb *gorm.DB, fn func(tx *gorm.DB) error) error {
	var last error
	for i := 0; i < txAttempts; i++ {
		err := gdb.Transaction(fn)
		if err == nil {
			return nil
		}
		if !IsConflict(err) {
			return err
		}
		last = err
	}
	return errors.Join(ErrConflict, last)
}
