package model

import "time"

// LibraryEntry is one game in a user's owned library, with the user's
// rating on a 0–5 scale (0 = unrated). The recommendation profile builder
// scans these rows.
type LibraryEntry struct {
	ID      int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID  int64     `gorm:"uniqueIndex:uk_library,priority:1;not null" json:"user_id"`
	GameID  int64     `gorm:"uniqueIndex:uk_library,priority:2;not null" json:"game_id"`
	Rating  float64   `gorm:"default:0" json:"rating"`
	AddedAt time.Time `gorm:"autoCreateTime" json:"added_at"`
}
