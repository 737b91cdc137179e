package model

import "time"

// Reaction kinds.
const (
	ReactLike  = "like"
	ReactLove  = "love"
	ReactWow   = "wow"
	ReactSad   = "sad"
	ReactAngry = "angry"
)

// ReactionKinds lists every valid reaction kind.
var ReactionKinds = []string{ReactLike, ReactLove, ReactWow, ReactSad, ReactAngry}

// MediaItem is an uploaded image/video inside a group.
//
// The per-kind counters are a denormalized cache over the Reaction table and
// are only ever updated in the same transaction as the Reaction row, with
// store-level increments.
type MediaItem struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	GroupID     int64     `gorm:"index:idx_media_group;not null" json:"group_id"`
	AuthorID    int64     `gorm:"not null" json:"author_id"`
	URL         string    `gorm:"size:255;not null" json:"url"`
	Kind        string    `gorm:"size:16" json:"kind"`
	Description string    `gorm:"type:text" json:"description"`
	LikeCount   int64     `gorm:"default:0" json:"like_count"`
	LoveCount   int64     `gorm:"default:0" json:"love_count"`
	WowCount    int64     `gorm:"default:0" json:"wow_count"`
	SadCount    int64     `gorm:"default:0" json:"sad_count"`
	AngryCount  int64     `gorm:"default:0" json:"angry_count"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// CounterColumn maps a reaction kind to its counter column on MediaItem.
func CounterColumn(kind string) string {
	switch kind {
	case ReactLike:
		return "like_count"
	case ReactLove:
		return "love_count"
	case ReactWow:
		return "wow_count"
	case ReactSad:
		return "sad_count"
	case ReactAngry:
		return "angry_count"
	}
	return ""
}

// Reaction is a single user's one-per-media reaction, the ground truth
// behind the MediaItem counters.
type Reaction struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MediaID   int64     `gorm:"uniqueIndex:uk_media_user,priority:1;not null" json:"media_id"`
	UserID    int64     `gorm:"uniqueIndex:uk_media_user,priority:2;not null" json:"user_id"`
	Kind      string    `gorm:"size:8;not null" json:"kind"`
	ReactedAt time.Time `gorm:"autoCreateTime" json:"reacted_at"`
}
