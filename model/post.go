package model

import "time"

// Post is a text post inside a group.
type Post struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	GroupID   int64      `gorm:"index:idx_post_group;not null" json:"group_id"`
	AuthorID  int64      `gorm:"index:idx_post_author;not null" json:"author_id"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	LikeCount int64      `gorm:"default:0" json:"like_count"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	EditedAt  *time.Time `json:"edited_at"`
}

// Comment parent kinds.
const (
	ParentPost  = "post"
	ParentMedia = "media"
)

// Comment attaches to either a Post or a MediaItem.
type Comment struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ParentKind string    `gorm:"index:idx_comment_parent,priority:1;size:8;not null" json:"parent_kind"`
	ParentID   int64     `gorm:"index:idx_comment_parent,priority:2;not null" json:"parent_id"`
	AuthorID   int64     `gorm:"not null" json:"author_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
