package model

import "time"

// Membership roles within a group.
type Role = int

const (
	RoleAdministrator Role = 1
	RoleModerator     Role = 2
	RoleMember        Role = 3
)

// Group visibility.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Group is a user-created community.
type Group struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"index;size:64;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Visibility  string    `gorm:"size:16;default:public" json:"visibility"`
	OwnerID     int64     `gorm:"not null" json:"owner_id"`
	PhotoURL    string    `gorm:"size:255" json:"photo_url"`
	BannerURL   string    `gorm:"size:255" json:"banner_url"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Membership links a user to a group with a role.
//
// Invariant: a group retains at least one Administrator membership at all
// times; the creator's membership is created role=Administrator in the same
// transaction as the group itself.
type Membership struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	GroupID  int64     `gorm:"uniqueIndex:uk_group_user,priority:1;not null" json:"group_id"`
	UserID   int64     `gorm:"uniqueIndex:uk_group_user,priority:2;index:idx_member_user;not null" json:"user_id"`
	Role     Role      `gorm:"default:3" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}
