package model

import "time"

// FriendLink statuses.
const (
	FriendPending  = 0
	FriendAccepted = 1
)

// FriendLink is one direction of a friend relationship.
//
// A pending request is a single row owned by the requester. Once the
// recipient accepts, the mirror row (recipient→requester) is created in the
// same transaction, so an accepted friendship is always exactly two rows.
type FriendLink struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	RequesterID int64      `gorm:"uniqueIndex:uk_friend_pair,priority:1;not null" json:"requester_id"`
	RecipientID int64      `gorm:"uniqueIndex:uk_friend_pair,priority:2;index:idx_friend_recipient;not null" json:"recipient_id"`
	Status      int        `gorm:"default:0" json:"status"` // 0=pending,1=accepted
	RequestedAt time.Time  `gorm:"autoCreateTime" json:"requested_at"`
	AcceptedAt  *time.Time `json:"accepted_at"`
}
