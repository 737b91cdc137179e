package social

import (
	"context"
	"errors"
	"time"

	appdb "github.com/ayakura/gamehub/server/db"
	"github.com/ayakura/gamehub/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sentinel errors surfaced to the API layer.
var (
	ErrNotFound       = errors.New("social: not found")
	ErrAlreadyFriends = errors.New("social: already friends")
	ErrRequestPending = errors.New("social: request already pending")
	ErrInvalidTarget  = errors.New("social: invalid target")
)

// Service manages the directional friend-link graph.
//
// An accepted friendship is two FriendLink rows (A→B and B→A); the mirror
// row is created in the same transaction as the accept, and unfriending
// removes both rows or neither.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a social Service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// SendRequest creates a pending friend request from requester to recipient.
func (svc *Service) SendRequest(ctx context.Context, requesterID, recipientID int64) (*model.FriendLink, error) {
	if requesterID == recipientID || recipientID <= 0 {
		return nil, ErrInvalidTarget
	}

	var existing model.FriendLink
	err := svc.db.WithContext(ctx).
		Where("(requester_id = ? AND recipient_id = ?) OR (requester_id = ? AND recipient_id = ?)",
			requesterID, recipientID, recipientID, requesterID).
		First(&existing).Error
	switch {
	case err == nil:
		if existing.Status == model.FriendAccepted {
			return nil, ErrAlreadyFriends
		}
		return nil, ErrRequestPending
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	link := &model.FriendLink{
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      model.FriendPending,
	}
	if err := svc.db.WithContext(ctx).Create(link).Error; err != nil {
		// The pre-check races with a concurrent request for the same pair;
		// the unique key on (requester_id, recipient_id) is authoritative.
		if appdb.IsConflict(err) {
			return nil, ErrRequestPending
		}
		return nil, err
	}
	svc.logger.Debug("friend request sent",
		zap.Int64("requester", requesterID), zap.Int64("recipient", recipientID))
	return link, nil
}

// AcceptRequest transitions the pending request to accepted and creates the
// mirror row. Only the recipient of the request may accept it.
func (svc *Service) AcceptRequest(ctx context.Context, recipientID, requestID int64) error {
	return appdb.WithRetry(svc.db.WithContext(ctx), func(tx *gorm.DB) error {
		var link model.FriendLink
		if err := tx.Where("id = ? AND recipient_id = ? AND status = ?",
			requestID, recipientID, model.FriendPending).
			First(&link).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		now := time.Now()
		link.Status = model.FriendAccepted
		link.AcceptedAt = &now
		if err := tx.Save(&link).Error; err != nil {
			return err
		}
		// Mirror row; without it the friendship would be one-directional.
		return tx.Create(&model.FriendLink{
			RequesterID: recipientID,
			RecipientID: link.RequesterID,
			Status:      model.FriendAccepted,
			AcceptedAt:  &now,
		}).Error
	})
}

// RejectRequest deletes a pending request addressed to recipient.
func (svc *Service) RejectRequest(ctx context.Context, recipientID, requestID int64) error {
	res := svc.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ? AND status = ?", requestID, recipientID, model.FriendPending).
		Delete(&model.FriendLink{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CancelRequest deletes a pending request the requester sent.
func (svc *Service) CancelRequest(ctx context.Context, requesterID, requestID int64) error {
	res := svc.db.WithContext(ctx).
		Where("id = ? AND requester_id = ? AND status = ?", requestID, requesterID, model.FriendPending).
		Delete(&model.FriendLink{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Unfriend removes both directional rows of an accepted friendship.
func (svc *Service) Unfriend(ctx context.Context, userID, otherID int64) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where(
			"((requester_id = ? AND recipient_id = ?) OR (requester_id = ? AND recipient_id = ?)) AND status = ?",
			userID, otherID, otherID, userID, model.FriendAccepted).
			Delete(&model.FriendLink{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListFriends returns the accepted links owned by userID.
func (svc *Service) ListFriends(ctx context.Context, userID int64) ([]model.FriendLink, error) {
	var links []model.FriendLink
	err := svc.db.WithContext(ctx).
		Where("requester_id = ? AND status = ?", userID, model.FriendAccepted).
		Find(&links).Error
	return links, err
}

// ListPendingIncoming returns pending requests addressed to userID.
func (svc *Service) ListPendingIncoming(ctx context.Context, userID int64) ([]model.FriendLink, error) {
	var links []model.FriendLink
	err := svc.db.WithContext(ctx).
		Where("recipient_id = ? AND status = ?", userID, model.FriendPending).
		Order("requested_at DESC").
		Find(&links).Error
	return links, err
}

// ListSuggestions returns up to limit accounts the user might befriend,
// excluding the user and anyone with an existing link in either direction.
func (svc *Service) ListSuggestions(ctx context.Context, userID int64, limit int) ([]model.Account, error) {
	if limit <= 0 {
		limit = 10
	}
	var accounts []model.Account
	err := svc.db.WithContext(ctx).
		Where("id <> ? AND status = ?", userID, model.StatusNormal).
		Where("id NOT IN (?)",
			svc.db.Model(&model.FriendLink{}).Select("recipient_id").Where("requester_id = ?", userID)).
		Where("id NOT IN (?)",
			svc.db.Model(&model.FriendLink{}).Select("requester_id").Where("recipient_id = ?", userID)).
		Order("created_at DESC").
		Limit(limit).
		Find(&accounts).Error
	return accounts, err
}
