package group

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayakura/gamehub/server/cache"
	appdb "github.com/ayakura/gamehub/server/db"
	"github.com/ayakura/gamehub/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sentinel errors surfaced to the API layer.
var (
	ErrNotFound          = errors.New("group: not found")
	ErrAlreadyMember     = errors.New("group: already a member")
	ErrNotMember         = errors.New("group: not a member")
	ErrForbidden         = errors.New("group: forbidden")
	ErrLastAdministrator = errors.New("group: last administrator")
	ErrCannotRemoveAdmin = errors.New("group: cannot remove an administrator")
	ErrInvalidReaction   = errors.New("group: invalid reaction kind")
)

// CreateSpec carries the caller-supplied fields for a new group.
type CreateSpec struct {
	Name        string
	Description string
	Visibility  string
	PhotoURL    string
	BannerURL   string
}

// Service manages groups, memberships, posts, media, reactions and
// comments. Every multi-row write runs in one transaction.
type Service struct {
	db     *gorm.DB
	pubsub cache.PubSub
	logger *zap.Logger
}

// NewService creates a group Service. pubsub may be nil in tests; events
// are then skipped.
func NewService(db *gorm.DB, ps cache.PubSub, logger *zap.Logger) *Service {
	return &Service{db: db, pubsub: ps, logger: logger}
}

// CreateGroup creates the group plus the owner's Administrator membership
// atomically and returns the new group.
func (svc *Service) CreateGroup(ctx context.Context, ownerID int64, spec CreateSpec) (*model.Group, error) {
	visibility := spec.Visibility
	if visibility == "" {
		visibility = model.VisibilityPublic
	}
	g := &model.Group{
		Name:        spec.Name,
		Description: spec.Description,
		Visibility:  visibility,
		OwnerID:     ownerID,
		PhotoURL:    spec.PhotoURL,
		BannerURL:   spec.BannerURL,
	}
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(g).Error; err != nil {
			return err
		}
		return tx.Create(&model.Membership{
			GroupID: g.ID,
			UserID:  ownerID,
			Role:    model.RoleAdministrator,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	svc.logger.Info("group created", zap.Int64("group", g.ID), zap.Int64("owner", ownerID))
	return g, nil
}

// Join adds userID to the group as a plain Member.
func (svc *Service) Join(ctx context.Context, groupID, userID int64) error {
	if err := svc.requireGroup(ctx, groupID); err != nil {
		return err
	}
	err := svc.db.WithContext(ctx).Create(&model.Membership{
		GroupID: groupID,
		UserID:  userID,
		Role:    model.RoleMember,
	}).Error
	if appdb.IsConflict(err) {
		return ErrAlreadyMember
	}
	return err
}

// Leave removes the caller's own membership. An Administrator may not leave
// while being the group's only Administrator; the count check and the
// delete run in the same transaction so two concurrent leaves cannot both
// slip past the floor.
func (svc *Service) Leave(ctx context.Context, groupID, userID int64) error {
	return appdb.WithRetry(svc.db.WithContext(ctx), func(tx *gorm.DB) error {
		var m model.Membership
		if err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).
			First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotMember
			}
			return err
		}
		if m.Role == model.RoleAdministrator {
			admins, err := countAdminsLocked(tx, groupID)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdministrator
			}
		}
		return tx.Delete(&m).Error
	})
}

// RemoveMember lets an Administrator remove a non-admin member.
func (svc *Service) RemoveMember(ctx context.Context, groupID, actorID, targetID int64) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRole(tx, groupID, actorID, model.RoleAdministrator); err != nil {
			return err
		}
		var target model.Membership
		if err := tx.Where("group_id = ? AND user_id = ?", groupID, targetID).
			First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotMember
			}
			return err
		}
		if target.Role == model.RoleAdministrator {
			return ErrCannotRemoveAdmin
		}
		return tx.Delete(&target).Error
	})
}

// SetRole promotes or demotes a member. Only Administrators may change
// roles, and demoting the group's only Administrator is refused.
func (svc *Service) SetRole(ctx context.Context, groupID, actorID, targetID int64, role model.Role) error {
	if role < model.RoleAdministrator || role > model.RoleMember {
		return fmt.Errorf("group: invalid role %d", role)
	}
	return appdb.WithRetry(svc.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := requireRole(tx, groupID, actorID, model.RoleAdministrator); err != nil {
			return err
		}
		var target model.Membership
		if err := tx.Where("group_id = ? AND user_id = ?", groupID, targetID).
			First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotMember
			}
			return err
		}
		if target.Role == role {
			return nil
		}
		if target.Role == model.RoleAdministrator {
			admins, err := countAdminsLocked(tx, groupID)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdministrator
			}
		}
		return tx.Model(&target).Update("role", role).Error
	})
}

// DeleteGroup removes the group and all of its content. The cascade is an
// explicit ordered set of deletes (children before parent) in one
// transaction, so it stays portable across storage engines.
func (svc *Service) DeleteGroup(ctx context.Context, groupID, actorID int64) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRole(tx, groupID, actorID, model.RoleAdministrator); err != nil {
			return err
		}
		var mediaIDs []int64
		if err := tx.Model(&model.MediaItem{}).Where("group_id = ?", groupID).
			Pluck("id", &mediaIDs).Error; err != nil {
			return err
		}
		var postIDs []int64
		if err := tx.Model(&model.Post{}).Where("group_id = ?", groupID).
			Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if len(mediaIDs) > 0 {
			if err := tx.Where("media_id IN ?", mediaIDs).Delete(&model.Reaction{}).Error; err != nil {
				return err
			}
			if err := tx.Where("parent_kind = ? AND parent_id IN ?", model.ParentMedia, mediaIDs).
				Delete(&model.Comment{}).Error; err != nil {
				return err
			}
		}
		if len(postIDs) > 0 {
			if err := tx.Where("parent_kind = ? AND parent_id IN ?", model.ParentPost, postIDs).
				Delete(&model.Comment{}).Error; err != nil {
				return err
			}
		}
		for _, m := range []interface{}{&model.MediaItem{}, &model.Post{}, &model.Membership{}} {
			if err := tx.Where("group_id = ?", groupID).Delete(m).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&model.Group{}, groupID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// CreatePost inserts a post authored by a member.
func (svc *Service) CreatePost(ctx context.Context, groupID, authorID int64, content string) (*model.Post, error) {
	if err := svc.requireMembership(ctx, groupID, authorID); err != nil {
		return nil, err
	}
	p := &model.Post{GroupID: groupID, AuthorID: authorID, Content: content}
	if err := svc.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	svc.publish(ctx, groupID, "post_created", p.ID, authorID)
	return p, nil
}

// LikePost increments the post's like counter at the store level.
func (svc *Service) LikePost(ctx context.Context, postID, userID int64) error {
	res := svc.db.WithContext(ctx).Model(&model.Post{}).
		Where("id = ?", postID).
		UpdateColumn("like_count", gorm.Expr("like_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UploadMedia inserts a media item with all reaction counters at zero.
func (svc *Service) UploadMedia(ctx context.Context, groupID, authorID int64, url, kind, description string) (*model.MediaItem, error) {
	if err := svc.requireMembership(ctx, groupID, authorID); err != nil {
		return nil, err
	}
	m := &model.MediaItem{
		GroupID:     groupID,
		AuthorID:    authorID,
		URL:         url,
		Kind:        kind,
		Description: description,
	}
	if err := svc.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	svc.publish(ctx, groupID, "media_uploaded", m.ID, authorID)
	return m, nil
}

// React applies toggle/replace semantics for a user's reaction on a media
// item:
//
//	no existing reaction        → insert row, counter+1
//	existing with other kind    → update kind, old counter−1, new counter+1
//	existing with same kind     → delete row, counter−1
//
// The Reaction rows are ground truth; the MediaItem counters are updated in
// the same transaction with store-level arithmetic. Concurrent reactions
// from the same user serialize on the (media_id, user_id) unique key and a
// bounded retry.
func (svc *Service) React(ctx context.Context, mediaID, userID int64, kind string) error {
	if model.CounterColumn(kind) == "" {
		return ErrInvalidReaction
	}
	return appdb.WithRetry(svc.db.WithContext(ctx), func(tx *gorm.DB) error {
		var media model.MediaItem
		if err := tx.Select("id, group_id").First(&media, mediaID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var existing model.Reaction
		err := tx.Where("media_id = ? AND user_id = ?", mediaID, userID).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&model.Reaction{
				MediaID: mediaID,
				UserID:  userID,
				Kind:    kind,
			}).Error; err != nil {
				return err
			}
			return bumpCounter(tx, mediaID, kind, +1)
		case err != nil:
			return err
		case existing.Kind == kind:
			// Un-react. Under snapshot isolation a concurrent toggle may have
			// removed the row already; bumping the counter then would drift it
			// below the Reaction rows, so a zero-row delete retries instead.
			res := tx.Delete(&existing)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return appdb.ErrConflict
			}
			return bumpCounter(tx, mediaID, kind, -1)
		default:
			old := existing.Kind
			res := tx.Model(&existing).Update("kind", kind)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return appdb.ErrConflict
			}
			if err := bumpCounter(tx, mediaID, old, -1); err != nil {
				return err
			}
			return bumpCounter(tx, mediaID, kind, +1)
		}
	})
}

// AddComment attaches a comment to a post or media item; the author must be
// a member of the owning group.
func (svc *Service) AddComment(ctx context.Context, parentKind string, parentID, authorID int64, content string) (*model.Comment, error) {
	var groupID int64
	switch parentKind {
	case model.ParentPost:
		var p model.Post
		if err := svc.db.WithContext(ctx).Select("id, group_id").First(&p, parentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		groupID = p.GroupID
	case model.ParentMedia:
		var m model.MediaItem
		if err := svc.db.WithContext(ctx).Select("id, group_id").First(&m, parentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		groupID = m.GroupID
	default:
		return nil, fmt.Errorf("group: invalid comment parent kind %q", parentKind)
	}
	if err := svc.requireMembership(ctx, groupID, authorID); err != nil {
		return nil, err
	}
	c := &model.Comment{
		ParentKind: parentKind,
		ParentID:   parentID,
		AuthorID:   authorID,
		Content:    content,
	}
	if err := svc.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ListRecommended returns public groups the user does not belong to.
func (svc *Service) ListRecommended(ctx context.Context, userID int64, limit int) ([]model.Group, error) {
	if limit <= 0 {
		limit = 20
	}
	var groups []model.Group
	err := svc.db.WithContext(ctx).
		Where("visibility = ?", model.VisibilityPublic).
		Where("id NOT IN (?)",
			svc.db.Model(&model.Membership{}).Select("group_id").Where("user_id = ?", userID)).
		Order("created_at DESC").
		Limit(limit).
		Find(&groups).Error
	return groups, err
}

// ListAll returns every group the user does not belong to.
func (svc *Service) ListAll(ctx context.Context, userID int64) ([]model.Group, error) {
	var groups []model.Group
	err := svc.db.WithContext(ctx).
		Where("id NOT IN (?)",
			svc.db.Model(&model.Membership{}).Select("group_id").Where("user_id = ?", userID)).
		Find(&groups).Error
	return groups, err
}

// Detail returns the group and its memberships.
func (svc *Service) Detail(ctx context.Context, groupID int64) (*model.Group, []model.Membership, error) {
	var g model.Group
	if err := svc.db.WithContext(ctx).First(&g, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	var members []model.Membership
	if err := svc.db.WithContext(ctx).Where("group_id = ?", groupID).Find(&members).Error; err != nil {
		return nil, nil, err
	}
	return &g, members, nil
}

// ListPosts returns the group's posts, newest first.
func (svc *Service) ListPosts(ctx context.Context, groupID int64, limit int) ([]model.Post, error) {
	if limit <= 0 {
		limit = 50
	}
	var posts []model.Post
	err := svc.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// ListMedia returns the group's media items, newest first.
func (svc *Service) ListMedia(ctx context.Context, groupID int64, limit int) ([]model.MediaItem, error) {
	if limit <= 0 {
		limit = 50
	}
	var items []model.MediaItem
	err := svc.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// ---- helpers ----

// countAdminsLocked reads the group's Administrator memberships with a row
// lock so two transactions demoting or deleting different admins serialize
// instead of both passing the floor check on a stale snapshot. SQLite has no
// row locks; its single writer gives the same guarantee.
func countAdminsLocked(tx *gorm.DB, groupID int64) (int, error) {
	var admins []model.Membership
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("group_id = ? AND role = ?", groupID, model.RoleAdministrator).
		Find(&admins).Error
	if err != nil {
		return 0, err
	}
	return len(admins), nil
}

func bumpCounter(tx *gorm.DB, mediaID int64, kind string, delta int) error {
	col := model.CounterColumn(kind)
	return tx.Model(&model.MediaItem{}).
		Where("id = ?", mediaID).
		UpdateColumn(col, gorm.Expr(col+" + ?", delta)).Error
}

// requireRole checks membership and (at most) the required role level.
// Role values order Administrator < Moderator < Member, so "at least
// moderator" means role <= RoleModerator.
func requireRole(tx *gorm.DB, groupID, userID int64, atMost model.Role) error {
	var m model.Membership
	if err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrForbidden
		}
		return err
	}
	if m.Role > atMost {
		return ErrForbidden
	}
	return nil
}

func (svc *Service) requireGroup(ctx context.Context, groupID int64) error {
	var g model.Group
	if err := svc.db.WithContext(ctx).Select("id").First(&g, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (svc *Service) requireMembership(ctx context.Context, groupID, userID int64) error {
	return requireRole(svc.db.WithContext(ctx), groupID, userID, model.RoleMember)
}

func (svc *Service) publish(ctx context.Context, groupID int64, event string, objectID, actorID int64) {
	if svc.pubsub == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"event":     event,
		"object_id": objectID,
		"actor_id":  actorID,
	})
	channel := fmt.Sprintf("group:%d", groupID)
	if err := svc.pubsub.Publish(ctx, channel, string(payload)); err != nil {
		svc.logger.Warn("group event publish failed",
			zap.String("channel", channel), zap.Error(err))
	}
}
