package stats

import (
	"context"
	"strconv"
	"time"

	"github.com/ayakura/gamehub/server/cache"
	"github.com/ayakura/gamehub/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	topGroupsZKey    = "stats:groups:members"
	topGroupsLockKey = "stats:groups:refresh_lock"

	// An in-flight refresh that dies keeps the lock at most this long.
	refreshLockTTL = 30 * time.Second
)

// UserStats is the per-user dashboard read-model.
type UserStats struct {
	UserID            int64 `json:"user_id"`
	FriendCount       int64 `json:"friend_count"`
	PendingIncoming   int64 `json:"pending_incoming"`
	GroupCount        int64 `json:"group_count"`
	PostCount         int64 `json:"post_count"`
	ReactionsReceived int64 `json:"reactions_received"`
}

// GroupRank is one leaderboard row.
type GroupRank struct {
	Rank        int    `json:"rank"`
	GroupID     int64  `json:"group_id"`
	Name        string `json:"name"`
	MemberCount int64  `json:"member_count"`
}

// Service derives counts and leaderboards from the social and group
// tables. It is a read-model only; it never writes domain rows.
type Service struct {
	db     *gorm.DB
	cache  cache.Cache
	logger *zap.Logger
}

// NewService creates a stats Service.
func NewService(db *gorm.DB, c cache.Cache, logger *zap.Logger) *Service {
	return &Service{db: db, cache: c, logger: logger}
}

// PerUser computes the dashboard counters for one user.
func (svc *Service) PerUser(ctx context.Context, userID int64) (*UserStats, error) {
	gdb := svc.db.WithContext(ctx)
	s := &UserStats{UserID: userID}

	if err := gdb.Model(&model.FriendLink{}).
		Where("requester_id = ? AND status = ?", userID, model.FriendAccepted).
		Count(&s.FriendCount).Error; err != nil {
		return nil, err
	}
	if err := gdb.Model(&model.FriendLink{}).
		Where("recipient_id = ? AND status = ?", userID, model.FriendPending).
		Count(&s.PendingIncoming).Error; err != nil {
		return nil, err
	}
	if err := gdb.Model(&model.Membership{}).
		Where("user_id = ?", userID).
		Count(&s.GroupCount).Error; err != nil {
		return nil, err
	}
	if err := gdb.Model(&model.Post{}).
		Where("author_id = ?", userID).
		Count(&s.PostCount).Error; err != nil {
		return nil, err
	}
	if err := gdb.Model(&model.Reaction{}).
		Where("media_id IN (?)",
			gdb.Session(&gorm.Session{NewDB: true}).Model(&model.MediaItem{}).
				Select("id").Where("author_id = ?", userID)).
		Count(&s.ReactionsReceived).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// TopGroups returns the largest groups by member count. It serves from the
// cached sorted set when populated and falls back to a DB aggregate,
// refreshing the cache on the way out.
func (svc *Service) TopGroups(ctx context.Context, limit int) ([]GroupRank, error) {
	if limit <= 0 {
		limit = 20
	}

	members, err := svc.cache.ZRevRange(ctx, topGroupsZKey, 0, int64(limit-1))
	if err == nil && len(members) > 0 {
		ranks := make([]GroupRank, 0, len(members))
		for i, m := range members {
			groupID, err := strconv.ParseInt(m, 10, 64)
			if err != nil {
				continue
			}
			score, _ := svc.cache.ZScore(ctx, topGroupsZKey, m)
			ranks = append(ranks, GroupRank{
				Rank:        i + 1,
				GroupID:     groupID,
				MemberCount: int64(score),
			})
		}
		svc.enrichNames(ctx, ranks)
		return ranks, nil
	}

	return svc.topGroupsFromDB(ctx, limit)
}

// RefreshTopGroups recomputes the leaderboard sorted set from the store.
// Wired as a periodic scheduler task. A shared cache lock keeps multiple
// server instances from recomputing the same aggregate at once.
func (svc *Service) RefreshTopGroups(ctx context.Context, limit int) {
	acquired, err := svc.cache.SetNX(ctx, topGroupsLockKey, "1", refreshLockTTL)
	if err != nil {
		svc.logger.Warn("stats: leaderboard refresh lock failed", zap.Error(err))
		return
	}
	if !acquired {
		return
	}
	defer func() { _ = svc.cache.Del(ctx, topGroupsLockKey) }()

	ranks, err := svc.topGroupsFromDB(ctx, limit)
	if err != nil {
		svc.logger.Warn("stats: leaderboard refresh failed", zap.Error(err))
		return
	}
	for _, r := range ranks {
		_ = svc.cache.ZAdd(ctx, topGroupsZKey, float64(r.MemberCount),
			strconv.FormatInt(r.GroupID, 10))
	}
}

type groupCountRow struct {
	GroupID int64
	Total   int64
}

func (svc *Service) topGroupsFromDB(ctx context.Context, limit int) ([]GroupRank, error) {
	var rows []groupCountRow
	err := svc.db.WithContext(ctx).Model(&model.Membership{}).
		Select("group_id, COUNT(*) AS total").
		Group("group_id").
		Order("total DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ranks := make([]GroupRank, len(rows))
	for i, row := range rows {
		ranks[i] = GroupRank{Rank: i + 1, GroupID: row.GroupID, MemberCount: row.Total}
		_ = svc.cache.ZAdd(ctx, topGroupsZKey, float64(row.Total),
			strconv.FormatInt(row.GroupID, 10))
	}
	svc.enrichNames(ctx, ranks)
	return ranks, nil
}

func (svc *Service) enrichNames(ctx context.Context, ranks []GroupRank) {
	if len(ranks) == 0 {
		return
	}
	ids := make([]int64, len(ranks))
	for i, r := range ranks {
		ids[i] = r.GroupID
	}
	var groups []model.Group
	if err := svc.db.WithContext(ctx).Select("id, name").
		Where("id IN ?", ids).Find(&groups).Error; err != nil {
		svc.logger.Warn("stats: name enrichment failed", zap.Error(err))
		return
	}
	names := make(map[int64]string, len(groups))
	for _, g := range groups {
		names[g.ID] = g.Name
	}
	for i := range ranks {
		ranks[i].Name = names[ranks[i].GroupID]
	}
}
