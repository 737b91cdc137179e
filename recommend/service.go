package recommend

import (
	"context"
	"sync"
	"time"

	"github.com/ayakura/gamehub/server/model"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultRecommendLimit = 12
const defaultSimilarLimit = 4

// Service builds taste profiles from user libraries and ranks candidate
// games. Catalog failures never propagate: a partial or empty profile is
// acceptable and the caller falls back to rating/recency ordering.
type Service struct {
	db            *gorm.DB
	catalog       Catalog
	pool          *ants.Pool
	logger        *zap.Logger
	limit         int
	lookupTimeout time.Duration
}

// ServiceConfig configures the recommendation Service.
type ServiceConfig struct {
	Workers       int
	DefaultLimit  int
	LookupTimeout time.Duration
}

// NewService creates a Service with its catalog-fetch worker pool.
func NewService(db *gorm.DB, catalog Catalog, cfg ServiceConfig, logger *zap.Logger) (*Service, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 8
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	limit := cfg.DefaultLimit
	if limit <= 0 {
		limit = defaultRecommendLimit
	}
	timeout := cfg.LookupTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{
		db:            db,
		catalog:       catalog,
		pool:          pool,
		logger:        logger,
		limit:         limit,
		lookupTimeout: timeout,
	}, nil
}

// Close releases the worker pool.
func (svc *Service) Close() {
	svc.pool.Release()
}

// BuildProfile scans the user's library and accumulates a genre histogram
// plus the set of rated games. Individual catalog failures are logged and
// skipped; ctx cancellation stops scheduling further lookups and returns
// whatever was accumulated so far.
func (svc *Service) BuildProfile(ctx context.Context, userID int64) *Profile {
	profile := NewProfile()

	var entries []model.LibraryEntry
	if err := svc.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&entries).Error; err != nil {
		svc.logger.Warn("profile: library scan failed",
			zap.Int64("user", userID), zap.Error(err))
		return profile
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		if e.Rating > 0 {
			profile.Rated[e.GameID] = true
		}

		entry := e
		wg.Add(1)
		task := func() {
			defer wg.Done()
			lookupCtx, cancel := context.WithTimeout(ctx, svc.lookupTimeout)
			defer cancel()
			genres, err := svc.catalog.GameGenres(lookupCtx, entry.GameID)
			if err != nil {
				svc.logger.Debug("profile: genre lookup skipped",
					zap.Int64("game", entry.GameID), zap.Error(err))
				return
			}
			mu.Lock()
			for _, g := range genres {
				profile.Histogram[g]++
			}
			mu.Unlock()
		}
		if err := svc.pool.Submit(task); err != nil {
			// Pool rejected (released or saturated beyond blocking); run inline.
			task()
		}
	}
	wg.Wait()
	return profile
}

// Recommend scores candidates against the user's profile and returns the
// top results. It never fails: on any degradation it ranks with whatever
// profile could be built, which reduces to rating/recency ordering when the
// histogram is empty.
func (svc *Service) Recommend(ctx context.Context, userID int64, candidates []Game, limit int) []Scored {
	if len(candidates) == 0 {
		return []Scored{}
	}
	if limit <= 0 {
		limit = svc.limit
	}
	profile := svc.BuildProfile(ctx, userID)
	return Rank(candidates, profile, limit, time.Now())
}

// SimilarGames ranks candidates by similarity to the given game. If the
// base game's metadata cannot be fetched, it returns an empty list.
func (svc *Service) SimilarGames(ctx context.Context, gameID int64, candidates []Game, limit int) []Scored {
	if limit <= 0 {
		limit = defaultSimilarLimit
	}
	lookupCtx, cancel := context.WithTimeout(ctx, svc.lookupTimeout)
	defer cancel()

	genres, err := svc.catalog.GameGenres(lookupCtx, gameID)
	if err != nil {
		svc.logger.Debug("similar: base genre lookup failed",
			zap.Int64("game", gameID), zap.Error(err))
		return []Scored{}
	}
	rating, err := svc.catalog.GameRating(lookupCtx, gameID)
	if err != nil {
		svc.logger.Debug("similar: base rating lookup failed",
			zap.Int64("game", gameID), zap.Error(err))
		return []Scored{}
	}
	base := Game{ID: gameID, Genres: genres, Rating: rating}
	return RankSimilar(base, candidates, limit)
}

// GameFor assembles a scorer Game from catalog metadata. Partial failures
// leave fields zero rather than failing the call.
func (svc *Service) GameFor(ctx context.Context, gameID int64) Game {
	lookupCtx, cancel := context.WithTimeout(ctx, svc.lookupTimeout)
	defer cancel()

	g := Game{ID: gameID}
	if genres, err := svc.catalog.GameGenres(lookupCtx, gameID); err == nil {
		g.Genres = genres
	}
	if rating, err := svc.catalog.GameRating(lookupCtx, gameID); err == nil {
		g.Rating = rating
	}
	if release, err := svc.catalog.GameReleaseDate(lookupCtx, gameID); err == nil {
		g.ReleaseDate = release
	}
	return g
}
