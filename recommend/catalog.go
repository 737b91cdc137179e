package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Catalog provides external game metadata. Implementations must tolerate
// being called concurrently; callers tolerate failures by skipping the
// game.
type Catalog interface {
	GameGenres(ctx context.Context, gameID int64) ([]string, error)
	GameRating(ctx context.Context, gameID int64) (float64, error)
	// GameReleaseDate returns the zero time when the release date is
	// unknown or unparsable.
	GameReleaseDate(ctx context.Context, gameID int64) (time.Time, error)
}

// HTTPCatalogConfig configures the HTTP catalog client.
type HTTPCatalogConfig struct {
	BaseURL        string
	Timeout        time.Duration
	CacheSize      int
	BreakerMaxFail uint32
	BreakerCooloff time.Duration
}

type gameRecord struct {
	ID          int64    `json:"id"`
	Genres      []string `json:"genres"`
	Rating      float64  `json:"rating"`
	ReleaseDate string   `json:"release_date"` // YYYY-MM-DD, may be empty
}

// HTTPCatalog fetches game metadata from the external catalog API. Lookups
// go through an LRU cache; the wire call sits behind a circuit breaker so a
// dead catalog fails fast instead of stalling every profile build.
type HTTPCatalog struct {
	baseURL string
	client  *http.Client
	cache   *lru.Cache[int64, *gameRecord]
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewHTTPCatalog creates an HTTPCatalog.
func NewHTTPCatalog(cfg HTTPCatalogConfig, logger *zap.Logger) (*HTTPCatalog, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = 4096
	}
	c, err := lru.New[int64, *gameRecord](size)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	maxFail := cfg.BreakerMaxFail
	if maxFail == 0 {
		maxFail = 5
	}
	cooloff := cfg.BreakerCooloff
	if cooloff <= 0 {
		cooloff = 30 * time.Second
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "catalog",
		Timeout: cooloff,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFail
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("catalog breaker state change",
				zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	return &HTTPCatalog{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		cache:   c,
		breaker: breaker,
		logger:  logger,
	}, nil
}

func (h *HTTPCatalog) fetch(ctx context.Context, gameID int64) (*gameRecord, error) {
	if rec, ok := h.cache.Get(gameID); ok {
		return rec, nil
	}

	v, err := h.breaker.Execute(func() (interface{}, error) {
		url := fmt.Sprintf("%s/games/%d", h.baseURL, gameID)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := h.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("catalog: game %d: status %d", gameID, resp.StatusCode)
		}
		rec := &gameRecord{}
		if err := json.NewDecoder(resp.Body).Decode(rec); err != nil {
			return nil, err
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	rec := v.(*gameRecord)
	h.cache.Add(gameID, rec)
	return rec, nil
}

func (h *HTTPCatalog) GameGenres(ctx context.Context, gameID int64) ([]string, error) {
	rec, err := h.fetch(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return rec.Genres, nil
}

func (h *HTTPCatalog) GameRating(ctx context.Context, gameID int64) (float64, error) {
	rec, err := h.fetch(ctx, gameID)
	if err != nil {
		return 0, err
	}
	return rec.Rating, nil
}

func (h *HTTPCatalog) GameReleaseDate(ctx context.Context, gameID int64) (time.Time, error) {
	rec, err := h.fetch(ctx, gameID)
	if err != nil {
		return time.Time{}, err
	}
	if rec.ReleaseDate == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", rec.ReleaseDate)
	if err != nil {
		// Unparsable dates contribute no recency bonus; not an error.
		return time.Time{}, nil
	}
	return t, nil
}
