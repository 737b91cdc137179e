package recommend

import (
	"sort"
	"time"
)

// Scoring weights. The genre term dominates, rating second, recency a
// tie-breaker.
const (
	weightGenre   = 0.6
	weightRating  = 0.3
	weightRecency = 0.1

	// Each owned game of a genre contributes 0.2 affinity, capped at 1.0
	// per matched genre.
	genreStep = 0.2

	// Recency decays 0.15 per year since release.
	recencyDecayPerYear = 0.15

	scoreFloor      = 0.1
	similarityFloor = 0.3

	ratingScale = 5.0

	hoursPerYear = 24 * 365.25
)

// Game is the scorer's view of a candidate game.
type Game struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Genres      []string  `json:"genres"`
	Rating      float64   `json:"rating"`
	ReleaseDate time.Time `json:"release_date"` // zero when unknown
}

// Profile is a user's derived taste profile. It is never persisted.
type Profile struct {
	// Histogram counts owned games per genre.
	Histogram map[string]int
	// Rated holds the IDs of games the user has rated above zero.
	Rated map[int64]bool
}

// NewProfile returns an empty profile.
func NewProfile() *Profile {
	return &Profile{
		Histogram: make(map[string]int),
		Rated:     make(map[int64]bool),
	}
}

// Scored pairs a candidate with its score.
type Scored struct {
	Game  Game    `json:"game"`
	Score float64 `json:"score"`
}

// Score computes the personalized score of game against profile:
// 0.6·genreAffinity + 0.3·rating/5 + 0.1·recency. Ratings are taken as-is
// on a 0–5 scale; out-of-range values are not clamped.
func Score(game Game, profile *Profile, now time.Time) float64 {
	return weightGenre*genreAffinity(game.Genres, profile) +
		weightRating*(game.Rating/ratingScale) +
		weightRecency*recencyBonus(game.ReleaseDate, now)
}

// genreAffinity sums min(histogram[genre]·0.2, 1.0) over the game's genres.
// Each matched genre's term saturates individually; the sum across genres
// does not.
func genreAffinity(genres []string, profile *Profile) float64 {
	if profile == nil || len(profile.Histogram) == 0 {
		return 0
	}
	var affinity float64
	for _, g := range genres {
		count, ok := profile.Histogram[g]
		if !ok || count <= 0 {
			continue
		}
		term := float64(count) * genreStep
		if term > 1.0 {
			term = 1.0
		}
		affinity += term
	}
	return affinity
}

// recencyBonus is max(0, 1 − years·0.15); unknown release dates get 0.
func recencyBonus(release time.Time, now time.Time) float64 {
	if release.IsZero() {
		return 0
	}
	years := now.Sub(release).Hours() / hoursPerYear
	if years < 0 {
		years = 0
	}
	bonus := 1.0 - years*recencyDecayPerYear
	if bonus < 0 {
		return 0
	}
	return bonus
}

// Rank scores every candidate against profile, drops scores at or below
// 0.1, sorts descending (stable, so ties keep input order) and truncates to
// limit.
func Rank(candidates []Game, profile *Profile, limit int, now time.Time) []Scored {
	scored := make([]Scored, 0, len(candidates))
	for _, g := range candidates {
		s := Score(g, profile, now)
		if s > scoreFloor {
			scored = append(scored, Scored{Game: g, Score: s})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// Similarity measures how alike two games are:
// 0.7·Jaccard(genres) + 0.3·(1 − |ratingA−ratingB|/5).
func Similarity(a, b Game) float64 {
	diff := a.Rating - b.Rating
	if diff < 0 {
		diff = -diff
	}
	return 0.7*jaccard(a.Genres, b.Genres) + 0.3*(1.0-diff/ratingScale)
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(a))
	for _, g := range a {
		setA[g] = true
	}
	// Catalog payloads may repeat a genre; count each tag once.
	setB := make(map[string]bool, len(b))
	for _, g := range b {
		setB[g] = true
	}
	union := make(map[string]bool, len(setA)+len(setB))
	for g := range setA {
		union[g] = true
	}
	var inter int
	for g := range setB {
		if setA[g] {
			inter++
		}
		union[g] = true
	}
	if len(union) == 0 {
		return 0
	}
	return float64(inter) / float64(len(union))
}

// RankSimilar scores candidates by similarity to base, keeps similarity
// above 0.3, sorts descending (stable) and truncates to limit.
func RankSimilar(base Game, candidates []Game, limit int) []Scored {
	scored := make([]Scored, 0, len(candidates))
	for _, g := range candidates {
		if g.ID == base.ID {
			continue
		}
		s := Similarity(base, g)
		if s > similarityFloor {
			scored = append(scored, Scored{Game: g, Score: s})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
