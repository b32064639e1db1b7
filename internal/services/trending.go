package services

import (
	"sort"
	"time"

	"github.com/civicsync/civicsync-backend/internal/models"
)

// Trending thresholds and weights. These are contractual constants shared by
// every listing surface; changing them changes the product.
const (
	trendingMinAppraisals  = 3
	trendingMinViews       = 10
	trendingComboLikes     = 2
	trendingComboViews     = 5
	trendingRecentWindow   = 7 * 24 * time.Hour
	appraisalWeight        = 2
	recencyFactorWeek      = 1.0
	recencyFactorMonth     = 0.5
	recencyFactorOlder     = 0.25
)

// Signals are the inputs the ranking is computed from.
type Signals struct {
	CreatedAt  time.Time
	Appraisals int
	Views      int
}

// Rank is the derived popularity/recency metric. It is never persisted.
type Rank struct {
	Trending bool
	Score    float64
}

// ScoreItem computes the trending flag and score for one item at instant now.
// Pure function: same inputs, same output.
func ScoreItem(sig Signals, now time.Time) Rank {
	daysSince := now.Sub(sig.CreatedAt).Hours() / 24
	isRecent := !sig.CreatedAt.Before(now.Add(-trendingRecentWindow))

	trending := sig.Appraisals >= trendingMinAppraisals ||
		sig.Views >= trendingMinViews ||
		(sig.Appraisals >= trendingComboLikes && sig.Views >= trendingComboViews) ||
		(sig.Appraisals >= trendingComboLikes && isRecent)

	factor := recencyFactorOlder
	switch {
	case daysSince <= 7:
		factor = recencyFactorWeek
	case daysSince <= 30:
		factor = recencyFactorMonth
	}

	score := float64(sig.Appraisals*appraisalWeight+sig.Views) * factor

	return Rank{Trending: trending, Score: score}
}

// Sort modes accepted by the listing endpoints.
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortMostLiked = "most_liked"
	SortTrending  = "trending"
)

// NormalizeSort maps an arbitrary sort parameter onto a supported mode,
// defaulting to newest.
func NormalizeSort(mode string) string {
	switch mode {
	case SortOldest, SortMostLiked, SortTrending:
		return mode
	default:
		return SortNewest
	}
}

// RankFeed fills in the Trending/TrendingScore fields of every item.
func RankFeed(items []models.FeedItem, now time.Time) {
	for i := range items {
		r := ScoreItem(Signals{
			CreatedAt:  items[i].CreatedAt,
			Appraisals: items[i].AppraisalCount,
			Views:      items[i].ViewCount,
		}, now)
		items[i].Trending = r.Trending
		items[i].TrendingScore = r.Score
	}
}

// SortFeed orders items in place according to mode:
//   - newest/oldest: created_at descending/ascending
//   - most_liked: appraisal count descending, ignoring trending status
//   - trending: trending items first, by score descending; everything else
//     (and score ties) by created_at descending
//
// RankFeed must have run first for the trending mode to mean anything.
func SortFeed(items []models.FeedItem, mode string) {
	switch NormalizeSort(mode) {
	case SortOldest:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		})
	case SortMostLiked:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].AppraisalCount > items[j].AppraisalCount
		})
	case SortTrending:
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i], items[j]
			if a.Trending != b.Trending {
				return a.Trending
			}
			if a.Trending && b.Trending && a.TrendingScore != b.TrendingScore {
				return a.TrendingScore > b.TrendingScore
			}
			return a.CreatedAt.After(b.CreatedAt)
		})
	default: // newest
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
	}
}

// TrendingOnly filters items down to those currently trending.
func TrendingOnly(items []models.FeedItem) []models.FeedItem {
	out := make([]models.FeedItem, 0, len(items))
	for _, it := range items {
		if it.Trending {
			out = append(out, it)
		}
	}
	return out
}
