package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicsync/civicsync-backend/internal/models"
)

func TestScoreItemFreshItem(t *testing.T) {
	now := time.Now()
	r := ScoreItem(Signals{CreatedAt: now, Appraisals: 0, Views: 0}, now)

	assert.False(t, r.Trending)
	assert.Equal(t, 0.0, r.Score)
}

func TestScoreItemLikesThreshold(t *testing.T) {
	now := time.Now()
	r := ScoreItem(Signals{CreatedAt: now.AddDate(0, 0, -2), Appraisals: 3, Views: 0}, now)

	assert.True(t, r.Trending)
	assert.Equal(t, 6.0, r.Score) // 3 likes * 2, full recency factor
}

func TestScoreItemViewsThreshold(t *testing.T) {
	now := time.Now()
	r := ScoreItem(Signals{CreatedAt: now.AddDate(0, 0, -40), Appraisals: 0, Views: 10}, now)

	assert.True(t, r.Trending)
	assert.Equal(t, 2.5, r.Score) // 10 views * 0.25 for an old item
}

func TestScoreItemComboThreshold(t *testing.T) {
	now := time.Now()
	r := ScoreItem(Signals{CreatedAt: now.AddDate(0, 0, -10), Appraisals: 2, Views: 5}, now)

	assert.True(t, r.Trending)
	assert.Equal(t, 4.5, r.Score) // (2*2 + 5) * 0.5
}

func TestScoreItemRecentWithTwoLikes(t *testing.T) {
	now := time.Now()

	// 2 likes and no views trends only while the item is under a week old
	recent := ScoreItem(Signals{CreatedAt: now.AddDate(0, 0, -6), Appraisals: 2}, now)
	assert.True(t, recent.Trending)

	old := ScoreItem(Signals{CreatedAt: now.AddDate(0, 0, -8), Appraisals: 2}, now)
	assert.False(t, old.Trending)
}

func TestScoreItemRecencyDecay(t *testing.T) {
	now := time.Now()
	sig := func(age time.Duration) Signals {
		return Signals{CreatedAt: now.Add(-age), Appraisals: 4, Views: 2}
	}

	week := ScoreItem(sig(3*24*time.Hour), now)
	month := ScoreItem(sig(20*24*time.Hour), now)
	older := ScoreItem(sig(60*24*time.Hour), now)

	assert.Equal(t, 10.0, week.Score)
	assert.Equal(t, 5.0, month.Score)
	assert.Equal(t, 2.5, older.Score)
}

func TestScoreItemMonotonicInLikes(t *testing.T) {
	now := time.Now()
	created := now.AddDate(0, 0, -1)

	prev := -1.0
	for likes := 0; likes <= 10; likes++ {
		r := ScoreItem(Signals{CreatedAt: created, Appraisals: likes, Views: 3}, now)
		require.Greater(t, r.Score, prev)
		prev = r.Score
	}
}

func TestNormalizeSort(t *testing.T) {
	assert.Equal(t, SortNewest, NormalizeSort(""))
	assert.Equal(t, SortNewest, NormalizeSort("bogus"))
	assert.Equal(t, SortOldest, NormalizeSort("oldest"))
	assert.Equal(t, SortMostLiked, NormalizeSort("most_liked"))
	assert.Equal(t, SortTrending, NormalizeSort("trending"))
}

func feedItem(created time.Time, likes, views int) models.FeedItem {
	return models.FeedItem{
		Kind:           models.TargetIssue,
		ID:             uuid.New(),
		CreatedAt:      created,
		AppraisalCount: likes,
		ViewCount:      views,
	}
}

func TestSortFeedTrendingFirst(t *testing.T) {
	now := time.Now()
	quiet := feedItem(now.Add(-time.Hour), 0, 0)
	hot := feedItem(now.AddDate(0, 0, -2), 5, 20)
	warm := feedItem(now.AddDate(0, 0, -1), 3, 0)

	items := []models.FeedItem{quiet, warm, hot}
	RankFeed(items, now)
	SortFeed(items, SortTrending)

	require.Len(t, items, 3)
	assert.Equal(t, hot.ID, items[0].ID)
	assert.Equal(t, warm.ID, items[1].ID)
	assert.Equal(t, quiet.ID, items[2].ID)
	assert.True(t, items[0].TrendingScore > items[1].TrendingScore)
}

func TestSortFeedMostLikedIgnoresTrending(t *testing.T) {
	now := time.Now()
	liked := feedItem(now.AddDate(0, 0, -60), 7, 0)
	viral := feedItem(now.Add(-time.Hour), 2, 50)

	items := []models.FeedItem{viral, liked}
	RankFeed(items, now)
	SortFeed(items, SortMostLiked)

	assert.Equal(t, liked.ID, items[0].ID)
}

func TestSortFeedNewestOldest(t *testing.T) {
	now := time.Now()
	a := feedItem(now.Add(-3*time.Hour), 0, 0)
	b := feedItem(now.Add(-1*time.Hour), 0, 0)

	items := []models.FeedItem{a, b}
	SortFeed(items, SortNewest)
	assert.Equal(t, b.ID, items[0].ID)

	SortFeed(items, SortOldest)
	assert.Equal(t, a.ID, items[0].ID)
}

func TestTrendingOnly(t *testing.T) {
	now := time.Now()
	items := []models.FeedItem{
		feedItem(now, 0, 0),
		feedItem(now.AddDate(0, 0, -1), 4, 0),
	}
	RankFeed(items, now)

	trending := TrendingOnly(items)
	require.Len(t, trending, 1)
	assert.Equal(t, items[1].ID, trending[0].ID)
}
