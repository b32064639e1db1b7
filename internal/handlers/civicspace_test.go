package handlers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/civicsync/civicsync-backend/internal/models"
)

func TestParsePaging(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/civic-space", nil)
	limit, offset := parsePaging(r)
	assert.Equal(t, defaultFeedLimit, limit)
	assert.Equal(t, 0, offset)

	r = httptest.NewRequest("GET", "/api/civic-space?limit=5&offset=10", nil)
	limit, offset = parsePaging(r)
	assert.Equal(t, 5, limit)
	assert.Equal(t, 10, offset)

	// Oversized and negative values are clamped
	r = httptest.NewRequest("GET", "/api/civic-space?limit=9999&offset=-3", nil)
	limit, offset = parsePaging(r)
	assert.Equal(t, maxFeedLimit, limit)
	assert.Equal(t, 0, offset)
}

func TestPageFeed(t *testing.T) {
	items := make([]models.FeedItem, 5)
	for i := range items {
		items[i] = models.FeedItem{ID: uuid.New(), CreatedAt: time.Now()}
	}

	page := pageFeed(items, 2, 0)
	assert.Len(t, page, 2)
	assert.Equal(t, items[0].ID, page[0].ID)

	page = pageFeed(items, 2, 4)
	assert.Len(t, page, 1)
	assert.Equal(t, items[4].ID, page[0].ID)

	assert.Empty(t, pageFeed(items, 2, 5))
	assert.Empty(t, pageFeed(items, 2, 100))
}

func TestParseTarget(t *testing.T) {
	id := uuid.New()

	target, aerr := parseTarget("issue", id.String())
	assert.Nil(t, aerr)
	assert.Equal(t, models.TargetIssue, target.Kind)
	assert.Equal(t, id, target.ID)

	_, aerr = parseTarget("comment", id.String())
	assert.NotNil(t, aerr)

	_, aerr = parseTarget("issue", "not-a-uuid")
	assert.NotNil(t, aerr)
}
