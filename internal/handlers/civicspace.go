package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/civicsync/civicsync-backend/internal/apperr"
	"github.com/civicsync/civicsync-backend/internal/database"
	"github.com/civicsync/civicsync-backend/internal/models"
	"github.com/civicsync/civicsync-backend/internal/services"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

// FeedResponse is the shared listing envelope of the civic space surfaces.
type FeedResponse struct {
	Success bool              `json:"success"`
	Items   []models.FeedItem `json:"items"`
	Total   int               `json:"total"`
	Limit   int               `json:"limit"`
	Offset  int               `json:"offset"`
}

func parsePaging(r *http.Request) (limit, offset int) {
	limit = defaultFeedLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

// loadPublicFeed flattens public issues and suggestions into feed items, with
// appraisal counts resolved in the same query. county == "" means all
// counties. Ranking happens in memory afterwards; the trending score depends
// on "now" and is never persisted.
func loadPublicFeed(r *http.Request, county string) ([]models.FeedItem, error) {
	rows, err := database.PostgresDB.QueryContext(r.Context(), `
		SELECT 'issue', i.id, i.title, i.description, i.category, i.status,
			i.county, i.case_id, i.created_at, i.view_count,
			(SELECT COUNT(*) FROM appraisals a WHERE a.issue_id = i.id)
		FROM issues i
		WHERE i.is_public = TRUE AND ($1 = '' OR i.county = $1)
		UNION ALL
		SELECT 'suggestion', s.id, s.title, s.description, s.category, s.status,
			s.county, s.case_id, s.created_at, s.view_count,
			(SELECT COUNT(*) FROM appraisals a WHERE a.suggestion_id = s.id)
		FROM suggestions s
		WHERE s.is_public = TRUE AND ($1 = '' OR s.county = $1)
	`, county)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.FeedItem{}
	for rows.Next() {
		var it models.FeedItem
		if err := rows.Scan(
			&it.Kind, &it.ID, &it.Title, &it.Description, &it.Category, &it.Status,
			&it.County, &it.CaseID, &it.CreatedAt, &it.ViewCount, &it.AppraisalCount,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func pageFeed(items []models.FeedItem, limit, offset int) []models.FeedItem {
	if offset >= len(items) {
		return []models.FeedItem{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func serveFeed(w http.ResponseWriter, r *http.Request, county string) {
	items, err := loadPublicFeed(r, county)
	if err != nil {
		writeInternal(w, err)
		return
	}

	now := timeNow()
	services.RankFeed(items, now)
	services.SortFeed(items, r.URL.Query().Get("sort"))

	limit, offset := parsePaging(r)
	total := len(items)

	writeJSON(w, http.StatusOK, FeedResponse{
		Success: true,
		Items:   pageFeed(items, limit, offset),
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

// GetCivicSpace lists all public content across counties. No authentication
// required.
func GetCivicSpace(w http.ResponseWriter, r *http.Request) {
	serveFeed(w, r, "")
}

// GetCountyFeed lists public content for one county.
func GetCountyFeed(w http.ResponseWriter, r *http.Request) {
	county := strings.TrimSpace(chi.URLParam(r, "county"))
	if !models.ValidCounty(county) {
		writeError(w, apperr.New(apperr.Validation, "Unknown county: "+county))
		return
	}
	serveFeed(w, r, county)
}

// GetTrending lists only content currently meeting the trending thresholds,
// ordered by score. An optional county query parameter narrows the scope.
func GetTrending(w http.ResponseWriter, r *http.Request) {
	county := strings.TrimSpace(r.URL.Query().Get("county"))
	if county != "" && !models.ValidCounty(county) {
		writeError(w, apperr.New(apperr.Validation, "Unknown county: "+county))
		return
	}

	items, err := loadPublicFeed(r, county)
	if err != nil {
		writeInternal(w, err)
		return
	}

	now := timeNow()
	services.RankFeed(items, now)
	items = services.TrendingOnly(items)
	services.SortFeed(items, services.SortTrending)

	limit, offset := parsePaging(r)
	total := len(items)

	writeJSON(w, http.StatusOK, FeedResponse{
		Success: true,
		Items:   pageFeed(items, limit, offset),
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}
