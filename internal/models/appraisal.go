package models

import (
	"time"

	"github.com/google/uuid"
)

// Appraisal target kinds
const (
	TargetIssue      = "issue"
	TargetSuggestion = "suggestion"
)

// Appraisal is a like: binary membership per (user, target). Exactly one of
// IssueID/SuggestionID is set.
type Appraisal struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	IssueID      *uuid.UUID `json:"issue_id,omitempty"`
	SuggestionID *uuid.UUID `json:"suggestion_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// FeedItem is the listing projection shared by the civic-space surfaces.
// Issues and suggestions are flattened into one shape so they can be ranked
// and paginated together.
type FeedItem struct {
	Kind           string    `json:"kind"` // issue | suggestion
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	Status         string    `json:"status"`
	County         string    `json:"county"`
	CaseID         string    `json:"case_id"`
	CreatedAt      time.Time `json:"created_at"`
	ViewCount      int       `json:"view_count"`
	AppraisalCount int       `json:"appraisal_count"`
	Trending       bool      `json:"is_trending"`
	TrendingScore  float64   `json:"trending_score"`
}
