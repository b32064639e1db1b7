package models

import (
	"time"

	"github.com/google/uuid"
)

// IssueCategory enum
type IssueCategory string

const (
	CategoryRoad        IssueCategory = "Road"
	CategoryWater       IssueCategory = "Water"
	CategorySanitation  IssueCategory = "Sanitation"
	CategoryElectricity IssueCategory = "Electricity"
	CategoryOther       IssueCategory = "Other"
)

var issueCategories = map[IssueCategory]struct{}{
	CategoryRoad:        {},
	CategoryWater:       {},
	CategorySanitation:  {},
	CategoryElectricity: {},
	CategoryOther:       {},
}

// ValidIssueCategory reports whether c is a known issue category.
func ValidIssueCategory(c IssueCategory) bool {
	_, ok := issueCategories[c]
	return ok
}

// Issue statuses. accepted/rejected are admin workflow states and require a
// non-empty admin note when set.
const (
	IssueStatusUnderReview = "under_review"
	IssueStatusInProgress  = "in_progress"
	IssueStatusResolved    = "resolved"
	IssueStatusClosed      = "closed"
	IssueStatusAccepted    = "accepted"
	IssueStatusRejected    = "rejected"
)

var issueStatuses = map[string]struct{}{
	IssueStatusUnderReview: {},
	IssueStatusInProgress:  {},
	IssueStatusResolved:    {},
	IssueStatusClosed:      {},
	IssueStatusAccepted:    {},
	IssueStatusRejected:    {},
}

// ValidIssueStatus reports whether s is a known issue status.
func ValidIssueStatus(s string) bool {
	_, ok := issueStatuses[s]
	return ok
}

// Issue represents a civic issue reported by a user. County is copied from the
// owner's profile at creation time and never changes afterwards.
type Issue struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID      uuid.UUID     `json:"user_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    IssueCategory `json:"category"`
	Status      string        `json:"status"`
	County      string        `json:"county"`
	CaseID      string        `json:"case_id"`
	IsPublic    bool          `json:"is_public"`
	Latitude    *float64      `json:"latitude,omitempty"`
	Longitude   *float64      `json:"longitude,omitempty"`
	ViewCount   int           `json:"view_count"`

	AdminNote     string     `json:"admin_note,omitempty"`
	AdminActionBy *uuid.UUID `json:"admin_action_by,omitempty"`
	AdminActionAt *time.Time `json:"admin_action_at,omitempty"`

	Images []ContentImage `json:"images,omitempty"`
}

// ContentImage is an image attached to an issue or suggestion.
type ContentImage struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	PublicID  string    `json:"public_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
