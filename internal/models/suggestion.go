package models

import (
	"time"

	"github.com/google/uuid"
)

// SuggestionCategory enum
type SuggestionCategory string

const (
	SuggestionInfrastructure SuggestionCategory = "Infrastructure"
	SuggestionEnvironment    SuggestionCategory = "Environment"
	SuggestionTransport      SuggestionCategory = "Transport"
	SuggestionCommunity      SuggestionCategory = "Community"
	SuggestionOther          SuggestionCategory = "Other"
)

var suggestionCategories = map[SuggestionCategory]struct{}{
	SuggestionInfrastructure: {},
	SuggestionEnvironment:    {},
	SuggestionTransport:      {},
	SuggestionCommunity:      {},
	SuggestionOther:          {},
}

// ValidSuggestionCategory reports whether c is a known suggestion category.
func ValidSuggestionCategory(c SuggestionCategory) bool {
	_, ok := suggestionCategories[c]
	return ok
}

// Suggestion statuses
const (
	SuggestionStatusSubmitted   = "submitted"
	SuggestionStatusUnderReview = "under_review"
	SuggestionStatusApproved    = "approved"
	SuggestionStatusImplemented = "implemented"
	SuggestionStatusRejected    = "rejected"
)

var suggestionStatuses = map[string]struct{}{
	SuggestionStatusSubmitted:   {},
	SuggestionStatusUnderReview: {},
	SuggestionStatusApproved:    {},
	SuggestionStatusImplemented: {},
	SuggestionStatusRejected:    {},
}

// ValidSuggestionStatus reports whether s is a known suggestion status.
func ValidSuggestionStatus(s string) bool {
	_, ok := suggestionStatuses[s]
	return ok
}

// Suggestion represents a civic improvement proposal. Structurally close to
// Issue but with its own status vocabulary and no geolocation, and no delete
// path at all.
type Suggestion struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID      uuid.UUID          `json:"user_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Category    SuggestionCategory `json:"category"`
	Status      string             `json:"status"`
	County      string             `json:"county"`
	CaseID      string             `json:"case_id"`
	IsPublic    bool               `json:"is_public"`
	ViewCount   int                `json:"view_count"`

	AdminNote     string     `json:"admin_note,omitempty"`
	AdminActionBy *uuid.UUID `json:"admin_action_by,omitempty"`
	AdminActionAt *time.Time `json:"admin_action_at,omitempty"`

	Images []ContentImage `json:"images,omitempty"`
}
