package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminMessage issue types
const (
	MessageTypeAccount    = "account"
	MessageTypeContent    = "content"
	MessageTypeTechnical  = "technical"
	MessageTypeComplaint  = "complaint"
	MessageTypeDataAccess = "data_access"
	MessageTypeOther      = "other"
)

var messageTypes = map[string]struct{}{
	MessageTypeAccount:    {},
	MessageTypeContent:    {},
	MessageTypeTechnical:  {},
	MessageTypeComplaint:  {},
	MessageTypeDataAccess: {},
	MessageTypeOther:      {},
}

// ValidMessageType reports whether t is a known admin-message issue type.
func ValidMessageType(t string) bool {
	_, ok := messageTypes[t]
	return ok
}

// AdminMessage statuses
const (
	MessageStatusPending    = "pending"
	MessageStatusInProgress = "in_progress"
	MessageStatusResolved   = "resolved"
	MessageStatusClosed     = "closed"
)

var messageStatuses = map[string]struct{}{
	MessageStatusPending:    {},
	MessageStatusInProgress: {},
	MessageStatusResolved:   {},
	MessageStatusClosed:     {},
}

// ValidMessageStatus reports whether s is a known admin-message status.
func ValidMessageStatus(s string) bool {
	_, ok := messageStatuses[s]
	return ok
}

// AdminMessage is a user-to-admin support ticket, routed at creation to
// whichever admin manages the sender's county. Messages resolved for over
// 48 hours are closed automatically.
type AdminMessage struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID        uuid.UUID  `json:"user_id"`
	AdminID       *uuid.UUID `json:"admin_id,omitempty"`
	County        string     `json:"county,omitempty"`
	IssueType     string     `json:"issue_type"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	AdminResponse string     `json:"admin_response,omitempty"`
	ViewedAt      *time.Time `json:"viewed_at,omitempty"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}
