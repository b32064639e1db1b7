package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // never returned in JSON
	Role         string `json:"role"`

	Banned      bool       `json:"banned"`
	BannedUntil *time.Time `json:"banned_until,omitempty"` // nil while banned = permanent
	BanReason   string     `json:"ban_reason,omitempty"`
	BannedBy    *uuid.UUID `json:"banned_by,omitempty"`
	BannedAt    *time.Time `json:"banned_at,omitempty"`

	Theme           string     `json:"theme"`
	TermsVersion    string     `json:"terms_version,omitempty"`
	TermsAcceptedAt *time.Time `json:"terms_accepted_at,omitempty"`
}

// BanActive reports whether the user is currently banned. A nil BannedUntil
// on a banned user means the ban is permanent.
func (u *User) BanActive(now time.Time) bool {
	if !u.Banned {
		return false
	}
	if u.BannedUntil == nil {
		return true
	}
	return now.Before(*u.BannedUntil)
}

type UserProfile struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FullName    string     `json:"full_name,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Address     string     `json:"address,omitempty"`
	PPSNumber   string     `json:"pps_number,omitempty"`
	Interests   []string   `json:"interests,omitempty"`
	County      string     `json:"county,omitempty"`
}

// Complete reports whether all required profile fields are set. Once a profile
// is complete, the owner can only change address, interests and county; the
// identity fields are locked and editable by admins only.
func (p *UserProfile) Complete() bool {
	return p.FullName != "" && p.DateOfBirth != nil && p.Address != "" &&
		p.PPSNumber != "" && p.County != ""
}
