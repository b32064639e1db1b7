package services

import (
	"github.com/google/uuid"

	"github.com/civicsync/civicsync-backend/internal/apperr"
	"github.com/civicsync/civicsync-backend/internal/models"
)

// Principal is the authenticated (or anonymous) caller every core operation
// receives. Identity is established by the session layer; the core trusts it
// unconditionally and never re-derives it. For admins, Counties holds the
// counties they manage, loaded once at authentication time.
type Principal struct {
	Authenticated bool
	ID            uuid.UUID
	Role          string
	Counties      []string
}

// Anonymous is the principal for unauthenticated requests.
func Anonymous() Principal { return Principal{} }

// IsAdmin reports whether the principal is an authenticated admin.
func (p Principal) IsAdmin() bool {
	return p.Authenticated && p.Role == models.RoleAdmin
}

// ManagesCounty reports whether the principal is an admin assigned to county.
func (p Principal) ManagesCounty(county string) bool {
	if !p.IsAdmin() {
		return false
	}
	for _, c := range p.Counties {
		if c == county {
			return true
		}
	}
	return false
}

// ContentRef is the access-control projection of an issue or suggestion.
type ContentRef struct {
	OwnerID  uuid.UUID
	County   string
	IsPublic bool
}

// CanView decides read access. Public content is readable by anyone,
// anonymous included. Private content is readable only by its owner or an
// admin managing its county; everyone else gets FORBIDDEN, anonymous callers
// UNAUTHORIZED.
func CanView(p Principal, c ContentRef) *apperr.Error {
	if c.IsPublic {
		return nil
	}
	if !p.Authenticated {
		return apperr.New(apperr.Unauthorized, "Sign in to view this item")
	}
	if p.ID == c.OwnerID || p.ManagesCounty(c.County) {
		return nil
	}
	return apperr.New(apperr.Forbidden, "You do not have access to this item")
}

// CanModify decides write and status-transition access: owner or
// admin-of-county, regardless of the public flag.
func CanModify(p Principal, c ContentRef) *apperr.Error {
	if !p.Authenticated {
		return apperr.New(apperr.Unauthorized, "Sign in to modify this item")
	}
	if p.ID == c.OwnerID || p.ManagesCounty(c.County) {
		return nil
	}
	return apperr.New(apperr.Forbidden, "You do not have access to this item")
}

// CountsView reports whether a successful read of the item should bump its
// view counter. Only public reads count; owner/admin reads of private items
// never do. Increments are intentionally non-idempotent: repeated reads keep
// counting. That is an engagement metric, not a uniqueness guarantee.
func CountsView(c ContentRef) bool {
	return c.IsPublic
}
