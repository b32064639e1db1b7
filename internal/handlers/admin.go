package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/civicsync/civicsync-backend/internal/apperr"
	"github.com/civicsync/civicsync-backend/internal/database"
	"github.com/civicsync/civicsync-backend/internal/models"
	"github.com/civicsync/civicsync-backend/internal/services"
)

// AssignCountiesRequest is the full replacement set for the calling admin.
type AssignCountiesRequest struct {
	Counties []string `json:"counties"`
}

// AssignCountiesResponse echoes the set that is now in effect.
type AssignCountiesResponse struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message,omitempty"`
	Counties []string `json:"counties"`
}

// AssignCounties replaces the calling admin's county set atomically. A county
// held by another admin fails the whole request and reports who holds it.
func AssignCounties(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	var req AssignCountiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}

	counties, aerr := services.AssignCounties(r.Context(), locationStore, admin.ID, req.Counties)
	if aerr != nil {
		writeError(w, aerr)
		return
	}

	services.RecordAudit(admin.ID, services.AuditAssignCounties, "", map[string]interface{}{
		"counties": counties,
	})

	writeJSON(w, http.StatusOK, AssignCountiesResponse{
		Success:  true,
		Message:  "Counties assigned",
		Counties: counties,
	})
}

// GetMyCounties returns the counties the calling admin manages.
func GetMyCounties(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	counties, err := locationStore.CountiesFor(r.Context(), admin.ID)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if counties == nil {
		counties = []string{}
	}

	writeJSON(w, http.StatusOK, AssignCountiesResponse{Success: true, Counties: counties})
}

// BanUserRequest describes a ban. A zero DurationHours means permanent.
type BanUserRequest struct {
	UserID        string `json:"user_id"`
	Reason        string `json:"reason"`
	DurationHours int    `json:"duration_hours"`
}

// BanUser bans an account, kills its active sessions and notifies the user by
// email. Admins cannot ban other admins.
func BanUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	var req BanUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid user ID"))
		return
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		writeError(w, apperr.New(apperr.Validation, "A ban reason is required"))
		return
	}
	if req.DurationHours < 0 {
		writeError(w, apperr.New(apperr.Validation, "duration_hours cannot be negative"))
		return
	}

	user, err := services.GetUserByID(r.Context(), userID)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if user == nil {
		writeError(w, apperr.New(apperr.NotFound, "User not found"))
		return
	}
	if user.Role == models.RoleAdmin {
		writeError(w, apperr.New(apperr.Forbidden, "Admins cannot be banned"))
		return
	}

	var until *time.Time
	if req.DurationHours > 0 {
		t := timeNow().Add(time.Duration(req.DurationHours) * time.Hour)
		until = &t
	}

	_, err = database.PostgresDB.ExecContext(r.Context(), `
		UPDATE users
		SET banned = TRUE, banned_until = $1, ban_reason = $2, banned_by = $3, banned_at = NOW(), updated_at = NOW()
		WHERE id = $4
	`, until, req.Reason, admin.ID, userID)
	if err != nil {
		writeInternal(w, err)
		return
	}

	// A banned user must not keep riding an existing session
	if err := services.InvalidateUserSessions(userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("session invalidation failed")
	}

	services.RecordAudit(admin.ID, services.AuditBanUser, userID.String(), map[string]interface{}{
		"reason":         req.Reason,
		"duration_hours": req.DurationHours,
	})

	scope := "permanently"
	if until != nil {
		scope = "until " + until.Format(time.RFC1123)
	}
	services.Notify(notifier, user.Email, "Your CivicSync account has been suspended",
		"Your account has been suspended "+scope+".\n\nReason: "+req.Reason)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "User banned",
	})
}

// UnbanUser lifts a ban early.
func UnbanUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid user ID"))
		return
	}

	user, err := services.GetUserByID(r.Context(), userID)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if user == nil {
		writeError(w, apperr.New(apperr.NotFound, "User not found"))
		return
	}
	if !user.Banned {
		writeError(w, apperr.New(apperr.Validation, "User is not banned"))
		return
	}

	_, err = database.PostgresDB.ExecContext(r.Context(), `
		UPDATE users
		SET banned = FALSE, banned_until = NULL, ban_reason = NULL, banned_by = NULL, banned_at = NULL, updated_at = NOW()
		WHERE id = $1
	`, userID)
	if err != nil {
		writeInternal(w, err)
		return
	}

	services.RecordAudit(admin.ID, services.AuditUnbanUser, userID.String(), nil)

	services.Notify(notifier, user.Email, "Your CivicSync account has been restored",
		"The suspension on your account has been lifted. You can sign in again.")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "User unbanned",
	})
}

// AdminUserEntry is the listing projection of a user for the admin panel.
type AdminUserEntry struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	County      string     `json:"county,omitempty"`
	Banned      bool       `json:"banned"`
	BannedUntil *time.Time `json:"banned_until,omitempty"`
	BanReason   string     `json:"ban_reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ListUsers pages through accounts for the admin panel, newest first. An
// optional county query parameter filters by profile county.
func ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	county := strings.TrimSpace(r.URL.Query().Get("county"))
	if county != "" && !models.ValidCounty(county) {
		writeError(w, apperr.New(apperr.Validation, "Unknown county: "+county))
		return
	}

	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}

	rows, err := database.PostgresDB.QueryContext(r.Context(), `
		SELECT u.id, u.name, u.email, u.role, COALESCE(p.county, ''),
			u.banned, u.banned_until, COALESCE(u.ban_reason, ''), u.created_at
		FROM users u
		LEFT JOIN user_profiles p ON p.user_id = u.id
		WHERE $1 = '' OR p.county = $1
		ORDER BY u.created_at DESC
		LIMIT $2 OFFSET $3
	`, county, limit, offset)
	if err != nil {
		writeInternal(w, err)
		return
	}
	defer rows.Close()

	users := []AdminUserEntry{}
	for rows.Next() {
		var u AdminUserEntry
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.County,
			&u.Banned, &u.BannedUntil, &u.BanReason, &u.CreatedAt); err != nil {
			writeInternal(w, err)
			return
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		writeInternal(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"users":   users,
	})
}

// GetAuditLog returns the latest admin actions, newest first.
func GetAuditLog(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	limit := int64(100)
	if v, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil && v > 0 {
		limit = v
	}

	events, err := services.RecentAuditEvents(r.Context(), limit)
	if err != nil {
		writeInternal(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"events":  events,
	})
}
