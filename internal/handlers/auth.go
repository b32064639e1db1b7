package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/civicsync/civicsync-backend/internal/apperr"
	"github.com/civicsync/civicsync-backend/internal/database"
	"github.com/civicsync/civicsync-backend/internal/models"
	"github.com/civicsync/civicsync-backend/internal/services"
	"github.com/civicsync/civicsync-backend/pkg/utils"
)

// SignupRequest represents the request to register a new account
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SigninRequest represents the request to sign in
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents the response after signup/signin
type AuthResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Token   string                 `json:"token,omitempty"`
	User    map[string]interface{} `json:"user,omitempty"`
}

func userPayload(u *models.User) map[string]interface{} {
	payload := map[string]interface{}{
		"id":         u.ID.String(),
		"name":       u.Name,
		"email":      u.Email,
		"role":       u.Role,
		"theme":      u.Theme,
		"created_at": u.CreatedAt,
	}
	if u.TermsVersion != "" {
		payload["terms_version"] = u.TermsVersion
		payload["terms_accepted_at"] = u.TermsAcceptedAt
	}
	return payload
}

// Signup registers a new citizen account.
func Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Name == "" || req.Email == "" {
		writeError(w, apperr.New(apperr.Validation, "Name and email are required"))
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeError(w, apperr.New(apperr.Validation, "Invalid email address"))
		return
	}
	if len(req.Password) < 8 {
		writeError(w, apperr.New(apperr.Validation, "Password must be at least 8 characters"))
		return
	}

	existing, err := services.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if existing != nil {
		writeError(w, apperr.New(apperr.Validation, "An account with this email already exists"))
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		writeInternal(w, err)
		return
	}

	var user models.User
	err = database.PostgresDB.QueryRowContext(r.Context(), `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, 'user')
		RETURNING id, created_at, updated_at, name, email, role, theme
	`, req.Name, req.Email, hash).Scan(
		&user.ID, &user.CreatedAt, &user.UpdatedAt, &user.Name, &user.Email, &user.Role, &user.Theme,
	)
	if err != nil {
		writeInternal(w, err)
		return
	}

	token, err := services.CreateSession(user.ID)
	if err != nil {
		writeInternal(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "Account created successfully",
		Token:   token,
		User:    userPayload(&user),
	})
}

// Signin authenticates a citizen and returns a session token. Banned
// accounts are rejected with the ban reason.
func Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}

	user, err := services.GetUserByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		writeInternal(w, err)
		return
	}
	if user == nil {
		writeError(w, apperr.New(apperr.Unauthorized, "Invalid email or password"))
		return
	}

	ok, err := utils.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		writeError(w, apperr.New(apperr.Unauthorized, "Invalid email or password"))
		return
	}

	if user.BanActive(timeNow()) {
		msg := "Your account is banned"
		if user.BanReason != "" {
			msg += ": " + user.BanReason
		}
		if user.BannedUntil != nil {
			msg += " (until " + user.BannedUntil.Format("2006-01-02") + ")"
		}
		writeError(w, apperr.New(apperr.Forbidden, msg))
		return
	}

	token, err := services.CreateSession(user.ID)
	if err != nil {
		writeInternal(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Signed in successfully",
		Token:   token,
		User:    userPayload(user),
	})
}

// AdminSignin authenticates an admin account against the admin session store.
func AdminSignin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}

	user, err := services.GetUserByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		writeInternal(w, err)
		return
	}
	if user == nil || user.Role != models.RoleAdmin {
		writeError(w, apperr.New(apperr.Unauthorized, "Invalid email or password"))
		return
	}

	ok, err := utils.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		writeError(w, apperr.New(apperr.Unauthorized, "Invalid email or password"))
		return
	}

	token, err := services.CreateAdminSession(user.ID)
	if err != nil {
		writeInternal(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Signed in successfully",
		Token:   token,
		User:    userPayload(user),
	})
}

// Signout invalidates the caller's session.
func Signout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	services.InvalidateSession(token)
	services.InvalidateAdminSession(token)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Signed out",
	})
}

// Me returns the authenticated account.
func Me(w http.ResponseWriter, r *http.Request) {
	p, ok := requireUser(w, r)
	if !ok {
		return
	}

	user, err := services.GetUserByID(r.Context(), p.ID)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if user == nil {
		writeError(w, apperr.New(apperr.NotFound, "Account not found"))
		return
	}

	payload := userPayload(user)
	payload["terms_current"] = user.TermsVersion == appConfig.TermsVersion
	if p.IsAdmin() {
		payload["counties"] = p.Counties
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    payload,
	})
}

// AcceptTermsRequest represents the terms-acceptance request
type AcceptTermsRequest struct {
	Version string `json:"version"`
}

// AcceptTerms records acceptance of the current terms version.
func AcceptTerms(w http.ResponseWriter, r *http.Request) {
	p, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AcceptTermsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}
	if strings.TrimSpace(req.Version) == "" {
		writeError(w, apperr.New(apperr.Validation, "Version is required"))
		return
	}
	if req.Version != appConfig.TermsVersion {
		writeError(w, apperr.New(apperr.Validation, "Version does not match the current terms"))
		return
	}

	_, err := database.PostgresDB.ExecContext(r.Context(), `
		UPDATE users SET terms_version = $1, terms_accepted_at = NOW(), updated_at = NOW()
		WHERE id = $2
	`, req.Version, p.ID)
	if err != nil {
		writeInternal(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Terms accepted",
	})
}

// UpdateThemeRequest represents the theme-preference request
type UpdateThemeRequest struct {
	Theme string `json:"theme"`
}

// UpdateTheme stores the caller's theme preference.
func UpdateTheme(w http.ResponseWriter, r *http.Request) {
	p, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req UpdateThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}
	if req.Theme != "light" && req.Theme != "dark" {
		writeError(w, apperr.New(apperr.Validation, "Theme must be light or dark"))
		return
	}

	_, err := database.PostgresDB.ExecContext(r.Context(), `
		UPDATE users SET theme = $1, updated_at = NOW() WHERE id = $2
	`, req.Theme, p.ID)
	if err != nil {
		writeInternal(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Theme updated",
	})
}
