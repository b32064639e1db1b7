package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/civicsync/civicsync-backend/internal/apperr"
	"github.com/civicsync/civicsync-backend/internal/database"
	"github.com/civicsync/civicsync-backend/internal/models"
	"github.com/civicsync/civicsync-backend/internal/services"
)

// ProfileRequest represents a profile create/update request
type ProfileRequest struct {
	FullName    string   `json:"full_name"`
	DateOfBirth string   `json:"date_of_birth"` // YYYY-MM-DD
	Address     string   `json:"address"`
	PPSNumber   string   `json:"pps_number"`
	Interests   []string `json:"interests"`
	County      string   `json:"county"`
}

// ProfileResponse represents a profile response
type ProfileResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Profile *models.UserProfile `json:"profile,omitempty"`
}

func loadProfile(r *http.Request, userID uuid.UUID) (*models.UserProfile, error) {
	var p models.UserProfile
	var interests pq.StringArray
	err := database.PostgresDB.QueryRowContext(r.Context(), `
		SELECT id, user_id, created_at, updated_at,
			COALESCE(full_name, ''), date_of_birth, COALESCE(address, ''),
			COALESCE(pps_number, ''), interests, COALESCE(county, '')
		FROM user_profiles WHERE user_id = $1
	`, userID).Scan(
		&p.ID, &p.UserID, &p.CreatedAt, &p.UpdatedAt,
		&p.FullName, &p.DateOfBirth, &p.Address,
		&p.PPSNumber, &interests, &p.County,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.Interests = interests
	return &p, nil
}

// GetMyProfile returns the caller's profile, which may not exist yet.
func GetMyProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := requireUser(w, r)
	if !ok {
		return
	}

	profile, err := loadProfile(r, p.ID)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if profile == nil {
		writeError(w, apperr.New(apperr.NotFound, "Profile not created yet"))
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{Success: true, Profile: profile})
}

func parseDOB(s string) (*time.Time, *apperr.Error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "date_of_birth must be YYYY-MM-DD")
	}
	return &t, nil
}

// UpsertMyProfile creates the profile lazily on first write. Once the profile
// is complete, only address, interests and county stay mutable through this
// endpoint; identity fields are locked and need an admin.
func UpsertMyProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}

	req.County = strings.TrimSpace(req.County)
	if req.County != "" && !models.ValidCounty(req.County) {
		writeError(w, apperr.New(apperr.Validation, "Unknown county: "+req.County))
		return
	}

	dob, aerr := parseDOB(req.DateOfBirth)
	if aerr != nil {
		writeError(w, aerr)
		return
	}

	existing, err := loadProfile(r, p.ID)
	if err != nil {
		writeInternal(w, err)
		return
	}

	interests := make([]string, 0, len(req.Interests))
	for _, i := range req.Interests {
		if t := strings.TrimSpace(i); t != "" {
			interests = append(interests, t)
		}
	}

	if existing == nil {
		var profile models.UserProfile
		var scanned pq.StringArray
		err = database.PostgresDB.QueryRowContext(r.Context(), `
			INSERT INTO user_profiles (user_id, full_name, date_of_birth, address, pps_number, interests, county)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, user_id, created_at, updated_at,
				COALESCE(full_name, ''), date_of_birth, COALESCE(address, ''),
				COALESCE(pps_number, ''), interests, COALESCE(county, '')
		`, p.ID, req.FullName, dob, req.Address, req.PPSNumber, pq.StringArray(interests), req.County).Scan(
			&profile.ID, &profile.UserID, &profile.CreatedAt, &profile.UpdatedAt,
			&profile.FullName, &profile.DateOfBirth, &profile.Address,
			&profile.PPSNumber, &scanned, &profile.County,
		)
		if err != nil {
			writeInternal(w, err)
			return
		}
		profile.Interests = scanned

		writeJSON(w, http.StatusCreated, ProfileResponse{
			Success: true,
			Message: "Profile created",
			Profile: &profile,
		})
		return
	}

	if existing.Complete() {
		// Identity fields are frozen once the profile is complete
		if req.FullName != "" && req.FullName != existing.FullName {
			writeError(w, apperr.New(apperr.Validation, "full_name can no longer be changed"))
			return
		}
		if dob != nil && !dob.Equal(*existing.DateOfBirth) {
			writeError(w, apperr.New(apperr.Validation, "date_of_birth can no longer be changed"))
			return
		}
		if req.PPSNumber != "" && req.PPSNumber != existing.PPSNumber {
			writeError(w, apperr.New(apperr.Validation, "pps_number can no longer be changed"))
			return
		}

		_, err = database.PostgresDB.ExecContext(r.Context(), `
			UPDATE user_profiles
			SET address = COALESCE(NULLIF($1, ''), address),
			    interests = $2,
			    county = COALESCE(NULLIF($3, ''), county),
			    updated_at = NOW()
			WHERE user_id = $4
		`, req.Address, pq.StringArray(interests), req.County, p.ID)
	} else {
		// Still incomplete: everything is fillable
		_, err = database.PostgresDB.ExecContext(r.Context(), `
			UPDATE user_profiles
			SET full_name = COALESCE(NULLIF($1, ''), full_name),
			    date_of_birth = COALESCE($2, date_of_birth),
			    address = COALESCE(NULLIF($3, ''), address),
			    pps_number = COALESCE(NULLIF($4, ''), pps_number),
			    interests = $5,
			    county = COALESCE(NULLIF($6, ''), county),
			    updated_at = NOW()
			WHERE user_id = $7
		`, req.FullName, dob, req.Address, req.PPSNumber, pq.StringArray(interests), req.County, p.ID)
	}
	if err != nil {
		writeInternal(w, err)
		return
	}

	updated, err := loadProfile(r, p.ID)
	if err != nil {
		writeInternal(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{
		Success: true,
		Message: "Profile updated",
		Profile: updated,
	})
}

// AdminEditProfile lets an admin edit any profile field, including the ones
// locked for the owner.
func AdminEditProfile(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	userIDStr := r.URL.Query().Get("user_id")
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid user ID"))
		return
	}

	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}

	req.County = strings.TrimSpace(req.County)
	if req.County != "" && !models.ValidCounty(req.County) {
		writeError(w, apperr.New(apperr.Validation, "Unknown county: "+req.County))
		return
	}

	dob, aerr := parseDOB(req.DateOfBirth)
	if aerr != nil {
		writeError(w, aerr)
		return
	}

	existing, err := loadProfile(r, userID)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if existing == nil {
		writeError(w, apperr.New(apperr.NotFound, "Profile not found"))
		return
	}

	interests := make([]string, 0, len(req.Interests))
	for _, i := range req.Interests {
		if t := strings.TrimSpace(i); t != "" {
			interests = append(interests, t)
		}
	}

	_, err = database.PostgresDB.ExecContext(r.Context(), `
		UPDATE user_profiles
		SET full_name = COALESCE(NULLIF($1, ''), full_name),
		    date_of_birth = COALESCE($2, date_of_birth),
		    address = COALESCE(NULLIF($3, ''), address),
		    pps_number = COALESCE(NULLIF($4, ''), pps_number),
		    interests = $5,
		    county = COALESCE(NULLIF($6, ''), county),
		    updated_at = NOW()
		WHERE user_id = $7
	`, req.FullName, dob, req.Address, req.PPSNumber, pq.StringArray(interests), req.County, userID)
	if err != nil {
		writeInternal(w, err)
		return
	}

	services.RecordAudit(admin.ID, services.AuditEditProfile, userID.String(), nil)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Profile updated",
	})
}
