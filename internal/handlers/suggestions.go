package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/civicsync/civicsync-backend/internal/apperr"
	"github.com/civicsync/civicsync-backend/internal/database"
	"github.com/civicsync/civicsync-backend/internal/models"
	"github.com/civicsync/civicsync-backend/internal/services"
	"github.com/civicsync/civicsync-backend/pkg/clientip"
)

// SuggestionResponse wraps a single suggestion
type SuggestionResponse struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message,omitempty"`
	Suggestion *models.Suggestion `json:"suggestion,omitempty"`
}

// SuggestionListResponse wraps the caller's own suggestions
type SuggestionListResponse struct {
	Success     bool                `json:"success"`
	Suggestions []models.Suggestion `json:"suggestions"`
}

const suggestionColumns = `
	id, created_at, updated_at, user_id, title, description, category, status,
	county, case_id, is_public, view_count,
	COALESCE(admin_note, ''), admin_action_by, admin_action_at`

func scanSuggestion(row interface {
	Scan(dest ...interface{}) error
}) (*models.Suggestion, error) {
	var s models.Suggestion
	err := row.Scan(
		&s.ID, &s.CreatedAt, &s.UpdatedAt, &s.UserID, &s.Title, &s.Description,
		&s.Category, &s.Status, &s.County, &s.CaseID, &s.IsPublic, &s.ViewCount,
		&s.AdminNote, &s.AdminActionBy, &s.AdminActionAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func loadSuggestion(r *http.Request, id uuid.UUID) (*models.Suggestion, error) {
	s, err := scanSuggestion(database.PostgresDB.QueryRowContext(r.Context(),
		`SELECT `+suggestionColumns+` FROM suggestions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	s.Images, err = loadContentImages(r, "suggestion_images", "suggestion_id", id)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// suggestionDraft carries the validated fields of a new suggestion.
type suggestionDraft struct {
	userID      uuid.UUID
	title       string
	description string
	category    models.SuggestionCategory
	isPublic    bool
	county      string
}

// insertSuggestion writes the suggestion row, its case ID and its image rows
// in one transaction, mirroring insertIssue.
func insertSuggestion(ctx context.Context, db *sql.DB, d suggestionDraft, images []services.UploadedImage) (*models.Suggestion, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	caseID, err := services.AssignCaseID(ctx, services.CaseIDTakenTx(tx))
	if err != nil {
		return nil, err
	}

	suggestion, err := scanSuggestion(tx.QueryRowContext(ctx, `
		INSERT INTO suggestions (user_id, title, description, category, status, county, case_id, is_public)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+suggestionColumns,
		d.userID, d.title, d.description, d.category, models.SuggestionStatusSubmitted,
		d.county, caseID, d.isPublic))
	if err != nil {
		return nil, err
	}

	for _, img := range images {
		var stored models.ContentImage
		err = tx.QueryRowContext(ctx, `
			INSERT INTO suggestion_images (suggestion_id, url, public_id)
			VALUES ($1, $2, $3)
			RETURNING id, url, COALESCE(public_id, ''), created_at
		`, suggestion.ID, img.URL, img.PublicID).Scan(&stored.ID, &stored.URL, &stored.PublicID, &stored.CreatedAt)
		if err != nil {
			return nil, err
		}
		suggestion.Images = append(suggestion.Images, stored)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return suggestion, nil
}

// CreateSuggestion handles a multipart suggestion submission. Same shape as
// issue creation but without geolocation; suggestions start in submitted.
func CreateSuggestion(w http.ResponseWriter, r *http.Request) {
	p, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid multipart form"))
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	category := models.SuggestionCategory(strings.TrimSpace(r.FormValue("category")))
	isPublic := r.FormValue("is_public") == "true"

	if title == "" || description == "" {
		writeError(w, apperr.New(apperr.Validation, "Title and description are required"))
		return
	}
	if !models.ValidSuggestionCategory(category) {
		writeError(w, apperr.New(apperr.Validation, "Invalid category"))
		return
	}

	county, err := services.ProfileCounty(r.Context(), p.ID)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if county == "" {
		writeError(w, apperr.New(apperr.Validation, "Set your county in your profile before making a suggestion"))
		return
	}

	images := collectUploads(r, "civicsync/suggestions")

	suggestion, err := insertSuggestion(r.Context(), database.PostgresDB, suggestionDraft{
		userID:      p.ID,
		title:       title,
		description: description,
		category:    category,
		isPublic:    isPublic,
		county:      county,
	}, images)
	if err != nil {
		writeInternal(w, err)
		return
	}

	if suggestion.IsPublic {
		services.PublishFeedEvent(services.FeedEvent{
			Type:      services.FeedEventCreated,
			Kind:      models.TargetSuggestion,
			ID:        suggestion.ID.String(),
			CaseID:    suggestion.CaseID,
			County:    suggestion.County,
			Title:     suggestion.Title,
			Status:    suggestion.Status,
			Timestamp: timeNow(),
		})
	}

	writeJSON(w, http.StatusCreated, SuggestionResponse{
		Success:    true,
		Message:    "Suggestion submitted with reference " + suggestion.CaseID,
		Suggestion: suggestion,
	})
}

// GetSuggestion returns one suggestion by ID with the same access and
// view-count rules as issues.
func GetSuggestion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid suggestion ID"))
		return
	}

	suggestion, err := loadSuggestion(r, id)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if suggestion == nil {
		writeError(w, apperr.New(apperr.NotFound, "Suggestion not found"))
		return
	}

	p := currentPrincipal(r)
	ref := services.ContentRef{OwnerID: suggestion.UserID, County: suggestion.County, IsPublic: suggestion.IsPublic}
	if aerr := services.CanView(p, ref); aerr != nil {
		writeError(w, aerr)
		return
	}

	if services.CountsView(ref) {
		err := database.PostgresDB.QueryRowContext(r.Context(), `
			UPDATE suggestions SET view_count = view_count + 1 WHERE id = $1
			RETURNING view_count
		`, id).Scan(&suggestion.ViewCount)
		if err != nil {
			log.Warn().Err(err).Msg("view count update failed")
		}
		go services.RecordView(models.TargetSuggestion, id, clientip.RealClientIP(r))
	}

	writeJSON(w, http.StatusOK, SuggestionResponse{Success: true, Suggestion: suggestion})
}

// GetMySuggestions lists the caller's own suggestions, newest first.
func GetMySuggestions(w http.ResponseWriter, r *http.Request) {
	p, ok := requireUser(w, r)
	if !ok {
		return
	}

	rows, err := database.PostgresDB.QueryContext(r.Context(),
		`SELECT `+suggestionColumns+` FROM suggestions WHERE user_id = $1 ORDER BY created_at DESC`, p.ID)
	if err != nil {
		writeInternal(w, err)
		return
	}
	defer rows.Close()

	suggestions := []models.Suggestion{}
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			writeInternal(w, err)
			return
		}
		suggestions = append(suggestions, *s)
	}
	if err := rows.Err(); err != nil {
		writeInternal(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SuggestionListResponse{Success: true, Suggestions: suggestions})
}

// UpdateSuggestionStatus moves a suggestion through its lifecycle. approved
// and rejected are admin decisions and require a non-empty note.
func UpdateSuggestionStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid suggestion ID"))
		return
	}

	var req StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}
	if !models.ValidSuggestionStatus(req.Status) {
		writeError(w, apperr.New(apperr.Validation, "Invalid status"))
		return
	}

	suggestion, err := loadSuggestion(r, id)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if suggestion == nil {
		writeError(w, apperr.New(apperr.NotFound, "Suggestion not found"))
		return
	}

	ref := services.ContentRef{OwnerID: suggestion.UserID, County: suggestion.County, IsPublic: suggestion.IsPublic}
	if aerr := services.CanModify(p, ref); aerr != nil {
		writeError(w, aerr)
		return
	}

	adminDecision := req.Status == models.SuggestionStatusApproved || req.Status == models.SuggestionStatusRejected
	req.Note = strings.TrimSpace(req.Note)
	if adminDecision {
		if !p.ManagesCounty(suggestion.County) {
			writeError(w, apperr.New(apperr.Forbidden, "Only the county admin can approve or reject a suggestion"))
			return
		}
		if req.Note == "" {
			writeError(w, apperr.New(apperr.Validation, "A note is required when approving or rejecting"))
			return
		}
	}

	if adminDecision {
		suggestion, err = scanSuggestion(database.PostgresDB.QueryRowContext(r.Context(), `
			UPDATE suggestions
			SET status = $1, admin_note = $2, admin_action_by = $3, admin_action_at = NOW(), updated_at = NOW()
			WHERE id = $4
			RETURNING `+suggestionColumns, req.Status, req.Note, p.ID, id))
	} else {
		suggestion, err = scanSuggestion(database.PostgresDB.QueryRowContext(r.Context(), `
			UPDATE suggestions SET status = $1, updated_at = NOW() WHERE id = $2
			RETURNING `+suggestionColumns, req.Status, id))
	}
	if err != nil {
		writeInternal(w, err)
		return
	}

	if adminDecision {
		action := services.AuditAcceptContent
		if req.Status == models.SuggestionStatusRejected {
			action = services.AuditRejectContent
		}
		services.RecordAudit(p.ID, action, suggestion.ID.String(), map[string]interface{}{
			"kind":    models.TargetSuggestion,
			"case_id": suggestion.CaseID,
			"note":    req.Note,
		})
	}

	if suggestion.IsPublic {
		services.PublishFeedEvent(services.FeedEvent{
			Type:      services.FeedEventStatusChanged,
			Kind:      models.TargetSuggestion,
			ID:        suggestion.ID.String(),
			CaseID:    suggestion.CaseID,
			County:    suggestion.County,
			Title:     suggestion.Title,
			Status:    suggestion.Status,
			Timestamp: timeNow(),
		})
	}

	writeJSON(w, http.StatusOK, SuggestionResponse{
		Success:    true,
		Message:    "Status updated",
		Suggestion: suggestion,
	})
}
