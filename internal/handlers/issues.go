package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/civicsync/civicsync-backend/internal/apperr"
	"github.com/civicsync/civicsync-backend/internal/database"
	"github.com/civicsync/civicsync-backend/internal/models"
	"github.com/civicsync/civicsync-backend/pkg/clientip"
	"github.com/civicsync/civicsync-backend/internal/services"
)

const maxIssueImages = 5

// IssueResponse wraps a single issue
type IssueResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Issue   *models.Issue `json:"issue,omitempty"`
}

// IssueListResponse wraps the caller's own issues
type IssueListResponse struct {
	Success bool           `json:"success"`
	Issues  []models.Issue `json:"issues"`
}

const issueColumns = `
	id, created_at, updated_at, user_id, title, description, category, status,
	county, case_id, is_public, latitude, longitude, view_count,
	COALESCE(admin_note, ''), admin_action_by, admin_action_at`

func scanIssue(row interface {
	Scan(dest ...interface{}) error
}) (*models.Issue, error) {
	var i models.Issue
	err := row.Scan(
		&i.ID, &i.CreatedAt, &i.UpdatedAt, &i.UserID, &i.Title, &i.Description,
		&i.Category, &i.Status, &i.County, &i.CaseID, &i.IsPublic,
		&i.Latitude, &i.Longitude, &i.ViewCount,
		&i.AdminNote, &i.AdminActionBy, &i.AdminActionAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func loadIssue(r *http.Request, id uuid.UUID) (*models.Issue, error) {
	issue, err := scanIssue(database.PostgresDB.QueryRowContext(r.Context(),
		`SELECT `+issueColumns+` FROM issues WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	issue.Images, err = loadContentImages(r, "issue_images", "issue_id", id)
	if err != nil {
		return nil, err
	}
	return issue, nil
}

func loadContentImages(r *http.Request, table, column string, id uuid.UUID) ([]models.ContentImage, error) {
	rows, err := database.PostgresDB.QueryContext(r.Context(),
		`SELECT id, url, COALESCE(public_id, ''), created_at FROM `+table+
			` WHERE `+column+` = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []models.ContentImage
	for rows.Next() {
		var img models.ContentImage
		if err := rows.Scan(&img.ID, &img.URL, &img.PublicID, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func parseOptionalFloat(s string) (*float64, *apperr.Error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "Invalid coordinate: "+s)
	}
	return &f, nil
}

// collectUploads pushes the form's image files to Cloudinary, up to the
// attachment cap. Uploads are best effort: a failed file is logged and
// skipped, never failing the submission.
func collectUploads(r *http.Request, folder string) []services.UploadedImage {
	if cloudinarySvc == nil || r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File["images"]
	if len(files) > maxIssueImages {
		files = files[:maxIssueImages]
	}

	var uploaded []services.UploadedImage
	for _, fh := range files {
		img, err := cloudinarySvc.UploadFileFromHeader(r.Context(), fh, folder)
		if err != nil {
			log.Warn().Err(err).Str("file", fh.Filename).Msg("image upload failed")
			continue
		}
		uploaded = append(uploaded, img)
	}
	return uploaded
}

// issueDraft carries the validated fields of a new issue.
type issueDraft struct {
	userID      uuid.UUID
	title       string
	description string
	category    models.IssueCategory
	isPublic    bool
	county      string
	lat, lng    *float64
}

// insertIssue writes the issue row, its case ID and its image rows in one
// transaction. A failure anywhere, image rows included, rolls the whole
// submission back; only the upstream upload step is exempt from atomicity.
func insertIssue(ctx context.Context, db *sql.DB, d issueDraft, images []services.UploadedImage) (*models.Issue, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	caseID, err := services.AssignCaseID(ctx, services.CaseIDTakenTx(tx))
	if err != nil {
		return nil, err
	}

	issue, err := scanIssue(tx.QueryRowContext(ctx, `
		INSERT INTO issues (user_id, title, description, category, status, county, case_id, is_public, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+issueColumns,
		d.userID, d.title, d.description, d.category, models.IssueStatusUnderReview,
		d.county, caseID, d.isPublic, d.lat, d.lng))
	if err != nil {
		return nil, err
	}

	for _, img := range images {
		var stored models.ContentImage
		err = tx.QueryRowContext(ctx, `
			INSERT INTO issue_images (issue_id, url, public_id)
			VALUES ($1, $2, $3)
			RETURNING id, url, COALESCE(public_id, ''), created_at
		`, issue.ID, img.URL, img.PublicID).Scan(&stored.ID, &stored.URL, &stored.PublicID, &stored.CreatedAt)
		if err != nil {
			return nil, err
		}
		issue.Images = append(issue.Images, stored)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return issue, nil
}

// CreateIssue handles a multipart issue submission with optional images.
// The county is stamped from the submitter's profile; a user without a
// profile county cannot create content.
func CreateIssue(w http.ResponseWriter, r *http.Request) {
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
	category := models.IssueCategory(strings.TrimSpace(r.FormValue("category")))
	isPublic := r.FormValue("is_public") == "true"

	if title == "" || description == "" {
		writeError(w, apperr.New(apperr.Validation, "Title and description are required"))
		return
	}
	if !models.ValidIssueCategory(category) {
		writeError(w, apperr.New(apperr.Validation, "Invalid category"))
		return
	}

	lat, aerr := parseOptionalFloat(r.FormValue("latitude"))
	if aerr != nil {
		writeError(w, aerr)
		return
	}
	lng, aerr := parseOptionalFloat(r.FormValue("longitude"))
	if aerr != nil {
		writeError(w, aerr)
		return
	}

	county, err := services.ProfileCounty(r.Context(), p.ID)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if county == "" {
		writeError(w, apperr.New(apperr.Validation, "Set your county in your profile before reporting an issue"))
		return
	}

	images := collectUploads(r, "civicsync/issues")

	issue, err := insertIssue(r.Context(), database.PostgresDB, issueDraft{
		userID:      p.ID,
		title:       title,
		description: description,
		category:    category,
		isPublic:    isPublic,
		county:      county,
		lat:         lat,
		lng:         lng,
	}, images)
	if err != nil {
		writeInternal(w, err)
		return
	}

	if issue.IsPublic {
		services.PublishFeedEvent(services.FeedEvent{
			Type:      services.FeedEventCreated,
			Kind:      models.TargetIssue,
			ID:        issue.ID.String(),
			CaseID:    issue.CaseID,
			County:    issue.County,
			Title:     issue.Title,
			Status:    issue.Status,
			Timestamp: timeNow(),
		})
	}

	writeJSON(w, http.StatusCreated, IssueResponse{
		Success: true,
		Message: "Issue submitted with reference " + issue.CaseID,
		Issue:   issue,
	})
}

// GetIssue returns one issue by ID. Public issues are readable by anyone and
// every successful anonymous-or-not read bumps the view counter; private ones
// are limited to the owner and admins of the county, without counting views.
func GetIssue(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid issue ID"))
		return
	}

	issue, err := loadIssue(r, id)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if issue == nil {
		writeError(w, apperr.New(apperr.NotFound, "Issue not found"))
		return
	}

	p := currentPrincipal(r)
	ref := services.ContentRef{OwnerID: issue.UserID, County: issue.County, IsPublic: issue.IsPublic}
	if aerr := services.CanView(p, ref); aerr != nil {
		writeError(w, aerr)
		return
	}

	if services.CountsView(ref) {
		err := database.PostgresDB.QueryRowContext(r.Context(), `
			UPDATE issues SET view_count = view_count + 1 WHERE id = $1
			RETURNING view_count
		`, id).Scan(&issue.ViewCount)
		if err != nil {
			log.Warn().Err(err).Msg("view count update failed")
		}
		go services.RecordView(models.TargetIssue, id, clientip.RealClientIP(r))
	}

	writeJSON(w, http.StatusOK, IssueResponse{Success: true, Issue: issue})
}

// GetMyIssues lists the caller's own issues, newest first, public and private
// alike.
func GetMyIssues(w http.ResponseWriter, r *http.Request) {
	p, ok := requireUser(w, r)
	if !ok {
		return
	}

	rows, err := database.PostgresDB.QueryContext(r.Context(),
		`SELECT `+issueColumns+` FROM issues WHERE user_id = $1 ORDER BY created_at DESC`, p.ID)
	if err != nil {
		writeInternal(w, err)
		return
	}
	defer rows.Close()

	issues := []models.Issue{}
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			writeInternal(w, err)
			return
		}
		issues = append(issues, *issue)
	}
	if err := rows.Err(); err != nil {
		writeInternal(w, err)
		return
	}

	writeJSON(w, http.StatusOK, IssueListResponse{Success: true, Issues: issues})
}

// StatusUpdateRequest carries a status transition, with an optional note that
// becomes mandatory for accept/reject.
type StatusUpdateRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// UpdateIssueStatus moves an issue through its lifecycle. Owners and admins of
// the issue's county may transition it; accepted and rejected are admin-only
// and must carry a non-empty note explaining the decision.
func UpdateIssueStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid issue ID"))
		return
	}

	var req StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}
	if !models.ValidIssueStatus(req.Status) {
		writeError(w, apperr.New(apperr.Validation, "Invalid status"))
		return
	}

	issue, err := loadIssue(r, id)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if issue == nil {
		writeError(w, apperr.New(apperr.NotFound, "Issue not found"))
		return
	}

	ref := services.ContentRef{OwnerID: issue.UserID, County: issue.County, IsPublic: issue.IsPublic}
	if aerr := services.CanModify(p, ref); aerr != nil {
		writeError(w, aerr)
		return
	}

	adminDecision := req.Status == models.IssueStatusAccepted || req.Status == models.IssueStatusRejected
	req.Note = strings.TrimSpace(req.Note)
	if adminDecision {
		if !p.ManagesCounty(issue.County) {
			writeError(w, apperr.New(apperr.Forbidden, "Only the county admin can accept or reject an issue"))
			return
		}
		if req.Note == "" {
			writeError(w, apperr.New(apperr.Validation, "A note is required when accepting or rejecting"))
			return
		}
	}

	if adminDecision {
		issue, err = scanIssue(database.PostgresDB.QueryRowContext(r.Context(), `
			UPDATE issues
			SET status = $1, admin_note = $2, admin_action_by = $3, admin_action_at = NOW(), updated_at = NOW()
			WHERE id = $4
			RETURNING `+issueColumns, req.Status, req.Note, p.ID, id))
	} else {
		issue, err = scanIssue(database.PostgresDB.QueryRowContext(r.Context(), `
			UPDATE issues SET status = $1, updated_at = NOW() WHERE id = $2
			RETURNING `+issueColumns, req.Status, id))
	}
	if err != nil {
		writeInternal(w, err)
		return
	}

	if adminDecision {
		action := services.AuditAcceptContent
		if req.Status == models.IssueStatusRejected {
			action = services.AuditRejectContent
		}
		services.RecordAudit(p.ID, action, issue.ID.String(), map[string]interface{}{
			"kind":    models.TargetIssue,
			"case_id": issue.CaseID,
			"note":    req.Note,
		})
	}

	if issue.IsPublic {
		services.PublishFeedEvent(services.FeedEvent{
			Type:      services.FeedEventStatusChanged,
			Kind:      models.TargetIssue,
			ID:        issue.ID.String(),
			CaseID:    issue.CaseID,
			County:    issue.County,
			Title:     issue.Title,
			Status:    issue.Status,
			Timestamp: timeNow(),
		})
	}

	writeJSON(w, http.StatusOK, IssueResponse{
		Success: true,
		Message: "Status updated",
		Issue:   issue,
	})
}

// AdminDeleteIssue hard-deletes an issue and its images. Kept for legacy
// moderation tooling; only an admin of the issue's county may call it.
func AdminDeleteIssue(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid issue ID"))
		return
	}

	issue, err := loadIssue(r, id)
	if err != nil {
		writeInternal(w, err)
		return
	}
	if issue == nil {
		writeError(w, apperr.New(apperr.NotFound, "Issue not found"))
		return
	}
	if !admin.ManagesCounty(issue.County) {
		writeError(w, apperr.New(apperr.Forbidden, "You do not manage this issue's county"))
		return
	}

	if _, err := database.PostgresDB.ExecContext(r.Context(), `DELETE FROM issues WHERE id = $1`, id); err != nil {
		writeInternal(w, err)
		return
	}

	services.RecordAudit(admin.ID, services.AuditDeleteIssue, id.String(), map[string]interface{}{
		"case_id": issue.CaseID,
		"county":  issue.County,
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Issue deleted",
	})
}
