package handlers

import (
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
)

// AdminMessageRequest is a user-to-admin support message.
type AdminMessageRequest struct {
	IssueType   string `json:"issue_type"`
	Description string `json:"description"`
}

// AdminMessageResponse wraps one message
type AdminMessageResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message,omitempty"`
	Ticket  *models.AdminMessage `json:"ticket,omitempty"`
}

// AdminMessageListResponse wraps a message listing
type AdminMessageListResponse struct {
	Success bool                  `json:"success"`
	Tickets []models.AdminMessage `json:"tickets"`
}

const messageColumns = `
	id, created_at, updated_at, user_id, admin_id, COALESCE(county, ''),
	issue_type, description, status, COALESCE(admin_response, ''),
	viewed_at, resolved_at`

func scanMessage(row interface {
	Scan(dest ...interface{}) error
}) (*models.AdminMessage, error) {
	var m models.AdminMessage
	err := row.Scan(
		&m.ID, &m.CreatedAt, &m.UpdatedAt, &m.UserID, &m.AdminID, &m.County,
		&m.IssueType, &m.Description, &m.Status, &m.AdminResponse,
		&m.ViewedAt, &m.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateAdminMessage sends a support message. It is routed at creation to the
// admin managing the sender's profile county; a county without an admin
// leaves the message unassigned, visible to any admin.
func CreateAdminMessage(w http.ResponseWriter, r *http.Request) {
	p, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AdminMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}

	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		writeError(w, apperr.New(apperr.Validation, "Description is required"))
		return
	}
	if !models.ValidMessageType(req.IssueType) {
		writeError(w, apperr.New(apperr.Validation, "Invalid issue type"))
		return
	}

	county, err := services.ProfileCounty(r.Context(), p.ID)
	if err != nil {
		writeInternal(w, err)
		return
	}

	var adminID *uuid.UUID
	if county != "" {
		id, found, err := locationStore.AdminForCounty(r.Context(), county)
		if err != nil {
			writeInternal(w, err)
			return
		}
		if found {
			adminID = &id
		}
	}

	ticket, err := scanMessage(database.PostgresDB.QueryRowContext(r.Context(), `
		INSERT INTO admin_messages (user_id, admin_id, county, issue_type, description, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+messageColumns,
		p.ID, adminID, county, req.IssueType, req.Description, models.MessageStatusPending))
	if err != nil {
		writeInternal(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, AdminMessageResponse{
		Success: true,
		Message: "Message sent",
		Ticket:  ticket,
	})
}

// GetMyMessages lists the caller's own support messages, newest first.
func GetMyMessages(w http.ResponseWriter, r *http.Request) {
	p, ok := requireUser(w, r)
	if !ok {
		return
	}

	rows, err := database.PostgresDB.QueryContext(r.Context(),
		`SELECT `+messageColumns+` FROM admin_messages WHERE user_id = $1 ORDER BY created_at DESC`, p.ID)
	if err != nil {
		writeInternal(w, err)
		return
	}
	defer rows.Close()

	tickets := []models.AdminMessage{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			writeInternal(w, err)
			return
		}
		tickets = append(tickets, *m)
	}
	if err := rows.Err(); err != nil {
		writeInternal(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AdminMessageListResponse{Success: true, Tickets: tickets})
}

// AdminListMessages lists messages routed to the calling admin plus any
// unassigned ones. The stale sweep runs opportunistically first so the
// listing never shows a resolved message past its auto-close window.
func AdminListMessages(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	if _, err := services.CloseStaleAdminMessages(r.Context()); err != nil {
		log.Warn().Err(err).Msg("stale message sweep failed")
	}

	rows, err := database.PostgresDB.QueryContext(r.Context(),
		`SELECT `+messageColumns+` FROM admin_messages
		 WHERE admin_id = $1 OR admin_id IS NULL
		 ORDER BY created_at DESC`, admin.ID)
	if err != nil {
		writeInternal(w, err)
		return
	}
	defer rows.Close()

	tickets := []models.AdminMessage{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			writeInternal(w, err)
			return
		}
		tickets = append(tickets, *m)
	}
	if err := rows.Err(); err != nil {
		writeInternal(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AdminMessageListResponse{Success: true, Tickets: tickets})
}

func loadMessageForAdmin(w http.ResponseWriter, r *http.Request, admin services.Principal) (*models.AdminMessage, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid message ID"))
		return nil, false
	}

	m, err := scanMessage(database.PostgresDB.QueryRowContext(r.Context(),
		`SELECT `+messageColumns+` FROM admin_messages WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, apperr.New(apperr.NotFound, "Message not found"))
			return nil, false
		}
		writeInternal(w, err)
		return nil, false
	}

	if m.AdminID != nil && *m.AdminID != admin.ID {
		writeError(w, apperr.New(apperr.Forbidden, "This message is routed to another admin"))
		return nil, false
	}
	return m, true
}

// MessageRespondRequest carries an admin's reply and the resulting status.
type MessageRespondRequest struct {
	Response string `json:"response"`
	Status   string `json:"status"`
}

// RespondToMessage records the admin's reply, moves the message's status and
// emails the user. Responding to an unassigned message claims it.
func RespondToMessage(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	m, ok := loadMessageForAdmin(w, r, admin)
	if !ok {
		return
	}

	var req MessageRespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.New(apperr.Validation, "Invalid request body"))
		return
	}

	req.Response = strings.TrimSpace(req.Response)
	if req.Response == "" {
		writeError(w, apperr.New(apperr.Validation, "A response is required"))
		return
	}
	if req.Status == "" {
		req.Status = models.MessageStatusResolved
	}
	if !models.ValidMessageStatus(req.Status) {
		writeError(w, apperr.New(apperr.Validation, "Invalid status"))
		return
	}

	m, err := scanMessage(database.PostgresDB.QueryRowContext(r.Context(), `
		UPDATE admin_messages
		SET admin_id = $1, admin_response = $2, status = $3,
		    resolved_at = CASE WHEN $3 = 'resolved' THEN NOW() ELSE resolved_at END,
		    updated_at = NOW()
		WHERE id = $4
		RETURNING `+messageColumns, admin.ID, req.Response, req.Status, m.ID))
	if err != nil {
		writeInternal(w, err)
		return
	}

	services.RecordAudit(admin.ID, services.AuditMessageResponse, m.ID.String(), map[string]interface{}{
		"status": m.Status,
	})

	if user, err := services.GetUserByID(r.Context(), m.UserID); err == nil && user != nil {
		services.Notify(notifier, user.Email, "An admin replied to your message",
			"Your "+m.IssueType+" message has a new reply:\n\n"+req.Response)
	}

	writeJSON(w, http.StatusOK, AdminMessageResponse{
		Success: true,
		Message: "Response recorded",
		Ticket:  m,
	})
}

// MarkMessageViewed stamps viewed_at the first time an admin opens a message.
func MarkMessageViewed(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	m, ok := loadMessageForAdmin(w, r, admin)
	if !ok {
		return
	}

	m, err := scanMessage(database.PostgresDB.QueryRowContext(r.Context(), `
		UPDATE admin_messages
		SET viewed_at = COALESCE(viewed_at, NOW()), updated_at = NOW()
		WHERE id = $1
		RETURNING `+messageColumns, m.ID))
	if err != nil {
		writeInternal(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AdminMessageResponse{Success: true, Ticket: m})
}
